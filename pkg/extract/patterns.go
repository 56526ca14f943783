package extract

import "regexp"

// Kind identifies what sort of software a component is.
type Kind string

const (
	KindCMS         Kind = "cms"
	KindPlugin      Kind = "plugin"
	KindTheme       Kind = "theme"
	KindLanguage    Kind = "language"
	KindApplication Kind = "application"
	KindDatabase    Kind = "database"
	KindServer      Kind = "server"
	KindFramework   Kind = "framework"
)

// namePattern matches a software name in a path segment or text and fixes
// its kind. ParentCMS is set for plugin/theme patterns whose ecosystem is
// known from the pattern itself.
type namePattern struct {
	re        *regexp.Regexp
	kind      Kind
	parentCMS string
	category  string
}

// keywordPattern matches a fixed, well-known software name.
type keywordPattern struct {
	re   *regexp.Regexp
	kind Kind
	name string
}

// library is the static pattern registry driving component extraction.
// It is read-only after process start; concurrent readers need no locking.
type library struct {
	names    []namePattern
	keywords []keywordPattern
	version  *regexp.Regexp
	labelVer *regexp.Regexp
	author   *regexp.Regexp
	cve      *regexp.Regexp
	year     *regexp.Regexp
}

var lib = &library{
	names: []namePattern{
		// WordPress plugin and theme directory layouts.
		{re: regexp.MustCompile(`(?i)wp-content/plugins/([a-z0-9][a-z0-9_-]+)`), kind: KindPlugin, parentCMS: "wordpress"},
		{re: regexp.MustCompile(`(?i)wp-content/themes/([a-z0-9][a-z0-9_-]+)`), kind: KindTheme, parentCMS: "wordpress"},
		{re: regexp.MustCompile(`(?i)wordpress\s+plugin\s+([a-z0-9][a-z0-9_-]+)`), kind: KindPlugin, parentCMS: "wordpress"},
		{re: regexp.MustCompile(`(?i)wordpress\s+theme\s+([a-z0-9][a-z0-9_-]+)`), kind: KindTheme, parentCMS: "wordpress"},
		// Joomla component/module/plugin prefixes.
		{re: regexp.MustCompile(`(?i)\bcom_([a-z0-9][a-z0-9_-]+)`), kind: KindPlugin, parentCMS: "joomla", category: "component"},
		{re: regexp.MustCompile(`(?i)\bmod_([a-z0-9][a-z0-9_-]+)`), kind: KindPlugin, parentCMS: "joomla", category: "module"},
		{re: regexp.MustCompile(`(?i)\bplg_([a-z0-9][a-z0-9_-]+)`), kind: KindPlugin, parentCMS: "joomla", category: "plugin"},
		// Drupal contrib module layout.
		{re: regexp.MustCompile(`(?i)sites/all/modules/([a-z0-9][a-z0-9_-]+)`), kind: KindPlugin, parentCMS: "drupal", category: "module"},
		{re: regexp.MustCompile(`(?i)drupal\s+module\s+([a-z0-9][a-z0-9_-]+)`), kind: KindPlugin, parentCMS: "drupal", category: "module"},
	},
	keywords: []keywordPattern{
		{re: regexp.MustCompile(`(?i)\bwordpress\b`), kind: KindCMS, name: "wordpress"},
		{re: regexp.MustCompile(`(?i)\bjoomla!?\b`), kind: KindCMS, name: "joomla"},
		{re: regexp.MustCompile(`(?i)\bdrupal\b`), kind: KindCMS, name: "drupal"},
		{re: regexp.MustCompile(`(?i)\bmagento\b`), kind: KindCMS, name: "magento"},
		{re: regexp.MustCompile(`(?i)\btypo3\b`), kind: KindCMS, name: "typo3"},
		{re: regexp.MustCompile(`(?i)\bphp\b`), kind: KindLanguage, name: "php"},
		{re: regexp.MustCompile(`(?i)\bpython\b`), kind: KindLanguage, name: "python"},
		{re: regexp.MustCompile(`(?i)\bperl\b`), kind: KindLanguage, name: "perl"},
		{re: regexp.MustCompile(`(?i)\bruby\b`), kind: KindLanguage, name: "ruby"},
		{re: regexp.MustCompile(`(?i)\bmysql\b`), kind: KindDatabase, name: "mysql"},
		{re: regexp.MustCompile(`(?i)\bpostgres(?:ql)?\b`), kind: KindDatabase, name: "postgresql"},
		{re: regexp.MustCompile(`(?i)\bsqlite\b`), kind: KindDatabase, name: "sqlite"},
		{re: regexp.MustCompile(`(?i)\bapache\b`), kind: KindServer, name: "apache"},
		{re: regexp.MustCompile(`(?i)\bnginx\b`), kind: KindServer, name: "nginx"},
		{re: regexp.MustCompile(`(?i)\b(?:microsoft\s+)?iis\b`), kind: KindServer, name: "iis"},
		{re: regexp.MustCompile(`(?i)\blaravel\b`), kind: KindFramework, name: "laravel"},
		{re: regexp.MustCompile(`(?i)\bdjango\b`), kind: KindFramework, name: "django"},
		{re: regexp.MustCompile(`(?i)\bruby on rails\b`), kind: KindFramework, name: "rails"},
		{re: regexp.MustCompile(`(?i)\bphpmyadmin\b`), kind: KindApplication, name: "phpmyadmin"},
		{re: regexp.MustCompile(`(?i)\bvbulletin\b`), kind: KindApplication, name: "vbulletin"},
		{re: regexp.MustCompile(`(?i)\bphpbb\b`), kind: KindApplication, name: "phpbb"},
		{re: regexp.MustCompile(`(?i)\bmediawiki\b`), kind: KindApplication, name: "mediawiki"},
	},
	version:  regexp.MustCompile(`\bv?(\d+(?:\.\d+)+)\b`),
	labelVer: regexp.MustCompile(`(?im)^\s*(?:stable tag|version)\s*[:=]\s*v?(\d+(?:\.\d+)+)`),
	author:   regexp.MustCompile(`(?im)^\s*(?:author\s*:|authored by)\s*(.+?)\s*$`),
	cve:      regexp.MustCompile(`(?i)CVE-\d{4}-\d{4,7}`),
	year:     regexp.MustCompile(`\b(19|20)\d{2}\b`),
}
