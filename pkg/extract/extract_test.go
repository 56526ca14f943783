package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractWordPressPluginReadme(t *testing.T) {
	path := "wp-content/plugins/contact-form-7/readme.txt"
	text := "=== Contact Form 7 ===\nVersion: 5.1.2\nAuthor: Takayuki Miyoshi\n"

	got := Extract(text, path)
	require.Len(t, got, 1)
	assert.Equal(t, Component{
		Kind:      KindPlugin,
		Name:      "contact-form-7",
		Version:   "5.1.2",
		Author:    "Takayuki Miyoshi",
		ParentCMS: "wordpress",
	}, got[0])
}

func TestExtractIdempotent(t *testing.T) {
	path := "wp-content/plugins/akismet/akismet.php"
	text := "WordPress plugin akismet 4.1.9 requires PHP and MySQL"

	first := Extract(text, path)
	second := Extract(text, path)
	assert.Equal(t, first, second)
}

func TestExtractCoalescesDuplicates(t *testing.T) {
	path := "wp-content/plugins/woocommerce/woocommerce.php"
	text := "The wp-content/plugins/woocommerce directory ships woocommerce 3.5.0 and also woocommerce 9.9.9"

	got := Extract(text, path)
	plugins := 0
	for _, c := range got {
		if c.Kind == KindPlugin {
			plugins++
			assert.Equal(t, "woocommerce", c.Name)
			// First version found sticks.
			assert.Equal(t, "3.5.0", c.Version)
		}
	}
	assert.Equal(t, 1, plugins)
}

func TestExtractJoomlaComponent(t *testing.T) {
	got := Extract("SQL injection in com_content for Joomla", "exploits/joomla/com_content.txt")

	var plugin, cms *Component
	for i := range got {
		switch got[i].Kind {
		case KindPlugin:
			plugin = &got[i]
		case KindCMS:
			cms = &got[i]
		}
	}
	require.NotNil(t, plugin)
	assert.Equal(t, "content", plugin.Name)
	assert.Equal(t, "joomla", plugin.ParentCMS)
	assert.Equal(t, "component", plugin.Category)
	require.NotNil(t, cms)
	assert.Equal(t, "joomla", cms.Name)
}

func TestExtractKeywordKinds(t *testing.T) {
	text := "Remote exploit for Apache running PHP 5.4 with MySQL backend"
	got := Extract(text, "exploits/web/apache.txt")

	kinds := map[Kind]string{}
	for _, c := range got {
		kinds[c.Kind] = c.Name
	}
	assert.Equal(t, "apache", kinds[KindServer])
	assert.Equal(t, "php", kinds[KindLanguage])
	assert.Equal(t, "mysql", kinds[KindDatabase])
}

func TestVersionWindowBounds(t *testing.T) {
	// The version sits far past the name; the bounded window must not
	// pick it up.
	padding := make([]byte, versionWindow+8)
	for i := range padding {
		padding[i] = 'x'
	}
	text := "drupal " + string(padding) + " 7.1.2"
	got := Extract(text, "")

	for _, c := range got {
		if c.Name == "drupal" {
			assert.Empty(t, c.Version)
		}
	}
}

func TestExtractCaseExpandingRunes(t *testing.T) {
	// Some runes grow in byte length when lowercased (U+023A becomes the
	// 3-byte U+2C65), shifting byte offsets between the original and the
	// lowered text. The version window must stay in bounds regardless.
	text := strings.Repeat("Ⱥ", 60) + " php"
	got := Extract(text, "")

	require.NotEmpty(t, got)
	assert.Equal(t, "php", got[0].Name)
	assert.Empty(t, got[0].Version)

	// And the version is still found when it follows such runes.
	withVersion := strings.Repeat("Ⱥ", 60) + " php 7.4.1"
	got = Extract(withVersion, "")
	require.NotEmpty(t, got)
	assert.Equal(t, "7.4.1", got[0].Version)
}

func TestExtractUnknownPlatform(t *testing.T) {
	assert.Empty(t, Extract("nothing recognizable here", "random/file.dat"))
}

func TestCVEs(t *testing.T) {
	text := "Fixes cve-2021-44228 and CVE-2021-44228, related to CVE-2014-0160."
	assert.Equal(t, []string{"CVE-2021-44228", "CVE-2014-0160"}, CVEs(text))
	assert.Empty(t, CVEs("no identifiers"))
}

func TestYear(t *testing.T) {
	y, ok := Year("published in 2003 by someone")
	assert.True(t, ok)
	assert.Equal(t, 2003, y)

	_, ok = Year("version 1.2.3")
	assert.False(t, ok)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", CleanText("  a\t\tb\n\nc  "))
	assert.Equal(t, "ok", CleanText("ok\x00\x01"))
}
