package classify

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Tier is the processing strategy assigned to a file.
type Tier int

const (
	TierAnnotated Tier = iota
	TierSourceCode
	TierGeneric
)

func (t Tier) String() string {
	switch t {
	case TierAnnotated:
		return "annotated"
	case TierSourceCode:
		return "source_code"
	case TierGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// FileDescriptor is the immutable input to classification.
type FileDescriptor struct {
	Path          string
	DeclaredMIME  string
	Size          int64
	HasAnnotation bool
}

// AnnotationChecker reports whether a curated annotation exists for a path.
type AnnotationChecker interface {
	Has(path string) bool
}

// defaultExtensions maps file extensions to language identifiers.
// Callers can extend or override entries via NewClassifier.
var defaultExtensions = map[string]string{
	".go":   "go",
	".py":   "python",
	".pyw":  "python",
	".js":   "js",
	".mjs":  "js",
	".jsx":  "js",
	".ts":   "ts",
	".tsx":  "tsx",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".hpp":  "cpp",
	".php":  "php",
	".php3": "php",
	".php4": "php",
	".php5": "php",
	".pl":   "perl",
	".pm":   "perl",
	".rb":   "ruby",
	".sh":   "shell",
	".bash": "shell",
	".java": "java",
	".asm":  "asm",
	".s":    "asm",
}

// sourceMIMEs maps declared MIME types to language identifiers.
var sourceMIMEs = map[string]string{
	"text/x-go":                 "go",
	"text/x-python":             "python",
	"application/x-python":      "python",
	"text/javascript":           "js",
	"application/javascript":    "js",
	"text/x-c":                  "c",
	"text/x-c++":                "cpp",
	"application/x-php":         "php",
	"text/x-php":                "php",
	"application/x-perl":        "perl",
	"application/x-ruby":        "ruby",
	"application/x-sh":          "shell",
	"text/x-shellscript":        "shell",
	"text/x-java-source":        "java",
	"application/x-java-source": "java",
}

// shebangLanguages maps interpreter names found on a #! line to language ids.
var shebangLanguages = map[string]string{
	"python":  "python",
	"python2": "python",
	"python3": "python",
	"perl":    "perl",
	"ruby":    "ruby",
	"sh":      "shell",
	"bash":    "shell",
	"node":    "js",
	"php":     "php",
}

// Classifier assigns a processing tier to a file. Classification is total:
// it never fails and unknown inputs resolve to TierGeneric.
type Classifier struct {
	index AnnotationChecker
	exts  map[string]string
}

// NewClassifier builds a classifier. index may be nil when no external
// annotation lookup is available; extra extends or overrides the built-in
// extension table.
func NewClassifier(index AnnotationChecker, extra map[string]string) *Classifier {
	exts := make(map[string]string, len(defaultExtensions)+len(extra))
	for k, v := range defaultExtensions {
		exts[k] = v
	}
	for k, v := range extra {
		exts[strings.ToLower(k)] = v
	}
	return &Classifier{index: index, exts: exts}
}

// Classify picks the processing tier for fd. Annotation presence dominates
// content sniffing: curated annotations are more reliable than detection.
func (c *Classifier) Classify(fd FileDescriptor) Tier {
	if fd.HasAnnotation {
		return TierAnnotated
	}
	if c.index != nil && c.index.Has(fd.Path) {
		return TierAnnotated
	}
	if _, ok := sourceMIMEs[fd.DeclaredMIME]; ok {
		return TierSourceCode
	}
	if _, ok := c.exts[strings.ToLower(filepath.Ext(fd.Path))]; ok {
		return TierSourceCode
	}
	return TierGeneric
}

// Language resolves the language id for a path, falling back to a shebang
// sniff of content when the extension is ambiguous or absent.
func (c *Classifier) Language(path string, content []byte) (string, bool) {
	if lang, ok := c.exts[strings.ToLower(filepath.Ext(path))]; ok {
		return lang, true
	}
	return shebangLanguage(content)
}

func shebangLanguage(content []byte) (string, bool) {
	if !bytes.HasPrefix(content, []byte("#!")) {
		return "", false
	}
	line := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	fields := strings.Fields(string(line[2:]))
	if len(fields) == 0 {
		return "", false
	}
	interp := filepath.Base(fields[0])
	// `#!/usr/bin/env python` puts the interpreter in the second field.
	if interp == "env" && len(fields) > 1 {
		interp = filepath.Base(fields[1])
	}
	// Strip a trailing version suffix like python2.7.
	if i := strings.IndexByte(interp, '.'); i > 0 {
		interp = interp[:i]
	}
	lang, ok := shebangLanguages[interp]
	return lang, ok
}
