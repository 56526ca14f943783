package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticIndex map[string]bool

func (s staticIndex) Has(path string) bool { return s[path] }

func TestClassifyAnnotationDominates(t *testing.T) {
	c := NewClassifier(staticIndex{"exploits/remote/1234.c": true}, nil)

	// Annotation presence wins even for an obvious source file.
	got := c.Classify(FileDescriptor{Path: "exploits/remote/1234.c", HasAnnotation: false})
	assert.Equal(t, TierAnnotated, got)

	// The descriptor flag alone is enough too.
	got = c.Classify(FileDescriptor{Path: "docs/readme.txt", HasAnnotation: true})
	assert.Equal(t, TierAnnotated, got)
}

func TestClassifyTiers(t *testing.T) {
	c := NewClassifier(nil, nil)

	tests := []struct {
		name string
		fd   FileDescriptor
		want Tier
	}{
		{"go source by extension", FileDescriptor{Path: "tool/scan.go"}, TierSourceCode},
		{"python by extension", FileDescriptor{Path: "exploit.py"}, TierSourceCode},
		{"php by extension", FileDescriptor{Path: "shell.php"}, TierSourceCode},
		{"source by declared mime", FileDescriptor{Path: "noext", DeclaredMIME: "text/x-python"}, TierSourceCode},
		{"plain text", FileDescriptor{Path: "notes.txt"}, TierGeneric},
		{"binary", FileDescriptor{Path: "payload.bin"}, TierGeneric},
		{"no extension", FileDescriptor{Path: "README"}, TierGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.fd))
		})
	}
}

func TestClassifyExtensionOverride(t *testing.T) {
	c := NewClassifier(nil, map[string]string{".xyz": "python"})
	assert.Equal(t, TierSourceCode, c.Classify(FileDescriptor{Path: "weird.xyz"}))
}

func TestLanguageShebangFallback(t *testing.T) {
	c := NewClassifier(nil, nil)

	lang, ok := c.Language("exploit", []byte("#!/usr/bin/env python\nprint('x')\n"))
	assert.True(t, ok)
	assert.Equal(t, "python", lang)

	lang, ok = c.Language("runme", []byte("#!/bin/bash\necho hi\n"))
	assert.True(t, ok)
	assert.Equal(t, "shell", lang)

	_, ok = c.Language("data", []byte{0x7f, 0x45, 0x4c, 0x46})
	assert.False(t, ok)
}

func TestLanguageExtensionWins(t *testing.T) {
	c := NewClassifier(nil, nil)
	lang, ok := c.Language("script.py", []byte("#!/usr/bin/env ruby\n"))
	assert.True(t, ok)
	assert.Equal(t, "python", lang)
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "annotated", TierAnnotated.String())
	assert.Equal(t, "source_code", TierSourceCode.String())
	assert.Equal(t, "generic", TierGeneric.String())
}
