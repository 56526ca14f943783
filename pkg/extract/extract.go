// Package extract detects software components mentioned in exploit
// descriptions, file paths, and extracted file text using a static
// pattern registry.
package extract

import (
	"strconv"
	"strings"
	"unicode"
)

// versionWindow bounds how far past a matched name the version scan looks,
// so unrelated numbers elsewhere in free text are not picked up.
const versionWindow = 160

// Component is a named piece of software detected in a file.
type Component struct {
	Kind      Kind   `json:"kind"`
	Name      string `json:"name"`
	Version   string `json:"version,omitempty"`
	Author    string `json:"author,omitempty"`
	Category  string `json:"category,omitempty"`
	ParentCMS string `json:"parent_cms,omitempty"`
}

// Extract applies every pattern group against path and text and returns the
// detected components. Duplicate (kind, name) pairs are coalesced, keeping
// the first version and author found. The result is deterministic for a
// given (text, path) pair.
func Extract(text, path string) []Component {
	var out []Component
	seen := make(map[string]int)

	add := func(c Component) {
		key := string(c.Kind) + "\x00" + c.Name
		if i, ok := seen[key]; ok {
			if out[i].Version == "" {
				out[i].Version = c.Version
			}
			if out[i].Author == "" {
				out[i].Author = c.Author
			}
			return
		}
		seen[key] = len(out)
		out = append(out, c)
	}

	for _, p := range lib.names {
		for _, src := range []string{path, text} {
			for _, m := range p.re.FindAllStringSubmatch(src, -1) {
				name := strings.ToLower(m[1])
				add(Component{
					Kind:      p.kind,
					Name:      name,
					Version:   versionFor(text, name),
					Author:    authorFor(text),
					Category:  p.category,
					ParentCMS: p.parentCMS,
				})
			}
		}
	}

	for _, p := range lib.keywords {
		if p.re.MatchString(text) || p.re.MatchString(path) {
			add(Component{
				Kind:    p.kind,
				Name:    p.name,
				Version: versionFor(text, p.name),
			})
		}
	}

	return out
}

// versionFor finds a version number in a bounded window following an
// occurrence of name in text. When the name never appears in the text the
// labeled form ("Version: 1.2.3") is used instead.
func versionFor(text, name string) string {
	// Lowercasing can change byte offsets, so the window search stays on
	// the lowered string throughout. The version pattern is ASCII-only and
	// matches the same on lowered text.
	lower := strings.ToLower(text)
	lowName := strings.ToLower(name)
	idx := strings.Index(lower, lowName)
	if idx < 0 {
		if m := lib.labelVer.FindStringSubmatch(text); m != nil {
			return m[1]
		}
		return ""
	}
	start := idx + len(lowName)
	end := start + versionWindow
	if end > len(lower) {
		end = len(lower)
	}
	if m := lib.version.FindStringSubmatch(lower[start:end]); m != nil {
		return m[1]
	}
	if m := lib.labelVer.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// authorFor pulls a labeled author line out of text; best-effort.
func authorFor(text string) string {
	if m := lib.author.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// CVEs returns every CVE identifier mentioned in text, uppercased, in
// order of first appearance.
func CVEs(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range lib.cve.FindAllString(text, -1) {
		id := strings.ToUpper(m)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Year returns the first plausible publication year found in text.
func Year(text string) (int, bool) {
	m := lib.year.FindString(text)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return y, true
}

// CleanText collapses runs of whitespace and strips non-printable
// characters, mirroring the hygiene applied to stored descriptions.
func CleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if !unicode.IsPrint(r) {
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
