// Package annotation parses curated index_.txt files into per-file
// annotation records. Each index entry is delimited by "///" and carries a
// filename, a free-text description, and optional tags, systems, hashes,
// and author lines.
package annotation

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Annotation is one curated record associated with a file path.
type Annotation struct {
	Filename    string            `json:"filename"`
	Date        *time.Time        `json:"date,omitempty"`
	Description string            `json:"description"`
	SourceIndex string            `json:"source_index"`
	Author      string            `json:"author,omitempty"`
	Category    string            `json:"category,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Systems     []string          `json:"systems,omitempty"`
	Hashes      map[string]string `json:"hashes,omitempty"`
}

var (
	fileNameRe = regexp.MustCompile(`^File Name:\s*(.+)`)
	hashRe     = regexp.MustCompile(`^(MD5|SHA-256)\s*\|\s*(.+)`)
	authorRe   = regexp.MustCompile(`^Authored by\s+(.+)`)
	dateRe     = regexp.MustCompile(`^Date:\s*(.+)`)
)

// dateFormats are tried in order when parsing annotation dates.
var dateFormats = []string{"2006-01-02", "02.01.2006", "2006/01/02", "02-01-2006"}

// categoryMarkers maps path segments of an index file to the category its
// entries belong to.
var categoryMarkers = map[string]string{
	"exploits":    "exploit",
	"shellcodes":  "shellcode",
	"util":        "tool",
	"Doc":         "doc",
	"systemerror": "systemerror",
}

// Parser parses index files, collecting per-entry errors without aborting.
type Parser struct {
	errs []string
}

func NewParser() *Parser { return &Parser{} }

// Errors returns the parse errors accumulated so far.
func (p *Parser) Errors() []string { return p.errs }

// ParseFile reads and parses one index_.txt file.
func (p *Parser) ParseFile(path string) ([]Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(string(data), path), nil
}

// Parse parses index content. sourceIndex is the path the content came
// from; it determines the category and is recorded on every annotation.
// Entries without a filename are skipped and recorded as errors.
func (p *Parser) Parse(content, sourceIndex string) []Annotation {
	category := categoryFor(sourceIndex)
	var results []Annotation

	for _, entryText := range strings.Split(content, "///") {
		if strings.TrimSpace(entryText) == "" {
			continue
		}

		ann := Annotation{
			SourceIndex: sourceIndex,
			Category:    category,
			Hashes:      map[string]string{},
		}
		var desc []string
		inDescription := false

		for _, line := range strings.Split(entryText, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if m := fileNameRe.FindStringSubmatch(line); m != nil {
				name := strings.TrimSpace(m[1])
				if name != "" && name != ":" {
					ann.Filename = name
				}
				continue
			}
			if line == "Description:" {
				inDescription = true
				continue
			}
			if strings.HasPrefix(line, "tags |") {
				inDescription = false
				ann.Tags = splitList(strings.TrimPrefix(line, "tags |"))
				continue
			}
			if strings.HasPrefix(line, "systems |") {
				inDescription = false
				ann.Systems = splitList(strings.TrimPrefix(line, "systems |"))
				continue
			}
			if m := hashRe.FindStringSubmatch(line); m != nil {
				inDescription = false
				ann.Hashes[m[1]] = strings.TrimSpace(m[2])
				continue
			}
			if m := authorRe.FindStringSubmatch(line); m != nil {
				inDescription = false
				ann.Author = strings.TrimSpace(m[1])
				continue
			}
			if m := dateRe.FindStringSubmatch(line); m != nil {
				inDescription = false
				if d, ok := parseDate(m[1]); ok {
					ann.Date = &d
				} else {
					p.errs = append(p.errs, "unparseable date: "+m[1])
				}
				continue
			}
			if inDescription {
				desc = append(desc, line)
			}
		}

		ann.Description = strings.TrimSpace(strings.Join(desc, " "))
		if ann.Description == "" {
			ann.Description = "No description available"
		}
		if len(ann.Hashes) == 0 {
			ann.Hashes = nil
		}

		if ann.Filename == "" {
			p.errs = append(p.errs, "entry without filename in "+sourceIndex)
			continue
		}
		results = append(results, ann)
	}
	return results
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func categoryFor(sourceIndex string) string {
	for _, part := range strings.Split(filepath.ToSlash(sourceIndex), "/") {
		if cat, ok := categoryMarkers[part]; ok {
			return cat
		}
	}
	return "unknown"
}
