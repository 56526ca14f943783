package process

import (
	"context"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/duynguyendang/secdex/pkg/classify"
	"github.com/duynguyendang/secdex/pkg/extract"
	"github.com/duynguyendang/secdex/pkg/relations"
	"github.com/duynguyendang/secdex/pkg/severity"
)

// minPrintableRatio is the share of printable runes below which content is
// treated as undecodable binary.
const minPrintableRatio = 0.6

// BasicProcessor is the guaranteed-success fallback for files no other tier
// claims. It extracts printable text with a permissive decode and runs the
// shared pattern registry over it. It never fails: decode trouble degrades
// to empty content plus a recoverable error record.
type BasicProcessor struct{}

func NewBasicProcessor() *BasicProcessor { return &BasicProcessor{} }

func (p *BasicProcessor) Process(_ context.Context, fd classify.FileDescriptor, raw []byte) *Result {
	res := &Result{Metadata: Metadata{Tier: classify.TierGeneric}}

	text, ok := decodeText(raw)
	if !ok {
		res.Errors = append(res.Errors, ErrorRecord{
			Stage:       StageDecode,
			Message:     "content is not decodable text",
			Recoverable: true,
		})
		return res
	}
	res.Content = text

	enrich(res, text, fd.Path)
	return res
}

// enrich runs the extraction sub-algorithms over text+path and fills the
// result's metadata document. Shared by all three tiers.
func enrich(res *Result, text, path string) {
	res.Metadata.Components = extract.Extract(text, path)
	res.Metadata.Severity = severity.Classify(res.Metadata.Components, text)
	res.Metadata.Relations = resolveRelations(res.Metadata.Components)

	fields := map[string]string{}
	if cves := extract.CVEs(text); len(cves) > 0 {
		fields["cve"] = strings.Join(cves, ",")
	}
	if year, ok := extract.Year(text); ok {
		fields["year"] = strconv.Itoa(year)
	}
	res.Metadata.Fields = MergeFields(res.Metadata.Fields, fields)
}

// resolveRelations picks the primary detected software item and looks up
// its dependency view. The first CMS wins, then the first application;
// versions of every detected component feed the constraint check.
func resolveRelations(components []extract.Component) *relations.Set {
	known := make(map[string]string, len(components))
	for _, c := range components {
		if c.Version != "" {
			known[c.Name] = c.Version
		}
	}
	for _, kind := range []extract.Kind{extract.KindCMS, extract.KindApplication} {
		for _, c := range components {
			if c.Kind == kind {
				return relations.Resolve(c.Name, known)
			}
		}
	}
	return nil
}

// decodeText recovers printable text from raw bytes, replacing invalid
// UTF-8 and dropping non-printables. ok is false when the input is
// essentially binary.
func decodeText(raw []byte) (string, bool) {
	if len(raw) == 0 {
		return "", true
	}

	var b strings.Builder
	b.Grow(len(raw))
	printable, total := 0, 0
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		i += size
		total++
		if r == utf8.RuneError && size == 1 {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			printable++
			b.WriteRune(r)
		}
	}

	if float64(printable)/float64(total) < minPrintableRatio {
		return "", false
	}
	return b.String(), true
}
