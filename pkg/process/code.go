package process

import (
	"context"
	"strings"

	"github.com/duynguyendang/secdex/pkg/classify"
)

// CodeProcessor handles the source-code tier. It detects the language,
// runs the lightweight tree-sitter analyzer, and feeds any string literals
// resembling versions or CVE identifiers back into the extractors as extra
// signal. Analyzer failures are recorded but never suppress the partial
// result: the decoded text is still best-effort content.
type CodeProcessor struct {
	classifier *classify.Classifier
}

func NewCodeProcessor(classifier *classify.Classifier) *CodeProcessor {
	return &CodeProcessor{classifier: classifier}
}

func (p *CodeProcessor) Process(_ context.Context, fd classify.FileDescriptor, raw []byte) *Result {
	res := &Result{Metadata: Metadata{Tier: classify.TierSourceCode}}

	text, ok := decodeText(raw)
	if !ok {
		res.Errors = append(res.Errors, ErrorRecord{
			Stage:       StageDecode,
			Message:     "source content is not decodable text",
			Recoverable: true,
		})
		enrich(res, "", fd.Path)
		return res
	}
	res.Content = text

	signal := text
	lang, known := p.classifier.Language(fd.Path, raw)
	if known {
		facts, err := Analyze(lang, raw)
		if err != nil {
			res.Errors = append(res.Errors, ErrorRecord{
				Stage:       StageAnalyze,
				Message:     err.Error(),
				Recoverable: false,
			})
		}
		if facts != nil {
			fields := map[string]string{"language": facts.Language}
			if len(facts.Imports) > 0 {
				fields["imports"] = strings.Join(facts.Imports, ",")
			}
			if len(facts.Functions) > 0 {
				fields["functions"] = strings.Join(facts.Functions, ",")
			}
			if len(facts.Types) > 0 {
				fields["types"] = strings.Join(facts.Types, ",")
			}
			res.Metadata.Fields = MergeFields(res.Metadata.Fields, fields)

			if extra := signalLiterals(facts.Literals); extra != "" {
				signal = text + "\n" + extra
			}
		}
	}

	enrich(res, signal, fd.Path)
	return res
}

// signalLiterals keeps only literals that look like version numbers or CVE
// identifiers; everything else is noise for the extractors.
func signalLiterals(literals []string) string {
	var keep []string
	for _, lit := range literals {
		if strings.Contains(strings.ToUpper(lit), "CVE-") {
			keep = append(keep, lit)
			continue
		}
		if looksLikeVersion(lit) {
			keep = append(keep, lit)
		}
	}
	return strings.Join(keep, "\n")
}

func looksLikeVersion(s string) bool {
	dots, digits := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		case r == 'v' || r == 'V' || r == ' ' || r == ':':
		default:
			return false
		}
	}
	return dots >= 1 && digits >= 2
}
