package process

import (
	"context"
	"strings"

	"github.com/duynguyendang/secdex/pkg/annotation"
	"github.com/duynguyendang/secdex/pkg/classify"
)

// AnnotationLookup consults the external annotation index for a path. It is
// treated as pure and side-effect free; a nil annotation with a nil error
// means no curated record exists.
type AnnotationLookup interface {
	Lookup(ctx context.Context, path string) (*annotation.Annotation, error)
}

// AnnotatedProcessor handles files with curated annotations. The curated
// fields are merged into the metadata first and take precedence on key
// collision; the heuristic extractors only fill gaps.
type AnnotatedProcessor struct {
	lookup AnnotationLookup
}

func NewAnnotatedProcessor(lookup AnnotationLookup) *AnnotatedProcessor {
	return &AnnotatedProcessor{lookup: lookup}
}

func (p *AnnotatedProcessor) Process(ctx context.Context, fd classify.FileDescriptor, raw []byte) *Result {
	res := &Result{Metadata: Metadata{Tier: classify.TierAnnotated}}

	var ann *annotation.Annotation
	if p.lookup != nil {
		var err error
		ann, err = p.lookup.Lookup(ctx, fd.Path)
		if err != nil {
			res.Errors = append(res.Errors, ErrorRecord{
				Stage:       StageAnnotate,
				Message:     err.Error(),
				Recoverable: true,
			})
		}
	}

	text, ok := decodeText(raw)
	if !ok {
		res.Errors = append(res.Errors, ErrorRecord{
			Stage:       StageDecode,
			Message:     "content is not decodable text",
			Recoverable: true,
		})
	}
	res.Content = text

	combined := text
	if ann != nil {
		combined = ann.Description + "\n" + text
	}
	enrich(res, combined, fd.Path)

	if ann != nil {
		res.Metadata.Fields = MergeFields(curatedFields(ann), res.Metadata.Fields)
	}
	return res
}

// curatedFields flattens an annotation into the merged field map.
func curatedFields(ann *annotation.Annotation) map[string]string {
	fields := map[string]string{
		"description":  ann.Description,
		"source_index": ann.SourceIndex,
		"author":       ann.Author,
		"category":     ann.Category,
	}
	if ann.Date != nil {
		fields["date"] = ann.Date.Format("2006-01-02")
	}
	if len(ann.Tags) > 0 {
		fields["tags"] = strings.Join(ann.Tags, ",")
	}
	if len(ann.Systems) > 0 {
		fields["systems"] = strings.Join(ann.Systems, ",")
	}
	for algo, sum := range ann.Hashes {
		fields[strings.ToLower(algo)] = sum
	}
	return fields
}
