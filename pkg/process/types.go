package process

import (
	"context"

	"github.com/duynguyendang/secdex/pkg/classify"
	"github.com/duynguyendang/secdex/pkg/extract"
	"github.com/duynguyendang/secdex/pkg/relations"
	"github.com/duynguyendang/secdex/pkg/severity"
)

// Processing stages recorded on error records.
const (
	StageRead     = "read"
	StageDecode   = "decode"
	StageAnalyze  = "analyze"
	StageAnnotate = "annotate"
	StageWorker   = "worker"
)

// ErrorRecord captures a per-file failure. It is attached to a Result and
// never aborts the batch.
type ErrorRecord struct {
	Stage       string `json:"stage"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// Metadata is the merged metadata document for one file.
type Metadata struct {
	Components []extract.Component  `json:"components,omitempty"`
	Severity   *severity.Assessment `json:"severity,omitempty"`
	Relations  *relations.Set       `json:"relations,omitempty"`
	Tier       classify.Tier        `json:"processing_tier"`
	// Fields holds flat annotation and heuristic fields (author, category,
	// tags, cve, year, ...). Curated values win on key collision.
	Fields map[string]string `json:"fields,omitempty"`
}

// Result is the output of processing one file. It is owned solely by the
// caller that requested it and is never shared across files.
type Result struct {
	Content  string        `json:"content"`
	Metadata Metadata      `json:"metadata"`
	Errors   []ErrorRecord `json:"errors,omitempty"`
}

// Failed reports whether the result carries a non-recoverable error.
func (r *Result) Failed() bool {
	for _, e := range r.Errors {
		if !e.Recoverable {
			return true
		}
	}
	return false
}

// Processor turns raw file bytes into a Result. Implementations for the
// three tiers are interchangeable behind this contract; callers select one
// by tier and must not inspect which variant they hold.
type Processor interface {
	Process(ctx context.Context, fd classify.FileDescriptor, raw []byte) *Result
}
