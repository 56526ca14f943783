package process

import "github.com/duynguyendang/secdex/pkg/classify"

// Suite bundles the three tier processors behind the shared Processor
// contract. The tier enum is closed, so dispatch is an exhaustive switch.
type Suite struct {
	annotated *AnnotatedProcessor
	code      *CodeProcessor
	basic     *BasicProcessor
}

// NewSuite wires the processors. lookup may be nil when no annotation
// index is available; annotated files then fall back to heuristics only.
func NewSuite(classifier *classify.Classifier, lookup AnnotationLookup) *Suite {
	return &Suite{
		annotated: NewAnnotatedProcessor(lookup),
		code:      NewCodeProcessor(classifier),
		basic:     NewBasicProcessor(),
	}
}

// ForTier returns the processor handling the given tier.
func (s *Suite) ForTier(tier classify.Tier) Processor {
	switch tier {
	case classify.TierAnnotated:
		return s.annotated
	case classify.TierSourceCode:
		return s.code
	default:
		return s.basic
	}
}
