package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeFieldsCuratedWins(t *testing.T) {
	curated := map[string]string{"author": "Jane Example", "category": "exploit"}
	heuristic := map[string]string{"author": "guessed", "year": "2003"}

	got := MergeFields(curated, heuristic)
	assert.Equal(t, map[string]string{
		"author":   "Jane Example",
		"category": "exploit",
		"year":     "2003",
	}, got)
}

func TestMergeFieldsEmptyCuratedValueDoesNotErase(t *testing.T) {
	got := MergeFields(map[string]string{"author": ""}, map[string]string{"author": "guessed"})
	assert.Equal(t, map[string]string{"author": "guessed"}, got)
}

func TestMergeFieldsNilInputs(t *testing.T) {
	assert.Nil(t, MergeFields(nil, nil))
	assert.Equal(t, map[string]string{"k": "v"}, MergeFields(nil, map[string]string{"k": "v"}))
	assert.Equal(t, map[string]string{"k": "v"}, MergeFields(map[string]string{"k": "v"}, nil))
}
