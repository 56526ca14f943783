// Package manager maintains the external annotation index: curated
// index_.txt files scattered through the corpus, parsed on demand and
// cached per directory.
package manager

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/duynguyendang/secdex/pkg/annotation"
)

const (
	// IndexFileName is the curated index file expected next to the files
	// it describes.
	IndexFileName = "index_.txt"
	// MaxCachedDirs bounds how many parsed directories stay in memory.
	MaxCachedDirs = 256
)

// Index resolves file paths to curated annotations. Each directory's index
// file is parsed at most once and cached in an LRU.
type Index struct {
	mu   sync.Mutex
	dirs *lru.Cache[string, map[string]*annotation.Annotation]
}

// NewIndex creates an annotation index with the default cache size.
func NewIndex() *Index {
	cache, _ := lru.New[string, map[string]*annotation.Annotation](MaxCachedDirs)
	return &Index{dirs: cache}
}

// Lookup returns the curated annotation for path, or nil when the file has
// none. A missing index file is not an error.
func (ix *Index) Lookup(ctx context.Context, path string) (*annotation.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	byName, err := ix.dirAnnotations(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return byName[filepath.Base(path)], nil
}

// Has implements classify.AnnotationChecker. Errors degrade to "no
// annotation" so classification stays total.
func (ix *Index) Has(path string) bool {
	byName, err := ix.dirAnnotations(filepath.Dir(path))
	if err != nil {
		return false
	}
	return byName[filepath.Base(path)] != nil
}

func (ix *Index) dirAnnotations(dir string) (map[string]*annotation.Annotation, error) {
	if byName, ok := ix.dirs.Get(dir); ok {
		return byName, nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	// Double-check under lock; another goroutine may have parsed it.
	if byName, ok := ix.dirs.Get(dir); ok {
		return byName, nil
	}

	byName, err := loadDir(dir)
	if err != nil {
		return nil, err
	}
	ix.dirs.Add(dir, byName)
	return byName, nil
}

func loadDir(dir string) (map[string]*annotation.Annotation, error) {
	indexPath := filepath.Join(dir, IndexFileName)
	if _, err := os.Stat(indexPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Cache the miss so sibling lookups skip the stat.
			return map[string]*annotation.Annotation{}, nil
		}
		return nil, err
	}

	anns, err := annotation.NewParser().ParseFile(indexPath)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*annotation.Annotation, len(anns))
	for i := range anns {
		byName[anns[i].Filename] = &anns[i]
	}
	return byName, nil
}
