// Package walker enumerates candidate corpus files and the curated index
// files that annotate them.
package walker

import (
	"io/fs"
	"mime"
	"path/filepath"
	"time"

	"github.com/gobwas/glob"

	"github.com/duynguyendang/secdex/internal/manager"
	"github.com/duynguyendang/secdex/pkg/classify"
)

// Entry pairs a file descriptor with the stat data the dataset keeps.
type Entry struct {
	Desc    classify.FileDescriptor
	ModTime time.Time
}

// Result is the outcome of one corpus walk.
type Result struct {
	Files   []Entry
	Indexes []string
}

// Walk traverses root and returns a descriptor for every regular file plus
// the paths of all index files found. skipGlobs are matched against path
// base names; matching directories are pruned, matching files skipped.
// checker may be nil.
func Walk(root string, skipGlobs []string, checker classify.AnnotationChecker) (*Result, error) {
	skips := make([]glob.Glob, 0, len(skipGlobs))
	for _, pattern := range skipGlobs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		skips = append(skips, g)
	}
	skip := func(name string) bool {
		for _, g := range skips {
			if g.Match(name) {
				return true
			}
		}
		return false
	}

	res := &Result{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skip(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if skip(d.Name()) {
			return nil
		}
		if d.Name() == manager.IndexFileName {
			res.Indexes = append(res.Indexes, path)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil // file vanished mid-walk; not fatal
		}
		fd := classify.FileDescriptor{
			Path:         path,
			DeclaredMIME: mime.TypeByExtension(filepath.Ext(path)),
			Size:         info.Size(),
		}
		if checker != nil {
			fd.HasAnnotation = checker.Has(path)
		}
		res.Files = append(res.Files, Entry{Desc: fd, ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
