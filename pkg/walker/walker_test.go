package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynguyendang/secdex/internal/manager"
)

func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"exploits/wp-exploit.txt":         "plugin exploit",
		"exploits/" + manager.IndexFileName: "///\nFile Name: wp-exploit.txt\n",
		"shellcodes/linux-x86.c":          "int main() {}",
		"node_modules/dep/ignored.js":     "skipped",
		"notes.tmp":                       "skipped too",
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestWalkCollectsFilesAndIndexes(t *testing.T) {
	root := buildTree(t)

	res, err := Walk(root, []string{"node_modules", "*.tmp"}, nil)
	require.NoError(t, err)

	var paths []string
	for _, e := range res.Files {
		rel, relErr := filepath.Rel(root, e.Desc.Path)
		require.NoError(t, relErr)
		paths = append(paths, filepath.ToSlash(rel))
		assert.False(t, e.ModTime.IsZero())
	}
	assert.ElementsMatch(t, []string{"exploits/wp-exploit.txt", "shellcodes/linux-x86.c"}, paths)

	require.Len(t, res.Indexes, 1)
	assert.Equal(t, manager.IndexFileName, filepath.Base(res.Indexes[0]))
}

func TestWalkPopulatesDescriptors(t *testing.T) {
	root := buildTree(t)

	res, err := Walk(root, []string{"node_modules", "*.tmp"}, manager.NewIndex())
	require.NoError(t, err)

	byBase := map[string]Entry{}
	for _, e := range res.Files {
		byBase[filepath.Base(e.Desc.Path)] = e
	}

	annotated := byBase["wp-exploit.txt"]
	assert.True(t, annotated.Desc.HasAnnotation)
	assert.Equal(t, int64(len("plugin exploit")), annotated.Desc.Size)

	source := byBase["linux-x86.c"]
	assert.False(t, source.Desc.HasAnnotation)
}

func TestWalkBadGlob(t *testing.T) {
	_, err := Walk(t.TempDir(), []string{"["}, nil)
	assert.Error(t, err)
}
