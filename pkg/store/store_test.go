package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynguyendang/secdex/pkg/annotation"
	"github.com/duynguyendang/secdex/pkg/extract"
	"github.com/duynguyendang/secdex/pkg/process"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "dataset.db"))
	require.NoError(t, err)
	require.NoError(t, s.Init())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddFileUpsert(t *testing.T) {
	s := openStore(t)

	id, err := s.AddFile(FileRecord{Filename: "a.txt", FullPath: "/corpus/a.txt", Size: 10})
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	again, err := s.AddFile(FileRecord{Filename: "a.txt", FullPath: "/corpus/a.txt", Size: 20, Category: "exploit"})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	files, err := s.Files("", 10)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, int64(20), files[0].Size)
	assert.Equal(t, "exploit", files[0].Category)
}

func TestSaveResultMarksProcessed(t *testing.T) {
	s := openStore(t)

	id, err := s.AddFile(FileRecord{Filename: "wp.txt", FullPath: "/corpus/wp.txt"})
	require.NoError(t, err)

	res := &process.Result{
		Content: "WordPress Plugin contact-form-7 5.1.2 remote code execution",
		Metadata: process.Metadata{
			Components: []extract.Component{{Kind: "plugin", Name: "contact-form-7", Version: "5.1.2"}},
			Fields:     map[string]string{"cve": "CVE-2020-12345"},
		},
	}
	require.NoError(t, s.SaveResult(id, res))

	unprocessed, err := s.UnprocessedFiles(10)
	require.NoError(t, err)
	assert.Empty(t, unprocessed)

	md, err := s.FileMetadata(id)
	require.NoError(t, err)
	require.NotNil(t, md)
	require.Len(t, md.Components, 1)
	assert.Equal(t, "contact-form-7", md.Components[0].Name)
	assert.Equal(t, "CVE-2020-12345", md.Fields["cve"])

	names, err := s.ComponentNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"contact-form-7"}, names)
}

func TestSaveResultReplacesContent(t *testing.T) {
	s := openStore(t)

	id, err := s.AddFile(FileRecord{Filename: "b.txt", FullPath: "/corpus/b.txt"})
	require.NoError(t, err)

	require.NoError(t, s.SaveResult(id, &process.Result{Content: "first pass"}))
	require.NoError(t, s.SaveResult(id, &process.Result{
		Metadata: process.Metadata{Components: []extract.Component{{Kind: "cms", Name: "drupal"}}},
		Content:  "second pass",
	}))

	names, err := s.ComponentNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"drupal"}, names)
}

func TestUnprocessedFilesHonorsLimit(t *testing.T) {
	s := openStore(t)
	for _, p := range []string{"/c/1", "/c/2", "/c/3"} {
		_, err := s.AddFile(FileRecord{Filename: filepath.Base(p), FullPath: p})
		require.NoError(t, err)
	}

	batch, err := s.UnprocessedFiles(2)
	require.NoError(t, err)
	assert.Len(t, batch, 2)
}

func TestAnnotationsAndStats(t *testing.T) {
	s := openStore(t)

	id, err := s.AddFile(FileRecord{Filename: "x.txt", FullPath: "/c/x.txt", Category: "exploit"})
	require.NoError(t, err)
	_, err = s.AddFile(FileRecord{Filename: "y.txt", FullPath: "/c/y.txt", Category: "shellcode"})
	require.NoError(t, err)

	date := time.Date(2019, 3, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.AddAnnotation(id, &annotation.Annotation{
		Filename:    "x.txt",
		Date:        &date,
		Description: "curated entry",
		SourceIndex: "/c/index_.txt",
		Author:      "Jane Example",
	}))
	require.NoError(t, s.SaveResult(id, &process.Result{Content: "done"}))

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.TotalFiles)
	assert.Equal(t, int64(1), st.Processed)
	assert.Equal(t, int64(1), st.Annotated)
	assert.Equal(t, int64(1), st.ByCategory["exploit"])
	assert.Equal(t, int64(1), st.ByCategory["shellcode"])
}
