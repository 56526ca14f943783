package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynguyendang/secdex/pkg/extract"
	"github.com/duynguyendang/secdex/pkg/process"
	"github.com/duynguyendang/secdex/pkg/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(filepath.Join(t.TempDir(), "dataset.db"))
	require.NoError(t, err)
	require.NoError(t, st.Init())
	t.Cleanup(func() { st.Close() })

	return NewServer(st), st
}

func seed(t *testing.T, st *store.Store) int64 {
	t.Helper()
	id, err := st.AddFile(store.FileRecord{Filename: "wp.txt", FullPath: "/corpus/wp.txt", Category: "exploit"})
	require.NoError(t, err)
	require.NoError(t, st.SaveResult(id, &process.Result{
		Content: "WordPress Plugin contact-form-7 5.1.2",
		Metadata: process.Metadata{
			Components: []extract.Component{{Kind: "plugin", Name: "contact-form-7", Version: "5.1.2"}},
		},
	}))
	return id
}

func do(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.Equal(t, http.StatusOK, do(t, srv, "/health").Code)
}

func TestFilesEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	seed(t, st)

	rec := do(t, srv, "/v1/files?category=exploit")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Files []store.FileRecord `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Files, 1)
	assert.Equal(t, "wp.txt", body.Files[0].Filename)

	rec = do(t, srv, "/v1/files?category=shellcode")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Files)
}

func TestFileMetadataEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	id := seed(t, st)

	rec := do(t, srv, "/v1/files/"+strconv.FormatInt(id, 10)+"/metadata")
	require.Equal(t, http.StatusOK, rec.Code)

	var md process.Metadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &md))
	require.Len(t, md.Components, 1)
	assert.Equal(t, "contact-form-7", md.Components[0].Name)

	assert.Equal(t, http.StatusNotFound, do(t, srv, "/v1/files/9999/metadata").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, "/v1/files/abc/metadata").Code)
}

func TestSearchEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	seed(t, st)

	rec := do(t, srv, "/v1/search?q=contact")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Matches []matchResult `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Matches)
	assert.Equal(t, "contact-form-7", body.Matches[0].Name)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, "/v1/search").Code)
}

func TestStatsEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	seed(t, st)

	rec := do(t, srv, "/v1/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var st2 store.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st2))
	assert.Equal(t, int64(1), st2.TotalFiles)
	assert.Equal(t, int64(1), st2.Processed)
}
