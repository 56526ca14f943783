// Package server exposes the stored dataset over a small REST API. The
// pipeline core does not depend on it; it is surrounding tooling.
package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/duynguyendang/secdex/pkg/store"
)

// Server holds the state for the REST API server.
type Server struct {
	store  *store.Store
	router *gin.Engine
}

// NewServer creates a new Server instance over an opened store.
func NewServer(st *store.Store) *Server {
	r := gin.Default()
	s := &Server{store: st, router: r}
	s.setupRoutes()
	return s
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/v1/files", s.handleFiles)
	s.router.GET("/v1/files/:id/metadata", s.handleFileMetadata)
	s.router.GET("/v1/search", s.handleSearch)
	s.router.GET("/v1/stats", s.handleStats)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (s *Server) handleFiles(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	files, err := s.store.Files(c.Query("category"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (s *Server) handleFileMetadata(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}
	md, err := s.store.FileMetadata(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if md == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no metadata for file"})
		return
	}
	c.JSON(http.StatusOK, md)
}

func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	names, err := s.store.ComponentNames()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": findBySimilarity(query, names)})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
