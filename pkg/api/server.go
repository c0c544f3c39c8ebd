// Package api exposes the assembly service over HTTP: health, on-demand
// chain assembly, and lookup of archived runs.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acisops/cmdhist/pkg/database"
	"github.com/acisops/cmdhist/pkg/services"
)

// Server represents the API server
type Server struct {
	svc *services.AssemblyService
	db  *database.Client // nil when archiving is disabled
}

// NewServer creates a new API server. db may be nil when the archive store
// is disabled; health then only reports the process itself.
func NewServer(svc *services.AssemblyService, db *database.Client) *Server {
	return &Server{svc: svc, db: db}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", s.healthHandler)
		v1.POST("/assemble", s.assembleHandler)
		v1.GET("/chains/:load", s.chainHandler)
	}
	return router
}

// Handler returns the server as an http.Handler for embedding in an
// http.Server with the caller's timeouts.
func (s *Server) Handler() http.Handler {
	return s.Router()
}
