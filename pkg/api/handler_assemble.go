package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acisops/cmdhist/pkg/backstop"
)

const defaultMaxLinks = 15

// assembleHandler handles POST /api/v1/assemble. Each request runs one
// independent assembly task; the service builds a fresh assembler per call,
// so concurrent requests never share mutable state.
func (s *Server) assembleHandler(c *gin.Context) {
	var req AssembleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.MaxLinks <= 0 {
		req.MaxLinks = defaultMaxLinks
	}

	result, err := s.svc.AssembleChain(c.Request.Context(), req.LoadDir, req.MaxLinks)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	if req.OutputPath != "" {
		if err := backstop.WriteCommands(req.OutputPath, result.Commands); err != nil {
			mapServiceError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, AssembleResponse{
		RunID:        result.RunID.String(),
		ReviewLoad:   result.ReviewLoad,
		Scenario:     string(result.Scenario),
		CommandCount: len(result.Commands),
		Chain:        toChainLinks(result.Chain),
		OutputPath:   req.OutputPath,
	})
}

// chainHandler handles GET /api/v1/chains/:load, returning the latest
// archived run for a review load.
func (s *Server) chainHandler(c *gin.Context) {
	load := c.Param("load")

	run, chain, err := s.svc.ArchivedRun(c.Request.Context(), load)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChainResponse{
		RunID:        run.ID.String(),
		ReviewLoad:   run.ReviewLoad,
		Scenario:     run.Scenario,
		CommandCount: run.CommandCount,
		CreatedAt:    run.CreatedAt.UTC().Format(time.RFC3339),
		Chain:        toChainLinks(chain),
	})
}
