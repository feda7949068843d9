package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/curation-evidence-sync/internal/domain"
	"github.com/curation-evidence-sync/internal/drugs"
	"github.com/curation-evidence-sync/internal/service"
)

// evidenceRequest is an accepted edit. Drugs, when present, replace the
// server's drug catalog for this request.
type evidenceRequest struct {
	service.SyncRequest
	DrugList []domain.Drug `json:"drugs,omitempty"`
}

func (r evidenceRequest) syncRequest() service.SyncRequest {
	req := r.SyncRequest
	if len(r.DrugList) > 0 {
		req.Drugs = drugs.NewMapCatalog(r.DrugList)
	}
	if req.UpdateTime == 0 {
		req.UpdateTime = time.Now().UnixMilli()
	}
	return req
}

type deletionRequest struct {
	Gene domain.Node `json:"gene" binding:"required"`
	Path string      `json:"path" binding:"required"`
}

type geneTypeRequest struct {
	Gene domain.Node `json:"gene" binding:"required"`
}

type classifyRequest struct {
	Gene           domain.Node `json:"gene" binding:"required"`
	Path           string      `json:"path" binding:"required"`
	ProtectedPaths []string    `json:"protectedPaths,omitempty"`
}

type classifyResponse struct {
	Path       string              `json:"path"`
	Kind       domain.EvidenceKind `json:"kind,omitempty"`
	Classified bool                `json:"classified"`
}

func (s *Server) handleEvidencePreview(c *gin.Context) {
	var req evidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeBindError(c, err)
		return
	}

	plan, err := s.submitter.Preview(c.Request.Context(), req.syncRequest())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) handleEvidenceSubmit(c *gin.Context) {
	var req evidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeBindError(c, err)
		return
	}

	result, err := s.submitter.SubmitUpsert(c.Request.Context(), req.syncRequest())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleEvidenceDelete(c *gin.Context) {
	var req deletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeBindError(c, err)
		return
	}

	result, err := s.submitter.SubmitDeletion(c.Request.Context(), req.Gene, req.Path)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGeneTypePreview(c *gin.Context) {
	var req geneTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeBindError(c, err)
		return
	}

	payload, err := service.CreateGeneTypePayload(req.Gene)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleGeneTypeSubmit(c *gin.Context) {
	var req geneTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeBindError(c, err)
		return
	}

	payload, err := s.submitter.SubmitGeneType(c.Request.Context(), req.Gene)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleClassify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeBindError(c, err)
		return
	}

	kind, ok, err := s.submitter.Sync().Classify(req.Gene, req.Path, req.ProtectedPaths)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, classifyResponse{Path: req.Path, Kind: kind, Classified: ok})
}

func (s *Server) handleListSubmissions(c *gin.Context) {
	limit, err := queryInt(c, "limit", 50)
	if err != nil || limit <= 0 || limit > 500 {
		s.writeError(c, domain.NewValidationError("limit", "must be between 1 and 500", c.Query("limit")))
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		s.writeError(c, domain.NewValidationError("offset", "must be a non-negative integer", c.Query("offset")))
		return
	}

	entries, err := s.ledger.List(c.Request.Context(), c.Query("hugoSymbol"), limit, offset)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": entries, "limit": limit, "offset": offset})
}

func (s *Server) handleGetBatch(c *gin.Context) {
	entries, err := s.ledger.Batch(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if len(entries) == 0 {
		c.JSON(http.StatusNotFound, errorResponse{
			Code:    "NOT_FOUND",
			Message: "batch not found",
			Details: c.Param("batchId"),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"batchId": c.Param("batchId"), "submissions": entries})
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
