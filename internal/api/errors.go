package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/curation-evidence-sync/internal/domain"
	"github.com/curation-evidence-sync/internal/middleware"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

var statusByCode = map[string]int{
	domain.ErrCodePathNotFound: http.StatusNotFound,
	domain.ErrCodeUnknownDrug:  http.StatusUnprocessableEntity,
	domain.ErrCodeInvalidInput: http.StatusBadRequest,
	domain.ErrCodeBackend:      http.StatusBadGateway,
}

// writeError maps err onto its status code and error body.
func (s *Server) writeError(c *gin.Context, err error) {
	code := domain.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	resp := errorResponse{
		Code:      code,
		Message:   err.Error(),
		RequestID: middleware.GetCorrelationID(c),
	}
	var syncErr *domain.SyncError
	if errors.As(err, &syncErr) {
		resp.Message = syncErr.Message
		resp.Details = syncErr.Details
	}

	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithFields(logrus.Fields{
			"correlation_id": resp.RequestID,
			"code":           code,
		}).WithError(err).Error("Request failed")
	}
	c.JSON(status, resp)
}

// writeBindError reports an unreadable request body.
func (s *Server) writeBindError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	_ = c.Error(err)
	c.JSON(status, errorResponse{
		Code:      domain.ErrCodeInvalidInput,
		Message:   "invalid request body",
		Details:   err.Error(),
		RequestID: middleware.GetCorrelationID(c),
	})
}
