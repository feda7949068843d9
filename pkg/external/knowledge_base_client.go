package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/curation-evidence-sync/internal/domain"
)

const (
	upsertEvidencesPath = "/legacy-api/evidences/update"
	deleteEvidencesPath = "/legacy-api/evidences/delete"
	updateGenePath      = "/legacy-api/genes/update"
	listDrugsPath       = "/api/v1/drugs"

	maxErrorBody = 4096
)

// KnowledgeBaseClient pushes evidence to the knowledge-base backend and reads
// its drug listing.
type KnowledgeBaseClient struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// StatusError is returned for a non-2xx backend response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d", e.Method, e.Path, e.StatusCode)
}

// NewKnowledgeBaseClient creates a backend client from config. Zero values
// fall back to defaults.
func NewKnowledgeBaseClient(config domain.BackendConfig, logger *logrus.Logger) (*KnowledgeBaseClient, error) {
	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 10
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if config.BreakerInterval == 0 {
		config.BreakerInterval = 30 * time.Second
	}
	if config.BreakerTimeout == 0 {
		config.BreakerTimeout = 60 * time.Second
	}
	if config.BreakerThreshold == 0 {
		config.BreakerThreshold = 3
	}

	threshold := config.BreakerThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "knowledge-base",
		MaxRequests: 5,
		Interval:    config.BreakerInterval,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= threshold && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
		// Client errors are the caller's fault, not the backend's.
		IsSuccessful: func(err error) bool {
			var statusErr *StatusError
			if errors.As(err, &statusErr) {
				return statusErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
	})

	return &KnowledgeBaseClient{
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		apiToken: config.APIToken,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), config.Burst),
		breaker:   breaker,
		logger:    logger,
	}, nil
}

// UpsertEvidences sends one batch of evidence records keyed by evidence id.
func (c *KnowledgeBaseClient) UpsertEvidences(ctx context.Context, evidences map[string]domain.EvidenceRecord) error {
	if len(evidences) == 0 {
		return nil
	}
	return c.call(ctx, http.MethodPost, upsertEvidencesPath, evidences, nil)
}

// DeleteEvidences removes evidence by id.
func (c *KnowledgeBaseClient) DeleteEvidences(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.call(ctx, http.MethodPost, deleteEvidencesPath, ids, nil)
}

// UpdateGeneType pushes the oncogene/TSG flags of one gene.
func (c *KnowledgeBaseClient) UpdateGeneType(ctx context.Context, payload domain.GeneTypePayload) error {
	return c.call(ctx, http.MethodPost, updateGenePath, payload, nil)
}

// ListDrugs returns the backend drug catalog.
func (c *KnowledgeBaseClient) ListDrugs(ctx context.Context) ([]domain.Drug, error) {
	var drugs []domain.Drug
	if err := c.call(ctx, http.MethodGet, listDrugsPath, nil, &drugs); err != nil {
		return nil, err
	}
	return drugs, nil
}

// BreakerState reports the circuit breaker state for health checks.
func (c *KnowledgeBaseClient) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func (c *KnowledgeBaseClient) call(ctx context.Context, method, path string, body, out any) error {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w", err)
	}

	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, method, path, body, out)
	})

	entry := c.logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"duration": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Error("Knowledge base request failed")
		return backendError(method, path, err)
	}
	entry.Debug("Knowledge base request completed")
	return nil
}

func (c *KnowledgeBaseClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func backendError(method, path string, err error) error {
	details := err.Error()
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Body != "" {
		details = fmt.Sprintf("%s: %s", statusErr.Error(), statusErr.Body)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		details = "circuit breaker open: " + details
	}
	return domain.NewSyncError(domain.ErrCodeBackend,
		fmt.Sprintf("knowledge base %s %s failed", method, path), details, "")
}
