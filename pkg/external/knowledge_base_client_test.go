package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curation-evidence-sync/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *KnowledgeBaseClient {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewKnowledgeBaseClient(domain.BackendConfig{
		BaseURL:          server.URL + "/",
		APIToken:         "secret",
		Timeout:          2 * time.Second,
		RateLimit:        1000,
		Burst:            10,
		BreakerThreshold: 3,
	}, testLogger())
	require.NoError(t, err)
	return client
}

func strPtr(s string) *string { return &s }

func TestNewKnowledgeBaseClient_RequiresBaseURL(t *testing.T) {
	_, err := NewKnowledgeBaseClient(domain.BackendConfig{}, testLogger())
	assert.Error(t, err)
}

func TestKnowledgeBaseClient_UpsertEvidences(t *testing.T) {
	var received map[string]domain.EvidenceRecord
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/legacy-api/evidences/update", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	})

	err := client.UpsertEvidences(context.Background(), map[string]domain.EvidenceRecord{
		"gs-1": {EvidenceType: strPtr("GENE_SUMMARY"), Description: strPtr("BRAF summary")},
	})
	require.NoError(t, err)
	require.Contains(t, received, "gs-1")
	assert.Equal(t, "BRAF summary", *received["gs-1"].Description)
}

func TestKnowledgeBaseClient_EmptyBatchesSkipRequest(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	require.NoError(t, client.UpsertEvidences(context.Background(), nil))
	require.NoError(t, client.DeleteEvidences(context.Background(), []string{}))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestKnowledgeBaseClient_DeleteEvidences(t *testing.T) {
	var ids []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/legacy-api/evidences/delete", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ids))
	})

	require.NoError(t, client.DeleteEvidences(context.Background(), []string{"ts-1", "tr-1"}))
	assert.Equal(t, []string{"ts-1", "tr-1"}, ids)
}

func TestKnowledgeBaseClient_UpdateGeneType(t *testing.T) {
	var payload domain.GeneTypePayload
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/legacy-api/genes/update", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
	})

	require.NoError(t, client.UpdateGeneType(context.Background(), domain.GeneTypePayload{
		HugoSymbol: "BRAF",
		Oncogene:   true,
	}))
	assert.Equal(t, domain.GeneTypePayload{HugoSymbol: "BRAF", Oncogene: true}, payload)
}

func TestKnowledgeBaseClient_ListDrugs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/drugs", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"uuid":"d-1","drugName":"Imatinib","ncitCode":"C62035"}]`))
	})

	drugs, err := client.ListDrugs(context.Background())
	require.NoError(t, err)
	require.Len(t, drugs, 1)
	assert.Equal(t, "Imatinib", drugs[0].DrugName)
	assert.Equal(t, "C62035", drugs[0].NcitCode)
}

func TestKnowledgeBaseClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"bad request", http.StatusBadRequest},
		{"server error", http.StatusInternalServerError},
		{"unavailable", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "backend says no", tt.status)
			})

			err := client.DeleteEvidences(context.Background(), []string{"x"})
			require.Error(t, err)
			assert.Equal(t, domain.ErrCodeBackend, domain.ErrorCode(err))

			var syncErr *domain.SyncError
			require.ErrorAs(t, err, &syncErr)
			assert.Contains(t, syncErr.Details, "backend says no")
		})
	}
}

func TestKnowledgeBaseClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 3; i++ {
		assert.Error(t, client.DeleteEvidences(context.Background(), []string{"x"}))
	}
	assert.Equal(t, gobreaker.StateOpen, client.BreakerState())

	err := client.DeleteEvidences(context.Background(), []string{"x"})
	require.Error(t, err)
	var syncErr *domain.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Contains(t, syncErr.Details, "circuit breaker open")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestKnowledgeBaseClient_ClientErrorsKeepBreakerClosed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	for i := 0; i < 5; i++ {
		assert.Error(t, client.DeleteEvidences(context.Background(), []string{"x"}))
	}
	assert.Equal(t, gobreaker.StateClosed, client.BreakerState())
}

func TestKnowledgeBaseClient_CanceledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, client.UpdateGeneType(ctx, domain.GeneTypePayload{HugoSymbol: "BRAF"}))
}
