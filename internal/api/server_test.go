package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curation-evidence-sync/internal/config"
	"github.com/curation-evidence-sync/internal/domain"
	"github.com/curation-evidence-sync/internal/drugs"
	"github.com/curation-evidence-sync/internal/ledger"
	"github.com/curation-evidence-sync/internal/metrics"
	"github.com/curation-evidence-sync/internal/service"
	"github.com/curation-evidence-sync/pkg/external"
)

type backendCall struct {
	Path string
	Body string
}

// fakeBackend records every call and answers with status.
type fakeBackend struct {
	server *httptest.Server
	status atomic.Int32

	mu    sync.Mutex
	calls []backendCall
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{}
	b.status.Store(http.StatusOK)
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.calls = append(b.calls, backendCall{Path: r.URL.Path, Body: string(body)})
		b.mu.Unlock()
		w.WriteHeader(int(b.status.Load()))
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) Calls() []backendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]backendCall(nil), b.calls...)
}

type fixture struct {
	server  *Server
	backend *fakeBackend
	ledger  ledger.Store
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfgManager, err := config.NewManager("")
	require.NoError(t, err)

	backend := newFakeBackend(t)
	kb, err := external.NewKnowledgeBaseClient(domain.BackendConfig{
		BaseURL:   backend.server.URL,
		RateLimit: 1000,
		Burst:     100,
	}, logger)
	require.NoError(t, err)

	store, err := ledger.NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	collector := metrics.NewCollector()
	catalog := drugs.NewMapCatalog([]domain.Drug{
		{UUID: "drug-a", DrugName: "a", NcitCode: "C1"},
		{UUID: "drug-b", DrugName: "b", NcitCode: "C2"},
		{UUID: "drug-c", DrugName: "c", NcitCode: "C3"},
	})
	submitter := service.NewSubmitter(logger, service.NewDefaultEvidenceSync(logger), kb,
		service.WithLedger(store),
		service.WithDrugCatalog(catalog),
		service.WithMetrics(collector),
	)

	opts = append([]Option{WithLedger(store), WithMetrics(collector)}, opts...)
	return &fixture{
		server:  NewServer(cfgManager, submitter, logger, opts...),
		backend: backend,
		ledger:  store,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func review(updateTime float64) domain.Node {
	return domain.Node{"updatedBy": "curator", "updateTime": updateTime}
}

func treatment(name, uuid, level string) domain.Node {
	return domain.Node{
		"name":        name,
		"name_uuid":   uuid,
		"name_review": review(1000),
		"level":       level,
		"description": name + " description",
	}
}

func testGene() domain.Node {
	return domain.Node{
		"name":           "BRAF",
		"summary":        "BRAF summary",
		"summary_uuid":   "gs-1",
		"summary_review": review(1000),
		"type":           domain.Node{"ocg": "Oncogene", "tsg": ""},
		"mutations": []any{
			domain.Node{
				"name":        "V600E",
				"name_uuid":   "m-1",
				"alterations": []any{domain.Node{"alteration": "V600E", "name": "V600E"}},
				"mutation_effect": domain.Node{
					"oncogenic":      "Oncogenic",
					"oncogenic_uuid": "me-onc",
					"effect":         "Gain-of-function",
					"effect_uuid":    "me-eff",
				},
				"tumors": []any{
					domain.Node{
						"cancerTypes":  []any{domain.Node{"code": "MEL", "mainType": "Melanoma"}},
						"summary":      "Tumor summary",
						"summary_uuid": "ts-1",
						"TIs": []any{
							domain.Node{
								"type":       "Standard implications for sensitivity to therapy",
								"treatments": []any{treatment("a+b", "tr-1", "1"), treatment("c", "tr-2", "2")},
							},
						},
					},
				},
			},
		},
	}
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t, WithHealthCheck("ledger", func(context.Context) error { return nil }))

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]any{"ledger": "ok"}, body["checks"])
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
}

func TestServer_HealthUnhealthy(t *testing.T) {
	f := newFixture(t, WithHealthCheck("cache", func(context.Context) error { return errors.New("connection refused") }))

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode(t, w)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, map[string]any{"cache": "connection refused"}, body["checks"])
}

func TestServer_EvidencePreview(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/evidence/preview", map[string]any{
		"gene":       testGene(),
		"path":       "summary",
		"updateTime": 5000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "GENE_SUMMARY", body["kind"])
	assert.Equal(t, true, body["classified"])
	records := body["records"].(map[string]any)
	require.Contains(t, records, "gs-1")
	assert.Equal(t, "BRAF summary", records["gs-1"].(map[string]any)["description"])
	assert.Empty(t, f.backend.Calls())
}

func TestServer_EvidencePreviewUnknownDrug(t *testing.T) {
	f := newFixture(t)
	gene := testGene()
	tumor := gene["mutations"].([]any)[0].(domain.Node)["tumors"].([]any)[0].(domain.Node)
	tumor["TIs"].([]any)[0].(domain.Node)["treatments"].([]any)[0].(domain.Node)["name"] = "a+z"
	path := "mutations/0/tumors/0/TIs/0/treatments/0/level"

	w := f.do(t, http.MethodPost, "/api/v1/evidence/preview", map[string]any{"gene": gene, "path": path})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, domain.ErrCodeUnknownDrug, decode(t, w)["code"])

	// A drug list in the request replaces the server catalog.
	w = f.do(t, http.MethodPost, "/api/v1/evidence/preview", map[string]any{
		"gene": gene,
		"path": path,
		"drugs": []domain.Drug{
			{UUID: "drug-a", DrugName: "a"},
			{UUID: "drug-c", DrugName: "c"},
			{UUID: "drug-z", DrugName: "z"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w)["records"], "tr-1")
}

func TestServer_EvidenceSubmit(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/evidence/submit", map[string]any{"gene": testGene(), "path": "summary"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, string(ledger.StatusSucceeded), body["status"])
	assert.Equal(t, []any{"gs-1"}, body["evidenceIds"])

	calls := f.backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/legacy-api/evidences/update", calls[0].Path)
	assert.Contains(t, calls[0].Body, `"gs-1"`)

	w = f.do(t, http.MethodGet, "/api/v1/submissions?hugoSymbol=BRAF", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["submissions"], 1)

	w = f.do(t, http.MethodGet, "/api/v1/submissions/"+body["batchId"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["submissions"], 1)
}

func TestServer_EvidenceSubmitBackendFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.status.Store(http.StatusServiceUnavailable)

	w := f.do(t, http.MethodPost, "/api/v1/evidence/submit", map[string]any{"gene": testGene(), "path": "summary"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decode(t, w)
	assert.Equal(t, domain.ErrCodeBackend, body["code"])
	assert.NotEmpty(t, body["request_id"])

	entries, err := f.ledger.List(context.Background(), "BRAF", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.StatusFailed, entries[0].Status)
}

func TestServer_EvidenceErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		url    string
		body   any
		status int
		code   string
	}{
		{"malformed body", "/api/v1/evidence/submit", "{not json", http.StatusBadRequest, domain.ErrCodeInvalidInput},
		{"missing gene", "/api/v1/evidence/preview", map[string]any{"path": "summary"}, http.StatusBadRequest, domain.ErrCodeInvalidInput},
		{"unknown path", "/api/v1/evidence/preview", map[string]any{"gene": testGene(), "path": "mutations/3/name"}, http.StatusNotFound, domain.ErrCodePathNotFound},
		{"delete without path", "/api/v1/evidence/delete", map[string]any{"gene": testGene()}, http.StatusBadRequest, domain.ErrCodeInvalidInput},
		{"delete scalar", "/api/v1/evidence/delete", map[string]any{"gene": testGene(), "path": "summary"}, http.StatusNotFound, domain.ErrCodePathNotFound},
		{"gene type without name", "/api/v1/gene-type/preview", map[string]any{"gene": map[string]any{"type": map[string]any{}}}, http.StatusBadRequest, domain.ErrCodeInvalidInput},
		{"bad limit", "/api/v1/submissions?limit=0", nil, http.StatusBadRequest, domain.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodPost
			if tt.body == nil {
				method = http.MethodGet
			}
			w := f.do(t, method, tt.url, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode(t, w)["code"])
		})
	}
	assert.Empty(t, f.backend.Calls())
}

func TestServer_EvidenceDelete(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/evidence/delete", map[string]any{
		"gene": testGene(),
		"path": "mutations/0/tumors/0/TIs/0/treatments/1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []any{"tr-2"}, decode(t, w)["evidenceIds"])

	calls := f.backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/legacy-api/evidences/delete", calls[0].Path)
	assert.JSONEq(t, `["tr-2"]`, calls[0].Body)
}

func TestServer_GeneType(t *testing.T) {
	f := newFixture(t)
	request := map[string]any{"gene": testGene()}

	w := f.do(t, http.MethodPost, "/api/v1/gene-type/preview", request)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, f.backend.Calls())
	preview := w.Body.String()

	w = f.do(t, http.MethodPost, "/api/v1/gene-type/submit", request)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, preview, w.Body.String())

	calls := f.backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/legacy-api/genes/update", calls[0].Path)
}

func TestServer_Classify(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/classify", map[string]any{
		"gene": testGene(),
		"path": "mutations/0/mutation_effect/oncogenic",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, map[string]any{
		"path":       "mutations/0/mutation_effect/oncogenic",
		"kind":       "ONCOGENIC",
		"classified": true,
	}, decode(t, w))

	w = f.do(t, http.MethodPost, "/api/v1/classify", map[string]any{"gene": testGene(), "path": "type/ocg"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["classified"])
}

func TestServer_Metrics(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/v1/evidence/submit", map[string]any{"gene": testGene(), "path": "summary"})

	w := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "evidence_sync_submissions_total")
}

func TestServer_UnknownBatch(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/submissions/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
