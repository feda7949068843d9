package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/curation-evidence-sync/internal/cache"
	"github.com/curation-evidence-sync/internal/domain"
	"github.com/curation-evidence-sync/internal/ledger"
	"github.com/curation-evidence-sync/internal/metrics"
)

// SubmissionResult reports what one submission sent to the backend.
type SubmissionResult struct {
	BatchID     string              `json:"batchId"`
	Path        string              `json:"path,omitempty"`
	Kind        domain.EvidenceKind `json:"kind,omitempty"`
	EvidenceIDs []string            `json:"evidenceIds"`
	Unchanged   []string            `json:"unchanged,omitempty"`
	Status      ledger.Status       `json:"status"`
}

// Submitter pushes accepted edits to the knowledge base. Each call is one
// independent submission; a failure aborts only that call.
type Submitter struct {
	logger       *logrus.Logger
	sync         *EvidenceSync
	kb           domain.KnowledgeBase
	ledger       ledger.Store
	fingerprints cache.Fingerprints
	drugs        domain.DrugCatalog
	metrics      *metrics.Collector
}

// SubmitterOption configures optional Submitter collaborators.
type SubmitterOption func(*Submitter)

// WithLedger records every submission in store.
func WithLedger(store ledger.Store) SubmitterOption {
	return func(s *Submitter) { s.ledger = store }
}

// WithFingerprints skips records whose content was already submitted.
func WithFingerprints(f cache.Fingerprints) SubmitterOption {
	return func(s *Submitter) {
		if f != nil {
			s.fingerprints = f
		}
	}
}

// WithDrugCatalog sets the catalog used when a request carries none.
func WithDrugCatalog(c domain.DrugCatalog) SubmitterOption {
	return func(s *Submitter) { s.drugs = c }
}

// WithMetrics reports submissions to c.
func WithMetrics(c *metrics.Collector) SubmitterOption {
	return func(s *Submitter) { s.metrics = c }
}

// NewSubmitter creates a new submitter
func NewSubmitter(logger *logrus.Logger, sync *EvidenceSync, kb domain.KnowledgeBase, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		logger:       logger,
		sync:         sync,
		kb:           kb,
		fingerprints: cache.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync returns the orchestrator used to build payloads.
func (s *Submitter) Sync() *EvidenceSync {
	return s.sync
}

// Preview builds the upsert plan without contacting the backend.
func (s *Submitter) Preview(ctx context.Context, req SyncRequest) (*UpsertPlan, error) {
	return s.sync.Plan(ctx, s.withCatalog(req))
}

// SubmitUpsert builds the evidence for an accepted edit and upserts the
// records that changed since their last submission.
func (s *Submitter) SubmitUpsert(ctx context.Context, req SyncRequest) (*SubmissionResult, error) {
	start := time.Now()
	result := &SubmissionResult{
		BatchID:     uuid.NewString(),
		Path:        req.Path,
		EvidenceIDs: []string{},
	}
	entry := &ledger.Entry{
		BatchID:    result.BatchID,
		HugoSymbol: hugoSymbolOf(req.Gene),
		Path:       req.Path,
		Operation:  ledger.OperationUpsert,
	}

	plan, err := s.sync.Plan(ctx, s.withCatalog(req))
	if err != nil {
		return nil, s.fail(ctx, entry, result, start, err)
	}
	result.Kind = plan.Kind
	entry.Kind = plan.Kind.String()

	if !plan.Classified {
		s.metrics.Unclassified()
		result.Status = ledger.StatusNoop
		s.finish(ctx, entry, result, start)
		return result, nil
	}

	changed := make(map[string]domain.EvidenceRecord, len(plan.Records))
	for _, id := range plan.EvidenceIDs() {
		record := plan.Records[id]
		dirty, err := s.fingerprints.Changed(ctx, id, record)
		if err != nil {
			s.logger.WithError(err).WithField("evidence_id", id).Warn("Fingerprint lookup failed, submitting record")
		}
		if dirty {
			changed[id] = record
			result.EvidenceIDs = append(result.EvidenceIDs, id)
		} else {
			result.Unchanged = append(result.Unchanged, id)
		}
	}
	s.metrics.RecordsUnchanged(len(result.Unchanged))

	if len(changed) == 0 {
		result.Status = ledger.StatusUnchanged
		entry.EvidenceIDs = result.Unchanged
		s.finish(ctx, entry, result, start)
		return result, nil
	}

	entry.EvidenceIDs = result.EvidenceIDs
	if err := s.kb.UpsertEvidences(ctx, changed); err != nil {
		return nil, s.fail(ctx, entry, result, start, err)
	}

	for id, record := range changed {
		if err := s.fingerprints.Remember(ctx, id, record); err != nil {
			s.logger.WithError(err).WithField("evidence_id", id).Warn("Failed to remember fingerprint")
		}
	}

	result.Status = ledger.StatusSucceeded
	s.finish(ctx, entry, result, start)
	return result, nil
}

// SubmitDeletion removes every evidence owned by the container at
// containerPath in the live snapshot.
func (s *Submitter) SubmitDeletion(ctx context.Context, snapshot domain.Node, containerPath string) (*SubmissionResult, error) {
	start := time.Now()
	result := &SubmissionResult{
		BatchID:     uuid.NewString(),
		Path:        containerPath,
		EvidenceIDs: []string{},
	}
	entry := &ledger.Entry{
		BatchID:    result.BatchID,
		HugoSymbol: hugoSymbolOf(snapshot),
		Path:       containerPath,
		Operation:  ledger.OperationDelete,
	}

	ids, err := s.sync.BuildDeletion(snapshot, containerPath)
	if err != nil {
		return nil, s.fail(ctx, entry, result, start, err)
	}
	if len(ids) == 0 {
		result.Status = ledger.StatusNoop
		s.finish(ctx, entry, result, start)
		return result, nil
	}

	result.EvidenceIDs = ids
	entry.EvidenceIDs = ids
	if err := s.kb.DeleteEvidences(ctx, ids); err != nil {
		return nil, s.fail(ctx, entry, result, start, err)
	}
	if err := s.fingerprints.Forget(ctx, ids...); err != nil {
		s.logger.WithError(err).Warn("Failed to forget fingerprints")
	}

	result.Status = ledger.StatusSucceeded
	s.finish(ctx, entry, result, start)
	return result, nil
}

// SubmitGeneType pushes the accepted oncogene/TSG flags of gene.
func (s *Submitter) SubmitGeneType(ctx context.Context, gene domain.Node) (*domain.GeneTypePayload, error) {
	start := time.Now()
	result := &SubmissionResult{
		BatchID:     uuid.NewString(),
		EvidenceIDs: []string{},
	}
	entry := &ledger.Entry{
		BatchID:    result.BatchID,
		HugoSymbol: hugoSymbolOf(gene),
		Operation:  ledger.OperationGeneType,
	}

	payload, err := CreateGeneTypePayload(gene)
	if err != nil {
		return nil, s.fail(ctx, entry, result, start, err)
	}
	if err := s.kb.UpdateGeneType(ctx, payload); err != nil {
		return nil, s.fail(ctx, entry, result, start, err)
	}

	result.Status = ledger.StatusSucceeded
	s.finish(ctx, entry, result, start)
	return &payload, nil
}

func (s *Submitter) withCatalog(req SyncRequest) SyncRequest {
	if req.Drugs == nil && s.drugs != nil {
		req.Drugs = s.drugs
	}
	return req
}

func (s *Submitter) fail(ctx context.Context, entry *ledger.Entry, result *SubmissionResult, start time.Time, err error) error {
	result.Status = ledger.StatusFailed
	entry.Error = err.Error()

	s.logger.WithFields(logrus.Fields{
		"batch_id":  entry.BatchID,
		"operation": entry.Operation,
		"path":      entry.Path,
		"code":      domain.ErrorCode(err),
	}).WithError(err).Error("Submission failed")

	s.finish(ctx, entry, result, start)
	return err
}

func (s *Submitter) finish(ctx context.Context, entry *ledger.Entry, result *SubmissionResult, start time.Time) {
	entry.Status = result.Status
	if entry.EvidenceIDs == nil {
		entry.EvidenceIDs = []string{}
	}

	emitted := len(result.EvidenceIDs)
	if entry.Status == ledger.StatusFailed {
		emitted = 0
	}
	s.metrics.ObserveSubmission(entry.Kind, string(entry.Operation), string(entry.Status), emitted, time.Since(start))

	if s.ledger != nil {
		// Ledger failures never fail the submission.
		if err := s.ledger.Record(context.WithoutCancel(ctx), entry); err != nil {
			s.logger.WithError(err).WithField("batch_id", entry.BatchID).Warn("Failed to record submission")
		}
	}

	if entry.Status != ledger.StatusFailed {
		s.logger.WithFields(logrus.Fields{
			"batch_id":  entry.BatchID,
			"operation": entry.Operation,
			"kind":      entry.Kind,
			"status":    entry.Status,
			"records":   len(result.EvidenceIDs),
			"duration":  time.Since(start).String(),
		}).Info("Submission finished")
	}
}

func hugoSymbolOf(gene domain.Node) string {
	name, _ := gene["name"].(string)
	return name
}
