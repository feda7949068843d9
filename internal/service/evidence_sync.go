package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/curation-evidence-sync/internal/domain"
	"github.com/curation-evidence-sync/pkg/curation"
)

// SyncRequest describes one accepted edit of a gene document.
type SyncRequest struct {
	// Gene is a single consistent snapshot of the live document.
	Gene domain.Node `json:"gene"`
	// Path is the accepted field, slash delimited.
	Path string `json:"path"`
	// ProtectedPaths force the live value to win in the projection. Path is
	// always protected.
	ProtectedPaths []string `json:"protectedPaths,omitempty"`
	EntrezGeneID   int      `json:"entrezGeneId,omitempty"`
	// UpdateTime is the submission time in epoch millis.
	UpdateTime int64 `json:"updateTime,omitempty"`

	Drugs domain.DrugCatalog `json:"-"`
}

// UpsertPlan is the outcome of distilling one accepted edit.
type UpsertPlan struct {
	Path       string                           `json:"path"`
	Kind       domain.EvidenceKind              `json:"kind,omitempty"`
	Classified bool                             `json:"classified"`
	Records    map[string]domain.EvidenceRecord `json:"records"`
}

// EvidenceIDs returns the plan's evidence ids in sorted order.
func (p *UpsertPlan) EvidenceIDs() []string {
	ids := make([]string, 0, len(p.Records))
	for id := range p.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EvidenceSync distills accepted document edits into backend payloads.
type EvidenceSync struct {
	logger     *logrus.Logger
	classifier *EvidenceClassifier
	resolver   *EvidenceResolver
}

// NewEvidenceSync creates a new evidence sync orchestrator
func NewEvidenceSync(logger *logrus.Logger, classifier *EvidenceClassifier, resolver *EvidenceResolver) *EvidenceSync {
	return &EvidenceSync{
		logger:     logger,
		classifier: classifier,
		resolver:   resolver,
	}
}

// NewDefaultEvidenceSync wires the standard classifier and resolver.
func NewDefaultEvidenceSync(logger *logrus.Logger) *EvidenceSync {
	return NewEvidenceSync(logger,
		NewEvidenceClassifier(logger),
		NewEvidenceResolver(logger, NewTherapyPriorityResolver(logger)))
}

// Plan projects the snapshot, resolves and classifies the path and builds
// the records to upsert. Unclassifiable paths yield an empty plan.
func (s *EvidenceSync) Plan(ctx context.Context, req SyncRequest) (*UpsertPlan, error) {
	if err := validateSyncRequest(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plan := &UpsertPlan{
		Path:    req.Path,
		Records: map[string]domain.EvidenceRecord{},
	}

	protected := append(append([]string{}, req.ProtectedPaths...), req.Path)
	projected, ok := curation.ProjectForSubmission(req.Gene, protected)
	if !ok {
		s.logger.WithField("path", req.Path).Info("Gene has no accepted state, nothing to submit")
		return plan, nil
	}
	root := projected.(map[string]any)

	entities, err := curation.ExtractObjsInValuePath(root, req.Path)
	if err != nil {
		return nil, err
	}

	kind, ok := s.classifier.Classify(req.Path, entities)
	if !ok {
		return plan, nil
	}
	plan.Kind = kind
	plan.Classified = true

	gene, err := domain.DecodeGene(root)
	if err != nil {
		return nil, fmt.Errorf("failed to decode gene: %w", err)
	}

	resolved, err := s.resolver.Resolve(kind, domain.ResolveInput{
		Gene:             gene,
		Mutation:         entities.Mutation,
		Tumor:            entities.Tumor,
		ImplicationGroup: entities.ImplicationGroup,
		Treatment:        entities.Treatment,
		EntrezGeneID:     req.EntrezGeneID,
		UpdateTime:       req.UpdateTime,
		Drugs:            req.Drugs,
	})
	if err != nil {
		return nil, err
	}

	if kind.IsNameChange() {
		container, containerKind := renamedContainer(kind, entities)
		for _, id := range curation.CollectUuids(container, containerKind, curation.CollectEvidenceOnly) {
			plan.Records[id] = resolved.Record.Clone()
		}
	} else {
		if resolved.EvidenceID == "" {
			return nil, domain.NewValidationError("path", "evidence has no identifier", req.Path)
		}
		plan.Records[resolved.EvidenceID] = resolved.Record
	}

	s.logger.WithFields(logrus.Fields{
		"path":    req.Path,
		"kind":    kind,
		"records": len(plan.Records),
	}).Info("Built evidence upsert")

	return plan, nil
}

// BuildUpsert returns the evidenceId to record map for an accepted edit.
func (s *EvidenceSync) BuildUpsert(ctx context.Context, req SyncRequest) (map[string]domain.EvidenceRecord, error) {
	plan, err := s.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	return plan.Records, nil
}

// BuildDeletion collects the evidence ids owned by the container at
// containerPath in the live snapshot.
func (s *EvidenceSync) BuildDeletion(snapshot domain.Node, containerPath string) ([]string, error) {
	value, err := curation.ResolveValue(snapshot, containerPath)
	if err != nil {
		return nil, err
	}
	container, ok := value.(map[string]any)
	if !ok {
		return nil, domain.NewPathNotFoundError(containerPath, "", "path does not address a container")
	}

	ids := curation.CollectUuids(container, curation.ContainerKindAt(containerPath, container), curation.CollectEvidenceOnly)
	s.logger.WithFields(logrus.Fields{
		"path": containerPath,
		"ids":  len(ids),
	}).Info("Collected evidence ids for deletion")
	return ids, nil
}

// Classify resolves path against the projected snapshot and classifies it.
func (s *EvidenceSync) Classify(snapshot domain.Node, path string, protected []string) (domain.EvidenceKind, bool, error) {
	projected, ok := curation.ProjectForSubmission(snapshot, append(append([]string{}, protected...), path))
	if !ok {
		return "", false, nil
	}
	entities, err := curation.ExtractObjsInValuePath(projected, path)
	if err != nil {
		return "", false, err
	}
	kind, ok := s.classifier.Classify(path, entities)
	return kind, ok, nil
}

func renamedContainer(kind domain.EvidenceKind, entities *domain.PathEntities) (domain.Node, domain.EntityKind) {
	switch kind {
	case domain.MutationNameChange:
		if entities.Mutation != nil {
			return entities.Mutation.Raw, domain.EntityMutation
		}
	case domain.TumorNameChange:
		if entities.Tumor != nil {
			return entities.Tumor.Raw, domain.EntityTumor
		}
	case domain.TreatmentNameChange:
		if entities.Treatment != nil {
			return entities.Treatment.Raw, domain.EntityTreatment
		}
	}
	return nil, domain.EntityNone
}

func validateSyncRequest(req SyncRequest) error {
	if req.Gene == nil {
		return domain.NewValidationError("gene", "gene snapshot is required", nil)
	}
	if len(domain.SplitPath(req.Path)) == 0 {
		return domain.NewPathNotFoundError(req.Path, "", "empty path")
	}
	return nil
}
