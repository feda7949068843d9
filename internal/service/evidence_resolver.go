package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/curation-evidence-sync/internal/domain"
)

// Known effects of therapeutic evidence.
const (
	KnownEffectSensitive = "Sensitive"
	KnownEffectResistant = "Resistant"
)

// resolution is the record under construction plus what the builder set.
type resolution struct {
	kind       domain.EvidenceKind
	evidenceID string
	record     domain.EvidenceRecord

	alterationsSet bool
	cancerTypesSet bool
	excludedSet    bool
}

type evidenceBuilder func(r *EvidenceResolver, in domain.ResolveInput, res *resolution) error

// EvidenceResolver builds backend evidence records from resolved entities.
type EvidenceResolver struct {
	logger     *logrus.Logger
	priorities *TherapyPriorityResolver
	builders   map[domain.EvidenceKind]evidenceBuilder
}

// NewEvidenceResolver creates a new evidence resolver
func NewEvidenceResolver(logger *logrus.Logger, priorities *TherapyPriorityResolver) *EvidenceResolver {
	if priorities == nil {
		priorities = NewTherapyPriorityResolver(logger)
	}
	r := &EvidenceResolver{
		logger:     logger,
		priorities: priorities,
	}
	r.builders = map[domain.EvidenceKind]evidenceBuilder{
		domain.GeneSummary:                buildGeneSummary,
		domain.GeneBackground:             buildGeneBackground,
		domain.TumorTypeSummary:           buildTumorSummary,
		domain.PrognosticSummary:          buildTumorSummary,
		domain.DiagnosticSummary:          buildTumorSummary,
		domain.MutationEffectKind:         buildMutationEffect,
		domain.Oncogenic:                  buildOncogenic,
		domain.PrognosticImplication:      buildImplication,
		domain.DiagnosticImplication:      buildImplication,
		domain.StandardSensitivity:        buildTherapy,
		domain.StandardResistance:         buildTherapy,
		domain.InvestigationalSensitivity: buildTherapy,
		domain.InvestigationalResistance:  buildTherapy,
		domain.MutationNameChange:         buildMutationNameChange,
		domain.TumorNameChange:            buildTumorNameChange,
		domain.TreatmentNameChange:        buildTreatmentNameChange,
	}
	return r
}

// Resolve builds the record of kind from in. Rename kinds return an empty
// EvidenceID; the caller fans the record out over the container's ids.
func (r *EvidenceResolver) Resolve(kind domain.EvidenceKind, in domain.ResolveInput) (*domain.ResolvedEvidence, error) {
	builder, ok := r.builders[kind]
	if !ok {
		return nil, domain.NewValidationError("kind", fmt.Sprintf("unsupported evidence kind %q", kind), kind)
	}
	if in.Gene == nil {
		return nil, domain.NewValidationError("gene", "gene is required", nil)
	}

	res := &resolution{kind: kind, record: newRecordShell(kind, in)}
	if err := builder(r, in, res); err != nil {
		return nil, fmt.Errorf("failed to build %s evidence: %w", kind, err)
	}
	backfillIdentity(in, res)

	r.logger.WithFields(logrus.Fields{
		"kind":        kind,
		"evidence_id": res.evidenceID,
		"hugo_symbol": in.Gene.Name,
	}).Debug("Resolved evidence record")

	return &domain.ResolvedEvidence{
		Kind:       kind,
		EvidenceID: res.evidenceID,
		Record:     res.record,
	}, nil
}

func newRecordShell(kind domain.EvidenceKind, in domain.ResolveInput) domain.EvidenceRecord {
	return domain.EvidenceRecord{
		EvidenceType: kind.EvidenceType(),
		Gene: domain.GeneRef{
			HugoSymbol:   in.Gene.Name,
			EntrezGeneID: in.EntrezGeneID,
		},
		CancerTypes:         []domain.CancerType{},
		ExcludedCancerTypes: []domain.CancerType{},
		RelevantCancerTypes: []domain.CancerType{},
	}
}

// backfillIdentity gives typed records the mutation and tumor identity the
// builder did not set, so the backend can locate or create them.
func backfillIdentity(in domain.ResolveInput, res *resolution) {
	if res.record.EvidenceType == nil {
		return
	}
	if in.Mutation != nil && !res.alterationsSet {
		res.record.Alterations = alterationsOf(in.Mutation, res.record.Gene)
	}
	if in.Tumor != nil {
		if !res.cancerTypesSet {
			res.record.CancerTypes = cancerTypes(in.Tumor.CancerTypes)
		}
		if !res.excludedSet {
			res.record.ExcludedCancerTypes = cancerTypes(in.Tumor.ExcludedCancerTypes)
		}
	}
}

func alterationsOf(m *domain.Mutation, gene domain.GeneRef) []domain.AlterationPayload {
	if len(m.Alterations) == 0 {
		return []domain.AlterationPayload{{Alteration: m.Name, Name: m.Name, Gene: gene}}
	}
	out := make([]domain.AlterationPayload, 0, len(m.Alterations))
	for _, a := range m.Alterations {
		alteration, name := a.Alteration, a.Name
		if alteration == "" {
			alteration = name
		}
		if name == "" {
			name = alteration
		}
		out = append(out, domain.AlterationPayload{
			Alteration:  alteration,
			Name:        name,
			Gene:        gene,
			Consequence: a.Consequence,
		})
	}
	return out
}

func cancerTypes(in []domain.CancerType) []domain.CancerType {
	return append([]domain.CancerType{}, in...)
}

func reviewTime(review *domain.Review) *string {
	if ms, ok := review.UpdateTimeMillis(); ok {
		return domain.MillisString(ms)
	}
	return nil
}

func optional(s string) *string {
	return &s
}

func requireMutation(in domain.ResolveInput) error {
	if in.Mutation == nil {
		return domain.NewValidationError("mutation", "mutation is required", nil)
	}
	return nil
}

func requireTumor(in domain.ResolveInput) error {
	if in.Tumor == nil {
		return domain.NewValidationError("tumor", "tumor is required", nil)
	}
	return nil
}

func requireTreatment(in domain.ResolveInput) error {
	if in.Treatment == nil {
		return domain.NewValidationError("treatment", "treatment is required", nil)
	}
	return nil
}

func buildGeneSummary(_ *EvidenceResolver, in domain.ResolveInput, res *resolution) error {
	res.evidenceID = in.Gene.SummaryUUID
	res.record.Description = optional(in.Gene.Summary)
	res.record.LastEdit = reviewTime(in.Gene.SummaryReview)
	return nil
}

func buildGeneBackground(_ *EvidenceResolver, in domain.ResolveInput, res *resolution) error {
	res.evidenceID = in.Gene.BackgroundUUID
	res.record.Description = optional(in.Gene.Background)
	res.record.LastEdit = reviewTime(in.Gene.BackgroundReview)
	return nil
}

func buildTumorSummary(_ *EvidenceResolver, in domain.ResolveInput, res *resolution) error {
	if err := requireTumor(in); err != nil {
		return err
	}
	t := in.Tumor
	var (
		id     string
		text   string
		review *domain.Review
	)
	switch res.kind {
	case domain.TumorTypeSummary:
		id, text, review = t.SummaryUUID, t.Summary, t.SummaryReview
	case domain.PrognosticSummary:
		id, text, review = t.PrognosticSummaryUUID, t.PrognosticSummary, t.PrognosticSummaryReview
	default:
		id, text, review = t.DiagnosticSummaryUUID, t.DiagnosticSummary, t.DiagnosticSummaryReview
	}
	res.evidenceID = id
	res.record.Description = optional(text)
	res.record.LastEdit = reviewTime(review)
	return nil
}

func buildMutationEffect(_ *EvidenceResolver, in domain.ResolveInput, res *resolution) error {
	if err := requireMutation(in); err != nil {
		return err
	}
	effect := in.Mutation.MutationEffect
	reviews := []*domain.Review{effect.EffectReview, effect.DescriptionReview}

	res.evidenceID = effect.EffectUUID
	res.record.LastEdit = reviewTime(reviews[domain.MostRecentReview(reviews)])
	res.record.KnownEffect = optional(effect.Effect)
	res.record.Description = optional(effect.Description)
	return nil
}

func buildOncogenic(_ *EvidenceResolver, in domain.ResolveInput, res *resolution) error {
	if err := requireMutation(in); err != nil {
		return err
	}
	effect := in.Mutation.MutationEffect
	res.evidenceID = effect.OncogenicUUID
	res.record.KnownEffect = optional(effect.Oncogenic)
	res.record.LastEdit = reviewTime(effect.OncogenicReview)
	return nil
}

func buildImplication(_ *EvidenceResolver, in domain.ResolveInput, res *resolution) error {
	if err := requireTumor(in); err != nil {
		return err
	}
	implication, id := in.Tumor.Prognostic, in.Tumor.PrognosticUUID
	if res.kind == domain.DiagnosticImplication {
		implication, id = in.Tumor.Diagnostic, in.Tumor.DiagnosticUUID
	}

	res.evidenceID = id
	res.record.Description = optional(implication.Description)
	res.record.LevelOfEvidence = domain.MapLevel(implication.Level)
	res.record.ExcludedCancerTypes = cancerTypes(implication.ExcludedRCTs)
	res.excludedSet = true
	res.record.LastEdit = domain.MillisString(in.UpdateTime)
	return nil
}

func buildTherapy(r *EvidenceResolver, in domain.ResolveInput, res *resolution) error {
	if err := requireTreatment(in); err != nil {
		return err
	}
	switch res.kind {
	case domain.StandardResistance, domain.InvestigationalResistance:
		res.record.KnownEffect = optional(KnownEffectResistant)
	default:
		res.record.KnownEffect = optional(KnownEffectSensitive)
	}
	res.record.ExcludedCancerTypes = cancerTypes(in.Treatment.ExcludedRCTs)
	res.excludedSet = true

	return r.populateTherapy(in, res)
}

// populateTherapy fills the treatment-specific fields of a therapy record.
func (r *EvidenceResolver) populateTherapy(in domain.ResolveInput, res *resolution) error {
	t := in.Treatment

	treatments, err := r.priorities.BuildTreatments(t, siblingsOf(in), in.Drugs)
	if err != nil {
		return err
	}

	reviews := []*domain.Review{
		t.NameReview,
		t.LevelReview,
		t.PropagationReview,
		t.PropagationLiquidReview,
		t.FdaLevelReview,
		t.DescriptionReview,
		t.ExcludedRCTsReview,
	}
	lastEdit := reviewTime(reviews[domain.MostRecentReview(reviews)])
	if lastEdit == nil {
		lastEdit = domain.MillisString(in.UpdateTime)
	}

	res.evidenceID = t.NameUUID
	res.record.LastEdit = lastEdit
	res.record.LevelOfEvidence = domain.MapLevel(t.Level)
	res.record.SolidPropagationLevel = domain.MapLevel(t.Propagation)
	res.record.LiquidPropagationLevel = domain.MapLevel(t.PropagationLiquid)
	res.record.FdaLevel = domain.MapFDALevel(t.FdaLevel)
	res.record.Description = optional(t.Description)
	res.record.Treatments = treatments
	return nil
}

func siblingsOf(in domain.ResolveInput) []*domain.Treatment {
	if in.ImplicationGroup == nil {
		return []*domain.Treatment{in.Treatment}
	}
	return in.ImplicationGroup.Treatments
}

func buildMutationNameChange(_ *EvidenceResolver, in domain.ResolveInput, res *resolution) error {
	if err := requireMutation(in); err != nil {
		return err
	}
	res.record.Alterations = alterationsOf(in.Mutation, res.record.Gene)
	res.alterationsSet = true
	return nil
}

func buildTumorNameChange(_ *EvidenceResolver, in domain.ResolveInput, res *resolution) error {
	if err := requireTumor(in); err != nil {
		return err
	}
	res.record.CancerTypes = cancerTypes(in.Tumor.CancerTypes)
	res.record.ExcludedCancerTypes = cancerTypes(in.Tumor.ExcludedCancerTypes)
	res.cancerTypesSet = true
	res.excludedSet = true
	return nil
}

func buildTreatmentNameChange(r *EvidenceResolver, in domain.ResolveInput, res *resolution) error {
	if err := requireTreatment(in); err != nil {
		return err
	}
	res.record.ExcludedCancerTypes = cancerTypes(in.Treatment.ExcludedRCTs)
	res.excludedSet = true

	treatments, err := r.priorities.BuildTreatments(in.Treatment, siblingsOf(in), in.Drugs)
	if err != nil {
		return err
	}
	res.record.Treatments = treatments
	return nil
}
