package service

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/curation-evidence-sync/internal/domain"
)

// Treatment name separators.
const (
	alternativeSeparator = ","
	combinationSeparator = "+"
)

// ParseDrugGroups splits a treatment name into its alternative combinations.
// Tokens are trimmed and empty tokens and groups are dropped.
func ParseDrugGroups(name string) [][]string {
	var groups [][]string
	for _, raw := range strings.Split(name, alternativeSeparator) {
		var tokens []string
		for _, token := range strings.Split(raw, combinationSeparator) {
			if token = strings.TrimSpace(token); token != "" {
				tokens = append(tokens, token)
			}
		}
		if len(tokens) > 0 {
			groups = append(groups, tokens)
		}
	}
	return groups
}

// DrugGroupKey is the canonical key of a drug combination.
func DrugGroupKey(tokens []string) string {
	return strings.Join(tokens, combinationSeparator)
}

// ComputeDrugPriorities folds the sibling treatments, top to bottom, into a
// priority per drug group. Each group key seen for the first time takes the
// next number. Removed siblings and nil slots are skipped.
func ComputeDrugPriorities(siblings []*domain.Treatment) map[string]int {
	priorities := make(map[string]int)
	for _, sibling := range siblings {
		if sibling == nil || sibling.Removed() {
			continue
		}
		assignPriorities(priorities, sibling.Name)
	}
	return priorities
}

func assignPriorities(priorities map[string]int, name string) {
	for _, group := range ParseDrugGroups(name) {
		key := DrugGroupKey(group)
		if _, seen := priorities[key]; !seen {
			priorities[key] = len(priorities) + 1
		}
	}
}

// TherapyPriorityResolver builds the treatments of a therapy evidence record.
type TherapyPriorityResolver struct {
	logger *logrus.Logger
}

// NewTherapyPriorityResolver creates a new therapy priority resolver
func NewTherapyPriorityResolver(logger *logrus.Logger) *TherapyPriorityResolver {
	return &TherapyPriorityResolver{logger: logger}
}

// BuildTreatments returns one payload per drug group of treatment. Drugs keep
// their token order and are numbered from 1 within their group; the group
// priority comes from the fold over siblings. A token missing from the
// catalog fails the whole build with *domain.UnknownDrugError.
func (r *TherapyPriorityResolver) BuildTreatments(
	treatment *domain.Treatment,
	siblings []*domain.Treatment,
	catalog domain.DrugCatalog,
) ([]domain.TreatmentPayload, error) {
	if treatment == nil {
		return nil, domain.NewValidationError("treatment", "treatment is required", nil)
	}

	priorities := ComputeDrugPriorities(siblings)
	// A treatment outside the sibling list still gets stable numbers after them.
	assignPriorities(priorities, treatment.Name)

	groups := ParseDrugGroups(treatment.Name)
	payloads := make([]domain.TreatmentPayload, 0, len(groups))
	for _, group := range groups {
		drugs := make([]domain.DrugPayload, 0, len(group))
		for i, token := range group {
			drug, ok := lookupDrug(catalog, token)
			if !ok {
				r.logger.WithFields(logrus.Fields{
					"treatment": treatment.Name,
					"drug":      token,
				}).Warn("Treatment references an unknown drug")
				return nil, domain.NewUnknownDrugError(token, treatment.Name)
			}
			drugs = append(drugs, domain.DrugPayload{
				UUID:     drug.UUID,
				DrugName: drug.DrugName,
				NcitCode: drug.NcitCode,
				Synonyms: drug.Synonyms,
				Priority: i + 1,
			})
		}
		payloads = append(payloads, domain.TreatmentPayload{
			Drugs:    drugs,
			Priority: priorities[DrugGroupKey(group)],
		})
	}

	return payloads, nil
}

func lookupDrug(catalog domain.DrugCatalog, key string) (domain.Drug, bool) {
	if catalog == nil {
		return domain.Drug{}, false
	}
	return catalog.Lookup(key)
}
