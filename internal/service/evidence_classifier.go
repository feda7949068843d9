package service

import (
	"github.com/sirupsen/logrus"

	"github.com/curation-evidence-sync/internal/domain"
)

// EvidenceRule is one row of the classification table. Match reports whether
// the rule claims the path; a claimed path with an empty kind has no evidence.
type EvidenceRule struct {
	Name  string
	Match func(segments []string, entities *domain.PathEntities) (kind domain.EvidenceKind, matched bool)
}

// EvidenceClassifier maps an accepted document path to the evidence kind it
// feeds. Rules are evaluated in order and the first one that matches decides.
type EvidenceClassifier struct {
	logger *logrus.Logger
	rules  []EvidenceRule
}

// NewEvidenceClassifier creates a classifier with the standard rule table
func NewEvidenceClassifier(logger *logrus.Logger) *EvidenceClassifier {
	return &EvidenceClassifier{
		logger: logger,
		rules:  defaultEvidenceRules(),
	}
}

// Rules returns the rule table in evaluation order.
func (c *EvidenceClassifier) Rules() []EvidenceRule {
	return c.rules
}

// Classify returns the evidence kind of path. The second return value is false
// when the edit has no backend representation, which is a valid outcome.
func (c *EvidenceClassifier) Classify(path string, entities *domain.PathEntities) (domain.EvidenceKind, bool) {
	if entities == nil {
		entities = &domain.PathEntities{}
	}
	segments := domain.SplitPath(path)

	for _, rule := range c.rules {
		kind, matched := rule.Match(segments, entities)
		if !matched {
			continue
		}
		if kind == "" {
			c.logger.WithFields(logrus.Fields{
				"path": path,
				"rule": rule.Name,
			}).Debug("Path matched a rule without evidence")
			return "", false
		}
		c.logger.WithFields(logrus.Fields{
			"path": path,
			"rule": rule.Name,
			"kind": kind,
		}).Debug("Classified evidence path")
		return kind, true
	}

	c.logger.WithField("path", path).Debug("Path has no evidence classification")
	return "", false
}

// Segment patterns. "#" stands for an array index.
var (
	mutationPattern  = []string{domain.KeyMutations, "#"}
	effectPattern    = []string{domain.KeyMutations, "#", domain.KeyMutationEffect}
	tumorPattern     = []string{domain.KeyMutations, "#", domain.KeyTumors, "#"}
	treatmentPattern = []string{
		domain.KeyMutations, "#", domain.KeyTumors, "#",
		domain.KeyImplicationGroups, "#", domain.KeyTreatments, "#",
	}
)

// hasPrefix reports whether segments start with pattern.
func hasPrefix(segments, pattern []string) bool {
	if len(segments) < len(pattern) {
		return false
	}
	for i, p := range pattern {
		if p == "#" {
			if !domain.IsIndex(segments[i]) {
				return false
			}
			continue
		}
		if segments[i] != p {
			return false
		}
	}
	return true
}

// fieldAfter returns the segment following pattern, if segments start with it.
func fieldAfter(segments, pattern []string) (string, bool) {
	if !hasPrefix(segments, pattern) || len(segments) <= len(pattern) {
		return "", false
	}
	return segments[len(pattern)], true
}

func defaultEvidenceRules() []EvidenceRule {
	return []EvidenceRule{
		{
			Name: "gene_text",
			Match: func(segments []string, _ *domain.PathEntities) (domain.EvidenceKind, bool) {
				if len(segments) != 1 {
					return "", false
				}
				switch segments[0] {
				case "summary":
					return domain.GeneSummary, true
				case "background":
					return domain.GeneBackground, true
				}
				return "", false
			},
		},
		{
			Name: "tumor_summaries",
			Match: func(segments []string, _ *domain.PathEntities) (domain.EvidenceKind, bool) {
				field, ok := fieldAfter(segments, tumorPattern)
				if !ok {
					return "", false
				}
				switch field {
				case "summary":
					return domain.TumorTypeSummary, true
				case "prognosticSummary":
					return domain.PrognosticSummary, true
				case "diagnosticSummary":
					return domain.DiagnosticSummary, true
				}
				return "", false
			},
		},
		{
			Name: "mutation_effect",
			Match: func(segments []string, _ *domain.PathEntities) (domain.EvidenceKind, bool) {
				if len(segments) != 4 || !hasPrefix(segments, effectPattern) {
					return "", false
				}
				switch segments[3] {
				case "effect", "description":
					return domain.MutationEffectKind, true
				case "oncogenic":
					return domain.Oncogenic, true
				}
				return "", false
			},
		},
		{
			Name: "tumor_implications",
			Match: func(segments []string, _ *domain.PathEntities) (domain.EvidenceKind, bool) {
				field, ok := fieldAfter(segments, tumorPattern)
				if !ok {
					return "", false
				}
				switch field {
				case "prognostic":
					return domain.PrognosticImplication, true
				case "diagnostic":
					return domain.DiagnosticImplication, true
				}
				return "", false
			},
		},
		{
			Name: "name_changes",
			Match: func(segments []string, _ *domain.PathEntities) (domain.EvidenceKind, bool) {
				if field, ok := fieldAfter(segments, mutationPattern); ok && field == domain.KeyName {
					return domain.MutationNameChange, true
				}
				if field, ok := fieldAfter(segments, tumorPattern); ok {
					if field == domain.KeyCancerTypes || field == domain.KeyExcludedCancer {
						return domain.TumorNameChange, true
					}
				}
				if len(segments) == len(treatmentPattern)+1 {
					if field, ok := fieldAfter(segments, treatmentPattern); ok && field == domain.KeyName {
						return domain.TreatmentNameChange, true
					}
				}
				return "", false
			},
		},
		{
			Name: "therapeutic_implications",
			Match: func(segments []string, entities *domain.PathEntities) (domain.EvidenceKind, bool) {
				if !hasPrefix(segments, treatmentPattern) {
					return "", false
				}
				if field, ok := fieldAfter(segments, treatmentPattern); ok {
					if field == "short" || field == domain.KeyIndication {
						return "", true
					}
				}
				if entities.Treatment == nil {
					return "", true
				}
				kind, ok := domain.TherapyKindForLevel(entities.Treatment.Level)
				if !ok {
					return "", true
				}
				return kind, true
			},
		},
	}
}
