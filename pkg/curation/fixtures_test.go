package curation

import (
	"github.com/curation-evidence-sync/internal/domain"
)

func accepted(updateTime float64) domain.Node {
	return domain.Node{"updatedBy": "curator", "updateTime": updateTime}
}

func sampleTreatment(name, uuid, level string) domain.Node {
	return domain.Node{
		"name":        name,
		"name_uuid":   uuid,
		"name_review": accepted(1000),
		"level":       level,
		"indication":  "",
		"description": name + " description",
	}
}

func sampleTumor() domain.Node {
	return domain.Node{
		"cancerTypes": []any{
			domain.Node{"code": "MEL", "subtype": "Melanoma", "mainType": "Melanoma"},
		},
		"cancerTypes_uuid":       "t-ct",
		"cancerTypes_review":     accepted(1000),
		"excludedCancerTypes":    []any{},
		"summary":                "Tumor summary",
		"summary_uuid":           "ts-1",
		"summary_review":         accepted(1000),
		"summary_comments_uuid":  "comment-1",
		"prognosticSummary":      "Prognostic summary",
		"prognosticSummary_uuid": "tps-1",
		"diagnosticSummary":      "Diagnostic summary",
		"diagnosticSummary_uuid": "tds-1",
		"prognostic":             domain.Node{"level": "Px1", "description": "Prognostic"},
		"prognostic_uuid":        "tp-1",
		"diagnostic":             domain.Node{"level": "Dx2", "description": "Diagnostic"},
		"diagnostic_uuid":        "td-1",
		domain.KeyImplicationGroups: []any{
			domain.Node{
				"type":      "Standard implications for sensitivity to therapy",
				"name":      "",
				"name_uuid": "ti-1",
				"treatments": []any{
					sampleTreatment("a+b", "tr-1", "1"),
					sampleTreatment("c", "tr-2", "R2"),
				},
			},
		},
	}
}

func sampleMutation(name, uuid string) domain.Node {
	return domain.Node{
		"name":        name,
		"name_uuid":   uuid,
		"name_review": accepted(1000),
		"alterations": []any{
			domain.Node{"alteration": name, "name": name},
		},
		"mutation_effect": domain.Node{
			"oncogenic":          "Oncogenic",
			"oncogenic_uuid":     "me-onc",
			"oncogenic_review":   accepted(1000),
			"effect":             "Gain-of-function",
			"effect_uuid":        "me-eff",
			"effect_review":      accepted(1000),
			"description":        "Effect description",
			"description_uuid":   "me-desc",
			"description_review": accepted(2000),
		},
		"tumors": []any{sampleTumor()},
	}
}

func sampleGene() domain.Node {
	return domain.Node{
		"name":              "BRAF",
		"summary":                "BRAF summary",
		"summary_uuid":           "gs-1",
		"summary_review":         accepted(1000),
		"background":        "BRAF background",
		"background_uuid":   "gb-1",
		"background_review": accepted(1000),
		"type":              domain.Node{"ocg": "Oncogene", "tsg": ""},
		"mutations":         []any{sampleMutation("V600E", "m-1")},
	}
}
