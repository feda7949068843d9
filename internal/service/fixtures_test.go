package service

import (
	"github.com/sirupsen/logrus"

	"github.com/curation-evidence-sync/internal/domain"
	"github.com/curation-evidence-sync/internal/drugs"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func newTestSync() *EvidenceSync {
	return NewDefaultEvidenceSync(testLogger())
}

func testCatalog() drugs.MapCatalog {
	return drugs.NewMapCatalog([]domain.Drug{
		{UUID: "drug-a", DrugName: "a", NcitCode: "C1"},
		{UUID: "drug-b", DrugName: "b", NcitCode: "C2"},
		{UUID: "drug-c", DrugName: "c", NcitCode: "C3"},
	})
}

func reviewed(updateTime float64) domain.Node {
	return domain.Node{"updatedBy": "curator", "updateTime": updateTime}
}

func treatmentNode(name, uuid, level string) domain.Node {
	return domain.Node{
		"name":        name,
		"name_uuid":   uuid,
		"name_review": reviewed(1000),
		"level":       level,
		"fdaLevel":    "Fda2",
		"indication":  "",
		"short":       "",
		"description": name + " description",
	}
}

func tumorNode() domain.Node {
	return domain.Node{
		"cancerTypes": []any{
			domain.Node{"code": "MEL", "subtype": "Melanoma", "mainType": "Melanoma"},
		},
		"cancerTypes_uuid":       "t-ct",
		"excludedCancerTypes":    []any{},
		"summary":                "Tumor summary",
		"summary_uuid":           "ts-1",
		"summary_review":         reviewed(1500),
		"prognosticSummary":      "Prognostic summary",
		"prognosticSummary_uuid": "tps-1",
		"diagnosticSummary":      "Diagnostic summary",
		"diagnosticSummary_uuid": "tds-1",
		"prognostic":             domain.Node{"level": "Px1", "description": "Prognostic"},
		"prognostic_uuid":        "tp-1",
		"diagnostic": domain.Node{
			"level":        "Dx2",
			"description":  "Diagnostic",
			"excludedRCTs": []any{domain.Node{"code": "UVM", "mainType": "Melanoma"}},
		},
		"diagnostic_uuid": "td-1",
		domain.KeyImplicationGroups: []any{
			domain.Node{
				"type":      "Standard implications for sensitivity to therapy",
				"name":      "",
				"name_uuid": "ti-1",
				"treatments": []any{
					treatmentNode("a+b", "tr-1", "1"),
					treatmentNode("c", "tr-2", "R2"),
				},
			},
		},
	}
}

func mutationNode() domain.Node {
	return domain.Node{
		"name":        "V600E",
		"name_uuid":   "m-1",
		"name_review": reviewed(1000),
		"alterations": []any{
			domain.Node{"alteration": "V600E", "name": "V600E", "consequence": "missense_variant"},
		},
		"mutation_effect": domain.Node{
			"oncogenic":          "Oncogenic",
			"oncogenic_uuid":     "me-onc",
			"oncogenic_review":   reviewed(1000),
			"effect":             "Gain-of-function",
			"effect_uuid":        "me-eff",
			"effect_review":      reviewed(1000),
			"description":        "Effect description",
			"description_uuid":   "me-desc",
			"description_review": reviewed(2000),
		},
		"tumors": []any{tumorNode()},
	}
}

func geneNode() domain.Node {
	return domain.Node{
		"name":              "BRAF",
		"summary":           "BRAF summary",
		"summary_uuid":      "gs-1",
		"summary_review":    reviewed(1000),
		"background":        "BRAF background",
		"background_uuid":   "gb-1",
		"background_review": reviewed(1000),
		"type":              domain.Node{"ocg": "Oncogene", "tsg": ""},
		"mutations":         []any{mutationNode()},
	}
}
