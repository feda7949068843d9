package service

import (
	"github.com/curation-evidence-sync/internal/domain"
	"github.com/curation-evidence-sync/pkg/curation"
)

// CreateGeneTypePayload derives the gene classification from the gene's last
// accepted state.
func CreateGeneTypePayload(gene domain.Node) (domain.GeneTypePayload, error) {
	if gene == nil {
		return domain.GeneTypePayload{}, domain.NewValidationError("gene", "gene snapshot is required", nil)
	}

	projected, ok := curation.ProjectLastAccepted(gene, nil)
	if !ok {
		return domain.GeneTypePayload{}, domain.NewValidationError("gene", "gene has no accepted state", nil)
	}
	root := projected.(map[string]any)

	name, _ := root[domain.KeyName].(string)
	if name == "" {
		return domain.GeneTypePayload{}, domain.NewValidationError("name", "gene name is required", nil)
	}
	geneType, _ := root["type"].(map[string]any)

	return domain.GeneTypePayload{
		HugoSymbol: name,
		Oncogene:   domain.Truthy(geneType["ocg"]),
		TSG:        domain.Truthy(geneType["tsg"]),
	}, nil
}
