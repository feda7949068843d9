package domain

import (
	"strconv"
)

// EvidenceKind is the category of backend evidence a document edit maps to.
type EvidenceKind string

const (
	GeneSummary                EvidenceKind = "GENE_SUMMARY"
	GeneBackground             EvidenceKind = "GENE_BACKGROUND"
	TumorTypeSummary           EvidenceKind = "TUMOR_TYPE_SUMMARY"
	PrognosticSummary          EvidenceKind = "PROGNOSTIC_SUMMARY"
	DiagnosticSummary          EvidenceKind = "DIAGNOSTIC_SUMMARY"
	MutationEffectKind         EvidenceKind = "MUTATION_EFFECT"
	Oncogenic                  EvidenceKind = "ONCOGENIC"
	PrognosticImplication      EvidenceKind = "PROGNOSTIC_IMPLICATION"
	DiagnosticImplication      EvidenceKind = "DIAGNOSTIC_IMPLICATION"
	StandardSensitivity        EvidenceKind = "STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_SENSITIVITY"
	StandardResistance         EvidenceKind = "STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_RESISTANCE"
	InvestigationalSensitivity EvidenceKind = "INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_SENSITIVITY"
	InvestigationalResistance  EvidenceKind = "INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_RESISTANCE"
	MutationNameChange         EvidenceKind = "MUTATION_NAME_CHANGE"
	TumorNameChange            EvidenceKind = "TUMOR_NAME_CHANGE"
	TreatmentNameChange        EvidenceKind = "TREATMENT_NAME_CHANGE"
)

// AllEvidenceKinds lists every kind in classification order.
var AllEvidenceKinds = []EvidenceKind{
	GeneSummary, GeneBackground,
	TumorTypeSummary, PrognosticSummary, DiagnosticSummary,
	MutationEffectKind, Oncogenic,
	PrognosticImplication, DiagnosticImplication,
	MutationNameChange, TumorNameChange, TreatmentNameChange,
	StandardSensitivity, InvestigationalSensitivity,
	StandardResistance, InvestigationalResistance,
}

// String returns the kind name.
func (k EvidenceKind) String() string {
	return string(k)
}

// IsNameChange reports whether the kind identifies a container rename rather
// than a single evidence record.
func (k EvidenceKind) IsNameChange() bool {
	switch k {
	case MutationNameChange, TumorNameChange, TreatmentNameChange:
		return true
	default:
		return false
	}
}

// IsTherapy reports whether the kind is a therapeutic implication.
func (k EvidenceKind) IsTherapy() bool {
	switch k {
	case StandardSensitivity, StandardResistance, InvestigationalSensitivity, InvestigationalResistance:
		return true
	default:
		return false
	}
}

// EvidenceType is the wire evidenceType. Rename kinds never set it.
func (k EvidenceKind) EvidenceType() *string {
	if k == "" || k.IsNameChange() {
		return nil
	}
	s := string(k)
	return &s
}

// GeneRef identifies the gene on every evidence record.
type GeneRef struct {
	HugoSymbol   string `json:"hugoSymbol"`
	EntrezGeneID int    `json:"entrezGeneId,omitempty"`
}

// AlterationPayload is the wire form of an alteration.
type AlterationPayload struct {
	Alteration  string  `json:"alteration"`
	Name        string  `json:"name"`
	Gene        GeneRef `json:"gene"`
	Consequence string  `json:"consequence,omitempty"`
}

// DrugPayload is a resolved drug inside a treatment, numbered within its group.
type DrugPayload struct {
	UUID     string   `json:"uuid"`
	DrugName string   `json:"drugName"`
	NcitCode string   `json:"ncitCode,omitempty"`
	Synonyms []string `json:"synonyms,omitempty"`
	Priority int      `json:"priority"`
}

// TreatmentPayload is one drug combination group of a therapy record.
type TreatmentPayload struct {
	Drugs    []DrugPayload `json:"drugs"`
	Priority int           `json:"priority"`
}

// Article is a literature reference attached to an evidence record.
type Article struct {
	Pmid     string `json:"pmid,omitempty"`
	Abstract string `json:"abstract,omitempty"`
	Link     string `json:"link,omitempty"`
}

// EvidenceRecord is the backend wire contract. Nil pointers and nil slices
// serialize as null, which the backend reads as "not set".
type EvidenceRecord struct {
	EvidenceType           *string             `json:"evidenceType"`
	Description            *string             `json:"description"`
	KnownEffect            *string             `json:"knownEffect"`
	Gene                   GeneRef             `json:"gene"`
	LastEdit               *string             `json:"lastEdit"`
	LevelOfEvidence        *string             `json:"levelOfEvidence"`
	SolidPropagationLevel  *string             `json:"solidPropagationLevel"`
	LiquidPropagationLevel *string             `json:"liquidPropagationLevel"`
	FdaLevel               *string             `json:"fdaLevel"`
	Treatments             []TreatmentPayload  `json:"treatments"`
	CancerTypes            []CancerType        `json:"cancerTypes"`
	ExcludedCancerTypes    []CancerType        `json:"excludedCancerTypes"`
	RelevantCancerTypes    []CancerType        `json:"relevantCancerTypes"`
	Alterations            []AlterationPayload `json:"alterations"`
	Articles               []Article           `json:"articles"`
	AdditionalInfo         *string             `json:"additionalInfo"`
}

// Clone returns a copy that shares no slices with r.
func (r EvidenceRecord) Clone() EvidenceRecord {
	out := r
	if r.Treatments != nil {
		out.Treatments = make([]TreatmentPayload, len(r.Treatments))
		for i, t := range r.Treatments {
			out.Treatments[i] = TreatmentPayload{Priority: t.Priority, Drugs: append([]DrugPayload(nil), t.Drugs...)}
		}
	}
	out.CancerTypes = cloneCancerTypes(r.CancerTypes)
	out.ExcludedCancerTypes = cloneCancerTypes(r.ExcludedCancerTypes)
	out.RelevantCancerTypes = cloneCancerTypes(r.RelevantCancerTypes)
	if r.Alterations != nil {
		out.Alterations = append([]AlterationPayload{}, r.Alterations...)
	}
	if r.Articles != nil {
		out.Articles = append([]Article{}, r.Articles...)
	}
	return out
}

func cloneCancerTypes(in []CancerType) []CancerType {
	if in == nil {
		return nil
	}
	return append([]CancerType{}, in...)
}

// ResolveInput carries the entities an evidence record is built from.
type ResolveInput struct {
	Gene             *Gene
	Mutation         *Mutation
	Tumor            *Tumor
	ImplicationGroup *ImplicationGroup
	Treatment        *Treatment
	EntrezGeneID     int
	UpdateTime       int64
	Drugs            DrugCatalog
}

// ResolvedEvidence is a built record. EvidenceID is empty for rename kinds,
// which fan out over every identifier of the renamed container.
type ResolvedEvidence struct {
	Kind       EvidenceKind
	EvidenceID string
	Record     EvidenceRecord
}

// GeneTypePayload is the gene classification submission.
type GeneTypePayload struct {
	HugoSymbol string `json:"hugoSymbol"`
	Oncogene   bool   `json:"oncogene"`
	TSG        bool   `json:"tsg"`
}

// MostRecentReview returns the index of the most recently updated review.
// Candidates need a parseable update time; those without updatedBy are only
// considered when no candidate has one. Ties go to the earlier candidate and
// 0 is returned when nothing qualifies.
func MostRecentReview(reviews []*Review) int {
	if idx := mostRecent(reviews, true); idx >= 0 {
		return idx
	}
	if idx := mostRecent(reviews, false); idx >= 0 {
		return idx
	}
	return 0
}

func mostRecent(reviews []*Review, requireAuthor bool) int {
	best := -1
	var bestTime int64
	for i, r := range reviews {
		if r == nil || (requireAuthor && r.UpdatedBy == "") {
			continue
		}
		t, ok := r.UpdateTimeMillis()
		if !ok {
			continue
		}
		if best < 0 || t > bestTime {
			best = i
			bestTime = t
		}
	}
	return best
}

// MillisString renders epoch millis the way the backend expects lastEdit.
func MillisString(ms int64) *string {
	s := strconv.FormatInt(ms, 10)
	return &s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
