package domain

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Document keys that carry structure.
const (
	KeyMutations         = "mutations"
	KeyMutationEffect    = "mutation_effect"
	KeyTumors            = "tumors"
	KeyCancerTypes       = "cancerTypes"
	KeyExcludedCancer    = "excludedCancerTypes"
	KeyImplicationGroups = "TIs"
	KeyTreatments        = "treatments"
	KeyIndication        = "indication"
	KeyName              = "name"
)

// CancerType is a tumor type reference as stored in the document.
type CancerType struct {
	Code     string `mapstructure:"code" json:"code"`
	Subtype  string `mapstructure:"subtype" json:"subtype"`
	MainType string `mapstructure:"mainType" json:"mainType"`
}

// Alteration is a single curated alteration of a mutation.
type Alteration struct {
	Alteration    string `mapstructure:"alteration" json:"alteration"`
	Name          string `mapstructure:"name" json:"name"`
	ProteinChange string `mapstructure:"proteinChange" json:"proteinChange,omitempty"`
	Consequence   string `mapstructure:"consequence" json:"consequence,omitempty"`
}

// GeneType holds the gene's oncogene / tumor suppressor classification.
type GeneType struct {
	Ocg any `mapstructure:"ocg"`
	Tsg any `mapstructure:"tsg"`
}

// Gene is the aggregate root of the curation document.
type Gene struct {
	Name             string   `mapstructure:"name"`
	Summary          string   `mapstructure:"summary"`
	SummaryUUID      string   `mapstructure:"summary_uuid"`
	SummaryReview    *Review  `mapstructure:"summary_review"`
	Background       string   `mapstructure:"background"`
	BackgroundUUID   string   `mapstructure:"background_uuid"`
	BackgroundReview *Review  `mapstructure:"background_review"`
	Type             GeneType `mapstructure:"type"`

	Raw Node `mapstructure:"-"`
}

// MutationEffect is the biological effect block of a mutation.
type MutationEffect struct {
	Oncogenic         string  `mapstructure:"oncogenic"`
	OncogenicUUID     string  `mapstructure:"oncogenic_uuid"`
	OncogenicReview   *Review `mapstructure:"oncogenic_review"`
	Effect            string  `mapstructure:"effect"`
	EffectUUID        string  `mapstructure:"effect_uuid"`
	EffectReview      *Review `mapstructure:"effect_review"`
	Description       string  `mapstructure:"description"`
	DescriptionUUID   string  `mapstructure:"description_uuid"`
	DescriptionReview *Review `mapstructure:"description_review"`
}

// Mutation groups one or more alterations of the gene.
type Mutation struct {
	Name           string         `mapstructure:"name"`
	NameUUID       string         `mapstructure:"name_uuid"`
	NameReview     *Review        `mapstructure:"name_review"`
	Alterations    []Alteration   `mapstructure:"alterations"`
	MutationEffect MutationEffect `mapstructure:"mutation_effect"`

	Raw Node `mapstructure:"-"`
}

// Implication is a prognostic or diagnostic implication of a tumor.
type Implication struct {
	Level             string       `mapstructure:"level"`
	LevelReview       *Review      `mapstructure:"level_review"`
	Description       string       `mapstructure:"description"`
	DescriptionReview *Review      `mapstructure:"description_review"`
	ExcludedRCTs      []CancerType `mapstructure:"excludedRCTs"`
}

// Tumor is a cancer-type context of a mutation.
type Tumor struct {
	CancerTypes             []CancerType `mapstructure:"cancerTypes"`
	CancerTypesUUID         string       `mapstructure:"cancerTypes_uuid"`
	CancerTypesReview       *Review      `mapstructure:"cancerTypes_review"`
	ExcludedCancerTypes     []CancerType `mapstructure:"excludedCancerTypes"`
	Summary                 string       `mapstructure:"summary"`
	SummaryUUID             string       `mapstructure:"summary_uuid"`
	SummaryReview           *Review      `mapstructure:"summary_review"`
	DiagnosticSummary       string       `mapstructure:"diagnosticSummary"`
	DiagnosticSummaryUUID   string       `mapstructure:"diagnosticSummary_uuid"`
	DiagnosticSummaryReview *Review      `mapstructure:"diagnosticSummary_review"`
	PrognosticSummary       string       `mapstructure:"prognosticSummary"`
	PrognosticSummaryUUID   string       `mapstructure:"prognosticSummary_uuid"`
	PrognosticSummaryReview *Review      `mapstructure:"prognosticSummary_review"`
	Diagnostic              Implication  `mapstructure:"diagnostic"`
	DiagnosticUUID          string       `mapstructure:"diagnostic_uuid"`
	Prognostic              Implication  `mapstructure:"prognostic"`
	PrognosticUUID          string       `mapstructure:"prognostic_uuid"`

	Raw Node `mapstructure:"-"`
}

// ImplicationGroup groups the treatments of one therapeutic implication kind.
type ImplicationGroup struct {
	Type       string       `mapstructure:"type"`
	Name       string       `mapstructure:"name"`
	NameUUID   string       `mapstructure:"name_uuid"`
	Treatments []*Treatment `mapstructure:"treatments"`

	Raw Node `mapstructure:"-"`
}

// Treatment is a therapy entry. Name holds drug keys: "," separates
// alternative combinations and "+" separates co-administered drugs.
type Treatment struct {
	Name                    string       `mapstructure:"name"`
	NameUUID                string       `mapstructure:"name_uuid"`
	NameReview              *Review      `mapstructure:"name_review"`
	Level                   string       `mapstructure:"level"`
	LevelReview             *Review      `mapstructure:"level_review"`
	Propagation             string       `mapstructure:"propagation"`
	PropagationReview       *Review      `mapstructure:"propagation_review"`
	PropagationLiquid       string       `mapstructure:"propagationLiquid"`
	PropagationLiquidReview *Review      `mapstructure:"propagationLiquid_review"`
	FdaLevel                string       `mapstructure:"fdaLevel"`
	FdaLevelReview          *Review      `mapstructure:"fdaLevel_review"`
	Description             string       `mapstructure:"description"`
	DescriptionReview       *Review      `mapstructure:"description_review"`
	Indication              string       `mapstructure:"indication"`
	Short                   string       `mapstructure:"short"`
	ExcludedRCTs            []CancerType `mapstructure:"excludedRCTs"`
	ExcludedRCTsReview      *Review      `mapstructure:"excludedRCTs_review"`

	Raw Node `mapstructure:"-"`
}

// Removed reports whether the treatment is pending deletion.
func (t *Treatment) Removed() bool {
	return t != nil && t.NameReview != nil && t.NameReview.Removed
}

// Drug is a backend drug entity, referenced from treatment names by key.
type Drug struct {
	UUID     string   `mapstructure:"uuid" json:"uuid"`
	DrugName string   `mapstructure:"drugName" json:"drugName"`
	NcitCode string   `mapstructure:"ncitCode" json:"ncitCode,omitempty"`
	Synonyms []string `mapstructure:"synonyms" json:"synonyms,omitempty"`
}

// DrugCatalog resolves drugs by their stable key.
type DrugCatalog interface {
	Lookup(key string) (Drug, bool)
}

// EntityKind tags the containers a document path can pass through.
type EntityKind int

const (
	EntityNone EntityKind = iota
	EntityMutation
	EntityTumor
	EntityImplicationGroup
	EntityTreatment
)

// String returns the entity kind name for logging.
func (k EntityKind) String() string {
	switch k {
	case EntityMutation:
		return "mutation"
	case EntityTumor:
		return "tumor"
	case EntityImplicationGroup:
		return "implication_group"
	case EntityTreatment:
		return "treatment"
	default:
		return "none"
	}
}

// Entity is the tagged union of addressable document containers.
type Entity interface {
	Kind() EntityKind
	Node() Node
}

func (m *Mutation) Kind() EntityKind         { return EntityMutation }
func (t *Tumor) Kind() EntityKind            { return EntityTumor }
func (g *ImplicationGroup) Kind() EntityKind { return EntityImplicationGroup }
func (t *Treatment) Kind() EntityKind        { return EntityTreatment }

func (m *Mutation) Node() Node         { return m.Raw }
func (t *Tumor) Node() Node            { return t.Raw }
func (g *ImplicationGroup) Node() Node { return g.Raw }
func (t *Treatment) Node() Node        { return t.Raw }

// containerKinds maps the array key holding a container to its kind.
var containerKinds = map[string]EntityKind{
	KeyMutations:         EntityMutation,
	KeyTumors:            EntityTumor,
	KeyImplicationGroups: EntityImplicationGroup,
	KeyTreatments:        EntityTreatment,
}

// ClassifyNode decides which container v is. Shape is checked first, broadest
// container first, so an object carrying both cancerTypes and treatments is a
// Tumor. When the shape is inconclusive, parentKey (the array key the node was
// reached through) decides.
func ClassifyNode(v any, parentKey string) EntityKind {
	node, ok := v.(map[string]any)
	if !ok || node == nil {
		return EntityNone
	}
	if _, ok := node[KeyMutationEffect].(map[string]any); ok {
		return EntityMutation
	}
	if _, ok := node[KeyCancerTypes]; ok {
		return EntityTumor
	}
	if _, ok := node[KeyTreatments]; ok {
		return EntityImplicationGroup
	}
	if _, ok := node[KeyIndication]; ok {
		return EntityTreatment
	}
	return containerKinds[parentKey]
}

// DecodeEntity decodes node into the typed container of the given kind.
func DecodeEntity(kind EntityKind, node Node) (Entity, error) {
	switch kind {
	case EntityMutation:
		m := &Mutation{}
		if err := DecodeNode(node, m); err != nil {
			return nil, err
		}
		m.Raw = node
		return m, nil
	case EntityTumor:
		t := &Tumor{}
		if err := DecodeNode(node, t); err != nil {
			return nil, err
		}
		t.Raw = node
		return t, nil
	case EntityImplicationGroup:
		g := &ImplicationGroup{}
		if err := DecodeNode(node, g); err != nil {
			return nil, err
		}
		g.Raw = node
		for i, raw := range sliceOf(node[KeyTreatments]) {
			if i < len(g.Treatments) && g.Treatments[i] != nil {
				g.Treatments[i].Raw, _ = raw.(map[string]any)
			}
		}
		return g, nil
	case EntityTreatment:
		t := &Treatment{}
		if err := DecodeNode(node, t); err != nil {
			return nil, err
		}
		t.Raw = node
		return t, nil
	default:
		return nil, fmt.Errorf("decode entity: unsupported kind %s", kind)
	}
}

// DecodeGene decodes the document root.
func DecodeGene(node Node) (*Gene, error) {
	g := &Gene{}
	if err := DecodeNode(node, g); err != nil {
		return nil, err
	}
	g.Raw = node
	return g, nil
}

// DecodeNode decodes a document object into out using the document's loose
// typing (numeric levels become strings, for example).
func DecodeNode(node Node, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("creating node decoder: %w", err)
	}
	if err := decoder.Decode(node); err != nil {
		return fmt.Errorf("decoding document node: %w", err)
	}
	return nil
}

// PathEntities are the nearest containers enclosing a document path.
type PathEntities struct {
	Mutation         *Mutation
	Tumor            *Tumor
	ImplicationGroup *ImplicationGroup
	Treatment        *Treatment
}

// Set records e in its slot, replacing any broader match of the same kind.
func (p *PathEntities) Set(e Entity) {
	switch v := e.(type) {
	case *Mutation:
		p.Mutation = v
	case *Tumor:
		p.Tumor = v
	case *ImplicationGroup:
		p.ImplicationGroup = v
	case *Treatment:
		p.Treatment = v
	}
}

func sliceOf(v any) []any {
	s, _ := v.([]any)
	return s
}
