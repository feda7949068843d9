package domain

// Wire value for "no level".
const LevelNone = "NO"

// LevelMapping maps curated level strings to the backend levelOfEvidence enum.
// Propagation levels use the same table.
var LevelMapping = map[string]string{
	"":    LevelNone,
	"0":   "LEVEL_0",
	"1":   "LEVEL_1",
	"2":   "LEVEL_2",
	"2A":  "LEVEL_2A",
	"2B":  "LEVEL_2B",
	"3A":  "LEVEL_3A",
	"3B":  "LEVEL_3B",
	"4":   "LEVEL_4",
	"R1":  "LEVEL_R1",
	"R2":  "LEVEL_R2",
	"R3":  "LEVEL_R3",
	"Px1": "LEVEL_Px1",
	"Px2": "LEVEL_Px2",
	"Px3": "LEVEL_Px3",
	"Dx1": "LEVEL_Dx1",
	"Dx2": "LEVEL_Dx2",
	"Dx3": "LEVEL_Dx3",
	"no":  LevelNone,
}

// FDALevelMapping maps curated FDA levels to the backend fdaLevel enum.
var FDALevelMapping = map[string]string{
	"":     LevelNone,
	"Fda1": "LEVEL_Fda1",
	"Fda2": "LEVEL_Fda2",
	"Fda3": "LEVEL_Fda3",
	"no":   LevelNone,
}

// MapLevel returns the wire level for a curated level, or nil when the level
// is not in the table.
func MapLevel(level string) *string {
	if v, ok := LevelMapping[level]; ok {
		return &v
	}
	return nil
}

// MapFDALevel returns the wire FDA level for a curated level, or nil when the
// level is not in the table.
func MapFDALevel(level string) *string {
	if v, ok := FDALevelMapping[level]; ok {
		return &v
	}
	return nil
}

// Therapy level tiers.
var (
	StandardSensitivityLevels        = []string{"1", "2"}
	InvestigationalSensitivityLevels = []string{"3A", "3B", "4"}
	StandardResistanceLevels         = []string{"R1"}
	InvestigationalResistanceLevels  = []string{"R2"}
)

// TherapyKindForLevel returns the therapeutic evidence kind of a treatment
// level. Levels outside the four tiers have no evidence.
func TherapyKindForLevel(level string) (EvidenceKind, bool) {
	switch {
	case contains(StandardSensitivityLevels, level):
		return StandardSensitivity, true
	case contains(InvestigationalSensitivityLevels, level):
		return InvestigationalSensitivity, true
	case contains(StandardResistanceLevels, level):
		return StandardResistance, true
	case contains(InvestigationalResistanceLevels, level):
		return InvestigationalResistance, true
	default:
		return "", false
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
