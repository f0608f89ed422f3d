package safety

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/clinic/clinic/internal/platform/apperr"
)

const (
	KindHealth    = "health"
	KindAesthetic = "aesthetic"
)

// Kinds lists the questionnaire kinds in the order their tags are merged.
var Kinds = []string{KindHealth, KindAesthetic}

// Questionnaire is a decoded questionnaire payload.
type Questionnaire interface {
	Source
	Kind() string
}

// Flag is a yes/no answer. Older payloads stored answers as "yes"/"no"
// strings or 0/1 numbers.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = false
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*f = Flag(t)
	case float64:
		*f = t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "y", "true", "1", "sim", "s":
			*f = true
		case "", "no", "n", "false", "0", "nao", "não":
			*f = false
		default:
			return fmt.Errorf("unrecognized yes/no answer %q", t)
		}
	default:
		return fmt.Errorf("unrecognized yes/no answer %s", b)
	}
	return nil
}

type HealthQuestionnaire struct {
	Hypertension           Flag   `json:"hypertension"`
	Diabetes               Flag   `json:"diabetes"`
	Pregnancy              Flag   `json:"pregnancy"`
	Breastfeeding          Flag   `json:"breastfeeding"`
	Anticoagulants         Flag   `json:"anticoagulants"`
	AutoimmuneDisease      Flag   `json:"autoimmune_disease"`
	KeloidTendency         Flag   `json:"keloid_tendency"`
	HerpesHistory          Flag   `json:"herpes_history"`
	Epilepsy               Flag   `json:"epilepsy"`
	CardiacPacemaker       Flag   `json:"cardiac_pacemaker"`
	Allergies              string `json:"allergies,omitempty"`
	Medications            string `json:"medications,omitempty"`
	OtherContraindications string `json:"other_contraindications,omitempty"`
}

func (HealthQuestionnaire) Kind() string { return KindHealth }

func (q HealthQuestionnaire) Tags() []string {
	var tags []string
	flags := []struct {
		on    Flag
		label string
	}{
		{q.Hypertension, "Hypertension"},
		{q.Diabetes, "Diabetes"},
		{q.Pregnancy, "Pregnancy"},
		{q.Breastfeeding, "Breastfeeding"},
		{q.Anticoagulants, "Anticoagulant use"},
		{q.AutoimmuneDisease, "Autoimmune disease"},
		{q.KeloidTendency, "Keloid tendency"},
		{q.HerpesHistory, "Herpes history"},
		{q.Epilepsy, "Epilepsy"},
		{q.CardiacPacemaker, "Cardiac pacemaker"},
	}
	for _, f := range flags {
		if f.on {
			tags = append(tags, f.label)
		}
	}
	tags = appendText(tags, "Allergic to: ", q.Allergies)
	tags = appendText(tags, "Medications: ", q.Medications)
	tags = appendText(tags, "Contraindication: ", q.OtherContraindications)
	return tags
}

type AestheticQuestionnaire struct {
	RoaccutaneUse      Flag   `json:"roaccutane_use"`
	RecentSunExposure  Flag   `json:"recent_sun_exposure"`
	PriorFiller        Flag   `json:"prior_filler"`
	AnestheticsAllergy Flag   `json:"anesthetics_allergy"`
	LidocaineAllergy   Flag   `json:"lidocaine_allergy"`
	OtherAllergies     string `json:"other_allergies,omitempty"`
}

func (AestheticQuestionnaire) Kind() string { return KindAesthetic }

func (q AestheticQuestionnaire) Tags() []string {
	var tags []string
	if q.RoaccutaneUse {
		tags = append(tags, "Roaccutane use")
	}
	if q.RecentSunExposure {
		tags = append(tags, "Recent sun exposure")
	}
	if q.PriorFiller {
		tags = append(tags, "Prior filler")
	}
	if q.AnestheticsAllergy {
		tags = append(tags, "Allergic to: anesthetics")
	}
	if q.LidocaineAllergy {
		tags = append(tags, "Allergic to: lidocaine")
	}
	return appendText(tags, "Allergic to: ", q.OtherAllergies)
}

func appendText(tags []string, prefix, text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return tags
	}
	return append(tags, prefix+text)
}

// legacyKeys maps field names used by older payloads to the current ones,
// per questionnaire kind.
var legacyKeys = map[string]map[string]string{
	KindHealth: {
		"high_blood_pressure": "hypertension",
		"pregnant":            "pregnancy",
		"anticoagulant":       "anticoagulants",
		"autoimmune":          "autoimmune_disease",
		"keloid":              "keloid_tendency",
		"herpes":              "herpes_history",
		"pacemaker":           "cardiac_pacemaker",
		"allergy":             "allergies",
		"medication":          "medications",
		"contraindications":   "other_contraindications",
	},
	KindAesthetic: {
		"roaccutane":         "roaccutane_use",
		"isotretinoin":       "roaccutane_use",
		"sun_exposure":       "recent_sun_exposure",
		"filler":             "prior_filler",
		"anesthetic_allergy": "anesthetics_allergy",
		"lidocaine":          "lidocaine_allergy",
		"allergies":          "other_allergies",
	},
}

// Decode parses a stored or submitted payload of the given kind. Legacy
// field names are mapped to the current ones; a current name always wins
// over its legacy alias.
func Decode(kind string, raw []byte) (Questionnaire, error) {
	aliases, ok := legacyKeys[kind]
	if !ok {
		return nil, apperr.Validation("unknown questionnaire kind: %s", kind)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, apperr.Validation("questionnaire must be a JSON object")
	}
	legacyNames := make([]string, 0, len(aliases))
	for legacy := range aliases {
		legacyNames = append(legacyNames, legacy)
	}
	sort.Strings(legacyNames)
	for _, legacy := range legacyNames {
		current := aliases[legacy]
		v, ok := fields[legacy]
		if !ok {
			continue
		}
		delete(fields, legacy)
		if _, exists := fields[current]; !exists {
			fields[current] = v
		}
	}
	canonical, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	var q Questionnaire
	switch kind {
	case KindHealth:
		var h HealthQuestionnaire
		err = json.Unmarshal(canonical, &h)
		q = h
	case KindAesthetic:
		var a AestheticQuestionnaire
		err = json.Unmarshal(canonical, &a)
		q = a
	}
	if err != nil {
		return nil, apperr.Validation("invalid %s questionnaire: %v", kind, err)
	}
	return q, nil
}
