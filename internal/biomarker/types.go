package biomarker

import "regexp"

// Rule is one text-matching rule: a compiled pattern plus the indices
// of its value capture group and (optionally) its unit capture group.
type Rule struct {
	Matcher    *regexp.Regexp
	ValueGroup int
	UnitGroup  int // 0 = rule captures no unit text
}

// Converter normalizes a parsed value into the pattern's canonical
// unit. It decides by numeric magnitude, not by the detected unit
// text: OCR drops or garbles unit tokens often enough that magnitude
// bands are the more reliable signal.
type Converter func(value float64, detectedUnit string) float64

// Pattern is one catalog entry: everything known about a single
// analyte, including how to find it in free text and how to bring a
// detected value into canonical units.
type Pattern struct {
	Name           string // stable key, e.g. "hemoglobin"
	DisplayName    string
	Rules          []Rule // ordered, most specific first
	Unit           string // canonical unit for every emitted value
	NormalRangeMin float64
	NormalRangeMax float64
	Category       string
	Convert        Converter // optional
	// Plausibility bounds applied after conversion; values outside are
	// rejected as OCR misreads. Optional.
	MinValid *float64
	MaxValid *float64
}

// Extracted is one successfully matched analyte. Value is already
// unit-converted and rounded; Unit is always the catalog's canonical
// unit, never the detected one.
type Extracted struct {
	Name           string  `json:"name"`
	DisplayName    string  `json:"displayName"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit"`
	NormalRangeMin float64 `json:"normalRangeMin"`
	NormalRangeMax float64 `json:"normalRangeMax"`
	Category       string  `json:"category"`
	Confidence     float64 `json:"confidence"`
	RawText        string  `json:"rawText"`
}

// ptr is a helper to create pointers to float64 literals
func ptr(f float64) *float64 {
	return &f
}

// rule compiles a case-insensitive matching rule. Case-insensitivity
// lives in the rule, not in text preprocessing.
func rule(expr string, valueGroup, unitGroup int) Rule {
	return Rule{
		Matcher:    regexp.MustCompile("(?i)" + expr),
		ValueGroup: valueGroup,
		UnitGroup:  unitGroup,
	}
}
