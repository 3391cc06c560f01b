package biomarker

import (
	"regexp"
	"strconv"
	"strings"
)

// matchConfidence is a static placeholder meaning "rule matched and
// the value is range-plausible", not a statistical measure. Per-rule
// weights would change observable output, so the constant stays.
const matchConfidence = 0.85

// rawTextLimit caps the audit snippet kept on each extraction.
const rawTextLimit = 100

var reSpaceRuns = regexp.MustCompile(`[ \t]+`)

// Extractor applies a pattern catalog to OCR text. It is stateless
// between calls; the catalog is injected so tests can substitute a
// minimal one.
type Extractor struct {
	catalog []Pattern
}

func NewExtractor(catalog []Pattern) *Extractor {
	return &Extractor{catalog: catalog}
}

// Extract recovers a structured, deduplicated list of readings from
// raw OCR text. Pure and deterministic: same catalog + same text =>
// same output. The result is a sparse subset of the catalog, in
// catalog order; a biomarker with no match is silently absent.
func (e *Extractor) Extract(ocrText string) []Extracted {
	// Normalize whitespace but preserve line structure. Case and
	// punctuation are left alone; rules are case-insensitive by
	// construction.
	normalized := strings.ReplaceAll(ocrText, "\r\n", "\n")
	normalized = reSpaceRuns.ReplaceAllString(normalized, " ")

	extracted := make([]Extracted, 0, len(e.catalog))
	found := make(map[string]struct{}, len(e.catalog))

	for _, p := range e.catalog {
		if _, ok := found[p.Name]; ok {
			continue
		}

		for _, r := range p.Rules {
			m := r.Matcher.FindStringSubmatch(normalized)
			if m == nil {
				continue
			}

			value, err := strconv.ParseFloat(m[r.ValueGroup], 64)
			if err != nil {
				// Non-numeric capture: no-match for this rule only.
				continue
			}

			detectedUnit := ""
			if r.UnitGroup > 0 {
				detectedUnit = m[r.UnitGroup]
			}

			if p.Convert != nil {
				value = p.Convert(value, detectedUnit)
			}

			// Post-conversion plausibility check: the primary defense
			// against OCR misreads (a dropped decimal point turns 5.8
			// into 580). Reject, never clamp.
			if p.MinValid != nil && value < *p.MinValid {
				continue
			}
			if p.MaxValid != nil && value > *p.MaxValid {
				continue
			}

			value = round2(value)

			extracted = append(extracted, Extracted{
				Name:           p.Name,
				DisplayName:    p.DisplayName,
				Value:          value,
				Unit:           p.Unit,
				NormalRangeMin: p.NormalRangeMin,
				NormalRangeMax: p.NormalRangeMax,
				Category:       p.Category,
				Confidence:     matchConfidence,
				RawText:        truncateRunes(strings.TrimSpace(m[0]), rawTextLimit),
			})

			found[p.Name] = struct{}{}
			break // first rule wins; move to next catalog entry
		}
	}

	return extracted
}

func truncateRunes(s string, n int) string {
	if utf8Len := len([]rune(s)); utf8Len <= n {
		return s
	}
	return string([]rune(s)[:n])
}
