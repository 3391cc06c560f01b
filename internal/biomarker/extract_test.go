package biomarker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractAll(t *testing.T, text string) []Extracted {
	t.Helper()
	return NewExtractor(DefaultCatalog()).Extract(text)
}

func findByName(results []Extracted, name string) *Extracted {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

func TestExtractEmptyInput(t *testing.T) {
	results := extractAll(t, "")
	require.NotNil(t, results)
	assert.Empty(t, results)
}

func TestExtractNoMatches(t *testing.T) {
	results := extractAll(t, "Patient Name: Jane Doe\nCollected: 2024-01-15\nOrdering Physician: Dr. Smith")
	require.NotNil(t, results)
	assert.Empty(t, results)
}

func TestExtractHemoglobinConventionalUnits(t *testing.T) {
	results := extractAll(t, "Hemoglobin 15.0 g/dL")
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, "hemoglobin", got.Name)
	assert.Equal(t, "Hemoglobin", got.DisplayName)
	assert.Equal(t, 150.0, got.Value)
	assert.Equal(t, "g/L", got.Unit)
	assert.Equal(t, 0.85, got.Confidence)
}

func TestExtractHemoglobinAlreadyCanonical(t *testing.T) {
	results := extractAll(t, "Haemoglobin: 148 g/L")
	require.Len(t, results, 1)
	assert.Equal(t, 148.0, results[0].Value)
}

func TestExtractGlucoseConversion(t *testing.T) {
	results := extractAll(t, "Glucose Fasting 95 mg/dL")
	require.Len(t, results, 1)

	got := results[0]
	assert.Equal(t, "glucose", got.Name)
	assert.Equal(t, 5.28, got.Value) // 95 / 18.0, rounded to 2 decimals
	assert.Equal(t, "mmol/L", got.Unit)
}

func TestExtractGlucoseAlreadyCanonical(t *testing.T) {
	results := extractAll(t, "Glucose 5.1 mmol/L")
	require.Len(t, results, 1)
	assert.Equal(t, 5.1, results[0].Value)
}

func TestExtractRejectsImplausibleValue(t *testing.T) {
	// WBC reported in cells/uL instead of x10^9/L. 5000 has no
	// conversion band, fails the plausibility check and must be
	// dropped rather than clamped.
	results := extractAll(t, "WBC 5000")
	assert.Nil(t, findByName(results, "wbc"))
}

func TestExtractHematocritFraction(t *testing.T) {
	results := extractAll(t, "Hematocrit 0.45 L/L")
	require.Len(t, results, 1)
	assert.Equal(t, 45.0, results[0].Value)
	assert.Equal(t, "%", results[0].Unit)
}

func TestExtractAtMostOncePerBiomarker(t *testing.T) {
	text := "Hemoglobin 15.0 g/dL\nHemoglobin 14.2 g/dL"
	results := extractAll(t, text)
	require.Len(t, results, 1)
	// First match in the text wins.
	assert.Equal(t, 150.0, results[0].Value)
}

func TestExtractCatalogOrderIndependentOfTextOrder(t *testing.T) {
	// Glucose appears before hemoglobin in the document; output
	// follows catalog order, not text order.
	text := "Glucose Fasting 95 mg/dL\nCreatinine 1.0 mg/dL\nHemoglobin 15.0 g/dL\nCholesterol, Total 210 mg/dL"
	results := extractAll(t, text)
	require.Len(t, results, 4)

	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"hemoglobin", "glucose", "creatinine", "total_cholesterol"}, names)

	assert.Equal(t, 88.4, results[2].Value)  // creatinine 1.0 mg/dL -> umol/L
	assert.Equal(t, 5.43, results[3].Value)  // 210 / 38.67
	assert.Equal(t, 150.0, results[0].Value) // hemoglobin g/dL -> g/L
}

func TestExtractDeterministic(t *testing.T) {
	text := "Hemoglobin 15.0 g/dL\nGlucose Fasting 95 mg/dL\nTSH 2.5 mIU/L"
	first := extractAll(t, text)
	second := extractAll(t, text)
	assert.Equal(t, first, second)
}

func TestExtractNormalizesWhitespace(t *testing.T) {
	// CRLF line endings and run-together tabs must not defeat the
	// rules.
	results := extractAll(t, "Hemoglobin\t\t15.0   g/dL\r\nTSH  2.5")
	require.Len(t, results, 2)
	assert.Equal(t, "hemoglobin", results[0].Name)
	assert.Equal(t, "tsh", results[1].Name)
	assert.Equal(t, 2.5, results[1].Value)
}

func TestExtractSkipsNonNumericCapture(t *testing.T) {
	// "[\d.]+" can match a run of dots; ParseFloat fails and the rule
	// is treated as a non-match.
	results := extractAll(t, "Ferritin ... pending")
	assert.Nil(t, findByName(results, "ferritin"))
}

func TestExtractRawTextSnippet(t *testing.T) {
	results := extractAll(t, "  Hemoglobin 15.0 g/dL  ")
	require.Len(t, results, 1)
	assert.True(t, strings.HasPrefix(results[0].RawText, "Hemoglobin 15.0"))
	assert.LessOrEqual(t, len([]rune(results[0].RawText)), 100)
}

func TestExtractFirstRuleWins(t *testing.T) {
	// The TLC phrasing is the first WBC rule; the generic token rule
	// must not double count.
	results := extractAll(t, "Total Leukocyte Count (TLC) 5.6 thou/mm3")
	require.Len(t, results, 1)
	assert.Equal(t, "wbc", results[0].Name)
	assert.Equal(t, 5.6, results[0].Value)
}

func TestExtractFullPanel(t *testing.T) {
	text := strings.Join([]string{
		"COMPLETE BLOOD COUNT",
		"Hemoglobin 14.1 g/dL",
		"Packed Cell Volume (PCV) 42.0 %",
		"RBC Count 4.8 million/mm3",
		"Platelet Count 250 thou/mm3",
		"",
		"METABOLIC PANEL",
		"Glucose Fasting 88 mg/dL",
		"Creatinine 0.9 mg/dL",
		"Uric Acid 5.5 mg/dL",
	}, "\n")

	results := extractAll(t, text)

	require.NotNil(t, findByName(results, "hemoglobin"))
	require.NotNil(t, findByName(results, "hematocrit"))
	require.NotNil(t, findByName(results, "rbc"))
	require.NotNil(t, findByName(results, "platelets"))
	require.NotNil(t, findByName(results, "glucose"))
	require.NotNil(t, findByName(results, "creatinine"))
	require.NotNil(t, findByName(results, "uric_acid"))

	assert.Equal(t, 141.0, findByName(results, "hemoglobin").Value)
	assert.Equal(t, 42.0, findByName(results, "hematocrit").Value)
	assert.Equal(t, 4.89, findByName(results, "glucose").Value) // 88 / 18.0
	assert.Equal(t, 79.56, findByName(results, "creatinine").Value)
	assert.Equal(t, 327.14, findByName(results, "uric_acid").Value) // 5.5 * 59.48
}
