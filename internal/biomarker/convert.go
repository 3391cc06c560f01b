package biomarker

import (
	"math"
	"strings"
)

// Conversion strategies. Each one is keyed on a plausible input
// magnitude band: a value inside the band is assumed to be in the
// source unit and converted; anything else is assumed to already be
// canonical and passed through. The bands are the most bug-prone part
// of the system, so every strategy is a named value with its own test.

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// magnitudeBand builds a Converter that applies f only when the value
// falls inside [lo, hi].
func magnitudeBand(lo, hi float64, f func(float64) float64) Converter {
	return func(value float64, _ string) float64 {
		if value >= lo && value <= hi {
			return f(value)
		}
		return value
	}
}

var (
	// Hemoglobin g/dL -> g/L. Typical g/dL readings sit in 8-20;
	// g/L readings are an order of magnitude above the band.
	ConvertHemoglobin = magnitudeBand(8, 20, func(v float64) float64 { return v * 10 })

	// Glucose mg/dL -> mmol/L (divide by 18.0). mg/dL readings run
	// roughly 50-300; the band is kept wide to catch extremes.
	ConvertGlucose = magnitudeBand(40, 500, func(v float64) float64 { return round2(v / 18.0) })

	// Creatinine mg/dL -> umol/L (factor 88.4).
	ConvertCreatinine = magnitudeBand(0.3, 20, func(v float64) float64 { return round2(v * 88.4) })

	// Cholesterol mg/dL -> mmol/L (divide by 38.67); per-analyte bands.
	ConvertTotalCholesterol = magnitudeBand(50, 500, func(v float64) float64 { return round2(v / 38.67) })
	ConvertLDL              = magnitudeBand(20, 400, func(v float64) float64 { return round2(v / 38.67) })
	ConvertHDL              = magnitudeBand(15, 150, func(v float64) float64 { return round2(v / 38.67) })

	// Triglycerides mg/dL -> mmol/L (divide by 88.57).
	ConvertTriglycerides = magnitudeBand(30, 1000, func(v float64) float64 { return round2(v / 88.57) })

	// Vitamin D ng/mL -> nmol/L (factor 2.5).
	ConvertVitaminD = magnitudeBand(5, 100, func(v float64) float64 { return round2(v * 2.5) })

	// Vitamin B12 pg/mL -> pmol/L (factor 0.738).
	ConvertVitaminB12 = magnitudeBand(100, 2000, func(v float64) float64 { return round2(v * 0.738) })

	// Iron ug/dL -> umol/L (factor 0.179).
	ConvertIron = magnitudeBand(30, 300, func(v float64) float64 { return round2(v * 0.179) })

	// Calcium mg/dL -> mmol/L (factor 0.25).
	ConvertCalcium = magnitudeBand(7, 15, func(v float64) float64 { return round2(v * 0.25) })

	// Uric acid mg/dL -> umol/L (factor 59.48).
	ConvertUricAcid = magnitudeBand(2, 12, func(v float64) float64 { return round2(v * 59.48) })

	// Bilirubin mg/dL -> umol/L (factor 17.1).
	ConvertBilirubin = magnitudeBand(0.1, 5, func(v float64) float64 { return round2(v * 17.1) })

	// Albumin g/dL -> g/L.
	ConvertAlbumin = magnitudeBand(2, 6, func(v float64) float64 { return round2(v * 10) })
)

// ConvertHematocrit is the one unit-text keyed strategy: hematocrit
// reported as a fraction (L/L) becomes a percentage. Magnitude alone
// cannot separate 0.45 L/L from a garbled percent reading, and the
// L/L token survives OCR well.
func ConvertHematocrit(value float64, detectedUnit string) float64 {
	if strings.Contains(strings.ToLower(detectedUnit), "l/l") {
		return value * 100
	}
	return value
}
