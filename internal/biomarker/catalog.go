package biomarker

import "fmt"

// Category labels used by the default catalog.
const (
	CategoryCBC          = "Complete Blood Count"
	CategoryMetabolic    = "Metabolic Panel"
	CategoryLipid        = "Lipid Panel"
	CategoryThyroid      = "Thyroid Function"
	CategoryLiver        = "Liver Function"
	CategoryVitamins     = "Vitamins"
	CategoryMinerals     = "Minerals"
	CategoryElectrolytes = "Electrolytes"
)

// DefaultCatalog returns the built-in analyte catalog. Order is
// load-bearing twice over: catalog order is the output order and the
// priority order across entries, and rule order inside an entry puts
// contextually precise phrasings ahead of generic fallbacks so that
// "Total Leukocyte Count (TLC)" wins over a bare "WBC" token.
//
// The catalog is immutable after construction and safe for
// unsynchronized concurrent reads.
func DefaultCatalog() []Pattern {
	return []Pattern{
		// Complete Blood Count
		{
			Name:        "wbc",
			DisplayName: "White Blood Cells (WBC)",
			Rules: []Rule{
				// "Total Leukocyte Count (TLC) 5.00 thou/mm3"
				rule(`total\s*leuk?ocyte\s*count\s*\(?tlc\)?\s*([\d.]+)\s*(thou/mm3|x?\s*10\^?9/?L|thousand/μL|K/μL)?`, 1, 2),
				// "WBC 5.0 x10^9/L"
				rule(`(?:white\s*blood\s*cells?|wbc|leucocytes?|leukocytes?)\s*[:\-]?\s*([\d.]+)\s*(x?\s*10\^?9/?L|thousand/μL|K/μL|thou/mm3)?`, 1, 2),
				rule(`wbc\s*count\s*[:\-]?\s*([\d.]+)`, 1, 0),
				// Table format: "WBC" followed by number on same line
				rule(`\bwbc\b[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "x10^9/L",
			NormalRangeMin: 4.5,
			NormalRangeMax: 11.0,
			Category:       CategoryCBC,
			MinValid:       ptr(1),
			MaxValid:       ptr(50),
		},
		{
			Name:        "rbc",
			DisplayName: "Red Blood Cells (RBC)",
			Rules: []Rule{
				// "RBC Count 5.00 million/mm3"
				rule(`rbc\s*count\s*[:\-]?\s*([\d.]+)\s*(million/mm3|x?\s*10\^?12/?L|million/μL|M/μL)?`, 1, 2),
				rule(`(?:red\s*blood\s*cells?|rbc|erythrocytes?)\s*[:\-]?\s*([\d.]+)\s*(million/mm3|x?\s*10\^?12/?L|million/μL|M/μL)?`, 1, 2),
				rule(`\brbc\b[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "x10^12/L",
			NormalRangeMin: 4.2,
			NormalRangeMax: 6.1,
			Category:       CategoryCBC,
			MinValid:       ptr(2),
			MaxValid:       ptr(10),
		},
		{
			Name:        "hemoglobin",
			DisplayName: "Hemoglobin",
			Rules: []Rule{
				// "Hemoglobin 15.00 g/dL" or "Hemoglobin 150 g/L"
				rule(`(?:hemoglobin|haemoglobin|hgb|hb)\s*[:\-]?\s*([\d.]+)\s*(g/dL|g/L|gm/dL|Bl)?`, 1, 2),
				rule(`\b(?:hemoglobin|haemoglobin|hgb)\b[^\d]*([\d.]+)`, 1, 0),
				// Short form "Hb" with boundary
				rule(`\bhb\b[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "g/L",
			NormalRangeMin: 120,
			NormalRangeMax: 180,
			Category:       CategoryCBC,
			Convert:        ConvertHemoglobin,
			MinValid:       ptr(5),
			MaxValid:       ptr(250),
		},
		{
			Name:        "hematocrit",
			DisplayName: "Hematocrit",
			Rules: []Rule{
				// "Packed Cell Volume (PCV) 45.00 %"
				rule(`(?:packed\s*cell\s*volume|pcv|hematocrit|haematocrit|hct)\s*\(?(?:pcv)?\)?\s*[:\-]?\s*([\d.]+)\s*(%|L/L)?`, 1, 2),
				rule(`\b(?:hematocrit|haematocrit|hct|pcv)\b[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "%",
			NormalRangeMin: 37,
			NormalRangeMax: 52,
			Category:       CategoryCBC,
			Convert:        ConvertHematocrit,
			MinValid:       ptr(20),
			MaxValid:       ptr(70),
		},
		{
			Name:        "platelets",
			DisplayName: "Platelets",
			Rules: []Rule{
				// "Platelet Count 151 thou/mm3"
				rule(`platelet\s*count\s*[:\-]?\s*([\d.]+)\s*(thou/mm3|x?\s*10\^?9/?L|thousand/μL|K/μL)?`, 1, 2),
				rule(`(?:platelets?|plt|thrombocytes?)\s*[:\-]?\s*([\d.]+)\s*(thou/mm3|x?\s*10\^?9/?L|thousand/μL|K/μL)?`, 1, 2),
				rule(`\b(?:platelets?|plt)\b[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "x10^9/L",
			NormalRangeMin: 150,
			NormalRangeMax: 400,
			Category:       CategoryCBC,
			MinValid:       ptr(50),
			MaxValid:       ptr(800),
		},

		// Metabolic Panel
		{
			Name:        "glucose",
			DisplayName: "Glucose (Fasting)",
			Rules: []Rule{
				// "Glucose Fasting 80.00 mg/dL"
				rule(`glucose\s*(?:fasting|,?\s*f)?\s*[:\-]?\s*([\d.]+)\s*(mg/dL|mmol/L|g/dL)?`, 1, 2),
				rule(`(?:fasting\s*glucose|fbs|fbg|blood\s*sugar)\s*[:\-]?\s*([\d.]+)\s*(mg/dL|mmol/L)?`, 1, 2),
				rule(`\bglucose\b[^\d]*([\d.]+)`, 1, 0),
				rule(`(?:random|plasma|serum)\s*glucose\s*[:\-]?\s*([\d.]+)`, 1, 0),
			},
			Unit:           "mmol/L",
			NormalRangeMin: 3.9,
			NormalRangeMax: 5.6,
			Category:       CategoryMetabolic,
			Convert:        ConvertGlucose,
			MinValid:       ptr(1),
			MaxValid:       ptr(50),
		},
		{
			Name:        "creatinine",
			DisplayName: "Creatinine",
			Rules: []Rule{
				rule(`creatinine\s*[:\-]?\s*([\d.]+)\s*(mg/dL|μmol/L|umol/L|/dL)?`, 1, 2),
				rule(`\bcreatinine\b[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "μmol/L",
			NormalRangeMin: 44,
			NormalRangeMax: 106,
			Category:       CategoryMetabolic,
			Convert:        ConvertCreatinine,
			MinValid:       ptr(20),
			MaxValid:       ptr(2000),
		},
		{
			Name:        "egfr",
			DisplayName: "eGFR",
			Rules: []Rule{
				// "GFR Estimated 107 mL/min"
				rule(`(?:e?gfr|estimated\s*gfr|gfr\s*estimated|glomerular\s*filtration)\s*[:\-]?\s*([\d.]+)\s*(mL/min(?:/1\.73m²)?)?`, 1, 2),
				rule(`\b(?:egfr|gfr)\b[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "mL/min/1.73m²",
			NormalRangeMin: 60,
			NormalRangeMax: 120,
			Category:       CategoryMetabolic,
			MinValid:       ptr(5),
			MaxValid:       ptr(200),
		},

		// Lipid Panel - more specific phrasings first to avoid false matches
		{
			Name:        "total_cholesterol",
			DisplayName: "Total Cholesterol",
			Rules: []Rule{
				// "Cholesterol, Total 100.00 mg/dL"
				rule(`cholesterol[,\s]+total\s*[:\-]?\s*([\d.]+)\s*(mg/dL|mmol/L)?`, 1, 2),
				rule(`total\s*cholesterol\s*[:\-]?\s*([\d.]+)\s*(mg/dL|mmol/L)?`, 1, 2),
			},
			Unit:           "mmol/L",
			NormalRangeMin: 0,
			NormalRangeMax: 5.2,
			Category:       CategoryLipid,
			Convert:        ConvertTotalCholesterol,
			MinValid:       ptr(1),
			MaxValid:       ptr(15),
		},
		{
			Name:        "ldl",
			DisplayName: "LDL Cholesterol",
			Rules: []Rule{
				// "LDL Cholesterol, Calculated 50 mg/dL"
				rule(`ldl\s*cholesterol[,\s]*(?:calculated|direct)?\s*[:\-]?\s*([\d.]+)\s*(mg/dL|mmol/L)?`, 1, 2),
				rule(`ldl[\s\-]*c(?:holesterol)?\s*[:\-]?\s*([\d.]+)\s*(mg/dL|mmol/L)?`, 1, 2),
			},
			Unit:           "mmol/L",
			NormalRangeMin: 0,
			NormalRangeMax: 3.4,
			Category:       CategoryLipid,
			Convert:        ConvertLDL,
			MinValid:       ptr(0.5),
			MaxValid:       ptr(12),
		},
		{
			Name:        "hdl",
			DisplayName: "HDL Cholesterol",
			Rules: []Rule{
				rule(`hdl\s*cholesterol\s*[:\-]?\s*([\d.]+)\s*(mg/dL|mmol/L)?`, 1, 2),
				rule(`hdl[\s\-]*c(?:holesterol)?\s*[:\-]?\s*([\d.]+)\s*(mg/dL|mmol/L)?`, 1, 2),
			},
			Unit:           "mmol/L",
			NormalRangeMin: 1.0,
			NormalRangeMax: 3.0,
			Category:       CategoryLipid,
			Convert:        ConvertHDL,
			MinValid:       ptr(0.3),
			MaxValid:       ptr(5),
		},
		{
			Name:        "triglycerides",
			DisplayName: "Triglycerides",
			Rules: []Rule{
				rule(`triglycerides?\s*[:\-]?\s*([\d.]+)\s*(mg/dL|mmol/L)?`, 1, 2),
			},
			Unit:           "mmol/L",
			NormalRangeMin: 0,
			NormalRangeMax: 1.7,
			Category:       CategoryLipid,
			Convert:        ConvertTriglycerides,
			MinValid:       ptr(0.2),
			MaxValid:       ptr(15),
		},

		// Thyroid Function
		{
			Name:        "tsh",
			DisplayName: "TSH",
			Rules: []Rule{
				rule(`\btsh\b\s*[:\-]?\s*([\d.]+)\s*(mIU/L|μIU/mL|uIU/mL|piU/mL)?`, 1, 2),
				rule(`thyroid\s*stimulating\s*hormone\s*[:\-]?\s*([\d.]+)`, 1, 0),
				rule(`\btsh\b[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "mIU/L",
			NormalRangeMin: 0.4,
			NormalRangeMax: 4.0,
			Category:       CategoryThyroid,
			MinValid:       ptr(0.01),
			MaxValid:       ptr(100),
		},

		// Liver Function
		{
			Name:        "alt",
			DisplayName: "ALT",
			Rules: []Rule{
				// "ALT (SGPT) 40.0 U/L"
				rule(`alt\s*\(?sgpt\)?\s*[:\-]?\s*([\d.]+)\s*(U/L|IU/L)?`, 1, 2),
				rule(`sgpt\s*\(?alt\)?\s*[:\-]?\s*([\d.]+)\s*(U/L|IU/L)?`, 1, 2),
				rule(`alanine\s*aminotransferase\s*[:\-]?\s*([\d.]+)`, 1, 0),
				// "ALT" is short; require a hard separator before the number
				rule(`\balt\b[^\d\w]+([\d.]+)`, 1, 0),
				rule(`\bsgpt\b[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "U/L",
			NormalRangeMin: 7,
			NormalRangeMax: 56,
			Category:       CategoryLiver,
			MinValid:       ptr(1),
			MaxValid:       ptr(1000),
		},
		{
			Name:        "ast",
			DisplayName: "AST",
			Rules: []Rule{
				// "AST (SGOT) 30.0 U/L"
				rule(`ast\s*\(?sgot\)?\s*[:\-]?\s*([\d.]+)\s*(U/L|IU/L)?`, 1, 2),
				rule(`sgot\s*\(?ast\)?\s*[:\-]?\s*([\d.]+)\s*(U/L|IU/L)?`, 1, 2),
				rule(`aspartate\s*aminotransferase\s*[:\-]?\s*([\d.]+)`, 1, 0),
				rule(`\bast\b[^\d\w]+([\d.]+)`, 1, 0),
				rule(`\bsgot\b[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "U/L",
			NormalRangeMin: 10,
			NormalRangeMax: 40,
			Category:       CategoryLiver,
			MinValid:       ptr(1),
			MaxValid:       ptr(1000),
		},

		// Vitamins
		{
			Name:        "vitamin_d",
			DisplayName: "Vitamin D",
			Rules: []Rule{
				rule(`vitamin\s*d\s*(?:25)?[^\d]*([\d.]+)`, 1, 0),
				rule(`25[\-\s]*(?:oh|hydroxy)[\-\s]*(?:vitamin\s*)?d[^\d]*([\d.]+)`, 1, 0),
				rule(`\b25[\-\s]*oh[\-\s]*d\b[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "nmol/L",
			NormalRangeMin: 50,
			NormalRangeMax: 125,
			Category:       CategoryVitamins,
			Convert:        ConvertVitaminD,
			MinValid:       ptr(10),
			MaxValid:       ptr(400),
		},
		{
			Name:        "vitamin_b12",
			DisplayName: "Vitamin B12",
			Rules: []Rule{
				rule(`vitamin\s*b[\-]?12[^\d]*([\d.]+)`, 1, 0),
				rule(`\bb12\b[^\d]*([\d.]+)`, 1, 0),
				rule(`cobalamin[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "pmol/L",
			NormalRangeMin: 150,
			NormalRangeMax: 600,
			Category:       CategoryVitamins,
			Convert:        ConvertVitaminB12,
			MinValid:       ptr(50),
			MaxValid:       ptr(2000),
		},

		// Minerals
		{
			Name:        "iron",
			DisplayName: "Iron",
			Rules: []Rule{
				rule(`\biron\b[^\d]*([\d.]+)`, 1, 0),
				rule(`serum\s*iron[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "μmol/L",
			NormalRangeMin: 10,
			NormalRangeMax: 30,
			Category:       CategoryMinerals,
			Convert:        ConvertIron,
			MinValid:       ptr(2),
			MaxValid:       ptr(100),
		},
		{
			Name:        "ferritin",
			DisplayName: "Ferritin",
			Rules: []Rule{
				rule(`ferritin[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "μg/L",
			NormalRangeMin: 20,
			NormalRangeMax: 300,
			Category:       CategoryMinerals,
			MinValid:       ptr(5),
			MaxValid:       ptr(2000),
		},

		// Electrolytes
		{
			Name:        "sodium",
			DisplayName: "Sodium",
			Rules: []Rule{
				rule(`\bsodium\b[^\d]*([\d.]+)`, 1, 0),
				rule(`\bna\b[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "mmol/L",
			NormalRangeMin: 136,
			NormalRangeMax: 145,
			Category:       CategoryElectrolytes,
			MinValid:       ptr(100),
			MaxValid:       ptr(180),
		},
		{
			Name:        "potassium",
			DisplayName: "Potassium",
			Rules: []Rule{
				rule(`\bpotassium\b[^\d]*([\d.]+)`, 1, 0),
				rule(`\bk\b[^\d]+([\d.]+)`, 1, 0),
			},
			Unit:           "mmol/L",
			NormalRangeMin: 3.5,
			NormalRangeMax: 5.0,
			Category:       CategoryElectrolytes,
			MinValid:       ptr(2),
			MaxValid:       ptr(8),
		},
		{
			Name:        "calcium",
			DisplayName: "Calcium",
			Rules: []Rule{
				rule(`\bcalcium\b[^\d]*([\d.]+)`, 1, 0),
				rule(`\bca\b[^\d]+([\d.]+)`, 1, 0),
			},
			Unit:           "mmol/L",
			NormalRangeMin: 2.1,
			NormalRangeMax: 2.6,
			Category:       CategoryElectrolytes,
			Convert:        ConvertCalcium,
			MinValid:       ptr(1),
			MaxValid:       ptr(5),
		},

		// Remaining metabolic / liver markers
		{
			Name:        "uric_acid",
			DisplayName: "Uric Acid",
			Rules: []Rule{
				rule(`uric\s*acid[^\d]*([\d.]+)`, 1, 0),
				rule(`\burate\b[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "μmol/L",
			NormalRangeMin: 200,
			NormalRangeMax: 430,
			Category:       CategoryMetabolic,
			Convert:        ConvertUricAcid,
			MinValid:       ptr(100),
			MaxValid:       ptr(1000),
		},
		{
			Name:        "bilirubin",
			DisplayName: "Bilirubin (Total)",
			Rules: []Rule{
				rule(`(?:total\s*)?bilirubin[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "μmol/L",
			NormalRangeMin: 3,
			NormalRangeMax: 21,
			Category:       CategoryLiver,
			Convert:        ConvertBilirubin,
			MinValid:       ptr(1),
			MaxValid:       ptr(500),
		},
		{
			Name:        "albumin",
			DisplayName: "Albumin",
			Rules: []Rule{
				rule(`\balbumin\b[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "g/L",
			NormalRangeMin: 35,
			NormalRangeMax: 50,
			Category:       CategoryLiver,
			Convert:        ConvertAlbumin,
			MinValid:       ptr(10),
			MaxValid:       ptr(70),
		},
		{
			Name:        "hba1c",
			DisplayName: "HbA1c",
			Rules: []Rule{
				rule(`hba1c[^\d]*([\d.]+)`, 1, 0),
				rule(`hemoglobin\s*a1c[^\d]*([\d.]+)`, 1, 0),
				rule(`glycated\s*hemoglobin[^\d]*([\d.]+)`, 1, 0),
				rule(`a1c[^\d]*([\d.]+)`, 1, 0),
			},
			Unit:           "%",
			NormalRangeMin: 4.0,
			NormalRangeMax: 5.6,
			Category:       CategoryMetabolic,
			MinValid:       ptr(3),
			MaxValid:       ptr(20),
		},
	}
}

// CheckCatalog verifies structural invariants: every entry has at
// least one rule with an in-range value group, a coherent normal
// range, and a normal range inside its plausibility bounds.
func CheckCatalog(catalog []Pattern) error {
	for _, p := range catalog {
		if p.Name == "" {
			return fmt.Errorf("catalog entry with empty name (displayName %q)", p.DisplayName)
		}
		// Duplicate names are tolerated: the extraction engine's
		// already-satisfied guard is keyed by name, so a later entry
		// with a reused name simply never fires.
		if len(p.Rules) == 0 {
			return fmt.Errorf("%s: no matching rules", p.Name)
		}
		for i, r := range p.Rules {
			if r.Matcher == nil {
				return fmt.Errorf("%s: rule %d has no matcher", p.Name, i)
			}
			n := r.Matcher.NumSubexp()
			if r.ValueGroup < 1 || r.ValueGroup > n {
				return fmt.Errorf("%s: rule %d value group %d out of range (pattern has %d groups)", p.Name, i, r.ValueGroup, n)
			}
			if r.UnitGroup != 0 && (r.UnitGroup < 1 || r.UnitGroup > n) {
				return fmt.Errorf("%s: rule %d unit group %d out of range", p.Name, i, r.UnitGroup)
			}
		}
		if p.NormalRangeMin >= p.NormalRangeMax {
			return fmt.Errorf("%s: normal range min %v >= max %v", p.Name, p.NormalRangeMin, p.NormalRangeMax)
		}
		// A zero normal-range floor means "no lower limit" (lipid
		// targets), so only a positive floor is held to the bound.
		if p.MinValid != nil && p.NormalRangeMin > 0 && p.NormalRangeMin < *p.MinValid {
			return fmt.Errorf("%s: normal range min %v below valid bound %v", p.Name, p.NormalRangeMin, *p.MinValid)
		}
		if p.MaxValid != nil && p.NormalRangeMax > *p.MaxValid {
			return fmt.Errorf("%s: normal range max %v above valid bound %v", p.Name, p.NormalRangeMax, *p.MaxValid)
		}
	}
	return nil
}
