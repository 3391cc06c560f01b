package biomarker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Overlay entries let a deployment append lab-specific patterns to the
// built-in catalog without a rebuild. Overlay entries cannot carry
// conversion strategies (those are code), so their values must already
// be canonical or guarded purely by the valid-range bounds.

type overlayRule struct {
	Expr       string `json:"expr"`
	ValueGroup int    `json:"valueGroup"`
	UnitGroup  int    `json:"unitGroup"`
}

type overlayEntry struct {
	Name           string        `json:"name"`
	DisplayName    string        `json:"displayName"`
	Patterns       []overlayRule `json:"patterns"`
	Unit           string        `json:"unit"`
	NormalRangeMin float64       `json:"normalRangeMin"`
	NormalRangeMax float64       `json:"normalRangeMax"`
	Category       string        `json:"category"`
	MinValidValue  *float64      `json:"minValidValue"`
	MaxValidValue  *float64      `json:"maxValidValue"`
}

// buildOverlaySchema returns the JSON-Schema (draft 2020-12 subset)
// the overlay file is validated against before any regex compiles.
func buildOverlaySchema() map[string]any {
	ruleProps := map[string]any{
		"expr":       map[string]any{"type": "string", "minLength": 1},
		"valueGroup": map[string]any{"type": "integer", "minimum": 1},
		"unitGroup":  map[string]any{"type": "integer", "minimum": 0},
	}
	entryProps := map[string]any{
		"name":        map[string]any{"type": "string", "minLength": 1, "pattern": `^[a-z0-9_]+$`},
		"displayName": map[string]any{"type": "string", "minLength": 1},
		"patterns": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           ruleProps,
				"required":             []string{"expr", "valueGroup"},
			},
		},
		"unit":           map[string]any{"type": "string", "minLength": 1},
		"normalRangeMin": map[string]any{"type": "number"},
		"normalRangeMax": map[string]any{"type": "number"},
		"category":       map[string]any{"type": "string", "minLength": 1},
		"minValidValue":  map[string]any{"type": "number"},
		"maxValidValue":  map[string]any{"type": "number"},
	}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties":           entryProps,
			"required":             []string{"name", "displayName", "patterns", "unit", "normalRangeMin", "normalRangeMax", "category"},
		},
	}
}

// validateAgainstSchema validates data against schemaMap.
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("overlay.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("overlay.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal overlay: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("overlay does not match schema: %w", err)
	}
	return nil
}

// ParseOverlay validates and compiles overlay JSON into patterns.
func ParseOverlay(data []byte) ([]Pattern, error) {
	if err := validateAgainstSchema(buildOverlaySchema(), data); err != nil {
		return nil, err
	}
	var entries []overlayEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode overlay: %w", err)
	}

	patterns := make([]Pattern, 0, len(entries))
	for _, e := range entries {
		p := Pattern{
			Name:           e.Name,
			DisplayName:    e.DisplayName,
			Unit:           e.Unit,
			NormalRangeMin: e.NormalRangeMin,
			NormalRangeMax: e.NormalRangeMax,
			Category:       e.Category,
			MinValid:       e.MinValidValue,
			MaxValid:       e.MaxValidValue,
		}
		for _, r := range e.Patterns {
			re, err := regexp.Compile("(?i)" + r.Expr)
			if err != nil {
				return nil, fmt.Errorf("%s: compile %q: %w", e.Name, r.Expr, err)
			}
			p.Rules = append(p.Rules, Rule{Matcher: re, ValueGroup: r.ValueGroup, UnitGroup: r.UnitGroup})
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// LoadCatalog builds the effective catalog: the built-ins plus an
// optional overlay file appended after them. Appending keeps built-in
// priority intact; an overlay entry reusing a built-in name can never
// win because the engine satisfies names in catalog order. The merged
// catalog is re-checked so a bad overlay fails startup, not a request.
func LoadCatalog(overlayPath string) ([]Pattern, error) {
	catalog := DefaultCatalog()
	if overlayPath != "" {
		data, err := os.ReadFile(overlayPath)
		if err != nil {
			return nil, fmt.Errorf("read catalog overlay: %w", err)
		}
		extra, err := ParseOverlay(data)
		if err != nil {
			return nil, err
		}
		catalog = append(catalog, extra...)
	}
	if err := CheckCatalog(catalog); err != nil {
		return nil, fmt.Errorf("catalog invariant: %w", err)
	}
	return catalog, nil
}
