package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
)

// ErrSchemaMismatch is returned when a response cannot be read as a BusinessAnalysis.
var ErrSchemaMismatch = errors.New("response does not match business analysis schema")

// DecodeAnalysis reads a model response as a BusinessAnalysis. Syntax slips
// such as code fences or trailing commas are repaired; unknown fields, wrong
// types and missing required fields are rejected.
func DecodeAnalysis(text string) (*domain.BusinessAnalysis, error) {
	raw := jsonObject(text)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrSchemaMismatch)
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: repair: %w", ErrSchemaMismatch, err)
	}

	dec := json.NewDecoder(strings.NewReader(repaired))
	dec.DisallowUnknownFields()

	var analysis domain.BusinessAnalysis
	if err := dec.Decode(&analysis); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", ErrSchemaMismatch)
	}

	analysis.BusinessType = strings.TrimSpace(analysis.BusinessType)
	analysis.TargetAudience = strings.TrimSpace(analysis.TargetAudience)
	analysis.PriceRange = strings.TrimSpace(analysis.PriceRange)
	analysis.BusinessModel = strings.TrimSpace(analysis.BusinessModel)
	analysis.MainOfferings = compact(analysis.MainOfferings)
	analysis.UniqueSellingPoints = compact(analysis.UniqueSellingPoints)

	if analysis.BusinessType == "" {
		return nil, fmt.Errorf("%w: business_type is required", ErrSchemaMismatch)
	}
	if len(analysis.MainOfferings) == 0 {
		return nil, fmt.Errorf("%w: main_offerings is required", ErrSchemaMismatch)
	}
	return &analysis, nil
}

// jsonObject returns the outermost {...} span of text, or "".
func jsonObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(text, '}')
	if end < start {
		return text[start:]
	}
	return text[start : end+1]
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
