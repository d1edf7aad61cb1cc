package extractor

import (
	"regexp"
	"strings"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/structdata"
)

const maxHoursLines = 7

var (
	dayRange = regexp.MustCompile(`(?i)\b(?:mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)(?:day|nesday|sday|urday|s)?\.?(?:\s*(?:-|–|to|through|thru|&|and)\s*(?:mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)(?:day|nesday|sday|urday|s)?\.?)?\b`)
	timeRange = regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*(?:am|pm|a\.m\.|p\.m\.)?\s*(?:-|–|to)\s*\d{1,2}(?::\d{2})?\s*(?:am|pm|a\.m\.|p\.m\.)?`)
	closedDay = regexp.MustCompile(`(?i)\bclosed\b`)
	allDay    = regexp.MustCompile(`(?i)\b(?:open\s+24\s*(?:hours|hrs|/\s*7)|24\s*/\s*7)\b`)
)

// BusinessHours prefers structured opening hours. Only when no structured
// node declares hours does it scan the page text for day and time ranges.
func BusinessHours(doc *domain.ParsedDocument) string {
	if hours := structuredHours(doc.StructuredData); hours != "" {
		return hours
	}
	return textHours(doc.Text)
}

func structuredHours(blocks []domain.StructuredBlock) string {
	var found string
	structdata.Walk(blocks, func(node map[string]any) {
		if found != "" {
			return
		}
		if hours := structdata.Strings(node["openingHours"]); len(hours) > 0 {
			found = strings.Join(hours, "; ")
			return
		}
		if spec, ok := node["openingHoursSpecification"]; ok {
			found = formatSpecification(spec)
		}
	})
	return found
}

func formatSpecification(spec any) string {
	var entries []map[string]any
	switch t := spec.(type) {
	case map[string]any:
		entries = append(entries, t)
	case []any:
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				entries = append(entries, m)
			}
		}
	}

	var parts []string
	for _, e := range entries {
		var days []string
		for _, d := range structdata.Strings(e["dayOfWeek"]) {
			if i := strings.LastIndexAny(d, "/#"); i >= 0 {
				d = d[i+1:]
			}
			days = append(days, d)
		}
		opens, closes := structdata.First(e, "opens"), structdata.First(e, "closes")
		line := strings.Join(days, ", ")
		if opens != "" || closes != "" {
			line = strings.TrimSpace(line + " " + opens + "-" + closes)
		}
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "; ")
}

func textHours(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > 200 {
			continue
		}
		if !dayRange.MatchString(line) {
			continue
		}
		if timeRange.MatchString(line) || closedDay.MatchString(line) {
			lines = append(lines, line)
			if len(lines) == maxHoursLines {
				break
			}
		}
	}
	if len(lines) > 0 {
		return strings.Join(lines, "; ")
	}
	if m := allDay.FindString(text); m != "" {
		return "Open 24 hours"
	}
	return ""
}
