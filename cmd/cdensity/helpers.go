package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/panbanda/cdensity/pkg/analyzer/comments"
	"github.com/panbanda/cdensity/pkg/analyzer/stats"
)

// parseThresholds parses name=value pairs. Names are category names, CDS or
// Com/LoC.
func parseThresholds(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid threshold %q (want name=value)", pair)
		}
		if !isThresholdName(name) {
			return nil, fmt.Errorf("unknown threshold %q", name)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || value < 0 {
			return nil, fmt.Errorf("invalid threshold value %q for %s", raw, name)
		}
		out[name] = value
	}
	return out, nil
}

func isThresholdName(name string) bool {
	if name == stats.MetricCDS || name == stats.MetricComToLoc {
		return true
	}
	_, ok := comments.Lookup(comments.Category(name))
	return ok
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
