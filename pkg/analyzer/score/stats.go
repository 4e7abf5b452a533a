package score

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summarize describes the spread of per-file scores.
func Summarize(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		std = 0
	}

	return Distribution{
		Files:  len(sorted),
		Mean:   Round2(mean),
		StdDev: Round2(std),
		Min:    sorted[0],
		Median: Round2(stat.Quantile(0.5, stat.Empirical, sorted, nil)),
		P90:    Round2(stat.Quantile(0.9, stat.Empirical, sorted, nil)),
		Max:    sorted[len(sorted)-1],
	}
}
