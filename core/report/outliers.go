package report

import "math"

// Observation is one (entity, value) pair of a time series; outlier flags
// are entity-level, computed over the full series.
type Observation struct {
	Entity string
	Value  float64
}

// LinearOutliers flags entities whose best (maximum) value across the
// series falls below mean - 2*stddev of all entity maxima. Suited to
// roughly symmetric metrics such as grades.
func LinearOutliers(obs []Observation) map[string]bool {
	maxima := make(map[string]float64)
	for _, o := range obs {
		if cur, ok := maxima[o.Entity]; !ok || o.Value > cur {
			maxima[o.Entity] = o.Value
		}
	}

	flags := make(map[string]bool, len(maxima))
	vals := make([]float64, 0, len(maxima))
	for _, v := range maxima {
		vals = append(vals, v)
	}
	mean, std := meanStd(vals)
	threshold := mean - 2*std
	for entity, max := range maxima {
		flags[entity] = len(vals) > 1 && max < threshold
	}
	return flags
}

// LogNormalOutliers flags entities with any observation below
// expm1(mean(log1p(values)) - std(log1p(values))), computed over all
// observations. Suited to positively-skewed metrics such as activity
// durations.
func LogNormalOutliers(obs []Observation) map[string]bool {
	logs := make([]float64, 0, len(obs))
	for _, o := range obs {
		logs = append(logs, math.Log1p(o.Value))
	}
	mean, std := meanStd(logs)
	threshold := math.Expm1(mean - std)

	flags := make(map[string]bool)
	for _, o := range obs {
		if _, ok := flags[o.Entity]; !ok {
			flags[o.Entity] = false
		}
		if len(logs) > 1 && o.Value < threshold {
			flags[o.Entity] = true
		}
	}
	return flags
}

// meanStd returns the mean and sample standard deviation (n-1).
func meanStd(vals []float64) (mean, std float64) {
	n := float64(len(vals))
	if n == 0 {
		return 0, 0
	}
	for _, v := range vals {
		mean += v
	}
	mean /= n
	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / (n - 1))
}
