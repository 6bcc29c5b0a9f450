package algorithms

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// stdDev is the population standard deviation
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	acc := 0.0
	for _, v := range values {
		d := v - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(values)))
}

// coefficientOfVariation returns stddev/|mean| as a percentage
func coefficientOfVariation(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return 0
	}
	return stdDev(values) / math.Abs(m) * 100
}

func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

// percentileIndex returns floor(n*p) clamped to [0, n-1]
func percentileIndex(n int, p float64) int {
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(float64(n) * p))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// percentile reads the p-quantile of an ascending sorted slice
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[percentileIndex(len(sorted), p)]
}

// ratio returns num/den*100, 0 when den is 0
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den * 100
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// herfindahl computes sum of squared shares x 10000 over positive totals
func herfindahl(totals map[string]float64) float64 {
	grand := 0.0
	for _, v := range totals {
		if v > 0 {
			grand += v
		}
	}
	if grand == 0 {
		return 0
	}
	hhi := 0.0
	for _, v := range totals {
		if v <= 0 {
			continue
		}
		share := v / grand
		hhi += share * share
	}
	return hhi * 10000
}

// numeric coerces a loosely typed record value into a float
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	case fmt.Stringer:
		return numeric(n.String())
	default:
		return 0, false
	}
}

// label renders a record value as a group key. Missing values become "N/A".
func label(v any) string {
	switch s := v.(type) {
	case nil:
		return "N/A"
	case string:
		if strings.TrimSpace(s) == "" {
			return "N/A"
		}
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

// sortedKeys returns map keys in ascending order
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// periodKey normalizes a period label. Empty periods are grouped under "N/A".
func periodKey(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "N/A"
	}
	return p
}
