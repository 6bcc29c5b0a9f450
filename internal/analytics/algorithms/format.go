package algorithms

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

const (
	LocalePTBR = "pt-BR"
	LocaleENUS = "en-US"
)

type localeFormat struct {
	tag            language.Tag
	currencySymbol string
}

var locales = map[string]localeFormat{
	LocalePTBR: {tag: language.BrazilianPortuguese, currencySymbol: "R$"},
	LocaleENUS: {tag: language.AmericanEnglish, currencySymbol: "$"},
}

// FormatMetrics renders metrics for display in pt-BR (default) or en-US
func (l *Library) FormatMetrics(p analytics.FormatPayload) analytics.FormatResult {
	f := NewFormatter(p.Locale)
	f.maxDecimals = l.params.MaxPrecision
	result := analytics.FormatResult{
		Locale:  f.locale,
		Metrics: make([]analytics.FormattedMetric, 0, len(p.Metrics)),
	}
	for _, m := range p.Metrics {
		result.Metrics = append(result.Metrics, f.Format(m))
	}
	return result
}

// Formatter renders numbers with the grouping and decimal separators of a locale
type Formatter struct {
	locale      string
	format      localeFormat
	printer     *message.Printer
	maxDecimals int
}

// NewFormatter returns a Formatter for locale. Unknown locales fall back to pt-BR.
func NewFormatter(locale string) *Formatter {
	key := LocalePTBR
	for k := range locales {
		if strings.EqualFold(k, locale) || strings.EqualFold(strings.ReplaceAll(k, "-", "_"), locale) {
			key = k
		}
	}
	lf := locales[key]
	return &Formatter{
		locale:      key,
		format:      lf,
		printer:     message.NewPrinter(lf.tag),
		maxDecimals: DefaultParams().MaxPrecision,
	}
}

// Format renders a single metric
func (f *Formatter) Format(m analytics.MetricValue) analytics.FormattedMetric {
	out := analytics.FormattedMetric{Name: m.Name, Value: m.Value, Unit: m.Unit}
	switch m.Unit {
	case analytics.UnitCurrency:
		if m.Compact {
			out.Text = f.CompactCurrency(m.Value)
		} else {
			out.Text = f.Currency(m.Value)
		}
	case analytics.UnitPercent:
		out.Text = f.Percent(m.Value, decimalsOr(m.Decimals, 1))
	case analytics.UnitVariation:
		out.Text, out.Tone = f.Variation(m.Value, decimalsOr(m.Decimals, 1))
	default:
		out.Unit = analytics.UnitNumber
		out.Text = f.Number(m.Value, decimalsOr(m.Decimals, 0))
	}
	return out
}

func decimalsOr(d *int, fallback int) int {
	if d == nil || *d < 0 {
		return fallback
	}
	return *d
}

// clamp bounds decimals to [0, maxDecimals]
func (f *Formatter) clamp(decimals int) int {
	return max(0, min(decimals, f.maxDecimals))
}

// Number formats v with locale grouping and a fixed number of decimals
func (f *Formatter) Number(v float64, decimals int) string {
	decimals = f.clamp(decimals)
	v = finite(roundTo(v, decimals))
	return f.printer.Sprint(number.Decimal(v, number.Scale(decimals)))
}

// Currency formats v as "R$ 1.234,56". Negative values carry a leading minus.
func (f *Formatter) Currency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
	}
	return sign + f.format.currencySymbol + " " + f.Number(math.Abs(v), 2)
}

// CompactCurrency formats v as "R$ 1.2M", "R$ 850.0K" or "R$ 12,50" below a thousand
func (f *Formatter) CompactCurrency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
	}
	abs := math.Abs(v)
	var body string
	switch {
	case abs >= 1e9:
		body = fmt.Sprintf("%.1fB", abs/1e9)
	case abs >= 1e6:
		body = fmt.Sprintf("%.1fM", abs/1e6)
	case abs >= 1e3:
		body = fmt.Sprintf("%.1fK", abs/1e3)
	default:
		body = f.Number(abs, 2)
	}
	return sign + f.format.currencySymbol + " " + body
}

// Percent formats a 0-100 percentage as "12,5%"
func (f *Formatter) Percent(v float64, decimals int) string {
	return f.Number(v, decimals) + "%"
}

// Variation formats a signed percentage and classifies its tone
func (f *Formatter) Variation(v float64, decimals int) (string, string) {
	decimals = f.clamp(decimals)
	rounded := roundTo(v, decimals)
	switch {
	case rounded > 0:
		return "+" + f.Percent(rounded, decimals), "positive"
	case rounded < 0:
		return f.Percent(rounded, decimals), "negative"
	default:
		return f.Percent(0, decimals), "neutral"
	}
}
