package algorithms

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

func TestFormatter(t *testing.T) {
	br := NewFormatter("pt-BR")
	us := NewFormatter("en-US")

	t.Run("currency uses locale separators", func(t *testing.T) {
		assert.Equal(t, "R$ 12.345,57", br.Currency(12345.567))
		assert.Equal(t, "-R$ 12.345,50", br.Currency(-12345.5))
		assert.Equal(t, "$ 12,345.57", us.Currency(12345.567))
	})

	t.Run("compact currency", func(t *testing.T) {
		assert.Equal(t, "R$ 1.2M", br.CompactCurrency(1_234_567))
		assert.Equal(t, "R$ 850.0K", br.CompactCurrency(850_000))
		assert.Equal(t, "R$ 2.5B", br.CompactCurrency(2_500_000_000))
		assert.Equal(t, "-R$ 1.5M", br.CompactCurrency(-1_500_000))
		assert.Equal(t, "R$ 12,50", br.CompactCurrency(12.5))
	})

	t.Run("percent and variation", func(t *testing.T) {
		assert.Equal(t, "12,5%", br.Percent(12.5, 1))

		text, tone := br.Variation(3.25, 1)
		assert.Equal(t, "+3,3%", text)
		assert.Equal(t, "positive", tone)

		text, tone = br.Variation(-4, 1)
		assert.Equal(t, "-4,0%", text)
		assert.Equal(t, "negative", tone)

		text, tone = br.Variation(0.01, 1)
		assert.Equal(t, "0,0%", text)
		assert.Equal(t, "neutral", tone)
	})

	t.Run("unknown locale falls back to pt-BR", func(t *testing.T) {
		assert.Equal(t, LocalePTBR, NewFormatter("fr-FR").locale)
		assert.Equal(t, LocaleENUS, NewFormatter("en_us").locale)
	})
}

func TestFormatMetrics(t *testing.T) {
	lib := NewDefault()
	two := 2

	r := lib.FormatMetrics(analytics.FormatPayload{
		Metrics: []analytics.MetricValue{
			{Name: "noi", Value: 1_234_567, Unit: analytics.UnitCurrency, Compact: true},
			{Name: "occupancy", Value: 97.456, Unit: analytics.UnitPercent, Decimals: &two},
			{Name: "growth", Value: -2.5, Unit: analytics.UnitVariation},
			{Name: "tenants", Value: 15200, Unit: "unknown"},
		},
	})

	assert.Equal(t, LocalePTBR, r.Locale)
	require.Len(t, r.Metrics, 4)
	assert.Equal(t, "R$ 1.2M", r.Metrics[0].Text)
	assert.Equal(t, "97,46%", r.Metrics[1].Text)
	assert.Equal(t, "-2,5%", r.Metrics[2].Text)
	assert.Equal(t, "negative", r.Metrics[2].Tone)
	assert.Equal(t, "15.200", r.Metrics[3].Text)
	assert.Equal(t, analytics.UnitNumber, r.Metrics[3].Unit)
}

func TestFormatMetrics_DecimalsCapped(t *testing.T) {
	lib := NewDefault()
	huge := 5_000_000

	start := time.Now()
	r := lib.FormatMetrics(analytics.FormatPayload{
		Metrics: []analytics.MetricValue{
			{Name: "ratio", Value: 0.5, Unit: analytics.UnitNumber, Decimals: &huge},
			{Name: "growth", Value: 1.25, Unit: analytics.UnitVariation, Decimals: &huge},
		},
	})

	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, r.Metrics, 2)
	for _, m := range r.Metrics {
		_, frac, ok := strings.Cut(m.Text, ",")
		require.True(t, ok, m.Text)
		assert.LessOrEqual(t, len(strings.TrimSuffix(frac, "%")), lib.Params().MaxPrecision)
	}
}
