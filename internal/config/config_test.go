package config

import (
	"market_quoter/pkg/errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
app:
  mode: paper
  log_level: INFO
timing:
  leg_submit_gap_ms: 500
instruments:
  - symbol: AAAUSD
    margin: 0.002
    max_position: 10
    base_price: 200
  - symbol: BBBUSD
    margin: 0.005
    max_position: 5
    quoting_interval_seconds: 15
    take_profit_interval_seconds: 5
    price_policy: weighted
    order_type: IOC
    base_price: 150
`

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	first := cfg.Instruments[0]
	assert.Equal(t, 30, first.QuotingIntervalSeconds)
	assert.Equal(t, 10, first.TakeProfitIntervalSeconds)
	assert.Equal(t, "mid", first.PricePolicy)
	assert.Equal(t, "DAY", first.OrderType)

	assert.Equal(t, 20, cfg.Timing.NoPriceBackoffSeconds)
	assert.Equal(t, 500, cfg.Timing.LegSubmitGapMillis)
	assert.Equal(t, 9090, cfg.Telemetry.MetricsPort)
}

func TestLoadConfigKeepsExplicitValues(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	second := cfg.Instruments[1]
	assert.Equal(t, 15, second.QuotingIntervalSeconds)
	assert.Equal(t, 5, second.TakeProfitIntervalSeconds)
	assert.Equal(t, "weighted", second.PricePolicy)
	assert.Equal(t, "IOC", second.OrderType)
}

func TestLoadConfigExpandsEnvVars(t *testing.T) {
	t.Setenv("QUOTER_FEED_URL", "ws://feed.example.com/stream")
	yaml := `
app:
  mode: feed
feed:
  url: ${QUOTER_FEED_URL}
instruments:
  - symbol: AAAUSD
    margin: 0.002
    max_position: 10
`
	cfg, err := LoadConfig(writeConfig(t, yaml))
	require.NoError(t, err)
	assert.Equal(t, "ws://feed.example.com/stream", cfg.Feed.URL)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{
			name: "negative margin",
			yaml: `
instruments:
  - symbol: AAAUSD
    margin: -0.002
    max_position: 10
    base_price: 200
`,
		},
		{
			name: "zero max position",
			yaml: `
instruments:
  - symbol: AAAUSD
    margin: 0.002
    max_position: 0
    base_price: 200
`,
		},
		{
			name: "unknown price policy",
			yaml: `
instruments:
  - symbol: AAAUSD
    margin: 0.002
    max_position: 10
    price_policy: vwap
    base_price: 200
`,
		},
		{
			name: "unknown order type",
			yaml: `
instruments:
  - symbol: AAAUSD
    margin: 0.002
    max_position: 10
    order_type: GTC
    base_price: 200
`,
		},
		{
			name: "duplicate symbol",
			yaml: `
instruments:
  - symbol: AAAUSD
    margin: 0.002
    max_position: 10
    base_price: 200
  - symbol: AAAUSD
    margin: 0.002
    max_position: 10
    base_price: 200
`,
		},
		{
			name: "feed mode without url",
			yaml: `
app:
  mode: feed
instruments:
  - symbol: AAAUSD
    margin: 0.002
    max_position: 10
`,
		},
		{
			name: "paper mode without base price",
			yaml: `
instruments:
  - symbol: AAAUSD
    margin: 0.002
    max_position: 10
`,
		},
		{
			name: "no instruments",
			yaml: `
app:
  mode: paper
`,
		},
		{
			name: "bad mode",
			yaml: `
app:
  mode: live
instruments:
  - symbol: AAAUSD
    margin: 0.002
    max_position: 10
    base_price: 200
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrInvalidConfig, "I/O failures are not validation failures")
}

func TestEngineConfigs(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	engines := cfg.EngineConfigs()
	require.Len(t, engines, 2)

	first := engines[0]
	assert.Equal(t, "AAAUSD", first.Symbol)
	assert.True(t, first.Margin.Equal(decimal.NewFromFloat(0.002)), "margin = %s", first.Margin)
	assert.Equal(t, int64(10), first.MaxPosition)
	assert.Equal(t, 30*time.Second, first.QuotingInterval)
	assert.Equal(t, 10*time.Second, first.TakeProfitInterval)
	assert.Equal(t, 20*time.Second, first.NoPriceBackoff)
	assert.Equal(t, 500*time.Millisecond, first.LegSubmitGap)
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}
