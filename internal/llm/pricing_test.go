package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCostUSD_KnownFamilies(t *testing.T) {
	haiku := EstimateCostUSD("claude-3-5-haiku-20241022", 1_000_000, 1_000_000)
	sonnet := EstimateCostUSD("claude-sonnet-4-20250514", 1_000_000, 1_000_000)
	assert.Less(t, haiku, sonnet)
}

func TestEstimateCostUSD_EnvOverride(t *testing.T) {
	t.Setenv("REMEM_PRICE_INPUT_USD", "1")
	t.Setenv("REMEM_PRICE_OUTPUT_USD", "2")

	cost := EstimateCostUSD("claude-opus-4-20250514", 1_000_000, 1_000_000)
	assert.InDelta(t, 3.0, cost, 0.0001)
}

func TestEstimateCostUSD_PerFamilyEnvOverride(t *testing.T) {
	t.Setenv("REMEM_PRICE_HAIKU_INPUT_USD", "5")
	t.Setenv("REMEM_PRICE_HAIKU_OUTPUT_USD", "6")

	haiku := EstimateCostUSD("claude-3-5-haiku-20241022", 1_000_000, 1_000_000)
	assert.InDelta(t, 11.0, haiku, 0.0001)

	sonnet := EstimateCostUSD("claude-sonnet-4-20250514", 1_000_000, 1_000_000)
	assert.InDelta(t, 18.0, sonnet, 0.0001)
}

func TestEstimateTokens_NonZeroForNonEmpty(t *testing.T) {
	assert.Greater(t, EstimateTokens("hello world"), int64(0))
	assert.Equal(t, int64(1), EstimateTokens(""))
}
