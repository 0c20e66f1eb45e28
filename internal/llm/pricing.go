package llm

import (
	"os"
	"strconv"
	"strings"
)

// modelRate is USD per million tokens, input and output, grounded on the
// original implementation's pricing_for_model table (ai.rs).
type modelRate struct {
	inputPerMtok  float64
	outputPerMtok float64
}

// familyRates maps a family name to its default rate and the
// REMEM_PRICE_<FAMILY>_{INPUT,OUTPUT}_USD env suffix used to override it,
// grounded on pricing_for_model()'s HAIKU/SONNET/OPUS prefix table.
var familyRates = map[string]modelRate{
	"haiku":  {inputPerMtok: 0.80, outputPerMtok: 4.00},
	"sonnet": {inputPerMtok: 3.00, outputPerMtok: 15.00},
	"opus":   {inputPerMtok: 15.00, outputPerMtok: 75.00},
}

const defaultInputPerMtok = 3.00
const defaultOutputPerMtok = 15.00

// rateForModel matches model against the known family substrings (model
// strings embed a family name, e.g. "claude-3-5-haiku-20241022"),
// defaulting to the sonnet rate when the family can't be determined.
// REMEM_PRICE_INPUT_USD / REMEM_PRICE_OUTPUT_USD (USD per million
// tokens) override the table entirely when set; otherwise a matched
// family's own REMEM_PRICE_<FAMILY>_INPUT_USD / _OUTPUT_USD pair
// overrides just that family's rate (pricing_for_model()'s per-family
// override path).
func rateForModel(model string) modelRate {
	if in, out, ok := priceOverrides(""); ok {
		return modelRate{inputPerMtok: in, outputPerMtok: out}
	}

	lower := strings.ToLower(model)
	for family, rate := range familyRates {
		if strings.Contains(lower, family) {
			if in, out, ok := priceOverrides(family); ok {
				return modelRate{inputPerMtok: in, outputPerMtok: out}
			}
			return rate
		}
	}
	return modelRate{inputPerMtok: defaultInputPerMtok, outputPerMtok: defaultOutputPerMtok}
}

// priceOverrides reads REMEM_PRICE_<family>_INPUT_USD/_OUTPUT_USD when
// family is set, or the blanket REMEM_PRICE_INPUT_USD/_OUTPUT_USD pair
// when family is empty.
func priceOverrides(family string) (in, out float64, ok bool) {
	infix := ""
	if family != "" {
		infix = "_" + strings.ToUpper(family)
	}
	inStr := os.Getenv("REMEM_PRICE" + infix + "_INPUT_USD")
	outStr := os.Getenv("REMEM_PRICE" + infix + "_OUTPUT_USD")
	if inStr == "" || outStr == "" {
		return 0, 0, false
	}
	inVal, err1 := strconv.ParseFloat(inStr, 64)
	outVal, err2 := strconv.ParseFloat(outStr, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return inVal, outVal, true
}

// EstimateCostUSD computes the dollar cost of one call (spec.md §3
// "AI-usage event" estimated_cost_usd), grounded on estimate_cost_usd.
func EstimateCostUSD(model string, inputTokens, outputTokens int64) float64 {
	rate := rateForModel(model)
	return float64(inputTokens)/1_000_000*rate.inputPerMtok + float64(outputTokens)/1_000_000*rate.outputPerMtok
}

// EstimateTokens is a cheap fallback token estimator (roughly 4 bytes per
// token for English prose) used when a backend doesn't report usage,
// grounded on the original's estimate_tokens.
func EstimateTokens(text string) int64 {
	return int64(len(text))/4 + 1
}
