package trace

import "gonum.org/v1/gonum/stat"

// Summary aggregates statistics from a RunTrace.
type Summary struct {
	SwapAttempts         int
	SwapAccepts          int
	SwapAcceptanceRate   float64
	MeanSwapProbability  float64
	ExchangeAttempts     int
	ExchangeAccepts      int
	ExchangeRate         float64
	PerPairExchangeRate  map[[2]int]float64
	PerPairExchangeCount map[[2]int]int
}

// Summarize computes aggregate acceptance statistics from a RunTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(rt *RunTrace) *Summary {
	summary := &Summary{
		PerPairExchangeRate:  make(map[[2]int]float64),
		PerPairExchangeCount: make(map[[2]int]int),
	}
	if rt == nil {
		return summary
	}

	summary.SwapAttempts = len(rt.Swaps)
	if len(rt.Swaps) > 0 {
		probs := make([]float64, 0, len(rt.Swaps))
		for _, s := range rt.Swaps {
			if s.Accepted {
				summary.SwapAccepts++
			}
			probs = append(probs, s.Probability)
		}
		summary.SwapAcceptanceRate = float64(summary.SwapAccepts) / float64(summary.SwapAttempts)
		summary.MeanSwapProbability = stat.Mean(probs, nil)
	}

	summary.ExchangeAttempts = len(rt.Exchanges)
	if len(rt.Exchanges) > 0 {
		accepts := make(map[[2]int]int)
		for _, e := range rt.Exchanges {
			pair := [2]int{e.LowRank, e.HighRank}
			summary.PerPairExchangeCount[pair]++
			if e.Accepted {
				summary.ExchangeAccepts++
				accepts[pair]++
			}
		}
		summary.ExchangeRate = float64(summary.ExchangeAccepts) / float64(summary.ExchangeAttempts)
		for pair, n := range summary.PerPairExchangeCount {
			summary.PerPairExchangeRate[pair] = float64(accepts[pair]) / float64(n)
		}
	}

	return summary
}
