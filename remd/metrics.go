// Tracks run-wide acceptance counters for final reporting.

package remd

import "fmt"

// Metrics aggregates acceptance statistics over a run, per replica for
// swaps and per low-rank for adjacent exchanges.
type Metrics struct {
	SwapAttempts     int
	SwapAccepts      int
	ExchangeAttempts int
	ExchangeAccepts  int

	SwapAttemptsByRank []int
	SwapAcceptsByRank  []int
	ExchangeByLowRank  []int
	AcceptedByLowRank  []int
}

// NewMetrics creates counters for the given replica count.
func NewMetrics(replicas int) *Metrics {
	return &Metrics{
		SwapAttemptsByRank: make([]int, replicas),
		SwapAcceptsByRank:  make([]int, replicas),
		ExchangeByLowRank:  make([]int, replicas),
		AcceptedByLowRank:  make([]int, replicas),
	}
}

// CountSwap records one atom-swap attempt for a replica.
func (m *Metrics) CountSwap(rank int, accepted bool) {
	m.SwapAttempts++
	m.SwapAttemptsByRank[rank]++
	if accepted {
		m.SwapAccepts++
		m.SwapAcceptsByRank[rank]++
	}
}

// CountExchange records one exchange attempt keyed by the pair's lower rank.
func (m *Metrics) CountExchange(lowRank int, accepted bool) {
	m.ExchangeAttempts++
	m.ExchangeByLowRank[lowRank]++
	if accepted {
		m.ExchangeAccepts++
		m.AcceptedByLowRank[lowRank]++
	}
}

// Print displays aggregated acceptance statistics at the end of a run.
func (m *Metrics) Print() {
	fmt.Println("=== Acceptance Metrics ===")
	fmt.Printf("Swap Attempts        : %d\n", m.SwapAttempts)
	if m.SwapAttempts > 0 {
		fmt.Printf("Swap Acceptance      : %.2f%%\n", 100*float64(m.SwapAccepts)/float64(m.SwapAttempts))
	}
	fmt.Printf("Exchange Attempts    : %d\n", m.ExchangeAttempts)
	if m.ExchangeAttempts > 0 {
		fmt.Printf("Exchange Acceptance  : %.2f%%\n", 100*float64(m.ExchangeAccepts)/float64(m.ExchangeAttempts))
	}
	for low := 0; low+1 < len(m.ExchangeByLowRank); low++ {
		if m.ExchangeByLowRank[low] == 0 {
			continue
		}
		rate := 100 * float64(m.AcceptedByLowRank[low]) / float64(m.ExchangeByLowRank[low])
		fmt.Printf("  pair (%d, %d)         : %.2f%% of %d\n", low, low+1, rate, m.ExchangeByLowRank[low])
	}
}
