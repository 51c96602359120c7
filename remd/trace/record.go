// Package trace provides acceptance-log recording for run diagnostics.
// This package has no dependencies on remd/ — it stores pure data types.
package trace

// SwapRecord captures a single atom-swap Metropolis decision.
type SwapRecord struct {
	Step        int64
	Rank        int
	SiteI       int
	SiteJ       int
	SpeciesI    string
	SpeciesJ    string
	DeltaEnergy float64
	Probability float64
	Uniform     float64
	Accepted    bool
}

// ExchangeRecord captures a single replica-exchange Metropolis decision
// between the replicas at LowRank and HighRank (adjacent in the ladder).
type ExchangeRecord struct {
	Step        int64
	Round       int
	LowRank     int
	HighRank    int
	DeltaEnergy float64
	Probability float64
	Uniform     float64
	Accepted    bool
}
