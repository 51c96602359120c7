package trace

// RunTrace collects acceptance decisions during a run.
type RunTrace struct {
	Swaps     []SwapRecord
	Exchanges []ExchangeRecord
}

// NewRunTrace creates a RunTrace ready for recording.
func NewRunTrace() *RunTrace {
	return &RunTrace{
		Swaps:     make([]SwapRecord, 0),
		Exchanges: make([]ExchangeRecord, 0),
	}
}

// RecordSwap appends an atom-swap decision record.
func (rt *RunTrace) RecordSwap(record SwapRecord) {
	rt.Swaps = append(rt.Swaps, record)
}

// RecordExchange appends a replica-exchange decision record.
func (rt *RunTrace) RecordExchange(record ExchangeRecord) {
	rt.Exchanges = append(rt.Exchanges, record)
}
