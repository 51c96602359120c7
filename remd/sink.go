package remd

// Frame is one replica's state at a barrier, emitted to trajectory and
// visualization sinks.
type Frame struct {
	Step        int64        `json:"step"`
	Rank        int          `json:"rank"`
	Temperature float64      `json:"temperature"`
	Energy      float64      `json:"energy"`
	Species     []string     `json:"species"`
	Positions   [][3]float64 `json:"positions"`
}

// FrameSink consumes frames for side effects only; the scheduler never
// reads anything back. Implementations decide their own durability and
// delivery guarantees (the websocket broadcaster drops frames under
// backpressure, the trajectory writer does not).
type FrameSink interface {
	WriteFrame(frame Frame) error
}

// snapshotFrame captures a replica into a Frame, copying slices so sinks
// can hold frames past the next mutation.
func snapshotFrame(step int64, r *Replica) Frame {
	species := make([]string, len(r.Config.Species))
	copy(species, r.Config.Species)
	positions := make([][3]float64, len(r.Config.Positions))
	copy(positions, r.Config.Positions)
	return Frame{
		Step:        step,
		Rank:        r.Rank,
		Temperature: r.Temperature,
		Energy:      r.Energy,
		Species:     species,
		Positions:   positions,
	}
}
