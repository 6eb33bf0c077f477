package migration

// State is the orchestrator's position in a run.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateClearing   State = "clearing"
	StateReading    State = "reading"
	StateMapping    State = "mapping"
	StateWriting    State = "writing"
	StateVerifying  State = "verifying"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
