package drive

// State is a stage in the session lifecycle.
type State uint8

// Lifecycle stages, in the order a healthy session passes through them.
const (
	Idle State = iota
	PoweredOn
	Standing
	StreamingState
	StreamingCommands
	Activated
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case PoweredOn:
		return "POWERED_ON"
	case Standing:
		return "STANDING"
	case StreamingState:
		return "STREAMING_STATE"
	case StreamingCommands:
		return "STREAMING_COMMANDS"
	case Activated:
		return "ACTIVATED"
	case Stopping:
		return "STOPPING"
	case Stopped:
		return "STOPPED"
	}
	return "UNKNOWN"
}
