package connection

import "fmt"

// Phase discriminates the connection state union.
type Phase uint8

const (
	// PhaseDisconnected indicates no active connection and no retry
	// pending.
	PhaseDisconnected Phase = iota

	// PhaseConnecting indicates a connection attempt is in progress.
	PhaseConnecting

	// PhaseConnected indicates an active connection.
	PhaseConnected

	// PhaseReconnecting indicates a retry is scheduled; Attempt carries
	// the upcoming attempt number.
	PhaseReconnecting

	// PhaseError is terminal: retries are exhausted or the configuration
	// was rejected. Message carries the reason. Only an explicit connect
	// request leaves this phase.
	PhaseError
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "DISCONNECTED"
	case PhaseConnecting:
		return "CONNECTING"
	case PhaseConnected:
		return "CONNECTED"
	case PhaseReconnecting:
		return "RECONNECTING"
	case PhaseError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// State is the single authoritative connection state of a session:
// a tagged union over Phase with Attempt set for PhaseReconnecting and
// Message set for PhaseError.
type State struct {
	Phase   Phase
	Attempt int
	Message string
}

// Disconnected returns the disconnected state.
func Disconnected() State { return State{Phase: PhaseDisconnected} }

// Connecting returns the connecting state.
func Connecting() State { return State{Phase: PhaseConnecting} }

// Connected returns the connected state.
func Connected() State { return State{Phase: PhaseConnected} }

// Reconnecting returns the reconnecting state for an attempt number.
func Reconnecting(attempt int) State {
	return State{Phase: PhaseReconnecting, Attempt: attempt}
}

// Errored returns the terminal error state with a reason.
func Errored(message string) State {
	return State{Phase: PhaseError, Message: message}
}

// IsTerminal reports whether the state requires an explicit connect
// request to leave.
func (s State) IsTerminal() bool { return s.Phase == PhaseError }

// String formats the state for diagnostics.
func (s State) String() string {
	switch s.Phase {
	case PhaseReconnecting:
		return fmt.Sprintf("RECONNECTING(%d)", s.Attempt)
	case PhaseError:
		return fmt.Sprintf("ERROR(%s)", s.Message)
	default:
		return s.Phase.String()
	}
}
