package looper

// State identifies one of the possible states runner can be in.
type State int

const (
	// Stopped means that runner can be started.
	Stopped State = iota
	// Running means that dispatch loop is executing at the moment.
	Running
	// Stopping means that stop was requested or the loop has exited and
	// blocks are being released.
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	}
	return "unknown"
}
