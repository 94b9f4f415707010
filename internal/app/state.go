package app

// State is a lifecycle stage of the tracking session. Transitions only move
// forward; the only recovery from a failed startup is a new session.
type State int

const (
	// StateNotStarted is the initial state before Start is called.
	StateNotStarted State = iota
	// StateRequestingCamera means the camera is being opened.
	StateRequestingCamera
	// StateCameraAcquired means frames can be read.
	StateCameraAcquired
	// StateModelLoading means the avatar model is being fetched.
	StateModelLoading
	// StateReady means the frame loop is running.
	StateReady
)

// String returns the user-facing status text for the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateRequestingCamera:
		return "requesting camera"
	case StateCameraAcquired:
		return "camera acquired"
	case StateModelLoading:
		return "loading avatar"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// setState advances the session state. Backward transitions are ignored.
func (a *App) setState(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s > a.state {
		a.state = s
		a.status = s.String()
	}
}

// State returns the current lifecycle state.
func (a *App) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Status returns the current human-readable status line. After a startup
// failure it holds the classified error message instead of the state text.
func (a *App) Status() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

func (a *App) setFailure(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = StatusMessage(err)
}
