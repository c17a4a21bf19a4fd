package farmer

// State is the step of the farming loop an account is in
type State int

const (
	StateCheckingSession State = iota
	StateRefreshing
	StateFetchingStatus
	StateClaiming
	StateStarting
	StateRotating
	StateWaiting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCheckingSession:
		return "checking_session"
	case StateRefreshing:
		return "refreshing"
	case StateFetchingStatus:
		return "fetching_status"
	case StateClaiming:
		return "claiming"
	case StateStarting:
		return "starting"
	case StateRotating:
		return "rotating"
	case StateWaiting:
		return "waiting"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
