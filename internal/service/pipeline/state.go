package pipeline

// State is the motion-episode state.
type State int32

const (
	// Idle means no motion episode is active.
	Idle State = iota
	// MotionActive means motion was seen and the episode is being classified.
	MotionActive
	// Classified means the episode has been handled; further motion frames are ignored.
	Classified
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case MotionActive:
		return "motion_active"
	case Classified:
		return "classified"
	default:
		return "unknown"
	}
}
