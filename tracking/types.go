package tracking

// NativeFPS is the sample rate of the positional tracking feed. The league
// feed delivers 10 samples per second per entity.
const NativeFPS = 10.0

// BallEntityID marks the ball, which carries no player identifier in the feed.
const BallEntityID = 0

// BallTeam is the sentinel team label on ball rows.
const BallTeam = "football"

// Event markers used to window a pass play from release to its first outcome.
const (
	EventPassForward             = "pass_forward"
	EventPassArrived             = "pass_arrived"
	EventPassOutcomeCaught       = "pass_outcome_caught"
	EventPassOutcomeIncomplete   = "pass_outcome_incomplete"
	EventPassOutcomeInterception = "pass_outcome_interception"
)

// Sample is one positional record for one entity at one native tracking
// frame. FrameID values for one play form an ascending sequence at NativeFPS.
// A Jersey of zero or below means the entity has no jersey number (the ball).
type Sample struct {
	EntityID    int     // BallEntityID for the ball
	FrameID     int     // ordinal at the native tracking rate
	X           float64 // yards along the field, 0-120
	Y           float64 // yards across the field, 0-53.3
	Speed       float64 // yards per second
	Dir         float64 // direction of motion, degrees 0-360
	Orientation float64 // facing, degrees
	Team        string
	Jersey      int
	Event       string  // semantic tag such as "pass_forward", usually empty
}

// IsBall reports whether the sample belongs to the ball.
func (s Sample) IsBall() bool {
	return s.EntityID == BallEntityID
}
