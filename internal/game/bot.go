package game

import "math"

const (
	botInertiaBase    = 0.1
	botInertiaPerGoal = 0.02
	botInertiaMin     = 0.03
	botInertiaMax     = 0.2

	// Reaction factor used until the ball first approaches the bot's paddle,
	// so the bot does not whiff the opening serve.
	botOpeningInertia = 0.12

	// Horizontal distance from the bot paddle at which the opening phase ends.
	botProximity = 50.0
)

// StepBot moves the training opponent's paddle for one tick. It consumes only
// simulation state: the ball position, the score differential, and its own
// smoothed speed. The smoothing factor widens as the human's lead grows, so
// the bot reacts faster when it is losing.
func StepBot(s *State) {
	lead := s.Score.Player1 - s.Score.Player2
	inertia := botInertiaBase + float64(lead)*botInertiaPerGoal
	inertia = math.Min(math.Max(inertia, botInertiaMin), botInertiaMax)

	if !s.FirstCollision {
		inertia = botOpeningInertia
		if s.Ball.X > s.Player2.X-botProximity {
			s.FirstCollision = true
		}
	}

	diff := s.Ball.Y - (s.Player2.Y + s.Player2.Height/2)
	deadZone := s.Player2.Height / 4
	smoothed := smoothApproach(diff, deadZone)

	s.TargetSpeed = sign(smoothed) * PaddleSpeed
	s.CurrentSpeed = (1-inertia)*s.CurrentSpeed + inertia*s.TargetSpeed
	s.Player2.Y += s.CurrentSpeed

	if s.Player2.Y < 0 {
		s.Player2.Y = 0
	} else if s.Player2.Y > FieldHeight-s.Player2.Height {
		s.Player2.Y = FieldHeight - s.Player2.Height
	}
}

// smoothApproach maps the distance to the target into [-1, 1] with a dead
// zone around zero, so the paddle eases in instead of oscillating.
func smoothApproach(diff, deadZone float64) float64 {
	if math.Abs(diff) <= deadZone {
		return 0
	}
	maxDiff := math.Max(FieldHeight/2, deadZone)
	if diff > deadZone {
		return (diff - deadZone) / (maxDiff - deadZone)
	}
	return (diff + deadZone) / (maxDiff - deadZone)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
