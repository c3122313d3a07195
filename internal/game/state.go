package game

// Mode distinguishes a two-human match from a solo session against the bot.
type Mode string

const (
	ModeVersus   Mode = "multiplayer"
	ModeTraining Mode = "training"
)

// Paddle is one side's paddle. Collision is a per-tick flag consumed by the
// client for impact effects; it never influences the simulation itself.
type Paddle struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Collision bool    `json:"collision"`
}

// Ball carries only what clients render. Direction and speed live in Internal.
type Ball struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Score is monotonically non-decreasing within a match and capped at WinScore.
type Score struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// State is the full broadcastable snapshot of one room's simulation. It is a
// plain value: copying it yields an independent snapshot.
type State struct {
	Player1 Paddle `json:"player1"`
	Player2 Paddle `json:"player2"`
	Ball    Ball   `json:"ball"`
	Score   Score  `json:"score"`

	// Start is the countdown display: "VS" before the countdown, then
	// "3".."0". Play begins when it reaches "0".
	Start string `json:"start"`
	Mode  Mode   `json:"mode"`

	// Bot smoothing state, kept in the snapshot so the controller stays a
	// pure function of it.
	CurrentSpeed   float64 `json:"currentSpeed"`
	TargetSpeed    float64 `json:"targetSpeed"`
	FirstCollision bool    `json:"firstCollision"`

	WallCollision bool `json:"wallCollision"`
}

// Internal is the part of the simulation never sent to clients: the ball's
// direction vector, scalar speed, the hit counter that drives speed-ups, and
// the respawn countdown (-1 when the ball is live).
type Internal struct {
	DirX        float64
	DirY        float64
	Speed       float64
	HitCount    int
	WaitRespawn int
}

// Keys is the verbatim directional key state for one player, reapplied every
// tick until changed.
type Keys struct {
	Up   bool
	Down bool
}

// Inputs is both sides' key state for one tick. The second player's keys are
// ignored in training mode.
type Inputs struct {
	Player1 Keys
	Player2 Keys
}

// Outcome reports what a single tick did.
type Outcome struct {
	// Respawning means the ball was hidden this tick and physics was skipped.
	Respawning bool
	// Scored means a point was awarded this tick.
	Scored bool
	// Finished means a side reached the win score; the state is terminal.
	Finished bool
}

// NewState returns the initial snapshot for a fresh match.
func NewState(mode Mode) State {
	return State{
		Player1: Paddle{X: Paddle1X, Y: paddleSpawnY, Width: PaddleWidth, Height: PaddleHeight},
		Player2: Paddle{X: Paddle2X, Y: paddleSpawnY, Width: PaddleWidth, Height: PaddleHeight},
		Ball:    Ball{X: ballSpawnX, Y: ballSpawnY, Radius: BallRadius},
		Start:   "VS",
		Mode:    mode,
	}
}

// NewInternal returns the hidden simulation state for a fresh match. The
// initial direction is deliberately steeper than the deflection clamp; it is
// normalized the first time a point is scored.
func NewInternal() Internal {
	return Internal{DirX: 1, DirY: 1.5, Speed: BaseSpeed, WaitRespawn: -1}
}
