package game

const (
	FieldWidth  = 800.0
	FieldHeight = 600.0

	PaddleWidth  = 8.0
	PaddleHeight = 42.0
	PaddleSpeed  = 11.0 // pixels per tick

	BallRadius = 5.0

	// Horizontal resting positions of the two paddles.
	Paddle1X = 50.0
	Paddle2X = FieldWidth - 50.0 - PaddleWidth

	BaseSpeed      = 8.0
	SpeedIncrement = 1.5

	// The ball's vertical direction component is clamped to this magnitude
	// after a paddle deflection.
	MaxDeflection = 1.0

	WinScore = 11

	// Ticks the ball stays hidden after a point before respawning at center.
	RespawnTicks = 50

	// Paddles keep this distance from the top and bottom edges. The margin is
	// radius*5 on purpose; changing it changes gameplay feel.
	paddleMargin = BallRadius * 5

	// While respawning the ball is parked here, outside the visible field.
	offstageX = FieldWidth + 10
)

// Speed escalates on the 4th and 12th paddle hit since the last point.
var speedIncreaseHits = [...]int{4, 12}

const (
	ballSpawnX = FieldWidth/2 - BallRadius
	ballSpawnY = FieldHeight/2 - BallRadius

	paddleSpawnY = (FieldHeight - PaddleHeight) / 2
)
