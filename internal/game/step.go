package game

import "math"

// Step advances the simulation by one tick. It is pure with respect to I/O:
// it mutates only the state and internal values it is handed, so it can be
// driven by a ticker in production and by a plain loop in tests.
//
// Tick order: clear per-tick flags, apply paddle movement, advance a pending
// respawn (skipping physics), resolve wall then paddle collisions, escalate
// speed on hit thresholds, integrate the ball, and finally check the win
// score.
func Step(s *State, st *Internal, in Inputs) Outcome {
	s.Player1.Collision = false
	s.Player2.Collision = false
	s.WallCollision = false

	MovePaddles(s, in)

	if st.WaitRespawn >= 0 {
		st.WaitRespawn++
		s.Ball.X = offstageX
		if st.WaitRespawn == RespawnTicks {
			st.WaitRespawn = -1
			s.Ball.X = ballSpawnX
		}
		return Outcome{Respawning: true}
	}

	if s.Ball.Y < s.Ball.Radius || s.Ball.Y > FieldHeight-s.Ball.Radius {
		st.DirY *= -1
		s.WallCollision = true
	}

	collidePaddle1(s, st)
	collidePaddle2(s, st)

	if hitSpeedThreshold(st.HitCount) && (s.Player1.Collision || s.Player2.Collision) {
		st.Speed += SpeedIncrement
	}

	scored := advanceBall(s, st)

	out := Outcome{Scored: scored}
	if s.Score.Player1 >= WinScore || s.Score.Player2 >= WinScore {
		clampScore(&s.Score)
		out.Finished = true
	}
	return out
}

// MovePaddles applies one tick of paddle movement from the current key state,
// or from the bot controller for the second side in training mode, then
// clamps both paddles to the playfield.
func MovePaddles(s *State, in Inputs) {
	if in.Player1.Up {
		s.Player1.Y -= PaddleSpeed
	}
	if in.Player1.Down {
		s.Player1.Y += PaddleSpeed
	}

	if s.Mode == ModeTraining {
		StepBot(s)
	} else {
		if in.Player2.Up {
			s.Player2.Y -= PaddleSpeed
		}
		if in.Player2.Down {
			s.Player2.Y += PaddleSpeed
		}
	}

	clampPaddle(&s.Player1)
	clampPaddle(&s.Player2)
}

func clampPaddle(p *Paddle) {
	if max := FieldHeight - p.Height - paddleMargin; p.Y > max {
		p.Y = max
	}
	if p.Y < paddleMargin {
		p.Y = paddleMargin
	}
}

// The ball collides as an axis-aligned square of side 2*radius. A paddle is
// only tested while the ball travels toward it, which prevents a second
// bounce while the ball overlaps the paddle on the way out.
func collidePaddle1(s *State, st *Internal) {
	if st.DirX >= 0 {
		return
	}
	ballLeft := s.Ball.X - s.Ball.Radius
	ballRight := s.Ball.X + s.Ball.Radius
	ballTop := s.Ball.Y - s.Ball.Radius
	ballBottom := s.Ball.Y + s.Ball.Radius

	p := &s.Player1
	if ballLeft <= p.X+p.Width && ballRight > p.X && ballBottom > p.Y && ballTop < p.Y+p.Height {
		st.DirX *= -1
		deflect(s.Ball.Y, p, st)
		// Flush against the paddle face so the ball cannot stick inside it.
		s.Ball.X = p.X + p.Width + s.Ball.Radius
		p.Collision = true
		st.HitCount++
	}
}

func collidePaddle2(s *State, st *Internal) {
	if st.DirX <= 0 {
		return
	}
	ballLeft := s.Ball.X - s.Ball.Radius
	ballRight := s.Ball.X + s.Ball.Radius
	ballTop := s.Ball.Y - s.Ball.Radius
	ballBottom := s.Ball.Y + s.Ball.Radius

	p := &s.Player2
	if ballRight >= p.X && ballLeft < p.X+p.Width && ballBottom > p.Y && ballTop < p.Y+p.Height {
		st.DirX *= -1
		deflect(s.Ball.Y, p, st)
		s.Ball.X = p.X - s.Ball.Radius
		p.Collision = true
		st.HitCount++
	}
}

// deflect recomputes the vertical direction from how far off paddle-center
// the ball struck: edge hits leave steeper than center hits.
func deflect(ballY float64, p *Paddle, st *Internal) {
	deltaY := ballY - (p.Y + p.Height/2)
	st.DirY = deltaY / (p.Height / 2)
	if st.DirY > MaxDeflection {
		st.DirY = MaxDeflection
	}
	if st.DirY < -MaxDeflection {
		st.DirY = -MaxDeflection
	}
}

func hitSpeedThreshold(hits int) bool {
	for _, n := range speedIncreaseHits {
		if hits == n {
			return true
		}
	}
	return false
}

// advanceBall integrates the ball along its direction at the current speed,
// unless it already left the horizontal bounds, in which case the point is
// awarded and the respawn countdown starts.
func advanceBall(s *State, st *Internal) bool {
	if s.Ball.X < 0 || s.Ball.X > FieldWidth {
		score(s, st)
		return true
	}
	angle := math.Atan2(st.DirY, st.DirX)
	s.Ball.X += math.Cos(angle) * st.Speed
	s.Ball.Y += math.Sin(angle) * st.Speed
	return false
}

func score(s *State, st *Internal) {
	if s.Ball.X < 0 {
		s.Score.Player2++
	} else {
		s.Score.Player1++
	}
	// Renormalize the direction vector while keeping its angle, and reset
	// speed and the hit counter to their base values.
	angle := math.Atan2(st.DirY, st.DirX)
	st.DirX = math.Cos(angle)
	st.DirY = math.Sin(angle)
	st.Speed = BaseSpeed
	st.HitCount = 0
	st.WaitRespawn = 0
}

// clampScore pins both scores at the win threshold. The threshold check uses
// >= so a logic bug can never broadcast an out-of-range score; the clamp
// makes the terminal snapshot well-formed either way.
func clampScore(sc *Score) {
	if sc.Player1 > WinScore {
		sc.Player1 = WinScore
	}
	if sc.Player2 > WinScore {
		sc.Player2 = WinScore
	}
}
