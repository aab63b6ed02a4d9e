package predictions

import (
	"context"
	"fmt"
	"math"
	"time"
)

// LivePredictionUpdater recomputes spread, win probability, and total
// while a game is in progress, blending the pre-game prior with the
// observed score. The weight shifts from prior to observation as the game
// clock runs down.
//
// The blend curve is linear in elapsed fraction, and the in-game margin
// term is a logistic of margin / (divisor * sqrt(remaining fraction)), so
// a fixed lead grows more decisive as time shrinks. The combination is
// monotonic in margin for fixed time, and monotonic in elapsed time
// whenever the margin term is at least as decisive as the prior.
type LivePredictionUpdater struct {
	cfg   SportConfig
	preds PredictionStore
	now   nowFunc
}

func NewLivePredictionUpdater(cfg SportConfig, preds PredictionStore) (*LivePredictionUpdater, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &LivePredictionUpdater{cfg: cfg, preds: preds, now: time.Now}, nil
}

// Update recomputes the live values for one game. It returns nil when no
// update applies: the game is not live, or no prediction exists yet. A
// game observed outside the live state additionally has any stale live
// fields cleared, which is the only live-field mutation performed here —
// persisting a returned update is the caller's job and must write all
// values plus the timestamp together.
func (u *LivePredictionUpdater) Update(ctx context.Context, g *GameRecord) (*LiveUpdate, error) {
	if g == nil {
		return nil, nil
	}
	if g.Status.State() != StateLive {
		if err := u.ClearLive(ctx, g.ID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	pred, err := u.preds.GetByGame(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("load prediction for game %s: %w", g.ID, err)
	}
	if pred == nil {
		return nil, nil
	}

	clock := u.cfg.GameClock(g.Period, g.Clock, g.Status)
	totalReg := float64(u.cfg.TotalRegulationSeconds())

	elapsed := clampFloat(float64(clock.SecondsElapsed), 0, totalReg)
	f := elapsed / totalReg

	hs, as := g.Score()
	margin := float64(hs - as)

	return &LiveUpdate{
		GameID:           g.ID,
		League:           g.League,
		Spread:           u.liveSpread(margin, pred.Spread, f),
		WinProbability:   u.liveWinProbability(margin, pred.WinProbability, f, clock, totalReg),
		Total:            u.liveTotal(hs+as, pred.Total, f, clock.OvertimePeriods),
		SecondsRemaining: clock.SecondsRemaining,
		UpdatedAt:        u.now(),
	}, nil
}

// ClearLive nulls the whole live group. Idempotent: clearing an already
// clear (or absent) prediction is a no-op.
func (u *LivePredictionUpdater) ClearLive(ctx context.Context, gameID string) error {
	if err := u.preds.ClearLive(ctx, gameID); err != nil {
		return fmt.Errorf("clear live fields for game %s: %w", gameID, err)
	}
	return nil
}

// liveWinProbability blends a time-decayed logistic of the current margin
// with the pre-game prior. remFrac is floored so the logistic never
// divides by zero at the horn.
func (u *LivePredictionUpdater) liveWinProbability(margin, prior, f float64, clock ClockState, totalReg float64) float64 {
	const minRemFrac = 1.0 / 300.0

	remFrac := float64(clock.SecondsRemaining) / totalReg
	remFrac = clampFloat(remFrac, minRemFrac, 1)

	z := margin / (u.cfg.LiveMarginDivisor * math.Sqrt(remFrac))
	pMargin := 1.0 / (1.0 + math.Exp(-z))

	p := f*pMargin + (1-f)*prior
	return round3(clampFloat(p, 0.001, 0.999))
}

// liveSpread is a damped regression from the pre-game spread toward the
// actual margin: at tip it sits on the prior, by the final minutes it has
// converged to (very nearly) the scoreboard.
func (u *LivePredictionUpdater) liveSpread(margin, preSpread, f float64) float64 {
	return round1(f*margin + (1-f)*preSpread)
}

// liveTotal projects the combined score to a full-game pace and blends it
// with the pre-game total. Each overtime period raises the plausible
// ceiling by a fixed increment; the floor is whatever has already been
// scored.
func (u *LivePredictionUpdater) liveTotal(combined int, preTotal, f float64, otPeriods int) float64 {
	const minPaceFraction = 0.05

	projected := preTotal
	if f >= minPaceFraction {
		projected = float64(combined) / f
	}
	total := f*projected + (1-f)*preTotal

	ceiling := u.cfg.MaxTotal + float64(otPeriods)*u.cfg.OvertimeTotalPP
	total = math.Min(total, ceiling)
	total = math.Max(total, float64(combined))
	return round1(total)
}
