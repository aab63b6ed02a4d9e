package predictions

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// EloEngine updates both teams' ratings after one completed game and
// appends immutable history rows. It is deterministic for a given input
// game and set of current ratings; duplicate-game detection belongs to
// the batch job that picks which games to process.
type EloEngine struct {
	cfg      SportConfig
	teams    TeamStore
	pitchers PitcherStore
	history  EloHistoryStore
	now      nowFunc
}

// EloUpdate reports the applied rating changes.
type EloUpdate struct {
	GameID     string  `json:"gameId"`
	HomeRating float64 `json:"homeRating"`
	AwayRating float64 `json:"awayRating"`
	HomeDelta  float64 `json:"homeDelta"`
	AwayDelta  float64 `json:"awayDelta"`
}

func NewEloEngine(cfg SportConfig, teams TeamStore, pitchers PitcherStore, history EloHistoryStore) (*EloEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &EloEngine{cfg: cfg, teams: teams, pitchers: pitchers, history: history, now: time.Now}, nil
}

// expectedScore is the standard logistic expectation for the home side.
// homeAdv is in Elo points and already zeroed for neutral sites.
func expectedScore(homeElo, awayElo, homeAdv float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, -((homeElo+homeAdv)-awayElo)/400.0))
}

// movMultiplier scales K logarithmically by score margin so blowouts have
// diminishing marginal effect.
func (e *EloEngine) movMultiplier(scoreDiff int) float64 {
	mult := 1.0 + math.Log(math.Abs(float64(scoreDiff))+1)*e.cfg.MOVCoefficient
	return math.Min(e.cfg.MOVCap, mult)
}

// kFactor composes the sport base K with the early-season, playoff, and
// margin-of-victory multipliers.
func (e *EloEngine) kFactor(g *GameRecord, scoreDiff int) float64 {
	k := e.cfg.BaseK
	if !g.Playoff && g.Week > 0 && g.Week <= e.cfg.EarlySeasonWeeks {
		k *= e.cfg.EarlySeasonMult
	}
	if g.Playoff {
		k *= e.cfg.PlayoffMult
	}
	return k * e.movMultiplier(scoreDiff)
}

// ProcessGame applies the rating update for one final game. Games that are
// not final or lack scores are skipped with a nil result, not an error.
func (e *EloEngine) ProcessGame(ctx context.Context, g *GameRecord) (*EloUpdate, error) {
	if g == nil || g.Status != StatusFinal || !g.HasScores() {
		return nil, nil
	}
	if g.HomeTeamID == "" || g.AwayTeamID == "" {
		return nil, nil
	}

	homeElo, err := e.ratingOrDefault(ctx, e.teams, g.HomeTeamID)
	if err != nil {
		return nil, fmt.Errorf("load home rating: %w", err)
	}
	awayElo, err := e.ratingOrDefault(ctx, e.teams, g.AwayTeamID)
	if err != nil {
		return nil, fmt.Errorf("load away rating: %w", err)
	}

	homeAdv := e.cfg.HomeAdvantage
	if g.NeutralSite {
		homeAdv = 0
	}
	eHome := expectedScore(homeElo, awayElo, homeAdv)
	eAway := 1.0 - eHome

	hs, as := g.Score()
	outcomeHome := outcome(hs, as)
	outcomeAway := 1.0 - outcomeHome

	k := e.kFactor(g, hs-as)
	homeDelta := k * (outcomeHome - eHome)
	awayDelta := k * (outcomeAway - eAway)

	newHome := homeElo + homeDelta
	newAway := awayElo + awayDelta

	if err := e.teams.SetRating(ctx, g.League, g.HomeTeamID, newHome); err != nil {
		return nil, fmt.Errorf("persist home rating: %w", err)
	}
	if err := e.teams.SetRating(ctx, g.League, g.AwayTeamID, newAway); err != nil {
		return nil, fmt.Errorf("persist away rating: %w", err)
	}

	at := e.now()
	if err := e.appendHistory(ctx, g, g.HomeTeamID, newHome, homeDelta, at); err != nil {
		return nil, err
	}
	if err := e.appendHistory(ctx, g, g.AwayTeamID, newAway, awayDelta, at); err != nil {
		return nil, err
	}

	if err := e.updatePitchers(ctx, g, outcomeHome, k); err != nil {
		return nil, err
	}

	return &EloUpdate{
		GameID:     g.ID,
		HomeRating: newHome,
		AwayRating: newAway,
		HomeDelta:  homeDelta,
		AwayDelta:  awayDelta,
	}, nil
}

// updatePitchers maintains the secondary starter Elo for sports that blend
// it into predictions. Skipped entirely when the sport has no pitcher
// blend or the starters are unknown.
func (e *EloEngine) updatePitchers(ctx context.Context, g *GameRecord, outcomeHome, k float64) error {
	if e.cfg.PitcherBlend <= 0 || e.pitchers == nil || g.HomePitcher == "" || g.AwayPitcher == "" {
		return nil
	}
	homeP, err := e.ratingOrDefault(ctx, pitcherAsTeamStore{e.pitchers}, g.HomePitcher)
	if err != nil {
		return fmt.Errorf("load home pitcher rating: %w", err)
	}
	awayP, err := e.ratingOrDefault(ctx, pitcherAsTeamStore{e.pitchers}, g.AwayPitcher)
	if err != nil {
		return fmt.Errorf("load away pitcher rating: %w", err)
	}
	eHome := expectedScore(homeP, awayP, 0)
	delta := k * (outcomeHome - eHome)
	if err := e.pitchers.SetRating(ctx, g.League, g.HomePitcher, homeP+delta); err != nil {
		return fmt.Errorf("persist home pitcher rating: %w", err)
	}
	if err := e.pitchers.SetRating(ctx, g.League, g.AwayPitcher, awayP-delta); err != nil {
		return fmt.Errorf("persist away pitcher rating: %w", err)
	}
	return nil
}

func (e *EloEngine) appendHistory(ctx context.Context, g *GameRecord, teamID string, after, delta float64, at time.Time) error {
	entry := EloHistoryEntry{
		ID:          uuid.NewString(),
		League:      g.League,
		TeamID:      teamID,
		GameID:      g.ID,
		Season:      g.Season,
		Week:        g.Week,
		RatingAfter: after,
		Delta:       delta,
		CreatedAt:   at,
	}
	if err := e.history.Append(ctx, entry); err != nil {
		return fmt.Errorf("append history for team %s: %w", teamID, err)
	}
	return nil
}

func (e *EloEngine) ratingOrDefault(ctx context.Context, store TeamStore, id string) (float64, error) {
	r, ok, err := store.CurrentRating(ctx, e.cfg.League, id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return e.cfg.DefaultElo, nil
	}
	return r, nil
}

// outcome is 1/0/0.5 from the home perspective. Ties are rare in these
// sports but baseball-style suspensions can land one in the data.
func outcome(homeScore, awayScore int) float64 {
	switch {
	case homeScore > awayScore:
		return 1
	case homeScore < awayScore:
		return 0
	default:
		return 0.5
	}
}

// pitcherAsTeamStore adapts PitcherStore to the TeamStore shape so
// ratingOrDefault can serve both.
type pitcherAsTeamStore struct{ p PitcherStore }

func (a pitcherAsTeamStore) CurrentRating(ctx context.Context, league, id string) (float64, bool, error) {
	return a.p.CurrentRating(ctx, league, id)
}

func (a pitcherAsTeamStore) SetRating(ctx context.Context, league, id string, rating float64) error {
	return a.p.SetRating(ctx, league, id, rating)
}
