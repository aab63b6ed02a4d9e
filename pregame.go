package predictions

import (
	"context"
	"fmt"
	"math"
	"time"
)

// PreGamePredictor produces the pre-game prediction fields for games that
// have not finished. Missing teams mean no prediction, not an error.
type PreGamePredictor struct {
	cfg      SportConfig
	teams    TeamStore
	pitchers PitcherStore
	metrics  MetricsStore
	preds    PredictionStore
	now      nowFunc
}

func NewPreGamePredictor(cfg SportConfig, teams TeamStore, pitchers PitcherStore, metrics MetricsStore, preds PredictionStore) (*PreGamePredictor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PreGamePredictor{cfg: cfg, teams: teams, pitchers: pitchers, metrics: metrics, preds: preds, now: time.Now}, nil
}

// fallbackTier reports which tier of a fallback chain actually served a
// value. The confidence score pays bonuses only for primary data.
type fallbackTier int

const (
	tierPrimary fallbackTier = iota
	tierDefault
)

// resolveRating returns a team's rating and whether it came from recorded
// history or the sport default.
func (p *PreGamePredictor) resolveRating(ctx context.Context, store TeamStore, id string) (float64, fallbackTier, error) {
	r, ok, err := store.CurrentRating(ctx, p.cfg.League, id)
	if err != nil {
		return 0, tierDefault, err
	}
	if !ok {
		return p.cfg.DefaultElo, tierDefault, nil
	}
	return r, tierPrimary, nil
}

// blendedRating folds the starting pitcher's Elo into the team rating for
// sports configured with a pitcher blend.
func (p *PreGamePredictor) blendedRating(ctx context.Context, teamID, pitcherID string, teamElo float64) (float64, error) {
	if p.cfg.PitcherBlend <= 0 || p.pitchers == nil || pitcherID == "" {
		return teamElo, nil
	}
	pr, ok, err := p.pitchers.CurrentRating(ctx, p.cfg.League, pitcherID)
	if err != nil {
		return 0, fmt.Errorf("load pitcher rating for %s: %w", teamID, err)
	}
	if !ok {
		pr = p.cfg.DefaultElo
	}
	w := p.cfg.PitcherBlend
	return (1-w)*teamElo + w*pr, nil
}

// Predict computes and upserts the pre-game fields for one game. Returns
// nil without error when the game is already final or a team reference is
// missing. Live and grading groups are never touched here.
func (p *PreGamePredictor) Predict(ctx context.Context, g *GameRecord) (*PredictionRecord, error) {
	if g == nil || g.Status.State() == StateDone {
		return nil, nil
	}
	if g.HomeTeamID == "" || g.AwayTeamID == "" {
		return nil, nil
	}

	homeElo, homeTier, err := p.resolveRating(ctx, p.teams, g.HomeTeamID)
	if err != nil {
		return nil, fmt.Errorf("resolve home rating: %w", err)
	}
	awayElo, awayTier, err := p.resolveRating(ctx, p.teams, g.AwayTeamID)
	if err != nil {
		return nil, fmt.Errorf("resolve away rating: %w", err)
	}

	homeEff, err := p.blendedRating(ctx, g.HomeTeamID, g.HomePitcher, homeElo)
	if err != nil {
		return nil, err
	}
	awayEff, err := p.blendedRating(ctx, g.AwayTeamID, g.AwayPitcher, awayElo)
	if err != nil {
		return nil, err
	}

	homeAdv := p.cfg.HomeAdvantage
	if g.NeutralSite {
		homeAdv = 0
	}
	eloDiff := (homeEff + homeAdv) - awayEff

	spread := clampFloat(eloDiff/p.cfg.PointsPerElo, p.cfg.SpreadMin, p.cfg.SpreadMax)
	winProb := round3(1.0 / (1.0 + math.Pow(10, -eloDiff/400.0)))

	total, homeMetrics, awayMetrics, err := p.predictTotal(ctx, g)
	if err != nil {
		return nil, err
	}

	confidence := p.confidence(homeTier, awayTier, homeMetrics, awayMetrics)

	at := p.now()
	rec := &PredictionRecord{
		GameID:         g.ID,
		League:         g.League,
		Season:         g.Season,
		HomeElo:        homeElo,
		AwayElo:        awayElo,
		Spread:         round1(spread),
		Total:          round1(total),
		WinProbability: winProb,
		Confidence:     confidence,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	if err := p.preds.UpsertPreGame(ctx, rec); err != nil {
		return nil, fmt.Errorf("upsert prediction for game %s: %w", g.ID, err)
	}
	return rec, nil
}

// predictTotal picks the configured total model. The pace model needs
// metrics for both sides; otherwise it degrades to the fixed league
// average. Returns which sides had metrics for the confidence score.
func (p *PreGamePredictor) predictTotal(ctx context.Context, g *GameRecord) (total float64, homeOK, awayOK bool, err error) {
	var home, away *TeamMetrics
	if p.metrics != nil {
		if home, err = p.metrics.TeamMetrics(ctx, p.cfg.League, g.HomeTeamID); err != nil {
			return 0, false, false, fmt.Errorf("load home metrics: %w", err)
		}
		if away, err = p.metrics.TeamMetrics(ctx, p.cfg.League, g.AwayTeamID); err != nil {
			return 0, false, false, fmt.Errorf("load away metrics: %w", err)
		}
	}
	homeOK, awayOK = home != nil, away != nil

	if p.cfg.TotalModel != TotalPace || !homeOK || !awayOK {
		return p.cfg.LeagueAvgTotal, homeOK, awayOK, nil
	}

	pace := (home.Pace + away.Pace) / 2
	if pace <= 0 {
		return p.cfg.LeagueAvgTotal, homeOK, awayOK, nil
	}
	homePts := (home.OffensiveEfficiency + away.DefensiveEfficiency) / 2
	awayPts := (away.OffensiveEfficiency + home.DefensiveEfficiency) / 2
	return (homePts + awayPts) * pace / 100.0, homeOK, awayOK, nil
}

// confidence is a 0-100 data-completeness heuristic, not a statistical
// interval: a base score plus bonuses for each side with real metrics and
// each side whose Elo reflects actual game history.
func (p *PreGamePredictor) confidence(homeTier, awayTier fallbackTier, homeMetrics, awayMetrics bool) float64 {
	const (
		base         = 50.0
		metricsBonus = 12.5
		eloBonus     = 12.5
	)
	score := base
	if homeMetrics {
		score += metricsBonus
	}
	if awayMetrics {
		score += metricsBonus
	}
	if homeTier == tierPrimary {
		score += eloBonus
	}
	if awayTier == tierPrimary {
		score += eloBonus
	}
	return round2(math.Min(100, score))
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
