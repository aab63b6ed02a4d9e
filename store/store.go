// Package store is the Postgres implementation of the engine's record
// stores.
package store

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	predictions "sports-prediction-engine"
)

//go:embed schema.sql
var schema embed.FS

type DB struct{ *pgxpool.Pool }

func Open(dsn string) (*DB, error) {
	p, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close(ctx context.Context)      { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

// Stores returns the interface bundle backed by this database.
func (db *DB) Stores() predictions.Stores {
	return predictions.Stores{
		Teams:       (*teamStore)(db),
		Pitchers:    (*pitcherStore)(db),
		Games:       (*gameStore)(db),
		Metrics:     (*metricsStore)(db),
		Predictions: (*predictionStore)(db),
		History:     (*historyStore)(db),
	}
}

/* -----------------------------
   Team and pitcher ratings
------------------------------*/

type teamStore DB

func (s *teamStore) CurrentRating(ctx context.Context, league, teamID string) (float64, bool, error) {
	var rating float64
	err := s.QueryRow(ctx, `
        SELECT rating FROM team_ratings WHERE league = $1 AND team_id = $2
    `, league, teamID).Scan(&rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rating, true, nil
}

func (s *teamStore) SetRating(ctx context.Context, league, teamID string, rating float64) error {
	_, err := s.Exec(ctx, `
        INSERT INTO team_ratings(league, team_id, rating)
        VALUES ($1,$2,$3)
        ON CONFLICT (league, team_id) DO UPDATE
          SET rating = EXCLUDED.rating,
              updated_at = now()
    `, league, teamID, rating)
	return err
}

type pitcherStore DB

func (s *pitcherStore) CurrentRating(ctx context.Context, league, pitcherID string) (float64, bool, error) {
	var rating float64
	err := s.QueryRow(ctx, `
        SELECT rating FROM pitcher_ratings WHERE league = $1 AND pitcher_id = $2
    `, league, pitcherID).Scan(&rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rating, true, nil
}

func (s *pitcherStore) SetRating(ctx context.Context, league, pitcherID string, rating float64) error {
	_, err := s.Exec(ctx, `
        INSERT INTO pitcher_ratings(league, pitcher_id, rating)
        VALUES ($1,$2,$3)
        ON CONFLICT (league, pitcher_id) DO UPDATE
          SET rating = EXCLUDED.rating,
              updated_at = now()
    `, league, pitcherID, rating)
	return err
}

/* -----------------------------
   Games
------------------------------*/

type gameStore DB

func (s *gameStore) Get(ctx context.Context, league, gameID string) (*predictions.GameRecord, error) {
	g := predictions.GameRecord{League: league, ID: gameID}
	var startTime *time.Time
	err := s.QueryRow(ctx, `
        SELECT home_team_id, away_team_id, COALESCE(home_pitcher,''), COALESCE(away_pitcher,''),
               season, week, playoff, neutral_site, start_time, status, period, clock,
               home_score, away_score
          FROM games WHERE league = $1 AND game_id = $2
    `, league, gameID).Scan(
		&g.HomeTeamID, &g.AwayTeamID, &g.HomePitcher, &g.AwayPitcher,
		&g.Season, &g.Week, &g.Playoff, &g.NeutralSite, &startTime, &g.Status, &g.Period, &g.Clock,
		&g.HomeScore, &g.AwayScore,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if startTime != nil {
		g.StartTime = *startTime
	}
	return &g, nil
}

func (s *gameStore) Put(ctx context.Context, g *predictions.GameRecord) error {
	_, err := s.Exec(ctx, `
        INSERT INTO games(league, game_id, home_team_id, away_team_id, home_pitcher, away_pitcher,
                          season, week, playoff, neutral_site, start_time, status, period, clock,
                          home_score, away_score)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        ON CONFLICT (league, game_id) DO UPDATE
          SET home_team_id = EXCLUDED.home_team_id,
              away_team_id = EXCLUDED.away_team_id,
              home_pitcher = EXCLUDED.home_pitcher,
              away_pitcher = EXCLUDED.away_pitcher,
              season       = EXCLUDED.season,
              week         = EXCLUDED.week,
              playoff      = EXCLUDED.playoff,
              neutral_site = EXCLUDED.neutral_site,
              start_time   = EXCLUDED.start_time,
              status       = EXCLUDED.status,
              period       = EXCLUDED.period,
              clock        = EXCLUDED.clock,
              home_score   = EXCLUDED.home_score,
              away_score   = EXCLUDED.away_score,
              updated_at   = now()
    `, g.League, g.ID, g.HomeTeamID, g.AwayTeamID, g.HomePitcher, g.AwayPitcher,
		g.Season, g.Week, g.Playoff, g.NeutralSite, g.StartTime, g.Status, g.Period, g.Clock,
		g.HomeScore, g.AwayScore)
	return err
}

/* -----------------------------
   Team metrics
------------------------------*/

type metricsStore DB

func (s *metricsStore) TeamMetrics(ctx context.Context, league, teamID string) (*predictions.TeamMetrics, error) {
	var tm predictions.TeamMetrics
	err := s.QueryRow(ctx, `
        SELECT off_eff, def_eff, pace FROM team_metrics WHERE league = $1 AND team_id = $2
    `, league, teamID).Scan(&tm.OffensiveEfficiency, &tm.DefensiveEfficiency, &tm.Pace)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

/* -----------------------------
   Predictions
------------------------------*/

type predictionStore DB

func (s *predictionStore) GetByGame(ctx context.Context, gameID string) (*predictions.PredictionRecord, error) {
	p := predictions.PredictionRecord{GameID: gameID}
	var (
		liveSpread, liveWinProb, liveTotal    *float64
		liveSecondsRemaining                  *int
		liveUpdatedAt                         *time.Time
		actualSpread, actualTotal             *float64
		spreadError, totalError               *float64
		winnerCorrect                         *bool
		winnerResult                          *string
		gradedAt                              *time.Time
	)
	err := s.QueryRow(ctx, `
        SELECT league, season, home_elo, away_elo, spread, total, win_probability, confidence,
               created_at, updated_at,
               live_spread, live_win_probability, live_total, live_seconds_remaining, live_updated_at,
               actual_spread, actual_total, spread_error, total_error, winner_correct, winner_result, graded_at
          FROM predictions WHERE game_id = $1
    `, gameID).Scan(
		&p.League, &p.Season, &p.HomeElo, &p.AwayElo, &p.Spread, &p.Total, &p.WinProbability, &p.Confidence,
		&p.CreatedAt, &p.UpdatedAt,
		&liveSpread, &liveWinProb, &liveTotal, &liveSecondsRemaining, &liveUpdatedAt,
		&actualSpread, &actualTotal, &spreadError, &totalError, &winnerCorrect, &winnerResult, &gradedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if liveSpread != nil {
		p.Live = &predictions.LiveGroup{
			Spread:           *liveSpread,
			WinProbability:   *liveWinProb,
			Total:            *liveTotal,
			SecondsRemaining: *liveSecondsRemaining,
			UpdatedAt:        *liveUpdatedAt,
		}
	}
	if gradedAt != nil {
		p.Grades = &predictions.GradeGroup{
			ActualSpread:  *actualSpread,
			ActualTotal:   *actualTotal,
			SpreadError:   *spreadError,
			TotalError:    *totalError,
			WinnerCorrect: *winnerCorrect,
			WinnerResult:  predictions.WinnerResult(*winnerResult),
			GradedAt:      *gradedAt,
		}
	}
	return &p, nil
}

func (s *predictionStore) UpsertPreGame(ctx context.Context, p *predictions.PredictionRecord) error {
	_, err := s.Exec(ctx, `
        INSERT INTO predictions(game_id, league, season, home_elo, away_elo, spread, total,
                                win_probability, confidence, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
        ON CONFLICT (game_id) DO UPDATE
          SET league          = EXCLUDED.league,
              season          = EXCLUDED.season,
              home_elo        = EXCLUDED.home_elo,
              away_elo        = EXCLUDED.away_elo,
              spread          = EXCLUDED.spread,
              total           = EXCLUDED.total,
              win_probability = EXCLUDED.win_probability,
              confidence      = EXCLUDED.confidence,
              updated_at      = EXCLUDED.updated_at
    `, p.GameID, p.League, p.Season, p.HomeElo, p.AwayElo, p.Spread, p.Total,
		p.WinProbability, p.Confidence, p.UpdatedAt)
	return err
}

// SetLive writes the whole live group in one statement.
func (s *predictionStore) SetLive(ctx context.Context, gameID string, live predictions.LiveGroup) error {
	_, err := s.Exec(ctx, `
        UPDATE predictions
           SET live_spread            = $2,
               live_win_probability   = $3,
               live_total             = $4,
               live_seconds_remaining = $5,
               live_updated_at        = $6,
               updated_at             = $6
         WHERE game_id = $1
    `, gameID, live.Spread, live.WinProbability, live.Total, live.SecondsRemaining, live.UpdatedAt)
	return err
}

func (s *predictionStore) ClearLive(ctx context.Context, gameID string) error {
	_, err := s.Exec(ctx, `
        UPDATE predictions
           SET live_spread            = NULL,
               live_win_probability   = NULL,
               live_total             = NULL,
               live_seconds_remaining = NULL,
               live_updated_at        = NULL
         WHERE game_id = $1
    `, gameID)
	return err
}

// SetGrades writes the grading group once; the graded_at guard makes a
// second write a no-op.
func (s *predictionStore) SetGrades(ctx context.Context, gameID string, grades predictions.GradeGroup) error {
	_, err := s.Exec(ctx, `
        UPDATE predictions
           SET actual_spread  = $2,
               actual_total   = $3,
               spread_error   = $4,
               total_error    = $5,
               winner_correct = $6,
               winner_result  = $7,
               graded_at      = $8,
               updated_at     = $8
         WHERE game_id = $1 AND graded_at IS NULL
    `, gameID, grades.ActualSpread, grades.ActualTotal, grades.SpreadError, grades.TotalError,
		grades.WinnerCorrect, string(grades.WinnerResult), grades.GradedAt)
	return err
}

func (s *predictionStore) ListUngraded(ctx context.Context, league string, season int) ([]*predictions.PredictionRecord, error) {
	rows, err := s.Query(ctx, `
        SELECT game_id, season, home_elo, away_elo, spread, total, win_probability, confidence,
               created_at, updated_at
          FROM predictions
         WHERE league = $1 AND graded_at IS NULL AND ($2 = 0 OR season = $2)
         ORDER BY game_id
    `, league, season)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*predictions.PredictionRecord
	for rows.Next() {
		p := predictions.PredictionRecord{League: league}
		if err := rows.Scan(&p.GameID, &p.Season, &p.HomeElo, &p.AwayElo, &p.Spread, &p.Total,
			&p.WinProbability, &p.Confidence, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

/* -----------------------------
   Elo history ledger
------------------------------*/

type historyStore DB

func (s *historyStore) Append(ctx context.Context, entry predictions.EloHistoryEntry) error {
	_, err := s.Exec(ctx, `
        INSERT INTO elo_history(id, league, team_id, game_id, season, week, rating_after, delta, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, entry.ID, entry.League, entry.TeamID, entry.GameID, entry.Season, entry.Week,
		entry.RatingAfter, entry.Delta, entry.CreatedAt)
	return err
}

func (s *historyStore) ListByTeam(ctx context.Context, league, teamID string) ([]predictions.EloHistoryEntry, error) {
	rows, err := s.Query(ctx, `
        SELECT id, game_id, season, week, rating_after, delta, created_at
          FROM elo_history
         WHERE league = $1 AND team_id = $2
         ORDER BY created_at
    `, league, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []predictions.EloHistoryEntry
	for rows.Next() {
		e := predictions.EloHistoryEntry{League: league, TeamID: teamID}
		if err := rows.Scan(&e.ID, &e.GameID, &e.Season, &e.Week, &e.RatingAfter, &e.Delta, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
