package predictions

import "time"

// GameStatus is the closed set of states a game can be in.
type GameStatus string

const (
	StatusScheduled  GameStatus = "scheduled"
	StatusDelayed    GameStatus = "delayed"
	StatusPostponed  GameStatus = "postponed"
	StatusInProgress GameStatus = "in_progress"
	StatusHalftime   GameStatus = "halftime"
	StatusSuspended  GameStatus = "suspended"
	StatusFinal      GameStatus = "final"
	StatusCanceled   GameStatus = "canceled"
)

// GameState collapses GameStatus into the three phases the live updater
// cares about.
type GameState int

const (
	StatePre GameState = iota
	StateLive
	StateDone
)

// State maps a status onto its phase. Halftime and suspended games still
// count as live so the updater keeps estimating through intermissions.
func (s GameStatus) State() GameState {
	switch s {
	case StatusInProgress, StatusHalftime, StatusSuspended:
		return StateLive
	case StatusFinal, StatusCanceled:
		return StateDone
	default:
		return StatePre
	}
}

// GameRecord is the plain game row the engines consume. Scores are nil
// until the game has started.
type GameRecord struct {
	ID          string     `json:"id"`
	League      string     `json:"league"`
	HomeTeamID  string     `json:"homeTeamId"`
	AwayTeamID  string     `json:"awayTeamId"`
	HomePitcher string     `json:"homePitcher,omitempty"` // starting pitcher, mlb only
	AwayPitcher string     `json:"awayPitcher,omitempty"`
	Season      int        `json:"season"`
	Week        int        `json:"week"`
	Playoff     bool       `json:"playoff"`
	NeutralSite bool       `json:"neutralSite"`
	StartTime   time.Time  `json:"startTime"`
	Status      GameStatus `json:"status"`
	Period      int        `json:"period"`
	Clock       string     `json:"clock"` // "MM:SS" display clock, may be empty
	HomeScore   *int       `json:"homeScore,omitempty"`
	AwayScore   *int       `json:"awayScore,omitempty"`
}

// Score returns both scores, defaulting a missing side to zero.
func (g *GameRecord) Score() (home, away int) {
	if g.HomeScore != nil {
		home = *g.HomeScore
	}
	if g.AwayScore != nil {
		away = *g.AwayScore
	}
	return home, away
}

// HasScores reports whether both sides have a populated score.
func (g *GameRecord) HasScores() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}

// LiveGroup is the set of live prediction fields. The whole group is
// written or cleared together, never one field at a time.
type LiveGroup struct {
	Spread           float64   `json:"spread"`
	WinProbability   float64   `json:"winProbability"`
	Total            float64   `json:"total"`
	SecondsRemaining int       `json:"secondsRemaining"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// WinnerResult tags the grading outcome of the winner pick.
type WinnerResult string

const (
	WinnerCorrect   WinnerResult = "correct"
	WinnerIncorrect WinnerResult = "incorrect"
	// WinnerPush marks a game that ended in an exact tie against a nonzero
	// predicted spread. Counted as incorrect but tagged so callers can
	// special-case it.
	WinnerPush WinnerResult = "push"
)

// GradeGroup holds the post-game grading fields, written exactly once.
type GradeGroup struct {
	ActualSpread  float64      `json:"actualSpread"`
	ActualTotal   float64      `json:"actualTotal"`
	SpreadError   float64      `json:"spreadError"`
	TotalError    float64      `json:"totalError"`
	WinnerCorrect bool         `json:"winnerCorrect"`
	WinnerResult  WinnerResult `json:"winnerResult"`
	GradedAt      time.Time    `json:"gradedAt"`
}

// PredictionRecord is the one-row-per-game prediction, keyed by game id.
// Pre-game fields are written by the pre-game predictor, Live by the live
// updater while the game is in progress, and Grades once the game is final.
type PredictionRecord struct {
	GameID string `json:"gameId"`
	League string `json:"league"`
	Season int    `json:"season"`

	HomeElo        float64 `json:"homeElo"`
	AwayElo        float64 `json:"awayElo"`
	Spread         float64 `json:"spread"` // home perspective, negative = away favored
	Total          float64 `json:"total"`
	WinProbability float64 `json:"winProbability"` // home perspective, [0,1]
	Confidence     float64 `json:"confidence"`     // data-completeness heuristic, [0,100]

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Live   *LiveGroup  `json:"live,omitempty"`
	Grades *GradeGroup `json:"grades,omitempty"`
}

// Graded reports whether the grading group has been written.
func (p *PredictionRecord) Graded() bool { return p.Grades != nil }

// EloHistoryEntry is one immutable ledger row per team per completed game.
type EloHistoryEntry struct {
	ID          string    `json:"id"`
	League      string    `json:"league"`
	TeamID      string    `json:"teamId"`
	GameID      string    `json:"gameId"`
	Season      int       `json:"season"`
	Week        int       `json:"week"`
	RatingAfter float64   `json:"ratingAfter"`
	Delta       float64   `json:"delta"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TeamMetrics are per-team efficiency numbers used by the pace-based
// total model: points per 100 possessions for the efficiencies,
// possessions per game normalized to 100 for pace.
type TeamMetrics struct {
	OffensiveEfficiency float64 `json:"offensiveEfficiency"`
	DefensiveEfficiency float64 `json:"defensiveEfficiency"`
	Pace                float64 `json:"pace"`
}

// TrackingRequest selects which scoreboard to collect games from.
type TrackingRequest struct {
	Sport  string `json:"sport"`  // ESPN sport path, e.g. "football"
	League string `json:"league"` // ESPN league path, e.g. "nfl"
}

// LiveUpdate is the result of one live recomputation. The caller persists
// all four values plus the timestamp together.
type LiveUpdate struct {
	GameID           string    `json:"gameId"`
	League           string    `json:"league"`
	Spread           float64   `json:"spread"`
	WinProbability   float64   `json:"winProbability"`
	Total            float64   `json:"total"`
	SecondsRemaining int       `json:"secondsRemaining"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// GradingSummary aggregates one grading batch.
type GradingSummary struct {
	League          string  `json:"league"`
	Season          int     `json:"season"`
	Graded          int     `json:"graded"`
	Pushes          int     `json:"pushes"`
	WinnerAccuracy  float64 `json:"winnerAccuracy"` // percent
	MeanSpreadError float64 `json:"meanSpreadError"`
	MeanTotalError  float64 `json:"meanTotalError"`
}
