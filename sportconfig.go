package predictions

import "fmt"

// TotalModel selects how the pre-game total is computed.
type TotalModel string

const (
	// TotalFixed uses the league-average total as the pre-game number.
	TotalFixed TotalModel = "fixed"
	// TotalPace derives the total from each side's offensive/defensive
	// efficiency and tempo, falling back to TotalFixed when metrics are
	// missing.
	TotalPace TotalModel = "pace"
)

// SportConfig is the full constant table for one league. All engine
// behavior is parameterized here; there are no per-sport code paths
// beyond the variant switches on TotalModel.
type SportConfig struct {
	League string

	// Elo update constants.
	BaseK            float64 // per-game update magnitude
	EarlySeasonWeeks int     // weeks from season start with wider swings
	EarlySeasonMult  float64
	PlayoffMult      float64
	MOVCoefficient   float64 // margin-of-victory log coefficient
	MOVCap           float64 // ceiling on the MOV multiplier
	DefaultElo       float64

	// Prediction constants.
	HomeAdvantage     float64 // Elo points, zeroed for neutral sites
	PointsPerElo      float64 // Elo points per point of spread
	SpreadMin         float64
	SpreadMax         float64
	LeagueAvgTotal    float64
	TotalModel        TotalModel
	PitcherBlend      float64 // weight of starter Elo in the blended rating, 0 outside mlb
	LiveMarginDivisor float64 // steepness of the in-game margin logistic

	// Clock structure.
	RegulationPeriods int
	SecondsPerPeriod  int
	OvertimeSeconds   int // cap per overtime period; OT count is open-ended

	// Live total ceiling.
	MaxTotal        float64 // plausible regulation ceiling
	OvertimeTotalPP float64 // ceiling increment per overtime period
}

// Validate fails fast on an incomplete config. Engines call this at
// construction so a bad table never reaches per-game code.
func (c SportConfig) Validate() error {
	switch {
	case c.League == "":
		return fmt.Errorf("sport config: missing league key")
	case c.BaseK <= 0:
		return fmt.Errorf("sport config %s: base K must be positive", c.League)
	case c.DefaultElo <= 0:
		return fmt.Errorf("sport config %s: default Elo must be positive", c.League)
	case c.PointsPerElo <= 0:
		return fmt.Errorf("sport config %s: points-per-Elo must be positive", c.League)
	case c.SpreadMin >= c.SpreadMax:
		return fmt.Errorf("sport config %s: spread clamp range is empty", c.League)
	case c.RegulationPeriods <= 0 || c.SecondsPerPeriod <= 0:
		return fmt.Errorf("sport config %s: clock structure not set", c.League)
	case c.OvertimeSeconds <= 0:
		return fmt.Errorf("sport config %s: overtime seconds not set", c.League)
	case c.LiveMarginDivisor <= 0:
		return fmt.Errorf("sport config %s: live margin divisor not set", c.League)
	case c.LeagueAvgTotal <= 0 || c.MaxTotal <= c.LeagueAvgTotal:
		return fmt.Errorf("sport config %s: total bounds not set", c.League)
	case c.TotalModel != TotalFixed && c.TotalModel != TotalPace:
		return fmt.Errorf("sport config %s: unknown total model %q", c.League, c.TotalModel)
	}
	return nil
}

// TotalRegulationSeconds is the full regulation game length.
func (c SportConfig) TotalRegulationSeconds() int {
	return c.RegulationPeriods * c.SecondsPerPeriod
}

var sportConfigs = map[string]SportConfig{
	"nfl": {
		League:            "nfl",
		BaseK:             20,
		EarlySeasonWeeks:  4,
		EarlySeasonMult:   1.2,
		PlayoffMult:       1.25,
		MOVCoefficient:    0.4,
		MOVCap:            2.5,
		DefaultElo:        1500,
		HomeAdvantage:     48,
		PointsPerElo:      25,
		SpreadMin:         -28,
		SpreadMax:         28,
		LeagueAvgTotal:    44.5,
		TotalModel:        TotalFixed,
		LiveMarginDivisor: 7,
		RegulationPeriods: 4,
		SecondsPerPeriod:  900,
		OvertimeSeconds:   600,
		MaxTotal:          80,
		OvertimeTotalPP:   14,
	},
	"college-football": {
		League:            "college-football",
		BaseK:             24,
		EarlySeasonWeeks:  4,
		EarlySeasonMult:   1.3,
		PlayoffMult:       1.2,
		MOVCoefficient:    0.4,
		MOVCap:            2.5,
		DefaultElo:        1500,
		HomeAdvantage:     55,
		PointsPerElo:      25,
		SpreadMin:         -35,
		SpreadMax:         35,
		LeagueAvgTotal:    55.5,
		TotalModel:        TotalFixed,
		LiveMarginDivisor: 7,
		RegulationPeriods: 4,
		SecondsPerPeriod:  900,
		// College overtimes are untimed possessions; a nominal cap keeps
		// the clock math bounded.
		OvertimeSeconds: 180,
		MaxTotal:        100,
		OvertimeTotalPP: 14,
	},
	"nba": {
		League:            "nba",
		BaseK:             16,
		EarlySeasonWeeks:  3,
		EarlySeasonMult:   1.2,
		PlayoffMult:       1.2,
		MOVCoefficient:    0.45,
		MOVCap:            2.2,
		DefaultElo:        1500,
		HomeAdvantage:     70,
		PointsPerElo:      28,
		SpreadMin:         -21,
		SpreadMax:         21,
		LeagueAvgTotal:    224,
		TotalModel:        TotalPace,
		LiveMarginDivisor: 6,
		RegulationPeriods: 4,
		SecondsPerPeriod:  720,
		OvertimeSeconds:   300,
		MaxTotal:          290,
		OvertimeTotalPP:   12,
	},
	"mens-college-basketball": {
		League:            "mens-college-basketball",
		BaseK:             20,
		EarlySeasonWeeks:  4,
		EarlySeasonMult:   1.25,
		PlayoffMult:       1.3,
		MOVCoefficient:    0.4,
		MOVCap:            2.2,
		DefaultElo:        1500,
		HomeAdvantage:     85,
		PointsPerElo:      28,
		SpreadMin:         -30,
		SpreadMax:         30,
		LeagueAvgTotal:    144,
		TotalModel:        TotalPace,
		LiveMarginDivisor: 6,
		RegulationPeriods: 2,
		SecondsPerPeriod:  1200,
		OvertimeSeconds:   300,
		MaxTotal:          210,
		OvertimeTotalPP:   10,
	},
	"mlb": {
		League:           "mlb",
		BaseK:            4,
		EarlySeasonWeeks: 2,
		EarlySeasonMult:  1.1,
		PlayoffMult:      1.1,
		MOVCoefficient:   0.6,
		MOVCap:           1.8,
		DefaultElo:       1500,
		HomeAdvantage:    24,
		PointsPerElo:     100,
		SpreadMin:        -4.5,
		SpreadMax:        4.5,
		LeagueAvgTotal:   8.5,
		TotalModel:       TotalFixed,
		PitcherBlend:     0.35,
		// Innings carry no game clock; a nominal per-inning length keeps
		// elapsed-fraction math working, and a missing clock string
		// already degrades to the start of the inning.
		LiveMarginDivisor: 2.5,
		RegulationPeriods: 9,
		SecondsPerPeriod:  1200,
		OvertimeSeconds:   1200,
		MaxTotal:          30,
		OvertimeTotalPP:   2,
	},
}

// ConfigFor looks up the constant table for a league. Unknown leagues are
// programmer errors and fail hard, per the error-handling design.
func ConfigFor(league string) (SportConfig, error) {
	cfg, ok := sportConfigs[league]
	if !ok {
		return SportConfig{}, fmt.Errorf("no sport config for league %q", league)
	}
	return cfg, nil
}

// Leagues lists the configured league keys.
func Leagues() []string {
	keys := make([]string, 0, len(sportConfigs))
	for k := range sportConfigs {
		keys = append(keys, k)
	}
	return keys
}
