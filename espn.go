package predictions

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ESPN scoreboard response models, trimmed to the fields the engines need.
// All ESPN site APIs share the shape
// https://site.api.espn.com/apis/site/v2/sports/{SPORT}/{LEAGUE}/scoreboard.

type espnResponse struct {
	Season espnSeason  `json:"season"`
	Week   espnWeek    `json:"week"`
	Events []espnEvent `json:"events"`
}

type espnSeason struct {
	Year int `json:"year"`
	Type int `json:"type"` // 1 pre, 2 regular, 3 post
}

type espnWeek struct {
	Number int `json:"number"`
}

type espnEvent struct {
	ID           string            `json:"id"`
	Date         ESPNTime          `json:"date"`
	Name         string            `json:"name"`
	ShortName    string            `json:"shortName"`
	Week         espnWeek          `json:"week"`
	Competitions []espnCompetition `json:"competitions"`
	Status       espnStatus        `json:"status"`
}

type espnCompetition struct {
	ID          string           `json:"id"`
	Date        ESPNTime         `json:"date"`
	NeutralSite bool             `json:"neutralSite"`
	Competitors []espnCompetitor `json:"competitors"`
	Status      espnStatus       `json:"status"`
}

type espnCompetitor struct {
	ID        string         `json:"id"`
	HomeAway  string         `json:"homeAway"`
	Score     string         `json:"score"`
	Team      espnTeam       `json:"team"`
	Probables []espnProbable `json:"probables,omitempty"`
}

type espnTeam struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
	DisplayName  string `json:"displayName"`
}

// espnProbable is one entry of a competitor's probables array. The mlb
// scoreboard lists the starting pitcher here with a numeric playerId and
// the athlete reference.
type espnProbable struct {
	Name     string      `json:"name"`
	PlayerID json.Number `json:"playerId"`
	Athlete  espnAthlete `json:"athlete"`
}

type espnAthlete struct {
	ID string `json:"id"`
}

// starterID picks the probable starting pitcher's id, preferring the
// athlete reference over the numeric playerId.
func starterID(probables []espnProbable) string {
	for _, p := range probables {
		if p.Name != "" && p.Name != "probableStartingPitcher" {
			continue
		}
		if p.Athlete.ID != "" {
			return p.Athlete.ID
		}
		if p.PlayerID.String() != "" {
			return p.PlayerID.String()
		}
	}
	return ""
}

type espnStatus struct {
	DisplayClock string         `json:"displayClock"`
	Period       int            `json:"period"`
	Type         espnStatusType `json:"type"`
}

type espnStatusType struct {
	Name      string `json:"name"` // e.g. STATUS_HALFTIME
	State     string `json:"state"`
	Completed bool   `json:"completed"`
}

// ESPNTime wraps time.Time to unmarshal both full RFC3339 timestamps and
// the shorter "YYYY-MM-DDThh:mmZ" strings some ESPN endpoints return.
type ESPNTime struct {
	time.Time
}

func (t *ESPNTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	layouts := []string{time.RFC3339, "2006-01-02T15:04Z07:00"}
	var parseErr error
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		parseErr = err
	}
	return parseErr
}

// mapGameStatus translates ESPN's state/name pair onto our closed status
// set. Unknown live-ish states degrade to in_progress; unknown terminal
// names to final.
func mapGameStatus(st espnStatusType) GameStatus {
	switch st.Name {
	case "STATUS_HALFTIME", "STATUS_END_PERIOD":
		return StatusHalftime
	case "STATUS_SUSPENDED", "STATUS_RAIN_DELAY":
		return StatusSuspended
	case "STATUS_POSTPONED":
		return StatusPostponed
	case "STATUS_DELAYED":
		return StatusDelayed
	case "STATUS_CANCELED", "STATUS_FORFEIT":
		return StatusCanceled
	}
	switch st.State {
	case "pre":
		return StatusScheduled
	case "in":
		return StatusInProgress
	case "post":
		return StatusFinal
	}
	return StatusScheduled
}

// mapEventToGame flattens one scoreboard event into a GameRecord. Returns
// nil when the event lacks the two competitors the engines require.
func mapEventToGame(league string, resp *espnResponse, ev *espnEvent) *GameRecord {
	if len(ev.Competitions) == 0 {
		return nil
	}
	comp := ev.Competitions[0]
	if len(comp.Competitors) < 2 {
		return nil
	}

	game := &GameRecord{
		ID:          comp.ID,
		League:      league,
		Season:      resp.Season.Year,
		Week:        ev.Week.Number,
		Playoff:     resp.Season.Type == 3,
		NeutralSite: comp.NeutralSite,
		StartTime:   comp.Date.Time,
		Status:      mapGameStatus(comp.Status.Type),
		Period:      comp.Status.Period,
		Clock:       comp.Status.DisplayClock,
	}
	if game.Week == 0 {
		game.Week = resp.Week.Number
	}

	started := game.Status.State() != StatePre
	for i := range comp.Competitors {
		c := &comp.Competitors[i]
		score, scoreOK := parseScore(c.Score)
		switch c.HomeAway {
		case "home":
			game.HomeTeamID = c.Team.ID
			game.HomePitcher = starterID(c.Probables)
			if started && scoreOK {
				game.HomeScore = &score
			}
		case "away":
			game.AwayTeamID = c.Team.ID
			game.AwayPitcher = starterID(c.Probables)
			if started && scoreOK {
				game.AwayScore = &score
			}
		}
	}
	if game.HomeTeamID == "" || game.AwayTeamID == "" {
		return nil
	}
	return game
}

// parseScore reads ESPN's string scores; negative or unparseable values
// are dropped rather than stored.
func parseScore(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
