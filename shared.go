package predictions

const TaskQueueName = "prediction-engine-task-queue"

// espnSportPaths maps our league keys onto the {SPORT_PATH} component of
// the ESPN scoreboard URL; the league key is already the {LEAGUE_PATH}.
var espnSportPaths = map[string]string{
	"nfl":                     "football",
	"college-football":        "football",
	"nba":                     "basketball",
	"mens-college-basketball": "basketball",
	"mlb":                     "baseball",
}

// SportPathFor returns the ESPN sport path for a league key, or "" when
// the league is unknown.
func SportPathFor(league string) string {
	return espnSportPaths[league]
}
