package predictions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		seconds int
		ok      bool
	}{
		{name: "mid period", input: "5:00", seconds: 300, ok: true},
		{name: "full quarter", input: "15:00", seconds: 900, ok: true},
		{name: "under a minute", input: "0:42", seconds: 42, ok: true},
		{name: "zero", input: "0:00", seconds: 0, ok: true},
		{name: "padded", input: " 12:30 ", seconds: 750, ok: true},
		{name: "empty", input: "", ok: false},
		{name: "no colon", input: "300", ok: false},
		{name: "seconds overflow", input: "5:60", ok: false},
		{name: "negative minutes", input: "-1:30", ok: false},
		{name: "garbage", input: "abc:def", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secs, ok := parseClock(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.seconds, secs)
			}
		})
	}
}

func TestGameClock_Regulation(t *testing.T) {
	nfl, err := ConfigFor("nfl")
	require.NoError(t, err)
	cbb, err := ConfigFor("mens-college-basketball")
	require.NoError(t, err)

	tests := []struct {
		name      string
		cfg       SportConfig
		period    int
		clock     string
		status    GameStatus
		remaining int
		elapsed   int
	}{
		{
			name:   "nfl third quarter five minutes left",
			cfg:    nfl,
			period: 3, clock: "5:00", status: StatusInProgress,
			remaining: 1200, elapsed: 2400,
		},
		{
			name:   "nfl opening kickoff",
			cfg:    nfl,
			period: 1, clock: "15:00", status: StatusInProgress,
			remaining: 3600, elapsed: 0,
		},
		{
			name:   "nfl final play of regulation",
			cfg:    nfl,
			period: 4, clock: "0:00", status: StatusInProgress,
			remaining: 0, elapsed: 3600,
		},
		{
			name:   "college basketball first half",
			cfg:    cbb,
			period: 1, clock: "15:00", status: StatusInProgress,
			remaining: 2100, elapsed: 300,
		},
		{
			name:   "malformed clock falls back to start of period",
			cfg:    nfl,
			period: 2, clock: "", status: StatusInProgress,
			remaining: 2700, elapsed: 900,
		},
		{
			name:   "clock exceeding period length is capped",
			cfg:    nfl,
			period: 2, clock: "20:00", status: StatusInProgress,
			remaining: 2700, elapsed: 900,
		},
		{
			name:   "zero period treated as first",
			cfg:    nfl,
			period: 0, clock: "15:00", status: StatusInProgress,
			remaining: 3600, elapsed: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := tt.cfg.GameClock(tt.period, tt.clock, tt.status)
			assert.Equal(t, tt.remaining, state.SecondsRemaining)
			assert.Equal(t, tt.elapsed, state.SecondsElapsed)
			assert.Equal(t, 0, state.OvertimePeriods)
		})
	}
}

func TestGameClock_Halftime(t *testing.T) {
	nfl, err := ConfigFor("nfl")
	require.NoError(t, err)

	// At halftime the display clock reads full time for the next quarter,
	// so the status branch has to place the game on the period boundary.
	state := nfl.GameClock(2, "15:00", StatusHalftime)
	assert.Equal(t, 1800, state.SecondsRemaining)
	assert.Equal(t, 1800, state.SecondsElapsed)
}

func TestGameClock_Overtime(t *testing.T) {
	nfl, err := ConfigFor("nfl")
	require.NoError(t, err)

	t.Run("first overtime", func(t *testing.T) {
		state := nfl.GameClock(5, "7:30", StatusInProgress)
		assert.Equal(t, 450, state.SecondsRemaining)
		assert.Equal(t, 3600+150, state.SecondsElapsed)
		assert.Equal(t, 1, state.OvertimePeriods)
	})

	t.Run("clock above overtime length is capped", func(t *testing.T) {
		state := nfl.GameClock(5, "15:00", StatusInProgress)
		assert.Equal(t, 600, state.SecondsRemaining)
		assert.Equal(t, 3600, state.SecondsElapsed)
	})

	t.Run("second overtime keeps elapsed growing", func(t *testing.T) {
		ot1 := nfl.GameClock(5, "0:30", StatusInProgress)
		ot2 := nfl.GameClock(6, "9:30", StatusInProgress)
		assert.Greater(t, ot2.SecondsElapsed, ot1.SecondsElapsed)
		assert.Equal(t, 2, ot2.OvertimePeriods)
	})

	t.Run("elapsed never drops below regulation", func(t *testing.T) {
		state := nfl.GameClock(5, "10:00", StatusInProgress)
		assert.GreaterOrEqual(t, state.SecondsElapsed, nfl.TotalRegulationSeconds())
	})
}

func TestGameClock_ElapsedMonotonicThroughGame(t *testing.T) {
	nfl, err := ConfigFor("nfl")
	require.NoError(t, err)

	// Walk the game forward and check elapsed never decreases, including
	// across the regulation/overtime boundary.
	checkpoints := []struct {
		period int
		clock  string
		status GameStatus
	}{
		{1, "15:00", StatusInProgress},
		{1, "2:00", StatusInProgress},
		{2, "8:00", StatusInProgress},
		{2, "15:00", StatusHalftime},
		{3, "15:00", StatusInProgress},
		{4, "0:30", StatusInProgress},
		{5, "10:00", StatusInProgress},
		{5, "1:00", StatusInProgress},
		{6, "10:00", StatusInProgress},
	}

	prev := -1
	for _, cp := range checkpoints {
		state := nfl.GameClock(cp.period, cp.clock, cp.status)
		assert.GreaterOrEqual(t, state.SecondsElapsed, prev,
			"elapsed shrank at period %d clock %s", cp.period, cp.clock)
		prev = state.SecondsElapsed
	}
}
