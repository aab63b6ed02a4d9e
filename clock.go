package predictions

import (
	"strconv"
	"strings"
)

// ClockState is the result of mapping (period, clock, status) onto game
// seconds for one sport's clock structure.
type ClockState struct {
	SecondsRemaining int // regulation seconds left, or seconds left in the current OT
	SecondsElapsed   int // never shrinks across an overtime boundary
	OvertimePeriods  int // completed-or-current OT periods, 0 in regulation
}

// parseClock reads a "MM:SS" display clock. Anything malformed reports
// !ok so callers can fall back to the start of the period.
func parseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, false
	}
	mins, err := strconv.Atoi(parts[0])
	if err != nil || mins < 0 {
		return 0, false
	}
	secs, err := strconv.Atoi(parts[1])
	if err != nil || secs < 0 || secs > 59 {
		return 0, false
	}
	return mins*60 + secs, true
}

// GameClock converts a game's current period, display clock, and status
// into elapsed and remaining seconds. It never fails: missing or
// malformed inputs degrade to the start of the current period, because
// this feeds a best-effort live estimate rather than a ledger.
func (c SportConfig) GameClock(period int, clock string, status GameStatus) ClockState {
	if period < 1 {
		period = 1
	}
	totalReg := c.TotalRegulationSeconds()

	// Halftime and other intermissions sit on the period boundary: the
	// clock reads full time for the upcoming period.
	if status == StatusHalftime && period <= c.RegulationPeriods {
		remaining := (c.RegulationPeriods - period) * c.SecondsPerPeriod
		return ClockState{
			SecondsRemaining: remaining,
			SecondsElapsed:   totalReg - remaining,
		}
	}

	if period > c.RegulationPeriods {
		// Overtime periods are shorter and open-ended in count. The
		// elapsed baseline at the start of any OT is the full regulation
		// time, which guards against clock resets shrinking elapsed.
		otIndex := period - c.RegulationPeriods
		secs, ok := parseClock(clock)
		if !ok || secs > c.OvertimeSeconds {
			secs = c.OvertimeSeconds
		}
		elapsed := totalReg + (otIndex-1)*c.OvertimeSeconds + (c.OvertimeSeconds - secs)
		if elapsed < totalReg {
			elapsed = totalReg
		}
		return ClockState{
			SecondsRemaining: secs,
			SecondsElapsed:   elapsed,
			OvertimePeriods:  otIndex,
		}
	}

	secs, ok := parseClock(clock)
	if !ok || secs > c.SecondsPerPeriod {
		secs = c.SecondsPerPeriod
	}
	remaining := (c.RegulationPeriods-period)*c.SecondsPerPeriod + secs
	return ClockState{
		SecondsRemaining: remaining,
		SecondsElapsed:   totalReg - remaining,
	}
}
