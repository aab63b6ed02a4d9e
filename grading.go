package predictions

import (
	"context"
	"fmt"
	"math"
	"time"
)

// GradingEngine batch-compares ungraded predictions against final scores.
// Selection excludes already-graded rows, which is what makes re-running a
// batch a no-op.
type GradingEngine struct {
	games GameStore
	preds PredictionStore
	now   nowFunc
}

func NewGradingEngine(games GameStore, preds PredictionStore) *GradingEngine {
	return &GradingEngine{games: games, preds: preds, now: time.Now}
}

// GradeBatch grades every ungraded prediction for a league whose game is
// final with both scores populated. season 0 means all seasons. Returns
// aggregate stats for reporting; the per-prediction writes are the real
// output.
func (e *GradingEngine) GradeBatch(ctx context.Context, league string, season int) (*GradingSummary, error) {
	pending, err := e.preds.ListUngraded(ctx, league, season)
	if err != nil {
		return nil, fmt.Errorf("list ungraded predictions: %w", err)
	}

	summary := &GradingSummary{League: league, Season: season}
	var spreadErrSum, totalErrSum float64
	correct := 0

	for _, pred := range pending {
		game, err := e.games.Get(ctx, league, pred.GameID)
		if err != nil {
			return nil, fmt.Errorf("load game %s: %w", pred.GameID, err)
		}
		if game == nil || game.Status != StatusFinal || !game.HasScores() {
			continue
		}

		hs, as := game.Score()
		grades := gradePrediction(pred, hs, as, e.now())
		if err := e.preds.SetGrades(ctx, pred.GameID, grades); err != nil {
			return nil, fmt.Errorf("write grades for game %s: %w", pred.GameID, err)
		}

		summary.Graded++
		spreadErrSum += grades.SpreadError
		totalErrSum += grades.TotalError
		if grades.WinnerCorrect {
			correct++
		}
		if grades.WinnerResult == WinnerPush {
			summary.Pushes++
		}
	}

	if summary.Graded > 0 {
		summary.WinnerAccuracy = round2(float64(correct) / float64(summary.Graded) * 100)
		summary.MeanSpreadError = round2(spreadErrSum / float64(summary.Graded))
		summary.MeanTotalError = round2(totalErrSum / float64(summary.Graded))
	}
	return summary, nil
}

// gradePrediction computes the grading group for one final game.
func gradePrediction(pred *PredictionRecord, homeScore, awayScore int, at time.Time) GradeGroup {
	actualSpread := float64(homeScore - awayScore)
	actualTotal := float64(homeScore + awayScore)

	result := winnerResult(pred.Spread, actualSpread)
	return GradeGroup{
		ActualSpread:  actualSpread,
		ActualTotal:   actualTotal,
		SpreadError:   math.Abs(actualSpread - pred.Spread),
		TotalError:    math.Abs(actualTotal - pred.Total),
		WinnerCorrect: result == WinnerCorrect,
		WinnerResult:  result,
		GradedAt:      at,
	}
}

// winnerResult compares spread signs. An exact tie against a nonzero
// predicted spread counts as incorrect but carries the push tag so
// callers can special-case it.
func winnerResult(predicted, actual float64) WinnerResult {
	if actual == 0 {
		return WinnerPush
	}
	if (predicted > 0) == (actual > 0) && predicted != 0 {
		return WinnerCorrect
	}
	return WinnerIncorrect
}
