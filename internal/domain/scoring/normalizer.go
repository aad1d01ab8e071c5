package scoring

import (
	"github.com/challengefit/workout-challenge/internal/domain/goal"
	"github.com/challengefit/workout-challenge/internal/domain/user"
	"github.com/challengefit/workout-challenge/internal/domain/workout"
)

// kcalToKilojoule converts burned calories to kilojoules of mechanical work.
const kcalToKilojoule = 4.18

// RawPoints normalizes one workout against one goal to a 0..100-per-target
// scale. A workout exactly meeting the target earns 100 raw points. Missing
// metrics yield zero, never an error; target validity is the goal creator's
// responsibility.
func RawPoints(g goal.Goal, w workout.Workout, u user.User) float64 {
	scalingKcal := u.ScalingKcal
	if scalingKcal == 0 {
		scalingKcal = 1
	}
	scalingDistance := u.ScalingDistance
	if scalingDistance == 0 {
		scalingDistance = 1
	}

	switch g.Metric {
	case goal.MetricMinutes:
		return w.DurationMinutes() / g.Target * 100
	case goal.MetricCount:
		return 1 / g.Target * 100
	case goal.MetricKcal:
		if w.Kcal == nil {
			return 0
		}
		return *w.Kcal / (g.Target * scalingKcal) * 100
	case goal.MetricKm:
		if w.Distance == nil {
			return 0
		}
		return *w.Distance / (g.Target * scalingDistance) * 100
	case goal.MetricKilojoul:
		if w.Kcal == nil {
			return 0
		}
		return *w.Kcal * kcalToKilojoule / (g.Target * scalingKcal) * 100
	default:
		return 0
	}
}
