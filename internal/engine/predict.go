package engine

import "time"

// Prediction combines the burn rate, quota, and reset boundary into a
// depletion estimate plus independent warning flags. Any subset of the
// flags may be set at once.
type Prediction struct {
	TokensLeft          int
	PredictedEnd        time.Time
	OverQuota           bool
	UpgradeTriggered    bool
	ExhaustsBeforeReset bool
}

// Predict estimates when the quota runs out. With a positive burn rate and
// tokens remaining, depletion is now plus tokensLeft/rate minutes;
// otherwise the reset boundary is the horizon.
func Predict(tokensUsed, limit int, rate float64, resetAt, now time.Time, plan Plan) Prediction {
	left := limit - tokensUsed

	p := Prediction{TokensLeft: left}

	if rate > 0 && left > 0 {
		minutes := float64(left) / rate
		p.PredictedEnd = now.Add(time.Duration(minutes * float64(time.Minute)))
	} else {
		p.PredictedEnd = resetAt
	}

	p.OverQuota = tokensUsed > limit
	p.UpgradeTriggered = plan == PlanPro && tokensUsed > planCeilings[PlanPro]
	p.ExhaustsBeforeReset = rate > 0 && p.PredictedEnd.Before(resetAt)

	return p
}

// Velocity bands a burn rate into a coarse label for display.
func Velocity(rate float64) string {
	switch {
	case rate < 50:
		return "slow"
	case rate < 150:
		return "normal"
	case rate < 300:
		return "fast"
	default:
		return "very fast"
	}
}
