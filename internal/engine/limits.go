package engine

import (
	"fmt"

	"github.com/goodtune/tokenmon/internal/session"
)

// Plan identifies a quota tier.
type Plan string

// Known plans. PlanCustomMax infers its ceiling from historical blocks.
const (
	PlanPro       Plan = "pro"
	PlanMax5      Plan = "max5"
	PlanMax20     Plan = "max20"
	PlanCustomMax Plan = "custom_max"
)

var planCeilings = map[Plan]int{
	PlanPro:   7000,
	PlanMax5:  35000,
	PlanMax20: 140000,
}

// ParsePlan validates a plan name from configuration.
func ParsePlan(s string) (Plan, error) {
	switch p := Plan(s); p {
	case PlanPro, PlanMax5, PlanMax20, PlanCustomMax:
		return p, nil
	default:
		return "", fmt.Errorf("unknown plan %q (want pro, max5, max20 or custom_max)", s)
	}
}

// TokenLimit resolves the active quota. Fixed plans return their ceiling.
// PlanCustomMax scans completed non-gap blocks for the highest token count
// and buckets it up to the smallest fixed tier that accommodates it,
// falling back to the pro ceiling when no block qualifies.
func (e *Engine) TokenLimit(plan Plan, blocks []session.Block) int {
	if plan != PlanCustomMax {
		key := "limit_" + string(plan)
		if limit, ok := e.limits.Get(key, 0); ok {
			return limit
		}
		limit, ok := planCeilings[plan]
		if !ok {
			limit = planCeilings[PlanPro]
		}
		e.limits.Set(key, limit)
		return limit
	}

	maxTokens := 0
	for _, b := range blocks {
		if b.Gap || b.Active {
			continue
		}
		if b.Tokens > maxTokens {
			maxTokens = b.Tokens
		}
	}

	switch {
	case maxTokens > planCeilings[PlanMax5]:
		return planCeilings[PlanMax20]
	case maxTokens > planCeilings[PlanPro]:
		return planCeilings[PlanMax5]
	default:
		return planCeilings[PlanPro]
	}
}
