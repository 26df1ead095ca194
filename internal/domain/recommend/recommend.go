// Package recommend maps encoded features and a risk tier to ordered,
// human-readable retention actions.
package recommend

import (
	"github.com/okian/attrition/internal/domain/features"
	"github.com/okian/attrition/internal/domain/model"
)

// Rule thresholds.
const (
	LowSatisfaction  = 0.3
	OverworkHours    = 250
	StagnantTenure   = 4
	HighSatisfaction = 0.85
)

// Messages emitted by the rules.
const (
	MsgSurvey       = "Consider conducting a satisfaction survey"
	MsgOverworked   = "Employee may be overworked"
	MsgCareer       = "Consider career development opportunities"
	MsgCompensation = "Review compensation package"
	MsgMentor       = "High satisfaction — consider as mentor for other employees"
	MsgGoodStanding = "Employee appears to be in good standing"
	MsgContinue     = "Continue current management approach"
	MsgConversation = "Schedule a retention conversation with the employee"
)

// Input is what the rules see.
type Input struct {
	Features    features.Base
	Probability float64
	Risk        model.RiskLevel
}

// Rule is one recommendation. Risk rules suppress the baseline messages.
type Rule struct {
	Name    string
	Message string
	Risk    bool
	Applies func(Input) bool
}

// Rules are evaluated in order; the most actionable advice comes first.
var Rules = []Rule{
	{
		Name: "low_satisfaction", Message: MsgSurvey, Risk: true,
		Applies: func(in Input) bool { return in.Features.SatisfactionLevel < LowSatisfaction },
	},
	{
		Name: "overworked", Message: MsgOverworked, Risk: true,
		Applies: func(in Input) bool { return in.Features.AverageMonthlyHours > OverworkHours },
	},
	{
		Name: "career_stagnation", Message: MsgCareer, Risk: true,
		Applies: func(in Input) bool {
			return in.Features.TimeSpendCompany >= StagnantTenure && !in.Features.PromotionLast5Years
		},
	},
	{
		Name: "compensation", Message: MsgCompensation, Risk: true,
		Applies: func(in Input) bool {
			return in.Features.Salary == features.SalaryLow && (in.Risk == model.RiskMedium || in.Risk == model.RiskHigh)
		},
	},
	{
		Name: "mentor", Message: MsgMentor,
		Applies: func(in Input) bool {
			return in.Features.SatisfactionLevel >= HighSatisfaction && in.Risk == model.RiskLow
		},
	},
}

// Recommend evaluates Rules against in. The result is never empty: a Low-risk
// employee with no risk rule gets the good-standing pair, anyone else gets a
// retention conversation.
func Recommend(in Input) []string {
	out := make([]string, 0, 4)
	riskFired := false
	for _, r := range Rules {
		if r.Applies(in) {
			out = append(out, r.Message)
			riskFired = riskFired || r.Risk
		}
	}
	if riskFired {
		return out
	}
	if in.Risk == model.RiskLow {
		return append(out, MsgGoodStanding, MsgContinue)
	}
	return append(out, MsgConversation)
}
