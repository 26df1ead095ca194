// Package model contains domain models passed between layers.
package model

// Employee is a raw HR record as submitted for training or prediction.
// Fields mirror the JSON shape accepted by /predict and /train.
type Employee struct {
	SatisfactionLevel   float64 `json:"satisfaction_level"`
	LastEvaluation      float64 `json:"last_evaluation"`
	NumberProject       int     `json:"number_project" validate:"gte=0"`
	AverageMonthlyHours int     `json:"average_monthly_hours" validate:"gte=0"`
	TimeSpendCompany    int     `json:"time_spend_company" validate:"gte=0"`
	WorkAccident        bool    `json:"work_accident"`
	PromotionLast5Years bool    `json:"promotion_last_5years"`
	Salary              string  `json:"salary" validate:"required"`
	Department          string  `json:"department" validate:"required"`
}

// TrainingRow is a historical employee record with its turnover label.
type TrainingRow struct {
	Employee
	Left bool `json:"left"`
}
