package models

import "time"

// Evaluation представляет модель оценки по завершённой заявке.
type Evaluation struct {
	ID            string    `json:"id"`
	RequestID     string    `json:"request_id"`
	EvaluatorID   string    `json:"evaluator_id"`
	EvaluatedID   string    `json:"evaluated_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment,omitempty"`
	Punctuality   *int      `json:"punctuality,omitempty"`
	Quality       *int      `json:"quality,omitempty"`
	Communication *int      `json:"communication,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// EvaluationInput представляет структуру запроса для подачи оценки.
type EvaluationInput struct {
	RequestID     string `json:"request_id"`
	EvaluatedID   string `json:"evaluated_id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
	Punctuality   *int   `json:"punctuality"`
	Quality       *int   `json:"quality"`
	Communication *int   `json:"communication"`
}

// EvaluationWithEvaluator - оценка вместе с публичными данными оценщика.
type EvaluationWithEvaluator struct {
	Evaluation
	Evaluator AccountSummary `json:"evaluator"`
}

// EvaluationWithEvaluated - оценка вместе с публичными данными оцениваемого.
type EvaluationWithEvaluated struct {
	Evaluation
	Evaluated AccountSummary `json:"evaluated"`
}

// MyEvaluations - полученные и выданные оценки пользователя.
type MyEvaluations struct {
	Received []EvaluationWithEvaluator `json:"received"`
	Given    []EvaluationWithEvaluated `json:"given"`
}
