package db

import (
	"time"

	"github.com/google/uuid"
)

// Run is one row of compression_runs
type Run struct {
	ID              uuid.UUID   `json:"id"`
	Role            string      `json:"role"`
	Status          string      `json:"status"`
	FinalScore      int         `json:"final_score"`
	PageCount       int         `json:"page_count"`
	Iterations      int         `json:"iterations"`
	Pressure        float64     `json:"pressure"`
	Tier            string      `json:"tier"`
	EscalationLevel int         `json:"escalation_level"`
	ErrorMessage    *string     `json:"error_message,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	History         []Iteration `json:"history,omitempty"`
}

// Iteration is one row of compression_iterations
type Iteration struct {
	Iteration       int       `json:"iteration"`
	RawScore        int       `json:"raw_score"`
	AdjustedScore   int       `json:"adjusted_score"`
	PageCount       int       `json:"page_count"`
	Pressure        float64   `json:"pressure"`
	EscalationLevel int       `json:"escalation_level"`
	Passed          bool      `json:"passed"`
	RolledBack      bool      `json:"rolled_back"`
	ReviewSource    string    `json:"review_source"`
	CreatedAt       time.Time `json:"created_at"`
}
