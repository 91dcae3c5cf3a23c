package models

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is a recorded analysis run. Every completed analysis, mock or real,
// is stored so the dashboard can list and reopen past results.
type Analysis struct {
	ID                uuid.UUID      `db:"id"                 json:"id"`
	UserID            string         `db:"user_id"            json:"userId"`
	ProductName       string         `db:"product_name"       json:"productName"`
	Mock              bool           `db:"mock"               json:"mock"`
	ChallengeDetected bool           `db:"challenge_detected" json:"challengeDetected"`
	Steps             int            `db:"steps"              json:"steps"`
	Result            AnalysisResult `db:"result"             json:"result"`
	Transcript        string         `db:"transcript"         json:"transcript,omitempty"`
	CreatedAt         time.Time      `db:"created_at"         json:"createdAt"`
}
