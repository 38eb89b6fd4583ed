package models

import (
	"time"

	"github.com/google/uuid"
)

// QueryType is the archetype of a rendered recommendation prompt.
type QueryType string

const (
	QueryGeneral    QueryType = "general"
	QueryLuxury     QueryType = "luxury"
	QueryRelocation QueryType = "relocation"
	QueryFirstTime  QueryType = "first_time"
	QueryInvestment QueryType = "investment"
)

// Scan is one provider's answer to one prompt, with the parsed mention.
type Scan struct {
	ID          uuid.UUID  `db:"id"          json:"id"`
	BatchID     uuid.UUID  `db:"batch_id"    json:"batch_id"`
	UserID      uuid.UUID  `db:"user_id"     json:"user_id"`
	AgentName   string     `db:"agent_name"  json:"agent_name"`
	Location    string     `db:"location"    json:"location"`
	Provider    Provider   `db:"provider"    json:"provider"`
	Model       string     `db:"model"       json:"model"`
	Prompt      string     `db:"prompt"      json:"prompt"`
	QueryType   QueryType  `db:"query_type"  json:"query_type"`
	Response    string     `db:"response"    json:"response"`
	Mentioned   bool       `db:"mentioned"   json:"mentioned"`
	Rank        *int       `db:"rank"        json:"rank,omitempty"`
	Context     *string    `db:"context"     json:"context,omitempty"`
	Sentiment   *Sentiment `db:"sentiment"   json:"sentiment,omitempty"`
	Competitors []string   `db:"competitors" json:"competitors"`
	Citations   []string   `db:"citations"   json:"citations,omitempty"`
	Tokens      int        `db:"tokens"      json:"tokens"`
	LatencyMs   int64      `db:"latency_ms"  json:"latency_ms"`
	Error       *string    `db:"error"       json:"error,omitempty"`
	CreatedAt   time.Time  `db:"created_at"  json:"created_at"`
}

// ScanBatch groups the scans produced by one scan run.
type ScanBatch struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	UserID    uuid.UUID `db:"user_id"    json:"user_id"`
	AgentName string    `db:"agent_name" json:"agent_name"`
	Location  string    `db:"location"   json:"location"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Scans     []Scan    `db:"-"          json:"scans"`
}
