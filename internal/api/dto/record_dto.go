package dto

import "time"

// RecordResponse represents a stored delivery record
type RecordResponse struct {
	ID        string      `json:"id" example:"665f1c2e9b1e8a3d4c5b6a79"`
	Content   interface{} `json:"content"`
	Timestamp time.Time   `json:"timestamp" example:"2025-01-18T12:34:56Z"`
}

// RecordListResponse represents the most recent delivery records
type RecordListResponse struct {
	Records []*RecordResponse `json:"records"`
	Count   int               `json:"count" example:"50"`
	Total   int64             `json:"total" example:"1234"`
}
