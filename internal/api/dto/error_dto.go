package dto

import "time"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error     string    `json:"error" example:"Invalid request"`
	Message   string    `json:"message" example:"limit must be between 1 and 1000"`
	Timestamp time.Time `json:"timestamp" example:"2025-01-18T12:34:56Z"`
}
