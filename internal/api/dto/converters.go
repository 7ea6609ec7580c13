package dto

import (
	"github.com/RyadPasha/event-hub-data-processor/internal/domain"
)

// ToRecordResponse converts domain.DeliveryRecord to dto.RecordResponse
func ToRecordResponse(record *domain.DeliveryRecord) *RecordResponse {
	if record == nil {
		return nil
	}

	return &RecordResponse{
		ID:        record.ID,
		Content:   record.Content,
		Timestamp: record.Timestamp,
	}
}

// ToRecordListResponse converts a slice of domain.DeliveryRecord to dto.RecordListResponse
func ToRecordListResponse(records []*domain.DeliveryRecord, total int64) *RecordListResponse {
	responses := make([]*RecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, ToRecordResponse(record))
	}

	return &RecordListResponse{
		Records: responses,
		Count:   len(responses),
		Total:   total,
	}
}
