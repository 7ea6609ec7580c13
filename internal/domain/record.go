package domain

import "time"

// DeliveryRecord is the persisted evidence that a queue message was received.
// Documents in the processed_events collection have exactly this shape.
type DeliveryRecord struct {
	// ID is assigned by the store on insert
	ID string `json:"id" bson:"-"`

	// Content is the message payload, stored verbatim as a structured value
	Content interface{} `json:"content" bson:"content"`

	// Timestamp is the receipt time; stores default it to write time when zero
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// NewDeliveryRecord builds a record for payload received at receivedAt
func NewDeliveryRecord(payload []byte, receivedAt time.Time) *DeliveryRecord {
	return &DeliveryRecord{
		Content:   DecodeContent(payload),
		Timestamp: receivedAt,
	}
}
