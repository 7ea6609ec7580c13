package dto

import (
	"time"

	"github.com/RyadPasha/event-hub-data-processor/internal/listener"
	"github.com/RyadPasha/event-hub-data-processor/internal/mq"
	"github.com/RyadPasha/event-hub-data-processor/internal/router"
)

// StatsResponse aggregates pipeline statistics
type StatsResponse struct {
	Router      router.Stats     `json:"router"`
	Listeners   []listener.Stats `json:"listeners"`
	Broker      mq.QueueStats    `json:"broker"`
	RecordCount int64            `json:"record_count"`
	Timestamp   time.Time        `json:"timestamp"`
}
