package domain

// QueueName is the priority class an event is routed to.
// The set is closed: every value the Classifier returns is one of the constants below.
type QueueName string

const (
	QueueHighPriority QueueName = "high-priority"
	QueueLowPriority  QueueName = "low-priority"
	QueueDefault      QueueName = "default"
)

// queueSuffix is appended to a QueueName to form the broker-side queue address
const queueSuffix = "-queue"

// AllQueues returns every queue name in a stable order
func AllQueues() []QueueName {
	return []QueueName{QueueHighPriority, QueueLowPriority, QueueDefault}
}

// Classify maps an event type tag to its queue.
// Recognized tags are returned verbatim, anything else falls back to QueueDefault.
func Classify(typeTag string) QueueName {
	switch q := QueueName(typeTag); q {
	case QueueHighPriority, QueueLowPriority, QueueDefault:
		return q
	default:
		return QueueDefault
	}
}

// Address returns the name of the queue on the broker, e.g. "high-priority-queue"
func (q QueueName) Address() string {
	return string(q) + queueSuffix
}

// IsValid reports whether q is a member of the closed enumeration
func (q QueueName) IsValid() bool {
	switch q {
	case QueueHighPriority, QueueLowPriority, QueueDefault:
		return true
	}
	return false
}

func (q QueueName) String() string {
	return string(q)
}
