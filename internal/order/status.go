package order

import "github.com/mperera/lottery-dms/internal/models"

const (
	StatusPending    = "Pending"
	StatusAccepted   = "Accepted"
	StatusBilled     = "Billed"
	StatusReady      = "Ready"
	StatusDispatched = "Dispatched"
	StatusCompleted  = "Completed"
)

// statusRank encodes the display ordering of the lifecycle. Transitions only
// move forward along it.
var statusRank = map[string]int{
	StatusPending:    0,
	StatusAccepted:   1,
	StatusBilled:     2,
	StatusReady:      3,
	StatusDispatched: 4,
	StatusCompleted:  5,
}

func ValidStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition allows any forward move, including skips. Nothing leaves
// Completed and no move goes backward or stays in place.
func CanTransition(from, to string) bool {
	f, ok := statusRank[from]
	if !ok {
		return false
	}
	t, ok := statusRank[to]
	if !ok {
		return false
	}
	if from == StatusCompleted {
		return false
	}
	return t > f
}

type Bucket string

const (
	BucketActive    Bucket = "active"
	BucketCompleted Bucket = "completed"
)

// Classify puts an order in the completed bucket when it is Completed, or
// when it is Dispatched with no transport type recorded: a self-pickup order
// marked Dispatched has nothing left to happen to it. Read-side only, never
// mutates Status.
func Classify(status, transportType string) Bucket {
	if status == StatusCompleted {
		return BucketCompleted
	}
	if status == StatusDispatched && transportType == "" {
		return BucketCompleted
	}
	return BucketActive
}

func ClassifyOrder(o *models.Order) Bucket {
	transport := ""
	if o.Delivery != nil {
		transport = o.Delivery.TransportType
	}
	return Classify(o.Status, transport)
}
