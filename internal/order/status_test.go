package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mperera/lottery-dms/internal/models"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    string
		transport string
		want      Bucket
	}{
		{"completed is always completed", StatusCompleted, "", BucketCompleted},
		{"completed with transport is completed", StatusCompleted, "bus", BucketCompleted},
		{"dispatched self-pickup counts as completed", StatusDispatched, "", BucketCompleted},
		{"dispatched with transport stays active", StatusDispatched, "bus", BucketActive},
		{"pending is active", StatusPending, "", BucketActive},
		{"ready with transport is active", StatusReady, "bus", BucketActive},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(tt.status, tt.transport))
		})
	}
}

func TestClassifyOrder_NoDeliveryRecord(t *testing.T) {
	t.Parallel()

	// No delivery row at all behaves like an empty transport type.
	o := &models.Order{Status: StatusDispatched}
	assert.Equal(t, BucketCompleted, ClassifyOrder(o))

	o = &models.Order{Status: StatusDispatched, Delivery: &models.Delivery{TransportType: "lorry"}}
	assert.Equal(t, BucketActive, ClassifyOrder(o))
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"single step forward", StatusPending, StatusAccepted, true},
		{"skip ahead", StatusPending, StatusReady, true},
		{"all the way to completed", StatusAccepted, StatusCompleted, true},
		{"backward is rejected", StatusBilled, StatusAccepted, false},
		{"same state is rejected", StatusReady, StatusReady, false},
		{"nothing leaves completed", StatusCompleted, StatusDispatched, false},
		{"unknown source", "Cancelled", StatusAccepted, false},
		{"unknown target", StatusPending, "Cancelled", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestValidStatus(t *testing.T) {
	t.Parallel()

	for _, s := range []string{StatusPending, StatusAccepted, StatusBilled, StatusReady, StatusDispatched, StatusCompleted} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("Rejected"))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("pending"))
}
