package repairorders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionFollowsOrderedPath(t *testing.T) {
	chain := []Status{
		StatusReceived, StatusDiagnosing, StatusWaitingParts, StatusRepairing,
		StatusQualityCheck, StatusRepaired, StatusDelivered,
	}
	for i := 0; i < len(chain)-1; i++ {
		assert.True(t, CanTransition(chain[i], chain[i+1]), "%s -> %s", chain[i], chain[i+1])
	}
}

func TestCanTransitionRejectsSkips(t *testing.T) {
	cases := []struct {
		from, to Status
	}{
		{StatusReceived, StatusRepairing},
		{StatusReceived, StatusDelivered},
		{StatusDiagnosing, StatusRepaired},
		{StatusRepairing, StatusDelivered},
		{StatusDelivered, StatusReceived},
		{StatusRepaired, StatusRepairing}, // no going back
	}
	for _, tc := range cases {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCancellationReachableFromAnyNonTerminal(t *testing.T) {
	for _, from := range []Status{
		StatusReceived, StatusDiagnosing, StatusWaitingParts,
		StatusRepairing, StatusQualityCheck, StatusRepaired,
	} {
		assert.True(t, CanTransition(from, StatusCancelled), "%s -> CANCELLED", from)
	}
	assert.False(t, CanTransition(StatusDelivered, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusCancelled))
}

func TestStampMilestoneKeepsFirstTimestamp(t *testing.T) {
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	order := &RepairOrder{}
	stampMilestone(order, StatusRepairing, first)
	stampMilestone(order, StatusRepairing, later)

	if assert.NotNil(t, order.RepairDate) {
		assert.Equal(t, first, *order.RepairDate)
	}
	assert.Nil(t, order.DiagnosisDate)
	assert.Nil(t, order.DeliveryDate)
}
