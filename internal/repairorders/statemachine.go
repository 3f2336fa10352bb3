package repairorders

import "time"

// successors is the strictly ordered forward path. Skipping a step is not
// allowed. Cancellation is handled separately: it is reachable from any
// non-terminal status.
var successors = map[Status]Status{
	StatusReceived:     StatusDiagnosing,
	StatusDiagnosing:   StatusWaitingParts,
	StatusWaitingParts: StatusRepairing,
	StatusRepairing:    StatusQualityCheck,
	StatusQualityCheck: StatusRepaired,
	StatusRepaired:     StatusDelivered,
}

// CanTransition reports whether target is a legal next status.
func CanTransition(current, target Status) bool {
	if target == StatusCancelled {
		return !current.IsTerminal()
	}
	return successors[current] == target
}

// stampMilestone sets the milestone timestamp associated with the target
// status, if the status has one and it has not been stamped yet. Re-entering
// a status through a parts loop keeps the original timestamp.
func stampMilestone(order *RepairOrder, target Status, now time.Time) {
	switch target {
	case StatusDiagnosing:
		if order.DiagnosisDate == nil {
			order.DiagnosisDate = &now
		}
	case StatusRepairing:
		if order.RepairDate == nil {
			order.RepairDate = &now
		}
	case StatusDelivered:
		if order.DeliveryDate == nil {
			order.DeliveryDate = &now
		}
	}
}
