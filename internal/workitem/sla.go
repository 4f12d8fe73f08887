package workitem

import "time"

// Deadline returns the producer-assigned SLA deadline, if any. The engine
// never computes or mutates deadlines.
func Deadline(item WorkItem) (time.Time, bool) {
	if item.SLADeadline == nil {
		return time.Time{}, false
	}
	return *item.SLADeadline, true
}

// IsBreached reports whether the item is overdue. Pure function of
// (deadline, status, now): breached iff the item is still pending, carries a
// deadline, and now is past it.
//
// Breach is advisory. It changes ranking and surfaces as an overdue count but
// never forces a transition; moving a breached item out of pending requires
// an explicit expire decision from the external scheduler.
func IsBreached(item WorkItem, now time.Time) bool {
	if item.Status != StatusPending {
		return false
	}
	d, ok := Deadline(item)
	if !ok {
		return false
	}
	return now.After(d)
}
