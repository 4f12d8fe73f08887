package workitem

import (
	"sort"
	"time"
)

// Compare orders two items for the default listing: severity rank descending
// as the primary key, then breached-SLA items pinned ahead of non-breached
// items of equal severity, then a kind-dependent tie-break. Alerts break ties
// by recency (createdAt descending); approval-chain kinds by SLA deadline
// ascending, since urgency there is time-bound rather than purely
// severity-bound. Items without a deadline sort after those with one.
//
// Returns <0 if a sorts before b, >0 if after, 0 if equal. Equal items keep
// their relative input order under SortDefault (stable), so repeated listings
// of unchanged data never reorder.
func Compare(a, b WorkItem, now time.Time) int {
	if ar, br := a.Severity.Rank(), b.Severity.Rank(); ar != br {
		return br - ar
	}

	if ab, bb := IsBreached(a, now), IsBreached(b, now); ab != bb {
		if ab {
			return -1
		}
		return 1
	}

	if a.Kind == KindMerchAlert && b.Kind == KindMerchAlert {
		switch {
		case a.CreatedAt.After(b.CreatedAt):
			return -1
		case b.CreatedAt.After(a.CreatedAt):
			return 1
		}
		return 0
	}

	ad, aok := Deadline(a)
	bd, bok := Deadline(b)
	switch {
	case aok && bok:
		switch {
		case ad.Before(bd):
			return -1
		case bd.Before(ad):
			return 1
		}
		return 0
	case aok:
		return -1
	case bok:
		return 1
	}

	// Neither carries a deadline; fall back to recency.
	switch {
	case a.CreatedAt.After(b.CreatedAt):
		return -1
	case b.CreatedAt.After(a.CreatedAt):
		return 1
	}
	return 0
}

// SortDefault sorts items in place by the default ranker order. Stable.
func SortDefault(items []WorkItem, now time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return Compare(items[i], items[j], now) < 0
	})
}

// SortBy sorts items in place by a single-field override. Stable, so equal
// keys keep relative input order.
func SortBy(items []WorkItem, s Sort, now time.Time) {
	if s.Field == SortDefaultRank {
		SortDefault(items, now)
		return
	}

	less := func(a, b WorkItem) bool {
		switch s.Field {
		case SortCreatedAt:
			return a.CreatedAt.Before(b.CreatedAt)
		case SortUpdatedAt:
			return a.UpdatedAt.Before(b.UpdatedAt)
		case SortSeverity:
			return a.Severity.Rank() < b.Severity.Rank()
		case SortDeadline:
			ad, aok := Deadline(a)
			bd, bok := Deadline(b)
			if aok != bok {
				return aok // deadline-less items last in ascending order
			}
			return ad.Before(bd)
		case SortStatus:
			return a.Status < b.Status
		}
		return false
	}

	sort.SliceStable(items, func(i, j int) bool {
		if s.Desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}
