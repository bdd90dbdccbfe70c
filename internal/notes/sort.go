package notes

import (
	"sort"
	"time"

	"github.com/xaenox/stickytab/internal/models"
)

// sortNotes orders pinned notes first, most recently pinned on top, then
// unpinned notes newest first. Ties keep their current relative order.
func sortNotes(list []models.Note) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch {
		case a.Pinned && b.Pinned:
			return pinTime(a).After(pinTime(b))
		case a.Pinned:
			return true
		case b.Pinned:
			return false
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
}

func pinTime(n models.Note) time.Time {
	if n.PinnedAt != nil {
		return *n.PinnedAt
	}
	return n.Timestamp
}

// firstUnpinned returns the index new notes are inserted at.
func firstUnpinned(list []models.Note) int {
	for i, n := range list {
		if !n.Pinned {
			return i
		}
	}
	return len(list)
}
