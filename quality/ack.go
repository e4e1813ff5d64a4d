package quality

import (
	"sort"
	"time"
)

// =============================================================================
// ACKNOWLEDGEMENTS
// =============================================================================

// Acknowledgement marks an issue id as reviewed. It lives outside the scan
// and is matched back to issues by id.
type Acknowledgement struct {
	IssueID        string    `json:"issue_id"`
	AcknowledgedBy string    `json:"acknowledged_by"`
	AcknowledgedAt time.Time `json:"acknowledged_at"`
	Note           string    `json:"note,omitempty"`
}

// IssueView is an issue with its acknowledgement, if any.
type IssueView struct {
	Issue
	Acknowledged    bool             `json:"acknowledged"`
	Acknowledgement *Acknowledgement `json:"acknowledgement,omitempty"`
}

// Reconcile overlays acknowledgements on a fresh scan. Acknowledgements
// whose id the scan no longer produces are returned as stale, sorted.
func Reconcile(issues []Issue, acks []Acknowledgement) (views []IssueView, stale []string) {
	byID := make(map[string]Acknowledgement, len(acks))
	for _, a := range acks {
		byID[a.IssueID] = a
	}

	views = make([]IssueView, 0, len(issues))
	live := make(map[string]bool, len(issues))
	for _, is := range issues {
		live[is.ID] = true
		view := IssueView{Issue: is}
		if a, ok := byID[is.ID]; ok {
			view.Acknowledged = true
			view.Acknowledgement = &a
		}
		views = append(views, view)
	}

	for id := range byID {
		if !live[id] {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)
	return views, stale
}

// Unacknowledged filters views down to open issues.
func Unacknowledged(views []IssueView) []IssueView {
	var out []IssueView
	for _, v := range views {
		if !v.Acknowledged {
			out = append(out, v)
		}
	}
	return out
}
