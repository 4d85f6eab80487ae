package lifecycle

import "github.com/example/irequest/internal/models"

// Intended status machine: Draft → New → In Progress → {Completed, Rejected}.
// The legacy system never validated transitions, so enforcement is opt-in via
// the strict flag on the Service; permissive mode remains the default.
var transitions = map[models.StatusKind][]models.StatusKind{
	models.StatusDraft:      {models.StatusNew},
	models.StatusNew:        {models.StatusInProgress},
	models.StatusInProgress: {models.StatusCompleted, models.StatusRejected},
}

func transitionAllowed(from, to models.StatusKind) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
