package lifecycle

import "github.com/pkg/errors"

// Sentinel errors of the life-cycle layer. The HTTP layer owns the mapping to
// status codes; nothing here knows about HTTP.
var (
	// ErrNotFound covers missing requests and, for ownership-guarded
	// updates, id/owner pairs that match nothing. The two are deliberately
	// indistinguishable so existence of other users' drafts never leaks.
	ErrNotFound = errors.New("request not found")

	// ErrForbidden means the actor failed the access check.
	ErrForbidden = errors.New("not allowed to process this request")

	// ErrValidation means the input was rejected before any database write.
	ErrValidation = errors.New("invalid input")
)
