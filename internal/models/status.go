package models

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Status is an enumerated lookup row for the request life-cycle. Rows are
// seeded once and treated as immutable reference data.
type Status struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"uniqueIndex;size:64" json:"name"`
	IsFinal bool   `json:"isFinal"`
}

// Priority is an enumerated lookup with a display sort order. A lower
// SortOrder means more urgent.
type Priority struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"uniqueIndex;size:64" json:"name"`
	SortOrder int    `json:"sortOrder"`
}

// StatusKind identifies the sentinel statuses the life-cycle logic depends on.
type StatusKind int

const (
	StatusDraft StatusKind = iota
	StatusNew
	StatusInProgress
	StatusCompleted
	StatusRejected
)

// Seeded Vietnamese status names. These are data, not translations: the
// production database stores them verbatim.
var statusNames = map[StatusKind]string{
	StatusDraft:      "Nháp",
	StatusNew:        "Mới",
	StatusInProgress: "Đang xử lý",
	StatusCompleted:  "Hoàn thành",
	StatusRejected:   "Từ chối",
}

// Name returns the seeded row name for the kind.
func (k StatusKind) Name() string { return statusNames[k] }

// ErrSeedMissing indicates an expected seed row is absent. It is surfaced at
// startup instead of letting a NOT NULL constraint fail a transaction later.
var ErrSeedMissing = errors.New("expected seed row not found")

// StatusSet maps sentinel status kinds to their stored ids. It is resolved
// once at startup so the life-cycle code never does name-based lookups on the
// hot path.
type StatusSet struct {
	ids   map[StatusKind]uint
	kinds map[uint]StatusKind
}

// ResolveStatusSet loads every sentinel status row and builds the mapping.
func ResolveStatusSet(db *gorm.DB) (*StatusSet, error) {
	set := &StatusSet{
		ids:   make(map[StatusKind]uint, len(statusNames)),
		kinds: make(map[uint]StatusKind, len(statusNames)),
	}
	for kind, name := range statusNames {
		var status Status
		if err := db.First(&status, "name = ?", name).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.Wrapf(ErrSeedMissing, "status %q", name)
			}
			return nil, errors.WithStack(err)
		}
		set.ids[kind] = status.ID
		set.kinds[status.ID] = kind
	}
	return set, nil
}

// ID returns the stored id for the sentinel kind.
func (s *StatusSet) ID(kind StatusKind) uint { return s.ids[kind] }

// Kind reports the sentinel kind for a stored status id, if it is one.
func (s *StatusSet) Kind(id uint) (StatusKind, bool) {
	kind, ok := s.kinds[id]
	return kind, ok
}
