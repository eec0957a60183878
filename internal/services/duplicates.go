package services

import "github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/models"

// SameIdentity reports whether a and b describe the same posting: company
// and position equal ignoring case, and equal job URLs (two empty URLs
// count as equal).
func SameIdentity(a, b models.Application) bool {
	return keyOf(a) == keyOf(b) && a.JobURL == b.JobURL
}

// IsDuplicate scans existing for an identity match with candidate.
func IsDuplicate(candidate models.Application, existing []models.Application) bool {
	for _, app := range existing {
		if SameIdentity(candidate, app) {
			return true
		}
	}
	return false
}

type identityKey struct {
	company  string
	position string
}

func keyOf(app models.Application) identityKey {
	return identityKey{
		company:  models.IdentityKey(app.Company),
		position: models.IdentityKey(app.Position),
	}
}

// IdentityIndex groups records by case-folded company/position so a
// duplicate check only compares job URLs within one bucket.
type IdentityIndex struct {
	buckets map[identityKey][]models.Application
}

func NewIdentityIndex(apps []models.Application) *IdentityIndex {
	idx := &IdentityIndex{buckets: make(map[identityKey][]models.Application, len(apps))}
	for _, app := range apps {
		idx.Add(app)
	}
	return idx
}

func (idx *IdentityIndex) Add(app models.Application) {
	k := keyOf(app)
	idx.buckets[k] = append(idx.buckets[k], app)
}

func (idx *IdentityIndex) Contains(candidate models.Application) bool {
	return IsDuplicate(candidate, idx.buckets[keyOf(candidate)])
}
