// Package normalize converts loosely-typed portal API payloads into model
// values. Every function is total: absent or wrong-typed fields fall back
// to defaults, nothing returns an error.
package normalize

import (
	"time"

	"github.com/aawaaz/grievance-portal/internal/assets"
	"github.com/aawaaz/grievance-portal/internal/models"
)

// Normalizer builds model values from raw payloads
type Normalizer struct {
	assets *assets.Resolver
	now    func() time.Time
}

// New creates a normalizer that resolves file references with the given resolver
func New(resolver *assets.Resolver) *Normalizer {
	if resolver == nil {
		resolver = assets.NewResolver("")
	}
	return &Normalizer{assets: resolver, now: time.Now}
}

// WithClock returns a copy of n that stamps missing timestamps with now().
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	cp := *n
	cp.now = now
	return &cp
}

// Assets returns the attachment resolver used by n
func (n *Normalizer) Assets() *assets.Resolver {
	return n.assets
}

// idOf accepts a Mongo-style "_id" or a plain "id"
func idOf(r Raw) string {
	return r.str(at("_id"), at("id"))
}

// User normalizes a user payload
func (n *Normalizer) User(v any) models.User {
	r := asRaw(v)
	return models.User{
		ID:           idOf(r),
		Name:         r.str(at("name")),
		Email:        r.str(at("email")),
		Role:         roleOf(r.str(at("role"))),
		StudentID:    r.str(at("studentId")),
		Department:   r.str(at("department")),
		ProfilePhoto: n.assets.Resolve(firstPresent(r, at("profilePhoto"), at("profilePhotoUrl"), at("avatar"))),
		CreatedAt:    r.timestamp(n.now(), at("createdAt")),
	}
}

// Users normalizes a list of user payloads
func (n *Normalizer) Users(v any) []models.User {
	items, _ := v.([]any)
	out := make([]models.User, 0, len(items))
	for _, item := range items {
		out = append(out, n.User(item))
	}
	return out
}

func roleOf(s string) models.Role {
	switch models.Role(s) {
	case models.RoleStaff:
		return models.RoleStaff
	case models.RoleAdmin:
		return models.RoleAdmin
	}
	return models.RoleStudent
}

func firstPresent(r Raw, paths ...path) any {
	for _, p := range paths {
		if v, ok := r.get(p); ok && truthy(v) {
			return v
		}
	}
	return nil
}
