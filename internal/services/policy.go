package services

import "github.com/anonto42/microsocial/backend/internal/models"

// Actor is the authenticated principal performing an operation
type Actor struct {
	ID   uint
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanModify reports whether actor may change a resource owned by ownerID:
// the owner themself, or any admin.
func CanModify(actor Actor, ownerID uint) bool {
	if actor.ID == 0 {
		return false
	}
	return actor.ID == ownerID || actor.IsAdmin()
}

// Authorize is CanModify as an error
func Authorize(actor Actor, ownerID uint) error {
	if !CanModify(actor, ownerID) {
		return ErrForbidden
	}
	return nil
}
