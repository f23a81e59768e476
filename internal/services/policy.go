package services

import "github.com/assistancekmy/sos-service/internal/models"

// Access policy. Role is the sole authorization axis: there are exactly two
// actor classes and no intermediate role in this domain. Anonymous callers
// never reach these checks; their only permitted operation is the anonymous
// submission path.

// CanListAll reports whether the actor may list every demande.
func CanListAll(actor *models.User) bool {
	return actor != nil && actor.Role == models.RoleAdmin
}

// CanView reports whether the actor may view the given demande.
func CanView(actor *models.User, demande *models.Demande) bool {
	if actor == nil {
		return false
	}
	if actor.Role == models.RoleAdmin {
		return true
	}
	return demande.UserID != nil && *demande.UserID == actor.ID
}

// CanMutateStatus reports whether the actor may change demande statuses.
func CanMutateStatus(actor *models.User) bool {
	return actor != nil && actor.Role == models.RoleAdmin
}

// CanDelete reports whether the actor may delete demandes.
func CanDelete(actor *models.User) bool {
	return actor != nil && actor.Role == models.RoleAdmin
}
