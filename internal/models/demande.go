package models

import "time"

// DemandeStatus - lifecycle status of an SOS demande.
type DemandeStatus string

const (
	StatusPending  DemandeStatus = "pending"  // submitted, waiting for an admin
	StatusAccepted DemandeStatus = "accepted" // an admin took the demande in charge
	StatusDone     DemandeStatus = "done"     // assistance delivered
)

// AllStatuses lists every valid demande status.
var AllStatuses = []DemandeStatus{StatusPending, StatusAccepted, StatusDone}

// IsValidStatus reports whether s is one of the three known statuses.
func IsValidStatus(s DemandeStatus) bool {
	for _, valid := range AllStatuses {
		if s == valid {
			return true
		}
	}
	return false
}

// Demande represents a single SOS submission.
// UserID is nil for anonymous submissions; visibility rules key off that.
type Demande struct {
	ID        string        `json:"id"`
	UserID    *string       `json:"user_id,omitempty"`
	Nom       string        `json:"nom"`
	Prenom    string        `json:"prenom"`
	Telephone string        `json:"telephone"`
	Adresse   string        `json:"adresse"`
	Latitude  *float64      `json:"latitude,omitempty"`
	Longitude *float64      `json:"longitude,omitempty"`
	Status    DemandeStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// DemandeRequest represents the request body for creating a demande.
type DemandeRequest struct {
	Nom       string   `json:"nom"`
	Prenom    string   `json:"prenom"`
	Telephone string   `json:"telephone"`
	Adresse   string   `json:"adresse"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// AnonymousDemandeView is the redacted response for anonymous submissions.
// It never carries an owner reference.
type AnonymousDemandeView struct {
	ID        string        `json:"id"`
	Nom       string        `json:"nom"`
	Prenom    string        `json:"prenom"`
	Telephone string        `json:"telephone"`
	Adresse   string        `json:"adresse"`
	Status    DemandeStatus `json:"status"`
	CreatedAt string        `json:"created_at"`
}

// NewAnonymousView builds the redacted view of a demande.
func NewAnonymousView(d *Demande) *AnonymousDemandeView {
	return &AnonymousDemandeView{
		ID:        d.ID,
		Nom:       d.Nom,
		Prenom:    d.Prenom,
		Telephone: d.Telephone,
		Adresse:   d.Adresse,
		Status:    d.Status,
		CreatedAt: d.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
