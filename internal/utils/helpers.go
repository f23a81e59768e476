package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/assistancekmy/sos-service/internal/models"
)

// SendJSON writes a JSON payload with the given status code.
func SendJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Println(err)
	}
}

// SendError writes an error envelope {success:false, message, errors?}.
func SendError(w http.ResponseWriter, errResp *models.ErrorResponse) {
	payload := map[string]interface{}{
		"success": false,
		"message": errResp.Message,
	}
	if len(errResp.Errors) > 0 {
		payload["errors"] = errResp.Errors
	}
	SendJSON(w, errResp.StatusCode, payload)
}

// SendErrorResponse writes a plain error envelope with a status and message.
func SendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	SendError(w, models.NewErrorResponse(statusCode, message))
}

// ValidateDemandeRequest checks the contact and location constraints shared by
// the authenticated and anonymous submission paths. Returns nil when valid.
func ValidateDemandeRequest(req models.DemandeRequest) *models.ErrorResponse {
	fieldErrors := map[string][]string{}

	requireBounded(fieldErrors, "nom", req.Nom, 255)
	requireBounded(fieldErrors, "prenom", req.Prenom, 255)
	requireBounded(fieldErrors, "telephone", req.Telephone, 20)
	requireBounded(fieldErrors, "adresse", req.Adresse, 500)

	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		fieldErrors["latitude"] = append(fieldErrors["latitude"], "The latitude must be between -90 and 90.")
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		fieldErrors["longitude"] = append(fieldErrors["longitude"], "The longitude must be between -180 and 180.")
	}

	if len(fieldErrors) > 0 {
		return models.NewValidationError("Données invalides", fieldErrors)
	}
	return nil
}

func requireBounded(fieldErrors map[string][]string, field, value string, maxLen int) {
	if value == "" {
		fieldErrors[field] = append(fieldErrors[field], fmt.Sprintf("The %s field is required.", field))
		return
	}
	if len(value) > maxLen {
		fieldErrors[field] = append(fieldErrors[field], fmt.Sprintf("The %s may not be greater than %d characters.", field, maxLen))
	}
}

// ParseStatusFilter validates optional status query values against the enum.
func ParseStatusFilter(values []string) ([]string, *models.ErrorResponse) {
	var statuses []string
	for _, value := range values {
		if value == "" {
			continue
		}
		if !models.IsValidStatus(models.DemandeStatus(value)) {
			return nil, models.NewValidationError("Données invalides", map[string][]string{
				"status": {fmt.Sprintf("The selected status is invalid: %s.", value)},
			})
		}
		statuses = append(statuses, value)
	}
	return statuses, nil
}
