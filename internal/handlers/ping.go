package handlers

import (
	"fmt"
	"log"
	"net/http"
)

// PingHandler handles GET /api/ping, the health probe for the mobile client
// and deployments.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, "ok"); err != nil {
		log.Println(err)
	}
}
