package handlers

import (
	"net/http"
	"time"
)

// Version is overridden at build time with -ldflags "-X ...handlers.Version=...".
var Version = "dev"

type versionResponse struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// VersionInfo serves minimal build information.
func VersionInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, versionResponse{
		Version:   Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
