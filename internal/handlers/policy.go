package handlers

import (
	"net/http"

	"github.com/benvon/corsgate/internal/models"
	"github.com/gorilla/mux"
)

// CorsPolicyHandler exposes the registered CORS rule read-only.
type CorsPolicyHandler struct {
	rule models.CorsRule
}

// NewCorsPolicyHandler keeps a private copy of rule.
func NewCorsPolicyHandler(rule models.CorsRule) *CorsPolicyHandler {
	return &CorsPolicyHandler{rule: rule.Clone()}
}

// RegisterRoutes registers the policy routes on r
func (h *CorsPolicyHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/cors-policy", h.GetPolicy).Methods(http.MethodGet, http.MethodHead)
}

// GetPolicy serves the effective rule
func (h *CorsPolicyHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.rule.Clone())
}
