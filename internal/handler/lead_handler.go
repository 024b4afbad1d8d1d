package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/dripcampaign-backend/internal/errors"
	"github.com/unclebandit/dripcampaign-backend/internal/service"
)

// LeadHandler hosts the lead-facing routes: enrollment (single and bulk),
// listing by status, and the do-not-contact opt-out.
type LeadHandler struct {
	Service *service.CampaignService
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case appErrors.IsValidation(err):
		status = http.StatusBadRequest
	case appErrors.IsNotFound(err):
		status = http.StatusNotFound
	case appErrors.IsDomainState(err):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// EnrollLeads accepts either a single lead object or a bulk list.
func (h *LeadHandler) EnrollLeads(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || campaignID <= 0 {
		writeError(w, appErrors.NewValidation("id", "must be a positive integer"))
		return
	}

	var body struct {
		Phone string              `json:"phone"`
		Notes string              `json:"notes"`
		Leads []service.LeadInput `json:"leads"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewValidation("body", "invalid JSON"))
		return
	}

	inputs := body.Leads
	if len(inputs) == 0 && body.Phone != "" {
		inputs = []service.LeadInput{{Phone: body.Phone, Notes: body.Notes}}
	}

	leads, err := h.Service.EnrollLeads(campaignID, inputs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"enrolled": len(leads),
		"leads":    leads,
	})
}

func (h *LeadHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || campaignID <= 0 {
		writeError(w, appErrors.NewValidation("id", "must be a positive integer"))
		return
	}

	leads, err := h.Service.LeadsByStatus(campaignID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": leads})
}

func (h *LeadHandler) LeadHistory(w http.ResponseWriter, r *http.Request) {
	leadID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || leadID <= 0 {
		writeError(w, appErrors.NewValidation("id", "must be a positive integer"))
		return
	}

	lead, records, err := h.Service.LeadHistory(leadID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lead":    lead,
		"history": records,
	})
}

func (h *LeadHandler) DoNotContact(w http.ResponseWriter, r *http.Request) {
	leadID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || leadID <= 0 {
		writeError(w, appErrors.NewValidation("id", "must be a positive integer"))
		return
	}

	if err := h.Service.DoNotContact(leadID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "do_not_contact"})
}
