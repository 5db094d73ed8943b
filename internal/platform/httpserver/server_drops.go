package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	drophttp "moveserver/contexts/geo-rewards/drop-service/transport/http"
)

const defaultListStatus = "active"

func (s *Server) handleListDrops(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	status := strings.TrimSpace(query.Get("status"))
	if status == "" {
		status = defaultListStatus
	}

	limit := 0
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeDropError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer", nil)
			return
		}
		limit = parsed
	}

	resp, err := s.drops.Handler.ListDropsHandler(r.Context(), status, limit)
	if err != nil {
		writeDropDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateDrop(w http.ResponseWriter, r *http.Request) {
	var req drophttp.CreateDropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDropError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", nil)
		return
	}

	resp, err := s.drops.Handler.CreateDropHandler(r.Context(), req)
	if err != nil {
		writeDropDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetDrop(w http.ResponseWriter, r *http.Request) {
	resp, err := s.drops.Handler.GetDropHandler(r.Context(), r.PathValue("drop_id"))
	if err != nil {
		writeDropDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateDrop(w http.ResponseWriter, r *http.Request) {
	var req drophttp.UpdateDropRequest
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil {
		writeDropError(w, http.StatusBadRequest, "invalid_json", "request body must be a JSON object", nil)
		return
	}

	resp, err := s.drops.Handler.UpdateDropHandler(r.Context(), r.PathValue("drop_id"), req)
	if err != nil {
		writeDropDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteDrop(w http.ResponseWriter, r *http.Request) {
	resp, err := s.drops.Handler.DeleteDropHandler(r.Context(), r.PathValue("drop_id"))
	if err != nil {
		writeDropDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDropClaims(w http.ResponseWriter, r *http.Request) {
	resp, err := s.drops.Handler.ListDropClaimsHandler(r.Context(), r.PathValue("drop_id"))
	if err != nil {
		writeDropDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	var req drophttp.SubmitClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDropError(w, http.StatusBadRequest, "bad_payload", "request body must be valid JSON", nil)
		return
	}

	resp, err := s.drops.Handler.SubmitClaimHandler(r.Context(), req)
	if err != nil {
		writeDropDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRewards(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if strings.TrimSpace(userID) == "" {
		userID = r.Header.Get("X-User-Id")
	}

	resp, err := s.drops.Handler.ListRewardsHandler(r.Context(), userID)
	if err != nil {
		writeDropDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.drops.Handler.StatsHandler(r.Context())
	if err != nil {
		writeDropDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
