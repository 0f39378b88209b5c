package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/subhasmitas02/SplitSmart/internal/core"
)

// handleListHouseholds lists every household, or only those created by one
// user when the createdBy query parameter is set.
func (s *Server) handleListHouseholds(w http.ResponseWriter, r *http.Request) {
	var (
		households []core.Household
		err        error
	)
	if raw := r.URL.Query().Get("createdBy"); raw != "" {
		userID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			writeError(w, r, fmt.Errorf("%w: invalid createdBy", core.ErrValidation))
			return
		}
		households, err = s.svc.ListHouseholdsCreatedBy(r.Context(), userID)
	} else {
		households, err = s.svc.ListHouseholds(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, households)
}

func (s *Server) handleGetHousehold(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	household, err := s.svc.GetHousehold(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, household)
}

type createHouseholdRequest struct {
	Name      string `json:"name"`
	CreatedBy int64  `json:"createdById"`
}

func (s *Server) handleCreateHousehold(w http.ResponseWriter, r *http.Request) {
	var req createHouseholdRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	household, err := s.svc.CreateHousehold(r.Context(), core.Household{
		Name:      req.Name,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, household)
}

// handleHouseholdRoommates returns every member with their outstanding
// amount scoped to the household's own expenses.
func (s *Server) handleHouseholdRoommates(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	roommates, err := s.svc.HouseholdRoommates(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roommates)
}

type createMembershipRequest struct {
	UserID      int64 `json:"userId"`
	HouseholdID int64 `json:"householdId"`
}

func (s *Server) handleCreateMembership(w http.ResponseWriter, r *http.Request) {
	var req createMembershipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	membership, err := s.svc.CreateMembership(r.Context(), core.Membership{
		UserID:      req.UserID,
		HouseholdID: req.HouseholdID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, membership)
}
