package http

import (
	"net/http"
)

func (s *Server) handleListExpenseSplits(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	splits, err := s.svc.ListSplitsByExpense(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, splits)
}

func (s *Server) handleListUserSplits(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	splits, err := s.svc.ListSplitsByUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, splits)
}

// handlePaySplit settles a split. Repeat calls succeed and return the same
// paid split; there is no way to mark a paid split unpaid again.
func (s *Server) handlePaySplit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	split, err := s.svc.MarkSplitPaid(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, split)
}
