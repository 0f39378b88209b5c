package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/subhasmitas02/SplitSmart/internal/core"
	"github.com/subhasmitas02/SplitSmart/internal/services"
)

// createExpenseRequest is the atomic create-with-splits payload. The server
// computes and persists the expense and every split as one unit; clients
// never create splits individually.
type createExpenseRequest struct {
	Name         string                `json:"name"`
	Amount       core.Money            `json:"amount"`
	Date         string                `json:"date"`
	Notes        string                `json:"notes"`
	CreatedBy    int64                 `json:"createdById"`
	CategoryID   int64                 `json:"categoryId"`
	Participants []int64               `json:"participants"`
	SplitType    string                `json:"splitType"`
	SplitAmounts map[string]core.Money `json:"splitAmounts"`
	DueDate      string                `json:"dueDate"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		writeError(w, r, err)
		return
	}

	splitAmounts, err := parseSplitAmounts(req.SplitAmounts)
	if err != nil {
		writeError(w, r, err)
		return
	}

	details, err := s.svc.CreateExpenseWithSplits(r.Context(), services.CreateExpenseInput{
		Name:         req.Name,
		Amount:       req.Amount,
		Date:         date,
		Notes:        req.Notes,
		CreatedBy:    req.CreatedBy,
		CategoryID:   req.CategoryID,
		Participants: req.Participants,
		SplitType:    core.AllocationMode(req.SplitType),
		SplitAmounts: splitAmounts,
		DueDate:      dueDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, details)
}

// parseSplitAmounts converts JSON object keys back into user ids.
func parseSplitAmounts(raw map[string]core.Money) (map[int64]core.Money, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[int64]core.Money, len(raw))
	for key, amount := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: invalid participant id %q in splitAmounts", core.ErrValidation, key)
		}
		out[id] = amount
	}
	return out, nil
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.ListExpenses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	details, err := s.svc.GetExpenseDetails(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleListUserExpenses(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	expenses, err := s.svc.ListExpensesForUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}
