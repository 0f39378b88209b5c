package http

import (
	"fmt"
	"net/http"

	"github.com/subhasmitas02/SplitSmart/internal/core"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.svc.Dashboard(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	window, groupBy, err := reportQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := s.svc.Report(r.Context(), id, window, groupBy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// reportQuery reads ?from=YYYY-MM-DD&to=YYYY-MM-DD&groupBy=... with an open
// window and category grouping as defaults.
func reportQuery(r *http.Request) (core.TimeWindow, core.Grouping, error) {
	q := r.URL.Query()

	from, err := parseDate(q.Get("from"))
	if err != nil {
		return core.TimeWindow{}, "", err
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		return core.TimeWindow{}, "", err
	}
	window := core.TimeWindow{From: from, To: to}
	if err := window.Validate(); err != nil {
		return core.TimeWindow{}, "", err
	}

	groupBy := core.GroupByCategory
	if raw := q.Get("groupBy"); raw != "" {
		groupBy, err = core.ParseGrouping(raw)
		if err != nil {
			return core.TimeWindow{}, "", err
		}
	}
	return window, groupBy, nil
}

type exportReportRequest struct {
	UserID  int64  `json:"userId"`
	From    string `json:"from"`
	To      string `json:"to"`
	GroupBy string `json:"groupBy"`
}

// handleExportReport appends a windowed report to the configured Google
// Sheet. The endpoint is active only when the exporter is configured.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "report export is not configured"})
		return
	}

	var req exportReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	from, err := parseDate(req.From)
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := parseDate(req.To)
	if err != nil {
		writeError(w, r, err)
		return
	}
	window := core.TimeWindow{From: from, To: to}
	if err := window.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	groupBy := core.GroupByCategory
	if req.GroupBy != "" {
		groupBy, err = core.ParseGrouping(req.GroupBy)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.UserID <= 0 {
		writeError(w, r, fmt.Errorf("%w: missing userId", core.ErrValidation))
		return
	}

	report, err := s.svc.Report(r.Context(), req.UserID, window, groupBy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.exporter.ExportReport(r.Context(), report); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"exported": true,
		"rows":     len(report.Rows),
	})
}
