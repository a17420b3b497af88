package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"teikipass/internal/dataset"
	"teikipass/internal/planner"
	"teikipass/internal/realtime"
)

type stationsResponse struct {
	Version        string              `json:"version"`
	Lines          []dataset.Line      `json:"lines"`
	StationsByLine map[string][]string `json:"stationsByLine"`
}

// Stations lists lines and the station picker lists.
func (h *Handler) Stations(w http.ResponseWriter, r *http.Request) {
	snap := h.planner.Snapshot()
	if snap == nil {
		h.writeError(w, http.StatusServiceUnavailable, planner.ErrNotReady.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, stationsResponse{
		Version:        snap.Dataset.Version,
		Lines:          snap.Dataset.Meta.Lines,
		StationsByLine: snap.StationsByLine,
	})
}

// Route plans a trip: GET /api/route?from=&to=&days=
func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := strings.TrimSpace(q.Get("from"))
	to := strings.TrimSpace(q.Get("to"))
	if from == "" || to == "" {
		h.writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	days := h.cfg.WorkDays
	if v := q.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "days must be an integer")
			return
		}
		days = n
	}

	res, err := h.planner.Plan(r.Context(), from, to, days)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, res)
	case errors.Is(err, planner.ErrNotReady):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, planner.ErrUnknownStation), errors.Is(err, planner.ErrInvalidWorkDays):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.Debug("route request ended early", "from", from, "to", to, "error", err)
	default:
		h.logger.Error("plan route", "from", from, "to", to, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// Fares returns the loaded fare document.
func (h *Handler) Fares(w http.ResponseWriter, r *http.Request) {
	snap := h.planner.Snapshot()
	if snap == nil {
		h.writeError(w, http.StatusServiceUnavailable, planner.ErrNotReady.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, snap.Dataset.Fares)
}

// Alerts lists active service alerts. ?station= keeps those naming the
// station, otherwise ?line= keeps those naming any of the comma separated
// line ids.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts := []realtime.Alert{}
	if h.rt == nil {
		h.writeJSON(w, http.StatusOK, alerts)
		return
	}

	if st := strings.TrimSpace(r.URL.Query().Get("station")); st != "" {
		alerts = append(alerts, h.rt.AlertsForStation(st)...)
		h.writeJSON(w, http.StatusOK, alerts)
		return
	}

	var lines []string
	for _, id := range strings.Split(r.URL.Query().Get("line"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			lines = append(lines, id)
		}
	}
	if len(lines) > 0 {
		alerts = append(alerts, h.rt.AlertsForLines(lines)...)
	} else {
		alerts = append(alerts, h.rt.AllAlerts()...)
	}
	h.writeJSON(w, http.StatusOK, alerts)
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Health reports readiness. It answers 200 while loading so the process
// is not restarted during the first download.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.planner.Snapshot()
	if snap == nil {
		h.writeJSON(w, http.StatusOK, healthResponse{Status: "loading"})
		return
	}
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: snap.Dataset.Version,
		Source:  snap.Dataset.Source,
	})
}
