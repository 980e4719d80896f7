package api

import (
	"net/http"
	"time"

	"github.com/emick/smartplug/internal/report"
)

// statusResponse is the payload for GET /api/v1/status.
type statusResponse struct {
	DeviceID    string  `json:"device_id"`
	PlugState   string  `json:"plug_state"`
	DeviceState string  `json:"device_state"`
	Since       string  `json:"since"`
	LastSample  string  `json:"last_sample"`
	PowerW      float64 `json:"power_w"`
	VoltageV    float64 `json:"voltage_v"`
	CurrentA    float64 `json:"current_a"`
	EnergyWh    int     `json:"energy_wh"`
}

// handleStatus returns the current classified state with its latest telemetry.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	interval, err := s.store.Latest(r.Context())
	if err != nil {
		s.logger.Error("querying latest interval", "error", err)
		writeInternalError(w, "querying latest interval")
		return
	}
	if interval == nil {
		writeNotFound(w, "no samples recorded yet")
		return
	}

	event, err := s.store.LatestEvent(r.Context())
	if err != nil {
		s.logger.Error("querying latest event", "error", err)
		writeInternalError(w, "querying latest event")
		return
	}

	resp := statusResponse{
		DeviceID:    s.deviceID,
		PlugState:   string(interval.Pair.Plug),
		DeviceState: string(interval.Pair.Device),
		Since:       interval.Start.Format(time.RFC3339),
		LastSample:  interval.End.Format(time.RFC3339),
	}
	if event != nil {
		resp.PowerW = event.Snapshot.PowerW
		resp.VoltageV = event.Snapshot.VoltageV
		resp.CurrentA = event.Snapshot.CurrentA
		resp.EnergyWh = event.Snapshot.EnergyWh
	}

	writeJSON(w, http.StatusOK, resp)
}

// historyRow is one rendered interval in GET /api/v1/history.
type historyRow struct {
	TimeRange string `json:"time_range"`
	Duration  string `json:"duration"`
	Plug      string `json:"plug"`
	Device    string `json:"device"`
}

// handleHistory returns the rendered interval history, newest first.
//
// The optional tz query parameter names an IANA zone for display
// (default UTC), mirroring how the CLI renders in local time.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	loc := time.UTC
	if tz := r.URL.Query().Get("tz"); tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			writeBadRequest(w, "unknown time zone: "+tz)
			return
		}
	}

	intervals, err := s.store.Intervals(r.Context())
	if err != nil {
		s.logger.Error("querying intervals", "error", err)
		writeInternalError(w, "querying intervals")
		return
	}

	rows := make([]historyRow, 0, len(intervals))
	report.Rows(intervals, loc)(func(row report.Row) bool {
		rows = append(rows, historyRow{
			TimeRange: row.TimeRange,
			Duration:  row.Duration,
			Plug:      row.Plug,
			Device:    row.Device,
		})
		return true
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(rows),
		"rows":  rows,
	})
}

// eventResponse is the payload for GET /api/v1/events/latest.
type eventResponse struct {
	ID          int64   `json:"id"`
	RecordedAt  string  `json:"recorded_at"`
	PlugState   string  `json:"plug_state"`
	DeviceState string  `json:"device_state"`
	Power       bool    `json:"power"`
	CountdownS  int     `json:"countdown_s"`
	EnergyWh    int     `json:"energy_wh"`
	CurrentA    float64 `json:"current_a"`
	VoltageV    float64 `json:"voltage_v"`
	PowerW      float64 `json:"power_w"`
	RelayStatus string  `json:"relay_status"`
	FaultCode   int     `json:"fault_code"`
}

// handleLatestEvent returns the most recent audit-trail entry in full.
func (s *Server) handleLatestEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.store.LatestEvent(r.Context())
	if err != nil {
		s.logger.Error("querying latest event", "error", err)
		writeInternalError(w, "querying latest event")
		return
	}
	if event == nil {
		writeNotFound(w, "no samples recorded yet")
		return
	}

	writeJSON(w, http.StatusOK, eventResponse{
		ID:          event.ID,
		RecordedAt:  event.RecordedAt.Format(time.RFC3339),
		PlugState:   string(event.Pair.Plug),
		DeviceState: string(event.Pair.Device),
		Power:       event.Snapshot.Power,
		CountdownS:  event.Snapshot.CountdownS,
		EnergyWh:    event.Snapshot.EnergyWh,
		CurrentA:    event.Snapshot.CurrentA,
		VoltageV:    event.Snapshot.VoltageV,
		PowerW:      event.Snapshot.PowerW,
		RelayStatus: event.Snapshot.RelayStatus,
		FaultCode:   event.Snapshot.FaultCode,
	})
}
