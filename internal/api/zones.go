package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/zoneshadow/internal/controller"
	"github.com/nerrad567/zoneshadow/internal/journal"
)

// maxDeviceIDLen limits the device ID path parameter.
const maxDeviceIDLen = 128

// handleListZones returns the status of every configured zone.
func (s *Server) handleListZones(w http.ResponseWriter, _ *http.Request) {
	var zones []controller.ZoneStatus
	if s.zones != nil {
		zones = s.zones.Snapshot()
	}
	if zones == nil {
		zones = []controller.ZoneStatus{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"zones": zones,
		"count": len(zones),
	})
}

// handleGetZone returns a single zone by device ID.
func (s *Server) handleGetZone(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceIDParam(w, r)
	if !ok {
		return
	}

	status, found := s.lookupZone(deviceID)
	if !found {
		writeNotFound(w, "zone not found")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleZoneHistory returns journal entries for a zone, newest first.
func (s *Server) handleZoneHistory(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := deviceIDParam(w, r)
	if !ok {
		return
	}

	limit, err := parseHistoryLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if _, found := s.lookupZone(deviceID); !found {
		writeNotFound(w, "zone not found")
		return
	}

	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "actuation journal disabled")
		return
	}

	entries, err := s.history.History(r.Context(), deviceID, limit)
	if err != nil {
		s.logger.Error("loading zone history", "device_id", deviceID, "error", err)
		writeInternalError(w, "failed to load zone history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": deviceID,
		"history":   entries,
		"count":     len(entries),
	})
}

func (s *Server) lookupZone(deviceID string) (controller.ZoneStatus, bool) {
	if s.zones == nil {
		return controller.ZoneStatus{}, false
	}
	return s.zones.Zone(deviceID)
}

func deviceIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	deviceID := chi.URLParam(r, "deviceID")
	if deviceID == "" || len(deviceID) > maxDeviceIDLen {
		writeBadRequest(w, "invalid device ID")
		return "", false
	}
	return deviceID, true
}

// parseHistoryLimit parses the limit query parameter, defaulting when absent.
func parseHistoryLimit(raw string) (int, error) {
	if raw == "" {
		return journal.DefaultHistoryLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit")
	}
	if limit > journal.MaxHistoryLimit {
		return 0, fmt.Errorf("limit exceeds maximum of %d", journal.MaxHistoryLimit)
	}

	return limit, nil
}
