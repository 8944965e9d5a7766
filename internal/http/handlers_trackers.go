package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type switchTrackerRequest struct {
	TrackerID core.Nullable[int64] `json:"tracker_id"`
}

// handleListTrackers lists active trackers, or all of them with
// ?include_inactive=1.
func (s *Server) handleListTrackers(w http.ResponseWriter, r *http.Request) {
	includeInactive, err := queryBool(r.URL.Query(), "include_inactive")
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	activeOnly := includeInactive == nil || !*includeInactive

	scope := scopeFrom(r.Context())
	trackers, err := s.svc.Trackers.List(r.Context(), scope, activeOnly)
	if err != nil {
		s.writeError(w, r, err, log.OpList)
		return
	}
	NewJSONResponse().
		Field("trackers", trackers).
		Field("active_tracker_id", scope.TrackerID).
		Write(w)
}

func (s *Server) handleCreateTracker(w http.ResponseWriter, r *http.Request) {
	var in core.TrackerInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}

	scope := scopeFrom(r.Context())
	id, err := s.svc.Trackers.Create(r.Context(), scope, in)
	if err != nil {
		s.writeError(w, r, err, log.OpCreate)
		return
	}
	tracker, err := s.svc.Trackers.Get(r.Context(), scope, id)
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Message("Tracker created").
		Field("tracker_id", id).
		Field("tracker", tracker).
		Write(w)
}

func (s *Server) handleGetTracker(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}
	tracker, err := s.svc.Trackers.Get(r.Context(), scopeFrom(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Field("tracker", tracker).Write(w)
}

func (s *Server) handleUpdateTracker(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	var p core.TrackerPatch
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}

	tracker, err := s.svc.Trackers.Update(r.Context(), scopeFrom(r.Context()), id, p)
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Message("Tracker updated").Field("tracker", tracker).Write(w)
}

func (s *Server) handleDeleteTracker(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpDelete)
		return
	}
	if err := s.svc.Trackers.Delete(r.Context(), scopeFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err, log.OpDelete)
		return
	}
	NewJSONResponse().Message("Tracker deleted").Write(w)
}

func (s *Server) handleSetDefaultTracker(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	if err := s.svc.Trackers.SetDefault(r.Context(), scopeFrom(r.Context()), id); err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Message("Default tracker updated").Field("tracker_id", id).Write(w)
}

func (s *Server) handleSwitchTracker(w http.ResponseWriter, r *http.Request) {
	var in switchTrackerRequest
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	if in.TrackerID.Value == nil || *in.TrackerID.Value <= 0 {
		s.writeError(w, r, core.ValidationError("Tracker ID is required"), log.OpUpdate)
		return
	}

	tracker, err := s.svc.Trackers.Switch(r.Context(), scopeFrom(r.Context()), *in.TrackerID.Value)
	if err != nil {
		s.writeError(w, r, err, log.OpUpdate)
		return
	}
	NewJSONResponse().Message("Switched tracker").Field("tracker", tracker).Write(w)
}
