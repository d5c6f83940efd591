package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"plantpal/api/internal/store"
)

func (s *HTTPServer) handleListPlants(w http.ResponseWriter, r *http.Request, caller Session) {
	plants, err := s.service.ListPlants(r.Context(), caller)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "plants": plants})
}

func (s *HTTPServer) handleCreatePlant(w http.ResponseWriter, r *http.Request, caller Session) {
	var body store.Plant
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	plant, err := s.service.CreatePlant(r.Context(), caller, body)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "plant": plant})
}

func (s *HTTPServer) handleGetPlant(w http.ResponseWriter, r *http.Request, caller Session) {
	plant, err := s.service.GetPlant(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "plant": plant})
}

func (s *HTTPServer) handleUpdatePlant(w http.ResponseWriter, r *http.Request, caller Session) {
	var body store.Plant
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	plant, err := s.service.UpdatePlant(r.Context(), caller, mux.Vars(r)["id"], body)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "plant": plant})
}

func (s *HTTPServer) handleDeletePlant(w http.ResponseWriter, r *http.Request, caller Session) {
	if err := s.service.DeletePlant(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *HTTPServer) handleAddPlantEntry(w http.ResponseWriter, r *http.Request, caller Session) {
	var body store.DailyEntry
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	plant, err := s.service.AddPlantEntry(r.Context(), caller, mux.Vars(r)["id"], body)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "plant": plant})
}

func (s *HTTPServer) handlePlantSchedule(w http.ResponseWriter, r *http.Request, caller Session) {
	var body store.CareSchedule
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	plant, err := s.service.UpdatePlantSchedule(r.Context(), caller, mux.Vars(r)["id"], body)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "plant": plant})
}
