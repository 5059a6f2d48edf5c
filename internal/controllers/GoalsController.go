package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"sud/internal/goals"
	"sud/internal/models"
	"sud/internal/providers"
)

type GoalsController struct {
	logger  providers.Logger
	service goals.ServiceInterface
}

func NewGoalsController(logger providers.Logger, service goals.ServiceInterface) *GoalsController {
	return &GoalsController{
		logger:  logger,
		service: service,
	}
}

func goalID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
}

// writeGoalError maps the goal error taxonomy onto HTTP statuses. Remote
// server errors keep their status when it is an error status, anything
// else from the remote side becomes a bad gateway.
func writeGoalError(w http.ResponseWriter, err error) {
	var ve *goals.ValidationError
	var nf *goals.NotFoundError
	var ce *goals.ConflictError
	var ne *goals.NetworkError
	var se *goals.ServerError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": ve.Fields})
	case errors.As(err, &nf):
		http.Error(w, "Not Found", http.StatusNotFound)
	case errors.As(err, &ce):
		http.Error(w, "Conflict", http.StatusConflict)
	case errors.As(err, &ne):
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
	case errors.As(err, &se):
		status := se.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		http.Error(w, http.StatusText(status), status)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// GetGoals serves the local copy of the goal list.
func (gc *GoalsController) GetGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, gc.service.List())
}

func (gc *GoalsController) CreateGoal(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload models.NewGoal
	err := json.NewDecoder(r.Body).Decode(&payload)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	created, err := gc.service.Create(r.Context(), &payload)
	if err != nil {
		writeGoalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (gc *GoalsController) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := goalID(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var patch models.GoalPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	updated, err := gc.service.Update(r.Context(), id, &patch)
	if err != nil {
		writeGoalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (gc *GoalsController) ToggleGoal(w http.ResponseWriter, r *http.Request) {
	id, err := goalID(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	updated, err := gc.service.Toggle(r.Context(), id, time.Now())
	if err != nil {
		writeGoalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (gc *GoalsController) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := goalID(r)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if err := gc.service.Delete(r.Context(), id); err != nil {
		writeGoalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RefreshGoals forces a re-fetch from the remote API.
func (gc *GoalsController) RefreshGoals(w http.ResponseWriter, r *http.Request) {
	if err := gc.service.Refresh(r.Context()); err != nil {
		writeGoalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": gc.service.Count()})
}
