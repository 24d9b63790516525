package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/mlctf/internal/api/middleware"
	"github.com/mcoot/mlctf/internal/api/request"
	"github.com/mcoot/mlctf/internal/api/response"
	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/puzzle"
	"github.com/mcoot/mlctf/internal/services/portal"
	"github.com/mcoot/mlctf/internal/services/progression"
	"github.com/mcoot/mlctf/internal/services/session"
)

// RunHandler handles run, puzzle and portal endpoints
type RunHandler struct {
	runs     *progression.Controller
	sessions *session.Service
	portal   *portal.Service
}

// NewRunHandler creates a new run handler
func NewRunHandler(runs *progression.Controller, sessions *session.Service, portal *portal.Service) *RunHandler {
	return &RunHandler{
		runs:     runs,
		sessions: sessions,
		portal:   portal,
	}
}

// Start handles POST /api/v1/runs
func (h *RunHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req request.StartRunRequest
	// An empty body starts an anonymous run
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	run, err := h.runs.StartRun(r.Context(), req.Alias)
	if err != nil {
		WriteError(w, err)
		return
	}

	sess, err := h.sessions.Create(r.Context(), run.ID)
	if err != nil {
		// Without a session nobody can reach the run again
		_ = h.runs.EndRun(r.Context(), run.ID)
		WriteError(w, err)
		return
	}

	response.Created(w, response.StartRunResponse{
		Run:          h.runResponse(run),
		SessionToken: sess.Token,
	})
}

// Me handles GET /api/v1/runs/me
func (h *RunHandler) Me(w http.ResponseWriter, r *http.Request) {
	run := middleware.MustGetRun(r.Context())
	response.JSON(w, http.StatusOK, h.runResponse(run))
}

// End handles DELETE /api/v1/runs/me
func (h *RunHandler) End(w http.ResponseWriter, r *http.Request) {
	run := middleware.MustGetRun(r.Context())

	if err := h.runs.EndRun(r.Context(), run.ID); err != nil {
		WriteError(w, err)
		return
	}
	if sess := middleware.GetSession(r.Context()); sess != nil {
		_ = h.sessions.Invalidate(r.Context(), sess.Token)
	}
	response.NoContent(w)
}

// Act handles POST /api/v1/runs/me/puzzles/{id}/actions. A wrong answer is
// a successful request with correct=false.
func (h *RunHandler) Act(w http.ResponseWriter, r *http.Request) {
	run := middleware.MustGetRun(r.Context())

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		WriteError(w, NewInvalidRequestError("puzzle id must be a number"))
		return
	}

	var req request.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Type) == "" {
		WriteError(w, NewInvalidRequestError("type is required"))
		return
	}

	result, err := h.runs.Act(r.Context(), run.ID, model.PuzzleID(id), puzzle.Action{
		Type:   puzzle.ActionType(strings.TrimSpace(req.Type)),
		Item:   req.Item,
		Target: req.Target,
		Value:  req.Value,
		X:      req.X,
		Y:      req.Y,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ActionFromOutcome(result.Outcome, h.runResponse(result.Run)))
}

// Portal handles POST /api/v1/runs/me/portal
func (h *RunHandler) Portal(w http.ResponseWriter, r *http.Request) {
	run := middleware.MustGetRun(r.Context())

	var req request.PortalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	result, err := h.portal.Submit(r.Context(), run.ID, req.Combination)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PortalFromResult(result))
}

// Register handles POST /api/v1/runs/me/registration
func (h *RunHandler) Register(w http.ResponseWriter, r *http.Request) {
	run := middleware.MustGetRun(r.Context())

	var req request.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	result, err := h.portal.Register(r.Context(), run.ID, req.Name, req.Email)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.RegistrationFromResult(result))
}

func (h *RunHandler) runResponse(run *model.Run) response.Run {
	return response.RunFromModel(run, h.runs.Views(run))
}
