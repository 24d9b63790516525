package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"

	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/puzzle"
	"github.com/mcoot/mlctf/internal/services/portal"
	"github.com/mcoot/mlctf/internal/services/progression"
	"github.com/mcoot/mlctf/internal/services/session"
	"github.com/mcoot/mlctf/internal/web/middleware"
	"github.com/mcoot/mlctf/internal/web/sse"
	"github.com/mcoot/mlctf/internal/web/templates/components"
	"github.com/mcoot/mlctf/internal/web/templates/layout"
	"github.com/mcoot/mlctf/internal/web/templates/pages"
)

var errBadForm = errors.New("invalid form data")

// MissionHandler handles the mission page and every puzzle interaction
type MissionHandler struct {
	runs        *progression.Controller
	portal      *portal.Service
	sessions    *session.Service
	hubManager  *sse.HubManager
	broadcaster *sse.Broadcaster
	logger      *slog.Logger
}

// NewMissionHandler creates a new MissionHandler
func NewMissionHandler(runs *progression.Controller, portal *portal.Service, sessions *session.Service, hubManager *sse.HubManager, broadcaster *sse.Broadcaster, logger *slog.Logger) *MissionHandler {
	return &MissionHandler{
		runs:        runs,
		portal:      portal,
		sessions:    sessions,
		hubManager:  hubManager,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Start begins a run and binds it to a session cookie
func (h *MissionHandler) Start(w http.ResponseWriter, r *http.Request) {
	if middleware.GetRun(r.Context()) != nil {
		http.Redirect(w, r, "/mission", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, "error", "Invalid form data")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	run, err := h.runs.StartRun(r.Context(), r.FormValue("alias"))
	if err != nil {
		h.logger.Error("failed to start run", slog.Any("error", err))
		middleware.SetFlash(w, "error", "Could not start the mission")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	sess, err := h.sessions.Create(r.Context(), run.ID)
	if err != nil {
		h.logger.Error("failed to create session", slog.String("run_id", string(run.ID)), slog.Any("error", err))
		if err := h.runs.EndRun(r.Context(), run.ID); err != nil {
			h.logger.Warn("failed to end run", slog.String("run_id", string(run.ID)), slog.Any("error", err))
		}
		middleware.SetFlash(w, "error", "Could not start the mission")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	setSessionCookie(w, sess)
	middleware.SetFlash(w, "success", "Mission started. Good luck, agent "+run.Alias+".")
	http.Redirect(w, r, "/mission", http.StatusSeeOther)
}

// View renders the mission page
func (h *MissionHandler) View(w http.ResponseWriter, r *http.Request) {
	run := middleware.GetRun(r.Context())

	data := pages.MissionData{
		PageData: layout.PageData{
			Title: "Mission",
			Run:   run,
			Flash: middleware.GetFlash(r.Context()),
		},
		Views:  h.runs.Views(run),
		Total:  h.runs.Total(),
		Portal: h.portalData(run),
	}
	render(w, r, pages.Mission(data))
}

// Act applies one puzzle action. htmx requests get the re-rendered card;
// plain form posts get a flash and a redirect back to the page.
func (h *MissionHandler) Act(w http.ResponseWriter, r *http.Request) {
	run := middleware.GetRun(r.Context())

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, http.StatusNotFound, "Unknown puzzle")
		return
	}
	action, err := actionFromForm(r)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid input")
		return
	}

	result, err := h.runs.Act(r.Context(), run.ID, model.PuzzleID(id), action)
	switch {
	case errors.Is(err, model.ErrPuzzleNotFound):
		h.fail(w, r, http.StatusNotFound, "Unknown puzzle")
		return
	case errors.Is(err, model.ErrPuzzleLocked):
		h.fail(w, r, http.StatusConflict, "That puzzle is still locked")
		return
	case errors.Is(err, model.ErrInvalidAction):
		h.fail(w, r, http.StatusBadRequest, "That move is not allowed here")
		return
	case err != nil:
		h.logger.Error("puzzle action failed",
			slog.String("run_id", string(run.ID)),
			slog.Int("puzzle_id", id),
			slog.Any("error", err))
		h.fail(w, r, http.StatusInternalServerError, "Something went wrong")
		return
	}

	outcome := result.Outcome
	if !isHTMX(r) {
		if outcome.Feedback != "" {
			middleware.SetFlash(w, flashType(outcome.Correct), outcome.Feedback)
		}
		http.Redirect(w, r, "/mission#"+components.PuzzleCardID(model.PuzzleID(id)), http.StatusSeeOther)
		return
	}

	if outcome.Solved && !outcome.AlreadySolved {
		// The next card unlocked too; reload the whole mission
		w.Header().Set("HX-Refresh", "true")
	}
	for _, view := range h.runs.Views(result.Run) {
		if view.Instance.ID() == model.PuzzleID(id) {
			render(w, r, components.PuzzleCard(view, &outcome))
			return
		}
	}
	h.fail(w, r, http.StatusNotFound, "Unknown puzzle")
}

// Portal checks the combined flag string
func (h *MissionHandler) Portal(w http.ResponseWriter, r *http.Request) {
	run := middleware.GetRun(r.Context())
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}
	input := r.FormValue("combination")

	result, err := h.portal.Submit(r.Context(), run.ID, input)
	if errors.Is(err, model.ErrPortalLocked) {
		h.fail(w, r, http.StatusConflict, "Capture every flag before using the portal")
		return
	}
	if err != nil {
		h.logger.Error("portal submit failed", slog.String("run_id", string(run.ID)), slog.Any("error", err))
		h.fail(w, r, http.StatusInternalServerError, "Something went wrong")
		return
	}

	if !isHTMX(r) {
		middleware.SetFlash(w, flashType(result.Accepted), result.Feedback)
		http.Redirect(w, r, "/mission#portal", http.StatusSeeOther)
		return
	}

	data := h.portalData(result.Run)
	if !result.Accepted {
		data.Feedback = result.Feedback
		data.Input = strings.TrimSpace(input)
	}
	render(w, r, components.Portal(data))
}

// Register records the agent's details after the portal accepts them
func (h *MissionHandler) Register(w http.ResponseWriter, r *http.Request) {
	run := middleware.GetRun(r.Context())
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	result, err := h.portal.Register(r.Context(), run.ID, r.FormValue("name"), r.FormValue("email"))
	switch {
	case errors.Is(err, model.ErrMissingDetails), errors.Is(err, model.ErrInvalidEmail):
		h.fail(w, r, http.StatusBadRequest, "Enter your name and a valid email address")
		return
	case errors.Is(err, model.ErrNotCompleted):
		h.fail(w, r, http.StatusConflict, "Complete the portal before registering")
		return
	case errors.Is(err, model.ErrAlreadyRegistered):
		h.fail(w, r, http.StatusConflict, "You have already registered this run")
		return
	case err != nil:
		h.logger.Error("registration failed", slog.String("run_id", string(run.ID)), slog.Any("error", err))
		h.fail(w, r, http.StatusInternalServerError, "Something went wrong")
		return
	}

	if !isHTMX(r) {
		middleware.SetFlash(w, flashType(result.Saved), result.Notice)
		http.Redirect(w, r, "/mission#portal", http.StatusSeeOther)
		return
	}

	updated, err := h.runs.GetRun(r.Context(), run.ID)
	if err != nil {
		updated = run
	}
	data := h.portalData(updated)
	data.Notice = result.Notice
	render(w, r, components.Portal(data))
}

// Abandon ends the run and clears the session
func (h *MissionHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	run := middleware.GetRun(r.Context())

	if err := h.runs.EndRun(r.Context(), run.ID); err != nil {
		h.logger.Warn("failed to end run", slog.String("run_id", string(run.ID)), slog.Any("error", err))
	}
	if sess := middleware.GetSession(r.Context()); sess != nil {
		_ = h.sessions.Invalidate(r.Context(), sess.Token)
	}
	// Other tabs on this run reload and land on the briefing
	h.broadcaster.BroadcastRefresh(run.ID)
	h.hubManager.RemoveHub(run.ID)

	clearSessionCookie(w)
	middleware.SetFlash(w, "info", "Mission abandoned")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Events streams live progress and countdown updates for the run
func (h *MissionHandler) Events(w http.ResponseWriter, r *http.Request) {
	run := middleware.GetRun(r.Context())
	// Countdowns live in memory; a run loaded from redis after a restart
	// gets its timers back when a tab reconnects
	if err := h.runs.Resume(r.Context(), run.ID); err != nil {
		h.logger.Warn("failed to resume countdowns", slog.String("run_id", string(run.ID)), slog.Any("error", err))
	}
	hub := h.hubManager.GetOrCreateHub(run.ID)
	sse.ServeSSE(w, r, hub, run.ID)
}

func (h *MissionHandler) portalData(run *model.Run) components.PortalData {
	return components.PortalData{
		Unlocked:        run.AllSolved(h.runs.Total()),
		Accepted:        run.PortalAccepted,
		Registered:      run.Registered,
		RegistrationURL: h.portal.RegistrationURL(),
		Separator:       portal.Separator,
		FlagCount:       h.runs.Total(),
	}
}

// fail reports an error either as an htmx fragment or as a flash
func (h *MissionHandler) fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("HX-Reswap", "none")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`<p class="feedback error" role="alert">` + templ.EscapeString(message) + `</p>`))
		return
	}
	middleware.SetFlash(w, "error", message)
	http.Redirect(w, r, "/mission", http.StatusSeeOther)
}

// actionFromForm reads a puzzle action from form fields. Numeric fields are
// optional but must parse when present.
func actionFromForm(r *http.Request) (puzzle.Action, error) {
	if err := r.ParseForm(); err != nil {
		return puzzle.Action{}, errBadForm
	}
	action := puzzle.Action{
		Type:   puzzle.ActionType(strings.TrimSpace(r.FormValue("type"))),
		Item:   strings.TrimSpace(r.FormValue("item")),
		Target: strings.TrimSpace(r.FormValue("target")),
	}
	if action.Type == "" {
		return puzzle.Action{}, errBadForm
	}
	for name, dst := range map[string]*int{"value": &action.Value, "x": &action.X, "y": &action.Y} {
		raw := strings.TrimSpace(r.FormValue(name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return puzzle.Action{}, errBadForm
		}
		*dst = n
	}
	return action, nil
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func flashType(ok bool) string {
	if ok {
		return "success"
	}
	return "info"
}

func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func setSessionCookie(w http.ResponseWriter, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
