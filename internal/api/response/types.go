package response

import (
	"time"

	"github.com/mcoot/mlctf/internal/model"
	"github.com/mcoot/mlctf/internal/puzzle"
	"github.com/mcoot/mlctf/internal/services/portal"
	"github.com/mcoot/mlctf/internal/services/progression"
)

// Puzzle is one puzzle as the agent currently sees it
type Puzzle struct {
	ID               int    `json:"id"`
	Kind             string `json:"kind"`
	Title            string `json:"title"`
	Status           string `json:"status"`
	Brief            string `json:"brief,omitempty"`
	Flag             string `json:"flag,omitempty"`
	RemainingSeconds *int   `json:"remaining_seconds,omitempty"`
}

// PuzzleFromView converts a progression view. Locked puzzles carry only
// their position and title.
func PuzzleFromView(v progression.PuzzleView) Puzzle {
	p := Puzzle{
		ID:     int(v.Instance.ID()),
		Kind:   string(v.Instance.Entry.Kind),
		Title:  v.Instance.Entry.Title,
		Status: string(v.Status),
	}
	switch v.Status {
	case model.PuzzleUnlocked:
		p.Brief = v.Instance.Entry.Brief
		if v.Instance.Duration() > 0 {
			secs := int(v.Remaining.Seconds())
			p.RemainingSeconds = &secs
		}
	case model.PuzzleSolved:
		p.Flag = string(v.Instance.Flag())
	}
	return p
}

// Run is a run's progress in API responses
type Run struct {
	ID             string     `json:"id"`
	Alias          string     `json:"alias"`
	SolvedCount    int        `json:"solved_count"`
	Total          int        `json:"total"`
	Flags          []string   `json:"flags"`
	Puzzles        []Puzzle   `json:"puzzles"`
	PortalUnlocked bool       `json:"portal_unlocked"`
	PortalAccepted bool       `json:"portal_accepted"`
	Registered     bool       `json:"registered"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ElapsedSeconds *int       `json:"elapsed_seconds,omitempty"`
}

// RunFromModel converts a run and its puzzle views
func RunFromModel(run *model.Run, views []progression.PuzzleView) Run {
	total := len(views)
	r := Run{
		ID:             string(run.ID),
		Alias:          run.Alias,
		SolvedCount:    run.SolvedCount(),
		Total:          total,
		Flags:          flagStrings(run.Flags),
		Puzzles:        make([]Puzzle, 0, total),
		PortalUnlocked: run.AllSolved(total),
		PortalAccepted: run.PortalAccepted,
		Registered:     run.Registered,
		StartedAt:      run.StartedAt,
		CompletedAt:    run.CompletedAt,
	}
	if run.CompletedAt != nil {
		secs := int(run.Elapsed().Seconds())
		r.ElapsedSeconds = &secs
	}
	for _, v := range views {
		r.Puzzles = append(r.Puzzles, PuzzleFromView(v))
	}
	return r
}

// StartRunResponse is returned when a run begins
type StartRunResponse struct {
	Run          Run    `json:"run"`
	SessionToken string `json:"session_token"`
}

// ActionResponse is the outcome of one puzzle interaction
type ActionResponse struct {
	Correct       bool   `json:"correct"`
	Solved        bool   `json:"solved"`
	AlreadySolved bool   `json:"already_solved,omitempty"`
	Expired       bool   `json:"expired,omitempty"`
	Feedback      string `json:"feedback,omitempty"`
	Flag          string `json:"flag,omitempty"`
	Run           Run    `json:"run"`
}

// ActionFromOutcome converts an outcome and the run after it
func ActionFromOutcome(out puzzle.Outcome, run Run) ActionResponse {
	return ActionResponse{
		Correct:       out.Correct,
		Solved:        out.Solved,
		AlreadySolved: out.AlreadySolved,
		Expired:       out.Expired,
		Feedback:      out.Feedback,
		Flag:          string(out.Flag),
		Run:           run,
	}
}

// PortalResponse is the result of a combination submission
type PortalResponse struct {
	Accepted        bool   `json:"accepted"`
	Feedback        string `json:"feedback"`
	RegistrationURL string `json:"registration_url,omitempty"`
}

// PortalFromResult converts a portal result
func PortalFromResult(r *portal.SubmitResult) PortalResponse {
	return PortalResponse{
		Accepted:        r.Accepted,
		Feedback:        r.Feedback,
		RegistrationURL: r.RegistrationURL,
	}
}

// Completion is a leaderboard entry
type Completion struct {
	Rank           int       `json:"rank,omitempty"`
	Name           string    `json:"name"`
	CompletedAt    time.Time `json:"completed_at"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	FlagCount      int       `json:"flag_count"`
}

// CompletionFromModel converts a record. Email addresses never leave the server.
func CompletionFromModel(rank int, rec *model.CompletionRecord) Completion {
	return Completion{
		Rank:           rank,
		Name:           rec.Name,
		CompletedAt:    rec.CompletedAt,
		ElapsedSeconds: rec.ElapsedSeconds,
		FlagCount:      len(rec.Flags),
	}
}

// RegistrationResponse is the result of recording a completion
type RegistrationResponse struct {
	Saved      bool        `json:"saved"`
	Notice     string      `json:"notice"`
	Completion *Completion `json:"completion,omitempty"`
}

// RegistrationFromResult converts a registration result
func RegistrationFromResult(r *portal.RegisterResult) RegistrationResponse {
	resp := RegistrationResponse{Saved: r.Saved, Notice: r.Notice}
	if r.Record != nil {
		c := CompletionFromModel(0, r.Record)
		resp.Completion = &c
	}
	return resp
}

// LeaderboardResponse lists the fastest completions
type LeaderboardResponse struct {
	Entries []Completion `json:"entries"`
}

// LeaderboardFromRecords converts ranked records
func LeaderboardFromRecords(records []*model.CompletionRecord) LeaderboardResponse {
	entries := make([]Completion, 0, len(records))
	for i, rec := range records {
		entries = append(entries, CompletionFromModel(i+1, rec))
	}
	return LeaderboardResponse{Entries: entries}
}

// HealthResponse reports server liveness
type HealthResponse struct {
	Status      string `json:"status"`
	Puzzles     int    `json:"puzzles"`
	Leaderboard bool   `json:"leaderboard"`
}

func flagStrings(flags []model.Flag) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		out = append(out, string(f))
	}
	return out
}
