package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/mlctf/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	w      io.Writer
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(w io.Writer, format string) *Output {
	return &Output{w: w, format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.StartRunResponse:
		o.printRun(v.Run)
		fmt.Fprintf(o.w, "Token: %s\n", v.SessionToken)
	case response.Run:
		o.printRun(v)
	case response.ActionResponse:
		o.printAction(v)
	case response.PortalResponse:
		o.printPortal(v)
	case response.RegistrationResponse:
		o.printRegistration(v)
	case response.LeaderboardResponse:
		o.printLeaderboard(v)
	case response.HealthResponse:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
		fmt.Fprintf(o.w, "Puzzles: %d\n", v.Puzzles)
		fmt.Fprintf(o.w, "Leaderboard: %s\n", yesNo(v.Leaderboard))
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printRun(r response.Run) {
	fmt.Fprintf(o.w, "Run: %s (%s)\n", r.ID, r.Alias)
	fmt.Fprintf(o.w, "Progress: %d/%d solved\n", r.SolvedCount, r.Total)

	for _, p := range r.Puzzles {
		line := fmt.Sprintf("  %d. %-28s %s", p.ID, p.Title, p.Status)
		if p.RemainingSeconds != nil {
			line += fmt.Sprintf(" (%ds left)", *p.RemainingSeconds)
		}
		if p.Flag != "" {
			line += "  " + p.Flag
		}
		fmt.Fprintln(o.w, line)
	}

	switch {
	case r.Registered:
		fmt.Fprintln(o.w, "Portal: accepted, completion registered")
	case r.PortalAccepted:
		fmt.Fprintln(o.w, "Portal: accepted, register with `mlctf register`")
	case r.PortalUnlocked:
		fmt.Fprintln(o.w, "Portal: unlocked")
	default:
		fmt.Fprintln(o.w, "Portal: locked")
	}

	if r.ElapsedSeconds != nil {
		fmt.Fprintf(o.w, "Time: %s\n", formatElapsed(*r.ElapsedSeconds))
	}
}

func (o *Output) printAction(a response.ActionResponse) {
	switch {
	case a.AlreadySolved:
		fmt.Fprintln(o.w, "Already solved")
	case a.Expired:
		fmt.Fprintln(o.w, "Time expired")
	case a.Solved:
		fmt.Fprintln(o.w, "Solved!")
	case a.Correct:
		fmt.Fprintln(o.w, "Correct")
	}
	if a.Feedback != "" {
		fmt.Fprintln(o.w, a.Feedback)
	}
	if a.Flag != "" {
		fmt.Fprintf(o.w, "Flag: %s\n", a.Flag)
	}
	fmt.Fprintf(o.w, "Progress: %d/%d solved\n", a.Run.SolvedCount, a.Run.Total)
}

func (o *Output) printPortal(p response.PortalResponse) {
	if p.Accepted {
		fmt.Fprintln(o.w, "Combination accepted")
	} else {
		fmt.Fprintln(o.w, "Combination rejected")
	}
	if p.Feedback != "" {
		fmt.Fprintln(o.w, p.Feedback)
	}
	if p.RegistrationURL != "" {
		fmt.Fprintf(o.w, "Registration: %s\n", p.RegistrationURL)
	}
}

func (o *Output) printRegistration(r response.RegistrationResponse) {
	fmt.Fprintln(o.w, r.Notice)
	if r.Completion != nil {
		fmt.Fprintf(o.w, "Name: %s\n", r.Completion.Name)
		fmt.Fprintf(o.w, "Time: %s\n", formatElapsed(r.Completion.ElapsedSeconds))
	}
}

func (o *Output) printLeaderboard(l response.LeaderboardResponse) {
	if len(l.Entries) == 0 {
		fmt.Fprintln(o.w, "No completions yet")
		return
	}
	fmt.Fprintf(o.w, "%4s  %-24s %8s  %s\n", "RANK", "NAME", "TIME", "FINISHED")
	fmt.Fprintln(o.w, strings.Repeat("-", 60))
	for _, e := range l.Entries {
		fmt.Fprintf(o.w, "%4d  %-24s %8s  %s\n",
			e.Rank, e.Name, formatElapsed(e.ElapsedSeconds), e.CompletedAt.Format("2006-01-02 15:04"))
	}
}

func formatElapsed(secs int) string {
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
