package puzzle

import (
	"strings"
	"time"

	"github.com/mcoot/mlctf/internal/model"
)

const (
	// CipherText is the intercepted message
	CipherText = "IJKJSIYMJHNYD"

	// CipherPlain is what CipherText reads at the right shift
	CipherPlain = "DEFENDTHECITY"

	// DefaultShift is where the shift dial starts
	DefaultShift = 10

	// ExpiredMessage is surfaced when the countdown reaches zero
	ExpiredMessage = "⛔ Alarm! Time expired. Threat escalating."

	vulnerableLine = 8
)

var auditLines = []string{
	"// AI-generated helper utilities",
	"function sanitize(input) {",
	"  // TODO: implement proper escaping",
	"  return input; // currently no-op",
	"}",
	"",
	"export function renderTemplate(template, data) {",
	"  const merged = template.replace(/\\$\\{(\\w+)\\}/g, (_, k) => data[k] ?? '');",
	"  return eval('`' + merged + '`'); ",
	"}",
}

// TimedBreach is a two-stage challenge against a countdown: break a Caesar
// cipher, then find the injectable line in a code listing. Expiry is only
// reported; the puzzle stays solvable afterwards.
type TimedBreach struct {
	duration time.Duration
}

// NewTimedBreach creates the breach puzzle with the given countdown
func NewTimedBreach(duration time.Duration) *TimedBreach {
	return &TimedBreach{duration: duration}
}

func (b *TimedBreach) Kind() model.PuzzleKind { return model.PuzzleKindTimedBreach }

// Duration returns the countdown length
func (b *TimedBreach) Duration() time.Duration { return b.duration }

// CodeLines returns the listing to audit
func (b *TimedBreach) CodeLines() []string { return auditLines }

func (b *TimedBreach) Init(state *model.PuzzleState) {
	state.Shift = DefaultShift
}

// Deadline returns when the countdown ends, if the puzzle has unlocked
func (b *TimedBreach) Deadline(state *model.PuzzleState) (time.Time, bool) {
	if state == nil || state.UnlockedAt == nil {
		return time.Time{}, false
	}
	return state.UnlockedAt.Add(b.duration), true
}

// Remaining returns the countdown left at now, never negative
func (b *TimedBreach) Remaining(state *model.PuzzleState, now time.Time) time.Duration {
	deadline, ok := b.Deadline(state)
	if !ok {
		return b.duration
	}
	if left := deadline.Sub(now); left > 0 {
		return left
	}
	return 0
}

// Preview decodes the cipher text at the state's shift
func (b *TimedBreach) Preview(state *model.PuzzleState) string {
	return CaesarDecode(CipherText, state.Shift)
}

func (b *TimedBreach) Apply(state *model.PuzzleState, action Action, now time.Time) (Outcome, error) {
	if deadline, ok := b.Deadline(state); ok && !now.Before(deadline) {
		state.Expired = true
	}

	out, err := b.apply(state, action)
	if err != nil {
		return Outcome{}, err
	}
	out.Expired = state.Expired

	if state.CipherSolved && state.AuditSolved {
		out.Solved = true
		out.Feedback = "✅ Breach contained. Protocol secured."
	}
	return out, nil
}

func (b *TimedBreach) apply(state *model.PuzzleState, action Action) (Outcome, error) {
	switch action.Type {
	case ActionShift:
		if action.Value < 0 || action.Value > 25 {
			return Outcome{}, invalidAction(b.Kind(), "shift %d outside 0..25", action.Value)
		}
		state.Shift = action.Value
		return Outcome{Feedback: "Preview: " + b.Preview(state)}, nil

	case ActionDecrypt:
		if state.CipherSolved {
			return Outcome{Correct: true, Feedback: "Cipher already cracked."}, nil
		}
		if b.Preview(state) == CipherPlain {
			state.CipherSolved = true
			return Outcome{Correct: true, Feedback: "Cipher cracked. Proceed to code audit."}, nil
		}
		return Outcome{Feedback: "Not quite. Listen to the rumor: shift 5."}, nil

	case ActionAudit:
		if action.Value < 0 || action.Value >= len(auditLines) {
			return Outcome{}, invalidAction(b.Kind(), "line %d outside the listing", action.Value)
		}
		if !state.CipherSolved {
			return Outcome{Feedback: "Decrypt first. The console is still encrypted."}, nil
		}
		if action.Value == vulnerableLine {
			state.AuditSolved = true
			return Outcome{Correct: true, Feedback: "Injection vector identified: dynamic eval on templates."}, nil
		}
		return Outcome{Feedback: "Nope. Trace data flow and find the sink."}, nil

	default:
		return Outcome{}, invalidAction(b.Kind(), "unsupported action %q", action.Type)
	}
}

// CaesarDecode shifts upper-case letters back by shift, leaving the rest
func CaesarDecode(text string, shift int) string {
	shift = ((shift % 26) + 26) % 26
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range strings.ToUpper(text) {
		if r >= 'A' && r <= 'Z' {
			r = 'A' + (r-'A'-rune(shift)+26)%26
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
