package puzzle

import (
	"fmt"
	"time"

	"github.com/mcoot/mlctf/internal/model"
)

const (
	// FieldWidth and FieldHeight bound every scatter field
	FieldWidth  = 320
	FieldHeight = 160

	// LensRadius is the reach of the magnifier
	LensRadius = 56

	fieldMargin = 8
)

// Point is one sample in a scatter field
type Point struct {
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Labeled bool `json:"labeled"`
}

// Dataset is a scatter field the agent can scan
type Dataset struct {
	ID           string
	Title        string
	Density      int
	LabeledRatio float64
	Points       []Point
}

// Reveal hides labels until the lens passes over them
type Reveal struct {
	datasets []Dataset
	answer   string
}

// NewReveal creates the label hunt with its three fields
func NewReveal() *Reveal {
	r := &Reveal{
		datasets: []Dataset{
			{ID: "unlabeled", Title: "Unlabeled Cloud", Density: 60, LabeledRatio: 0},
			{ID: "partial", Title: "Partially Labeled Set", Density: 80, LabeledRatio: 0.45},
			{ID: "full", Title: "Fully Labeled Dataset", Density: 100, LabeledRatio: 1},
		},
		answer: "full",
	}
	for i := range r.datasets {
		ds := &r.datasets[i]
		ds.Points = GeneratePoints(ds.ID, ds.Density, ds.LabeledRatio, FieldWidth, FieldHeight)
	}
	return r
}

func (r *Reveal) Kind() model.PuzzleKind { return model.PuzzleKindReveal }

// Datasets returns the scatter fields
func (r *Reveal) Datasets() []Dataset { return r.datasets }

func (r *Reveal) Init(*model.PuzzleState) {}

// Scan counts the points under a lens centred at x,y
func (r *Reveal) Scan(datasetID string, x, y int) (labeled, total int, err error) {
	ds, ok := r.dataset(datasetID)
	if !ok {
		return 0, 0, invalidAction(r.Kind(), "unknown dataset %q", datasetID)
	}
	if x < 0 || x > FieldWidth || y < 0 || y > FieldHeight {
		return 0, 0, invalidAction(r.Kind(), "lens at (%d,%d) is outside the field", x, y)
	}
	for _, p := range ds.Points {
		dx, dy := p.X-x, p.Y-y
		if dx*dx+dy*dy > LensRadius*LensRadius {
			continue
		}
		total++
		if p.Labeled {
			labeled++
		}
	}
	return labeled, total, nil
}

func (r *Reveal) Apply(state *model.PuzzleState, action Action, _ time.Time) (Outcome, error) {
	switch action.Type {
	case ActionScan:
		labeled, total, err := r.Scan(action.Target, action.X, action.Y)
		if err != nil {
			return Outcome{}, err
		}
		state.Scanned = action.Target
		ds, _ := r.dataset(action.Target)
		return Outcome{Feedback: fmt.Sprintf("Lens over %s: %d of %d points labeled.", ds.Title, labeled, total)}, nil

	case ActionChoose:
		if _, ok := r.dataset(action.Target); !ok {
			return Outcome{}, invalidAction(r.Kind(), "unknown dataset %q", action.Target)
		}
		if action.Target == r.answer {
			return Outcome{Correct: true, Solved: true, Feedback: "✅ Correct! Fully labeled data enables supervised learning."}, nil
		}
		return Outcome{Feedback: "Not quite. Scan for the dataset where every point is labeled."}, nil

	default:
		return Outcome{}, invalidAction(r.Kind(), "unsupported action %q", action.Type)
	}
}

func (r *Reveal) dataset(id string) (Dataset, bool) {
	for _, ds := range r.datasets {
		if ds.ID == id {
			return ds, true
		}
	}
	return Dataset{}, false
}

// GeneratePoints lays out density points deterministically from seed so a
// field looks the same on every render
func GeneratePoints(seed string, density int, labeledRatio float64, width, height int) []Point {
	next := seededRand(seed)
	points := make([]Point, 0, density)
	for range density {
		x := int(next()*float64(width-2*fieldMargin)) + fieldMargin
		y := int(next()*float64(height-2*fieldMargin)) + fieldMargin
		labeled := next() < labeledRatio
		points = append(points, Point{X: x, Y: y, Labeled: labeled})
	}
	return points
}

// seededRand hashes seed with FNV-1a and returns a small 32-bit generator
// yielding floats in [0, 1)
func seededRand(seed string) func() float64 {
	h := uint32(2166136261)
	for i := 0; i < len(seed); i++ {
		h ^= uint32(seed[i])
		h *= 16777619
	}
	return func() float64 {
		h += 0x6d2b79f5
		t := (h ^ (h >> 15)) * (1 | h)
		t ^= t + (t^(t>>7))*(61|t)
		return float64(t^(t>>14)) / 4294967296
	}
}
