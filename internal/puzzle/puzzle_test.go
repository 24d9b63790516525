package puzzle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/mlctf/internal/catalog"
	"github.com/mcoot/mlctf/internal/flagcodec"
	"github.com/mcoot/mlctf/internal/model"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func buildDefault(t *testing.T) *Set {
	t.Helper()
	set, err := Build(catalog.Default(), flagcodec.MustNew(flagcodec.DefaultSalt))
	require.NoError(t, err)
	return set
}

func freshState(inst *Instance) *model.PuzzleState {
	s := &model.PuzzleState{}
	unlocked := testNow
	s.UnlockedAt = &unlocked
	inst.Unit.Init(s)
	return s
}

func TestBuild_Default(t *testing.T) {
	set := buildDefault(t)
	require.Equal(t, 5, set.Len())

	assert.Equal(t, []model.Flag{
		"FLAG{classifier}",
		"FLAG{labels}",
		"FLAG{accuracy80}",
		"FLAG{not_toast}",
		"FLAG{defend_the_city}",
	}, set.Flags())

	inst, ok := set.Get(5)
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, inst.Duration())

	inst, ok = set.Get(1)
	require.True(t, ok)
	assert.Zero(t, inst.Duration())

	_, ok = set.Get(6)
	assert.False(t, ok)
}

func TestBuild_BadToken(t *testing.T) {
	c := &catalog.Catalog{Puzzles: []catalog.Entry{
		{ID: 1, Kind: model.PuzzleKindDragDrop, Flag: "%%%"},
	}}
	_, err := Build(c, flagcodec.MustNew(flagcodec.DefaultSalt))
	assert.ErrorIs(t, err, flagcodec.ErrMalformedToken)
}

func TestInstance_CallbackFiresOnce(t *testing.T) {
	set := buildDefault(t)
	inst, _ := set.Get(1)
	state := freshState(inst)

	var got []model.Flag
	onSolved := func(f model.Flag) { got = append(got, f) }

	_, err := inst.Interact(state, Action{Type: ActionDrop, Item: "spam", Target: "classification"}, testNow, onSolved)
	require.NoError(t, err)
	assert.Empty(t, got)

	out, err := inst.Interact(state, Action{Type: ActionCheck}, testNow, onSolved)
	require.NoError(t, err)
	assert.True(t, out.Solved)
	assert.Equal(t, model.Flag("FLAG{classifier}"), out.Flag)

	out, err = inst.Interact(state, Action{Type: ActionCheck}, testNow, onSolved)
	require.NoError(t, err)
	assert.True(t, out.AlreadySolved)
	assert.Empty(t, out.Flag)

	assert.Equal(t, []model.Flag{"FLAG{classifier}"}, got)
	assert.True(t, state.Solved)
	require.NotNil(t, state.SolvedAt)
}

func TestDragDrop(t *testing.T) {
	d := NewDragDrop()
	state := &model.PuzzleState{}
	d.Init(state)

	out, err := d.Apply(state, Action{Type: ActionCheck}, testNow)
	require.NoError(t, err)
	assert.False(t, out.Solved)

	_, err = d.Apply(state, Action{Type: ActionDrop, Item: "prices", Target: "classification"}, testNow)
	require.NoError(t, err)
	out, err = d.Apply(state, Action{Type: ActionCheck}, testNow)
	require.NoError(t, err)
	assert.False(t, out.Solved)
	assert.NotEmpty(t, out.Feedback)

	_, err = d.Apply(state, Action{Type: ActionDrop, Item: "spam", Target: "classification"}, testNow)
	require.NoError(t, err)
	out, err = d.Apply(state, Action{Type: ActionCheck}, testNow)
	require.NoError(t, err)
	assert.True(t, out.Solved)

	_, err = d.Apply(state, Action{Type: ActionDrop, Item: "spam", Target: "sorting"}, testNow)
	assert.ErrorIs(t, err, model.ErrInvalidAction)
	_, err = d.Apply(state, Action{Type: ActionDrop, Item: "weather", Target: "regression"}, testNow)
	assert.ErrorIs(t, err, model.ErrInvalidAction)
	_, err = d.Apply(state, Action{Type: ActionSet}, testNow)
	assert.ErrorIs(t, err, model.ErrInvalidAction)
}

func TestReveal_PointsAreDeterministic(t *testing.T) {
	a := GeneratePoints("partial", 80, 0.45, FieldWidth, FieldHeight)
	b := GeneratePoints("partial", 80, 0.45, FieldWidth, FieldHeight)
	assert.Equal(t, a, b)
	assert.Len(t, a, 80)

	for _, p := range a {
		assert.GreaterOrEqual(t, p.X, fieldMargin)
		assert.Less(t, p.X, FieldWidth-fieldMargin)
		assert.GreaterOrEqual(t, p.Y, fieldMargin)
		assert.Less(t, p.Y, FieldHeight-fieldMargin)
	}

	assert.NotEqual(t, a, GeneratePoints("full", 80, 0.45, FieldWidth, FieldHeight))
}

func TestReveal_LabelRatios(t *testing.T) {
	r := NewReveal()
	for _, ds := range r.Datasets() {
		labeled := 0
		for _, p := range ds.Points {
			if p.Labeled {
				labeled++
			}
		}
		switch ds.ID {
		case "unlabeled":
			assert.Zero(t, labeled)
		case "full":
			assert.Equal(t, len(ds.Points), labeled)
		case "partial":
			assert.Greater(t, labeled, 0)
			assert.Less(t, labeled, len(ds.Points))
		}
	}
}

func TestReveal_Scan(t *testing.T) {
	r := NewReveal()

	// Every point under the lens is labeled in the full dataset
	labeled, total, err := r.Scan("full", FieldWidth/2, FieldHeight/2)
	require.NoError(t, err)
	assert.Equal(t, labeled, total)
	assert.Positive(t, total)

	labeled, _, err = r.Scan("unlabeled", FieldWidth/2, FieldHeight/2)
	require.NoError(t, err)
	assert.Zero(t, labeled)

	_, _, err = r.Scan("full", -1, 10)
	assert.ErrorIs(t, err, model.ErrInvalidAction)
	_, _, err = r.Scan("mystery", 10, 10)
	assert.ErrorIs(t, err, model.ErrInvalidAction)
}

func TestReveal_Choose(t *testing.T) {
	r := NewReveal()
	state := &model.PuzzleState{}

	out, err := r.Apply(state, Action{Type: ActionScan, Target: "partial", X: 100, Y: 80}, testNow)
	require.NoError(t, err)
	assert.False(t, out.Solved)
	assert.Equal(t, "partial", state.Scanned)

	out, err = r.Apply(state, Action{Type: ActionChoose, Target: "partial"}, testNow)
	require.NoError(t, err)
	assert.False(t, out.Solved)
	assert.Equal(t, "Not quite. Scan for the dataset where every point is labeled.", out.Feedback)

	out, err = r.Apply(state, Action{Type: ActionChoose, Target: "full"}, testNow)
	require.NoError(t, err)
	assert.True(t, out.Solved)
}

func TestSlider(t *testing.T) {
	s := NewSlider(catalog.SliderParams{Min: 50, Max: 100, Start: 65, TP: 40, TN: 40, FP: 5, FN: 15})
	state := &model.PuzzleState{}
	s.Init(state)
	assert.Equal(t, 65, s.Dial(state))

	out, err := s.Apply(state, Action{Type: ActionSet, Value: 79}, testNow)
	require.NoError(t, err)
	assert.False(t, out.Solved)
	assert.Equal(t, 79, state.Dial)

	_, err = s.Apply(state, Action{Type: ActionSet, Value: 49}, testNow)
	assert.ErrorIs(t, err, model.ErrInvalidAction)
	_, err = s.Apply(state, Action{Type: ActionSet, Value: 101}, testNow)
	assert.ErrorIs(t, err, model.ErrInvalidAction)
	assert.Equal(t, 79, state.Dial)

	out, err = s.Apply(state, Action{Type: ActionSet, Value: 80}, testNow)
	require.NoError(t, err)
	assert.True(t, out.Solved)
}

func TestMultiSelect(t *testing.T) {
	tests := []struct {
		name   string
		toggle []string
		solved bool
	}{
		{"nothing selected", nil, false},
		{"two of three", []string{"thermostat", "netflix"}, false},
		{"all three", []string{"thermostat", "netflix", "camera"}, true},
		{"all four", []string{"thermostat", "netflix", "camera", "toaster"}, false},
		{"toaster toggled off again", []string{"toaster", "thermostat", "netflix", "camera", "toaster"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMultiSelect()
			state := &model.PuzzleState{}
			m.Init(state)
			for _, item := range tt.toggle {
				_, err := m.Apply(state, Action{Type: ActionToggle, Item: item}, testNow)
				require.NoError(t, err)
			}
			out, err := m.Apply(state, Action{Type: ActionCheck}, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.solved, out.Solved)
		})
	}

	_, err := NewMultiSelect().Apply(&model.PuzzleState{}, Action{Type: ActionToggle, Item: "kettle"}, testNow)
	assert.ErrorIs(t, err, model.ErrInvalidAction)
}

func TestCaesarDecode(t *testing.T) {
	assert.Equal(t, CipherPlain, CaesarDecode(CipherText, 5))
	assert.Equal(t, CipherText, CaesarDecode(CipherText, 0))
	assert.Equal(t, CaesarDecode(CipherText, 5), CaesarDecode(CipherText, 31))
	assert.Equal(t, "A-B", CaesarDecode("b-c", 1))
}

func TestTimedBreach_Flow(t *testing.T) {
	b := NewTimedBreach(90 * time.Second)
	state := &model.PuzzleState{}
	unlocked := testNow
	state.UnlockedAt = &unlocked
	b.Init(state)
	assert.Equal(t, DefaultShift, state.Shift)

	out, err := b.Apply(state, Action{Type: ActionAudit, Value: 8}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Decrypt first. The console is still encrypted.", out.Feedback)
	assert.False(t, state.AuditSolved)

	out, err = b.Apply(state, Action{Type: ActionDecrypt}, testNow)
	require.NoError(t, err)
	assert.False(t, out.Correct)

	_, err = b.Apply(state, Action{Type: ActionShift, Value: 5}, testNow)
	require.NoError(t, err)
	out, err = b.Apply(state, Action{Type: ActionDecrypt}, testNow)
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.False(t, out.Solved)

	out, err = b.Apply(state, Action{Type: ActionAudit, Value: 3}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Nope. Trace data flow and find the sink.", out.Feedback)

	out, err = b.Apply(state, Action{Type: ActionAudit, Value: 8}, testNow.Add(10*time.Second))
	require.NoError(t, err)
	assert.True(t, out.Solved)
	assert.False(t, out.Expired)
	assert.Equal(t, "✅ Breach contained. Protocol secured.", out.Feedback)
}

func TestTimedBreach_InvalidActions(t *testing.T) {
	b := NewTimedBreach(90 * time.Second)
	state := &model.PuzzleState{}

	_, err := b.Apply(state, Action{Type: ActionShift, Value: 26}, testNow)
	assert.ErrorIs(t, err, model.ErrInvalidAction)
	_, err = b.Apply(state, Action{Type: ActionAudit, Value: len(b.CodeLines())}, testNow)
	assert.ErrorIs(t, err, model.ErrInvalidAction)
	_, err = b.Apply(state, Action{Type: ActionToggle}, testNow)
	assert.ErrorIs(t, err, model.ErrInvalidAction)
}

func TestTimedBreach_ExpiryDoesNotBlockSolve(t *testing.T) {
	b := NewTimedBreach(90 * time.Second)
	state := &model.PuzzleState{}
	unlocked := testNow
	state.UnlockedAt = &unlocked
	b.Init(state)

	late := testNow.Add(2 * time.Minute)
	assert.Zero(t, b.Remaining(state, late))
	assert.Equal(t, 30*time.Second, b.Remaining(state, testNow.Add(time.Minute)))

	_, err := b.Apply(state, Action{Type: ActionShift, Value: 5}, late)
	require.NoError(t, err)
	assert.True(t, state.Expired)

	_, err = b.Apply(state, Action{Type: ActionDecrypt}, late)
	require.NoError(t, err)
	out, err := b.Apply(state, Action{Type: ActionAudit, Value: 8}, late)
	require.NoError(t, err)
	assert.True(t, out.Solved)
	assert.True(t, out.Expired)
}
