// Package catalog describes the ordered set of puzzles a run moves through.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/mlctf/internal/flagcodec"
	"github.com/mcoot/mlctf/internal/model"
)

//go:embed default.yaml
var defaultYAML []byte

// Format is the encoding of a catalog file
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// SliderParams configures a slider puzzle
type SliderParams struct {
	Min   int `yaml:"min" toml:"min"`
	Max   int `yaml:"max" toml:"max"`
	Start int `yaml:"start" toml:"start"`
	TP    int `yaml:"tp" toml:"tp"`
	TN    int `yaml:"tn" toml:"tn"`
	FP    int `yaml:"fp" toml:"fp"`
	FN    int `yaml:"fn" toml:"fn"`
}

// Accuracy returns round((TP+TN)/total*100)
func (p SliderParams) Accuracy() int {
	total := p.TP + p.TN + p.FP + p.FN
	if total == 0 {
		return 0
	}
	// Integer half-up rounding of 100*(TP+TN)/total
	return (200*(p.TP+p.TN) + total) / (2 * total)
}

// TimedParams configures a timed puzzle
type TimedParams struct {
	Seconds int `yaml:"seconds" toml:"seconds"`
}

// Entry is one puzzle in the catalog
type Entry struct {
	ID      model.PuzzleID   `yaml:"id" toml:"id"`
	Kind    model.PuzzleKind `yaml:"kind" toml:"kind"`
	Title   string           `yaml:"title" toml:"title"`
	Brief   string           `yaml:"brief" toml:"brief"`
	FunFact string           `yaml:"fun_fact" toml:"fun_fact"`

	// Flag is the encoded token, never the plaintext
	Flag string `yaml:"flag" toml:"flag"`

	Slider *SliderParams `yaml:"slider,omitempty" toml:"slider,omitempty"`
	Timed  *TimedParams  `yaml:"timed,omitempty" toml:"timed,omitempty"`
}

// Catalog is the ordered list of puzzles
type Catalog struct {
	Puzzles []Entry `yaml:"puzzles" toml:"puzzles"`
}

// Default returns the built-in five room catalog
func Default() *Catalog {
	c, err := Parse(defaultYAML, FormatYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog file, choosing the format from its extension
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".toml":
		format = FormatTOML
	default:
		return nil, fmt.Errorf("%w: unsupported catalog extension %q", model.ErrInvalidCatalog, filepath.Ext(path))
	}
	return Parse(data, format)
}

// Parse decodes and validates a catalog
func Parse(data []byte, format Format) (*Catalog, error) {
	var c Catalog
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidCatalog, err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &c)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidCatalog, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown keys %v", model.ErrInvalidCatalog, undecoded)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", model.ErrInvalidCatalog, format)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks ordering, kinds and per-kind parameters
func (c *Catalog) Validate() error {
	if len(c.Puzzles) == 0 {
		return fmt.Errorf("%w: no puzzles", model.ErrInvalidCatalog)
	}

	seenFlags := make(map[string]bool, len(c.Puzzles))
	for i, e := range c.Puzzles {
		if e.ID != model.PuzzleID(i+1) {
			return fmt.Errorf("%w: puzzle at position %d has id %d", model.ErrInvalidCatalog, i+1, e.ID)
		}
		if e.Flag == "" {
			return fmt.Errorf("%w: puzzle %d has no flag", model.ErrInvalidCatalog, e.ID)
		}
		if seenFlags[e.Flag] {
			return fmt.Errorf("%w: puzzle %d reuses a flag", model.ErrInvalidCatalog, e.ID)
		}
		seenFlags[e.Flag] = true

		switch e.Kind {
		case model.PuzzleKindDragDrop, model.PuzzleKindReveal, model.PuzzleKindMultiSelect:
		case model.PuzzleKindSlider:
			if err := validateSlider(e); err != nil {
				return err
			}
		case model.PuzzleKindTimedBreach:
			if e.Timed == nil || e.Timed.Seconds <= 0 {
				return fmt.Errorf("%w: puzzle %d needs a positive countdown", model.ErrInvalidCatalog, e.ID)
			}
		default:
			return fmt.Errorf("%w: puzzle %d has unknown kind %q", model.ErrInvalidCatalog, e.ID, e.Kind)
		}
	}
	return nil
}

func validateSlider(e Entry) error {
	p := e.Slider
	if p == nil {
		return fmt.Errorf("%w: puzzle %d needs slider parameters", model.ErrInvalidCatalog, e.ID)
	}
	if p.Min >= p.Max || p.Start < p.Min || p.Start > p.Max {
		return fmt.Errorf("%w: puzzle %d has an invalid dial range", model.ErrInvalidCatalog, e.ID)
	}
	if p.TP < 0 || p.TN < 0 || p.FP < 0 || p.FN < 0 || p.TP+p.TN+p.FP+p.FN == 0 {
		return fmt.Errorf("%w: puzzle %d has an invalid confusion matrix", model.ErrInvalidCatalog, e.ID)
	}
	if acc := p.Accuracy(); acc < p.Min || acc > p.Max {
		return fmt.Errorf("%w: puzzle %d accuracy %d is outside the dial", model.ErrInvalidCatalog, e.ID, acc)
	}
	return nil
}

// Len returns the number of puzzles
func (c *Catalog) Len() int {
	return len(c.Puzzles)
}

// Get returns the entry for id
func (c *Catalog) Get(id model.PuzzleID) (Entry, bool) {
	if id < 1 || int(id) > len(c.Puzzles) {
		return Entry{}, false
	}
	return c.Puzzles[id-1], true
}

// CanonicalFlags decodes every puzzle's flag in catalog order
func (c *Catalog) CanonicalFlags(codec *flagcodec.Codec) ([]model.Flag, error) {
	flags := make([]model.Flag, 0, len(c.Puzzles))
	for _, e := range c.Puzzles {
		plain, err := codec.Decode(e.Flag)
		if err != nil {
			return nil, fmt.Errorf("puzzle %d: %w", e.ID, err)
		}
		flags = append(flags, model.Flag(plain))
	}
	return flags, nil
}
