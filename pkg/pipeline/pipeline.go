// Package pipeline turns diagram documents into rendered artifacts.
//
// The CLI and the HTTP server share one path from a document to output:
//
//  1. Load: apply the document to a fresh [diagram.Graph]
//  2. Paint: lay out unplaced nodes and synchronize every shape
//  3. Render: encode the scene as SVG, or the painted model as JSON or TOML
//
// A [Runner] keys artifacts by the content hash of the document and the
// render options, and keeps them in a [store.Store], so rendering an
// unchanged document twice only reads the store.
//
//	runner := pipeline.NewRunner(st, nil, logger)
//	res, err := runner.Execute(ctx, doc, pipeline.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    return err
//	}
//	svg := res.Artifacts["svg"]
package pipeline

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/linkgraph/pkg/diagram"
	"github.com/matzehuels/linkgraph/pkg/errors"
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatTOML = "toml"
)

// ValidFormats lists the supported output formats.
var ValidFormats = []string{FormatSVG, FormatJSON, FormatTOML}

// ValidateFormat checks that format is supported. Names are case-sensitive.
func ValidateFormat(format string) error {
	if !slices.Contains(ValidFormats, format) {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (want one of %v)", format, ValidFormats)
	}
	return nil
}

// ValidateFormats checks every entry of formats.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// Options controls one pipeline run.
type Options struct {
	Formats    []string `json:"formats,omitempty"`
	Margin     float64  `json:"margin,omitempty"`
	Background string   `json:"background,omitempty"`
	NoLabels   bool     `json:"no_labels,omitempty"`

	// Strict fails the run when any document entry is rejected. Otherwise
	// rejected entries are logged and skipped.
	Strict bool `json:"strict,omitempty"`
	// Refresh ignores stored artifacts and renders again.
	Refresh bool `json:"refresh,omitempty"`

	Logger       *log.Logger      `json:"-"`
	GraphOptions []diagram.Option `json:"-"`
	// Profile identifies GraphOptions in cache keys. Runs with different
	// graph options must use different profiles.
	Profile string `json:"-"`
}

// DefaultMargin is the space kept around the drawing in SVG output.
const DefaultMargin = 20.0

// ValidateAndSetDefaults fills unset fields and checks the rest.
func (o *Options) ValidateAndSetDefaults() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Margin == 0 {
		o.Margin = DefaultMargin
	}
	if o.Margin < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "margin must not be negative")
	}
	return nil
}

// keyParams is the part of Options that changes rendered output.
func (o Options) keyParams() any {
	return struct {
		Margin     float64
		Background string
		NoLabels   bool
		Profile    string
	}{o.Margin, o.Background, o.NoLabels, o.Profile}
}

// =============================================================================
// Results
// =============================================================================

// Result is the outcome of a pipeline run.
type Result struct {
	// Graph is the painted diagram. It is nil when every artifact came
	// from the store.
	Graph *diagram.Graph

	// DocHash is the content hash of the input document.
	DocHash string

	// Artifacts holds the rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Rejected is the number of document entries that could not be added,
	// and LoadErr describes them.
	Rejected int
	LoadErr  error

	Stats    Stats
	CacheHit bool
}

// Stats holds counts and timings of a run.
type Stats struct {
	Nodes, Edges, Groups int
	LoadTime             time.Duration
	PaintTime            time.Duration
	RenderTime           time.Duration
}
