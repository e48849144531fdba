package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/linkgraph/pkg/document"
	"github.com/matzehuels/linkgraph/pkg/errors"
	"github.com/matzehuels/linkgraph/pkg/pipeline"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output     string   // output file, or base path when several formats are written
	formats    []string // svg, json, toml
	margin     float64
	background string
	noLabels   bool
	strict     bool // fail on rejected document entries
	noCache    bool
	refresh    bool
}

func (c *CLI) renderCommand() *cobra.Command {
	var formats string
	opts := renderOpts{margin: pipeline.DefaultMargin}

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Lay out a diagram document and write SVG, JSON or TOML",
		Long: `Render loads a JSON or TOML diagram document, places nodes that have no
coordinates with the configured layout, and writes the result.

SVG is the drawing. JSON and TOML are the painted document, with every node
position filled in.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formats)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (one format) or base path (several)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): svg (default), json, toml (comma-separated)")
	cmd.Flags().Float64Var(&opts.margin, "margin", opts.margin, "space around the drawing")
	cmd.Flags().StringVar(&opts.background, "background", "", "canvas color")
	cmd.Flags().BoolVar(&opts.noLabels, "no-labels", false, "omit labels")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when any document entry is rejected")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "neither read nor write the store")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "render again even if the store has the output")
	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	done := timed(loggerFrom(ctx))

	doc, err := document.ReadFile(input)
	if err != nil {
		return err
	}
	paths, err := outputPaths(input, opts.output, opts.formats)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := c.pipelineOptions()
	popts.Formats = opts.formats
	popts.Margin = opts.margin
	popts.Background = opts.background
	popts.NoLabels = opts.noLabels
	popts.Strict = opts.strict
	popts.Refresh = opts.refresh

	res, err := runner.Execute(ctx, doc, popts)
	if err != nil {
		return err
	}

	for _, format := range opts.formats {
		if err := os.WriteFile(paths[format], res.Artifacts[format], 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", paths[format])
		}
	}
	done("rendered", "file", input)

	printSuccess(c.out, "Rendered %s", filepath.Base(input))
	printCounts(c.out, res.Stats.Nodes, res.Stats.Edges, res.Stats.Groups, res.CacheHit)
	if res.Rejected > 0 {
		printWarning(c.out, "%d document entries rejected (run check for details)", res.Rejected)
	}
	for _, format := range opts.formats {
		printFile(c.out, paths[format])
	}
	return nil
}

// parseFormats splits the --format flag, defaulting to svg.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// outputPaths maps each format to its output file. With one format, output
// names the file; with several it is a base path that gets the format as
// extension. Without output the input path is reused.
func outputPaths(input, output string, formats []string) (map[string]string, error) {
	paths := make(map[string]string, len(formats))
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if output != "" {
		if err := errors.ValidatePath(output); err != nil {
			return nil, err
		}
		base = strings.TrimSuffix(output, filepath.Ext(output))
	}
	for _, f := range formats {
		if len(formats) == 1 && output != "" {
			paths[f] = output
			continue
		}
		paths[f] = base + "." + f
	}
	for _, f := range formats {
		if filepath.Clean(paths[f]) == filepath.Clean(input) {
			return nil, errors.New(errors.ErrCodeInvalidPath, "refusing to overwrite the input %s (use -o)", input)
		}
	}
	return paths, nil
}
