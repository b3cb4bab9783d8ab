package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crewviz/pkg/pipeline"
)

// renderCommand creates the render command: load, layout and render in one go.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags      layoutFlags
		formatsStr string
		output     string
	)
	opts := pipeline.Options{
		Renderer: pipeline.RendererCards,
		Scale:    pipeline.DefaultScale,
	}

	cmd := &cobra.Command{
		Use:   "render <workflow.json|url|demo>",
		Short: "Render a workflow to SVG, PNG, PDF, DOT or JSON",
		Long: `Render a workflow to SVG, PNG, PDF, DOT or JSON.

The document is laid out first (see 'layout'), then drawn. The cards renderer
draws one card per node, colored by kind; the graphviz renderer draws the DOT
export with nodes pinned at their computed positions. PNG and PDF are converted
from SVG with rsvg-convert.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if err := pipeline.ValidateRenderer(opts.Renderer); err != nil {
				return err
			}
			return c.runRender(cmd, args[0], &flags, opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json (comma-separated)")
	cmd.Flags().StringVar(&opts.Renderer, "renderer", opts.Renderer, "svg renderer: cards, graphviz")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show node details (goal, description, ...)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", opts.Scale, "PNG scale factor")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, flags *layoutFlags, opts pipeline.Options, output string) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.Layout, err = flags.layoutConfig(cmd, cfg); err != nil {
		return err
	}
	opts.Refresh = flags.refresh

	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	src, err := c.openSource(input, runner, flags.refresh)
	if err != nil {
		return err
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()
	result, err := runner.Execute(ctx, src, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	printIssues(result.Report)
	paths, err := writeArtifacts(result.Artifacts, opts.Formats, input, output)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", input)
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Graph, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	return nil
}

// writeArtifacts writes one file per format and returns the paths in format
// order. A single format honours output verbatim; several formats use it as
// a base path.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	var paths []string
	for _, format := range formats {
		path := artifactPath(format, formats, input, output)
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func artifactPath(format string, formats []string, input, output string) string {
	if output != "" && len(formats) == 1 {
		return output
	}
	return basePath(output, input) + "." + format
}

// basePath strips a known format extension from output, or derives the base
// from input when output is empty.
func basePath(output, input string) string {
	if output == "" {
		return outputBase(input)
	}
	ext := filepath.Ext(output)
	if slices.Contains(pipeline.ValidFormats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
