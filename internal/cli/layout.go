package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crewviz/pkg/config"
	"github.com/matzehuels/crewviz/pkg/layout"
	"github.com/matzehuels/crewviz/pkg/pipeline"
	"github.com/matzehuels/crewviz/pkg/workflow"
)

// layoutFlags are shared by every command that positions a document.
type layoutFlags struct {
	strategy string
	center   bool
	centerX  float64
	noCache  bool
	refresh  bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "layout strategy: connectivity, delegated (default from config)")
	cmd.Flags().BoolVar(&f.center, "center", false, "center the layout horizontally on the viewport")
	cmd.Flags().Float64Var(&f.centerX, "center-x", layout.DefaultViewportCenterX, "viewport center X used by --center")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached documents, layouts and artifacts")
}

// layoutConfig applies the flags the user set over the configured layout.
func (f *layoutFlags) layoutConfig(cmd *cobra.Command, cfg *config.Config) (*layout.Config, error) {
	lc := cfg.LayoutConfig()
	if f.strategy != "" {
		s, err := layout.ParseStrategy(f.strategy)
		if err != nil {
			return nil, err
		}
		lc.Strategy = s
	}
	if cmd.Flags().Changed("center") {
		lc.Center = f.center
	}
	if cmd.Flags().Changed("center-x") {
		lc.Center = true
		lc.ViewportCenterX = f.centerX
	}
	return &lc, nil
}

// layoutCommand creates the layout command for positioning a workflow.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "layout <workflow.json|url|demo>",
		Short: "Position the nodes of a workflow document",
		Long: `Position the nodes of a workflow document.

Inputs and tasks share the top band, agents sit below the first task they are
connected to, and tools are stacked under their agent. Execution nodes keep the
coordinates they were given. The output is the same document with positions
filled in, written to <input>.layout.json or to stdout with -o -.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd, args[0], &flags, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <input>.layout.json)")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, input string, flags *layoutFlags, output string) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	lc, err := flags.layoutConfig(cmd, cfg)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	g, positioned, cacheHit, err := c.loadAndLayout(ctx, runner, input, pipeline.Options{
		Layout:  lc,
		Refresh: flags.refresh,
	}, flags.refresh)
	if err != nil {
		return err
	}

	if output == "-" {
		return workflow.WriteGraph(os.Stdout, positioned)
	}
	if output == "" {
		output = outputBase(input) + ".layout.json"
	}
	if err := workflow.WriteGraphFile(output, positioned); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(g, cacheHit)
	printNewline()
	printNextStep("Render", appName+" render "+output)
	return nil
}

// loadAndLayout loads input, reports validation issues and positions the
// document behind a spinner.
func (c *CLI) loadAndLayout(ctx context.Context, runner *pipeline.Runner, input string, opts pipeline.Options, refresh bool) (workflow.Graph, workflow.Graph, bool, error) {
	src, err := c.openSource(input, runner, refresh)
	if err != nil {
		return workflow.Graph{}, workflow.Graph{}, false, err
	}

	spinner := newSpinner(ctx, "Loading "+input+"...")
	spinner.Start()

	g, err := runner.Load(ctx, src)
	if err != nil {
		spinner.StopWithError("Load failed")
		return workflow.Graph{}, workflow.Graph{}, false, err
	}

	spinner.Update(fmt.Sprintf("Laying out %d nodes...", len(g.Nodes)))
	prog := newProgress(c.Logger)
	positioned, cacheHit, err := runner.LayoutWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return workflow.Graph{}, workflow.Graph{}, false, err
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return workflow.Graph{}, workflow.Graph{}, false, ctx.Err()
	}

	c.Logger.Debug("layout ready", "strategy", opts.Layout.Strategy, "cached", cacheHit)
	prog.done(fmt.Sprintf("Laid out %d nodes", len(g.Nodes)))
	printIssues(workflow.Validate(g))
	return g, positioned, cacheHit, nil
}
