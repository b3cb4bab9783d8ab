package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crewviz/internal/server"
	"github.com/matzehuels/crewviz/pkg/pipeline"
	"github.com/matzehuels/crewviz/pkg/source"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		defaultFlow string
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve laid-out workflows over HTTP",
		Long: `Serve laid-out workflows over HTTP.

GET /api/v1/workflow returns the default document with positions filled in,
POST /api/v1/layout positions a posted document, and /api/v1/workflows stores
documents in the configured store (memory, file or mongo) for later layout and
rendering.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("default") {
				cfg.Server.DefaultWorkflow = defaultFlow
			}

			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			st, err := c.newStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			src, err := c.defaultSource(cfg.Server.DefaultWorkflow, runner)
			if err != nil {
				return err
			}

			lc := cfg.LayoutConfig()
			srv := server.New(server.Options{
				Runner:         runner,
				Store:          st,
				Default:        src,
				Layout:         &lc,
				RequestTimeout: cfg.Server.ReadTimeout,
				Logger:         loggerFromContext(ctx),
			})

			printInfo("Serving on %s", StyleValue.Render(cfg.Server.Addr))
			printKeyValue("default", source.String(src))
			printKeyValue("cache", cfg.Cache.Backend)
			printKeyValue("store", cfg.Store.Backend)
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&defaultFlow, "default", "", "document served at /api/v1/workflow: file, URL or \"demo\" (default: empty graph)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// defaultSource opens the document served at /api/v1/workflow. Without one
// the server answers with the empty graph.
func (c *CLI) defaultSource(arg string, runner *pipeline.Runner) (source.Source, error) {
	if arg == "" {
		return source.Empty(), nil
	}
	return c.openSource(arg, runner, false)
}
