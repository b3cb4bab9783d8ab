package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/crewviz/pkg/config"
	errs "github.com/matzehuels/crewviz/pkg/errors"
	"github.com/matzehuels/crewviz/pkg/store"
	"github.com/matzehuels/crewviz/pkg/workflow"
)

// workflowsCommand manages stored workflow documents. The in-memory store
// does not outlive a command, so the CLI falls back to the file store.
func (c *CLI) workflowsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workflows",
		Aliases: []string{"wf"},
		Short:   "Manage stored workflow documents",
	}

	cmd.AddCommand(c.workflowsSaveCommand())
	cmd.AddCommand(c.workflowsListCommand())
	cmd.AddCommand(c.workflowsShowCommand())
	cmd.AddCommand(c.workflowsRemoveCommand())

	return cmd
}

// withStore opens the configured store, runs fn and closes the store.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Backend == config.StoreMemory {
		cfg.Store.Backend = config.StoreFile
	}
	st, err := c.newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(st)
}

func (c *CLI) workflowsSaveCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "save <workflow.json|url|demo>",
		Short: "Store a workflow document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if name == "" {
				name = outputBase(args[0])
			}
			if err := errs.ValidateName(name); err != nil {
				return err
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg, false)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			src, err := c.openSource(args[0], runner, false)
			if err != nil {
				return err
			}
			g, err := runner.Load(ctx, src)
			if err != nil {
				return err
			}
			printIssues(workflow.Validate(g))

			return c.withStore(ctx, func(st store.Store) error {
				doc := &store.Document{Name: name, Graph: g}
				if err := st.Save(ctx, doc); err != nil {
					return err
				}
				printSuccess("Stored %s", StyleValue.Render(name))
				printKeyValue("id", doc.ID)
				printStats(g, false)
				printNewline()
				printNextStep("Show", appName+" workflows show "+doc.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "document name (default: derived from the source)")
	return cmd
}

func (c *CLI) workflowsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored workflow documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				list, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printInfo("No stored workflows")
					return nil
				}
				fmt.Println(summaryTable(list, time.Now()))
				return nil
			})
		},
	}
}

func (c *CLI) workflowsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Write a stored document to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errs.ValidateDocumentID(args[0]); err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				doc, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return notFound(args[0], err)
				}
				return workflow.WriteGraph(os.Stdout, doc.Graph)
			})
		},
	}
}

func (c *CLI) workflowsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a stored document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errs.ValidateDocumentID(args[0]); err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				if err := st.Delete(cmd.Context(), args[0]); err != nil {
					return notFound(args[0], err)
				}
				printSuccess("Deleted %s", args[0])
				return nil
			})
		},
	}
}

func notFound(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return errs.Wrap(errs.ErrCodeWorkflowNotFound, err, "workflow %s not found", id)
	}
	return err
}

// summaryTable renders stored documents as a bordered table.
func summaryTable(list []store.Summary, now time.Time) string {
	rows := make([][]string, len(list))
	for i, s := range list {
		rows[i] = []string{
			s.ID,
			s.Name,
			fmt.Sprintf("%d", s.Nodes),
			fmt.Sprintf("%d", s.Edges),
			formatRelativeTime(s.UpdatedAt, now),
		}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Nodes", "Edges", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0 || col == 4:
				return StyleDim
			}
			return StyleValue
		}).
		Render()
}

func formatRelativeTime(t, now time.Time) string {
	if now.Sub(t) > 7*24*time.Hour {
		return t.Format("Jan 2, 2006")
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
