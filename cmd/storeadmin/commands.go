package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	mcpadapter "github.com/guillermoBallester/storeadmin/internal/adapter/mcp"
	"github.com/guillermoBallester/storeadmin/internal/adapter/shell"
	"github.com/guillermoBallester/storeadmin/internal/bootstrap"
	"github.com/guillermoBallester/storeadmin/internal/core/domain"
	"github.com/guillermoBallester/storeadmin/internal/core/service"
)

func (a *app) shellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell [table]",
		Short: "Start the interactive record shell",
		Long: `shell reads commands from standard input and drives one admin session:
open a table, select a record, then edit, add or remove and confirm.
Type help inside the shell for the command list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runShell,
	}
}

func (a *app) runShell(cmd *cobra.Command, args []string) error {
	session := service.NewAdminSession(a.repo, a.sink, a.logger)
	sh := shell.New(session, a.scanner, a.allow, a.sink, a.stdout, a.logger)

	a.logger.Info("shell started", slog.String("session.id", session.ID().String()))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if len(args) == 1 {
		if err := <-session.OpenAsync(ctx, args[0]); err == nil {
			fmt.Fprintln(a.stdout, session.Grid())
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return sh.Run(ctx, a.stdin)
	})

	// Release the session when the shell ends or a signal arrives.
	g.Go(func() error {
		<-ctx.Done()
		session.Close()
		a.logger.Info("shell stopped", slog.String("session.id", session.ID().String()))
		return nil
	})

	return g.Wait()
}

func (a *app) listCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list <table>",
		Short: "Print every record of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd.Context(), args[0], format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "grid", "output format: grid or json")
	return cmd
}

func (a *app) runList(ctx context.Context, table, format string) error {
	schema, err := a.catalog.Describe(ctx, table)
	if err != nil {
		return err
	}
	records, err := a.repo.ListWithSchema(ctx, schema)
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "json":
		rows := make([]map[string]string, len(records))
		for i, rec := range records {
			row := make(map[string]string, len(schema.Columns))
			for j, col := range schema.Columns {
				row[col.Name] = domain.FormatCell(rec.Values[j])
			}
			rows[i] = row
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "grid":
		if len(records) == 0 {
			a.sink.Push(fmt.Sprintf("The table %s is empty.", schema.Table))
			return nil
		}
		a.sink.Push(domain.RecordGrid(schema, records))
		return nil
	default:
		return domain.Validationf("list", table, "unknown format %q", format)
	}
}

func (a *app) searchCommand() *cobra.Command {
	var tables []string
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Find records whose text columns contain a term",
		Long: `search scans the text columns of every managed table, or of the tables
given with --tables, for a case-insensitive substring. Tables that cannot be
read are reported and the scan continues.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd.Context(), args[0], tables)
		},
	}
	cmd.Flags().StringSliceVarP(&tables, "tables", "t", nil, "comma-separated tables to scan")
	return cmd
}

func (a *app) runSearch(ctx context.Context, term string, tables []string) error {
	results, err := a.scanner.Search(ctx, term, tables)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		a.sink.Push(fmt.Sprintf("No records match %q.", term))
		return nil
	}
	for _, r := range results {
		if r.Err != nil {
			a.sink.Push(fmt.Sprintf("Error searching table %s: %v", r.Table, r.Err))
			continue
		}
		rows := make([][]string, len(r.Records))
		for i, rec := range r.Records {
			rows[i] = rec.Strings()
		}
		a.sink.Push(fmt.Sprintf("%s (%d):", r.Table, len(r.Records)))
		a.sink.Push(domain.FormatGrid(r.Columns, rows))
	}
	return nil
}

func (a *app) bootstrapCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create, drop or seed the managed tables",
	}

	run := func(steps func(ctx context.Context, r *bootstrap.Runner) ([]*bootstrap.Report, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			runner := bootstrap.NewRunner(a.store, a.repo, a.sink, a.logger)
			reports, err := steps(cmd.Context(), runner)
			if err != nil {
				return err
			}
			return reportErr(reports)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Create every managed table, parents first",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, r *bootstrap.Runner) ([]*bootstrap.Report, error) {
				return []*bootstrap.Report{r.Create(ctx)}, nil
			}),
		},
		&cobra.Command{
			Use:   "drop",
			Short: "Drop every managed table, children first",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, r *bootstrap.Runner) ([]*bootstrap.Report, error) {
				return []*bootstrap.Report{r.Drop(ctx)}, nil
			}),
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert the demo rows",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, r *bootstrap.Runner) ([]*bootstrap.Report, error) {
				rep, err := r.Seed(ctx)
				if err != nil {
					return nil, err
				}
				return []*bootstrap.Report{rep}, nil
			}),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Drop, create and seed",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, r *bootstrap.Runner) ([]*bootstrap.Report, error) {
				return r.Reset(ctx)
			}),
		},
	)
	return cmd
}

// reportErr fails the command when any statement in the batch failed. The
// individual failures have already been printed.
func reportErr(reports []*bootstrap.Report) error {
	var failed []string
	for _, rep := range reports {
		if len(rep.Failed) > 0 {
			failed = append(failed, rep.String())
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("bootstrap incomplete: %s", strings.Join(failed, "; "))
	}
	return nil
}

func (a *app) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the record tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := mcpadapter.NewServer(version, a.repo, a.scanner, a.logger)
			stdio := server.NewStdioServer(s)
			stdio.SetErrorLogger(slog.NewLogLogger(a.logger.Handler(), slog.LevelError))

			a.logger.Info("serving MCP on stdio", slog.String("version", version))
			err := stdio.Listen(cmd.Context(), a.stdin, a.stdout)
			if err != nil && cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}
}
