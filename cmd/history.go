package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/USA-RedDragon/germ-rpctest/internal/config"
	"github.com/USA-RedDragon/germ-rpctest/internal/db"
	"github.com/USA-RedDragon/germ-rpctest/internal/db/models"
	"github.com/USA-RedDragon/germ-rpctest/internal/history"
	"github.com/USA-RedDragon/germ-rpctest/internal/storage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the most recent recorded runs",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show RUN_ID",
			Short: "Show one recorded run and its case results",
			Args:  cobra.ExactArgs(1),
			RunE:  runHistoryShow,
		},
		&cobra.Command{
			Use:   "case NAME",
			Short: "List the latest recorded results of one case",
			Args:  cobra.ExactArgs(1),
			RunE:  runHistoryCase,
		},
		&cobra.Command{
			Use:   "prune",
			Short: "Delete all but the newest history.retain runs and their reports",
			Args:  cobra.NoArgs,
			RunE:  runHistoryPrune,
		},
	)
	return cmd
}

func openHistory(cmd *cobra.Command) (*config.Config, *gorm.DB, error) {
	config, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	database, err := db.MakeDB(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to make database: %w", err)
	}
	return config, database, nil
}

func runResult(run models.Run) string {
	switch {
	case run.FinishedAt == nil:
		return "INCOMPLETE"
	case run.Cancelled:
		return "CANCELLED"
	case !run.OK():
		return "FAILED"
	default:
		return "OK"
	}
}

func writeRuns(out io.Writer, runs []models.Run) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tNODE\tRESULT\tPASSED\tFAILURES\tERRORS\tSKIPPED\tDURATION")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			run.ID, run.StartedAt.Local().Format(time.DateTime), run.NodeURL, runResult(run),
			run.Passed, run.Failures, run.Errors, run.Skipped, run.Duration.Round(time.Millisecond))
	}
	return w.Flush()
}

func writeCaseResults(out io.Writer, results []models.CaseResult, withRun bool) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if withRun {
		fmt.Fprint(w, "RUN\t")
	}
	fmt.Fprintln(w, "CASE\tSTATUS\tDURATION\tMESSAGE")
	for _, result := range results {
		if withRun {
			fmt.Fprintf(w, "%s\t", result.RunID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", result.Name, result.Status, result.Duration.Round(time.Millisecond), firstLine(result.Message))
	}
	return w.Flush()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func runHistory(cmd *cobra.Command, _ []string) error {
	config, database, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer closeDB(database)

	runs, err := models.ListRuns(database, config.History.Limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	return writeRuns(cmd.OutOrStdout(), runs)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}

	_, database, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer closeDB(database)

	run, err := models.FindRunByID(database, id)
	if err != nil {
		return fmt.Errorf("failed to find run %s: %w", id, err)
	}

	out := cmd.OutOrStdout()
	if err := writeRuns(out, []models.Run{run}); err != nil {
		return err
	}
	if run.Report.Valid() {
		fmt.Fprintf(out, "Report: %s\n", run.Report.StringValue())
	}
	fmt.Fprintln(out)
	return writeCaseResults(out, run.Results, false)
}

func runHistoryCase(cmd *cobra.Command, args []string) error {
	config, database, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer closeDB(database)

	results, err := models.ListCaseResultsByName(database, args[0], config.History.Limit)
	if err != nil {
		return fmt.Errorf("failed to list results of %s: %w", args[0], err)
	}
	return writeCaseResults(cmd.OutOrStdout(), results, true)
}

func runHistoryPrune(cmd *cobra.Command, _ []string) error {
	config, database, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer closeDB(database)

	store, err := storage.NewStorage(cmd.Context(), config)
	if err != nil {
		return fmt.Errorf("failed to open report storage: %w", err)
	}
	defer store.Close()

	deleted, err := history.Prune(cmd.Context(), database, store, config.History.Retain)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d runs\n", deleted)
	return nil
}
