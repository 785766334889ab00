package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/jira-data-client/pkg/analytics"
	"github.com/Sternrassler/jira-data-client/pkg/export"
	"github.com/Sternrassler/jira-data-client/pkg/extract"
	"github.com/Sternrassler/jira-data-client/pkg/jira"
)

// summaryMaxLen truncates summaries in table output.
const summaryMaxLen = 60

func newSearchCommand(a *app) *cobra.Command {
	var (
		fields   []string
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "search <jql>",
		Short: "List issues matching a JQL query",
		Example: `  jira-query search 'project = PROJ AND status = "In Progress"'
  jira-query search 'assignee = currentUser()' --fields summary,status -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}

			projection := splitList(fields)
			if len(projection) == 0 {
				projection = []string{"summary", "status", "assignee", "priority", "created"}
			}
			issues, err := api.SearchIssues(cmd.Context(), jira.Query{
				JQL:      args[0],
				Fields:   projection,
				PageSize: a.pageSize(pageSize),
			})
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), issues, func(w io.Writer) error {
				return printIssueTable(w, issues)
			})
		},
	}

	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to fetch (default summary,status,assignee,priority,created)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "issues per request (default from config)")
	return cmd
}

func printIssueTable(w io.Writer, issues []jira.Issue) error {
	fmt.Fprintf(w, "Found %d issues\n\n", len(issues))
	if len(issues) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSTATUS\tASSIGNEE\tSUMMARY")
	fmt.Fprintln(tw, "---\t------\t--------\t-------")
	for _, issue := range issues {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			issue.Key,
			stringAt(issue, "status.name", "-"),
			stringAt(issue, "assignee.displayName", analytics.Unassigned),
			truncate(stringAt(issue, "summary", ""), summaryMaxLen),
		)
	}
	return tw.Flush()
}

func newExportCommand(a *app) *cobra.Command {
	var (
		paths    []string
		out      string
		format   string
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "export <jql>",
		Short: "Export selected fields of matching issues",
		Example: `  jira-query export 'project = PROJ' --paths summary,status.name,assignee.displayName --out issues.csv
  jira-query export 'project = PROJ' --paths status.name,customfield_10010 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := splitList(paths)
			if len(selected) == 0 {
				return fmt.Errorf("--paths is required")
			}
			if err := export.ValidFormat(format); err != nil {
				return err
			}

			api, err := a.api()
			if err != nil {
				return err
			}

			issues, err := api.SearchIssues(cmd.Context(), jira.Query{
				JQL:      args[0],
				Fields:   extract.RootFields(selected),
				PageSize: a.pageSize(pageSize),
			})
			if err != nil {
				return err
			}
			records := extract.Fields(issues, selected)

			if out == "" {
				return export.Write(cmd.OutOrStdout(), format, selected, records)
			}
			if err := writeExportFile(out, format, selected, records); err != nil {
				return err
			}

			a.logger.Info().
				Int("issues", len(records)).
				Str("file", out).
				Str("format", format).
				Msg("Export written")
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&paths, "paths", nil, "dotted field paths to export, e.g. status.name")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	cmd.Flags().StringVar(&format, "format", export.FormatCSV, "export format: csv, json, yaml")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "issues per request (default from config)")
	return cmd
}

// writeExportFile writes records to path. A failed write or close is
// returned, not just logged.
func writeExportFile(path, format string, paths []string, records []extract.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output file: %w", cerr)
		}
	}()

	return export.Write(f, format, paths, records)
}

func newAnalyzeCommand(a *app) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:     "analyze <jql>",
		Short:   "Summarize matching issues by status, assignee, priority and type",
		Example: `  jira-query analyze 'project = PROJ AND created >= -30d'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}

			issues, err := api.SearchIssues(cmd.Context(), jira.Query{
				JQL:      args[0],
				Fields:   []string{"status", "assignee", "priority", "issuetype", "created"},
				PageSize: a.cfg.PageSize,
			})
			if err != nil {
				return err
			}

			stats := analytics.Analyze(issues, a.deps.Now())
			return a.render(cmd.OutOrStdout(), stats, func(w io.Writer) error {
				printStats(w, stats, top)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&top, "top", analytics.DefaultTopLimit, "assignees to list (0 for all)")
	return cmd
}

func printStats(w io.Writer, stats analytics.Stats, top int) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "ISSUE ANALYTICS")
	fmt.Fprintln(w, rule)

	fmt.Fprintf(w, "\nTotal Issues: %d\n", stats.Total)
	fmt.Fprintf(w, "Average Age: %d days\n", stats.AvgAgeDays)
	fmt.Fprintf(w, "Unassigned: %d\n", stats.Unassigned)

	printBuckets(w, "By Status", stats.ByStatus.Sorted())
	assigneeTitle := "By Assignee"
	if top > 0 {
		assigneeTitle = fmt.Sprintf("By Assignee (Top %d)", top)
	}
	printBuckets(w, assigneeTitle, stats.ByAssignee.Top(top))
	printBuckets(w, "By Priority", stats.ByPriority.Sorted())
	printBuckets(w, "By Type", stats.ByType.Sorted())

	fmt.Fprintf(w, "\n%s\n", rule)
}

func printBuckets(w io.Writer, title string, buckets []analytics.Bucket) {
	fmt.Fprintf(w, "\n--- %s ---\n", title)
	for _, b := range buckets {
		fmt.Fprintf(w, "  %s: %d (%.1f%%)\n", b.Name, b.Count, b.Percent)
	}
}

// stringAt renders the value at path as text, or fallback when absent.
func stringAt(issue jira.Issue, path, fallback string) string {
	v, ok := extract.Lookup(issue.Fields, path)
	if !ok || v == nil {
		return fallback
	}
	cell, err := export.Cell(extract.Value{Path: path, Data: v, Present: true})
	if err != nil || cell == "" {
		return fallback
	}
	return cell
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
