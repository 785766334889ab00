package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/jira-data-client/pkg/analytics"
	"github.com/Sternrassler/jira-data-client/pkg/jira"
)

func newFieldsCommand(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List custom fields (or all fields with --all)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}

			var fields []jira.Field
			if all {
				fields, err = api.ListFields(cmd.Context())
			} else {
				fields, err = api.ListCustomFields(cmd.Context())
			}
			if err != nil {
				return err
			}
			sort.SliceStable(fields, func(i, j int) bool {
				return strings.ToLower(fields[i].Name) < strings.ToLower(fields[j].Name)
			})

			return a.render(cmd.OutOrStdout(), fields, func(w io.Writer) error {
				fmt.Fprintf(w, "Found %d fields\n\n", len(fields))
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tTYPE")
				fmt.Fprintln(tw, "--\t----\t----")
				for _, f := range fields {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", f.ID, f.Name, fieldType(f))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include system fields")
	return cmd
}

func fieldType(f jira.Field) string {
	if f.Schema == nil || f.Schema.Type == "" {
		return "unknown"
	}
	if f.Schema.Items != "" {
		return f.Schema.Type + "<" + f.Schema.Items + ">"
	}
	return f.Schema.Type
}

func newProjectsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List visible projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			projects, err := api.ListProjects(cmd.Context())
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), projects, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "KEY\tNAME\tTYPE")
				fmt.Fprintln(tw, "---\t----\t----")
				for _, p := range projects {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Key, p.Name, p.ProjectTypeKey)
				}
				return tw.Flush()
			})
		},
	}
}

func newStatusesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "statuses <project-key>",
		Short: "List workflow statuses per issue type of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			types, err := api.GetProjectStatuses(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), types, func(w io.Writer) error {
				for _, t := range types {
					fmt.Fprintf(w, "%s:\n", t.Name)
					for _, s := range t.Statuses {
						category := ""
						if s.StatusCategory != nil {
							category = " [" + s.StatusCategory.Name + "]"
						}
						fmt.Fprintf(w, "  - %s%s\n", s.Name, category)
					}
				}
				return nil
			})
		},
	}
}

func newIssueCommand(a *app) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "issue <key>",
		Short: "Show a single issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			issue, err := api.GetIssue(cmd.Context(), args[0], splitList(fields)...)
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), issue, func(w io.Writer) error {
				fmt.Fprintf(w, "%s: %s\n", issue.Key, stringAt(*issue, "summary", ""))
				fmt.Fprintf(w, "  Status:   %s\n", stringAt(*issue, "status.name", analytics.UnknownStatus))
				fmt.Fprintf(w, "  Type:     %s\n", stringAt(*issue, "issuetype.name", analytics.UnknownType))
				fmt.Fprintf(w, "  Priority: %s\n", stringAt(*issue, "priority.name", analytics.NoPriority))
				fmt.Fprintf(w, "  Assignee: %s\n", stringAt(*issue, "assignee.displayName", analytics.Unassigned))
				fmt.Fprintf(w, "  Created:  %s\n", stringAt(*issue, "created", "-"))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to fetch (default all)")
	return cmd
}

func newChangelogCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "changelog <key>",
		Short: "Show the change history of an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			changelog, err := api.GetIssueChangelog(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), changelog, func(w io.Writer) error {
				if len(changelog.Histories) == 0 {
					fmt.Fprintln(w, "No changes recorded")
					return nil
				}
				for _, h := range changelog.Histories {
					author := "unknown"
					if h.Author != nil {
						author = h.Author.DisplayName
					}
					fmt.Fprintf(w, "%s by %s\n", h.Created, author)
					for _, item := range h.Items {
						fmt.Fprintf(w, "  %s: %q -> %q\n", item.Field, item.FromString, item.ToString)
					}
				}
				return nil
			})
		},
	}
}
