package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/civic/internal/storage"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "File and triage issue reports",
}

var reportsRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the newest issue reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		if count < 1 || count > 100 {
			return fmt.Errorf("--count must be between 1 and 100")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/reports/recent?count="+strconv.Itoa(count))
		if err != nil {
			return err
		}
		var res struct {
			Reports []storage.Report `json:"reports"`
		}
		if err := decodeJSON(resp, &res); err != nil {
			return err
		}
		writeReports(os.Stdout, res.Reports)
		return nil
	},
}

var reportsSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "File an issue report as a user",
	Long: `File an issue report as a user.

Example:
  civic reports submit --user 12 --category "Roads & Transportation" \
    --location "Elm St & 4th" --description "Deep pothole in the left lane"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetInt64("user")
		location, _ := cmd.Flags().GetString("location")
		category, _ := cmd.Flags().GetString("category")
		description, _ := cmd.Flags().GetString("description")
		attachments, _ := cmd.Flags().GetStringSlice("attach")
		if userID <= 0 {
			return fmt.Errorf("--user is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		client.userID = userID
		resp, err := client.post(cmd.Context(), "/reports", map[string]any{
			"location":    location,
			"category":    category,
			"description": description,
			"attachments": attachments,
		})
		if err != nil {
			return err
		}
		var created storage.Report
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}
		printSuccess("Filed report %d (priority %d)", created.ID, created.Priority)
		return nil
	},
}

var reportsStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Move a report to Submitted, In Progress, Resolved or Closed (requires the admin token)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid report id %q", args[0])
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(cmd.Context(), "/admin/reports/"+strconv.FormatInt(id, 10)+"/status",
			map[string]string{"status": args[1]})
		if err != nil {
			return err
		}
		var updated storage.Report
		if err := decodeJSON(resp, &updated); err != nil {
			return err
		}
		printSuccess("Report %d is now %s", updated.ID, updated.Status)
		return nil
	},
}

type dashboard struct {
	Total        int            `json:"total"`
	Pending      int            `json:"pending"`
	Resolved     int            `json:"resolved"`
	HighPriority int            `json:"high_priority"`
	ByCategory   map[string]int `json:"by_category"`
}

var reportsDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show report totals (requires the admin token)",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/admin/reports/dashboard")
		if err != nil {
			return err
		}
		var d dashboard
		if err := decodeJSON(resp, &d); err != nil {
			return err
		}
		writeDashboard(os.Stdout, d)
		return nil
	},
}

func init() {
	reportsRecentCmd.Flags().Int("count", 5, "number of reports, 1 to 100")

	reportsSubmitCmd.Flags().Int64("user", 0, "id of the reporting user")
	reportsSubmitCmd.Flags().String("location", "", "where the issue is")
	reportsSubmitCmd.Flags().String("category", "", "issue category, e.g. \"Water & Sewer\"")
	reportsSubmitCmd.Flags().String("description", "", "what is wrong")
	reportsSubmitCmd.Flags().StringSlice("attach", nil, "attached file names")

	reportsCmd.AddCommand(reportsRecentCmd, reportsSubmitCmd, reportsStatusCmd, reportsDashboardCmd)
}

func writeReports(w io.Writer, list []storage.Report) {
	if len(list) == 0 {
		fmt.Fprintln(w, "no reports")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREPORTED\tSTATUS\tPRIORITY\tCATEGORY\tLOCATION")
	for _, r := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n", r.ID, r.ReportedAt.Format(time.DateTime), r.Status, r.Priority, r.Category, r.Location)
	}
	tw.Flush()
}

func writeDashboard(w io.Writer, d dashboard) {
	fmt.Fprintf(w, "Total: %d  Pending: %d  Resolved: %d  High priority: %d\n", d.Total, d.Pending, d.Resolved, d.HighPriority)
	cats := make([]string, 0, len(d.ByCategory))
	for c := range d.ByCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range cats {
		fmt.Fprintf(tw, "  %s\t%d\n", c, d.ByCategory[c])
	}
	tw.Flush()
}
