package main

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/civic/internal/config"
	"github.com/kalambet/civic/internal/events"
	"github.com/kalambet/civic/internal/storage"
)

// --- events ---

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Browse and manage community events",
}

type eventList struct {
	Events []storage.Event `json:"events"`
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active events",
	RunE: func(cmd *cobra.Command, args []string) error {
		upcoming, _ := cmd.Flags().GetBool("upcoming")
		path := "/events"
		if upcoming {
			path = "/events/upcoming"
		}

		client, err := identifiedClient(cmd)
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}
		var list eventList
		if err := decodeJSON(resp, &list); err != nil {
			return err
		}
		writeEvents(os.Stdout, list.Events)
		return nil
	},
}

var eventsSearchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search events by text, category and date range",
	Long: `Search events by text, category and date range.

Examples:
  civic events search library
  civic events search --category Infrastructure --sort priority
  civic events search --from 2026-06-01 --to 2026-06-30`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		if len(args) == 1 {
			params.Set("q", args[0])
		}
		for _, name := range []string{"category", "from", "to", "sort"} {
			if v, _ := cmd.Flags().GetString(name); v != "" {
				params.Set(name, v)
			}
		}

		client, err := identifiedClient(cmd)
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/events/search?"+params.Encode())
		if err != nil {
			return err
		}
		var res events.SearchResult
		if err := decodeJSON(resp, &res); err != nil {
			return err
		}

		writeEvents(os.Stdout, res.Events)
		printStatus("Matched", "%d of %d", res.FilteredEvents, res.TotalEvents)
		if len(res.RecentSearches) > 0 {
			printStatus("Recent searches", "%s", strings.Join(res.RecentSearches, ", "))
		}
		return nil
	},
}

var eventsRecommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Show recommended upcoming events",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := identifiedClient(cmd)
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/events/recommendations")
		if err != nil {
			return err
		}
		var res struct {
			Recommendations []events.Recommendation `json:"recommendations"`
		}
		if err := decodeJSON(resp, &res); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SCORE\tID\tDATE\tCATEGORY\tTITLE")
		for _, r := range res.Recommendations {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", r.Score, r.Event.ID, r.Event.EventDate.Format(time.DateOnly), r.Event.Category, r.Event.Title)
		}
		return tw.Flush()
	},
}

var eventsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show event totals and per-category counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/events/stats")
		if err != nil {
			return err
		}
		var stats map[string]int
		if err := decodeJSON(resp, &stats); err != nil {
			return err
		}
		fmt.Println(formatCounts(stats))
		return nil
	},
}

var eventsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an event (requires the admin token)",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := eventFromFlags(cmd)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/admin/events", e)
		if err != nil {
			return err
		}
		var created storage.Event
		if err := decodeJSON(resp, &created); err != nil {
			return err
		}
		printSuccess("Created event %d", created.ID)
		return nil
	},
}

var eventsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Deactivate an event (requires the admin token)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid event id %q", args[0])
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/admin/events/"+strconv.FormatInt(id, 10))
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Deleted event %d", id)
		return nil
	},
}

func init() {
	eventsListCmd.Flags().Bool("upcoming", false, "only events that have not happened yet")

	eventsSearchCmd.Flags().String("category", "", "exact category")
	eventsSearchCmd.Flags().String("from", "", "earliest date (YYYY-MM-DD or RFC 3339)")
	eventsSearchCmd.Flags().String("to", "", "latest date (YYYY-MM-DD or RFC 3339)")
	eventsSearchCmd.Flags().String("sort", "", "date, priority or popularity")

	for _, c := range []*cobra.Command{eventsListCmd, eventsSearchCmd, eventsRecommendCmd} {
		c.Flags().String("session", "", "session id to search and recommend as")
		c.Flags().Int64("user", 0, "user id to search and recommend as")
	}

	eventsCreateCmd.Flags().String("title", "", "event title")
	eventsCreateCmd.Flags().String("description", "", "event description")
	eventsCreateCmd.Flags().String("category", "", "event category")
	eventsCreateCmd.Flags().String("location", "", "event location")
	eventsCreateCmd.Flags().String("date", "", "event date (YYYY-MM-DD or RFC 3339)")
	eventsCreateCmd.Flags().Int("priority", 1, "priority, 1 or more")

	eventsCmd.AddCommand(eventsListCmd, eventsSearchCmd, eventsRecommendCmd, eventsStatsCmd, eventsCreateCmd, eventsDeleteCmd)
}

func identifiedClient(cmd *cobra.Command) (*apiClient, error) {
	client, err := newAPIClient()
	if err != nil {
		return nil, err
	}
	client.sessionID, _ = cmd.Flags().GetString("session")
	client.userID, _ = cmd.Flags().GetInt64("user")
	return client, nil
}

func eventFromFlags(cmd *cobra.Command) (storage.Event, error) {
	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")
	category, _ := cmd.Flags().GetString("category")
	location, _ := cmd.Flags().GetString("location")
	date, _ := cmd.Flags().GetString("date")
	priority, _ := cmd.Flags().GetInt("priority")

	if title == "" || category == "" || date == "" {
		return storage.Event{}, fmt.Errorf("--title, --category and --date are required")
	}
	when, err := parseDateFlag(date)
	if err != nil {
		return storage.Event{}, err
	}
	if description == "" {
		description = title
	}
	return storage.Event{
		Title:       title,
		Description: description,
		Category:    category,
		Location:    location,
		EventDate:   when,
		Priority:    priority,
	}, nil
}

func parseDateFlag(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

func writeEvents(w io.Writer, list []storage.Event) {
	if len(list) == 0 {
		fmt.Fprintln(w, "no events")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tPRIORITY\tVIEWS\tTITLE")
	for _, e := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\n", e.ID, e.EventDate.Format(time.DateOnly), e.Category, e.Priority, e.ViewCount, e.Title)
	}
	tw.Flush()
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", paint(styleBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configSetSecretCmd = &cobra.Command{
	Use:   "set-secret <key> [value]",
	Short: "Store a secret; reads the value from stdin when omitted",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && err != io.EOF {
				return fmt.Errorf("reading secret: %w", err)
			}
			value = strings.TrimSpace(line)
		}
		if value == "" {
			return fmt.Errorf("empty value for %s", key)
		}

		if err := config.SetSecret(key, value); err != nil {
			return err
		}

		printSuccess("Stored %s", key)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configSetSecretCmd)
}
