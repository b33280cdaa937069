package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorewheel/internal/housefile"
	"github.com/dukerupert/chorewheel/internal/rotation"
	"github.com/dukerupert/chorewheel/internal/week"
)

var clock = time.Now

// defaultMonth fills a zero year or month from now, which callers pass already
// converted to the household's zone.
func defaultMonth(year, month int, now time.Time) (int, time.Month) {
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	return year, time.Month(month)
}

func loadHouse(cmd *cobra.Command) (housefile.File, rotation.Config, error) {
	path, _ := cmd.Flags().GetString("file")
	f, err := housefile.Load(path)
	if err != nil {
		return housefile.File{}, rotation.Config{}, err
	}
	cfg, err := f.Config()
	if err != nil {
		return housefile.File{}, rotation.Config{}, err
	}
	return f, cfg, nil
}

func weekCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show who does what in one week",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, cfg, err := loadHouse(cmd)
			if err != nil {
				return err
			}

			target := clock().In(cfg.Anchor.Location())
			if date, _ := cmd.Flags().GetString("date"); date != "" {
				loc, err := f.Location()
				if err != nil {
					return err
				}
				if target, err = week.ParseKey(date, loc); err != nil {
					return err
				}
			}

			w, err := rotation.Resolve(cfg, target)
			if err != nil {
				return err
			}
			return printWeek(cmd.OutOrStdout(), f.Name, w)
		},
	}
	cmd.Flags().StringP("date", "d", "", "Any date in the week, YYYY-MM-DD (default today)")
	return cmd
}

func monthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show every week overlapping a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadHouse(cmd)
			if err != nil {
				return err
			}

			year, _ := cmd.Flags().GetInt("year")
			month, _ := cmd.Flags().GetInt("month")
			y, m := defaultMonth(year, month, clock().In(cfg.Anchor.Location()))

			weeks, err := rotation.ResolveMonth(cfg, y, m)
			if err != nil {
				return err
			}
			return printMonth(cmd.OutOrStdout(), weeks)
		},
	}
	cmd.Flags().IntP("year", "y", 0, "Year (default current)")
	cmd.Flags().IntP("month", "m", 0, "Month 1-12 (default current)")
	return cmd
}

func bundlesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bundles",
		Short: "Show how common-area chores are grouped",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadHouse(cmd)
			if err != nil {
				return err
			}
			return printBundles(cmd.OutOrStdout(), cfg.Bundles)
		},
	}
}

func printWeek(out io.Writer, house string, w rotation.Week) error {
	if house != "" {
		fmt.Fprintf(out, "%s\n", house)
	}
	fmt.Fprintf(out, "Week of %s - %s (rotation week %d)\n\n", w.Range.FromLabel, w.Range.ToLabel, w.Number)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHORE\tASSIGNED")
	for _, b := range w.Bundles {
		fmt.Fprintf(tw, "%s\t%s\n", b.Title, b.MemberName)
	}
	for _, s := range w.Sole {
		fmt.Fprintf(tw, "%s\t%s\n", s.Title, s.MemberName)
	}
	return tw.Flush()
}

func printMonth(out io.Writer, weeks []rotation.Week) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WEEK\tROTATION\tASSIGNMENTS")
	for _, w := range weeks {
		var parts []string
		for _, b := range w.Bundles {
			parts = append(parts, b.BundleID+"="+b.MemberName)
		}
		for _, s := range w.Sole {
			parts = append(parts, s.Title+"="+s.MemberName)
		}
		fmt.Fprintf(tw, "%s - %s\t%d\t%s\n", w.Range.FromLabel, w.Range.ToLabel, w.Number, strings.Join(parts, ", "))
	}
	return tw.Flush()
}

func printBundles(out io.Writer, bundles []rotation.Bundle) error {
	if len(bundles) == 0 {
		fmt.Fprintln(out, "No bundles: add members and chores.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCHORES")
	for _, b := range bundles {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, b.Title, strings.Join(b.Chores, ", "))
	}
	return tw.Flush()
}
