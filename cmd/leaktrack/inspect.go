package main

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/google/pprof/profile"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// site aggregates leaked objects by innermost allocation frame.
type site struct {
	function string
	location string
	count    int64
}

func newInspectCommand() *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "inspect <profile>",
		Short: "List the allocation sites of a leak profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			p, err := profile.Parse(f)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			return inspectProfile(cmd.OutOrStdout(), p, top)
		},
	}
	cmd.Flags().IntVar(&top, "top", 20, "number of sites to show (0 shows all)")
	return cmd
}

func leakSites(p *profile.Profile) ([]site, int64, error) {
	idx := -1
	for i, st := range p.SampleType {
		if st.Type == "leaked_objects" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, 0, fmt.Errorf("profile has no leaked_objects sample type")
	}

	bySite := make(map[string]*site)
	var total int64
	for _, s := range p.Sample {
		v := s.Value[idx]
		total += v

		fn, loc := "<unknown>", ""
		if len(s.Location) > 0 && len(s.Location[0].Line) > 0 {
			line := s.Location[0].Line[0]
			if line.Function != nil {
				fn = line.Function.Name
				loc = fmt.Sprintf("%s:%d", line.Function.Filename, line.Line)
			}
		}
		key := fn + " " + loc
		if st, ok := bySite[key]; ok {
			st.count += v
			continue
		}
		bySite[key] = &site{function: fn, location: loc, count: v}
	}

	sites := make([]site, 0, len(bySite))
	for _, s := range bySite {
		sites = append(sites, *s)
	}
	slices.SortFunc(sites, func(a, b site) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.function, b.function)
	})
	return sites, total, nil
}

func inspectProfile(w io.Writer, p *profile.Profile, top int) error {
	sites, total, err := leakSites(p)
	if err != nil {
		return err
	}
	if top > 0 && len(sites) > top {
		sites = sites[:top]
	}

	fmt.Fprintf(w, "Leaked objects: %s\n\n", humanize.Comma(total)) //nolint:errcheck // CLI output

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Objects", "Share", "Function", "Location"})
	table.SetAutoWrapText(false)
	for _, s := range sites {
		share := 0.0
		if total > 0 {
			share = float64(s.count) * 100 / float64(total)
		}
		table.Append([]string{
			humanize.Comma(s.count),
			fmt.Sprintf("%.1f%%", share),
			s.function,
			s.location,
		})
	}
	table.Render()
	return nil
}
