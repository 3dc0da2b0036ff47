package reporter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var tableHeader = []string{"Node", "RefCount", "GC_Obj_Type", "Mark", "Dummy1", "Dummy2", "Backtrace"}

// WriteTable writes the live-object table followed by the summary counters.
//
// The Backtrace column holds the innermost allocation frame, or N/A for an
// object that was never recorded.
func (r *Report) WriteTable(w io.Writer) {
	WriteEntries(w, r.Live)
	r.writeSummary(w)
}

// WriteEntries writes entries as a fixed-column table with a header row.
func WriteEntries(w io.Writer, entries []LiveEntry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(tableHeader)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetColumnSeparator("")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	for _, e := range entries {
		table.Append([]string{
			e.ID.String(),
			strconv.FormatInt(int64(e.RefCount), 10),
			e.Type().String(),
			strconv.Itoa(int(e.Mark())),
			strconv.Itoa(int(e.Reserved1)),
			strconv.Itoa(int(e.Reserved2)),
			e.Backtrace.Top(),
		})
	}
	table.Render()
}

//nolint:errcheck // diagnostic output
func (r *Report) writeSummary(w io.Writer) {
	s := r.Summary
	fmt.Fprintf(w, "\nTotal Nodes: %s\n", humanize.Comma(int64(s.TotalLive)))
	fmt.Fprintf(w, "Total with backtrace: %s\n", humanize.Comma(int64(s.LiveWithBacktrace)))
	fmt.Fprintf(w, "Total without backtrace: %s\n", humanize.Comma(int64(s.LiveWithoutBacktrace)))
	fmt.Fprintf(w, "Total GC-tracked Objects With Backtrace: %s\n", humanize.Comma(int64(s.LedgerSize)))
}

// WriteLeaks writes every leaked object with its creation backtrace.
//
//nolint:errcheck // diagnostic output
func (r *Report) WriteLeaks(w io.Writer) {
	fmt.Fprintf(w, "==================\n")
	if len(r.Leaked) == 0 {
		fmt.Fprintf(w, "No leaked objects.\n")
		fmt.Fprintf(w, "==================\n")
		return
	}

	color.New(color.FgRed, color.Bold).Fprintf(w, "WARNING: %s leaked object(s)\n", humanize.Comma(int64(len(r.Leaked))))
	for _, e := range r.Leaked {
		fmt.Fprintf(w, "\nLeaked object %s created at:\n", e.ID)
		fmt.Fprint(w, e.Backtrace.Format())
	}
	fmt.Fprintf(w, "==================\n")
}

// Print writes the full report: live table, summary and leaked objects.
func (r *Report) Print(w io.Writer) {
	r.WriteTable(w)
	fmt.Fprintln(w) //nolint:errcheck // diagnostic output
	r.WriteLeaks(w)
}
