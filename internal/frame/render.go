package frame

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// MaxDisplayRows bounds String output; longer tables show head and tail around an ellipsis row.
const MaxDisplayRows = 20

// DisplayRows lists the row positions a preview of n rows shows; -1 marks the elided middle.
func DisplayRows(n int) []int {
	if n <= MaxDisplayRows {
		return seq(0, n)
	}
	half := MaxDisplayRows / 2
	out := append(seq(0, half), -1)
	return append(out, seq(n-half, n)...)
}

func renderRows(header []string, n int, row func(i int) []string) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, i := range DisplayRows(n) {
		if i < 0 {
			dots := make([]string, len(header))
			for k := range dots {
				dots[k] = "..."
			}
			fmt.Fprintln(tw, strings.Join(dots, "\t"))
			continue
		}
		fmt.Fprintln(tw, strings.Join(clean(row(i)), "\t"))
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func clean(cells []string) []string {
	for i, c := range cells {
		c = strings.ReplaceAll(c, "\t", " ")
		cells[i] = strings.ReplaceAll(c, "\n", " ")
	}
	return cells
}
