// Package prompt derives the model's instructions from a dataset's structure.
package prompt

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/alekseisolovev/databot/internal/frame"
)

// ToolName is the name of the single query tool the model may call.
const ToolName = "run_dataframe_query"

// SchemaDescription lists the row range, every column with its non-null count and kind,
// and a tally of kinds. The output depends only on the frame's structure.
func SchemaDescription(name string, f *frame.Frame) string {
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "Dataset: %s\n", name)
	}
	n := f.Len()
	if n == 0 {
		b.WriteString("RangeIndex: 0 entries\n")
	} else {
		fmt.Fprintf(&b, "RangeIndex: %d entries, 0 to %d\n", n, n-1)
	}
	schema := f.Schema()
	fmt.Fprintf(&b, "Data columns (total %d columns):\n", len(schema))

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " #\tColumn\tNon-Null Count\tKind")
	fmt.Fprintln(tw, "---\t------\t--------------\t----")
	tally := map[string]int{}
	for _, c := range schema {
		fmt.Fprintf(tw, " %d\t%s\t%d non-null\t%s\n", c.Position, c.Name, c.NonNull, c.Kind)
		tally[c.Kind.String()]++
	}
	_ = tw.Flush()

	kinds := make([]string, 0, len(tally))
	for k := range tally {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s(%d)", k, tally[k])
	}
	fmt.Fprintf(&b, "kinds: %s\n", strings.Join(parts, ", "))
	return b.String()
}

const systemTemplate = `You are a helpful AI assistant for data analysis.
You have access to a table, referred to as 'df', which you can query with expressions.

Based on the user's question, determine whether to respond directly or use the '%[1]s' tool to generate a result.
If you use the tool, the result (a table, a column, a chart, or a single value) will be provided as an observation.
If a query is needed, write one valid expression. Methods are called on df; column names are passed as strings.
The namespace 'tab' offers tab.SQL("SELECT ... FROM df"), tab.Corr(df) and tab.Round(value, digits).

Examples of valid queries include:
- View the first 5 rows: "df.Head()"
- Filter rows where 'age' is greater than 30: "df.Query(\"age > 30\")"
- Count unique values in the 'gender' column: "df.ValueCounts(\"gender\")"
- Get summary statistics for all numeric columns: "df.Describe()"
- Find rows with missing values in 'income': "df.WhereNull(\"income\")"
- Count missing values in 'income': "df.Col(\"income\").NullCount()"
- Average 'income' per 'city': "df.GroupBy(\"city\").Col(\"income\").Mean()"
- Plot average 'income' per 'city': "df.GroupBy(\"city\").Col(\"income\").Mean().Plot(\"bar\")"
- Scatter plot of 'age' against 'income': "df.Plot(\"scatter\", \"age\", \"income\")"
- Run SQL: "tab.SQL(\"SELECT city, COUNT(*) AS n FROM df GROUP BY city\")"

After executing any tool-based query, interpret the results and give a clear, user-friendly answer.
Do not just repeat the output. Summarize or explain it in a helpful way based on the user's original question.
When a query fails, read the error, fix the expression, and try again.

-----------------
Dataset Schema:
%[2]s
-----------------
`

// SystemPrompt embeds a schema description into the fixed behavioral instructions.
func SystemPrompt(schema string) string {
	return fmt.Sprintf(systemTemplate, ToolName, strings.TrimRight(schema, "\n"))
}

// ForFrame is SchemaDescription followed by SystemPrompt.
func ForFrame(name string, f *frame.Frame) string {
	return SystemPrompt(SchemaDescription(name, f))
}
