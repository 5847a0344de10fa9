package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"

	"github.com/alekseisolovev/databot/internal/ai"
	"github.com/alekseisolovev/databot/internal/frame"
	"github.com/alekseisolovev/databot/internal/prompt"
	"github.com/alekseisolovev/databot/internal/utils"
)

// DefaultObservationTokens bounds the preview of a table or series sent back to the model.
const DefaultObservationTokens = 1500

// ToolOutput is what one query evaluation reports: text for the model and an optional artifact.
type ToolOutput struct {
	Text     string
	Artifact Artifact
	Err      error
}

// Tool executes one model-requested query.
type Tool interface {
	Definition() ai.Tool
	Run(ctx context.Context, query string) ToolOutput
}

// QueryTool evaluates expressions against a dataset. The only names an expression can reach
// are df (the dataset) and tab (Namespace).
type QueryTool struct {
	df        *frame.Frame
	tab       *Namespace
	maxTokens int
}

// QueryOption configures a QueryTool.
type QueryOption func(*QueryTool)

// WithObservationTokens sets the preview budget; non-positive values keep the default.
func WithObservationTokens(n int) QueryOption {
	return func(t *QueryTool) {
		if n > 0 {
			t.maxTokens = n
		}
	}
}

func NewQueryTool(df *frame.Frame, opts ...QueryOption) *QueryTool {
	t := &QueryTool{df: df, tab: newNamespace(df), maxTokens: DefaultObservationTokens}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var queryParams = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"query": map[string]any{
			"type":        "string",
			"description": `A single expression over df and tab, e.g. df.GroupBy("city").Col("income").Mean()`,
		},
	},
	"required": []string{"query"},
}

// Definition is the function-tool schema advertised to the model.
func (t *QueryTool) Definition() ai.Tool {
	tool, err := ai.NewFunctionTool(prompt.ToolName,
		"Execute a query expression against the loaded table df and return the result (a table, a column, a chart, or a value).",
		queryParams)
	if err != nil {
		panic(err) // static schema
	}
	return tool
}

func (t *QueryTool) env() map[string]any {
	return map[string]any{"df": t.df, "tab": t.tab}
}

// Run evaluates query. It never panics and never returns an error: failures come back as text
// the model can react to.
func (t *QueryTool) Run(ctx context.Context, query string) (out ToolOutput) {
	defer func() {
		if r := recover(); r != nil {
			out = failed(query, fmt.Errorf("panic: %v", r))
		}
	}()
	if strings.TrimSpace(query) == "" {
		return failed(query, errors.New("empty query"))
	}
	t.tab.ctx = ctx
	defer func() { t.tab.ctx = context.Background() }()

	env := t.env()
	program, err := expr.Compile(query, expr.Env(env))
	if err != nil {
		return failed(query, err)
	}
	v, err := expr.Run(program, env)
	if err != nil {
		return failed(query, err)
	}
	return t.describe(query, v)
}

// Close releases the SQL mirror, if one was opened.
func (t *QueryTool) Close() error { return t.tab.close() }

func failed(query string, err error) ToolOutput {
	return ToolOutput{Text: fmt.Sprintf("Error executing query `%s`: %v", query, err), Err: err}
}

func (t *QueryTool) describe(query string, v any) ToolOutput {
	var a Artifact
	switch x := v.(type) {
	case *frame.Frame:
		if x != nil {
			a = TableArtifact(x)
		}
	case *frame.Series:
		if x != nil {
			a = SeriesArtifact(x)
		}
	case *frame.Figure:
		if x != nil && x.Points() == 0 {
			return ToolOutput{Text: fmt.Sprintf("Query `%s` produced an empty %s chart: no rows had values to plot. "+
				"Check the filter and the column names.", query, x.Kind)}
		}
		if x != nil {
			a = FigureArtifact(x)
		}
	}
	if a.Empty() {
		return ToolOutput{Text: fmt.Sprintf("Query `%s` returned %s: %s", query, typeName(v), formatValue(v))}
	}
	preview, cut := utils.TruncateToTokenLimit(a.Preview(), t.maxTokens)
	if cut {
		preview += "\n... (output truncated)"
	}
	return ToolOutput{
		Text:     fmt.Sprintf("Query `%s` returned a %s %s.\n%s", query, a.Kind, a.Shape(), preview),
		Artifact: a,
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case time.Time:
		return "datetime"
	case *frame.Grouped, *frame.GroupedSeries:
		return "grouping"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(v)
	}
}
