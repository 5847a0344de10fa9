package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alekseisolovev/databot/internal/agent"
	"github.com/alekseisolovev/databot/internal/ai"
	"github.com/alekseisolovev/databot/internal/chart"
	"github.com/alekseisolovev/databot/internal/render"
)

var (
	askJSON  bool
	askPlain bool
)

// askResult is the --json rendering of one turn.
type askResult struct {
	Answer    string        `json:"answer"`
	Artifact  *artifactJSON `json:"artifact,omitempty"`
	Hops      int           `json:"hops"`
	Exhausted bool          `json:"exhausted"`
	Usage     ai.Usage      `json:"usage"`
	CostUSD   float64       `json:"cost_usd,omitempty"`
}

type artifactJSON struct {
	Kind    string `json:"kind"`
	Shape   string `json:"shape"`
	Preview string `json:"preview,omitempty"`
	Path    string `json:"path,omitempty"`
}

var askCmd = &cobra.Command{
	Use:   "ask <file> <question>",
	Short: "Ask a single question about a dataset",
	Example: `  databot ask iris.csv "What is the average petal width per species?"
  databot ask sales.xlsx --sheet-name Q3 "Which region grew fastest?" --json`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession()
		if err != nil {
			return err
		}
		if err := sess.LoadFile(args[0]); err != nil {
			return explain(err)
		}
		defer sess.Unload()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		res, err := sess.Submit(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return explain(err)
		}
		if askJSON {
			out, err := turnJSON(res, cfg.FiguresDir)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		p := render.New(os.Stdout, askPlain, cfg.FiguresDir)
		if err := p.Answer(res.Answer); err != nil {
			return err
		}
		if line := costLine(res.Usage); line != "" {
			fmt.Fprintln(os.Stderr, render.DimStyle.Render(line))
		}
		return nil
	},
}

// turnJSON flattens a turn result; figures are written to figuresDir so the path can be reported.
func turnJSON(res *agent.TurnResult, figuresDir string) (askResult, error) {
	out := askResult{Hops: res.Hops, Exhausted: res.Exhausted, Usage: res.Usage}
	if cost, ok := ai.EstimateCostUSD(modelName(), res.Usage.PromptTokens, res.Usage.CompletionTokens); ok {
		out.CostUSD = cost
	}
	if res.Answer == nil {
		return out, nil
	}
	out.Answer = res.Answer.Content
	a := res.Answer.Artifact
	if a.Empty() {
		return out, nil
	}
	aj := &artifactJSON{Kind: a.Kind.String(), Shape: a.Shape()}
	if a.Kind == agent.ArtifactFigure {
		path, err := chart.Save(a.Figure, figuresDir)
		if err != nil {
			return out, err
		}
		aj.Path = path
	} else {
		aj.Preview = a.Preview()
	}
	out.Artifact = aj
	return out, nil
}

func init() {
	rootCmd.AddCommand(askCmd)
	addDatasetFlags(askCmd)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer, artifact and usage as JSON")
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "print the answer without markdown styling")
}
