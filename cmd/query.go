package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/alekseisolovev/databot/internal/agent"
	"github.com/alekseisolovev/databot/internal/frame"
	"github.com/alekseisolovev/databot/internal/render"
)

var queryRaw bool

var queryCmd = &cobra.Command{
	Use:   "query <file> <expression>",
	Short: "Evaluate a query expression against a dataset without a model",
	Example: `  databot query iris.csv 'df.GroupBy("Species").Col("PetalWidthCm").Mean()'
  databot query iris.csv 'tab.SQL("SELECT Species, COUNT(*) AS n FROM df GROUP BY Species")'
  databot query iris.csv 'df.Plot("scatter", "SepalLengthCm", "PetalLengthCm")'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := loadOptions()
		if err != nil {
			return err
		}
		f, err := frame.LoadFile(args[0], opt)
		if err != nil {
			return fmt.Errorf("load %s: %w", args[0], err)
		}
		tool := agent.NewQueryTool(f, agent.WithObservationTokens(cfg.ObservationMaxTokens))
		defer tool.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		out := tool.Run(ctx, args[1])
		if out.Err != nil {
			return fmt.Errorf("%s", out.Text)
		}
		if queryRaw || out.Artifact.Kind == agent.ArtifactNone {
			fmt.Println(out.Text)
			return nil
		}
		return render.New(os.Stdout, true, cfg.FiguresDir).Artifact(out.Artifact)
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	addDatasetFlags(queryCmd)
	queryCmd.Flags().BoolVar(&queryRaw, "raw", false, "print the observation text the model would see")
}
