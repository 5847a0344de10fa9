package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alekseisolovev/databot/internal/frame"
	"github.com/alekseisolovev/databot/internal/prompt"
	"github.com/alekseisolovev/databot/internal/utils"
)

var (
	schemaPrompt bool
	schemaOutput string
)

var schemaCmd = &cobra.Command{
	Use:   "schema <file>",
	Short: "Print the column summary the assistant sees for a dataset",
	Example: `  databot schema sales.csv
  databot schema report.xlsx --sheet-name Data --prompt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt, err := loadOptions()
		if err != nil {
			return err
		}
		f, err := frame.LoadFile(path, opt)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		name := filepath.Base(path)
		out := prompt.SchemaDescription(name, f)
		if schemaPrompt {
			out = prompt.ForFrame(name, f)
		}
		if schemaOutput != "" {
			if err := utils.SafeWriteFile(schemaOutput, []byte(out)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote schema to %s\n", schemaOutput)
			return nil
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	addDatasetFlags(schemaCmd)
	schemaCmd.Flags().BoolVar(&schemaPrompt, "prompt", false, "print the full system prompt instead of the schema")
	schemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "optional path to write the output")
}
