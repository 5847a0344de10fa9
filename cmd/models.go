package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/alekseisolovev/databot/internal/ai"
	"github.com/alekseisolovev/databot/internal/utils"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage or inspect model catalog and pricing",
	Example: `  databot models show
  databot models show --json
  databot models sync --file ./models.json --merge
  databot models fetch --provider ollama
  databot models fetch --url https://example.com/models.json --output models.json`,
}

var showJSON bool

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := ai.Catalog()
		if showJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cat)
		}
		fmt.Println(catalogTable(cat))
		return nil
	},
}

// catalogTable renders the catalog sorted by name, marking models that cannot call tools.
func catalogTable(cat map[string]ai.ModelInfo) string {
	keys := make([]string, 0, len(cat))
	for k := range cat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("MODEL", "PROVIDER", "CONTEXT", "IN $/1K", "OUT $/1K", "TOOLS")
	for _, k := range keys {
		m := cat[k]
		tools := "yes"
		if !m.Tools {
			tools = "no"
		}
		t.Row(k, m.Provider, fmt.Sprintf("%d", m.ContextTokens),
			fmt.Sprintf("%.5f", m.InputPerK), fmt.Sprintf("%.5f", m.OutputPerK), tools)
	}
	return t.String()
}

var (
	syncPath  string
	syncMerge bool
)

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load model catalog/pricing from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		m, err := ai.LoadCatalogFromJSON(syncPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		applyCatalog(m, syncMerge, "file")
		return nil
	},
}

func applyCatalog(m map[string]ai.ModelInfo, merge bool, source string) {
	if merge {
		ai.MergeCatalog(m)
		fmt.Printf("Merged %d models from %s into in-memory catalog\n", len(m), source)
		return
	}
	ai.OverrideCatalog(m)
	fmt.Printf("Replaced in-memory catalog with %d models from %s\n", len(m), source)
}

// providerURL returns the catalog URL for a provider, honoring DATABOT_<PROVIDER>_CATALOG_URL.
func providerURL(name string) string {
	switch name {
	case ai.ProviderOpenRouter, "openai", "anthropic":
		return os.Getenv("DATABOT_" + strings.ToUpper(name) + "_CATALOG_URL")
	}
	return ""
}

var (
	fetchURL      string
	fetchOutput   string
	fetchMerge    bool
	fetchProvider string
)

var modelsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch model catalog/pricing JSON from a URL (or a built-in preset) and apply it",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := fetchURL
		if url == "" && fetchProvider != "" {
			url = providerURL(fetchProvider)
		}
		var (
			m      map[string]ai.ModelInfo
			source string
		)
		switch {
		case url != "":
			got, err := fetchCatalog(url)
			if err != nil {
				return err
			}
			m, source = got, url
		case fetchProvider != "":
			preset, ok := ai.PresetCatalog(fetchProvider)
			if !ok {
				return fmt.Errorf("no preset for provider %q", fetchProvider)
			}
			m, source = preset, "built-in '"+fetchProvider+"' preset"
		default:
			return fmt.Errorf("--url is required (or specify --provider with a known preset)")
		}
		if fetchOutput != "" {
			data, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal: %w", err)
			}
			if err := utils.SafeWriteFile(fetchOutput, data); err != nil {
				return fmt.Errorf("write file: %w", err)
			}
			fmt.Printf("Saved catalog to %s\n", fetchOutput)
		}
		applyCatalog(m, fetchMerge, source)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsSyncCmd)
	modelsCmd.AddCommand(modelsFetchCmd)

	modelsShowCmd.Flags().BoolVar(&showJSON, "json", false, "print the catalog as JSON")

	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to JSON catalog file")
	modelsSyncCmd.Flags().BoolVar(&syncMerge, "merge", false, "merge into existing catalog instead of replacing")

	modelsFetchCmd.Flags().StringVar(&fetchURL, "url", "", "URL to JSON catalog file")
	modelsFetchCmd.Flags().StringVar(&fetchOutput, "output", "", "optional path to save the fetched JSON")
	modelsFetchCmd.Flags().BoolVar(&fetchMerge, "merge", false, "merge into existing catalog instead of replacing")
	modelsFetchCmd.Flags().StringVar(&fetchProvider, "provider", "", "provider preset (openrouter, ollama, openai, anthropic) used when --url is not set")
}
