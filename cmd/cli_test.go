package cmd

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alekseisolovev/databot/internal/ai"
	"github.com/alekseisolovev/databot/internal/session"
)

// isolate points HOME at a temp dir and clears environment that would leak into config.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"DATABOT_API_KEY", "OPENROUTER_API_KEY", "DATABOT_BASE_URL", "DATABOT_DEFAULT_PROVIDER", "DATABOT_LOG_FILE"} {
		t.Setenv(k, "")
	}
	return home
}

// resetFlags restores every flag to its default; cobra keeps flag state between Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command and returns what it printed to stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	r, w, err := os.Pipe()
	require.NoError(t, err)
	old := os.Stdout
	os.Stdout = w
	var (
		buf strings.Builder
		wg  sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(&buf, r)
	}()
	rootCmd.SetArgs(args)
	runErr := rootCmd.Execute()
	os.Stdout = old
	_ = w.Close()
	wg.Wait()
	_ = r.Close()
	return buf.String(), runErr
}

func TestSchemaCommand(t *testing.T) {
	isolate(t)
	out, err := runCmd(t, "schema", "testdata/iris.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "SepalLengthCm")
	assert.Contains(t, out, "Species")

	full, err := runCmd(t, "schema", "testdata/iris.csv", "--prompt")
	require.NoError(t, err)
	assert.Contains(t, full, "run_dataframe_query")
	assert.Greater(t, len(full), len(out))
}

func TestQueryCommand(t *testing.T) {
	isolate(t)
	out, err := runCmd(t, "query", "testdata/iris.csv", `df.Col("PetalWidthCm").Mean()`, "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "returned float64")

	out, err = runCmd(t, "query", "testdata/iris.csv", `df.GroupBy("Species").Col("PetalWidthCm").Mean()`)
	require.NoError(t, err)
	assert.Contains(t, out, "Iris-virginica")

	_, err = runCmd(t, "query", "testdata/iris.csv", `df.Col("NoSuchColumn")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error executing query")
}

func TestQueryCommandRejectsBadDelimiter(t *testing.T) {
	isolate(t)
	_, err := runCmd(t, "query", "testdata/iris.csv", "df", "--delimiter", "#")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported --delimiter")
}

func TestConfigSetAndShow(t *testing.T) {
	isolate(t)
	_, err := runCmd(t, "config", "set", "max_tool_hops", "5")
	require.NoError(t, err)
	_, err = runCmd(t, "config", "set", "api_key", "sk-test-123456")
	require.NoError(t, err)

	out, err := runCmd(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "max_tool_hops: 5")
	assert.Contains(t, out, "api_key: ****3456")
	assert.NotContains(t, out, "sk-test-123456")

	_, err = runCmd(t, "config", "set", "max_tool_hops", "zero")
	require.Error(t, err)
	_, err = runCmd(t, "config", "set", "no_such_key", "1")
	require.Error(t, err)
}

func TestAskWithoutAPIKeyFails(t *testing.T) {
	isolate(t)
	_, err := runCmd(t, "ask", "testdata/iris.csv", "how many rows?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no API key")
	assert.Contains(t, err.Error(), "agent has no model")
	assert.ErrorIs(t, err, session.ErrAgentInit)
}

func TestAskJSONRunsToolThenAnswers(t *testing.T) {
	isolate(t)
	query := `df.GroupBy("Species").Col("PetalWidthCm").Mean()`
	args, err := json.Marshal(map[string]string{"query": query})
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		reqs []ai.GenerateRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ai.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		reqs = append(reqs, req)
		n := len(reqs)
		mu.Unlock()

		msg := ai.Message{Role: "assistant", Content: "Iris-virginica has the widest petals on average."}
		if n == 1 {
			msg = ai.Message{Role: "assistant", ToolCalls: []ai.ToolCall{{
				ID: "call_1", Type: "function",
				Function: ai.FunctionCall{Name: "run_dataframe_query", Arguments: string(args)},
			}}}
		}
		_ = json.NewEncoder(w).Encode(ai.GenerateResponse{
			Choices: []ai.Choice{{Message: msg}},
			Usage:   ai.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
		})
	}))
	defer srv.Close()
	t.Setenv("DATABOT_BASE_URL", srv.URL)
	t.Setenv("DATABOT_API_KEY", "test-key")

	out, err := runCmd(t, "ask", "testdata/iris.csv", "Which species has the widest petals?", "--json")
	require.NoError(t, err)

	var res askResult
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, "Iris-virginica has the widest petals on average.", res.Answer)
	assert.Equal(t, 1, res.Hops)
	assert.False(t, res.Exhausted)
	assert.Equal(t, 240, res.Usage.TotalTokens)
	require.NotNil(t, res.Artifact)
	assert.Equal(t, "series", res.Artifact.Kind)
	assert.Equal(t, "(3,)", res.Artifact.Shape)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reqs, 2)
	require.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, "run_dataframe_query", reqs[0].Tools[0].Function.Name)
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Contains(t, last.Content, "returned a series (3,)")
}
