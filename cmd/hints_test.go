package cmd

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alekseisolovev/databot/internal/ai"
	cfgpkg "github.com/alekseisolovev/databot/internal/config"
	"github.com/alekseisolovev/databot/internal/frame"
	"github.com/alekseisolovev/databot/internal/session"
)

func TestExplainSpeaksToDatasetAndAgent(t *testing.T) {
	api := &ai.APIError{StatusCode: 400, Message: "context length exceeded"}
	modelCall := func(err error) error { return fmt.Errorf("agent: model call: %w", err) }

	cases := []struct {
		name     string
		provider string
		err      error
		want     []string
		target   error
	}{
		{"not ready", "", session.ErrNotReady, []string{"/load <file>"}, session.ErrNotReady},
		{"empty question", "", session.ErrEmptyInput, []string{"ask a question"}, session.ErrEmptyInput},
		{"missing key", "", fmt.Errorf("%w: %w", session.ErrAgentInit, errNoAPIKey), []string{"agent has no model", "DATABOT_API_KEY"}, session.ErrAgentInit},
		{"agent init", "", fmt.Errorf("%w: %w", session.ErrAgentInit, errors.New("unknown provider")), []string{"agent could not start", "databot config show"}, session.ErrAgentInit},
		{"bad file", "", fmt.Errorf("%w %s: %w", session.ErrLoad, "x.csv", errors.New("parse error on line 3")), []string{"--delimiter", "--sheet-name"}, session.ErrLoad},
		{"unsupported file", "", fmt.Errorf("%w %s: %w", session.ErrLoad, "x.json", frame.ErrUnsupported), []string{".csv, .tsv and .xlsx"}, frame.ErrUnsupported},
		{"empty sheet", "", fmt.Errorf("%w %s: %w", session.ErrLoad, "x.xlsx", frame.ErrEmpty), []string{"--sheet-index"}, frame.ErrEmpty},
		{"cancelled", "", modelCall(context.Canceled), []string{"cancelled"}, context.Canceled},
		{"ollama down", ai.ProviderOllama, modelCall(&ai.UnreachableError{Host: "http://127.0.0.1:11434", Err: errors.New("connection refused")}), []string{"Ollama not reachable at http://127.0.0.1:11434", "conversation are kept"}, nil},
		{"offline", ai.ProviderOpenRouter, modelCall(&ai.UnreachableError{Err: errors.New("no route")}), []string{"ask again to retry"}, nil},
		{"auth", "", modelCall(&ai.AuthError{APIError: api}), []string{"config set api_key"}, nil},
		{"rate limit", "", modelCall(&ai.RateLimitError{APIError: api, RetryAfter: 7 * time.Second}), []string{"ask again in ~7s"}, nil},
		{"local model missing", ai.ProviderOllama, modelCall(&ai.ModelNotFoundError{APIError: api}), []string{"ollama pull llama3.1:8b"}, nil},
		{"remote model missing", ai.ProviderOpenRouter, modelCall(&ai.ModelNotFoundError{APIError: api}), []string{"databot models show"}, nil},
		{"context overflow", "", modelCall(&ai.BadRequestError{APIError: api}), []string{"/load", "observation_max_tokens"}, nil},
		{"quota", "", modelCall(&ai.QuotaExceededError{APIError: api}), []string{"billing"}, nil},
		{"server", "", modelCall(&ai.ServerError{APIError: api}), []string{"ask again later"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			withConfig(t, &cfgpkg.Global{DefaultProvider: tc.provider, DefaultModel: "llama3.1:8b"})
			got := explain(tc.err)
			require.Error(t, got)
			for _, w := range tc.want {
				assert.Contains(t, got.Error(), w)
			}
			assert.ErrorIs(t, got, tc.err)
			if tc.target != nil {
				assert.ErrorIs(t, got, tc.target)
			}
		})
	}
}

func TestExplainKeepsTypedErrors(t *testing.T) {
	withConfig(t, &cfgpkg.Global{DefaultModel: "m"})
	rl := &ai.RateLimitError{APIError: &ai.APIError{StatusCode: 429}, RetryAfter: time.Second}
	got := explain(fmt.Errorf("agent: model call: %w", rl))
	var target *ai.RateLimitError
	require.ErrorAs(t, got, &target)
	assert.Equal(t, time.Second, target.RetryAfter)
	assert.Equal(t, ai.FailureRateLimit, ai.Classify(got))
}

func TestExplainPassesThroughUnknown(t *testing.T) {
	withConfig(t, &cfgpkg.Global{})
	assert.NoError(t, explain(nil))
	plain := errors.New("something else")
	assert.Same(t, plain, explain(plain))
}
