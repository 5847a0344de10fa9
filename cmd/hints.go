package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/alekseisolovev/databot/internal/ai"
	"github.com/alekseisolovev/databot/internal/frame"
	"github.com/alekseisolovev/databot/internal/session"
)

// explain rewrites a session or model failure into a message that says what to do next.
// The original error stays in the chain.
func explain(err error) error {
	if err == nil {
		return nil
	}
	var (
		authErr *ai.AuthError
		rlErr   *ai.RateLimitError
		nfErr   *ai.ModelNotFoundError
		brErr   *ai.BadRequestError
		qErr    *ai.QuotaExceededError
		sErr    *ai.ServerError
		unreach *ai.UnreachableError
	)
	model := modelName()
	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("cancelled: %w", err)
	case errors.Is(err, session.ErrNotReady):
		return fmt.Errorf("no dataset loaded; use /load <file> first: %w", err)
	case errors.Is(err, session.ErrEmptyInput):
		return fmt.Errorf("ask a question about the dataset: %w", err)
	case errors.Is(err, errNoAPIKey):
		return fmt.Errorf("the dataset is loaded but the agent has no model: %w", err)
	case errors.Is(err, session.ErrAgentInit):
		return fmt.Errorf("the dataset is loaded but the agent could not start; check provider %q and model %q with 'databot config show': %w", providerName(), model, err)
	case errors.Is(err, frame.ErrUnsupported):
		return fmt.Errorf("only .csv, .tsv and .xlsx files can be loaded: %w", err)
	case errors.Is(err, frame.ErrEmpty):
		return fmt.Errorf("the file has no data rows; check --sheet-name or --sheet-index for workbooks: %w", err)
	case errors.Is(err, session.ErrLoad):
		return fmt.Errorf("could not read the dataset; check the path, or try --delimiter, --decimal and --sheet-name: %w", err)
	case errors.As(err, &unreach):
		if providerName() == ai.ProviderOllama {
			return fmt.Errorf("Ollama not reachable at %s. Start it with 'ollama serve' or set DATABOT_OLLAMA_HOST. The dataset and conversation are kept, ask again once it is up: %w", unreach.Host, err)
		}
		return fmt.Errorf("model endpoint unreachable. Check your network; the conversation is kept, ask again to retry: %w", err)
	case errors.As(err, &authErr):
		return fmt.Errorf("authentication failed: set DATABOT_API_KEY or run 'databot config set api_key <key>': %w", err)
	case errors.As(err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Errorf("rate limited, ask again in ~%ds: %w", int(rlErr.RetryAfter.Seconds()), err)
		}
		return fmt.Errorf("rate limited by provider, ask again shortly: %w", err)
	case errors.As(err, &nfErr):
		if providerName() == ai.ProviderOllama {
			return fmt.Errorf("local model %s is not installed. Run 'ollama pull %s' or pick another with --model: %w", model, model, err)
		}
		return fmt.Errorf("model %s not found. Pick a tool-capable model from 'databot models show': %w", model, err)
	case errors.As(err, &brErr):
		return fmt.Errorf("the model rejected the request; the conversation may exceed its context. Start over with /load, or lower observation_max_tokens: %w", err)
	case errors.As(err, &qErr):
		return fmt.Errorf("quota or billing issue; check your provider account: %w", err)
	case errors.As(err, &sErr):
		return fmt.Errorf("provider appears unavailable (server error); ask again later: %w", err)
	}
	return err
}
