// Package session owns the state of one data-analysis conversation: the loaded dataset, the
// query tool and controller built for it, and the conversation history.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alekseisolovev/databot/internal/agent"
	"github.com/alekseisolovev/databot/internal/ai"
	"github.com/alekseisolovev/databot/internal/frame"
	"github.com/alekseisolovev/databot/internal/logging"
	"github.com/alekseisolovev/databot/internal/prompt"
)

var (
	// ErrNotReady is returned by Submit before a dataset is loaded.
	ErrNotReady = errors.New("session: no dataset loaded")
	// ErrLoad wraps dataset parse failures.
	ErrLoad = errors.New("session: load dataset")
	// ErrAgentInit wraps model construction failures.
	ErrAgentInit = errors.New("session: initialize agent")
	// ErrEmptyInput is returned for blank questions.
	ErrEmptyInput = errors.New("session: empty question")
)

// ModelFactory builds the model for a freshly loaded dataset.
type ModelFactory func() (agent.Model, error)

type Options struct {
	NewModel          ModelFactory
	MaxHops           int
	ObservationTokens int
	Load              frame.LoadOptions
	Logger            *slog.Logger
}

// Stats summarizes activity since the current dataset was loaded.
type Stats struct {
	Turns     int
	ToolCalls int
	Usage     ai.Usage
}

// Session is not safe for concurrent use; a caller drives one turn at a time.
type Session struct {
	id     string
	opts   Options
	logger *slog.Logger

	name     string
	df       *frame.Frame
	system   string
	tool     *agent.QueryTool
	ctrl     *agent.Controller
	conv     *agent.Conversation
	loadedAt time.Time
	stats    Stats
}

// New returns a session with no dataset.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	id := uuid.NewString()
	return &Session{id: id, opts: opts, logger: logger.With("session_id", id)}
}

func (s *Session) ID() string { return s.id }

// Ready reports whether a dataset and agent are in place.
func (s *Session) Ready() bool { return s.ctrl != nil }

// Name is the display name of the loaded dataset.
func (s *Session) Name() string { return s.name }

func (s *Session) Frame() *frame.Frame { return s.df }

// SystemPrompt is the instruction message the current conversation started with.
func (s *Session) SystemPrompt() string { return s.system }

// Schema describes the loaded dataset.
func (s *Session) Schema() string {
	if s.df == nil {
		return ""
	}
	return prompt.SchemaDescription(s.name, s.df)
}

func (s *Session) Stats() Stats { return s.stats }

func (s *Session) LoadedAt() time.Time { return s.loadedAt }

// MaxHops is the tool budget per turn of the current agent.
func (s *Session) MaxHops() int {
	if s.ctrl == nil {
		return 0
	}
	return s.ctrl.MaxHops()
}

// LoadFile reads a CSV, TSV or XLSX file and replaces the current dataset.
func (s *Session) LoadFile(path string) error {
	f, err := frame.LoadFile(path, s.opts.Load)
	if err != nil {
		s.Unload()
		s.logger.Warn("session.load_failed", "path", path, "error", err.Error())
		return fmt.Errorf("%w %s: %w", ErrLoad, filepath.Base(path), err)
	}
	return s.Use(filepath.Base(path), f)
}

// Load parses delimited text from r and replaces the current dataset.
func (s *Session) Load(name string, r io.Reader) error {
	f, err := frame.Load(r, s.opts.Load)
	if err != nil {
		s.Unload()
		s.logger.Warn("session.load_failed", "name", name, "error", err.Error())
		return fmt.Errorf("%w %s: %w", ErrLoad, name, err)
	}
	return s.Use(name, f)
}

// Use installs an already parsed dataset. Any previous conversation is discarded and a new one
// starts from a system prompt built for f.
func (s *Session) Use(name string, f *frame.Frame) error {
	s.Unload()
	if f == nil {
		return fmt.Errorf("%w %s: %w", ErrLoad, name, frame.ErrEmpty)
	}
	if s.opts.NewModel == nil {
		return fmt.Errorf("%w: no model factory", ErrAgentInit)
	}
	model, err := s.opts.NewModel()
	if err != nil {
		s.logger.Warn("session.agent_init_failed", "error", err.Error())
		return fmt.Errorf("%w: %w", ErrAgentInit, err)
	}

	tool := agent.NewQueryTool(f, agent.WithObservationTokens(s.opts.ObservationTokens))
	s.name = name
	s.df = f
	s.tool = tool
	s.ctrl = agent.NewController(model, tool,
		agent.WithMaxHops(s.opts.MaxHops),
		agent.WithLogger(s.logger.With("component", "agent")))
	s.system = prompt.ForFrame(name, f)
	s.conv = agent.NewConversation(s.system)
	s.loadedAt = time.Now()
	s.logger.Info("session.load", "name", name, "rows", f.Len(), "columns", len(f.Columns()))
	return nil
}

// Unload drops the dataset, agent and conversation.
func (s *Session) Unload() {
	if s.tool != nil {
		if err := s.tool.Close(); err != nil {
			s.logger.Warn("session.close_tool_failed", "error", err.Error())
		}
	}
	if s.df != nil {
		s.logger.Info("session.unload", "name", s.name)
	}
	s.name, s.df, s.system = "", nil, ""
	s.tool, s.ctrl, s.conv = nil, nil, nil
	s.loadedAt = time.Time{}
	s.stats = Stats{}
}

// Submit runs one turn. The returned result may have a nil Answer when the model reply was
// unusable; the session stays usable after any error.
func (s *Session) Submit(ctx context.Context, text string) (*agent.TurnResult, error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	res, err := s.ctrl.Turn(ctx, s.conv, text)
	s.stats.Turns++
	if res != nil {
		s.stats.ToolCalls += res.Hops
		s.stats.Usage.Add(res.Usage)
	}
	return res, err
}

// Run evaluates a query directly, without the model.
func (s *Session) Run(ctx context.Context, query string) (agent.ToolOutput, error) {
	if !s.Ready() {
		return agent.ToolOutput{}, ErrNotReady
	}
	return s.tool.Run(ctx, query), nil
}

// Messages returns a copy of the conversation, nil when nothing is loaded.
func (s *Session) Messages() []agent.Message {
	if s.conv == nil {
		return nil
	}
	return s.conv.Messages()
}
