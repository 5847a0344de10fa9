package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/alekseisolovev/databot/internal/agent"
	"github.com/alekseisolovev/databot/internal/render"
	"github.com/alekseisolovev/databot/internal/session"
	"github.com/alekseisolovev/databot/internal/utils"
)

var chatPlain bool

var chatCmd = &cobra.Command{
	Use:   "chat [file]",
	Short: "Start an interactive conversation about a dataset",
	Example: `  databot chat iris.csv
  databot chat --provider ollama --model llama3.1:8b
  databot chat report.xlsx --sheet-index 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession()
		if err != nil {
			return err
		}
		r := newREPL(sess, render.New(os.Stdout, chatPlain, cfg.FiguresDir), cfg.HistoryFile)
		defer r.close()
		if len(args) == 1 {
			r.load(args[0])
		}
		return r.loop()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	addDatasetFlags(chatCmd)
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "print answers without markdown styling")
}

type repl struct {
	sess        *session.Session
	out         *render.Printer
	w           io.Writer
	errw        io.Writer
	line        *liner.State
	historyFile string
}

func newREPL(sess *session.Session, out *render.Printer, historyFile string) *repl {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	r := &repl{sess: sess, out: out, w: out.Out, errw: os.Stderr, line: line, historyFile: historyFile}
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *repl) close() {
	r.saveHistory()
	if r.line != nil {
		r.line.Close()
	}
	r.sess.Unload()
}

func (r *repl) saveHistory() {
	if r.historyFile == "" || r.line == nil {
		return
	}
	if err := utils.EnsureDir(filepath.Dir(r.historyFile)); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = r.line.WriteHistory(f)
}

func (r *repl) prompt() string {
	if r.sess.Ready() {
		return "databot [" + r.sess.Name() + "]> "
	}
	return "databot> "
}

func (r *repl) loop() error {
	fmt.Fprintln(r.w, render.TitleStyle.Render("DataBot")+render.DimStyle.Render("  type /help for commands, /quit to exit"))
	if !r.sess.Ready() {
		fmt.Fprintln(r.w, render.DimStyle.Render("No dataset loaded. Use /load <file>."))
	}
	for {
		input, err := r.line.Prompt(r.prompt())
		if err != nil {
			// Ctrl+C at the prompt or Ctrl+D
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.w)
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			cont, err := r.command(input)
			if err != nil {
				r.errorf("%v", explain(err))
			}
			if !cont {
				return nil
			}
			continue
		}
		r.ask(input)
	}
}

// ask runs one turn; Ctrl+C cancels the turn without leaving the REPL.
func (r *repl) ask(text string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := r.sess.Submit(ctx, text)
	if err != nil {
		r.errorf("%v", explain(err))
		return
	}
	if err := r.out.Answer(res.Answer); err != nil {
		r.errorf("%v", err)
	}
	if line := costLine(res.Usage); line != "" {
		fmt.Fprintln(r.w, render.DimStyle.Render(fmt.Sprintf("%s · %d queries", line, res.Hops)))
	}
}

// load reads a dataset and previews its first rows.
func (r *repl) load(path string) {
	if err := r.sess.LoadFile(path); err != nil {
		r.errorf("%v", explain(err))
		return
	}
	f := r.sess.Frame()
	fmt.Fprintf(r.w, "%s %s (%d rows x %d columns)\n", render.TitleStyle.Render("Loaded"), r.sess.Name(), f.Len(), len(f.Columns()))
	fmt.Fprintln(r.w, render.Table(f.Head()))
}

func (r *repl) errorf(format string, args ...any) {
	fmt.Fprintln(r.errw, render.ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// command handles a slash command and reports whether the loop should continue.
func (r *repl) command(input string) (bool, error) {
	parts := strings.Fields(input)
	name := strings.ToLower(parts[0])
	arg := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch name {
	case "/help", "/h", "/?", "/":
		r.help()
	case "/quit", "/q", "/exit":
		return false, nil
	case "/load":
		if arg == "" {
			return true, errors.New("usage: /load <file>")
		}
		r.load(arg)
	case "/unload":
		r.sess.Unload()
		fmt.Fprintln(r.w, render.DimStyle.Render("Dataset unloaded."))
	case "/schema":
		if !r.sess.Ready() {
			return true, session.ErrNotReady
		}
		fmt.Fprint(r.w, r.sess.Schema())
	case "/prompt":
		if !r.sess.Ready() {
			return true, session.ErrNotReady
		}
		fmt.Fprintln(r.w, r.sess.SystemPrompt())
	case "/run":
		if arg == "" {
			return true, errors.New("usage: /run <expression>")
		}
		out, err := r.sess.Run(context.Background(), arg)
		if err != nil {
			return true, err
		}
		if out.Err != nil || out.Artifact.Empty() {
			fmt.Fprintln(r.w, out.Text)
			return true, nil
		}
		return true, r.out.Artifact(out.Artifact)
	case "/history":
		r.history()
	case "/save":
		if arg == "" {
			return true, errors.New("usage: /save <file.md>")
		}
		if err := r.sess.SaveTranscript(arg); err != nil {
			return true, err
		}
		fmt.Fprintf(r.w, "✓ Saved transcript to %s\n", arg)
	case "/stats":
		r.stats()
	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", name)
	}
	return true, nil
}

func (r *repl) history() {
	shown := 0
	for _, m := range r.sess.Messages() {
		switch {
		case m.Role == agent.RoleHuman:
			fmt.Fprintln(r.w, render.PromptStyle.Render("You: ")+m.Content)
		case m.Final():
			text := strings.TrimSpace(m.Content)
			if !m.Artifact.Empty() {
				text += render.DimStyle.Render(fmt.Sprintf(" [%s %s]", m.Artifact.Kind, m.Artifact.Shape()))
			}
			fmt.Fprintln(r.w, render.TitleStyle.Render("DataBot: ")+text)
		default:
			continue
		}
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(r.w, render.DimStyle.Render("No conversation yet."))
	}
}

func (r *repl) stats() {
	if !r.sess.Ready() {
		fmt.Fprintln(r.w, render.DimStyle.Render("No dataset loaded."))
		return
	}
	st := r.sess.Stats()
	fmt.Fprintf(r.w, "session:   %s\n", r.sess.ID())
	fmt.Fprintf(r.w, "dataset:   %s (loaded %s)\n", r.sess.Name(), r.sess.LoadedAt().Format("15:04:05"))
	fmt.Fprintf(r.w, "model:     %s (%s)\n", modelName(), providerName())
	fmt.Fprintf(r.w, "turns:     %d\n", st.Turns)
	fmt.Fprintf(r.w, "queries:   %d (max %d per question)\n", st.ToolCalls, r.sess.MaxHops())
	if line := costLine(st.Usage); line != "" {
		fmt.Fprintf(r.w, "usage:     %s\n", line)
	}
}

func (r *repl) help() {
	fmt.Fprintln(r.w, render.TitleStyle.Render("Commands"))
	for _, c := range [][2]string{
		{"/load <file>", "load a CSV or XLSX file (starts a new conversation)"},
		{"/unload", "drop the dataset and conversation"},
		{"/schema", "show the column summary"},
		{"/prompt", "show the full system prompt"},
		{"/run <expr>", "evaluate a query expression directly"},
		{"/history", "show the conversation"},
		{"/save <file>", "save the conversation as markdown"},
		{"/stats", "show session statistics"},
		{"/help", "show this help"},
		{"/quit", "exit"},
	} {
		fmt.Fprintf(r.w, "  %-14s %s\n", c[0], render.DimStyle.Render(c[1]))
	}
}
