package session

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/alekseisolovev/databot/internal/agent"
	"github.com/alekseisolovev/databot/internal/utils"
)

// ExportMarkdown writes the visible conversation: questions, answers and a summary of each
// answer's artifact. System prompts and tool traffic are left out.
func (s *Session) ExportMarkdown(w io.Writer) error {
	if !s.Ready() {
		return ErrNotReady
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# DataBot transcript: %s\n\n", s.name)
	fmt.Fprintf(&b, "_Loaded %s, %d rows x %d columns._\n", s.loadedAt.Format("2006-01-02 15:04"), s.df.Len(), len(s.df.Columns()))
	for _, m := range s.conv.Messages() {
		switch m.Role {
		case agent.RoleHuman:
			fmt.Fprintf(&b, "\n## You\n\n%s\n", m.Content)
		case agent.RoleAssistant:
			if m.ToolCall != nil {
				continue
			}
			fmt.Fprintf(&b, "\n## DataBot\n\n%s\n", strings.TrimSpace(m.Content))
			writeArtifact(&b, m.Artifact)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeArtifact(b *strings.Builder, a agent.Artifact) {
	switch a.Kind {
	case agent.ArtifactTable, agent.ArtifactSeries:
		fmt.Fprintf(b, "\n_%s %s_\n\n```\n%s\n```\n", a.Kind, a.Shape(), a.Preview())
	case agent.ArtifactFigure:
		fmt.Fprintf(b, "\n_figure: %s_\n", a.Figure)
	}
}

// SaveTranscript writes ExportMarkdown output to path atomically.
func (s *Session) SaveTranscript(path string) error {
	var buf bytes.Buffer
	if err := s.ExportMarkdown(&buf); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	s.logger.Info("session.transcript_saved", "path", path)
	return nil
}
