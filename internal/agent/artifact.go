package agent

import (
	"fmt"

	"github.com/alekseisolovev/databot/internal/frame"
)

// ArtifactKind enumerates the structured results a query can produce.
type ArtifactKind int

const (
	ArtifactNone ArtifactKind = iota
	ArtifactTable
	ArtifactSeries
	ArtifactFigure
)

func (k ArtifactKind) String() string {
	switch k {
	case ArtifactTable:
		return "table"
	case ArtifactSeries:
		return "series"
	case ArtifactFigure:
		return "figure"
	default:
		return "none"
	}
}

// Artifact is a closed variant: exactly the field matching Kind is set.
// The zero value is ArtifactNone.
type Artifact struct {
	Kind   ArtifactKind
	Table  *frame.Frame
	Series *frame.Series
	Figure *frame.Figure
}

func TableArtifact(f *frame.Frame) Artifact    { return Artifact{Kind: ArtifactTable, Table: f} }
func SeriesArtifact(s *frame.Series) Artifact  { return Artifact{Kind: ArtifactSeries, Series: s} }
func FigureArtifact(fg *frame.Figure) Artifact { return Artifact{Kind: ArtifactFigure, Figure: fg} }

// Empty reports whether the artifact carries nothing.
func (a Artifact) Empty() bool { return a.Kind == ArtifactNone }

// Shape describes the artifact size: "(rows, cols)" for tables, "(n,)" for series.
func (a Artifact) Shape() string {
	switch a.Kind {
	case ArtifactTable:
		return fmt.Sprintf("(%d, %d)", a.Table.Len(), len(a.Table.Columns()))
	case ArtifactSeries:
		return fmt.Sprintf("(%d,)", a.Series.Len())
	case ArtifactFigure:
		return fmt.Sprintf("(%s chart, %d points)", a.Figure.Kind, a.Figure.Points())
	default:
		return "()"
	}
}

// Preview is the plain-text rendering given to the model.
func (a Artifact) Preview() string {
	switch a.Kind {
	case ArtifactTable:
		return a.Table.String()
	case ArtifactSeries:
		return a.Series.String()
	case ArtifactFigure:
		return a.Figure.String()
	default:
		return ""
	}
}
