package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/alekseisolovev/databot/internal/frame"
	"github.com/alekseisolovev/databot/internal/sqlview"
)

// Namespace is the "tab" binding: helpers that are not methods of the dataset itself.
type Namespace struct {
	df   *frame.Frame
	view *sqlview.View
	// ctx is the context of the query being evaluated; expressions cannot pass one.
	ctx context.Context
}

func newNamespace(df *frame.Frame) *Namespace {
	return &Namespace{df: df, ctx: context.Background()}
}

// SQL runs a read-only statement against the dataset mirrored as table "df".
func (n *Namespace) SQL(query string) (*frame.Frame, error) {
	if n.view == nil {
		v, err := sqlview.Open(n.ctx, n.df, sqlview.DefaultTable)
		if err != nil {
			return nil, err
		}
		n.view = v
	}
	return n.view.Query(n.ctx, query)
}

// Corr is the pairwise correlation of the numeric columns of f.
func (n *Namespace) Corr(f *frame.Frame) (*frame.Frame, error) {
	if f == nil {
		return nil, errors.New("corr: nil table")
	}
	return f.Corr()
}

// Round rounds a number, series or table to the given number of decimals.
func (n *Namespace) Round(v any, digits int) (any, error) {
	switch x := v.(type) {
	case float64:
		return frame.RoundFloat(x, digits), nil
	case int:
		return x, nil
	case *frame.Series:
		return x.Round(digits)
	case *frame.Frame:
		return x.Round(digits), nil
	default:
		return nil, fmt.Errorf("round: unsupported value of type %T", v)
	}
}

func (n *Namespace) close() error {
	if n.view == nil {
		return nil
	}
	err := n.view.Close()
	n.view = nil
	return err
}
