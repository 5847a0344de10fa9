package sqlview

import (
	"context"
	"strings"
	"testing"

	"github.com/alekseisolovev/databot/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `Id,Sepal Length,PetalWidthCm,Species,Seen
1,5.1,0.2,Iris-setosa,2024-01-02
2,4.9,0.2,Iris-setosa,2024-01-03
3,7.0,1.4,Iris-versicolor,
4,6.4,,Iris-versicolor,2024-01-05
`

func openSample(t *testing.T) (*frame.Frame, *View) {
	t.Helper()
	f, err := frame.Load(strings.NewReader(sample), frame.LoadOptions{})
	require.NoError(t, err)
	v, err := Open(context.Background(), f, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })
	return f, v
}

func TestQueryAggregatesMatchFrame(t *testing.T) {
	f, v := openSample(t)
	assert.Equal(t, DefaultTable, v.Table())

	out, err := v.Query(context.Background(),
		`SELECT Species, AVG(PetalWidthCm) AS mean_width, COUNT(*) AS n FROM df GROUP BY Species ORDER BY Species`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Species", "mean_width", "n"}, out.Columns())
	assert.Equal(t, 2, out.Len())

	g, err := f.GroupBy("Species")
	require.NoError(t, err)
	gs, err := g.Col("PetalWidthCm")
	require.NoError(t, err)
	want, err := gs.Mean()
	require.NoError(t, err)

	got, err := out.Col("mean_width")
	require.NoError(t, err)
	assert.Equal(t, frame.KindNumeric, got.Kind())
	for i := 0; i < 2; i++ {
		assert.InDelta(t, want.At(i).(float64), got.At(i).(float64), 1e-12)
	}
	n, err := out.Col("n")
	require.NoError(t, err)
	assert.Equal(t, []any{2.0, 2.0}, n.Values())
}

func TestQueryNullsAndQuotedColumns(t *testing.T) {
	_, v := openSample(t)
	out, err := v.Query(context.Background(), `SELECT "Sepal Length", PetalWidthCm, Seen FROM df WHERE Id = 4`)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	pw, err := out.At(0, "PetalWidthCm")
	require.NoError(t, err)
	assert.Nil(t, pw)
	seen, err := out.At(0, "Seen")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", seen)

	out, err = v.Query(context.Background(), `SELECT COUNT(*) AS missing FROM df WHERE Seen IS NULL`)
	require.NoError(t, err)
	m, err := out.At(0, "missing")
	require.NoError(t, err)
	assert.Equal(t, 1.0, m)
}

func TestViewIsReadOnly(t *testing.T) {
	f, v := openSample(t)
	ctx := context.Background()
	for _, stmt := range []string{
		`DELETE FROM df`,
		`UPDATE df SET Id = 0`,
		`DROP TABLE df`,
		`PRAGMA query_only=OFF`,
		`DELETE FROM df RETURNING Id`,
		`SELECT 1; SELECT 2`,
		`SELECT 1; PRAGMA query_only=OFF`,
		`WITH x AS (SELECT 1) DELETE FROM df`,
		`ATTACH DATABASE 'other.db' AS other`,
		`select * from df /* unterminated`,
	} {
		_, err := v.Query(ctx, stmt)
		require.Error(t, err, stmt)
		assert.ErrorIs(t, err, ErrNotReadOnly, stmt)
	}

	count := func(q string) any {
		out, err := v.Query(ctx, q)
		require.NoError(t, err, q)
		n, err := out.At(0, "n")
		require.NoError(t, err)
		return n
	}
	assert.Equal(t, float64(f.Len()), count(`SELECT COUNT(*) AS n FROM df`))
	assert.Equal(t, float64(f.Len()), count("SELECT COUNT(*) AS n FROM df;  -- trailing"))
	assert.Equal(t, float64(f.Len()), count(`SELECT COUNT(*) AS n FROM df WHERE Species <> 'drop; delete'`))
	assert.Equal(t, 2.0, count(`WITH s AS (SELECT replace(Species, 'Iris-', '') AS sp FROM df) SELECT COUNT(*) AS n FROM s WHERE sp = 'setosa'`))
}

func TestReadOnlyStatement(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "SELECT 1", want: "SELECT 1", ok: true},
		{in: "  select 1 ;; ", ok: false},
		{in: "SELECT 1;", want: "SELECT 1", ok: true},
		{in: "SELECT 'it''s; fine' AS s", want: "SELECT 'it''s; fine' AS s", ok: true},
		{in: `SELECT "delete" FROM df`, want: `SELECT "delete" FROM df`, ok: true},
		{in: "-- note\nSELECT 1", want: "-- note\nSELECT 1", ok: true},
		{in: "", ok: false},
		{in: "VACUUM", ok: false},
		{in: "SELECT 'open", ok: false},
	}
	for _, tc := range cases {
		got, err := readOnlyStatement(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrNotReadOnly, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestQueryErrorsAndDuplicateNames(t *testing.T) {
	_, v := openSample(t)
	_, err := v.Query(context.Background(), `SELECT nope FROM df`)
	require.Error(t, err)

	out, err := v.Query(context.Background(), `SELECT Id, Id FROM df LIMIT 1`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Id", "Id.1"}, out.Columns())
}
