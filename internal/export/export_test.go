package export

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/jiekaitao/litmap/internal/article"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func strPtr(s string) *string { return &s }

func testCorpus() *article.Corpus {
	return article.NewCorpus([]article.Article{
		{ID: "W007", DisplayName: "First", DOI: strPtr("10.1/a"), Concepts: "C42, C7", References: "W5, W6, invalid, W7"},
		{ID: "W2", DisplayName: "Second", Concepts: "", References: ""},
		{ID: "bogus", DisplayName: "Third", Concepts: "C1", References: "W1"},
	})
}

func TestBuild(t *testing.T) {
	var buf bytes.Buffer
	e := NewExporter(zerolog.New(&buf))

	parsed := [][]int64{{42, 7}, {}, {1}}
	layout := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})

	records, stats, err := e.Build(testCorpus(), parsed, layout)
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, "W7", first.ID)
	assert.Equal(t, []string{"C42", "C7"}, first.ConceptIDs)
	assert.Equal(t, []string{"W5", "W6", "W7"}, first.References)
	assert.Equal(t, "First", first.DisplayName)
	require.NotNil(t, first.DOI)
	assert.Equal(t, "10.1/a", *first.DOI)
	assert.Equal(t, 1.0, first.X)
	assert.Equal(t, 2.0, first.Y)

	second := records[1]
	assert.Equal(t, []string{}, second.ConceptIDs)
	assert.Equal(t, []string{}, second.References)
	assert.Nil(t, second.DOI)

	// Unparseable IDs are kept, never dropped.
	assert.Equal(t, "bogus", records[2].ID)
	assert.Equal(t, 5.0, records[2].X)

	assert.Equal(t, Stats{UnparsedIDs: 1, InvalidReferences: 1}, stats)
	assert.Contains(t, buf.String(), `"token":"invalid"`)
	assert.Contains(t, buf.String(), `"article":"bogus"`)
}

func TestBuild_DOIIsCopied(t *testing.T) {
	doi := "10.1/x"
	corpus := article.NewCorpus([]article.Article{{ID: "W1", DOI: &doi}})
	records, _, err := NewExporter(zerolog.Nop()).Build(corpus, [][]int64{{}}, mat.NewDense(1, 2, nil))
	require.NoError(t, err)

	doi = "changed"
	assert.Equal(t, "10.1/x", *records[0].DOI)
}

func TestBuild_Errors(t *testing.T) {
	e := NewExporter(zerolog.Nop())
	corpus := testCorpus()

	t.Run("concept rows", func(t *testing.T) {
		_, _, err := e.Build(corpus, [][]int64{{}}, mat.NewDense(3, 2, nil))
		assert.ErrorIs(t, err, ErrRowMismatch)
	})
	t.Run("layout rows", func(t *testing.T) {
		_, _, err := e.Build(corpus, make([][]int64, 3), mat.NewDense(2, 2, nil))
		assert.ErrorIs(t, err, ErrRowMismatch)
	})
	t.Run("layout dims", func(t *testing.T) {
		_, _, err := e.Build(corpus, make([][]int64, 3), mat.NewDense(3, 1, nil))
		assert.ErrorIs(t, err, ErrRowMismatch)
	})
	t.Run("nan", func(t *testing.T) {
		layout := mat.NewDense(3, 2, nil)
		layout.Set(1, 1, math.NaN())
		_, _, err := e.Build(corpus, make([][]int64, 3), layout)
		assert.ErrorIs(t, err, ErrNonFinite)
	})
	t.Run("inf", func(t *testing.T) {
		layout := mat.NewDense(3, 2, nil)
		layout.Set(2, 0, math.Inf(-1))
		_, _, err := e.Build(corpus, make([][]int64, 3), layout)
		assert.ErrorIs(t, err, ErrNonFinite)
	})
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", DefaultFile)

	records := []Record{
		{ID: "W1", ConceptIDs: []string{"C1"}, References: []string{}, DisplayName: "A", DOI: strPtr("10.1/a"), X: 0.5, Y: -1.25},
		{ID: "W2", ConceptIDs: []string{}, References: []string{"W1"}, DisplayName: "B", X: 2, Y: 3},
	}
	require.NoError(t, WriteJSON(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	for _, key := range []string{"id", "concept_ids", "references", "display_name", "doi", "x_tsne", "y_tsne"} {
		assert.Contains(t, raw[0], key)
	}
	assert.Nil(t, raw[1]["doi"])
	assert.Equal(t, "W1", raw[0]["id"])

	back, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, records, back)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}

func TestWriteJSON_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, WriteJSON(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestReadRecords_Missing(t *testing.T) {
	_, err := ReadRecords(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestCoordinates(t *testing.T) {
	xs, ys := Coordinates([]Record{{X: 1, Y: 2}, {X: 3, Y: 4}})
	assert.Equal(t, []float64{1, 3}, xs)
	assert.Equal(t, []float64{2, 4}, ys)
}
