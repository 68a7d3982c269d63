package pipeline

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/jiekaitao/litmap/internal/article"
	"github.com/jiekaitao/litmap/internal/reduce"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// smallOptions fits corpora of a handful of articles.
func smallOptions() Options {
	opts := DefaultOptions()
	opts.SVD.Components = 2
	opts.TSNE.Perplexity = 2
	opts.TSNE.Iterations = 300
	opts.Verbose = false
	return opts
}

func TestRun_ThreeArticles(t *testing.T) {
	corpus := article.NewCorpus([]article.Article{
		{ID: "W1", PublicationDate: date(2001, 1, 1), Concepts: "C1,C2", DisplayName: "One"},
		{ID: "W2", PublicationDate: date(2010, 6, 1), Concepts: "C2,C3", DisplayName: "Two"},
		{ID: "W3", PublicationDate: date(2020, 12, 31), Concepts: "C1", DisplayName: "Three"},
	})

	res, err := New(smallOptions(), zerolog.Nop()).Run(corpus)
	require.NoError(t, err)

	require.Len(t, res.Records, 3)
	for i, r := range res.Records {
		assert.False(t, math.IsNaN(r.X) || math.IsInf(r.X, 0), "record %d x", i)
		assert.False(t, math.IsNaN(r.Y) || math.IsInf(r.Y, 0), "record %d y", i)
		for _, c := range r.ConceptIDs {
			assert.True(t, strings.HasPrefix(c, "C"), c)
		}
	}
	assert.Equal(t, []string{"C1", "C2"}, res.Records[0].ConceptIDs)
	assert.Equal(t, []string{"C2", "C3"}, res.Records[1].ConceptIDs)
	assert.Equal(t, []string{"C1"}, res.Records[2].ConceptIDs)

	r, c := res.Features.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 0.0, res.Features.At(0, 0))
	assert.Equal(t, 1.0, res.Features.At(2, 0))

	assert.Equal(t, 3, res.Stats.Articles)
	assert.Equal(t, 3, res.Stats.Concepts)
	assert.Equal(t, 5, res.Stats.NonZeros)
	assert.Len(t, res.Stats.SingularValues, 2)
}

func TestRun_RowIndexInvariant(t *testing.T) {
	articles := []article.Article{
		{ID: "W50", PublicationDate: date(1990, 1, 1), Concepts: "C10, C11", References: "W40"},
		{ID: "W40", PublicationDate: date(1995, 1, 1), Concepts: "C10", References: ""},
		{ID: "W30", Concepts: "C12, C13, C10", References: "W50, W40"},
		{ID: "W020", PublicationDate: date(2005, 1, 1), Concepts: "C13"},
		{ID: "W10", PublicationDate: date(2010, 1, 1), Concepts: "C11, C12", References: "W30"},
		{ID: "W60", PublicationDate: date(2015, 1, 1), Concepts: "C14, C10"},
		{ID: "W70", PublicationDate: date(2020, 1, 1), Concepts: "C14"},
	}
	corpus := article.NewCorpus(articles)

	res, err := New(smallOptions(), zerolog.Nop()).Run(corpus)
	require.NoError(t, err)
	require.Len(t, res.Records, len(articles))

	wantIDs := []string{"W50", "W40", "W30", "W20", "W10", "W60", "W70"}
	for i, rec := range res.Records {
		assert.Equal(t, wantIDs[i], rec.ID)
		assert.Equal(t, res.Layout.Embedding.At(i, 0), rec.X)
		assert.Equal(t, res.Layout.Embedding.At(i, 1), rec.Y)

		ids, _ := article.ParseConceptIDs(articles[i].Concepts)
		assert.Equal(t, article.FormatConceptIDs(ids), rec.ConceptIDs)
		for _, id := range ids {
			col, ok := res.Encoding.Vocabulary.Column(id)
			require.True(t, ok)
			assert.True(t, res.Encoding.Matrix.Has(i, col), "row %d concept %d", i, id)
		}
	}

	// The undated article sits at 0.
	assert.Equal(t, 0.0, res.Dates[2])
	assert.Equal(t, 1, res.Stats.MissingDates)
}

func TestRun_EqualDatesNormalizeToZero(t *testing.T) {
	d := date(2015, 5, 5)
	corpus := article.NewCorpus([]article.Article{
		{ID: "W1", PublicationDate: d, Concepts: "C1"},
		{ID: "W2", PublicationDate: d, Concepts: "C2"},
		{ID: "W3", PublicationDate: d, Concepts: "C3"},
		{ID: "W4", PublicationDate: d, Concepts: "C1, C3"},
	})

	res, err := New(smallOptions(), zerolog.Nop()).Run(corpus)
	require.NoError(t, err)
	for i := 0; i < corpus.Len(); i++ {
		assert.Equal(t, 0.0, res.Features.At(i, 0))
	}
}

func TestRun_Deterministic(t *testing.T) {
	corpus := article.NewCorpus([]article.Article{
		{ID: "W1", PublicationDate: date(2001, 1, 1), Concepts: "C1,C2"},
		{ID: "W2", PublicationDate: date(2003, 1, 1), Concepts: "C2,C3"},
		{ID: "W3", PublicationDate: date(2005, 1, 1), Concepts: "C3,C4"},
		{ID: "W4", PublicationDate: date(2007, 1, 1), Concepts: "C4,C1"},
		{ID: "W5", PublicationDate: date(2009, 1, 1), Concepts: "C1,C3"},
	})

	a, err := New(smallOptions(), zerolog.Nop()).Run(corpus)
	require.NoError(t, err)
	b, err := New(smallOptions(), zerolog.Nop()).Run(corpus)
	require.NoError(t, err)
	assert.Equal(t, a.Records, b.Records)
}

func TestRun_Warnings(t *testing.T) {
	var buf bytes.Buffer
	corpus := article.NewCorpus([]article.Article{
		{ID: "W1", Concepts: "C10, C20, Xinvalid, C30", References: "W5, W6, invalid, W7"},
		{ID: "W2", Concepts: "C20"},
		{ID: "W3", Concepts: "C30"},
	})

	res, err := New(smallOptions(), zerolog.New(&buf)).Run(corpus)
	require.NoError(t, err)

	assert.Equal(t, []string{"C10", "C20", "C30"}, res.Records[0].ConceptIDs)
	assert.Equal(t, []string{"W5", "W6", "W7"}, res.Records[0].References)
	assert.Equal(t, 1, res.Stats.ConceptWarnings)
	assert.Equal(t, 1, res.Stats.ReferenceWarnings)
	assert.Contains(t, buf.String(), `"token":"Xinvalid"`)
	assert.Contains(t, buf.String(), `"token":"invalid"`)
}

func TestRun_ConfigurationErrors(t *testing.T) {
	corpus := article.NewCorpus([]article.Article{
		{ID: "W1", Concepts: "C1,C2"},
		{ID: "W2", Concepts: "C2,C3"},
		{ID: "W3", Concepts: "C1"},
	})

	t.Run("default components exceed corpus", func(t *testing.T) {
		_, err := New(DefaultOptions(), zerolog.Nop()).Run(corpus)
		assert.ErrorIs(t, err, reduce.ErrDimensionTooLarge)
	})

	t.Run("default perplexity exceeds corpus", func(t *testing.T) {
		opts := DefaultOptions()
		opts.SVD.Components = 2
		_, err := New(opts, zerolog.Nop()).Run(corpus)
		assert.ErrorIs(t, err, reduce.ErrPerplexityTooLarge)
	})

	t.Run("empty vocabulary", func(t *testing.T) {
		empty := article.NewCorpus([]article.Article{{ID: "W1"}, {ID: "W2"}, {ID: "W3"}})
		_, err := New(smallOptions(), zerolog.Nop()).Run(empty)
		assert.ErrorIs(t, err, reduce.ErrDimensionTooLarge)
	})
}

func TestRun_Progress(t *testing.T) {
	corpus := article.NewCorpus([]article.Article{
		{ID: "W1", Concepts: "C1,C2"},
		{ID: "W2", Concepts: "C2,C3"},
		{ID: "W3", Concepts: "C3,C1"},
		{ID: "W4", Concepts: "C1"},
	})

	var buf bytes.Buffer
	opts := smallOptions()
	opts.Verbose = true
	p := New(opts, zerolog.New(&buf))

	var calls int
	p.SetProgressReporter(reduce.ProgressFunc(func(reduce.Progress) { calls++ }))

	res, err := p.Run(corpus)
	require.NoError(t, err)
	assert.Equal(t, res.Layout.Iterations, calls)

	logged := strings.Count(buf.String(), `"message":"t-SNE progress"`)
	assert.GreaterOrEqual(t, logged, 1)
	assert.LessOrEqual(t, logged, calls)
}
