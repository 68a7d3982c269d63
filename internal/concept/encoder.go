package concept

import (
	"fmt"

	"github.com/jiekaitao/litmap/internal/article"
	"github.com/rs/zerolog"
)

// Encoding is the output of encoding a corpus.
type Encoding struct {
	Parsed     [][]int64 // Per-article concept IDs in order of appearance
	Vocabulary *Vocabulary
	Matrix     *Matrix
	Warnings   int // Malformed tokens skipped
}

// Encoder turns a corpus's raw concept strings into a concept matrix.
type Encoder struct {
	log zerolog.Logger
}

// NewEncoder creates an encoder that reports malformed tokens to log.
func NewEncoder(log zerolog.Logger) *Encoder {
	return &Encoder{log: log}
}

// Encode parses every article, builds the vocabulary from the complete parse
// (pass 1) and then encodes rows against it (pass 2).
func (e *Encoder) Encode(corpus *article.Corpus) (*Encoding, error) {
	n := corpus.Len()
	parsed := make([][]int64, n)
	warnings := 0

	for i := 0; i < n; i++ {
		a := corpus.At(i)
		ids, invalid := article.ParseConceptIDs(a.Concepts)
		for _, tok := range invalid {
			e.log.Warn().
				Int("row", i).
				Str("article", a.ID).
				Str("token", tok).
				Msg("skipping invalid concept ID")
		}
		warnings += len(invalid)
		parsed[i] = ids
	}

	vocab := BuildVocabulary(parsed)
	e.log.Info().Int("concepts", vocab.Size()).Msg("built concept vocabulary")

	m, err := Encode(vocab, parsed)
	if err != nil {
		return nil, fmt.Errorf("encoding concepts: %w", err)
	}
	if err := m.CheckRows(n); err != nil {
		return nil, err
	}

	e.log.Debug().Int("rows", n).Int("cols", vocab.Size()).Int("nnz", m.NNZ()).Msg("encoded concept matrix")

	return &Encoding{
		Parsed:     parsed,
		Vocabulary: vocab,
		Matrix:     m,
		Warnings:   warnings,
	}, nil
}
