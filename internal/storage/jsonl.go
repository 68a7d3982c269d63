package storage

import (
	"bufio"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/jiekaitao/litmap/internal/article"
	"github.com/rs/zerolog"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// jsonlArticle is the on-disk form of an article. Dates stay strings so a
// bad date can be reported instead of failing the whole line.
type jsonlArticle struct {
	ID              string  `json:"id"`
	PublicationDate *string `json:"publication_date"`
	Concepts        string  `json:"concepts"`
	References      string  `json:"references"`
	DisplayName     string  `json:"display_name"`
	DOI             *string `json:"doi"`
}

// ReadArticlesJSONL reads a corpus from a JSONL file, one article per line,
// in file order. Blank lines are skipped.
func ReadArticlesJSONL(path string, log zerolog.Logger) (*article.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening articles file: %w", err)
	}
	defer f.Close()

	var articles []article.Article
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec jsonlArticle
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}

		a := article.Article{
			ID:          rec.ID,
			DOI:         rec.DOI,
			DisplayName: rec.DisplayName,
			Concepts:    rec.Concepts,
			References:  rec.References,
		}
		if rec.PublicationDate != nil {
			a.PublicationDate, err = article.ParseDate(*rec.PublicationDate)
			if err != nil {
				log.Warn().Int("line", lineNum).Str("article", rec.ID).Err(err).Msg("treating publication date as missing")
				a.PublicationDate = nil
			}
		}
		articles = append(articles, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading articles file: %w", err)
	}

	return article.NewCorpus(articles), nil
}

// WriteArticlesJSONL writes the corpus to a JSONL file, replacing existing content.
func WriteArticlesJSONL(path string, corpus *article.Corpus) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating articles file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := 0; i < corpus.Len(); i++ {
		a := corpus.At(i)
		data, err := json.Marshal(jsonlArticle{
			ID:              a.ID,
			PublicationDate: formatDate(a.PublicationDate),
			Concepts:        a.Concepts,
			References:      a.References,
			DisplayName:     a.DisplayName,
			DOI:             a.DOI,
		})
		if err != nil {
			return fmt.Errorf("encoding article %d: %w", i, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing article %d: %w", i, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing articles file: %w", err)
	}
	return f.Close()
}
