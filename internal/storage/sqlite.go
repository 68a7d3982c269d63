package storage

import (
	"database/sql"
	"fmt"

	"github.com/jiekaitao/litmap/internal/article"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database holding an articles table.
type DB struct {
	db *sql.DB
}

// selectArticleFields is the column list for article queries. "references" is
// an SQL keyword and must stay quoted.
const selectArticleFields = `id, publication_date, concepts, "references", display_name, doi`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS articles (
			id TEXT NOT NULL,
			publication_date TEXT,
			concepts TEXT,
			"references" TEXT,
			display_name TEXT,
			doi TEXT
		);
	`
	_, err := db.Exec(schema)
	return err
}

// LoadCorpus reads every article in insertion order.
// Unparseable publication dates are logged and treated as missing.
func (d *DB) LoadCorpus(log zerolog.Logger) (*article.Corpus, error) {
	rows, err := d.db.Query(`SELECT ` + selectArticleFields + ` FROM articles ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var articles []article.Article
	for rows.Next() {
		var a article.Article
		var date any
		var concepts, refs, displayName, doi sql.NullString
		if err := rows.Scan(&a.ID, &date, &concepts, &refs, &displayName, &doi); err != nil {
			return nil, fmt.Errorf("scanning article %d: %w", len(articles), err)
		}

		a.Concepts = concepts.String
		a.References = refs.String
		a.DisplayName = displayName.String
		if doi.Valid {
			a.DOI = &doi.String
		}

		a.PublicationDate, err = dateValue(date)
		if err != nil {
			log.Warn().Int("row", len(articles)).Str("article", a.ID).Err(err).Msg("treating publication date as missing")
			a.PublicationDate = nil
		}

		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading articles: %w", err)
	}

	return article.NewCorpus(articles), nil
}

// InsertArticles appends the corpus to the articles table in one transaction,
// preserving corpus order.
func (d *DB) InsertArticles(corpus *article.Corpus) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO articles (` + selectArticleFields + `) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < corpus.Len(); i++ {
		a := corpus.At(i)
		_, err := stmt.Exec(
			a.ID,
			nullableString(formatDate(a.PublicationDate)),
			a.Concepts,
			a.References,
			a.DisplayName,
			nullableString(a.DOI),
		)
		if err != nil {
			return fmt.Errorf("inserting article %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing articles: %w", err)
	}
	return nil
}

// Count returns the number of stored articles.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count)
	return count, err
}

// nullableString returns nil for a nil pointer so the column is stored as NULL.
func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
