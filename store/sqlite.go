package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"auto_article_generator/generator"
)

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database and applies migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Save(a *generator.Article) error {
	citations, err := json.Marshal(a.Citations)
	if err != nil {
		return fmt.Errorf("encode citations: %w", err)
	}
	stages, err := json.Marshal(a.Stages)
	if err != nil {
		return fmt.Errorf("encode stages: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO articles
		 (id, title, content, tone, length, include_citations, outline, citations, draft, final_article, stages, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.Title, a.Content, a.Tone, a.Length, a.IncludeCitations, a.Outline,
		string(citations), a.Draft, a.Final, string(stages), a.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(id string) (*generator.Article, error) {
	var a generator.Article
	var citations, stages string
	err := s.db.QueryRow(
		`SELECT id, title, content, tone, length, include_citations, outline, citations, draft, final_article, stages, created_at
		 FROM articles WHERE id = ?`, id,
	).Scan(&a.ID, &a.Title, &a.Content, &a.Tone, &a.Length, &a.IncludeCitations, &a.Outline,
		&citations, &a.Draft, &a.Final, &stages, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query article: %w", err)
	}
	if err := json.Unmarshal([]byte(citations), &a.Citations); err != nil {
		return nil, fmt.Errorf("decode citations: %w", err)
	}
	if err := json.Unmarshal([]byte(stages), &a.Stages); err != nil {
		return nil, fmt.Errorf("decode stages: %w", err)
	}
	return &a, nil
}

func (s *SQLiteStore) List(limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT id, title, tone, length, created_at FROM articles ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Tone, &sum.Length, &sum.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
