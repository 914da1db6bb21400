// Package store keeps generated articles so previews and downloads survive reloads.
package store

import (
	"errors"
	"time"

	"auto_article_generator/generator"
)

var ErrNotFound = errors.New("article not found")

// Summary is a lightweight representation for listing articles.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Tone      string    `json:"tone"`
	Length    int       `json:"length"`
	CreatedAt time.Time `json:"created_at"`
}

// Store defines the persistence interface for generated articles.
type Store interface {
	Save(a *generator.Article) error
	Get(id string) (*generator.Article, error)
	// List returns the newest articles first.
	List(limit int) ([]Summary, error)
	Close() error
}

func summarize(a *generator.Article) Summary {
	return Summary{ID: a.ID, Title: a.Title, Tone: a.Tone, Length: a.Length, CreatedAt: a.CreatedAt}
}
