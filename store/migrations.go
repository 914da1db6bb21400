package store

const schema = `
CREATE TABLE IF NOT EXISTS articles (
    id TEXT PRIMARY KEY,
    title TEXT,
    content TEXT NOT NULL,
    tone TEXT,
    length INTEGER,
    include_citations BOOLEAN DEFAULT 0,
    outline TEXT,
    citations TEXT DEFAULT '[]',
    draft TEXT,
    final_article TEXT,
    stages TEXT DEFAULT '[]',
    created_at DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_articles_created ON articles(created_at);
`
