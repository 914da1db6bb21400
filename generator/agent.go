package generator

import (
	"context"
	"errors"
	"strings"

	"auto_article_generator/research"
)

var ErrNoSearcher = errors.New("citations requested but no search provider is configured")

// Agent 负责各阶段的具体执行：每个阶段一次模型调用或一次搜索。
type Agent struct {
	llm    LLMClient
	search research.Searcher
}

// NewAgent 组装各阶段 agent；不需要引用时 search 可为 nil。
func NewAgent(llm LLMClient, search research.Searcher) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Agent{llm: llm, search: search}, nil
}

// Plan 生成文章大纲（模型原文，预期为 JSON）。
func (a *Agent) Plan(ctx context.Context, content, tone string, length int) (string, error) {
	return a.complete(ctx, BuildPlanPrompt(content, tone, length))
}

// Cite 按主题检索引用来源。
func (a *Agent) Cite(ctx context.Context, content string) ([]research.Citation, error) {
	if a.search == nil {
		return nil, ErrNoSearcher
	}
	return a.search.Search(ctx, content)
}

// Write 根据大纲和引用撰写 Markdown 初稿。
func (a *Agent) Write(ctx context.Context, outline string, citations []research.Citation) (string, error) {
	return a.complete(ctx, BuildWritePrompt(outline, citations))
}

// Optimize rewrites the draft for search engines and unwraps any outer code fence.
func (a *Agent) Optimize(ctx context.Context, article string) (string, error) {
	raw, err := a.complete(ctx, BuildSEOPrompt(article))
	if err != nil {
		return "", err
	}
	return StripWrappingFence(raw), nil
}

func (a *Agent) complete(ctx context.Context, prompt Prompt) (string, error) {
	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(raw) == "" {
		return "", errors.New("model returned empty text")
	}
	return raw, nil
}
