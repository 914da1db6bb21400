package generator

import (
	"context"
	"fmt"
	"strings"
)

// MockLLM 按阶段返回固定内容，便于本地调试，不调用外部模型。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	switch prompt.Stage {
	case StagePlanning:
		return `{"title": "Sample Article", "sections": [{"heading": "Introduction", "key_points": ["context", "why it matters"]}, {"heading": "Details", "key_points": ["facts"]}]}`, nil
	case StageWriting:
		var sb strings.Builder
		sb.WriteString("# Sample Article\n\n")
		sb.WriteString("An automatically generated introduction.\n\n")
		sb.WriteString("## Details\n\n")
		sb.WriteString("Written from the outline and citations:\n\n")
		sb.WriteString("```\n")
		sb.WriteString(prompt.System)
		sb.WriteString("\n```\n")
		return sb.String(), nil
	case StageSEO:
		body := strings.TrimPrefix(prompt.User, "Please optimize this article: ")
		return fmt.Sprintf("```markdown\n---\ntitle: Sample Article\ndescription: A generated sample article.\nkeywords: [sample, article]\n---\n%s\n\n## Internal Linking Suggestions\n\n- Link to related posts.\n```", strings.TrimSpace(body)), nil
	default:
		return "", fmt.Errorf("mock llm: unknown stage %q", prompt.Stage)
	}
}
