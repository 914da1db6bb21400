package generator

import (
	"fmt"
	"strings"

	"auto_article_generator/research"
)

// Prompt 表示某一阶段发送给 LLM 的消息集合。
type Prompt struct {
	Stage   string
	System  string
	User    string
	History []Message
}

// Message 用于少量历史（可选）。
type Message struct {
	Role    string
	Content string
}

// BuildPlanPrompt 生成大纲提示词，要求返回 JSON。
func BuildPlanPrompt(content, tone string, length int) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an expert content planner. Create a detailed outline for an article based on the following parameters:\n")
	sb.WriteString(fmt.Sprintf("- Content: %s\n", content))
	sb.WriteString(fmt.Sprintf("- Tone: %s\n", tone))
	sb.WriteString(fmt.Sprintf("- Target Length: %d words\n\n", length))
	sb.WriteString("Return a JSON object with the following structure:\n")
	sb.WriteString(`{
    "title": "Article Title",
    "sections": [
        {
            "heading": "Section Title",
            "key_points": ["point1", "point2", ...]
        },
        ...
    ]
}`)

	return Prompt{
		Stage:  StagePlanning,
		System: sb.String(),
		User:   "Please create an outline for the article.",
	}
}

// BuildWritePrompt asks for the markdown article from an outline and citations.
func BuildWritePrompt(outline string, citations []research.Citation) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an expert content writer. Write an article based on the provided outline and citations.\n")
	sb.WriteString("The article should be well-structured, engaging, and incorporate the citations naturally.\n\n")
	sb.WriteString("Format the output in Markdown.\n\n")
	sb.WriteString("Outline:\n")
	sb.WriteString(outline)
	sb.WriteString("\n\nCitations:\n")
	sb.WriteString(formatCitations(citations))

	return Prompt{
		Stage:  StageWriting,
		System: sb.String(),
		User:   "Please write the article.",
	}
}

// BuildSEOPrompt asks for a search-optimized rewrite with YAML front matter.
func BuildSEOPrompt(article string) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an SEO expert. Optimize the following article for search engines while maintaining its quality and readability.\n\n")
	sb.WriteString("Tasks:\n")
	sb.WriteString("1. Add relevant meta description\n")
	sb.WriteString("2. Optimize headings and subheadings\n")
	sb.WriteString("3. Ensure proper keyword placement\n")
	sb.WriteString("4. Add internal linking suggestions\n")
	sb.WriteString("5. Format the content for better readability\n\n")
	sb.WriteString("Start with YAML front matter between --- lines holding title, description and keywords.\n")
	sb.WriteString("Put the internal linking suggestions last, under a heading named \"Internal Linking Suggestions\".\n")
	sb.WriteString("Return the optimized article in Markdown format.")

	return Prompt{
		Stage:  StageSEO,
		System: sb.String(),
		User:   "Please optimize this article: " + article,
	}
}

func formatCitations(citations []research.Citation) string {
	if len(citations) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for i, c := range citations {
		sb.WriteString(fmt.Sprintf("[%d] %s - %s\n", i+1, c.Title, c.Source))
		if snippet := strings.TrimSpace(c.Content); snippet != "" {
			sb.WriteString("    ")
			sb.WriteString(snippet)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
