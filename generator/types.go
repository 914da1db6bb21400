package generator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"auto_article_generator/research"
)

// Tones 表单可选的语气。
var Tones = []string{"Professional", "Casual", "Academic", "Conversational", "Technical"}

// LengthOption is one choice of the article length selector.
type LengthOption struct {
	Label string `json:"label"`
	Words int    `json:"words"`
}

// Lengths offered by the article form.
var Lengths = []LengthOption{
	{Label: "Short (500 words)", Words: 500},
	{Label: "Medium (1200 words)", Words: 1200},
	{Label: "Long (2500 words)", Words: 2500},
}

const (
	defaultTone   = "Professional"
	defaultLength = 1200
	maxLength     = 10000
)

var (
	ErrEmptyContent  = errors.New("please enter some content to generate an article")
	ErrInvalidTone   = errors.New("unsupported tone")
	ErrInvalidLength = errors.New("unsupported article length")
)

// Request is the form input that starts a pipeline run.
type Request struct {
	Content          string `json:"content"`
	Tone             string `json:"tone"`
	Length           int    `json:"length"`
	IncludeCitations bool   `json:"include_citations"`
}

// Normalize trims the request, fills defaults and rejects unusable input.
func (r Request) Normalize() (Request, error) {
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return r, ErrEmptyContent
	}
	tone := strings.TrimSpace(r.Tone)
	if tone == "" {
		tone = defaultTone
	}
	r.Tone = ""
	for _, t := range Tones {
		if strings.EqualFold(t, tone) {
			r.Tone = t
			break
		}
	}
	if r.Tone == "" {
		return r, fmt.Errorf("%w: %q", ErrInvalidTone, tone)
	}
	if r.Length == 0 {
		r.Length = defaultLength
	}
	if r.Length < 0 || r.Length > maxLength {
		return r, fmt.Errorf("%w: %d", ErrInvalidLength, r.Length)
	}
	return r, nil
}

// State 在工作流各阶段间传递，每个阶段只补充自己的字段，
// 阶段之间不校验模型输出。
type State struct {
	Content          string
	Tone             string
	Length           int
	IncludeCitations bool

	Outline      string
	Citations    []research.Citation
	Article      string
	FinalArticle string

	Stages []StageRecord

	observe func(Event)
	failed  *StageError
}

func newState(req Request, observe func(Event)) *State {
	return &State{
		Content:          req.Content,
		Tone:             req.Tone,
		Length:           req.Length,
		IncludeCitations: req.IncludeCitations,
		observe:          observe,
	}
}

func (s *State) emit(evt Event) {
	if s.observe == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	s.observe(evt)
}

// StageRecord 记录一次完成的阶段。
type StageRecord struct {
	Stage     string        `json:"stage"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Article is a completed run as kept by the store.
type Article struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Content          string              `json:"content"`
	Tone             string              `json:"tone"`
	Length           int                 `json:"length"`
	IncludeCitations bool                `json:"include_citations"`
	Outline          string              `json:"outline"`
	Citations        []research.Citation `json:"citations"`
	Draft            string              `json:"draft"`
	Final            string              `json:"final_article"`
	Stages           []StageRecord       `json:"stages"`
	CreatedAt        time.Time           `json:"created_at"`
}

// NewArticle snapshots a finished State.
func NewArticle(id string, s *State) *Article {
	title := extractTitle(s.FinalArticle)
	if title == "" {
		title = defaultDigest(s.Content, 80)
	}
	return &Article{
		ID:               id,
		Title:            title,
		Content:          s.Content,
		Tone:             s.Tone,
		Length:           s.Length,
		IncludeCitations: s.IncludeCitations,
		Outline:          s.Outline,
		Citations:        s.Citations,
		Draft:            s.Article,
		Final:            s.FinalArticle,
		Stages:           s.Stages,
		CreatedAt:        time.Now(),
	}
}
