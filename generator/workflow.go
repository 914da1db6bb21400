package generator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/smallnest/langgraphgo/graph"
)

// Pipeline runs planning -> citation -> writing -> seo over one State.
type Pipeline struct {
	agent    *Agent
	runnable *graph.StateRunnable[*State]
	verbose  bool
	logger   *log.Logger
}

// Option tunes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for stage info logs.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithVerbose 开启阶段日志。
func WithVerbose(v bool) Option {
	return func(p *Pipeline) { p.verbose = v }
}

// NewPipeline compiles the workflow graph once; the result is safe to share
// between concurrent runs.
func NewPipeline(agent *Agent, opts ...Option) (*Pipeline, error) {
	if agent == nil {
		return nil, errors.New("generator agent required")
	}
	p := &Pipeline{agent: agent, logger: log.Default()}
	for _, opt := range opts {
		opt(p)
	}

	workflow := graph.NewStateGraph[*State]()
	workflow.AddNode(StagePlanning, "Outline the article", p.node(StagePlanning, p.planning))
	workflow.AddNode(StageCitation, "Gather web citations", p.node(StageCitation, p.citation))
	workflow.AddNode(StageWriting, "Draft the article", p.node(StageWriting, p.writing))
	workflow.AddNode(StageSEO, "Optimize for search engines", p.node(StageSEO, p.seo))

	workflow.SetEntryPoint(StagePlanning)
	workflow.AddEdge(StagePlanning, StageCitation)
	workflow.AddEdge(StageCitation, StageWriting)
	workflow.AddEdge(StageWriting, StageSEO)
	workflow.AddEdge(StageSEO, graph.END)

	runnable, err := workflow.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile workflow: %w", err)
	}
	p.runnable = runnable
	return p, nil
}

func (p *Pipeline) infof(format string, args ...interface{}) {
	if !p.verbose {
		return
	}
	p.logger.Printf("[pipeline] "+format, args...)
}

// Run executes one pipeline pass. observe, if non-nil, receives stage events
// sequentially, from the stage goroutine; calls never overlap.
func (p *Pipeline) Run(ctx context.Context, req Request, observe func(Event)) (*State, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	st := newState(req, observe)
	p.infof("run start tone=%s length=%d citations=%t", st.Tone, st.Length, st.IncludeCitations)

	final, err := p.runnable.Invoke(ctx, st)
	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			return st, se
		}
		if st.failed != nil {
			return st, st.failed
		}
		return st, fmt.Errorf("workflow: %w", err)
	}
	if final == nil {
		final = st
	}
	if final.FinalArticle == "" {
		return final, errors.New("workflow finished without a final article")
	}
	return final, nil
}

func (p *Pipeline) node(stage string, fn func(context.Context, *State) error) func(context.Context, *State) (*State, error) {
	return func(ctx context.Context, s *State) (*State, error) {
		start := time.Now()
		s.emit(Event{Type: EventStageStarted, Stage: stage})
		if err := fn(ctx, s); err != nil {
			se := &StageError{Stage: stage, Err: err}
			s.failed = se
			s.emit(Event{Type: EventStageFailed, Stage: stage, Error: err.Error()})
			return s, se
		}
		d := time.Since(start)
		s.Stages = append(s.Stages, StageRecord{Stage: stage, Duration: d, CreatedAt: time.Now()})
		s.emit(Event{Type: EventStageCompleted, Stage: stage, Duration: d})
		p.infof("%s done in %s", stage, d.Round(time.Millisecond))
		return s, nil
	}
}

func (p *Pipeline) planning(ctx context.Context, s *State) error {
	outline, err := p.agent.Plan(ctx, s.Content, s.Tone, s.Length)
	if err != nil {
		return err
	}
	s.Outline = outline
	return nil
}

func (p *Pipeline) citation(ctx context.Context, s *State) error {
	if !s.IncludeCitations {
		s.Citations = nil
		return nil
	}
	citations, err := p.agent.Cite(ctx, s.Content)
	if err != nil {
		return err
	}
	s.Citations = citations
	return nil
}

func (p *Pipeline) writing(ctx context.Context, s *State) error {
	article, err := p.agent.Write(ctx, s.Outline, s.Citations)
	if err != nil {
		return err
	}
	s.Article = article
	return nil
}

func (p *Pipeline) seo(ctx context.Context, s *State) error {
	final, err := p.agent.Optimize(ctx, s.Article)
	if err != nil {
		return err
	}
	s.FinalArticle = final
	return nil
}
