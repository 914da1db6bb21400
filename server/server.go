package server

import (
	"bufio"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"auto_article_generator/generator"
	"auto_article_generator/render"
	"auto_article_generator/store"
)

//go:embed web/dist
var embeddedStatic embed.FS

const (
	downloadName     = "generated_article.md"
	defaultListLimit = 20
	maxRequestBytes  = 1 << 20
)

type Server struct {
	pipeline *generator.Pipeline
	store    store.Store
	timeout  time.Duration
	staticFS http.Handler
}

func New(pipeline *generator.Pipeline, st store.Store, timeout time.Duration) (*Server, error) {
	if pipeline == nil {
		return nil, errors.New("generator pipeline required")
	}
	if st == nil {
		st = store.NewMemoryStore()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	sub, err := fs.Sub(embeddedStatic, "web/dist")
	if err != nil {
		return nil, err
	}

	return &Server{
		pipeline: pipeline,
		store:    st,
		timeout:  timeout,
		staticFS: http.FileServer(http.FS(sub)),
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/options", s.handleOptions)
	mux.HandleFunc("/api/articles", s.handleArticles)
	mux.HandleFunc("/api/articles/", s.handleArticleByID)
	mux.HandleFunc("/api/ws", s.handleWebSocket)
	mux.Handle("/", s.staticHandler())
	return logMiddleware(mux)
}

func (s *Server) staticHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		s.staticFS.ServeHTTP(w, r)
	})
}

// --- Handlers ---

type optionsResp struct {
	Tones   []string                 `json:"tones"`
	Lengths []generator.LengthOption `json:"lengths"`
}

type articleResp struct {
	*generator.Article
	Preview         string             `json:"preview"`
	PreviewHTML     string             `json:"preview_html"`
	LinkSuggestions string             `json:"link_suggestions,omitempty"`
	Meta            render.Meta        `json:"meta"`
	ParsedOutline   *generator.Outline `json:"parsed_outline,omitempty"`
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, optionsResp{Tones: generator.Tones, Lengths: generator.Lengths})
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := defaultListLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		list, err := s.store.List(limit)
		if err != nil {
			log.Printf("[http] list articles: %v", err)
			http.Error(w, "failed to list articles", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []store.Summary{}
		}
		writeJSON(w, list)
	case http.MethodPost:
		var req generator.Request
		body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		art, err := s.generate(r.Context(), req, nil)
		if err != nil {
			status, msg := describeError(err)
			http.Error(w, msg, status)
			return
		}
		resp, err := newArticleResp(art)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, resp)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleArticleByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/articles/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	art, err := s.store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "article not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[http] get article %s: %v", id, err)
		http.Error(w, "failed to load article", http.StatusInternalServerError)
		return
	}

	switch action {
	case "":
		resp, err := newArticleResp(art)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, resp)
	case "download":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
		_, _ = w.Write([]byte(art.Final))
	default:
		http.NotFound(w, r)
	}
}

// --- Helpers ---

// generate runs one pipeline pass and stores the result.
func (s *Server) generate(ctx context.Context, req generator.Request, observe func(generator.Event)) (*generator.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	st, err := s.pipeline.Run(ctx, req, observe)
	if err != nil {
		return nil, err
	}
	art := generator.NewArticle(uuid.New().String(), st)
	if err := s.store.Save(art); err != nil {
		return nil, fmt.Errorf("save article: %w", err)
	}
	log.Printf("[http] article %s generated title=%q", art.ID, art.Title)
	return art, nil
}

func newArticleResp(art *generator.Article) (articleResp, error) {
	doc := render.Split(art.Final)
	html, err := render.HTML(doc.Preview)
	if err != nil {
		return articleResp{}, err
	}
	outline, _ := generator.ParseOutline(art.Outline)
	return articleResp{
		Article:         art,
		Preview:         doc.Preview,
		PreviewHTML:     html,
		LinkSuggestions: doc.LinkSuggestions,
		Meta:            doc.Meta,
		ParsedOutline:   outline,
	}, nil
}

// describeError maps a run failure to the status and message shown to the user.
func describeError(err error) (int, string) {
	switch {
	case errors.Is(err, generator.ErrEmptyContent):
		return http.StatusBadRequest, "Please enter some content to generate an article."
	case errors.Is(err, generator.ErrInvalidTone), errors.Is(err, generator.ErrInvalidLength):
		return http.StatusBadRequest, err.Error()
	default:
		log.Printf("[http] article generation failed: %v", err)
		return http.StatusBadGateway, "An error occurred during article generation: " + err.Error()
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack lets the websocket upgrade pass through the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[http] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
