package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"auto_article_generator/generator"
	"auto_article_generator/store"
)

type failingLLM struct{}

func (failingLLM) Complete(context.Context, generator.Prompt) (string, error) {
	return "", errors.New("upstream unavailable")
}

// blockingLLM never answers; it returns once the run context ends.
type blockingLLM struct {
	done chan error
}

func (b blockingLLM) Complete(ctx context.Context, _ generator.Prompt) (string, error) {
	<-ctx.Done()
	if b.done != nil {
		select {
		case b.done <- ctx.Err():
		default:
		}
	}
	return "", ctx.Err()
}

func newTestServer(t *testing.T, llm generator.LLMClient) (*httptest.Server, store.Store) {
	t.Helper()
	return newTestServerWithTimeout(t, llm, time.Minute)
}

func newTestServerWithTimeout(t *testing.T, llm generator.LLMClient, timeout time.Duration) (*httptest.Server, store.Store) {
	t.Helper()
	agent, err := generator.NewAgent(llm, nil)
	if err != nil {
		t.Fatal(err)
	}
	p, err := generator.NewPipeline(agent)
	if err != nil {
		t.Fatal(err)
	}
	st := store.NewMemoryStore()
	srv, err := New(p, st, timeout)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, st
}

func postArticle(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/api/articles", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestGenerateStoreAndDownload(t *testing.T) {
	ts, st := newTestServer(t, generator.MockLLM{})

	resp := postArticle(t, ts.URL, `{"content":"Go in production","tone":"Casual","length":500}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("status %d: %s", resp.StatusCode, b)
	}
	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	id, _ := got["id"].(string)
	if id == "" {
		t.Fatalf("missing id in %v", got)
	}
	if html, _ := got["preview_html"].(string); !strings.Contains(html, "<h1>Sample Article</h1>") {
		t.Errorf("preview_html = %q", html)
	}
	if preview, _ := got["preview"].(string); strings.Contains(preview, "Internal Linking Suggestions") {
		t.Errorf("preview should stop before link suggestions: %q", preview)
	}
	if meta, _ := got["meta"].(map[string]any); meta["title"] != "Sample Article" {
		t.Errorf("meta = %v", got["meta"])
	}
	if _, ok := got["parsed_outline"]; !ok {
		t.Error("parsed_outline missing")
	}

	stored, err := st.Get(id)
	if err != nil {
		t.Fatalf("stored article: %v", err)
	}

	dl, err := http.Get(ts.URL + "/api/articles/" + id + "/download")
	if err != nil {
		t.Fatal(err)
	}
	defer dl.Body.Close()
	body, _ := io.ReadAll(dl.Body)
	if !strings.HasPrefix(dl.Header.Get("Content-Type"), "text/markdown") {
		t.Errorf("content type = %s", dl.Header.Get("Content-Type"))
	}
	if !strings.Contains(dl.Header.Get("Content-Disposition"), "generated_article.md") {
		t.Errorf("disposition = %s", dl.Header.Get("Content-Disposition"))
	}
	if string(body) != stored.Final {
		t.Errorf("download body differs from final article")
	}

	list, err := http.Get(ts.URL + "/api/articles")
	if err != nil {
		t.Fatal(err)
	}
	defer list.Body.Close()
	var sums []store.Summary
	if err := json.NewDecoder(list.Body).Decode(&sums); err != nil {
		t.Fatal(err)
	}
	if len(sums) != 1 || sums[0].ID != id {
		t.Errorf("list = %+v", sums)
	}
}

func TestGenerateRejectsEmptyContent(t *testing.T) {
	ts, _ := newTestServer(t, generator.MockLLM{})
	resp := postArticle(t, ts.URL, `{"content":"  "}`)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(string(body), "Please enter some content") {
		t.Fatalf("status %d body %q", resp.StatusCode, body)
	}
}

func TestGenerateUpstreamFailure(t *testing.T) {
	ts, _ := newTestServer(t, failingLLM{})
	resp := postArticle(t, ts.URL, `{"content":"x"}`)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(string(body), "An error occurred during article generation:") || !strings.Contains(string(body), "upstream unavailable") {
		t.Errorf("body = %q", body)
	}
}

func TestArticleNotFoundAndMethods(t *testing.T) {
	ts, _ := newTestServer(t, generator.MockLLM{})

	resp, err := http.Get(ts.URL + "/api/articles/missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing article status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/articles", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
}

func TestOptionsAndStatic(t *testing.T) {
	ts, _ := newTestServer(t, generator.MockLLM{})

	resp, err := http.Get(ts.URL + "/api/options")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var opts optionsResp
	if err := json.NewDecoder(resp.Body).Decode(&opts); err != nil {
		t.Fatal(err)
	}
	if len(opts.Tones) != 5 || len(opts.Lengths) != 3 || opts.Lengths[2].Words != 2500 {
		t.Errorf("options = %+v", opts)
	}

	page, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer page.Body.Close()
	html, _ := io.ReadAll(page.Body)
	if !strings.Contains(string(html), "Generate Article") {
		t.Error("index page not served")
	}
}

func TestWebSocketStreamsProgress(t *testing.T) {
	ts, _ := newTestServer(t, generator.MockLLM{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(generator.Request{Content: "Streaming", Tone: "Academic", Length: 500}); err != nil {
		t.Fatal(err)
	}

	var stages []string
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type == "event" && msg.Event.Type == generator.EventStageCompleted {
			stages = append(stages, msg.Event.Stage)
		}
		if msg.Type == "error" {
			t.Fatalf("error message: %s", msg.Error)
		}
		if msg.Type == "article" {
			if msg.Article == nil || msg.Article.Article == nil || msg.Article.ID == "" {
				t.Fatalf("article message without article: %+v", msg)
			}
			break
		}
	}
	if got := strings.Join(stages, ","); got != "planning,citation,writing,seo" {
		t.Errorf("completed stages = %s", got)
	}
}

func TestGenerateTimesOut(t *testing.T) {
	ts, st := newTestServerWithTimeout(t, blockingLLM{}, 50*time.Millisecond)

	start := time.Now()
	resp := postArticle(t, ts.URL, `{"content":"never finishes"}`)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d body %q", resp.StatusCode, body)
	}
	if !strings.HasPrefix(string(body), "An error occurred during article generation:") {
		t.Errorf("body = %q", body)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("run not bounded by timeout: %s", elapsed)
	}
	if list, _ := st.List(0); len(list) != 0 {
		t.Errorf("failed run was stored: %+v", list)
	}
}

func TestGenerateRejectsOversizedBody(t *testing.T) {
	ts, _ := newTestServer(t, generator.MockLLM{})
	big := `{"content":"` + strings.Repeat("a", maxRequestBytes+1) + `"}`
	resp := postArticle(t, ts.URL, big)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestWebSocketDisconnectCancelsRun(t *testing.T) {
	done := make(chan error, 1)
	ts, _ := newTestServer(t, blockingLLM{done: done})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := conn.WriteJSON(generator.Request{Content: "closed tab"}); err != nil {
		t.Fatal(err)
	}
	// Wait for the run to start before going away.
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "event" {
		t.Fatalf("first message = %+v, err %v", msg, err)
	}
	conn.Close()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run ended with %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run kept going after the client disconnected")
	}
}
