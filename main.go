package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"auto_article_generator/config"
	"auto_article_generator/generator"
	"auto_article_generator/research"
	"auto_article_generator/server"
	"auto_article_generator/store"
)

var verbose bool

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	configPath := flag.String("config", "config/config.json", "path to config.json")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	topic := flag.String("topic", "", "article topic or brief content")
	tone := flag.String("tone", "Professional", "article tone")
	length := flag.Int("length", 1200, "target length in words")
	citations := flag.Bool("citations", false, "include citations from the web")
	out := flag.String("out", "", "write the final article to this markdown file")
	flag.BoolVar(&verbose, "v", false, "enable info logs")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	pipeline, err := buildPipeline(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Web server mode
	if *serve {
		st, err := buildStore(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer st.Close()
		srv, err := server.New(pipeline, st, time.Duration(cfg.TimeoutSeconds)*time.Second)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		listen := cfg.ServerAddr
		if *addr != "" {
			listen = *addr
		}
		log.Printf("Starting web server on %s", listen)
		if err := http.ListenAndServe(listen, srv.Routes()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if *topic == "" {
		fmt.Fprintln(os.Stderr, "--topic is required unless --serve is set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.TimeoutSeconds)*time.Second)
	defer cancel()
	req := generator.Request{Content: *topic, Tone: *tone, Length: *length, IncludeCitations: *citations}
	log.Printf("[cli] generating tone=%s length=%d citations=%t", req.Tone, req.Length, req.IncludeCitations)
	result, err := pipeline.Run(ctx, req, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "An error occurred during article generation: %v\n", err)
		os.Exit(1)
	}

	if *out != "" {
		if err := os.WriteFile(*out, []byte(result.FinalArticle), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		log.Printf("[cli] article written to %s", *out)
	}
	fmt.Println(result.FinalArticle)
}

func buildPipeline(cfg config.Config) (*generator.Pipeline, error) {
	llm, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}
	searcher, err := buildSearcher(cfg)
	if err != nil {
		return nil, err
	}
	agent, err := generator.NewAgent(llm, searcher)
	if err != nil {
		return nil, err
	}
	return generator.NewPipeline(agent, generator.WithVerbose(verbose), generator.WithLogger(log.Default()))
}

func buildLLM(cfg config.Config) (generator.LLMClient, error) {
	switch cfg.LLM.Provider {
	case "mock":
		return generator.MockLLM{}, nil
	case "openai", "deepseek":
		return generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Provider:    cfg.LLM.Provider,
			Model:       cfg.LLM.Model,
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Temperature: cfg.LLM.Temperature,
		})
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}

// buildSearcher returns nil when search is disabled; runs asking for
// citations then fail at the citation stage.
func buildSearcher(cfg config.Config) (research.Searcher, error) {
	switch cfg.Search.Provider {
	case "none":
		return nil, nil
	case "tavily":
		if cfg.Search.APIKey == "" {
			log.Printf("search key %s not set; citations disabled", cfg.Search.APIKeyEnv)
			return nil, nil
		}
		return research.NewTavily(cfg.Search.APIKey, cfg.Search.Depth, cfg.Search.MaxResults, nil)
	default:
		return nil, fmt.Errorf("search provider %s not supported", cfg.Search.Provider)
	}
}

func buildStore(cfg config.Config) (store.Store, error) {
	if cfg.DBPath == "" {
		return store.NewMemoryStore(), nil
	}
	return store.NewSQLiteStore(cfg.DBPath)
}
