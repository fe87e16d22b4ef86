package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/caldrin/answerhub/pkg/answer"
	"github.com/caldrin/answerhub/pkg/classify"
	cfgPkg "github.com/caldrin/answerhub/pkg/config"
	"github.com/caldrin/answerhub/pkg/history"
	"github.com/caldrin/answerhub/pkg/limiter"
	"github.com/caldrin/answerhub/pkg/llm"
	"github.com/caldrin/answerhub/pkg/pipeline"
	"github.com/caldrin/answerhub/pkg/rerank"
	"github.com/caldrin/answerhub/pkg/retrieval"
	"github.com/caldrin/answerhub/pkg/store"
	"github.com/caldrin/answerhub/pkg/stream"
	wsserver "github.com/caldrin/answerhub/server"
)

type flags struct {
	configPath string
	tenant     string
	user       string
	collection string
	serveAddr  string
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := run(parseFlags(), logger); err != nil {
		logger.Fatal().Err(err).Msg("answerhub failed")
	}
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to config file")
	flag.StringVar(&f.tenant, "tenant", "default", "Tenant workspace")
	flag.StringVar(&f.user, "user", "cli", "User identifier")
	flag.StringVar(&f.collection, "collection", "", "Restrict questions to one collection")
	flag.StringVar(&f.serveAddr, "serve", "", "Serve websocket clients on this address instead of the REPL")
	flag.Parse()
	return f
}

func run(f flags, logger zerolog.Logger) error {
	cfg, err := cfgPkg.LoadConfig(f.configPath)
	if err != nil {
		return err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			logger.Error().Str("field", e.Field).Msg(e.Message)
		}
		return fmt.Errorf("invalid configuration")
	}

	p, closeStore, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if f.serveAddr != "" {
		return wsserver.NewWSServer(p, logger).ListenAndServe(f.serveAddr)
	}
	return repl(p, f)
}

func buildPipeline(cfg *cfgPkg.Config, logger zerolog.Logger) (*pipeline.Pipeline, func(), error) {
	client, err := llm.NewClient(llm.ClientConfig{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, nil, err
	}
	model := llm.NewLimited(client, limiter.New(int64(cfg.Pipeline.LimiterCapacity), cfg.Pipeline.RateLimit))

	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.EmbedModel,
	})
	if err != nil {
		return nil, nil, err
	}

	vectorStore, err := store.NewWithConfig(store.VectorStoreConfig{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  cfg.Database.VectorDim,
	}, embedder)
	if err != nil {
		return nil, nil, err
	}

	p := pipeline.New(
		classify.NewResolver(model, logger),
		retrieval.New(vectorStore, retrieval.Config{
			DefaultTopK:   cfg.Retrieval.TopK,
			EscalatedTopK: cfg.Retrieval.EscalatedTopK,
		}, logger),
		rerank.New(model, rerank.Config{
			PreviewChars: cfg.Retrieval.PreviewChars,
			DefaultCap:   cfg.Retrieval.ChunkCap,
			WideCap:      cfg.Retrieval.WideChunkCap,
		}, logger),
		answer.NewGenerator(model, logger),
		stream.NewFormatter(model, logger),
		vectorStore,
		history.NewMemoryStore(),
		logger,
	)
	return p, vectorStore.Close, nil
}

func repl(p *pipeline.Pipeline, f flags) error {
	color.Cyan("answerhub — ask about your documents (ctrl-d to quit)")
	scanner := bufio.NewScanner(os.Stdin)
	prompt := color.New(color.FgGreen, color.Bold)

	for {
		prompt.Print("\n> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		askOnce(p, f, question)
	}
}

func askOnce(p *pipeline.Pipeline, f flags, question string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rep := p.Ask(ctx, pipeline.Request{
		Tenant:         f.tenant,
		User:           f.user,
		ConversationID: "repl",
		Collection:     f.collection,
		Question:       question,
	})

	spinner := getSpinner(" Thinking...")
	firstFragment := true
	for fragment := range rep.Fragments {
		// Clear spinner on first fragment
		if firstFragment {
			spinner.Finish()
			fmt.Print("\r")
			firstFragment = false
		}
		fmt.Print(fragment)
	}
	if firstFragment {
		spinner.Finish()
		fmt.Print("\r")
	}
	fmt.Println()

	result := rep.Result()
	if len(result.Sources) > 0 {
		color.Blue("\nSources:")
		for _, s := range result.Sources {
			color.Blue("  - %s", s)
		}
	}
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
