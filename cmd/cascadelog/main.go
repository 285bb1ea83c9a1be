package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cascadehq/cascadelog/internal/cascade"
	"github.com/cascadehq/cascadelog/internal/config"
	"github.com/cascadehq/cascadelog/internal/csvio"
	"github.com/cascadehq/cascadelog/internal/embedder"
	"github.com/cascadehq/cascadelog/internal/llm"
	"github.com/cascadehq/cascadelog/internal/logging"
	"github.com/cascadehq/cascadelog/internal/rules"
	"github.com/cascadehq/cascadelog/internal/semantic"
	"github.com/cascadehq/cascadelog/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		serve      = flag.Bool("serve", false, "run the HTTP server instead of one-shot mode")
		input      = flag.String("input", "", "input CSV path (default stdin)")
		output     = flag.String("output", "", "output CSV path (default stdout)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// One-shot mode writes CSV to stdout; keep logs JSON on stderr.
	csvToStdout := !*serve && *output == ""
	logging.Init(csvToStdout, logging.ParseLevel(cfg.Logging.Level))

	// Pattern stage.
	table := rules.Default()
	if cfg.Rules.Path != "" {
		table, err = rules.LoadFile(cfg.Rules.Path)
		if err != nil {
			log.Fatalf("failed to load rules: %v", err)
		}
	}

	// Embedding model and semantic stage.
	emb, err := embedder.New(cfg.Embedder)
	if err != nil {
		log.Fatalf("failed to create embedder: %v", err)
	}
	defer emb.Close()

	cached := embedder.NewCached(emb)
	sem, err := semantic.New(context.Background(), cached, semantic.DefaultReferences())
	if err != nil {
		log.Fatalf("failed to build label centroids: %v", err)
	}
	slog.Info("label centroids ready", "labels", len(sem.Labels()), "rules", table.Len())

	// Verification stage.
	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatalf("failed to create llm client: %v", err)
	}
	verifier := llm.NewStage(client, cfg.LLM.AllowedLabels, cfg.LLM.MaxRetries)

	c := cascade.New(table, sem, verifier, cascade.Config{
		ConfidenceThreshold: cfg.Cascade.ConfidenceThreshold,
		Workers:             cfg.Cascade.Workers,
		BatchTimeout:        time.Duration(cfg.Cascade.BatchTimeoutSeconds) * time.Second,
	})

	if *serve {
		runServer(c, cfg.Server.Addr)
		return
	}

	if err := runOnce(c, *input, *output); err != nil {
		log.Fatalf("classification failed: %v", err)
	}
}

// runOnce classifies one CSV and exits.
func runOnce(c *cascade.Cascade, input, output string) error {
	var in io.Reader = os.Stdin
	if input != "" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	batch, err := csvio.Read(in)
	if err != nil {
		return err
	}

	slog.Info("classifying batch", "rows", batch.Len())
	results := c.ClassifyBatch(context.Background(), batch.Records())

	var out io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	return batch.Write(out, results)
}

// runServer blocks until SIGINT/SIGTERM, then drains and exits.
func runServer(c *cascade.Cascade, addr string) {
	srv, err := server.New(c, addr)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("cascadelog listening", "addr", addr)
	if err := srv.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
