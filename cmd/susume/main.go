// Package main is the Susume CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/susume/internal/analytics"
	"github.com/hyperjump/susume/internal/catalog"
	"github.com/hyperjump/susume/internal/config"
	"github.com/hyperjump/susume/internal/embedding"
	"github.com/hyperjump/susume/internal/generate"
	"github.com/hyperjump/susume/internal/recommend"
	"github.com/hyperjump/susume/internal/report"
	"github.com/hyperjump/susume/internal/search"
	"github.com/hyperjump/susume/internal/server"
	"github.com/hyperjump/susume/internal/similarity"
	"github.com/hyperjump/susume/internal/storage"
	"github.com/hyperjump/susume/internal/watcher"
	"github.com/hyperjump/susume/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/susume/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence, so running from the project dir
// picks up the project's config.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "generate":
		runGenerate()
	case "load":
		runLoad()
	case "prepare":
		runPrepare()
	case "recommend":
		runRecommend()
	case "recommend-all":
		runRecommendAll()
	case "analyze":
		runAnalyze()
	case "search":
		runSearch()
	case "server":
		runServer()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("susume version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func mustSetup(configPath string, debugFlag bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || debugFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved))
	return cfg, logger
}

func openStorage(cfg *config.Config) storage.Storage {
	st, err := storage.NewSQLiteStorage(cfg.Data.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	return st
}

func runGenerate() {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outDir := fs.String("out", "./data", "output directory for products.csv and dataset.csv")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := mustSetup(*configPath, false)
	defer logger.Sync()

	g := generate.NewGenerator(cfg.Generator, logger)
	ds, err := g.Generate()
	if err != nil {
		logger.Fatal("Generation failed", zap.Error(err))
	}
	if err := ds.WriteCSV(*outDir); err != nil {
		logger.Fatal("Failed to write dataset", zap.Error(err))
	}
	fmt.Printf("Generated %d products and %d purchases in %s (run %s)\n",
		len(ds.Products), len(ds.Purchases), *outDir, ds.RunID)
}

// importData loads the product and purchase tables from the configured
// paths and replaces the stored copies.
func importData(ctx context.Context, cfg *config.Config, st storage.Storage, logger *zap.Logger) error {
	products, err := catalog.LoadProducts(cfg.Data.ProductsPath)
	if err != nil {
		return err
	}
	purchases, err := catalog.LoadPurchases(cfg.Data.PurchasesPath)
	if err != nil {
		return err
	}
	if err := st.ImportProducts(ctx, products); err != nil {
		return err
	}
	if err := st.ImportPurchases(ctx, purchases); err != nil {
		return err
	}
	logger.Info("data imported",
		zap.Int("products", len(products)), zap.Int("purchases", len(purchases)))
	return nil
}

func runLoad() {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := mustSetup(*configPath, false)
	defer logger.Sync()
	st := openStorage(cfg)
	defer st.Close()

	if err := importData(context.Background(), cfg, st, logger); err != nil {
		logger.Fatal("Load failed", zap.Error(err))
	}
	fmt.Println("Data loaded. Run 'susume prepare' to build the similarity artifact.")
}

// newEmbedder creates the configured embedder. A semantic embedder that
// cannot start (missing model, no ONNX runtime) falls back to the mock so
// the pipeline stays usable on machines without the model file.
func newEmbedder(cfg *config.Config, corpus []string, logger *zap.Logger) embedding.Embedder {
	embedder, err := embedding.NewEmbedder(cfg.Embedding, corpus)
	if err != nil {
		if cfg.Embedding.Strategy != embedding.StrategySemantic {
			logger.Fatal("Failed to create embedder", zap.Error(err))
		}
		logger.Warn("semantic embedder unavailable, using mock", zap.Error(err))
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}
	return embedder
}

// buildArtifact encodes the stored catalog and writes the similarity
// artifact to the configured path.
func buildArtifact(ctx context.Context, cfg *config.Config, st storage.Storage, logger *zap.Logger) error {
	products, err := st.ListProducts(ctx)
	if err != nil {
		return err
	}
	corpus := make([]string, len(products))
	for i, p := range products {
		corpus[i] = utils.CombineMetadata(p.Category, p.Description)
	}

	embedder := newEmbedder(cfg, corpus, logger)
	defer embedder.Close()

	art, err := similarity.NewBuilder(embedder, logger).Build(ctx, products)
	if err != nil {
		return err
	}
	if err := similarity.Save(cfg.Data.ArtifactPath, art); err != nil {
		return err
	}
	logger.Info("similarity artifact written",
		zap.String("path", cfg.Data.ArtifactPath), zap.Int("products", art.Dimension()))
	return nil
}

func runPrepare() {
	fs := flag.NewFlagSet("prepare", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	strategy := fs.String("strategy", "", "embedding strategy: semantic, lexical or mock (default from config)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := mustSetup(*configPath, false)
	if *strategy != "" {
		cfg.Embedding.Strategy = *strategy
	}
	defer logger.Sync()
	st := openStorage(cfg)
	defer st.Close()

	if err := buildArtifact(context.Background(), cfg, st, logger); err != nil {
		logger.Fatal("Prepare failed", zap.Error(err))
	}
	fmt.Printf("Similarity artifact written to %s\n", cfg.Data.ArtifactPath)
}

func newReporter(ctx context.Context, st storage.Storage) (*report.Reporter, error) {
	products, err := st.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return report.NewReporter(products), nil
}

func runRecommend() {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	topCategories := fs.Int("top-categories", 0, "categories to recommend from (0 = config default)")
	topN := fs.Int("top-n", 0, "picks per category (0 = config default)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: susume recommend [flags] <customer-id>")
		os.Exit(1)
	}
	customerID := fs.Arg(0)

	cfg, logger := mustSetup(*configPath, false)
	defer logger.Sync()
	st := openStorage(cfg)
	defer st.Close()

	ctx := context.Background()
	svc := recommend.NewService(st, cfg.Data.ArtifactPath, cfg.Recommend, logger)
	res, err := svc.ForCustomer(ctx, customerID, *topCategories, *topN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recommendation failed: %v\n", err)
		os.Exit(1)
	}

	reporter, err := newReporter(ctx, st)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	reporter.Print(os.Stdout, res)
}

func runRecommendAll() {
	fs := flag.NewFlagSet("recommend-all", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	topCategories := fs.Int("top-categories", 0, "categories to recommend from (0 = config default)")
	topN := fs.Int("top-n", 0, "picks per category (0 = config default)")
	quiet := fs.Bool("quiet", false, "write CSV files only, skip the console report")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := mustSetup(*configPath, false)
	defer logger.Sync()
	st := openStorage(cfg)
	defer st.Close()

	ctx := context.Background()
	svc := recommend.NewService(st, cfg.Data.ArtifactPath, cfg.Recommend, logger)
	batch, err := svc.ForAll(ctx, *topCategories, *topN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Batch run failed: %v\n", err)
		os.Exit(1)
	}

	reporter, err := newReporter(ctx, st)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	if !*quiet {
		reporter.PrintBatch(os.Stdout, batch)
	}
	cats, n := cfg.Recommend.TopCategories, cfg.Recommend.TopN
	if *topCategories > 0 {
		cats = *topCategories
	}
	if *topN > 0 {
		n = *topN
	}
	if err := reporter.SaveBatch(cfg.Data.OutputDir, batch, cats*n); err != nil {
		logger.Fatal("Failed to write CSV output", zap.Error(err))
	}
	fmt.Printf("Wrote %d recommendation(s) to %s (%d failure(s))\n",
		len(batch.Results), cfg.Data.OutputDir, len(batch.Failures))
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 5, "entries per top listing")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := mustSetup(*configPath, false)
	defer logger.Sync()
	st := openStorage(cfg)
	defer st.Close()

	a := analytics.NewAnalyzer(st, *limit)
	summary, err := a.Summarize(context.Background())
	if err != nil {
		logger.Fatal("Analysis failed", zap.Error(err))
	}
	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		a.Render(os.Stdout, summary)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

// openProductIndex opens the configured Bleve index and re-indexes the
// stored catalog when the index is empty or out of date.
func openProductIndex(ctx context.Context, cfg *config.Config, st storage.Storage) (*search.ProductIndex, error) {
	index, err := search.NewProductIndex(cfg.Data.BleveIndexPath)
	if err != nil {
		return nil, err
	}
	products, err := st.ListProducts(ctx)
	if err != nil {
		_ = index.Close()
		return nil, err
	}
	if err := index.IndexProducts(ctx, products); err != nil {
		_ = index.Close()
		return nil, err
	}
	return index, nil
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 10, "number of results")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: susume search [flags] <query>")
		os.Exit(1)
	}
	query := fs.Arg(0)
	for _, a := range fs.Args()[1:] {
		query += " " + a
	}

	cfg, logger := mustSetup(*configPath, false)
	defer logger.Sync()
	st := openStorage(cfg)
	defer st.Close()

	ctx := context.Background()
	index, err := openProductIndex(ctx, cfg, st)
	if err != nil {
		logger.Fatal("Failed to open product index", zap.Error(err))
	}
	defer index.Close()

	hits, err := index.Search(ctx, query, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if len(hits) == 0 {
		fmt.Println("No matching products.")
		return
	}
	for _, h := range hits {
		fmt.Printf("%-8s %-40s %-14s %.3f\n", h.ProductID, h.Description, h.Category, h.Score)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := mustSetup(*configPath, *debug)
	defer logger.Sync()
	st := openStorage(cfg)
	defer st.Close()

	ctx := context.Background()
	svc := recommend.NewService(st, cfg.Data.ArtifactPath, cfg.Recommend, logger)
	if err := svc.Reload(ctx); err != nil {
		logger.Warn("artifact not loaded; recommendations unavailable until prepare runs", zap.Error(err))
	}

	index, err := openProductIndex(ctx, cfg, st)
	if err != nil {
		logger.Warn("product index unavailable", zap.Error(err))
		index = nil
	} else {
		defer index.Close()
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.Enabled {
		// On a data file change, reimport both tables, rebuild the artifact,
		// and swap it in. The batch is serialized by the debounce.
		onChange := func(path string) {
			logger.Info("data file changed, rebuilding", zap.String("path", path))
			rebuildCtx := context.Background()
			if err := importData(rebuildCtx, cfg, st, logger); err != nil {
				logger.Error("reimport failed", zap.Error(err))
				return
			}
			if err := buildArtifact(rebuildCtx, cfg, st, logger); err != nil {
				logger.Error("rebuild failed", zap.Error(err))
				return
			}
			if err := svc.Reload(rebuildCtx); err != nil {
				logger.Error("artifact reload failed", zap.Error(err))
				return
			}
			if index != nil {
				products, err := st.ListProducts(rebuildCtx)
				if err == nil {
					if err := index.IndexProducts(rebuildCtx, products); err != nil {
						logger.Warn("product reindex failed", zap.Error(err))
					}
				}
			}
		}
		opts := []watcher.Option{
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS) * time.Millisecond),
		}
		if cfg.Debug || *debug {
			opts = append(opts, watcher.WithLogger(logger))
		}
		w := watcher.NewWatcher(
			[]string{cfg.Data.ProductsPath, cfg.Data.PurchasesPath}, onChange, opts...)
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	srv := server.NewServer(svc, st, index, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = read storage directly)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/status")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		_, _ = io.Copy(os.Stdout, resp.Body)
		fmt.Println()
		return
	}

	cfg, logger := mustSetup(*configPath, false)
	defer logger.Sync()
	st := openStorage(cfg)
	defer st.Close()

	ctx := context.Background()
	products, err := st.CountProducts(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count products failed: %v\n", err)
		os.Exit(1)
	}
	purchases, err := st.CountPurchases(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count purchases failed: %v\n", err)
		os.Exit(1)
	}
	artifactReady := false
	if _, err := os.Stat(cfg.Data.ArtifactPath); err == nil {
		artifactReady = true
	}
	fmt.Printf("products:        %d\n", products)
	fmt.Printf("purchases:       %d\n", purchases)
	fmt.Printf("artifact_ready:  %t\n", artifactReady)
	fmt.Printf("artifact_path:   %s\n", cfg.Data.ArtifactPath)
	fmt.Printf("database_path:   %s\n", cfg.Data.DatabasePath)
	fmt.Printf("strategy:        %s\n", cfg.Embedding.Strategy)
}

func printUsage() {
	fmt.Println(`susume - Content-based product recommendations

Usage:
  susume generate [flags]               Generate a synthetic dataset
  susume load [flags]                   Import product and purchase tables
  susume prepare [flags]                Build the similarity artifact
  susume recommend [flags] <customer>   Recommend for one customer
  susume recommend-all [flags]          Recommend for every customer
  susume analyze [flags]                Print sales analytics
  susume search [flags] <query>         Find products by description
  susume server [flags]                 Start the HTTP API
  susume status [flags]                 Show data and artifact status
  susume version                        Show version
  susume help                           Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/susume/config.yaml;
                     a config.yaml in the current directory takes precedence)

Prepare Flags:
  --strategy string  Embedding strategy: semantic, lexical or mock (default from config)

Recommend Flags:
  --top-categories int   Categories to recommend from (default from config)
  --top-n int            Picks per category (default from config)

Examples:
  susume generate --out ./data
  susume load
  susume prepare
  susume recommend C0042
  susume recommend-all --quiet
  susume analyze --output json
  susume search ceramic mug
  susume server --debug`)
}
