package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/duynguyendang/secdex/internal/logging"
	"github.com/duynguyendang/secdex/internal/manager"
	"github.com/duynguyendang/secdex/pkg/annotation"
	"github.com/duynguyendang/secdex/pkg/classify"
	"github.com/duynguyendang/secdex/pkg/pipeline"
	"github.com/duynguyendang/secdex/pkg/process"
	"github.com/duynguyendang/secdex/pkg/server"
	"github.com/duynguyendang/secdex/pkg/store"
	"github.com/duynguyendang/secdex/pkg/walker"
)

func main() {
	buildMode := flag.Bool("build", false, "walk a corpus, register its files and annotations, and process them (requires a corpus root argument)")
	serverMode := flag.Bool("server", false, "run the REST API over an existing dataset")
	statsMode := flag.Bool("stats", false, "print dataset coverage statistics")
	configFlag := flag.String("config", "", "path to an optional YAML config file")
	dbFlag := flag.String("db", "", "dataset path (overrides config)")
	debugFlag := flag.Bool("debug", false, "verbose development logging")

	flag.Parse()

	_ = godotenv.Load()

	log, err := logging.New(*debugFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := pipeline.DefaultConfig()
	if *configFlag != "" {
		cfg, err = pipeline.LoadConfig(*configFlag)
		if err != nil {
			log.Fatalw("failed to load config", "path", *configFlag, "error", err)
		}
	}
	if *dbFlag != "" {
		cfg.DBPath = *dbFlag
	}

	switch {
	case *buildMode:
		if flag.NArg() != 1 {
			fmt.Println("Usage: secdex --build [--config file] <corpus_root>")
			os.Exit(1)
		}
		if err := runBuild(cfg, flag.Arg(0), log); err != nil {
			log.Fatalw("build failed", "error", err)
		}

	case *serverMode:
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			log.Fatalw("failed to open dataset", "error", err)
		}
		defer st.Close()
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		log.Infow("starting REST API server", "db", cfg.DBPath, "port", port)
		if err := server.NewServer(st).Run(":" + port); err != nil {
			log.Fatalw("server exited", "error", err)
		}

	case *statsMode:
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			log.Fatalw("failed to open dataset", "error", err)
		}
		defer st.Close()
		stats, err := st.Stats()
		if err != nil {
			log.Fatalw("failed to compute stats", "error", err)
		}
		fmt.Printf("files: %d  processed: %d  annotated: %d\n", stats.TotalFiles, stats.Processed, stats.Annotated)
		for cat, n := range stats.ByCategory {
			fmt.Printf("  %-12s %d\n", cat, n)
		}

	default:
		flag.Usage()
		os.Exit(1)
	}
}

// runBuild walks the corpus, registers every file and curated annotation,
// then drains the unprocessed backlog through the pipeline in batches.
func runBuild(cfg pipeline.Config, root string, log *zap.SugaredLogger) error {
	ctx := context.Background()

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Init(); err != nil {
		return err
	}

	index := manager.NewIndex()
	log.Infow("walking corpus", "root", root)
	walked, err := walker.Walk(root, cfg.SkipGlobs, index)
	if err != nil {
		return err
	}
	log.Infow("walk finished", "files", len(walked.Files), "indexes", len(walked.Indexes))

	// Register curated annotations first so their categories land on the
	// file rows before processing starts.
	parser := annotation.NewParser()
	for _, indexPath := range walked.Indexes {
		anns, err := parser.ParseFile(indexPath)
		if err != nil {
			log.Warnw("failed to parse index", "path", indexPath, "error", err)
			continue
		}
		dir := filepath.Dir(indexPath)
		for i := range anns {
			ann := &anns[i]
			fullPath := filepath.Join(dir, ann.Filename)
			fileID, err := st.AddFile(store.FileRecord{
				Filename: ann.Filename,
				FullPath: fullPath,
				FileType: filepath.Ext(ann.Filename),
				Category: ann.Category,
			})
			if err != nil {
				log.Warnw("failed to register annotated file", "path", fullPath, "error", err)
				continue
			}
			if err := st.AddAnnotation(fileID, ann); err != nil {
				log.Warnw("failed to register annotation", "path", fullPath, "error", err)
			}
		}
	}
	for _, e := range parser.Errors() {
		log.Warnw("index parse issue", "issue", e)
	}

	for _, entry := range walked.Files {
		mod := entry.ModTime
		if _, err := st.AddFile(store.FileRecord{
			Filename:     filepath.Base(entry.Desc.Path),
			FullPath:     entry.Desc.Path,
			FileType:     filepath.Ext(entry.Desc.Path),
			Size:         entry.Desc.Size,
			ModifiedDate: &mod,
		}); err != nil {
			log.Warnw("failed to register file", "path", entry.Desc.Path, "error", err)
		}
	}

	classifier := classify.NewClassifier(index, cfg.LanguageExtensions)
	suite := process.NewSuite(classifier, index)
	orch := pipeline.New(cfg, classifier, suite, pipeline.OSReader{}, log)

	for {
		batch, err := st.UnprocessedFiles(cfg.BatchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}

		fds := make([]classify.FileDescriptor, len(batch))
		for i, rec := range batch {
			fds[i] = classify.FileDescriptor{
				Path:          rec.FullPath,
				DeclaredMIME:  mime.TypeByExtension(rec.FileType),
				Size:          rec.Size,
				HasAnnotation: index.Has(rec.FullPath),
			}
		}

		results, err := orch.ProcessBatch(ctx, fds)
		if err != nil {
			return err
		}
		for i, res := range results {
			if err := st.SaveResult(batch[i].ID, res); err != nil {
				log.Warnw("failed to save result", "path", batch[i].FullPath, "error", err)
			}
		}
	}

	log.Infow("build finished", "db", cfg.DBPath)
	return nil
}
