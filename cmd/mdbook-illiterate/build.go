package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"illiterate/internal/config"
	"illiterate/internal/convert"
	"illiterate/internal/crawler"
	"illiterate/internal/diag"
	"illiterate/internal/mdbook"
	"illiterate/internal/pipeline"
	"illiterate/internal/render"
	"illiterate/internal/storage"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	outDir     string
	sinceRef   string
	reportPath string
	printOut   bool
	showBlocks bool
)

func init() {
	buildCmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default <book>/<build-dir>/illiterate)")
	buildCmd.Flags().StringVar(&sinceRef, "since", "", "Only build files changed since this git ref")
	buildCmd.Flags().StringVar(&reportPath, "report", "", "Run report path (default <out>/report.json)")

	watchCmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default <book>/<build-dir>/illiterate)")

	checkCmd.Flags().BoolVarP(&printOut, "print", "p", false, "Print the generated Markdown")
	checkCmd.Flags().BoolVar(&showBlocks, "blocks", false, "List the prose and code blocks of each file")
}

// project is everything a standalone command needs for one book.
type project struct {
	cfg     *config.Config
	root    string
	opts    pipeline.BuildOptions
	cache   storage.Cache
	builder *pipeline.Builder
}

func openProject(args []string) (*project, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// 1. Layer book.toml over the config
	book, err := mdbook.LoadBook(root)
	if err != nil {
		return nil, err
	}
	bookOpts, err := book.Options()
	if err != nil {
		return nil, err
	}
	if cfg, err = bookOpts.Apply(cfg); err != nil {
		return nil, err
	}

	// 2. Setup engine, cache and crawler
	engine, err := pipeline.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	cache, err := pipeline.OpenCache(cfg, root)
	if err != nil {
		log.Warn().Err(err).Msg("conversion cache disabled")
		cache = nil
	}
	cr, err := crawler.NewCrawler(cfg.Extensions, cfg.Exclude)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(engine, cache, cfg.Workers, log.Logger)

	out := outDir
	if out == "" {
		out = filepath.Join(root, book.Build.BuildDir, "illiterate")
	}
	report := reportPath
	if report == "" {
		report = filepath.Join(out, "report.json")
	}

	return &project{
		cfg:   cfg,
		root:  root,
		cache: cache,
		opts: pipeline.BuildOptions{
			SrcDir:      book.SrcDir(root),
			OutDir:      out,
			Since:       sinceRef,
			ReportPath:  report,
			FailOnError: cfg.FailOnError,
		},
		builder: pipeline.NewBuilder(runner, cr),
	}, nil
}

func (p *project) Close() {
	if p.cache != nil {
		p.cache.Close()
	}
}

func printSummary(report *pipeline.Report) {
	s := report.Summary
	fmt.Printf("✅ %d files, %d cached, %d failed.\n", s.FileCount, s.CachedFiles, s.FailedFiles)
}

var buildCmd = &cobra.Command{
	Use:   "build [book-root]",
	Short: "Convert the book's source chapters to Markdown files",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := openProject(args)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up build")
		}
		defer p.Close()

		ctx, cancel := signalContext()
		defer cancel()

		fmt.Printf("📂 Building %s -> %s\n", p.opts.SrcDir, p.opts.OutDir)
		start := time.Now()
		report, err := p.builder.Build(ctx, p.opts)
		printSummary(report)
		if err != nil {
			reportErrors(err)
			p.Close()
			os.Exit(1)
		}
		fmt.Printf("🎉 Done in %v. Report: %s\n", time.Since(start).Round(time.Millisecond), p.opts.ReportPath)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Convert source files without writing anything and report problems",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up check")
		}
		if len(args) == 0 {
			args = []string{"."}
		}

		engine, err := pipeline.NewEngine(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create engine")
		}
		cr, err := crawler.NewCrawler(cfg.Extensions, cfg.Exclude)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create crawler")
		}

		// 1. Collect files
		var jobs []pipeline.Job
		for _, arg := range args {
			files := []string{arg}
			if info, err := os.Stat(arg); err == nil && info.IsDir() {
				rels, err := cr.Scan(arg)
				if err != nil {
					log.Fatal().Err(err).Msg("failed to scan")
				}
				files = files[:0]
				for _, rel := range rels {
					files = append(files, filepath.Join(arg, filepath.FromSlash(rel)))
				}
			}
			for _, f := range files {
				data, err := os.ReadFile(f)
				if err != nil {
					log.Fatal().Err(err).Msg("failed to read source")
				}
				jobs = append(jobs, pipeline.Job{Path: f, Source: string(data)})
			}
		}

		ctx, cancel := signalContext()
		defer cancel()

		// 2. Convert
		runner := pipeline.NewRunner(engine, nil, cfg.Workers, log.Logger)
		results, err := runner.Run(ctx, jobs)
		for i, res := range results {
			if res.Err != nil {
				continue
			}
			fmt.Printf("✅ %s\n", res.Path)
			if showBlocks {
				printBlocks(ctx, engine, jobs[i].Source)
			}
			if printOut {
				fmt.Println(res.Output)
			}
		}
		if err != nil {
			reportErrors(err)
			os.Exit(1)
		}
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [book-root]",
	Short: "Build the book, then rebuild source chapters as they change",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := openProject(args)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up watch")
		}
		defer p.Close()

		ctx, cancel := signalContext()
		defer cancel()

		// 1. Initial build
		opts := p.opts
		opts.Since = ""
		opts.FailOnError = false
		report, err := p.builder.Build(ctx, opts)
		printSummary(report)
		if err != nil {
			reportErrors(err)
		}

		// 2. Watch
		w, err := pipeline.NewWatcher(p.builder, opts)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start watcher")
		}
		defer w.Close()
		w.OnBuild = func(rel string, _ *pipeline.Report, err error) {
			if err != nil {
				reportErrors(err)
				return
			}
			fmt.Printf("🔄 Rebuilt %s\n", rel)
		}

		fmt.Printf("👀 Watching %s (Ctrl-C to stop)\n", opts.SrcDir)
		if err := w.Run(ctx); err != nil {
			log.Fatal().Err(err).Msg("watch failed")
		}
	},
}

func printBlocks(ctx context.Context, engine *convert.Engine, src string) {
	blocks, err := engine.Blocks(ctx, src)
	if err != nil {
		return
	}
	for _, b := range blocks {
		switch b := b.(type) {
		case render.ProseBlock:
			fmt.Printf("   prose  line %d\n", b.Start+1)
		case render.CodeBlock:
			fmt.Printf("   code   line %d (%s)\n", b.Start+1, b.Info())
		}
	}
}

// reportErrors prints one line per file error.
func reportErrors(err error) {
	for _, e := range flatten(err) {
		if path, line, ok := diag.Position(e); ok {
			log.Error().Str("path", path).Int("line", line+1).Msg(e.Error())
			continue
		}
		fmt.Fprintf(os.Stderr, "❌ %v\n", e)
	}
}

func flatten(err error) []error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	var out []error
	for _, e := range joined.Unwrap() {
		out = append(out, flatten(e)...)
	}
	return out
}
