// Command mcq-extract reads a PDF or text file and writes its questions as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mcq-exam/api/internal/app"
	"mcq-exam/api/internal/config"
	"mcq-exam/api/internal/docread"
	"mcq-exam/api/internal/extract"
	"mcq-exam/api/internal/logging"
	"mcq-exam/api/internal/mcq"
)

type options struct {
	input   string
	output  string
	mode    string
	enrich  bool
	verbose bool
}

func main() {
	var o options
	flag.StringVar(&o.input, "input", "", "PDF or TXT file to read (required)")
	flag.StringVar(&o.output, "output", "-", "where to write the JSON list, - for stdout")
	flag.StringVar(&o.mode, "mode", "auto", "segmentation: auto, number or answer")
	flag.BoolVar(&o.enrich, "enrich", false, "fill missing answers with the configured LLM provider")
	flag.BoolVar(&o.verbose, "verbose", false, "debug logging to stderr")
	flag.Parse()

	if o.input == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o); err != nil {
		fmt.Fprintln(os.Stderr, "mcq-extract:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.SegmentMode = o.mode
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger, err := logging.New(level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	p, closeFn, err := pipeline(ctx, cfg, o, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	data, err := os.ReadFile(o.input)
	if err != nil {
		return eris.Wrap(err, "read input")
	}
	kind, err := docread.KindFromName(o.input)
	if err != nil {
		kind = docread.Sniff(data)
	}

	ex, err := p.Extract(ctx, data, kind)
	if err != nil {
		return err
	}
	logger.Debug("extracted",
		zap.Int("questions", len(ex.Questions)),
		zap.Stringer("strategy", ex.Report.Strategy),
		zap.Bool("enriched", ex.Enriched),
		zap.String("enrichment", string(ex.Reason)))
	return writeJSON(o.output, ex.Questions)
}

// pipeline builds the extractor; without -enrich no provider or cache is touched.
func pipeline(ctx context.Context, cfg *config.Config, o options, logger *zap.Logger) (*extract.Pipeline, func(), error) {
	if o.enrich {
		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return a.Pipeline, func() { _ = a.Close() }, nil
	}
	mode, err := mcq.ParseMode(o.mode)
	if err != nil {
		return nil, nil, err
	}
	pdfMode, err := docread.ParsePDFMode(cfg.PDFToText)
	if err != nil {
		return nil, nil, err
	}
	return extract.New(docread.New(pdfMode, logger), nil, mode, logger), func() {}, nil
}

func writeJSON(path string, qs []mcq.Question) error {
	var w io.Writer = os.Stdout
	if path != "-" && path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "create output")
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(qs)
}
