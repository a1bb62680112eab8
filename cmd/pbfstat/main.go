// pbfstat prints the header and primitive counts of an OSM PBF file and can
// re-encode it with another compression or node encoding.
//
//	pbfstat [--workers N] [--unpack] [--out FILE [--compression NAME] [--nodes KIND]] FILE
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/arloliu/osmpbf"
	"github.com/arloliu/osmpbf/blob"
	"github.com/arloliu/osmpbf/block"
	"github.com/arloliu/osmpbf/coord"
	"github.com/arloliu/osmpbf/format"
	"github.com/arloliu/osmpbf/parallel"
	"github.com/arloliu/osmpbf/schema"
)

type options struct {
	workers     int
	unpack      bool
	out         string
	compression string
	nodes       string
	verbose     bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet("pbfstat", pflag.ContinueOnError)
	flagSet.IntVarP(&opts.workers, "workers", "w", runtime.NumCPU(), "number of decoding goroutines")
	flagSet.BoolVar(&opts.unpack, "unpack", false, "unpack dense node columns eagerly")
	flagSet.StringVarP(&opts.out, "out", "o", "", "re-encode into this file")
	flagSet.StringVar(&opts.compression, "compression", "zlib", "output compression: none, zlib, lzma, lz4 or zstd")
	flagSet.StringVar(&opts.nodes, "nodes", "keep", "output node encoding: keep, dense or plain")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pbfstat [flags] FILE\n\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return fmt.Errorf("expected one input file, got %d", flagSet.NArg())
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	path := flagSet.Arg(0)
	if opts.out != "" {
		return recode(logger, path, opts, stdout)
	}

	return stat(ctx, logger, path, opts, stdout)
}

func stat(ctx context.Context, logger *slog.Logger, path string, opts options, stdout io.Writer) error {
	r, err := osmpbf.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	printHeader(stdout, r.Header())

	start := time.Now()
	stats, err := osmpbf.Count(ctx, r, opts.workers, parallel.WithBlockOptions(block.WithDenseUnpack(opts.unpack)))
	if err != nil {
		return err
	}
	logger.Info("decoded", "path", path, "blocks", stats.Blocks, "workers", opts.workers, "elapsed", time.Since(start))

	printStats(stdout, stats)

	return nil
}

func recode(logger *slog.Logger, path string, opts options, stdout io.Writer) error {
	ct, ok := format.ParseCompressionType(strings.ToLower(opts.compression))
	if !ok {
		return fmt.Errorf("unknown compression %q", opts.compression)
	}
	nodes, err := parseNodes(opts.nodes)
	if err != nil {
		return err
	}

	src, err := osmpbf.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := osmpbf.Create(opts.out, "pbfstat", blob.WithCompression(ct))
	if err != nil {
		return err
	}

	start := time.Now()
	stats, err := osmpbf.Recode(dst, src, nodes)
	if err != nil {
		_ = dst.Close()
		return err
	}
	written := dst.Offset()
	if err := dst.Close(); err != nil {
		return err
	}
	logger.Info("recoded", "in", path, "out", opts.out, "compression", ct, "bytes", written, "elapsed", time.Since(start))

	printStats(stdout, stats)
	fmt.Fprintf(stdout, "written:     %d bytes (%s)\n", written, ct)

	return nil
}

func parseNodes(name string) (format.NodeKind, error) {
	switch strings.ToLower(name) {
	case "keep", "any":
		return format.NodeAny, nil
	case "dense":
		return format.NodeDense, nil
	case "plain":
		return format.NodePlain, nil
	default:
		return 0, fmt.Errorf("unknown node encoding %q", name)
	}
}

func printHeader(w io.Writer, h *schema.HeaderBlock) {
	if h == nil {
		return
	}
	fmt.Fprintf(w, "program:     %s\n", h.WritingProgram)
	if h.Source != "" {
		fmt.Fprintf(w, "source:      %s\n", h.Source)
	}
	fmt.Fprintf(w, "required:    %s\n", strings.Join(h.RequiredFeatures, ", "))
	if len(h.OptionalFeatures) > 0 {
		fmt.Fprintf(w, "optional:    %s\n", strings.Join(h.OptionalFeatures, ", "))
	}
	if bb := h.BBox; bb != nil {
		fmt.Fprintf(w, "bbox:        %.7f,%.7f,%.7f,%.7f\n",
			coord.NanoToDegrees(bb.Left), coord.NanoToDegrees(bb.Bottom),
			coord.NanoToDegrees(bb.Right), coord.NanoToDegrees(bb.Top))
	}
	if h.ReplicationTimestamp != 0 {
		fmt.Fprintf(w, "replication: %s seq %d\n",
			time.Unix(h.ReplicationTimestamp, 0).UTC().Format(time.RFC3339), h.ReplicationSequence)
	}
}

func printStats(w io.Writer, s osmpbf.Stats) {
	fmt.Fprintf(w, "blocks:      %d\n", s.Blocks)
	fmt.Fprintf(w, "nodes:       %d (plain %d, dense %d)\n", s.Nodes(), s.PlainNodes, s.DenseNodes)
	fmt.Fprintf(w, "ways:        %d\n", s.Ways)
	fmt.Fprintf(w, "relations:   %d\n", s.Relations)
}
