package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/scriptkitz/eelua/internal/config"
	"github.com/scriptkitz/eelua/internal/transcoder"
	"github.com/scriptkitz/eelua/internal/vfs"
)

const usage = `usage:
  eelua detect  [-config file] FILE...
  eelua convert [-config file] [-from enc] [-to enc] [-bom] [-o out] FILE
  eelua mount   [-config file]
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "eelua: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	fset := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fset.SetOutput(stderr)
	configPath := fset.String("config", "", "Path to config file (json, yaml or toml)")

	switch cmd {
	case "detect":
		if err := fset.Parse(args); err != nil {
			return errUsage
		}
		cfg, logger, err := setup(*configPath, stderr)
		if err != nil {
			return err
		}
		return detectFiles(fset.Args(), cfg, logger, stdout)

	case "convert":
		from := fset.String("from", "", "Source encoding; detected when empty")
		to := fset.String("to", "utf-8", "Target encoding")
		bom := fset.Bool("bom", false, "Write a byte order mark")
		out := fset.String("o", "", "Output file; stdout when empty")
		if err := fset.Parse(args); err != nil || fset.NArg() != 1 {
			return errUsage
		}
		cfg, logger, err := setup(*configPath, stderr)
		if err != nil {
			return err
		}
		opts := convertOptions{from: *from, to: *to, bom: *bom, out: *out}
		return convertFile(fset.Arg(0), opts, cfg, logger, stdout)

	case "mount":
		if err := fset.Parse(args); err != nil {
			return errUsage
		}
		cfg, err := config.LoadConfig(*configPath)
		logger := config.NewLogger(stderr, "")
		if err != nil {
			logger.Warn().Err(err).Msg("Could not load config, using default values")
			cfg = config.DefaultConfig()
		}
		logger = config.NewLogger(stderr, cfg.LogLevel)
		if err := cfg.Apply(); err != nil {
			return err
		}
		return vfs.Mount(ctx, cfg, logger)
	}
	return errUsage
}

func setup(path string, stderr io.Writer) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if err := cfg.Apply(); err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := config.NewLogger(stderr, cfg.LogLevel)
	return cfg, logger, nil
}

func detectFiles(paths []string, cfg *config.Config, logger zerolog.Logger, stdout io.Writer) error {
	if len(paths) == 0 {
		return errUsage
	}
	var failed int
	for _, path := range paths {
		d, err := detectFile(path, cfg.SniffSize)
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("detect failed")
			failed++
			continue
		}
		logger.Debug().Str("path", path).Stringer("encoding", d).Msg("detected")
		fmt.Fprintf(stdout, "%s\t%s\t%t\n", path, d.Codepage, d.HasBOM)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

func detectFile(path string, sniffSize int) (transcoder.Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		return transcoder.Detection{}, err
	}
	defer f.Close()

	d, _, err := transcoder.DetectReaderN(f, sniffSize)
	return d, err
}

type convertOptions struct {
	from, to string
	bom      bool
	out      string
}

func convertFile(path string, opts convertOptions, cfg *config.Config, logger zerolog.Logger, stdout io.Writer) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	src := transcoder.DetectHead(raw, cfg.SniffSize)
	if opts.from != "" {
		cp, err := transcoder.ParseCodepage(opts.from)
		if err != nil {
			return err
		}
		bom := cp.BOM()
		src = transcoder.Detection{Codepage: cp, HasBOM: len(bom) > 0 && bytes.HasPrefix(raw, bom)}
	}
	dstCP, err := transcoder.ParseCodepage(opts.to)
	if err != nil {
		return err
	}
	dst := transcoder.Detection{Codepage: dstCP, HasBOM: opts.bom && dstCP.BOM() != nil}

	text, err := transcoder.ConvertToUTF8(raw, src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	encoded, err := transcoder.ConvertFromUTF8(text, dst)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	logger.Info().Str("path", path).Stringer("from", src).Stringer("to", dst).Int("bytes", len(encoded)).Msg("converted")

	if opts.out == "" {
		_, err = stdout.Write(encoded)
		return err
	}
	return os.WriteFile(opts.out, encoded, 0o644)
}
