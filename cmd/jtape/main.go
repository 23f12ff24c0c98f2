// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

// Program jtape parses JSON files into tapes and reports on them.
//
// Usage:
//
//	jtape [flags] stat <file>...   # parse each file and print statistics
//	jtape [flags] dump <file>      # print the tape of a file
//	jtape [flags] many <file>      # parse a file of concatenated documents
//	jtape [flags] impls            # list the stage 1 implementations
//
// Files ending in .gz, .zst, .s2, .sz or .lz4 are decompressed. Flags may
// also be set with JTAPE_* environment variables (for example
// JTAPE_BATCH_SIZE) or a configuration file named by --config.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/creachadair/jtape"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// config holds the settings of a run, merged from flags, the environment and
// an optional configuration file.
type config struct {
	MaxCapacity    int    `mapstructure:"max-capacity"`
	MaxDepth       int    `mapstructure:"max-depth"`
	BatchSize      int    `mapstructure:"batch-size"`
	Implementation string `mapstructure:"implementation"`
	LogLevel       string `mapstructure:"log-level"`
	LogFormat      string `mapstructure:"log-format"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "jtape: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("jtape", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Int("max-capacity", jtape.DefaultMaxCapacity, "largest document to accept, in bytes")
	fs.Int("max-depth", jtape.DefaultMaxDepth, "maximum container nesting depth")
	fs.Int("batch-size", jtape.DefaultBatchSize, "window size for concatenated documents, in bytes")
	fs.String("implementation", "", "stage 1 implementation (default: best available)")
	fs.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text or json)")
	configFile := fs.String("config", "", "configuration file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: jtape [flags] stat|dump|many|impls [file...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(fs, *configFile)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("missing command")
	}
	cmd, files := rest[0], rest[1:]
	if cmd == "impls" {
		return listImplementations(stdout)
	}
	if len(files) == 0 {
		return errors.Errorf("%s: missing file name", cmd)
	}
	p, err := newParser(cfg, log)
	if err != nil {
		return err
	}
	defer p.Close()

	switch cmd {
	case "stat":
		return runStat(p, files, stdout, log)
	case "dump":
		return runDump(p, files, stdout)
	case "many":
		return runMany(p, cfg.BatchSize, files, stdout, log)
	default:
		return errors.Errorf("unknown command %q", cmd)
	}
}

func loadConfig(fs *pflag.FlagSet, path string) (*config, error) {
	v := viper.New()
	v.SetEnvPrefix("JTAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Wrap(err, "bind flags")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "read config")
		}
	}
	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return &cfg, nil
}

func newLogger(cfg *config, w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(level)
	switch cfg.LogFormat {
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, errors.Errorf("unknown log format %q", cfg.LogFormat)
	}
	return log, nil
}

func newParser(cfg *config, log *logrus.Logger) (*jtape.Parser, error) {
	opts := []jtape.Option{
		jtape.WithMaxCapacity(cfg.MaxCapacity),
		jtape.WithMaxDepth(cfg.MaxDepth),
		jtape.WithLogger(log),
	}
	if cfg.Implementation != "" {
		impl := jtape.Lookup(cfg.Implementation)
		if impl == nil {
			return nil, errors.Errorf("unknown implementation %q", cfg.Implementation)
		} else if !impl.Supported() {
			return nil, errors.Errorf("implementation %q is not supported on this CPU", cfg.Implementation)
		}
		opts = append(opts, jtape.WithImplementation(impl))
	}
	p := jtape.New(opts...)
	log.WithField("implementation", p.Implementation().Name()).Debug("parser ready")
	return p, nil
}

func listImplementations(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 4, 8, 2, ' ', 0)
	active := jtape.Active().Name()
	for _, impl := range jtape.Available() {
		mark := " "
		if impl.Name() == active {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%v\t%s\n", mark, impl.Name(), impl.Supported(), impl.Description())
	}
	return tw.Flush()
}

func runStat(p *jtape.Parser, files []string, w io.Writer, log *logrus.Logger) error {
	tw := tabwriter.NewWriter(w, 4, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tENTRIES\tROOT\tFINGERPRINT\tTIME")
	for _, path := range files {
		start := time.Now()
		doc, err := p.Load(path)
		if err != nil {
			return errors.Wrap(err, path)
		}
		elapsed := time.Since(start)
		t, err := doc.Tape()
		if err != nil {
			return errors.Wrap(err, path)
		}
		log.WithFields(logrus.Fields{
			"path":     path,
			"capacity": p.Capacity(),
		}).Info("parsed file")
		fmt.Fprintf(tw, "%s\t%d\t%v\t%016x\t%v\n", path, t.Len(), doc.Tag(), t.Fingerprint(), elapsed.Round(time.Microsecond))
	}
	return tw.Flush()
}

func runDump(p *jtape.Parser, files []string, w io.Writer) error {
	for _, path := range files {
		doc, err := p.Load(path)
		if err != nil {
			return errors.Wrap(err, path)
		}
		t, err := doc.Tape()
		if err != nil {
			return errors.Wrap(err, path)
		}
		if err := t.Dump(w); err != nil {
			return err
		}
	}
	return nil
}

func runMany(p *jtape.Parser, batchSize int, files []string, w io.Writer, log *logrus.Logger) error {
	for _, path := range files {
		s := p.LoadMany(path, batchSize)
		for doc, err := range s.All() {
			if err != nil {
				return errors.Wrapf(err, "%s: document %d", path, s.Count()+1)
			}
			t, _ := doc.Tape()
			log.WithFields(logrus.Fields{
				"offset": s.Offset(),
				"status": s.Status(),
			}).Debug("document")
			fmt.Fprintf(w, "%s\t%d\t%v\t%016x\n", path, s.Offset(), doc.Tag(), t.Fingerprint())
		}
		fmt.Fprintf(w, "%s\t%d documents\n", path, s.Count())
	}
	return nil
}
