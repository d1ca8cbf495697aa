package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/absfs/magicmount"
	"github.com/absfs/magicmount/internal/config"
	"github.com/absfs/magicmount/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var (
		configPath  string
		dryRun      bool
		logLevel    string
		sourceRoot  string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("magicmount", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to config file (default: $"+config.EnvVar+", then built-in defaults)")
	flagSet.BoolVar(&dryRun, "dry-run", false, "print the mount plan instead of mounting")
	flagSet.StringVar(&logLevel, "log-level", "", "override log.level from the config file")
	flagSet.StringVar(&sourceRoot, "source-root", "/", "host directory that stands for / when reading modules and the mirror")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "magicmount %s\n", version)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, closer, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	})
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer closer.Close()

	src := magicmount.NewHostFS(sourceRoot)
	modules, err := selectModules(src, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("modules selected", "count", len(modules), "store", cfg.ModuleStore)

	opts := []magicmount.Option{
		magicmount.WithSource(src),
		magicmount.WithLogger(logger),
		magicmount.WithRuntimeDir(cfg.RuntimeDir),
		magicmount.WithPartitions(cfg.Partitions...),
		magicmount.WithStatCache(cfg.StatCache),
	}
	if cfg.InjectBinaries() {
		opts = append(opts, magicmount.WithBinaries(cfg.RuntimeDir))
	}
	var recorder *magicmount.Recorder
	if dryRun {
		recorder = &magicmount.Recorder{}
		opts = append(opts, magicmount.WithMounter(recorder))
	}

	report := magicmount.New(opts...).Run(modules)
	logger.Info("magic mount finished",
		"modules", report.Modules,
		"nodes", report.Nodes,
		"binds", report.Binds,
		"tmpfs", report.Tmpfs,
		"symlinks", report.Symlinks,
		"dropped", report.Dropped,
		"cache_hits", report.Cache.Hits,
		"cache_misses", report.Cache.Misses,
	)

	if recorder != nil {
		fmt.Fprint(stdout, recorder)
	}
	// Failed mounts are logged and never fail the boot stage.
	if report.Err != nil {
		logger.Warn("some paths were not overridden", "error", report.Err)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// selectModules resolves the configured module list, or enumerates the
// store when none is configured.
func selectModules(src *magicmount.HostFS, cfg *config.Config, logger *slog.Logger) ([]magicmount.Module, error) {
	if len(cfg.Modules) == 0 {
		modules, err := magicmount.LoadModules(src, cfg.ModuleStore, logger)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Info("no module store", "store", cfg.ModuleStore)
				return nil, nil
			}
			return nil, err
		}
		return modules, nil
	}

	modules, err := magicmount.ResolveModules(src, cfg.ModuleStore, cfg.Modules, logger)
	if err != nil {
		logger.Warn("some configured modules are unusable", "error", err)
	}
	return modules, nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `magicmount overlays enabled modules onto the system partitions.

It runs once per boot, after the mirror and module staging areas have been
set up under the runtime directory.

Usage:
  magicmount [flags]

Flags:
`)
	flagSet.PrintDefaults()
}
