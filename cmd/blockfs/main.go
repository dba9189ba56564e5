// Package main provides the blockfs command: it runs a command script
// against a persistent block volume.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/Alexander-D-Karpov/blockfs/internal/config"
	"github.com/Alexander-D-Karpov/blockfs/internal/domain"
	"github.com/Alexander-D-Karpov/blockfs/internal/journal"
	"github.com/Alexander-D-Karpov/blockfs/internal/logger"
	"github.com/Alexander-D-Karpov/blockfs/internal/script"
	"github.com/Alexander-D-Karpov/blockfs/internal/snapshot"
	"github.com/Alexander-D-Karpov/blockfs/internal/storage"
)

type CLI struct {
	Script string `arg:"" help:"Command script to execute."`

	Config   string `short:"c" help:"YAML configuration file."`
	Snapshot string `help:"Snapshot location, overrides the configured path."`
	LogLevel string `help:"Log level (debug, info, warn, error)."`
	Quiet    bool   `short:"q" help:"Suppress all log output."`
}

// exitCode carries a kong exit request out of Parse.
type exitCode int

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("blockfs"),
		kong.Description("Run a command script against a simulated block filesystem."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitCode(c)) }),
	)
	if err != nil {
		fmt.Fprintf(stderr, "blockfs: %v\n", err)
		return 1
	}

	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	if _, err := parser.Parse(args); err != nil {
		parser.Errorf("%s", err)
		var perr *kong.ParseError
		if errors.As(err, &perr) {
			perr.Context.PrintUsage(true)
		}
		return 1
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(stderr, "blockfs: %v\n", err)
		return 1
	}
	if cli.Snapshot != "" {
		cfg.Snapshot.Path = cli.Snapshot
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}

	logger.SetOutput(stderr)
	logger.SetLevel(config.ParseLogLevel(cfg.LogLevel))
	if cli.Quiet {
		logger.SetLevel(config.LogLevelQuiet)
	}

	f, err := os.Open(cli.Script)
	if err != nil {
		fmt.Fprintf(stderr, "blockfs: cannot open script: %v\n", err)
		return 1
	}
	defer f.Close()

	store, err := snapshot.Open(ctx, cfg.Snapshot)
	if err != nil {
		logger.Error("Snapshot store unavailable: %v", err)
	} else {
		defer store.Close()
	}

	opts := storage.Options{
		Containment: domain.Containment(cfg.Containment),
		Listing:     domain.ListMode(cfg.Listing),
	}
	vol, rejected := loadVolume(ctx, store, cfg, opts)

	runner := script.NewRunner(vol, stdout)
	var jrnl *journal.Journal
	if cfg.JournalPath != "" {
		jrnl, err = journal.Open(cfg.JournalPath)
		if err != nil {
			logger.Warn("Journal unavailable: %v", err)
			jrnl = nil
		} else {
			defer jrnl.Close()
			replayJournal(ctx, jrnl, vol)
			runner.SetRecorder(jrnl)
		}
	}

	sum, runErr := runner.Run(ctx, f)
	logger.Info("Ran %d commands: %d applied, %d failed", sum.Commands, sum.Applied, sum.Failed)
	if runErr != nil {
		logger.Error("Script aborted: %v", runErr)
	}
	if jrnl != nil {
		logger.Debug("Journal %s: %d entries recorded", jrnl.Path(), jrnl.Appended())
	}

	saved := false
	if rejected {
		logger.Warn("Existing snapshot was rejected, leaving it untouched")
	} else {
		saved = saveVolume(ctx, store, vol)
	}
	if saved {
		if jrnl != nil {
			if err := jrnl.Checkpoint(); err != nil {
				logger.Warn("Journal checkpoint failed: %v", err)
			}
		}
	} else {
		fmt.Fprintln(stdout, "Failed To save.")
	}

	st := vol.Stats()
	logger.Debug("Volume: %d/%d blocks free, %d/%d entries used",
		st.FreeBlocks, st.TotalBlocks, st.UsedSlots, st.TotalSlots)

	return 0
}

// loadVolume reports rejected when a snapshot exists but cannot be used, so
// the caller does not save over it.
func loadVolume(ctx context.Context, store snapshot.Store, cfg *config.Config, opts storage.Options) (vol *storage.Volume, rejected bool) {
	geo := cfg.Geometry()
	if store == nil {
		return storage.NewVolume(geo, opts), false
	}

	data, err := store.Load(ctx)
	if errors.Is(err, snapshot.ErrNotExist) {
		logger.Info("No snapshot found, initialising fresh volume")
		return storage.NewVolume(geo, opts), false
	}
	if err != nil {
		logger.Warn("Snapshot unreadable, starting fresh: %v", err)
		return storage.NewVolume(geo, opts), true
	}

	vol, err = storage.LoadVolume(geo, opts, data)
	if err != nil {
		logger.Warn("Snapshot unreadable, starting fresh: %v", err)
		return storage.NewVolume(geo, opts), true
	}
	logger.Info("Loaded snapshot from %s backend (%d bytes)", cfg.Snapshot.Backend, len(data))
	return vol, false
}

// replayJournal re-applies commands left over from a run whose save failed.
func replayJournal(ctx context.Context, j *journal.Journal, vol *storage.Volume) {
	lines, err := j.Replay()
	if err != nil {
		logger.Warn("Journal replay failed: %v", err)
		return
	}
	if len(lines) == 0 {
		return
	}
	logger.Warn("Replaying %d journal entries from an unsaved run", len(lines))
	script.NewRunner(vol, io.Discard).Run(ctx, strings.NewReader(strings.Join(lines, "\n")))
}

func saveVolume(ctx context.Context, store snapshot.Store, vol *storage.Volume) bool {
	if store == nil {
		return false
	}
	data, err := vol.MarshalBinary()
	if err != nil {
		logger.Error("Failed to save snapshot: %v", err)
		return false
	}
	if err := store.Save(ctx, data); err != nil {
		logger.Error("Failed to save snapshot: %v", err)
		return false
	}
	logger.Info("Saved snapshot (%d bytes)", len(data))
	return true
}
