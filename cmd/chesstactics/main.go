package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/hailam/chesstactics/internal/board"
	"github.com/hailam/chesstactics/internal/config"
	"github.com/hailam/chesstactics/internal/position"
	"github.com/hailam/chesstactics/internal/review"
	"github.com/hailam/chesstactics/internal/shell"
	"github.com/hailam/chesstactics/internal/storage"
	"github.com/hailam/chesstactics/internal/tactics"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("chesstactics: ")

	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	// Start CPU profiling if requested (via flag or environment variable)
	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", cfg.CPUProfile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		stop()
		pprof.StopCPUProfile()
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	backend, err := position.NewBackend(cfg.Backend)
	if err != nil {
		return err
	}

	switch cfg.Command {
	case "review":
		return runReview(ctx, cfg, backend, out)
	case "show", "list", "delete":
		return runStore(cfg, out)
	case "shell":
		return shell.New(backend, in, out).Run()
	case "attackers", "defenders":
		return runInfluence(cfg, backend, out)
	case "hanging":
		return runHanging(cfg, backend, out)
	default:
		return fmt.Errorf("unknown command %q\n%w", cfg.Command, config.ErrUsage)
	}
}

func openStore(cfg config.Config) (*storage.Storage, error) {
	dir, err := cfg.DatabaseDir()
	if err != nil {
		return nil, fmt.Errorf("locating database: %w", err)
	}
	return storage.Open(dir)
}

func runReview(ctx context.Context, cfg config.Config, backend position.Backend, out io.Writer) error {
	if len(cfg.Args) != 1 {
		return errors.New("usage: review <file.pgn>")
	}
	f, err := os.Open(cfg.Args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	logger := log.New(io.Discard, "", 0)
	if cfg.Verbose {
		logger = log.New(os.Stderr, "review: ", log.Ltime)
	}
	rv, err := review.New(backend, review.WithWorkers(cfg.Workers), review.WithLogger(logger)).ReviewPGN(ctx, f)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Save(rv); err != nil {
		return err
	}
	return rv.WriteText(out)
}

func runStore(cfg config.Config, out io.Writer) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	switch cfg.Command {
	case "list":
		summaries, err := store.List()
		if err != nil {
			return err
		}
		for _, s := range summaries {
			fmt.Fprintf(out, "%s  %s  %s - %s  %d plies  hanging: white %d, black %d\n",
				s.ID, s.CreatedAt.Format("2006-01-02 15:04"), s.Tags["White"], s.Tags["Black"],
				s.Plies, s.HangingPlies.White, s.HangingPlies.Black)
		}
		return nil
	case "show":
		if len(cfg.Args) != 1 {
			return errors.New("usage: show <id>")
		}
		rv, err := store.Load(cfg.Args[0])
		if err != nil {
			return err
		}
		return rv.WriteText(out)
	default:
		if len(cfg.Args) != 1 {
			return errors.New("usage: delete <id>")
		}
		return store.Delete(cfg.Args[0])
	}
}

func runInfluence(cfg config.Config, backend position.Backend, out io.Writer) error {
	if len(cfg.Args) != 2 {
		return fmt.Errorf("usage: %s <fen> <square>", cfg.Command)
	}
	pos, err := backend.Parse(cfg.Args[0])
	if err != nil {
		return err
	}
	sq, err := board.ParseSquare(cfg.Args[1])
	if err != nil {
		return err
	}

	resolve := tactics.Attackers
	if cfg.Command == "defenders" {
		resolve = tactics.Defenders
	}
	for _, p := range resolve(pos, sq) {
		fmt.Fprintln(out, p)
	}
	return nil
}

func runHanging(cfg config.Config, backend position.Backend, out io.Writer) error {
	if len(cfg.Args) != 3 {
		return errors.New("usage: hanging <before fen> <after fen> <square>")
	}
	before, err := backend.Parse(cfg.Args[0])
	if err != nil {
		return err
	}
	after, err := backend.Parse(cfg.Args[1])
	if err != nil {
		return err
	}
	sq, err := board.ParseSquare(cfg.Args[2])
	if err != nil {
		return err
	}

	v := tactics.Evaluate(before, after, sq)
	fmt.Fprintf(out, "%v (%s)\n", v.Hanging, v.Rule)
	return nil
}
