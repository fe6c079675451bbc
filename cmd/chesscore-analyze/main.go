// Command chesscore-analyze searches every position of a PGN game and caches
// the results in the analysis store.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
)

func main() {
	pgnPath := flag.String("pgn", "", "PGN file to analyze (default stdin)")
	depth := flag.Int("depth", 10, "search depth per position")
	movetime := flag.Duration("movetime", 0, "time limit per position, e.g. 500ms")
	hashMB := flag.Int("hash", engine.DefaultOptions().HashMB, "transposition table size in MB")
	cacheDir := flag.String("cache", "", "analysis cache directory (default: user data dir)")
	noCache := flag.Bool("nocache", false, "do not read or write the analysis cache")
	flag.Parse()

	var in io.Reader = os.Stdin
	if *pgnPath != "" {
		f, err := os.Open(*pgnPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		in = f
	}

	game, err := loadGame(in)
	if err != nil {
		log.Fatal(err)
	}

	var store *storage.AnalysisStore
	if !*noCache {
		store, err = storage.Open(*cacheDir)
		if err != nil {
			log.Fatal(err)
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := engine.DefaultOptions()
	opts.HashMB = *hashMB
	a := &analyzer{
		engine: engine.New(opts),
		store:  store,
		limits: engine.Limits{Depth: *depth, MoveTime: *movetime},
		out:    os.Stdout,
	}

	start := time.Now()
	stats, err := a.run(ctx, game)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%d positions, %d from cache, %s\n", stats.positions, stats.cached, time.Since(start).Round(time.Millisecond))
}
