package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
)

func main() {
	fen := flag.String("fen", board.StartFEN, "FEN string (defaults to initial position)")
	depth := flag.Int("depth", 0, "Perft depth (required)")
	divide := flag.Bool("divide", false, "Print per-move node counts at root")
	parallel := flag.Int("parallel", 1, "Goroutines splitting the root moves (0 = one per CPU)")
	cpuProf := flag.String("cpuprofile", "", "Write CPU profile to file during run")
	flag.Parse()

	if *depth <= 0 {
		fmt.Fprintln(os.Stderr, "-depth must be > 0")
		os.Exit(2)
	}

	b, err := board.ParseFEN(*fen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ParseFEN error: %v\n", err)
		os.Exit(2)
	}

	if *cpuProf != "" {
		f, err := os.Create(*cpuProf)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	workers := *parallel
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	start := time.Now()
	entries, err := parallelDivide(context.Background(), b, *depth, workers)
	if err != nil {
		log.Fatal(err)
	}
	elapsed := time.Since(start)

	var total uint64
	for _, e := range entries {
		total += e.Nodes
	}

	if *divide {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Move.String() < entries[j].Move.String() })
		for _, e := range entries {
			fmt.Printf("%s: %d\n", e.Move, e.Nodes)
		}
		fmt.Printf("Total: %d\n", total)
		return
	}

	fmt.Printf("depth %d\tnodes %d\ttime %s\tnps %.0f\n", *depth, total, elapsed, float64(total)/elapsed.Seconds())
}

// parallelDivide computes the perft count below every root move, spreading
// the root moves over up to workers goroutines. Each goroutine runs on its
// own copy of b.
func parallelDivide(ctx context.Context, b *board.Board, depth, workers int) ([]board.DivideEntry, error) {
	var ml board.MoveList
	b.GenerateMoves(&ml)
	entries := make([]board.DivideEntry, ml.Len())

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, m := range ml.Slice() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			child := b.Copy()
			child.Apply(m)
			entries[i] = board.DivideEntry{Move: m, Nodes: board.Perft(child, depth-1)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
