package main

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hailam/chesscore/internal/board"
)

func TestParallelDivideMatchesSerial(t *testing.T) {
	const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	b, err := board.ParseFEN(kiwipete)
	if err != nil {
		t.Fatal(err)
	}
	before := b.FEN()

	want := board.Divide(b, 3)
	for _, workers := range []int{1, 4} {
		got, err := parallelDivide(context.Background(), b, 3, workers)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("workers=%d mismatch (-serial +parallel):\n%s", workers, diff)
		}
	}

	var total uint64
	for _, e := range want {
		total += e.Nodes
	}
	if total != 97862 {
		t.Errorf("total = %d, want 97862", total)
	}
	if b.FEN() != before {
		t.Errorf("board changed: %s", b.FEN())
	}
}

func TestParallelDivideCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := parallelDivide(ctx, board.NewBoard(), 3, 2); err == nil {
		t.Error("cancelled divide returned no error")
	}
}
