package engine

import (
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func playOn(t *testing.T, b *board.Board, r *RepetitionTable, moves ...string) []board.Move {
	t.Helper()
	var played []board.Move
	for _, s := range moves {
		m, err := board.ParseMove(b, s)
		if err != nil {
			t.Fatalf("ParseMove(%s): %v", s, err)
		}
		b.Apply(m)
		r.Push(m, b.Hash())
		played = append(played, m)
	}
	return played
}

func TestRepetitionThreefold(t *testing.T) {
	b := board.NewBoard()
	r := NewRepetitionTable(b.Hash())
	cycle := []string{"b1c3", "b8c6", "c3b1", "c6b8"}

	playOn(t, b, r, cycle...)
	if r.IsDraw() {
		t.Fatal("second occurrence flagged as draw")
	}
	if r.Count() != 1 {
		t.Fatalf("Count() = %d after one cycle, want 1", r.Count())
	}

	played := playOn(t, b, r, cycle...)
	if !r.IsDraw() {
		t.Fatal("third occurrence not flagged as draw")
	}

	// Unwinding one move un-flags it.
	last := played[len(played)-1]
	r.Pop()
	b.Undo(last)
	if r.IsDraw() {
		t.Error("draw still flagged after unwinding")
	}

	// Replaying restores it.
	b.Apply(last)
	r.Push(last, b.Hash())
	if !r.IsDraw() {
		t.Error("draw not flagged after replaying")
	}
}

func TestRepetitionStopsAtIrreversibleMove(t *testing.T) {
	b := board.NewBoard()
	r := NewRepetitionTable(b.Hash())
	cycle := []string{"g1f3", "g8f6", "f3g1", "f6g8"}

	playOn(t, b, r, cycle...)
	playOn(t, b, r, "e2e4", "e7e5")
	playOn(t, b, r, cycle...)
	if got := r.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1: positions before the pawn moves can't repeat", got)
	}
	if r.IsDraw() {
		t.Error("repetition counted across an irreversible move")
	}
	if r.Len() != 11 {
		t.Errorf("Len() = %d, want 11", r.Len())
	}
}

func TestRepetitionResetAndRootPop(t *testing.T) {
	b := board.NewBoard()
	r := NewRepetitionTable(b.Hash())
	playOn(t, b, r, "e2e4")
	if r.Last().String() != "e2e4" {
		t.Errorf("Last() = %v, want e2e4", r.Last())
	}
	r.Pop()
	r.Pop()
	if r.Len() != 1 || r.Last() != board.NoMove {
		t.Errorf("root popped: Len() = %d, Last() = %v", r.Len(), r.Last())
	}
	r.Reset(42)
	if r.Len() != 1 || r.Count() != 0 {
		t.Errorf("after Reset: Len() = %d, Count() = %d", r.Len(), r.Count())
	}
}
