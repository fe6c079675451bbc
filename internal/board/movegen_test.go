package board

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/dylhunn/dragontoothmg"
	"github.com/google/go-cmp/cmp"
)

func moveStrings(ml *MoveList) []string {
	out := make([]string, 0, ml.Len())
	for _, m := range ml.Slice() {
		out = append(out, m.String())
	}
	sort.Strings(out)
	return out
}

func referenceMoves(fen string) []string {
	ref := dragontoothmg.ParseFen(fen)
	moves := ref.GenerateLegalMoves()
	out := make([]string, 0, len(moves))
	for i := range moves {
		out = append(out, moves[i].String())
	}
	sort.Strings(out)
	return out
}

// TestLegalMovesMatchReference plays random games and compares the legal
// move set of every position against an independent generator.
func TestLegalMovesMatchReference(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for game := 0; game < 30; game++ {
		b := mustParseFEN(t, walkPositions[game%len(walkPositions)])
		for step := 0; step < 80; step++ {
			var ml MoveList
			b.GenerateMoves(&ml)
			fen := b.FEN()
			if diff := cmp.Diff(referenceMoves(fen), moveStrings(&ml)); diff != "" {
				t.Fatalf("legal moves differ for %s (-reference +ours):\n%s", fen, diff)
			}
			if ml.Len() == 0 {
				break
			}
			b.Apply(ml.Get(rng.Intn(ml.Len())))
		}
	}
}

func TestGenerateCapturesSubset(t *testing.T) {
	for _, fen := range walkPositions {
		b := mustParseFEN(t, fen)
		var all, noisy MoveList
		b.GenerateMoves(&all)
		b.GenerateCaptures(&noisy)

		want := 0
		for _, m := range all.Slice() {
			if !m.IsQuiet() {
				want++
			}
		}
		if noisy.Len() != want {
			t.Errorf("%s: GenerateCaptures returned %d moves, want %d", fen, noisy.Len(), want)
		}
		for _, m := range noisy.Slice() {
			if m.IsQuiet() {
				t.Errorf("%s: quiet move %v in captures", fen, m)
			}
			if !all.Contains(m) {
				t.Errorf("%s: capture %v not in legal moves", fen, m)
			}
		}
	}
}

func TestMoveEncoding(t *testing.T) {
	m := NewMove(E7, F8, WhitePawn, BlackRook, Queen, FlagNormal)
	if m.From() != E7 || m.To() != F8 {
		t.Errorf("squares = %s%s, want e7f8", m.From(), m.To())
	}
	if m.Piece() != WhitePawn || m.Captured() != BlackRook || m.Promotion() != Queen {
		t.Errorf("fields = %v %v %v", m.Piece(), m.Captured(), m.Promotion())
	}
	if m.String() != "e7f8q" {
		t.Errorf("String() = %q, want e7f8q", m.String())
	}

	ep := NewMove(E5, D6, WhitePawn, BlackPawn, NoPieceType, FlagEnPassant)
	if ep.CaptureSquare() != D5 {
		t.Errorf("en passant capture square = %s, want d5", ep.CaptureSquare())
	}
	if ep.IsPromotion() || !ep.IsCapture() || !ep.IsIrreversible() {
		t.Errorf("en passant flags wrong for %v", ep)
	}

	quiet := NewMove(G1, F3, WhiteKnight, NoPiece, NoPieceType, FlagNormal)
	if !quiet.IsQuiet() || quiet.IsIrreversible() || quiet == NoMove {
		t.Errorf("quiet knight move flags wrong for %v", quiet)
	}
}

func TestEnPassantResolvesPawnCheck(t *testing.T) {
	// d7d5 gives check to the e4 king; exd6 e.p. removes the checker.
	b := mustParseFEN(t, "8/8/8/3pP3/4K3/8/8/7k w - d6 0 1")
	if !b.InCheck() {
		t.Fatal("expected white to be in check")
	}
	var ml MoveList
	b.GenerateMoves(&ml)
	found := false
	for _, m := range ml.Slice() {
		if m.IsEnPassant() {
			found = true
		}
	}
	if !found {
		t.Errorf("en passant capture of the checking pawn missing from %v", moveStrings(&ml))
	}
}
