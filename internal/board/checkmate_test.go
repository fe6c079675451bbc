package board

import "testing"

func TestGameEndDetection(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		checkmate bool
		stalemate bool
	}{
		// Back rank mate: the g7/h7 pawns block the king's escape.
		{"back rank mate", "R6k/6pp/8/8/8/8/8/K7 b - - 0 1", true, false},
		// The king can take the unprotected rook.
		{"king captures checker", "6Rk/8/8/8/8/8/8/K7 b - - 0 1", false, false},
		{"queen stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", false, true},
		{"pawn stalemate", "k7/P7/K7/8/8/8/8/8 b - - 0 1", false, true},
		{"smothered mate", "6rk/5Npp/8/8/8/8/8/6K1 b - - 0 1", true, false},
		{"adjacent rook check", "4k3/8/8/8/8/8/4r3/R3K2R w KQ - 0 1", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := mustParseFEN(t, tc.fen)
			if got := b.IsCheckmate(); got != tc.checkmate {
				t.Errorf("IsCheckmate() = %v, want %v\n%s", got, tc.checkmate, b)
			}
			if got := b.IsStalemate(); got != tc.stalemate {
				t.Errorf("IsStalemate() = %v, want %v\n%s", got, tc.stalemate, b)
			}
		})
	}
}

func TestDoubleCheckOnlyKingMoves(t *testing.T) {
	// Rook on e8 and bishop on b4 both check the king on e1.
	b := mustParseFEN(t, "4r1k1/8/8/8/1b6/8/8/4K2R w K - 0 1")
	if !b.Checkers().Several() {
		t.Fatalf("expected double check, checkers:\n%s", b.Checkers())
	}
	if b.CheckMask() != Empty {
		t.Errorf("check mask in double check = %x, want empty", uint64(b.CheckMask()))
	}

	var ml MoveList
	b.GenerateMoves(&ml)
	if ml.Len() == 0 {
		t.Fatal("expected king moves")
	}
	for _, m := range ml.Slice() {
		if m.Piece().Type() != King {
			t.Errorf("non-king move %v generated in double check", m)
		}
		if m.IsCastling() {
			t.Errorf("castling %v generated while in check", m)
		}
	}
}

func TestKingMovesFirst(t *testing.T) {
	b := mustParseFEN(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	var ml MoveList
	b.GenerateMoves(&ml)
	seenOther := false
	for _, m := range ml.Slice() {
		isKing := m.Piece().Type() == King
		if isKing && seenOther {
			t.Fatalf("king move %v generated after a non-king move", m)
		}
		if !isKing {
			seenOther = true
		}
	}
}
