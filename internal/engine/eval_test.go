package engine

import (
	"slices"
	"strings"
	"testing"
	"unicode"

	"github.com/hailam/chesscore/internal/board"
)

// mirrorFEN flips the board vertically and swaps the colors, producing the
// same position seen from the other side.
func mirrorFEN(fen string) string {
	fields := strings.Fields(fen)
	ranks := strings.Split(fields[0], "/")
	slices.Reverse(ranks)
	fields[0] = strings.Map(swapRune, strings.Join(ranks, "/"))

	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	if fields[2] != "-" {
		var rights string
		for _, r := range "KQkq" {
			if strings.ContainsRune(fields[2], swapRune(r)) {
				rights += string(r)
			}
		}
		fields[2] = rights
	}
	if fields[3] != "-" {
		fields[3] = fields[3][:1] + string(rune('1'+'8'-fields[3][1]))
	}
	return strings.Join(fields, " ")
}

func swapRune(r rune) rune {
	if unicode.IsUpper(r) {
		return unicode.ToLower(r)
	}
	return unicode.ToUpper(r)
}

var evalPositions = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"rnbqkb1r/pp1p1ppp/4pn2/2p5/2PP4/2N5/PP2PPPP/R1BQKBNR w KQkq - 0 4",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
	"4k3/8/8/8/8/8/4P3/4K3 b - - 0 1",
}

func TestMirrorFEN(t *testing.T) {
	tests := []struct {
		fen, want string
	}{
		{
			"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w Kq e6 0 2",
			"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR b Qk e3 0 2",
		},
		{
			"rnbqkbnr/pppp1ppp/8/4p3/8/8/PPPPPPPP/RNBQKBNR w KQkq e6 0 2",
			"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 2",
		},
		{
			"4k3/8/8/8/8/8/4P3/4K3 b - - 0 1",
			"4k3/4p3/8/8/8/8/8/4K3 w - - 0 1",
		},
	}
	for _, tc := range tests {
		if got := mirrorFEN(tc.fen); got != tc.want {
			t.Errorf("mirrorFEN(%q) = %q, want %q", tc.fen, got, tc.want)
		}
	}
}

func TestEvaluateColorSymmetry(t *testing.T) {
	eval := NewClassicalEvaluator()
	for _, fen := range evalPositions {
		b, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		m, err := board.ParseFEN(mirrorFEN(fen))
		if err != nil {
			t.Fatalf("mirror of %q: %v", fen, err)
		}
		if got, want := eval.Evaluate(m), eval.Evaluate(b); got != want {
			t.Errorf("%s: mirrored eval %d, original %d", fen, got, want)
		}
	}
}

func TestEvaluateStartIsTempo(t *testing.T) {
	eval := NewClassicalEvaluator()
	if got := eval.Evaluate(board.NewBoard()); got != tempoBonus {
		t.Errorf("Evaluate(start) = %d, want %d", got, tempoBonus)
	}
}

func TestEvaluateMaterialAdvantage(t *testing.T) {
	eval := NewClassicalEvaluator()
	// White is a queen up.
	b, err := board.ParseFEN("rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if s := eval.Evaluate(b); s < 700 {
		t.Errorf("queen-up eval = %d, want > 700", s)
	}
	b, _ = board.ParseFEN("rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1")
	if s := eval.Evaluate(b); s > -700 {
		t.Errorf("queen-down eval for black = %d, want < -700", s)
	}
}

func TestPassedPawn(t *testing.T) {
	b, err := board.ParseFEN("4k3/8/8/1p6/P7/8/6P1/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		sq    board.Square
		color board.Color
		want  bool
	}{
		{board.A4, board.White, false},
		{board.G2, board.White, true},
		{board.B5, board.Black, false},
	}
	for _, tc := range tests {
		if got := isPassedPawn(b, tc.sq, tc.color); got != tc.want {
			t.Errorf("isPassedPawn(%v) = %v, want %v", tc.sq, got, tc.want)
		}
	}
}

func TestRooksOnFiles(t *testing.T) {
	// a1 is semi-open, b1 is blocked by its own pawn, c1 is open.
	b, err := board.ParseFEN("4k3/p7/8/8/8/8/1P6/RRR1K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	mg, eg := evaluateRooksOnFiles(b)
	if want := rookOpenFileMg + rookSemiOpenFileMg; mg != want {
		t.Errorf("mg = %d, want %d", mg, want)
	}
	if want := rookOpenFileEg + rookSemiOpenFileEg; eg != want {
		t.Errorf("eg = %d, want %d", eg, want)
	}
}

func TestPawnCache(t *testing.T) {
	e := NewClassicalEvaluator()
	b := board.NewBoard()
	key := pawnKey(b)

	if _, _, ok := e.pawns.Probe(key); ok {
		t.Fatal("empty cache reported a hit")
	}
	first := e.Evaluate(b)
	if _, _, ok := e.pawns.Probe(key); !ok {
		t.Fatal("pawn structure not cached after Evaluate")
	}
	if second := e.Evaluate(b); second != first {
		t.Errorf("cached eval %d differs from first %d", second, first)
	}

	e.Clear()
	if _, _, ok := e.pawns.Probe(key); ok {
		t.Error("cache hit after Clear")
	}
}

func TestPawnKeyTracksPawnMoves(t *testing.T) {
	b := board.NewBoard()
	start := pawnKey(b)

	knight, err := board.ParseMove(b, "g1f3")
	if err != nil {
		t.Fatal(err)
	}
	b.Apply(knight)
	if pawnKey(b) != start {
		t.Error("pawn key changed on a knight move")
	}
	b.Undo(knight)

	pawn, err := board.ParseMove(b, "e2e4")
	if err != nil {
		t.Fatal(err)
	}
	b.Apply(pawn)
	if pawnKey(b) == start {
		t.Error("pawn key unchanged after e2e4")
	}
	b.Undo(pawn)
	if pawnKey(b) != start {
		t.Error("pawn key not restored by Undo")
	}
}
