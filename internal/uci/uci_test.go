package uci

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

// run feeds the script to a fresh handler and returns its output lines.
func run(t *testing.T, script string) []string {
	t.Helper()
	var out bytes.Buffer
	u := New(engine.New(engine.DefaultOptions()), strings.NewReader(script), &out)
	if err := u.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

// syncBuffer lets the test read output while the search goroutine writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func lastWithPrefix(lines []string, prefix string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(lines[i], prefix) {
			return lines[i]
		}
	}
	return ""
}

func TestHandshake(t *testing.T) {
	lines := run(t, "uci\nisready\n")
	if lines[0] != "id name ChessCore" {
		t.Errorf("first line = %q", lines[0])
	}
	if got := lines[len(lines)-2:]; !cmp.Equal(got, []string{"uciok", "readyok"}) {
		t.Errorf("tail = %q, want uciok then readyok", got)
	}
}

func TestGoDepthReportsBestMove(t *testing.T) {
	lines := run(t, "position fen 6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1\ngo depth 3\n")
	if got := lastWithPrefix(lines, "bestmove"); got != "bestmove a1a8" {
		t.Errorf("bestmove line = %q", got)
	}
	info := lastWithPrefix(lines, "info depth")
	if !strings.Contains(info, "score mate 1") || !strings.Contains(info, "pv a1a8") {
		t.Errorf("final info line = %q", info)
	}
}

func TestPositionWithMoves(t *testing.T) {
	lines := run(t, "position startpos moves e2e4 e7e5 g1f3\nd\n")
	want := "Fen: rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R b KQkq - 1 2"
	if got := lastWithPrefix(lines, "Fen:"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPositionRejectsIllegalMove(t *testing.T) {
	lines := run(t, "position startpos moves e2e4 e2e4\nd\n")
	if !strings.Contains(lastWithPrefix(lines, "info string"), "invalid move") {
		t.Errorf("no error reported: %q", lines)
	}
	// Moves before the bad one are dropped too.
	want := "Fen: " + board.StartFEN
	if got := lastWithPrefix(lines, "Fen:"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDisplayPrintsFENOnce(t *testing.T) {
	lines := run(t, "position startpos\nd\n")
	var fens int
	for _, l := range lines {
		if strings.Contains(strings.ToLower(l), "fen:") {
			fens++
		}
	}
	if fens != 1 {
		t.Errorf("FEN printed %d times: %q", fens, lines)
	}
	if got := lastWithPrefix(lines, "Key:"); got == "" {
		t.Errorf("no Key line: %q", lines)
	}
}

func TestPerftCommand(t *testing.T) {
	lines := run(t, "position startpos\nperft 3\n")
	if got := lastWithPrefix(lines, "Nodes:"); got != "Nodes: 8902" {
		t.Errorf("got %q", got)
	}
}

func TestSetOptionHash(t *testing.T) {
	lines := run(t, "setoption name Hash value 2\nsetoption name Hash value 0\nsetoption name Foo value 1\nisready\n")
	if !strings.Contains(strings.Join(lines, "\n"), `invalid Hash value "0"`) {
		t.Errorf("bad Hash value accepted: %q", lines)
	}
	if !strings.Contains(strings.Join(lines, "\n"), `unknown option "Foo"`) {
		t.Errorf("unknown option not reported: %q", lines)
	}
	if lines[len(lines)-1] != "readyok" {
		t.Errorf("last line = %q", lines[len(lines)-1])
	}
}

func TestParseGo(t *testing.T) {
	got := parseGo(strings.Fields("wtime 60000 btime 30000 winc 1000 binc 500 movestogo 20 depth 9 nodes 1000"))
	want := engine.Limits{
		Depth:     9,
		Nodes:     1000,
		Time:      [2]time.Duration{time.Minute, 30 * time.Second},
		Inc:       [2]time.Duration{time.Second, 500 * time.Millisecond},
		MovesToGo: 20,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseGo mismatch (-want +got):\n%s", diff)
	}
	if l := parseGo([]string{"infinite"}); !l.Infinite {
		t.Error("infinite not parsed")
	}
	if l := parseGo([]string{"depth"}); l.Depth != 0 {
		t.Errorf("dangling depth parsed as %d", l.Depth)
	}
}

func TestInfiniteWaitsForStop(t *testing.T) {
	pr, pw := io.Pipe()
	var out syncBuffer
	u := New(engine.New(engine.DefaultOptions()), pr, &out)
	done := make(chan error)
	go func() { done <- u.Run() }()

	io.WriteString(pw, "position startpos\ngo infinite\n")
	time.Sleep(100 * time.Millisecond)
	if strings.Contains(out.String(), "bestmove") {
		t.Fatal("bestmove sent before stop in infinite mode")
	}

	io.WriteString(pw, "stop\n")
	io.WriteString(pw, "quit\n")
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after quit")
	}
	pw.Close()

	line := lastWithPrefix(strings.Split(out.String(), "\n"), "bestmove")
	if line == "" || line == "bestmove 0000" {
		t.Fatalf("bestmove line = %q", line)
	}
	b := board.NewBoard()
	if _, err := board.ParseMove(b, strings.TrimPrefix(line, "bestmove ")); err != nil {
		t.Errorf("illegal bestmove: %v", err)
	}
}
