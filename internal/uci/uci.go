// Package uci drives an engine.Engine over the Universal Chess Interface
// line protocol.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

const (
	defaultHashMB = 16
	maxHashMB     = 4096
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine *engine.Engine
	in     io.Reader

	outMu sync.Mutex
	out   io.Writer

	// Search state
	cancel     context.CancelFunc
	searchDone chan struct{}
}

// New creates a UCI handler reading commands from in and writing replies
// to out.
func New(eng *engine.Engine, in io.Reader, out io.Writer) *UCI {
	return &UCI{engine: eng, in: in, out: out}
}

// send writes one protocol line. The search goroutine and the command loop
// both call it.
func (u *UCI) send(format string, args ...any) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintf(u.out, format+"\n", args...)
}

// Run reads commands until "quit" or end of input. At end of input a
// running search is allowed to finish; "quit" stops it.
func (u *UCI) Run() error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.send("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.handleDisplay()
		case "perft":
			u.handlePerft(args)
		default:
			u.send("info string unknown command: %s", cmd)
		}
	}

	u.waitSearch()
	return scanner.Err()
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.send("id name ChessCore")
	u.send("id author ChessCore Team")
	u.send("")
	u.send("option name Hash type spin default %d min 1 max %d", defaultHashMB, maxHashMB)
	u.send("uciok")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.Clear()
	if err := u.engine.SetPosition(board.StartFEN); err != nil {
		log.Printf("uci: reset position: %v", err)
	}
}

// handlePosition parses and sets up a position. If any listed move is
// illegal the engine is left at the bare FEN.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}
	u.handleStop()

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var fen string
	switch args[0] {
	case "startpos":
		fen = board.StartFEN
	case "fen":
		fen = strings.Join(args[1:movesAt], " ")
	default:
		u.send("info string invalid position command")
		return
	}

	if err := u.engine.SetPosition(fen); err != nil {
		u.send("info string %v", err)
		return
	}

	if movesAt < len(args) {
		for _, s := range args[movesAt+1:] {
			if err := u.engine.PlayUCI(s); err != nil {
				u.send("info string %v", err)
				if err := u.engine.SetPosition(fen); err != nil {
					log.Printf("uci: reset position: %v", err)
				}
				return
			}
		}
	}
}

// parseGo converts "go" arguments to search limits.
func parseGo(args []string) engine.Limits {
	var limits engine.Limits

	next := func(i *int) int {
		if *i+1 >= len(args) {
			return 0
		}
		*i++
		n, _ := strconv.Atoi(args[*i])
		return n
	}
	ms := func(i *int) time.Duration {
		return time.Duration(next(i)) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			limits.Depth = next(&i)
		case "nodes":
			limits.Nodes = uint64(max(next(&i), 0))
		case "movetime":
			limits.MoveTime = ms(&i)
		case "wtime":
			limits.Time[board.White] = ms(&i)
		case "btime":
			limits.Time[board.Black] = ms(&i)
		case "winc":
			limits.Inc[board.White] = ms(&i)
		case "binc":
			limits.Inc[board.Black] = ms(&i)
		case "movestogo":
			limits.MovesToGo = next(&i)
		case "infinite":
			limits.Infinite = true
		}
	}
	return limits
}

// handleGo starts a search in the background. The best move is reported
// when it finishes; with "go infinite" only after "stop".
func (u *UCI) handleGo(args []string) {
	u.handleStop()
	limits := parseGo(args)

	u.engine.OnInfo = u.sendInfo

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	u.cancel = cancel
	u.searchDone = done

	go func() {
		defer close(done)

		res := u.engine.Search(ctx, limits)
		if limits.Infinite {
			<-ctx.Done()
		}
		u.send("bestmove %s", res.Move)
	}()
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		"score " + engine.ScoreString(info.Score),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	}

	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if len(info.PV) > 0 {
		pv := make([]string, len(info.PV))
		for i, m := range info.PV {
			pv[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(pv, " "))
	}

	u.send("info %s", strings.Join(parts, " "))
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.cancel == nil {
		return
	}
	u.cancel()
	u.waitSearch()
}

func (u *UCI) waitSearch() {
	if u.searchDone == nil {
		return
	}
	<-u.searchDone
	if u.cancel != nil {
		u.cancel()
	}
	u.cancel = nil
	u.searchDone = nil
}

// handleSetOption processes "setoption name <name> value <value>".
func (u *UCI) handleSetOption(args []string) {
	var name, value []string
	var target *[]string
	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if target != nil {
				*target = append(*target, arg)
			}
		}
	}

	switch strings.ToLower(strings.Join(name, " ")) {
	case "hash":
		mb, err := strconv.Atoi(strings.Join(value, " "))
		if err != nil || mb < 1 || mb > maxHashMB {
			u.send("info string invalid Hash value %q", strings.Join(value, " "))
			return
		}
		u.handleStop()
		u.engine.SetHashSize(mb)
	default:
		u.send("info string unknown option %q", strings.Join(name, " "))
	}
}

// handleDisplay prints the board, its FEN and its hash.
func (u *UCI) handleDisplay() {
	u.handleStop()
	b := u.engine.Board()
	u.send("%s", b)
	u.send("Fen: %s", b.FEN())
	u.send("Key: %016X", b.Hash())
}

// handlePerft runs a perft test.
func (u *UCI) handlePerft(args []string) {
	u.handleStop()
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d >= 0 {
			depth = d
		}
	}

	start := time.Now()
	nodes := u.engine.Perft(depth)
	elapsed := time.Since(start)

	u.send("Nodes: %d", nodes)
	u.send("Time: %v", elapsed)
	if elapsed > 0 {
		u.send("NPS: %.0f", float64(nodes)/elapsed.Seconds())
	}
}
