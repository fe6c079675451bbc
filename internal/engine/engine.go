package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// ErrInvalidMove is returned when a move is not legal in the current position.
var ErrInvalidMove = errors.New("invalid move")

// ErrNoHistory is returned by Undo when no move has been played.
var ErrNoHistory = errors.New("no move to undo")

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// Result is the outcome of a search.
type Result struct {
	Move  board.Move // NoMove only when the side to move has no legal move
	Score int
	Depth int // deepest completed iteration
	Nodes uint64
	PV    []board.Move
	Time  time.Duration
}

// Options configures an Engine.
type Options struct {
	HashMB    int       // transposition table size
	Evaluator Evaluator // nil selects the classical evaluator
}

// DefaultOptions returns the options used by the binaries.
func DefaultOptions() Options {
	return Options{HashMB: 16}
}

// Engine owns a game: the current board, the moves played to reach it and
// the search state carried between moves. It is not safe for concurrent use
// except for Stop, which may be called while Search runs.
type Engine struct {
	board    *board.Board
	played   []board.Move
	reps     *RepetitionTable
	tt       *TranspositionTable
	eval     Evaluator
	searcher *Searcher

	// Callbacks
	OnInfo func(SearchInfo)
}

// New creates an engine set to the starting position.
func New(opts Options) *Engine {
	if opts.HashMB <= 0 {
		opts.HashMB = DefaultOptions().HashMB
	}
	if opts.Evaluator == nil {
		opts.Evaluator = NewClassicalEvaluator()
	}
	tt := NewTranspositionTable(opts.HashMB)
	b := board.NewBoard()
	return &Engine{
		board:    b,
		reps:     NewRepetitionTable(b.Hash()),
		tt:       tt,
		eval:     opts.Evaluator,
		searcher: NewSearcher(tt, opts.Evaluator),
	}
}

// SetPosition replaces the game with the position described by fen.
func (e *Engine) SetPosition(fen string) error {
	b, err := board.ParseFEN(fen)
	if err != nil {
		return fmt.Errorf("set position: %w", err)
	}
	e.board = b
	e.played = e.played[:0]
	e.reps.Reset(b.Hash())
	return nil
}

// Board returns a copy of the current position.
func (e *Engine) Board() *board.Board {
	return e.board.Copy()
}

// FEN returns the current position in FEN.
func (e *Engine) FEN() string {
	return e.board.FEN()
}

// Moves returns the moves played since the last SetPosition.
func (e *Engine) Moves() []board.Move {
	return append([]board.Move(nil), e.played...)
}

// Play applies m if it is legal. Otherwise the position is left untouched
// and the error wraps ErrInvalidMove.
func (e *Engine) Play(m board.Move) error {
	var legal board.MoveList
	e.board.GenerateMoves(&legal)
	if !legal.Contains(m) {
		return fmt.Errorf("%w: %v", ErrInvalidMove, m)
	}
	e.play(m)
	return nil
}

// PlayUCI parses a coordinate-notation move such as "e2e4" or "e7e8q" and
// plays it.
func (e *Engine) PlayUCI(s string) error {
	m, err := board.ParseMove(e.board, s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	e.play(m)
	return nil
}

func (e *Engine) play(m board.Move) {
	e.board.Apply(m)
	e.reps.Push(m, e.board.Hash())
	e.played = append(e.played, m)
}

// Undo takes back the last played move.
func (e *Engine) Undo() error {
	if len(e.played) == 0 {
		return ErrNoHistory
	}
	m := e.played[len(e.played)-1]
	e.played = e.played[:len(e.played)-1]
	e.reps.Pop()
	e.board.Undo(m)
	return nil
}

// IsDraw reports a draw by repetition, the fifty-move rule or insufficient
// material in the current position.
func (e *Engine) IsDraw() bool {
	return e.board.HalfMoveClock() >= 100 || e.board.IsInsufficientMaterial() || e.reps.IsDraw()
}

// Search finds the best move for the current position. Cancelling ctx or
// calling Stop ends the search early; the result is then taken from the
// last completed depth.
func (e *Engine) Search(ctx context.Context, limits Limits) Result {
	return e.searcher.Search(ctx, e.board, e.reps, limits, e.OnInfo)
}

// Stop stops the search currently running. It is ignored when no search
// is running; see Searcher.Stop.
func (e *Engine) Stop() {
	e.searcher.Stop()
}

// SetHashSize reallocates the transposition table, discarding its contents.
func (e *Engine) SetHashSize(mb int) {
	e.tt = NewTranspositionTable(mb)
	e.searcher.tt = e.tt
}

// Clear clears the transposition table and other caches.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.searcher.ClearOrderer()
	if c, ok := e.eval.(interface{ Clear() }); ok {
		c.Clear()
	}
}

// Perft counts leaf nodes of the current position to depth.
func (e *Engine) Perft(depth int) uint64 {
	return board.Perft(e.board, depth)
}

// Evaluate returns the static evaluation of the current position.
func (e *Engine) Evaluate() int {
	return e.eval.Evaluate(e.board)
}

// ScoreString formats a score the way the UCI "info score" field expects:
// "cp 35", or "mate 3" / "mate -2" counted in moves.
func ScoreString(score int) string {
	switch {
	case score > MateScore-MaxPly:
		return "mate " + strconv.Itoa((MateScore-score+1)/2)
	case score < -MateScore+MaxPly:
		return "mate -" + strconv.Itoa((MateScore+score)/2)
	}
	return "cp " + strconv.Itoa(score)
}
