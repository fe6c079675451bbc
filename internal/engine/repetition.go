package engine

import "github.com/hailam/chesscore/internal/board"

type repetitionEntry struct {
	move board.Move
	hash uint64
	// index of the latest entry reached by an irreversible move, at or
	// before this one
	boundary int
}

// RepetitionTable records the fingerprint of every position on the path
// from the game start to the current search node. Push and Pop must mirror
// Board.Apply and Board.Undo one for one.
type RepetitionTable struct {
	entries []repetitionEntry
}

// NewRepetitionTable creates a table holding the given root position.
func NewRepetitionTable(rootHash uint64) *RepetitionTable {
	r := &RepetitionTable{entries: make([]repetitionEntry, 0, 512)}
	r.Reset(rootHash)
	return r
}

// Reset discards the history and starts again from a single position.
func (r *RepetitionTable) Reset(rootHash uint64) {
	r.entries = append(r.entries[:0], repetitionEntry{hash: rootHash})
}

// Push records the position reached by playing m. hash is the fingerprint
// after the move.
func (r *RepetitionTable) Push(m board.Move, hash uint64) {
	boundary := r.entries[len(r.entries)-1].boundary
	if m.IsIrreversible() {
		boundary = len(r.entries)
	}
	r.entries = append(r.entries, repetitionEntry{move: m, hash: hash, boundary: boundary})
}

// Pop removes the most recent position. The root is never popped.
func (r *RepetitionTable) Pop() {
	if len(r.entries) > 1 {
		r.entries = r.entries[:len(r.entries)-1]
	}
}

// Len returns the number of recorded positions, root included.
func (r *RepetitionTable) Len() int {
	return len(r.entries)
}

// Last returns the move that produced the current position, or NoMove at
// the root.
func (r *RepetitionTable) Last() board.Move {
	return r.entries[len(r.entries)-1].move
}

// Count returns how many earlier positions since the last irreversible move
// share the current fingerprint. Only positions with the same side to move
// can match, so the scan steps back two plies at a time.
func (r *RepetitionTable) Count() int {
	top := len(r.entries) - 1
	cur := r.entries[top]
	n := 0
	for i := top - 2; i >= cur.boundary; i -= 2 {
		if r.entries[i].hash == cur.hash {
			n++
		}
	}
	return n
}

// IsDraw reports a threefold repetition: the current position occurred
// twice before within the reversible window.
func (r *RepetitionTable) IsDraw() bool {
	return r.Count() >= 2
}

