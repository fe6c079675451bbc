package engine

import (
	"unsafe"

	"github.com/hailam/chesscore/internal/board"
)

// Bound classifies the score stored in a transposition entry.
type Bound uint8

const (
	BoundNone  Bound = iota // empty slot
	BoundExact              // score is exact
	BoundLower              // failed high, score is a lower bound
	BoundUpper              // failed low, score is an upper bound
)

// String returns the bound name.
func (b Bound) String() string {
	switch b {
	case BoundExact:
		return "exact"
	case BoundLower:
		return "lower"
	case BoundUpper:
		return "upper"
	default:
		return "none"
	}
}

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key   uint64     // full fingerprint, checked on probe
	Move  board.Move // best move, NoMove if unknown
	Score int32
	Depth int16
	Bound Bound
}

// TranspositionTable caches search results keyed by position fingerprint.
// It is a fixed power-of-two array indexed by the low bits of the key with
// an always-replace policy: no buckets, no aging.
//
// A single table may be shared by several searches. Concurrent writers can
// clobber each other's slots; probes verify the full key and bound, so a
// torn or stale slot only costs a lookup.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	entrySize := uint64(unsafe.Sizeof(TTEntry{}))
	n := roundDownToPowerOf2(uint64(sizeMB) * 1024 * 1024 / entrySize)
	return &TranspositionTable{
		entries: make([]TTEntry, n),
		mask:    n - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe returns the entry stored for key, if any, regardless of depth.
func (tt *TranspositionTable) Probe(key uint64) (TTEntry, bool) {
	e := tt.entries[key&tt.mask]
	if e.Bound == BoundNone || e.Key != key {
		return TTEntry{}, false
	}
	return e, true
}

// Store writes an entry, unconditionally replacing whatever held the slot.
// Mate scores must already be converted with ScoreToTT.
func (tt *TranspositionTable) Store(key uint64, depth int, score int, bound Bound, move board.Move) {
	tt.entries[key&tt.mask] = TTEntry{
		Key:   key,
		Move:  move,
		Score: int32(score),
		Depth: int16(depth),
		Bound: bound,
	}
}

// Clear empties every slot.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() int {
	return len(tt.entries)
}

// HashFull returns the permille of the first thousand slots in use.
func (tt *TranspositionTable) HashFull() int {
	sample := min(1000, len(tt.entries))
	used := 0
	for i := 0; i < sample; i++ {
		if tt.entries[i].Bound != BoundNone {
			used++
		}
	}
	return used * 1000 / sample
}

// Cutoff applies a stored entry to the window (alpha, beta) of a node
// searched to depth at ply. Entries shallower than depth are ignored. An
// exact entry returns its score with done set. Bound entries only ever
// narrow the window: a lower bound can raise alpha and an upper bound can
// lower beta. If that closes the window, done is set and score is the
// stored bound.
func (e *TTEntry) Cutoff(depth, ply, alpha, beta int) (score, newAlpha, newBeta int, done bool) {
	if int(e.Depth) < depth {
		return 0, alpha, beta, false
	}
	s := ScoreFromTT(int(e.Score), ply)
	switch e.Bound {
	case BoundExact:
		return s, alpha, beta, true
	case BoundLower:
		alpha = max(alpha, s)
	case BoundUpper:
		beta = min(beta, s)
	}
	if alpha >= beta {
		return s, alpha, beta, true
	}
	return 0, alpha, beta, false
}

// ScoreFromTT converts a stored mate score, which counts plies from the
// stored node, back into a score relative to the root.
func ScoreFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// ScoreToTT converts a root-relative mate score into one relative to the
// node being stored.
func ScoreToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
