package engine

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/hailam/chesscore/internal/board"
)

// PawnEntry stores cached pawn structure evaluation.
type PawnEntry struct {
	Key     uint64
	MgScore int16 // Middlegame score
	EgScore int16 // Endgame score
}

// PawnTable is a hash table for caching pawn structure evaluations.
type PawnTable struct {
	entries []PawnEntry
	mask    uint64
}

// NewPawnTable creates a new pawn hash table with the given size in MB.
func NewPawnTable(sizeMB int) *PawnTable {
	// 12 bytes of payload padded to 16
	const entrySize = 16
	size := roundDownToPowerOf2(uint64(max(sizeMB, 1)) * 1024 * 1024 / entrySize)
	return &PawnTable{
		entries: make([]PawnEntry, size),
		mask:    size - 1,
	}
}

// pawnKey fingerprints the pawn placement of both sides. The board's
// Zobrist hash covers every piece, so the pawn cache keys on its own hash
// of the two pawn bitboards.
func pawnKey(b *board.Board) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(b.Pieces(board.White, board.Pawn)))
	binary.LittleEndian.PutUint64(buf[8:], uint64(b.Pieces(board.Black, board.Pawn)))
	return xxhash.Sum64(buf[:])
}

// Probe looks up a pawn structure evaluation in the hash table.
// Returns the middlegame and endgame scores if found.
func (pt *PawnTable) Probe(key uint64) (mg, eg int, found bool) {
	entry := &pt.entries[key&pt.mask]
	if entry.Key == key {
		return int(entry.MgScore), int(entry.EgScore), true
	}
	return 0, 0, false
}

// Store saves a pawn structure evaluation in the hash table.
func (pt *PawnTable) Store(key uint64, mg, eg int) {
	entry := &pt.entries[key&pt.mask]
	entry.Key = key
	entry.MgScore = int16(mg)
	entry.EgScore = int16(eg)
}

// Clear clears the pawn hash table.
func (pt *PawnTable) Clear() {
	clear(pt.entries)
}
