package board

import (
	"math/bits"
	"strings"
)

// Bitboard represents a 64-bit board where each bit corresponds to a square.
// Bit 0 = A1, Bit 7 = H1, Bit 56 = A8, Bit 63 = H8 (Little-Endian Rank-File Mapping).
type Bitboard uint64

// File masks
const (
	FileA Bitboard = 0x0101010101010101
	FileB Bitboard = 0x0202020202020202
	FileC Bitboard = 0x0404040404040404
	FileD Bitboard = 0x0808080808080808
	FileE Bitboard = 0x1010101010101010
	FileF Bitboard = 0x2020202020202020
	FileG Bitboard = 0x4040404040404040
	FileH Bitboard = 0x8080808080808080
)

// Rank masks
const (
	Rank1 Bitboard = 0x00000000000000FF
	Rank2 Bitboard = 0x000000000000FF00
	Rank3 Bitboard = 0x0000000000FF0000
	Rank4 Bitboard = 0x00000000FF000000
	Rank5 Bitboard = 0x000000FF00000000
	Rank6 Bitboard = 0x0000FF0000000000
	Rank7 Bitboard = 0x00FF000000000000
	Rank8 Bitboard = 0xFF00000000000000
)

// Special masks
const (
	Empty    Bitboard = 0
	Universe Bitboard = 0xFFFFFFFFFFFFFFFF

	NotFileA Bitboard = ^FileA
	NotFileH Bitboard = ^FileH

	Edges Bitboard = FileA | FileH | Rank1 | Rank8

	LightSquares Bitboard = 0x55AA55AA55AA55AA
	DarkSquares  Bitboard = ^LightSquares
)

// FileMask returns the file mask for a given file (0-7).
var FileMask = [8]Bitboard{FileA, FileB, FileC, FileD, FileE, FileF, FileG, FileH}

// RankMask returns the rank mask for a given rank (0-7).
var RankMask = [8]Bitboard{Rank1, Rank2, Rank3, Rank4, Rank5, Rank6, Rank7, Rank8}

// SquareBB returns a bitboard with only the given square set.
func SquareBB(sq Square) Bitboard {
	return 1 << sq
}

// IsSet returns true if the bit at the given square is set.
func (b Bitboard) IsSet(sq Square) bool {
	return b&(1<<sq) != 0
}

// PopCount returns the number of set bits (population count).
func (b Bitboard) PopCount() int {
	return bits.OnesCount64(uint64(b))
}

// LSB returns the least significant bit (lowest square index).
func (b Bitboard) LSB() Square {
	if b == 0 {
		return NoSquare
	}
	return Square(bits.TrailingZeros64(uint64(b)))
}

// PopLSB removes and returns the least significant bit.
func (b *Bitboard) PopLSB() Square {
	sq := Square(bits.TrailingZeros64(uint64(*b)))
	*b &= *b - 1
	return sq
}

// Several reports whether more than one bit is set.
func (b Bitboard) Several() bool {
	return b&(b-1) != 0
}

// North shifts the bitboard one rank up (toward rank 8).
func (b Bitboard) North() Bitboard {
	return b << 8
}

// South shifts the bitboard one rank down (toward rank 1).
func (b Bitboard) South() Bitboard {
	return b >> 8
}

// East shifts the bitboard one file right (toward file h).
func (b Bitboard) East() Bitboard {
	return (b << 1) & NotFileA
}

// West shifts the bitboard one file left (toward file a).
func (b Bitboard) West() Bitboard {
	return (b >> 1) & NotFileH
}

// NorthFill fills all squares north of the set bits.
func (b Bitboard) NorthFill() Bitboard {
	b |= b << 8
	b |= b << 16
	b |= b << 32
	return b
}

// SouthFill fills all squares south of the set bits.
func (b Bitboard) SouthFill() Bitboard {
	b |= b >> 8
	b |= b >> 16
	b |= b >> 32
	return b
}

// FileFill fills the entire file(s) containing any set bit.
func (b Bitboard) FileFill() Bitboard {
	return b.NorthFill() | b.SouthFill()
}

// direction is one of the eight compass rays. guard removes the squares a
// shift by delta would wrap onto from the opposite edge.
type direction struct {
	delta int
	guard Bitboard
}

var (
	dirNorth     = direction{8, Universe}
	dirSouth     = direction{-8, Universe}
	dirEast      = direction{1, NotFileA}
	dirWest      = direction{-1, NotFileH}
	dirNorthEast = direction{9, NotFileA}
	dirNorthWest = direction{7, NotFileH}
	dirSouthEast = direction{-7, NotFileA}
	dirSouthWest = direction{-9, NotFileH}
)

var (
	rookDirections   = [4]direction{dirNorth, dirSouth, dirEast, dirWest}
	bishopDirections = [4]direction{dirNorthEast, dirNorthWest, dirSouthEast, dirSouthWest}
	allDirections    = [8]direction{dirNorth, dirSouth, dirEast, dirWest, dirNorthEast, dirNorthWest, dirSouthEast, dirSouthWest}
)

func shiftBy(b Bitboard, delta int) Bitboard {
	if delta > 0 {
		return b << uint(delta)
	}
	return b >> uint(-delta)
}

// step moves every bit one square along d.
func (d direction) step(b Bitboard) Bitboard {
	return shiftBy(b, d.delta) & d.guard
}

// occludedFill floods gen along d through the propagator set pro using
// Kogge-Stone doubling. The result includes gen and stops before the first
// square outside pro.
func (d direction) occludedFill(gen, pro Bitboard) Bitboard {
	pro &= d.guard
	gen |= pro & shiftBy(gen, d.delta)
	pro &= shiftBy(pro, d.delta)
	gen |= pro & shiftBy(gen, 2*d.delta)
	pro &= shiftBy(pro, 2*d.delta)
	gen |= pro & shiftBy(gen, 4*d.delta)
	return gen
}

// ray returns the squares attacked along d from the squares in gen given the
// blockers in occupied. The first blocker on each ray is included.
func (d direction) ray(gen, occupied Bitboard) Bitboard {
	return d.step(d.occludedFill(gen, ^occupied))
}

// String returns a visual representation of the bitboard.
func (b Bitboard) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteByte(byte('1' + rank))
		sb.WriteByte(' ')
		for file := 0; file < 8; file++ {
			if b.IsSet(NewSquare(file, rank)) {
				sb.WriteString("1 ")
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}
