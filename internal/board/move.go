package board

import "fmt"

// Move encodes a chess move in 32 bits:
// bits 0-5:   from square
// bits 6-11:  to square
// bits 12-15: moving piece
// bits 16-19: captured piece (NoPiece when quiet)
// bits 20-22: promotion piece type (0 when none)
// bits 23-24: flag (normal, double push, castling, en passant)
//
// Moves are plain values: two moves are equal when every field is equal.
type Move uint32

// MoveFlag distinguishes the special move kinds.
type MoveFlag uint8

const (
	FlagNormal MoveFlag = iota
	FlagDoublePush
	FlagCastling
	FlagEnPassant
)

// NoMove represents an invalid or null move.
const NoMove Move = 0

// MaxMoves bounds the number of legal moves in any position.
const MaxMoves = 256

// NewMove packs a move. promo is NoPieceType for non-promotions.
func NewMove(from, to Square, piece, captured Piece, promo PieceType, flag MoveFlag) Move {
	var p Move
	if promo != NoPieceType {
		p = Move(promo)
	}
	return Move(from) | Move(to)<<6 | Move(piece)<<12 | Move(captured)<<16 | p<<20 | Move(flag)<<23
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Piece returns the moving piece.
func (m Move) Piece() Piece {
	return Piece((m >> 12) & 0xF)
}

// Captured returns the captured piece, or NoPiece.
func (m Move) Captured() Piece {
	return Piece((m >> 16) & 0xF)
}

// Promotion returns the promotion piece type, or NoPieceType.
func (m Move) Promotion() PieceType {
	p := PieceType((m >> 20) & 0x7)
	if p == 0 {
		return NoPieceType
	}
	return p
}

// Flag returns the move flag.
func (m Move) Flag() MoveFlag {
	return MoveFlag((m >> 23) & 0x3)
}

// IsCapture returns true if this move captures a piece.
func (m Move) IsCapture() bool {
	return m.Captured() != NoPiece
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	return (m>>20)&0x7 != 0
}

// IsQuiet returns true if this is neither a capture nor a promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// IsCastling returns true if this is a castling move.
func (m Move) IsCastling() bool {
	return m.Flag() == FlagCastling
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag() == FlagEnPassant
}

// IsIrreversible reports whether the move resets repetition history.
func (m Move) IsIrreversible() bool {
	return m.IsCapture() || m.Piece().Type() == Pawn
}

// CaptureSquare returns the square of the captured piece. It differs from
// To only for en passant, where the victim sits beside the origin.
func (m Move) CaptureSquare() Square {
	if m.IsEnPassant() {
		return NewSquare(m.To().File(), m.From().Rank())
	}
	return m.To()
}

// String returns the UCI format of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(m.Promotion().Char())
	}
	return s
}

// ParseMove resolves a UCI format move string against the legal moves of b.
func ParseMove(b *Board, s string) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return NoMove, fmt.Errorf("invalid move string: %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}
	promo := NoPieceType
	if len(s) == 5 {
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
	}

	var ml MoveList
	b.GenerateMoves(&ml)
	for _, m := range ml.Slice() {
		if m.From() == from && m.To() == to && m.Promotion() == promo {
			return m, nil
		}
	}
	return NoMove, fmt.Errorf("illegal move: %s", s)
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [MaxMoves]Move
	count int
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice backed by the list.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}
