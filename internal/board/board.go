// Package board implements the chess position model: bitboards, precomputed
// attack tables, Zobrist fingerprints, apply/undo and legal move generation.
package board

import (
	"errors"
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// castlingMask[sq] is ANDed into the rights whenever a move starts or ends
// on sq, so a king or rook leaving home (or a rook captured at home) drops
// the matching flags.
var castlingMask = func() [64]CastlingRights {
	var m [64]CastlingRights
	for i := range m {
		m[i] = AllCastling
	}
	m[E1] &^= WhiteKingSideCastle | WhiteQueenSideCastle
	m[H1] &^= WhiteKingSideCastle
	m[A1] &^= WhiteQueenSideCastle
	m[E8] &^= BlackKingSideCastle | BlackQueenSideCastle
	m[H8] &^= BlackKingSideCastle
	m[A8] &^= BlackQueenSideCastle
	return m
}()

// castlingRook returns the rook's home and bridge squares for a castling
// move whose king lands on kingTo.
func castlingRook(kingTo Square) (from, to Square) {
	switch kingTo {
	case G1:
		return H1, F1
	case C1:
		return A1, D1
	case G8:
		return H8, F8
	default:
		return A8, D8
	}
}

// undoState is the per-ply diff needed to reverse Apply.
type undoState struct {
	hash     uint64
	castling CastlingRights
	epSquare Square
	halfMove int
}

// Board is a mutable chess position. It is changed in place by strictly
// nested Apply/Undo pairs and is not safe for concurrent use.
type Board struct {
	pieces   [2][6]Bitboard
	occupied [2]Bitboard

	side     Color
	castling CastlingRights
	epSquare Square // NoSquare unless an enemy pawn can capture
	halfMove int
	fullMove int
	hash     uint64

	// Derived for the side to move after every Apply/Undo.
	checkers     Bitboard
	checkMask    Bitboard
	pinned       Bitboard
	pinRays      [64]Bitboard
	enemyAttacks Bitboard

	ply     int
	history []undoState
}

// ErrInconsistent is returned by Validate when incremental state has drifted.
var ErrInconsistent = errors.New("board: inconsistent state")

func newEmptyBoard() *Board {
	return &Board{
		epSquare: NoSquare,
		fullMove: 1,
		history:  make([]undoState, 0, 256),
	}
}

// NewBoard returns the standard starting position.
func NewBoard() *Board {
	b, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return b
}

// Copy returns an independent deep copy of the board.
func (b *Board) Copy() *Board {
	c := *b
	c.history = make([]undoState, len(b.history), max(cap(b.history), 256))
	copy(c.history, b.history)
	return &c
}

// Pieces returns the bitboard of pieces of type pt and color c.
func (b *Board) Pieces(c Color, pt PieceType) Bitboard {
	return b.pieces[c][pt]
}

// Occupied returns all squares occupied by color c.
func (b *Board) Occupied(c Color) Bitboard {
	return b.occupied[c]
}

// AllOccupied returns all occupied squares.
func (b *Board) AllOccupied() Bitboard {
	return b.occupied[White] | b.occupied[Black]
}

// SideToMove returns the color to move.
func (b *Board) SideToMove() Color { return b.side }

// CastlingRights returns the current castling rights.
func (b *Board) CastlingRights() CastlingRights { return b.castling }

// EnPassant returns the en-passant target square, or NoSquare.
func (b *Board) EnPassant() Square { return b.epSquare }

// HalfMoveClock returns the number of plies since the last pawn move or capture.
func (b *Board) HalfMoveClock() int { return b.halfMove }

// FullMoveNumber returns the full move counter.
func (b *Board) FullMoveNumber() int { return b.fullMove }

// Hash returns the incrementally maintained fingerprint.
func (b *Board) Hash() uint64 { return b.hash }

// Ply returns the number of applied moves not yet undone.
func (b *Board) Ply() int { return b.ply }

// Checkers returns the enemy pieces giving check to the side to move.
func (b *Board) Checkers() Bitboard { return b.checkers }

// InCheck reports whether the side to move is in check.
func (b *Board) InCheck() bool { return b.checkers != 0 }

// CheckMask returns the squares that resolve the current check, Universe
// when not in check and Empty in double check.
func (b *Board) CheckMask() Bitboard { return b.checkMask }

// Pinned returns the pieces of the side to move pinned to their king.
func (b *Board) Pinned() Bitboard { return b.pinned }

// PinRay returns the squares a pinned piece on sq may move to, or Universe
// if the piece is not pinned.
func (b *Board) PinRay(sq Square) Bitboard {
	if b.pinned&SquareBB(sq) == 0 {
		return Universe
	}
	return b.pinRays[sq]
}

// KingSquare returns the king square of color c.
func (b *Board) KingSquare(c Color) Square {
	return b.pieces[c][King].LSB()
}

// PieceAt returns the piece on sq, or NoPiece.
func (b *Board) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)
	var c Color
	switch {
	case b.occupied[White]&bb != 0:
		c = White
	case b.occupied[Black]&bb != 0:
		c = Black
	default:
		return NoPiece
	}
	for pt := Pawn; pt <= King; pt++ {
		if b.pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

// pieceTypeAt returns the type of the piece of color c on sq.
func (b *Board) pieceTypeAt(c Color, sq Square) PieceType {
	bb := SquareBB(sq)
	for pt := Pawn; pt <= King; pt++ {
		if b.pieces[c][pt]&bb != 0 {
			return pt
		}
	}
	return NoPieceType
}

// put places a piece during setup. It does not touch the fingerprint.
func (b *Board) put(p Piece, sq Square) {
	b.pieces[p.Color()][p.Type()] |= SquareBB(sq)
	b.occupied[p.Color()] |= SquareBB(sq)
}

// Apply plays m, which must be legal in the current position.
func (b *Board) Apply(m Move) {
	if b.ply == len(b.history) {
		b.history = append(b.history, undoState{})
	}
	b.history[b.ply] = undoState{
		hash:     b.hash,
		castling: b.castling,
		epSquare: b.epSquare,
		halfMove: b.halfMove,
	}
	b.ply++

	us, them := b.side, b.side.Other()
	from, to := m.From(), m.To()
	piece := m.Piece()
	h := b.hash

	if captured := m.Captured(); captured != NoPiece {
		capSq := m.CaptureSquare()
		b.pieces[them][captured.Type()] ^= SquareBB(capSq)
		b.occupied[them] ^= SquareBB(capSq)
		h ^= pieceKey(captured, capSq)
	}

	fromTo := SquareBB(from) | SquareBB(to)
	b.pieces[us][piece.Type()] ^= fromTo
	b.occupied[us] ^= fromTo
	h ^= pieceKey(piece, from) ^ pieceKey(piece, to)

	if promo := m.Promotion(); promo != NoPieceType {
		b.pieces[us][Pawn] ^= SquareBB(to)
		b.pieces[us][promo] ^= SquareBB(to)
		h ^= pieceKey(piece, to) ^ pieceKey(NewPiece(promo, us), to)
	}

	if m.IsCastling() {
		rf, rt := castlingRook(to)
		rbb := SquareBB(rf) | SquareBB(rt)
		b.pieces[us][Rook] ^= rbb
		b.occupied[us] ^= rbb
		rook := NewPiece(Rook, us)
		h ^= pieceKey(rook, rf) ^ pieceKey(rook, rt)
	}

	h ^= zobristCastling[b.castling]
	b.castling &= castlingMask[from] & castlingMask[to]
	h ^= zobristCastling[b.castling]

	h ^= epKey(b.epSquare)
	b.epSquare = NoSquare
	if m.Flag() == FlagDoublePush {
		ep := Square((int(from) + int(to)) / 2)
		if pawnAttacks[us][ep]&b.pieces[them][Pawn] != 0 {
			b.epSquare = ep
			h ^= epKey(ep)
		}
	}

	if m.IsIrreversible() {
		b.halfMove = 0
	} else {
		b.halfMove++
	}
	if us == Black {
		b.fullMove++
	}

	b.side = them
	b.hash = h ^ zobristSideToMove
	b.updateMasks()
}

// Undo reverses m, which must be the most recently applied move.
func (b *Board) Undo(m Move) {
	b.ply--
	st := &b.history[b.ply]

	b.side = b.side.Other()
	us, them := b.side, b.side.Other()
	from, to := m.From(), m.To()
	piece := m.Piece()

	if m.IsCastling() {
		rf, rt := castlingRook(to)
		rbb := SquareBB(rf) | SquareBB(rt)
		b.pieces[us][Rook] ^= rbb
		b.occupied[us] ^= rbb
	}

	if promo := m.Promotion(); promo != NoPieceType {
		b.pieces[us][promo] ^= SquareBB(to)
		b.pieces[us][Pawn] ^= SquareBB(to)
	}

	fromTo := SquareBB(from) | SquareBB(to)
	b.pieces[us][piece.Type()] ^= fromTo
	b.occupied[us] ^= fromTo

	if captured := m.Captured(); captured != NoPiece {
		capSq := m.CaptureSquare()
		b.pieces[them][captured.Type()] ^= SquareBB(capSq)
		b.occupied[them] ^= SquareBB(capSq)
	}

	if us == Black {
		b.fullMove--
	}
	b.hash = st.hash
	b.castling = st.castling
	b.epSquare = st.epSquare
	b.halfMove = st.halfMove
	b.updateMasks()
}

// updateMasks recomputes checkers, the check mask, pins and the enemy
// attack map for the side to move.
func (b *Board) updateMasks() {
	us, them := b.side, b.side.Other()
	ksq := b.pieces[us][King].LSB()
	occ := b.occupied[White] | b.occupied[Black]

	for p := b.pinned; p != 0; {
		b.pinRays[p.PopLSB()] = 0
	}
	b.pinned = 0

	checkers := knightAttacks[ksq]&b.pieces[them][Knight] |
		pawnAttacks[us][ksq]&b.pieces[them][Pawn]

	// Enemy sliders that would see the king on an empty board either check
	// it, pin exactly one friendly piece, or are blocked.
	orth := b.pieces[them][Rook] | b.pieces[them][Queen]
	diag := b.pieces[them][Bishop] | b.pieces[them][Queen]
	snipers := RookAttacks(ksq, Empty)&orth | BishopAttacks(ksq, Empty)&diag
	for snipers != 0 {
		s := snipers.PopLSB()
		ray := betweenBB[ksq][s]
		blockers := ray & occ &^ SquareBB(s)
		switch {
		case blockers == 0:
			checkers |= SquareBB(s)
		case !blockers.Several() && blockers&b.occupied[us] != 0:
			b.pinned |= blockers
			b.pinRays[blockers.LSB()] = ray
		}
	}

	b.checkers = checkers
	switch {
	case checkers == 0:
		b.checkMask = Universe
	case checkers.Several():
		b.checkMask = Empty
	default:
		b.checkMask = betweenBB[ksq][checkers.LSB()]
	}
	b.enemyAttacks = b.attacksBy(them, occ&^SquareBB(ksq))
}

// attacksBy returns every square attacked by color c for the given occupancy.
func (b *Board) attacksBy(c Color, occ Bitboard) Bitboard {
	p := &b.pieces[c]
	var attacks Bitboard
	if c == White {
		attacks = (p[Pawn]<<9)&NotFileA | (p[Pawn]<<7)&NotFileH
	} else {
		attacks = (p[Pawn]>>7)&NotFileA | (p[Pawn]>>9)&NotFileH
	}
	for bb := p[Knight]; bb != 0; {
		attacks |= knightAttacks[bb.PopLSB()]
	}
	for bb := p[Bishop] | p[Queen]; bb != 0; {
		attacks |= BishopAttacks(bb.PopLSB(), occ)
	}
	for bb := p[Rook] | p[Queen]; bb != 0; {
		attacks |= RookAttacks(bb.PopLSB(), occ)
	}
	for bb := p[King]; bb != 0; {
		attacks |= kingAttacks[bb.PopLSB()]
	}
	return attacks
}

// AttackersTo returns the pieces of both colors that attack sq, using occ
// for slider blocking. Callers that remove pieces from occ must also mask
// the result with occ.
func (b *Board) AttackersTo(sq Square, occ Bitboard) Bitboard {
	knights := b.pieces[White][Knight] | b.pieces[Black][Knight]
	kings := b.pieces[White][King] | b.pieces[Black][King]
	diag := b.pieces[White][Bishop] | b.pieces[Black][Bishop] | b.pieces[White][Queen] | b.pieces[Black][Queen]
	orth := b.pieces[White][Rook] | b.pieces[Black][Rook] | b.pieces[White][Queen] | b.pieces[Black][Queen]
	return pawnAttacks[Black][sq]&b.pieces[White][Pawn] |
		pawnAttacks[White][sq]&b.pieces[Black][Pawn] |
		knightAttacks[sq]&knights |
		kingAttacks[sq]&kings |
		BishopAttacks(sq, occ)&diag |
		RookAttacks(sq, occ)&orth
}

// slidersAttack reports whether a bishop, rook or queen of color by sees sq
// through occupancy occ.
func (b *Board) slidersAttack(sq Square, by Color, occ Bitboard) bool {
	p := &b.pieces[by]
	return BishopAttacks(sq, occ)&(p[Bishop]|p[Queen]) != 0 ||
		RookAttacks(sq, occ)&(p[Rook]|p[Queen]) != 0
}

// IsInsufficientMaterial reports whether neither side can deliver mate:
// bare kings, a single minor piece, or bishops all on one square color.
func (b *Board) IsInsufficientMaterial() bool {
	for c := White; c <= Black; c++ {
		if b.pieces[c][Pawn]|b.pieces[c][Rook]|b.pieces[c][Queen] != 0 {
			return false
		}
	}
	knights := b.pieces[White][Knight] | b.pieces[Black][Knight]
	bishops := b.pieces[White][Bishop] | b.pieces[Black][Bishop]
	minors := (knights | bishops).PopCount()
	if minors <= 1 {
		return true
	}
	if knights == 0 && (bishops&LightSquares == 0 || bishops&DarkSquares == 0) {
		return true
	}
	return false
}

// Validate checks the structural invariants of the board and that every
// derived field matches a recomputation from the piece bitboards.
func (b *Board) Validate() error {
	var union [2]Bitboard
	var seen Bitboard
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := b.pieces[c][pt]
			if bb&seen != 0 {
				return fmt.Errorf("%w: overlapping piece bitboards at %s %s", ErrInconsistent, c, pt)
			}
			seen |= bb
			union[c] |= bb
		}
		if union[c] != b.occupied[c] {
			return fmt.Errorf("%w: %s occupancy does not match pieces", ErrInconsistent, c)
		}
		if b.pieces[c][King].PopCount() != 1 {
			return fmt.Errorf("%w: %s must have exactly one king", ErrInconsistent, c)
		}
	}
	if h := b.ComputeHash(); h != b.hash {
		return fmt.Errorf("%w: hash %016x, recomputed %016x", ErrInconsistent, b.hash, h)
	}
	if b.epSquare != NoSquare {
		if !b.enPassantPlausible(b.epSquare) {
			return fmt.Errorf("%w: en passant square %s has no pawn to capture", ErrInconsistent, b.epSquare)
		}
		if pawnAttacks[b.side.Other()][b.epSquare]&b.pieces[b.side][Pawn] == 0 {
			return fmt.Errorf("%w: en passant square %s cannot be captured", ErrInconsistent, b.epSquare)
		}
	}
	snapshot := *b
	snapshot.updateMasks()
	if snapshot.checkers != b.checkers || snapshot.checkMask != b.checkMask ||
		snapshot.pinned != b.pinned || snapshot.pinRays != b.pinRays ||
		snapshot.enemyAttacks != b.enemyAttacks {
		return fmt.Errorf("%w: derived masks are stale", ErrInconsistent)
	}
	return nil
}

// String draws the board from White's side, rank 8 first.
func (b *Board) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := b.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n")
	return sb.String()
}
