package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrInvalidFEN is returned for malformed or impossible FEN strings.
var ErrInvalidFEN = errors.New("invalid FEN")

// ParseFEN parses a FEN string into a Board. The halfmove clock and
// fullmove number are optional. An en-passant square must sit behind a pawn
// of the side that just moved; one that no pawn can capture is dropped so
// that the fingerprint matches positions reached by play.
func ParseFEN(fen string) (*Board, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, fmt.Errorf("%w: need at least 4 fields, got %d", ErrInvalidFEN, len(parts))
	}

	b := newEmptyBoard()

	if err := parsePiecePlacement(b, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w":
		b.side = White
	case "b":
		b.side = Black
	default:
		return nil, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, parts[1])
	}

	if err := parseCastlingRights(b, parts[2]); err != nil {
		return nil, err
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("%w: en passant square %q", ErrInvalidFEN, parts[3])
		}
		if !b.enPassantPlausible(sq) {
			return nil, fmt.Errorf("%w: en passant square %s does not follow a double pawn push", ErrInvalidFEN, sq)
		}
		if pawnAttacks[b.side.Other()][sq]&b.pieces[b.side][Pawn] != 0 {
			b.epSquare = sq
		}
	}

	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil || hmc < 0 {
			return nil, fmt.Errorf("%w: half-move clock %q", ErrInvalidFEN, parts[4])
		}
		b.halfMove = hmc
	}
	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil || fmn < 1 {
			return nil, fmt.Errorf("%w: full-move number %q", ErrInvalidFEN, parts[5])
		}
		b.fullMove = fmn
	}

	for c := White; c <= Black; c++ {
		if b.pieces[c][King].PopCount() != 1 {
			return nil, fmt.Errorf("%w: %s must have exactly one king", ErrInvalidFEN, c)
		}
	}
	if (b.pieces[White][Pawn]|b.pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return nil, fmt.Errorf("%w: pawns cannot be on rank 1 or 8", ErrInvalidFEN)
	}

	b.hash = b.ComputeHash()
	b.updateMasks()

	// The side that just moved may not be left in check.
	them := b.side.Other()
	if b.attacksBy(b.side, b.AllOccupied())&b.pieces[them][King] != 0 {
		return nil, fmt.Errorf("%w: side not to move is in check", ErrInvalidFEN)
	}
	return b, nil
}

// enPassantPlausible reports whether sq is empty, lies on the rank a double
// push crosses and has the pushed enemy pawn right in front of it.
func (b *Board) enPassantPlausible(sq Square) bool {
	if sq.RelativeRank(b.side) != 5 || b.AllOccupied().IsSet(sq) {
		return false
	}
	victim := sq - 8
	if b.side == Black {
		victim = sq + 8
	}
	return b.pieces[b.side.Other()][Pawn].IsSet(victim)
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(b *Board, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: need 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0
		for _, c := range rankStr {
			if file > 7 {
				return fmt.Errorf("%w: too many squares in rank %d", ErrInvalidFEN, rank+1)
			}
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			piece := PieceFromChar(byte(c))
			if piece == NoPiece {
				return fmt.Errorf("%w: piece character %q", ErrInvalidFEN, c)
			}
			b.put(piece, NewSquare(file, rank))
			file++
		}
		if file != 8 {
			return fmt.Errorf("%w: rank %d has %d squares", ErrInvalidFEN, rank+1, file)
		}
	}
	return nil
}

// parseCastlingRights parses the castling field. Rights whose king or rook
// is not on its home square are discarded.
func parseCastlingRights(b *Board, castling string) error {
	if castling == "-" {
		return nil
	}
	for _, c := range castling {
		switch c {
		case 'K':
			b.castling |= WhiteKingSideCastle
		case 'Q':
			b.castling |= WhiteQueenSideCastle
		case 'k':
			b.castling |= BlackKingSideCastle
		case 'q':
			b.castling |= BlackQueenSideCastle
		default:
			return fmt.Errorf("%w: castling character %q", ErrInvalidFEN, c)
		}
	}
	for _, routes := range castleRoutes {
		for _, cs := range routes {
			c := White
			if cs.kingFrom == E8 {
				c = Black
			}
			if b.pieces[c][King]&SquareBB(cs.kingFrom) == 0 || b.pieces[c][Rook]&SquareBB(cs.rookFrom) == 0 {
				b.castling &^= cs.right
			}
		}
	}
	return nil
}

// FEN returns the FEN representation of the board.
func (b *Board) FEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := b.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	if b.side == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	sb.WriteByte(' ')
	sb.WriteString(b.castling.String())
	sb.WriteByte(' ')
	sb.WriteString(b.epSquare.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(b.halfMove))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(b.fullMove))
	return sb.String()
}
