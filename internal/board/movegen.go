package board

// genKind selects which legal moves a generation pass emits.
type genKind uint8

const (
	genAll   genKind = iota
	genNoisy         // captures and promotions
)

var promotionPieces = [4]PieceType{Queen, Rook, Bishop, Knight}

// castleRoute describes one castling option for a king on its home square.
type castleRoute struct {
	right    CastlingRights
	kingFrom Square
	kingTo   Square
	rookFrom Square
}

var castleRoutes = [2][2]castleRoute{
	White: {
		{WhiteKingSideCastle, E1, G1, H1},
		{WhiteQueenSideCastle, E1, C1, A1},
	},
	Black: {
		{BlackKingSideCastle, E8, G8, H8},
		{BlackQueenSideCastle, E8, C8, A8},
	},
}

// GenerateMoves fills ml with every legal move in the position. King moves
// are emitted first. ml is reset before use.
func (b *Board) GenerateMoves(ml *MoveList) {
	ml.Clear()
	b.generate(ml, genAll)
}

// GenerateCaptures fills ml with the legal captures and promotions.
func (b *Board) GenerateCaptures(ml *MoveList) {
	ml.Clear()
	b.generate(ml, genNoisy)
}

// HasLegalMoves reports whether the side to move has any legal move.
func (b *Board) HasLegalMoves() bool {
	var ml MoveList
	b.generate(&ml, genAll)
	return ml.Len() > 0
}

// IsCheckmate returns true if the side to move is checkmated.
func (b *Board) IsCheckmate() bool {
	return b.InCheck() && !b.HasLegalMoves()
}

// IsStalemate returns true if the side to move has no legal moves but is not in check.
func (b *Board) IsStalemate() bool {
	return !b.InCheck() && !b.HasLegalMoves()
}

func (b *Board) generate(ml *MoveList, kind genKind) {
	us, them := b.side, b.side.Other()
	own := b.occupied[us]
	enemy := b.occupied[them]
	occ := own | enemy

	targets := ^own
	if kind == genNoisy {
		targets = enemy
	}

	ksq := b.KingSquare(us)
	king := NewPiece(King, us)
	for dst := kingAttacks[ksq] & targets &^ b.enemyAttacks; dst != 0; {
		to := dst.PopLSB()
		ml.Add(NewMove(ksq, to, king, b.capturedAt(them, to), NoPieceType, FlagNormal))
	}

	// Only the king can answer a double check.
	if b.checkers.Several() {
		return
	}
	if kind == genAll && b.checkers == 0 {
		b.genCastling(ml, ksq)
	}

	b.genPawns(ml, kind)

	mask := targets & b.checkMask

	// A pinned knight can never stay on its pin ray.
	knight := NewPiece(Knight, us)
	for bb := b.pieces[us][Knight] &^ b.pinned; bb != 0; {
		from := bb.PopLSB()
		b.addMoves(ml, from, knight, knightAttacks[from]&mask)
	}

	bishop := NewPiece(Bishop, us)
	for bb := b.pieces[us][Bishop]; bb != 0; {
		from := bb.PopLSB()
		b.addMoves(ml, from, bishop, BishopAttacks(from, occ)&mask&b.PinRay(from))
	}

	rook := NewPiece(Rook, us)
	for bb := b.pieces[us][Rook]; bb != 0; {
		from := bb.PopLSB()
		b.addMoves(ml, from, rook, RookAttacks(from, occ)&mask&b.PinRay(from))
	}

	queen := NewPiece(Queen, us)
	for bb := b.pieces[us][Queen]; bb != 0; {
		from := bb.PopLSB()
		b.addMoves(ml, from, queen, QueenAttacks(from, occ)&mask&b.PinRay(from))
	}
}

// capturedAt returns the piece of color c on sq, or NoPiece if sq is not
// occupied by c.
func (b *Board) capturedAt(c Color, sq Square) Piece {
	if b.occupied[c]&SquareBB(sq) == 0 {
		return NoPiece
	}
	return NewPiece(b.pieceTypeAt(c, sq), c)
}

func (b *Board) addMoves(ml *MoveList, from Square, piece Piece, dst Bitboard) {
	them := b.side.Other()
	for dst != 0 {
		to := dst.PopLSB()
		ml.Add(NewMove(from, to, piece, b.capturedAt(them, to), NoPieceType, FlagNormal))
	}
}

// genCastling emits castling moves. The caller guarantees the king is not
// in check, so only the path and destination need to be safe.
func (b *Board) genCastling(ml *MoveList, ksq Square) {
	us := b.side
	occ := b.AllOccupied()
	for _, cs := range castleRoutes[us] {
		if b.castling&cs.right == 0 || ksq != cs.kingFrom {
			continue
		}
		if b.pieces[us][Rook]&SquareBB(cs.rookFrom) == 0 {
			continue
		}
		if Between(ksq, cs.rookFrom)&^SquareBB(cs.rookFrom)&occ != 0 {
			continue
		}
		if Between(ksq, cs.kingTo)&b.enemyAttacks != 0 {
			continue
		}
		ml.Add(NewMove(ksq, cs.kingTo, NewPiece(King, us), NoPiece, NoPieceType, FlagCastling))
	}
}

func (b *Board) genPawns(ml *MoveList, kind genKind) {
	us, them := b.side, b.side.Other()
	pawn := NewPiece(Pawn, us)
	occ := b.AllOccupied()
	enemy := b.occupied[them]

	startRank, lastRank := Rank2, Rank8
	if us == Black {
		startRank, lastRank = Rank7, Rank1
	}

	for bb := b.pieces[us][Pawn]; bb != 0; {
		from := bb.PopLSB()
		allowed := b.checkMask & b.PinRay(from)

		for caps := pawnAttacks[us][from] & enemy & allowed; caps != 0; {
			to := caps.PopLSB()
			b.addPawnMove(ml, from, to, pawn, b.capturedAt(them, to), lastRank)
		}

		if push := pawnPushes[us][from] &^ occ; push != 0 {
			to := push.LSB()
			if push&allowed != 0 && (kind == genAll || push&lastRank != 0) {
				b.addPawnMove(ml, from, to, pawn, NoPiece, lastRank)
			}
			if kind == genAll && SquareBB(from)&startRank != 0 {
				if dbl := pawnPushes[us][to] &^ occ & allowed; dbl != 0 {
					ml.Add(NewMove(from, dbl.LSB(), pawn, NoPiece, NoPieceType, FlagDoublePush))
				}
			}
		}

		if b.epSquare != NoSquare && pawnAttacks[us][from]&SquareBB(b.epSquare) != 0 && b.enPassantLegal(from) {
			ml.Add(NewMove(from, b.epSquare, pawn, NewPiece(Pawn, them), NoPieceType, FlagEnPassant))
		}
	}
}

func (b *Board) addPawnMove(ml *MoveList, from, to Square, pawn, captured Piece, lastRank Bitboard) {
	if SquareBB(to)&lastRank == 0 {
		ml.Add(NewMove(from, to, pawn, captured, NoPieceType, FlagNormal))
		return
	}
	for _, promo := range promotionPieces {
		ml.Add(NewMove(from, to, pawn, captured, promo, FlagNormal))
	}
}

// enPassantLegal simulates the capture by lifting both pawns and checks for
// a slider revealed on the king. It also requires the capture to resolve
// any existing check, either by taking the checking pawn or by blocking.
func (b *Board) enPassantLegal(from Square) bool {
	us, them := b.side, b.side.Other()
	to := b.epSquare
	victim := NewSquare(to.File(), from.Rank())
	if b.checkMask&(SquareBB(to)|SquareBB(victim)) == 0 {
		return false
	}
	occ := b.AllOccupied() ^ SquareBB(from) ^ SquareBB(victim) | SquareBB(to)
	return !b.slidersAttack(b.KingSquare(us), them, occ)
}
