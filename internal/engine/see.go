package engine

import "github.com/hailam/chesscore/internal/board"

// SEE (Static Exchange Evaluation) estimates the result of the capture
// sequence started by m on its destination square, from the mover's point
// of view. Both sides recapture with their least valuable attacker and
// either side may stop when continuing would lose material. Pins are
// ignored; x-ray attackers behind a recapturing piece join the exchange.
func SEE(b *board.Board, m board.Move) int {
	from, to := m.From(), m.To()
	side := m.Piece().Color()

	var gain [32]int
	onSquare := board.PieceValue[m.Piece().Type()]
	if m.Captured() != board.NoPiece {
		gain[0] = board.PieceValue[m.Captured().Type()]
	}
	if m.IsPromotion() {
		gain[0] += board.PieceValue[m.Promotion()] - board.PieceValue[board.Pawn]
		onSquare = board.PieceValue[m.Promotion()]
	}

	occ := b.AllOccupied() &^ board.SquareBB(from)
	if m.IsEnPassant() {
		occ &^= board.SquareBB(m.CaptureSquare())
	}
	attackers := b.AttackersTo(to, occ) & occ

	d := 0
	for {
		side = side.Other()
		sq, pt, ok := leastValuableAttacker(b, attackers&b.Occupied(side), side)
		if !ok {
			break
		}
		// The king may only recapture when nothing defends the square.
		if pt == board.King && attackers&b.Occupied(side.Other()) != 0 {
			break
		}
		d++
		gain[d] = onSquare - gain[d-1]
		onSquare = board.PieceValue[pt]

		occ &^= board.SquareBB(sq)
		attackers = b.AttackersTo(to, occ) & occ
	}

	for ; d > 0; d-- {
		gain[d-1] = -max(-gain[d-1], gain[d])
	}
	return gain[0]
}

// leastValuableAttacker picks the cheapest piece of color c among attackers.
func leastValuableAttacker(b *board.Board, attackers board.Bitboard, c board.Color) (board.Square, board.PieceType, bool) {
	if attackers == 0 {
		return board.NoSquare, board.NoPieceType, false
	}
	for pt := board.Pawn; pt <= board.King; pt++ {
		if bb := attackers & b.Pieces(c, pt); bb != 0 {
			return bb.LSB(), pt, true
		}
	}
	return board.NoSquare, board.NoPieceType, false
}
