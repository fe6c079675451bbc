package board

import "math/bits"

// Precomputed leaper, pawn and between tables. They are filled once by
// init and never written again.
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard
	pawnPushes    [2][64]Bitboard
	betweenBB     [64][64]Bitboard
)

func init() {
	initZobrist()
	initLeapers()
	initPawns()
	initBetween()
	initSliders()
}

var (
	knightOffsets = [8]int{-17, -15, -10, -6, 6, 10, 15, 17}
	kingOffsets   = [8]int{-9, -8, -7, -1, 1, 7, 8, 9}
)

// leaperAttacks collects sq+offset for every offset that stays on the board
// and lands within maxDist king steps. The distance test rejects offsets that
// wrap from the h-file to the a-file or back.
func leaperAttacks(sq Square, offsets []int, maxDist int) Bitboard {
	var bb Bitboard
	for _, off := range offsets {
		t := int(sq) + off
		if t < 0 || t > 63 {
			continue
		}
		if Distance(sq, Square(t)) <= maxDist {
			bb |= SquareBB(Square(t))
		}
	}
	return bb
}

func initLeapers() {
	for sq := A1; sq <= H8; sq++ {
		knightAttacks[sq] = leaperAttacks(sq, knightOffsets[:], 2)
		kingAttacks[sq] = leaperAttacks(sq, kingOffsets[:], 1)
	}
}

// flipVertical mirrors a bitboard across the horizontal centre line.
func flipVertical(b Bitboard) Bitboard {
	return Bitboard(bits.ReverseBytes64(uint64(b)))
}

// initPawns builds the white tables and derives black's by mirroring.
func initPawns() {
	for sq := A1; sq <= H8; sq++ {
		pawnAttacks[White][sq] = leaperAttacks(sq, []int{7, 9}, 1)
		pawnPushes[White][sq] = SquareBB(sq).North()
	}
	for sq := A1; sq <= H8; sq++ {
		pawnAttacks[Black][sq] = flipVertical(pawnAttacks[White][sq.Mirror()])
		pawnPushes[Black][sq] = flipVertical(pawnPushes[White][sq.Mirror()])
	}
}

// initBetween casts a ray from every source square in all eight directions
// with the target as the only blocker. A ray that reaches the target
// contributes the squares it crossed and the target itself.
func initBetween() {
	for from := A1; from <= H8; from++ {
		src := SquareBB(from)
		for to := A1; to <= H8; to++ {
			target := SquareBB(to)
			bb := target
			if from != to {
				for _, d := range allDirections {
					r := d.ray(src, target)
					if r&target != 0 {
						bb |= r
					}
				}
			}
			betweenBB[from][to] = bb
		}
	}
}

// KnightAttacks returns the squares a knight on sq attacks.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the squares a king on sq attacks.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the squares a pawn of color c on sq attacks.
func PawnAttacks(c Color, sq Square) Bitboard {
	return pawnAttacks[c][sq]
}

// PawnPush returns the single-push destination of a pawn of color c on sq.
func PawnPush(c Color, sq Square) Bitboard {
	return pawnPushes[c][sq]
}

// Between returns the squares strictly between from and to plus to itself.
// For squares that do not share a line it is just to.
func Between(from, to Square) Bitboard {
	return betweenBB[from][to]
}
