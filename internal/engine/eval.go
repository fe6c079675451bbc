// Package engine implements the chess search: transposition table,
// repetition tracking, move ordering, static exchange and static
// evaluation, and the iterative-deepening principal variation search.
package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// Evaluator scores a position in centipawns from the side to move's point
// of view. Implementations must not modify the board.
type Evaluator interface {
	Evaluate(b *board.Board) int
}

// EvaluatorFunc adapts an ordinary function to the Evaluator interface.
type EvaluatorFunc func(b *board.Board) int

// Evaluate calls f(b).
func (f EvaluatorFunc) Evaluate(b *board.Board) int { return f(b) }

// Passed pawn bonuses by relative rank
var passedPawnMgBonus = [8]int{0, 5, 10, 15, 30, 50, 80, 0}
var passedPawnEgBonus = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

// Mobility weights per piece type
var mobilityMgWeight = [6]int{0, 4, 5, 2, 1, 0} // Pawn, Knight, Bishop, Rook, Queen, King
var mobilityEgWeight = [6]int{0, 3, 4, 4, 2, 0}

const (
	pawnShieldBonus      = 10  // Bonus per pawn in front of king
	pawnShieldMissing    = -15 // Penalty per missing shield pawn
	openFileNearKing     = -20 // Penalty for open file near king
	semiOpenFileNearKing = -10 // Penalty for semi-open file
)

// Bishop pair bonus (having two bishops)
const (
	bishopPairMgBonus = 25
	bishopPairEgBonus = 50
)

// Rook on open/semi-open file bonuses
const (
	rookOpenFileMg     = 20
	rookOpenFileEg     = 25
	rookSemiOpenFileMg = 10
	rookSemiOpenFileEg = 15
)

// Pawn structure penalties
const (
	doubledPawnMgPenalty  = -15
	doubledPawnEgPenalty  = -20
	isolatedPawnMgPenalty = -20
	isolatedPawnEgPenalty = -25
)

const (
	tempoBonus     = 10
	inCheckPenalty = 30
	maxPhase       = 24
)

var phaseWeight = [6]int{0, 1, 1, 2, 4, 0}

// Piece-square tables, written rank 8 first as seen from White's side of
// the board. White pieces look up sq.Mirror(), black pieces sq.

var pawnMgPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var pawnEgPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	80, 80, 80, 80, 80, 80, 80, 80,
	50, 50, 50, 50, 50, 50, 50, 50,
	30, 30, 30, 30, 30, 30, 30, 30,
	15, 15, 15, 15, 15, 15, 15, 15,
	5, 5, 5, 5, 5, 5, 5, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

// King PST (middlegame) - encourages castling
var kingMidgamePST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

// King PST (endgame) - king should be active
var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

var mgPST = [6]*[64]int{&pawnMgPST, &knightPST, &bishopPST, &rookPST, &queenPST, &kingMidgamePST}
var egPST = [6]*[64]int{&pawnEgPST, &knightPST, &bishopPST, &rookPST, &queenPST, &kingEndgamePST}

// ClassicalEvaluator is the hand-tuned tapered evaluator. It caches pawn
// structure scores, so one instance must not be shared between concurrent
// searches.
type ClassicalEvaluator struct {
	pawns *PawnTable
}

// NewClassicalEvaluator creates an evaluator with a 1 MB pawn cache.
func NewClassicalEvaluator() *ClassicalEvaluator {
	return &ClassicalEvaluator{pawns: NewPawnTable(1)}
}

// Evaluate returns the static evaluation of the position from the side to
// move's perspective.
func (e *ClassicalEvaluator) Evaluate(b *board.Board) int {
	var mgScore, egScore int
	phase := 0

	for c := board.White; c <= board.Black; c++ {
		sign := 1
		if c == board.Black {
			sign = -1
		}
		for pt := board.Pawn; pt <= board.King; pt++ {
			bb := b.Pieces(c, pt)
			phase += phaseWeight[pt] * bb.PopCount()
			for bb != 0 {
				sq := bb.PopLSB()
				pstSq := sq
				if c == board.White {
					pstSq = sq.Mirror()
				}
				mgScore += sign * (board.PieceValue[pt] + mgPST[pt][pstSq])
				egScore += sign * (board.PieceValue[pt] + egPST[pt][pstSq])
			}
		}
	}

	psMg, psEg := e.pawnStructure(b)
	mgScore += psMg
	egScore += psEg

	mobMg, mobEg := evaluateMobility(b)
	mgScore += mobMg
	egScore += mobEg

	mgScore += evaluateKingShelter(b)

	bpMg, bpEg := evaluateBishopPair(b)
	mgScore += bpMg
	egScore += bpEg

	rfMg, rfEg := evaluateRooksOnFiles(b)
	mgScore += rfMg
	egScore += rfEg

	phase = min(phase, maxPhase)
	score := (mgScore*phase + egScore*(maxPhase-phase)) / maxPhase

	if b.SideToMove() == board.Black {
		score = -score
	}
	score += tempoBonus
	if b.InCheck() {
		score -= inCheckPenalty
	}
	return score
}

// Clear empties the pawn cache.
func (e *ClassicalEvaluator) Clear() {
	e.pawns.Clear()
}

func (e *ClassicalEvaluator) pawnStructure(b *board.Board) (mg, eg int) {
	key := pawnKey(b)
	if mg, eg, ok := e.pawns.Probe(key); ok {
		return mg, eg
	}
	mg, eg = evaluatePawnStructure(b)
	e.pawns.Store(key, mg, eg)
	return mg, eg
}

// adjacentFiles returns the files on either side of file, not file itself.
func adjacentFiles(file int) board.Bitboard {
	var m board.Bitboard
	if file > 0 {
		m |= board.FileMask[file-1]
	}
	if file < 7 {
		m |= board.FileMask[file+1]
	}
	return m
}

// isPassedPawn checks if a pawn at the given square is a passed pawn.
// A passed pawn has no enemy pawns blocking or attacking its path to promotion.
func isPassedPawn(b *board.Board, sq board.Square, color board.Color) bool {
	front := frontSpan(board.SquareBB(sq), color)
	return b.Pieces(color.Other(), board.Pawn)&(front|front.East()|front.West()) == 0
}

// frontSpan returns the squares ahead of bb on the same files, as seen by
// color.
func frontSpan(bb board.Bitboard, color board.Color) board.Bitboard {
	if color == board.White {
		return bb.North().NorthFill()
	}
	return bb.South().SouthFill()
}

// evaluatePawnStructure scores doubled, isolated and passed pawns.
func evaluatePawnStructure(b *board.Board) (mg, eg int) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}
		pawns := b.Pieces(color, board.Pawn)

		for file := 0; file < 8; file++ {
			onFile := (pawns & board.FileMask[file]).PopCount()
			if onFile == 0 {
				continue
			}
			if onFile > 1 {
				mg += sign * doubledPawnMgPenalty * (onFile - 1)
				eg += sign * doubledPawnEgPenalty * (onFile - 1)
			}
			if pawns&adjacentFiles(file) == 0 {
				mg += sign * isolatedPawnMgPenalty * onFile
				eg += sign * isolatedPawnEgPenalty * onFile
			}
		}

		for bb := pawns; bb != 0; {
			sq := bb.PopLSB()
			if isPassedPawn(b, sq, color) {
				r := sq.RelativeRank(color)
				mg += sign * passedPawnMgBonus[r]
				eg += sign * passedPawnEgBonus[r]
			}
		}
	}
	return mg, eg
}

// pawnAttackSpan returns the squares attacked by the given pawns.
func pawnAttackSpan(pawns board.Bitboard, color board.Color) board.Bitboard {
	if color == board.White {
		return pawns.North().East() | pawns.North().West()
	}
	return pawns.South().East() | pawns.South().West()
}

// evaluateMobility counts safe destination squares for minor and major
// pieces. Squares attacked by enemy pawns or holding own pieces don't count.
func evaluateMobility(b *board.Board) (mgBonus, egBonus int) {
	occupied := b.AllOccupied()

	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}
		blocked := pawnAttackSpan(b.Pieces(color.Other(), board.Pawn), color.Other()) | b.Occupied(color)

		for pt := board.Knight; pt <= board.Queen; pt++ {
			for bb := b.Pieces(color, pt); bb != 0; {
				sq := bb.PopLSB()
				var attacks board.Bitboard
				switch pt {
				case board.Knight:
					attacks = board.KnightAttacks(sq)
				case board.Bishop:
					attacks = board.BishopAttacks(sq, occupied)
				case board.Rook:
					attacks = board.RookAttacks(sq, occupied)
				case board.Queen:
					attacks = board.QueenAttacks(sq, occupied)
				}
				count := (attacks &^ blocked).PopCount()
				mgBonus += sign * mobilityMgWeight[pt] * count
				egBonus += sign * mobilityEgWeight[pt] * count
			}
		}
	}
	return mgBonus, egBonus
}

// evaluateKingShelter scores the pawn shield on the king's file and its
// neighbours. Middlegame only.
func evaluateKingShelter(b *board.Board) int {
	var score int
	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}

		kingFile := b.KingSquare(color).File()
		ownPawns := b.Pieces(color, board.Pawn)
		enemyPawns := b.Pieces(color.Other(), board.Pawn)
		shieldRank := board.RankMask[1]
		if color == board.Black {
			shieldRank = board.RankMask[6]
		}

		for f := max(kingFile-1, 0); f <= min(kingFile+1, 7); f++ {
			filePawns := ownPawns & board.FileMask[f]
			switch {
			case filePawns&shieldRank != 0:
				score += sign * pawnShieldBonus
			case filePawns == 0:
				score += sign * pawnShieldMissing
			}

			if filePawns == 0 {
				if enemyPawns&board.FileMask[f] == 0 {
					score += sign * openFileNearKing
				} else {
					score += sign * semiOpenFileNearKing
				}
			}
		}
	}
	return score
}

// evaluateBishopPair returns bonus for having the bishop pair.
func evaluateBishopPair(b *board.Board) (mgBonus, egBonus int) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}
		if b.Pieces(color, board.Bishop).Several() {
			mgBonus += sign * bishopPairMgBonus
			egBonus += sign * bishopPairEgBonus
		}
	}
	return mgBonus, egBonus
}

// evaluateRooksOnFiles returns bonus for rooks on open/semi-open files.
func evaluateRooksOnFiles(b *board.Board) (mgBonus, egBonus int) {
	for color := board.White; color <= board.Black; color++ {
		sign := 1
		if color == board.Black {
			sign = -1
		}

		ownFiles := b.Pieces(color, board.Pawn).FileFill()
		enemyFiles := b.Pieces(color.Other(), board.Pawn).FileFill()

		for rooks := b.Pieces(color, board.Rook); rooks != 0; {
			rook := board.SquareBB(rooks.PopLSB())
			if ownFiles&rook != 0 {
				continue
			}
			if enemyFiles&rook == 0 {
				mgBonus += sign * rookOpenFileMg
				egBonus += sign * rookOpenFileEg
			} else {
				mgBonus += sign * rookSemiOpenFileMg
				egBonus += sign * rookSemiOpenFileEg
			}
		}
	}
	return mgBonus, egBonus
}
