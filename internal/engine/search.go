package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
	DrawScore = 0
)

const (
	aspirationWindow = 50   // initial half-width around the previous score
	pollInterval     = 2047 // nodes between cancellation checks, minus one
)

// PVTable stores the principal variation.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

func (pv *PVTable) update(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	for j := ply + 1; j < pv.length[ply+1]; j++ {
		pv.moves[ply][j] = pv.moves[ply+1][j]
	}
	pv.length[ply] = max(pv.length[ply+1], ply+1)
}

// line returns a copy of the root variation.
func (pv *PVTable) line() []board.Move {
	out := make([]board.Move, pv.length[0])
	copy(out, pv.moves[0][:pv.length[0]])
	return out
}

// Searcher runs the iterative-deepening principal variation search on a
// board it mutates in place. It is single-threaded: only Stop may be called
// from another goroutine while Search runs.
type Searcher struct {
	b       *board.Board
	reps    *RepetitionTable
	tt      *TranspositionTable
	eval    Evaluator
	orderer *MoveOrderer
	pv      PVTable

	nodes     uint64
	nodeLimit uint64
	deadline  time.Time
	ctx       context.Context
	stopFlag  atomic.Bool

	rootBest  board.Move
	rootScore int
}

// NewSearcher creates a searcher sharing the given table and evaluator.
func NewSearcher(tt *TranspositionTable, eval Evaluator) *Searcher {
	return &Searcher{
		tt:      tt,
		eval:    eval,
		orderer: NewMoveOrderer(),
	}
}

// Stop signals a running search to stop. Search clears the flag when it
// starts, so a Stop issued before that has no effect; cancel the context
// passed to Search to abort a search that has not started yet.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// IsStopped returns true if the search has been stopped.
func (s *Searcher) IsStopped() bool {
	return s.stopFlag.Load()
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// ClearOrderer forgets killers and history.
func (s *Searcher) ClearOrderer() {
	s.orderer.Reset()
}

// Search runs iterative deepening on b until limits or ctx end it. reps must
// hold the game history up to b; the search pushes and pops on it and
// leaves both b and reps exactly as it found them.
//
// The returned move comes from the deepest fully completed iteration. If no
// iteration completed, it is the best root move seen so far, or the first
// legal move.
func (s *Searcher) Search(ctx context.Context, b *board.Board, reps *RepetitionTable, limits Limits, onInfo func(SearchInfo)) Result {
	s.b = b
	s.reps = reps
	s.ctx = ctx
	s.nodes = 0
	s.nodeLimit = limits.Nodes
	s.rootBest = board.NoMove
	s.stopFlag.Store(false)
	s.orderer.Clear()

	tm := NewTimeManager()
	tm.Init(limits, b.SideToMove(), b.FullMoveNumber()*2)
	s.deadline = time.Time{}
	if tm.Limited() {
		s.deadline = tm.startTime.Add(tm.MaximumTime())
	}

	maxDepth := MaxPly - 1
	if limits.Depth > 0 {
		maxDepth = min(limits.Depth, MaxPly-1)
	}

	var result Result
	stability := 0

	for depth := 1; depth <= maxDepth; depth++ {
		score := s.aspiration(depth, result.Score)
		if s.IsStopped() {
			break
		}

		move := board.NoMove
		if s.pv.length[0] > 0 {
			move = s.pv.moves[0][0]
		}
		if move == board.NoMove {
			move = s.rootBest
		}
		if move == result.Move {
			stability++
		} else {
			stability = 0
		}

		result = Result{
			Move:  move,
			Score: score,
			Depth: depth,
			Nodes: s.nodes,
			PV:    s.pv.line(),
			Time:  tm.Elapsed(),
		}
		if onInfo != nil {
			onInfo(SearchInfo{
				Depth:    depth,
				Score:    score,
				Nodes:    s.nodes,
				Time:     result.Time,
				PV:       result.PV,
				HashFull: s.tt.HashFull(),
			})
		}

		if move == board.NoMove {
			break // no legal moves at the root
		}
		if !limits.Infinite && IsMateScore(score) {
			break
		}
		if tm.Limited() && tm.Elapsed() >= tm.SoftLimit(stability) {
			break
		}
		if s.pollStop() {
			break
		}
	}

	if result.Move == board.NoMove {
		result.Move = s.fallbackMove()
	}
	result.Nodes = s.nodes
	result.Time = tm.Elapsed()
	return result
}

// fallbackMove is used when no iteration completed.
func (s *Searcher) fallbackMove() board.Move {
	if s.rootBest != board.NoMove {
		return s.rootBest
	}
	var moves board.MoveList
	s.b.GenerateMoves(&moves)
	if moves.Len() == 0 {
		return board.NoMove
	}
	var scores MoveScores
	s.orderer.ScoreMoves(s.b, &moves, &scores, 0, board.NoMove)
	return PickMove(&moves, &scores, 0)
}

// aspiration searches depth with a window centred on the previous score,
// doubling the failing side until the score lands inside.
func (s *Searcher) aspiration(depth, prev int) int {
	if depth == 1 {
		return s.negamax(depth, 0, -Infinity, Infinity)
	}

	delta := aspirationWindow
	alpha := max(prev-delta, -Infinity)
	beta := min(prev+delta, Infinity)
	for {
		score := s.negamax(depth, 0, alpha, beta)
		if s.IsStopped() {
			return score
		}
		switch {
		case score <= alpha:
			delta *= 2
			alpha = max(prev-delta, -Infinity)
		case score >= beta:
			delta *= 2
			beta = min(prev+delta, Infinity)
		default:
			return score
		}
	}
}

// pollStop checks every cancellation source and latches the stop flag.
func (s *Searcher) pollStop() bool {
	if s.stopFlag.Load() {
		return true
	}
	if (s.ctx != nil && s.ctx.Err() != nil) ||
		(s.nodeLimit > 0 && s.nodes >= s.nodeLimit) ||
		(!s.deadline.IsZero() && time.Now().After(s.deadline)) {
		s.stopFlag.Store(true)
		return true
	}
	return false
}

// visit counts a node and polls for cancellation at a fixed node interval.
func (s *Searcher) visit() bool {
	s.nodes++
	if s.nodes&pollInterval == 0 || (s.nodeLimit > 0 && s.nodes >= s.nodeLimit) {
		return s.pollStop()
	}
	return s.stopFlag.Load()
}

// isDraw checks for draw by repetition, the fifty-move rule or bare material.
func (s *Searcher) isDraw() bool {
	return s.b.HalfMoveClock() >= 100 ||
		s.b.IsInsufficientMaterial() ||
		s.reps.IsDraw()
}

func (s *Searcher) apply(m board.Move) {
	s.b.Apply(m)
	s.reps.Push(m, s.b.Hash())
}

func (s *Searcher) undo(m board.Move) {
	s.reps.Pop()
	s.b.Undo(m)
}

// negamax implements the principal variation search with alpha-beta pruning.
func (s *Searcher) negamax(depth, ply, alpha, beta int) int {
	s.pv.length[ply] = ply
	if ply >= MaxPly-1 {
		return s.eval.Evaluate(s.b)
	}
	if ply > 0 && s.isDraw() {
		return DrawScore
	}

	inCheck := s.b.InCheck()
	if inCheck {
		depth++
	}
	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}
	if s.visit() {
		return 0
	}

	hash := s.b.Hash()
	ttMove := board.NoMove
	if entry, ok := s.tt.Probe(hash); ok {
		ttMove = entry.Move
		if ply > 0 {
			score, lo, hi, done := entry.Cutoff(depth, ply, alpha, beta)
			if done {
				return score
			}
			alpha, beta = lo, hi
		}
	}

	var moves board.MoveList
	s.b.GenerateMoves(&moves)
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return DrawScore
	}

	var scores MoveScores
	s.orderer.ScoreMoves(s.b, &moves, &scores, ply, ttMove)

	var quiets [board.MaxMoves]board.Move
	nQuiets := 0

	bestScore := -Infinity
	bestMove := board.NoMove
	bound := BoundUpper

	for i := 0; i < moves.Len(); i++ {
		if ply == 0 && i > 0 && s.pollStop() {
			break
		}
		m := PickMove(&moves, &scores, i)

		s.apply(m)
		var score int
		if i == 0 {
			score = -s.negamax(depth-1, ply+1, -beta, -alpha)
		} else {
			score = -s.negamax(depth-1, ply+1, -alpha-1, -alpha)
			if score > alpha && score < beta {
				score = -s.negamax(depth-1, ply+1, -beta, -alpha)
			}
		}
		s.undo(m)

		if s.IsStopped() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = m
			if ply == 0 {
				s.rootBest, s.rootScore = m, score
			}
			if score > alpha {
				alpha = score
				bound = BoundExact
				s.pv.update(ply, m)
			}
		}

		if score >= beta {
			bound = BoundLower
			if m.IsQuiet() {
				s.orderer.UpdateKillers(m, ply)
				s.orderer.UpdateHistory(m, depth, true)
				for _, q := range quiets[:nQuiets] {
					s.orderer.UpdateHistory(q, depth, false)
				}
			}
			break
		}
		if m.IsQuiet() {
			quiets[nQuiets] = m
			nQuiets++
		}
	}

	if s.IsStopped() {
		return 0
	}
	s.tt.Store(hash, depth, ScoreToTT(bestScore, ply), bound, bestMove)
	return bestScore
}

// quiescence searches captures and promotions until the position is quiet.
// When in check every evasion is searched and there is no stand-pat.
func (s *Searcher) quiescence(ply, alpha, beta int) int {
	s.pv.length[ply] = ply
	if ply >= MaxPly-1 {
		return s.eval.Evaluate(s.b)
	}
	if s.visit() {
		return 0
	}

	inCheck := s.b.InCheck()
	var moves board.MoveList
	bestScore := -Infinity

	if inCheck {
		s.b.GenerateMoves(&moves)
		if moves.Len() == 0 {
			return -MateScore + ply
		}
	} else {
		standPat := s.eval.Evaluate(s.b)
		if standPat >= beta {
			return standPat
		}
		alpha = max(alpha, standPat)
		bestScore = standPat
		s.b.GenerateCaptures(&moves)
	}

	var scores MoveScores
	ScoreCaptures(&moves, &scores)

	for i := 0; i < moves.Len(); i++ {
		m := PickMove(&moves, &scores, i)
		if !inCheck && m.IsCapture() && SEE(s.b, m) < 0 {
			continue
		}

		s.apply(m)
		score := -s.quiescence(ply+1, -beta, -alpha)
		s.undo(m)

		if s.IsStopped() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			if score > alpha {
				alpha = score
				s.pv.update(ply, m)
			}
		}
		if score >= beta {
			break
		}
	}
	return bestScore
}

// IsMateScore reports whether score announces a forced mate for either side.
func IsMateScore(score int) bool {
	return score > MateScore-MaxPly || score < -MateScore+MaxPly
}
