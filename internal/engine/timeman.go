package engine

import (
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// Limits constrains a search. Zero values mean "no limit"; with no limit
// at all the search runs to MaxPly or until cancelled.
type Limits struct {
	Depth     int              // maximum search depth
	Nodes     uint64           // maximum nodes to search
	MoveTime  time.Duration    // fixed time per move (overrides the clock)
	Time      [2]time.Duration // wtime, btime (remaining time for each color)
	Inc       [2]time.Duration // winc, binc (increment per move)
	MovesToGo int              // moves until next time control (0 = sudden death)
	Infinite  bool             // search until stopped
}

// TimeManager handles time allocation for searches.
type TimeManager struct {
	optimumTime time.Duration // Target time for this move
	maximumTime time.Duration // Hard stop
	startTime   time.Time     // When search started
	limited     bool
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init initializes the time manager for a new search.
// ply is the current game ply (half-move number).
func (tm *TimeManager) Init(limits Limits, us board.Color, ply int) {
	tm.startTime = time.Now()
	tm.limited = false

	if limits.Infinite {
		return
	}

	// Fixed move time mode
	if limits.MoveTime > 0 {
		tm.limited = true
		tm.optimumTime = limits.MoveTime
		tm.maximumTime = limits.MoveTime
		return
	}

	timeLeft := limits.Time[us]
	if timeLeft <= 0 {
		return
	}
	tm.limited = true
	inc := limits.Inc[us]

	// Estimate moves to go
	mtg := limits.MovesToGo
	if mtg == 0 {
		// Sudden death: expect fewer remaining moves as the game goes on
		mtg = min(max(50-ply/4, 10), 50)
	}

	baseTime := timeLeft/time.Duration(mtg) + inc*9/10
	tm.optimumTime = baseTime
	if ply < 8 {
		tm.optimumTime = baseTime * 85 / 100
	}

	// Maximum time: 5x optimum or 80% of remaining, whichever is smaller
	tm.maximumTime = min(tm.optimumTime*5, timeLeft*8/10)

	// Minimum times
	tm.optimumTime = max(tm.optimumTime, 10*time.Millisecond)
	tm.maximumTime = max(tm.maximumTime, min(50*time.Millisecond, timeLeft/2))
}

// Limited reports whether the clock bounds this search at all.
func (tm *TimeManager) Limited() bool {
	return tm.limited
}

// Elapsed returns the time elapsed since search started.
func (tm *TimeManager) Elapsed() time.Duration {
	return time.Since(tm.startTime)
}

// OptimumTime returns the target time for this move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns the maximum time allowed.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// SoftLimit is the time after which no new iteration should start. A best
// move that has held for several depths shortens it. In fixed move time
// mode it is half the budget.
func (tm *TimeManager) SoftLimit(stability int) time.Duration {
	if tm.optimumTime == tm.maximumTime {
		return tm.maximumTime / 2
	}
	switch {
	case stability >= 6:
		return tm.optimumTime * 40 / 100
	case stability >= 4:
		return tm.optimumTime * 60 / 100
	case stability >= 2:
		return tm.optimumTime * 80 / 100
	}
	return tm.optimumTime
}
