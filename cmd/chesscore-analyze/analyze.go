package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	chess "github.com/corentings/chess/v2"

	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
)

// loadGame parses the first game in r.
func loadGame(r io.Reader) (*chess.Game, error) {
	opt, err := chess.PGN(r)
	if err != nil {
		return nil, fmt.Errorf("read pgn: %w", err)
	}
	return chess.NewGame(opt), nil
}

type analyzer struct {
	engine *engine.Engine
	store  *storage.AnalysisStore // nil disables caching
	limits engine.Limits
	out    io.Writer
}

type runStats struct {
	positions int
	cached    int
}

// run replays the game's mainline, analysing the position before every
// move. A cached analysis replaces the search when it is at least as deep
// as requested or already announces a mate.
func (a *analyzer) run(ctx context.Context, game *chess.Game) (runStats, error) {
	var stats runStats
	moves := game.Moves()
	positions := game.Positions()

	if err := a.engine.SetPosition(positions[0].String()); err != nil {
		return stats, err
	}

	for i, m := range moves {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		pos := positions[min(i, len(positions)-1)]
		an, cached, err := a.analyze(ctx)
		if err != nil {
			return stats, err
		}
		stats.positions++
		if cached {
			stats.cached++
		}

		played := chess.UCINotation{}.Encode(pos, m)
		mark := ""
		if cached {
			mark = " (cached)"
		}
		fmt.Fprintf(a.out, "%3d%s %-7s best %-7s %-10s depth %d%s\n",
			i/2+1, dots(i), chess.AlgebraicNotation{}.Encode(pos, m), sanOf(pos, an.BestMove),
			engine.ScoreString(an.Score), an.Depth, mark)

		if err := a.engine.PlayUCI(played); err != nil {
			return stats, fmt.Errorf("ply %d: %w", i+1, err)
		}
	}
	return stats, nil
}

func dots(ply int) string {
	if ply%2 == 0 {
		return "."
	}
	return "..."
}

// sanOf converts a coordinate move to SAN, falling back to the input.
func sanOf(pos *chess.Position, uci string) string {
	m, err := chess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		return uci
	}
	return chess.AlgebraicNotation{}.Encode(pos, m)
}

// analyze returns the analysis of the engine's current position, from the
// store when possible.
func (a *analyzer) analyze(ctx context.Context) (*storage.Analysis, bool, error) {
	b := a.engine.Board()
	hash := b.Hash()

	if a.store != nil {
		an, err := a.store.Get(hash)
		switch {
		case err == nil && an.FEN == b.FEN() && (an.Depth >= a.limits.Depth || engine.IsMateScore(an.Score)):
			return an, true, nil
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			log.Printf("analysis cache: %v", err)
		}
	}

	res := a.engine.Search(ctx, a.limits)
	an := &storage.Analysis{
		FEN:      b.FEN(),
		BestMove: res.Move.String(),
		Score:    res.Score,
		Depth:    res.Depth,
		Nodes:    res.Nodes,
	}
	if a.store != nil && ctx.Err() == nil {
		if _, err := a.store.Put(hash, an); err != nil {
			return nil, false, err
		}
	}
	return an, false, nil
}
