package board

// Zobrist keys for position fingerprints. The generator is seeded with a
// constant so fingerprints are stable across runs and processes.
var (
	zobristPiece      [2][6][64]uint64
	zobristEnPassant  [8]uint64  // one per file
	zobristCastling   [16]uint64 // one per rights combination
	zobristSideToMove uint64     // XOR when black to move
)

// prng is an xorshift64* generator.
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

// sparse returns a value with roughly one bit in eight set, the shape that
// makes good slider multipliers.
func (p *prng) sparse() uint64 {
	return p.next() & p.next() & p.next()
}

func initZobrist() {
	rng := newPRNG(0x98F107A2BEEF1234)

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}
	for file := 0; file < 8; file++ {
		zobristEnPassant[file] = rng.next()
	}
	for i := range zobristCastling {
		zobristCastling[i] = rng.next()
	}
	zobristSideToMove = rng.next()
}

// pieceKey returns the key for piece p on sq.
func pieceKey(p Piece, sq Square) uint64 {
	return zobristPiece[p.Color()][p.Type()][sq]
}

// epKey returns the key for an en-passant target, or zero when there is none.
func epKey(sq Square) uint64 {
	if sq == NoSquare {
		return 0
	}
	return zobristEnPassant[sq.File()]
}

// ComputeHash recomputes the fingerprint of b from scratch.
func (b *Board) ComputeHash() uint64 {
	var h uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := b.pieces[c][pt]
			for bb != 0 {
				h ^= zobristPiece[c][pt][bb.PopLSB()]
			}
		}
	}
	h ^= zobristCastling[b.castling]
	h ^= epKey(b.epSquare)
	if b.side == Black {
		h ^= zobristSideToMove
	}
	return h
}
