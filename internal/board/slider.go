package board

// Sliding piece attacks use one densely packed table shared by bishops and
// rooks. Each square owns a slice of it starting at offset, and the index
// inside that slice is a perfect hash of the blockers under the square's
// relevant occupancy mask.

// slider holds the lookup parameters for one square and one piece kind.
type slider struct {
	mask   Bitboard // relevant occupancy, board edges excluded
	magic  uint64
	shift  uint8
	offset uint32
}

const (
	bishopTableSize = 5248
	rookTableSize   = 102400
)

var (
	bishopSliders [64]slider
	rookSliders   [64]slider

	sliderTable [bishopTableSize + rookTableSize]Bitboard
)

// index maps an occupancy to its slot in sliderTable.
func (s *slider) index(occupied Bitboard) uint32 {
	return s.offset + uint32((uint64(occupied&s.mask)*s.magic)>>s.shift)
}

// BishopAttacks returns bishop attacks from sq given the board occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return sliderTable[bishopSliders[sq].index(occupied)]
}

// RookAttacks returns rook attacks from sq given the board occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return sliderTable[rookSliders[sq].index(occupied)]
}

// QueenAttacks returns queen attacks from sq given the board occupancy.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}

// castRays computes slider attacks the slow way by flooding each direction.
func castRays(sq Square, occupied Bitboard, dirs *[4]direction) Bitboard {
	var attacks Bitboard
	src := SquareBB(sq)
	for _, d := range dirs {
		attacks |= d.ray(src, occupied)
	}
	return attacks
}

// relevantMask returns the squares whose occupancy can change the attack
// set from sq. The last square of every ray is dropped since nothing lies
// behind it.
func relevantMask(sq Square, dirs *[4]direction) Bitboard {
	var mask Bitboard
	src := SquareBB(sq)
	for _, d := range dirs {
		r := d.ray(src, Empty)
		for r != 0 {
			s := r.PopLSB()
			if d.step(SquareBB(s)) != 0 {
				mask |= SquareBB(s)
			}
		}
	}
	return mask
}

func initSliders() {
	rng := newPRNG(0x5EED51D3B17B0A2D)
	var offset uint32
	for sq := A1; sq <= H8; sq++ {
		offset = initSlider(&bishopSliders[sq], sq, &bishopDirections, offset, rng)
	}
	for sq := A1; sq <= H8; sq++ {
		offset = initSlider(&rookSliders[sq], sq, &rookDirections, offset, rng)
	}
	if int(offset) != len(sliderTable) {
		panic("board: slider table size mismatch")
	}
}

// initSlider enumerates every blocker subset of the square's mask, searches
// for a multiplier that hashes all subsets without destructive collisions,
// and writes the attack sets into sliderTable starting at offset.
func initSlider(s *slider, sq Square, dirs *[4]direction, offset uint32, rng *prng) uint32 {
	mask := relevantMask(sq, dirs)
	n := mask.PopCount()
	size := 1 << n

	occupancies := make([]Bitboard, 0, size)
	attacks := make([]Bitboard, 0, size)
	// Carry-Rippler walk over all subsets of mask.
	var sub Bitboard
	for {
		occupancies = append(occupancies, sub)
		attacks = append(attacks, castRays(sq, sub, dirs))
		sub = (sub - mask) & mask
		if sub == 0 {
			break
		}
	}

	s.mask = mask
	s.shift = uint8(64 - n)
	s.offset = offset

	seen := make([]int, size)
	for attempt := 1; ; attempt++ {
		magic := rng.sparse()
		if Bitboard((uint64(mask)*magic)>>56).PopCount() < 6 {
			continue
		}
		s.magic = magic
		ok := true
		for i, occ := range occupancies {
			idx := s.index(occ)
			if seen[idx-offset] < attempt {
				seen[idx-offset] = attempt
				sliderTable[idx] = attacks[i]
			} else if sliderTable[idx] != attacks[i] {
				ok = false
				break
			}
		}
		if ok {
			return offset + uint32(size)
		}
	}
}
