package board

import (
	"math/rand"
	"testing"

	"github.com/dylhunn/dragontoothmg"
)

func TestLeaperTables(t *testing.T) {
	tests := []struct {
		name string
		got  Bitboard
		want []Square
	}{
		{"knight a1", KnightAttacks(A1), []Square{B3, C2}},
		{"knight h8", KnightAttacks(H8), []Square{G6, F7}},
		{"knight e4", KnightAttacks(E4), []Square{D2, F2, C3, G3, C5, G5, D6, F6}},
		{"king a1", KingAttacks(A1), []Square{A2, B1, B2}},
		{"king h4", KingAttacks(H4), []Square{G3, H3, G4, G5, H5}},
		{"white pawn a2", PawnAttacks(White, A2), []Square{B3}},
		{"white pawn h7", PawnAttacks(White, H7), []Square{G8}},
		{"black pawn e5", PawnAttacks(Black, E5), []Square{D4, F4}},
		{"black pawn a2", PawnAttacks(Black, A2), []Square{B1}},
		{"white push e2", PawnPush(White, E2), []Square{E3}},
		{"black push e7", PawnPush(Black, E7), []Square{E6}},
	}

	for _, tc := range tests {
		var want Bitboard
		for _, sq := range tc.want {
			want |= SquareBB(sq)
		}
		if tc.got != want {
			t.Errorf("%s =\n%s\nwant\n%s", tc.name, tc.got, want)
		}
	}
}

func TestBetween(t *testing.T) {
	tests := []struct {
		from, to Square
		want     []Square
	}{
		{A1, H8, []Square{B2, C3, D4, E5, F6, G7, H8}},
		{E1, E4, []Square{E2, E3, E4}},
		{H4, A4, []Square{G4, F4, E4, D4, C4, B4, A4}},
		{E1, E2, []Square{E2}},
		// Not on a common line: only the destination.
		{B1, C3, []Square{C3}},
		{A1, H7, []Square{H7}},
	}

	for _, tc := range tests {
		var want Bitboard
		for _, sq := range tc.want {
			want |= SquareBB(sq)
		}
		if got := Between(tc.from, tc.to); got != want {
			t.Errorf("Between(%s, %s) =\n%s\nwant\n%s", tc.from, tc.to, got, want)
		}
	}
}

// TestSliderAttacksMatchReference compares the packed slider table with an
// independent generator over random occupancies.
func TestSliderAttacksMatchReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20000; i++ {
		sq := Square(rng.Intn(64))
		occ := Bitboard(rng.Uint64() & rng.Uint64())

		wantRook := Bitboard(dragontoothmg.CalculateRookMoveBitboard(uint8(sq), uint64(occ)))
		if got := RookAttacks(sq, occ); got != wantRook {
			t.Fatalf("RookAttacks(%s) with occupancy\n%s=\n%s\nwant\n%s", sq, occ, got, wantRook)
		}
		wantBishop := Bitboard(dragontoothmg.CalculateBishopMoveBitboard(uint8(sq), uint64(occ)))
		if got := BishopAttacks(sq, occ); got != wantBishop {
			t.Fatalf("BishopAttacks(%s) with occupancy\n%s=\n%s\nwant\n%s", sq, occ, got, wantBishop)
		}
	}
}

func TestSliderTableMatchesRayCast(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for sq := A1; sq <= H8; sq++ {
		for i := 0; i < 64; i++ {
			occ := Bitboard(rng.Uint64() & rng.Uint64())
			if got, want := RookAttacks(sq, occ), castRays(sq, occ, &rookDirections); got != want {
				t.Fatalf("RookAttacks(%s) = %x, ray cast %x", sq, uint64(got), uint64(want))
			}
			if got, want := BishopAttacks(sq, occ), castRays(sq, occ, &bishopDirections); got != want {
				t.Fatalf("BishopAttacks(%s) = %x, ray cast %x", sq, uint64(got), uint64(want))
			}
		}
	}
}

func TestRelevantMaskSizes(t *testing.T) {
	total := 0
	for sq := A1; sq <= H8; sq++ {
		total += 1 << bishopSliders[sq].mask.PopCount()
		total += 1 << rookSliders[sq].mask.PopCount()
	}
	if total != len(sliderTable) {
		t.Errorf("packed table entries = %d, want %d", total, len(sliderTable))
	}
	if n := rookSliders[A1].mask.PopCount(); n != 12 {
		t.Errorf("rook mask on a1 has %d bits, want 12", n)
	}
	if n := bishopSliders[D4].mask.PopCount(); n != 9 {
		t.Errorf("bishop mask on d4 has %d bits, want 9", n)
	}
}
