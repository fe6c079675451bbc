package board

// Perft counts the leaf nodes reached by exhaustive legal move enumeration
// to the given depth. It is the standard move generator correctness check.
func Perft(b *Board, depth int) uint64 {
	if depth <= 0 {
		return 1
	}

	var ml MoveList
	b.GenerateMoves(&ml)
	if depth == 1 {
		return uint64(ml.Len())
	}

	var nodes uint64
	for _, m := range ml.Slice() {
		b.Apply(m)
		nodes += Perft(b, depth-1)
		b.Undo(m)
	}
	return nodes
}

// DivideEntry is the perft count below one root move.
type DivideEntry struct {
	Move  Move
	Nodes uint64
}

// Divide returns the perft count below each legal root move, in generation
// order.
func Divide(b *Board, depth int) []DivideEntry {
	var ml MoveList
	b.GenerateMoves(&ml)
	entries := make([]DivideEntry, 0, ml.Len())
	for _, m := range ml.Slice() {
		b.Apply(m)
		entries = append(entries, DivideEntry{Move: m, Nodes: Perft(b, depth-1)})
		b.Undo(m)
	}
	return entries
}
