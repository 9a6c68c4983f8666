package board

// directions scanned from every start cell. Starting from every cell makes
// the opposite directions redundant.
var directions = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {-1, 1}}

// Evaluate reports the cells of the first winning line on b, or nil.
//
// A winning line is targetLength consecutive cells in one direction whose
// glyphs alternate. Lines starting with either glyph count; runs beginning
// with Chi are reported first. Target lengths outside 1..Size never win.
func Evaluate(b Board, targetLength int) []int {
	if targetLength < 1 || targetLength > Size {
		return nil
	}
	for phase := 0; phase < 2; phase++ {
		for y := 0; y < Size; y++ {
			for x := 0; x < Size; x++ {
				for _, d := range directions {
					if line := matchLine(&b, x, y, d[0], d[1], targetLength, phase); line != nil {
						return line
					}
				}
			}
		}
	}
	return nil
}

func matchLine(b *Board, x, y, dx, dy, length, phase int) []int {
	line := make([]int, 0, length)
	for i := 0; i < length; i++ {
		nx, ny := x+i*dx, y+i*dy
		if !InBounds(nx, ny) {
			return nil
		}
		idx := Index(nx, ny)
		if b[idx] != Glyphs[(i+phase)%2] {
			return nil
		}
		line = append(line, idx)
	}
	return line
}
