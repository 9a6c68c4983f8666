package board

import "encoding/json"

const (
	Size  = 5
	Cells = Size * Size
)

// The two glyphs players place. Empty cells hold "".
const (
	Chi   = "ち"
	N     = "ん"
	Empty = ""
)

// Glyphs is the alternation order of the target pattern.
var Glyphs = [2]string{Chi, N}

// Board is a 5x5 grid stored row-major: index = y*Size + x.
type Board [Cells]string

func IsGlyph(s string) bool {
	return s == Chi || s == N
}

func Index(x, y int) int {
	return y*Size + x
}

func InBounds(x, y int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size
}

func (b *Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

func (b *Board) Clear() {
	*b = Board{}
}

// MarshalJSON encodes empty cells as null so clients can test truthiness.
func (b Board) MarshalJSON() ([]byte, error) {
	out := make([]*string, Cells)
	for i := range b {
		if b[i] != Empty {
			c := b[i]
			out[i] = &c
		}
	}
	return json.Marshal(out)
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var in []*string
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*b = Board{}
	for i := 0; i < len(in) && i < Cells; i++ {
		if in[i] != nil {
			b[i] = *in[i]
		}
	}
	return nil
}
