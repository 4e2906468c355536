package entity

const (
	BoardRows = 10
	BoardCols = 9

	EmptyPoint = "."
)

// Board is a 10x9 Xiangqi grid. Red pieces are uppercase, black pieces lowercase.
type Board [BoardRows][BoardCols]string

// InitialBoard - returns the standard starting layout.
func InitialBoard() Board {
	return Board{
		{"R", "H", "E", "A", "G", "A", "E", "H", "R"},
		{".", ".", ".", ".", ".", ".", ".", ".", "."},
		{".", "C", ".", ".", ".", ".", ".", "C", "."},
		{"S", ".", "S", ".", "S", ".", "S", ".", "S"},
		{".", ".", ".", ".", ".", ".", ".", ".", "."},
		{".", ".", ".", ".", ".", ".", ".", ".", "."},
		{"s", ".", "s", ".", "s", ".", "s", ".", "s"},
		{".", "c", ".", ".", ".", ".", ".", "c", "."},
		{".", ".", ".", ".", ".", ".", ".", ".", "."},
		{"r", "h", "e", "a", "g", "a", "e", "h", "r"},
	}
}
