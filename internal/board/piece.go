package board

import (
	"fmt"
	"math"
)

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	if c >= NoColor {
		return NoColor
	}
	return c ^ 1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// Letter returns the FEN side-to-move letter ('w' or 'b').
func (c Color) Letter() byte {
	if c == Black {
		return 'b'
	}
	return 'w'
}

// ParseColor accepts a color name or its FEN letter.
func ParseColor(s string) (Color, error) {
	switch s {
	case "w", "white":
		return White, nil
	case "b", "black":
		return Black, nil
	}
	return NoColor, fmt.Errorf("invalid color: %q", s)
}

// MarshalText encodes the color by name.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a color name or FEN letter.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// PieceType represents the type of a chess piece.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	// Mover is a virtual placeholder used only for hypothetical pieces. It is
	// never placed on a board and is worth nothing.
	Mover
	NoPieceType PieceType = 7
)

var pieceTypeNames = [...]string{"pawn", "knight", "bishop", "rook", "queen", "king", "mover", "none"}

// String returns the piece type name.
func (pt PieceType) String() string {
	if pt > NoPieceType {
		return "none"
	}
	return pieceTypeNames[pt]
}

// Char returns the FEN character for the piece type (lowercase).
func (pt PieceType) Char() byte {
	chars := []byte{'p', 'n', 'b', 'r', 'q', 'k', 'm', ' '}
	if pt > NoPieceType {
		return ' '
	}
	return chars[pt]
}

// ParsePieceType accepts a type name or its lowercase FEN character.
func ParsePieceType(s string) (PieceType, error) {
	for pt := Pawn; pt < NoPieceType; pt++ {
		if s == pt.String() || (len(s) == 1 && s[0] == pt.Char()) {
			return pt, nil
		}
	}
	return NoPieceType, fmt.Errorf("invalid piece type: %q", s)
}

// MarshalText encodes the piece type by name.
func (pt PieceType) MarshalText() ([]byte, error) {
	return []byte(pt.String()), nil
}

// UnmarshalText decodes a piece type name or FEN character.
func (pt *PieceType) UnmarshalText(text []byte) error {
	if string(text) == "none" {
		*pt = NoPieceType
		return nil
	}
	parsed, err := ParsePieceType(string(text))
	if err != nil {
		return err
	}
	*pt = parsed
	return nil
}

// pieceValues is the relative material value of each piece type, indexed by
// PieceType. The king cannot be traded, so it is worth +Inf.
var pieceValues = [...]float64{
	Pawn:        1,
	Knight:      3,
	Bishop:      3,
	Rook:        5,
	Queen:       9,
	King:        math.Inf(1),
	Mover:       0,
	NoPieceType: 0,
}

// Value returns the relative material value of the piece type.
func (pt PieceType) Value() float64 {
	if pt > NoPieceType {
		return 0
	}
	return pieceValues[pt]
}

// Promotions lists the promotion choices tried when simulating a capture,
// in the order they are tried. NoPieceType means "no promotion".
var Promotions = [...]PieceType{NoPieceType, Bishop, Knight, Rook, Queen}

// Piece combines PieceType and Color into a single value.
// Encoded as: pieceType + color*6
type Piece uint8

const (
	WhitePawn   Piece = Piece(Pawn) + Piece(White)*6
	WhiteKnight Piece = Piece(Knight) + Piece(White)*6
	WhiteBishop Piece = Piece(Bishop) + Piece(White)*6
	WhiteRook   Piece = Piece(Rook) + Piece(White)*6
	WhiteQueen  Piece = Piece(Queen) + Piece(White)*6
	WhiteKing   Piece = Piece(King) + Piece(White)*6
	BlackPawn   Piece = Piece(Pawn) + Piece(Black)*6
	BlackKnight Piece = Piece(Knight) + Piece(Black)*6
	BlackBishop Piece = Piece(Bishop) + Piece(Black)*6
	BlackRook   Piece = Piece(Rook) + Piece(Black)*6
	BlackQueen  Piece = Piece(Queen) + Piece(Black)*6
	BlackKing   Piece = Piece(King) + Piece(Black)*6
	NoPiece     Piece = 12
)

// NewPiece creates a Piece from PieceType and Color.
// Only real piece types can be placed; Mover yields NoPiece.
func NewPiece(pt PieceType, c Color) Piece {
	if pt > King || c >= NoColor {
		return NoPiece
	}
	return Piece(pt) + Piece(c)*6
}

// Type returns the PieceType of the piece.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 6)
}

// Color returns the Color of the piece.
func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p / 6)
}

// String returns the FEN character for the piece.
// Uppercase for white, lowercase for black.
func (p Piece) String() string {
	if p >= NoPiece {
		return " "
	}
	chars := "PNBRQKpnbrqk"
	return string(chars[p])
}

// PieceFromChar converts a FEN character to a Piece.
func PieceFromChar(c byte) Piece {
	switch c {
	case 'P':
		return WhitePawn
	case 'N':
		return WhiteKnight
	case 'B':
		return WhiteBishop
	case 'R':
		return WhiteRook
	case 'Q':
		return WhiteQueen
	case 'K':
		return WhiteKing
	case 'p':
		return BlackPawn
	case 'n':
		return BlackKnight
	case 'b':
		return BlackBishop
	case 'r':
		return BlackRook
	case 'q':
		return BlackQueen
	case 'k':
		return BlackKing
	default:
		return NoPiece
	}
}

// Value returns the relative material value of the piece.
func (p Piece) Value() float64 {
	return p.Type().Value()
}
