package board

import (
	"fmt"
	"strings"
)

// Move is a legal move as reported by a position backend.
type Move struct {
	From      Square
	To        Square
	Color     Color
	Type      PieceType // type of the moving piece
	Promotion PieceType // NoPieceType unless the move promotes
}

// IsPromotion reports whether the move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m.Promotion != NoPieceType
}

// String returns the move in UCI notation (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.IsPromotion() {
		s += string(m.Promotion.Char())
	}
	return s
}

// ParseUCI splits a UCI move string into its squares and promotion type.
// The promotion is NoPieceType when the string has no fifth character.
func ParseUCI(s string) (from, to Square, promo PieceType, err error) {
	s = strings.TrimSpace(s)
	if len(s) != 4 && len(s) != 5 {
		return NoSquare, NoSquare, NoPieceType, fmt.Errorf("invalid move: %q", s)
	}

	if from, err = ParseSquare(s[0:2]); err != nil {
		return NoSquare, NoSquare, NoPieceType, fmt.Errorf("invalid move %q: %w", s, err)
	}
	if to, err = ParseSquare(s[2:4]); err != nil {
		return NoSquare, NoSquare, NoPieceType, fmt.Errorf("invalid move %q: %w", s, err)
	}

	promo = NoPieceType
	if len(s) == 5 {
		switch s[4] {
		case 'q':
			promo = Queen
		case 'r':
			promo = Rook
		case 'b':
			promo = Bishop
		case 'n':
			promo = Knight
		default:
			return NoSquare, NoSquare, NoPieceType, fmt.Errorf("invalid promotion in move %q", s)
		}
	}

	return from, to, promo, nil
}

// InfluencingPiece is a piece recorded as attacking or defending a square.
type InfluencingPiece struct {
	Square Square    `json:"square"`
	Color  Color     `json:"color"`
	Type   PieceType `json:"type"`
}

// Value returns the material value of the influencing piece.
func (ip InfluencingPiece) Value() float64 {
	return ip.Type.Value()
}

// String returns a short form such as "Nf3" or "pe5".
func (ip InfluencingPiece) String() string {
	return NewPiece(ip.Type, ip.Color).String() + ip.Square.String()
}
