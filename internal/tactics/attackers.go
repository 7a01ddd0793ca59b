// Package tactics answers three questions about a square of a chess
// position: who attacks it, who defends it, and whether the piece on it is
// hanging.
//
// All queries are pure. Hypothetical positions are derived from the input
// and dropped when the query returns.
package tactics

import (
	"github.com/hailam/chesstactics/internal/board"
	"github.com/hailam/chesstactics/internal/position"
)

// probe derives the position used to ask which pieces of side could move
// next. The en passant target is always cleared: a target left over from
// the real side to move could otherwise legalize a capture that is not on
// offer.
func probe(pos position.Position, side board.Color) position.Position {
	return pos.WithSideToMove(side).WithEnPassantCleared()
}

// Attackers returns one entry per legal enemy move that would capture the
// piece on sq if it were the enemy's turn, in move-generation order. An
// empty square has no attackers.
func Attackers(pos position.Position, sq board.Square) []board.InfluencingPiece {
	occupant, ok := pos.PieceAt(sq)
	if !ok {
		return nil
	}

	var attackers []board.InfluencingPiece
	for _, m := range probe(pos, occupant.Color().Other()).LegalMoves() {
		// A pawn capturing onto the last rank counts once per promotion.
		if m.To != sq {
			continue
		}
		attackers = append(attackers, board.InfluencingPiece{
			Square: m.From,
			Color:  m.Color,
			Type:   m.Type,
		})
	}
	return attackers
}
