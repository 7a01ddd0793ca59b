package tactics

import (
	"github.com/hailam/chesstactics/internal/board"
	"github.com/hailam/chesstactics/internal/position"
)

// Defenders returns the pieces of the occupant's color that could recapture
// on sq after one hypothetical exchange there.
//
// If sq is attacked, the first attacker captures on sq and the pieces able
// to take it back are reported. Otherwise an enemy queen is dropped onto sq
// and the pieces able to take it are reported. An empty square has no
// defenders.
func Defenders(pos position.Position, sq board.Square) []board.InfluencingPiece {
	if _, ok := pos.PieceAt(sq); !ok {
		return nil
	}

	attackers := Attackers(pos, sq)
	if len(attackers) == 0 {
		return Attackers(WithIntruder(pos, sq), sq)
	}

	test := attackers[0]
	exchange := probe(pos, test.Color)
	for _, promo := range board.Promotions {
		after, err := exchange.TrySimulateMove(test.Square, sq, promo)
		if err != nil {
			continue
		}
		return Attackers(after, sq)
	}
	return nil
}

// WithIntruder returns the position Defenders uses for an unattacked square:
// the occupant's side to move, no en passant target, and an enemy queen on sq
// in place of the occupant. It returns pos unchanged if sq is empty.
func WithIntruder(pos position.Position, sq board.Square) position.Position {
	occupant, ok := pos.PieceAt(sq)
	if !ok {
		return pos
	}
	intruder := board.NewPiece(board.Queen, occupant.Color().Other())
	return probe(pos, occupant.Color()).WithPiecePlaced(intruder, sq)
}
