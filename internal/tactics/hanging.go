package tactics

import (
	"fmt"

	"github.com/hailam/chesstactics/internal/board"
	"github.com/hailam/chesstactics/internal/position"
)

// Rule identifies which hanging-piece rule decided a Verdict.
type Rule int

const (
	// RuleEmpty: the square was empty before or after the ply.
	RuleEmpty Rule = iota
	// RuleFavourableTrade: the square changed hands by capturing a piece
	// worth at least as much as the capturer.
	RuleFavourableTrade
	// RuleRookForMinor: a rook that took a minor piece is attacked by
	// exactly one minor piece.
	RuleRookForMinor
	// RuleCheaperAttacker: some attacker is worth less than the occupant.
	RuleCheaperAttacker
	// RuleOutnumbered: attackers were compared against defenders.
	RuleOutnumbered
)

var ruleNames = [...]string{"empty", "favourable-trade", "rook-for-minor", "cheaper-attacker", "outnumbered"}

func (r Rule) String() string {
	if r < 0 || int(r) >= len(ruleNames) {
		return fmt.Sprintf("rule(%d)", int(r))
	}
	return ruleNames[r]
}

// MarshalText encodes the rule by name.
func (r Rule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a rule name.
func (r *Rule) UnmarshalText(text []byte) error {
	for i, name := range ruleNames {
		if name == string(text) {
			*r = Rule(i)
			return nil
		}
	}
	return fmt.Errorf("unknown rule: %q", text)
}

// Verdict is the outcome of Evaluate.
type Verdict struct {
	Hanging   bool
	Rule      Rule
	Attackers []board.InfluencingPiece
	// Defenders is only resolved when Rule is RuleOutnumbered.
	Defenders []board.InfluencingPiece
}

// IsHanging reports whether the piece on sq after a ply can be lost without
// adequate compensation. before is the position the ply was played from.
func IsHanging(before, after position.Position, sq board.Square) bool {
	return Evaluate(before, after, sq).Hanging
}

// Evaluate applies the hanging-piece rules in priority order and reports
// which one decided.
func Evaluate(before, after position.Position, sq board.Square) Verdict {
	prev, ok := before.PieceAt(sq)
	if !ok {
		return Verdict{Rule: RuleEmpty}
	}
	cur, ok := after.PieceAt(sq)
	if !ok {
		return Verdict{Rule: RuleEmpty}
	}

	attackers := Attackers(after, sq)

	if prev.Value() >= cur.Value() && prev.Color() != cur.Color() {
		return Verdict{Rule: RuleFavourableTrade, Attackers: attackers}
	}

	if cur.Type() == board.Rook && prev.Value() == 3 &&
		len(attackers) == 1 && attackers[0].Value() == 3 {
		return Verdict{Rule: RuleRookForMinor, Attackers: attackers}
	}

	for _, atk := range attackers {
		if atk.Value() < cur.Value() {
			return Verdict{Hanging: true, Rule: RuleCheaperAttacker, Attackers: attackers}
		}
	}

	defenders := Defenders(after, sq)
	return Verdict{
		Hanging:   len(attackers) > len(defenders),
		Rule:      RuleOutnumbered,
		Attackers: attackers,
		Defenders: defenders,
	}
}

// EvaluatePly judges the piece a ply moved to sq. A ply onto an empty square
// captured nothing, so the piece is judged as if it had stood on sq before.
func EvaluatePly(before, after position.Position, sq board.Square) Verdict {
	if _, ok := before.PieceAt(sq); !ok {
		before = after
	}
	return Evaluate(before, after, sq)
}

// HangingSquares returns every square holding a piece of color c in after
// that EvaluatePly reports hanging, in square order.
func HangingSquares(before, after position.Position, c board.Color) []board.Square {
	var squares []board.Square
	for sq := board.A1; sq <= board.H8; sq++ {
		p, ok := after.PieceAt(sq)
		if !ok || p.Color() != c {
			continue
		}
		if EvaluatePly(before, after, sq).Hanging {
			squares = append(squares, sq)
		}
	}
	return squares
}
