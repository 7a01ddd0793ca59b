package tactics

import (
	"reflect"
	"sort"
	"testing"

	"github.com/hailam/chesstactics/internal/board"
	"github.com/hailam/chesstactics/internal/position"
)

// eachBackend runs fn once per registered position backend.
func eachBackend(t *testing.T, fn func(t *testing.T, b position.Backend)) {
	t.Helper()
	for _, name := range position.Backends() {
		b, err := position.NewBackend(name)
		if err != nil {
			t.Fatalf("NewBackend(%q): %v", name, err)
		}
		t.Run(name, func(t *testing.T) { fn(t, b) })
	}
}

func mustParse(t *testing.T, b position.Backend, fen string) position.Position {
	t.Helper()
	pos, err := b.Parse(fen)
	if err != nil {
		t.Fatalf("Parse(%q): %v", fen, err)
	}
	return pos
}

func squaresOf(pieces []board.InfluencingPiece) []string {
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		out = append(out, p.String())
	}
	sort.Strings(out)
	return out
}

func TestEmptySquare(t *testing.T) {
	eachBackend(t, func(t *testing.T, b position.Backend) {
		pos := position.Start(b)
		for _, sq := range []board.Square{board.E4, board.D5, board.A3, board.H6} {
			if got := Attackers(pos, sq); len(got) != 0 {
				t.Errorf("Attackers(start, %s) = %v, want none", sq, got)
			}
			if got := Defenders(pos, sq); len(got) != 0 {
				t.Errorf("Defenders(start, %s) = %v, want none", sq, got)
			}
			if IsHanging(pos, pos, sq) {
				t.Errorf("IsHanging(start, start, %s) = true, want false", sq)
			}
		}
	})
}

func TestKnightAttackedByPawnAndBishop(t *testing.T) {
	const fen = "k7/8/8/8/4n3/3P4/6B1/K7 w - - 0 1"

	eachBackend(t, func(t *testing.T, b position.Backend) {
		pos := mustParse(t, b, fen)

		attackers := Attackers(pos, board.E4)
		if want := []string{"Bg2", "Pd3"}; !reflect.DeepEqual(squaresOf(attackers), want) {
			t.Errorf("attackers = %v, want %v", squaresOf(attackers), want)
		}
		if defenders := Defenders(pos, board.E4); len(defenders) != 0 {
			t.Errorf("defenders = %v, want none", squaresOf(defenders))
		}

		v := Evaluate(pos, pos, board.E4)
		if !v.Hanging {
			t.Error("knight on e4 should be hanging")
		}
		if v.Rule != RuleCheaperAttacker {
			t.Errorf("decided by %s, want %s", v.Rule, RuleCheaperAttacker)
		}
	})
}

func TestSideToMoveDoesNotMatter(t *testing.T) {
	eachBackend(t, func(t *testing.T, b position.Backend) {
		white := mustParse(t, b, "k7/8/8/8/4n3/3P4/6B1/K7 w - - 0 1")
		black := mustParse(t, b, "k7/8/8/8/4n3/3P4/6B1/K7 b - - 0 1")

		if !reflect.DeepEqual(squaresOf(Attackers(white, board.E4)), squaresOf(Attackers(black, board.E4))) {
			t.Error("attackers depend on the side to move")
		}
		if !reflect.DeepEqual(squaresOf(Defenders(white, board.E4)), squaresOf(Defenders(black, board.E4))) {
			t.Error("defenders depend on the side to move")
		}
	})
}

func TestOutnumbered(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		attackers int
		defenders int
		hanging   bool
	}{
		{"undefended", "k7/8/3n4/8/4N3/8/6b1/K7 w - - 0 1", 2, 0, true},
		{"one defender", "k7/8/3n4/8/4N3/3P4/6b1/K7 w - - 0 1", 2, 1, true},
		{"two defenders", "k7/8/3n4/8/4N3/3P4/6b1/K3R3 w - - 0 1", 2, 2, false},
	}

	eachBackend(t, func(t *testing.T, b position.Backend) {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				pos := mustParse(t, b, tt.fen)
				v := Evaluate(pos, pos, board.E4)

				if v.Rule != RuleOutnumbered {
					t.Fatalf("decided by %s, want %s", v.Rule, RuleOutnumbered)
				}
				if len(v.Attackers) != tt.attackers {
					t.Errorf("attackers = %v, want %d", squaresOf(v.Attackers), tt.attackers)
				}
				if len(v.Defenders) != tt.defenders {
					t.Errorf("defenders = %v, want %d", squaresOf(v.Defenders), tt.defenders)
				}
				if v.Hanging != tt.hanging {
					t.Errorf("hanging = %v, want %v", v.Hanging, tt.hanging)
				}
			})
		}
	})
}

func TestRookTakesMinor(t *testing.T) {
	tests := []struct {
		name    string
		before  string
		after   string
		rule    Rule
		hanging bool
	}{
		{
			name:    "single bishop attacker",
			before:  "k6b/8/5n2/8/8/8/8/K4R2 w - - 0 1",
			after:   "k6b/8/5R2/8/8/8/8/K7 b - - 0 1",
			rule:    RuleRookForMinor,
			hanging: false,
		},
		{
			name:    "bishop and knight attackers",
			before:  "k6b/8/5n2/8/4n3/8/8/K4R2 w - - 0 1",
			after:   "k6b/8/5R2/8/4n3/8/8/K7 b - - 0 1",
			rule:    RuleCheaperAttacker,
			hanging: true,
		},
		{
			name:    "pawn attacker",
			before:  "k7/6p1/5n2/8/8/8/8/K4R2 w - - 0 1",
			after:   "k7/6p1/5R2/8/8/8/8/K7 b - - 0 1",
			rule:    RuleCheaperAttacker,
			hanging: true,
		},
		{
			name:    "rook took a pawn",
			before:  "k6b/8/5p2/8/8/8/8/K4R2 w - - 0 1",
			after:   "k6b/8/5R2/8/8/8/8/K7 b - - 0 1",
			rule:    RuleCheaperAttacker,
			hanging: true,
		},
	}

	eachBackend(t, func(t *testing.T, b position.Backend) {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				before := mustParse(t, b, tt.before)
				after := mustParse(t, b, tt.after)

				v := Evaluate(before, after, board.F6)
				if v.Rule != tt.rule {
					t.Errorf("decided by %s, want %s", v.Rule, tt.rule)
				}
				if v.Hanging != tt.hanging {
					t.Errorf("hanging = %v, want %v", v.Hanging, tt.hanging)
				}
			})
		}
	})
}

func TestQueenTrade(t *testing.T) {
	eachBackend(t, func(t *testing.T, b position.Backend) {
		before := mustParse(t, b, "3qk3/8/8/8/8/8/8/3QK3 w - - 0 1")
		after := mustParse(t, b, "3Qk3/8/8/8/8/8/8/4K3 b - - 0 1")

		// The king can take the queen and nothing recaptures, so counting
		// alone would call the queen hanging.
		if got := len(Attackers(after, board.D8)); got != 1 {
			t.Fatalf("attackers = %d, want 1", got)
		}
		if got := len(Defenders(after, board.D8)); got != 0 {
			t.Fatalf("defenders = %d, want 0", got)
		}

		v := Evaluate(before, after, board.D8)
		if v.Rule != RuleFavourableTrade {
			t.Errorf("decided by %s, want %s", v.Rule, RuleFavourableTrade)
		}
		if v.Hanging {
			t.Error("queen recapturing a queen should not be hanging")
		}
		if v.Defenders != nil {
			t.Error("defenders were resolved after the trade rule matched")
		}
	})
}

func TestMissingPieceIsNotHanging(t *testing.T) {
	eachBackend(t, func(t *testing.T, b position.Backend) {
		before := mustParse(t, b, "k7/8/8/8/8/8/8/K4R2 w - - 0 1")
		after := mustParse(t, b, "k7/8/5R2/8/8/8/8/K7 b - - 0 1")

		if IsHanging(before, after, board.F6) {
			t.Error("f6 was empty before the move")
		}
		if IsHanging(before, after, board.F1) {
			t.Error("f1 is empty after the move")
		}
	})
}

func TestIntruderFallback(t *testing.T) {
	eachBackend(t, func(t *testing.T, b position.Backend) {
		pos := position.Start(b)

		if got := Attackers(pos, board.E2); len(got) != 0 {
			t.Fatalf("Attackers(start, e2) = %v, want none", got)
		}

		intruded := WithIntruder(pos, board.E2)
		const want = "rnbqkbnr/pppppppp/8/8/8/8/PPPPqPPP/RNBQKBNR w KQkq - 0 1"
		if intruded.FEN() != want {
			t.Errorf("intruder position = %q, want %q", intruded.FEN(), want)
		}

		defenders := Defenders(pos, board.E2)
		if !reflect.DeepEqual(defenders, Attackers(intruded, board.E2)) {
			t.Errorf("defenders %v differ from attackers of the intruder", squaresOf(defenders))
		}
		if want := []string{"Bf1", "Ke1", "Ng1", "Qd1"}; !reflect.DeepEqual(squaresOf(defenders), want) {
			t.Errorf("defenders = %v, want %v", squaresOf(defenders), want)
		}
	})
}

func TestPromotionCapture(t *testing.T) {
	// The pawn on b7 takes the rook on a8 and must promote; the king on b8
	// takes back.
	const fen = "rk6/1P6/8/8/8/8/8/K7 w - - 0 1"

	eachBackend(t, func(t *testing.T, b position.Backend) {
		pos := mustParse(t, b, fen)

		attackers := Attackers(pos, board.A8)
		if want := []string{"Pb7", "Pb7", "Pb7", "Pb7"}; !reflect.DeepEqual(squaresOf(attackers), want) {
			t.Fatalf("attackers = %v, want %v (one entry per promotion)", squaresOf(attackers), want)
		}

		defenders := Defenders(pos, board.A8)
		if want := []string{"kb8"}; !reflect.DeepEqual(squaresOf(defenders), want) {
			t.Errorf("defenders = %v, want %v", squaresOf(defenders), want)
		}
	})
}

func TestPromotingRecaptureOutnumbers(t *testing.T) {
	// The white rook on d8 is attacked by the rook on a8 and the queen on h8.
	// The pawn on c7 takes back with any of four promotions, so the two
	// attackers face four defenders.
	const fen = "r2R3q/2P5/7k/8/8/8/8/6K1 b - - 0 1"

	eachBackend(t, func(t *testing.T, b position.Backend) {
		pos := mustParse(t, b, fen)

		v := Evaluate(pos, pos, board.D8)
		if got, want := squaresOf(v.Attackers), []string{"qh8", "ra8"}; !reflect.DeepEqual(got, want) {
			t.Errorf("attackers = %v, want %v", got, want)
		}
		if got, want := squaresOf(v.Defenders), []string{"Pc7", "Pc7", "Pc7", "Pc7"}; !reflect.DeepEqual(got, want) {
			t.Errorf("defenders = %v, want %v", got, want)
		}
		if v.Hanging || v.Rule != RuleOutnumbered {
			t.Errorf("d8 hanging=%v by %s, want not hanging by %s", v.Hanging, v.Rule, RuleOutnumbered)
		}
	})
}

func TestProbeClearsEnPassant(t *testing.T) {
	// Black has just played d7d5. Once the side to move is flipped for a
	// probe, the d6 target no longer belongs to anyone.
	const fen = "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1"

	eachBackend(t, func(t *testing.T, b position.Backend) {
		pos := mustParse(t, b, fen)

		const want = "4k3/8/8/3pP3/8/8/8/4K3 b - - 0 1"
		if got := probe(pos, board.Black).FEN(); got != want {
			t.Errorf("probe = %q, want %q", got, want)
		}
		if pos.FEN() != fen {
			t.Errorf("probe modified the original position: %q", pos.FEN())
		}
		if got := Attackers(pos, board.D5); len(got) != 0 {
			t.Errorf("Attackers(d5) = %v, want none", squaresOf(got))
		}
		if got := Attackers(pos, board.E5); len(got) != 0 {
			t.Errorf("Attackers(e5) = %v, want none", squaresOf(got))
		}
	})
}

func TestNoSelfInfluence(t *testing.T) {
	fens := []string{
		position.StartFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	}

	eachBackend(t, func(t *testing.T, b position.Backend) {
		for _, fen := range fens {
			pos := mustParse(t, b, fen)
			for sq := board.A1; sq <= board.H8; sq++ {
				occupant, ok := pos.PieceAt(sq)
				if !ok {
					continue
				}
				for _, p := range Attackers(pos, sq) {
					if p.Square == sq || p.Color == occupant.Color() {
						t.Errorf("%s: bad attacker %s of %s", fen, p, sq)
					}
				}
				for _, p := range Defenders(pos, sq) {
					if p.Square == sq || p.Color != occupant.Color() {
						t.Errorf("%s: bad defender %s of %s", fen, p, sq)
					}
				}
			}
		}
	})
}

func TestBackendsAgree(t *testing.T) {
	const fen = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

	notnil, _ := position.NewBackend("notnil")
	dragontooth, _ := position.NewBackend("dragontooth")
	a := mustParse(t, notnil, fen)
	b := mustParse(t, dragontooth, fen)

	for sq := board.A1; sq <= board.H8; sq++ {
		attackers := squaresOf(Attackers(a, sq))
		if got := squaresOf(Attackers(b, sq)); !reflect.DeepEqual(got, attackers) {
			t.Errorf("attackers of %s: dragontooth %v, notnil %v", sq, got, attackers)
		}
		// With several attackers the exchange depends on generation order.
		if len(attackers) > 1 {
			continue
		}
		if got, want := squaresOf(Defenders(b, sq)), squaresOf(Defenders(a, sq)); !reflect.DeepEqual(got, want) {
			t.Errorf("defenders of %s: dragontooth %v, notnil %v", sq, got, want)
		}
		if IsHanging(a, a, sq) != IsHanging(b, b, sq) {
			t.Errorf("backends disagree on whether %s is hanging", sq)
		}
	}
}

func TestHangingSquares(t *testing.T) {
	eachBackend(t, func(t *testing.T, b position.Backend) {
		pos := mustParse(t, b, "k7/8/3n4/8/4N3/8/6b1/K7 w - - 0 1")

		got := HangingSquares(pos, pos, board.White)
		if want := []board.Square{board.E4}; !reflect.DeepEqual(got, want) {
			t.Errorf("HangingSquares(white) = %v, want %v", got, want)
		}
	})
}

func TestEvaluatePly(t *testing.T) {
	eachBackend(t, func(t *testing.T, b position.Backend) {
		before := mustParse(t, b, "rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b KQkq - 0 1")
		after := mustParse(t, b, "rnbqkbnr/pppp1ppp/8/4p3/3P4/8/PPP1PPPP/RNBQKBNR w KQkq - 0 2")

		if v := Evaluate(before, after, board.E5); v.Hanging || v.Rule != RuleEmpty {
			t.Errorf("Evaluate = %v by %s, want not hanging by empty", v.Hanging, v.Rule)
		}
		v := EvaluatePly(before, after, board.E5)
		if !v.Hanging || v.Rule != RuleOutnumbered {
			t.Errorf("EvaluatePly = %v by %s, want hanging by outnumbered", v.Hanging, v.Rule)
		}
	})
}

func TestCastledRookJudgedInPlace(t *testing.T) {
	eachBackend(t, func(t *testing.T, b position.Backend) {
		before := mustParse(t, b, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
		after, err := before.TrySimulateMove(board.E1, board.G1, board.NoPieceType)
		if err != nil {
			t.Fatalf("castling: %v", err)
		}

		if v := Evaluate(before, after, board.F1); v.Rule != RuleEmpty {
			t.Errorf("Evaluate(f1) decided by %s, want %s", v.Rule, RuleEmpty)
		}
		v := EvaluatePly(before, after, board.F1)
		if v.Hanging || v.Rule != RuleOutnumbered {
			t.Errorf("EvaluatePly(f1) = %v by %s, want not hanging by %s", v.Hanging, v.Rule, RuleOutnumbered)
		}
		if got := HangingSquares(before, after, board.White); len(got) != 0 {
			t.Errorf("HangingSquares(white) = %v, want none", got)
		}
	})
}

func TestRuleText(t *testing.T) {
	for r := RuleEmpty; r <= RuleOutnumbered; r++ {
		text, err := r.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", r, err)
		}
		var back Rule
		if err := back.UnmarshalText(text); err != nil || back != r {
			t.Errorf("rule %s did not survive text encoding: %v", r, err)
		}
	}
}
