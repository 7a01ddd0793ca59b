// Package review annotates every ply of a game with the pieces its mover
// left hanging.
package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"
	"strings"
	"time"

	"github.com/notnil/chess"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesstactics/internal/board"
	"github.com/hailam/chesstactics/internal/position"
	"github.com/hailam/chesstactics/internal/tactics"
)

// ErrEmptyGame is returned when a game contains no moves.
var ErrEmptyGame = errors.New("game has no moves")

// tagKeys are the PGN tags copied into a Review.
var tagKeys = []string{"Event", "Site", "Date", "White", "Black", "Result"}

// PlyReport describes one ply of a reviewed game.
type PlyReport struct {
	Ply   int          `json:"ply"`
	Color board.Color  `json:"color"`
	SAN   string       `json:"san,omitempty"`
	UCI   string       `json:"uci"`
	FEN   string       `json:"fen"`
	To    board.Square `json:"to"`

	// MovedPieceHanging is the verdict for the piece on To. A quiet move is
	// judged as if the piece had already stood on To.
	MovedPieceHanging bool                     `json:"moved_piece_hanging"`
	Rule              tactics.Rule             `json:"rule"`
	Attackers         []board.InfluencingPiece `json:"attackers,omitempty"`
	Defenders         []board.InfluencingPiece `json:"defenders,omitempty"`

	// Hanging lists the mover's other pieces left hanging after the ply.
	Hanging []board.Square `json:"hanging,omitempty"`
}

// Blundered reports whether the mover left anything hanging.
func (p PlyReport) Blundered() bool {
	return p.MovedPieceHanging || len(p.Hanging) > 0
}

// Tally counts per color.
type Tally struct {
	White int `json:"white"`
	Black int `json:"black"`
}

func (t *Tally) add(c board.Color) {
	if c == board.White {
		t.White++
	} else {
		t.Black++
	}
}

// Review is the annotated game.
type Review struct {
	ID        string            `json:"id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Backend   string            `json:"backend"`
	Tags      map[string]string `json:"tags,omitempty"`
	StartFEN  string            `json:"start_fen"`
	Plies     []PlyReport       `json:"plies"`

	// HangingPlies counts, per color, the plies that left something hanging.
	HangingPlies Tally `json:"hanging_plies"`
}

// Reviewer analyses games with a position backend.
type Reviewer struct {
	backend position.Backend
	workers int
	logger  *log.Logger
}

// Option configures a Reviewer.
type Option func(*Reviewer)

// WithWorkers bounds the number of plies analysed concurrently.
func WithWorkers(n int) Option {
	return func(r *Reviewer) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger used for per-ply progress. A nil logger
// discards output.
func WithLogger(l *log.Logger) Option {
	return func(r *Reviewer) {
		r.logger = l
	}
}

// New creates a Reviewer.
func New(backend position.Backend, opts ...Option) *Reviewer {
	r := &Reviewer{
		backend: backend,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard, "", 0)
	}
	return r
}

// ply is one move of a game, given by the FENs around it.
type ply struct {
	before, after string
	uci, san      string
}

// ReviewPGN reviews the first game of a PGN stream.
func (r *Reviewer) ReviewPGN(ctx context.Context, in io.Reader) (*Review, error) {
	opt, err := chess.PGN(in)
	if err != nil {
		return nil, fmt.Errorf("review: reading PGN: %w", err)
	}
	game := chess.NewGame(opt)

	positions := game.Positions()
	moves := game.Moves()
	if len(moves) == 0 {
		return nil, ErrEmptyGame
	}

	plies := make([]ply, len(moves))
	for i, m := range moves {
		plies[i] = ply{
			before: positions[i].String(),
			after:  positions[i+1].String(),
			uci:    chess.UCINotation{}.Encode(positions[i], m),
			san:    chess.AlgebraicNotation{}.Encode(positions[i], m),
		}
	}

	rv, err := r.review(ctx, positions[0].String(), plies)
	if err != nil {
		return nil, err
	}

	rv.Tags = make(map[string]string)
	for _, key := range tagKeys {
		if tp := game.GetTagPair(key); tp != nil && tp.Value != "" {
			rv.Tags[key] = tp.Value
		}
	}
	return rv, nil
}

// ReviewMoves reviews a game given as a start position and UCI moves.
func (r *Reviewer) ReviewMoves(ctx context.Context, startFEN string, moves []string) (*Review, error) {
	if len(moves) == 0 {
		return nil, ErrEmptyGame
	}

	pos, err := r.backend.Parse(startFEN)
	if err != nil {
		return nil, fmt.Errorf("review: start position: %w", err)
	}

	plies := make([]ply, len(moves))
	for i, uci := range moves {
		from, to, promo, err := board.ParseUCI(uci)
		if err != nil {
			return nil, fmt.Errorf("review: ply %d: %w", i+1, err)
		}
		next, err := pos.TrySimulateMove(from, to, promo)
		if err != nil {
			return nil, fmt.Errorf("review: ply %d: %w", i+1, err)
		}
		plies[i] = ply{before: pos.FEN(), after: next.FEN(), uci: uci}
		pos = next
	}

	return r.review(ctx, startFEN, plies)
}

func (r *Reviewer) review(ctx context.Context, startFEN string, plies []ply) (*Review, error) {
	reports := make([]PlyReport, len(plies))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, p := range plies {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report, err := r.analysePly(i+1, p)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rv := &Review{
		CreatedAt: time.Now(),
		Backend:   r.backend.Name(),
		StartFEN:  startFEN,
		Plies:     reports,
	}
	for _, p := range reports {
		if p.Blundered() {
			rv.HangingPlies.add(p.Color)
		}
	}
	return rv, nil
}

func (r *Reviewer) analysePly(n int, p ply) (PlyReport, error) {
	before, err := r.backend.Parse(p.before)
	if err != nil {
		return PlyReport{}, fmt.Errorf("review: ply %d: %w", n, err)
	}
	after, err := r.backend.Parse(p.after)
	if err != nil {
		return PlyReport{}, fmt.Errorf("review: ply %d: %w", n, err)
	}
	_, to, _, err := board.ParseUCI(p.uci)
	if err != nil {
		return PlyReport{}, fmt.Errorf("review: ply %d: %w", n, err)
	}

	mover := before.SideToMove()
	verdict := tactics.EvaluatePly(before, after, to)

	report := PlyReport{
		Ply:               n,
		Color:             mover,
		SAN:               p.san,
		UCI:               p.uci,
		FEN:               after.FEN(),
		To:                to,
		MovedPieceHanging: verdict.Hanging,
		Rule:              verdict.Rule,
		Attackers:         tactics.Attackers(after, to),
		Defenders:         tactics.Defenders(after, to),
	}
	for _, sq := range tactics.HangingSquares(before, after, mover) {
		if sq != to {
			report.Hanging = append(report.Hanging, sq)
		}
	}

	if report.Blundered() {
		r.logger.Printf("ply %d %s %s: moved piece hanging=%v, others=%v", n, mover, p.uci, report.MovedPieceHanging, report.Hanging)
	}
	return report, nil
}

// WriteText prints a human readable summary of the review.
func (rv *Review) WriteText(w io.Writer) error {
	var sb strings.Builder

	if rv.ID != "" {
		fmt.Fprintf(&sb, "review %s (%s backend)\n", rv.ID, rv.Backend)
	}
	for _, key := range tagKeys {
		if v, ok := rv.Tags[key]; ok {
			fmt.Fprintf(&sb, "%-7s %s\n", key, v)
		}
	}

	for _, p := range rv.Plies {
		move := p.SAN
		if move == "" {
			move = p.UCI
		}
		fmt.Fprintf(&sb, "%4d %-5s %-8s", p.Ply, p.Color, move)
		if p.MovedPieceHanging {
			fmt.Fprintf(&sb, " hanging on %s (%s) attackers: %s defenders: %s",
				p.To, p.Rule, listPieces(p.Attackers), listPieces(p.Defenders))
		}
		if len(p.Hanging) > 0 {
			fmt.Fprintf(&sb, " left hanging: %s", listSquares(p.Hanging))
		}
		sb.WriteByte('\n')
	}

	fmt.Fprintf(&sb, "plies leaving material hanging: white %d, black %d\n",
		rv.HangingPlies.White, rv.HangingPlies.Black)

	_, err := io.WriteString(w, sb.String())
	return err
}

func listPieces(pieces []board.InfluencingPiece) string {
	if len(pieces) == 0 {
		return "-"
	}
	parts := make([]string, len(pieces))
	for i, p := range pieces {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}

func listSquares(squares []board.Square) string {
	parts := make([]string, len(squares))
	for i, sq := range squares {
		parts[i] = sq.String()
	}
	return strings.Join(parts, " ")
}
