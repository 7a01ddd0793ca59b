// Package shell implements a line-oriented analysis console over a position
// backend.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hailam/chesstactics/internal/board"
	"github.com/hailam/chesstactics/internal/position"
	"github.com/hailam/chesstactics/internal/tactics"
)

var errQuit = errors.New("quit")

// Shell reads commands from in and writes results to out.
type Shell struct {
	backend position.Backend
	in      io.Reader
	out     io.Writer

	// before is the position the last applied move was played from. It
	// equals current until a move is made.
	before  position.Position
	current position.Position
}

// New creates a shell positioned at the standard start.
func New(backend position.Backend, in io.Reader, out io.Writer) *Shell {
	start := position.Start(backend)
	return &Shell{
		backend: backend,
		in:      in,
		out:     out,
		before:  start,
		current: start,
	}
}

// Run processes commands until quit or end of input.
func (s *Shell) Run() error {
	scanner := bufio.NewScanner(s.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		err := s.dispatch(parts[0], parts[1:])
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (s *Shell) dispatch(cmd string, args []string) error {
	switch cmd {
	case "position":
		return s.handlePosition(args)
	case "move":
		return s.handleMove(args)
	case "attackers":
		return s.handleInfluence(args, tactics.Attackers)
	case "defenders":
		return s.handleInfluence(args, tactics.Defenders)
	case "hanging":
		return s.handleHanging(args)
	case "scan":
		s.handleScan()
	case "d":
		fmt.Fprintln(s.out, s.current.FEN())
	case "backend":
		return s.handleBackend(args)
	case "quit":
		return errQuit
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (s *Shell) handlePosition(args []string) error {
	if len(args) == 0 {
		return errors.New("position: expected startpos or fen")
	}

	// Find "moves" keyword
	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos position.Position
	switch args[0] {
	case "startpos":
		pos = position.Start(s.backend)
	case "fen":
		p, err := s.backend.Parse(strings.Join(args[1:movesAt], " "))
		if err != nil {
			return err
		}
		pos = p
	default:
		return fmt.Errorf("position: unknown source %q", args[0])
	}

	before := pos
	if movesAt < len(args) {
		for _, uci := range args[movesAt+1:] {
			next, err := play(pos, uci)
			if err != nil {
				return err
			}
			before, pos = pos, next
		}
	}

	s.before, s.current = before, pos
	return nil
}

func (s *Shell) handleMove(args []string) error {
	if len(args) != 1 {
		return errors.New("move: expected one UCI move")
	}
	next, err := play(s.current, args[0])
	if err != nil {
		return err
	}
	s.before, s.current = s.current, next
	return nil
}

func play(pos position.Position, uci string) (position.Position, error) {
	from, to, promo, err := board.ParseUCI(uci)
	if err != nil {
		return nil, err
	}
	return pos.TrySimulateMove(from, to, promo)
}

func (s *Shell) handleInfluence(args []string, resolve func(position.Position, board.Square) []board.InfluencingPiece) error {
	sq, err := squareArg(args)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, formatPieces(resolve(s.current, sq)))
	return nil
}

func (s *Shell) handleHanging(args []string) error {
	sq, err := squareArg(args)
	if err != nil {
		return err
	}
	v := tactics.EvaluatePly(s.before, s.current, sq)
	fmt.Fprintf(s.out, "%v (%s)\n", v.Hanging, v.Rule)
	return nil
}

// handleScan lists every hanging square per color, judged against the
// position before the last move.
func (s *Shell) handleScan() {
	for _, c := range []board.Color{board.White, board.Black} {
		squares := tactics.HangingSquares(s.before, s.current, c)
		labels := make([]string, len(squares))
		for i, sq := range squares {
			labels[i] = sq.String()
		}
		if len(labels) == 0 {
			labels = []string{"none"}
		}
		fmt.Fprintf(s.out, "%s: %s\n", c, strings.Join(labels, " "))
	}
}

// handleBackend prints the backend name, or switches backend and carries the
// current positions across.
func (s *Shell) handleBackend(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(s.out, s.backend.Name())
		return nil
	}

	b, err := position.NewBackend(args[0])
	if err != nil {
		return err
	}
	before, err := b.Parse(s.before.FEN())
	if err != nil {
		return err
	}
	current, err := b.Parse(s.current.FEN())
	if err != nil {
		return err
	}
	s.backend, s.before, s.current = b, before, current
	return nil
}

func squareArg(args []string) (board.Square, error) {
	if len(args) != 1 {
		return board.NoSquare, errors.New("expected one square")
	}
	return board.ParseSquare(args[0])
}

func formatPieces(pieces []board.InfluencingPiece) string {
	if len(pieces) == 0 {
		return "none"
	}
	parts := make([]string, len(pieces))
	for i, p := range pieces {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}
