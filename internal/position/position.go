// Package position adapts third-party chess rules engines to the small,
// immutable Position interface consumed by the tactics queries.
//
// Every derivation returns a fresh Position; the receiver is never modified,
// so a Position may be shared between goroutines.
package position

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hailam/chesstactics/internal/board"
)

var (
	// ErrIllegalMove is returned by TrySimulateMove when no legal move
	// matches the requested squares and promotion.
	ErrIllegalMove = errors.New("illegal move")

	// ErrInvalidFEN wraps every FEN decoding failure.
	ErrInvalidFEN = errors.New("invalid FEN")

	// ErrUnknownBackend is returned by NewBackend for unregistered names.
	ErrUnknownBackend = errors.New("unknown position backend")
)

// Position is an immutable chess position.
type Position interface {
	// PieceAt returns the piece on sq, or false if the square is empty.
	PieceAt(sq board.Square) (board.Piece, bool)

	// SideToMove returns the color whose turn it is.
	SideToMove() board.Color

	// WithSideToMove returns a copy with the side to move overridden.
	WithSideToMove(c board.Color) Position

	// WithEnPassantCleared returns a copy without an en passant target.
	WithEnPassantCleared() Position

	// WithPiecePlaced returns a copy with p on sq, replacing any occupant.
	WithPiecePlaced(p board.Piece, sq board.Square) Position

	// LegalMoves returns every legal move for the side to move.
	LegalMoves() []board.Move

	// TrySimulateMove plays from-to with the given promotion (NoPieceType
	// for none) and returns the resulting position. It returns an error
	// wrapping ErrIllegalMove if that exact move is not legal.
	TrySimulateMove(from, to board.Square, promo board.PieceType) (Position, error)

	// FEN returns the position in Forsyth-Edwards Notation.
	FEN() string
}

// Backend decodes FEN strings into Positions backed by one rules engine.
type Backend interface {
	Name() string
	Parse(fen string) (Position, error)
}

// DefaultBackend is the backend used when none is configured.
const DefaultBackend = "notnil"

var backends = map[string]Backend{
	"notnil":      NotnilBackend{},
	"dragontooth": DragontoothBackend{},
}

// NewBackend returns the registered backend with the given name.
func NewBackend(name string) (Backend, error) {
	if name == "" {
		name = DefaultBackend
	}
	b, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownBackend, name, Backends())
	}
	return b, nil
}

// Backends returns the registered backend names in sorted order.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Start returns the standard starting position for the backend.
func Start(b Backend) Position {
	pos, err := b.Parse(StartFEN)
	if err != nil {
		panic(fmt.Sprintf("position: %s backend rejected the start position: %v", b.Name(), err))
	}
	return pos
}

func illegalMove(from, to board.Square, promo board.PieceType) error {
	m := board.Move{From: from, To: to, Promotion: promo}
	return fmt.Errorf("%w: %s", ErrIllegalMove, m)
}
