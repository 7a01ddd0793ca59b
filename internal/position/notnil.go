package position

import (
	"fmt"
	"sync"

	"github.com/notnil/chess"

	"github.com/hailam/chesstactics/internal/board"
)

// NotnilBackend decodes positions into github.com/notnil/chess.
type NotnilBackend struct{}

// Name returns "notnil".
func (NotnilBackend) Name() string { return "notnil" }

// Parse decodes fen into a notnil/chess backed Position.
func (NotnilBackend) Parse(fen string) (Position, error) {
	rec, err := ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return newNotnilPosition(rec)
}

type notnilPosition struct {
	rec Record
	pos *chess.Position

	// chess.Position caches its move list on first use, so the list is
	// computed once under movesOnce and only read afterwards.
	movesOnce sync.Once
	moves     []*chess.Move
}

func newNotnilPosition(rec Record) (*notnilPosition, error) {
	opt, err := chess.FEN(rec.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return &notnilPosition{rec: rec, pos: chess.NewGame(opt).Position()}, nil
}

// derive re-encodes a record produced from an already valid position.
func (p *notnilPosition) derive(rec Record) Position {
	next, err := newNotnilPosition(rec)
	if err != nil {
		panic(fmt.Sprintf("position: notnil rejected derived FEN %q: %v", rec, err))
	}
	return next
}

func (p *notnilPosition) PieceAt(sq board.Square) (board.Piece, bool) {
	if !sq.IsValid() {
		return board.NoPiece, false
	}
	pc := p.pos.Board().Piece(chess.Square(sq))
	if pc == chess.NoPiece {
		return board.NoPiece, false
	}
	return board.NewPiece(fromNotnilType(pc.Type()), fromNotnilColor(pc.Color())), true
}

func (p *notnilPosition) SideToMove() board.Color {
	return fromNotnilColor(p.pos.Turn())
}

func (p *notnilPosition) WithSideToMove(c board.Color) Position {
	return p.derive(p.rec.WithSide(c))
}

func (p *notnilPosition) WithEnPassantCleared() Position {
	return p.derive(p.rec.WithoutEnPassant())
}

func (p *notnilPosition) WithPiecePlaced(pc board.Piece, sq board.Square) Position {
	return p.derive(p.rec.WithPiece(pc, sq))
}

// validMoves reports no moves for a side without a king.
func (p *notnilPosition) validMoves() []*chess.Move {
	p.movesOnce.Do(func() {
		if p.rec.HasKing(p.rec.SideToMove) {
			p.moves = p.pos.ValidMoves()
		}
	})
	return p.moves
}

func (p *notnilPosition) LegalMoves() []board.Move {
	valid := p.validMoves()
	moves := make([]board.Move, 0, len(valid))
	b := p.pos.Board()
	for _, m := range valid {
		mover := b.Piece(m.S1())
		moves = append(moves, board.Move{
			From:      board.Square(m.S1()),
			To:        board.Square(m.S2()),
			Color:     fromNotnilColor(mover.Color()),
			Type:      fromNotnilType(mover.Type()),
			Promotion: fromNotnilType(m.Promo()),
		})
	}
	return moves
}

func (p *notnilPosition) TrySimulateMove(from, to board.Square, promo board.PieceType) (Position, error) {
	for _, m := range p.validMoves() {
		if board.Square(m.S1()) != from || board.Square(m.S2()) != to || fromNotnilType(m.Promo()) != promo {
			continue
		}
		next := p.pos.Update(m)
		rec, err := ParseFEN(next.String())
		if err != nil {
			return nil, err
		}
		return &notnilPosition{rec: rec, pos: next}, nil
	}
	return nil, illegalMove(from, to, promo)
}

func (p *notnilPosition) FEN() string {
	return p.rec.String()
}

func fromNotnilColor(c chess.Color) board.Color {
	switch c {
	case chess.White:
		return board.White
	case chess.Black:
		return board.Black
	default:
		return board.NoColor
	}
}

func fromNotnilType(pt chess.PieceType) board.PieceType {
	switch pt {
	case chess.Pawn:
		return board.Pawn
	case chess.Knight:
		return board.Knight
	case chess.Bishop:
		return board.Bishop
	case chess.Rook:
		return board.Rook
	case chess.Queen:
		return board.Queen
	case chess.King:
		return board.King
	default:
		return board.NoPieceType
	}
}
