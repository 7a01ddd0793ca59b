package position

import (
	"fmt"

	"github.com/dylhunn/dragontoothmg"

	"github.com/hailam/chesstactics/internal/board"
)

// DragontoothBackend decodes positions into github.com/dylhunn/dragontoothmg.
//
// Positions whose side to move has no king report no legal moves, as with
// NotnilBackend.
type DragontoothBackend struct{}

// Name returns "dragontooth".
func (DragontoothBackend) Name() string { return "dragontooth" }

// Parse decodes fen into a dragontoothmg backed Position.
func (DragontoothBackend) Parse(fen string) (Position, error) {
	rec, err := ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return newDragontoothPosition(rec), nil
}

type dragontoothPosition struct {
	rec Record
	b   dragontoothmg.Board
}

func newDragontoothPosition(rec Record) *dragontoothPosition {
	return &dragontoothPosition{rec: rec, b: dragontoothmg.ParseFen(rec.String())}
}

func (p *dragontoothPosition) PieceAt(sq board.Square) (board.Piece, bool) {
	return p.rec.PieceAt(sq)
}

func (p *dragontoothPosition) SideToMove() board.Color {
	return p.rec.SideToMove
}

func (p *dragontoothPosition) WithSideToMove(c board.Color) Position {
	return newDragontoothPosition(p.rec.WithSide(c))
}

func (p *dragontoothPosition) WithEnPassantCleared() Position {
	return newDragontoothPosition(p.rec.WithoutEnPassant())
}

func (p *dragontoothPosition) WithPiecePlaced(pc board.Piece, sq board.Square) Position {
	return newDragontoothPosition(p.rec.WithPiece(pc, sq))
}

// generate works on a copy of the board so p stays untouched.
func (p *dragontoothPosition) generate() []dragontoothmg.Move {
	if !p.rec.HasKing(p.rec.SideToMove) {
		return nil
	}
	b := p.b
	return b.GenerateLegalMoves()
}

func (p *dragontoothPosition) LegalMoves() []board.Move {
	generated := p.generate()
	moves := make([]board.Move, 0, len(generated))
	for _, m := range generated {
		from := board.Square(m.From())
		mover := p.rec.Board[from]
		moves = append(moves, board.Move{
			From:      from,
			To:        board.Square(m.To()),
			Color:     mover.Color(),
			Type:      mover.Type(),
			Promotion: fromDragontoothType(m.Promote()),
		})
	}
	return moves
}

func (p *dragontoothPosition) TrySimulateMove(from, to board.Square, promo board.PieceType) (Position, error) {
	for _, m := range p.generate() {
		if board.Square(m.From()) != from || board.Square(m.To()) != to || fromDragontoothType(m.Promote()) != promo {
			continue
		}
		b := p.b
		b.Apply(m)
		rec, err := ParseFEN(b.ToFen())
		if err != nil {
			return nil, fmt.Errorf("dragontooth produced an unreadable position: %w", err)
		}
		return &dragontoothPosition{rec: rec, b: b}, nil
	}
	return nil, illegalMove(from, to, promo)
}

func (p *dragontoothPosition) FEN() string {
	return p.rec.String()
}

func fromDragontoothType(pt dragontoothmg.Piece) board.PieceType {
	switch pt {
	case dragontoothmg.Pawn:
		return board.Pawn
	case dragontoothmg.Knight:
		return board.Knight
	case dragontoothmg.Bishop:
		return board.Bishop
	case dragontoothmg.Rook:
		return board.Rook
	case dragontoothmg.Queen:
		return board.Queen
	case dragontoothmg.King:
		return board.King
	default:
		return board.NoPieceType
	}
}
