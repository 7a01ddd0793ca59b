package position

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hailam/chesstactics/internal/board"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// castlingSquares maps the king and rook home squares to the rights that
// depend on them.
var castlingSquares = map[board.Square]CastlingRights{
	board.E1: WhiteKingSideCastle | WhiteQueenSideCastle,
	board.H1: WhiteKingSideCastle,
	board.A1: WhiteQueenSideCastle,
	board.E8: BlackKingSideCastle | BlackQueenSideCastle,
	board.H8: BlackKingSideCastle,
	board.A8: BlackQueenSideCastle,
}

// Record is a decoded FEN string. It is a plain value: the With methods
// return modified copies.
type Record struct {
	Board          [64]board.Piece
	SideToMove     board.Color
	CastlingRights CastlingRights
	EnPassant      board.Square // NoSquare if none
	HalfMoveClock  int
	FullMoveNumber int
}

// ParseFEN decodes a FEN string. The half-move clock and full-move number
// are optional and default to 0 and 1.
func ParseFEN(fen string) (Record, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 || len(parts) > 6 {
		return Record{}, fmt.Errorf("%w: need 4 to 6 fields, got %d", ErrInvalidFEN, len(parts))
	}

	r := Record{
		EnPassant:      board.NoSquare,
		FullMoveNumber: 1,
	}

	if err := parsePiecePlacement(&r, parts[0]); err != nil {
		return Record{}, err
	}

	switch parts[1] {
	case "w":
		r.SideToMove = board.White
	case "b":
		r.SideToMove = board.Black
	default:
		return Record{}, fmt.Errorf("%w: invalid side to move: %s", ErrInvalidFEN, parts[1])
	}

	if err := parseCastlingRights(&r, parts[2]); err != nil {
		return Record{}, err
	}

	if parts[3] != "-" {
		sq, err := board.ParseSquare(parts[3])
		if err != nil || (sq.Rank() != 2 && sq.Rank() != 5) {
			return Record{}, fmt.Errorf("%w: invalid en passant square: %s", ErrInvalidFEN, parts[3])
		}
		r.EnPassant = sq
	}

	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil || hmc < 0 {
			return Record{}, fmt.Errorf("%w: invalid half-move clock: %s", ErrInvalidFEN, parts[4])
		}
		r.HalfMoveClock = hmc
	}

	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil || fmn < 1 {
			return Record{}, fmt.Errorf("%w: invalid full-move number: %s", ErrInvalidFEN, parts[5])
		}
		r.FullMoveNumber = fmn
	}

	return r, nil
}

func parsePiecePlacement(r *Record, placement string) error {
	for i := range r.Board {
		r.Board[i] = board.NoPiece
	}

	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: need 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0

		for _, c := range rankStr {
			if file > 7 {
				return fmt.Errorf("%w: too many squares in rank %d", ErrInvalidFEN, rank+1)
			}

			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}

			piece := board.PieceFromChar(byte(c))
			if piece == board.NoPiece {
				return fmt.Errorf("%w: invalid piece character: %c", ErrInvalidFEN, c)
			}
			r.Board[board.NewSquare(file, rank)] = piece
			file++
		}

		if file != 8 {
			return fmt.Errorf("%w: invalid number of squares in rank %d: got %d", ErrInvalidFEN, rank+1, file)
		}
	}

	return nil
}

func parseCastlingRights(r *Record, castling string) error {
	r.CastlingRights = NoCastling
	if castling == "-" {
		return nil
	}

	for _, c := range castling {
		switch c {
		case 'K':
			r.CastlingRights |= WhiteKingSideCastle
		case 'Q':
			r.CastlingRights |= WhiteQueenSideCastle
		case 'k':
			r.CastlingRights |= BlackKingSideCastle
		case 'q':
			r.CastlingRights |= BlackQueenSideCastle
		default:
			return fmt.Errorf("%w: invalid castling character: %c", ErrInvalidFEN, c)
		}
	}

	return nil
}

// String returns the six-field FEN representation of the record.
func (r Record) String() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := r.Board[board.NewSquare(file, rank)]
			if piece == board.NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	sb.WriteByte(r.SideToMove.Letter())
	sb.WriteByte(' ')
	sb.WriteString(r.CastlingRights.String())
	sb.WriteByte(' ')
	sb.WriteString(r.EnPassant.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(r.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(r.FullMoveNumber))

	return sb.String()
}

// PieceAt returns the piece on sq, or false if the square is empty.
func (r Record) PieceAt(sq board.Square) (board.Piece, bool) {
	if !sq.IsValid() || r.Board[sq] == board.NoPiece {
		return board.NoPiece, false
	}
	return r.Board[sq], true
}

// HasKing reports whether c has a king on the board.
func (r Record) HasKing(c board.Color) bool {
	king := board.NewPiece(board.King, c)
	for _, p := range r.Board {
		if p == king {
			return true
		}
	}
	return false
}

// WithSide returns a copy with the side to move set to c.
func (r Record) WithSide(c board.Color) Record {
	r.SideToMove = c
	return r
}

// WithoutEnPassant returns a copy with the en passant target cleared.
func (r Record) WithoutEnPassant() Record {
	r.EnPassant = board.NoSquare
	return r
}

// WithPiece returns a copy with p placed on sq. Castling rights that relied
// on the overwritten king or rook are dropped.
func (r Record) WithPiece(p board.Piece, sq board.Square) Record {
	if !sq.IsValid() {
		return r
	}
	if r.Board[sq] != p {
		r.CastlingRights &^= castlingSquares[sq]
	}
	r.Board[sq] = p
	return r
}
