package gobang

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/gobang-backend/internal/apperror"
	"github.com/rocketscienceinc/gobang-backend/internal/entity"
)

// Snapshot is a copy of a session's state, used for rendering and persistence.
// Cells are row-major: the cell (x, y) is Cells[y*Size+x].
type Snapshot struct {
	Size     int
	Cells    []entity.Cell
	Phase    entity.Phase
	Turn     entity.Player
	Winner   entity.Player // empty when there is no winner
	LastMove *Point
}

// SnapshotError describes a malformed snapshot. It matches
// apperror.ErrInvalidSnapshot with errors.Is.
type SnapshotError struct {
	Field  string
	Reason string
}

func (that *SnapshotError) Error() string {
	return fmt.Sprintf("%s: %s: %s", apperror.ErrInvalidSnapshot, that.Field, that.Reason)
}

func (that *SnapshotError) Unwrap() error {
	return apperror.ErrInvalidSnapshot
}

func snapshotError(field, format string, args ...any) error {
	return &SnapshotError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CellAt returns the cell at (x, y), or an empty cell off the board.
func (that *Snapshot) CellAt(x, y int) entity.Cell {
	if x < 0 || x >= that.Size || y < 0 || y >= that.Size {
		return entity.EmptyCell
	}

	return that.Cells[y*that.Size+x]
}

// String renders the board the same way as Board.String.
func (that *Snapshot) String() string {
	return formatGrid(that.Size, that.CellAt)
}

// Validate checks that the snapshot describes a reachable session state.
func (that *Snapshot) Validate() error {
	if that.Size < WinLength {
		return snapshotError("size", "must be at least %d, got %d", WinLength, that.Size)
	}

	if len(that.Cells) != that.Size*that.Size {
		return snapshotError("cells", "expected %d cells for size %d, got %d", that.Size*that.Size, that.Size, len(that.Cells))
	}

	for i, cell := range that.Cells {
		if _, ok := cell.Player(); !ok && !cell.IsEmpty() {
			return snapshotError("cells", "cell %d holds unknown value %q", i, cell)
		}
	}

	switch that.Phase {
	case entity.PhaseReady, entity.PhasePlaying, entity.PhaseFinished:
	default:
		return snapshotError("phase", "unknown phase %q", that.Phase)
	}

	if that.Turn != entity.PlayerBlack && that.Turn != entity.PlayerWhite {
		return snapshotError("turn", "unknown player %q", that.Turn)
	}

	switch {
	case that.Winner != "" && that.Winner != entity.PlayerBlack && that.Winner != entity.PlayerWhite:
		return snapshotError("winner", "unknown player %q", that.Winner)
	case that.Phase == entity.PhaseFinished && that.Winner == "":
		return snapshotError("winner", "finished game without a winner")
	case that.Phase != entity.PhaseFinished && that.Winner != "":
		return snapshotError("winner", "winner set while %s", that.Phase)
	}

	if that.LastMove != nil {
		last := *that.LastMove
		if last.X < 0 || last.X >= that.Size || last.Y < 0 || last.Y >= that.Size {
			return snapshotError("last_move", "(%d, %d) is off the board", last.X, last.Y)
		}

		if that.CellAt(last.X, last.Y).IsEmpty() {
			return snapshotError("last_move", "(%d, %d) is empty", last.X, last.Y)
		}
	}

	return nil
}

// Snapshot copies the current state of the session.
func (that *Session) Snapshot() *Snapshot {
	cells := make([]entity.Cell, len(that.board.cells))
	copy(cells, that.board.cells)

	snap := &Snapshot{
		Size:  that.board.size,
		Cells: cells,
		Phase: that.phase,
		Turn:  that.active,
	}

	if winner, ok := that.Winner(); ok {
		snap.Winner = winner
	}

	if last, ok := that.board.LastMove(); ok {
		snap.LastMove = &last
	}

	return snap
}

// RestoreSession rebuilds a session from a snapshot after validating it.
func RestoreSession(snap *Snapshot, opts ...Option) (*Session, error) {
	if snap == nil {
		return nil, snapshotError("snapshot", "is nil")
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}

	board, err := NewBoard(snap.Size)
	if err != nil {
		return nil, fmt.Errorf("could not create board: %w", err)
	}

	copy(board.cells, snap.Cells)

	if snap.LastMove != nil {
		last := *snap.LastMove
		board.lastMove = &last
	}

	session := &Session{
		board:  board,
		active: snap.Turn,
		phase:  snap.Phase,
	}

	if snap.Winner != "" {
		winner := snap.Winner
		session.winner = &winner
	}

	for _, opt := range opts {
		opt(session)
	}

	return session, nil
}

// snapshotRecord is the persisted form: small integer codes only.
type snapshotRecord struct {
	Size     int     `json:"size"`
	Cells    []int   `json:"cells"`
	Phase    *int    `json:"phase"`
	Turn     *int    `json:"turn"`
	Winner   *int    `json:"winner"`
	LastMove *[2]int `json:"last_move"`
}

// EncodeSnapshot serializes a snapshot with cells as 0 (black), 1 (white),
// 2 (empty), phases as 0 (playing), 1 (finished), 2 (ready) and winner 2 for none.
func EncodeSnapshot(snap *Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, snapshotError("snapshot", "is nil")
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}

	cells := make([]int, len(snap.Cells))
	for i, cell := range snap.Cells {
		cells[i] = cell.Code()
	}

	phase := snap.Phase.Code()
	turn := snap.Turn.Code()
	winner := entity.CodeNone
	if snap.Winner != "" {
		winner = snap.Winner.Code()
	}

	record := snapshotRecord{
		Size:   snap.Size,
		Cells:  cells,
		Phase:  &phase,
		Turn:   &turn,
		Winner: &winner,
	}

	if snap.LastMove != nil {
		record.LastMove = &[2]int{snap.LastMove.X, snap.LastMove.Y}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("could not marshal snapshot: %w", err)
	}

	return data, nil
}

// DecodeSnapshot parses and validates data produced by EncodeSnapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var record snapshotRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, snapshotError("snapshot", "malformed json: %v", err)
	}

	if record.Phase == nil {
		return nil, snapshotError("phase", "missing")
	}

	if record.Turn == nil {
		return nil, snapshotError("turn", "missing")
	}

	if record.Winner == nil {
		return nil, snapshotError("winner", "missing")
	}

	snap := &Snapshot{
		Size:  record.Size,
		Cells: make([]entity.Cell, len(record.Cells)),
	}

	for i, code := range record.Cells {
		cell, err := entity.CellFromCode(code)
		if err != nil {
			return nil, snapshotError("cells", "cell %d: %v", i, err)
		}
		snap.Cells[i] = cell
	}

	phase, err := entity.PhaseFromCode(*record.Phase)
	if err != nil {
		return nil, snapshotError("phase", "%v", err)
	}
	snap.Phase = phase

	turn, err := entity.PlayerFromCode(*record.Turn)
	if err != nil {
		return nil, snapshotError("turn", "%v", err)
	}
	snap.Turn = turn

	if *record.Winner != entity.CodeNone {
		winner, err := entity.PlayerFromCode(*record.Winner)
		if err != nil {
			return nil, snapshotError("winner", "%v", err)
		}
		snap.Winner = winner
	}

	if record.LastMove != nil {
		snap.LastMove = &Point{X: record.LastMove[0], Y: record.LastMove[1]}
	}

	if err = snap.Validate(); err != nil {
		return nil, err
	}

	return snap, nil
}
