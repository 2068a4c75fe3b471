package console

import (
	"github.com/rocketscienceinc/gobang-backend/internal/entity"
	"github.com/rocketscienceinc/gobang-backend/internal/gobang"
)

// render prints the board, one row per line, and a status line.
func (that *Server) render(view *gobang.Snapshot) {
	that.printf("%s%s\n", view.String(), status(view))
}

func status(view *gobang.Snapshot) string {
	switch view.Phase {
	case entity.PhasePlaying:
		return "playing: " + view.Turn.String() + " to move"
	case entity.PhaseFinished:
		return "result: " + view.Winner.String() + " wins"
	default:
		return "ready: tap to begin"
	}
}
