package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rocketscienceinc/gobang-backend/internal/gobang"
)

var errQuit = errors.New("quit")

type uGame interface {
	OpenGame(ctx context.Context, id string) (*gobang.Snapshot, error)
	NewGame(ctx context.Context, id string) (*gobang.Snapshot, error)
	BeginPlay(ctx context.Context, id string) (*gobang.Snapshot, error)
	MakeMove(ctx context.Context, id string, x, y int) (gobang.MoveOutcome, *gobang.Snapshot, error)
	Undo(ctx context.Context, id string) (bool, *gobang.Snapshot, error)
	View(id string) (*gobang.Snapshot, error)
	Save(ctx context.Context, id string) error
	DeleteGame(ctx context.Context, id string) error
}

type handler func(ctx context.Context, gameID string, args []string) error

// Server drives one game from line commands and renders it as text.
type Server struct {
	logger *slog.Logger
	uGame  uGame

	in  io.Reader
	out io.Writer

	handlers map[string]handler
}

func New(logger *slog.Logger, uGame uGame, in io.Reader, out io.Writer) *Server {
	server := &Server{
		logger: logger.With("component", "console"),
		uGame:  uGame,
		in:     in,
		out:    out,

		handlers: make(map[string]handler),
	}

	server.handlers["new"] = server.handleNewGame
	server.handlers["start"] = server.handleBeginPlay
	server.handlers["undo"] = server.handleUndo
	server.handlers["move"] = server.handleMove
	server.handlers["tap"] = server.handleTap
	server.handlers["show"] = server.handleShow
	server.handlers["save"] = server.handleSave
	server.handlers["delete"] = server.handleDelete
	server.handlers["help"] = server.handleHelp
	server.handlers["quit"] = server.handleQuit

	return server
}

// Start - opens the game and processes commands until quit, end of input
// or ctx is canceled.
func (that *Server) Start(ctx context.Context, gameID string) error {
	log := that.logger.With("method", "Start", "gameID", gameID)

	view, err := that.uGame.OpenGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to open game: %w", err)
	}

	that.render(view)

	lines := make(chan string)
	readErr := make(chan error, 1)

	// readErr always receives exactly one value before lines is closed
	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(that.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("console stopped", "reason", ctx.Err())
			return nil
		case line, ok := <-lines:
			if !ok {
				if err = <-readErr; err != nil {
					return fmt.Errorf("failed to read command: %w", err)
				}
				log.Info("console stopped", "reason", "end of input")
				return nil
			}

			if err = that.handleLine(ctx, gameID, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				log.Error("error processing command", "command", line, "error", err)
			}
		}
	}
}

func (that *Server) handleLine(ctx context.Context, gameID, line string) error {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil
	}

	handle, ok := that.handlers[fields[0]]
	if !ok {
		that.printf("unknown command %q, type help\n", fields[0])
		return nil
	}

	return handle(ctx, gameID, fields[1:])
}

func (that *Server) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(that.out, format, args...); err != nil {
		that.logger.Error("failed to write output", "error", err)
	}
}
