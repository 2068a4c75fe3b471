package entity

import (
	"errors"
	"fmt"
)

// Phase is the state of a game round.
type Phase string

const (
	PhaseReady    Phase = "ready"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// Persistence codes for phases.
const (
	PhaseCodePlaying  = 0
	PhaseCodeFinished = 1
	PhaseCodeReady    = 2
)

var ErrUnknownPhaseCode = errors.New("unknown phase code")

func (that Phase) Code() int {
	switch that {
	case PhasePlaying:
		return PhaseCodePlaying
	case PhaseFinished:
		return PhaseCodeFinished
	default:
		return PhaseCodeReady
	}
}

func PhaseFromCode(code int) (Phase, error) {
	switch code {
	case PhaseCodePlaying:
		return PhasePlaying, nil
	case PhaseCodeFinished:
		return PhaseFinished, nil
	case PhaseCodeReady:
		return PhaseReady, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownPhaseCode, code)
	}
}
