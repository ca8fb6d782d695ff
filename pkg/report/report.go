// Package report defines the serializable outcome of a solve run.
// It is what adapters print, return over HTTP/MCP, and cache in result stores.
package report

import (
	"fmt"
	"strings"

	"github.com/aretw0/lockstep/pkg/cycle"
	"github.com/aretw0/lockstep/pkg/synchronizer"
)

// Mode selects which questions a run answers.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
	ModeBoth   Mode = "both"
)

// ParseMode validates a user supplied mode. Empty means ModeBoth.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeBoth, nil
	case ModeSingle, ModeMulti, ModeBoth:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want single, multi or both)", s)
	}
}

// Includes reports whether m asks for other.
func (m Mode) Includes(other Mode) bool {
	return m == other || m == ModeBoth
}

// SingleAnswer is the step count of one token from Start to Goal.
type SingleAnswer struct {
	Start string `json:"start"`
	Goal  string `json:"goal"`
	Steps int    `json:"steps"`
}

// MultiAnswer is the synchronization step of every matching token.
type MultiAnswer struct {
	StartSuffix string              `json:"start_suffix"`
	GoalSuffix  string              `json:"goal_suffix"`
	Steps       int                 `json:"steps"`
	Method      synchronizer.Method `json:"method"`
	Tokens      []cycle.Record      `json:"tokens"`
}

// Failure records a mode that could not be answered.
type Failure struct {
	Mode  Mode   `json:"mode"`
	Error string `json:"error"`
}

// Report is the outcome of a run.
type Report struct {
	Digest       string        `json:"digest"`
	Mode         Mode          `json:"mode"`
	Nodes        int           `json:"nodes"`
	Instructions int           `json:"instructions"`
	Single       *SingleAnswer `json:"single,omitempty"`
	Multi        *MultiAnswer  `json:"multi,omitempty"`
	Failures     []Failure     `json:"failures,omitempty"`
	Cached       bool          `json:"cached,omitempty"`
	// Sealed holds the encrypted report when it was stored through an encrypting store.
	Sealed string `json:"sealed,omitempty"`
}

// OK reports whether every requested mode was answered.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}
