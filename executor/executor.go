// Package executor turns planned actions into multicall transactions and
// submits them through the controller CLI. The planner's output is
// advisory: the chain enforces the rules and may reject any call.
package executor

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashfront/autoplay/planner"
)

// Call is a single multicall entry in the controller's JSON format.
type Call struct {
	ContractAddress string   `json:"contractAddress"`
	Entrypoint      string   `json:"entrypoint"`
	Calldata        []string `json:"calldata"`
}

// Result reports the outcome of a submitted transaction.
type Result struct {
	Status  string // "success", "error", "skip", "unknown"
	TxHash  string
	Message string
}

// Executor submits multicalls for one game contract.
type Executor struct {
	Contract string
	WorkDir  string        // where multicall files are written
	TxWait   time.Duration // indexer catch-up pause after success
	Timeout  time.Duration // per-submission CLI timeout
}

// New returns an executor with the standard timeouts.
func New(contract, workDir string) *Executor {
	return &Executor{
		Contract: contract,
		WorkDir:  workDir,
		TxWait:   2 * time.Second,
		Timeout:  45 * time.Second,
	}
}

// ActionsToCalls maps an action list to multicall entries. A Capture, if
// present, is reordered strictly last (capturing the HQ ends the match)
// and any EndTurn is dropped. Move paths are encoded in full.
func (e *Executor) ActionsToCalls(gameID int, actions []planner.Action) []Call {
	hasCapture := planner.HasCapture(actions)
	gid := strconv.Itoa(gameID)

	var calls []Call
	var captures []Call
	for _, action := range actions {
		switch a := action.(type) {
		case planner.Move:
			calldata := []string{gid, strconv.Itoa(a.UnitID), strconv.Itoa(len(a.Path))}
			for _, p := range a.Path {
				calldata = append(calldata, strconv.Itoa(p.X), strconv.Itoa(p.Y))
			}
			calls = append(calls, Call{e.Contract, "move_unit", calldata})

		case planner.Attack:
			calls = append(calls, Call{e.Contract, "attack", []string{gid, strconv.Itoa(a.UnitID), strconv.Itoa(a.TargetID)}})

		case planner.Capture:
			captures = append(captures, Call{e.Contract, "capture", []string{gid, strconv.Itoa(a.UnitID)}})

		case planner.Wait:
			// No on-chain wait entrypoint; a unit that does nothing
			// simply isn't commanded.

		case planner.EndTurn:
			if !hasCapture {
				calls = append(calls, Call{e.Contract, "end_turn", []string{gid}})
			}
		}
	}
	return append(calls, captures...)
}

// ExecuteTurn submits a full planned turn.
func (e *Executor) ExecuteTurn(ctx context.Context, gameID int, actions []planner.Action, label string) Result {
	res := e.Execute(ctx, e.ActionsToCalls(gameID, actions), label)
	if res.Status == "success" {
		time.Sleep(e.TxWait) // let the indexer catch up
	}
	return res
}

// Execute writes the calls to a multicall file and submits it via the
// controller CLI.
func (e *Executor) Execute(ctx context.Context, calls []Call, label string) Result {
	if len(calls) == 0 {
		return Result{Status: "skip", Message: "no calls"}
	}

	if err := os.MkdirAll(e.WorkDir, 0o755); err != nil {
		return Result{Status: "error", Message: err.Error()}
	}
	path := filepath.Join(e.WorkDir, "_turn.json")
	payload, err := json.MarshalIndent(map[string][]Call{"calls": calls}, "", "  ")
	if err != nil {
		return Result{Status: "error", Message: err.Error()}
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return Result{Status: "error", Message: err.Error()}
	}

	slog.Info("executing calls", "count", len(calls), "label", label)

	cctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()
	cmd := exec.CommandContext(cctx, "controller", "execute", "--file", path, "--json")
	out, runErr := cmd.CombinedOutput()
	if cctx.Err() == context.DeadlineExceeded {
		slog.Error("transaction timed out", "label", label)
		return Result{Status: "error", Message: "timeout"}
	}

	// The controller interleaves several JSON objects on stdout/stderr;
	// the last status object wins.
	objects := extractJSONObjects(string(out))
	for i := len(objects) - 1; i >= 0; i-- {
		var data struct {
			Status  string `json:"status"`
			Message string `json:"message"`
			Data    struct {
				TransactionHash string `json:"transaction_hash"`
			} `json:"data"`
		}
		if err := json.Unmarshal([]byte(objects[i]), &data); err != nil {
			continue
		}
		switch data.Status {
		case "success":
			slog.Info("tx submitted", "tx", truncate(data.Data.TransactionHash, 18), "label", label)
			return Result{Status: "success", TxHash: data.Data.TransactionHash}
		case "error":
			slog.Error("tx failed", "label", label, "error", truncate(data.Message, 200))
			return Result{Status: "error", Message: data.Message}
		}
	}

	if runErr != nil {
		slog.Error("controller error", "label", label, "output", truncate(string(out), 200))
		return Result{Status: "error", Message: truncate(string(out), 200)}
	}
	return Result{Status: "unknown", Message: truncate(string(out), 200)}
}

// extractJSONObjects scans mixed CLI output for balanced top-level JSON
// objects.
func extractJSONObjects(s string) []string {
	var out []string
	depth, start := 0, -1
	for i, ch := range s {
		switch ch {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					candidate := s[start : i+1]
					if json.Valid([]byte(candidate)) {
						out = append(out, candidate)
					}
					start = -1
				}
			}
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// EncodeGameName encodes a short name as ByteArray calldata:
// num_full_words, pending_word_hex, pending_len. Names are at most 31
// characters, so there is never a full word.
func EncodeGameName(name string) []string {
	return []string{"0", "0x" + hex.EncodeToString([]byte(name)), strconv.Itoa(len(name))}
}

// CreateGame creates a new game in test mode as player 1.
func (e *Executor) CreateGame(ctx context.Context, name string, mapID int) Result {
	calldata := append(EncodeGameName(name), strconv.Itoa(mapID), "1", "1")
	return e.Execute(ctx, []Call{{e.Contract, "create_game", calldata}}, fmt.Sprintf("[CREATE %s]", name))
}

// JoinGame joins an existing game as the given seat.
func (e *Executor) JoinGame(ctx context.Context, gameID, playerID int) Result {
	return e.Execute(ctx, []Call{{e.Contract, "join_game", []string{strconv.Itoa(gameID), strconv.Itoa(playerID)}}},
		fmt.Sprintf("[JOIN game %d as P%d]", gameID, playerID))
}

// Resign concedes a game.
func (e *Executor) Resign(ctx context.Context, gameID int) Result {
	return e.Execute(ctx, []Call{{e.Contract, "resign", []string{strconv.Itoa(gameID)}}},
		fmt.Sprintf("[GAME %d RESIGN]", gameID))
}
