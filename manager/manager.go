// Package manager runs the self-play loop: it keeps a pool of concurrent
// games alive, plays both sides of bot games, plays one side of games a
// human has joined, and tracks win/loss statistics.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashfront/autoplay/config"
	"github.com/hashfront/autoplay/executor"
	"github.com/hashfront/autoplay/model"
	"github.com/hashfront/autoplay/planner"
	"github.com/hashfront/autoplay/torii"
)

// Stats is a snapshot of the manager's counters, safe to serialize.
type Stats struct {
	ActiveGames   int `json:"active_games"`
	HumanGames    int `json:"human_games"`
	GamesCreated  int `json:"games_created"`
	TurnsPlayed   int `json:"turns_played"`
	GamesFinished int `json:"games_finished"`
	P1Wins        int `json:"p1_wins"`
	P2Wins        int `json:"p2_wins"`
	Errors        int `json:"errors"`
}

// GameManager owns the set of games the bot is responsible for.
type GameManager struct {
	cfg    *config.Config
	client *torii.Client
	exec   *executor.Executor
	plan   *planner.Planner
	rng    *rand.Rand

	availableMaps []int
	activeGames   map[int]bool
	humanGames    map[int]int // game id -> bot's seat
	errorCounts   map[int]int
	nameIdx       int

	mu    sync.Mutex
	stats Stats
}

// New wires a manager from its collaborators.
func New(cfg *config.Config, client *torii.Client, exec *executor.Executor, plan *planner.Planner) *GameManager {
	return &GameManager{
		cfg:         cfg,
		client:      client,
		exec:        exec,
		plan:        plan,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		activeGames: make(map[int]bool),
		humanGames:  make(map[int]int),
		errorCounts: make(map[int]int),
	}
}

// Stats returns a copy of the current counters.
func (m *GameManager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.ActiveGames = len(m.activeGames)
	s.HumanGames = len(m.humanGames)
	return s
}

func (m *GameManager) bump(f func(*Stats)) {
	m.mu.Lock()
	f(&m.stats)
	m.mu.Unlock()
}

// Run ticks the manager until the context is cancelled.
func (m *GameManager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.TickInterval.Std())
	defer ticker.Stop()
	for {
		m.Tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Tick performs one iteration: discover games, keep an open lobby for
// humans, top up the self-play pool, then play every game that is waiting
// on us.
func (m *GameManager) Tick(ctx context.Context) {
	m.discoverGames(ctx)
	m.ensureOpenGame(ctx)

	for len(m.activeGames) < m.cfg.MaxGames {
		if !m.createGame(ctx) {
			break
		}
	}

	for _, gameID := range sortedIDs(m.activeGames) {
		done, err := m.processGame(ctx, gameID, 0)
		if err != nil {
			slog.Error("game error", "game", gameID, "error", err)
			m.bump(func(s *Stats) { s.Errors++ })
			continue
		}
		if done {
			delete(m.activeGames, gameID)
		}
	}

	for gameID, botSeat := range m.humanGames {
		done, err := m.processGame(ctx, gameID, botSeat)
		if err != nil {
			slog.Error("game error", "game", gameID, "error", err)
			m.bump(func(s *Stats) { s.Errors++ })
			continue
		}
		if done {
			delete(m.humanGames, gameID)
		}
	}

	m.logStats()
}

// sortedIDs keeps per-tick processing order stable for readable logs.
func sortedIDs(set map[int]bool) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// discoverGames finds playing games we are not tracking yet. Open games a
// human joined are played single-sided from the bot's seat.
func (m *GameManager) discoverGames(ctx context.Context) {
	games, err := m.client.ActiveGames(ctx)
	if err != nil {
		slog.Error("failed to discover games", "error", err)
		return
	}
	for _, g := range games {
		if m.activeGames[g.GameID] || m.humanGames[g.GameID] != 0 {
			continue
		}
		if strings.HasPrefix(g.Name, m.cfg.OpenGamePrefix) {
			seat := m.detectBotSeat(ctx, g.GameID)
			if seat == 0 {
				slog.Warn("open game has no bot seat", "game", g.GameID)
				continue
			}
			m.humanGames[g.GameID] = seat
			slog.Info("human game joined", "game", g.GameID, "name", g.Name, "botSeat", seat)
		} else {
			m.activeGames[g.GameID] = true
			slog.Info("discovered active game", "game", g.GameID, "name", g.Name, "round", g.Round)
		}
	}
}

// detectBotSeat returns the bot's player id in a game, or 0 when the bot
// holds no seat or holds both.
func (m *GameManager) detectBotSeat(ctx context.Context, gameID int) int {
	players, err := m.client.PlayerStates(ctx, gameID)
	if err != nil {
		slog.Error("failed to detect bot seat", "game", gameID, "error", err)
		return 0
	}
	botAddr := strings.ToLower(m.cfg.BotAddress)
	for _, p := range players {
		if strings.ToLower(p.Address) != botAddr {
			continue
		}
		for _, other := range players {
			if other.PlayerID != p.PlayerID && strings.ToLower(other.Address) != botAddr {
				return p.PlayerID
			}
		}
	}
	return 0
}

// ensureOpenGame keeps exactly one open lobby game available for humans.
func (m *GameManager) ensureOpenGame(ctx context.Context) {
	games, err := m.client.AllGames(ctx)
	if err != nil {
		slog.Error("failed to list games", "error", err)
		return
	}
	for _, g := range games {
		if g.State == model.StateLobby && strings.HasPrefix(g.Name, m.cfg.OpenGamePrefix) {
			return
		}
	}

	base := m.cfg.OpenGameNames[m.rng.Intn(len(m.cfg.OpenGameNames))]
	name := fmt.Sprintf("%s_%d", base, 100+m.rng.Intn(900))
	mapID := m.randomMap(ctx)
	slog.Info("creating open game", "name", name, "map", mapID)
	res := m.exec.CreateGame(ctx, name, mapID)
	if res.Status != "success" {
		slog.Error("failed to create open game", "error", res.Message)
		return
	}
	time.Sleep(m.cfg.TxWait.Std())
	gameID, err := m.client.GameCounter(ctx)
	if err != nil {
		slog.Error("failed to fetch game counter", "error", err)
		return
	}
	slog.Info("open game waiting for a challenger", "game", gameID, "name", name)
}

// randomMap picks a random map, lazily discovering the available set.
func (m *GameManager) randomMap(ctx context.Context) int {
	if len(m.availableMaps) == 0 {
		maps, err := m.client.MapIDs(ctx)
		if err != nil {
			slog.Error("failed to fetch maps", "error", err)
			return m.cfg.MapID
		}
		m.availableMaps = maps
		slog.Info("maps loaded", "count", len(maps))
	}
	if len(m.availableMaps) == 0 {
		return m.cfg.MapID
	}
	return m.availableMaps[m.rng.Intn(len(m.availableMaps))]
}

// createGame starts a new self-play game: create as P1, join as P2.
func (m *GameManager) createGame(ctx context.Context) bool {
	base := m.cfg.GameNames[m.nameIdx%len(m.cfg.GameNames)]
	m.nameIdx++
	name := fmt.Sprintf("%s_%d", base, 100+m.rng.Intn(900))

	mapID := m.randomMap(ctx)
	slog.Info("creating game", "name", name, "map", mapID)
	if res := m.exec.CreateGame(ctx, name, mapID); res.Status != "success" {
		slog.Error("failed to create game", "error", res.Message)
		return false
	}
	time.Sleep(m.cfg.TxWait.Std())

	gameID, err := m.client.GameCounter(ctx)
	if err != nil {
		slog.Error("failed to fetch game counter", "error", err)
		return false
	}

	slog.Info("joining game as P2", "game", gameID)
	if res := m.exec.JoinGame(ctx, gameID, 2); res.Status != "success" {
		slog.Error("failed to join game", "game", gameID, "error", res.Message)
		return false
	}
	time.Sleep(m.cfg.TxWait.Std())

	m.activeGames[gameID] = true
	m.bump(func(s *Stats) { s.GamesCreated++ })
	slog.Info("game ready", "game", gameID, "map", mapID)
	return true
}

// processGame plays one game's pending turn. onlySeat restricts the bot to
// its own seat in games against humans; 0 means play both sides. The bool
// result is true once the game is over.
func (m *GameManager) processGame(ctx context.Context, gameID, onlySeat int) (bool, error) {
	gs, err := m.client.GameState(ctx, gameID)
	if err != nil {
		return false, err
	}

	switch gs.Info.State {
	case model.StateFinished:
		slog.Info("game finished", "game", gameID, "winner", gs.Info.Winner, "round", gs.Info.Round)
		m.bump(func(s *Stats) {
			s.GamesFinished++
			switch gs.Info.Winner {
			case 1:
				s.P1Wins++
			case 2:
				s.P2Wins++
			}
		})
		return true, nil
	case model.StatePlaying:
	default:
		return false, nil
	}

	player := gs.Info.CurrentPlayer
	if onlySeat != 0 && player != onlySeat {
		return false, nil // human's turn
	}
	label := fmt.Sprintf("[GAME %d] R%d P%d", gameID, gs.Info.Round, player)

	myUnits := gs.AliveUnits(player)
	if len(myUnits) == 0 {
		// Nothing left to command; pass so the winning side can close out.
		slog.Info("no units, ending turn", "game", gameID, "player", player)
		m.exec.ExecuteTurn(ctx, gameID, []planner.Action{planner.EndTurn{}}, label)
		m.bump(func(s *Stats) { s.TurnsPlayed++ })
		return false, nil
	}

	actions := m.plan.PlanTurn(gs, player)
	moves, attacks, captures := countActions(actions)
	slog.Info("turn planned",
		"game", gameID, "round", gs.Info.Round, "player", player,
		"units", len(myUnits), "enemies", len(gs.EnemyUnits(player)),
		"moves", moves, "attacks", attacks, "captures", captures)

	res := m.exec.ExecuteTurn(ctx, gameID, actions, label)
	m.bump(func(s *Stats) { s.TurnsPlayed++ })

	if res.Status == "error" {
		m.bump(func(s *Stats) { s.Errors++ })
		m.errorCounts[gameID]++

		if strings.Contains(res.Message, "Game not playing") {
			slog.Info("game ended during execution", "game", gameID)
			return true, nil
		}
		if m.errorCounts[gameID] >= 3 {
			slog.Warn("too many consecutive errors, resigning", "game", gameID, "errors", m.errorCounts[gameID])
			m.exec.Resign(ctx, gameID)
			m.errorCounts[gameID] = 0
			return true, nil
		}
		if strings.Contains(res.Message, "multicall-failed") {
			slog.Warn("multicall failed, will retry", "game", gameID, "attempt", m.errorCounts[gameID])
		}
	} else {
		m.errorCounts[gameID] = 0
	}
	return false, nil
}

func countActions(actions []planner.Action) (moves, attacks, captures int) {
	for _, a := range actions {
		switch a.(type) {
		case planner.Move:
			moves++
		case planner.Attack:
			attacks++
		case planner.Capture:
			captures++
		}
	}
	return
}

func (m *GameManager) logStats() {
	s := m.Stats()
	slog.Info("stats",
		"selfPlay", s.ActiveGames, "vsHuman", s.HumanGames,
		"created", s.GamesCreated, "turns", s.TurnsPlayed,
		"finished", s.GamesFinished, "p1Wins", s.P1Wins, "p2Wins", s.P2Wins,
		"errors", s.Errors)
}
