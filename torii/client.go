// Package torii reads game state from the Torii GraphQL indexer. It is the
// planner's only upstream: every planning call starts from a snapshot
// fetched here, and the snapshot is advisory: the chain remains the source
// of truth.
package torii

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashfront/autoplay/model"
)

// Maps are a fixed 20x20 on chain.
const (
	mapWidth  = 20
	mapHeight = 20
)

// Client queries the Torii indexer over HTTP.
type Client struct {
	url     string
	http    *http.Client
	terrain *TerrainCache
}

// NewClient returns a client for the given GraphQL endpoint. The terrain
// cache must be shared across clients of the same endpoint.
func NewClient(url string, cache *TerrainCache) *Client {
	return &Client{
		url:     url,
		http:    &http.Client{Timeout: 15 * time.Second},
		terrain: cache,
	}
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type connection[T any] struct {
	TotalCount int      `json:"totalCount"`
	PageInfo   pageInfo `json:"pageInfo"`
	Edges      []struct {
		Node T `json:"node"`
	} `json:"edges"`
}

func nodes[T any](c connection[T]) []T {
	out := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		out = append(out, e.Node)
	}
	return out
}

// query posts a GraphQL query and decodes the data payload into out.
func (c *Client) query(ctx context.Context, q string, out any) error {
	body, err := json.Marshal(map[string]string{"query": q})
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("torii request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("torii status %d: %s", resp.StatusCode, b)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("torii error: %s", envelope.Errors[0].Message)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// GameTurn is a lightweight poll: current player, round and state without
// fetching units.
func (c *Client) GameTurn(ctx context.Context, gameID int) (player, round int, state string, err error) {
	var data struct {
		Games connection[model.GameInfo] `json:"hashfrontGameModels"`
	}
	q := fmt.Sprintf(`{
		hashfrontGameModels(where: {game_idEQ: %d}) {
			edges { node { current_player round state } }
		}
	}`, gameID)
	if err = c.query(ctx, q, &data); err != nil {
		return 0, 0, "", err
	}
	games := nodes(data.Games)
	if len(games) == 0 {
		return 0, 0, "Unknown", nil
	}
	return games[0].CurrentPlayer, games[0].Round, games[0].State, nil
}

// GameState fetches the full battle snapshot for a game. Terrain comes
// from the injected cache, fetched once per map id.
func (c *Client) GameState(ctx context.Context, gameID int) (*model.GameState, error) {
	var data struct {
		Games     connection[model.GameInfo] `json:"hashfrontGameModels"`
		Units     connection[model.Unit]     `json:"hashfrontUnitModels"`
		Buildings connection[model.Building] `json:"hashfrontBuildingModels"`
	}
	q := fmt.Sprintf(`{
		hashfrontGameModels(where: {game_idEQ: %d}) {
			edges { node {
				game_id name state current_player round map_id winner player_count
			} }
		}
		hashfrontUnitModels(where: {game_idEQ: %d}, first: 50) {
			edges { node {
				unit_id player_id unit_type x y hp is_alive last_moved_round last_acted_round
			} }
		}
		hashfrontBuildingModels(where: {game_idEQ: %d}, first: 20) {
			edges { node {
				x y building_type player_id capture_progress
			} }
		}
	}`, gameID, gameID, gameID)
	if err := c.query(ctx, q, &data); err != nil {
		return nil, err
	}

	games := nodes(data.Games)
	if len(games) == 0 {
		return nil, fmt.Errorf("game %d not found", gameID)
	}

	grid, err := c.Terrain(ctx, games[0].MapID)
	if err != nil {
		return nil, err
	}

	return &model.GameState{
		Info:      games[0],
		Units:     nodes(data.Units),
		Buildings: nodes(data.Buildings),
		Grid:      grid,
	}, nil
}

// Terrain returns the grid for a map, fetching and caching it on first use.
func (c *Client) Terrain(ctx context.Context, mapID int) (*model.Grid, error) {
	if g, ok := c.terrain.Get(mapID); ok {
		return g, nil
	}

	grid := model.NewGrid(mapWidth, mapHeight) // all grass by default

	type tileNode struct {
		X        int    `json:"x"`
		Y        int    `json:"y"`
		TileType string `json:"tile_type"`
	}

	// Non-grass tiles, paginated.
	cursor := ""
	nonGrass := 0
	for {
		after := ""
		if cursor != "" {
			after = fmt.Sprintf(`, after: %q`, cursor)
		}
		var data struct {
			Tiles connection[tileNode] `json:"hashfrontMapTileModels"`
		}
		q := fmt.Sprintf(`{
			hashfrontMapTileModels(where: {map_idEQ: %d}, first: 200%s) {
				totalCount
				pageInfo { hasNextPage endCursor }
				edges { node { x y tile_type } }
			}
		}`, mapID, after)
		if err := c.query(ctx, q, &data); err != nil {
			return nil, fmt.Errorf("fetch terrain for map %d: %w", mapID, err)
		}

		for _, t := range nodes(data.Tiles) {
			tt, ok := model.TerrainNames[t.TileType]
			if !ok {
				continue
			}
			grid.Set(model.Position{X: t.X, Y: t.Y}, tt)
			if tt != model.Grass {
				nonGrass++
			}
		}
		if !data.Tiles.PageInfo.HasNextPage {
			break
		}
		cursor = data.Tiles.PageInfo.EndCursor
	}

	c.terrain.Put(mapID, grid)
	slog.Info("terrain cached", "map", mapID, "nonGrassTiles", nonGrass)
	return grid, nil
}

// GameCounter returns the current game counter; the next created game gets
// counter + 1.
func (c *Client) GameCounter(ctx context.Context) (int, error) {
	var data struct {
		Counters connection[struct {
			Count int `json:"count"`
		}] `json:"hashfrontGameCounterModels"`
	}
	if err := c.query(ctx, `{ hashfrontGameCounterModels { edges { node { count } } } }`, &data); err != nil {
		return 0, err
	}
	counters := nodes(data.Counters)
	if len(counters) == 0 {
		return 0, nil
	}
	return counters[0].Count, nil
}

// PlayerState pairs a seat with the controlling wallet address.
type PlayerState struct {
	PlayerID int    `json:"player_id"`
	Address  string `json:"address"`
}

// PlayerStates lists the seats of a game.
func (c *Client) PlayerStates(ctx context.Context, gameID int) ([]PlayerState, error) {
	var data struct {
		Players connection[PlayerState] `json:"hashfrontPlayerStateModels"`
	}
	q := fmt.Sprintf(`{hashfrontPlayerStateModels(where:{game_idEQ:%d}, first:10){edges{node{player_id address}}}}`, gameID)
	if err := c.query(ctx, q, &data); err != nil {
		return nil, err
	}
	return nodes(data.Players), nil
}

// MapIDs returns all available map ids, deduped by name keeping the
// highest id per name (maps are re-uploaded under the same name).
func (c *Client) MapIDs(ctx context.Context) ([]int, error) {
	var data struct {
		Maps connection[struct {
			MapID int    `json:"map_id"`
			Name  string `json:"name"`
		}] `json:"hashfrontMapInfoModels"`
	}
	q := `{
		hashfrontMapInfoModels(first: 50) {
			edges { node { map_id name } }
		}
	}`
	if err := c.query(ctx, q, &data); err != nil {
		return nil, err
	}

	byName := make(map[string]int)
	for _, m := range nodes(data.Maps) {
		if id, ok := byName[m.Name]; !ok || m.MapID > id {
			byName[m.Name] = m.MapID
		}
	}
	out := make([]int, 0, len(byName))
	for _, id := range byName {
		out = append(out, id)
	}
	return out, nil
}

// AllGames fetches every game, newest first.
func (c *Client) AllGames(ctx context.Context) ([]model.GameInfo, error) {
	var data struct {
		Games connection[model.GameInfo] `json:"hashfrontGameModels"`
	}
	q := `{
		hashfrontGameModels(first: 50, order: {field: GAME_ID, direction: DESC}) {
			edges { node { game_id name state current_player round map_id winner } }
		}
	}`
	if err := c.query(ctx, q, &data); err != nil {
		return nil, err
	}
	return nodes(data.Games), nil
}

// ActiveGames lists games currently in the Playing state.
func (c *Client) ActiveGames(ctx context.Context) ([]model.GameInfo, error) {
	games, err := c.AllGames(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.GameInfo
	for _, g := range games {
		if g.State == model.StatePlaying {
			out = append(out, g)
		}
	}
	return out, nil
}
