package torii

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hashfront/autoplay/model"
)

// graphqlStub answers each POST by matching a substring of the query.
func graphqlStub(t *testing.T, responses map[string]string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		for needle, body := range responses {
			if strings.Contains(req.Query, needle) {
				w.Write([]byte(body))
				return
			}
		}
		t.Errorf("unmatched query: %s", req.Query)
		w.Write([]byte(`{"data":{}}`))
	}))
}

func TestGameTurn(t *testing.T) {
	srv := graphqlStub(t, map[string]string{
		"hashfrontGameModels": `{"data":{"hashfrontGameModels":{"edges":[
			{"node":{"current_player":2,"round":7,"state":"Playing"}}
		]}}}`,
	}, nil)
	defer srv.Close()

	c := NewClient(srv.URL, NewTerrainCache())
	player, round, state, err := c.GameTurn(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if player != 2 || round != 7 || state != "Playing" {
		t.Errorf("got P%d R%d %s, want P2 R7 Playing", player, round, state)
	}
}

func TestGameTurnUnknownGame(t *testing.T) {
	srv := graphqlStub(t, map[string]string{
		"hashfrontGameModels": `{"data":{"hashfrontGameModels":{"edges":[]}}}`,
	}, nil)
	defer srv.Close()

	c := NewClient(srv.URL, NewTerrainCache())
	_, _, state, err := c.GameTurn(context.Background(), 99)
	if err != nil {
		t.Fatal(err)
	}
	if state != "Unknown" {
		t.Errorf("state = %q, want Unknown", state)
	}
}

func TestGraphQLErrorSurfaces(t *testing.T) {
	srv := graphqlStub(t, map[string]string{
		"hashfrontGameModels": `{"errors":[{"message":"boom"}]}`,
	}, nil)
	defer srv.Close()

	c := NewClient(srv.URL, NewTerrainCache())
	if _, _, _, err := c.GameTurn(context.Background(), 1); err == nil {
		t.Error("GraphQL errors must be returned to the caller")
	}
}

func TestTerrainFetchAndCache(t *testing.T) {
	var hits atomic.Int64
	srv := graphqlStub(t, map[string]string{
		"hashfrontMapTileModels": `{"data":{"hashfrontMapTileModels":{
			"totalCount":2,
			"pageInfo":{"hasNextPage":false,"endCursor":""},
			"edges":[
				{"node":{"x":3,"y":4,"tile_type":"Mountain"}},
				{"node":{"x":0,"y":0,"tile_type":"HQ"}}
			]}}}`,
	}, &hits)
	defer srv.Close()

	cache := NewTerrainCache()
	c := NewClient(srv.URL, cache)

	grid, err := c.Terrain(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if grid.Width != 20 || grid.Height != 20 {
		t.Fatalf("grid %dx%d, want 20x20", grid.Width, grid.Height)
	}
	if got := grid.At(model.Position{X: 3, Y: 4}); got != model.Mountain {
		t.Errorf("tile (3,4) = %d, want Mountain", got)
	}
	if got := grid.At(model.Position{X: 0, Y: 0}); got != model.HQTile {
		t.Errorf("tile (0,0) = %d, want HQ", got)
	}
	if got := grid.At(model.Position{X: 10, Y: 10}); got != model.Grass {
		t.Errorf("unlisted tile = %d, want Grass", got)
	}

	// Second fetch is served from the cache.
	before := hits.Load()
	if _, err := c.Terrain(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != before {
		t.Error("cached terrain refetched from the indexer")
	}

	cache.Invalidate(3)
	if _, err := c.Terrain(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	if hits.Load() == before {
		t.Error("invalidated terrain not refetched")
	}
}

func TestGameCounter(t *testing.T) {
	srv := graphqlStub(t, map[string]string{
		"hashfrontGameCounterModels": `{"data":{"hashfrontGameCounterModels":{"edges":[{"node":{"count":17}}]}}}`,
	}, nil)
	defer srv.Close()

	c := NewClient(srv.URL, NewTerrainCache())
	n, err := c.GameCounter(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 17 {
		t.Errorf("counter = %d, want 17", n)
	}
}

func TestMapIDsDedupeByName(t *testing.T) {
	srv := graphqlStub(t, map[string]string{
		"hashfrontMapInfoModels": `{"data":{"hashfrontMapInfoModels":{"edges":[
			{"node":{"map_id":1,"name":"bridgehead"}},
			{"node":{"map_id":4,"name":"bridgehead"}},
			{"node":{"map_id":2,"name":"crossing"}}
		]}}}`,
	}, nil)
	defer srv.Close()

	c := NewClient(srv.URL, NewTerrainCache())
	ids, err := c.MapIDs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d map ids, want 2: %v", len(ids), ids)
	}
	seen := map[int]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[4] || !seen[2] || seen[1] {
		t.Errorf("ids = %v, want the highest id per name", ids)
	}
}

func TestActiveGamesFilters(t *testing.T) {
	srv := graphqlStub(t, map[string]string{
		"hashfrontGameModels": `{"data":{"hashfrontGameModels":{"edges":[
			{"node":{"game_id":3,"name":"BOT_ARENA_01_123","state":"Playing","round":4}},
			{"node":{"game_id":2,"name":"OPEN_WAR_456","state":"Lobby","round":0}},
			{"node":{"game_id":1,"name":"BOT_ARENA_02_789","state":"Finished","round":19}}
		]}}}`,
	}, nil)
	defer srv.Close()

	c := NewClient(srv.URL, NewTerrainCache())
	games, err := c.ActiveGames(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 1 || games[0].GameID != 3 {
		t.Errorf("active games = %v, want only game 3", games)
	}
}
