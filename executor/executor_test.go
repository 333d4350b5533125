package executor

import (
	"context"
	"reflect"
	"testing"

	"github.com/hashfront/autoplay/model"
	"github.com/hashfront/autoplay/planner"
)

func TestActionsToCallsMoveEncoding(t *testing.T) {
	e := New("0xabc", t.TempDir())
	actions := []planner.Action{
		planner.Move{UnitID: 3, Path: []model.Position{{X: 4, Y: 5}, {X: 4, Y: 6}}},
		planner.EndTurn{},
	}
	calls := e.ActionsToCalls(12, actions)
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	want := Call{
		ContractAddress: "0xabc",
		Entrypoint:      "move_unit",
		Calldata:        []string{"12", "3", "2", "4", "5", "4", "6"},
	}
	if !reflect.DeepEqual(calls[0], want) {
		t.Errorf("move call = %+v, want %+v", calls[0], want)
	}
	if calls[1].Entrypoint != "end_turn" || calls[1].Calldata[0] != "12" {
		t.Errorf("end_turn call = %+v", calls[1])
	}
}

func TestActionsToCallsCaptureLast(t *testing.T) {
	e := New("0xabc", t.TempDir())
	actions := []planner.Action{
		planner.Capture{UnitID: 7},
		planner.Move{UnitID: 2, Path: []model.Position{{X: 1, Y: 1}}},
		planner.Attack{UnitID: 2, TargetID: 9},
	}
	calls := e.ActionsToCalls(5, actions)
	if len(calls) != 3 {
		t.Fatalf("got %d calls, want 3", len(calls))
	}
	if last := calls[len(calls)-1]; last.Entrypoint != "capture" {
		t.Errorf("last call = %s, want capture", last.Entrypoint)
	}
	if calls[0].Entrypoint != "move_unit" || calls[1].Entrypoint != "attack" {
		t.Errorf("call order = [%s %s], want [move_unit attack]", calls[0].Entrypoint, calls[1].Entrypoint)
	}
}

func TestActionsToCallsDropsEndTurnWithCapture(t *testing.T) {
	e := New("0xabc", t.TempDir())
	actions := []planner.Action{
		planner.Move{UnitID: 1, Path: []model.Position{{X: 0, Y: 1}}},
		planner.Capture{UnitID: 1},
		planner.EndTurn{},
	}
	for _, c := range e.ActionsToCalls(3, actions) {
		if c.Entrypoint == "end_turn" {
			t.Error("end_turn must be dropped when a capture is present")
		}
	}
}

func TestActionsToCallsWaitIsLocal(t *testing.T) {
	e := New("0xabc", t.TempDir())
	calls := e.ActionsToCalls(3, []planner.Action{planner.Wait{UnitID: 4}, planner.EndTurn{}})
	if len(calls) != 1 || calls[0].Entrypoint != "end_turn" {
		t.Errorf("calls = %+v, want only end_turn", calls)
	}
}

func TestAttackCalldata(t *testing.T) {
	e := New("0xabc", t.TempDir())
	calls := e.ActionsToCalls(8, []planner.Action{planner.Attack{UnitID: 2, TargetID: 11}})
	want := []string{"8", "2", "11"}
	if !reflect.DeepEqual(calls[0].Calldata, want) {
		t.Errorf("attack calldata = %v, want %v", calls[0].Calldata, want)
	}
}

func TestEncodeGameName(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{"BOT_ARENA_01", []string{"0", "0x424f545f4152454e415f3031", "12"}},
		{"A", []string{"0", "0x41", "1"}},
	}
	for _, tc := range tests {
		if got := EncodeGameName(tc.name); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("EncodeGameName(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestExtractJSONObjects(t *testing.T) {
	out := `Submitting transaction...
{"status":"pending"}
some noise {not json}
{"status":"success","data":{"transaction_hash":"0x123"}}
done`
	objects := extractJSONObjects(out)
	if len(objects) != 2 {
		t.Fatalf("got %d objects, want 2: %v", len(objects), objects)
	}
	if objects[1] != `{"status":"success","data":{"transaction_hash":"0x123"}}` {
		t.Errorf("last object = %s", objects[1])
	}
}

func TestExtractJSONObjectsNested(t *testing.T) {
	out := `{"a":{"b":{"c":1}},"d":[1,2]}`
	objects := extractJSONObjects(out)
	if len(objects) != 1 || objects[0] != out {
		t.Errorf("objects = %v, want the single nested object", objects)
	}
}

func TestExecuteEmptyCallsSkips(t *testing.T) {
	e := New("0xabc", t.TempDir())
	res := e.Execute(context.Background(), nil, "test")
	if res.Status != "skip" {
		t.Errorf("status = %s, want skip", res.Status)
	}
}
