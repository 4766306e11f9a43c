package ws_test

import (
	"sort"
	"testing"

	"github.com/fluent-freelance/messaging-service/internal/transport/ws"
)

func TestRoomsJoinLeave(t *testing.T) {
	rs := ws.NewRooms()

	rs.Join("conv-1", "a@x.com")
	rs.Join("conv-1", "b@x.com")
	rs.Join("conv-2", "a@x.com")

	got := rs.Members("conv-1")
	sort.Strings(got)
	if len(got) != 2 || got[0] != "a@x.com" || got[1] != "b@x.com" {
		t.Fatalf("members: got %v", got)
	}

	rs.Leave("conv-1", "a@x.com")
	if got := rs.Members("conv-1"); len(got) != 1 || got[0] != "b@x.com" {
		t.Fatalf("members after leave: got %v", got)
	}
}

func TestRoomsEmptyRoomIsPruned(t *testing.T) {
	rs := ws.NewRooms()

	rs.Join("conv-1", "a@x.com")
	rs.Leave("conv-1", "a@x.com")

	if rs.Len() != 0 {
		t.Fatalf("rooms: got %d, want 0", rs.Len())
	}
	if got := rs.Members("conv-1"); len(got) != 0 {
		t.Fatalf("members of pruned room: got %v", got)
	}
}

func TestRoomsUnknownRoom(t *testing.T) {
	rs := ws.NewRooms()

	if got := rs.Members("nope"); got != nil {
		t.Fatalf("unknown room members: got %v", got)
	}
	// leaving a room that never existed must not panic or create it
	rs.Leave("nope", "a@x.com")
	if rs.Len() != 0 {
		t.Fatalf("rooms: got %d", rs.Len())
	}
}

func TestRoomsJoinIdempotent(t *testing.T) {
	rs := ws.NewRooms()

	rs.Join("conv-1", "a@x.com")
	rs.Join("conv-1", "a@x.com")

	if got := rs.Members("conv-1"); len(got) != 1 {
		t.Fatalf("members: got %v", got)
	}
}
