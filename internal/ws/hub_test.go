package ws

import "testing"

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	hub.AddClient("u1", nil, ConnInfo{ConnID: "c1", UserID: "u1"})
	if hub.ConnCount("u1") != 1 {
		t.Fatalf("expected one connection for user")
	}

	hub.RemoveClient("u1", nil)
	if hub.ConnCount("u1") != 0 {
		t.Fatalf("expected connection to be removed")
	}
	if len(hub.clients) != 0 {
		t.Fatalf("expected empty user entry to be dropped")
	}
}

func TestHubTracksConnectionsPerUser(t *testing.T) {
	hub := NewHub()

	hub.AddClient("u1", nil, ConnInfo{ConnID: "c1", UserID: "u1"})
	hub.AddClient("u2", nil, ConnInfo{ConnID: "c2", UserID: "u2"})

	if len(hub.clients) != 2 {
		t.Fatalf("expected two users registered")
	}

	hub.RemoveClient("u2", nil)
	if hub.ConnCount("u1") != 1 {
		t.Fatalf("removing one user must not affect another")
	}
}

func TestNotifySkipsAbsentUsers(t *testing.T) {
	hub := NewHub()

	// Nobody is connected; this must be a silent no-op.
	hub.Notify([]string{"u1", "u2"}, "message", map[string]string{"k": "v"})
}

func TestRemoveClientUnknownUser(t *testing.T) {
	hub := NewHub()
	hub.RemoveClient("ghost", nil)
}
