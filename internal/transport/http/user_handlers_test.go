package http

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"
)

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func TestRegisterAndLogin(t *testing.T) {
	srv := startTestServer(t)

	resp := srv.do(t, http.MethodPost, "/api/auth/register", "",
		`{"username":"carol","email":"carol@example.com","password":"secret123"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d", resp.StatusCode)
	}
	var user UserResponse
	decodeBody(t, resp, &user)
	if user.Username != "carol" || user.ID == 0 {
		t.Fatalf("unexpected user: %+v", user)
	}

	resp = srv.do(t, http.MethodPost, "/api/auth/register", "",
		`{"username":"carol","email":"other@example.com","password":"secret123"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register status %d", resp.StatusCode)
	}

	resp = srv.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"carol","password":"wrong-pass"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status %d", resp.StatusCode)
	}

	resp = srv.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"carol","password":"secret123"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", resp.StatusCode)
	}
	var login LoginResponse
	decodeBody(t, resp, &login)
	if login.UserID != user.ID || login.Token == "" {
		t.Fatalf("unexpected login response: %+v", login)
	}

	me := srv.do(t, http.MethodGet, "/api/users/me", login.Token, "")
	var self UserResponse
	decodeBody(t, me, &self)
	if self.ID != user.ID || self.Email != "carol@example.com" {
		t.Fatalf("unexpected /me: %+v", self)
	}
}

func TestPresenceListing(t *testing.T) {
	srv := startTestServer(t)
	_, aliceToken := srv.registerUser(t, "alice")
	bobID, bobToken := srv.registerUser(t, "Bob")
	_, _ = srv.registerUser(t, "charlie")
	zedID, zedToken := srv.registerUser(t, "zed")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv.dialWS(t, ctx, zedToken)
	srv.dialWS(t, ctx, bobToken)
	waitFor(t, "bob and zed online", func() bool {
		return srv.tracker.IsOnline(bobID) && srv.tracker.IsOnline(zedID)
	})

	resp := srv.do(t, http.MethodGet, "/api/users/online", aliceToken, "")
	var online OnlineUsersResponse
	decodeBody(t, resp, &online)
	if len(online.UserIDs) != 2 || online.UserIDs[0] != bobID || online.UserIDs[1] != zedID {
		t.Fatalf("unexpected online ids: %+v", online.UserIDs)
	}

	resp = srv.do(t, http.MethodGet, "/api/users/presence", aliceToken, "")
	var listing []UserPresenceResponse
	decodeBody(t, resp, &listing)

	want := []struct {
		name   string
		online bool
	}{
		{"Bob", true},
		{"zed", true},
		{"charlie", false},
	}
	if len(listing) != len(want) {
		t.Fatalf("expected %d users, got %+v", len(want), listing)
	}
	for i, w := range want {
		if listing[i].Username != w.name || listing[i].Online != w.online {
			t.Fatalf("entry %d = %+v, want %s online=%v", i, listing[i], w.name, w.online)
		}
	}
}
