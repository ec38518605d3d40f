// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"testing"

	"github.com/jeranaias/sentinel-tui/internal/api"
)

func TestGuard(t *testing.T) {
	tests := []struct {
		state State
		want  Access
	}{
		{State{Status: Loading}, AccessWait},
		{State{Status: Unauthenticated}, AccessRedirect},
		{State{Status: Authenticated, User: &api.User{Username: "a"}}, AccessAllow},
		{State{Status: Status(42)}, AccessRedirect},
	}
	for _, tt := range tests {
		if got := Guard(tt.state); got != tt.want {
			t.Errorf("Guard(%s) = %s, want %s", tt.state.Status, got, tt.want)
		}
	}
}

func TestCmds(t *testing.T) {
	auth := newFakeAuth()
	auth.passwords["alice"] = "pw"
	m := NewManager(auth, NewMemoryTokenStore(""), nil)

	msg := InitCmd(m)()
	if sm, ok := msg.(StateMsg); !ok || sm.State.Status != Unauthenticated {
		t.Fatalf("InitCmd() = %#v, want StateMsg{Unauthenticated}", msg)
	}

	msg = LoginCmd(m, "alice", "nope")()
	em, ok := msg.(AuthErrorMsg)
	if !ok {
		t.Fatalf("LoginCmd(bad) = %#v, want AuthErrorMsg", msg)
	}
	if em.Op != "login" || !errors.Is(em.Err, api.ErrAuthenticationFailed) {
		t.Errorf("AuthErrorMsg = %+v", em)
	}

	msg = LoginCmd(m, "alice", "pw")()
	if sm, ok := msg.(StateMsg); !ok || sm.State.Status != Authenticated {
		t.Fatalf("LoginCmd() = %#v, want StateMsg{Authenticated}", msg)
	}

	msg = SignupCmd(m, "alice", "pw")()
	if em, ok := msg.(AuthErrorMsg); !ok || em.Op != "signup" {
		t.Fatalf("SignupCmd(duplicate) = %#v, want AuthErrorMsg", msg)
	}

	msg = LogoutCmd(m)()
	if sm, ok := msg.(StateMsg); !ok || sm.State.Status != Unauthenticated {
		t.Fatalf("LogoutCmd() = %#v, want StateMsg{Unauthenticated}", msg)
	}
}
