// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

// Access is what a protected view should do for a session state.
type Access int

const (
	// AccessWait means neither render nor redirect: the token is still
	// being checked.
	AccessWait Access = iota
	// AccessRedirect means send the user to the public landing screen.
	AccessRedirect
	// AccessAllow means render the protected view.
	AccessAllow
)

// String returns the access name.
func (a Access) String() string {
	switch a {
	case AccessWait:
		return "wait"
	case AccessRedirect:
		return "redirect"
	case AccessAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Guard maps a session state to the routing decision for protected views.
// Loading must never redirect, or a returning user with a good token would
// be bounced to the login screen before validation finishes.
func Guard(s State) Access {
	switch s.Status {
	case Authenticated:
		return AccessAllow
	case Loading:
		return AccessWait
	default:
		return AccessRedirect
	}
}
