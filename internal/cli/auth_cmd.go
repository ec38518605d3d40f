// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - Session commands: login, signup, logout, whoami.
//
// Examples:
//   sentinel login analyst                      Prompt for the password
//   echo "$PW" | sentinel login analyst --password-stdin
//   sentinel signup analyst
//   sentinel whoami --json
//   sentinel logout

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/sentinel-tui/internal/session"
)

// HandleLogin exchanges credentials for a token and stores it.
func HandleLogin(ctx context.Context, env *Env) error {
	username, password, err := readCredentials(env, false)
	if err != nil {
		return err
	}

	resp, err := env.Session.Login(ctx, username, password)
	if err != nil {
		return err
	}

	data := SessionData{
		Status:   session.Authenticated.String(),
		Username: resp.User.Username,
		Server:   env.Client.BaseURL(),
	}
	return env.output("login", data, func() {
		fmt.Fprintf(env.IO.Out, "%s Logged in as %s\n", RenderStatus("ok"), ValueStyle.Render(resp.User.Username))
	})
}

// HandleSignup creates an account and logs in with it.
func HandleSignup(ctx context.Context, env *Env) error {
	username, password, err := readCredentials(env, true)
	if err != nil {
		return err
	}

	resp, err := env.Session.Signup(ctx, username, password)
	if err != nil {
		return err
	}

	data := SessionData{
		Status:   session.Authenticated.String(),
		Username: resp.User.Username,
		Server:   env.Client.BaseURL(),
	}
	return env.output("signup", data, func() {
		fmt.Fprintf(env.IO.Out, "%s Account created; logged in as %s\n", RenderStatus("ok"), ValueStyle.Render(resp.User.Username))
	})
}

// HandleLogout forgets the stored token. It never contacts the server.
func HandleLogout(env *Env) error {
	env.Session.Logout()

	data := SessionData{
		Status: session.Unauthenticated.String(),
		Server: env.Client.BaseURL(),
	}
	return env.output("logout", data, func() {
		fmt.Fprintf(env.IO.Out, "%s Logged out\n", RenderStatus("ok"))
	})
}

// HandleWhoami resolves the stored token to its user.
func HandleWhoami(ctx context.Context, env *Env) error {
	state, err := env.RequireSession(ctx, "GET /auth/me")
	if err != nil {
		return err
	}

	data := SessionData{
		Status:   state.Status.String(),
		Username: state.Username(),
		Server:   env.Client.BaseURL(),
	}
	return env.output("whoami", data, func() {
		fmt.Fprintln(env.IO.Out, TitleStyle.Render("Session"))
		fmt.Fprintf(env.IO.Out, "%s%s\n", RenderLabel("User:"), ValueStyle.Render(data.Username))
		fmt.Fprintf(env.IO.Out, "%s%s\n", RenderLabel("Server:"), ValueStyle.Render(data.Server))
		fmt.Fprintf(env.IO.Out, "%s%s\n", RenderLabel("Status:"), RenderStatus(data.Status))
	})
}

// readCredentials takes the username from the first positional argument or
// a prompt, and the password from stdin (--password-stdin) or the terminal.
// Interactive signup asks for the password twice.
func readCredentials(env *Env, confirm bool) (string, string, error) {
	p := env.Args.Parser()
	usage := fmt.Sprintf("sentinel %s <username>", env.Args.Name)

	username := p.Positional(0)
	fromStdin := p.BoolFlag("password-stdin")

	if username == "" {
		if fromStdin || !IsTTY() {
			return "", "", ErrMissingArgument("username", usage)
		}
		var err error
		username, err = promptLine(env.IO.Err, env.IO.In, "Username: ")
		if err != nil {
			return "", "", NewCommandError(env.Args.Name, "read username", "input error", err)
		}
	}
	if session.NormalizeUsername(username) == "" {
		return "", "", ErrMissingArgument("username", usage)
	}

	if fromStdin {
		password, err := readPasswordLine(env.IO.In)
		if err != nil {
			return "", "", err
		}
		if password == "" {
			return "", "", NewValidationError("password", "", "empty password on stdin")
		}
		return username, password, nil
	}

	password, err := readPassword(env.IO.Err, "Password: ")
	if err != nil {
		return "", "", err
	}
	if confirm {
		again, err := readPassword(env.IO.Err, "Confirm password: ")
		if err != nil {
			return "", "", err
		}
		if again != password {
			return "", "", NewValidationError("password", "", "passwords do not match")
		}
	}
	return username, password, nil
}
