// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdSignup
	CmdLogout
	CmdWhoami
	CmdEvents
	CmdExplain
	CmdStoryline
	CmdInvestigate
	CmdStats
	CmdUpload
	CmdClear
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandNames = map[Command]string{
	CmdTUI:         "tui",
	CmdLogin:       "login",
	CmdSignup:      "signup",
	CmdLogout:      "logout",
	CmdWhoami:      "whoami",
	CmdEvents:      "events",
	CmdExplain:     "explain",
	CmdStoryline:   "storyline",
	CmdInvestigate: "investigate",
	CmdStats:       "stats",
	CmdUpload:      "upload",
	CmdClear:       "clear",
	CmdConfig:      "config",
	CmdVersion:     "version",
	CmdHelp:        "help",
}

// String returns the command name as typed on the command line.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON    bool
	Verbose bool
	NoColor bool
	APIURL  string

	// Name is the command word as typed (for error messages).
	Name string

	// Raw holds the command's own arguments, after global flags are removed.
	Raw []string
}

// Parser returns an ArgParser over the command's own arguments.
func (a Args) Parser() *ArgParser {
	return NewArgParser(a.Raw)
}

const usageText = `sentinel - security event triage console

Usage:
  sentinel                        Start the TUI (default)
  sentinel tui                    Start the TUI

Session:
  sentinel login [username]       Sign in; the password is read without echo
    --password-stdin              Read the password from stdin
  sentinel signup [username]      Create an account and sign in
    --password-stdin              Read the password from stdin
  sentinel logout                 Forget the stored session
  sentinel whoami                 Show the signed-in analyst

Events:
  sentinel events                 List recent events
    --limit N                     Page size (default from config, 100)
    --offset N                    Skip the first N events
    --ip ADDR                     Only events from ADDR
    --type TYPE                   Only events of attack type TYPE
    --successful [true|false]     Only successful (or blocked) attempts
  sentinel explain <event-id>     Why an event was classified the way it was
  sentinel storyline <ip>         Every event from one source, oldest first
  sentinel investigate <event-id> Explanation and storyline together
    --ip ADDR                     Narrow the event lookup to one source
  sentinel stats                  Totals, timeline and top sources

Data (requires login):
  sentinel upload <file>          Ingest a .csv or .json log file
    --keep-existing               Append instead of replacing stored events
  sentinel clear --confirm        Delete every stored event

Configuration:
  sentinel config [show]          Show the effective configuration
  sentinel config path            Show the config file location
  sentinel config get <key>       Show one setting
  sentinel config set <key> <v>   Change one setting and save

Global Flags:
  --json            Output in JSON format
  -v, --verbose     Debug logging to stderr
  --api-url URL     Override the server address
  --no-color        Disable colored output

Environment:
  SENTINEL_API_URL, SENTINEL_TIMEOUT, SENTINEL_TOKEN_PATH,
  SENTINEL_LOG_LEVEL, SENTINEL_EVENT_LIMIT, SENTINEL_CONFIG_DIR

Examples:
  sentinel login analyst
  sentinel events --type SQLi --successful
  sentinel investigate 3f9c2a1e --ip 203.0.113.7
  sentinel upload ./access.csv --keep-existing
  sentinel stats --json

Version: %s
`

// PrintUsage writes the usage text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "sentinel version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments (without the program name) and
// returns the command and its args.
func Parse(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	name := strings.ToLower(remaining[0])
	parsedArgs.Name = name
	parsedArgs.Raw = remaining[1:]

	switch name {
	case "tui":
		return CmdTUI, parsedArgs
	case "login", "signin":
		return CmdLogin, parsedArgs
	case "signup", "register":
		return CmdSignup, parsedArgs
	case "logout", "signout":
		return CmdLogout, parsedArgs
	case "whoami", "me":
		return CmdWhoami, parsedArgs
	case "events", "ls":
		return CmdEvents, parsedArgs
	case "explain":
		return CmdExplain, parsedArgs
	case "storyline", "story":
		return CmdStoryline, parsedArgs
	case "investigate", "inv":
		return CmdInvestigate, parsedArgs
	case "stats", "overview":
		return CmdStats, parsedArgs
	case "upload":
		return CmdUpload, parsedArgs
	case "clear":
		return CmdClear, parsedArgs
	case "config":
		return CmdConfig, parsedArgs
	case "version", "--version":
		return CmdVersion, parsedArgs
	case "help", "-h", "--help":
		return CmdHelp, parsedArgs
	default:
		return CmdUnknown, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
// Global flags may appear anywhere on the line.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--json":
			parsedArgs.JSON = true
		case "-v", "--verbose":
			parsedArgs.Verbose = true
		case "--no-color":
			parsedArgs.NoColor = true
		case "--api-url":
			if i+1 < len(args) {
				i++
				parsedArgs.APIURL = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--api-url=") {
				parsedArgs.APIURL = strings.TrimPrefix(arg, "--api-url=")
			} else {
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsedArgs
}

// =============================================================================
// DISPATCH
// =============================================================================

// IO bundles the streams commands read from and write to.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdIO returns the process streams.
func StdIO() IO {
	return IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Run executes a non-TUI command. Errors are returned undisplayed; callers
// pass them to DisplayError and GetExitCode.
func Run(ctx context.Context, cmd Command, args Args, stdio IO) error {
	SetNoColor(args.NoColor)

	switch cmd {
	case CmdVersion:
		return HandleVersion(args, stdio)
	case CmdHelp:
		PrintUsage(stdio.Out)
		return nil
	case CmdConfig:
		return HandleConfig(args, stdio)
	case CmdUnknown:
		return NewValidationErrorWithExample("command", args.Name, "unknown command", "sentinel help")
	case CmdTUI:
		return NewCommandError("tui", "start", "the TUI is started by the main program", nil)
	}

	env, err := NewEnv(args, stdio)
	if err != nil {
		return err
	}
	defer env.Close()

	switch cmd {
	case CmdLogin:
		return HandleLogin(ctx, env)
	case CmdSignup:
		return HandleSignup(ctx, env)
	case CmdLogout:
		return HandleLogout(env)
	case CmdWhoami:
		return HandleWhoami(ctx, env)
	case CmdEvents:
		return HandleEvents(ctx, env)
	case CmdExplain:
		return HandleExplain(ctx, env)
	case CmdStoryline:
		return HandleStoryline(ctx, env)
	case CmdInvestigate:
		return HandleInvestigate(ctx, env)
	case CmdStats:
		return HandleStats(ctx, env)
	case CmdUpload:
		return HandleUpload(ctx, env)
	case CmdClear:
		return HandleClear(ctx, env)
	}
	return NewValidationError("command", cmd.String(), "not runnable from the command line")
}

// HandleVersion handles the "version" command with JSON output support.
func HandleVersion(args Args, stdio IO) error {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		return NewJSONResponse("version", data).Fprint(stdio.Out)
	}
	PrintVersion(stdio.Out)
	return nil
}
