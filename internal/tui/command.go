// Package tui is a terminal front end for the chat session.
package tui

import (
	"errors"
	"strings"
)

// CommandKind identifies an input line's intent.
type CommandKind int

const (
	CmdSend CommandKind = iota
	CmdTicker
	CmdRooms
	CmdRename
	CmdRefresh
	CmdLogin
	CmdLogout
	CmdTrash
	CmdHelp
	CmdQuit
)

// Command is a parsed input line.
type Command struct {
	Kind CommandKind
	Args []string
	// Text is the raw message for CmdSend and the joined arguments otherwise.
	Text string
}

var errUsage = errors.New("usage")

// usage lists the slash commands.
const usage = "/ticker SYMBOL [title]  /rooms  /rename TITLE  /refresh  /trash  /login ID PASSWORD  /logout  /quit"

var commandNames = map[string]CommandKind{
	"/ticker":  CmdTicker,
	"/t":       CmdTicker,
	"/rooms":   CmdRooms,
	"/rename":  CmdRename,
	"/refresh": CmdRefresh,
	"/login":   CmdLogin,
	"/logout":  CmdLogout,
	"/trash":   CmdTrash,
	"/help":    CmdHelp,
	"/quit":    CmdQuit,
	"/q":       CmdQuit,
}

// ParseCommand interprets an input line. Anything not starting with a slash
// is a message; "//" escapes a leading slash.
func ParseCommand(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "//") {
		return Command{Kind: CmdSend, Text: line[strings.Index(line, "/")+1:]}, nil
	}
	if !strings.HasPrefix(trimmed, "/") {
		return Command{Kind: CmdSend, Text: line}, nil
	}

	fields := strings.Fields(trimmed)
	kind, ok := commandNames[strings.ToLower(fields[0])]
	if !ok {
		return Command{}, errors.New("unknown command " + fields[0])
	}
	cmd := Command{Kind: kind, Args: fields[1:], Text: strings.Join(fields[1:], " ")}

	switch kind {
	case CmdTicker, CmdRename:
		if len(cmd.Args) == 0 {
			return Command{}, errUsage
		}
	case CmdLogin:
		if len(cmd.Args) != 2 {
			return Command{}, errUsage
		}
	}
	return cmd, nil
}
