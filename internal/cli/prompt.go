// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// lines returns the shared reader over a.In. Prompts and the line REPL read
// through it so buffered input is never lost between them.
func (a *App) lines() *bufio.Reader {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.In)
	}
	return a.reader
}

// readLine reads one line without its terminator. io.EOF is returned only
// when nothing was read.
func (a *App) readLine() (string, error) {
	line, err := a.lines().ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// prompt asks for a value unless one was already given.
func (a *App) prompt(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(a.Err, "%s: ", label)
	line, err := a.readLine()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password, without echo when stdin is a terminal.
func (a *App) promptPassword() (string, error) {
	fmt.Fprint(a.Err, "Password: ")
	if f, ok := a.In.(*os.File); ok && isTerminal(f) {
		pw, err := readPasswordFromTerminal(int(f.Fd()))
		fmt.Fprintln(a.Err)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return pw, nil
	}
	line, err := a.readLine()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return line, nil
}

// credentials collects a username and password, rejecting blanks.
func (a *App) credentials(command, username string) (string, string, error) {
	username, err := a.prompt("Username", username)
	if err != nil {
		return "", "", err
	}
	password, err := a.promptPassword()
	if err != nil {
		return "", "", err
	}
	if username == "" || password == "" {
		return "", "", &CommandError{Command: command, Reason: "username and password are required"}
	}
	return username, password, nil
}
