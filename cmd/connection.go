// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/rubberfate/mk312ctl/pkg/mk312"
)

// openTransport opens either a serial or WebSocket transport based on the
// connection flags. It returns the transport and a human-readable
// description of the link.
func openTransport() (mk312.Transport, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = getPassword()
			if err != nil {
				return nil, "", err
			}
		}

		t, err := mk312.DialWebSocket(wsURL, mk312.WebSocketOptions{
			Username:           wsUsername,
			Password:           password,
			InsecureSkipVerify: wsNoSSLVerify,
		})
		if err != nil {
			return nil, "", err
		}

		return t, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName != "" {
		t, err := mk312.OpenSerial(portName, baudRate)
		if err != nil {
			return nil, "", err
		}

		return t, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}

// getPassword retrieves the WebSocket password from the environment or
// prompts the user.
func getPassword() (string, error) {
	if pw := os.Getenv("MK312CTL_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	// Read password without echo
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}
