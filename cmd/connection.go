// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// Connection carries a CBOR edge stream to or from a sampling bridge over
// serial or WebSocket, or from a capture file
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// ErrConnectionClosed is returned by reads after the WebSocket has failed
var ErrConnectionClosed = errors.New("websocket connection closed")

var errNoConnection = errors.New("either --port or --url must be specified")

// WebSocketConnection presents the binary messages of a WebSocket as one
// byte stream. Edge records may span message boundaries.
type WebSocketConnection struct {
	conn   *websocket.Conn
	msg    io.Reader
	failed bool
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if w.failed {
		return 0, ErrConnectionClosed
	}
	for {
		if w.msg != nil {
			n, err := w.msg.Read(p)
			if err == io.EOF {
				w.msg = nil
				err = nil
			}
			if n > 0 || err != nil {
				return n, err
			}
		}

		kind, r, err := w.conn.NextReader()
		if err != nil {
			w.failed = true
			return 0, err
		}
		if kind == websocket.BinaryMessage {
			w.msg = r
		}
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	return w.conn.Close()
}

// OpenSerialConnection opens a bridge on a serial port at 8N1
func OpenSerialConnection(portName string, baudRate int) (Connection, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	return port, nil
}

// OpenWebSocketConnection dials a ws:// or wss:// bridge. HTTP Basic auth
// is sent when both username and password are given.
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (Connection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: skipSSLVerify}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		req := http.Request{Header: headers}
		req.SetBasicAuth(username, password)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}
	return &WebSocketConnection{conn: conn}, nil
}

// GetPassword reads COLLARSTAT_PASSWORD, or prompts on the terminal
func GetPassword() (string, error) {
	if pw := os.Getenv("COLLARSTAT_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	defer fmt.Fprintln(os.Stderr)

	pw, err := term.ReadPassword(int(syscall.Stdin))
	if err == nil {
		return string(pw), nil
	}

	// Not a terminal
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// OpenConnection opens the bridge named by --url or --port
func OpenConnection() (Connection, string, error) {
	switch {
	case wsURL != "":
		var password string
		if wsUsername != "" {
			var err error
			if password, err = GetPassword(); err != nil {
				return nil, "", err
			}
		}
		conn, err := OpenWebSocketConnection(wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return conn, "WebSocket: " + wsURL, nil

	case portName != "":
		conn, err := OpenSerialConnection(portName, baudRate)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}
	return nil, "", errNoConnection
}

// hasConnection reports whether a bridge connection was requested
func hasConnection() bool {
	return wsURL != "" || portName != ""
}

// OpenCaptureSource opens the edge stream to decode: a capture file when
// --replay is set, otherwise a serial or WebSocket bridge
func OpenCaptureSource() (Connection, string, error) {
	if replayPath != "" {
		f, err := os.Open(replayPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open capture: %w", err)
		}
		return f, "File: " + replayPath, nil
	}
	return OpenConnection()
}

// isClosed reports whether err means the stream has ended for good
func isClosed(err error) bool {
	return errors.Is(err, ErrConnectionClosed) ||
		errors.Is(err, io.EOF) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
