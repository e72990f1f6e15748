// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

// bridgeServer upgrades, checks Basic auth and writes the given messages
func bridgeServer(t *testing.T, messages []struct {
	kind int
	data string
}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "bridge" || pass != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range messages {
			conn.WriteMessage(m.kind, []byte(m.data))
		}
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
}

func TestWebSocketConnection_StreamsBinaryMessages(t *testing.T) {
	ts := bridgeServer(t, []struct {
		kind int
		data string
	}{
		{websocket.BinaryMessage, "abc"},
		{websocket.TextMessage, "ignored"},
		{websocket.BinaryMessage, ""},
		{websocket.BinaryMessage, "defg"},
	})
	defer ts.Close()

	conn, err := OpenWebSocketConnection("ws"+strings.TrimPrefix(ts.URL, "http"), "bridge", "secret", false)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// Small reads so records split across calls
	var got []byte
	buf := make([]byte, 2)
	var readErr error
	for {
		n, err := conn.Read(buf)
		got = append(got, buf[:n]...)
		if err != nil {
			readErr = err
			break
		}
	}
	if string(got) != "abcdefg" {
		t.Errorf("stream = %q, want %q", got, "abcdefg")
	}
	if !isClosed(readErr) {
		t.Errorf("final error %v should count as closed", readErr)
	}
	if _, err := conn.Read(buf); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("read after failure = %v, want ErrConnectionClosed", err)
	}
}

func TestOpenWebSocketConnection_Errors(t *testing.T) {
	ts := bridgeServer(t, nil)
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")

	if _, err := OpenWebSocketConnection(wsURL, "bridge", "wrong", false); err == nil || !strings.Contains(err.Error(), "HTTP 401") {
		t.Errorf("bad password err = %v, want HTTP 401", err)
	}
	if _, err := OpenWebSocketConnection("http://example.com/", "", "", false); err == nil {
		t.Error("http:// scheme should be rejected")
	}
}

func TestIsClosed(t *testing.T) {
	if !isClosed(io.EOF) || !isClosed(ErrConnectionClosed) {
		t.Error("EOF and ErrConnectionClosed should count as closed")
	}
	if isClosed(errors.New("boom")) {
		t.Error("other errors should not count as closed")
	}
}
