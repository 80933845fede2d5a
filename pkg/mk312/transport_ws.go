// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Rubberfate

package mk312

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketTransport bridges the device's serial link over a WebSocket
// connection, for setups where the RS232 adapter hangs off a remote
// gateway. Binary messages carry raw link bytes; non-binary messages are
// skipped.
type WebSocketTransport struct {
	conn        *websocket.Conn
	buf         []byte
	bufOffset   int
	readTimeout time.Duration
	closed      bool
}

// WebSocketOptions configures DialWebSocket.
type WebSocketOptions struct {
	// Username/Password enable HTTP Basic auth when both are set.
	Username string
	Password string

	// InsecureSkipVerify disables TLS certificate verification (wss only).
	InsecureSkipVerify bool

	// HandshakeTimeout bounds the WebSocket dial. Zero means 10s.
	HandshakeTimeout time.Duration
}

// DialWebSocket connects to a ws:// or wss:// serial bridge.
func DialWebSocket(wsURL string, opts WebSocketOptions) (*WebSocketTransport, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	handshakeTimeout := opts.HandshakeTimeout
	if handshakeTimeout == 0 {
		handshakeTimeout = 10 * time.Second
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify,
		}
	}

	headers := http.Header{}
	if opts.Username != "" && opts.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout+5*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return &WebSocketTransport{conn: conn}, nil
}

func (w *WebSocketTransport) Read(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("websocket connection closed")
	}

	// Drain buffered bytes from the previous message first
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	if w.readTimeout > 0 {
		if err := w.conn.SetReadDeadline(time.Now().Add(w.readTimeout)); err != nil {
			return 0, err
		}
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			// gorilla/websocket does not support reads after a failed read,
			// deadline expiry included. The error is surfaced as-is; the
			// session classifies deadline expiry via IsTimeout.
			w.closed = true
			return 0, err
		}

		if messageType != websocket.BinaryMessage {
			continue
		}

		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketTransport) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketTransport) SetReadTimeout(d time.Duration) error {
	w.readTimeout = d
	return nil
}

func (w *WebSocketTransport) Close() error {
	return w.conn.Close()
}
