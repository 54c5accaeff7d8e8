// Package testhelpers provides common utilities and helper functions for
// testing the exchange chat server.
//
// It offers a fake upstream rates API, WebSocket dial/read helpers and HTTP
// request helpers so that package tests stay short.
package testhelpers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// RatesAPI is a fake PrivatBank exchange_rates endpoint. Every date gets
// EUR, USD (NB fields only) and GBP quotes unless it is marked failing.
type RatesAPI struct {
	*httptest.Server

	mu    sync.Mutex
	dates []string
	fail  map[string]bool
}

// NewRatesAPI starts a fake rates API; it is closed when the test ends.
func NewRatesAPI(t *testing.T) *RatesAPI {
	t.Helper()
	api := &RatesAPI{fail: map[string]bool{}}
	api.Server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.Close)
	return api
}

func (a *RatesAPI) serve(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")

	a.mu.Lock()
	a.dates = append(a.dates, date)
	failing := a.fail[date]
	a.mu.Unlock()

	if failing {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"date": %q, "bank": "PB", "baseCurrencyLit": "UAH", "exchangeRate": [
		{"baseCurrency": "UAH", "currency": "EUR", "saleRateNB": 40.1, "purchaseRateNB": 40.1, "saleRate": 41.5, "purchaseRate": 40.6},
		{"baseCurrency": "UAH", "currency": "USD", "saleRateNB": 37.2, "purchaseRateNB": 37.1},
		{"baseCurrency": "UAH", "currency": "GBP", "saleRate": 47.9, "purchaseRate": 46.8}
	]}`, date)
}

// URL returns the exchange_rates endpoint of the fake API.
func (a *RatesAPI) URL() string {
	return a.Server.URL + "/p24api/exchange_rates"
}

// FailDate makes requests for date answer with HTTP 503.
func (a *RatesAPI) FailDate(date string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fail[date] = true
}

// Dates returns the requested dates in arrival order.
func (a *RatesAPI) Dates() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.dates...)
}

// WebSocketURL converts an httptest server URL into its /ws endpoint.
func WebSocketURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
}

// ConnectWebSocket dials url with an allowed browser Origin and closes the
// connection when the test ends.
func ConnectWebSocket(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	headers.Set("Origin", "http://localhost:8080")

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

// SendText writes one text frame.
func SendText(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(text)))
}

// ReceiveText reads the next text frame, failing the test after timeout.
func ReceiveText(t *testing.T, conn *websocket.Conn, timeout time.Duration) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	messageType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, messageType)
	return string(data)
}

// ExpectNoMessage asserts that nothing arrives on conn within wait.
func ExpectNoMessage(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wait)))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected message %q", string(data))
}

// CloseWebSocket sends a normal close frame and closes the connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}

// MakeRequest creates and executes an HTTP request, returning the response.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

// Eventually polls cond until it holds or timeout elapses.
func Eventually(t *testing.T, cond func() bool, timeout time.Duration, msg string) {
	t.Helper()
	require.Eventually(t, cond, timeout, 5*time.Millisecond, msg)
}
