package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/LemmyAI/arenasync/internal/protocol"
)

// HTTPTransport talks to the server's HTTP API.
type HTTPTransport struct {
	config Config
	client *http.Client
	codec  protocol.Codec
}

// NewHTTPTransport creates a new HTTP transport.
func NewHTTPTransport(config Config) *HTTPTransport {
	if config.MediaType == "" {
		config.MediaType = protocol.MediaJSON
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &HTTPTransport{
		config: config,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        config.MaxIdleConns,
				MaxIdleConnsPerHost: config.MaxIdleConns,
			},
		},
		codec: protocol.CodecFor(config.MediaType),
	}
}

// StatusError is a non-success response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// do sends a request under the per-request timeout. The timeout stays
// armed until the response body is closed.
func (t *HTTPTransport) do(ctx context.Context, method, path string, body any, accept string) (*http.Response, error) {
	cancel := context.CancelFunc(func() {})
	if t.config.RequestTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, t.config.RequestTimeout)
	}
	resp, err := t.send(ctx, method, path, body, accept)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func (t *HTTPTransport) send(ctx context.Context, method, path string, body any, accept string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.config.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", protocol.MediaJSON)
	}
	req.Header.Set("Accept", accept)
	return t.client.Do(req)
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e protocol.ErrorResponse
	if json.Unmarshal(data, &e) != nil {
		e.Error = strings.TrimSpace(string(data))
	}
	return &StatusError{Code: resp.StatusCode, Message: e.Error}
}

// SubmitInput posts one command.
func (t *HTTPTransport) SubmitInput(ctx context.Context, req protocol.SubmitInputRequest) error {
	resp, err := t.do(ctx, http.MethodPost, "/v1/input", req, protocol.MediaJSON)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return statusError(resp)
	}
	return nil
}

// FetchState polls the session state in the configured media type.
func (t *HTTPTransport) FetchState(ctx context.Context, sessionID string, since *uint64) (*protocol.StateResponse, bool, error) {
	path := "/v1/sessions/" + url.PathEscape(sessionID) + "/state"
	if since != nil {
		path += "?since=" + strconv.FormatUint(*since, 10)
	}
	resp, err := t.do(ctx, http.MethodGet, path, nil, t.codec.MediaType())
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return nil, false, nil
	case http.StatusNotFound:
		return nil, false, ErrSessionNotFound
	default:
		return nil, false, statusError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}
	codec := protocol.CodecFor(resp.Header.Get("Content-Type"))
	var state protocol.StateResponse
	if err := codec.Unmarshal(data, &state); err != nil {
		return nil, false, err
	}
	return &state, true, nil
}

// Join adds a player to a session.
func (t *HTTPTransport) Join(ctx context.Context, sessionID string, req protocol.JoinRequest) (*protocol.JoinResponse, error) {
	resp, err := t.do(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(sessionID)+"/join", req, protocol.MediaJSON)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	var out protocol.JoinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Leave removes a player from a session.
func (t *HTTPTransport) Leave(ctx context.Context, sessionID, playerID string) error {
	resp, err := t.do(ctx, http.MethodPost, "/v1/sessions/"+url.PathEscape(sessionID)+"/leave",
		protocol.LeaveRequest{PlayerID: playerID}, protocol.MediaJSON)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return statusError(resp)
	}
	return nil
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
