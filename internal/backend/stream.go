// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/seralin/tradepost-tui/internal/model"
)

// MaxFrameSize is the maximum allowed size for a single SSE frame (64KB).
const MaxFrameSize = 64 * 1024

// =============================================================================
// STREAM EVENTS
// =============================================================================

// EventType discriminates the three frame types of the chat stream.
type EventType string

const (
	EventDelta EventType = "delta"
	EventDone  EventType = "done"
	EventError EventType = "error"
)

// StreamEvent is one decoded frame of the chat event stream.
//
// Delta frames carry incremental Text. Done frames carry the complete Text,
// provider/model tags, and optional Meta. Error frames carry Message.
type StreamEvent struct {
	Type     EventType           `json:"type"`
	Text     string              `json:"text,omitempty"`
	Provider string              `json:"provider,omitempty"`
	Model    string              `json:"model,omitempty"`
	Meta     *model.ResponseMeta `json:"_meta,omitempty"`
	Message  string              `json:"message,omitempty"`
}

// StreamHandler is called for each decoded event, in arrival order.
type StreamHandler func(ev StreamEvent)

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events frames from a byte stream. Frames are
// delimited by a blank line; only data: fields matter for the chat protocol.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates an SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{reader: bufio.NewReader(r)}
}

// ReadEvent reads the next frame's data payload. Returns io.EOF when the
// stream ends; a trailing frame without a closing blank line is still
// returned before EOF.
func (s *SSEReader) ReadEvent() ([]byte, error) {
	var dataLines [][]byte
	size := 0

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line terminates the frame.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimSpace(line[5:])
			size += len(data)
			if size > MaxFrameSize {
				return nil, fmt.Errorf("frame too large: %d bytes", size)
			}
			dataLines = append(dataLines, data)
		}
		// Other fields (event:, id:, retry:, comments) are ignored.
	}
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream performs a streaming chat completion, invoking handler for each
// event in arrival order. It returns once a done or error frame has been
// dispatched, when ctx is cancelled, or on transport failure.
//
// If the backend answers with a plain JSON body instead of an event stream,
// ChatStream falls back to a single blocking read and synthesizes the
// delta/done pair so callers see a uniform event sequence.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, handler StreamHandler) error {
	if !c.IsConfigured() {
		return ErrNoBaseURL
	}

	req.Stream = true
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return errorFromResponse(resp.StatusCode, body)
	}

	if !isEventStream(resp.Header.Get("Content-Type")) {
		return c.consumeOneShot(resp.Body, handler)
	}

	return c.processStream(ctx, resp.Body, handler)
}

// processStream reads and dispatches SSE frames until done/error/EOF.
func (c *Client) processStream(ctx context.Context, body io.Reader, handler StreamHandler) error {
	reader := NewSSEReader(body)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				// The backend always closes with a done or error frame;
				// a bare EOF means the transport cut us off mid-response.
				return ErrStreamTruncated
			}
			return err
		}

		var ev StreamEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			// Skip malformed frames rather than aborting the stream.
			continue
		}

		switch ev.Type {
		case EventDelta:
			handler(ev)
		case EventDone:
			handler(ev)
			return nil
		case EventError:
			handler(ev)
			return nil
		default:
			// Unknown frame types are ignored for forward compatibility.
		}
	}
}

// consumeOneShot handles the non-streaming fallback: decode the whole body
// as a ChatResponse and synthesize the event sequence.
func (c *Client) consumeOneShot(body io.Reader, handler StreamHandler) error {
	var resp ChatResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	handler(StreamEvent{Type: EventDelta, Text: resp.Text})
	handler(StreamEvent{
		Type:     EventDone,
		Text:     resp.Text,
		Provider: resp.Provider,
		Model:    resp.Model,
		Meta:     resp.Meta,
	})
	return nil
}

// isEventStream reports whether a Content-Type denotes an SSE body.
func isEventStream(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.HasPrefix(contentType, "text/event-stream")
	}
	return mediaType == "text/event-stream"
}
