package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lyricstudio/api/internal/model"
	"github.com/lyricstudio/api/pkg/response"
)

func receive(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case data := <-client.Send:
		return data
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
		return nil
	}
}

func TestBroadcastErrorCarriesJobFailedCode(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{JobID: "job-1", Send: make(chan []byte, 1)}
	hub.Register(client)

	hub.BroadcastError("job-1", response.CodeJobFailed, "encoding failed: boom")

	var msg model.WSErrorMessage
	if err := json.Unmarshal(receive(t, client), &msg); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}

	if msg.Type != model.WSMessageTypeError {
		t.Errorf("expected error message type, got %q", msg.Type)
	}
	if msg.Error.Code != response.CodeJobFailed {
		t.Errorf("expected code %q, got %q", response.CodeJobFailed, msg.Error.Code)
	}
	if msg.Error.Message != "encoding failed: boom" {
		t.Errorf("unexpected message %q", msg.Error.Message)
	}
}

func TestBroadcastIsScopedToJob(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	subscribed := &Client{JobID: "job-a", Send: make(chan []byte, 1)}
	other := &Client{JobID: "job-b", Send: make(chan []byte, 1)}
	hub.Register(subscribed)
	hub.Register(other)

	hub.BroadcastProgress("job-a", 0.5, model.JobStatusRunning, "encoding")

	var msg model.WSProgressMessage
	if err := json.Unmarshal(receive(t, subscribed), &msg); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if msg.Progress != 0.5 || msg.JobID != "job-a" {
		t.Errorf("unexpected progress message %+v", msg)
	}

	select {
	case data := <-other.Send:
		t.Errorf("client on another job received %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}
