package live

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/interviewlab/analysis-engine/internal/audio"
)

func dialTestServer(t *testing.T) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(Handler(liveConfig(t)))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readServerMessage(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		// Interim results share the socket; skip them here
		if msg.Type == "interim" {
			continue
		}
		return msg
	}
}

func sendControl(t *testing.T, conn *websocket.Conn, msg ControlMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatal(err)
	}
}

func TestHandler_FullSession(t *testing.T) {
	conn := dialTestServer(t)

	sendControl(t, conn, ControlMessage{Type: "start", SessionID: "ws-1"})
	started := readServerMessage(t, conn)
	if started.Type != "started" || started.SessionID != "ws-1" {
		t.Fatalf("Expected started ack, got %+v", started)
	}

	pcm := tonePCM(0.7, 16000)
	if err := conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
		t.Fatal(err)
	}

	sendControl(t, conn, ControlMessage{Type: "stop"})
	done := readServerMessage(t, conn)
	if done.Type != "done" {
		t.Fatalf("Expected done, got %+v", done)
	}
	if done.Recording == nil || done.Recording.AudioBytes != len(pcm) {
		t.Fatalf("Expected recording metadata with %d audio bytes, got %+v", len(pcm), done.Recording)
	}

	samples, sampleRate, err := audio.ReadWAV(done.Recording.AudioPath)
	if err != nil {
		t.Fatal(err)
	}
	if sampleRate != 16000 || len(samples) != len(pcm)/2 {
		t.Errorf("Recorded WAV mismatch: rate %d, samples %d", sampleRate, len(samples))
	}
}

func TestHandler_GeneratesSessionID(t *testing.T) {
	conn := dialTestServer(t)

	sendControl(t, conn, ControlMessage{Type: "start"})
	started := readServerMessage(t, conn)
	if started.Type != "started" || started.SessionID == "" {
		t.Fatalf("Expected generated session id, got %+v", started)
	}
}

func TestHandler_MediaBeforeStartRejected(t *testing.T) {
	conn := dialTestServer(t)

	if err := conn.WriteMessage(websocket.BinaryMessage, tonePCM(0.1, 16000)); err != nil {
		t.Fatal(err)
	}
	msg := readServerMessage(t, conn)
	if msg.Type != "error" {
		t.Fatalf("Expected error for audio before start, got %+v", msg)
	}
}

func TestHandler_DisconnectFinalizesRecording(t *testing.T) {
	cfg := liveConfig(t)
	srv := httptest.NewServer(Handler(cfg))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	sendControl(t, conn, ControlMessage{Type: "start", SessionID: "ws-abort"})
	if msg := readServerMessage(t, conn); msg.Type != "started" {
		t.Fatalf("Expected started, got %+v", msg)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, tonePCM(0.2, 16000)); err != nil {
		t.Fatal(err)
	}
	conn.Close()

	// The deferred abort path finalizes asynchronously
	metaPath := cfg.RecordingDir + "/ws-abort/metadata.json"
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(metaPath); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("Recording was not finalized after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
