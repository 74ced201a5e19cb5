// Command drafttail follows the live draft stream of a composer session.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type event struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Payload   json.RawMessage `json:"payload"`
}

type draftState struct {
	Draft struct {
		Platforms   []string `json:"platforms"`
		PostType    string   `json:"post_type"`
		Body        string   `json:"body"`
		Media       []any    `json:"media"`
		Tags        []string `json:"tags"`
		Publishable bool     `json:"publishable"`
	} `json:"draft"`
	Handles int `json:"preview_handles"`
}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	sessionID := flag.String("session", "", "Session to follow; empty creates one")
	raw := flag.Bool("raw", false, "Print frames as received")
	flag.Parse()

	id := *sessionID
	if id == "" {
		created, err := createSession(*host)
		if err != nil {
			log.Fatalf("Create session failed: %v", err)
		}
		id = created
		log.Printf("Created session %s", id)
	}

	u := url.URL{Scheme: "ws", Host: *host, Path: "/api/ws/sessions/" + id}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			log.Fatalf("Dial %s failed with status %d: %v", u.String(), resp.StatusCode, err)
		}
		log.Fatalf("Dial %s failed: %v", u.String(), err)
	}
	defer func() { _ = conn.Close() }()
	log.Printf("Following %s", u.String())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("Read failed: %v", err)
				}
				return
			}
			if *raw {
				fmt.Println(string(message))
				continue
			}
			printEvent(message)
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func createSession(host string) (string, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(fmt.Sprintf("http://%s/api/sessions", host), "application/json", nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create session failed with status %d", resp.StatusCode)
	}
	var state struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return "", err
	}
	return state.SessionID, nil
}

func printEvent(message []byte) {
	var ev event
	if err := json.Unmarshal(message, &ev); err != nil {
		log.Printf("Unreadable frame: %s", message)
		return
	}
	switch ev.Type {
	case "draft.updated":
		var st draftState
		if err := json.Unmarshal(ev.Payload, &st); err != nil {
			log.Printf("%s: %s", ev.Type, ev.Payload)
			return
		}
		log.Printf("%s: type=%s platforms=%v media=%d tags=%v publishable=%v body=%q",
			ev.Type, st.Draft.PostType, st.Draft.Platforms, len(st.Draft.Media),
			st.Draft.Tags, st.Draft.Publishable, st.Draft.Body)
	default:
		log.Printf("%s: %s", ev.Type, ev.Payload)
	}
}
