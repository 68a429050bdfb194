package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"doubt-battle-service/internal/app"
	"doubt-battle-service/internal/domain"
	"github.com/gorilla/websocket"
)

func TestWebSocketAnswerFlow(t *testing.T) {
	service := newTestService()
	created, err := service.Create(context.Background(), app.CreateParams{
		Subject:       domain.SubjectClass10Math,
		QuestionCount: 5,
		ChallengerID:  "u1",
		OpponentID:    "u2",
	})
	if err != nil {
		t.Fatalf("create battle: %v", err)
	}

	wsHandler := NewWSHandler(service, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?battleCode=" + created.Code + "&userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the initial battle snapshot first.
	msgType, payload := readNext(conn, t, "battle")
	if msgType != "battle" {
		t.Fatalf("expected battle snapshot, got %s", msgType)
	}
	if payload["battleCode"] != created.Code {
		t.Fatalf("expected snapshot for %s, got %v", created.Code, payload["battleCode"])
	}

	// Send an answer.
	answer := map[string]any{
		"type": "answer",
		"payload": map[string]any{
			"questionIndex":  0,
			"selectedAnswer": 0,
			"timeTaken":      5,
		},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	// Expect answerResult plus a battle update, in either order.
	answerSeen := false
	updateSeen := false
	for i := 0; i < 3; i++ {
		typ, _ := readNext(conn, t, "")
		switch typ {
		case "answerResult":
			answerSeen = true
		case "battle":
			updateSeen = true
		}
		if answerSeen && updateSeen {
			break
		}
	}
	if !answerSeen || !updateSeen {
		t.Fatalf("expected answerResult and battle update, got answerResult=%v battle=%v", answerSeen, updateSeen)
	}
}

func TestWebSocketUnknownBattle(t *testing.T) {
	service := newTestService()
	wsHandler := NewWSHandler(service, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?battleCode=NOPE42&userId=u1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgType, _ := readNext(conn, t, "error")
	if msgType != "error" {
		t.Fatalf("expected error message, got %s", msgType)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
