package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"doubt-battle-service/internal/app"
	"doubt-battle-service/internal/domain"
	"doubt-battle-service/internal/infra/memory"
	"doubt-battle-service/internal/questionbank"
)

func TestRESTBattleFlow(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	// Create a battle as u1.
	created := doJSON[domain.BattleView](t, server, http.MethodPost, "/battles", "u1",
		map[string]any{"subject": "class10-math", "numQuestions": 5}, http.StatusCreated)
	if created.Status != domain.StatusPending {
		t.Fatalf("expected pending battle, got %s", created.Status)
	}
	if len(created.Code) != 6 || created.QuestionCount != 5 {
		t.Fatalf("unexpected battle view %+v", created)
	}

	// u2 joins by code.
	joined := doJSON[domain.BattleView](t, server, http.MethodPost, "/battles/"+created.Code+"/join", "u2",
		map[string]any{}, http.StatusOK)
	if joined.Status != domain.StatusActive {
		t.Fatalf("expected active after join, got %s", joined.Status)
	}
	if joined.Question == nil {
		t.Fatalf("expected an open question after join")
	}
	if joined.Question.Options == nil {
		t.Fatalf("expected question options in view")
	}

	// u1 answers question 0.
	outcome := doJSON[domain.AnswerOutcome](t, server, http.MethodPost, "/battles/"+created.Code+"/answer", "u1",
		map[string]any{"questionIndex": 0, "selectedAnswer": 0, "timeTaken": 5}, http.StatusOK)
	if outcome.QuestionIndex != 0 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	// A duplicate answer is rejected with a stable error code.
	errBody := doJSONError(t, server, http.MethodPost, "/battles/"+created.Code+"/answer", "u1",
		map[string]any{"questionIndex": 0, "selectedAnswer": 1, "timeTaken": 2}, http.StatusConflict)
	if errBody.Error.Code != "duplicate_submission" {
		t.Fatalf("expected duplicate_submission, got %q", errBody.Error.Code)
	}
}

func TestRESTErrorMapping(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	notFound := doJSONError(t, server, http.MethodPost, "/battles/NOPE42/join", "u2", map[string]any{}, http.StatusNotFound)
	if notFound.Error.Code != "not_found" {
		t.Fatalf("expected not_found, got %q", notFound.Error.Code)
	}

	badCount := doJSONError(t, server, http.MethodPost, "/battles", "u1",
		map[string]any{"subject": "class10-math", "numQuestions": 3}, http.StatusBadRequest)
	if badCount.Error.Code != "invalid_request" {
		t.Fatalf("expected invalid_request, got %q", badCount.Error.Code)
	}
}

func TestRESTLeaderboardEmpty(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/leaderboard")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var entries []domain.LeaderboardEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty leaderboard, got %+v", entries)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	service := newTestService()
	handler := NewRESTHandler(service, slog.Default())
	return httptest.NewServer(handler.Routes())
}

func newTestService() *app.BattleService {
	bank := questionbank.NewGenerator(questionbank.NewStaticPoolLoader(questionbank.DefaultPools()), nil)
	return app.NewBattleService(memory.NewBattleStore(), memory.NewLeaderboard(), bank, app.Config{}, slog.Default())
}

func doJSON[T any](t *testing.T, server *httptest.Server, method, path, userID string, body any, wantStatus int) T {
	t.Helper()
	resp := doRequest(t, server, method, path, userID, body)
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d", method, path, wantStatus, resp.StatusCode)
	}
	var decoded T
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return decoded
}

func doJSONError(t *testing.T, server *httptest.Server, method, path, userID string, body any, wantStatus int) errorResponse {
	return doJSON[errorResponse](t, server, method, path, userID, body, wantStatus)
}

func doRequest(t *testing.T, server *httptest.Server, method, path, userID string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(method, server.URL+path, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}
