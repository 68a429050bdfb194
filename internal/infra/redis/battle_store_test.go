package redis

import (
	"testing"
	"time"

	"doubt-battle-service/internal/app"
	"doubt-battle-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestBattleStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewBattleStore(client, time.Minute)

	session, err := store.Create(func(code string) *app.BattleSession {
		return app.NewBattleSession(app.BattleSessionParams{
			Code:         code,
			Subject:      domain.SubjectClass10Math,
			Questions:    []domain.Question{{Prompt: "q", Options: []string{"a", "b"}, CorrectIndex: 0}},
			ChallengerID: "u1",
		})
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !mr.Exists("battle:session:" + session.Code()) {
		t.Fatalf("expected liveness key to be set")
	}

	if _, ok := store.Get(session.Code()); !ok {
		t.Fatalf("expected session present")
	}

	store.Delete(session.Code())
	if mr.Exists("battle:session:" + session.Code()) {
		t.Fatalf("expected liveness key to be removed")
	}
}
