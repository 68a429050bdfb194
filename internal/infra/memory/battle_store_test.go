package memory

import (
	"strings"
	"testing"

	"doubt-battle-service/internal/app"
	"doubt-battle-service/internal/domain"
)

func TestBattleStoreAllocatesUniqueCodes(t *testing.T) {
	store := NewBattleStore()

	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		session, err := store.Create(func(code string) *app.BattleSession {
			return newTestSession(code)
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		code := session.Code()
		if len(code) != codeLength {
			t.Fatalf("expected %d-char code, got %q", codeLength, code)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code %q", code)
		}
		seen[code] = struct{}{}
	}
}

func TestBattleStoreLifecycle(t *testing.T) {
	store := NewBattleStore()

	session, err := store.Create(func(code string) *app.BattleSession {
		return newTestSession(code)
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, ok := store.Get(session.Code())
	if !ok || got != session {
		t.Fatalf("expected stored session back, got ok=%v", ok)
	}

	store.Delete(session.Code())
	if _, ok := store.Get(session.Code()); ok {
		t.Fatalf("expected session removed")
	}
}

func newTestSession(code string) *app.BattleSession {
	return app.NewBattleSession(app.BattleSessionParams{
		Code:         code,
		Subject:      domain.SubjectClass10Math,
		Questions:    []domain.Question{{Prompt: "q", Options: []string{"a", "b"}, CorrectIndex: 0}},
		ChallengerID: "u1",
	})
}
