package sqlite

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/sandevgo/falcon/internal/core"
)

func appendAnswered(t *testing.T, repo *TurnsRepo, sessionID, user, assistant string, importance core.Importance) int64 {
	t.Helper()
	ctx := context.Background()

	id, err := repo.AppendTurn(ctx, sessionID, user, core.TurnNormal, importance, nil, 0)
	if err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}
	if err := repo.AttachResponse(ctx, id, assistant, 250*time.Millisecond); err != nil {
		t.Fatalf("AttachResponse failed: %v", err)
	}
	return id
}

func TestRecentHistoryChronologicalOrder(t *testing.T) {
	repo := NewTurnsRepo(newTestStore(t))
	ctx := context.Background()

	appendAnswered(t, repo, "s1", "first question", "first answer", core.ImportanceLow)
	appendAnswered(t, repo, "s1", "second question", "second answer", core.ImportanceLow)
	appendAnswered(t, repo, "s1", "third question", "third answer", core.ImportanceLow)

	// limit 2 keeps the two most recent turns, returned oldest first and
	// flattened user before assistant within each turn
	msgs, err := repo.RecentHistory(ctx, "s1", 2, core.ImportanceLow)
	if err != nil {
		t.Fatalf("RecentHistory failed: %v", err)
	}

	want := []core.Message{
		{Role: core.RoleUser, Content: "second question"},
		{Role: core.RoleAssistant, Content: "second answer"},
		{Role: core.RoleUser, Content: "third question"},
		{Role: core.RoleAssistant, Content: "third answer"},
	}
	if !reflect.DeepEqual(msgs, want) {
		t.Errorf("history = %+v\nwant %+v", msgs, want)
	}
}

func TestRecentHistorySkipsUnansweredTurns(t *testing.T) {
	repo := NewTurnsRepo(newTestStore(t))
	ctx := context.Background()

	appendAnswered(t, repo, "s1", "answered", "yes", core.ImportanceLow)
	if _, err := repo.AppendTurn(ctx, "s1", "pending", core.TurnNormal, core.ImportanceLow, nil, 0); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}

	msgs, err := repo.RecentHistory(ctx, "s1", 10, core.ImportanceLow)
	if err != nil {
		t.Fatalf("RecentHistory failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2 (unanswered turn must be excluded)", len(msgs))
	}
}

func TestRecentHistoryImportanceFloor(t *testing.T) {
	repo := NewTurnsRepo(newTestStore(t))
	ctx := context.Background()

	appendAnswered(t, repo, "s1", "small talk", "sure", core.ImportanceLow)
	appendAnswered(t, repo, "s1", "my name is Alex", "noted", core.ImportanceHigh)

	msgs, err := repo.RecentHistory(ctx, "s1", 10, core.ImportanceHigh)
	if err != nil {
		t.Fatalf("RecentHistory failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Content != "my name is Alex" {
		t.Errorf("low-importance turn leaked through the floor: %+v", msgs)
	}
}

func TestRecentHistoryIsolatesSessions(t *testing.T) {
	repo := NewTurnsRepo(newTestStore(t))
	ctx := context.Background()

	appendAnswered(t, repo, "s1", "in s1", "ok", core.ImportanceLow)
	appendAnswered(t, repo, "s2", "in s2", "ok", core.ImportanceLow)

	msgs, err := repo.RecentHistory(ctx, "s1", 10, core.ImportanceLow)
	if err != nil {
		t.Fatalf("RecentHistory failed: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "in s1" {
		t.Errorf("session isolation broken: %+v", msgs)
	}
}

func TestAttachResponseMissingIDIsNoOp(t *testing.T) {
	repo := NewTurnsRepo(newTestStore(t))

	if err := repo.AttachResponse(context.Background(), 9999, "orphan", time.Second); err != nil {
		t.Errorf("AttachResponse on missing id should be a no-op, got %v", err)
	}
}

func TestTurnTagsRoundTrip(t *testing.T) {
	repo := NewTurnsRepo(newTestStore(t))
	ctx := context.Background()

	tags := []string{"personal", "task"}
	if _, err := repo.AppendTurn(ctx, "s1", "do my thing", core.TurnNormal, core.ImportanceMedium, tags, 4); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}

	turns, err := repo.SessionTurns(ctx, "s1")
	if err != nil {
		t.Fatalf("SessionTurns failed: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("got %d turns, want 1", len(turns))
	}
	if !reflect.DeepEqual(turns[0].Tags, tags) {
		t.Errorf("tags = %v, want %v", turns[0].Tags, tags)
	}
	if turns[0].TokenCount != 4 {
		t.Errorf("token count = %d, want 4", turns[0].TokenCount)
	}
	if turns[0].AssistantText != nil {
		t.Errorf("unanswered turn must have nil assistant text")
	}
}

func TestSearchTurns(t *testing.T) {
	repo := NewTurnsRepo(newTestStore(t))
	ctx := context.Background()

	appendAnswered(t, repo, "s1", "tell me about kubernetes", "it orchestrates containers", core.ImportanceLow)
	appendAnswered(t, repo, "s1", "and the weather?", "sunny", core.ImportanceLow)

	hits, err := repo.SearchTurns(ctx, "kubernetes", 10)
	if err != nil {
		t.Fatalf("SearchTurns failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}

	// matching on the assistant side too
	hits, err = repo.SearchTurns(ctx, "sunny", 10)
	if err != nil {
		t.Fatalf("SearchTurns failed: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("got %d hits on assistant text, want 1", len(hits))
	}
}

func TestCountSession(t *testing.T) {
	repo := NewTurnsRepo(newTestStore(t))
	ctx := context.Background()

	appendAnswered(t, repo, "s1", "one", "1", core.ImportanceLow)
	appendAnswered(t, repo, "s1", "two", "2", core.ImportanceLow)

	count, err := repo.CountSession(ctx, "s1")
	if err != nil {
		t.Fatalf("CountSession failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}
