package review

import (
	"testing"
	"time"

	"github.com/iamwavecut/modbot/internal/platform"
	"github.com/iamwavecut/modbot/internal/scoring"
)

func autoCase(content string, at time.Time) *Case {
	msg := platform.Message{
		Ref:      platform.MessageRef{GuildID: "1", ChannelID: "2", MessageID: content},
		AuthorID: "100",
		Content:  content,
	}
	return NewAutoCase(msg, scoring.ScoreMap{"CRYPTO_SCAM": 0.65}, at)
}

func dangerCase(content string, at time.Time) *Case {
	msg := platform.Message{AuthorID: "100", Content: content}
	return NewUserCase(msg, "200", &IntakeRecord{Category: CategoryDanger, ImmediateDanger: true}, at)
}

func TestQueueOrdersByTimestamp(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 8, 20, 37, 0, 0, time.UTC)
	q := NewQueue()
	q.Push(autoCase("second", base.Add(time.Minute)))
	q.Push(autoCase("first", base))
	q.Push(autoCase("third", base.Add(2*time.Minute)))

	for _, want := range []string{"first", "second", "third"} {
		got := q.Pop()
		if got == nil || got.Content != want {
			t.Fatalf("expected %q, got %+v", want, got)
		}
	}
	if q.Pop() != nil {
		t.Fatal("expected empty queue")
	}
}

func TestQueueDangerRankDequeuesFirst(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 8, 20, 37, 0, 0, time.UTC)
	q := NewQueue()
	q.Push(autoCase("old auto", base))
	q.Push(autoCase("older auto", base.Add(-time.Hour)))
	q.Push(dangerCase("urgent", base.Add(time.Hour)))

	got := q.Pop()
	if got == nil || got.Content != "urgent" {
		t.Fatalf("expected urgent case first, got %+v", got)
	}
	if got.DangerRank() != 0 {
		t.Fatalf("expected danger rank 0, got %d", got.DangerRank())
	}
	if next := q.Pop(); next == nil || next.Content != "older auto" {
		t.Fatalf("expected oldest auto case next, got %+v", next)
	}
}

func TestAutoCasesAreNeverUrgent(t *testing.T) {
	t.Parallel()

	c := autoCase("scam", time.Now())
	if c.DangerRank() != 1 {
		t.Fatalf("auto-flagged case must rank 1, got %d", c.DangerRank())
	}
	if c.Intake != nil || c.Scores == nil {
		t.Fatalf("auto case must carry scores and no intake record: %+v", c)
	}
}

func TestUserCaseCarriesIntakeOnly(t *testing.T) {
	t.Parallel()

	c := dangerCase("help", time.Now())
	if c.Scores != nil || c.Intake == nil {
		t.Fatalf("user case must carry intake record and no scores: %+v", c)
	}
	if c.ReporterAccount != "200" {
		t.Fatalf("reporter not captured: %+v", c)
	}
}
