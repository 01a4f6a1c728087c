package infra

import (
	"testing"
	"time"
)

func TestGoRecoverableRestartsAfterPanic(t *testing.T) {
	t.Parallel()

	calls := make(chan int, 2)
	attempt := 0
	GoRecoverable(1, "flaky", func() {
		attempt++
		calls <- attempt
		if attempt == 1 {
			panic("boom")
		}
	})

	for _, want := range []int{1, 2} {
		select {
		case got := <-calls:
			if got != want {
				t.Fatalf("expected attempt %d, got %d", want, got)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for attempt %d", want)
		}
	}
}

func TestGoRecoverableDoesNotRestartCleanExit(t *testing.T) {
	t.Parallel()

	calls := make(chan struct{}, 2)
	GoRecoverable(3, "oneshot", func() {
		calls <- struct{}{}
	})

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("job never ran")
	}
	select {
	case <-calls:
		t.Fatal("clean exit must not be restarted")
	case <-time.After(100 * time.Millisecond):
	}
}
