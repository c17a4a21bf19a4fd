package farmer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/suspectuso/blum-farmer/internal/blum"
)

func TestRecovery_RecoversPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var kinds []string
	sleeper := &recordingSleep{limit: 1, cancel: cancel}
	r := &Recovery{
		Delay:     time.Minute,
		OnFailure: func(kind string) { kinds = append(kinds, kind) },
		Sleep:     sleeper.Sleep,
		Log:       testLogger(),
	}

	err := r.Loop(ctx, func(context.Context) (time.Duration, error) {
		panic("boom")
	})
	if err != nil {
		t.Fatalf("expected nil after cancel, got %v", err)
	}
	if len(kinds) != 1 || kinds[0] != "unknown" {
		t.Errorf("expected one unknown failure, got %v", kinds)
	}
	if sleeper.waits[0] != time.Minute {
		t.Errorf("expected back-off delay, got %v", sleeper.waits)
	}
}

func TestRecovery_UsesOpWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleeper := &recordingSleep{limit: 3, cancel: cancel}
	r := &Recovery{Delay: time.Minute, Sleep: sleeper.Sleep, Log: testLogger()}

	calls := 0
	r.Loop(ctx, func(context.Context) (time.Duration, error) {
		calls++
		if calls == 2 {
			return 0, blum.ErrTransport
		}
		return 5 * time.Second, nil
	})

	want := []time.Duration{5 * time.Second, time.Minute, 5 * time.Second}
	for i := range want {
		if sleeper.waits[i] != want[i] {
			t.Fatalf("expected waits %v, got %v", want, sleeper.waits)
		}
	}
}

func TestRecovery_Fatal(t *testing.T) {
	r := &Recovery{
		Delay: time.Minute,
		Fatal: func(err error) bool { return errors.Is(err, blum.ErrSessionInvalid) },
		Sleep: func(context.Context, time.Duration) error {
			t.Fatal("fatal error must not sleep")
			return nil
		},
		Log: testLogger(),
	}

	err := r.Loop(context.Background(), func(context.Context) (time.Duration, error) {
		return 0, blum.ErrSessionInvalid
	})
	if !errors.Is(err, blum.ErrSessionInvalid) {
		t.Errorf("expected fatal error returned, got %v", err)
	}
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled sleep should return immediately")
	}
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("zero sleep should succeed, got %v", err)
	}
}
