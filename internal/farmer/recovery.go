package farmer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/suspectuso/blum-farmer/internal/blum"
)

// Op is one iteration of a loop. It returns how long to wait before the next one
type Op func(ctx context.Context) (time.Duration, error)

// Recovery runs an Op forever. Failed iterations are logged and followed by a
// fixed delay. Errors matched by Fatal end the loop
type Recovery struct {
	Delay     time.Duration
	Fatal     func(err error) bool
	OnFailure func(kind string)
	Sleep     func(ctx context.Context, d time.Duration) error
	Log       *slog.Logger
}

// Loop returns the fatal error that stopped it, or nil once ctx is done
func (r *Recovery) Loop(ctx context.Context, op Op) error {
	sleep := r.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		wait, err := r.run(ctx, op)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if r.Fatal != nil && r.Fatal(err) {
				return err
			}

			kind := blum.Kind(err)
			r.Log.Error("iteration failed, retrying",
				"kind", kind,
				"error", err,
				"retry_in", r.Delay,
			)
			if r.OnFailure != nil {
				r.OnFailure(kind)
			}
			wait = r.Delay
		}

		if err := sleep(ctx, wait); err != nil {
			return nil
		}
	}
}

// run converts a panic inside op into an error
func (r *Recovery) run(ctx context.Context, op Op) (wait time.Duration, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return op(ctx)
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
