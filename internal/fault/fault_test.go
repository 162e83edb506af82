package fault

import (
	"context"
	"errors"
	"testing"
)

func TestCheck(t *testing.T) {
	if err := Check(context.Background()); err != nil {
		t.Errorf("Check on live context: got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Check(ctx)
	if !errors.Is(err, ErrCanceled) {
		t.Errorf("expected ErrCanceled, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestCanceled_Idempotent(t *testing.T) {
	err := Canceled(context.Canceled)
	if again := Canceled(err); again != err {
		t.Errorf("Canceled should not re-wrap: got %v", again)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"invalid argument", InvalidArgument("bad %d", 3), ErrInvalidArgument},
		{"internal", Internal("broken %s", "tree"), ErrInternal},
		{"invalid operation", InvalidOperation("rewind"), ErrInvalidOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("%v does not wrap %v", tt.err, tt.sentinel)
			}
		})
	}
	if got := InvalidArgument("bad %d", 3).Error(); got != "invalid argument: bad 3" {
		t.Errorf("message: got %q", got)
	}
}

func TestCollapse(t *testing.T) {
	canceled := Canceled(context.Canceled)
	other := errors.New("disk on fire")

	t.Run("no errors", func(t *testing.T) {
		if err := Collapse([]error{nil, nil}); err != nil {
			t.Errorf("got %v, want nil", err)
		}
	})

	t.Run("only canceled", func(t *testing.T) {
		err := Collapse([]error{canceled, nil, context.Canceled, canceled})
		if !errors.Is(err, ErrCanceled) {
			t.Fatalf("expected single canceled error, got %v", err)
		}
		var joined interface{ Unwrap() []error }
		if errors.As(err, &joined) && len(joined.Unwrap()) > 2 {
			t.Errorf("canceled errors should collapse, got aggregate %v", err)
		}
	})

	t.Run("single failure", func(t *testing.T) {
		if err := Collapse([]error{nil, other}); err != other {
			t.Errorf("got %v, want %v", err, other)
		}
	})

	t.Run("mixed", func(t *testing.T) {
		err := Collapse([]error{canceled, other})
		if !errors.Is(err, other) {
			t.Errorf("aggregate should contain %v, got %v", other, err)
		}
		if !errors.Is(err, ErrCanceled) {
			t.Errorf("aggregate should keep the canceled branch, got %v", err)
		}
	})
}
