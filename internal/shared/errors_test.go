package shared

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError(t *testing.T) {
	t.Run("sentinel matching", func(t *testing.T) {
		err := NewError(KindNotFound, "song 42 not found", nil)
		wrapped := fmt.Errorf("saavn: %w", err)

		if !errors.Is(wrapped, ErrNotFound) {
			t.Error("expected wrapped error to match ErrNotFound")
		}
		if errors.Is(wrapped, ErrUnauthorized) {
			t.Error("did not expect match with ErrUnauthorized")
		}
	})

	t.Run("cause is preserved", func(t *testing.T) {
		cause := errors.New("dial tcp: refused")
		err := NewError(KindUpstream, "upstream unavailable", cause)
		if !errors.Is(err, cause) {
			t.Error("expected cause in chain")
		}
	})

	t.Run("status and safe message", func(t *testing.T) {
		tc := []struct {
			err    error
			status int
			msg    string
		}{
			{Errorf(KindInvalidLink, "unsupported link %q", "x"), http.StatusBadRequest, `unsupported link "x"`},
			{NewError(KindRateLimited, "slow down", nil), http.StatusTooManyRequests, "slow down"},
			{NewError(KindTimeout, "timed out", nil), http.StatusRequestTimeout, "timed out"},
			{NewError(KindUpstream, "bad gateway", nil), http.StatusBadGateway, "bad gateway"},
			{NewError(KindConfiguration, "missing credentials", nil), http.StatusInternalServerError, "missing credentials"},
			{NewError(KindCanceled, "request canceled", nil), StatusClientClosedRequest, "request canceled"},
			{errors.New("boom"), http.StatusInternalServerError, "internal server error"},
		}

		for _, tt := range tc {
			if got := StatusOf(tt.err); got != tt.status {
				t.Errorf("StatusOf(%v) = %d, want %d", tt.err, got, tt.status)
			}
			if got := SafeMessageOf(tt.err); got != tt.msg {
				t.Errorf("SafeMessageOf(%v) = %q, want %q", tt.err, got, tt.msg)
			}
		}
	})

	t.Run("KindOf", func(t *testing.T) {
		if KindOf(fmt.Errorf("x: %w", ErrForbidden)) != KindForbidden {
			t.Error("expected KindForbidden")
		}
		if KindOf(errors.New("plain")) != KindUnknown {
			t.Error("expected KindUnknown for untyped error")
		}
		if KindUpstream.String() != "UpstreamError" {
			t.Errorf("unexpected kind name %s", KindUpstream)
		}
	})

	t.Run("ContextError", func(t *testing.T) {
		canceled := ContextError(context.Canceled, "token exchange")
		if !errors.Is(canceled, ErrCanceled) || !errors.Is(canceled, context.Canceled) {
			t.Errorf("expected canceled error, got %v", canceled)
		}
		if canceled.SafeMessage != "token exchange was canceled" {
			t.Errorf("unexpected message %q", canceled.SafeMessage)
		}

		expired := ContextError(context.DeadlineExceeded, "token exchange")
		if !errors.Is(expired, ErrTimeout) || StatusOf(expired) != http.StatusRequestTimeout {
			t.Errorf("expected timeout, got %v", expired)
		}
	})
}
