package session

import (
	"context"
	"errors"
	"testing"

	"github.com/vescom/vescom-api/internal/model"
)

func TestNewGuardStates(t *testing.T) {
	if got := New("").State(); got != Anonymous {
		t.Fatalf("no stored token: state = %v", got)
	}
	if got := New("tok").State(); got != Hydrating {
		t.Fatalf("stored token: state = %v", got)
	}
}

func TestHydrateSuccess(t *testing.T) {
	g := New("tok")
	err := g.Hydrate(context.Background(), func(_ context.Context, token string) (model.Admin, error) {
		if token != "tok" {
			t.Fatalf("resolver got token %q", token)
		}
		return model.Admin{ID: 9, Email: "ops@vescom.test"}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if g.State() != Authenticated {
		t.Fatalf("state = %v", g.State())
	}
	if tok, err := g.Token(); err != nil || tok != "tok" {
		t.Fatalf("Token() = %q, %v", tok, err)
	}
	if a, ok := g.Admin(); !ok || a.ID != 9 {
		t.Fatalf("Admin() = %+v, %v", a, ok)
	}
}

func TestHydrateFailureClearsToken(t *testing.T) {
	g := New("stale")
	resolveErr := errors.New("401")
	err := g.Hydrate(context.Background(), func(context.Context, string) (model.Admin, error) {
		return model.Admin{}, resolveErr
	})
	if !errors.Is(err, resolveErr) {
		t.Fatalf("err = %v", err)
	}
	if g.State() != Anonymous {
		t.Fatalf("state = %v, want Anonymous", g.State())
	}
	if _, err := g.Token(); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("Token() err = %v", err)
	}
}

func TestHydrateOutsideHydratingIsNoop(t *testing.T) {
	g := New("")
	called := false
	if err := g.Hydrate(context.Background(), func(context.Context, string) (model.Admin, error) {
		called = true
		return model.Admin{}, nil
	}); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("resolver must not run for an anonymous guard")
	}
}

func TestHydrateTransportFailureKeepsToken(t *testing.T) {
	g := New("tok")
	err := g.Hydrate(context.Background(), func(context.Context, string) (model.Admin, error) {
		return model.Admin{}, context.DeadlineExceeded
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if g.State() != Invalid {
		t.Fatalf("state = %v, want Invalid", g.State())
	}

	// A retry from Invalid resumes with the kept token.
	err = g.Hydrate(context.Background(), func(_ context.Context, token string) (model.Admin, error) {
		if token != "tok" {
			t.Fatalf("retry lost the token: %q", token)
		}
		return model.Admin{ID: 4}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if g.State() != Authenticated {
		t.Fatalf("state = %v", g.State())
	}
}

func TestLoginRacesHydration(t *testing.T) {
	// A login landing while the old token resolves must win over the
	// hydration outcome.
	g := New("old")
	err := g.Hydrate(context.Background(), func(context.Context, string) (model.Admin, error) {
		g.Login("new", model.Admin{ID: 2})
		return model.Admin{}, errors.New("401")
	})
	if err != nil {
		t.Fatalf("stale hydration result must be discarded, got %v", err)
	}
	if tok, err := g.Token(); err != nil || tok != "new" {
		t.Fatalf("Token() = %q, %v", tok, err)
	}
}

func TestLogoutAndInvalidate(t *testing.T) {
	g := New("")
	g.Login("tok", model.Admin{ID: 1})
	g.Logout()
	if g.State() != Anonymous {
		t.Fatalf("state after logout = %v", g.State())
	}

	g.Login("tok2", model.Admin{ID: 1})
	g.Invalidate()
	if g.State() != Anonymous {
		t.Fatalf("state after invalidate = %v", g.State())
	}
	if _, ok := g.Admin(); ok {
		t.Fatal("admin profile must be cleared")
	}
}

func TestSubmitGuardSingleFlight(t *testing.T) {
	s := NewSubmitGuard()
	release, err := s.Begin(1)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Pending(1) {
		t.Fatal("actor 1 should be pending")
	}
	if _, err := s.Begin(1); !errors.Is(err, ErrSubmitPending) {
		t.Fatalf("second Begin err = %v", err)
	}
	// Other actors are unaffected.
	release2, err := s.Begin(2)
	if err != nil {
		t.Fatal(err)
	}
	release2()

	release()
	if s.Pending(1) {
		t.Fatal("release must clear the pending slot")
	}
	if _, err := s.Begin(1); err != nil {
		t.Fatalf("Begin after release err = %v", err)
	}
}
