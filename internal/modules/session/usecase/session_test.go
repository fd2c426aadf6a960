package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	sessionout "watchtrack/internal/modules/session/adapter/out"
	sessiondto "watchtrack/internal/modules/session/dto"
	sessionin "watchtrack/internal/modules/session/port/in"
	"watchtrack/internal/modules/session/service"
	"watchtrack/internal/modules/session/usecase"
	apperrors "watchtrack/internal/platform/errors"
)

type fakeID struct{}

func (fakeID) New() string { return "local-1" }

type fakeAuth struct {
	sessionID  string
	accept     bool
	err        error
	logoutErr  error
	loggedOut  []string
	lastUser   string
	lastSecret string
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (string, bool, error) {
	f.lastUser, f.lastSecret = username, password
	return f.sessionID, f.accept, f.err
}

func (f *fakeAuth) Logout(_ context.Context, sessionID string) error {
	f.loggedOut = append(f.loggedOut, sessionID)
	return f.logoutErr
}

func newInteractor(t *testing.T, auth *fakeAuth) (*sessionout.FileStateStore, sessionin.Usecase) {
	t.Helper()
	store := sessionout.NewFileStateStore(filepath.Join(t.TempDir(), "state.json"))
	uc := usecase.NewInteractor(service.NewAuthService(auth, store, fakeID{}))
	return store, uc
}

func TestLoginPersistsStateAndLogoutClears(t *testing.T) {
	t.Parallel()
	auth := &fakeAuth{sessionID: "s1", accept: true}
	store, uc := newInteractor(t, auth)
	ctx := context.Background()

	out, err := uc.Login(ctx, sessiondto.LoginInput{Username: " ann ", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if out.SessionID != "s1" || out.Username != "ann" || out.Generated {
		t.Fatalf("unexpected login output %+v", out)
	}
	state, err := store.Load(ctx)
	if err != nil || !state.LoggedIn || state.SessionID != "s1" {
		t.Fatalf("state not persisted: %+v %v", state, err)
	}

	logout, err := uc.Logout(ctx, sessiondto.LogoutInput{NotifyCollector: true})
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if logout.SessionID != "s1" || len(auth.loggedOut) != 1 || auth.loggedOut[0] != "s1" {
		t.Fatalf("collector not notified: %+v %v", logout, auth.loggedOut)
	}
	cur, _ := uc.Current(ctx)
	if cur.LoggedIn {
		t.Fatalf("state should be cleared")
	}
}

func TestLoginGeneratesSessionIDWhenCollectorOmitsIt(t *testing.T) {
	t.Parallel()
	_, uc := newInteractor(t, &fakeAuth{accept: true})
	out, err := uc.Login(context.Background(), sessiondto.LoginInput{Username: "ann", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if out.SessionID != "local-1" || !out.Generated {
		t.Fatalf("expected generated id, got %+v", out)
	}
}

func TestLoginRejections(t *testing.T) {
	t.Parallel()
	_, uc := newInteractor(t, &fakeAuth{accept: false})
	ctx := context.Background()
	if _, err := uc.Login(ctx, sessiondto.LoginInput{Username: "ann", Password: "bad"}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := uc.Login(ctx, sessiondto.LoginInput{Username: "", Password: "pw"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	_, failing := newInteractor(t, &fakeAuth{err: errors.New("dial refused")})
	if _, err := failing.Login(ctx, sessiondto.LoginInput{Username: "ann", Password: "pw"}); err == nil {
		t.Fatalf("transport failure should surface")
	}
}

func TestLogoutIsBestEffortAndSkippable(t *testing.T) {
	t.Parallel()
	auth := &fakeAuth{sessionID: "s1", accept: true, logoutErr: errors.New("collector down")}
	_, uc := newInteractor(t, auth)
	ctx := context.Background()

	if _, err := uc.Logout(ctx, sessiondto.LogoutInput{}); !errors.Is(err, apperrors.ErrNotLoggedIn) {
		t.Fatalf("expected not logged in, got %v", err)
	}
	if _, err := uc.Login(ctx, sessiondto.LoginInput{Username: "ann", Password: "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	out, err := uc.Logout(ctx, sessiondto.LogoutInput{NotifyCollector: true})
	if err != nil {
		t.Fatalf("remote failure must not fail logout: %v", err)
	}
	if out.RemoteErr == "" {
		t.Fatalf("remote error should be reported")
	}

	if _, err := uc.Login(ctx, sessiondto.LoginInput{Username: "ann", Password: "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := uc.Logout(ctx, sessiondto.LogoutInput{NotifyCollector: false}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(auth.loggedOut) != 1 {
		t.Fatalf("collector should be skipped, calls=%v", auth.loggedOut)
	}
}
