package service

import (
	"context"
	"fmt"
	"strings"

	"watchtrack/internal/modules/session/domain"
	sessionout "watchtrack/internal/modules/session/port/out"
	apperrors "watchtrack/internal/platform/errors"
	"watchtrack/internal/platform/id"
)

type AuthService struct {
	auth  sessionout.Authenticator
	store sessionout.StateStore
	idGen id.Generator
}

func NewAuthService(auth sessionout.Authenticator, store sessionout.StateStore, idGen id.Generator) *AuthService {
	return &AuthService{auth: auth, store: store, idGen: idGen}
}

// Login checks credentials with the collector and persists the session. It
// returns whether the session id was generated locally.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.StoredState, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.StoredState{}, false, fmt.Errorf("%w: username and password are required", apperrors.ErrInvalidInput)
	}
	sessionID, ok, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return domain.StoredState{}, false, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return domain.StoredState{}, false, apperrors.ErrInvalidCredentials
	}
	generated := false
	if sessionID == "" {
		sessionID = s.idGen.New()
		generated = true
	}
	state := domain.StoredState{LoggedIn: true, Username: username, SessionID: sessionID}
	if err := s.store.Save(ctx, state); err != nil {
		return domain.StoredState{}, false, err
	}
	return state, generated, nil
}

type LogoutResult struct {
	State domain.StoredState
	// RemoteErr is the failure of the best-effort collector call, if any.
	RemoteErr error
}

// Logout clears the stored session.
func (s *AuthService) Logout(ctx context.Context, notify bool) (LogoutResult, error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return LogoutResult{}, err
	}
	if !state.LoggedIn {
		return LogoutResult{}, apperrors.ErrNotLoggedIn
	}
	result := LogoutResult{State: state}
	if notify && state.SessionID != "" {
		result.RemoteErr = s.auth.Logout(ctx, state.SessionID)
	}
	if err := s.store.Clear(ctx); err != nil {
		return LogoutResult{}, err
	}
	return result, nil
}

func (s *AuthService) Current(ctx context.Context) (domain.StoredState, error) {
	return s.store.Load(ctx)
}
