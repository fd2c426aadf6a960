package out

import (
	"context"

	sessionout "watchtrack/internal/modules/session/port/out"
	"watchtrack/internal/platform/collector"
)

type CollectorAuthenticator struct {
	client *collector.Client
}

func NewCollectorAuthenticator(client *collector.Client) sessionout.Authenticator {
	return &CollectorAuthenticator{client: client}
}

func (a *CollectorAuthenticator) Login(ctx context.Context, username, password string) (string, bool, error) {
	resp, err := a.client.Login(ctx, collector.LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", false, err
	}
	return resp.SessionID, resp.Success, nil
}

func (a *CollectorAuthenticator) Logout(ctx context.Context, sessionID string) error {
	return a.client.Logout(ctx, sessionID)
}
