package in

import (
	"context"

	sessiondto "watchtrack/internal/modules/session/dto"
	sessionin "watchtrack/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Login(ctx context.Context, username, password string) (sessiondto.LoginOutput, error) {
	return h.usecase.Login(ctx, sessiondto.LoginInput{Username: username, Password: password})
}

func (h CLIHandler) Logout(ctx context.Context, notifyCollector bool) (sessiondto.LogoutOutput, error) {
	return h.usecase.Logout(ctx, sessiondto.LogoutInput{NotifyCollector: notifyCollector})
}

func (h CLIHandler) Current(ctx context.Context) (sessiondto.StateOutput, error) {
	return h.usecase.Current(ctx)
}
