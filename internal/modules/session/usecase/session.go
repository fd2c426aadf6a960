package usecase

import (
	"context"

	sessiondto "watchtrack/internal/modules/session/dto"
	sessionin "watchtrack/internal/modules/session/port/in"
	"watchtrack/internal/modules/session/service"
)

type Interactor struct {
	svc *service.AuthService
}

func NewInteractor(svc *service.AuthService) sessionin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Login(ctx context.Context, input sessiondto.LoginInput) (sessiondto.LoginOutput, error) {
	state, generated, err := i.svc.Login(ctx, input.Username, input.Password)
	if err != nil {
		return sessiondto.LoginOutput{}, err
	}
	return sessiondto.LoginOutput{Username: state.Username, SessionID: state.SessionID, Generated: generated}, nil
}

func (i *Interactor) Logout(ctx context.Context, input sessiondto.LogoutInput) (sessiondto.LogoutOutput, error) {
	result, err := i.svc.Logout(ctx, input.NotifyCollector)
	if err != nil {
		return sessiondto.LogoutOutput{}, err
	}
	out := sessiondto.LogoutOutput{Username: result.State.Username, SessionID: result.State.SessionID}
	if result.RemoteErr != nil {
		out.RemoteErr = result.RemoteErr.Error()
	}
	return out, nil
}

func (i *Interactor) Current(ctx context.Context) (sessiondto.StateOutput, error) {
	state, err := i.svc.Current(ctx)
	if err != nil {
		return sessiondto.StateOutput{}, err
	}
	return sessiondto.StateOutput{LoggedIn: state.LoggedIn, Username: state.Username, SessionID: state.SessionID}, nil
}
