package in

import (
	"context"

	"watchtrack/internal/modules/session/dto"
)

type Usecase interface {
	Login(ctx context.Context, input dto.LoginInput) (dto.LoginOutput, error)
	Logout(ctx context.Context, input dto.LogoutInput) (dto.LogoutOutput, error)
	Current(ctx context.Context) (dto.StateOutput, error)
}
