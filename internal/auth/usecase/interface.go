package usecase

import (
	authdomain "github.com/containersuper/bct-crm/internal/auth/domain"
	authdto "github.com/containersuper/bct-crm/internal/auth/dto"
)

type AuthUsecase interface {
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(token string) (*authdomain.User, error)
}
