package delivery

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	authdomain "github.com/containersuper/bct-crm/internal/auth/domain"
	authdto "github.com/containersuper/bct-crm/internal/auth/dto"

	"github.com/gin-gonic/gin"
)

// fakeAuthUsecase accepts one known token.
type fakeAuthUsecase struct {
	validToken string
	user       *authdomain.User
}

func (f *fakeAuthUsecase) Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	return nil, nil
}
func (f *fakeAuthUsecase) Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	return nil, nil
}
func (f *fakeAuthUsecase) RefreshToken(refreshToken string) (*authdto.TokenResponse, error) {
	return nil, nil
}
func (f *fakeAuthUsecase) Logout(refreshToken string) error { return nil }
func (f *fakeAuthUsecase) ValidateToken(token string) (*authdomain.User, error) {
	if token == f.validToken {
		return f.user, nil
	}
	return nil, errors.New("invalid token")
}

func protectedRouter(uc *fakeAuthUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthMiddleware(uc), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "user_id": c.GetString("userID")})
	})
	return r
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	r := protectedRouter(&fakeAuthUsecase{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	r := protectedRouter(&fakeAuthUsecase{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "token-without-scheme")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	r := protectedRouter(&fakeAuthUsecase{validToken: "good"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer expired-or-forged")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewarePassesValidToken(t *testing.T) {
	uc := &fakeAuthUsecase{validToken: "good", user: &authdomain.User{ID: "user-1", Email: "eva@firma.de"}}
	r := protectedRouter(uc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)
}
