package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"grievance/backend/internal/auth"
	"grievance/backend/internal/models"
	"grievance/backend/internal/storage"
)

const secret = "test-secret"

func newService(t *testing.T) (*auth.Service, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	return auth.NewService(mem, secret, time.Hour, auth.WithBcryptCost(bcrypt.MinCost)), mem
}

func TestJWT_RoundTrip(t *testing.T) {
	tok, err := auth.SignJWT(secret, "u1", "officer", time.Minute)
	require.NoError(t, err)

	c, err := auth.ParseJWT(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, "officer", c.Role)
}

func TestJWT_Rejects(t *testing.T) {
	expired, err := auth.SignJWT(secret, "u1", "citizen", -time.Minute)
	require.NoError(t, err)
	_, err = auth.ParseJWT(secret, expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	other, err := auth.SignJWT("other-secret", "u1", "citizen", time.Minute)
	require.NoError(t, err)
	_, err = auth.ParseJWT(secret, other)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	_, err = auth.ParseJWT(secret, "not-a-token")
	assert.Error(t, err)
}

func TestAllowed(t *testing.T) {
	assert.True(t, auth.Allowed(models.RoleCitizen, auth.ActionSubmitGrievance))
	assert.False(t, auth.Allowed(models.RoleOfficer, auth.ActionSubmitGrievance))
	assert.False(t, auth.Allowed(models.RoleAdmin, auth.ActionSubmitGrievance))

	assert.True(t, auth.Allowed(models.RoleOfficer, auth.ActionUpdateStatus))
	assert.False(t, auth.Allowed(models.RoleAdmin, auth.ActionUpdateStatus))

	assert.True(t, auth.Allowed(models.RoleAdmin, auth.ActionAssignGrievance))
	assert.True(t, auth.Allowed(models.RoleAdmin, auth.ActionViewAnalytics))
	assert.False(t, auth.Allowed(models.RoleCitizen, auth.ActionViewAnalytics))

	assert.False(t, auth.Allowed(models.Role("root"), auth.ActionListGrievances))
}

func TestRegisterAndLogin(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	tok, u, err := svc.Register(ctx, "Asha", " Asha@Example.com ", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.Equal(t, models.RoleCitizen, u.Role)
	assert.Equal(t, "asha@example.com", u.Email)

	stored, err := mem.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	_, _, err = svc.Register(ctx, "Asha again", "asha@example.com", "secret1")
	assert.ErrorIs(t, err, auth.ErrUserExists)

	_, got, err := svc.Login(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, _, err = svc.Login(ctx, "asha@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, auth.NewUserInput{Name: "", Email: "a@b.c", Password: "secret1"})
	assert.ErrorIs(t, err, auth.ErrInvalidInput)
	_, err = svc.CreateUser(ctx, auth.NewUserInput{Name: "A", Email: "a@b.c", Password: "123"})
	assert.ErrorIs(t, err, auth.ErrInvalidInput)
	_, err = svc.CreateUser(ctx, auth.NewUserInput{Name: "A", Email: "a@b.c", Password: "secret1", Role: "root"})
	assert.ErrorIs(t, err, auth.ErrInvalidInput)

	u, err := svc.CreateUser(ctx, auth.NewUserInput{Name: "Officer", Email: "o@b.c", Password: "secret1", Role: models.RoleOfficer, DepartmentID: "d1"})
	require.NoError(t, err)
	require.NotNil(t, u.DepartmentID)
	assert.Equal(t, "d1", *u.DepartmentID)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, mem := newService(t)
	ctx := context.Background()

	officer := &models.User{Name: "O", Email: "o@x.y", Role: models.RoleOfficer}
	require.NoError(t, mem.CreateUser(ctx, officer))
	officerTok, err := svc.Token(officer)
	require.NoError(t, err)

	r := gin.New()
	r.Use(svc.Middleware())
	r.GET("/status", auth.Require(auth.ActionUpdateStatus), func(c *gin.Context) {
		u, _ := auth.CurrentUser(c)
		c.String(http.StatusOK, u.ID)
	})
	r.GET("/analytics", auth.Require(auth.ActionViewAnalytics), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(path, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do("/status", "Bearer "+officerTok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, officer.ID, w.Body.String())

	assert.Equal(t, http.StatusOK, do("/status?token="+officerTok, "").Code)
	assert.Equal(t, http.StatusForbidden, do("/analytics", "Bearer "+officerTok).Code)
	assert.Equal(t, http.StatusUnauthorized, do("/status", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/status", "Bearer garbage").Code)

	require.NoError(t, mem.DeleteUser(ctx, officer.ID))
	assert.Equal(t, http.StatusUnauthorized, do("/status", "Bearer "+officerTok).Code)
}
