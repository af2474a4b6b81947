package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	accountRepo "anoa.com/teamcommonapp/internal/modules/account/repository"
	account "anoa.com/teamcommonapp/internal/modules/account/service"
	"anoa.com/teamcommonapp/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newRouter(t *testing.T) (*gin.Engine, *testutil.Fixtures) {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	m := NewAuthMiddleware(accountRepo.NewAccountRepository(db), secret)

	r := gin.New()
	r.GET("/me", m.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	return r, testutil.NewFixtures(t, db)
}

func serve(r http.Handler, target, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r, fx := newRouter(t)
	acc := fx.Account("")

	token, _, err := account.GenerateToken(acc.ID.String(), secret, time.Hour)
	require.NoError(t, err)

	w := serve(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, acc.ID.String(), w.Body.String())

	w = serve(r, "/me?token="+token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_FailsClosed(t *testing.T) {
	r, fx := newRouter(t)
	acc := fx.Account("")

	expired, _, err := account.GenerateToken(acc.ID.String(), secret, -time.Minute)
	require.NoError(t, err)
	wrongKey, _, err := account.GenerateToken(acc.ID.String(), "other", time.Hour)
	require.NoError(t, err)
	ghost, _, err := account.GenerateToken(uuid.NewString(), secret, time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"missing":   "",
		"garbage":   "not-a-jwt",
		"expired":   expired,
		"wrong key": wrongKey,
		"ghost":     ghost,
	} {
		t.Run(name, func(t *testing.T) {
			w := serve(r, "/me", token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
