package settings

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsettings "github.com/oasisline/backoffice/internal/settings"
)

const testSecret = "test-signing-secret"

func newTestRouter(t *testing.T, appearance *appsettings.Appearance) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewSettingsHandler(appearance, testSecret, nil).Register(r)

	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return r, token
}

func do(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestToggleFlipsAppearance(t *testing.T) {
	appearance := appsettings.NewAppearance(appsettings.ModeLight)
	r, token := newTestRouter(t, appearance)

	w := do(r, http.MethodPost, "/v1/settings/appearance/toggle", token, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"mode":"dark"}`, w.Body.String())
	assert.Equal(t, appsettings.ModeDark, appearance.Mode())

	w = do(r, http.MethodPost, "/v1/settings/appearance/toggle", token, "")
	assert.JSONEq(t, `{"mode":"light"}`, w.Body.String())
}

func TestUpdateRejectsUnknownMode(t *testing.T) {
	appearance := appsettings.NewAppearance(appsettings.ModeLight)
	r, token := newTestRouter(t, appearance)

	w := do(r, http.MethodPut, "/v1/settings/appearance", token, `{"mode":"sepia"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appsettings.ModeLight, appearance.Mode())
}

func TestSettingsRequireAuth(t *testing.T) {
	appearance := appsettings.NewAppearance(appsettings.ModeLight)
	r, _ := newTestRouter(t, appearance)

	w := do(r, http.MethodGet, "/v1/settings/appearance", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
