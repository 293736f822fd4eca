package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/character-service/internal/api/http/handlers"
	"github.com/spec-kit/character-service/internal/auth"
	"github.com/spec-kit/character-service/internal/config"
	"github.com/spec-kit/character-service/internal/domain"
	"github.com/spec-kit/character-service/internal/events"
	"github.com/spec-kit/character-service/internal/observability"
	"github.com/spec-kit/character-service/internal/repository"
	"github.com/spec-kit/character-service/internal/service"
	apperrors "github.com/spec-kit/character-service/pkg/util"
)

const testSecret = "test-jwt-secret"

type testEnv struct {
	app         *fiber.App
	auth        *service.AuthService
	revocations *auth.MemoryRevocationStore
	characters  repository.CharacterRepository
	metrics     *observability.Metrics
}

func newTestEnv(t *testing.T, extra ...fiber.Handler) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	revocations := auth.NewMemoryRevocationStore()
	dispatcher := events.NewInMemoryDispatcher()
	characters := repository.NewCharacterRepository()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:             testSecret,
		AccessTokenTTLMinutes: 15,
		BcryptCost:            4,
	}, service.AuthDependencies{
		UserRepo:    repository.NewUserRepository(),
		Revocations: revocations,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	app := NewApp(config.AppConfig{Name: "test", RequestTimeoutSeconds: 5}, logger, metrics)
	for _, h := range extra {
		app.Use(h)
	}
	RegisterRoutes(app, RouteConfig{
		Health:     handlers.NewHealthHandler("test", "dev", nil, metrics),
		Users:      handlers.NewUsersHandler(authService),
		Characters: handlers.NewCharactersHandler(service.NewCharacterService(characters, dispatcher, logger)),
		Verifier:   auth.NewVerifier(authService.TokenManager(), revocations),
	})

	return &testEnv{
		app:         app,
		auth:        authService,
		revocations: revocations,
		characters:  characters,
		metrics:     metrics,
	}
}

func (e *testEnv) token(t *testing.T, subject string, role domain.Role) string {
	t.Helper()
	token, _, err := e.auth.TokenManager().GenerateToken(subject, role)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, authorization, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decodeMessage(t *testing.T, raw []byte) any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	msg, ok := body["message"]
	require.True(t, ok, string(raw))
	return msg
}

func TestCreateCharacter_ThenRevokedTokenIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	bearer := "Bearer " + env.token(t, "7", domain.RoleUser)
	payload := `{"name":"Aragorn","lastName":"Elessar"}`

	status, raw := env.do(t, fiber.MethodPost, "/characters", bearer, payload)
	require.Equal(t, stdhttp.StatusCreated, status, string(raw))

	var created map[string]any
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.IsType(t, float64(0), created["id"])
	assert.Equal(t, "Aragorn", created["name"])
	assert.Equal(t, "Elessar", created["lastName"])

	require.NoError(t, env.revocations.Revoke(context.Background(), strings.TrimPrefix(bearer, "Bearer ")))

	status, raw = env.do(t, fiber.MethodPost, "/characters", bearer, payload)
	assert.Equal(t, stdhttp.StatusForbidden, status)
	assert.Equal(t, "Forbidden", decodeMessage(t, raw))
	assert.Equal(t, int64(1), env.metrics.ErrorCount("/characters", fiber.MethodPost, apperrors.CodeRevokedCredentials))

	list, err := env.characters.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetCharacter_NotFound(t *testing.T) {
	env := newTestEnv(t)
	bearer := "Bearer " + env.token(t, "7", domain.RoleUser)

	for _, path := range []string{"/characters/999", "/characters/abc", "/characters/-1"} {
		status, raw := env.do(t, fiber.MethodGet, path, bearer, "")
		assert.Equal(t, stdhttp.StatusNotFound, status, path)
		assert.JSONEq(t, `{"message":"Character not found"}`, string(raw), path)
	}
}

func TestGetCharacter_ListAndFetch(t *testing.T) {
	env := newTestEnv(t)
	bearer := "Bearer " + env.token(t, "7", domain.RoleUser)

	status, raw := env.do(t, fiber.MethodGet, "/characters", bearer, "")
	require.Equal(t, stdhttp.StatusOK, status)
	assert.JSONEq(t, `[]`, string(raw))

	created, err := env.characters.Create(context.Background(), domain.Character{Name: "Legolas", LastName: "Greenleaf"})
	require.NoError(t, err)

	status, raw = env.do(t, fiber.MethodGet, "/characters/1", bearer, "")
	require.Equal(t, stdhttp.StatusOK, status)
	var got domain.Character
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, created, got)

	status, raw = env.do(t, fiber.MethodGet, "/characters", bearer, "")
	require.Equal(t, stdhttp.StatusOK, status)
	var all []domain.Character
	require.NoError(t, json.Unmarshal(raw, &all))
	assert.Equal(t, []domain.Character{created}, all)
}

func TestCreateCharacter_ValidationIssues(t *testing.T) {
	env := newTestEnv(t)
	bearer := "Bearer " + env.token(t, "7", domain.RoleUser)

	status, raw := env.do(t, fiber.MethodPost, "/characters", bearer, `{"name":"Al"}`)
	require.Equal(t, stdhttp.StatusUnprocessableEntity, status)

	issues, ok := decodeMessage(t, raw).([]any)
	require.True(t, ok, string(raw))
	require.Len(t, issues, 2)
	assert.Equal(t, "name", issues[0].(map[string]any)["field"])
	assert.Equal(t, "min_length", issues[0].(map[string]any)["rule"])
	assert.Equal(t, "lastName", issues[1].(map[string]any)["field"])
	assert.Equal(t, "required", issues[1].(map[string]any)["rule"])

	list, err := env.characters.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateCharacter_MalformedBody(t *testing.T) {
	env := newTestEnv(t)
	bearer := "Bearer " + env.token(t, "7", domain.RoleUser)

	for _, body := range []string{`{"name":`, `not json`} {
		status, raw := env.do(t, fiber.MethodPost, "/characters", bearer, body)
		assert.Equal(t, stdhttp.StatusBadRequest, status, body)
		assert.Equal(t, "Invalid JSON body", decodeMessage(t, raw))
	}

	status, _ := env.do(t, fiber.MethodPost, "/characters", bearer, "")
	assert.Equal(t, stdhttp.StatusBadRequest, status)
}

func TestAuthentication_Failures(t *testing.T) {
	env := newTestEnv(t)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		Role: domain.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{name: "no header", header: "", status: stdhttp.StatusUnauthorized, code: apperrors.CodeMissingCredentials},
		{name: "empty bearer", header: "Bearer", status: stdhttp.StatusUnauthorized, code: apperrors.CodeMalformedCredentials},
		{name: "basic scheme", header: "Basic Zm9vOmJhcg==", status: stdhttp.StatusUnauthorized, code: apperrors.CodeMalformedCredentials},
		{name: "garbage", header: "Bearer abc.def.ghi", status: stdhttp.StatusUnauthorized, code: apperrors.CodeMalformedCredentials},
		{name: "expired", header: "Bearer " + expired, status: stdhttp.StatusUnauthorized, code: apperrors.CodeExpiredCredentials},
		{name: "wrong signature", header: "Bearer " + forged, status: stdhttp.StatusUnauthorized, code: apperrors.CodeInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := env.metrics.ErrorCount("/characters", fiber.MethodGet, tt.code)
			status, raw := env.do(t, fiber.MethodGet, "/characters", tt.header, "")
			assert.Equal(t, tt.status, status)
			assert.IsType(t, "", decodeMessage(t, raw))
			assert.Equal(t, before+1, env.metrics.ErrorCount("/characters", fiber.MethodGet, tt.code))
		})
	}
}

func TestAuthentication_RunsBeforeBodyIsRead(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, fiber.MethodPost, "/characters", "", `not json`)
	assert.Equal(t, stdhttp.StatusUnauthorized, status)
}

func TestAuthorization_AdminOnlyDelete(t *testing.T) {
	env := newTestEnv(t)
	user := "Bearer " + env.token(t, "7", domain.RoleUser)
	admin := "Bearer " + env.token(t, "1", domain.RoleAdmin)

	created, err := env.characters.Create(context.Background(), domain.Character{Name: "Boromir", LastName: "Denethorion"})
	require.NoError(t, err)

	status, raw := env.do(t, fiber.MethodDelete, "/characters/1", user, "")
	assert.Equal(t, stdhttp.StatusForbidden, status)
	assert.Equal(t, "Forbidden", decodeMessage(t, raw))
	assert.Equal(t, int64(1), env.metrics.ErrorCount("/characters/:id", fiber.MethodDelete, apperrors.CodeInsufficientRole))

	status, _ = env.do(t, fiber.MethodDelete, "/characters/1", admin, "")
	assert.Equal(t, stdhttp.StatusNoContent, status)

	_, err = env.characters.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	status, _ = env.do(t, fiber.MethodDelete, "/characters/1", admin, "")
	assert.Equal(t, stdhttp.StatusNotFound, status)
}

func TestUpdateCharacter(t *testing.T) {
	env := newTestEnv(t)
	bearer := "Bearer " + env.token(t, "7", domain.RoleUser)

	status, _ := env.do(t, fiber.MethodPut, "/characters/5", bearer, `{"name":"Nobody!","lastName":"Nowhere"}`)
	assert.Equal(t, stdhttp.StatusNotFound, status)
	list, err := env.characters.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	created, err := env.characters.Create(context.Background(), domain.Character{Name: "Samwise", LastName: "Gamgee"})
	require.NoError(t, err)

	status, raw := env.do(t, fiber.MethodPut, "/characters/1", bearer, `{"id":50,"name":"Samwise","lastName":"Gardner"}`)
	require.Equal(t, stdhttp.StatusOK, status, string(raw))
	var updated domain.Character
	require.NoError(t, json.Unmarshal(raw, &updated))
	assert.Equal(t, domain.Character{ID: created.ID, Name: "Samwise", LastName: "Gardner"}, updated)
}

func TestUnknownRoutes(t *testing.T) {
	env := newTestEnv(t)
	bearer := "Bearer " + env.token(t, "7", domain.RoleUser)

	for _, tc := range []struct{ method, path string }{
		{fiber.MethodGet, "/characters/"},
		{fiber.MethodGet, "/dragons"},
		{fiber.MethodPatch, "/characters/1"},
	} {
		status, raw := env.do(t, tc.method, tc.path, bearer, "")
		assert.Equal(t, stdhttp.StatusNotFound, status, tc.path)
		assert.Equal(t, "Route not found", decodeMessage(t, raw), tc.path)
	}
}

func TestCancelledRequestDoesNotMutate(t *testing.T) {
	cancelled := func(c *fiber.Ctx) error {
		ctx, cancel := context.WithCancel(c.UserContext())
		cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
	env := newTestEnv(t, cancelled)
	bearer := "Bearer " + env.token(t, "7", domain.RoleUser)

	status, _ := env.do(t, fiber.MethodPost, "/characters", bearer, `{"name":"Aragorn","lastName":"Elessar"}`)
	assert.Equal(t, stdhttp.StatusRequestTimeout, status)

	list, err := env.characters.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAccountFlow_RegisterLoginLogout(t *testing.T) {
	env := newTestEnv(t)

	status, raw := env.do(t, fiber.MethodPost, "/auth/register", "", `{"email":"frodo@shire.me","password":"ringbearer"}`)
	require.Equal(t, stdhttp.StatusCreated, status, string(raw))

	status, raw = env.do(t, fiber.MethodPost, "/auth/register", "", `{"email":"frodo@shire.me","password":"ringbearer"}`)
	assert.Equal(t, stdhttp.StatusConflict, status)
	assert.Equal(t, "Email already registered", decodeMessage(t, raw))

	status, raw = env.do(t, fiber.MethodPost, "/auth/register", "", `{"email":"frodo","password":"x"}`)
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, status)
	assert.Len(t, decodeMessage(t, raw), 2)

	status, _ = env.do(t, fiber.MethodPost, "/auth/login", "", `{"email":"frodo@shire.me","password":"wrong-password"}`)
	assert.Equal(t, stdhttp.StatusUnauthorized, status)

	status, raw = env.do(t, fiber.MethodPost, "/auth/login", "", `{"email":"frodo@shire.me","password":"ringbearer"}`)
	require.Equal(t, stdhttp.StatusOK, status, string(raw))

	var login struct {
		Data struct {
			User struct {
				ID   int64  `json:"id"`
				Role string `json:"role"`
			} `json:"user"`
			Auth struct {
				Token string `json:"token"`
			} `json:"auth"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &login))
	assert.Equal(t, "USER", login.Data.User.Role)
	bearer := "Bearer " + login.Data.Auth.Token

	status, _ = env.do(t, fiber.MethodGet, "/characters", bearer, "")
	require.Equal(t, stdhttp.StatusOK, status)

	status, _ = env.do(t, fiber.MethodPost, "/auth/logout", bearer, "")
	require.Equal(t, stdhttp.StatusNoContent, status)

	status, _ = env.do(t, fiber.MethodGet, "/characters", bearer, "")
	assert.Equal(t, stdhttp.StatusForbidden, status)
}

func TestAdminRevoke(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.token(t, "7", domain.RoleUser)
	user := "Bearer " + userToken
	admin := "Bearer " + env.token(t, "1", domain.RoleAdmin)

	status, _ := env.do(t, fiber.MethodPost, "/auth/revoke", user, `{"token":"`+userToken+`"}`)
	assert.Equal(t, stdhttp.StatusForbidden, status)

	status, _ = env.do(t, fiber.MethodPost, "/auth/revoke", admin, `{}`)
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, status)

	status, _ = env.do(t, fiber.MethodPost, "/auth/revoke", admin, `{"token":"`+userToken+`"}`)
	require.Equal(t, stdhttp.StatusNoContent, status)

	for i := 0; i < 2; i++ {
		status, _ = env.do(t, fiber.MethodPost, "/auth/revoke", admin, `{"token":"`+userToken+`"}`)
		assert.Equal(t, stdhttp.StatusNoContent, status)
	}

	status, _ = env.do(t, fiber.MethodGet, "/characters", user, "")
	assert.Equal(t, stdhttp.StatusForbidden, status)
	assert.Equal(t, 1, env.revocations.Len())
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	status, raw := env.do(t, fiber.MethodGet, "/health/live", "", "")
	require.Equal(t, stdhttp.StatusOK, status)
	assert.Contains(t, string(raw), `"alive"`)

	status, raw = env.do(t, fiber.MethodGet, "/health/ready", "", "")
	require.Equal(t, stdhttp.StatusOK, status)
	assert.Contains(t, string(raw), `"memory"`)

	status, _ = env.do(t, fiber.MethodGet, "/metrics", "Bearer "+env.token(t, "7", domain.RoleUser), "")
	assert.Equal(t, stdhttp.StatusForbidden, status)

	status, raw = env.do(t, fiber.MethodGet, "/metrics", "Bearer "+env.token(t, "1", domain.RoleAdmin), "")
	require.Equal(t, stdhttp.StatusOK, status)
	var snap observability.MetricsSnapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, int64(1), snap.Requests["/health/live|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/metrics|GET|"+apperrors.CodeInsufficientRole])
}

func TestPanicsBecomeInternalErrors(t *testing.T) {
	app := NewApp(config.AppConfig{Name: "test"}, zap.NewNop(), observability.NewMetrics())
	app.Get("/boom", func(*fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, stdhttp.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"message":"internal server error"}`, string(raw))
	assert.NotEmpty(t, resp.Header.Get(observability.HeaderRequestID))
}

func TestMetrics_KeyedByRoutePattern(t *testing.T) {
	env := newTestEnv(t)
	bearer := "Bearer " + env.token(t, "7", domain.RoleUser)

	for i := 0; i < 100; i++ {
		status, _ := env.do(t, fiber.MethodGet, fmt.Sprintf("/random-%d", i), "", "")
		require.Equal(t, stdhttp.StatusNotFound, status)

		status, _ = env.do(t, fiber.MethodGet, fmt.Sprintf("/characters/%d", i+1), bearer, "")
		require.Equal(t, stdhttp.StatusNotFound, status)
	}
	status, _ := env.do(t, fiber.MethodGet, "/health/live", "", "")
	require.Equal(t, stdhttp.StatusOK, status)

	snap := env.metrics.Snapshot()
	assert.Equal(t, map[string]int64{
		"unmatched|GET|404":       100,
		"/characters/:id|GET|404": 100,
		"/health/live|GET|200":    1,
	}, snap.Requests)
	assert.Equal(t, map[string]int64{
		"unmatched|GET|" + apperrors.CodeRouteNotFound:  100,
		"/characters/:id|GET|" + apperrors.CodeNotFound: 100,
	}, snap.Errors)
	assert.Len(t, snap.LatencyMillis, 3)
}
