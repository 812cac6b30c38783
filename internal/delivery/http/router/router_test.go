package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"accounts/config"
	"accounts/internal/delivery/http/middleware"
	"accounts/internal/delivery/http/response"
	"accounts/internal/delivery/http/router/handler"
	"accounts/internal/delivery/http/validator"
	infraauth "accounts/internal/infra/auth"
	"accounts/internal/infra/mail"
	"accounts/internal/infra/persistence/memory"
	"accounts/internal/usecase/impl"
)

// newTestServer wires the full HTTP stack against the in-memory store.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	cfg := &config.Config{}
	cfg.SecretKey.Token = "test-workflow-secret"
	cfg.SecretKey.Access = "test-access-secret"
	cfg.SecretKey.Refresh = "test-refresh-secret"
	cfg.Auth = &config.AuthConfig{
		BcryptCost:           bcrypt.MinCost,
		PublicIDLength:       config.DefaultPublicIDLength,
		VerificationTokenTTL: time.Hour,
		ResetTokenTTL:        time.Hour,
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      time.Hour,
	}

	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hasher := infraauth.NewBcryptHasher(cfg)
	codec, err := infraauth.NewJWTCodec(cfg)
	require.NoError(t, err)

	accounts := impl.NewAccountService(impl.AccountServiceParams{
		TxManager: store,
		UserRepo:  store.UserRepo(),
		Hasher:    hasher,
		Codec:     codec,
		IDGen:     infraauth.NewPublicIDGenerator(cfg),
		Mailer:    mail.NewLogMailer(logger),
		Logger:    logger,
	})
	auth := impl.NewAuthService(impl.AuthServiceParams{
		UserRepo:         store.UserRepo(),
		RefreshTokenRepo: store.RefreshTokenRepo(),
		Hasher:           hasher,
		Codec:            codec,
		Logger:           logger,
	})

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()
	e.HTTPErrorHandler = middleware.NewErrorMiddleware(logger).HandleHTTPError

	NewRouter(RouterParams{
		UserHandler:         handler.NewUserHandler(accounts, auth, logger),
		AuthMiddleware:      middleware.NewAuthMiddleware(codec),
		RequestIDMiddleware: middleware.NewRequestIDMiddleware(logger),
	}).RegisterRoutes(e)

	return e
}

func doJSON(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()

	var envelope response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	return envelope
}

const registerBody = `{
	"firstName": "Test",
	"lastName": "User",
	"email": "%EMAIL%",
	"password": "Password123!",
	"addresses": [{"street": "1 Main St", "city": "Springfield", "country": "US", "postalCode": "12345", "type": "shipping"}]
}`

func register(t *testing.T, e *echo.Echo, email string) string {
	t.Helper()

	rec := doJSON(e, http.MethodPost, "/users", strings.ReplaceAll(registerBody, "%EMAIL%", email), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	envelope := decodeEnvelope(t, rec)
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	userID, ok := data["userId"].(string)
	require.True(t, ok)

	return userID
}

func login(t *testing.T, e *echo.Echo, email, password string) (accessToken, refreshToken string) {
	t.Helper()

	rec := doJSON(e, http.MethodPost, "/users/login",
		`{"email": "`+email+`", "password": "`+password+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decodeEnvelope(t, rec).Data.(map[string]any)

	return data["accessToken"].(string), data["refreshToken"].(string)
}

func TestRouter_RegisterUser(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/users", strings.ReplaceAll(registerBody, "%EMAIL%", "new@example.com"), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)

	// The response never leaks credential material.
	body := rec.Body.String()
	assert.NotContains(t, body, "Password123!")
	assert.NotContains(t, body, "passwordHash")
	assert.NotContains(t, body, "emailVerificationToken")
}

func TestRouter_RegisterUser_DuplicateEmail(t *testing.T) {
	e := newTestServer(t)

	register(t, e, "dup@example.com")

	rec := doJSON(e, http.MethodPost, "/users", strings.ReplaceAll(registerBody, "%EMAIL%", "dup@example.com"), "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "DUPLICATE_EMAIL", envelope.Error.Code)
}

func TestRouter_RegisterUser_InvalidInput(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/users",
		`{"firstName": "Test", "lastName": "User", "email": "not-an-email", "password": "Password123!"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	e := newTestServer(t)

	userID := register(t, e, "auth@example.com")

	rec := doJSON(e, http.MethodGet, "/users/"+userID, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	accessToken, _ := login(t, e, "auth@example.com", "Password123!")
	rec = doJSON(e, http.MethodGet, "/users/"+userID, "", accessToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/users/"+userID, "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RefreshTokenIsNotAnAccessToken(t *testing.T) {
	e := newTestServer(t)

	userID := register(t, e, "tokens@example.com")
	_, refreshToken := login(t, e, "tokens@example.com", "Password123!")

	rec := doJSON(e, http.MethodGet, "/users/"+userID, "", refreshToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_UpdateOtherAccountForbidden(t *testing.T) {
	e := newTestServer(t)

	register(t, e, "owner@example.com")
	otherID := register(t, e, "other@example.com")
	accessToken, _ := login(t, e, "owner@example.com", "Password123!")

	rec := doJSON(e, http.MethodPut, "/users/"+otherID,
		`{"firstName": "Hacked", "lastName": "Name"}`, accessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/users/"+otherID, "", accessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_AdminRouteRequiresRole(t *testing.T) {
	e := newTestServer(t)

	register(t, e, "plain@example.com")
	accessToken, _ := login(t, e, "plain@example.com", "Password123!")

	rec := doJSON(e, http.MethodPost, "/admin/sessions/cleanup", "", accessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_PasswordResetRequestDoesNotRevealAccounts(t *testing.T) {
	e := newTestServer(t)

	register(t, e, "known@example.com")

	knownRec := doJSON(e, http.MethodPost, "/users/password-reset-request",
		`{"email": "known@example.com"}`, "")
	unknownRec := doJSON(e, http.MethodPost, "/users/password-reset-request",
		`{"email": "unknown@example.com"}`, "")

	assert.Equal(t, http.StatusOK, knownRec.Code)
	assert.Equal(t, http.StatusOK, unknownRec.Code)
	assert.JSONEq(t, knownRec.Body.String(), unknownRec.Body.String())
}

func TestRouter_LoginFailureIsGeneric(t *testing.T) {
	e := newTestServer(t)

	register(t, e, "victim@example.com")

	wrongPass := doJSON(e, http.MethodPost, "/users/login",
		`{"email": "victim@example.com", "password": "WrongPassword1!"}`, "")
	unknown := doJSON(e, http.MethodPost, "/users/login",
		`{"email": "ghost@example.com", "password": "Password123!"}`, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.JSONEq(t, wrongPass.Body.String(), unknown.Body.String())
}

func TestRouter_VerifyEmail_BadToken(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/users/email-verification?token=garbage", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "INVALID_OR_EXPIRED_TOKEN", envelope.Error.Code)
}

func TestRouter_Health(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
