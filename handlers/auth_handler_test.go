package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cogzy/cogzy-api/auth"
	"github.com/cogzy/cogzy-api/models"
	"github.com/cogzy/cogzy-api/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandler_SignUp(t *testing.T) {
	t.Run("creates account", func(t *testing.T) {
		svc := new(MockAuthService)
		user := models.NewUser("Ada Lovelace", "ada@example.com", "hash")
		input := services.SignUpInput{Name: "Ada Lovelace", Email: "ada@example.com", Password: "correct horse"}
		svc.On("SignUp", mock.Anything, input, services.ClientInfo{IPAddress: "192.0.2.1", UserAgent: "go-test"}).Return(user, nil)

		req := newRequest(http.MethodPost, "/api/v1/auth/sign-up", `{"name":"Ada Lovelace","email":"ada@example.com","password":"correct horse"}`, nil, nil)
		req.RemoteAddr = "192.0.2.1:4000"
		req.Header.Set("User-Agent", "go-test")
		w := httptest.NewRecorder()

		NewAuthHandler(svc, false, zap.NewNop()).HandleSignUp(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		result := decodeResult(t, w)
		assert.True(t, result.Success)
		assert.Equal(t, services.MsgSignedUp, result.Message)
		assert.NotContains(t, w.Body.String(), "hash")
		svc.AssertExpectations(t)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("SignUp", mock.Anything, mock.Anything, mock.Anything).Return(nil, services.NewConflictError(services.MsgEmailTaken, nil))

		w := httptest.NewRecorder()
		NewAuthHandler(svc, false, zap.NewNop()).HandleSignUp(w, newRequest(http.MethodPost, "/", `{"name":"Ada","email":"ada@example.com","password":"12345678"}`, nil, nil))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, services.MsgEmailTaken, decodeResult(t, w).Message)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		svc := new(MockAuthService)

		w := httptest.NewRecorder()
		NewAuthHandler(svc, false, zap.NewNop()).HandleSignUp(w, newRequest(http.MethodPost, "/", `{"name":"Ada","admin":true}`, nil, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, MsgInvalidRequestBody, decodeResult(t, w).Message)
		svc.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_SignIn(t *testing.T) {
	t.Run("sets the session cookie", func(t *testing.T) {
		svc := new(MockAuthService)
		expires := time.Now().Add(24 * time.Hour)
		svc.On("SignIn", mock.Anything, services.SignInInput{Email: "ada@example.com", Password: "pw"}, mock.Anything).
			Return(&services.SignInResult{Token: "signed.jwt.token", ExpiresAt: expires}, nil)

		w := httptest.NewRecorder()
		NewAuthHandler(svc, true, zap.NewNop()).HandleSignIn(w, newRequest(http.MethodPost, "/", `{"email":"ada@example.com","password":"pw"}`, nil, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		cookie := sessionCookie(w)
		require.NotNil(t, cookie)
		assert.Equal(t, "signed.jwt.token", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, services.MsgSignedIn, decodeResult(t, w).Message)
	})

	t.Run("wrong credentials", func(t *testing.T) {
		svc := new(MockAuthService)
		svc.On("SignIn", mock.Anything, mock.Anything, mock.Anything).Return(nil, services.NewUnauthorizedError(services.MsgInvalidCredentials))

		w := httptest.NewRecorder()
		NewAuthHandler(svc, false, zap.NewNop()).HandleSignIn(w, newRequest(http.MethodPost, "/", `{"email":"ada@example.com","password":"nope"}`, nil, nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, services.MsgInvalidCredentials, decodeResult(t, w).Message)
		assert.Nil(t, sessionCookie(w))
	})
}

func TestAuthHandler_SignOut(t *testing.T) {
	svc := new(MockAuthService)
	id := testIdentity()
	svc.On("SignOut", mock.Anything, id).Return(nil)

	w := httptest.NewRecorder()
	NewAuthHandler(svc, false, zap.NewNop()).HandleSignOut(w, newRequest(http.MethodPost, "/", "", id, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestAuthHandler_GetSession(t *testing.T) {
	svc := new(MockAuthService)
	id := testIdentity()
	view := &services.SessionView{
		User:    models.NewUser("Ada", "ada@example.com", "hash"),
		Session: services.SessionInfo{ID: id.SessionID, ActiveOrganizationID: id.ActiveOrganizationID},
	}
	svc.On("GetSession", mock.Anything, id).Return(view, nil)

	w := httptest.NewRecorder()
	NewAuthHandler(svc, false, zap.NewNop()).HandleGetSession(w, newRequest(http.MethodGet, "/", "", id, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id.ActiveOrganizationID.String())
}

func TestAuthHandler_SetActiveOrganization(t *testing.T) {
	orgID := uuid.New()

	tests := []struct {
		name       string
		body       string
		serviceErr error
		callsSvc   bool
		wantStatus int
	}{
		{"member switches", `{"organizationId":"` + orgID.String() + `"}`, nil, true, http.StatusOK},
		{"not a member", `{"organizationId":"` + orgID.String() + `"}`, services.NewForbiddenError(services.MsgNotOrganizationMember), true, http.StatusForbidden},
		{"malformed id", `{"organizationId":"acme"}`, nil, false, http.StatusBadRequest},
		{"missing id", `{}`, nil, false, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			id := testIdentity()
			if tt.callsSvc {
				svc.On("SetActiveOrganization", mock.Anything, id, orgID).Return(tt.serviceErr)
			}

			w := httptest.NewRecorder()
			NewAuthHandler(svc, false, zap.NewNop()).HandleSetActiveOrganization(w, newRequest(http.MethodPut, "/", tt.body, id, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}
