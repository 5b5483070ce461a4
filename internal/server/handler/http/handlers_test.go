package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/atinyakov/slashmsg/internal/models"
	"github.com/atinyakov/slashmsg/internal/repository"
	"github.com/atinyakov/slashmsg/internal/service"
)

type fakeAuthService struct {
	signupErr error
	loginErr  error
	creds     *service.Credentials
	updated   *models.User
}

func (f *fakeAuthService) Signup(ctx context.Context, name, username, number, password, ip string) (*service.Credentials, error) {
	if f.signupErr != nil {
		return nil, f.signupErr
	}
	return f.creds, nil
}

func (f *fakeAuthService) Login(ctx context.Context, identifier, password, ip string) (*service.Credentials, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.creds, nil
}

func (f *fakeAuthService) UpdateProfile(ctx context.Context, userID string, patch service.ProfilePatch) (*models.User, error) {
	return f.updated, nil
}

type fakeMessageService struct {
	sendErr  error
	msg      *models.Message
	history  []models.Message
	convos   []models.Conversation
	blocked  []string
	searched []models.User
}

func (f *fakeMessageService) Send(ctx context.Context, senderID, toIdentifier, kind, text, mediaURL string) (*models.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.msg, nil
}

func (f *fakeMessageService) Conversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	return f.convos, nil
}

func (f *fakeMessageService) History(ctx context.Context, userID, otherID string) ([]models.Message, error) {
	return f.history, nil
}

func (f *fakeMessageService) Search(ctx context.Context, q, selfID string) ([]models.User, error) {
	return f.searched, nil
}

func (f *fakeMessageService) Block(ctx context.Context, userID, otherID string) error {
	f.blocked = append(f.blocked, otherID)
	return nil
}

func (f *fakeMessageService) Unblock(ctx context.Context, userID, otherID string) error {
	return nil
}

type fakeAdminService struct {
	users     []models.AdminUser
	logs      []models.AdminLogEntry
	suspended []string
}

func (f *fakeAdminService) Users(ctx context.Context) ([]models.AdminUser, error) { return f.users, nil }
func (f *fakeAdminService) Logs(ctx context.Context) ([]models.AdminLogEntry, error) {
	return f.logs, nil
}
func (f *fakeAdminService) Suspend(ctx context.Context, adminUsername, targetID string) error {
	f.suspended = append(f.suspended, targetID)
	return nil
}
func (f *fakeAdminService) Activate(ctx context.Context, adminUsername, targetID string) error {
	return nil
}

// fakeAuthenticator resolves fixed tokens so the protected routes can
// be exercised without a database.
type fakeAuthenticator struct{}

func (fakeAuthenticator) Authenticate(ctx context.Context, token string) (*repository.UserRecord, error) {
	switch token {
	case "user-token":
		return &repository.UserRecord{
			User:     models.User{ID: "u1", Name: "Alice", Username: "alice", Number: "123"},
			IsActive: true,
		}, nil
	case "admin-token":
		return &repository.UserRecord{
			User:     models.User{ID: "a1", Name: "Moderator", Username: "online911"},
			IsAdmin:  true,
			IsActive: true,
		}, nil
	case "suspended-token":
		return nil, service.ErrSuspended
	default:
		return nil, service.ErrUnauthorized
	}
}

type testEnv struct {
	router   http.Handler
	auth     *fakeAuthService
	messages *fakeMessageService
	admin    *fakeAdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		auth:     &fakeAuthService{},
		messages: &fakeMessageService{},
		admin:    &fakeAdminService{},
	}
	uploadDir := t.TempDir()
	env.router = NewRouter(
		&AuthHandler{AuthService: env.auth, Log: zap.NewNop()},
		&MessagesHandler{Messages: env.messages},
		&UploadHandler{Dir: uploadDir, Log: zap.NewNop()},
		&AdminHandler{Admin: env.admin},
		fakeAuthenticator{},
		uploadDir,
		zap.NewNop(),
	)
	return env
}

func (env *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func detailOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("cannot decode error body %q: %v", w.Body.String(), err)
	}
	return body.Detail
}

func TestPing(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/ping", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/auth/signup", "",
		`{"name":"Alice","username":"","number":"123","password":"pw"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if got := detailOf(t, w); got != "all fields are required" {
		t.Errorf("unexpected detail %q", got)
	}
}

func TestSignupConflict(t *testing.T) {
	env := newTestEnv(t)
	env.auth.signupErr = service.ErrUsernameTaken

	w := env.do(t, http.MethodPost, "/auth/signup", "",
		`{"name":"Alice","username":"alice","number":"123","password":"pw"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if got := detailOf(t, w); got != "username already taken" {
		t.Errorf("unexpected detail %q", got)
	}
}

func TestLoginReturnsCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.auth.creds = &service.Credentials{
		Token: "tok-1",
		Role:  models.RoleUser,
		User:  models.User{ID: "u1", Username: "alice"},
	}

	w := env.do(t, http.MethodPost, "/auth/login", "", `{"identifier":"alice","password":"pw"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string      `json:"token"`
		Role  string      `json:"role"`
		User  models.User `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("cannot decode body: %v", err)
	}
	if resp.Token != "tok-1" || resp.Role != models.RoleUser || resp.User.Username != "alice" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestLoginRejection(t *testing.T) {
	env := newTestEnv(t)
	env.auth.loginErr = service.ErrInvalidCredentials

	w := env.do(t, http.MethodPost, "/auth/login", "", `{"identifier":"alice","password":"bad"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if got := detailOf(t, w); got != "invalid credentials" {
		t.Errorf("unexpected detail %q", got)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/me", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/me", "suspended-token", "")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a suspended account, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/me", "user-token", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with a valid token, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"username":"alice"`) {
		t.Errorf("unexpected identity body: %s", w.Body.String())
	}
}

func TestSendReturnsServerAssignedFields(t *testing.T) {
	env := newTestEnv(t)
	env.messages.msg = &models.Message{ID: "m-1", CreatedAt: "2026-08-31T12:00:00Z"}

	w := env.do(t, http.MethodPost, "/messages/send", "user-token",
		`{"to_identifier":"bob","kind":"text","text":"hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID        string `json:"id"`
		CreatedAt string `json:"created_at"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("cannot decode body: %v", err)
	}
	if resp.ID != "m-1" || resp.CreatedAt != "2026-08-31T12:00:00Z" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSendToBlockedUser(t *testing.T) {
	env := newTestEnv(t)
	env.messages.sendErr = service.ErrBlocked

	w := env.do(t, http.MethodPost, "/messages/send", "user-token",
		`{"to_identifier":"bob","kind":"text","text":"hi"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestHistoryShapesEmptyList(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/messages/with/u2", "user-token", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != `{"messages":[]}` {
		t.Errorf("expected an empty messages array, got %s", w.Body.String())
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	env := newTestEnv(t)
	env.admin.users = []models.AdminUser{{ID: "u1", Username: "alice"}}

	w := env.do(t, http.MethodGet, "/admin/users", "user-token", "")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a regular user, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/admin/users", "admin-token", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for an admin, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"username":"alice"`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestSuspendRecordsTarget(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/admin/suspend/u2", "admin-token", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(env.admin.suspended) != 1 || env.admin.suspended[0] != "u2" {
		t.Errorf("expected suspend for u2, got %+v", env.admin.suspended)
	}
}

func TestUploadInfersKind(t *testing.T) {
	env := newTestEnv(t)

	var buf strings.Builder
	boundary := "testboundary"
	buf.WriteString("--" + boundary + "\r\n")
	buf.WriteString("Content-Disposition: form-data; name=\"file\"; filename=\"pic.png\"\r\n")
	buf.WriteString("Content-Type: image/png\r\n\r\n")
	buf.WriteString("not a real png\r\n")
	buf.WriteString("--" + boundary + "--\r\n")

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(buf.String()))
	req.Header.Set("Authorization", "Bearer user-token")
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		URL  string `json:"url"`
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("cannot decode body: %v", err)
	}
	if resp.Kind != models.KindImage {
		t.Errorf("expected image kind, got %q", resp.Kind)
	}
	if !strings.HasPrefix(resp.URL, "/uploads/") || !strings.HasSuffix(resp.URL, ".png") {
		t.Errorf("unexpected upload URL %q", resp.URL)
	}
}
