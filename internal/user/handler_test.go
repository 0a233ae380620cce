package user

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/portfolio-backend/internal/asset"
	"github.com/wichananm65/portfolio-backend/internal/auth"
	"github.com/wichananm65/portfolio-backend/internal/logging"
)

const testAdminEmail = "admin@example.com"

type testEnv struct {
	app    *fiber.App
	repo   *InMemoryRepository
	store  *asset.MemoryStore
	tokens *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := NewInMemoryRepository(nil)
	store := asset.NewMemoryStore()
	tokens := auth.NewTokenService("test-secret")
	guard := NewGuard(repo, tokens, testAdminEmail, logging.Nop{})
	handler := NewHandler(NewService(repo, store, tokens), guard, logging.Nop{})

	app := fiber.New()
	users := app.Group("/users")
	handler.RegisterPublicRoutes(users)
	handler.RegisterProtectedRoutes(users)
	return &testEnv{app: app, repo: repo, store: store, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path, contentType string, body io.Reader, token string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}

func (e *testEnv) doJSON(t *testing.T, method, path, body, token string) (int, []byte) {
	t.Helper()
	return e.do(t, method, path, fiber.MIMEApplicationJSON, strings.NewReader(body), token)
}

type authResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    PublicView `json:"user"`
}

func (e *testEnv) register(t *testing.T, email, password string) authResponse {
	t.Helper()
	body := `{"firstName":"Ada","lastName":"Lovelace","dob":"1815-12-10","email":"` + email + `","password":"` + password + `"}`
	status, b := e.doJSON(t, "POST", "/users/register", body, "")
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201 on register, got %d: %s", status, b)
	}
	var resp authResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (string, *bytes.Buffer) {
	t.Helper()
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "avatar.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(image)
	}
	w.Close()
	return w.FormDataContentType(), buf
}

func TestUserRoutes_Registered(t *testing.T) {
	env := newTestEnv(t)

	routes := map[string]bool{}
	for _, grp := range env.app.Stack() {
		for _, r := range grp {
			routes[r.Method+" "+r.Path] = true
		}
	}
	for _, want := range []string{
		"POST /users/register",
		"POST /users/login",
		"GET /users/profile",
		"PUT /users/update",
		"GET /users/all",
	} {
		if !routes[want] {
			t.Fatalf("expected route %q to be registered", want)
		}
	}
}

func TestRegister_ReturnsTokenAndPublicView(t *testing.T) {
	env := newTestEnv(t)
	resp := env.register(t, "ada@example.com", "secret")

	if resp.Message != "User registered successfully" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if resp.Token == "" {
		t.Fatalf("expected a token")
	}
	if resp.User.Role != auth.RoleUser || resp.User.Email != "ada@example.com" || resp.User.DOB != "1815-12-10" {
		t.Fatalf("unexpected user view %+v", resp.User)
	}

	id, err := env.tokens.Verify(resp.Token)
	if err != nil || id != resp.User.ID {
		t.Fatalf("token should encode %s, got %s (%v)", resp.User.ID, id, err)
	}

	stored, err := env.repo.GetByEmail(t.Context(), "ada@example.com")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if stored.Password == "secret" {
		t.Fatalf("password stored in plaintext")
	}
	if cost, err := bcrypt.Cost([]byte(stored.Password)); err != nil || cost != PasswordCost {
		t.Fatalf("expected bcrypt cost %d, got %d (%v)", PasswordCost, cost, err)
	}
}

func TestRegister_AdminEmailGetsAdminRole(t *testing.T) {
	env := newTestEnv(t)
	resp := env.register(t, testAdminEmail, "secret")
	if resp.User.Role != auth.RoleAdmin {
		t.Fatalf("expected admin role, got %q", resp.User.Role)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	first := env.register(t, "dup@example.com", "first")

	body := `{"firstName":"Other","lastName":"Person","dob":"2000-01-01","email":"dup@example.com","password":"second"}`
	status, b := env.doJSON(t, "POST", "/users/register", body, "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate register, got %d", status)
	}
	if !strings.Contains(string(b), "User already exists") {
		t.Fatalf("unexpected body %s", b)
	}

	stored, err := env.repo.GetByEmail(t.Context(), "dup@example.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored.ID != first.User.ID || stored.FirstName != "Ada" {
		t.Fatalf("first record was modified: %+v", stored)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("first")) != nil {
		t.Fatalf("first record password changed")
	}
}

func TestRegister_MissingFields(t *testing.T) {
	env := newTestEnv(t)
	status, b := env.doJSON(t, "POST", "/users/register", `{"email":"x@example.com","password":"pw"}`, "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if !strings.Contains(string(b), "All fields are required") {
		t.Fatalf("unexpected body %s", b)
	}
}

func TestRegister_MultipartWithImage(t *testing.T) {
	env := newTestEnv(t)
	ct, body := multipartBody(t, map[string]string{
		"firstName": "Grace", "lastName": "Hopper", "dob": "1906-12-09",
		"email": "grace@example.com", "password": "cobol",
	}, []byte("png-bytes"))

	status, b := env.do(t, "POST", "/users/register", ct, body, "")
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, b)
	}

	stored, _ := env.repo.GetByEmail(t.Context(), "grace@example.com")
	if stored.Image == "" || stored.ImagePublicID == "" {
		t.Fatalf("expected avatar to be stored, got %+v", stored)
	}
	if calls := env.store.CallLog(); len(calls) != 1 || calls[0] != "upload:"+asset.FolderUsers {
		t.Fatalf("unexpected asset calls %v", calls)
	}
}

func TestRegister_UploadFailureCreatesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.store.UploadErr = errors.New("host down")
	ct, body := multipartBody(t, map[string]string{
		"firstName": "Grace", "lastName": "Hopper", "dob": "1906-12-09",
		"email": "grace@example.com", "password": "cobol",
	}, []byte("png-bytes"))

	status, b := env.do(t, "POST", "/users/register", ct, body, "")
	if status != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if !strings.Contains(string(b), "Registration failed") {
		t.Fatalf("unexpected body %s", b)
	}
	if _, err := env.repo.GetByEmail(t.Context(), "grace@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no user should exist after failed upload, got %v", err)
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ada@example.com", "secret")

	wrongStatus, wrongBody := env.doJSON(t, "POST", "/users/login", `{"email":"ada@example.com","password":"nope"}`, "")
	unknownStatus, unknownBody := env.doJSON(t, "POST", "/users/login", `{"email":"ghost@example.com","password":"nope"}`, "")

	if wrongStatus != fiber.StatusBadRequest || unknownStatus != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for both, got %d and %d", wrongStatus, unknownStatus)
	}
	if !bytes.Equal(wrongBody, unknownBody) {
		t.Fatalf("bodies differ: %s vs %s", wrongBody, unknownBody)
	}
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "ada@example.com", "secret")

	status, b := env.doJSON(t, "POST", "/users/login", `{"email":"ada@example.com","password":"secret"}`, "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, b)
	}
	var resp authResponse
	json.Unmarshal(b, &resp)
	if resp.Message != "Login successful" || resp.User.ID != registered.User.ID || resp.Token == "" {
		t.Fatalf("unexpected login response %+v", resp)
	}
	if strings.Contains(string(b), "password") {
		t.Fatalf("login response must not expose password: %s", b)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.doJSON(t, "POST", "/users/login", `{"email":"ada@example.com"}`, "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestProfile_RejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "ada@example.com", "secret")

	expired, _ := env.tokens.WithClock(func() time.Time { return time.Now().Add(-25 * time.Hour) }).Issue(registered.User.ID)
	orphan, _ := env.tokens.Issue(uuid.NewString())
	forged, _ := auth.NewTokenService("other-secret").Issue(registered.User.ID)

	for name, token := range map[string]string{
		"missing": "",
		"garbage": "not-a-token",
		"expired": expired,
		"orphan":  orphan,
		"forged":  forged,
	} {
		status, b := env.do(t, "GET", "/users/profile", "", nil, token)
		if status != fiber.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, status)
		}
		if !strings.Contains(string(b), "Unauthorized") {
			t.Fatalf("%s: unexpected body %s", name, b)
		}
	}
}

func TestProfile_ReturnsUserWithRole(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "ada@example.com", "secret")

	status, b := env.do(t, "GET", "/users/profile", "", nil, registered.Token)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var resp struct {
		User ProfileView `json:"user"`
	}
	json.Unmarshal(b, &resp)
	if resp.User.ID != registered.User.ID || resp.User.Role != auth.RoleUser {
		t.Fatalf("unexpected profile %+v", resp.User)
	}
	if strings.Contains(string(b), "password") {
		t.Fatalf("profile must not expose password: %s", b)
	}
}

func TestUpdate_EmptyLeavesProfileUnchanged(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "ada@example.com", "secret")

	_, before := env.do(t, "GET", "/users/profile", "", nil, registered.Token)

	status, b := env.doJSON(t, "PUT", "/users/update", `{}`, registered.Token)
	if status != fiber.StatusBadRequest || !strings.Contains(string(b), "Nothing to update") {
		t.Fatalf("expected 400 Nothing to update, got %d: %s", status, b)
	}
	status, _ = env.doJSON(t, "PUT", "/users/update", `{"firstName":""}`, registered.Token)
	if status != fiber.StatusBadRequest {
		t.Fatalf("empty strings count as absent, expected 400, got %d", status)
	}

	_, after := env.do(t, "GET", "/users/profile", "", nil, registered.Token)
	if !bytes.Equal(before, after) {
		t.Fatalf("profile changed:\nbefore %s\nafter  %s", before, after)
	}
}

func TestUpdate_PasswordOnly(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "ada@example.com", "secret")
	before, _ := env.repo.GetByID(t.Context(), registered.User.ID)

	status, b := env.doJSON(t, "PUT", "/users/update", `{"password":"new-secret"}`, registered.Token)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, b)
	}
	if strings.Contains(string(b), "password") {
		t.Fatalf("update response must not expose password: %s", b)
	}

	after, _ := env.repo.GetByID(t.Context(), registered.User.ID)
	if after.Password == before.Password {
		t.Fatalf("password hash did not change")
	}
	if bcrypt.CompareHashAndPassword([]byte(after.Password), []byte("new-secret")) != nil {
		t.Fatalf("new password does not match stored hash")
	}
	after.Password, before.Password = "", ""
	after.UpdatedAt, before.UpdatedAt = time.Time{}, time.Time{}
	if after != before {
		t.Fatalf("other fields changed:\nbefore %+v\nafter  %+v", before, after)
	}

	status, _ = env.doJSON(t, "POST", "/users/login", `{"email":"ada@example.com","password":"new-secret"}`, "")
	if status != fiber.StatusOK {
		t.Fatalf("login with new password failed: %d", status)
	}
}

func TestUpdate_ImageKeepsPreviousAsset(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "ada@example.com", "secret")

	var handles []string
	for i := 0; i < 2; i++ {
		ct, body := multipartBody(t, nil, []byte("avatar"))
		status, b := env.do(t, "PUT", "/users/update", ct, body, registered.Token)
		if status != fiber.StatusOK {
			t.Fatalf("expected 200, got %d: %s", status, b)
		}
		u, _ := env.repo.GetByID(t.Context(), registered.User.ID)
		handles = append(handles, u.ImagePublicID)
	}

	if handles[0] == handles[1] {
		t.Fatalf("expected a new avatar handle")
	}
	if !env.store.Has(handles[0]) {
		t.Fatalf("previous avatar should not be destroyed")
	}
	for _, call := range env.store.CallLog() {
		if strings.HasPrefix(call, "destroy:") {
			t.Fatalf("unexpected destroy call %q", call)
		}
	}
}

func TestUpdate_EmailTaken(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "taken@example.com", "secret")
	registered := env.register(t, "ada@example.com", "secret")

	status, b := env.doJSON(t, "PUT", "/users/update", `{"email":"taken@example.com"}`, registered.Token)
	if status != fiber.StatusBadRequest || !strings.Contains(string(b), "User already exists") {
		t.Fatalf("expected 400 User already exists, got %d: %s", status, b)
	}
}

func TestAll_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	plain := env.register(t, "ada@example.com", "secret")
	admin := env.register(t, testAdminEmail, "secret")

	status, b := env.do(t, "GET", "/users/all", "", nil, plain.Token)
	if status != fiber.StatusForbidden || !strings.Contains(string(b), "Admin only") {
		t.Fatalf("expected 403 Admin only, got %d: %s", status, b)
	}

	status, b = env.do(t, "GET", "/users/all", "", nil, admin.Token)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", status)
	}
	var resp struct {
		Users []map[string]any `json:"users"`
	}
	json.Unmarshal(b, &resp)
	if len(resp.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(resp.Users))
	}
	for _, u := range resp.Users {
		if _, ok := u["password"]; ok {
			t.Fatalf("listing must not expose password")
		}
		if _, ok := u["imagePublicId"]; ok {
			t.Fatalf("listing exposes unexpected field imagePublicId")
		}
	}

	status, _ = env.do(t, "GET", "/users/all", "", nil, "")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
}

func TestRequireAdmin_WithoutAuthenticate(t *testing.T) {
	repo := NewInMemoryRepository(nil)
	guard := NewGuard(repo, auth.NewTokenService("k"), testAdminEmail, logging.Nop{})
	app := fiber.New()
	app.Get("/admin", guard.RequireAdmin(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	res, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}
}
