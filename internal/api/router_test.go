package api_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/arenz/postboard/internal/api"
	"github.com/arenz/postboard/internal/auth"
	"github.com/arenz/postboard/internal/database"
	"github.com/arenz/postboard/internal/services"
)

type testServer struct {
	*httptest.Server
	db     *sql.DB
	tokens *auth.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.New(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tokens, err := auth.NewTokenService("test-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	router := api.NewRouter([]string{"*"}, tokens,
		services.NewUserService(db),
		services.NewPostService(db),
		services.NewVoteService(db))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, db: db, tokens: tokens}
}

func (ts *testServer) doJSON(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func (ts *testServer) doJSONList(t *testing.T, path string) (*http.Response, []map[string]any) {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var decoded []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatal(err)
	}
	return resp, decoded
}

// register creates a user and returns its id and a bearer token obtained
// through the login endpoint.
func (ts *testServer) register(t *testing.T, email, password string) (int64, string) {
	t.Helper()
	resp, body := ts.doJSON(t, http.MethodPost, "/users", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d", email, resp.StatusCode)
	}
	id := int64(body["id"].(float64))

	form := url.Values{"username": {email}, "password": {password}}
	loginResp, err := ts.Client().Post(ts.URL+"/login",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	defer loginResp.Body.Close()
	if loginResp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", email, loginResp.StatusCode)
	}
	var loginBody map[string]string
	if err := json.NewDecoder(loginResp.Body).Decode(&loginBody); err != nil {
		t.Fatal(err)
	}
	if loginBody["token_type"] != "bearer" {
		t.Fatalf("token_type = %q", loginBody["token_type"])
	}
	return id, loginBody["access_token"]
}

func TestRoot(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.doJSON(t, http.MethodGet, "/", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if body["message"] != "Hello World" {
		t.Fatalf("body = %v", body)
	}
}

func TestRegisterAndGetUser(t *testing.T) {
	ts := newTestServer(t)

	id, _ := ts.register(t, "alice@example.com", "secret")

	resp, body := ts.doJSON(t, http.MethodGet, "/users/1", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if int64(body["id"].(float64)) != id || body["email"] != "alice@example.com" {
		t.Fatalf("body = %v", body)
	}
	if _, ok := body["created_at"]; !ok {
		t.Fatal("created_at missing")
	}
	if _, leaked := body["password_hash"]; leaked {
		t.Fatal("password hash leaked")
	}

	resp, _ = ts.doJSON(t, http.MethodGet, "/users/999", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing user: status %d, want 404", resp.StatusCode)
	}

	resp, _ = ts.doJSON(t, http.MethodPost, "/users", "", map[string]string{
		"email": "alice@example.com", "password": "other",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate email: status %d, want 409", resp.StatusCode)
	}

	resp, _ = ts.doJSON(t, http.MethodPost, "/users", "", map[string]string{
		"email": "not-an-email", "password": "secret",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("bad email: status %d, want 422", resp.StatusCode)
	}
}

// Bad credentials answer 404, not 401, so the response confirms neither the
// email nor the password.
func TestLoginInvalidCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "alice@example.com", "secret")

	for _, form := range []url.Values{
		{"username": {"alice@example.com"}, "password": {"wrong"}},
		{"username": {"nobody@example.com"}, "password": {"secret"}},
	} {
		resp, err := ts.Client().Post(ts.URL+"/login",
			"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status %d, want 404", resp.StatusCode)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "alice@example.com", "secret")

	cases := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "garbage"},
	}
	for _, tc := range cases {
		resp, _ := ts.doJSON(t, http.MethodPost, "/posts", tc.token,
			map[string]string{"title": "t", "content": "c"})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s: status %d, want 401", tc.name, resp.StatusCode)
		}
		if resp.Header.Get("WWW-Authenticate") != "Bearer" {
			t.Errorf("%s: missing WWW-Authenticate challenge", tc.name)
		}
	}

	// An expired token signed with the right secret is still a 401.
	expired, err := auth.NewTokenService("test-secret", "HS256", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	expiredToken, err := expired.Issue(1)
	if err != nil {
		t.Fatal(err)
	}
	resp, _ := ts.doJSON(t, http.MethodPost, "/posts", expiredToken,
		map[string]string{"title": "t", "content": "c"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expired token: status %d, want 401", resp.StatusCode)
	}

	// A valid token for a user that no longer exists is a 401 too.
	if _, err := ts.db.Exec("DELETE FROM users WHERE email = 'alice@example.com'"); err != nil {
		t.Fatal(err)
	}
	resp, _ = ts.doJSON(t, http.MethodPost, "/posts", token,
		map[string]string{"title": "t", "content": "c"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("deleted user: status %d, want 401", resp.StatusCode)
	}
}

func TestPostLifecycle(t *testing.T) {
	ts := newTestServer(t)
	aliceID, aliceToken := ts.register(t, "alice@example.com", "secret")
	_, bobToken := ts.register(t, "bob@example.com", "secret")

	// Create: published defaults to true, owner is the caller.
	resp, body := ts.doJSON(t, http.MethodPost, "/posts", aliceToken,
		map[string]string{"title": "Hello", "content": "First content"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	if int64(body["owner_id"].(float64)) != aliceID {
		t.Fatalf("owner_id = %v, want %d", body["owner_id"], aliceID)
	}
	if body["published"] != true {
		t.Fatal("published must default to true")
	}

	// Listing is public; zero-vote posts show votes == 0.
	resp, list := ts.doJSONList(t, "/posts")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	if len(list) != 1 {
		t.Fatalf("listed %d posts", len(list))
	}
	if list[0]["votes"].(float64) != 0 {
		t.Fatalf("votes = %v, want 0", list[0]["votes"])
	}

	// Reading a single post requires auth.
	resp, body = ts.doJSON(t, http.MethodGet, "/posts/1", aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status %d", resp.StatusCode)
	}
	post := body["post"].(map[string]any)
	if post["title"] != "Hello" {
		t.Fatalf("title = %v", post["title"])
	}

	resp, _ = ts.doJSON(t, http.MethodGet, "/posts/999", aliceToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing post: status %d, want 404", resp.StatusCode)
	}

	// Only the owner may mutate.
	resp, _ = ts.doJSON(t, http.MethodPut, "/posts/1", bobToken,
		map[string]string{"title": "Hijacked", "content": "x"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign update: status %d, want 403", resp.StatusCode)
	}
	resp, _ = ts.doJSON(t, http.MethodDelete, "/posts/1", bobToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign delete: status %d, want 403", resp.StatusCode)
	}

	resp, body = ts.doJSON(t, http.MethodPut, "/posts/1", aliceToken,
		map[string]any{"title": "Renamed", "content": "Updated", "published": false})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: status %d", resp.StatusCode)
	}
	if body["title"] != "Renamed" || body["published"] != false {
		t.Fatalf("update body = %v", body)
	}

	// Delete answers 204 with an empty body.
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/posts/1", nil)
	req.Header.Set("Authorization", "Bearer "+aliceToken)
	delResp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(delResp.Body)
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d, want 204", delResp.StatusCode)
	}
	if len(raw) != 0 {
		t.Fatalf("delete body = %q, want empty", raw)
	}

	resp, _ = ts.doJSON(t, http.MethodGet, "/posts/1", aliceToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted post: status %d, want 404", resp.StatusCode)
	}
}

func TestVoting(t *testing.T) {
	ts := newTestServer(t)
	_, aliceToken := ts.register(t, "alice@example.com", "secret")
	_, bobToken := ts.register(t, "bob@example.com", "secret")

	resp, body := ts.doJSON(t, http.MethodPost, "/posts", aliceToken,
		map[string]string{"title": "Votable", "content": "c"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatal("create post failed")
	}
	postID := int64(body["id"].(float64))

	vote := func(token string, dir int) *http.Response {
		resp, _ := ts.doJSON(t, http.MethodPost, "/votes", token,
			map[string]any{"post_id": postID, "dir": dir})
		return resp
	}

	if resp := vote(bobToken, 1); resp.StatusCode != http.StatusCreated {
		t.Fatalf("vote: status %d, want 201", resp.StatusCode)
	}
	if resp := vote(bobToken, 1); resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate vote: status %d, want 409", resp.StatusCode)
	}
	if resp := vote(aliceToken, 1); resp.StatusCode != http.StatusCreated {
		t.Fatalf("second voter: status %d, want 201", resp.StatusCode)
	}

	resp, body = ts.doJSON(t, http.MethodGet, "/posts/1", aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatal("get post failed")
	}
	if body["votes"].(float64) != 2 {
		t.Fatalf("votes = %v, want 2", body["votes"])
	}

	if resp := vote(bobToken, 0); resp.StatusCode != http.StatusOK {
		t.Fatalf("remove vote: status %d, want 200", resp.StatusCode)
	}
	if resp := vote(bobToken, 0); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("remove absent vote: status %d, want 404", resp.StatusCode)
	}

	resp, _ = ts.doJSON(t, http.MethodPost, "/votes", bobToken,
		map[string]any{"post_id": postID, "dir": 5})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("bad dir: status %d, want 422", resp.StatusCode)
	}

	resp, _ = ts.doJSON(t, http.MethodPost, "/votes", bobToken,
		map[string]any{"post_id": 999, "dir": 1})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("vote on missing post: status %d, want 404", resp.StatusCode)
	}
}
