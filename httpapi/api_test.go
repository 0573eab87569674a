package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chonburidev/records-api/auth"
	"github.com/chonburidev/records-api/config"
	"github.com/chonburidev/records-api/httpapi"
	"github.com/chonburidev/records-api/store"
)

type testServer struct {
	app *fiber.App
	cfg *config.Config
}

func newTestServer(t *testing.T, mutate ...func(cfg *config.Config)) *testServer {
	t.Helper()

	cfg := &config.Config{
		Port:          "3000",
		JWTSecret:     "api-test-secret",
		TokenTTL:      10 * time.Minute,
		CookieName:    "jwt",
		TokenDelivery: config.DeliveryCookie,
		BcryptCost:    bcryptMinCostForTests,
	}
	for _, fn := range mutate {
		fn(cfg)
	}
	require.NoError(t, cfg.Validate())

	kv := store.NewMemory()
	creds := store.NewCredentials(kv)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL, cfg.TokenIssuer, nil)
	svc := auth.NewService(creds, hasher, tokens)

	app := fiber.New()
	httpapi.New(cfg, svc, tokens, kv, nil).Register(app)

	return &testServer{app: app, cfg: cfg}
}

// bcrypt's minimum cost keeps the end-to-end suite fast.
const bcryptMinCostForTests = 4

func (s *testServer) do(t *testing.T, method, path string, body any, decorate ...func(*http.Request)) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for _, fn := range decorate {
		fn(req)
	}

	resp, err := s.app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func registerBody(username string) map[string]string {
	return map[string]string{
		"username": username,
		"password": "hunter2!",
		"name":     "Test " + username,
		"email":    username + "@example.com",
		"role":     "staff",
	}
}

func sessionCookie(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set on response", name)
	return nil
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, "GET", "/", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "backend OK", string(raw))
}

func TestRegister(t *testing.T) {
	srv := newTestServer(t)

	t.Run("first user gets id 1", func(t *testing.T) {
		resp := srv.do(t, "POST", "/register", registerBody("alice"))
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, float64(1), body["userId"])
		assert.NotEmpty(t, body["id"])
	})

	t.Run("second user gets id 2", func(t *testing.T) {
		resp := srv.do(t, "POST", "/register", registerBody("bob"))
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, float64(2), body["userId"])
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		resp := srv.do(t, "POST", "/register", registerBody("alice"))
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})

	t.Run("missing field is rejected before the store", func(t *testing.T) {
		body := registerBody("carol")
		delete(body, "email")

		resp := srv.do(t, "POST", "/register", body)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/register", strings.NewReader("{not json"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := srv.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, "POST", "/register", registerBody("alice"))

	t.Run("success sets the session cookie", func(t *testing.T) {
		resp := srv.do(t, "POST", "/login", map[string]string{
			"username": "alice",
			"password": "hunter2!",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		cookie := sessionCookie(t, resp, "jwt")
		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, "/", cookie.Path)
		assert.Equal(t, int((10 * time.Minute).Seconds()), cookie.MaxAge)

		body := decodeBody(t, resp)
		assert.Equal(t, "login successful", body["message"])

		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "alice", user["username"])
		assert.NotContains(t, user, "passwordHash")

		// Cookie-only delivery keeps the token out of the body.
		assert.NotContains(t, body, "token")
	})

	t.Run("unknown user and wrong password are indistinguishable", func(t *testing.T) {
		unknown := srv.do(t, "POST", "/login", map[string]string{
			"username": "mallory",
			"password": "whatever",
		})
		wrongPass := srv.do(t, "POST", "/login", map[string]string{
			"username": "alice",
			"password": "wrong",
		})

		assert.Equal(t, fiber.StatusUnauthorized, unknown.StatusCode)
		assert.Equal(t, fiber.StatusUnauthorized, wrongPass.StatusCode)

		rawUnknown, err := io.ReadAll(unknown.Body)
		require.NoError(t, err)
		rawWrong, err := io.ReadAll(wrongPass.Body)
		require.NoError(t, err)
		assert.Equal(t, string(rawUnknown), string(rawWrong))
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		resp := srv.do(t, "POST", "/login", map[string]string{"username": "alice"})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestLoginBodyDelivery(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.TokenDelivery = config.DeliveryBody
	})
	srv.do(t, "POST", "/register", registerBody("alice"))

	resp := srv.do(t, "POST", "/login", map[string]string{
		"username": "alice",
		"password": "hunter2!",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["token"])

	for _, c := range resp.Cookies() {
		assert.NotEqual(t, "jwt", c.Name, "body delivery must not set the session cookie")
	}
}

func TestPrivateData(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, "POST", "/register", registerBody("alice"))

	login := srv.do(t, "POST", "/login", map[string]string{
		"username": "alice",
		"password": "hunter2!",
	})
	cookie := sessionCookie(t, login, "jwt")

	t.Run("without a token", func(t *testing.T) {
		resp := srv.do(t, "GET", "/private-data", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("with a garbage token", func(t *testing.T) {
		resp := srv.do(t, "GET", "/private-data", nil, func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: "jwt", Value: "garbage"})
		})
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("with the session cookie", func(t *testing.T) {
		resp := srv.do(t, "GET", "/private-data", nil, func(req *http.Request) {
			req.AddCookie(cookie)
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "private data", body["message"])

		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "alice", user["username"])
		assert.Equal(t, float64(1), user["userId"])
	})

	t.Run("with a bearer header", func(t *testing.T) {
		resp := srv.do(t, "GET", "/private-data", nil, func(req *http.Request) {
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+cookie.Value)
		})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestListUsersProtected(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, "POST", "/register", registerBody("alice"))
	srv.do(t, "POST", "/register", registerBody("bob"))

	t.Run("requires a token", func(t *testing.T) {
		resp := srv.do(t, "GET", "/users", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("lists summaries without hashes", func(t *testing.T) {
		login := srv.do(t, "POST", "/login", map[string]string{
			"username": "alice",
			"password": "hunter2!",
		})
		cookie := sessionCookie(t, login, "jwt")

		resp := srv.do(t, "GET", "/users", nil, func(req *http.Request) {
			req.AddCookie(cookie)
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "passwordHash")

		users := map[string]map[string]any{}
		require.NoError(t, json.Unmarshal(raw, &users))
		assert.Len(t, users, 2)
	})
}

func TestUserCRUD(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, "POST", "/register", registerBody("alice"))

	t.Run("get by id", func(t *testing.T) {
		resp := srv.do(t, "GET", "/users/1", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "alice", body["username"])
		assert.NotContains(t, body, "passwordHash")
	})

	t.Run("get unknown id", func(t *testing.T) {
		resp := srv.do(t, "GET", "/users/42", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("get non-numeric id", func(t *testing.T) {
		resp := srv.do(t, "GET", "/users/abc", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("update merges fields", func(t *testing.T) {
		resp := srv.do(t, "PUT", "/users/1", map[string]string{"email": "new@example.com"})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "update successful", body["message"])

		got := srv.do(t, "GET", "/users/1", nil)
		gotBody := decodeBody(t, got)
		assert.Equal(t, "new@example.com", gotBody["email"])
		assert.Equal(t, "alice", gotBody["username"])
	})

	t.Run("empty update is rejected", func(t *testing.T) {
		resp := srv.do(t, "PUT", "/users/1", map[string]string{})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("update unknown id", func(t *testing.T) {
		resp := srv.do(t, "PUT", "/users/42", map[string]string{"name": "X"})
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete then get", func(t *testing.T) {
		resp := srv.do(t, "DELETE", "/users/1", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "delete successful", body["message"])

		got := srv.do(t, "GET", "/users/1", nil)
		assert.Equal(t, fiber.StatusNotFound, got.StatusCode)
	})

	t.Run("delete unknown id", func(t *testing.T) {
		resp := srv.do(t, "DELETE", "/users/42", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestLogout(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, "POST", "/register", registerBody("alice"))

	login := srv.do(t, "POST", "/login", map[string]string{
		"username": "alice",
		"password": "hunter2!",
	})
	require.NotEmpty(t, sessionCookie(t, login, "jwt").Value)

	resp := srv.do(t, "POST", "/logout", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "logout successful", body["message"])

	cleared := sessionCookie(t, resp, "jwt")
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.Expires.Before(time.Now()))
}

func TestRecordCollections(t *testing.T) {
	srv := newTestServer(t)

	for _, route := range []string{"/items", "/books"} {
		t.Run(route, func(t *testing.T) {
			created := srv.do(t, "POST", route, map[string]string{"name": "first"})
			require.Equal(t, fiber.StatusCreated, created.StatusCode)

			body := decodeBody(t, created)
			assert.NotEmpty(t, body["id"])
			assert.Equal(t, "first", body["name"])

			missing := srv.do(t, "POST", route, map[string]string{})
			assert.Equal(t, fiber.StatusBadRequest, missing.StatusCode)

			list := srv.do(t, "GET", route, nil)
			require.Equal(t, fiber.StatusOK, list.StatusCode)

			records := map[string]map[string]any{}
			raw, err := io.ReadAll(list.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, &records))
			require.Len(t, records, 1)
			assert.Equal(t, "first", records[body["id"].(string)]["name"])
		})
	}
}
