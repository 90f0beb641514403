package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpn-manager/internal/auth"
	"vpn-manager/internal/database"
	"vpn-manager/internal/network"
	"vpn-manager/internal/wireguard"
)

// stubKeyGen is a deterministic key generator test double. With fail set it
// simulates an unavailable wg binary.
type stubKeyGen struct {
	fail bool
	n    int
}

func (s *stubKeyGen) GenerateKeyPair() (*wireguard.KeyPair, error) {
	if s.fail {
		return nil, errors.New("wg genkey failed")
	}
	s.n++
	return &wireguard.KeyPair{
		PrivateKey: fmt.Sprintf("test-private-key-%d", s.n),
		PublicKey:  fmt.Sprintf("test-public-key-%d", s.n),
	}, nil
}

// testEnv bundles the pieces handler tests drive requests through.
type testEnv struct {
	db          *database.Database
	router      *gin.Engine
	authManager *auth.AuthManager
	keygen      *stubKeyGen
}

func setupTestAPI(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err)

	pool, err := network.NewPool("10.0.0.0/24")
	require.NoError(t, err)

	keygen := &stubKeyGen{}
	authManager := auth.NewAuthManager("test-secret")
	middleware := auth.NewAuthMiddleware(authManager)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewAuthAPI(db, authManager, zerolog.Nop()).RegisterRoutes(router)
	NewClientAPI(db, pool, keygen, zerolog.Nop()).RegisterRoutes(router, middleware)

	return &testEnv{
		db:          db,
		router:      router,
		authManager: authManager,
		keygen:      keygen,
	}
}

// bearer issues a valid token for the tests' synthetic operator.
func (env *testEnv) bearer(t *testing.T) string {
	t.Helper()

	token, err := env.authManager.GenerateToken(1, "admin")
	require.NoError(t, err)
	return "Bearer " + token
}

// do drives one JSON request through the router.
func (env *testEnv) do(t *testing.T, method, path string, body interface{}, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	return resp
}

func TestClientAPI_CreateClient(t *testing.T) {
	t.Run("should assign 10.0.0.2 to the first client", func(t *testing.T) {
		env := setupTestAPI(t)

		resp := env.do(t, "POST", "/api/clients", CreateClientRequest{Name: "alice"}, env.bearer(t))
		require.Equal(t, http.StatusCreated, resp.Code)

		var created CreateClientResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
		assert.NotZero(t, created.ID)
		assert.Equal(t, "alice", created.Name)
		assert.Equal(t, "10.0.0.2", created.IPAddress)
		assert.NotEmpty(t, created.PublicKey)
	})

	t.Run("should assign sequential addresses", func(t *testing.T) {
		env := setupTestAPI(t)

		for n, want := range []string{"10.0.0.2", "10.0.0.3", "10.0.0.4"} {
			resp := env.do(t, "POST", "/api/clients", CreateClientRequest{Name: fmt.Sprintf("peer-%d", n)}, env.bearer(t))
			require.Equal(t, http.StatusCreated, resp.Code)

			var created CreateClientResponse
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
			assert.Equal(t, want, created.IPAddress)
		}
	})

	t.Run("should never reassign a deleted client's address", func(t *testing.T) {
		env := setupTestAPI(t)

		respA := env.do(t, "POST", "/api/clients", CreateClientRequest{Name: "a"}, env.bearer(t))
		require.Equal(t, http.StatusCreated, respA.Code)

		respB := env.do(t, "POST", "/api/clients", CreateClientRequest{Name: "b"}, env.bearer(t))
		require.Equal(t, http.StatusCreated, respB.Code)
		var b CreateClientResponse
		require.NoError(t, json.Unmarshal(respB.Body.Bytes(), &b))
		require.Equal(t, "10.0.0.3", b.IPAddress)

		respDel := env.do(t, "DELETE", fmt.Sprintf("/api/clients/%d", b.ID), nil, env.bearer(t))
		require.Equal(t, http.StatusOK, respDel.Code)

		respC := env.do(t, "POST", "/api/clients", CreateClientRequest{Name: "c"}, env.bearer(t))
		require.Equal(t, http.StatusCreated, respC.Code)
		var c CreateClientResponse
		require.NoError(t, json.Unmarshal(respC.Body.Bytes(), &c))
		assert.Equal(t, "10.0.0.4", c.IPAddress)
	})

	t.Run("should reject missing name", func(t *testing.T) {
		env := setupTestAPI(t)

		resp := env.do(t, "POST", "/api/clients", map[string]string{}, env.bearer(t))
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "Client name required")
	})

	t.Run("should reject duplicate name", func(t *testing.T) {
		env := setupTestAPI(t)

		resp := env.do(t, "POST", "/api/clients", CreateClientRequest{Name: "alice"}, env.bearer(t))
		require.Equal(t, http.StatusCreated, resp.Code)

		resp = env.do(t, "POST", "/api/clients", CreateClientRequest{Name: "alice"}, env.bearer(t))
		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Contains(t, resp.Body.String(), "Client name already exists")
	})

	t.Run("should return 500 when key generation fails", func(t *testing.T) {
		env := setupTestAPI(t)
		env.keygen.fail = true

		resp := env.do(t, "POST", "/api/clients", CreateClientRequest{Name: "alice"}, env.bearer(t))
		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.Contains(t, resp.Body.String(), "Failed to generate client keys")
	})

	t.Run("should require authentication", func(t *testing.T) {
		env := setupTestAPI(t)

		resp := env.do(t, "POST", "/api/clients", CreateClientRequest{Name: "alice"}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestClientAPI_ListClients(t *testing.T) {
	env := setupTestAPI(t)

	t.Run("should return an empty array on empty store", func(t *testing.T) {
		resp := env.do(t, "GET", "/api/clients", nil, env.bearer(t))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, "[]", resp.Body.String())
	})

	t.Run("should return summaries without private keys", func(t *testing.T) {
		resp := env.do(t, "POST", "/api/clients", CreateClientRequest{Name: "alice"}, env.bearer(t))
		require.Equal(t, http.StatusCreated, resp.Code)

		resp = env.do(t, "GET", "/api/clients", nil, env.bearer(t))
		require.Equal(t, http.StatusOK, resp.Code)

		var summaries []ClientSummary
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &summaries))
		require.Len(t, summaries, 1)
		assert.Equal(t, "alice", summaries[0].Name)
		assert.Equal(t, "10.0.0.2", summaries[0].IPAddress)
		assert.True(t, summaries[0].IsActive)
		assert.NotContains(t, resp.Body.String(), "private")
	})

	t.Run("should require authentication", func(t *testing.T) {
		resp := env.do(t, "GET", "/api/clients", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestClientAPI_GetClientConfig(t *testing.T) {
	env := setupTestAPI(t)

	created := func() CreateClientResponse {
		resp := env.do(t, "POST", "/api/clients", CreateClientRequest{Name: "alice"}, env.bearer(t))
		require.Equal(t, http.StatusCreated, resp.Code)
		var c CreateClientResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &c))
		return c
	}()

	t.Run("should report missing active server as 404", func(t *testing.T) {
		resp := env.do(t, "GET", fmt.Sprintf("/api/clients/%d/config", created.ID), nil, env.bearer(t))
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Contains(t, resp.Body.String(), "No active server found")
	})

	t.Run("should render the config against the active server", func(t *testing.T) {
		require.NoError(t, env.db.CreateServer(&database.Server{
			Name:       "primary",
			PublicKey:  "server-public-key",
			PrivateKey: "server-private-key",
			Endpoint:   "vpn.example.com",
			Port:       51820,
			IsActive:   true,
		}))

		resp := env.do(t, "GET", fmt.Sprintf("/api/clients/%d/config", created.ID), nil, env.bearer(t))
		require.Equal(t, http.StatusOK, resp.Code)

		var body ClientConfigResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Contains(t, body.Config, "Address = 10.0.0.2/24")
		assert.Contains(t, body.Config, "PublicKey = server-public-key")
		assert.Contains(t, body.Config, "Endpoint = vpn.example.com:51820")
	})

	t.Run("should return 404 for unknown client", func(t *testing.T) {
		resp := env.do(t, "GET", "/api/clients/9999/config", nil, env.bearer(t))
		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Contains(t, resp.Body.String(), "Client not found")
	})

	t.Run("should return 404 for a non-numeric id", func(t *testing.T) {
		resp := env.do(t, "GET", "/api/clients/abc/config", nil, env.bearer(t))
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestClientAPI_GetClientQR(t *testing.T) {
	env := setupTestAPI(t)

	resp := env.do(t, "POST", "/api/clients", CreateClientRequest{Name: "alice"}, env.bearer(t))
	require.Equal(t, http.StatusCreated, resp.Code)
	var created CreateClientResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	t.Run("should report missing active server as 404", func(t *testing.T) {
		resp := env.do(t, "GET", fmt.Sprintf("/api/clients/%d/qr", created.ID), nil, env.bearer(t))
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("should return PNG image bytes", func(t *testing.T) {
		require.NoError(t, env.db.CreateServer(&database.Server{
			Name:       "primary",
			PublicKey:  "server-public-key",
			PrivateKey: "server-private-key",
			Endpoint:   "vpn.example.com",
			Port:       51820,
			IsActive:   true,
		}))

		resp := env.do(t, "GET", fmt.Sprintf("/api/clients/%d/qr", created.ID), nil, env.bearer(t))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
	})

	t.Run("should return 404 for unknown client", func(t *testing.T) {
		resp := env.do(t, "GET", "/api/clients/9999/qr", nil, env.bearer(t))
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestClientAPI_DeleteClient(t *testing.T) {
	env := setupTestAPI(t)

	resp := env.do(t, "POST", "/api/clients", CreateClientRequest{Name: "alice"}, env.bearer(t))
	require.Equal(t, http.StatusCreated, resp.Code)
	var created CreateClientResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	t.Run("should delete an existing client", func(t *testing.T) {
		resp := env.do(t, "DELETE", fmt.Sprintf("/api/clients/%d", created.ID), nil, env.bearer(t))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "Client deleted successfully")
	})

	t.Run("should return 404 once deleted", func(t *testing.T) {
		resp := env.do(t, "DELETE", fmt.Sprintf("/api/clients/%d", created.ID), nil, env.bearer(t))
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}
