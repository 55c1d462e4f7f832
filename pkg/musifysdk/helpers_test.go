package musifysdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Rostanic20/Musify-Frontend/pkg/slogx"
	"github.com/stretchr/testify/require"
)

// testAPI is a minimal Musify backend: /api/protected accepts only the
// most recently issued access token and /api/auth/refresh issues a new one.
type testAPI struct {
	server *httptest.Server
	mux    *http.ServeMux

	mu            sync.Mutex
	valid         string
	issued        int
	refreshStatus int
	rotate        bool
	alwaysReject  bool
	release       chan struct{}

	refreshCalls  atomic.Int32
	unauthorized  atomic.Int32
	refreshTokens chan string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	api := &testAPI{
		valid:         "access-current",
		mux:           http.NewServeMux(),
		refreshTokens: make(chan string, 64),
	}
	api.mux.HandleFunc("POST /api/auth/refresh", api.handleRefresh)
	api.mux.HandleFunc("/api/protected", api.handleProtected)

	api.server = httptest.NewServer(api.mux)
	t.Cleanup(api.server.Close)
	return api
}

func (api *testAPI) configure(fn func(api *testAPI)) {
	api.mu.Lock()
	defer api.mu.Unlock()
	fn(api)
}

func (api *testAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	api.refreshCalls.Add(1)

	var body RefreshTokenRequest
	_ = json.NewDecoder(r.Body).Decode(&body)
	api.refreshTokens <- body.RefreshToken

	api.mu.Lock()
	release, status := api.release, api.refreshStatus
	api.mu.Unlock()

	if release != nil {
		<-release
	}

	if status != 0 {
		writeTestJSON(w, status, ErrorResponse{Error: "invalid refresh token"})
		return
	}

	api.mu.Lock()
	api.issued++
	resp := AuthResponse{Token: fmt.Sprintf("access-%d", api.issued), ExpiresIn: 900}
	if api.rotate {
		resp.RefreshToken = fmt.Sprintf("rotated-%d", api.issued)
	}
	api.valid = resp.Token
	api.mu.Unlock()

	writeTestJSON(w, http.StatusOK, resp)
}

type protectedResponse struct {
	Retried string `json:"retried"`
	Body    string `json:"body"`
}

func (api *testAPI) handleProtected(w http.ResponseWriter, r *http.Request) {
	api.mu.Lock()
	valid, reject := api.valid, api.alwaysReject
	api.mu.Unlock()

	if reject || r.Header.Get("Authorization") != "Bearer "+valid {
		api.unauthorized.Add(1)
		writeTestJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "token expired"})
		return
	}

	body, _ := io.ReadAll(r.Body)
	writeTestJSON(w, http.StatusOK, protectedResponse{
		Retried: r.Header.Get(RetryMarkerHeader),
		Body:    string(body),
	})
}

func (api *testAPI) url(path string) string { return api.server.URL + path }

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, baseURL string, store CredentialStore, opts ...Option) *SDKClient {
	t.Helper()
	opts = append([]Option{WithLogger(slogx.Discard())}, opts...)
	return NewSDKClient(baseURL, store, opts...)
}

func seededStore(t *testing.T, s Session) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), s))
	return store
}

func requireNoSession(t *testing.T, store CredentialStore) {
	t.Helper()
	_, err := store.Get(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}

// failingStore wraps a store and fails Set.
type failingStore struct {
	CredentialStore
}

func (failingStore) Set(context.Context, Session) error {
	return fmt.Errorf("disk full")
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
