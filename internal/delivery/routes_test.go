package delivery

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/Vovarama1992/tg_relay/internal/chats"
	"github.com/Vovarama1992/tg_relay/internal/domain"
	"github.com/Vovarama1992/tg_relay/internal/ports"
	"github.com/Vovarama1992/tg_relay/internal/store"
)

type fakeRecords struct {
	history map[int64][]ports.Record
	deleted []int64
}

func (f *fakeRecords) AddExchange(context.Context, int64, string, string, string) error { return nil }

func (f *fakeRecords) GetHistory(_ context.Context, chatID int64) ([]ports.Record, error) {
	return f.history[chatID], nil
}

func (f *fakeRecords) ListChats(context.Context) ([]ports.ChatBackends, error) {
	var out []ports.ChatBackends
	for id := range f.history {
		out = append(out, ports.ChatBackends{ChatID: id, Backends: []string{"gpt"}})
	}
	return out, nil
}

func (f *fakeRecords) DeleteChatHistory(_ context.Context, chatID int64) error {
	f.deleted = append(f.deleted, chatID)
	delete(f.history, chatID)
	return nil
}

type fakeResetter struct{ reset []int64 }

func (f *fakeResetter) ForgetAll(_ context.Context, chatID int64) error {
	f.reset = append(f.reset, chatID)
	return nil
}

type testServer struct {
	*httptest.Server
	records  *fakeRecords
	sessions *fakeResetter
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()
	auth := domain.NewAuthService("secret", "salt")
	token, err := auth.Login(context.Background(), "secret")
	if err != nil {
		t.Fatal(err)
	}

	repo := store.NewMemoryRepo()
	chatSvc := chats.NewService(store.NewDict[string](repo, "bot_names"), store.NewDict[bool](repo, "blocks"))

	ts := &testServer{
		records: &fakeRecords{history: map[int64][]ports.Record{
			42: {{ID: 1, ChatID: 42, Backend: "gpt", Role: "user", Text: "привет"}},
		}},
		sessions: &fakeResetter{},
		token:    token,
	}
	r := NewRouter(
		NewRecordHandler(ts.records, log),
		NewChatHandler(chatSvc, ts.sessions, log),
		NewAuthHandler(auth),
		auth,
	)
	ts.Server = httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string, auth bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)
	if resp := ts.do(t, http.MethodGet, "/ping", "", false); resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/auth/login", `{"password":"secret"}`, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Token != ts.token {
		t.Errorf("token = %q, want %q", out.Token, ts.token)
	}

	if resp := ts.do(t, http.MethodPost, "/auth/login", `{"password":"nope"}`, false); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d", resp.StatusCode)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/chats", "/history/42", "/chats/42/settings"} {
		if resp := ts.do(t, http.MethodGet, path, "", false); resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s without token = %d", path, resp.StatusCode)
		}
	}
}

func TestHistory(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/history/42", "", true)
	var recs []ports.Record
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Text != "привет" {
		t.Errorf("history = %+v", recs)
	}

	if resp := ts.do(t, http.MethodGet, "/history/abc", "", true); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad id status = %d", resp.StatusCode)
	}

	if resp := ts.do(t, http.MethodDelete, "/history/42", "", true); resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	if len(ts.records.deleted) != 1 || ts.records.deleted[0] != 42 {
		t.Errorf("deleted = %v", ts.records.deleted)
	}

	resp = ts.do(t, http.MethodGet, "/history/42", "", true)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(body)); got != "[]" {
		t.Errorf("empty history body = %q", got)
	}
}

func TestChatSettings(t *testing.T) {
	ts := newTestServer(t)

	var s chats.Settings
	resp := ts.do(t, http.MethodGet, "/chats/7/settings", "", true)
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatal(err)
	}
	if s.Name != chats.DefaultName || s.Blocked {
		t.Errorf("default settings = %+v", s)
	}

	resp = ts.do(t, http.MethodPatch, "/chats/7/settings", `{"name":"Робот","auto_translate_blocked":true}`, true)
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "робот" || !s.Blocked {
		t.Errorf("updated settings = %+v", s)
	}

	if resp := ts.do(t, http.MethodPatch, "/chats/7/settings", `{"name":"9lives"}`, true); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad name status = %d", resp.StatusCode)
	}
}

func TestResetChat(t *testing.T) {
	ts := newTestServer(t)

	if resp := ts.do(t, http.MethodPost, "/chats/42/reset", "", true); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(ts.sessions.reset) != 1 || ts.sessions.reset[0] != 42 {
		t.Errorf("reset = %v", ts.sessions.reset)
	}
}

func TestJournalRoutesNeedDatabase(t *testing.T) {
	auth := domain.NewAuthService("secret", "salt")
	token, _ := auth.Login(context.Background(), "secret")
	repo := store.NewMemoryRepo()
	chatSvc := chats.NewService(store.NewDict[string](repo, "a"), store.NewDict[bool](repo, "b"))

	srv := httptest.NewServer(NewRouter(nil, NewChatHandler(chatSvc, &fakeResetter{}, zap.NewNop()), NewAuthHandler(auth), auth))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/history/42", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
