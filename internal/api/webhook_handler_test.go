package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sungwon/erasure-bridge/internal/archive"
	"github.com/sungwon/erasure-bridge/internal/audit"
	"github.com/sungwon/erasure-bridge/internal/catalog"
	"github.com/sungwon/erasure-bridge/internal/datastore"
	"github.com/sungwon/erasure-bridge/internal/deletion"
	"github.com/sungwon/erasure-bridge/internal/logger"
	"github.com/sungwon/erasure-bridge/internal/notification"
	"github.com/sungwon/erasure-bridge/internal/signature"
	"github.com/sungwon/erasure-bridge/internal/storage"
)

// --- fakes ---

type fakeCatalog struct {
	settings    catalog.Settings
	settingsErr error
	games       []catalog.Game
	gamesErr    error
	rules       map[uuid.UUID][]catalog.Rule
}

func (f *fakeCatalog) Settings(context.Context) (catalog.Settings, error) {
	return f.settings, f.settingsErr
}

func (f *fakeCatalog) Games(context.Context) ([]catalog.Game, error) {
	return f.games, f.gamesErr
}

func (f *fakeCatalog) Rules(_ context.Context, gameID uuid.UUID) ([]catalog.Rule, error) {
	return f.rules[gameID], nil
}

type fakeAuditStore struct {
	mu        sync.Mutex
	histories []storage.RecordHistoryParams
	errorLogs []storage.CreateErrorLogParams
}

func (f *fakeAuditStore) RecordHistory(_ context.Context, arg storage.RecordHistoryParams) (storage.History, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histories = append(f.histories, arg)
	return storage.History{ID: uuid.New(), GameID: arg.GameID, UserID: arg.UserID}, nil
}

func (f *fakeAuditStore) CreateErrorLog(_ context.Context, arg storage.CreateErrorLogParams) (storage.ErrorLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errorLogs = append(f.errorLogs, arg)
	return storage.ErrorLog{ID: uuid.New(), Message: arg.Message}, nil
}

type memArchive struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (m *memArchive) Put(_ context.Context, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[string][]byte)
	}
	m.items[id] = data
	return nil
}

func (m *memArchive) Get(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.items[id]; ok {
		return b, nil
	}
	return nil, errors.New("not found")
}

// datastoreServer answers 403 for entry keys containing "deny" and 200
// otherwise. It records every entry key it sees.
type datastoreServer struct {
	*httptest.Server
	mu   sync.Mutex
	keys []string
}

func newDatastoreServer(t *testing.T) *datastoreServer {
	t.Helper()
	ds := &datastoreServer{}
	ds.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("entryKey")
		ds.mu.Lock()
		ds.keys = append(ds.keys, key)
		ds.mu.Unlock()
		if strings.Contains(key, "deny") {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"INSUFFICIENT_SCOPE"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ds.Close)
	return ds
}

func (ds *datastoreServer) calls() []string {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return append([]string(nil), ds.keys...)
}

type webhookFixture struct {
	catalog   *fakeCatalog
	audit     *fakeAuditStore
	archive   *memArchive
	datastore *datastoreServer
	handler   http.Handler
}

func newWebhookFixture(t *testing.T, cat *fakeCatalog) *webhookFixture {
	t.Helper()
	f := &webhookFixture{
		catalog:   cat,
		audit:     &fakeAuditStore{},
		archive:   &memArchive{},
		datastore: newDatastoreServer(t),
	}
	client := datastore.NewClient(f.datastore.URL, datastore.NewHTTPClient(5*time.Second))
	recorder := audit.NewRecorder(f.audit, zerolog.Nop())
	dispatcher := deletion.NewDispatcher(cat, client, recorder, 1)
	f.handler = CorrelationIDMiddleware(WebhookHandler(cat, dispatcher, f.archive))
	return f
}

func (f *webhookFixture) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/delete-request", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func payloadJSON(t *testing.T, description, footer string) string {
	t.Helper()
	p := notification.Payload{Embeds: []notification.Embed{{
		Title:       "Right To Erasure",
		Description: description,
		Footer:      &notification.Footer{Text: footer},
	}}}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return string(b)
}

func signedPayload(t *testing.T, secret, description string) string {
	t.Helper()
	ts := "1700000000"
	return payloadJSON(t, description, notification.FooterText(signature.Sign(secret, ts, description), ts))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func assertSuccess(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d; body: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["success"] != true {
		t.Errorf("expected success true, got %v", body)
	}
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d; body: %s", status, rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["error"] != msg {
		t.Errorf("expected error %q, got %v", msg, body["error"])
	}
}

// oneGame returns a catalog with universe 777 and the given rules.
func oneGame(rules ...catalog.Rule) *fakeCatalog {
	gameID := uuid.New()
	for i := range rules {
		rules[i].ID = uuid.New()
		rules[i].GameID = gameID
	}
	return &fakeCatalog{
		games: []catalog.Game{{ID: gameID, UniverseID: "777", Label: "Obby", APIKey: "key-1"}},
		rules: map[uuid.UUID][]catalog.Rule{gameID: rules},
	}
}

const deletionText = "You have received a Right To Erasure request for the following User Id: 42 in the following game(s) with Ids: 777"

// --- payload shape ---

func TestWebhookHandler_MalformedPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"embeds missing", `{}`, "invalid payload: embeds missing"},
		{"embeds empty", `{"embeds":[]}`, "invalid payload: embeds missing"},
		{"footer missing", `{"embeds":[{"description":"x"}]}`, "invalid payload: footer data missing"},
		{"footer text empty", `{"embeds":[{"description":"x","footer":{"icon_url":"i"}}]}`, "invalid payload: footer data missing"},
		{"not json", `not json`, "invalid payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWebhookFixture(t, oneGame(catalog.Rule{DatastoreName: "Player", KeyPattern: "{userId}"}))
			rec := f.post(t, tt.body)
			assertError(t, rec, http.StatusBadRequest, tt.msg)
			if n := len(f.datastore.calls()); n != 0 {
				t.Errorf("expected no datastore calls, got %d", n)
			}
		})
	}
}

func TestWebhookHandler_NonDeletionIgnored(t *testing.T) {
	for _, desc := range []string{
		"Server restarted",
		"User Id: 42 only",
		"game(s) with Ids: 777 only",
	} {
		t.Run(desc, func(t *testing.T) {
			f := newWebhookFixture(t, oneGame(catalog.Rule{DatastoreName: "Player", KeyPattern: "{userId}"}))
			f.catalog.settings = catalog.Settings{WebhookAuthKey: "s3cret"}

			rec := f.post(t, payloadJSON(t, desc, "unsigned"))

			assertSuccess(t, rec)
			if n := len(f.datastore.calls()); n != 0 {
				t.Errorf("expected no datastore calls, got %d", n)
			}
			if len(f.archive.items) != 0 {
				t.Errorf("expected nothing archived, got %d items", len(f.archive.items))
			}
		})
	}
}

// --- authentication ---

func TestWebhookHandler_ValidSignature(t *testing.T) {
	f := newWebhookFixture(t, oneGame(catalog.Rule{DatastoreName: "Player", KeyPattern: "user_{userId}_data"}))
	f.catalog.settings = catalog.Settings{WebhookAuthKey: "s3cret"}

	rec := f.post(t, signedPayload(t, "s3cret", deletionText))

	assertSuccess(t, rec)
	calls := f.datastore.calls()
	if len(calls) != 1 || calls[0] != "user_42_data" {
		t.Errorf("expected one delete of user_42_data, got %v", calls)
	}
	if len(f.audit.histories) != 1 {
		t.Errorf("expected 1 history, got %d", len(f.audit.histories))
	}
}

func TestWebhookHandler_AlteredSignature(t *testing.T) {
	f := newWebhookFixture(t, oneGame(catalog.Rule{DatastoreName: "Player", KeyPattern: "{userId}"}))
	f.catalog.settings = catalog.Settings{WebhookAuthKey: "s3cret"}

	sig := []byte(signature.Sign("s3cret", "1700000000", deletionText))
	sig[0] ^= 0x01
	body := payloadJSON(t, deletionText, notification.FooterText(string(sig), "1700000000"))

	rec := f.post(t, body)

	assertError(t, rec, http.StatusUnauthorized, "invalid signature")
	if n := len(f.datastore.calls()); n != 0 {
		t.Errorf("expected no datastore calls, got %d", n)
	}
	if len(f.archive.items) != 0 {
		t.Error("unauthenticated notification must not be archived")
	}
}

func TestWebhookHandler_AuthDisabled(t *testing.T) {
	f := newWebhookFixture(t, oneGame(catalog.Rule{DatastoreName: "Player", KeyPattern: "{userId}"}))

	rec := f.post(t, payloadJSON(t, deletionText, "no signature here"))

	assertSuccess(t, rec)
	if n := len(f.datastore.calls()); n != 1 {
		t.Errorf("expected 1 datastore call, got %d", n)
	}
}

func TestWebhookHandler_AuthMisconfigured(t *testing.T) {
	t.Run("secret without signature", func(t *testing.T) {
		f := newWebhookFixture(t, oneGame(catalog.Rule{DatastoreName: "Player", KeyPattern: "{userId}"}))
		f.catalog.settings = catalog.Settings{WebhookAuthKey: "s3cret"}

		rec := f.post(t, payloadJSON(t, deletionText, "no signature here"))
		assertError(t, rec, http.StatusUnauthorized, "authentication misconfigured")
	})

	t.Run("signature without timestamp or secret", func(t *testing.T) {
		f := newWebhookFixture(t, oneGame(catalog.Rule{DatastoreName: "Player", KeyPattern: "{userId}"}))

		rec := f.post(t, payloadJSON(t, deletionText, "Roblox-Signature: q1w2e3+/r4==,"))
		assertError(t, rec, http.StatusUnauthorized, "authentication misconfigured")
		if n := len(f.datastore.calls()); n != 0 {
			t.Errorf("expected no datastore calls, got %d", n)
		}
	})

	t.Run("signature without secret", func(t *testing.T) {
		f := newWebhookFixture(t, oneGame(catalog.Rule{DatastoreName: "Player", KeyPattern: "{userId}"}))

		rec := f.post(t, signedPayload(t, "s3cret", deletionText))
		assertError(t, rec, http.StatusUnauthorized, "authentication misconfigured")
		if n := len(f.datastore.calls()); n != 0 {
			t.Errorf("expected no datastore calls, got %d", n)
		}
	})
}

// --- dispatch ---

func TestWebhookHandler_UnknownTenant(t *testing.T) {
	f := newWebhookFixture(t, oneGame(catalog.Rule{DatastoreName: "Player", KeyPattern: "{userId}"}))

	desc := "User Id: 123 game(s) with Ids: 555"
	rec := f.post(t, payloadJSON(t, desc, "unsigned"))

	assertSuccess(t, rec)
	if n := len(f.datastore.calls()); n != 0 {
		t.Errorf("expected no datastore calls, got %d", n)
	}
	if n := len(f.audit.errorLogs); n != 0 {
		t.Errorf("expected no error logs, got %d", n)
	}
}

func TestWebhookHandler_PartialFailure(t *testing.T) {
	f := newWebhookFixture(t, oneGame(
		catalog.Rule{Label: "profile", DatastoreName: "Player", KeyPattern: "profile_{userId}"},
		catalog.Rule{Label: "inventory", DatastoreName: "Inventory", KeyPattern: "deny_{userId}"},
	))

	rec := f.post(t, payloadJSON(t, deletionText, "unsigned"))

	assertSuccess(t, rec)
	if n := len(f.datastore.calls()); n != 2 {
		t.Errorf("expected 2 datastore calls, got %d", n)
	}
	if n := len(f.audit.histories); n != 1 {
		t.Fatalf("expected exactly 1 history, got %d", n)
	}
	if n := len(f.audit.errorLogs); n != 1 {
		t.Fatalf("expected exactly 1 error log, got %d", n)
	}
	entry := f.audit.errorLogs[0]
	if entry.UniverseID.String != "777" {
		t.Errorf("expected error log for universe 777, got %q", entry.UniverseID.String)
	}
	if !strings.Contains(entry.Message, "Obby") || !strings.Contains(entry.Message, "403") {
		t.Errorf("unexpected error log message %q", entry.Message)
	}
}

func TestWebhookHandler_RedeliveryNotDeduplicated(t *testing.T) {
	f := newWebhookFixture(t, oneGame(catalog.Rule{DatastoreName: "Player", KeyPattern: "{userId}"}))
	body := payloadJSON(t, deletionText, "unsigned")

	assertSuccess(t, f.post(t, body))
	assertSuccess(t, f.post(t, body))

	if n := len(f.audit.histories); n != 2 {
		t.Errorf("expected 2 histories, got %d", n)
	}
}

func TestWebhookHandler_ArchivesAuthenticatedDeletion(t *testing.T) {
	f := newWebhookFixture(t, oneGame(catalog.Rule{DatastoreName: "Player", KeyPattern: "{userId}"}))
	body := payloadJSON(t, deletionText, "unsigned")

	req := httptest.NewRequest(http.MethodPost, "/webhook/delete-request", strings.NewReader(body))
	req.Header.Set("X-Correlation-ID", "req-1")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assertSuccess(t, rec)
	if got := string(f.archive.items["req-1"]); got != body {
		t.Errorf("archived body = %q, want %q", got, body)
	}
}

// ctxAuditStore refuses writes on a cancelled context, as pgx does.
type ctxAuditStore struct{ fakeAuditStore }

func (c *ctxAuditStore) RecordHistory(ctx context.Context, arg storage.RecordHistoryParams) (storage.History, error) {
	if err := ctx.Err(); err != nil {
		return storage.History{}, err
	}
	return c.fakeAuditStore.RecordHistory(ctx, arg)
}

func (c *ctxAuditStore) CreateErrorLog(ctx context.Context, arg storage.CreateErrorLogParams) (storage.ErrorLog, error) {
	if err := ctx.Err(); err != nil {
		return storage.ErrorLog{}, err
	}
	return c.fakeAuditStore.CreateErrorLog(ctx, arg)
}

func TestWebhookHandler_SenderDisconnectStillRecordsEveryRule(t *testing.T) {
	cat := oneGame(
		catalog.Rule{DatastoreName: "Player", KeyPattern: "a_{userId}"},
		catalog.Rule{DatastoreName: "Player", KeyPattern: "b_{userId}"},
		catalog.Rule{DatastoreName: "Player", KeyPattern: "c_{userId}"},
	)
	reqCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var deletes int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		deletes++
		mu.Unlock()
		cancel()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := &ctxAuditStore{}
	client := datastore.NewClient(srv.URL, datastore.NewHTTPClient(5*time.Second))
	dispatcher := deletion.NewDispatcher(cat, client, audit.NewRecorder(store, zerolog.Nop()), 1)
	handler := WebhookHandler(cat, dispatcher, archive.NopStore{})

	req := httptest.NewRequest(http.MethodPost, "/webhook/delete-request",
		strings.NewReader(payloadJSON(t, deletionText, "unsigned"))).WithContext(reqCtx)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assertSuccess(t, rec)
	if deletes != 3 {
		t.Errorf("expected 3 datastore calls, got %d", deletes)
	}
	if got := len(store.histories) + len(store.errorLogs); got != 3 {
		t.Fatalf("expected one recorded outcome per rule (3), got %d histories and %d error logs",
			len(store.histories), len(store.errorLogs))
	}
	if n := len(store.histories); n != 3 {
		t.Errorf("expected 3 histories, got %d", n)
	}
}

// --- internal errors ---

func TestWebhookHandler_SettingsError(t *testing.T) {
	cat := oneGame(catalog.Rule{DatastoreName: "Player", KeyPattern: "{userId}"})
	cat.settingsErr = errors.New("connection refused")
	f := newWebhookFixture(t, cat)

	rec := f.post(t, payloadJSON(t, deletionText, "unsigned"))

	assertError(t, rec, http.StatusInternalServerError, "webhook processing error")
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("internal error details leaked to caller")
	}
}

func TestWebhookHandler_GamesError(t *testing.T) {
	cat := oneGame()
	cat.gamesErr = errors.New("pool closed")
	f := newWebhookFixture(t, cat)

	rec := f.post(t, payloadJSON(t, deletionText, "unsigned"))

	assertError(t, rec, http.StatusInternalServerError, "webhook processing error")
	if strings.Contains(rec.Body.String(), "pool closed") {
		t.Error("internal error details leaked to caller")
	}
}

func TestWebhookHandler_DispatchErrorLogsFirstUniverse(t *testing.T) {
	var buf strings.Builder
	cat := oneGame()
	cat.gamesErr = errors.New("pool closed")
	f := newWebhookFixture(t, cat)
	h := LoggingMiddleware(zerolog.New(&buf))(f.handler)

	desc := "User Id: 42 game(s) with Ids: 777,888"
	req := httptest.NewRequest(http.MethodPost, "/webhook/delete-request", strings.NewReader(payloadJSON(t, desc, "unsigned")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assertError(t, rec, http.StatusInternalServerError, "webhook processing error")
	if !strings.Contains(buf.String(), `"universe_id":"777"`) {
		t.Errorf("expected dispatch failure logged with universe 777, got %s", buf.String())
	}
}

func TestWebhookHandler_UsesContextLogger(t *testing.T) {
	var buf strings.Builder
	log := zerolog.New(&buf)

	f := newWebhookFixture(t, oneGame(catalog.Rule{DatastoreName: "Player", KeyPattern: "{userId}"}))
	h := LoggingMiddleware(log)(f.handler)

	req := httptest.NewRequest(http.MethodPost, "/webhook/delete-request", strings.NewReader(payloadJSON(t, "hello", "unsigned")))
	req = req.WithContext(logger.WithCorrelationID(req.Context(), "cid-9"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "not a deletion request") {
		t.Errorf("expected handler log line in injected logger, got %s", buf.String())
	}
}
