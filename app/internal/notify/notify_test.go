package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"linkwatch/app/internal/models"
)

type fakeSink struct {
	name string
	err  error
	msgs []string
	sevs []models.Severity
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Send(ctx context.Context, msg string, sev models.Severity) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	f.sevs = append(f.sevs, sev)
	return nil
}

type fakeRecorder struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeRecorder) RecordNotification(msg string, sev models.Severity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}

func TestDispatcher_FansOut(t *testing.T) {
	a := &fakeSink{name: "a"}
	b := &fakeSink{name: "b"}
	d := NewDispatcher(true, a, b)

	d.Notify(context.Background(), "connection lost", models.SeverityWarning)

	for _, s := range []*fakeSink{a, b} {
		if len(s.msgs) != 1 || s.msgs[0] != "connection lost" {
			t.Errorf("sink %s: expected delivery, got %v", s.name, s.msgs)
		}
		if s.sevs[0] != models.SeverityWarning {
			t.Errorf("sink %s: severity lost", s.name)
		}
	}
}

func TestDispatcher_DisabledIsNoop(t *testing.T) {
	s := &fakeSink{name: "a"}
	rec := &fakeRecorder{}
	d := NewDispatcher(false, s)
	d.SetRecorder(rec)

	d.Notify(context.Background(), "should not go out", models.SeverityInfo)

	if len(s.msgs) != 0 || len(rec.msgs) != 0 {
		t.Error("disabled dispatcher must not deliver or record")
	}
}

func TestDispatcher_FailingSinkDoesNotBlockOthers(t *testing.T) {
	bad := &fakeSink{name: "bad", err: errors.New("boom")}
	good := &fakeSink{name: "good"}
	d := NewDispatcher(true, bad, good)

	d.Notify(context.Background(), "msg", models.SeverityError)

	if len(good.msgs) != 1 {
		t.Error("healthy sink should still receive the message")
	}
}

func TestDispatcher_RecordsNotifications(t *testing.T) {
	rec := &fakeRecorder{}
	d := NewDispatcher(true, &fakeSink{name: "a"})
	d.SetRecorder(rec)

	d.Notify(context.Background(), "recorded", models.SeverityInfo)

	if len(rec.msgs) != 1 || rec.msgs[0] != "recorded" {
		t.Errorf("expected recorded notification, got %v", rec.msgs)
	}
}

func TestDiscordSink_SendsEmbed(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewDiscordSink(srv.URL)
	if err := s.Send(context.Background(), "link down", models.SeverityWarning); err != nil {
		t.Fatalf("send: %v", err)
	}

	embeds, ok := got["embeds"].([]any)
	if !ok || len(embeds) != 1 {
		t.Fatalf("expected one embed, got %v", got)
	}
	embed := embeds[0].(map[string]any)
	if embed["description"] != "link down" {
		t.Errorf("description mismatch: %v", embed["description"])
	}
}

func TestDiscordSink_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewDiscordSink(srv.URL)
	if err := s.Send(context.Background(), "msg", models.SeverityInfo); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestWebhookSink_SignsPayload(t *testing.T) {
	var sig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sig = r.Header.Get("X-Linkwatch-Signature")
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL, "secret")
	if err := s.Send(context.Background(), "msg", models.SeverityInfo); err != nil {
		t.Fatalf("send: %v", err)
	}
	if sig == "" || sig[:7] != "sha256=" {
		t.Errorf("expected sha256 signature header, got %q", sig)
	}
}

func TestWebhookSink_NoSecretNoSignature(t *testing.T) {
	var hasSig bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasSig = r.Header["X-Linkwatch-Signature"]
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL, "")
	if err := s.Send(context.Background(), "msg", models.SeverityInfo); err != nil {
		t.Fatalf("send: %v", err)
	}
	if hasSig {
		t.Error("no signature expected without a secret")
	}
}
