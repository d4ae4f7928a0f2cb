package whatsapp_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"imoveis/internal/adapters/whatsapp"
)

func TestSendText_RetriesThenSuccess(t *testing.T) {
	var hits int32
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v21.0/12345/messages" || r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1:
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_ = json.NewDecoder(r.Body).Decode(&got)
			_ = json.NewEncoder(w).Encode(map[string]any{"messages": []map[string]string{{"id": "wamid.1"}}})
		}
	}))
	defer ts.Close()

	cl, err := whatsapp.New(ts.URL+"/v21.0/", "12345", "tok", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := cl.SendText(ctx, "5511999990000", "Olá"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected a retry, got %d calls", hits)
	}
	text, _ := got["text"].(map[string]any)
	if got["to"] != "5511999990000" || got["type"] != "text" || text["body"] != "Olá" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestSendText_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	cl, _ := whatsapp.New(ts.URL, "1", "bad", 100)
	if err := cl.SendText(context.Background(), "1", "x"); !errors.Is(err, whatsapp.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	if _, err := whatsapp.New("http://x", "", "tok", 1); err == nil {
		t.Fatalf("expected error without phone id")
	}
}
