package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestEvaluate_Success(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"data":{"value":{"simple":{"type":"xsd:string","text":"Hello","isNil":false}}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	inputs := []InputDTO{{Name: "Full Name", Value: &ValueDTO{Simple: &SimpleDTO{Type: strPtr("xsd:string"), Text: strPtr("John")}}}}
	got, err := c.Evaluate(context.Background(), "org/example/Greeting", inputs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Simple == nil || *got.Simple.Text != "Hello" {
		t.Errorf("value = %+v", got)
	}

	if gotBody["invocable"] != "org/example/Greeting" {
		t.Errorf("invocable = %v", gotBody["invocable"])
	}
	if _, ok := gotBody["input"]; !ok {
		t.Error("request body missing input field")
	}
}

func TestEvaluate_ServiceErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":[{"detail":"invocable not found"},{"detail":"bad input"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Evaluate(context.Background(), "x", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var svcErr *ServiceError
	if !strings.Contains(err.Error(), "invocable not found") || !strings.Contains(err.Error(), "bad input") {
		t.Errorf("error = %v", err)
	}
	if !errors.As(err, &svcErr) {
		t.Errorf("expected ServiceError, got %T", err)
	}
}

func TestEvaluate_NoValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"value":null}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	got, err := c.Evaluate(context.Background(), "x", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil value, got %+v", got)
	}
}

func TestEvaluate_EmptyEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if _, err := c.Evaluate(context.Background(), "x", nil); err == nil {
		t.Fatal("expected error for empty envelope")
	}
}

func TestEvaluate_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := New(srv.URL, time.Second)
	if _, err := c.Evaluate(context.Background(), "x", nil); err == nil {
		t.Fatal("expected error for closed server")
	}
}

func TestEvaluate_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(srv.URL, time.Second)
	if _, err := c.Evaluate(ctx, "x", nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
