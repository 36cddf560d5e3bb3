package printing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pontodigital/pdv-backend/pkg/config"
	pkgerrors "github.com/pontodigital/pdv-backend/pkg/errors"
	"github.com/pontodigital/pdv-backend/pkg/logger"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.PrintingConfig{BaseURL: srv.URL}, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestPrintDispatches(t *testing.T) {
	var gotPath string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusAccepted)
	})

	if err := client.Print(context.Background(), "cupom"); err != nil {
		t.Fatalf("print: %v", err)
	}
	if gotPath != "/v1/print" {
		t.Fatalf("unexpected path %s", gotPath)
	}
}

func TestPrintFailureIsDependencyError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "paper jam", http.StatusInternalServerError)
	})

	err := client.Print(context.Background(), "cupom")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestPrintRejectsEmptyText(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {})
	if err := client.Print(context.Background(), "  "); err == nil {
		t.Fatal("expected validation error for empty text")
	}
}
