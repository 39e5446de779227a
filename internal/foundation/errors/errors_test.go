package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "hxshowcase.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		file, exists := err.Context().GetString("file")
		if !exists || file != "hxshowcase.yaml" {
			t.Errorf("expected context file=hxshowcase.yaml, got %v", file)
		}
	})

	t.Run("Wrapped cause is reachable", func(t *testing.T) {
		cause := stderrors.New("disk full")
		err := WrapError(cause, CategoryFileSystem, "write failed").Build()
		if !stderrors.Is(err, cause) {
			t.Fatalf("expected errors.Is to find cause")
		}
		if !strings.Contains(err.Error(), "disk full") {
			t.Errorf("expected cause in message, got %q", err.Error())
		}
	})

	t.Run("Classification survives fmt wrapping", func(t *testing.T) {
		inner := StyleError("glob matched nothing").Build()
		outer := fmt.Errorf("check views: %w", inner)
		if !HasCategory(outer, CategoryStyle) {
			t.Fatalf("expected style category through wrap")
		}
		if GetCategory(stderrors.New("plain")) != CategoryInternal {
			t.Errorf("unclassified errors should report internal")
		}
	})

	t.Run("WithContext does not mutate original", func(t *testing.T) {
		base := ValidationError("bad class").Build()
		derived := base.WithContext("class", "bg-red-")
		if _, ok := base.Context().Get("class"); ok {
			t.Errorf("original context mutated")
		}
		if v, _ := derived.Context().GetString("class"); v != "bg-red-" {
			t.Errorf("derived context missing value, got %q", v)
		}
	})

	t.Run("Retry semantics", func(t *testing.T) {
		if !StorageError("locked").Build().CanRetry() {
			t.Errorf("storage errors should be retryable")
		}
		if ValidationError("nope").Build().CanRetry() {
			t.Errorf("validation errors need user action")
		}
	})
}

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: http.StatusOK},
		{name: "validation", err: ValidationError("bad").Build(), expected: http.StatusBadRequest},
		{name: "not found", err: NotFoundError("missing").Build(), expected: http.StatusNotFound},
		{name: "style", err: StyleError("unmatched").Build(), expected: http.StatusUnprocessableEntity},
		{name: "storage", err: StorageError("db").Build(), expected: http.StatusServiceUnavailable},
		{name: "transport", err: TransportError("relay").Build(), expected: http.StatusBadGateway},
		{name: "internal", err: InternalError("boom").Build(), expected: http.StatusInternalServerError},
		{name: "unclassified", err: stderrors.New("unknown"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.StatusCodeFor(tt.err); got != tt.expected {
				t.Errorf("StatusCodeFor() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	var logs bytes.Buffer
	adapter := NewHTTPErrorAdapter(slog.New(slog.NewTextHandler(&logs, nil)))

	req := httptest.NewRequest(http.MethodPut, "/contacts/9", nil)
	rec := httptest.NewRecorder()
	adapter.WriteErrorResponse(rec, req, NotFoundError("contact not found").WithContext("id", 9).Build())

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var payload HTTPErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error != "contact not found" || payload.Code != "not_found" {
		t.Errorf("unexpected payload %+v", payload)
	}
	if payload.Details["id"] != float64(9) {
		t.Errorf("expected id detail, got %v", payload.Details)
	}
	if !strings.Contains(logs.String(), "contact not found") {
		t.Errorf("expected error to be logged, got %q", logs.String())
	}
}

func TestCLIErrorAdapter(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "style", err: StyleError("glob").Build(), expected: 11},
		{name: "runtime", err: RuntimeError("port").Build(), expected: 12},
		{name: "internal", err: InternalError("bug").Build(), expected: 10},
		{name: "unclassified", err: stderrors.New("x"), expected: 1},
	}
	adapter := NewCLIErrorAdapter(false, slog.Default())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out, logs bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(StyleError("content glob matched no files").WithContext("glob", "./x/*.html").Build())

	if code != 11 {
		t.Errorf("exit code = %d, want 11", code)
	}
	if got := out.String(); got != "Error: content glob matched no files\n" {
		t.Errorf("unexpected output %q", got)
	}

	out.Reset()
	adapter.HandleError(InternalError("nil map").Build())
	if !strings.Contains(out.String(), "use -v for details") {
		t.Errorf("internal errors should be hidden without -v, got %q", out.String())
	}
	if !strings.Contains(logs.String(), "nil map") {
		t.Errorf("fatal errors should be logged, got %q", logs.String())
	}
}
