package repo

import (
	"encoding/json"
	"testing"
)

func TestDSN(t *testing.T) {
	t.Setenv("DB_URL", "")
	if got := DSN(); got != DefaultDSN {
		t.Errorf("DSN() = %q, want default", got)
	}

	t.Setenv("DB_URL", "postgres://u:p@db:5432/x")
	if got := DSN(); got != "postgres://u:p@db:5432/x" {
		t.Errorf("DSN() = %q", got)
	}
}

func TestNullHelpers(t *testing.T) {
	if nullString("") != nil {
		t.Error("empty string must map to NULL")
	}
	if s := nullString("x"); s == nil || *s != "x" {
		t.Error("non-empty string must be kept")
	}
	if nullJSON(nil) != nil || nullJSON(json.RawMessage{}) != nil {
		t.Error("empty JSON must map to NULL")
	}
	if got := nullJSON(json.RawMessage(`{"a":1}`)); got != `{"a":1}` {
		t.Errorf("nullJSON = %v", got)
	}
	if deref(nil) != "" {
		t.Error("deref(nil) must be empty")
	}
}
