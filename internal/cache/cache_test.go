package cache

import (
	"strings"
	"testing"
)

// TestKey verifies that the request digest is stable, prefixed and
// sensitive to any body change.
func TestKey(t *testing.T) {
	a := Key([]byte(`{"humint":{}}`))
	b := Key([]byte(`{"humint":{}}`))
	c := Key([]byte(`{"humint":{} }`))

	if a != b {
		t.Errorf("identical bodies produced different keys: %q vs %q", a, b)
	}
	if a == c {
		t.Error("distinct bodies produced the same key")
	}
	if !strings.HasPrefix(a, "fusioncore:result:") {
		t.Errorf("key %q missing namespace prefix", a)
	}
	// 16 digest bytes hex-encoded.
	if got := len(strings.TrimPrefix(a, "fusioncore:result:")); got != 32 {
		t.Errorf("digest length = %d, want 32 hex chars", got)
	}
}

// TestNew_DisabledWithoutAddr verifies that an empty addr yields a nil
// cache, the disabled sentinel callers check for.
func TestNew_DisabledWithoutAddr(t *testing.T) {
	if c := New(Config{}, nil); c != nil {
		t.Error("expected nil cache when no addr is configured")
	}
}
