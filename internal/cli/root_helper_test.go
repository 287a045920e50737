package cmd_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// resultPage renders a result list of n linked items plus unrelated links.
func resultPage(n int) string {
	var sb strings.Builder
	sb.WriteString(`<html><head><title>results</title></head><body>`)
	sb.WriteString(`<div id="header"><a href="/">home</a></div>`)
	sb.WriteString(`<div id="content"><ul class="results">`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, `<li><a href="/item/%d">Item number %d</a></li>`, i, i)
	}
	sb.WriteString(`</ul></div>`)
	sb.WriteString(`<div class="footer"><a href="/about">about</a></div>`)
	sb.WriteString(`</body></html>`)
	return sb.String()
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// clearEnv keeps RESULT_FINDER_* variables of the host out of the tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if key, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, "RESULT_FINDER_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}
