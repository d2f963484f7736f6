package cmd

import (
	"strings"
	"testing"
)

func TestConfigShow_Defaults(t *testing.T) {
	out, err := executeCommand(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}

	for _, want := range []string{
		"api_url: http://localhost:5000",
		"push_url: ws://localhost:5000/ws",
		"query_timeout: 30s",
		"max_attempts: 0",
		"docs-chat/state.db",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigPath(t *testing.T) {
	out, err := executeCommand(t, "config", "path", "--storage", "/tmp/custom.db")
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	for _, want := range []string{"config.yaml", ".env", "/tmp/custom.db", "chat.log"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
