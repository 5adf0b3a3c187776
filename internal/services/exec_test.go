package services_test

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"speechcorpus/internal/services"
)

func TestRunCommandPipesStdin(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	out, err := services.RunCommand(context.Background(), strings.NewReader("hello\n"), "cat")
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if string(out) != "hello\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunCommandReportsStderr(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	_, err := services.RunCommand(context.Background(), nil, "sh", "-c", "echo broken >&2; exit 3")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}
