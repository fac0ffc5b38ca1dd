package process

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseStatName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain", "1234 (chrome) S 1 1234", "chrome"},
		{"Spaces in name", "77 (Web Content) S 1 77", "Web Content"},
		{"Parens in name", "88 (a) b)) R 1", "a) b)"},
		{"Garbage", "no parens here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseStatName(tt.input); got != tt.expected {
				t.Errorf("parseStatName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestResolverName(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "4242"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "4242", "stat"), []byte("4242 (firefox) S 1"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewResolver()
	r.procRoot = root

	name, err := r.Name(4242)
	if err != nil {
		t.Fatalf("Name() error: %v", err)
	}
	if name != "firefox" {
		t.Errorf("Name() = %q, want firefox", name)
	}

	// Served from cache after the file disappears.
	os.RemoveAll(filepath.Join(root, "4242"))
	if name, err := r.Name(4242); err != nil || name != "firefox" {
		t.Errorf("cached Name() = %q, %v", name, err)
	}
}

func TestResolverInvalidPID(t *testing.T) {
	if _, err := NewResolver().Name(0); err == nil {
		t.Error("expected error for pid 0")
	}
}

func TestResolverSelf(t *testing.T) {
	name, err := NewResolver().Name(os.Getpid())
	if err != nil {
		t.Skipf("process table not readable: %v", err)
	}
	if name == "" {
		t.Error("empty name for own process")
	}
}
