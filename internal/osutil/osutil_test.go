package osutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestHomeDirPrefersHOME(t *testing.T) {
	t.Setenv("HOME", "home")
	t.Setenv("USERPROFILE", "userProfile")

	got, err := homeDir()
	if err != nil {
		t.Fatalf("homeDir() error = %v", err)
	}
	if got != "home" {
		t.Errorf("homeDir() = %q, want %q", got, "home")
	}

	if runtime.GOOS == "windows" {
		t.Setenv("HOME", "")
		got, err := homeDir()
		if err != nil {
			t.Fatalf("homeDir() error = %v", err)
		}
		if got != "userProfile" {
			t.Errorf("homeDir() = %q, want %q", got, "userProfile")
		}
	}
}

func TestNormalizeFilePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TEMPLATE_DIR", "templates")

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("os.Getwd() error = %v", err)
	}

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"~", home},
		{"~/jobs/config.xml", filepath.Join(home, "jobs", "config.xml")},
		{"$TEMPLATE_DIR/config.xml", filepath.Join(cwd, "templates", "config.xml")},
		{"jenkins-job-config.xml", filepath.Join(cwd, "jenkins-job-config.xml")},
	}

	for _, test := range tests {
		got, err := NormalizeFilePath(test.in)
		if err != nil {
			t.Errorf("NormalizeFilePath(%q) error = %v", test.in, err)
			continue
		}
		if got != test.want {
			t.Errorf("NormalizeFilePath(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	if FileExists(path) {
		t.Fatalf("FileExists(%q) = true before creating it", path)
	}
	if err := os.WriteFile(path, []byte("job-name: deploy\n"), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}
	if !FileExists(path) {
		t.Errorf("FileExists(%q) = false after creating it", path)
	}
}
