package common

import (
	"os"
	"path/filepath"
	"testing"

	"bookdata/pkg/common/config"
)

func writeProject(t *testing.T, catalog string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example\n"), 0644); err != nil {
		t.Fatalf("Failed to write go.mod: %v", err)
	}
	content := `{"ConnectionStrings":{"DefaultConnection":"Engine=sqlite;Database=` + catalog + `"},` +
		`"Logging":{"Level":"error"}}`
	if err := os.WriteFile(filepath.Join(dir, "appsettings.json"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write appsettings.json: %v", err)
	}
	return dir
}

func TestInitFollowsConfigReset(t *testing.T) {
	t.Setenv("CONNECTIONSTRINGS__DEFAULTCONNECTION", "")
	t.Cleanup(config.ResetForTest)

	t.Chdir(writeProject(t, "First"))
	config.ResetForTest()
	first, err := Init()
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if first.ConnectionString != "Engine=sqlite;Database=First" {
		t.Errorf("Unexpected connection string %q", first.ConnectionString)
	}

	again, err := Init()
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if again != first {
		t.Error("Expected cached settings without a reset")
	}

	t.Chdir(writeProject(t, "Second"))
	config.ResetForTest()
	second, err := Init()
	if err != nil {
		t.Fatalf("Init failed after reset: %v", err)
	}
	if second.ConnectionString != "Engine=sqlite;Database=Second" {
		t.Errorf("Expected reloaded settings, got %q", second.ConnectionString)
	}
}

func TestInitMissingConfiguration(t *testing.T) {
	t.Setenv("CONNECTIONSTRINGS__DEFAULTCONNECTION", "")
	t.Cleanup(config.ResetForTest)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example\n"), 0644); err != nil {
		t.Fatalf("Failed to write go.mod: %v", err)
	}
	t.Chdir(dir)
	config.ResetForTest()

	if _, err := Init(); err == nil {
		t.Fatal("Expected an error without appsettings.json")
	}
}
