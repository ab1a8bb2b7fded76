package configs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type tomlFixture struct {
	Name string `toml:"name"`
	Port int    `toml:"port"`
}

func TestSaveAndLoadTOML(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.toml")

	original := tomlFixture{Name: "origin", Port: 8443}
	if err := SaveTOML(testFile, original); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	var loaded tomlFixture
	if err := LoadTOML(testFile, &loaded); err != nil {
		t.Fatalf("LoadTOML failed: %v", err)
	}
	if loaded != original {
		t.Errorf("Expected %+v, got %+v", original, loaded)
	}
}

func TestLoadTOMLNonExistent(t *testing.T) {
	var data tomlFixture
	if err := LoadTOML(filepath.Join(t.TempDir(), "nonexistent.toml"), &data); err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}
}

func TestLoadTOMLUnknownKey(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.toml")
	if err := os.WriteFile(testFile, []byte("name = \"x\"\nprot = 1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	var data tomlFixture
	err := LoadTOML(testFile, &data)
	if err == nil || !strings.Contains(err.Error(), "prot") {
		t.Fatalf("Expected unknown key error naming prot, got %v", err)
	}
}

func TestSaveTOMLCreatesDirectory(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "subdir", "test.toml")

	if err := SaveTOML(testFile, tomlFixture{Name: "Test"}); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}
	if _, err := os.Stat(testFile); os.IsNotExist(err) {
		t.Fatal("File was not created")
	}
}

func TestSaveTOMLReplacesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "test.toml")

	for _, port := range []int{1, 2} {
		if err := SaveTOML(testFile, tomlFixture{Port: port}); err != nil {
			t.Fatalf("SaveTOML failed: %v", err)
		}
	}

	var loaded tomlFixture
	if err := LoadTOML(testFile, &loaded); err != nil {
		t.Fatal(err)
	}
	if loaded.Port != 2 {
		t.Errorf("Expected port 2, got %d", loaded.Port)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the config file, found %d entries", len(entries))
	}
}
