package vision

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.txt")
	if err := os.WriteFile(path, []byte("Fox\n deer \n\nRaccoon\n"), 0644); err != nil {
		t.Fatal(err)
	}

	labels, err := LoadLabels(path)
	if err != nil {
		t.Fatalf("LoadLabels failed: %v", err)
	}

	expected := []string{"fox", "deer", "", "raccoon"}
	if len(labels) != len(expected) {
		t.Fatalf("Expected %d labels, got %v", len(expected), labels)
	}
	for i := range expected {
		if labels[i] != expected[i] {
			t.Errorf("Label %d: expected %q, got %q", i, expected[i], labels[i])
		}
	}
}

func TestLoadLabels_Missing(t *testing.T) {
	if _, err := LoadLabels(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("Expected error for missing labels file")
	}
	if _, err := LoadLabels(""); err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestClassifierLabel_FallsBackToClassID(t *testing.T) {
	c := &Classifier{labels: []string{"fox", ""}}

	tests := map[int]string{
		0: "fox",
		1: "class_1",
		7: "class_7",
	}
	for id, want := range tests {
		if got := c.label(id); got != want {
			t.Errorf("label(%d) = %q, expected %q", id, got, want)
		}
	}
}
