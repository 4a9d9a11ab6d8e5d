package digest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", p, err)
	}

	return p
}

func TestCalculateHash(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := CalculateHash([]byte("abc")); got != want {
		t.Errorf("CalculateHash() = %s, want %s", got, want)
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.json", `{"meta":{}}`)

	sum, err := File(p)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}

	if sum.Size != 11 {
		t.Errorf("Size = %d, want 11", sum.Size)
	}

	if sum.Hash != CalculateHash([]byte(`{"meta":{}}`)) {
		t.Errorf("Hash mismatch for %s", p)
	}

	if _, err := File(""); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("File(\"\") error = %v, want ErrEmptyPath", err)
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "data.json", "データ")
	same := writeFile(t, dir, "copy1.json", "データ")
	diff := writeFile(t, dir, "copy2.json", "データ\n")

	if err := Verify(src, same); err != nil {
		t.Errorf("Verify() identical copy error = %v", err)
	}

	if err := Verify(src, same, diff); !errors.Is(err, ErrHashMismatch) {
		t.Errorf("Verify() error = %v, want ErrHashMismatch", err)
	}

	if err := Verify(src, filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Verify() expected error for missing copy")
	}
}
