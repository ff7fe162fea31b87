package golden

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBlessThenCheckRoundTrips(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "basic.lox", `print 1 + 2;`)

	blessed, err := Run(dir, true)
	if err != nil {
		t.Fatalf("bless run: %v", err)
	}
	if len(blessed) != 1 {
		t.Fatalf("expected 1 result, got %d", len(blessed))
	}

	checked, err := Run(dir, false)
	if err != nil {
		t.Fatalf("check run: %v", err)
	}
	if len(checked) != 1 || !checked[0].Passed() {
		t.Fatalf("expected the freshly blessed fixture to pass, got %+v", checked)
	}
}

func TestIgnoreDirectiveSkipsFile(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "skip.lox", "# ignore\nprint undeclared;")

	results, err := Run(dir, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 1 || !results[0].Skipped {
		t.Fatalf("expected the fixture to be skipped, got %+v", results)
	}
}

func TestMismatchIsReported(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "basic.lox", `print 1 + 2;`)

	if _, err := Run(dir, true); err != nil {
		t.Fatalf("bless run: %v", err)
	}

	siblingDir := path[:len(path)-len(".lox")]
	if err := os.WriteFile(filepath.Join(siblingDir, "output"), []byte("wrong\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	results, err := Run(dir, false)
	if err != nil {
		t.Fatalf("check run: %v", err)
	}
	if len(results) != 1 || results[0].Passed() {
		t.Fatalf("expected a mismatch after corrupting the output fixture, got %+v", results)
	}
	if _, ok := results[0].Mismatch["output"]; !ok {
		t.Fatalf("expected the mismatch to be reported under 'output', got %+v", results[0].Mismatch)
	}
}
