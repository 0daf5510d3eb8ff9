package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("Data;Valor\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanFindsStatementFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "conta-corrente", "extrato-marco.csv"))
	writeFile(t, filepath.Join(root, "conta-corrente", "extrato-abril.ofx"))
	writeFile(t, filepath.Join(root, "cartao", "fatura.qfx"))
	writeFile(t, filepath.Join(root, "cartao", "notes.txt"))
	writeFile(t, filepath.Join(root, "loose.csv"))

	results, err := New(root).Scan()
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}

	byName := make(map[string]string)
	for _, r := range results {
		byName[filepath.Base(r.Path)] = r.AccountID
	}

	tests := []struct {
		file    string
		account string
	}{
		{"extrato-marco.csv", "conta-corrente"},
		{"extrato-abril.ofx", "conta-corrente"},
		{"fatura.qfx", "cartao"},
		{"loose.csv", ""},
	}
	for _, tt := range tests {
		account, ok := byName[tt.file]
		if !ok {
			t.Errorf("file %s not found in scan results", tt.file)
			continue
		}
		if account != tt.account {
			t.Errorf("%s: got account %q, want %q", tt.file, account, tt.account)
		}
	}
}

func TestScanSkipsUnknownExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "acct", "statement.pdf"))
	writeFile(t, filepath.Join(root, "acct", "statement.xlsx"))

	results, err := New(root).Scan()
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestScanCaseInsensitiveExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "acct", "EXTRATO.CSV"))
	writeFile(t, filepath.Join(root, "acct", "STATEMENT.OFX"))

	results, err := New(root).Scan()
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	var names []string
	for _, r := range results {
		names = append(names, filepath.Base(r.Path))
	}
	sort.Strings(names)
	if len(names) != 2 {
		t.Fatalf("got %v, want both uppercase files", names)
	}
}

func TestScanMissingRoot(t *testing.T) {
	if _, err := New("/nonexistent-scan-root").Scan(); err == nil {
		t.Error("expected error for missing root")
	}
}
