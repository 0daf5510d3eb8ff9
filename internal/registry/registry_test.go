package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindParserForContent(t *testing.T) {
	r := New()

	tests := []struct {
		name     string
		fileName string
		header   string
		want     string
	}{
		{
			name:     "ofx extension",
			fileName: "statement.ofx",
			header:   "OFXHEADER:100",
			want:     "ofx",
		},
		{
			name:     "qfx extension",
			fileName: "statement.qfx",
			header:   "<OFX>",
			want:     "ofx",
		},
		{
			name:     "ofx markers without extension fall back to csv",
			fileName: "statement.txt",
			header:   "<?OFX?><OFX><STMTTRN>",
			want:     "csv",
		},
		{
			name:     "ofx extension without markers falls back to csv",
			fileName: "statement.ofx",
			header:   "plain text, nothing ofx about it",
			want:     "csv",
		},
		{
			name:     "csv extension",
			fileName: "extrato.csv",
			header:   "Data;Lançamento;Valor",
			want:     "csv",
		},
		{
			name:     "unknown falls back to csv",
			fileName: "mystery.dat",
			header:   "nothing recognizable",
			want:     "csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := r.FindParserForContent(tt.fileName, []byte(tt.header))
			if p == nil {
				t.Fatal("FindParserForContent returned nil")
			}
			if p.Name() != tt.want {
				t.Errorf("got parser %q, want %q", p.Name(), tt.want)
			}
		})
	}
}

func TestFindParserFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extrato.csv")
	content := "Data;Lançamento;Valor\n01/03/2024;Supermercado;-150,00\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New()
	p, err := r.FindParser(path)
	if err != nil {
		t.Fatalf("FindParser returned error: %v", err)
	}
	if p.Name() != "csv" {
		t.Errorf("got parser %q, want csv", p.Name())
	}
}

func TestFindParserMissingFile(t *testing.T) {
	r := New()
	if _, err := r.FindParser("/nonexistent/statement.csv"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestListParsers(t *testing.T) {
	names := New().ListParsers()
	if len(names) != 2 {
		t.Fatalf("got %d parsers, want 2", len(names))
	}
	if names[0] != "ofx" || names[1] != "csv" {
		t.Errorf("got %v, want [ofx csv]", names)
	}
}
