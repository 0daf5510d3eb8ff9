package csv

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
)

func parseString(t *testing.T, content string) *domain.ParsedBankStatement {
	t.Helper()
	stmt, err := NewParser().Parse(context.Background(), strings.NewReader(content), nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return stmt
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"unix endings", "a\nb\nc", []string{"a", "b", "c"}},
		{"windows endings", "a\r\nb\r\nc", []string{"a", "b", "c"}},
		{"old mac endings", "a\rb", []string{"a", "b"}},
		{"blank lines dropped", "a\n\n  \nb\n", []string{"a", "b"}},
		{"lines trimmed", "  a  \n\tb\t", []string{"a", "b"}},
		{"empty input", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitLines(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitLines(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDetectDelimiter(t *testing.T) {
	if got := DetectDelimiter("Data;Lançamento;Valor"); got != ';' {
		t.Errorf("DetectDelimiter() = %q, want ';'", got)
	}
	if got := DetectDelimiter("Date,Description,Amount"); got != ',' {
		t.Errorf("DetectDelimiter() = %q, want ','", got)
	}
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		delimiter rune
		want      []string
	}{
		{
			name:      "plain fields",
			line:      "a;b;c",
			delimiter: ';',
			want:      []string{"a", "b", "c"},
		},
		{
			name:      "delimiter inside double quotes",
			line:      `01/03/2024,"1.112,00",Mercado`,
			delimiter: ',',
			want:      []string{"01/03/2024", "1.112,00", "Mercado"},
		},
		{
			name:      "delimiter inside single quotes",
			line:      "a,'b,c',d",
			delimiter: ',',
			want:      []string{"a", "b,c", "d"},
		},
		{
			name:      "doubled quote is escaped literal",
			line:      `"say ""hi""",x`,
			delimiter: ',',
			want:      []string{`say "hi"`, "x"},
		},
		{
			name:      "unterminated quote swallows rest of line",
			line:      `a,"b,c`,
			delimiter: ',',
			want:      []string{"a", "b,c"},
		},
		{
			name:      "fields trimmed",
			line:      " a ; b ",
			delimiter: ';',
			want:      []string{"a", "b"},
		},
		{
			name:      "empty trailing field",
			line:      "a;b;",
			delimiter: ';',
			want:      []string{"a", "b", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitFields(tt.line, tt.delimiter); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitFields(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestClassifyHeader(t *testing.T) {
	t.Run("portuguese statement header", func(t *testing.T) {
		cols := classifyHeader([]string{"Data", "Lançamento", "Detalhes", "Nº documento", "Valor"})
		if cols.date != 0 || cols.description != 1 || cols.details != 2 || cols.amount != 4 {
			t.Errorf("unexpected roles: %+v", cols)
		}
		if !cols.usable() {
			t.Error("header should be usable")
		}
	})

	t.Run("credit and debit columns", func(t *testing.T) {
		cols := classifyHeader([]string{"Data", "Histórico", "Débito", "Crédito"})
		if cols.debit != 2 || cols.credit != 3 {
			t.Errorf("debit/credit = %d/%d, want 2/3", cols.debit, cols.credit)
		}
		if cols.amount != -1 {
			t.Errorf("amount = %d, want -1", cols.amount)
		}
	})

	t.Run("type label column not claimed as credit", func(t *testing.T) {
		cols := classifyHeader([]string{"Data", "Descrição", "Entrada/Saída", "Valor"})
		if cols.typeLabel != 2 {
			t.Errorf("typeLabel = %d, want 2", cols.typeLabel)
		}
		if cols.credit == 2 {
			t.Error("Entrada/Saída must not be claimed as a credit column")
		}
	})

	t.Run("missing date column is unusable", func(t *testing.T) {
		cols := classifyHeader([]string{"Descrição", "Valor"})
		if cols.usable() {
			t.Error("header without a date column should not be usable")
		}
	})

	t.Run("missing description column is unusable", func(t *testing.T) {
		cols := classifyHeader([]string{"Data", "Valor"})
		if cols.usable() {
			t.Error("header without a description column should not be usable")
		}
	})
}

func TestParse_EndToEnd(t *testing.T) {
	stmt := parseString(t, "Data;Lançamento;Valor\n01/03/2024;Supermercado;-150,00\n")

	if len(stmt.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(stmt.Transactions))
	}
	txn := stmt.Transactions[0]

	if txn.DateISO() != "2024-03-01" {
		t.Errorf("date = %s, want 2024-03-01", txn.DateISO())
	}
	if txn.Description != "Supermercado" {
		t.Errorf("description = %q, want Supermercado", txn.Description)
	}
	if txn.AmountCents != 15000 {
		t.Errorf("amountCents = %d, want 15000", txn.AmountCents)
	}
	if txn.Type != domain.TypeExpense {
		t.Errorf("type = %s, want expense", txn.Type)
	}
	if txn.ImportHash != "f476a7c13ef2f9fa" {
		t.Errorf("importHash = %s, want f476a7c13ef2f9fa", txn.ImportHash)
	}
}

func TestParse_QuotedAmountWithInternalDelimiter(t *testing.T) {
	stmt := parseString(t, "Data,Histórico,Valor\n01/03/2024,Transferência,\"1.112,00\"\n")

	if len(stmt.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(stmt.Transactions))
	}
	if got := stmt.Transactions[0].AmountCents; got != 111200 {
		t.Errorf("amountCents = %d, want 111200", got)
	}
	if stmt.Transactions[0].Type != domain.TypeIncome {
		t.Errorf("type = %s, want income", stmt.Transactions[0].Type)
	}
}

func TestParse_BalanceRows(t *testing.T) {
	content := strings.Join([]string{
		"Data;Lançamento;Valor",
		"01/03/2024;Saldo Anterior;500,00",
		"01/03/2024;Supermercado;-150,00",
		"01/03/2024;S A L D O;350,00",
		"02/03/2024;Saldo do dia;350,00",
	}, "\n")

	stmt := parseString(t, content)

	if len(stmt.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1 (balance markers must not become transactions)", len(stmt.Transactions))
	}
	if len(stmt.Balances) != 1 {
		t.Fatalf("got %d balances, want 1", len(stmt.Balances))
	}

	bal := stmt.Balances[0]
	if bal.BalanceCents != 35000 {
		t.Errorf("balanceCents = %d, want 35000", bal.BalanceCents)
	}
	if bal.DateISO() != "2024-03-01" {
		t.Errorf("balance date = %s, want 2024-03-01", bal.DateISO())
	}
	if !domain.ValidateImportHash(bal.ImportHash) {
		t.Errorf("balance importHash %q is malformed", bal.ImportHash)
	}
}

func TestParse_NegativeBalanceRow(t *testing.T) {
	stmt := parseString(t, "Data;Lançamento;Valor\n01/03/2024;S A L D O;-50,00\n")

	if len(stmt.Balances) != 1 {
		t.Fatalf("got %d balances, want 1", len(stmt.Balances))
	}
	if got := stmt.Balances[0].BalanceCents; got != -5000 {
		t.Errorf("balanceCents = %d, want -5000 (sign preserved)", got)
	}
}

func TestParse_DateRejection(t *testing.T) {
	content := strings.Join([]string{
		"Data;Lançamento;Valor",
		"00/00/0000;Placeholder;-10,00",
		"31/02/2024;Impossible;-10,00",
		"01/03/2024;Valid;-10,00",
	}, "\n")

	stmt := parseString(t, content)

	if len(stmt.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1 (invalid dates discarded)", len(stmt.Transactions))
	}
	if stmt.Transactions[0].Description != "Valid" {
		t.Errorf("surviving row = %q, want Valid", stmt.Transactions[0].Description)
	}
}

func TestParse_CreditDebitColumns(t *testing.T) {
	content := strings.Join([]string{
		"Data;Histórico;Débito;Crédito",
		"01/03/2024;Pagamento;150,00;",
		"02/03/2024;Depósito;;300,00",
	}, "\n")

	stmt := parseString(t, content)

	if len(stmt.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(stmt.Transactions))
	}

	if stmt.Transactions[0].Type != domain.TypeExpense || stmt.Transactions[0].AmountCents != 15000 {
		t.Errorf("debit row = %s/%d, want expense/15000",
			stmt.Transactions[0].Type, stmt.Transactions[0].AmountCents)
	}
	if stmt.Transactions[1].Type != domain.TypeIncome || stmt.Transactions[1].AmountCents != 30000 {
		t.Errorf("credit row = %s/%d, want income/30000",
			stmt.Transactions[1].Type, stmt.Transactions[1].AmountCents)
	}
}

func TestParse_TypeLabelOverridesSign(t *testing.T) {
	content := strings.Join([]string{
		"Data;Descrição;Tipo;Valor",
		"01/03/2024;Estorno;Entrada;150,00",
		"02/03/2024;Tarifa;Saída;5,00",
		"03/03/2024;Rotulo estranho;???;-20,00",
	}, "\n")

	stmt := parseString(t, content)

	if len(stmt.Transactions) != 3 {
		t.Fatalf("got %d transactions, want 3", len(stmt.Transactions))
	}
	if stmt.Transactions[0].Type != domain.TypeIncome {
		t.Errorf("Entrada label: type = %s, want income", stmt.Transactions[0].Type)
	}
	if stmt.Transactions[1].Type != domain.TypeExpense {
		t.Errorf("Saída label: type = %s, want expense", stmt.Transactions[1].Type)
	}
	// unrecognized label falls back to the sign
	if stmt.Transactions[2].Type != domain.TypeExpense {
		t.Errorf("unrecognized label: type = %s, want expense from sign", stmt.Transactions[2].Type)
	}
}

func TestParse_NoiseRowDiscarded(t *testing.T) {
	stmt := parseString(t, "Data;Lançamento;Valor\n01/03/2024;;0,00\n")

	if len(stmt.Transactions) != 0 {
		t.Errorf("got %d transactions, want 0 (zero amount + empty description is noise)", len(stmt.Transactions))
	}
}

func TestParse_UnrecognizedFileYieldsEmptyStatement(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not a statement", "Nome,Idade\nAna,30\n"},
		{"empty file", ""},
		{"header only", "Data;Lançamento;Valor\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := parseString(t, tt.content)
			if !stmt.IsEmpty() {
				t.Errorf("expected empty statement for %q", tt.name)
			}
		})
	}
}

func TestParse_InFileDuplicatesShareFingerprint(t *testing.T) {
	content := strings.Join([]string{
		"Data;Lançamento;Valor",
		"01/03/2024;Supermercado;-150,00",
		"01/03/2024;Supermercado;-150,00",
	}, "\n")

	stmt := parseString(t, content)

	if len(stmt.Transactions) != 2 {
		t.Fatalf("got %d transactions, want 2 (parser keeps both; the reconciler collapses)", len(stmt.Transactions))
	}
	if stmt.Transactions[0].ImportHash != stmt.Transactions[1].ImportHash {
		t.Error("identical rows must produce identical fingerprints")
	}
}

func TestParser_CanParse(t *testing.T) {
	p := NewParser()
	if !p.CanParse("extrato.csv", nil) {
		t.Error("CanParse should accept .csv")
	}
	if p.CanParse("extrato.ofx", nil) {
		t.Error("CanParse should reject .ofx")
	}
}
