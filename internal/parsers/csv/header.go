package csv

import (
	"regexp"

	"github.com/rumor-ml/commons.systems/bankimport/internal/locale"
)

// columnRole identifies the semantic meaning of a CSV column
type columnRole int

const (
	roleDate columnRole = iota
	roleDescription
	roleDetails
	roleDocument
	roleAmount
	roleDebit
	roleCredit
	roleTypeLabel
)

// headerRoles is the ordered (role, pattern) table evaluated against
// normalized header cells. Order matters: typeLabel is tested before the
// credit/debit columns so an "Entrada/Saída" label column is not claimed
// as a credit column. Patterns match the diacritics-stripped, lowercased
// header text.
var headerRoles = []struct {
	role    columnRole
	pattern *regexp.Regexp
}{
	{roleDate, regexp.MustCompile(`^(data|date|dia\b|dt[. ])`)},
	{roleDescription, regexp.MustCompile(`^(lancamento|descricao|historico|memo|descript|titulo)`)},
	{roleDetails, regexp.MustCompile(`^(detalhe|complemento|observacao|detail)`)},
	{roleDocument, regexp.MustCompile(`^(documento|num\.? ?doc|doc\b|numero)`)},
	{roleTypeLabel, regexp.MustCompile(`^(tipo|type)\b|entrada ?/ ?saida`)},
	{roleAmount, regexp.MustCompile(`^(valor|amount|value|montante)`)},
	{roleDebit, regexp.MustCompile(`^(debito|debit|saida)`)},
	{roleCredit, regexp.MustCompile(`^(credito|credit|entrada)`)},
}

// columns holds the resolved column index per role; -1 means absent
type columns struct {
	date        int
	description int
	details     int
	document    int
	amount      int
	debit       int
	credit      int
	typeLabel   int
}

// usable reports whether the header resembles a bank statement at all.
// Without a date and a description column the file yields an empty result.
func (c columns) usable() bool {
	return c.date >= 0 && c.description >= 0
}

// classifyHeader assigns each role its column index. Each column is claimed
// by at most one role, in table order, so overlapping patterns cannot
// double-assign a column.
func classifyHeader(header []string) columns {
	normalized := make([]string, len(header))
	for i, cell := range header {
		normalized[i] = locale.Normalize(cell)
	}

	cols := columns{
		date: -1, description: -1, details: -1, document: -1,
		amount: -1, debit: -1, credit: -1, typeLabel: -1,
	}
	claimed := make([]bool, len(normalized))

	for _, entry := range headerRoles {
		for i, cell := range normalized {
			if claimed[i] || !entry.pattern.MatchString(cell) {
				continue
			}
			switch entry.role {
			case roleDate:
				cols.date = i
			case roleDescription:
				cols.description = i
			case roleDetails:
				cols.details = i
			case roleDocument:
				cols.document = i
			case roleAmount:
				cols.amount = i
			case roleDebit:
				cols.debit = i
			case roleCredit:
				cols.credit = i
			case roleTypeLabel:
				cols.typeLabel = i
			}
			claimed[i] = true
			break
		}
	}

	return cols
}
