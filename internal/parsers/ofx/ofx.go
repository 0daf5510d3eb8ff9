// Package ofx extracts transactions from OFX/QFX exports.
//
// Well-formed responses go through ofxgo. The files actually produced by
// banks are frequently not well-formed, and they come in two dialects with
// no version marker up front: closed-tag XML-like blocks and flat SGML
// with no closing tags. Two lenient extraction passes handle those; the
// second runs only when the first finds nothing.
package ofx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"

	"github.com/rumor-ml/commons.systems/bankimport/internal/dedup"
	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
	"github.com/rumor-ml/commons.systems/bankimport/internal/locale"
	"github.com/rumor-ml/commons.systems/bankimport/internal/parser"
)

// Parser implements OFX/QFX parsing with a stateless design.
// Safe for concurrent use without locking.
type Parser struct{}

var parserInstance = &Parser{}

// NewParser returns the shared OFX parser instance
func NewParser() *Parser {
	return parserInstance
}

// Name returns the parser identifier
func (p *Parser) Name() string {
	return "ofx"
}

// CanParse checks if this parser can handle the file based on extension and header
func (p *Parser) CanParse(path string, header []byte) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".ofx" && ext != ".qfx" {
		return false
	}

	headerUpper := strings.ToUpper(string(header))
	return strings.Contains(headerUpper, "OFXHEADER") ||
		strings.Contains(headerUpper, "<?OFX") ||
		strings.Contains(headerUpper, "<OFX>") ||
		strings.Contains(headerUpper, "<STMTTRN>")
}

// balanceMarkers are NAME values that label opening/closing-balance blocks.
// Those blocks report running balances, not movements, and are skipped.
var balanceMarkers = map[string]struct{}{
	"saldo anterior": {},
	"saldo final":    {},
}

// Parse extracts a normalized statement from OFX text.
//
// A file with no extractable transaction blocks yields an empty statement
// and nil error, matching the CSV path's treatment of unrecognized files.
func (p *Parser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*domain.ParsedBankStatement, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX content: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	stmt := domain.NewParsedBankStatement()

	// Strict fast path for well-formed responses.
	if transactions, ok := extractStrict(content); ok {
		stmt.Transactions = transactions
		return stmt, nil
	}

	text := string(content)
	transactions := extractClosedBlocks(text)
	if len(transactions) == 0 {
		transactions = extractFlatBlocks(text)
	}

	stmt.Transactions = transactions
	return stmt, nil
}

// extractStrict decodes the file with ofxgo. Returns ok=false when the
// response cannot be decoded or contains no transactions, handing the file
// to the lenient passes.
func extractStrict(content []byte) ([]domain.ParsedTransaction, bool) {
	response, err := ofxgo.ParseResponse(bytes.NewReader(content))
	if err != nil {
		return nil, false
	}

	var transactions []domain.ParsedTransaction
	for _, list := range strictTranLists(response) {
		for _, txn := range list.Transactions {
			if parsed, ok := strictTransaction(txn); ok {
				transactions = append(transactions, parsed)
			}
		}
	}

	if len(transactions) == 0 {
		return nil, false
	}
	return transactions, true
}

// strictTranLists collects the transaction lists from bank and credit card
// statements in the response
func strictTranLists(response *ofxgo.Response) []*ofxgo.TransactionList {
	var lists []*ofxgo.TransactionList

	for _, message := range response.Bank {
		if stmt, ok := message.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			lists = append(lists, stmt.BankTranList)
		}
	}
	for _, message := range response.CreditCard {
		if stmt, ok := message.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			lists = append(lists, stmt.BankTranList)
		}
	}

	return lists
}

// strictTransaction converts an ofxgo transaction, applying the same
// filtering and field preference as the lenient passes so both paths yield
// identical records for equivalent content
func strictTransaction(txn ofxgo.Transaction) (domain.ParsedTransaction, bool) {
	if _, skip := balanceMarkers[locale.Normalize(txn.Name.String())]; skip {
		return domain.ParsedTransaction{}, false
	}

	posted := txn.DtPosted.Time
	if posted.IsZero() {
		return domain.ParsedTransaction{}, false
	}
	// re-anchor at midday UTC so both extraction paths format identically
	date := time.Date(posted.Year(), posted.Month(), posted.Day(), 12, 0, 0, 0, time.UTC)

	amount, _ := txn.TrnAmt.Float64()
	signedCents := int64(math.Round(amount * 100))

	description := strings.TrimSpace(txn.Memo.String())
	if description == "" {
		description = strings.TrimSpace(txn.Name.String())
	}
	if description == "" {
		description = strings.TrimSpace(txn.FiTID.String())
	}

	return buildTransaction(date, description, strings.TrimSpace(txn.FiTID.String()), signedCents), true
}

var (
	closedBlock = regexp.MustCompile(`(?is)<STMTTRN>(.*?)</STMTTRN>`)
	openTag     = regexp.MustCompile(`(?i)<STMTTRN>`)
	listEndTag  = regexp.MustCompile(`(?i)</BANKTRANLIST>`)
	tagValue    = regexp.MustCompile(`(?i)<([A-Z0-9_.]+)>([^<\r\n]*)`)
	postedDate  = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})`)
)

// extractClosedBlocks handles the closed-tag dialect: every block is
// delimited by a <STMTTRN>…</STMTTRN> pair
func extractClosedBlocks(text string) []domain.ParsedTransaction {
	var transactions []domain.ParsedTransaction
	for _, match := range closedBlock.FindAllStringSubmatch(text, -1) {
		if txn, ok := blockTransaction(match[1]); ok {
			transactions = append(transactions, txn)
		}
	}
	return transactions
}

// extractFlatBlocks handles the flat SGML dialect, which has no closing
// tags: each block runs from its <STMTTRN> to the next one, to
// </BANKTRANLIST>, or to the end of the text
func extractFlatBlocks(text string) []domain.ParsedTransaction {
	starts := openTag.FindAllStringIndex(text, -1)

	var transactions []domain.ParsedTransaction
	for i, start := range starts {
		begin := start[1]
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		} else if listEnd := listEndTag.FindStringIndex(text[begin:]); listEnd != nil {
			end = begin + listEnd[0]
		}

		if txn, ok := blockTransaction(text[begin:end]); ok {
			transactions = append(transactions, txn)
		}
	}
	return transactions
}

// blockFields extracts every <TAG>value occurrence in a block into a
// case-insensitive field map. Values run to the next tag or line end.
func blockFields(block string) map[string]string {
	fields := make(map[string]string)
	for _, match := range tagValue.FindAllStringSubmatch(block, -1) {
		fields[strings.ToUpper(match[1])] = strings.TrimSpace(match[2])
	}
	return fields
}

// blockTransaction builds a transaction from one block's field map.
// Blocks without a complete DTPOSTED date and blocks labeled as balance
// markers are discarded.
func blockTransaction(block string) (domain.ParsedTransaction, bool) {
	fields := blockFields(block)

	if _, skip := balanceMarkers[locale.Normalize(fields["NAME"])]; skip {
		return domain.ParsedTransaction{}, false
	}

	digits := postedDate.FindStringSubmatch(fields["DTPOSTED"])
	if digits == nil {
		return domain.ParsedTransaction{}, false
	}
	date, ok := locale.ParseDate(fmt.Sprintf("%s-%s-%s", digits[1], digits[2], digits[3]))
	if !ok {
		return domain.ParsedTransaction{}, false
	}

	signedCents := locale.ParseAmountCents(fields["TRNAMT"])

	description := fields["MEMO"]
	if description == "" {
		description = fields["NAME"]
	}
	if description == "" {
		description = fields["FITID"]
	}

	return buildTransaction(date, description, fields["FITID"], signedCents), true
}

// buildTransaction folds the sign into the type and fingerprints the record
func buildTransaction(date time.Time, description, documentID string, signedCents int64) domain.ParsedTransaction {
	txnType := domain.TypeIncome
	amountCents := signedCents
	if signedCents < 0 {
		txnType = domain.TypeExpense
		amountCents = -signedCents
	}

	return domain.ParsedTransaction{
		Date:        date,
		Description: description,
		DocumentID:  documentID,
		AmountCents: amountCents,
		Type:        txnType,
		ImportHash:  dedup.Fingerprint(date.Format("2006-01-02"), description, amountCents),
	}
}
