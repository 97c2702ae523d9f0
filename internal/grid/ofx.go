package grid

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/mandantenanalyse/internal/model"
)

// Column headers of a flattened bank statement. They are German so the
// transaction keyword groups pick them up without a manual mapping.
const (
	StatementDate      = "Buchungsdatum"
	StatementAmount    = "Betrag"
	StatementText      = "Buchungstext"
	StatementAccount   = "Konto"
	StatementPayee     = "Auftraggeber/Empfänger"
	StatementCurrency  = "Währung"
	StatementDebitFlag = "Soll/Haben"
	StatementReference = "Referenz"
	StatementType      = "Vorgang"
)

var statementHeaders = []string{
	StatementDate,
	StatementAmount,
	StatementText,
	StatementAccount,
	StatementPayee,
	StatementCurrency,
	StatementDebitFlag,
	StatementReference,
	StatementType,
}

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagPattern  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// readStatement flattens the bank and credit card statements of an OFX/QFX
// file into one table.
func readStatement(ctx context.Context, data []byte) ([][]model.Cell, error) {
	resp, err := ofxgo.ParseResponse(strings.NewReader(cleanStatement(string(data))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX statement: %w", err)
	}

	header := make([]model.Cell, len(statementHeaders))
	for i, h := range statementHeaders {
		header[i] = model.StringCell(h)
	}
	cells := [][]model.Cell{header}

	var bankStmts, ccStmts int
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		for _, tx := range stmt.BankTranList.Transactions {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			cells = append(cells, statementRow(tx, string(stmt.BankAcctFrom.AcctID), currencyCode(stmt.CurDef)))
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		ccStmts++
		for _, tx := range stmt.BankTranList.Transactions {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			cells = append(cells, statementRow(tx, string(stmt.CCAcctFrom.AcctID), currencyCode(stmt.CurDef)))
		}
	}

	slog.Debug("Flattened OFX statement",
		"rows", len(cells)-1,
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return cells, nil
}

// cleanStatement repairs formatting mistakes common in bank exports.
func cleanStatement(content string) string {
	content = strings.TrimLeft(content, " \t\r\n\uFEFF")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagPattern.ReplaceAllString(content, "$1>")
}

func statementRow(tx ofxgo.Transaction, accountID, currency string) []model.Cell {
	amount, _ := tx.TrnAmt.Float64()
	flag := "H"
	if amount < 0 {
		flag = "S"
		amount = -amount
	}

	return []model.Cell{
		model.StringCell(tx.DtPosted.Format("2006-01-02")),
		model.NumberCell(amount),
		textCell(bookingText(tx)),
		textCell(accountID),
		textCell(payeeName(tx)),
		textCell(currency),
		model.StringCell(flag),
		textCell(string(tx.FiTID)),
		textCell(tx.TrnType.String()),
	}
}

func textCell(s string) model.Cell {
	if s == "" {
		return model.EmptyCell()
	}
	return model.StringCell(s)
}

func currencyCode(cur ofxgo.CurrSymbol) string {
	if cur == (ofxgo.CurrSymbol{}) {
		return ""
	}
	return cur.String()
}

// bookingText prefers NAME, falling back to MEMO when NAME only names the
// transaction kind.
func bookingText(tx ofxgo.Transaction) string {
	text := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && (text == "" || isGenericDescription(text)) {
		text = strings.TrimSpace(string(tx.Memo))
	}

	for _, prefix := range []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
		"LASTSCHRIFT ",
		"KARTENZAHLUNG ",
	} {
		if strings.HasPrefix(strings.ToUpper(text), prefix) {
			text = text[len(prefix):]
			break
		}
	}

	// "MM/DD " card date prefix
	if len(text) > 5 && text[2] == '/' && text[5] == ' ' {
		text = strings.TrimSpace(text[6:])
	}
	return text
}

func payeeName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}
	return ""
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE",
		"LASTSCHRIFT", "GUTSCHRIFT", "UEBERWEISUNG", "ÜBERWEISUNG":
		return true
	}
	return false
}
