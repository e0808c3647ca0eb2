package finance

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/clientdesk/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StatementLine is one movement parsed out of a bank statement CSV.
// Amount keeps the statement sign: negative means money out.
type StatementLine struct {
	LineNumber  int
	Date        time.Time
	Amount      decimal.Decimal
	Identifier  string
	Description string
}

// Identity returns the dedup key for the line. The bank identifier
// wins when present; otherwise date+amount+description approximates it.
func (l StatementLine) Identity() string {
	if l.Identifier != "" {
		return l.Identifier
	}
	return fmt.Sprintf("%s|%s|%s", l.Date.Format("2006-01-02"), l.Amount.StringFixed(2), strings.ToLower(l.Description))
}

var (
	cpfPattern  = regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`)
	cnpjPattern = regexp.MustCompile(`\b\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2}\b`)
	digitsOnly  = regexp.MustCompile(`\D`)
)

// ExtractTaxID pulls the first CPF or CNPJ out of a statement
// description, returned as bare digits. CNPJ is probed first so its
// embedded 11-digit runs don't read as a CPF.
func ExtractTaxID(description string) string {
	if match := cnpjPattern.FindString(description); match != "" {
		return digitsOnly.ReplaceAllString(match, "")
	}
	if match := cpfPattern.FindString(description); match != "" {
		return digitsOnly.ReplaceAllString(match, "")
	}
	return ""
}

var payerNoise = map[string]struct{}{
	"pix":           {},
	"recebido":      {},
	"recebida":      {},
	"enviado":       {},
	"enviada":       {},
	"transferencia": {},
	"transferência": {},
	"ted":           {},
	"doc":           {},
	"de":            {},
	"para":          {},
	"pagamento":     {},
	"deposito":      {},
	"depósito":      {},
	"cp":            {},
	"-":             {},
}

// ExtractPayerName guesses the counterparty name from a description by
// stripping transfer boilerplate and document numbers
func ExtractPayerName(description string) string {
	cleaned := cnpjPattern.ReplaceAllString(description, "")
	cleaned = cpfPattern.ReplaceAllString(cleaned, "")

	words := make([]string, 0, 4)
	for _, word := range strings.Fields(cleaned) {
		if _, noise := payerNoise[strings.ToLower(word)]; noise {
			continue
		}
		if digitsOnly.ReplaceAllString(word, "") == "" {
			continue
		}
		words = append(words, word)
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

var statementDateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"02/01/06",
}

// ParseStatementDate accepts the Brazilian DD/MM/YYYY convention and
// ISO dates
func ParseStatementDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range statementDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, shared.NewDomainError("INVALID_DATE", fmt.Sprintf("unrecognized date %q", raw))
}

// ParseStatementAmount normalizes Brazilian monetary notation:
// "R$ 1.234,56" and "-250,00" as well as plain "600.00"
func ParseStatementAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "R$", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	if strings.Contains(cleaned, ",") {
		// Comma is the decimal separator; dots are thousands
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf("unrecognized amount %q", raw))
	}
	return amount, nil
}

// splitStatementFields splits a CSV line on commas, honoring double
// quotes so quoted descriptions keep their commas
func splitStatementFields(line string) []string {
	fields := make([]string, 0, 4)
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}

// headerWords marks a line as the statement header row
var headerWords = []string{"data", "date", "valor", "amount"}

func isHeaderLine(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	first := strings.ToLower(fields[0])
	for _, word := range headerWords {
		if first == word {
			return true
		}
	}
	return false
}

// ParseError describes a statement line that could not be parsed
type ParseError struct {
	LineNumber int    `json:"line"`
	Message    string `json:"message"`
}

// ParseStatement reads a bank statement CSV with the layout
// date,amount,identifier,description. A header row is skipped, blank
// lines are ignored and malformed lines are reported, not fatal.
func ParseStatement(r io.Reader) ([]StatementLine, []ParseError, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		lines     []StatementLine
		parseErrs []ParseError
		lineNo    int
	)

	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		fields := splitStatementFields(raw)
		if lineNo == 1 && isHeaderLine(fields) {
			continue
		}
		if len(fields) < 4 {
			parseErrs = append(parseErrs, ParseError{LineNumber: lineNo, Message: "expected 4 columns: date,amount,identifier,description"})
			continue
		}

		date, err := ParseStatementDate(fields[0])
		if err != nil {
			parseErrs = append(parseErrs, ParseError{LineNumber: lineNo, Message: err.Error()})
			continue
		}
		amount, err := ParseStatementAmount(fields[1])
		if err != nil {
			parseErrs = append(parseErrs, ParseError{LineNumber: lineNo, Message: err.Error()})
			continue
		}
		if amount.IsZero() {
			parseErrs = append(parseErrs, ParseError{LineNumber: lineNo, Message: "zero amount"})
			continue
		}

		description := strings.Join(fields[3:], ", ")
		if description == "" {
			parseErrs = append(parseErrs, ParseError{LineNumber: lineNo, Message: "empty description"})
			continue
		}

		lines = append(lines, StatementLine{
			LineNumber:  lineNo,
			Date:        date,
			Amount:      amount,
			Identifier:  fields[2],
			Description: description,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read statement: %w", err)
	}

	return lines, parseErrs, nil
}
