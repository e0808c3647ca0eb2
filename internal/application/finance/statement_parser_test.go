package finance

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatementAmount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "brazilian notation with thousands", raw: "1.234,56", want: "1234.56"},
		{name: "brazilian notation with currency", raw: "R$ 600,00", want: "600"},
		{name: "negative brazilian notation", raw: "-250,00", want: "-250"},
		{name: "plain decimal point", raw: "600.00", want: "600"},
		{name: "bare integer", raw: "75", want: "75"},
		{name: "garbage", raw: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatementAmount(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestParseStatementDate(t *testing.T) {
	t.Run("brazilian convention", func(t *testing.T) {
		got, err := ParseStatementDate("15/03/2026")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("iso", func(t *testing.T) {
		got, err := ParseStatementDate("2026-03-15")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("unrecognized", func(t *testing.T) {
		_, err := ParseStatementDate("March 15th")
		require.Error(t, err)
	})
}

func TestExtractTaxID(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{name: "formatted cpf", description: "PIX RECEBIDO DE Maria Silva 123.456.789-09", want: "12345678909"},
		{name: "bare cpf", description: "TED 12345678909 Maria", want: "12345678909"},
		{name: "formatted cnpj", description: "PIX Acme Ltda 12.345.678/0001-95", want: "12345678000195"},
		{name: "bare cnpj", description: "Pagamento 12345678000195", want: "12345678000195"},
		{name: "cnpj wins over cpf", description: "12.345.678/0001-95 ref 987.654.321-00", want: "12345678000195"},
		{name: "no document", description: "PIX RECEBIDO Maria Silva", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTaxID(tt.description))
		})
	}
}

func TestExtractPayerName(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{name: "pix boilerplate stripped", description: "PIX RECEBIDO DE Maria Silva 123.456.789-09", want: "Maria Silva"},
		{name: "ted boilerplate stripped", description: "TED Acme Consultoria 12.345.678/0001-95", want: "Acme Consultoria"},
		{name: "only boilerplate", description: "PIX RECEBIDO 12345678909", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPayerName(tt.description))
		})
	}
}

func TestParseStatement(t *testing.T) {
	t.Run("parses a statement with header and quoted fields", func(t *testing.T) {
		csv := strings.Join([]string{
			"Data,Valor,Identificador,Descrição",
			"02/03/2026,600.00,abc-1,PIX RECEBIDO Maria Silva 123.456.789-09",
			`03/03/2026,"-1.250,00",abc-2,"Pagamento AWS, conta mensal"`,
			"",
			"04/03/2026,75.00,,Deposito avulso",
		}, "\n")

		lines, parseErrs, err := ParseStatement(strings.NewReader(csv))
		require.NoError(t, err)
		assert.Empty(t, parseErrs)
		require.Len(t, lines, 3)

		assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), lines[0].Date)
		assert.True(t, lines[0].Amount.Equal(decimal.NewFromInt(600)))
		assert.Equal(t, "abc-1", lines[0].Identifier)

		assert.True(t, lines[1].Amount.Equal(decimal.NewFromInt(-1250)))
		assert.Equal(t, "Pagamento AWS, conta mensal", lines[1].Description)

		assert.Equal(t, "abc-2", lines[1].Identity())
		assert.Equal(t, "2026-03-04|75.00|deposito avulso", lines[2].Identity())
	})

	t.Run("collects malformed lines without aborting", func(t *testing.T) {
		csv := strings.Join([]string{
			"02/03/2026,600.00,abc-1,PIX Maria",
			"not-a-date,100.00,abc-2,whatever",
			"03/03/2026,zero?,abc-3,whatever",
			"04/03/2026,0,abc-4,zero amount line",
			"05/03/2026,50.00",
		}, "\n")

		lines, parseErrs, err := ParseStatement(strings.NewReader(csv))
		require.NoError(t, err)
		assert.Len(t, lines, 1)
		require.Len(t, parseErrs, 4)
		assert.Equal(t, 2, parseErrs[0].LineNumber)
		assert.Equal(t, 5, parseErrs[3].LineNumber)
	})

	t.Run("empty input yields nothing", func(t *testing.T) {
		lines, parseErrs, err := ParseStatement(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, lines)
		assert.Empty(t, parseErrs)
	})
}
