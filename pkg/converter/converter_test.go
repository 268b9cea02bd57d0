package converter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/beancount"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/ledger"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
)

func TestSanitizeAccountName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "efectivo", "Efectivo"},
		{"spaces", "banco azul", "BancoAzul"},
		{"accents kept", "tarjeta crédito", "TarjetaCrédito"},
		{"punctuation", "gastos-médicos / dental", "GastosMédicosDental"},
		{"digits", "cuenta 2", "Cuenta2"},
		{"empty", "", "Unknown"},
		{"only symbols", "$$$", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeAccountName(tt.input); got != tt.expected {
				t.Errorf("sanitizeAccountName(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMapperAssetAccount(t *testing.T) {
	m := NewMapperFromConfig(MappingConfig{
		Accounts: []AccountMapping{{Ledger: "Banco", Beancount: "Assets:Bank:BBVA"}},
	})

	tests := []struct {
		name     string
		account  *model.Account
		expected string
	}{
		{"mapped, case-insensitive", &model.Account{Name: "BANCO", Kind: model.AccountDebit}, "Assets:Bank:BBVA"},
		{"cash", &model.Account{Name: "Efectivo", Kind: model.AccountCash}, "Assets:Cash:Efectivo"},
		{"savings", &model.Account{Name: "ahorro", Kind: model.AccountSavings}, "Assets:Bank:Ahorro"},
		{"credit", &model.Account{Name: "Visa Oro", Kind: model.AccountCredit}, "Liabilities:CreditCard:VisaOro"},
		{"other", &model.Account{Name: "Vales", Kind: model.AccountOther}, "Assets:Other:Vales"},
		{"deleted account", nil, "Assets:Unmapped:Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.AssetAccount(tt.account); got != tt.expected {
				t.Errorf("AssetAccount() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestMapperCategoryAccount(t *testing.T) {
	m := NewMapperFromConfig(MappingConfig{
		Income:   []CategoryMapping{{Category: "Salario", Beancount: "Income:Salary"}},
		Expenses: []CategoryMapping{{Category: "Comida", Beancount: "Expenses:Food"}},
	})

	tests := []struct {
		name      string
		direction model.Direction
		category  string
		expected  string
		mapped    bool
	}{
		{"mapped income", model.Income, "salario", "Income:Salary", true},
		{"mapped expense", model.Expense, "Comida", "Expenses:Food", true},
		{"unmapped income", model.Income, "Venta garage", "Income:Unmapped:VentaGarage", false},
		{"unmapped expense", model.Expense, "Otros", "Expenses:Unmapped:Otros", false},
		{"direction matters", model.Income, "Comida", "Income:Unmapped:Comida", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.CategoryAccount(tt.direction, tt.category); got != tt.expected {
				t.Errorf("CategoryAccount(%s, %q) = %q, expected %q", tt.direction, tt.category, got, tt.expected)
			}
			if got := m.HasMapping(tt.direction, tt.category); got != tt.mapped {
				t.Errorf("HasMapping(%s, %q) = %v, expected %v", tt.direction, tt.category, got, tt.mapped)
			}
		})
	}

	if got := m.TransferAccount(); got != DefaultTransferAccount {
		t.Errorf("TransferAccount() = %q, expected %q", got, DefaultTransferAccount)
	}
}

func TestNewMapper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	content := `accounts:
  - ledger: Efectivo
    beancount: Assets:Cash:Wallet
expenses:
  - category: Transporte
    beancount: Expenses:Transport
transfer: Assets:Clearing
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewMapper(path)
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}
	if got := m.AssetAccount(&model.Account{Name: "efectivo"}); got != "Assets:Cash:Wallet" {
		t.Errorf("AssetAccount() = %q", got)
	}
	if got := m.CategoryAccount(model.Expense, "transporte"); got != "Expenses:Transport" {
		t.Errorf("CategoryAccount() = %q", got)
	}
	if got := m.TransferAccount(); got != "Assets:Clearing" {
		t.Errorf("TransferAccount() = %q", got)
	}

	if _, err := NewMapper(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("NewMapper() with a missing file succeeded")
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestConvertTransaction(t *testing.T) {
	c := NewConverter(NewMapperFromConfig(MappingConfig{}), "")
	cash := &model.Account{ID: "a1", Name: "Efectivo", Kind: model.AccountCash}
	date := time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		txn           model.Transaction
		expectCounter string
		expectAsset   string
		expectTags    []string
	}{
		{
			name:          "expense",
			txn:           model.Transaction{ID: "t1", Date: date, Direction: model.Expense, Amount: dec("500"), Category: "Comida", Description: "Super"},
			expectCounter: "500",
			expectAsset:   "-500",
			expectTags:    []string{"comida"},
		},
		{
			name:          "income",
			txn:           model.Transaction{ID: "t2", Date: date, Direction: model.Income, Amount: dec("1200.50"), Category: "Salario"},
			expectCounter: "-1200.50",
			expectAsset:   "1200.50",
			expectTags:    []string{"salario"},
		},
		{
			name:          "no category",
			txn:           model.Transaction{ID: "t3", Date: date, Direction: model.Expense, Amount: dec("1")},
			expectCounter: "1",
			expectAsset:   "-1",
			expectTags:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ConvertTransaction(tt.txn, cash)
			if got.Date != "2024-06-03" {
				t.Errorf("Date = %q, expected %q", got.Date, "2024-06-03")
			}
			if !got.Balanced() {
				t.Errorf("postings do not balance: %+v", got.Postings)
			}
			if len(got.Postings) != 2 {
				t.Fatalf("postings = %d, expected 2", len(got.Postings))
			}
			if !got.Postings[0].Amount.Equal(dec(tt.expectCounter)) || !got.Postings[1].Amount.Equal(dec(tt.expectAsset)) {
				t.Errorf("amounts = %s, %s, expected %s, %s",
					got.Postings[0].Amount, got.Postings[1].Amount, tt.expectCounter, tt.expectAsset)
			}
			if got.Postings[1].Account != "Assets:Cash:Efectivo" || got.Postings[1].Currency != "MXN" {
				t.Errorf("asset posting = %+v", got.Postings[1])
			}
			if got.Metadata["ledger_id"] != tt.txn.ID {
				t.Errorf("ledger_id = %q, expected %q", got.Metadata["ledger_id"], tt.txn.ID)
			}
			if len(got.Tags) != len(tt.expectTags) || (len(got.Tags) > 0 && got.Tags[0] != tt.expectTags[0]) {
				t.Errorf("Tags = %v, expected %v", got.Tags, tt.expectTags)
			}
		})
	}
}

func TestConvertTransfer(t *testing.T) {
	c := NewConverter(NewMapperFromConfig(MappingConfig{}), "USD")
	leg := model.Transaction{
		ID: "t1", Direction: model.Expense, Amount: dec("200"),
		Category: ledger.TransferCategory, Description: "Transferencia a Banco",
	}

	got := c.ConvertTransaction(leg, &model.Account{Name: "Efectivo", Kind: model.AccountCash})
	if got.Postings[0].Account != DefaultTransferAccount {
		t.Errorf("counter account = %q, expected %q", got.Postings[0].Account, DefaultTransferAccount)
	}
	if got.Postings[0].Currency != "USD" {
		t.Errorf("Currency = %q, expected USD", got.Postings[0].Currency)
	}
}

func TestNarration(t *testing.T) {
	tests := []struct {
		name     string
		txn      model.Transaction
		expected string
	}{
		{"description wins", model.Transaction{Description: "Taxi aeropuerto", Category: "Transporte"}, "Taxi aeropuerto"},
		{"income fallback", model.Transaction{Direction: model.Income, Category: "Salario"}, "Ingreso: Salario"},
		{"expense fallback", model.Transaction{Direction: model.Expense, Category: "Otros"}, "Gasto: Otros"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildNarration(tt.txn); got != tt.expected {
				t.Errorf("buildNarration() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestFormatTransaction(t *testing.T) {
	c := NewConverter(NewMapperFromConfig(MappingConfig{}), "MXN")
	entry := beancount.Transaction{
		Date:      "2024-06-03",
		Narration: "Super",
		Tags:      []string{"comida"},
		Metadata:  map[string]string{"ledger_id": "t1", "evidence": "ticket.jpg"},
		Postings: []beancount.Posting{
			{Account: "Expenses:Food", Amount: dec("500"), Currency: "MXN", Comment: "Super"},
			{Account: "Assets:Cash:Efectivo", Amount: dec("-500"), Currency: "MXN"},
		},
	}

	expected := strings.Join([]string{
		`2024-06-03 * "Super" #comida`,
		`  evidence: "ticket.jpg"`,
		`  ledger_id: "t1"`,
		"  Expenses:Food" + strings.Repeat(" ", 60-len("Expenses:Food")) + "500.00 MXN ; Super",
		"  Assets:Cash:Efectivo" + strings.Repeat(" ", 60-len("Assets:Cash:Efectivo")) + "-500.00 MXN",
		"",
	}, "\n")

	if got := c.FormatTransaction(entry); got != expected {
		t.Errorf("FormatTransaction() =\n%s\nexpected\n%s", got, expected)
	}
}

func TestFormatTransactionLongAccount(t *testing.T) {
	c := NewConverter(NewMapperFromConfig(MappingConfig{}), "MXN")
	long := "Expenses:" + strings.Repeat("X", 70)
	out := c.FormatTransaction(beancount.Transaction{
		Date:      "2024-06-03",
		Narration: "n",
		Payee:     "Oxxo",
		Links:     []string{"abc"},
		Postings:  []beancount.Posting{{Account: long, Amount: dec("1"), Currency: "MXN"}},
	})

	if !strings.Contains(out, long+" 1.00 MXN") {
		t.Errorf("long account not separated by one space:\n%s", out)
	}
	if !strings.HasPrefix(out, `2024-06-03 * "Oxxo" "n" ^abc`) {
		t.Errorf("header = %q", strings.SplitN(out, "\n", 2)[0])
	}
}
