// Package converter provides conversion from ledger transactions to
// Beancount format.
package converter

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
)

// CategoryMapping maps a ledger category name to a Beancount account.
type CategoryMapping struct {
	Category  string `yaml:"category"`
	Beancount string `yaml:"beancount"`
}

// AccountMapping maps a ledger account name to a Beancount account.
type AccountMapping struct {
	Ledger    string `yaml:"ledger"`
	Beancount string `yaml:"beancount"`
}

// MappingConfig represents the complete account mapping configuration.
type MappingConfig struct {
	Accounts []AccountMapping  `yaml:"accounts"`
	Income   []CategoryMapping `yaml:"income"`
	Expenses []CategoryMapping `yaml:"expenses"`
	// Transfer is the clearing account both legs of a transfer post to.
	Transfer string `yaml:"transfer"`
}

// DefaultTransferAccount is used when the mapping names none.
const DefaultTransferAccount = "Assets:Transfers"

// Mapper maps ledger accounts and categories to Beancount account names.
// Lookups are case-insensitive.
type Mapper struct {
	accounts map[string]string
	income   map[string]string
	expenses map[string]string
	transfer string
}

// NewMapper creates a new Mapper from a YAML configuration file.
func NewMapper(configPath string) (*Mapper, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MappingConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return NewMapperFromConfig(config), nil
}

// NewMapperFromConfig creates a Mapper from an in-memory configuration. The
// zero config maps everything by convention.
func NewMapperFromConfig(config MappingConfig) *Mapper {
	m := &Mapper{
		accounts: make(map[string]string),
		income:   make(map[string]string),
		expenses: make(map[string]string),
		transfer: config.Transfer,
	}
	if m.transfer == "" {
		m.transfer = DefaultTransferAccount
	}

	for _, mapping := range config.Accounts {
		m.accounts[strings.ToLower(mapping.Ledger)] = mapping.Beancount
	}
	for _, mapping := range config.Income {
		m.income[strings.ToLower(mapping.Category)] = mapping.Beancount
	}
	for _, mapping := range config.Expenses {
		m.expenses[strings.ToLower(mapping.Category)] = mapping.Beancount
	}

	return m
}

// AssetAccount returns the Beancount account holding a ledger account.
// Unmapped accounts are named after their kind.
func (m *Mapper) AssetAccount(a *model.Account) string {
	if a == nil {
		return "Assets:Unmapped:Unknown"
	}
	if account := m.accounts[strings.ToLower(a.Name)]; account != "" {
		return account
	}

	var root string
	switch a.Kind {
	case model.AccountCash:
		root = "Assets:Cash"
	case model.AccountDebit, model.AccountSavings:
		root = "Assets:Bank"
	case model.AccountCredit:
		root = "Liabilities:CreditCard"
	default:
		root = "Assets:Other"
	}
	return root + ":" + sanitizeAccountName(a.Name)
}

// CategoryAccount returns the income or expense account for a category.
func (m *Mapper) CategoryAccount(dir model.Direction, category string) string {
	key := strings.ToLower(category)
	if dir == model.Income {
		if account := m.income[key]; account != "" {
			return account
		}
		return "Income:Unmapped:" + sanitizeAccountName(category)
	}
	if account := m.expenses[key]; account != "" {
		return account
	}
	return "Expenses:Unmapped:" + sanitizeAccountName(category)
}

// TransferAccount returns the clearing account for transfers.
func (m *Mapper) TransferAccount() string {
	return m.transfer
}

// HasMapping checks if a category is mapped for the given direction.
func (m *Mapper) HasMapping(dir model.Direction, category string) bool {
	key := strings.ToLower(category)
	if dir == model.Income {
		_, ok := m.income[key]
		return ok
	}
	_, ok := m.expenses[key]
	return ok
}

// sanitizeAccountName turns a free-text name into one Beancount account
// component: letters and digits only, starting with an uppercase letter.
func sanitizeAccountName(name string) string {
	var sb strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	if sb.Len() == 0 {
		return "Unknown"
	}
	return sb.String()
}
