package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/catalog"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/classifier"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
)

// Seed is the initial content of an empty ledger and the classifier's word
// lists.
type Seed struct {
	Accounts   []SeedAccount           `yaml:"accounts"`
	Categories []catalog.CategoryInput `yaml:"categories"`
	Keywords   classifier.Keywords     `yaml:"keywords"`
}

// SeedAccount is an account created on first run.
type SeedAccount struct {
	Name    string            `yaml:"name"`
	Kind    model.AccountKind `yaml:"kind"`
	Balance decimal.Decimal   `yaml:"balance"`
	Color   string            `yaml:"color"`
}

// LoadSeed reads a YAML seed file. Sections missing from the file are taken
// from DefaultSeed.
func LoadSeed(path string) (*Seed, error) {
	if path == "" {
		return DefaultSeed(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	def := DefaultSeed()
	if seed.Accounts == nil {
		seed.Accounts = def.Accounts
	}
	if seed.Categories == nil {
		seed.Categories = def.Categories
	}
	for i, a := range seed.Accounts {
		if a.Name == "" {
			return nil, fmt.Errorf("seed account %d: name is required", i)
		}
	}
	return &seed, nil
}

// DefaultSeed returns the built-in seed: a cash account holding 500 and a
// bank account holding 12000, the nine default categories and the default
// keywords.
func DefaultSeed() *Seed {
	return &Seed{
		Accounts: []SeedAccount{
			{Name: "Efectivo", Kind: model.AccountCash, Balance: decimal.NewFromInt(500), Color: "#10b981"},
			{Name: "Banco", Kind: model.AccountDebit, Balance: decimal.NewFromInt(12000), Color: "#3b82f6"},
		},
		Categories: []catalog.CategoryInput{
			{Name: "Supermercado", Icon: "shopping-cart", Color: "#10b981", Subcategories: []string{}},
			{Name: "Transporte", Icon: "car", Color: "#3b82f6", Subcategories: []string{"Gasolina", "Mantenimiento", "Uber"}},
			{Name: "Servicios", Icon: "zap", Color: "#f59e0b", Subcategories: []string{"Luz", "Agua", "Internet"}},
			{Name: "Entretenimiento", Icon: "film", Color: "#8b5cf6", Subcategories: []string{"Cine", "Streaming"}},
			{Name: "Salud", Icon: "heart", Color: "#ef4444", Subcategories: []string{"Farmacia", "Consultas"}},
			{Name: "Educación", Icon: "book", Color: "#6366f1", Subcategories: []string{}},
			{Name: "Ropa", Icon: "shirt", Color: "#ec4899", Subcategories: []string{"Zapatos", "Accesorios"}},
			{Name: "Hogar", Icon: "home", Color: "#f97316", Subcategories: []string{"Muebles", "Limpieza"}},
			{Name: "Otros", Icon: "box", Color: "#6b7280", Subcategories: []string{}},
		},
		Keywords: classifier.DefaultKeywords(),
	}
}
