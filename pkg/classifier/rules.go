package classifier

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/ledger"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/payable"
)

const (
	// DefaultPayableName is used when nothing is left of the text after
	// stripping keywords and amounts.
	DefaultPayableName = "Gasto Pendiente"
	// IncomeCategory is the category of every classified income.
	IncomeCategory     = "Salario"
	// ExpenseCategory is the category of every classified expense.
	ExpenseCategory    = "Otros"
)

// ReminderRule creates a todo when the text starts with one of Prefixes.
// Text made only of prefixes passes through.
type ReminderRule struct {
	Prefixes []string
}

func (ReminderRule) Kind() Kind { return KindReminder }

func (r ReminderRule) Apply(ctx context.Context, cmd *Command, do Actions) (string, bool, error) {
	starts := false
	for _, p := range r.Prefixes {
		if p != "" && strings.HasPrefix(cmd.Text, p) {
			starts = true
			break
		}
	}
	if !starts {
		return "", false, nil
	}

	task := cmd.Text
	for _, p := range r.Prefixes {
		if p != "" {
			task = strings.ReplaceAll(task, p, "")
		}
	}
	task = strings.TrimSpace(task)
	if task == "" {
		return "", false, nil
	}

	if _, err := do.AddTodo(ctx, task); err != nil {
		return "", false, err
	}
	return fmt.Sprintf("Tarea agregada: %q", task), true, nil
}

// PayableRule creates a bill due today when the text names a bill, or says
// it is pending and carries an amount.
type PayableRule struct {
	Bill    []string
	Pending []string
	Strip   []string
}

func (PayableRule) Kind() Kind { return KindPayable }

func (r PayableRule) Apply(ctx context.Context, cmd *Command, do Actions) (string, bool, error) {
	explicit := containsAny(cmd.Text, r.Bill)
	pending := containsAny(cmd.Text, r.Pending) && cmd.Amount.IsPositive()
	if !explicit && !pending {
		return "", false, nil
	}

	name := r.name(cmd.Text)
	bill, err := do.AddPayable(ctx, payable.Input{
		Name:    name,
		Amount:  cmd.Amount,
		DueDate: cmd.Now.Format(model.DateLayout),
		Notes:   fmt.Sprintf("Generado por voz: %q", cmd.Text),
	})
	if err != nil {
		return "", false, err
	}
	return fmt.Sprintf("Registrado como pendiente: %q $%s", bill.Name, bill.Amount.String()), true, nil
}

var numberWord = regexp.MustCompile(`^\d+(\.\d+)?$`)

// name drops the strip words and numbers from text.
func (r PayableRule) name(text string) string {
	strip := make(map[string]bool, len(r.Strip))
	for _, w := range r.Strip {
		strip[w] = true
	}

	var kept []string
	for _, word := range strings.Fields(text) {
		if strip[word] || numberWord.MatchString(word) {
			continue
		}
		kept = append(kept, word)
	}
	name := strings.Join(kept, " ")
	if utf8.RuneCountInString(name) < 2 {
		return DefaultPayableName
	}
	return capitalize(name)
}

// IncomeRule records an income on the detected account when the text has
// one of Keywords and an amount.
type IncomeRule struct {
	Keywords []string
}

func (IncomeRule) Kind() Kind { return KindIncome }

func (r IncomeRule) Apply(ctx context.Context, cmd *Command, do Actions) (string, bool, error) {
	if !cmd.Amount.IsPositive() || !containsAny(cmd.Text, r.Keywords) {
		return "", false, nil
	}

	account, err := cmd.Account(ctx, do)
	if err != nil {
		return "", false, err
	}
	if _, err := do.RecordTransaction(ctx, ledger.Entry{
		Direction:   model.Income,
		Amount:      cmd.Amount,
		Category:    IncomeCategory,
		Description: cmd.Text,
		AccountID:   accountID(account),
	}); err != nil {
		return "", false, err
	}
	return fmt.Sprintf("Ingreso de $%s registrado en %s.", cmd.Amount.String(), accountName(account)), true, nil
}

// ExpenseRule records an expense for any text carrying an amount. The
// category is the first one whose name, or one of whose subcategories,
// appears in the text.
type ExpenseRule struct{}

func (ExpenseRule) Kind() Kind { return KindExpense }

func (ExpenseRule) Apply(ctx context.Context, cmd *Command, do Actions) (string, bool, error) {
	if !cmd.Amount.IsPositive() {
		return "", false, nil
	}

	categories, err := do.ListCategories(ctx)
	if err != nil {
		return "", false, err
	}
	category := matchCategory(cmd.Text, categories)

	account, err := cmd.Account(ctx, do)
	if err != nil {
		return "", false, err
	}
	if _, err := do.RecordTransaction(ctx, ledger.Entry{
		Direction:   model.Expense,
		Amount:      cmd.Amount,
		Category:    category,
		Description: capitalize(cmd.Text),
		AccountID:   accountID(account),
	}); err != nil {
		return "", false, err
	}
	return fmt.Sprintf("Gasto de $%s (%s) registrado en %s.", cmd.Amount.String(), category, accountName(account)), true, nil
}

func matchCategory(text string, categories []model.Category) string {
	for _, c := range categories {
		if name := strings.ToLower(c.Name); name != "" && strings.Contains(text, name) {
			return c.Name
		}
		for _, sub := range c.Subcategories {
			if sub = strings.ToLower(sub); sub != "" && strings.Contains(text, sub) {
				return c.Name
			}
		}
	}
	return ExpenseCategory
}
