// Package classifier turns free-text commands into exactly one ledger action.
//
// Rules are evaluated in a fixed order and the first one that matches wins:
//
//	reminder -> payable -> income -> expense -> unknown
//
// The order is data (Classifier.Rules) so it can be inspected and tested.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/ledger"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/payable"
)

// Kind is the action a command was classified as.
type Kind string

const (
	KindReminder Kind = "reminder"
	KindPayable  Kind = "payable"
	KindIncome   Kind = "income"
	KindExpense  Kind = "expense"
	KindUnknown  Kind = "unknown"
)

// Status of a classification.
type Status string

const (
	StatusSuccess Status = "success"
	StatusUnknown Status = "unknown"
	StatusFailed  Status = "failed"
)

// UnknownHint is the message returned when no rule matched.
const UnknownHint = `No entendí. Prueba: "Super 500 con efectivo" o "Mecánico 2000 pendiente".`

// Result is the outcome of Classify. A failed result carries the error of
// the action that was attempted.
type Result struct {
	Kind    Kind   `json:"kind"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Actions are the ledger operations the rules read from and invoke.
type Actions interface {
	ListAccounts(ctx context.Context) ([]model.Account, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	AddTodo(ctx context.Context, title string) (*model.Todo, error)
	AddPayable(ctx context.Context, in payable.Input) (*model.Payable, error)
	RecordTransaction(ctx context.Context, e ledger.Entry) (*model.Transaction, error)
}

// Rule is one step of the classification chain. Apply reports matched=false
// to pass the command on to the next rule.
type Rule interface {
	Kind() Kind
	Apply(ctx context.Context, cmd *Command, do Actions) (message string, matched bool, err error)
}

var amountPattern = regexp.MustCompile(`\d+(\.\d+)?`)

// Command is the parsed input shared by the rules.
type Command struct {
	// Text is the lowercased, trimmed input.
	Text string
	// Amount is the first number in Text, or zero.
	Amount decimal.Decimal
	// Now is the time the command was received.
	Now time.Time

	account  *model.Account
	resolved bool
}

// Parse lowercases text and extracts its amount.
func Parse(text string, now time.Time) *Command {
	cmd := &Command{
		Text:   strings.ToLower(strings.TrimSpace(text)),
		Amount: decimal.Zero,
		Now:    now,
	}
	if m := amountPattern.FindString(cmd.Text); m != "" {
		if amount, err := decimal.NewFromString(m); err == nil {
			cmd.Amount = amount
		}
	}
	return cmd
}

// Account returns the first account whose name appears in the text, or the
// first account when none does. It is nil when no account exists.
func (c *Command) Account(ctx context.Context, do Actions) (*model.Account, error) {
	if c.resolved {
		return c.account, nil
	}
	accounts, err := do.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		name := strings.ToLower(accounts[i].Name)
		if name != "" && strings.Contains(c.Text, name) {
			c.account = &accounts[i]
			break
		}
	}
	if c.account == nil && len(accounts) > 0 {
		c.account = &accounts[0]
	}
	c.resolved = true
	return c.account, nil
}

// Classifier runs commands through its rules.
type Classifier struct {
	Rules  []Rule
	do     Actions
	logger *slog.Logger

	// Clock returns the current time. Tests replace it.
	Clock func() time.Time
}

// New creates a Classifier with the default rule chain built from kw.
func New(do Actions, kw Keywords, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		Rules:  DefaultRules(kw),
		do:     do,
		logger: logger,
		Clock:  time.Now,
	}
}

// Classify runs text through the rules and reports what was done. It never
// returns an error: failures of the invoked action come back as a failed
// Result.
func (c *Classifier) Classify(ctx context.Context, text string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Kind:    KindUnknown,
				Status:  StatusFailed,
				Message: fmt.Sprintf("internal error: %v", r),
				Err:     fmt.Errorf("classifier panic: %v", r),
			}
		}
	}()

	cmd := Parse(text, c.Clock())
	for _, rule := range c.Rules {
		msg, matched, err := rule.Apply(ctx, cmd, c.do)
		if err != nil {
			c.logger.Debug("command rejected", "kind", rule.Kind(), "error", err)
			return Result{Kind: rule.Kind(), Status: StatusFailed, Message: failureMessage(err), Err: err}
		}
		if matched {
			c.logger.Info("command classified", "kind", rule.Kind(), "amount", cmd.Amount.String())
			return Result{Kind: rule.Kind(), Status: StatusSuccess, Message: msg}
		}
	}
	return Result{Kind: KindUnknown, Status: StatusUnknown, Message: UnknownHint}
}

func failureMessage(err error) string {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return err.Error()
}

// DefaultRules returns the rule chain in precedence order.
func DefaultRules(kw Keywords) []Rule {
	kw = kw.withDefaults()
	return []Rule{
		ReminderRule{Prefixes: kw.Reminder},
		PayableRule{Bill: kw.Bill, Pending: kw.Pending, Strip: kw.Strip},
		IncomeRule{Keywords: kw.Income},
		ExpenseRule{},
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	for i, r := range s {
		return strings.ToUpper(string(r)) + s[i+len(string(r)):]
	}
	return s
}

func accountName(a *model.Account) string {
	if a == nil {
		return "sin cuenta"
	}
	return a.Name
}

func accountID(a *model.Account) string {
	if a == nil {
		return ""
	}
	return a.ID
}
