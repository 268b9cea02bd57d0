package converter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pigeonworks-llc/obligation-ledger/pkg/beancount"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/ledger"
	"github.com/pigeonworks-llc/obligation-ledger/pkg/model"
)

// Converter converts ledger transactions to Beancount format.
type Converter struct {
	mapper   *Mapper
	currency string
}

// NewConverter creates a new Converter.
func NewConverter(mapper *Mapper, currency string) *Converter {
	if currency == "" {
		currency = "MXN"
	}
	return &Converter{
		mapper:   mapper,
		currency: currency,
	}
}

// ConvertTransaction converts a ledger transaction to a balanced Beancount
// transaction. account may be nil when the ledger account was deleted.
//
// An expense debits the category account and credits the asset; an income
// does the opposite. Transfer legs post against the clearing account.
func (c *Converter) ConvertTransaction(txn model.Transaction, account *model.Account) beancount.Transaction {
	asset := c.mapper.AssetAccount(account)

	var counter string
	if txn.Category == ledger.TransferCategory {
		counter = c.mapper.TransferAccount()
	} else {
		counter = c.mapper.CategoryAccount(txn.Direction, txn.Category)
	}

	// Signed() is positive for income, i.e. money entering the asset.
	amount := txn.Signed()
	postings := []beancount.Posting{
		{Account: counter, Amount: amount.Neg(), Currency: c.currency, Comment: txn.Subcategory},
		{Account: asset, Amount: amount, Currency: c.currency},
	}

	metadata := map[string]string{beancount.IDKey: txn.ID}
	if txn.Evidence != "" {
		metadata["evidence"] = txn.Evidence
	}

	return beancount.Transaction{
		Date:      txn.Date.Format(model.DateLayout),
		Narration: buildNarration(txn),
		Tags:      buildTags(txn.Category),
		Metadata:  metadata,
		Postings:  postings,
	}
}

// FormatTransaction formats a Beancount transaction as a string.
func (c *Converter) FormatTransaction(txn beancount.Transaction) string {
	var sb strings.Builder

	// Transaction header
	sb.WriteString(txn.Date)
	sb.WriteString(" *")
	if txn.Payee != "" {
		sb.WriteString(fmt.Sprintf(" %q", txn.Payee))
	}
	sb.WriteString(fmt.Sprintf(" %q", txn.Narration))
	for _, tag := range txn.Tags {
		sb.WriteString(" #" + tag)
	}
	for _, link := range txn.Links {
		sb.WriteString(" ^" + link)
	}
	sb.WriteString("\n")

	keys := make([]string, 0, len(txn.Metadata))
	for k := range txn.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %s: %q\n", k, txn.Metadata[k]))
	}

	// Postings
	for _, posting := range txn.Postings {
		sb.WriteString("  ")
		sb.WriteString(posting.Account)

		// Right-align amount (typical Beancount style)
		spaces := max(1, 60-len(posting.Account))
		sb.WriteString(strings.Repeat(" ", spaces))
		sb.WriteString(fmt.Sprintf("%s %s", posting.Amount.StringFixed(2), posting.Currency))

		if posting.Comment != "" {
			sb.WriteString(fmt.Sprintf(" ; %s", posting.Comment))
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

func buildNarration(txn model.Transaction) string {
	if txn.Description != "" {
		return txn.Description
	}
	if txn.Direction == model.Income {
		return "Ingreso: " + txn.Category
	}
	return "Gasto: " + txn.Category
}

func buildTags(category string) []string {
	tag := strings.ToLower(sanitizeAccountName(category))
	if category == "" || tag == "unknown" {
		return nil
	}
	return []string{tag}
}
