package classifier

// Keywords are the word lists the rules match against. Matching is done on
// the lowercased input.
type Keywords struct {
	// Reminder prefixes that turn the input into a todo.
	Reminder []string `yaml:"reminder"`
	// Bill words that always make the input a payable.
	Bill []string `yaml:"bill"`
	// Pending words that make the input a payable when it carries an amount.
	Pending []string `yaml:"pending"`
	// Income words that make the input an income when it carries an amount.
	Income []string `yaml:"income"`
	// Strip words are removed from the input to derive a payable name.
	Strip []string `yaml:"strip"`
}

// DefaultKeywords returns the built-in Spanish word lists.
func DefaultKeywords() Keywords {
	return Keywords{
		Reminder: []string{"recordar", "tarea", "nota"},
		Bill:     []string{"factura", "recibo"},
		Pending:  []string{"pendiente"},
		Income: []string{
			"ingreso", "gané", "pagaron", "depositaron",
			"recibí", "depósito", "cobré", "cobranza",
			"venta", "vendí", "entraron", "me dieron",
		},
		Strip: []string{
			"factura", "recibo", "pendiente", "de", "pago", "pagar",
			"con", "luz", "agua", "internet",
		},
	}
}

// withDefaults fills empty lists from DefaultKeywords.
func (k Keywords) withDefaults() Keywords {
	d := DefaultKeywords()
	if len(k.Reminder) == 0 {
		k.Reminder = d.Reminder
	}
	if len(k.Bill) == 0 {
		k.Bill = d.Bill
	}
	if len(k.Pending) == 0 {
		k.Pending = d.Pending
	}
	if len(k.Income) == 0 {
		k.Income = d.Income
	}
	if len(k.Strip) == 0 {
		k.Strip = d.Strip
	}
	return k
}
