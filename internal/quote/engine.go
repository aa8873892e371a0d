package quote

// DefaultHistoryLimit bounds the number of snapshots kept for undo.
const DefaultHistoryLimit = 50

// Engine owns one working quotation. It is not safe for concurrent use.
type Engine struct {
	items         []LineItem
	taxRate       float64
	discountMode  DiscountMode
	discountValue float64
	deposit       float64
	totals        Totals

	history []Snapshot
	cursor  int
	limit   int
}

// Option configures a new Engine.
type Option func(*Engine)

// WithHistoryLimit sets the maximum number of snapshots kept. Values below 1
// fall back to DefaultHistoryLimit.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.limit = n
		}
	}
}

// WithDefaults sets the starting tax rate, fixed discount and deposit.
func WithDefaults(taxRatePercent, discountValue, deposit float64) Option {
	return func(e *Engine) {
		e.taxRate = finite(taxRatePercent)
		e.discountValue = finite(discountValue)
		e.deposit = finite(deposit)
	}
}

// New returns an empty engine whose history holds only its initial state.
func New(opts ...Option) *Engine {
	e := &Engine{discountMode: DiscountFixed, limit: DefaultHistoryLimit}
	for _, opt := range opts {
		opt(e)
	}
	e.Recompute()
	e.history = []Snapshot{e.capture()}
	e.cursor = 0
	return e
}

// FromSnapshot returns an engine whose only history entry is s with totals
// recomputed. Used when a stored quotation becomes the working one.
func FromSnapshot(s Snapshot, opts ...Option) *Engine {
	e := New(opts...)
	e.ImportSnapshot(s)
	e.history = []Snapshot{e.capture()}
	e.cursor = 0
	return e
}

// Resume rebuilds an engine from a persisted session. An empty or
// inconsistent session yields a fresh engine.
func Resume(s Session, opts ...Option) *Engine {
	e := New(opts...)
	if len(s.History) == 0 || s.Cursor < 0 || s.Cursor >= len(s.History) {
		return e
	}
	history := s.History
	cursor := s.Cursor
	if over := len(history) - e.limit; over > 0 {
		drop := min(over, cursor)
		history = history[drop:]
		cursor -= drop
		if len(history) > e.limit {
			history = history[:e.limit]
		}
	}
	e.history = make([]Snapshot, len(history))
	for i, snap := range history {
		e.history[i] = snap.clone()
	}
	e.cursor = cursor
	e.restore(e.history[cursor])
	return e
}

// Session returns a copy of the history for persistence.
func (e *Engine) Session() Session {
	h := make([]Snapshot, len(e.history))
	for i, snap := range e.history {
		h[i] = snap.clone()
	}
	return Session{History: h, Cursor: e.cursor}
}

// SetItems replaces the whole item list.
func (e *Engine) SetItems(items []LineItem) Totals {
	next := make([]LineItem, len(items))
	for i, li := range items {
		next[i] = sanitizeItem(li)
	}
	e.items = next
	return e.commit()
}

// AddItem appends an item.
func (e *Engine) AddItem(item LineItem) Totals {
	e.items = append(cloneItems(e.items), sanitizeItem(item))
	return e.commit()
}

// RemoveItem removes the item at index. An out-of-range index leaves the
// state and history untouched.
func (e *Engine) RemoveItem(index int) Totals {
	if index < 0 || index >= len(e.items) {
		return e.totals
	}
	next := make([]LineItem, 0, len(e.items)-1)
	next = append(next, e.items[:index]...)
	next = append(next, e.items[index+1:]...)
	e.items = next
	return e.commit()
}

// SetConfiguration applies a partial update of tax rate, discount and
// deposit. An input with no fields set is not recorded.
func (e *Engine) SetConfiguration(in ConfigInput) Totals {
	if in.empty() {
		return e.totals
	}
	if in.TaxRatePercent != nil {
		e.taxRate = toNumber(in.TaxRatePercent)
	}
	if in.DiscountMode != nil {
		switch m := in.DiscountMode.(type) {
		case DiscountMode:
			e.discountMode = ParseDiscountMode(string(m))
		case string:
			e.discountMode = ParseDiscountMode(m)
		default:
			e.discountMode = DiscountFixed
		}
	}
	if in.DiscountValue != nil {
		e.discountValue = toNumber(in.DiscountValue)
	}
	if in.Deposit != nil {
		e.deposit = toNumber(in.Deposit)
	}
	return e.commit()
}

// Recompute derives totals from the current items and configuration.
// Nothing is clamped: a discount above the subtotal yields negative values.
func (e *Engine) Recompute() Totals {
	var t Totals
	for _, li := range e.items {
		t.Subtotal += li.Amount()
	}
	if e.discountMode == DiscountPercentage {
		t.Discount = t.Subtotal * e.discountValue / 100
	} else {
		t.Discount = e.discountValue
	}
	t.TaxableBase = t.Subtotal - t.Discount
	t.TaxAmount = t.TaxableBase * e.taxRate / 100
	t.Total = t.TaxableBase + t.TaxAmount
	t.Deposit = e.deposit
	t.AmountDue = t.Total - t.Deposit
	e.totals = t
	return t
}

// Totals returns the last computed totals.
func (e *Engine) Totals() Totals { return e.totals }

// Items returns a copy of the item list.
func (e *Engine) Items() []LineItem { return cloneItems(e.items) }

// TaxRatePercent returns the current tax rate.
func (e *Engine) TaxRatePercent() float64 { return e.taxRate }

// Discount returns the discount mode and its raw value.
func (e *Engine) Discount() (DiscountMode, float64) { return e.discountMode, e.discountValue }

// Deposit returns the deposit already received.
func (e *Engine) Deposit() float64 { return e.deposit }

// ExportSnapshot returns a deep copy of the current state.
func (e *Engine) ExportSnapshot() Snapshot {
	return e.capture()
}

// ImportSnapshot replaces the state with s and recomputes totals.
// The previous state stays reachable through Undo.
func (e *Engine) ImportSnapshot(s Snapshot) Totals {
	items := make([]LineItem, len(s.Items))
	for i, li := range s.Items {
		items[i] = sanitizeItem(li)
	}
	e.items = items
	e.taxRate = finite(s.TaxRatePercent)
	e.discountMode = ParseDiscountMode(string(s.DiscountMode))
	e.discountValue = finite(s.DiscountValue)
	e.deposit = finite(s.Deposit)
	return e.commit()
}

func (e *Engine) capture() Snapshot {
	return Snapshot{
		Items:          cloneItems(e.items),
		TaxRatePercent: e.taxRate,
		DiscountMode:   e.discountMode,
		DiscountValue:  e.discountValue,
		Deposit:        e.deposit,
		Totals:         e.totals,
	}
}

func (e *Engine) restore(s Snapshot) {
	e.items = cloneItems(s.Items)
	e.taxRate = s.TaxRatePercent
	e.discountMode = s.DiscountMode
	e.discountValue = s.DiscountValue
	e.deposit = s.Deposit
	e.totals = s.Totals
}

// commit recomputes and records the new state.
func (e *Engine) commit() Totals {
	t := e.Recompute()
	e.record()
	return t
}
