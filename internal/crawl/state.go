package crawl

import "fmt"

type Phase int

const (
	AWAITING_LANDING Phase = iota
	AWAITING_TABLE_PAGE
	DONE
)

func (p Phase) String() string {
	switch p {
	case AWAITING_LANDING:
		return "awaiting_landing"
	case AWAITING_TABLE_PAGE:
		return "awaiting_table_page"
	case DONE:
		return "done"
	}
	return "unknown"
}

// State is the position of the crawl in the plan. Exchange indexes the plan,
// Page is the 1-based table page and is only meaningful while awaiting a table page.
type State struct {
	Phase    Phase
	Exchange int
	Page     int
}

func Start() State {
	return State{Phase: AWAITING_LANDING}
}

func (s State) Done() bool {
	return s.Phase == DONE
}

func (s State) String() string {
	switch s.Phase {
	case AWAITING_LANDING:
		return fmt.Sprintf("%s(%d)", s.Phase, s.Exchange)
	case AWAITING_TABLE_PAGE:
		return fmt.Sprintf("%s(%d, %d)", s.Phase, s.Exchange, s.Page)
	}
	return s.Phase.String()
}

// ClosesExchange is true if this is the last page visited for the current exchange,
// after it is processed the exchange's record is emitted.
func (s State) ClosesExchange(plan []Exchange) bool {
	switch s.Phase {
	case AWAITING_LANDING:
		return plan[s.Exchange].Pages == 0
	case AWAITING_TABLE_PAGE:
		return s.Page >= plan[s.Exchange].Pages
	}
	return false
}

// NextExchange skips whatever is left of the current exchange.
func (s State) NextExchange(plan []Exchange) State {
	if s.Done() || s.Exchange+1 >= len(plan) {
		return State{Phase: DONE}
	}
	return State{Phase: AWAITING_LANDING, Exchange: s.Exchange + 1}
}

// Next is the state after the current page has been processed,
// transitions only ever move forward.
func (s State) Next(plan []Exchange) State {
	if s.Done() {
		return s
	}
	if s.ClosesExchange(plan) {
		return s.NextExchange(plan)
	}
	if s.Phase == AWAITING_LANDING {
		return State{Phase: AWAITING_TABLE_PAGE, Exchange: s.Exchange, Page: 1}
	}
	return State{Phase: AWAITING_TABLE_PAGE, Exchange: s.Exchange, Page: s.Page + 1}
}
