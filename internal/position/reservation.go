package position

// Reservations is the process-wide exclusivity set over trading symbols.
// A symbol is held by at most one agent: the one with an open position on
// it.
type Reservations struct {
	held map[string]string // symbol -> agent ID
}

// NewReservations creates an empty reservation set.
func NewReservations() *Reservations {
	return &Reservations{held: make(map[string]string)}
}

// Reserve claims a symbol for an agent. It fails when another agent
// already holds the symbol.
func (r *Reservations) Reserve(symbol, agentID string) bool {
	if holder, ok := r.held[symbol]; ok && holder != agentID {
		return false
	}
	r.held[symbol] = agentID
	return true
}

// Release frees a symbol held by the agent. Releasing a symbol held by
// someone else is a no-op.
func (r *Reservations) Release(symbol, agentID string) bool {
	if holder, ok := r.held[symbol]; !ok || holder != agentID {
		return false
	}
	delete(r.held, symbol)
	return true
}

// Holder returns the agent holding the symbol, if any.
func (r *Reservations) Holder(symbol string) (string, bool) {
	holder, ok := r.held[symbol]
	return holder, ok
}

// Reserved reports whether the symbol is held.
func (r *Reservations) Reserved(symbol string) bool {
	_, ok := r.held[symbol]
	return ok
}

// Len returns the number of held symbols.
func (r *Reservations) Len() int {
	return len(r.held)
}

// Clear drops all reservations. Used only by emergency reset.
func (r *Reservations) Clear() {
	r.held = make(map[string]string)
}
