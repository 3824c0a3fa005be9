package game

// Player is one connection's identity inside a session. The ID is the
// connection id and is stable for the connection's lifetime.
type Player struct {
	ID   string
	Name string
}

// RollRecord is one entry of a session's history; immutable once appended.
type RollRecord struct {
	PlayerName  string
	DiceResults []int
	Total       int
}

// Session is one isolated game ("room"). Players is the turn order;
// Chicken points at the current penalty-role holder, nil when vacant.
type Session struct {
	ID          string
	Players     []Player
	CurrentTurn int
	History     []RollRecord
	Chicken     *Player
}

// Current returns the player whose turn it is. Sessions with zero players
// are destroyed by the store, so Players is never empty here.
func (s *Session) Current() Player {
	return s.Players[s.CurrentTurn]
}

// Advance rotates the turn to the next player and returns them. Holding
// the turn is simply not calling Advance.
func (s *Session) Advance() Player {
	s.CurrentTurn = (s.CurrentTurn + 1) % len(s.Players)
	return s.Players[s.CurrentTurn]
}

// Previous returns the player before the current one in turn order.
func (s *Session) Previous() Player {
	n := len(s.Players)
	return s.Players[(s.CurrentTurn-1+n)%n]
}

// Next returns the player after the current one in turn order, without
// moving the turn.
func (s *Session) Next() Player {
	return s.Players[(s.CurrentTurn+1)%len(s.Players)]
}

// Record appends one roll to the history.
func (s *Session) Record(rec RollRecord) {
	s.History = append(s.History, rec)
}
