package game

import (
	"errors"
	"slices"
)

var ErrAlreadyExists = errors.New("session already exists")
var ErrNotFound = errors.New("session not found")

// Store owns every live session, keyed by room name. It is not safe for
// concurrent use; the hub loop is its only caller.
type Store struct {
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create makes a new session with creator as its only player.
func (st *Store) Create(name string, creator Player) (*Session, error) {
	if _, ok := st.sessions[name]; ok {
		return nil, ErrAlreadyExists
	}
	s := &Session{ID: name, Players: []Player{creator}}
	st.sessions[name] = s
	return s, nil
}

func (st *Store) Get(name string) (*Session, error) {
	s, ok := st.sessions[name]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Join appends p to the end of the turn order, so new players play last
// in the cycle until it wraps.
func (st *Store) Join(name string, p Player) (*Session, error) {
	s, ok := st.sessions[name]
	if !ok {
		return nil, ErrNotFound
	}
	s.Players = append(s.Players, p)
	return s, nil
}

// RemovePlayer removes the connection's player from every session holding
// it. Emptied sessions are destroyed. Survivors get the turn index
// clamped back into range and the chicken role cleared if the leaver held
// it. Returns the sessions that survived, for follow-up broadcasts.
func (st *Store) RemovePlayer(connID string) []*Session {
	var touched []*Session
	for name, s := range st.sessions {
		idx := slices.IndexFunc(s.Players, func(p Player) bool { return p.ID == connID })
		if idx < 0 {
			continue
		}
		s.Players = slices.Delete(s.Players, idx, idx+1)
		if len(s.Players) == 0 {
			delete(st.sessions, name)
			continue
		}
		if s.CurrentTurn >= len(s.Players) {
			s.CurrentTurn = 0
		}
		if s.Chicken != nil && s.Chicken.ID == connID {
			s.Chicken = nil
		}
		touched = append(touched, s)
	}
	return touched
}

// Len reports how many sessions are live.
func (st *Store) Len() int {
	return len(st.sessions)
}
