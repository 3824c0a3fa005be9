package hub

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/biskitgame/biskit-backend/internal/dice"
	"github.com/biskitgame/biskit-backend/internal/game"
	"github.com/biskitgame/biskit-backend/internal/rules"
	"github.com/biskitgame/biskit-backend/pkg/types"
)

// Roller is the dice source; satisfied by *dice.Roller.
type Roller interface {
	Roll(count int) []int
}

type Msg interface{ isHubMsg() }

// Connect registers a connection and the outbox its events go to.
type Connect struct {
	ConnID string
	Outbox chan types.ServerMessage
}

type Disconnect struct{ ConnID string }

type CreateRoom struct {
	ConnID     string
	RoomName   string
	PlayerName string
}

type JoinRoom struct {
	ConnID     string
	RoomName   string
	PlayerName string
}

type RollDice struct {
	ConnID  string
	Room    string
	NumDice int
}

// GetView reflects one session's state without data races; used by tests
// and the room snapshot endpoint.
type GetView struct {
	Room  string
	Reply chan View
}

type Shutdown struct{}

// deliver re-enters the loop for broadcasts scheduled with emitAfter.
type deliver struct {
	Room string
	Msg  types.ServerMessage
}

func (Connect) isHubMsg()    {}
func (Disconnect) isHubMsg() {}
func (CreateRoom) isHubMsg() {}
func (JoinRoom) isHubMsg()   {}
func (RollDice) isHubMsg()   {}
func (GetView) isHubMsg()    {}
func (Shutdown) isHubMsg()   {}
func (deliver) isHubMsg()    {}

type View struct {
	Exists      bool
	Players     []game.Player
	CurrentTurn int
	History     []game.RollRecord
	Chicken     *game.Player
}

type client struct {
	outbox chan types.ServerMessage
	room   string
}

// Hub is the session orchestrator: one goroutine owning the store, the
// rule pipeline and every client outbox. All game state mutates on the
// loop goroutine, which is the only mutual exclusion in the process.
type Hub struct {
	inbox    chan Msg
	store    *game.Store
	pipeline *rules.Pipeline
	roller   Roller
	clients  map[string]*client
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, store *game.Store, pipeline *rules.Pipeline, roller Roller, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan Msg, 64),
		store:    store,
		pipeline: pipeline,
		roller:   roller,
		clients:  make(map[string]*client),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Connect:
				h.clients[msg.ConnID] = &client{outbox: msg.Outbox}

			case Disconnect:
				h.disconnect(msg.ConnID)

			case CreateRoom:
				h.createRoom(msg)

			case JoinRoom:
				h.joinRoom(msg)

			case RollDice:
				h.rollDice(msg)

			case deliver:
				h.emit(msg.Room, msg.Msg)

			case GetView:
				msg.Reply <- h.view(msg.Room)

			case Shutdown:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) createRoom(msg CreateRoom) {
	c := h.clients[msg.ConnID]
	if c == nil {
		return
	}
	s, err := h.store.Create(msg.RoomName, game.Player{ID: msg.ConnID, Name: msg.PlayerName})
	if err != nil {
		// Name collision: dropped per the ignore policy.
		h.log.Debug("create ignored", zap.String("room", msg.RoomName), zap.Error(err))
		return
	}
	c.room = s.ID
	h.emitTo(msg.ConnID, types.ServerMessage{Type: types.EvtRoomCreated, Room: s.ID})
	h.emit(s.ID, types.ServerMessage{Type: types.EvtPlayerJoined, Players: playerInfos(s.Players)})
	h.log.Info("room created", zap.String("room", s.ID), zap.String("player", msg.PlayerName))
}

func (h *Hub) joinRoom(msg JoinRoom) {
	c := h.clients[msg.ConnID]
	if c == nil {
		return
	}
	s, err := h.store.Join(msg.RoomName, game.Player{ID: msg.ConnID, Name: msg.PlayerName})
	if err != nil {
		h.log.Debug("join ignored", zap.String("room", msg.RoomName), zap.Error(err))
		return
	}
	c.room = s.ID
	h.emit(s.ID, types.ServerMessage{Type: types.EvtPlayerJoined, Players: playerInfos(s.Players)})

	if len(s.Players) < 2 {
		return
	}
	// The game starts on the 1->2 transition only; later joins never
	// re-announce it.
	if len(s.Players) == 2 {
		h.emit(s.ID, types.ServerMessage{Type: types.EvtStartGame, Room: s.ID})
	}
	cur := s.Current()
	h.emit(s.ID, turnMessage(cur))
	// History catch-up goes to the newcomer only.
	h.emitTo(msg.ConnID, types.ServerMessage{Type: types.EvtUpdateHistory, History: rollInfos(s.History)})
}

func (h *Hub) rollDice(msg RollDice) {
	s, err := h.store.Get(msg.Room)
	if err != nil {
		h.log.Debug("roll ignored", zap.String("room", msg.Room), zap.Error(err))
		return
	}
	cur := s.Current()
	if cur.ID != msg.ConnID {
		h.log.Debug("roll ignored: out of turn",
			zap.String("room", msg.Room), zap.String("conn", msg.ConnID))
		return
	}

	results := h.roller.Roll(msg.NumDice)
	total := dice.Total(results)
	s.Record(game.RollRecord{PlayerName: cur.Name, DiceResults: results, Total: total})

	h.emit(s.ID, types.ServerMessage{Type: types.EvtDiceResult, DiceResults: results, TotalResult: total})
	h.emit(s.ID, types.ServerMessage{Type: types.EvtUpdateHistory, History: rollInfos(s.History)})

	out := h.pipeline.Evaluate(&rules.Context{
		Room:        s.ID,
		DiceResults: results,
		Total:       total,
		Player:      cur,
		Session:     s,
	}, h)

	// Turn state moves now, even when the announcement is paced; only
	// the broadcast waits.
	next := cur
	if !out.PlayAgain {
		next = s.Advance()
	}
	if out.Hold > 0 {
		h.emitAfter(out.Hold, s.ID, turnMessage(next))
	} else {
		h.emit(s.ID, turnMessage(next))
	}

	h.log.Info("roll",
		zap.String("room", s.ID),
		zap.String("player", cur.Name),
		zap.Ints("dice", results),
		zap.Int("total", total),
		zap.Strings("fired", out.Fired),
		zap.Bool("playAgain", out.PlayAgain))
}

func (h *Hub) disconnect(connID string) {
	c := h.clients[connID]
	if c == nil {
		return
	}
	delete(h.clients, connID)
	close(c.outbox)

	for _, s := range h.store.RemovePlayer(connID) {
		h.emit(s.ID, types.ServerMessage{Type: types.EvtPlayerJoined, Players: playerInfos(s.Players)})
		h.emit(s.ID, turnMessage(s.Current()))
	}
}

func (h *Hub) view(room string) View {
	s, err := h.store.Get(room)
	if err != nil {
		return View{}
	}
	v := View{
		Exists:      true,
		Players:     slices.Clone(s.Players),
		CurrentTurn: s.CurrentTurn,
		History:     slices.Clone(s.History),
	}
	if s.Chicken != nil {
		p := *s.Chicken
		v.Chicken = &p
	}
	return v
}

func (h *Hub) shutdown() {
	for id, c := range h.clients {
		close(c.outbox)
		delete(h.clients, id)
	}
	h.cancel()
}

// Emit implements rules.Emitter. Only the loop goroutine calls it, which
// is what keeps rule actions strictly sequential.
func (h *Hub) Emit(room string, msg types.ServerMessage) {
	h.emit(room, msg)
}

func (h *Hub) emit(room string, msg types.ServerMessage) {
	for id, c := range h.clients {
		if c.room != room {
			continue
		}
		select {
		case c.outbox <- msg:
		default:
			// Slow client: drop it.
			close(c.outbox)
			delete(h.clients, id)
		}
	}
}

func (h *Hub) emitTo(connID string, msg types.ServerMessage) {
	c := h.clients[connID]
	if c == nil {
		return
	}
	select {
	case c.outbox <- msg:
	default:
		close(c.outbox)
		delete(h.clients, connID)
	}
}

// emitAfter schedules a broadcast without suspending the loop. The
// message re-enters the inbox so the send still happens on the loop
// goroutine.
func (h *Hub) emitAfter(d time.Duration, room string, msg types.ServerMessage) {
	time.AfterFunc(d, func() {
		select {
		case h.inbox <- deliver{Room: room, Msg: msg}:
		case <-h.ctx.Done():
		}
	})
}

func turnMessage(p game.Player) types.ServerMessage {
	return types.ServerMessage{Type: types.EvtUpdateTurn, PlayerID: p.ID, PlayerName: p.Name}
}

func playerInfos(players []game.Player) []types.PlayerInfo {
	out := make([]types.PlayerInfo, len(players))
	for i, p := range players {
		out[i] = types.PlayerInfo{ID: p.ID, Name: p.Name}
	}
	return out
}

func rollInfos(history []game.RollRecord) []types.RollInfo {
	out := make([]types.RollInfo, len(history))
	for i, rec := range history {
		out[i] = types.RollInfo{PlayerName: rec.PlayerName, DiceResults: rec.DiceResults, TotalResult: rec.Total}
	}
	return out
}
