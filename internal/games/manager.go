package games

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/wildkids/internal/content"
	"github.com/playperu/wildkids/internal/progress"
	"github.com/playperu/wildkids/internal/store"
	"github.com/playperu/wildkids/internal/tracker"
)

// Recorder stores a won level. *tracker.Tracker satisfies it.
type Recorder interface {
	RecordCompletion(ctx context.Context, id store.Identity, c progress.Completion) (tracker.Outcome, error)
}

type play struct {
	mu      sync.Mutex
	id      string
	owner   store.Identity
	game    progress.GameID
	level   int
	engine  engine
	touched time.Time
	result  *Result
}

// Result is shown on the end-of-level screen.
type Result struct {
	Title   string           `json:"title"`
	Message string           `json:"message"`
	Score   int              `json:"score"`
	Outcome *tracker.Outcome `json:"outcome,omitempty"`
}

// View is a snapshot of one play.
type View struct {
	ID       string            `json:"id"`
	Game     progress.GameInfo `json:"game"`
	Level    int               `json:"level"`
	Score    int               `json:"score"`
	Finished bool              `json:"finished"`
	HasNext  bool              `json:"hasNext"`
	State    json.RawMessage   `json:"state"`
	Result   *Result           `json:"result,omitempty"`
}

// MoveResult is the answer to one move.
type MoveResult struct {
	Feedback Feedback `json:"feedback"`
	Play     View     `json:"play"`
}

// NextResult is either the next level's play or, past the last level, a
// return to the menu.
type NextResult struct {
	Play *View `json:"play,omitempty"`
	Menu bool  `json:"menu"`
}

// Manager owns the plays in progress. Plays are held in memory and swept
// once idle for longer than the configured TTL.
type Manager struct {
	levels   *content.Levels
	recorder Recorder
	logger   *slog.Logger
	ttl      time.Duration

	shuffle shuffler
	now     func() time.Time
	newID   func() string

	mu    sync.Mutex
	plays map[string]*play
}

func NewManager(levels *content.Levels, recorder Recorder, logger *slog.Logger, ttl time.Duration) *Manager {
	return &Manager{
		levels:   levels,
		recorder: recorder,
		logger:   logger,
		ttl:      ttl,
		shuffle:  defaultShuffle,
		now:      time.Now,
		newID:    uuid.NewString,
		plays:    make(map[string]*play),
	}
}

func (m *Manager) newEngine(game progress.GameID, level int) (engine, error) {
	var (
		e  engine
		ok bool
	)
	switch game {
	case progress.FindMe:
		var l content.FindMeLevel
		if l, ok = m.levels.FindMeLevel(level); ok {
			e = newFindMe(l, m.shuffle)
		}
	case progress.TruthMyth:
		var l content.TruthMythLevel
		if l, ok = m.levels.TruthMythLevel(level); ok {
			e = newTruthMyth(l)
		}
	case progress.WhoEats:
		var l content.WhoEatsLevel
		if l, ok = m.levels.WhoEatsLevel(level); ok {
			e = newWhoEats(l, m.shuffle)
		}
	case progress.Puzzle:
		var l content.PuzzleLevel
		if l, ok = m.levels.PuzzleLevel(level); ok {
			e = newPuzzle(l, m.shuffle)
		}
	case progress.WhoLives:
		var l content.WhoLivesLevel
		if l, ok = m.levels.WhoLivesLevel(level); ok {
			e = newWhoLives(l)
		}
	default:
		return nil, fmt.Errorf("%w: %q", progress.ErrUnknownGame, game)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s level %d", ErrUnknownLevel, game, level)
	}
	return e, nil
}

// Start begins level of game for owner.
func (m *Manager) Start(owner store.Identity, game progress.GameID, level int) (View, error) {
	e, err := m.newEngine(game, level)
	if err != nil {
		return View{}, err
	}
	p := &play{
		id:      m.newID(),
		owner:   owner,
		game:    game,
		level:   level,
		engine:  e,
		touched: m.now(),
	}

	m.mu.Lock()
	m.plays[p.id] = p
	m.mu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view()
}

// lookup returns the play with id when it belongs to owner.
func (m *Manager) lookup(owner store.Identity, id string) (*play, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plays[id]
	if !ok || p.owner != owner {
		return nil, ErrPlayNotFound
	}
	return p, nil
}

func (m *Manager) Get(owner store.Identity, id string) (View, error) {
	p, err := m.lookup(owner, id)
	if err != nil {
		return View{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view()
}

// Move applies mv. The move that wins the level records the completion
// before returning, so saves of one play never overlap.
func (m *Manager) Move(ctx context.Context, owner store.Identity, id string, mv Move) (MoveResult, error) {
	p, err := m.lookup(owner, id)
	if err != nil {
		return MoveResult{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.result != nil {
		return MoveResult{}, ErrPlayFinished
	}
	p.touched = m.now()

	fb, err := p.engine.move(mv)
	if err != nil {
		return MoveResult{}, err
	}
	if p.engine.won() {
		p.result = m.finish(ctx, p)
	}

	v, err := p.view()
	if err != nil {
		return MoveResult{}, err
	}
	return MoveResult{Feedback: fb, Play: v}, nil
}

func (m *Manager) finish(ctx context.Context, p *play) *Result {
	score := p.engine.score()
	res := &Result{Title: "Молодец!", Score: score, Message: "Уровень пройден!"}
	if score > 0 {
		res.Message = fmt.Sprintf("Ты набрал %d баллов!", score)
	}

	out, err := m.recorder.RecordCompletion(ctx, p.owner, progress.Completion{
		Game:      p.game,
		Level:     p.level,
		Score:     score,
		Completed: true,
	})
	if err != nil {
		m.logger.Error("recording completion failed",
			"identity", p.owner.String(), "game", p.game, "level", p.level, "error", err)
		return res
	}
	res.Outcome = &out
	return res
}

// Restart replays the same level from scratch.
func (m *Manager) Restart(owner store.Identity, id string) (View, error) {
	p, err := m.lookup(owner, id)
	if err != nil {
		return View{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	e, err := m.newEngine(p.game, p.level)
	if err != nil {
		return View{}, err
	}
	p.engine = e
	p.result = nil
	p.touched = m.now()
	return p.view()
}

// Next ends the play and starts the following level of the same game, or
// reports a return to the menu after the last level.
func (m *Manager) Next(owner store.Identity, id string) (NextResult, error) {
	p, err := m.lookup(owner, id)
	if err != nil {
		return NextResult{}, err
	}
	p.mu.Lock()
	game, level := p.game, p.level
	p.mu.Unlock()

	m.remove(id)
	if level+1 > game.TotalLevels() {
		return NextResult{Menu: true}, nil
	}
	v, err := m.Start(owner, game, level+1)
	if err != nil {
		return NextResult{}, err
	}
	return NextResult{Play: &v}, nil
}

// Quit abandons the play.
func (m *Manager) Quit(owner store.Identity, id string) error {
	if _, err := m.lookup(owner, id); err != nil {
		return err
	}
	m.remove(id)
	return nil
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.plays, id)
	m.mu.Unlock()
}

// Sweep drops plays idle since before now minus the TTL and returns how
// many were dropped.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.ttl)

	m.mu.Lock()
	plays := make([]*play, 0, len(m.plays))
	for _, p := range m.plays {
		plays = append(plays, p)
	}
	m.mu.Unlock()

	n := 0
	for _, p := range plays {
		p.mu.Lock()
		idle := p.touched.Before(cutoff)
		p.mu.Unlock()
		if idle {
			m.remove(p.id)
			n++
		}
	}
	return n
}

// Len returns the number of plays in progress.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.plays)
}

// view must be called with p.mu held.
func (p *play) view() (View, error) {
	state, err := json.Marshal(p.engine.view())
	if err != nil {
		return View{}, fmt.Errorf("encoding %s state: %w", p.game, err)
	}
	info, _ := progress.Info(p.game)
	return View{
		ID:       p.id,
		Game:     info,
		Level:    p.level,
		Score:    p.engine.score(),
		Finished: p.result != nil,
		HasNext:  p.level < info.TotalLevels,
		State:    state,
		Result:   p.result,
	}, nil
}
