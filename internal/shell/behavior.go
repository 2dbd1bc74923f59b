package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sidememo/sidememo/internal/memo/repository"
	"github.com/sidememo/sidememo/pkg/logger"
)

// BehaviorKey is the area key holding the panel preference.
const BehaviorKey = "side-memo-panel-behavior"

// Behavior controls how the host entry-point action treats the panel.
type Behavior struct {
	OpenPanelOnActionClick bool `json:"openPanelOnActionClick"`
}

// DefaultBehavior is written on first start.
var DefaultBehavior = Behavior{OpenPanelOnActionClick: true}

// Shell is the container surface hosting the panel.
type Shell struct {
	area repository.Area
	log  *logger.Logger

	mu   sync.Mutex
	open bool
}

func New(area repository.Area, log *logger.Logger) *Shell {
	if log == nil {
		log = logger.Nop()
	}
	return &Shell{area: area, log: log}
}

// EnsureDefaults stores DefaultBehavior when no preference exists yet.
// Failures are logged and otherwise ignored.
func (s *Shell) EnsureDefaults(ctx context.Context) {
	vals, err := s.area.Get(ctx, BehaviorKey)
	if err != nil {
		s.log.Errorf("read panel behavior: %v", err)
		return
	}
	if _, ok := vals[BehaviorKey]; ok {
		return
	}
	if err := s.SetBehavior(ctx, DefaultBehavior); err != nil {
		s.log.Errorf("set default panel behavior: %v", err)
		return
	}
	s.log.Infof("panel behavior initialised: openPanelOnActionClick=%v", DefaultBehavior.OpenPanelOnActionClick)
}

// Behavior returns the stored preference, or DefaultBehavior when none is stored.
func (s *Shell) Behavior(ctx context.Context) (Behavior, error) {
	vals, err := s.area.Get(ctx, BehaviorKey)
	if err != nil {
		return Behavior{}, fmt.Errorf("read panel behavior: %w", err)
	}
	raw, ok := vals[BehaviorKey]
	if !ok {
		return DefaultBehavior, nil
	}
	var b Behavior
	if err := json.Unmarshal(raw, &b); err != nil {
		return Behavior{}, fmt.Errorf("decode panel behavior: %w", err)
	}
	return b, nil
}

func (s *Shell) SetBehavior(ctx context.Context, b Behavior) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.area.Set(ctx, map[string][]byte{BehaviorKey: raw})
}

// OnAction handles a click on the entry-point action and reports whether the panel is open.
func (s *Shell) OnAction(ctx context.Context) bool {
	b, err := s.Behavior(ctx)
	if err != nil {
		s.log.Errorf("%v", err)
		b = DefaultBehavior
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.OpenPanelOnActionClick {
		s.open = true
	}
	return s.open
}

func (s *Shell) Close() {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
}

func (s *Shell) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}
