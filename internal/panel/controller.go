package panel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sidememo/sidememo/internal/memo"
	"github.com/sidememo/sidememo/internal/memo/service"
	"github.com/sidememo/sidememo/pkg/logger"
	"github.com/sidememo/sidememo/pkg/metrics"
)

// DefaultDebounce is the quiet period after the last edit before an auto-save.
const DefaultDebounce = time.Second

var (
	ErrWrongView   = errors.New("action not available in the current view")
	ErrUnknownMemo = errors.New("memo is not in the list")
)

type ViewKind string

const (
	ViewList   ViewKind = "list"
	ViewDetail ViewKind = "detail"
)

// View is a copy of the controller state, safe to hand to renderers.
type View struct {
	Kind    ViewKind    `json:"view"`
	Loading bool        `json:"loading"`
	Memos   []memo.Memo `json:"memos"`
	Current *memo.Memo  `json:"current,omitempty"`
	Title   string      `json:"draftTitle"`
	Content string      `json:"draftContent"`
	IsNew   bool        `json:"isNew"`
	Dirty   bool        `json:"dirty"`
}

type Option func(*Controller)

func WithDebounce(d time.Duration) Option { return func(c *Controller) { c.debounce = d } }

// WithScheduler replaces time.AfterFunc, mostly for tests.
func WithScheduler(s Scheduler) Option { return func(c *Controller) { c.schedule = s } }

func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

func WithLogger(l *logger.Logger) Option { return func(c *Controller) { c.log = l } }

// Controller is the list/detail state machine of the side panel.
// Store failures are logged and leave the state as it was.
type Controller struct {
	svc      service.Service
	debounce time.Duration
	schedule Scheduler
	now      func() time.Time
	log      *logger.Logger
	ctx      context.Context

	mu      sync.Mutex
	kind    ViewKind
	loading bool
	memos   []memo.Memo
	current *memo.Memo
	isNew   bool
	title   string
	content string
	dirty   bool
	// session changes whenever Detail is entered or left; saves from an older
	// session update the list but never the current memo.
	session uint64
	pending Timer

	// at most one save or delete in flight; taken before mu
	saveMu sync.Mutex
}

func New(svc service.Service, opts ...Option) *Controller {
	c := &Controller{
		svc:      svc,
		debounce: DefaultDebounce,
		schedule: afterFunc,
		now:      time.Now,
		log:      logger.Nop(),
		ctx:      context.Background(),
		kind:     ViewList,
		loading:  true,
		memos:    []memo.Memo{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start loads the memo collection in the background. Auto-saves use ctx.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	c.loading = true
	c.mu.Unlock()
	go c.Load(ctx)
}

// Load reads every memo and replaces the in-memory list, newest first.
func (c *Controller) Load(ctx context.Context) {
	list, err := c.svc.ListAll(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.log.Errorf("failed to load memos: %v", err)
		return
	}
	memo.SortByRecency(list)
	c.memos = list
}

// Create opens an empty, unsaved draft.
func (c *Controller) Create() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kind != ViewList {
		return ErrWrongView
	}
	p := memo.NewPlaceholder(c.now().UTC())
	c.enterDetail(p, true)
	return nil
}

// Open shows m in the detail view.
func (c *Controller) Open(m memo.Memo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kind != ViewList {
		return ErrWrongView
	}
	c.enterDetail(m, false)
	return nil
}

// OpenByID opens a memo from the loaded list.
func (c *Controller) OpenByID(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kind != ViewList {
		return ErrWrongView
	}
	for _, m := range c.memos {
		if m.ID == id {
			c.enterDetail(m, false)
			return nil
		}
	}
	return ErrUnknownMemo
}

func (c *Controller) enterDetail(m memo.Memo, isNew bool) {
	c.session++
	c.kind = ViewDetail
	c.current = &m
	c.isNew = isNew
	c.title = m.Title
	c.content = m.Content
	c.dirty = false
}

// Edit changes the draft and (re)starts the auto-save timer. Nil leaves a field as is.
func (c *Controller) Edit(title, content *string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kind != ViewDetail || c.current == nil {
		return ErrWrongView
	}
	if title != nil {
		c.title = *title
	}
	if content != nil {
		c.content = *content
	}
	c.dirty = true
	c.stopPending()
	session := c.session
	c.pending = c.schedule(c.debounce, func() {
		_ = c.save(c.autosaveContext(), session)
	})
	return nil
}

func (c *Controller) autosaveContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// Flush saves pending edits now instead of waiting for the debounce window.
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	c.stopPending()
	session := c.session
	c.mu.Unlock()
	return c.save(ctx, session)
}

func (c *Controller) stopPending() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *Controller) save(ctx context.Context, session uint64) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if c.session != session || c.kind != ViewDetail || c.current == nil || !c.dirty {
		c.mu.Unlock()
		return nil
	}
	isNew := c.isNew
	id := c.current.ID
	title, content := c.title, c.content
	c.dirty = false
	c.mu.Unlock()

	kind := "update"
	var (
		saved memo.Memo
		found = true
		err   error
	)
	if isNew {
		kind = "create"
		saved, err = c.svc.Create(ctx, title, content)
	} else {
		saved, found, err = c.svc.Update(ctx, id, memo.Fields{Title: &title, Content: &content})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case err != nil:
		metrics.AutoSaves.WithLabelValues(kind, "error").Inc()
		c.log.Errorf("failed to save memo: %v", err)
		if c.session == session {
			c.dirty = true
		}
		return err
	case !found:
		metrics.AutoSaves.WithLabelValues(kind, "not_found").Inc()
		c.log.Warnf("memo %s no longer exists; edit dropped", id)
		return nil
	}
	metrics.AutoSaves.WithLabelValues(kind, "ok").Inc()
	c.upsert(saved)
	if c.session == session {
		c.current = &saved
		c.isNew = false
	}
	return nil
}

func (c *Controller) upsert(m memo.Memo) {
	replaced := false
	for i := range c.memos {
		if c.memos[i].ID == m.ID {
			c.memos[i] = m
			replaced = true
			break
		}
	}
	if !replaced {
		c.memos = append(c.memos, m)
	}
	memo.SortByRecency(c.memos)
}

// Delete removes the current memo and returns to the list. An unsaved draft
// is discarded without touching the store. On a store failure the view and any
// pending auto-save stay as they were.
//
// Delete waits for an in-flight save so a late result cannot bring the memo back.
func (c *Controller) Delete(ctx context.Context) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if c.kind != ViewDetail {
		c.mu.Unlock()
		return ErrWrongView
	}
	if c.current == nil || c.isNew || c.current.IsPlaceholder() {
		c.stopPending()
		c.toList()
		c.mu.Unlock()
		return nil
	}
	id := c.current.ID
	session := c.session
	c.mu.Unlock()

	if _, err := c.svc.Delete(ctx, id); err != nil {
		c.log.Errorf("failed to delete memo: %v", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.memos[:0]
	for _, m := range c.memos {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	c.memos = kept
	if c.session == session {
		c.stopPending()
		c.toList()
	}
	return nil
}

// Back returns to the list. Edits still inside the debounce window are dropped.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopPending()
	c.toList()
}

func (c *Controller) toList() {
	c.session++
	c.kind = ViewList
	c.current = nil
	c.isNew = false
	c.title, c.content = "", ""
	c.dirty = false
}

// Close cancels a pending auto-save and waits for an in-flight one.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopPending()
	c.mu.Unlock()
	c.saveMu.Lock()
	c.saveMu.Unlock()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		Kind:    c.kind,
		Loading: c.loading,
		Memos:   append([]memo.Memo(nil), c.memos...),
		Title:   c.title,
		Content: c.content,
		IsNew:   c.isNew,
		Dirty:   c.dirty,
	}
	if v.Memos == nil {
		v.Memos = []memo.Memo{}
	}
	if c.current != nil {
		cur := *c.current
		v.Current = &cur
	}
	return v
}
