// Package manager orchestrates the composition store, the wire codec
// and the evaluator.
//
// A composition is compiled once: its symbols are resolved against the
// evaluator's registry before anything is persisted, so a stored
// composition always resolved at the time it was saved. Evaluation
// decodes the stored wire form, resolves it again (the registry may
// have changed) and runs it against a fresh packet built from the
// caller's state.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/frobware/go-pfq/functional"
	"github.com/frobware/go-pfq/lang"
	"github.com/frobware/go-pfq/skbuff"
	"github.com/frobware/go-pfq/store"
	"github.com/frobware/go-pfq/transport"
)

// Manager serialises writes to the store and evaluates stored
// compositions.
type Manager struct {
	mu        sync.RWMutex
	store     store.Store
	evaluator *functional.Evaluator
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Manager. A nil evaluator selects one over the default
// registry with diagnostics discarded.
func New(st store.Store, ev *functional.Evaluator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if ev == nil {
		ev = functional.NewEvaluator(nil, nil)
	}
	return &Manager{
		store:     st,
		evaluator: ev,
		logger:    logger.With("component", "manager"),
		now:       time.Now,
	}
}

// Evaluator returns the manager's evaluator.
func (m *Manager) Evaluator() *functional.Evaluator {
	return m.evaluator
}

// CompileOpts carries optional metadata for Compile.
type CompileOpts struct {
	Labels map[string]string
}

// Compile stores n under name after checking that every symbol it
// references resolves. Saving an existing name replaces it.
func (m *Manager) Compile(ctx context.Context, name string, n lang.Node, opts CompileOpts) (store.Record, error) {
	return m.CompileWire(ctx, name, transport.Encode(n), opts)
}

// CompileWire is Compile for a node already in wire form.
func (m *Manager) CompileWire(ctx context.Context, name string, s *structpb.Struct, opts CompileOpts) (store.Record, error) {
	if name == "" {
		return store.Record{}, fmt.Errorf("compile: empty name")
	}

	d, err := transport.Decode(s)
	if err != nil {
		return store.Record{}, fmt.Errorf("compile %s: %w", name, err)
	}
	if _, err := m.evaluator.Resolve(d); err != nil {
		return store.Record{}, fmt.Errorf("compile %s: %w", name, err)
	}
	wire, err := transport.MarshalStruct(s)
	if err != nil {
		return store.Record{}, fmt.Errorf("compile %s: %w", name, err)
	}

	rec := store.Record{
		ID:        uuid.New(),
		Name:      name,
		Symbol:    d.Symbol,
		Kind:      s.Fields[transport.FieldShape].GetStringValue(),
		Wire:      wire,
		Text:      d.String(),
		Labels:    maps.Clone(opts.Labels),
		CreatedAt: m.now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var saved store.Record
	err = m.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.Save(ctx, rec); err != nil {
			return err
		}
		got, err := tx.Get(ctx, name)
		saved = got
		return err
	})
	if err != nil {
		return store.Record{}, fmt.Errorf("compile %s: %w", name, err)
	}

	m.logger.InfoContext(ctx, "compiled composition", "name", name, "id", saved.ID, "text", saved.Text)
	return saved, nil
}

// Get returns the stored composition named name.
func (m *Manager) Get(ctx context.Context, name string) (store.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.Get(ctx, name)
}

// ListOpts filters List.
type ListOpts struct {
	// LabelKey and LabelValue select compositions with that label.
	// An empty LabelKey lists everything.
	LabelKey   string
	LabelValue string
}

// List returns stored compositions ordered by name.
func (m *Manager) List(ctx context.Context, opts ListOpts) ([]store.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if opts.LabelKey != "" {
		return m.store.FindByLabel(ctx, opts.LabelKey, opts.LabelValue)
	}
	return m.store.List(ctx)
}

// Delete removes the composition named name.
func (m *Manager) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Delete(ctx, name); err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "deleted composition", "name", name)
	return nil
}

// Result is the outcome of one evaluation.
type Result struct {
	Verdict string       `json:"verdict"`
	Mask    uint64       `json:"mask,omitempty"`
	State   skbuff.State `json:"state"`
}

func newResult(d functional.Disposition, b *skbuff.Buff) Result {
	r := Result{Verdict: d.Verdict().String(), State: b.State()}
	if deliver, ok := d.(functional.Deliver); ok {
		r.Mask = deliver.Mask
	}
	return r
}

// Descr returns the stored composition named name in evaluator form.
func (m *Manager) Descr(ctx context.Context, name string) (functional.Descr, error) {
	rec, err := m.Get(ctx, name)
	if err != nil {
		return functional.Descr{}, err
	}
	d, err := transport.Unmarshal(rec.Wire)
	if err != nil {
		return functional.Descr{}, fmt.Errorf("composition %s: %w", name, err)
	}
	return d, nil
}

// Evaluate runs the stored composition named name against a packet in
// state in.
func (m *Manager) Evaluate(ctx context.Context, name string, in skbuff.State) (Result, error) {
	return m.EvaluateChain(ctx, []string{name}, 0, in)
}

// EvaluateChain runs stored compositions as a chain. A zero proceedOn
// continues while stages forward.
func (m *Manager) EvaluateChain(ctx context.Context, names []string, proceedOn uint32, in skbuff.State) (Result, error) {
	if len(names) == 0 {
		return Result{}, fmt.Errorf("evaluate: no compositions named")
	}
	ds := make([]functional.Descr, 0, len(names))
	for _, name := range names {
		d, err := m.Descr(ctx, name)
		if err != nil {
			return Result{}, err
		}
		ds = append(ds, d)
	}

	chain, err := m.evaluator.ResolveChain(proceedOn, ds...)
	if err != nil {
		return Result{}, fmt.Errorf("evaluate %v: %w", names, err)
	}

	b := skbuff.FromState(nil, in)
	res := newResult(m.evaluator.Run(chain, b), b)
	m.logger.DebugContext(ctx, "evaluated", "names", names, "verdict", res.Verdict, "class", res.State.Class)
	return res, nil
}

// EvaluateWire runs an unsaved node in wire form.
func (m *Manager) EvaluateWire(ctx context.Context, s *structpb.Struct, in skbuff.State) (Result, error) {
	d, err := transport.Decode(s)
	if err != nil {
		return Result{}, fmt.Errorf("evaluate: %w", err)
	}
	b := skbuff.FromState(nil, in)
	disp, err := m.evaluator.Evaluate(d, b)
	if err != nil {
		return Result{}, fmt.Errorf("evaluate %s: %w", d.Symbol, err)
	}
	res := newResult(disp, b)
	m.logger.DebugContext(ctx, "evaluated", "symbol", d.Symbol, "verdict", res.Verdict)
	return res, nil
}

// EvaluateNode runs an unsaved node.
func (m *Manager) EvaluateNode(ctx context.Context, n lang.Node, in skbuff.State) (Result, error) {
	return m.EvaluateWire(ctx, transport.Encode(n), in)
}
