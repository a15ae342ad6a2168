/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package task

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"runtime/debug"
	"slices"
	"strings"
	"sync"

	"chainguard.dev/arena/battle"
	"chainguard.dev/arena/elo"
	"chainguard.dev/arena/executor"
	"chainguard.dev/arena/judge"
	"chainguard.dev/arena/leaderboard"
	"github.com/chainguard-dev/clog"
)

// DefaultBatchSize is the number of head-to-heads sent to a judge per batch.
const DefaultBatchSize = 8

// Store is everything the orchestrator needs from persistence.
type Store interface {
	leaderboard.Store
	Reporter

	// UnjudgedHeadToHeads returns the pairs involving modelID's results that
	// judge has not yet decided.
	UnjudgedHeadToHeads(ctx context.Context, project string, modelID int64, judge string) ([]battle.HeadToHead, error)
}

// Manager creates, runs and tracks tasks.
type Manager struct {
	store     Store
	board     *leaderboard.Service
	exec      executor.Interface
	batchSize int
	strict    bool

	wg    sync.WaitGroup
	mu    sync.Mutex
	tasks []*Task
}

// Option configures a Manager.
type Option func(*Manager)

// WithExecutor sets how judges are driven. Defaults to executor.Concurrent(4).
func WithExecutor(e executor.Interface) Option {
	return func(m *Manager) { m.exec = e }
}

// WithBatchSize sets the number of head-to-heads per judge call.
func WithBatchSize(n int) Option {
	return func(m *Manager) { m.batchSize = max(n, 1) }
}

// WithEloConfig sets the rating parameters.
func WithEloConfig(cfg elo.Config) Option {
	return func(m *Manager) { m.board = leaderboard.New(m.store, cfg) }
}

// WithStrictVerdicts treats any failed item as a failure of its whole batch,
// so nothing from that batch is persisted.
func WithStrictVerdicts() Option {
	return func(m *Manager) { m.strict = true }
}

// NewManager returns a Manager backed by store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		board:     leaderboard.New(store, elo.DefaultConfig()),
		exec:      executor.Concurrent(4),
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Leaderboard returns the service the manager recomputes ratings with.
func (m *Manager) Leaderboard() *leaderboard.Service { return m.board }

// AutoJudge judges every unjudged head-to-head of modelID with judges, stores
// the verdicts and recomputes the leaderboard. It returns once the task is
// terminal.
func (m *Manager) AutoJudge(ctx context.Context, project string, modelID int64, judges []judge.Interface) Snapshot {
	t := m.create(project, TypeAutoJudge)
	m.run(ctx, t, func(ctx context.Context) (string, error) {
		return m.autoJudge(ctx, t, project, modelID, judges)
	})
	return t.Snapshot()
}

// StartAutoJudge runs AutoJudge on its own goroutine and returns the task as
// created.
func (m *Manager) StartAutoJudge(ctx context.Context, project string, modelID int64, judges []judge.Interface) Snapshot {
	t := m.create(project, TypeAutoJudge)
	m.spawn(ctx, t, func(ctx context.Context) (string, error) {
		return m.autoJudge(ctx, t, project, modelID, judges)
	})
	return t.Snapshot()
}

// RecomputeLeaderboard rates the project from its full battle history. It
// returns once the task is terminal.
func (m *Manager) RecomputeLeaderboard(ctx context.Context, project string) Snapshot {
	t := m.create(project, TypeRecomputeLeaderboard)
	m.run(ctx, t, func(ctx context.Context) (string, error) {
		return m.recompute(ctx, t, project)
	})
	return t.Snapshot()
}

// StartRecomputeLeaderboard runs RecomputeLeaderboard on its own goroutine
// and returns the task as created.
func (m *Manager) StartRecomputeLeaderboard(ctx context.Context, project string) Snapshot {
	t := m.create(project, TypeRecomputeLeaderboard)
	m.spawn(ctx, t, func(ctx context.Context) (string, error) {
		return m.recompute(ctx, t, project)
	})
	return t.Snapshot()
}

// Wait blocks until every started task is terminal.
func (m *Manager) Wait() { m.wg.Wait() }

// Tasks lists snapshots of the project's tasks in creation order. An empty
// project lists every task.
func (m *Manager) Tasks(project string) []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Snapshot
	for _, t := range m.tasks {
		if project == "" || t.project == project {
			out = append(out, t.Snapshot())
		}
	}
	return out
}

// Task returns a snapshot of the task with the given ID.
func (m *Manager) Task(id string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.id == id {
			return t.Snapshot(), true
		}
	}
	return Snapshot{}, false
}

func (m *Manager) create(project string, typ Type) *Task {
	t := New(project, typ, m.store)
	m.mu.Lock()
	m.tasks = append(m.tasks, t)
	m.mu.Unlock()
	tasksCreated.WithLabelValues(string(typ)).Inc()
	return t
}

func (m *Manager) spawn(ctx context.Context, t *Task, body func(context.Context) (string, error)) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(ctx, t, body)
	}()
}

// run drives t through its lifecycle. Errors and panics from body end in the
// failed state; nothing escapes.
func (m *Manager) run(ctx context.Context, t *Task, body func(context.Context) (string, error)) {
	ctx = clog.WithLogger(ctx, clog.FromContext(ctx).With("task", t.id).
		With("project", t.project).
		With("type", string(t.typ)))
	tasksRunning.WithLabelValues(string(t.typ)).Inc()
	defer tasksRunning.WithLabelValues(string(t.typ)).Dec()

	defer func() {
		if p := recover(); p != nil {
			clog.FromContext(ctx).With("panic", fmt.Sprint(p)).
				With("stack", string(debug.Stack())).
				Error("Task panicked")
			m.finish(ctx, t, "", fmt.Errorf("panic: %v", p))
		}
	}()

	if err := t.Start(ctx, fmt.Sprintf("Started %s", t.typ)); err != nil {
		m.finish(ctx, t, "", err)
		return
	}
	summary, err := body(ctx)
	m.finish(ctx, t, summary, err)
}

func (m *Manager) finish(ctx context.Context, t *Task, summary string, err error) {
	log := clog.FromContext(ctx)
	if err != nil {
		if ferr := t.Fail(ctx, err); ferr != nil {
			log.With("error", ferr.Error()).Error("Failed to mark task failed")
		}
		tasksFinished.WithLabelValues(string(t.typ), string(StateFailed)).Inc()
		log.With("error", err.Error()).Warn("Task failed")
		return
	}
	if cerr := t.Complete(ctx, summary); cerr != nil {
		log.With("error", cerr.Error()).Error("Failed to mark task completed")
		return
	}
	tasksFinished.WithLabelValues(string(t.typ), string(StateCompleted)).Inc()
	log.Info("Task completed")
}

func invalid(v battle.Verdict) bool { return !v.Valid() }

// pairKey identifies a head-to-head independent of judge and side.
func pairKey(h battle.HeadToHead) battle.Key {
	return h.Key("")
}

// assignment is a set of judges that share the same pending head-to-heads.
type assignment struct {
	judges []judge.Interface
	h2hs   []battle.HeadToHead
}

// assign lists each judge's unjudged head-to-heads and groups judges whose
// lists are identical. Judges with nothing pending are left out.
func (m *Manager) assign(ctx context.Context, project string, modelID int64, judges []judge.Interface) ([]assignment, error) {
	var work []assignment
	groups := map[string]int{}
	for _, j := range judges {
		pending, err := m.store.UnjudgedHeadToHeads(ctx, project, modelID, j.Name())
		if err != nil {
			return nil, fmt.Errorf("listing unjudged head-to-heads for %s: %w", j.Name(), err)
		}
		if len(pending) == 0 {
			continue
		}
		var sig strings.Builder
		for _, h := range pending {
			fmt.Fprintf(&sig, "%d:%d,", h.ResultA.ID, h.ResultB.ID)
		}
		if i, ok := groups[sig.String()]; ok {
			work[i].judges = append(work[i].judges, j)
			continue
		}
		groups[sig.String()] = len(work)
		work = append(work, assignment{judges: []judge.Interface{j}, h2hs: pending})
	}
	return work, nil
}

// results chains the executor's results over every assignment in order.
func (m *Manager) results(ctx context.Context, work []assignment) iter.Seq[executor.Result] {
	return func(yield func(executor.Result) bool) {
		for _, a := range work {
			for r := range m.exec.Execute(ctx, a.judges, a.h2hs, m.batchSize) {
				if !yield(r) {
					return
				}
			}
		}
	}
}

func (m *Manager) autoJudge(ctx context.Context, t *Task, project string, modelID int64, judges []judge.Interface) (string, error) {
	if len(judges) == 0 {
		return "", errors.New("no judges configured")
	}

	work, err := m.assign(ctx, project, modelID, judges)
	if err != nil {
		return "", err
	}
	if len(work) == 0 {
		return "No unjudged head-to-heads", nil
	}

	total := 0
	seen := map[battle.Key]bool{}
	for _, a := range work {
		total += len(a.judges) * executor.BatchCount(len(a.h2hs), m.batchSize)
		for _, h := range a.h2hs {
			seen[pairKey(h)] = true
		}
	}
	_ = t.Log(ctx, fmt.Sprintf("Judging %d head-to-heads with %d judge(s) in %d batch(es)", len(seen), len(judges), total))

	var done, failed, stored, rejected int
	for r := range m.results(ctx, work) {
		done++
		name := r.Judge.Name()

		var be *judge.BatchError
		// A batch where some items succeeded is partial; one where every item
		// failed counts as a failed batch.
		partial := r.Err != nil && errors.As(r.Err, &be) && r.Verdicts != nil &&
			len(be.Items) < len(r.Batch) && !m.strict
		if r.Err == nil && m.strict && slices.ContainsFunc(r.Verdicts, invalid) {
			r.Err = errors.New("invalid verdict in strict mode")
		}
		if r.Err != nil && !partial {
			failed++
			_ = t.Progress(ctx, float64(done)/float64(total), fmt.Sprintf("Judge %s failed batch %d: %v", name, r.Index+1, r.Err))
			continue
		}

		n := 0
		for i, h := range r.Batch {
			v := r.Verdicts[i]
			if partial && be.Failed(i) {
				rejected++
				continue
			}
			if !v.Valid() {
				rejected++
				_ = t.Log(ctx, fmt.Sprintf("Judge %s gave invalid verdict %q for results %d and %d", name, v, h.ResultA.ID, h.ResultB.ID))
				continue
			}
			if _, err := m.store.PutBattle(ctx, project, h.Battle(name, v)); err != nil {
				return "", fmt.Errorf("storing battle: %w", err)
			}
			n++
		}
		stored += n

		status := fmt.Sprintf("Judge %s finished batch %d (%d verdicts)", name, r.Index+1, n)
		if partial {
			status = fmt.Sprintf("Judge %s finished batch %d (%d verdicts, %d failed: %v)", name, r.Index+1, n, len(be.Items), be)
		}
		_ = t.Progress(ctx, float64(done)/float64(total), status)
	}

	for _, j := range judges {
		u := j.Usage()
		_ = t.Log(ctx, fmt.Sprintf("Judge %s usage: %d calls, %d input tokens, %d output tokens", j.Name(), u.Calls, u.InputTokens, u.OutputTokens))
	}

	if failed > 0 && stored == 0 {
		return "", fmt.Errorf("all %d failed batch(es) produced no battles", failed)
	}

	if _, err := m.board.Recompute(ctx, project); err != nil {
		return "", fmt.Errorf("recomputing leaderboard: %w", err)
	}

	if failed > 0 {
		return fmt.Sprintf("Stored %d battle(s), completed with %d failed batch(es)", stored, failed), nil
	}
	if rejected > 0 {
		return fmt.Sprintf("Stored %d battle(s), %d verdict(s) rejected", stored, rejected), nil
	}
	return fmt.Sprintf("Stored %d battle(s)", stored), nil
}

func (m *Manager) recompute(ctx context.Context, t *Task, project string) (string, error) {
	progress := func(done, total int) {
		step := max(total/10, 1)
		if done%step == 0 || done == total {
			_ = t.Progress(ctx, float64(done)/float64(total), fmt.Sprintf("Bootstrapped %d/%d rounds", done, total))
		}
	}
	lb, err := m.board.Recompute(ctx, project, elo.WithProgress(progress))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Rated %d model(s)", len(lb)), nil
}
