package verifier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/pkg/rabbitmq"
)

var ErrTxClosed = errors.New("ledger transaction already closed")

// Ledger receives events. Nothing staged on a Tx is visible before Commit.
type Ledger interface {
	Begin(ctx context.Context) (Tx, error)
}

type Tx interface {
	Stage(event Event) error
	Commit() error
	// Rollback discards staged events. It is a no-op after Commit.
	Rollback() error
}

// LocalTx commits into state this process owns: memory or its own database.
// Prepare surfaces every failure the commit could hit, so MultiLedger can
// hold local commits back until the remote ledgers have accepted the events.
type LocalTx interface {
	Tx
	Prepare() error
}

// EventSource answers queries over committed events.
type EventSource interface {
	ListEvents(ctx context.Context, circuitID claims.CircuitID) ([]Event, error)
}

// stagedTx holds events until commit hands them over.
type stagedTx struct {
	ctx    context.Context
	events []Event
	closed bool
	commit func(ctx context.Context, events []Event) error
}

func (tx *stagedTx) Stage(event Event) error {
	if tx.closed {
		return ErrTxClosed
	}
	tx.events = append(tx.events, event)
	return nil
}

func (tx *stagedTx) Commit() error {
	if tx.closed {
		return ErrTxClosed
	}
	tx.closed = true
	if err := tx.ctx.Err(); err != nil {
		return err
	}
	return tx.commit(tx.ctx, tx.events)
}

func (tx *stagedTx) Rollback() error {
	tx.closed = true
	tx.events = nil
	return nil
}

// MemoryLedger keeps events in process and answers queries over them.
type MemoryLedger struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Begin(ctx context.Context) (Tx, error) {
	return memoryTx{&stagedTx{ctx: ctx, commit: l.append}}, nil
}

type memoryTx struct {
	*stagedTx
}

// Prepare only re-checks the context; appending to memory cannot fail.
func (tx memoryTx) Prepare() error {
	if tx.closed {
		return ErrTxClosed
	}
	return tx.ctx.Err()
}

func (l *MemoryLedger) append(_ context.Context, events []Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, events...)
	return nil
}

// Events lists committed events for a circuit, or all of them for an empty id.
func (l *MemoryLedger) Events(circuitID claims.CircuitID) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, 0, len(l.events))
	for _, e := range l.events {
		if circuitID == "" || e.CircuitID == circuitID {
			out = append(out, e)
		}
	}
	return out
}

func (l *MemoryLedger) ListEvents(_ context.Context, circuitID claims.CircuitID) ([]Event, error) {
	return l.Events(circuitID), nil
}

func (l *MemoryLedger) HasValidProof(sender string, circuitID claims.CircuitID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.events {
		if e.Sender == sender && e.CircuitID == circuitID {
			return true
		}
	}
	return false
}

// QueueLedger publishes committed events to RabbitMQ.
type QueueLedger struct {
	publisher rabbitmq.IRabbitmqPublisher
}

func NewQueueLedger(publisher rabbitmq.IRabbitmqPublisher) *QueueLedger {
	return &QueueLedger{publisher: publisher}
}

func (l *QueueLedger) Begin(ctx context.Context) (Tx, error) {
	return &stagedTx{ctx: ctx, commit: l.publish}, nil
}

func (l *QueueLedger) publish(_ context.Context, events []Event) error {
	for _, e := range events {
		if err := l.publisher.Publish(e); err != nil {
			return fmt.Errorf("publish event %s: %w", e.ID, err)
		}
	}
	return nil
}

// MultiLedger fans out to every ledger as one transaction. Commit prepares
// the local ledgers, commits the remote ones in order, and commits the local
// ones last. Until every remote ledger has accepted the events nothing is
// visible through a local ledger. A remote ledger that already committed
// cannot be called back, so the least reliable remote should come first.
type MultiLedger struct {
	ledgers []Ledger
}

func NewMultiLedger(ledgers ...Ledger) *MultiLedger {
	return &MultiLedger{ledgers: ledgers}
}

func (l *MultiLedger) Begin(ctx context.Context) (Tx, error) {
	m := &multiTx{}
	for _, ledger := range l.ledgers {
		tx, err := ledger.Begin(ctx)
		if err != nil {
			_ = m.Rollback()
			return nil, err
		}
		if local, ok := tx.(LocalTx); ok {
			m.local = append(m.local, local)
		} else {
			m.remote = append(m.remote, tx)
		}
	}
	return m, nil
}

type multiTx struct {
	remote []Tx
	local  []LocalTx
	closed bool
}

func (m *multiTx) each(fn func(Tx) error) error {
	for _, tx := range m.remote {
		if err := fn(tx); err != nil {
			return err
		}
	}
	for _, tx := range m.local {
		if err := fn(tx); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiTx) Stage(event Event) error {
	if m.closed {
		return ErrTxClosed
	}
	return m.each(func(tx Tx) error { return tx.Stage(event) })
}

func (m *multiTx) Commit() error {
	if m.closed {
		return ErrTxClosed
	}
	m.closed = true

	for _, tx := range m.local {
		if err := tx.Prepare(); err != nil {
			m.abort()
			return err
		}
	}
	for i, tx := range m.remote {
		if err := tx.Commit(); err != nil {
			m.remote = m.remote[i+1:]
			m.abort()
			return err
		}
	}
	for i, tx := range m.local {
		if err := tx.Commit(); err != nil {
			m.remote = nil
			m.local = m.local[i+1:]
			m.abort()
			return err
		}
	}
	return nil
}

// Rollback is a no-op once Commit ran; a failed Commit already rolled back.
func (m *multiTx) Rollback() error {
	if m.closed {
		return nil
	}
	m.closed = true
	return m.abort()
}

// abort rolls back whatever has not committed yet.
func (m *multiTx) abort() error {
	var errs []error
	_ = m.each(func(tx Tx) error {
		if err := tx.Rollback(); err != nil {
			errs = append(errs, err)
		}
		return nil
	})
	return errors.Join(errs...)
}
