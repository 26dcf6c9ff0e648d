package verifier

import (
	"context"
	"time"

	"github.com/id-Mask/smart-contracts/internal/claims"
	"github.com/id-Mask/smart-contracts/pkg/utilities/timeutil"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// eventRecord is the stored row of an Event.
type eventRecord struct {
	ID           string        `gorm:"primaryKey;size:36"`
	Name         string        `gorm:"size:64;not null"`
	CircuitID    string        `gorm:"size:64;not null;index;index:idx_sender_circuit,priority:2"`
	Sender       string        `gorm:"size:128;not null;index:idx_sender_circuit,priority:1"`
	PublicInput  []string      `gorm:"serializer:json"`
	PublicOutput claims.Output `gorm:"serializer:json"`
	Proof        []byte
	CreatedAt    time.Time `gorm:"not null;index"`
}

func (eventRecord) TableName() string {
	return "provided_valid_proofs"
}

func toRecord(e Event) eventRecord {
	return eventRecord{
		ID:           e.ID,
		Name:         e.Name,
		CircuitID:    e.CircuitID.String(),
		Sender:       e.Sender,
		PublicInput:  e.PublicInput,
		PublicOutput: e.PublicOutput,
		Proof:        e.Proof,
		CreatedAt:    e.Timestamp.Time(),
	}
}

func (r eventRecord) event() Event {
	return Event{
		Name:         r.Name,
		ID:           r.ID,
		CircuitID:    claims.CircuitID(r.CircuitID),
		Sender:       r.Sender,
		PublicInput:  r.PublicInput,
		PublicOutput: r.PublicOutput,
		Timestamp:    timeutil.FromTime(r.CreatedAt),
		Proof:        r.Proof,
	}
}

// EventRepository keeps events in a SQL database through gorm, so they
// survive restarts and can be queried by sender and circuit.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Migrate() error {
	return errors.Wrap(r.db.AutoMigrate(&eventRecord{}), "migrate events")
}

// Begin opens a database transaction. Staged rows are inserted by Prepare
// and become visible to readers on Commit.
func (r *EventRepository) Begin(ctx context.Context) (Tx, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, errors.Wrap(tx.Error, "begin event transaction")
	}
	return &repositoryTx{db: tx}, nil
}

func (r *EventRepository) ListEvents(ctx context.Context, circuitID claims.CircuitID) ([]Event, error) {
	q := r.db.WithContext(ctx).Order("created_at, id")
	if circuitID != "" {
		q = q.Where("circuit_id = ?", circuitID.String())
	}

	var records []eventRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "list events")
	}

	out := make([]Event, len(records))
	for i, rec := range records {
		out[i] = rec.event()
	}
	return out, nil
}

func (r *EventRepository) HasValidProof(ctx context.Context, sender string, circuitID claims.CircuitID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&eventRecord{}).
		Where("sender = ? AND circuit_id = ?", sender, circuitID.String()).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "count events")
	}
	return count > 0, nil
}

type repositoryTx struct {
	db       *gorm.DB
	staged   []eventRecord
	prepared bool
	closed   bool
}

func (tx *repositoryTx) Stage(event Event) error {
	if tx.closed || tx.prepared {
		return ErrTxClosed
	}
	tx.staged = append(tx.staged, toRecord(event))
	return nil
}

func (tx *repositoryTx) Prepare() error {
	if tx.closed {
		return ErrTxClosed
	}
	if tx.prepared || len(tx.staged) == 0 {
		tx.prepared = true
		return nil
	}
	if err := tx.db.Create(&tx.staged).Error; err != nil {
		return errors.Wrap(err, "insert events")
	}
	tx.prepared = true
	return nil
}

func (tx *repositoryTx) Commit() error {
	if tx.closed {
		return ErrTxClosed
	}
	if err := tx.Prepare(); err != nil {
		_ = tx.Rollback()
		return err
	}
	tx.closed = true
	return errors.Wrap(tx.db.Commit().Error, "commit events")
}

func (tx *repositoryTx) Rollback() error {
	if tx.closed {
		return nil
	}
	tx.closed = true
	tx.staged = nil
	return tx.db.Rollback().Error
}
