//go:generate go run go.uber.org/mock/mockgen -source=appointment.go -destination=../mocks/mock_appointment_repository.go -package=mocks
package repositories

import (
	"context"
	stderrors "errors"
	"estate-desk/domain"
	"estate-desk/errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	appointmentPrefix        = "apt"
	appointmentClientIndex   = "apt-client"
	appointmentAgentIndex    = "apt-agent"
	appointmentIdempotencyIx = "apt-idem"
)

// UpdateFunc computes the new version of an appointment from the stored one.
// Returning an error aborts the write.
type UpdateFunc func(current domain.Appointment) (domain.Appointment, error)

type IAppointmentRepository interface {
	// Create stores a new appointment. When the appointment carries an
	// idempotency key already used, the stored appointment is returned instead
	// and created is false.
	Create(ctx context.Context, appointment domain.Appointment) (stored domain.Appointment, created bool, err error)
	Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (domain.Appointment, error)
	ListByClient(ctx context.Context, email string) ([]domain.Appointment, error)
	ListByAgent(ctx context.Context, email string) ([]domain.Appointment, error)
}

type AppointmentRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewAppointmentRepository(db *badger.DB, log *slog.Logger) AppointmentRepository {
	return AppointmentRepository{db: db, log: log}
}

type DiskAppointment struct {
	ID             string
	PropertyID     string
	AgentEmail     string
	ClientEmail    string
	ClientName     string
	DateTime       int64
	Status         string
	Comment        string
	IdempotencyKey string
	CreatedAt      int64
	UpdatedAt      int64
}

// Create writes the record and its two lookup indexes in one transaction:
//
//	apt:{id}                    -> record
//	apt-client:{client}\x00{id} -> nil
//	apt-agent:{agent}\x00{id}   -> nil
//	apt-idem:{key}              -> id (only when a key is given)
func (r AppointmentRepository) Create(ctx context.Context, appointment domain.Appointment) (domain.Appointment, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Appointment{}, false, err
	}
	bytes, err := marshal(fromAppointment(appointment))
	if err != nil {
		return domain.Appointment{}, false, err
	}
	id := appointment.ID.String()
	stored := appointment
	created := true
	err = r.db.Update(func(txn *badger.Txn) error {
		if appointment.IdempotencyKey != "" {
			idemKey := key(appointmentIdempotencyIx, appointment.IdempotencyKey)
			item, err := txn.Get(idemKey)
			switch {
			case err == nil:
				existingID, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				existing, err := getAppointment(txn, string(existingID))
				if err != nil {
					return err
				}
				stored, created = existing, false
				return nil
			case !stderrors.Is(err, badger.ErrKeyNotFound):
				return err
			}
			if err := txn.Set(idemKey, []byte(id)); err != nil {
				return err
			}
		}
		if err := txn.Set(key(appointmentPrefix, id), bytes); err != nil {
			return err
		}
		if err := txn.Set(key(appointmentClientIndex, appointment.ClientEmail, id), nil); err != nil {
			return err
		}
		return txn.Set(key(appointmentAgentIndex, appointment.AgentEmail, id), nil)
	})
	if err != nil {
		return domain.Appointment{}, false, err
	}
	if !created {
		r.log.Debug("Appointment already created for idempotency key",
			"key", appointment.IdempotencyKey, "id", stored.ID)
	}
	return stored, created, nil
}

func (r AppointmentRepository) Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Appointment{}, err
	}
	var appointment domain.Appointment
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		appointment, err = getAppointment(txn, id.String())
		return err
	})
	return appointment, err
}

// Update runs fn against the stored appointment and writes the result in the
// same transaction. Concurrent updates of the same appointment make one of the
// transactions fail with badger.ErrConflict, which is returned as is.
func (r AppointmentRepository) Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Appointment{}, err
	}
	var updated domain.Appointment
	err := r.db.Update(func(txn *badger.Txn) error {
		current, err := getAppointment(txn, id.String())
		if err != nil {
			return err
		}
		updated, err = fn(current)
		if err != nil {
			return err
		}
		// Identity and parties are immutable
		updated.ID = current.ID
		updated.AgentEmail = current.AgentEmail
		updated.ClientEmail = current.ClientEmail
		updated.PropertyID = current.PropertyID
		bytes, err := marshal(fromAppointment(updated))
		if err != nil {
			return err
		}
		return txn.Set(key(appointmentPrefix, id.String()), bytes)
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return updated, nil
}

func (r AppointmentRepository) ListByClient(ctx context.Context, email string) ([]domain.Appointment, error) {
	return r.listByIndex(ctx, appointmentClientIndex, email)
}

func (r AppointmentRepository) ListByAgent(ctx context.Context, email string) ([]domain.Appointment, error) {
	return r.listByIndex(ctx, appointmentAgentIndex, email)
}

// listByIndex resolves an index prefix into records, newest viewing first.
// Equal date times are ordered by id so repeated calls return the same order.
func (r AppointmentRepository) listByIndex(ctx context.Context, index, email string) ([]domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var appointments []domain.Appointment
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := scanPrefix(index, email)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		var ids []string
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, lastPart(it.Item().Key()))
		}
		for _, id := range ids {
			appointment, err := getAppointment(txn, id)
			if err != nil {
				if stderrors.Is(err, errors.ErrAppointmentNotFound) {
					r.log.Warn("Dangling appointment index entry", "index", index, "id", id)
					continue
				}
				return err
			}
			appointments = append(appointments, appointment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortAppointments(appointments)
	return appointments, nil
}

// SortAppointments orders by DateTime descending, then ID ascending.
func SortAppointments(appointments []domain.Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		a, b := appointments[i], appointments[j]
		if !a.DateTime.Equal(b.DateTime) {
			return a.DateTime.After(b.DateTime)
		}
		return a.ID.String() < b.ID.String()
	})
}

func getAppointment(txn *badger.Txn, id string) (domain.Appointment, error) {
	item, err := txn.Get(key(appointmentPrefix, id))
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return domain.Appointment{}, fmt.Errorf("%w: %s", errors.ErrAppointmentNotFound, id)
		}
		return domain.Appointment{}, err
	}
	var disk DiskAppointment
	if err = item.Value(func(val []byte) error {
		return unmarshal(val, &disk)
	}); err != nil {
		return domain.Appointment{}, err
	}
	return toAppointment(disk)
}

func fromAppointment(a domain.Appointment) DiskAppointment {
	return DiskAppointment{
		ID:             a.ID.String(),
		PropertyID:     a.PropertyID,
		AgentEmail:     a.AgentEmail,
		ClientEmail:    a.ClientEmail,
		ClientName:     a.ClientName,
		DateTime:       a.DateTime.UnixNano(),
		Status:         string(a.Status),
		Comment:        a.Comment,
		IdempotencyKey: a.IdempotencyKey,
		CreatedAt:      a.CreatedAt.UnixNano(),
		UpdatedAt:      a.UpdatedAt.UnixNano(),
	}
}

func toAppointment(d DiskAppointment) (domain.Appointment, error) {
	parsedID, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.Appointment{}, err
	}
	return domain.Appointment{
		ID:             parsedID,
		PropertyID:     d.PropertyID,
		AgentEmail:     d.AgentEmail,
		ClientEmail:    d.ClientEmail,
		ClientName:     d.ClientName,
		DateTime:       time.Unix(0, d.DateTime).UTC(),
		Status:         domain.AppointmentStatus(d.Status),
		Comment:        d.Comment,
		IdempotencyKey: d.IdempotencyKey,
		CreatedAt:      time.Unix(0, d.CreatedAt).UTC(),
		UpdatedAt:      time.Unix(0, d.UpdatedAt).UTC(),
	}, nil
}

// DecodeAppointment decodes a raw "apt:" value, as read by the inspect tool.
func DecodeAppointment(val []byte) (domain.Appointment, error) {
	var disk DiskAppointment
	if err := unmarshal(val, &disk); err != nil {
		return domain.Appointment{}, err
	}
	return toAppointment(disk)
}
