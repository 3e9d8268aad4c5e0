package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gym-service/api"
	"gym-service/internal/models"
	"gym-service/pkg/response"
)

// The membership engine is the single authority over the attendees array of
// a class occurrence. Every mutation runs inside a transaction that re-reads
// the array with a row lock before writing, so the capacity and uniqueness
// checks hold at commit time. The per-class redis lock in front of the
// transaction keeps concurrent writers from queueing up on the row lock.

// Book appends attendee to the class with status reservado. Non-admin
// sessions may only book themselves.
func (s *Service) Book(ctx context.Context, sess *models.Session, classID string, attendee models.Attendee) (*api.ClassResponse, error) {
	const op = "service.Book"

	if attendee.UID == "" {
		attendee = models.Attendee{
			UID:      sess.UID,
			Name:     sess.Name,
			PhotoURL: sess.PhotoURL,
		}
	}

	if !sess.CanActFor(attendee.UID) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	lockKey := fmt.Sprintf("class:%s", classID)

	locked, err := s.locker.Lock(ctx, lockKey, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	class, err := s.store.GetClassForUpdate(ctx, tx, classID)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, found := class.FindAttendee(attendee.UID); found {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, response.ErrAlreadyBooked)
	}

	if len(class.Attendees) >= class.Capacity {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, response.ErrClassFull)
	}

	attendee.Status = models.ATTENDEE_RESERVED
	attendees := append(class.Attendees, attendee)

	if err := s.store.UpdateClassAttendees(ctx, tx, classID, attendees); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetClass(ctx, classID)
}

// Cancel removes the attendee record for uid. Non-admin sessions may only
// cancel their own booking.
func (s *Service) Cancel(ctx context.Context, sess *models.Session, classID, uid string) (*api.ClassResponse, error) {
	const op = "service.Cancel"

	if uid == "" {
		uid = sess.UID
	}

	if !sess.CanActFor(uid) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	lockKey := fmt.Sprintf("class:%s", classID)

	locked, err := s.locker.Lock(ctx, lockKey, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	class, err := s.store.GetClassForUpdate(ctx, tx, classID)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	idx, found := class.FindAttendee(uid)
	if !found {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotBooked)
	}

	attendees := append(class.Attendees[:idx:idx], class.Attendees[idx+1:]...)

	if err := s.store.UpdateClassAttendees(ctx, tx, classID, attendees); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetClass(ctx, classID)
}

// Move transfers uid's booking from one class to another as a single atomic
// batch: either the attendee leaves the source and lands in the destination,
// or neither document changes. The destination's capacity and uniqueness are
// evaluated as of commit time. Both class keys are locked, and both rows are
// read for update, in sorted id order.
func (s *Service) Move(ctx context.Context, sess *models.Session, fromID, toID, uid string) (*api.ClassResponse, error) {
	const op = "service.Move"

	if uid == "" {
		uid = sess.UID
	}

	if !sess.CanActFor(uid) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	if fromID == toID {
		return nil, fmt.Errorf("%s: source and destination are the same class: %w", op, response.ErrConflict)
	}

	ids := []string{fromID, toID}
	sort.Strings(ids)

	for i, id := range ids {
		lockKey := fmt.Sprintf("class:%s", id)

		locked, err := s.locker.Lock(ctx, lockKey, lockTTL)
		if err != nil {
			for _, held := range ids[:i] {
				_ = s.locker.Unlock(ctx, fmt.Sprintf("class:%s", held))
			}
			return nil, fmt.Errorf("%s: lock error: %w", op, err)
		}
		if !locked {
			for _, held := range ids[:i] {
				_ = s.locker.Unlock(ctx, fmt.Sprintf("class:%s", held))
			}
			return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
		}
	}
	defer func() {
		for _, id := range ids {
			_ = s.locker.Unlock(ctx, fmt.Sprintf("class:%s", id))
		}
	}()

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	classes := make(map[string]*models.ClassOccurrence, 2)
	for _, id := range ids {
		class, err := s.store.GetClassForUpdate(ctx, tx, id)
		if err != nil {
			_ = tx.Rollback()
			if errors.Is(err, response.ErrNotFound) {
				return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		classes[id] = class
	}

	from, to := classes[fromID], classes[toID]

	idx, found := from.FindAttendee(uid)
	if !found {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotBooked)
	}

	if _, found := to.FindAttendee(uid); found {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, response.ErrAlreadyBooked)
	}

	if len(to.Attendees) >= to.Capacity {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, response.ErrClassFull)
	}

	moved := from.Attendees[idx]
	fromAttendees := append(from.Attendees[:idx:idx], from.Attendees[idx+1:]...)
	toAttendees := append(to.Attendees[:len(to.Attendees):len(to.Attendees)], moved)

	if err := s.store.UpdateClassAttendees(ctx, tx, fromID, fromAttendees); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.UpdateClassAttendees(ctx, tx, toID, toAttendees); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetClass(ctx, toID)
}
