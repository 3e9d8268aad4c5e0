package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gym-service/api"
	"gym-service/internal/models"
	"gym-service/pkg/response"
)

// SetAttendance flips an attendee's status between reservado and asistido.
// The class-has-ended and admin preconditions are enforced at the handler
// boundary, this is the bare single-document read-modify-write.
func (s *Service) SetAttendance(ctx context.Context, classID, uid string, attended bool) (*api.ClassResponse, error) {
	const op = "service.SetAttendance"

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

	status := models.ATTENDEE_RESERVED
	if attended {
		status = models.ATTENDEE_ATTENDED
	}

	attendees := make([]models.Attendee, len(class.Attendees))
	copy(attendees, class.Attendees)
	attendees[idx].Status = status

	if err := s.store.UpdateClassAttendees(ctx, tx, classID, attendees); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetClass(ctx, classID)
}

// TopAttendees counts asistido entries per uid across every occurrence in
// the date range whose scheduled time has already passed and returns a
// descending ranking. A linear scan over occurrences and attendees, fine for
// an interactive report, not a hot path.
func (s *Service) TopAttendees(ctx context.Context, from, to string, now time.Time) ([]*api.TopAttendee, error) {
	const op = "service.TopAttendees"

	if _, err := time.Parse("2006-01-02", from); err != nil {
		return nil, fmt.Errorf("%s: invalid from: %w", op, err)
	}
	if _, err := time.Parse("2006-01-02", to); err != nil {
		return nil, fmt.Errorf("%s: invalid to: %w", op, err)
	}

	classes, err := s.store.FindByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	counts := make(map[string]int)
	names := make(map[string]string)

	for _, c := range classes {
		if !c.Ended(now) {
			continue
		}
		for _, a := range c.Attendees {
			if a.Status != models.ATTENDEE_ATTENDED {
				continue
			}
			counts[a.UID]++
			names[a.UID] = a.Name
		}
	}

	result := make([]*api.TopAttendee, 0, len(counts))
	for uid, n := range counts {
		result = append(result, &api.TopAttendee{
			UID:      uid,
			Name:     names[uid],
			Attended: n,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Attended != result[j].Attended {
			return result[i].Attended > result[j].Attended
		}
		return result[i].UID < result[j].UID
	})

	return result, nil
}
