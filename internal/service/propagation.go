package service

import (
	"context"
	"fmt"
	"sort"

	"gym-service/internal/models"
	"gym-service/pkg/response"
)

// PropagatePhotoChange locates every class occurrence still carrying the old
// denormalized (uid, name, photoURL) snapshot and rewrites the photo field to
// the new value, all in one atomic batch. Status and the other attendee
// fields stay untouched.
//
// The containment query matches whole embedded records, so an attendee with
// no photo needs a second pass: candidates are fetched by uid and filtered in
// application code. The two result sets are de-duplicated by document id.
//
// The rewrite is a full-field overwrite, which makes the whole job
// idempotent: re-delivery of the same profile-update event converges to the
// same end state. Returns the number of documents updated.
func (s *Service) PropagatePhotoChange(ctx context.Context, before, after *models.UserProfile) (int, error) {
	const op = "service.PropagatePhotoChange"

	if before.PhotoURL == after.PhotoURL {
		return 0, nil
	}

	matched := make(map[string]*models.ClassOccurrence)

	if before.PhotoURL != "" {
		classes, err := s.store.FindByAttendeeSnapshot(ctx, before.UID, before.Name, before.PhotoURL)
		if err != nil {
			return 0, fmt.Errorf("%s: %w: %v", op, response.ErrPropagationFailed, err)
		}
		for _, c := range classes {
			matched[c.ID] = c
		}
	}

	// photo-absent snapshots: candidates by uid, filtered here
	candidates, err := s.store.FindByAttendeeUID(ctx, before.UID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", op, response.ErrPropagationFailed, err)
	}
	for _, c := range candidates {
		for _, a := range c.Attendees {
			if a.MatchesSnapshot(before.UID, before.Name, "") {
				matched[c.ID] = c
				break
			}
		}
	}

	if len(matched) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: begin tx: %v", op, response.ErrPropagationFailed, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	updated := 0

	for _, id := range ids {
		class, err := s.store.GetClassForUpdate(ctx, tx, id)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%s: %w: %v", op, response.ErrPropagationFailed, err)
		}

		changed := false
		attendees := make([]models.Attendee, len(class.Attendees))
		for i, a := range class.Attendees {
			if a.UID == before.UID && a.PhotoURL != after.PhotoURL {
				a.PhotoURL = after.PhotoURL
				changed = true
			}
			attendees[i] = a
		}

		if !changed {
			continue
		}

		if err := s.store.UpdateClassAttendees(ctx, tx, id, attendees); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("%s: %w: %v", op, response.ErrPropagationFailed, err)
		}

		updated++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w: commit: %v", op, response.ErrPropagationFailed, err)
	}

	return updated, nil
}
