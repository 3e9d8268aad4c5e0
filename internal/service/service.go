package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gym-service/api"
	"gym-service/internal/lock"
	"gym-service/internal/models"
	"gym-service/internal/storage"
	"gym-service/pkg/response"

	"github.com/google/uuid"
)

type Service struct {
	store  Store
	locker lock.Locker
}

func NewService(store Store, locker lock.Locker) *Service {
	return &Service{store: store, locker: locker}
}

type Store interface {
	BeginTx(ctx context.Context) (storage.Tx, error)

	// Class Registry
	CreateClass(ctx context.Context, tx storage.Tx, c *models.ClassOccurrence) (bool, error)
	GetClass(ctx context.Context, id string) (*models.ClassOccurrence, error)
	GetClassForUpdate(ctx context.Context, tx storage.Tx, id string) (*models.ClassOccurrence, error)
	UpdateClassAttendees(ctx context.Context, tx storage.Tx, id string, attendees []models.Attendee) error
	FindByDayTime(ctx context.Context, day, startTime string) ([]*models.ClassOccurrence, error)
	FindByDateRange(ctx context.Context, from, to string) ([]*models.ClassOccurrence, error)
	FindByAttendeeSnapshot(ctx context.Context, uid, name, photoURL string) ([]*models.ClassOccurrence, error)
	FindByAttendeeUID(ctx context.Context, uid string) ([]*models.ClassOccurrence, error)

	// Profiles
	CreateProfile(ctx context.Context, tx storage.Tx, p *models.UserProfile) error
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	GetProfileByName(ctx context.Context, name string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, tx storage.Tx, p *models.UserProfile) error
}

const lockTTL = 10 * time.Second

func classResponse(c *models.ClassOccurrence) *api.ClassResponse {
	attendees := make([]api.AttendeeDTO, 0, len(c.Attendees))
	for _, a := range c.Attendees {
		attendees = append(attendees, api.AttendeeDTO{
			UID:      a.UID,
			Name:     a.Name,
			PhotoURL: a.PhotoURL,
			Status:   string(a.Status),
		})
	}

	return &api.ClassResponse{
		ID:        c.ID,
		Name:      c.Name,
		Day:       c.Day,
		Time:      c.Time,
		Date:      c.Date,
		Duration:  c.Duration,
		Capacity:  c.Capacity,
		Attendees: attendees,
	}
}

// Classes

func (s *Service) GetClass(ctx context.Context, id string) (*api.ClassResponse, error) {
	const op = "service.GetClass"

	c, err := s.store.GetClass(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return classResponse(c), nil
}

// GetClassRecord returns the raw occurrence. The attendance handler reads it
// to evaluate the class-has-ended precondition before allowing a status flip.
func (s *Service) GetClassRecord(ctx context.Context, id string) (*models.ClassOccurrence, error) {
	const op = "service.GetClassRecord"

	c, err := s.store.GetClass(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

func (s *Service) ListClassesByDateRange(ctx context.Context, from, to string) ([]*api.ClassResponse, error) {
	const op = "service.ListClassesByDateRange"

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

	result := make([]*api.ClassResponse, 0, len(classes))
	for _, c := range classes {
		result = append(result, classResponse(c))
	}

	return result, nil
}

func (s *Service) ListClassesByDayTime(ctx context.Context, day, startTime string) ([]*api.ClassResponse, error) {
	const op = "service.ListClassesByDayTime"

	classes, err := s.store.FindByDayTime(ctx, day, startTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.ClassResponse, 0, len(classes))
	for _, c := range classes {
		result = append(result, classResponse(c))
	}

	return result, nil
}

// CreateClass registers an ad-hoc occurrence outside the weekly grid. Its id
// is issued at creation.
func (s *Service) CreateClass(ctx context.Context, req *api.SlotTemplate, date string) (*api.ClassResponse, error) {
	const op = "service.CreateClass"

	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%s: invalid date: %w", op, err)
	}
	if _, err := time.Parse("15:04", req.Time); err != nil {
		return nil, fmt.Errorf("%s: invalid time: %w", op, err)
	}
	if req.Capacity <= 0 {
		return nil, fmt.Errorf("%s: capacity must be positive: %w", op, response.ErrBadRequest)
	}

	c := &models.ClassOccurrence{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Day:       req.Day,
		Time:      req.Time,
		Date:      date,
		Duration:  req.Duration,
		Capacity:  req.Capacity,
		Attendees: []models.Attendee{},
	}

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

	if _, err := s.store.CreateClass(ctx, tx, c); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetClass(ctx, c.ID)
}

// MaterializeWeek creates the occurrences for every slot of the static weekly
// grid within the week containing startDate. Recurring slots carry the
// deterministic id derived from (day, start time), so re-running over an
// already materialized week leaves existing documents untouched.
func (s *Service) MaterializeWeek(ctx context.Context, startDate string, slots []api.SlotTemplate) ([]string, error) {
	const op = "service.MaterializeWeek"

	weekStart, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid start_date: %w", op, err)
	}

	// normalize to the Monday of that week
	offset := (int(weekStart.Weekday()) + 6) % 7
	weekStart = weekStart.AddDate(0, 0, -offset)

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

	var created []string

	for _, slot := range slots {
		wd, ok := parseWeekdayFlexible(slot.Day)
		if !ok {
			_ = tx.Rollback()
			return nil, fmt.Errorf("%s: invalid day %q", op, slot.Day)
		}

		if _, err := time.Parse("15:04", slot.Time); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("%s: invalid time %q: %w", op, slot.Time, err)
		}

		if slot.Capacity <= 0 {
			_ = tx.Rollback()
			return nil, fmt.Errorf("%s: capacity must be positive for %q", op, slot.Name)
		}

		dayOffset := (int(wd) + 6) % 7
		date := weekStart.AddDate(0, 0, dayOffset)

		c := &models.ClassOccurrence{
			ID:        SlotID(slot.Day, slot.Time),
			Name:      slot.Name,
			Day:       slot.Day,
			Time:      slot.Time,
			Date:      date.Format("2006-01-02"),
			Duration:  slot.Duration,
			Capacity:  slot.Capacity,
			Attendees: []models.Attendee{},
		}

		inserted, err := s.store.CreateClass(ctx, tx, c)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("%s: create class: %w", op, err)
		}
		if inserted {
			created = append(created, c.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return created, nil
}

// SlotID derives the stable identifier of a recurring grid slot from its
// day of week and start time, e.g. "lunes-0930".
func SlotID(day, startTime string) string {
	return strings.ToLower(day) + "-" + strings.ReplaceAll(startTime, ":", "")
}

// parseWeekdayFlexible accepts the day spellings that end up in slot
// templates: "mon", "monday", "lunes", "1", "0" and so on (0 = Sunday).
func parseWeekdayFlexible(s string) (time.Weekday, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n <= 6 {
			return time.Weekday(n), true
		}
		if n == 7 {
			return time.Sunday, true
		}
		return 0, false
	}

	switch s {
	case "sun", "sunday", "domingo":
		return time.Sunday, true
	case "mon", "monday", "lunes":
		return time.Monday, true
	case "tue", "tues", "tuesday", "martes":
		return time.Tuesday, true
	case "wed", "wednesday", "miercoles", "miércoles":
		return time.Wednesday, true
	case "thu", "thur", "thursday", "jueves":
		return time.Thursday, true
	case "fri", "friday", "viernes":
		return time.Friday, true
	case "sat", "saturday", "sabado", "sábado":
		return time.Saturday, true
	default:
		return 0, false
	}
}

// Profiles

func profileResponse(p *models.UserProfile) *api.ProfileResponse {
	return &api.ProfileResponse{
		UID:         p.UID,
		Name:        p.Name,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
		PhotoURL:    p.PhotoURL,
		DOB:         p.DOB,
		CreatedAt:   p.CreatedAt,
	}
}

func (s *Service) GetProfile(ctx context.Context, uid string) (*api.ProfileResponse, error) {
	const op = "service.GetProfile"

	p, err := s.store.GetProfile(ctx, uid)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return profileResponse(p), nil
}

func (s *Service) CreateProfile(ctx context.Context, req *api.ProfileRequest) (*api.ProfileResponse, error) {
	const op = "service.CreateProfile"

	if req.UID == "" || req.Name == "" {
		return nil, fmt.Errorf("%s: uid and name are required: %w", op, response.ErrBadRequest)
	}

	// name uniqueness is enforced here, not by the store
	existing, err := s.store.GetProfileByName(ctx, req.Name)
	if err != nil && !errors.Is(err, response.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%s: name already taken: %w", op, response.ErrConflict)
	}

	p := &models.UserProfile{
		UID:         req.UID,
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		PhotoURL:    req.PhotoURL,
		DOB:         req.DOB,
		CreatedAt:   time.Now().UTC(),
	}

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

	if err := s.store.CreateProfile(ctx, tx, p); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, response.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrConflict)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetProfile(ctx, p.UID)
}

// UpdateProfile rewrites the source-of-truth profile and, when the photo
// changed, runs the propagation job so denormalized attendee copies converge.
// A propagation failure is surfaced to the caller, never swallowed: partial
// propagation means visible, permanent staleness.
func (s *Service) UpdateProfile(ctx context.Context, sess *models.Session, req *api.ProfileRequest) (*api.ProfileResponse, error) {
	const op = "service.UpdateProfile"

	if !sess.CanActFor(req.UID) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	before, err := s.store.GetProfile(ctx, req.UID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.Name != before.Name {
		existing, err := s.store.GetProfileByName(ctx, req.Name)
		if err != nil && !errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if existing != nil && existing.UID != req.UID {
			return nil, fmt.Errorf("%s: name already taken: %w", op, response.ErrConflict)
		}
	}

	after := &models.UserProfile{
		UID:         req.UID,
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		PhotoURL:    req.PhotoURL,
		DOB:         req.DOB,
		CreatedAt:   before.CreatedAt,
	}

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

	if err := s.store.UpdateProfile(ctx, tx, after); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	if before.PhotoURL != after.PhotoURL {
		if _, err := s.PropagatePhotoChange(ctx, before, after); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return s.GetProfile(ctx, req.UID)
}
