package models

import (
	"time"
)

type AttendeeStatus string

const (
	ATTENDEE_RESERVED AttendeeStatus = "reservado"
	ATTENDEE_ATTENDED AttendeeStatus = "asistido"
)

// Attendee is a denormalized snapshot of a user's profile inside one class
// occurrence. The existence of an Attendee with uid=X inside class C is the
// booking of X into C, there is no separate booking table.
type Attendee struct {
	UID      string         `json:"uid" db:"uid"`
	Name     string         `json:"name" db:"name"`
	PhotoURL string         `json:"photoURL,omitempty" db:"photo_url"`
	Status   AttendeeStatus `json:"status" db:"status"`
}

// Equal compares all fields, status included. The propagation queries match
// whole embedded records, so structural equality is the contract.
func (a Attendee) Equal(other Attendee) bool {
	return a.UID == other.UID &&
		a.Name == other.Name &&
		a.PhotoURL == other.PhotoURL &&
		a.Status == other.Status
}

// MatchesSnapshot reports whether this attendee carries the given profile
// snapshot, ignoring status. Used to locate stale denormalized copies.
func (a Attendee) MatchesSnapshot(uid, name, photoURL string) bool {
	return a.UID == uid && a.Name == name && a.PhotoURL == photoURL
}

type ClassOccurrence struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Day       string     `json:"day" db:"day"`
	Time      string     `json:"time" db:"time"`
	Date      string     `json:"date" db:"date"`
	Duration  int        `json:"duration" db:"duration"`
	Capacity  int        `json:"capacity" db:"capacity"`
	Attendees []Attendee `json:"attendees" db:"attendees"`
}

func (c *ClassOccurrence) FindAttendee(uid string) (int, bool) {
	for i, a := range c.Attendees {
		if a.UID == uid {
			return i, true
		}
	}

	return -1, false
}

// Ended reports whether the scheduled end of the occurrence is before now.
// Date is "2006-01-02", Time is "15:04", Duration is minutes.
func (c *ClassOccurrence) Ended(now time.Time) bool {
	start, err := time.ParseInLocation("2006-01-02 15:04", c.Date+" "+c.Time, now.Location())
	if err != nil {
		return false
	}

	return start.Add(time.Duration(c.Duration) * time.Minute).Before(now)
}

type UserProfile struct {
	UID         string    `json:"uid" db:"uid"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email,omitempty" db:"email"`
	PhoneNumber string    `json:"phoneNumber,omitempty" db:"phone_number"`
	PhotoURL    string    `json:"photoURL,omitempty" db:"photo_url"`
	DOB         string    `json:"dob,omitempty" db:"dob"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Session is the explicit identity object passed into every operation.
// It replaces any ambient current-user singleton.
type Session struct {
	UID      string
	Name     string
	PhotoURL string
	Admin    bool
}

// CanActFor reports whether the session may book/cancel on behalf of uid.
// Admins act for anyone, everyone else only for themselves.
func (s *Session) CanActFor(uid string) bool {
	if s == nil {
		return false
	}
	if s.Admin {
		return true
	}

	return s.UID == uid
}
