package api

import "time"

type AttendeeDTO struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL,omitempty"`
	Status   string `json:"status"`
}

type ClassResponse struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Day       string        `json:"day"`
	Time      string        `json:"time"`
	Date      string        `json:"date"`
	Duration  int           `json:"duration"`
	Capacity  int           `json:"capacity"`
	Attendees []AttendeeDTO `json:"attendees"`
}

type SlotTemplate struct {
	Name     string `json:"name"`
	Day      string `json:"day"`
	Time     string `json:"time"`
	Duration int    `json:"duration"`
	Capacity int    `json:"capacity"`
}

type GenerateClassesRequest struct {
	StartDate string         `json:"start_date"`
	Slots     []SlotTemplate `json:"slots"`
}

type GenerateClassesResponse struct {
	Created int      `json:"created"`
	IDs     []string `json:"ids"`
}

type BookingRequest struct {
	ClassID  string `json:"class_id"`
	UID      string `json:"uid,omitempty"`
	Name     string `json:"name,omitempty"`
	PhotoURL string `json:"photoURL,omitempty"`
}

type BookingCancelRequest struct {
	ClassID string `json:"class_id"`
	UID     string `json:"uid,omitempty"`
}

type BookingMoveRequest struct {
	FromClassID string `json:"from_class_id"`
	ToClassID   string `json:"to_class_id"`
	UID         string `json:"uid,omitempty"`
}

type AttendanceSetRequest struct {
	ClassID  string `json:"class_id"`
	UID      string `json:"uid"`
	Attended bool   `json:"attended"`
}

type TopAttendee struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	Attended int    `json:"attended"`
}

type ProfileRequest struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
	DOB         string `json:"dob,omitempty"`
}

type ProfileResponse struct {
	UID         string    `json:"uid"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	PhotoURL    string    `json:"photoURL,omitempty"`
	DOB         string    `json:"dob,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ProfileSnapshot struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL,omitempty"`
}

type PropagationRequest struct {
	Before ProfileSnapshot `json:"before"`
	After  ProfileSnapshot `json:"after"`
}

type PropagationResponse struct {
	Updated int `json:"updated"`
}
