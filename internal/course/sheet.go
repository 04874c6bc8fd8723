// Package course holds editable course sheets: ordered lists of course
// entries whose last calculation is discarded whenever the list changes.
package course

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"gpa-calculator/internal/gpa"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrLastCourse     = errors.New("cannot remove the last course")
)

// Patch changes the non-nil fields of a course entry.
type Patch struct {
	Name    *string `json:"name,omitempty"`
	GPA     *string `json:"gpa,omitempty"`
	Credits *string `json:"credits,omitempty"`
}

// Outcome is a finished calculation: either Result or Err is meaningful.
type Outcome struct {
	Result gpa.Result
	Err    error
}

type Sheet struct {
	ID string

	mu      sync.Mutex
	courses []gpa.CourseEntry
	last    *Outcome
}

// NewSheet returns a sheet holding a single empty course.
func NewSheet() *Sheet {
	return &Sheet{
		ID:      uuid.NewString(),
		courses: []gpa.CourseEntry{newEntry()},
	}
}

func newEntry() gpa.CourseEntry {
	return gpa.CourseEntry{ID: uuid.NewString()}
}

func (s *Sheet) Courses() []gpa.CourseEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gpa.CourseEntry(nil), s.courses...)
}

func (s *Sheet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.courses)
}

// Add appends an empty course and returns it.
func (s *Sheet) Add() gpa.CourseEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := newEntry()
	s.courses = append(s.courses, entry)
	s.last = nil
	return entry
}

func (s *Sheet) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrCourseNotFound
	}
	if len(s.courses) == 1 {
		return ErrLastCourse
	}
	s.courses = append(s.courses[:i], s.courses[i+1:]...)
	s.last = nil
	return nil
}

func (s *Sheet) Update(id string, p Patch) (gpa.CourseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return gpa.CourseEntry{}, ErrCourseNotFound
	}
	entry := &s.courses[i]
	if p.Name != nil {
		entry.Name = *p.Name
	}
	if p.GPA != nil {
		entry.GPAText = *p.GPA
	}
	if p.Credits != nil {
		entry.CreditsText = *p.Credits
	}
	s.last = nil
	return *entry, nil
}

// Calculate runs the engine over the current courses and keeps the outcome
// until the next change to the sheet.
func (s *Sheet) Calculate() (gpa.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := gpa.Compute(s.courses)
	s.last = &Outcome{Result: res, Err: err}
	return res, err
}

// Last returns the most recent calculation. ok is false when nothing has been
// calculated since the sheet last changed.
func (s *Sheet) Last() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return Outcome{}, false
	}
	return *s.last, true
}

func (s *Sheet) indexOf(id string) int {
	for i, c := range s.courses {
		if c.ID == id {
			return i
		}
	}
	return -1
}
