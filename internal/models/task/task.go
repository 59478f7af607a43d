package task

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Task struct {
	ID               int64      `json:"id" db:"id"`
	Title            string     `json:"title" db:"title"`
	Description      *string    `json:"description,omitempty" db:"description"`
	Priority         Priority   `json:"priority" db:"priority"`
	Category         Category   `json:"category" db:"category"`
	DueDate          *time.Time `json:"dueDate,omitempty" db:"due_date"`
	Tags             []string   `json:"tags" db:"tags"`
	AssignedTo       *string    `json:"assignedTo,omitempty" db:"assigned_to"`
	UserID           string     `json:"userId" db:"user_id"`
	Completed        bool       `json:"completed" db:"completed"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" db:"updated_at"`
	CreatedBy        string     `json:"createdBy,omitempty" db:"created_by"`
	UpdatedBy        string     `json:"updatedBy,omitempty" db:"updated_by"`
	ConcurrencyToken string     `json:"concurrencyToken,omitempty" db:"concurrency_token"`
}

// Clone returns a deep copy so callers can't mutate stored state through shared pointers.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.AssignedTo != nil {
		a := *t.AssignedTo
		c.AssignedTo = &a
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	c.Tags = append([]string{}, t.Tags...)
	return &c
}

func (t *Task) HasTag(tag string) bool {
	for _, v := range t.Tags {
		if v == tag {
			return true
		}
	}
	return false
}

// Priority values follow declaration order; zero means "not set".
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

var priorityNames = map[Priority]string{
	PriorityLow:    "Low",
	PriorityMedium: "Medium",
	PriorityHigh:   "High",
	PriorityUrgent: "Urgent",
}

func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return strconv.Itoa(int(p))
}

// ParsePriority accepts a case-insensitive name or the declaration-order number.
func ParsePriority(s string) (Priority, bool) {
	s = strings.TrimSpace(s)
	for p, name := range priorityNames {
		if strings.EqualFold(name, s) {
			return p, true
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Priority(n).Valid() {
		return Priority(n), true
	}
	return 0, false
}

func (p Priority) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	v, err := unmarshalEnum(data, func(s string) (int, bool) {
		parsed, ok := ParsePriority(s)
		return int(parsed), ok
	})
	if err != nil {
		return fmt.Errorf("priority: %w", err)
	}
	*p = Priority(v)
	return nil
}

// Category values follow declaration order; zero means "not set".
type Category int

const (
	CategoryWork Category = iota + 1
	CategoryPersonal
	CategoryStudy
	CategoryHealth
	CategoryOther
)

var categoryNames = map[Category]string{
	CategoryWork:     "Work",
	CategoryPersonal: "Personal",
	CategoryStudy:    "Study",
	CategoryHealth:   "Health",
	CategoryOther:    "Other",
}

func Categories() []Category {
	return []Category{CategoryWork, CategoryPersonal, CategoryStudy, CategoryHealth, CategoryOther}
}

func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return strconv.Itoa(int(c))
}

func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for c, name := range categoryNames {
		if strings.EqualFold(name, s) {
			return c, true
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Category(n).Valid() {
		return Category(n), true
	}
	return 0, false
}

func (c Category) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(data []byte) error {
	v, err := unmarshalEnum(data, func(s string) (int, bool) {
		parsed, ok := ParseCategory(s)
		return int(parsed), ok
	})
	if err != nil {
		return fmt.Errorf("category: %w", err)
	}
	*c = Category(v)
	return nil
}

// unmarshalEnum keeps out-of-range numbers so validation can report them.
func unmarshalEnum(data []byte, parse func(string) (int, bool)) (int, error) {
	if string(data) == "null" {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, fmt.Errorf("expected string or number, got %s", string(data))
	}
	v, ok := parse(s)
	if !ok {
		return 0, fmt.Errorf("unknown value %q", s)
	}
	return v, nil
}
