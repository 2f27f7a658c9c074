package model

import "time"

// DateLayout is the ISO calendar date format used for deadlines.
const DateLayout = "2006-01-02"

// Priority is an Eisenhower-style importance/urgency category.
type Priority string

const (
	PriorityPU   Priority = "PU"
	PriorityPTU  Priority = "PTU"
	PriorityUTP  Priority = "UTP"
	PriorityTUTP Priority = "TUTP"
)

// Priorities lists every priority in display order.
var Priorities = []Priority{PriorityPU, PriorityPTU, PriorityUTP, PriorityTUTP}

var priorityLabels = map[Priority]string{
	PriorityPU:   "Penting & Urgent",
	PriorityPTU:  "Penting & Tdk Urgent",
	PriorityUTP:  "Urgent & Tdk Penting",
	PriorityTUTP: "Tdk Urgent & Tdk Penting",
}

// Valid reports whether p is one of the four known priorities.
func (p Priority) Valid() bool {
	_, ok := priorityLabels[p]
	return ok
}

func (p Priority) Label() string {
	if label, ok := priorityLabels[p]; ok {
		return label
	}
	return string(p)
}

// Status is the workflow state of a task. Any status may follow any other.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

var statusLabels = map[Status]string{
	StatusTodo:       "To Do",
	StatusInProgress: "In Progress",
	StatusDone:       "Selesai",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Task is a single item filed under an area.
type Task struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AreaID      uint      `gorm:"index" json:"area_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `gorm:"index" json:"priority"`
	Deadline    string    `gorm:"index" json:"deadline"` // YYYY-MM-DD
	Status      Status    `gorm:"default:todo" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
