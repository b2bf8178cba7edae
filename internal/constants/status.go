package constants

type TaskStatus string

const (
	TaskCreated    TaskStatus = "CREATED"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskBlocked    TaskStatus = "BLOCKED"
	TaskHold       TaskStatus = "HOLD"
	TaskInactive   TaskStatus = "INACTIVE"
	TaskDeleted    TaskStatus = "DELETED"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskClosed     TaskStatus = "CLOSED"
)

// TaskStatuses lists every task status in declaration order.
var TaskStatuses = []TaskStatus{
	TaskCreated,
	TaskInProgress,
	TaskBlocked,
	TaskHold,
	TaskInactive,
	TaskDeleted,
	TaskCompleted,
	TaskClosed,
}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s TaskStatus) Terminal() bool {
	return s == TaskDeleted
}

type TaskPriority string

const (
	PriorityLow      TaskPriority = "LOW"
	PriorityMedium   TaskPriority = "MEDIUM"
	PriorityHigh     TaskPriority = "HIGH"
	PriorityCritical TaskPriority = "CRITICAL"
)

var TaskPriorities = []TaskPriority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityCritical,
}

func (p TaskPriority) Valid() bool {
	for _, v := range TaskPriorities {
		if v == p {
			return true
		}
	}
	return false
}

type CategoryStatus string

const (
	CategoryActive  CategoryStatus = "ACTIVE"
	CategoryDeleted CategoryStatus = "DELETED"
)

var CategoryStatuses = []CategoryStatus{
	CategoryActive,
	CategoryDeleted,
}

func (s CategoryStatus) Valid() bool {
	return s == CategoryActive || s == CategoryDeleted
}
