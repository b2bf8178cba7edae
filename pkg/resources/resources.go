package resources

import "time"

type CategoryResource struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Tasks       []TaskResource `json:"tasks"`
}

type TaskResource struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Deadline       time.Time `json:"deadline"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	AssignedTo     string    `json:"assignedTo"`
	AssignedToName string    `json:"assignedToName"`
	ReportedBy     string    `json:"reportedBy"`
	ReportedByName string    `json:"reportedByName"`
	CategoryName   string    `json:"categoryName"`
}

// VersionResource describes one stored version of an entity.
type VersionResource struct {
	ID        string    `json:"id"`
	Version   uint      `json:"version"`
	ValidFrom time.Time `json:"validFrom"`
	ValidTo   time.Time `json:"validTo"`
	Current   bool      `json:"current"`
	Status    string    `json:"status"`
	Name      string    `json:"name"`
}
