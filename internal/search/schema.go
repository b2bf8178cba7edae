// Package search turns caller-supplied criteria into a filter over the
// declared columns of one entity and, one level deep, its to-one relations.
package search

import (
	"fmt"
	"strings"

	"todo-service.com/todo-service/internal/constants"
	apperrors "todo-service.com/todo-service/internal/errors"
)

type FieldType int

const (
	TypeString FieldType = iota
	TypeEnum
	TypeInt
	TypeLong
	TypeDouble
	TypeFloat
	TypeTime
)

func (t FieldType) String() string {
	switch t {
	case TypeEnum:
		return "enum"
	case TypeInt:
		return "integer"
	case TypeLong:
		return "long"
	case TypeDouble:
		return "double"
	case TypeFloat:
		return "float"
	case TypeTime:
		return "timestamp"
	default:
		return "string"
	}
}

type Field struct {
	Column string
	Type   FieldType
	Enum   []string
}

type Relation struct {
	Alias  string
	Schema *Schema
	// On is the join condition; {root} and {alias} are replaced with the
	// owning table and the relation alias.
	On string
}

// Schema declares what an entity exposes to filtering and sorting.
type Schema struct {
	Entity        string
	Table         string
	Fields        map[string]Field
	Relations     map[string]Relation
	StatusField   string
	DeletedStatus string
	ValidToField  string
}

// Path is a resolved field reference.
type Path struct {
	Key      string
	Field    Field
	relation *Relation
	relName  string
	table    string
}

// Column returns the qualified column name.
func (p Path) Column() string {
	return p.table + "." + p.Field.Column
}

func (p Path) join(root string) (string, string, bool) {
	if p.relation == nil {
		return "", "", false
	}
	on := strings.NewReplacer("{root}", root, "{alias}", p.relation.Alias).Replace(p.relation.On)
	return p.relName, fmt.Sprintf("LEFT JOIN %s AS %s ON %s", p.relation.Schema.Table, p.relation.Alias, on), true
}

// Resolve looks up key, which is either "field" or "relation.field".
func (s *Schema) Resolve(key string) (Path, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Path{}, apperrors.InvalidSearchCriteria("Invalid search field: %q", key)
	}

	relName, fieldName, dotted := strings.Cut(key, ".")
	if !dotted {
		f, ok := s.Fields[key]
		if !ok {
			return Path{}, apperrors.InvalidSearchCriteria("Invalid search field: %s", key)
		}
		return Path{Key: key, Field: f, table: s.Table}, nil
	}

	rel, ok := s.Relations[relName]
	if !ok {
		return Path{}, apperrors.InvalidSearchCriteria("Invalid search field: %s", key)
	}
	f, ok := rel.Schema.Fields[fieldName]
	if !ok {
		return Path{}, apperrors.InvalidSearchCriteria("Invalid search field: %s", key)
	}
	return Path{Key: key, Field: f, relation: &rel, relName: relName, table: rel.Alias}, nil
}

// SortColumn returns the qualified column for a top-level sort key.
func (s *Schema) SortColumn(key string) (string, error) {
	f, ok := s.Fields[key]
	if !ok {
		return "", apperrors.InvalidSearchCriteria("Invalid sort field: %s", key)
	}
	return s.Table + "." + f.Column, nil
}

func enumValues[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

var CategorySchema = &Schema{
	Entity: "Category",
	Table:  "categories",
	Fields: map[string]Field{
		"id":          {Column: "id", Type: TypeString},
		"name":        {Column: "name", Type: TypeString},
		"description": {Column: "description", Type: TypeString},
		"status":      {Column: "status", Type: TypeEnum, Enum: enumValues(constants.CategoryStatuses)},
		"validFrom":   {Column: "valid_from", Type: TypeTime},
		"validTo":     {Column: "valid_to", Type: TypeTime},
		"version":     {Column: "version", Type: TypeLong},
	},
	StatusField:   "status",
	DeletedStatus: string(constants.CategoryDeleted),
	ValidToField:  "validTo",
}

var TaskSchema = &Schema{
	Entity: "Task",
	Table:  "tasks",
	Fields: map[string]Field{
		"id":          {Column: "id", Type: TypeString},
		"name":        {Column: "name", Type: TypeString},
		"description": {Column: "description", Type: TypeString},
		"deadline":    {Column: "deadline", Type: TypeTime},
		"status":      {Column: "status", Type: TypeEnum, Enum: enumValues(constants.TaskStatuses)},
		"priority":    {Column: "priority", Type: TypeEnum, Enum: enumValues(constants.TaskPriorities)},
		"assignedTo":  {Column: "assigned_to", Type: TypeString},
		"reportedBy":  {Column: "reported_by", Type: TypeString},
		"validFrom":   {Column: "valid_from", Type: TypeTime},
		"validTo":     {Column: "valid_to", Type: TypeTime},
		"version":     {Column: "version", Type: TypeLong},
	},
	Relations: map[string]Relation{
		"category": {
			Alias:  "category",
			Schema: CategorySchema,
			On:     "{alias}.id = {root}.category_id AND {alias}.valid_to = {root}.category_valid_to",
		},
	},
	StatusField:   "status",
	DeletedStatus: string(constants.TaskDeleted),
	ValidToField:  "validTo",
}
