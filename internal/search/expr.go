package search

import (
	"strings"

	apperrors "todo-service.com/todo-service/internal/errors"
	"todo-service.com/todo-service/pkg/resources"
)

type Operator string

const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpLike         Operator = "LIKE"
)

// ParseOperator accepts the wire spelling of an operator; ":" is an alias
// for LIKE.
func ParseOperator(s string) (Operator, error) {
	switch op := strings.ToUpper(strings.TrimSpace(s)); op {
	case "=", "!=", ">", ">=", "<", "<=":
		return Operator(op), nil
	case "LIKE", ":":
		return OpLike, nil
	}
	return "", apperrors.InvalidSearchCriteria("Operation %s is not supported", s)
}

// Expr is a node of a filter expression: either a Cond or an And.
type Expr interface {
	isExpr()
}

// Cond compares one resolved field against an already typed value.
type Cond struct {
	Path  Path
	Op    Operator
	Value any
}

// And matches when every term matches. An empty And matches everything.
type And struct {
	Terms []Expr
}

func (Cond) isExpr() {}
func (And) isExpr()  {}

// All returns the identity filter.
func All() Expr {
	return And{}
}

// Conj flattens its arguments into a single And.
func Conj(exprs ...Expr) Expr {
	var terms []Expr
	for _, e := range exprs {
		switch v := e.(type) {
		case nil:
		case And:
			terms = append(terms, v.Terms...)
		default:
			terms = append(terms, v)
		}
	}
	return And{Terms: terms}
}

// Where builds a condition on key, coercing value to the field's type.
func (s *Schema) Where(key string, op Operator, value any) (Expr, error) {
	path, err := s.Resolve(key)
	if err != nil {
		return nil, err
	}
	typed, err := Coerce(value, path.Field)
	if err != nil {
		return nil, err
	}
	return Cond{Path: path, Op: op, Value: typed}, nil
}

// Parse converts caller criteria into a single conjunction. Any unknown
// field, operator or unconvertible value rejects the whole list.
func (s *Schema) Parse(criteria []resources.Criteria) (Expr, error) {
	terms := make([]Expr, 0, len(criteria))
	for _, c := range criteria {
		op, err := ParseOperator(c.Operation)
		if err != nil {
			return nil, err
		}
		cond, err := s.Where(c.Key, op, c.Value)
		if err != nil {
			return nil, err
		}
		terms = append(terms, cond)
	}
	return And{Terms: terms}, nil
}

// Current is the base filter of every list: current version, not deleted.
func (s *Schema) Current() Expr {
	status, err := s.Resolve(s.StatusField)
	if err != nil {
		panic("search: schema " + s.Entity + " has no status field")
	}
	validTo, err := s.Resolve(s.ValidToField)
	if err != nil {
		panic("search: schema " + s.Entity + " has no validTo field")
	}
	return And{Terms: []Expr{
		Cond{Path: status, Op: OpNotEqual, Value: s.DeletedStatus},
		Cond{Path: validTo, Op: OpEqual, Value: infinite()},
	}}
}
