package search

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"todo-service.com/todo-service/internal/models"
)

func infinite() time.Time {
	return models.Infinite
}

// Filter is a compiled expression ready to be applied to a gorm query.
type Filter struct {
	Where string
	Args  []any
	Joins []string
}

// Compile renders expr as SQL over s.Table.
func (s *Schema) Compile(expr Expr) Filter {
	c := compiler{root: s.Table, seen: map[string]bool{}}
	where := c.expr(expr)
	return Filter{Where: where, Args: c.args, Joins: c.joins}
}

// Scope returns a gorm scope applying the compiled filter.
func (f Filter) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, j := range f.Joins {
			db = db.Joins(j)
		}
		if f.Where != "" {
			db = db.Where(f.Where, f.Args...)
		}
		return db
	}
}

type compiler struct {
	root  string
	args  []any
	joins []string
	seen  map[string]bool
}

func (c *compiler) expr(e Expr) string {
	switch v := e.(type) {
	case Cond:
		return c.cond(v)
	case And:
		parts := make([]string, 0, len(v.Terms))
		for _, t := range v.Terms {
			if s := c.expr(t); s != "" {
				parts = append(parts, s)
			}
		}
		switch len(parts) {
		case 0:
			return ""
		case 1:
			return parts[0]
		}
		return "(" + strings.Join(parts, " AND ") + ")"
	}
	panic(fmt.Sprintf("search: unknown expression %T", e))
}

func (c *compiler) cond(cond Cond) string {
	if name, join, ok := cond.Path.join(c.root); ok && !c.seen[name] {
		c.seen[name] = true
		c.joins = append(c.joins, join)
	}

	col := cond.Path.Column()
	if cond.Op == OpLike {
		c.args = append(c.args, "%"+escapeLike(strings.ToLower(likeText(cond.Value)))+"%")
		return fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, col)
	}

	c.args = append(c.args, cond.Value)
	return fmt.Sprintf("%s %s ?", col, sqlOperator(cond.Op))
}

func sqlOperator(op Operator) string {
	if op == OpNotEqual {
		return "<>"
	}
	return string(op)
}

func likeText(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(models.TimestampLayout)
	}
	return fmt.Sprint(v)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
