package models

import "time"

// Infinite is the validTo of the current version of every entity.
var Infinite = time.Date(9999, time.December, 31, 12, 0, 0, 0, time.UTC)

// TimestampLayout is the text form sqlite stores time values in. Partial
// indexes compare against Infinite rendered in this layout.
const TimestampLayout = "2006-01-02 15:04:05.999999999-07:00"

// InfiniteLiteral returns Infinite as a quoted SQL literal.
func InfiniteLiteral() string {
	return "'" + Infinite.Format(TimestampLayout) + "'"
}

// Versioned is the bitemporal block shared by every stored entity. A row is
// identified by (ID, ValidTo); all rows with the same ID are versions of one
// logical entity and at most one of them carries ValidTo == Infinite.
type Versioned struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ValidTo   time.Time `gorm:"primaryKey" json:"validTo"`
	ValidFrom time.Time `gorm:"not null" json:"validFrom"`
	Version   uint      `gorm:"not null;default:1" json:"version"`
}

// Meta exposes the versioning block to the store.
func (v *Versioned) Meta() *Versioned {
	return v
}

// Current reports whether this row is the version in effect.
func (v Versioned) Current() bool {
	return v.ValidTo.Equal(Infinite)
}

// Successor returns the versioning block of the row that replaces v at now.
func (v Versioned) Successor(now time.Time) Versioned {
	return Versioned{
		ID:        v.ID,
		ValidFrom: now,
		ValidTo:   Infinite,
		Version:   v.Version + 1,
	}
}

// Opened returns the versioning block of a brand-new entity.
func Opened(id string, now time.Time) Versioned {
	return Versioned{
		ID:        id,
		ValidFrom: now,
		ValidTo:   Infinite,
		Version:   1,
	}
}
