package repository

type lookup struct {
	includeDeleted bool
}

// LookupOption tunes how a current-version lookup treats soft-deleted rows.
type LookupOption func(*lookup)

// IncludeDeleted makes a lookup return the current row even when it is a
// DELETED tombstone. Without it such a row reads as not found.
func IncludeDeleted() LookupOption {
	return func(l *lookup) {
		l.includeDeleted = true
	}
}

func applyLookup(opts []LookupOption) lookup {
	var l lookup
	for _, opt := range opts {
		opt(&l)
	}
	return l
}
