package softdelete

import "time"

// Options configures the soft-delete behaviour of one model.
type Options struct {
	// DeletedAtField / IsDeletedField are the model field names.
	DeletedAtField string
	IsDeletedField string

	// DeletedAtColumn / IsDeletedColumn are the storage columns.
	DeletedAtColumn string
	IsDeletedColumn string

	// GuardAlreadyDeleted conjoins "isDeleted = false" to every rewritten
	// delete so a record keeps the timestamp of its first deletion.
	GuardAlreadyDeleted bool

	// IdentifierBypass lets reads that constrain the identifier at the top
	// level of the where tree see deleted records.
	IdentifierBypass bool

	// Now is the clock used for deletedAt. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the guarded, identifier-bypass configuration.
func DefaultOptions() Options {
	return Options{
		DeletedAtField:      "deletedAt",
		IsDeletedField:      "isDeleted",
		DeletedAtColumn:     "deleted_at",
		IsDeletedColumn:     "is_deleted",
		GuardAlreadyDeleted: true,
		IdentifierBypass:    true,
		Now:                 time.Now,
	}
}

// withDefaults fills empty names and the clock; boolean switches are kept as given.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DeletedAtField == "" {
		o.DeletedAtField = d.DeletedAtField
	}
	if o.IsDeletedField == "" {
		o.IsDeletedField = d.IsDeletedField
	}
	if o.DeletedAtColumn == "" {
		o.DeletedAtColumn = d.DeletedAtColumn
	}
	if o.IsDeletedColumn == "" {
		o.IsDeletedColumn = d.IsDeletedColumn
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}
