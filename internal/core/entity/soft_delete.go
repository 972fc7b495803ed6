package entity

import "time"

// SoftDeleteState is the pair of fields carried by every soft-deletable record.
type SoftDeleteState struct {
	// DeletedAt is set when the record is soft-deleted
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt"`

	// IsDeleted mirrors DeletedAt != nil
	IsDeleted bool `db:"is_deleted" json:"isDeleted"`
}

// StateOf reads the soft-delete pair out of a record.
func StateOf(r Record, deletedAtField, isDeletedField string) SoftDeleteState {
	return SoftDeleteState{
		DeletedAt: r.Time(deletedAtField),
		IsDeleted: r.Bool(isDeletedField),
	}
}

// Consistent reports whether IsDeleted is true exactly when DeletedAt is set.
func (s SoftDeleteState) Consistent() bool {
	return s.IsDeleted == (s.DeletedAt != nil)
}

// Deleted returns the patch that soft-deletes a record at the given instant.
func Deleted(at time.Time, deletedAtField, isDeletedField string) Record {
	return Record{deletedAtField: at, isDeletedField: true}
}

// Restored returns the patch that clears a soft delete.
func Restored(deletedAtField, isDeletedField string) Record {
	return Record{deletedAtField: nil, isDeletedField: false}
}
