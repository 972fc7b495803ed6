package softdelete

import (
	"context"

	"tombstone/internal/domain/filter"
	"tombstone/internal/domain/model"
	"tombstone/pkg/logger"
)

// Decision records which rule of the read filter applied.
type Decision string

const (
	// DecisionOptIn: the query set IncludeDeleted.
	DecisionOptIn Decision = "opt_in"
	// DecisionExplicit: the where tree already constrains the deleted flag.
	DecisionExplicit Decision = "explicit"
	// DecisionIdentifier: direct identifier access with IdentifierBypass on.
	DecisionIdentifier Decision = "identifier"
	// DecisionExcluded: the "not deleted" condition was injected.
	DecisionExcluded Decision = "excluded"
)

// FilterQuery applies the read policy to q in place and reports the rule used.
// Rules are checked in order: opt-in, explicit mention of the deleted flag
// anywhere in the tree, identifier bypass, and otherwise exclusion.
func (mx *Mixin) FilterQuery(q *filter.Query, idField string) Decision {
	if q.IncludeDeleted {
		return DecisionOptIn
	}
	if q.Where.HasField(mx.opts.IsDeletedField) {
		return DecisionExplicit
	}
	if mx.opts.IdentifierBypass && q.Where.HasTopLevelField(idField) {
		return DecisionIdentifier
	}

	w := q.EnsureWhere()
	if len(w.And) > 0 {
		w.And = append(w.And, filter.Eq(mx.opts.IsDeletedField, false))
	} else {
		w.Set(mx.opts.IsDeletedField, filter.Equal, false)
	}
	return DecisionExcluded
}

func (mx *Mixin) filterReads(ctx context.Context, ac *model.AccessContext) error {
	decision := mx.FilterQuery(ac.Query, ac.Model.IDField())
	logger.Debug(ctx, "read filter", "decision", string(decision))
	return nil
}
