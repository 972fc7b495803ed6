package context

import "context"

// Operation names the model call in progress.
type Operation struct {
	Model string
	Name  string
}

type operationContextKey struct{}

// WithOperation adds Operation to context.
func WithOperation(ctx context.Context, op *Operation) context.Context {
	return context.WithValue(ctx, operationContextKey{}, op)
}

// GetOperation returns Operation from context.
func GetOperation(ctx context.Context) *Operation {
	if v, ok := ctx.Value(operationContextKey{}).(*Operation); ok {
		return v
	}
	return nil
}
