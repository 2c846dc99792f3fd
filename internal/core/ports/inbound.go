package ports

import "context"

// DocumentEvaluator runs the full decision pipeline for one document
// and marks it done on success.
type DocumentEvaluator interface {
	Evaluate(ctx context.Context, documentID int) error
}
