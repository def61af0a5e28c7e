package registry

import (
	"context"
	"fmt"
)

// Registry stores subscribers and their optional display alias.
type Registry interface {
	ListRecipients(ctx context.Context) ([]int64, error)
	// UpsertAlias registers id if unknown and sets its alias; an empty alias clears it.
	UpsertAlias(ctx context.Context, id int64, alias string) error
	GetAlias(ctx context.Context, id int64) (alias string, ok bool, err error)
	Close() error
}

// Error reports a failed registry operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("registry %s: %v", e.Op, e.Err) }

func (e *Error) Unwrap() error { return e.Err }
