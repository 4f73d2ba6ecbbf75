package handlers

import (
	"context"

	"leadsync/internal/application/store"
)

// viewService drives the URL-bound views. *query.Orchestrator satisfies it.
type viewService interface {
	Apply(ctx context.Context, view, rawQuery string) (bool, error)
	View(view string) (store.View, error)
	URL(view string) (string, bool)
	GroupTitle() string
	SetGroupTitle(ctx context.Context, title string) error
	Refresh(ctx context.Context) error
}

type unreadReader interface {
	Value() int
}
