package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadsync/internal/application/query"
	"leadsync/internal/application/store"
	"leadsync/internal/domain/ticket"
	"leadsync/internal/interfaces/http/handlers/testutil"
	apperrors "leadsync/internal/shared/errors"
)

type mockViewService struct {
	applyFn         func(ctx context.Context, view, rawQuery string) (bool, error)
	viewFn          func(view string) (store.View, error)
	urlFn           func(view string) (string, bool)
	groupTitle      string
	setGroupTitleFn func(ctx context.Context, title string) error
	refreshFn       func(ctx context.Context) error
}

func (m *mockViewService) Apply(ctx context.Context, view, rawQuery string) (bool, error) {
	if m.applyFn != nil {
		return m.applyFn(ctx, view, rawQuery)
	}
	return false, nil
}

func (m *mockViewService) View(view string) (store.View, error) {
	if m.viewFn != nil {
		return m.viewFn(view)
	}
	return store.View{Name: view}, nil
}

func (m *mockViewService) URL(view string) (string, bool) {
	if m.urlFn != nil {
		return m.urlFn(view)
	}
	return "", false
}

func (m *mockViewService) GroupTitle() string { return m.groupTitle }

func (m *mockViewService) SetGroupTitle(ctx context.Context, title string) error {
	if m.setGroupTitleFn != nil {
		if err := m.setGroupTitleFn(ctx, title); err != nil {
			return err
		}
	}
	m.groupTitle = title
	return nil
}

func (m *mockViewService) Refresh(ctx context.Context) error {
	if m.refreshFn != nil {
		return m.refreshFn(ctx)
	}
	return nil
}

type fixedUnread int

func (f fixedUnread) Value() int { return int(f) }

func newTestViewHandler(views *mockViewService) *ViewHandler {
	return NewViewHandler(views, fixedUnread(4), testutil.NewMockLogger())
}

func TestViewHandler_GetView(t *testing.T) {
	views := &mockViewService{
		viewFn: func(view string) (store.View, error) {
			return store.View{Name: view, Tickets: []*ticket.Ticket{{ID: 12}}, Total: 1}, nil
		},
		urlFn: func(string) (string, bool) { return "workflow=A&page=1", true },
	}
	h := newTestViewHandler(views)

	c, w := testutil.NewTestContext(http.MethodGet, "/api/views/table", nil)
	testutil.SetURLParam(c, "view", "table")
	h.GetView(c)

	require.Equal(t, http.StatusOK, w.Code)
	var got ViewResponse
	resp, err := testutil.DecodeData(w, &got)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "table", got.Name)
	assert.Equal(t, "workflow=A&page=1", got.URL)
	require.Len(t, got.Tickets, 1)
	assert.Equal(t, int64(12), got.Tickets[0].ID)
}

func TestViewHandler_UnknownViewIsNotFound(t *testing.T) {
	views := &mockViewService{
		viewFn: func(string) (store.View, error) { return store.View{}, query.ErrUnknownView },
		applyFn: func(context.Context, string, string) (bool, error) {
			return false, query.ErrUnknownView
		},
	}
	h := newTestViewHandler(views)

	c, w := testutil.NewTestContext(http.MethodGet, "/api/views/calendar", nil)
	testutil.SetURLParam(c, "view", "calendar")
	h.GetView(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = testutil.NewTestContext(http.MethodPut, "/api/views/calendar?page=2", nil)
	testutil.SetURLParam(c, "view", "calendar")
	h.ApplyView(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestViewHandler_ApplyViewPassesRawQuery(t *testing.T) {
	var gotView, gotQuery string
	views := &mockViewService{
		applyFn: func(_ context.Context, view, rawQuery string) (bool, error) {
			gotView, gotQuery = view, rawQuery
			return true, nil
		},
	}
	h := newTestViewHandler(views)

	c, w := testutil.NewTestContext(http.MethodPut, "/api/views/kanban?workflow=A&workflow=B&search=ion", nil)
	testutil.SetURLParam(c, "view", "kanban")
	h.ApplyView(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "kanban", gotView)
	assert.Equal(t, "workflow=A&workflow=B&search=ion", gotQuery)

	var got ApplyViewResponse
	_, err := testutil.DecodeData(w, &got)
	require.NoError(t, err)
	assert.True(t, got.Changed)
	assert.Equal(t, "kanban", got.View.Name)
}

func TestViewHandler_ApplyViewRequestError(t *testing.T) {
	views := &mockViewService{
		applyFn: func(context.Context, string, string) (bool, error) {
			return false, apperrors.FromStatus(http.StatusForbidden, "no access")
		},
	}
	h := newTestViewHandler(views)

	c, w := testutil.NewTestContext(http.MethodPut, "/api/views/table?page=1", nil)
	testutil.SetURLParam(c, "view", "table")
	h.ApplyView(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "no access", resp.Error.Message)
}

func TestViewHandler_Refresh(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "ok", wantStatus: http.StatusNoContent},
		{name: "failed", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestViewHandler(&mockViewService{
				refreshFn: func(context.Context) error { return tt.err },
			})
			c, w := testutil.NewTestContext(http.MethodPost, "/api/views/refresh", nil)
			h.Refresh(c)
			// gin writes the status lazily for bodiless responses
			c.Writer.WriteHeaderNow()
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestViewHandler_GroupTitle(t *testing.T) {
	views := &mockViewService{groupTitle: "MD"}
	h := newTestViewHandler(views)

	c, w := testutil.NewTestContext(http.MethodGet, "/api/group-title", nil)
	h.GetGroupTitle(c)
	var got GroupTitleResponse
	_, err := testutil.DecodeData(w, &got)
	require.NoError(t, err)
	assert.Equal(t, "MD", got.GroupTitle)

	c, w = testutil.NewTestContext(http.MethodPut, "/api/group-title", GroupTitleRequest{GroupTitle: "RO"})
	h.SetGroupTitle(c)
	require.Equal(t, http.StatusOK, w.Code)
	_, err = testutil.DecodeData(w, &got)
	require.NoError(t, err)
	assert.Equal(t, "RO", got.GroupTitle)

	c, w = testutil.NewTestContext(http.MethodPut, "/api/group-title", map[string]string{})
	h.SetGroupTitle(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	views.setGroupTitleFn = func(context.Context, string) error {
		return apperrors.NewForbiddenError("group title not accessible")
	}
	c, w = testutil.NewTestContext(http.MethodPut, "/api/group-title", GroupTitleRequest{GroupTitle: "UA"})
	h.SetGroupTitle(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "RO", views.groupTitle)
}

func TestViewHandler_GetUnread(t *testing.T) {
	h := newTestViewHandler(&mockViewService{})
	c, w := testutil.NewTestContext(http.MethodGet, "/api/unread", nil)
	h.GetUnread(c)

	var got UnreadResponse
	_, err := testutil.DecodeData(w, &got)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Unread)
}
