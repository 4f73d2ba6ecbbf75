package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadsync/internal/application/session"
	"leadsync/internal/domain/user"
	"leadsync/internal/interfaces/http/handlers/testutil"
	"leadsync/internal/shared/notify"
)

func newTestSessions() *session.Holder {
	return session.NewHolder(session.New(&user.Profile{
		ID:          7,
		Roles:       []string{"ROLE_LEADS_EDIT_TEAM", "ROLE_LEADS_VIEW_ALLOWED", "ROLE_CHAT_VIEW_IF_RESPONSIBLE"},
		TeamMembers: []int64{8},
		Groups:      []user.Group{{Name: "sales", GroupTitles: []string{"MD"}}},
	}, []string{"A"}, nil))
}

func TestPermissionHandler_CheckPermission(t *testing.T) {
	tests := []struct {
		name        string
		body        interface{}
		wantStatus  int
		wantAllowed bool
		wantLevel   string
		wantStrict  bool
	}{
		{
			name:        "teammate may edit",
			body:        CheckPermissionRequest{Module: "leads", Action: "edit", ResponsibleID: "8"},
			wantStatus:  http.StatusOK,
			wantAllowed: true,
			wantLevel:   "TEAM",
		},
		{
			name:       "stranger may not edit",
			body:       CheckPermissionRequest{Module: "LEADS", Action: "EDIT", ResponsibleID: "20"},
			wantStatus: http.StatusOK,
			wantLevel:  "TEAM",
		},
		{
			name:        "skipping the context check",
			body:        CheckPermissionRequest{Module: "CHAT", Action: "VIEW", ResponsibleID: "20", SkipContextCheck: true},
			wantStatus:  http.StatusOK,
			wantAllowed: true,
			wantLevel:   "IF_RESPONSIBLE",
		},
		{
			name:        "strict grant",
			body:        CheckPermissionRequest{Module: "LEADS", Action: "VIEW"},
			wantStatus:  http.StatusOK,
			wantAllowed: true,
			wantLevel:   "ALLOWED",
			wantStrict:  true,
		},
		{
			name:       "unknown action",
			body:       CheckPermissionRequest{Module: "LEADS", Action: "APPROVE"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing module",
			body:       map[string]string{"action": "VIEW"},
			wantStatus: http.StatusBadRequest,
		},
	}

	h := NewPermissionHandler(newTestSessions(), testutil.NewMockLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := testutil.NewTestContext(http.MethodPost, "/api/permissions/check", tt.body)
			h.CheckPermission(c)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var got CheckPermissionResponse
			_, err := testutil.DecodeData(w, &got)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllowed, got.Allowed)
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantStrict, got.Strict)
		})
	}
}

func TestPermissionHandler_SignedOut(t *testing.T) {
	h := NewPermissionHandler(session.NewHolder(nil), testutil.NewMockLogger())
	c, w := testutil.NewTestContext(http.MethodPost, "/api/permissions/check", CheckPermissionRequest{Module: "LEADS", Action: "VIEW"})
	h.CheckPermission(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotificationHandler_ListNotifications(t *testing.T) {
	rec := notify.NewRecorder(testutil.NewMockLogger(), 10)
	h := NewNotificationHandler(rec)

	c, w := testutil.NewTestContext(http.MethodGet, "/api/notifications", nil)
	h.ListNotifications(c)
	var got []notify.Notification
	resp, err := testutil.DecodeData(w, &got)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(resp.Data))

	rec.Warn("Connection lost")
	rec.Error(errors.New("boom"))

	c, w = testutil.NewTestContext(http.MethodGet, "/api/notifications", nil)
	h.ListNotifications(c)
	_, err = testutil.DecodeData(w, &got)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, notify.LevelWarn, got[0].Level)
	assert.Equal(t, "Connection lost", got[0].Message)
	assert.Equal(t, notify.LevelError, got[1].Level)
}

func TestHealthHandler_HealthCheck(t *testing.T) {
	h := NewHealthHandler(newTestSessions(), func() string { return "OPEN" })
	c, w := testutil.NewTestContext(http.MethodGet, "/health", nil)
	h.HealthCheck(c)

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, testutil.ParseResponse(w, &got))
	assert.Equal(t, "healthy", got["status"])
	assert.Equal(t, "OPEN", got["socket"])
	assert.Equal(t, true, got["signed_in"])
}
