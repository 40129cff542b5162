package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octafabbri/hey/internal/dispatch"
)

func TestHandlerUnreadAndMarkRead(t *testing.T) {
	svc := NewService(nil, nil, "", nil)
	h := NewHandler(svc)

	req := dispatch.NewServiceRequest("owner-1", "Dale")
	req.Status = dispatch.StatusAccepted
	require.NoError(t, svc.NotifyStatusChange(context.Background(), req))

	rec := httptest.NewRecorder()
	h.Unread(rec, httptest.NewRequest(http.MethodGet, "/notifications/unread?user_id=owner-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		UserID string `json:"user_id"`
		Unread int    `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "owner-1", body.UserID)
	assert.Equal(t, 1, body.Unread)

	rec = httptest.NewRecorder()
	h.MarkRead(rec, httptest.NewRequest(http.MethodPost, "/notifications/read?user_id=owner-1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, svc.UnreadCount("owner-1"))
}

func TestHandlerUnreadRequiresUserID(t *testing.T) {
	h := NewHandler(NewService(nil, nil, "", nil))

	rec := httptest.NewRecorder()
	h.Unread(rec, httptest.NewRequest(http.MethodGet, "/notifications/unread", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
