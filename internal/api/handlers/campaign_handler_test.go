package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/autoposter/internal/models"
	"github.com/maheshrc27/autoposter/internal/scheduling"
	"github.com/maheshrc27/autoposter/internal/service"
	"github.com/maheshrc27/autoposter/internal/transfer"
)

type MockCampaignService struct {
	mock.Mock
}

func (m *MockCampaignService) Create(ctx context.Context, userID int64, req transfer.CampaignRequest) (*models.Campaign, error) {
	args := m.Called(ctx, userID, req)
	c, _ := args.Get(0).(*models.Campaign)
	return c, args.Error(1)
}

func (m *MockCampaignService) Get(ctx context.Context, userID, id int64) (*models.Campaign, error) {
	args := m.Called(ctx, userID, id)
	c, _ := args.Get(0).(*models.Campaign)
	return c, args.Error(1)
}

func (m *MockCampaignService) List(ctx context.Context, userID int64) ([]*models.Campaign, error) {
	args := m.Called(ctx, userID)
	l, _ := args.Get(0).([]*models.Campaign)
	return l, args.Error(1)
}

func (m *MockCampaignService) Update(ctx context.Context, userID, id int64, req transfer.CampaignRequest) (*models.Campaign, error) {
	args := m.Called(ctx, userID, id, req)
	c, _ := args.Get(0).(*models.Campaign)
	return c, args.Error(1)
}

func (m *MockCampaignService) Delete(ctx context.Context, userID, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockCampaignService) Start(ctx context.Context, userID, id int64) (*models.Campaign, error) {
	return m.UpdateStatus(ctx, userID, id, models.CampaignStatusActive)
}

func (m *MockCampaignService) Pause(ctx context.Context, userID, id int64) (*models.Campaign, error) {
	return m.UpdateStatus(ctx, userID, id, models.CampaignStatusPaused)
}

func (m *MockCampaignService) Stop(ctx context.Context, userID, id int64) (*models.Campaign, error) {
	return m.UpdateStatus(ctx, userID, id, models.CampaignStatusStopped)
}

func (m *MockCampaignService) UpdateStatus(ctx context.Context, userID, id int64, status string) (*models.Campaign, error) {
	args := m.Called(ctx, userID, id, status)
	c, _ := args.Get(0).(*models.Campaign)
	return c, args.Error(1)
}

func (m *MockCampaignService) GetSchedule(ctx context.Context, userID, id int64) (*transfer.ScheduleResponse, error) {
	args := m.Called(ctx, userID, id)
	r, _ := args.Get(0).(*transfer.ScheduleResponse)
	return r, args.Error(1)
}

func (m *MockCampaignService) UpdateSchedule(ctx context.Context, userID, id int64, s models.ScheduleConfig) (*transfer.ScheduleResponse, error) {
	args := m.Called(ctx, userID, id, s)
	r, _ := args.Get(0).(*transfer.ScheduleResponse)
	return r, args.Error(1)
}

func (m *MockCampaignService) ShouldPost(ctx context.Context, userID, id int64) (*transfer.ShouldPostResponse, error) {
	args := m.Called(ctx, userID, id)
	r, _ := args.Get(0).(*transfer.ShouldPostResponse)
	return r, args.Error(1)
}

func (m *MockCampaignService) ListAttempts(ctx context.Context, userID, id int64, limit int) ([]*models.PostAttempt, error) {
	args := m.Called(ctx, userID, id, limit)
	l, _ := args.Get(0).([]*models.PostAttempt)
	return l, args.Error(1)
}

type MockPostingService struct {
	mock.Mock
}

func (m *MockPostingService) Run(ctx context.Context, campaignID int64) (*transfer.RunResult, error) {
	args := m.Called(ctx, campaignID)
	r, _ := args.Get(0).(*transfer.RunResult)
	return r, args.Error(1)
}

// newTestApp wires routes behind a fake auth layer that signs everyone in as user 7.
func newTestApp(cs service.CampaignService, ps service.PostingService) *fiber.App {
	app := fiber.New()
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Locals("user_id", "7")
		return c.Next()
	})

	h := NewCampaignHandler(cs)
	api.Post("/campaigns", h.CreateCampaign)
	api.Get("/campaigns/:id", h.GetCampaign)
	api.Post("/campaigns/:id/pause", h.PauseCampaign)
	api.Put("/campaigns/:id/schedule", h.UpdateSchedule)

	run := NewRunHandler(cs, ps, nil)
	api.Post("/campaigns/:id/run", run.TriggerRun)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestCreateCampaignHandler(t *testing.T) {
	cs := &MockCampaignService{}
	cs.On("Create", mock.Anything, int64(7), transfer.CampaignRequest{
		Name:      "Launch",
		Content:   "Hello",
		Platforms: []string{"twitter"},
	}).Return(&models.Campaign{ID: 3, UserID: 7, Name: "Launch", Status: models.CampaignStatusDraft, TotalPosts: 4, SuccessfulPosts: 3}, nil)

	app := newTestApp(cs, &MockPostingService{})
	status, body := do(t, app, fiber.MethodPost, "/api/campaigns", `{"name":"Launch","content":"Hello","platforms":["twitter"]}`)

	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, float64(3), body["id"])
	assert.Equal(t, float64(75), body["success_rate"])
	assert.Equal(t, false, body["is_active"])
	cs.AssertExpectations(t)
}

func TestCreateCampaignHandlerValidation(t *testing.T) {
	cs := &MockCampaignService{}
	cs.On("Create", mock.Anything, int64(7), mock.Anything).Return(nil, fmt.Errorf("%w: name: cannot be blank", service.ErrInvalidCampaign))

	app := newTestApp(cs, &MockPostingService{})
	status, body := do(t, app, fiber.MethodPost, "/api/campaigns", `{}`)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body["error"], "name: cannot be blank")
}

func TestGetCampaignHandlerErrors(t *testing.T) {
	cs := &MockCampaignService{}
	cs.On("Get", mock.Anything, int64(7), int64(5)).Return(nil, service.ErrCampaignNotFound)

	app := newTestApp(cs, &MockPostingService{})

	status, _ := do(t, app, fiber.MethodGet, "/api/campaigns/5", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = do(t, app, fiber.MethodGet, "/api/campaigns/abc", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestPauseCampaignHandlerConflict(t *testing.T) {
	cs := &MockCampaignService{}
	cs.On("UpdateStatus", mock.Anything, int64(7), int64(2), models.CampaignStatusPaused).
		Return(nil, fmt.Errorf("%w: draft to paused", service.ErrInvalidTransition))

	app := newTestApp(cs, &MockPostingService{})
	status, body := do(t, app, fiber.MethodPost, "/api/campaigns/2/pause", "")

	assert.Equal(t, fiber.StatusConflict, status)
	assert.Contains(t, body["error"], "draft to paused")
}

func TestUpdateScheduleHandlerRejectsInvalid(t *testing.T) {
	cs := &MockCampaignService{}
	cs.On("UpdateSchedule", mock.Anything, int64(7), int64(2), mock.MatchedBy(func(s models.ScheduleConfig) bool {
		return s.Type == models.ScheduleTypeDaily && len(s.PostingTimes) == 1
	})).Return(nil, fmt.Errorf("%w: posting_times: must be in a valid format", scheduling.ErrInvalidSchedule))

	app := newTestApp(cs, &MockPostingService{})
	status, _ := do(t, app, fiber.MethodPut, "/api/campaigns/2/schedule", `{"schedule_type":"daily","posting_times":["25:00"]}`)

	assert.Equal(t, fiber.StatusBadRequest, status)
	cs.AssertExpectations(t)
}

func TestTriggerRunHandler(t *testing.T) {
	next := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	cs := &MockCampaignService{}
	cs.On("Get", mock.Anything, int64(7), int64(4)).Return(&models.Campaign{ID: 4, UserID: 7}, nil)

	ps := &MockPostingService{}
	ps.On("Run", mock.Anything, int64(4)).Return(&transfer.RunResult{
		Success:    false,
		Reason:     transfer.ReasonNotReady,
		CampaignID: 4,
		NextPostAt: &next,
	}, nil).Once()

	app := newTestApp(cs, ps)
	status, body := do(t, app, fiber.MethodPost, "/api/campaigns/4/run", "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "not ready", body["reason"])
	assert.Equal(t, "2024-01-01T12:00:00Z", body["next_post_at"])
}

func TestTriggerRunHandlerStoreFailure(t *testing.T) {
	cs := &MockCampaignService{}
	cs.On("Get", mock.Anything, int64(7), int64(4)).Return(&models.Campaign{ID: 4, UserID: 7}, nil)

	ps := &MockPostingService{}
	ps.On("Run", mock.Anything, int64(4)).Return(&transfer.RunResult{
		Success: false,
		Reason:  "failed to record run",
	}, fmt.Errorf("%w: connection reset", service.ErrStore))

	app := newTestApp(cs, ps)
	status, body := do(t, app, fiber.MethodPost, "/api/campaigns/4/run", "")

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "failed to record run", body["reason"])
}

func TestUpdateScheduleHandlerDefaultsToActive(t *testing.T) {
	cs := &MockCampaignService{}
	cs.On("UpdateSchedule", mock.Anything, int64(7), int64(2), mock.MatchedBy(func(s models.ScheduleConfig) bool {
		return s.Type == models.ScheduleTypeInterval && s.IntervalMinutes == 120 && s.IsScheduleActive
	})).Return(&transfer.ScheduleResponse{CampaignID: 2}, nil)

	app := newTestApp(cs, &MockPostingService{})
	status, _ := do(t, app, fiber.MethodPut, "/api/campaigns/2/schedule", `{"schedule_type":"interval","interval_minutes":120}`)

	assert.Equal(t, fiber.StatusOK, status)
	cs.AssertExpectations(t)
}

func TestUpdateScheduleHandlerKeepsExplicitToggle(t *testing.T) {
	cs := &MockCampaignService{}
	cs.On("UpdateSchedule", mock.Anything, int64(7), int64(2), mock.MatchedBy(func(s models.ScheduleConfig) bool {
		return !s.IsScheduleActive
	})).Return(&transfer.ScheduleResponse{CampaignID: 2}, nil)

	app := newTestApp(cs, &MockPostingService{})
	status, _ := do(t, app, fiber.MethodPut, "/api/campaigns/2/schedule", `{"schedule_type":"interval","is_schedule_active":false}`)

	assert.Equal(t, fiber.StatusOK, status)
	cs.AssertExpectations(t)
}

func TestCreateCampaignHandlerScheduleDefaultsToActive(t *testing.T) {
	cs := &MockCampaignService{}
	cs.On("Create", mock.Anything, int64(7), mock.MatchedBy(func(r transfer.CampaignRequest) bool {
		return r.Schedule != nil && r.Schedule.Type == models.ScheduleTypeDaily && r.Schedule.IsScheduleActive
	})).Return(&models.Campaign{ID: 3, UserID: 7}, nil)

	app := newTestApp(cs, &MockPostingService{})
	status, _ := do(t, app, fiber.MethodPost, "/api/campaigns",
		`{"name":"Launch","content":"Hello","platforms":["twitter"],"schedule":{"schedule_type":"daily","posting_times":["09:00"]}}`)

	assert.Equal(t, fiber.StatusCreated, status)
	cs.AssertExpectations(t)
}
