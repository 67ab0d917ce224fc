package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oinktech/StockAPI/internal/infrastructure"
	"github.com/oinktech/StockAPI/internal/services"
	"github.com/oinktech/StockAPI/internal/shared/testutil"
	"github.com/oinktech/StockAPI/pkg/contracts/domain"
)

type MockSaver struct {
	mock.Mock
}

func (m *MockSaver) Save(ctx context.Context, req domain.Request) (*services.SaveResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*services.SaveResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type countingSaver struct {
	calls atomic.Int32
}

func (c *countingSaver) Save(context.Context, domain.Request) (*services.SaveResult, error) {
	c.calls.Add(1)
	return &services.SaveResult{File: "out.csv"}, nil
}

var dailyJob = Job{Name: "daily", Spec: "0 0 14 * * 1-5", LookbackDays: 30, Format: "csv", SortBy: "date"}

func taipei(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)
	return loc
}

func TestJob_Request(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

	req := dailyJob.Request(now)

	assert.Equal(t, domain.Request{
		StartDate:    "2024-02-14",
		EndDate:      "2024-03-16",
		OutputFormat: "csv",
		SortBy:       "date",
	}, req)
}

func TestJob_RequestIncludesToday(t *testing.T) {
	job := Job{Name: "weekly", LookbackDays: 7, Format: "csv"}
	now := time.Date(2024, time.March, 5, 15, 0, 0, 0, taipei(t))

	req := job.Request(now)

	start, err := time.Parse(domain.DateLayout, req.StartDate)
	require.NoError(t, err)
	end, err := time.Parse(domain.DateLayout, req.EndDate)
	require.NoError(t, err)

	today := domain.NewDate(2024, time.March, 5)
	assert.Equal(t, domain.NewDate(2024, time.February, 27), start)
	assert.False(t, today.Before(start))
	assert.True(t, today.Before(end), "today's bar must fall before the exclusive end date")
}

func TestRunNow(t *testing.T) {
	saver := &MockSaver{}
	logger, logs := testutil.NewTestLogger(t)
	s := New(saver, taipei(t), time.Minute, logger)
	// 20:00 UTC is already the next day in Taipei
	s.now = func() time.Time { return time.Date(2024, time.March, 15, 20, 0, 0, 0, time.UTC) }

	hasTraceID := mock.MatchedBy(func(ctx context.Context) bool { return infrastructure.GetTraceID(ctx) != "" })
	saver.On("Save", hasTraceID, mock.MatchedBy(func(req domain.Request) bool {
		return req.StartDate == "2024-02-15" && req.EndDate == "2024-03-17"
	})).Return(&services.SaveResult{File: "/tmp/stock_data.csv", Rows: 4}, nil).Once()

	result, err := s.RunNow(context.Background(), dailyJob)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Rows)
	assert.True(t, logs.ContainsMessage("scheduled export saved"))
	saver.AssertExpectations(t)
}

func TestRunNow_Failure(t *testing.T) {
	saver := &MockSaver{}
	logger, logs := testutil.NewTestLogger(t)
	s := New(saver, nil, 0, logger)

	saver.On("Save", mock.Anything, mock.Anything).Return(nil, errors.New("registry down")).Once()

	_, err := s.RunNow(context.Background(), dailyJob)
	assert.EqualError(t, err, "registry down")
	assert.True(t, logs.ContainsMessage("scheduled export failed"))
	assert.True(t, logs.ContainsAttr("job", "daily"))
}

func TestRegister_Rejects(t *testing.T) {
	s := New(&MockSaver{}, nil, 0, testutil.DiscardLogger())

	bad := dailyJob
	bad.Spec = "every tuesday"
	assert.Error(t, s.Register(bad))

	noLookback := dailyJob
	noLookback.LookbackDays = 0
	assert.Error(t, s.Register(noLookback))

	assert.NoError(t, s.Register(dailyJob))
}

func TestScheduler_Fires(t *testing.T) {
	saver := &countingSaver{}
	s := New(saver, nil, time.Second, testutil.DiscardLogger())

	job := dailyJob
	job.Spec = "* * * * * *"
	require.NoError(t, s.Register(job))

	s.Start()
	assert.Eventually(t, func() bool { return saver.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Stop(ctx)
}
