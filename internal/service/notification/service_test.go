package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/booking-notifier/internal/apperrors"
	"github.com/aliskhannn/booking-notifier/internal/dispatcher"
	"github.com/aliskhannn/booking-notifier/internal/model"
	"github.com/aliskhannn/booking-notifier/internal/rabbitmq/consumer"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateNotification(ctx context.Context, n model.Notification) (uuid.UUID, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockRepo) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	args := m.Called(ctx, id, sentAt)
	return args.Error(0)
}

func (m *mockRepo) GetNotificationByID(ctx context.Context, id uuid.UUID) (model.Notification, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *mockRepo) GetAllNotifications(ctx context.Context) ([]model.Notification, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *mockRepo) GetNotificationsByUserID(ctx context.Context, userID int64) ([]model.Notification, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *mockRepo) GetNotificationsByBookingID(ctx context.Context, bookingID int64) ([]model.Notification, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *mockRepo) GetNotificationsByStatus(ctx context.Context, status model.Status) ([]model.Notification, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]model.Notification), args.Error(1)
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(ctx context.Context, n model.Notification) (dispatcher.Receipt, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(dispatcher.Receipt), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetWithRetry(ctx context.Context, strategy retry.Strategy, key string) (string, error) {
	args := m.Called(ctx, strategy, key)
	return args.String(0), args.Error(1)
}

func (m *mockCache) SetWithRetry(ctx context.Context, strategy retry.Strategy, key string, value interface{}) error {
	args := m.Called(ctx, strategy, key, value)
	return args.Error(0)
}

const confirmedEmailMessage = `{
	"booking_id": 1,
	"user_id": 2,
	"user_email": "a@b.com",
	"event_id": "e1",
	"event_name": "Concert",
	"tickets": 2,
	"total_price": 50.5,
	"status": "CONFIRMED",
	"notification_type": "EMAIL"
}`

func setupService() (*Service, *mockRepo, *mockDispatcher, *mockCache) {
	repo := &mockRepo{}
	disp := &mockDispatcher{}
	c := &mockCache{}
	c.On("SetWithRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return NewService(repo, disp, c, retry.Strategy{}), repo, disp, c
}

func TestProcessMessage_ConfirmedDispatchesAndMarksSent(t *testing.T) {
	svc, repo, disp, _ := setupService()

	id := uuid.New()
	repo.On("CreateNotification", mock.Anything, mock.AnythingOfType("model.Notification")).Return(id, nil).Once()
	disp.On("Dispatch", mock.Anything, mock.AnythingOfType("model.Notification")).
		Return(dispatcher.Receipt{MessageID: "email-1"}, nil).Once()
	repo.On("MarkSent", mock.Anything, id, mock.AnythingOfType("time.Time")).Return(nil).Once()

	outcome := svc.ProcessMessage(context.Background(), []byte(confirmedEmailMessage))

	assert.Equal(t, consumer.Ack, outcome)
	repo.AssertExpectations(t)
	disp.AssertExpectations(t)

	created := repo.Calls[0].Arguments.Get(1).(model.Notification)
	assert.False(t, created.Sent, "records are created unsent")
	assert.Nil(t, created.SentAt)
	assert.Equal(t, int64(1), created.BookingID)
}

func TestProcessMessage_PendingPersistsWithoutDispatch(t *testing.T) {
	svc, repo, disp, _ := setupService()

	raw := []byte(`{
		"booking_id": 1,
		"user_id": 2,
		"user_email": "a@b.com",
		"event_id": "e1",
		"event_name": "Concert",
		"tickets": 2,
		"total_price": 50.5,
		"status": "PENDING"
	}`)

	repo.On("CreateNotification", mock.Anything, mock.AnythingOfType("model.Notification")).Return(uuid.New(), nil).Once()

	outcome := svc.ProcessMessage(context.Background(), raw)

	assert.Equal(t, consumer.Ack, outcome)
	repo.AssertExpectations(t)
	disp.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessMessage_MalformedPayloadDropsWithoutPersisting(t *testing.T) {
	svc, repo, disp, _ := setupService()

	outcome := svc.ProcessMessage(context.Background(), []byte(`{not valid json`))

	assert.Equal(t, consumer.Drop, outcome)
	repo.AssertNotCalled(t, "CreateNotification", mock.Anything, mock.Anything)
	disp.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestProcessMessage_MissingFieldDropsWithoutPersisting(t *testing.T) {
	svc, repo, disp, _ := setupService()

	raw := []byte(`{
		"booking_id": 1,
		"user_id": 2,
		"user_email": "a@b.com",
		"event_id": "e1",
		"event_name": "Concert",
		"tickets": 2,
		"status": "CONFIRMED"
	}`)

	outcome := svc.ProcessMessage(context.Background(), raw)

	assert.Equal(t, consumer.Drop, outcome, "missing total_price must drop the message")
	repo.AssertNotCalled(t, "CreateNotification", mock.Anything, mock.Anything)
	disp.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestProcessMessage_StoreTransientFailureRequeues(t *testing.T) {
	svc, repo, disp, _ := setupService()

	repo.On("CreateNotification", mock.Anything, mock.Anything).
		Return(uuid.Nil, apperrors.Transient(errors.New("connection refused"))).Once()

	outcome := svc.ProcessMessage(context.Background(), []byte(confirmedEmailMessage))
	assert.Equal(t, consumer.Requeue, outcome)

	// Redelivery with a healthy store succeeds.
	id := uuid.New()
	repo.On("CreateNotification", mock.Anything, mock.Anything).Return(id, nil).Once()
	disp.On("Dispatch", mock.Anything, mock.Anything).Return(dispatcher.Receipt{MessageID: "email-2"}, nil).Once()
	repo.On("MarkSent", mock.Anything, id, mock.Anything).Return(nil).Once()

	outcome = svc.ProcessMessage(context.Background(), []byte(confirmedEmailMessage))
	assert.Equal(t, consumer.Ack, outcome)
	repo.AssertExpectations(t)
}

func TestProcessMessage_StoreSchemaRejectionDrops(t *testing.T) {
	svc, repo, disp, _ := setupService()

	repo.On("CreateNotification", mock.Anything, mock.Anything).
		Return(uuid.Nil, apperrors.Validation(nil, errors.New("check constraint violated"))).Once()

	outcome := svc.ProcessMessage(context.Background(), []byte(confirmedEmailMessage))

	assert.Equal(t, consumer.Drop, outcome)
	disp.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestProcessMessage_DispatchFailureRequeues(t *testing.T) {
	svc, repo, disp, _ := setupService()

	repo.On("CreateNotification", mock.Anything, mock.Anything).Return(uuid.New(), nil).Once()
	disp.On("Dispatch", mock.Anything, mock.Anything).
		Return(dispatcher.Receipt{}, apperrors.Transient(errors.New("smtp down"))).Once()

	outcome := svc.ProcessMessage(context.Background(), []byte(confirmedEmailMessage))

	assert.Equal(t, consumer.Requeue, outcome)
	repo.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessMessage_MarkSentFailureRequeues(t *testing.T) {
	svc, repo, disp, _ := setupService()

	id := uuid.New()
	repo.On("CreateNotification", mock.Anything, mock.Anything).Return(id, nil).Once()
	disp.On("Dispatch", mock.Anything, mock.Anything).Return(dispatcher.Receipt{MessageID: "email-1"}, nil).Once()
	repo.On("MarkSent", mock.Anything, id, mock.Anything).
		Return(apperrors.Transient(errors.New("timeout"))).Once()

	outcome := svc.ProcessMessage(context.Background(), []byte(confirmedEmailMessage))
	assert.Equal(t, consumer.Requeue, outcome)
}

// Redelivering an identical message produces a second, distinct record.
// This documents current behavior: there is no dedup on
// (booking_id, notification_type).
func TestProcessMessage_RedeliveryCreatesSecondRecord(t *testing.T) {
	svc, repo, disp, _ := setupService()

	first, second := uuid.New(), uuid.New()
	repo.On("CreateNotification", mock.Anything, mock.Anything).Return(first, nil).Once()
	repo.On("CreateNotification", mock.Anything, mock.Anything).Return(second, nil).Once()
	disp.On("Dispatch", mock.Anything, mock.Anything).Return(dispatcher.Receipt{MessageID: "email-1"}, nil).Twice()
	repo.On("MarkSent", mock.Anything, first, mock.Anything).Return(nil).Once()
	repo.On("MarkSent", mock.Anything, second, mock.Anything).Return(nil).Once()

	assert.Equal(t, consumer.Ack, svc.ProcessMessage(context.Background(), []byte(confirmedEmailMessage)))
	assert.Equal(t, consumer.Ack, svc.ProcessMessage(context.Background(), []byte(confirmedEmailMessage)))

	repo.AssertNumberOfCalls(t, "CreateNotification", 2)
	firstRecord := repo.Calls[0].Arguments.Get(1).(model.Notification)
	secondRecord := repo.Calls[2].Arguments.Get(1).(model.Notification)
	assert.Equal(t, firstRecord.BookingID, secondRecord.BookingID)
	assert.Equal(t, firstRecord.NotificationType, secondRecord.NotificationType)
}

func TestCreateTestNotification_Defaults(t *testing.T) {
	svc, repo, _, _ := setupService()

	id := uuid.New()
	repo.On("CreateNotification", mock.Anything, mock.Anything).Return(id, nil).Once()

	n := model.Notification{
		BookingID:  9,
		UserID:     2,
		UserEmail:  "a@b.com",
		EventID:    "e1",
		EventName:  "Concert",
		Tickets:    1,
		TotalPrice: 10,
		Status:     model.StatusPending,
	}

	stored, err := svc.CreateTestNotification(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, id, stored.ID)
	assert.Equal(t, model.ChannelEmail, stored.NotificationType)
	assert.NotEmpty(t, stored.Timestamp)
}

func TestGetNotificationStatusByID_CacheHit(t *testing.T) {
	svc, repo, _, c := setupService()

	id := uuid.New()
	c.On("GetWithRetry", mock.Anything, mock.Anything, id.String()).Return("PENDING", nil).Once()

	status, err := svc.GetNotificationStatusByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", status)
	repo.AssertNotCalled(t, "GetNotificationByID", mock.Anything, mock.Anything)
}

func TestGetNotificationStatusByID_CacheMiss(t *testing.T) {
	svc, repo, _, c := setupService()

	id := uuid.New()
	c.On("GetWithRetry", mock.Anything, mock.Anything, id.String()).Return("", redis.Nil).Once()
	repo.On("GetNotificationByID", mock.Anything, id).
		Return(model.Notification{ID: id, Status: model.StatusConfirmed}, nil).Once()

	status, err := svc.GetNotificationStatusByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", status)
	repo.AssertExpectations(t)
}

func TestGetAllNotifications(t *testing.T) {
	svc, repo, _, _ := setupService()

	notifications := []model.Notification{
		{ID: uuid.New(), EventName: "Concert"},
		{ID: uuid.New(), EventName: "Theatre"},
	}

	repo.On("GetAllNotifications", mock.Anything).Return(notifications, nil).Once()

	result, err := svc.GetAllNotifications(context.Background())
	require.NoError(t, err)
	assert.Equal(t, notifications, result)
}
