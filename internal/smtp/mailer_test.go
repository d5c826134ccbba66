package smtp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cradoe/onboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func newTestMailer(client MailClient) *Mailer {
	m := NewMailerWithClient(client, "no-reply@example.com")
	m.retryDelay = time.Millisecond
	return m
}

func TestSendRendersTemplates(t *testing.T) {
	client := new(mockClient)
	client.On("DialAndSendWithContext", mock.Anything, mock.MatchedBy(func(msgs []*mail.Msg) bool {
		return len(msgs) == 1 && msgs[0].GetGenHeader(mail.HeaderSubject)[0] == "Your Portfolio Rebalancing plan is ready for payment"
	})).Return(nil).Once()

	data := map[string]any{
		"Name": "Asha",
		"Plan": models.SelectedPlan{Key: "rebalancing", Title: "Portfolio Rebalancing", Price: "₹14,999", Details: "For Portfolio Value up to ₹50L"},
	}

	err := newTestMailer(client).Send(context.Background(), "asha@example.com", data, "plan-summary.tmpl")
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestSendRetriesThreeTimes(t *testing.T) {
	client := new(mockClient)
	client.On("DialAndSendWithContext", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Times(3)

	err := newTestMailer(client).Send(context.Background(), "asha@example.com", map[string]any{"Code": "123456", "RequestedAt": time.Now()}, "otp.tmpl")
	assert.EqualError(t, err, "connection refused")
	client.AssertNumberOfCalls(t, "DialAndSendWithContext", 3)
}

func TestSendStopsOnSecondSuccess(t *testing.T) {
	client := new(mockClient)
	client.On("DialAndSendWithContext", mock.Anything, mock.Anything).Return(errors.New("busy")).Once()
	client.On("DialAndSendWithContext", mock.Anything, mock.Anything).Return(nil).Once()

	err := newTestMailer(client).Send(context.Background(), "asha@example.com", map[string]any{"Code": "123456", "RequestedAt": time.Now()}, "otp.tmpl")
	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "DialAndSendWithContext", 2)
}

func TestSendRejectsBadRecipient(t *testing.T) {
	client := new(mockClient)

	err := newTestMailer(client).Send(context.Background(), "not an address", nil, "otp.tmpl")
	assert.Error(t, err)
	client.AssertNotCalled(t, "DialAndSendWithContext", mock.Anything, mock.Anything)
}
