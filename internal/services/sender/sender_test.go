package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/school-crm/internal/config"
	"github.com/magabrotheeeer/school-crm/internal/lib/smtp"
	"github.com/magabrotheeeer/school-crm/internal/metrics"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect(ctx context.Context) (smtp.Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	return m.Called(from).Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	return m.Called(to).Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	return m.Called().Error(0)
}

func (m *MockSMTPClient) Quit() error {
	return m.Called().Error(0)
}

type bufferWriter struct {
	bytes.Buffer
	closed bool
}

func (w *bufferWriter) Close() error {
	w.closed = true
	return nil
}

type GatewayMock struct {
	mock.Mock
}

func (m *GatewayMock) Send(ctx context.Context, msg models.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestEmailGateway_Send(t *testing.T) {
	msg := models.Message{Channel: models.ChannelEmail, To: "u@crm.kg", Subject: "Forgot Password OTP", Body: "Your OTP is: 1234"}

	t.Run("success", func(t *testing.T) {
		transport := new(MockTransport)
		client := new(MockSMTPClient)
		w := &bufferWriter{}

		transport.On("GetSMTPUser").Return("noreply@crm.kg")
		transport.On("Connect", mock.Anything).Return(client, nil).Once()
		client.On("Mail", "noreply@crm.kg").Return(nil).Once()
		client.On("Rcpt", "u@crm.kg").Return(nil).Once()
		client.On("Data").Return(w, nil).Once()
		client.On("Quit").Return(nil).Once()
		client.On("Close").Return(nil).Once()

		err := NewEmailGateway(transport, newNoopLogger()).Send(context.Background(), msg)
		require.NoError(t, err)
		assert.True(t, w.closed)
		assert.Contains(t, w.String(), "Subject: Forgot Password OTP\r\n")
		assert.True(t, strings.HasSuffix(w.String(), "\r\n\r\nYour OTP is: 1234"))
		client.AssertExpectations(t)
	})

	t.Run("connect failure", func(t *testing.T) {
		transport := new(MockTransport)
		transport.On("GetSMTPUser").Return("noreply@crm.kg")
		transport.On("Connect", mock.Anything).Return(nil, errors.New("dial tcp: refused")).Once()

		err := NewEmailGateway(transport, newNoopLogger()).Send(context.Background(), msg)
		assert.EqualError(t, err, "dial tcp: refused")
	})

	t.Run("recipient rejected", func(t *testing.T) {
		transport := new(MockTransport)
		client := new(MockSMTPClient)
		transport.On("GetSMTPUser").Return("noreply@crm.kg")
		transport.On("Connect", mock.Anything).Return(client, nil).Once()
		client.On("Mail", "noreply@crm.kg").Return(nil).Once()
		client.On("Rcpt", "u@crm.kg").Return(errors.New("550 no such user")).Once()
		client.On("Close").Return(nil).Once()

		err := NewEmailGateway(transport, newNoopLogger()).Send(context.Background(), msg)
		assert.Error(t, err)
		client.AssertExpectations(t)
	})
}

func TestSMSGateway_Send(t *testing.T) {
	var got smsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sms-token", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	gw := NewSMSGateway(config.SMSGateway{SMSURL: srv.URL, SMSToken: "sms-token", SMSSender: "SCHOOL", SMSTimeout: time.Second})
	err := gw.Send(context.Background(), models.Message{Channel: models.ChannelSMS, To: "+996555123456", Body: "Your OTP is: 1234"})
	require.NoError(t, err)
	assert.Equal(t, smsRequest{From: "SCHOOL", To: "+996555123456", Text: "Your OTP is: 1234"}, got)
}

func TestPushGateway_Send(t *testing.T) {
	var got pushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key=server-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got.To == "bad-token" {
			http.Error(w, "NotRegistered", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw := NewPushGateway(config.PushGateway{PushURL: srv.URL, PushServerKey: "server-key", PushTimeout: time.Second})
	msg := models.Message{Channel: models.ChannelPush, To: "reg-1", Subject: "Hello", Body: "Privet", Data: map[string]string{"type": "go"}}

	require.NoError(t, gw.Send(context.Background(), msg))
	assert.Equal(t, "Hello", got.Notification.Title)
	assert.Equal(t, "go", got.Data["type"])

	msg.To = "bad-token"
	err := gw.Send(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway returned 400")
	assert.Contains(t, err.Error(), "NotRegistered")
}

func TestSenderService_Handle(t *testing.T) {
	email := new(GatewayMock)
	sms := new(GatewayMock)
	svc := NewSenderService(map[models.Channel]Gateway{
		models.ChannelEmail: email,
		models.ChannelSMS:   sms,
	}, newNoopLogger())

	okMsg := models.Message{ID: "1", Channel: models.ChannelEmail, To: "u@crm.kg", Body: "hi"}
	failMsg := models.Message{ID: "2", Channel: models.ChannelSMS, To: "+996555123456", Body: "hi"}
	email.On("Send", mock.Anything, okMsg).Return(nil).Once()
	sms.On("Send", mock.Anything, failMsg).Return(errors.New("provider down")).Once()

	body := func(m models.Message) []byte {
		b, err := json.Marshal(m)
		require.NoError(t, err)
		return b
	}

	delivered := testutil.ToFloat64(metrics.NotificationsDelivered.WithLabelValues("email", "ok"))
	require.NoError(t, svc.Handle(context.Background(), body(okMsg)))
	assert.Equal(t, delivered+1, testutil.ToFloat64(metrics.NotificationsDelivered.WithLabelValues("email", "ok")))

	failed := testutil.ToFloat64(metrics.NotificationsDelivered.WithLabelValues("sms", "error"))
	assert.Error(t, svc.Handle(context.Background(), body(failMsg)))
	assert.Equal(t, failed+1, testutil.ToFloat64(metrics.NotificationsDelivered.WithLabelValues("sms", "error")))

	assert.Error(t, svc.Handle(context.Background(), body(models.Message{Channel: models.ChannelPush})))
	assert.Error(t, svc.Handle(context.Background(), []byte("{not json")))

	email.AssertExpectations(t)
	sms.AssertExpectations(t)
}
