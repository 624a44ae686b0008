package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"net/url"
	"strings"
	"testing"
	"time"

	"wallet-settlement/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTwilioConfig(baseURL string) config.TwilioConfig {
	return config.TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "token",
		FromNumber: "+15550000000",
		BaseURL:    baseURL,
		Timeout:    time.Second,
	}
}

// ==================== Twilio ====================

func TestTwilioSender_SendSMS(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token", pass)

		require.NoError(t, r.ParseForm())
		got = r.PostForm
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer srv.Close()

	sender := NewTwilioSender(testTwilioConfig(srv.URL+"/"), srv.Client())
	err := sender.SendSMS(context.Background(), "+15551234567", "Your verification code is 123456")
	require.NoError(t, err)

	assert.Equal(t, "+15551234567", got.Get("To"))
	assert.Equal(t, "+15550000000", got.Get("From"))
	assert.Equal(t, "Your verification code is 123456", got.Get("Body"))
}

func TestTwilioSender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number."}`))
	}))
	defer srv.Close()

	sender := NewTwilioSender(testTwilioConfig(srv.URL), srv.Client())
	err := sender.SendSMS(context.Background(), "bogus", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
	assert.Contains(t, err.Error(), "status 400")
}

func TestTwilioSender_ServerErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sender := NewTwilioSender(testTwilioConfig(srv.URL), srv.Client())
	err := sender.SendSMS(context.Background(), "+15551234567", "hi")
	assert.EqualError(t, err, "twilio: status 503")
}

type failingClient struct{}

func (failingClient) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestTwilioSender_TransportError(t *testing.T) {
	sender := NewTwilioSender(testTwilioConfig("https://api.twilio.test"), failingClient{})
	err := sender.SendSMS(context.Background(), "+15551234567", "hi")
	assert.ErrorContains(t, err, "connection refused")
}

// ==================== SMTP ====================

func testSMTPConfig() config.SMTPConfig {
	return config.SMTPConfig{
		Host:        "smtp.example.com",
		Port:        2525,
		Username:    "mailer",
		Password:    "secret",
		FromName:    "Wallet Settlement",
		FromAddress: "noreply@example.com",
	}
}

func TestSMTPSender_SendEmail(t *testing.T) {
	sender := NewSMTPSender(testSMTPConfig())
	sender.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	var (
		gotAddr string
		gotAuth smtp.Auth
		gotFrom string
		gotTo   []string
		gotMsg  []byte
	)
	sender.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	err := sender.SendEmail(context.Background(), "Alice <alice@example.com>", "Verify your email address", "Code AB12CD\nThanks")
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "From: \"Wallet Settlement\" <noreply@example.com>\r\n")
	assert.Contains(t, msg, "To: alice@example.com\r\n")
	assert.Contains(t, msg, "Subject: Verify your email address\r\n")
	assert.Contains(t, msg, "Date: Sun, 01 Mar 2026 12:00:00 +0000\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nCode AB12CD\r\nThanks\r\n"))
}

func TestSMTPSender_NoAuthWithoutUsername(t *testing.T) {
	cfg := testSMTPConfig()
	cfg.Username = ""
	sender := NewSMTPSender(cfg)

	var gotAuth smtp.Auth = smtp.PlainAuth("", "x", "y", "z")
	sender.sendMail = func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
		gotAuth = a
		return nil
	}

	require.NoError(t, sender.SendEmail(context.Background(), "bob@example.com", "s", "b"))
	assert.Nil(t, gotAuth)
}

func TestSMTPSender_Errors(t *testing.T) {
	sender := NewSMTPSender(testSMTPConfig())
	sender.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("535 authentication failed")
	}

	err := sender.SendEmail(context.Background(), "bob@example.com", "s", "b")
	assert.ErrorContains(t, err, "535")

	err = sender.SendEmail(context.Background(), "not-an-address", "s", "b")
	assert.ErrorContains(t, err, "invalid recipient")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sender.SendEmail(ctx, "bob@example.com", "s", "b"), context.Canceled)
}

// ==================== Gateways ====================

func TestLogGateway(t *testing.T) {
	var buf bytes.Buffer
	gw := NewLogGateway(zerolog.New(&buf))

	require.NoError(t, gw.SendSMS(context.Background(), "+15551234567", "code 123456"))
	require.NoError(t, gw.SendEmail(context.Background(), "a@example.com", "Verify", "code AB12CD"))

	out := buf.String()
	assert.Contains(t, out, `"channel":"sms"`)
	assert.Contains(t, out, "code 123456")
	assert.Contains(t, out, `"channel":"email"`)
	assert.Contains(t, out, `"component":"notify"`)
}

type recordingSender struct {
	calls []string
	err   error
}

func (r *recordingSender) SendSMS(_ context.Context, to, _ string) error {
	r.calls = append(r.calls, "sms:"+to)
	return r.err
}

func (r *recordingSender) SendEmail(_ context.Context, to, _, _ string) error {
	r.calls = append(r.calls, "email:"+to)
	return r.err
}

func TestGateway_RoutesByChannel(t *testing.T) {
	sms := &recordingSender{}
	email := &recordingSender{err: errors.New("smtp down")}
	gw := &Gateway{sms: sms, email: email, log: zerolog.New(io.Discard)}

	require.NoError(t, gw.SendSMS(context.Background(), "+15551234567", "x"))
	assert.Error(t, gw.SendEmail(context.Background(), "a@example.com", "s", "x"))

	assert.Equal(t, []string{"sms:+15551234567"}, sms.calls)
	assert.Equal(t, []string{"email:a@example.com"}, email.calls)
}

func TestNew_SelectsDriver(t *testing.T) {
	log := zerolog.New(io.Discard)

	_, isLog := New(config.NotificationConfig{Driver: "log"}, log).(*LogGateway)
	assert.True(t, isLog)

	live := New(config.NotificationConfig{
		Driver: "live",
		Twilio: testTwilioConfig("https://api.twilio.com"),
		SMTP:   testSMTPConfig(),
	}, log)
	gw, isGateway := live.(*Gateway)
	require.True(t, isGateway)
	assert.IsType(t, &TwilioSender{}, gw.sms)
	assert.IsType(t, &SMTPSender{}, gw.email)
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "****4567", maskPhone("+15551234567"))
	assert.Equal(t, "****", maskPhone("123"))
}
