package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/cradoe/onboard/internal/device"
	"github.com/cradoe/onboard/internal/errHandler"
	"github.com/cradoe/onboard/internal/helper"
	"github.com/cradoe/onboard/internal/metrics"
	"github.com/cradoe/onboard/internal/mocks"
	"github.com/cradoe/onboard/internal/models"
	"github.com/cradoe/onboard/internal/otp"
	"github.com/cradoe/onboard/internal/progress"
	"github.com/cradoe/onboard/internal/stage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	t *testing.T
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := mocks.MockConfig()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	help := helper.New(cfg.BaseURL, nil, logger)
	medium := progress.NewMemoryMedium()

	application := &Application{
		Config:       *cfg,
		Logger:       logger,
		Medium:       medium,
		Metrics:      m,
		Registry:     reg,
		Helper:       help,
		errorHandler: errHandler.New("", nil, logger, help),
		Stages:       stage.New(stage.Options{Metrics: m, Logger: logger}),
		Devices: device.New(device.Options{
			Medium:        medium,
			Logger:        logger,
			Metrics:       m,
			NameSyncDelay: cfg.NameSyncDelay,
			OTP: otp.Options{
				Codes:     otp.Codes{Email: cfg.Otp.EmailCode, Mobile: cfg.Otp.MobileCode},
				SendDelay: cfg.Otp.SendDelay,
			},
		}),
	}

	srv := httptest.NewServer(application.routes())
	t.Cleanup(func() {
		srv.Close()
		application.Close()
	})

	return &testServer{Server: srv, t: t}
}

func (ts *testServer) do(method, path, token string, body io.Reader, contentType string) (int, envelope) {
	ts.t.Helper()

	req, err := http.NewRequest(method, ts.URL+path, body)
	require.NoError(ts.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := ts.Client().Do(req)
	require.NoError(ts.t, err)
	defer res.Body.Close()

	var env envelope
	require.NoError(ts.t, json.NewDecoder(res.Body).Decode(&env))
	return res.StatusCode, env
}

func (ts *testServer) json(method, path, token string, payload any) (int, envelope) {
	ts.t.Helper()

	var body io.Reader
	if payload != nil {
		js, err := json.Marshal(payload)
		require.NoError(ts.t, err)
		body = bytes.NewReader(js)
	}
	return ts.do(method, path, token, body, "application/json")
}

// ok asserts a 200 and decodes the payload into dst, if given.
func (ts *testServer) ok(method, path, token string, payload any, dst any) {
	ts.t.Helper()

	status, env := ts.json(method, path, token, payload)
	require.Equal(ts.t, http.StatusOK, status, "%s %s: %s %s", method, path, env.Message, env.Error)
	if dst != nil {
		require.NoError(ts.t, json.Unmarshal(env.Data, dst))
	}
}

func (ts *testServer) register() string {
	ts.t.Helper()

	status, env := ts.json(http.MethodPost, "/v1/devices", "", nil)
	require.Equal(ts.t, http.StatusCreated, status)

	var data struct {
		DeviceID string `json:"device_id"`
		Token    string `json:"token"`
	}
	require.NoError(ts.t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(ts.t, data.DeviceID)
	require.NotEmpty(ts.t, data.Token)
	return data.Token
}

type onboarding struct {
	State models.OnboardingState `json:"state"`
	Rail  []struct {
		ID     models.Step `json:"id"`
		Done   bool        `json:"done"`
		Active bool        `json:"active"`
	} `json:"rail"`
}

func (ts *testServer) signup(token string) onboarding {
	ts.t.Helper()

	ts.ok(http.MethodPatch, "/v1/signup/draft", token, map[string]string{
		"name":     "Asha",
		"email":    "asha@example.com",
		"mobile":   "98765-43210",
		"password": "password123",
		"confirm":  "password123",
	}, nil)

	ts.ok(http.MethodPost, "/v1/signup/otp/email/send", token, nil, nil)
	ts.ok(http.MethodPost, "/v1/signup/otp/mobile/send", token, nil, nil)
	ts.ok(http.MethodPost, "/v1/signup/otp/email/verify", token, map[string]string{"code": "123456"}, nil)
	ts.ok(http.MethodPost, "/v1/signup/otp/mobile/verify", token, map[string]string{"code": "654321"}, nil)

	var view onboarding
	ts.ok(http.MethodPost, "/v1/signup", token, nil, &view)
	return view
}

func uploadBody(t *testing.T, name string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestRoutesRequireDeviceToken(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.json(http.MethodGet, "/v1/onboarding", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.json(http.MethodGet, "/v1/onboarding", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := ts.json(http.MethodGet, "/v1/status", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Up and grateful", env.Message)
}

func TestFullJourney(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register()

	view := ts.signup(token)
	assert.Equal(t, models.StepKYC, view.State.CurrentStep)
	assert.Equal(t, "asha@example.com", view.State.CurrentUser)
	assert.Empty(t, view.State.UserData.Password, "password is never echoed")

	ts.ok(http.MethodPost, "/v1/kyc/personal", token, map[string]string{
		"name": "Asha Rao", "fatherName": "Ravi Rao", "dob": "1990-04-12",
		"pan": "ABCDE1234F", "aadhar": "123456789012", "gender": "female", "maritalStatus": "single",
	}, nil)
	ts.ok(http.MethodPost, "/v1/kyc/address", token, map[string]string{
		"address": "12 MG Road", "city": "Pune", "pincode": "411001", "state": "Maharashtra",
		"mobile": "9876543210", "email": "asha@example.com",
	}, nil)
	ts.ok(http.MethodPost, "/v1/kyc/professional", token, map[string]string{
		"occupationType": "salaried", "occupation": "Student",
	}, nil)
	ts.ok(http.MethodPost, "/v1/kyc/confirm", token, nil, &view)
	assert.Equal(t, models.StepRisk, view.State.CurrentStep)

	for id, answer := range map[string]any{
		"age": 1, "experience": 1, "drawdown": 0, "horizon": 0, "income": 1, "goals": []string{"Retirement"},
	} {
		ts.ok(http.MethodPut, "/v1/risk/answers/"+id, token, map[string]any{"answer": answer}, nil)
	}
	ts.ok(http.MethodPost, "/v1/risk/next", token, nil, &view)
	assert.Equal(t, models.StepAssessment, view.State.CurrentStep)
	assert.Equal(t, 8, view.State.UserData.RiskScore)
	assert.Equal(t, models.RiskConservative, view.State.UserData.RiskProfile)

	ts.ok(http.MethodPost, "/v1/assessment/viewport", token, map[string]float64{"scrollTop": 1600, "clientHeight": 400, "scrollHeight": 2000}, nil)
	ts.ok(http.MethodPost, "/v1/assessment/ack", token, map[string]bool{"checked": true}, nil)
	ts.ok(http.MethodPost, "/v1/assessment/next", token, nil, &view)
	assert.Equal(t, models.StepDocs, view.State.CurrentStep)

	for _, slot := range models.RequiredDocuments {
		body, contentType := uploadBody(t, slot.ID+".png")
		status, env := ts.do(http.MethodPut, "/v1/documents/"+slot.ID, token, body, contentType)
		require.Equal(t, http.StatusOK, status, "%s: %s", slot.ID, env.Error)
	}
	ts.ok(http.MethodPost, "/v1/documents/next", token, nil, &view)
	assert.Equal(t, models.StepPlan, view.State.CurrentStep)

	ts.ok(http.MethodPost, "/v1/plans/select", token, map[string]string{"key": "rebalancing", "portfolioValue": "60,00,000"}, &view)
	assert.Equal(t, "₹24,999", view.State.UserData.SelectedPlan.Price)
	ts.ok(http.MethodPost, "/v1/plans/next", token, nil, &view)
	assert.Equal(t, models.StepSign, view.State.CurrentStep)

	ts.ok(http.MethodPost, "/v1/agreement/viewport", token, map[string]float64{"scrollTop": 0, "clientHeight": 900, "scrollHeight": 600}, nil)
	ts.ok(http.MethodPost, "/v1/agreement/ack", token, map[string]bool{"checked": true}, nil)
	ts.ok(http.MethodPost, "/v1/agreement/next", token, nil, &view)
	assert.Equal(t, models.StepPayment, view.State.CurrentStep)

	var invoice stage.Invoice
	ts.ok(http.MethodGet, "/v1/payment/invoice", token, nil, &invoice)
	assert.Equal(t, "Portfolio Rebalancing", invoice.Plan.Title)
	assert.Contains(t, invoice.Lines, stage.InvoiceLine{Label: "Full Name", Value: "Asha Rao"})

	ts.ok(http.MethodPost, "/v1/payment", token, nil, &view)
	assert.True(t, view.State.Flags.PaymentDone)
	for _, step := range view.Rail {
		assert.True(t, step.Done, "rail step %s", step.ID)
	}
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register()

	status, env := ts.json(http.MethodPost, "/v1/kyc/personal", token, map[string]string{})
	assert.Equal(t, http.StatusConflict, status, "KYC before signup is the wrong stage")
	assert.False(t, env.Success)

	status, env = ts.json(http.MethodPost, "/v1/login", token, map[string]string{"identifier": "nope", "password": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(env.Error), "Enter valid email or 10-digit phone")

	status, env = ts.json(http.MethodPost, "/v1/login", token, map[string]string{"identifier": "ghost@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "No account found. Please sign up.", env.Message)

	status, _ = ts.json(http.MethodPost, "/v1/signup/otp/fax/send", token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(http.MethodPost, "/v1/login", token, bytes.NewBufferString("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = ts.json(http.MethodPost, "/v1/login", token, map[string]string{"identifier": "ghost@example.com", "password": "password123", "remember": "yes"})
	assert.Equal(t, http.StatusBadRequest, status, "fixed-schema bodies reject unknown keys")
	assert.Contains(t, env.Message, "remember")

	status, _ = ts.json(http.MethodPost, "/v1/assessment/end", token, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestLoginFromSecondDeviceResumes(t *testing.T) {
	ts := newTestServer(t)

	first := ts.register()
	ts.signup(first)
	ts.ok(http.MethodPost, "/v1/kyc/personal", first, map[string]string{
		"name": "Asha Rao", "fatherName": "Ravi Rao", "dob": "1990-04-12",
		"pan": "ABCDE1234F", "aadhar": "123456789012", "gender": "female", "maritalStatus": "single",
	}, nil)

	second := ts.register()

	status, env := ts.json(http.MethodPost, "/v1/login", second, map[string]string{"identifier": "9876543210", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Incorrect password", env.Message)

	var view onboarding
	ts.ok(http.MethodPost, "/v1/login", second, map[string]string{"identifier": "9876543210", "password": "password123"}, &view)
	assert.Equal(t, models.StepKYC, view.State.CurrentStep)
	assert.Equal(t, models.KYCAddress, view.State.KYCSubStep)
	assert.Equal(t, "Asha Rao", view.State.UserData.KYC.Name)

	ts.ok(http.MethodPost, "/v1/logout", second, nil, &view)
	assert.Equal(t, models.StepAuth, view.State.CurrentStep)

	ts.ok(http.MethodGet, "/v1/onboarding", first, nil, &view)
	assert.Equal(t, "asha@example.com", view.State.CurrentUser, "logging out one device leaves the other signed in")
}

func TestSignupConflict(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(ts.register())

	token := ts.register()
	ts.ok(http.MethodPatch, "/v1/signup/draft", token, map[string]string{
		"name": "Other", "email": "asha@example.com", "mobile": "9000000000",
		"password": "password123", "confirm": "password123",
	}, nil)
	ts.ok(http.MethodPost, "/v1/signup/otp/email/verify", token, map[string]string{"code": "123456"}, nil)
	ts.ok(http.MethodPost, "/v1/signup/otp/mobile/verify", token, map[string]string{"code": "654321"}, nil)

	status, env := ts.json(http.MethodPost, "/v1/signup", token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(env.Error), "Account exists. Please login.")
}
