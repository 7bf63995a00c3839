package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/incidentauth/internal/audit"
	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	dto "github.com/dropDatabas3/incidentauth/internal/http/dto/auth"
	jwtx "github.com/dropDatabas3/incidentauth/internal/jwt"
	"github.com/dropDatabas3/incidentauth/internal/security/password"
	"github.com/dropDatabas3/incidentauth/internal/store/memory"
	"github.com/dropDatabas3/incidentauth/internal/tenant"
)

type sentOTP struct {
	To       string
	OTP      string
	Validity time.Duration
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentOTP
	err  error
}

func (f *fakeNotifier) SendOTP(_ context.Context, to, otp string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentOTP{To: to, OTP: otp, Validity: validity})
	return f.err
}

func (f *fakeNotifier) last(t *testing.T) sentOTP {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no otp sent")
	return f.sent[len(f.sent)-1]
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (f *fakeAuditor) Record(_ context.Context, e audit.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeAuditor) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Action)
	}
	return out
}

type fakeMetrics struct {
	mu       sync.Mutex
	results  map[string]int
	lockouts int
}

func (f *fakeMetrics) inc(k string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.results == nil {
		f.results = map[string]int{}
	}
	f.results[k]++
}

func (f *fakeMetrics) LoginResult(r string)     { f.inc("login:" + r) }
func (f *fakeMetrics) OTPVerifyResult(r string) { f.inc("otp:" + r) }
func (f *fakeMetrics) RefreshResult(r string)   { f.inc("refresh:" + r) }
func (f *fakeMetrics) OTPLockout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockouts++
}

// testClock es un reloj manual.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc      SessionService
	store    *memory.Store
	issuer   *jwtx.Issuer
	notifier *fakeNotifier
	auditor  *fakeAuditor
	metrics  *fakeMetrics
	clock    *testClock
	acme     *repository.Tenant
}

const testPassword = "S3cure-pass"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	clock := &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}

	iss, err := jwtx.NewIssuer("incidentauth", "incident-web", []byte(strings.Repeat("s", 32)), 15*time.Minute, 30*time.Second)
	require.NoError(t, err)
	iss.Now = clock.Now

	acme, err := st.Tenants().Create(context.Background(), repository.CreateTenantInput{TenantKey: "acme", Name: "Acme"})
	require.NoError(t, err)

	f := &fixture{
		store:    st,
		issuer:   iss,
		notifier: &fakeNotifier{},
		auditor:  &fakeAuditor{},
		metrics:  &fakeMetrics{},
		clock:    clock,
		acme:     acme,
	}
	svc, err := NewSessionService(Deps{
		DAL:      st,
		Issuer:   iss,
		Tenants:  tenant.NewResolver(st.Tenants(), nil, 0),
		Notifier: f.notifier,
		Auditor:  f.auditor,
		Metrics:  f.metrics,
		Clock:    clock.Now,
		Config: Config{
			RefreshTTL:     30 * 24 * time.Hour,
			OTPValidity:    5 * time.Minute,
			PasswordCost:   bcrypt.MinCost,
			PasswordPolicy: password.Policy{MinLength: 8},
		},
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) register(t *testing.T, emailAddr, role, tenantKey string) {
	t.Helper()
	require.NoError(t, f.svc.Register(context.Background(), dto.RegisterRequest{
		FirstName: "Test", LastName: "User", Email: emailAddr, Password: testPassword, Role: role, TenantKey: tenantKey,
	}))
}

// login hace el paso 1 y devuelve temp token + OTP enviado.
func (f *fixture) login(t *testing.T, emailAddr, tenantKey string) (string, string) {
	t.Helper()
	res, err := f.svc.LoginStep1(context.Background(), dto.LoginRequest{Email: emailAddr, Password: testPassword, TenantKey: tenantKey})
	require.NoError(t, err)
	require.True(t, res.MFARequired)
	require.NotEmpty(t, res.TempToken)
	return res.TempToken, f.notifier.last(t).OTP
}

// signIn completa el login y devuelve el par de tokens.
func (f *fixture) signIn(t *testing.T, emailAddr, tenantKey string) *dto.TokenResponse {
	t.Helper()
	temp, otp := f.login(t, emailAddr, tenantKey)
	pair, err := f.svc.VerifyOtp(context.Background(), dto.VerifyOTPRequest{TempToken: temp, OTP: otp})
	require.NoError(t, err)
	return pair
}

// wrongOTP devuelve un código de 6 dígitos distinto de otp.
func wrongOTP(otp string) string {
	if otp == "100000" {
		return "100001"
	}
	return "100000"
}

func repositoryTenant(key string) repository.CreateTenantInput {
	return repository.CreateTenantInput{TenantKey: key, Name: strings.ToUpper(key)}
}
