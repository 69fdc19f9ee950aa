package service

import (
	"sync"
	"testing"
	"time"

	"github.com/dewv/nlc-visits/internal/adapters/devauth"
	mockauth "github.com/dewv/nlc-visits/internal/mocks/auth"
)

// recordingSink captures counters for assertions.
type recordingSink struct {
	mu     sync.Mutex
	counts []recordedMetric
}

type recordedMetric struct {
	name string
	tags map[string]string
}

func (r *recordingSink) Count(name string, _ int64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, recordedMetric{name: name, tags: tags})
}

func (r *recordingSink) Timing(string, time.Duration, map[string]string) {}

func (r *recordingSink) last() recordedMetric {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.counts) == 0 {
		return recordedMetric{}
	}
	return r.counts[len(r.counts)-1]
}

// loginFixture wires the login flow against in-memory doubles.
type loginFixture struct {
	sessions *mockauth.MemorySessionStore
	profiles *mockauth.MemoryProfileRepository
	security *mockauth.MemorySecurityRepository
	auth     *AuthService
	login    *LoginService
	sink     *recordingSink
}

func newLoginFixture(t *testing.T) *loginFixture {
	t.Helper()
	f := &loginFixture{
		sessions: mockauth.NewMemorySessionStore(),
		profiles: mockauth.NewMemoryProfileRepository(),
		sink:     &recordingSink{},
	}
	f.security = mockauth.NewMemorySecurityRepository(f.profiles)
	f.auth = NewAuthService(AuthServiceOptions{Sessions: f.sessions, Profiles: f.profiles})
	f.login = NewLoginService(LoginServiceOptions{
		Authenticator: NewCredentialAuthenticator(CredentialAuthenticatorOptions{
			Simulator: devauth.NewSimulator(nil),
			Config:    CredentialAuthenticatorConfig{Metrics: f.sink},
		}),
		Fallback: NewFallbackService(FallbackServiceOptions{Profiles: f.profiles, Security: f.security}),
		Sessions: f.auth,
	})
	return f
}
