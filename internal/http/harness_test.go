package httpx

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/net/publicsuffix"

	"github.com/dewv/nlc-visits/internal/adapters/devauth"
	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/model"
	mockauth "github.com/dewv/nlc-visits/internal/mocks/auth"
	"github.com/dewv/nlc-visits/internal/ports"
	"github.com/dewv/nlc-visits/internal/service"
)

// memoryVisits is an in-memory VisitRepository for workflow tests.
type memoryVisits struct {
	mu     sync.Mutex
	nextID int64
	visits []*model.Visit
}

var _ ports.VisitRepository = (*memoryVisits)(nil)

func (m *memoryVisits) Create(_ context.Context, req model.CreateVisitRequest) (*model.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.visits {
		if v.StudentID == req.StudentID && v.IsOpen() {
			return nil, ports.ErrOpenVisitExists
		}
	}
	m.nextID++
	v := &model.Visit{
		ID:               m.nextID,
		StudentID:        req.StudentID,
		CheckInTime:      req.CheckInTime,
		Location:         req.Location,
		Purpose:          req.Purpose,
		UsedTutor:        req.Notes.UsedTutor,
		TutorCourses:     req.Notes.TutorCourses,
		TutorInstructors: req.Notes.TutorInstructors,
		Comment:          req.Notes.Comment,
	}
	m.visits = append(m.visits, v)
	cp := *v
	return &cp, nil
}

func (m *memoryVisits) GetByID(_ context.Context, id int64) (*model.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.visits {
		if v.ID == id {
			cp := *v
			return &cp, nil
		}
	}
	return nil, ports.ErrVisitNotFound
}

func (m *memoryVisits) Latest(_ context.Context, studentID int64) (*model.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Visit
	for _, v := range m.visits {
		if v.StudentID == studentID && (latest == nil || !v.CheckInTime.Before(latest.CheckInTime)) {
			latest = v
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *memoryVisits) Close(_ context.Context, req model.CloseVisitRequest) (*model.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.visits {
		if v.ID == req.ID && v.IsOpen() {
			out := req.CheckOutTime
			achieved := req.PurposeAchieved
			hours := req.DurationHours
			v.CheckOutTime = &out
			v.PurposeAchieved = &achieved
			v.DurationHours = &hours
			v.DurationIsEstimated = req.DurationIsEstimated
			v.Comment = req.Notes.Comment
			cp := *v
			return &cp, nil
		}
	}
	return nil, ports.ErrVisitNotFound
}

func (m *memoryVisits) UpdateNotes(_ context.Context, req model.UpdateVisitNotesRequest) (*model.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.visits {
		if v.ID == req.ID && v.IsOpen() {
			v.UsedTutor = req.Notes.UsedTutor
			v.TutorCourses = req.Notes.TutorCourses
			v.TutorInstructors = req.Notes.TutorInstructors
			v.Comment = req.Notes.Comment
			cp := *v
			return &cp, nil
		}
	}
	return nil, ports.ErrVisitNotFound
}

func (m *memoryVisits) List(_ context.Context, opts model.VisitsListOptions) ([]*model.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Visit, 0, len(m.visits))
	for _, v := range m.visits {
		if opts.StudentID != nil && v.StudentID != *opts.StudentID {
			continue
		}
		if opts.OpenOnly && !v.IsOpen() {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInTime.After(out[j].CheckInTime) })
	return out, nil
}

// harness runs the full router against in-memory doubles and a cookie-keeping client.
type harness struct {
	t        *testing.T
	server   *httptest.Server
	client   *http.Client
	sessions *mockauth.MemorySessionStore
	profiles *mockauth.MemoryProfileRepository
	security *mockauth.MemorySecurityRepository
	visits   ports.VisitRepository
}

type harnessOptions struct {
	Visits ports.VisitRepository
	CSRF   bool
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		sessions: mockauth.NewMemorySessionStore(),
		profiles: mockauth.NewMemoryProfileRepository(),
		visits:   opts.Visits,
	}
	if h.visits == nil {
		h.visits = &memoryVisits{}
	}
	h.security = mockauth.NewMemorySecurityRepository(h.profiles)

	renderer, err := NewTemplateRenderer(TemplateRendererConfig{})
	require.NoError(t, err)

	sessions := service.NewAuthService(service.AuthServiceOptions{Sessions: h.sessions, Profiles: h.profiles})
	login := service.NewLoginService(service.LoginServiceOptions{
		Authenticator: service.NewCredentialAuthenticator(service.CredentialAuthenticatorOptions{
			Simulator: devauth.NewSimulator(nil),
		}),
		Fallback: service.NewFallbackService(service.FallbackServiceOptions{
			Profiles: h.profiles,
			Security: h.security,
		}),
		Sessions: sessions,
	})

	h.server = httptest.NewServer(NewRouter(RouterServices{
		Sessions: sessions,
		Login:    login,
		Authz:    service.NewAuthorizationService(service.AuthorizationServiceOptions{Profiles: h.profiles, Visits: h.visits}),
		Visits:   service.NewVisitService(service.VisitServiceOptions{Visits: h.visits}),
		Profiles: service.NewProfileService(service.ProfileServiceOptions{Profiles: h.profiles, Security: h.security}),
		Renderer: renderer,
		CSRF:     opts.CSRF,
	}))
	t.Cleanup(h.server.Close)

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	require.NoError(t, err)
	h.client = &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return h
}

type response struct {
	Status   int
	Location string
	Body     string
}

func (h *harness) do(req *http.Request) response {
	h.t.Helper()
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return response{Status: resp.StatusCode, Location: resp.Header.Get("Location"), Body: string(body)}
}

func (h *harness) get(path string) response {
	h.t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.server.URL+path, nil)
	require.NoError(h.t, err)
	return h.do(req)
}

// post submits a form, adding the CSRF token when the jar holds one.
func (h *harness) post(path string, form url.Values) response {
	h.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if token := h.cookie(DefaultCSRFCookieName); token != "" {
		form.Set(DefaultCSRFCookieName, token)
	}
	req, err := http.NewRequest(http.MethodPost, h.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

func (h *harness) cookie(name string) string {
	u, _ := url.Parse(h.server.URL)
	for _, c := range h.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (h *harness) setLocation(location string) {
	u, _ := url.Parse(h.server.URL)
	h.client.Jar.SetCookies(u, []*http.Cookie{{Name: LocationCookieName, Value: url.QueryEscape(location), Path: "/"}})
}

// login signs in through the simulator; secret picks the role.
func (h *harness) login(identifier, secret string) response {
	h.t.Helper()
	return h.post("/login", url.Values{"identifier": {identifier}, "secret": {secret}})
}

// completeProfile clears the forced update that every new profile starts with.
func (h *harness) completeProfile(role domainauth.Role, identifier string) *model.Profile {
	h.t.Helper()
	p, err := h.profiles.GetByIdentifier(context.Background(), role, identifier)
	require.NoError(h.t, err)
	h.profiles.SetForceProfileUpdate(role, p.ID, false)
	return p
}

// seedAnswer stores a security answer the way the profile service does.
func (h *harness) seedAnswer(role domainauth.Role, identifier, answer string) *model.Profile {
	h.t.Helper()
	ctx := context.Background()
	p, err := h.profiles.FindOrCreate(ctx, model.FindOrCreateProfileRequest{
		Role: role, Identifier: identifier, FirstName: "Grace", LastName: "Hopper", Salt: "0123456789abcdef",
	})
	require.NoError(h.t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte(answer+p.SecretSalt), bcrypt.MinCost)
	require.NoError(h.t, err)
	require.NoError(h.t, h.security.SaveAnswer(ctx, role, p.ID, 1, string(hash)))
	return p
}
