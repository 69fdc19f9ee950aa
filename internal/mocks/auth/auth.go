// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/model"
	"github.com/dewv/nlc-visits/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Authenticator      = (*StubAuthenticator)(nil)
	_ ports.SessionStore       = (*MemorySessionStore)(nil)
	_ ports.RoleMapper         = StaticRoleMapper{}
	_ ports.ProfileRepository  = (*MemoryProfileRepository)(nil)
	_ ports.SecurityRepository = (*MemorySecurityRepository)(nil)
)

// ErrNotFound is what the in-memory session store reports for unknown IDs.
var ErrNotFound = ports.ErrSessionNotFound

// StubAuthenticator returns a canned outcome per identifier.
type StubAuthenticator struct {
	mu       sync.Mutex
	Outcomes map[string]domainauth.Outcome
	// Default is returned for identifiers not in Outcomes.
	Default domainauth.Outcome
	Calls   []domainauth.Credential
}

// NewStubAuthenticator creates a StubAuthenticator that rejects everything by default.
func NewStubAuthenticator() *StubAuthenticator {
	return &StubAuthenticator{Outcomes: map[string]domainauth.Outcome{}}
}

// Accept registers a successful identity for identifier.
func (s *StubAuthenticator) Accept(identifier string, id domainauth.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Outcomes[identifier] = domainauth.Succeeded(id)
}

func (s *StubAuthenticator) Authenticate(_ context.Context, cred domainauth.Credential) domainauth.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, cred)
	if o, ok := s.Outcomes[cred.Identifier]; ok {
		return o
	}
	return s.Default
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok || id == "" {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports how many sessions are stored.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StaticRoleMapper maps exact distinguished names to roles.
type StaticRoleMapper map[string]domainauth.Role

func (m StaticRoleMapper) Map(dn string) (domainauth.Role, bool) {
	r, ok := m[dn]
	return r, ok
}

// MemoryProfileRepository keeps profiles per role keyed by lowercase identifier.
type MemoryProfileRepository struct {
	mu       sync.Mutex
	nextID   int64
	profiles map[domainauth.Role]map[string]*model.Profile
	// Err, when set, is returned by every method.
	Err error
}

// NewMemoryProfileRepository creates an empty repository.
func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{profiles: map[domainauth.Role]map[string]*model.Profile{}}
}

func (m *MemoryProfileRepository) FindOrCreate(
	_ context.Context,
	req model.FindOrCreateProfileRequest,
) (*model.Profile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	byID := m.profiles[req.Role]
	if byID == nil {
		byID = map[string]*model.Profile{}
		m.profiles[req.Role] = byID
	}
	key := strings.ToLower(req.Identifier)
	if p, ok := byID[key]; ok {
		return clone(p), nil
	}
	m.nextID++
	now := time.Now().UTC()
	p := &model.Profile{
		ID: m.nextID, Role: req.Role, Identifier: req.Identifier,
		FirstName: req.FirstName, LastName: req.LastName,
		ForceProfileUpdate: true, SecretSalt: req.Salt,
		CreatedAt: now, UpdatedAt: now,
	}
	switch req.Role {
	case domainauth.RoleStudent:
		p.Student = &model.StudentDetails{}
	case domainauth.RoleStaff:
		p.Staff = &model.StaffDetails{}
	}
	byID[key] = p
	return clone(p), nil
}

func (m *MemoryProfileRepository) GetByID(_ context.Context, role domainauth.Role, id int64) (*model.Profile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.byID(role, id); p != nil {
		return clone(p), nil
	}
	return nil, ports.ErrProfileNotFound
}

func (m *MemoryProfileRepository) GetByIdentifier(
	_ context.Context,
	role domainauth.Role,
	identifier string,
) (*model.Profile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[role][strings.ToLower(identifier)]; ok {
		return clone(p), nil
	}
	return nil, ports.ErrProfileNotFound
}

func (m *MemoryProfileRepository) Update(
	_ context.Context,
	role domainauth.Role,
	id int64,
	req model.UpdateProfileRequest,
) (*model.Profile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.byID(role, id)
	if p == nil {
		return nil, ports.ErrProfileNotFound
	}
	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	if req.Student != nil && p.Student != nil {
		d := *req.Student
		p.Student = &d
	}
	if req.Staff != nil && p.Staff != nil {
		d := *req.Staff
		p.Staff = &d
	}
	p.ForceProfileUpdate = false
	p.UpdatedAt = time.Now().UTC()
	return clone(p), nil
}

func (m *MemoryProfileRepository) List(
	_ context.Context,
	role domainauth.Role,
	limit, offset int,
) ([]*model.Profile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Profile, 0, len(m.profiles[role]))
	for _, p := range m.profiles[role] {
		out = append(out, clone(p))
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// SetForceProfileUpdate flips the forced-update flag directly.
func (m *MemoryProfileRepository) SetForceProfileUpdate(role domainauth.Role, id int64, force bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.byID(role, id); p != nil {
		p.ForceProfileUpdate = force
	}
}

func (m *MemoryProfileRepository) byID(role domainauth.Role, id int64) *model.Profile {
	for _, p := range m.profiles[role] {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func clone(p *model.Profile) *model.Profile {
	c := *p
	return &c
}

// MemorySecurityRepository stores questions and answers in memory. It reads
// the salt and names from Profiles, so it must share the profile double.
type MemorySecurityRepository struct {
	mu        sync.Mutex
	Profiles  *MemoryProfileRepository
	Questions []model.SecurityQuestion
	answers   map[answerKey]answer
}

type answerKey struct {
	role   domainauth.Role
	userID int64
}

type answer struct {
	questionID int64
	hash       string
}

// NewMemorySecurityRepository creates a repository with two questions.
func NewMemorySecurityRepository(profiles *MemoryProfileRepository) *MemorySecurityRepository {
	return &MemorySecurityRepository{
		Profiles: profiles,
		Questions: []model.SecurityQuestion{
			{ID: 1, Name: "What is your favorite color?"},
			{ID: 2, Name: "What was the name of your first pet?"},
		},
		answers: map[answerKey]answer{},
	}
}

func (m *MemorySecurityRepository) ListQuestions(context.Context) ([]model.SecurityQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.SecurityQuestion(nil), m.Questions...), nil
}

func (m *MemorySecurityRepository) GetAnswer(
	ctx context.Context,
	role domainauth.Role,
	identifier string,
) (*model.SecurityAnswerRecord, error) {
	p, err := m.Profiles.GetByIdentifier(ctx, role, identifier)
	if errors.Is(err, ports.ErrProfileNotFound) {
		return nil, ports.ErrAnswerNotFound
	}
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.answers[answerKey{role, p.ID}]
	if !ok {
		return nil, ports.ErrAnswerNotFound
	}
	rec := &model.SecurityAnswerRecord{
		Role: role, UserID: p.ID, Identifier: p.Identifier,
		FirstName: p.FirstName, LastName: p.LastName,
		QuestionID: a.questionID, Salt: p.SecretSalt, AnswerHash: a.hash,
	}
	for _, q := range m.Questions {
		if q.ID == a.questionID {
			rec.Question = q.Name
		}
	}
	return rec, nil
}

func (m *MemorySecurityRepository) SaveAnswer(
	_ context.Context,
	role domainauth.Role,
	userID, questionID int64,
	answerHash string,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers[answerKey{role, userID}] = answer{questionID: questionID, hash: answerHash}
	return nil
}
