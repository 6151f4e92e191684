package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ericfisherdev/mailrelay/internal/domain/model"
	"github.com/ericfisherdev/mailrelay/internal/domain/port/driven"
)

// --- Mock implementations ---

// memCredentialStore is an in-memory driven.CredentialStore.
type memCredentialStore struct {
	mu      sync.Mutex
	cred    *model.OAuthCredential
	getErr  error
	upserts int
	updates int
}

func (m *memCredentialStore) Get(_ context.Context) (*model.OAuthCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.cred == nil {
		return nil, nil
	}
	c := *m.cred
	return &c, nil
}

func (m *memCredentialStore) Upsert(_ context.Context, cred model.OAuthCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	m.cred = &cred
	return nil
}

func (m *memCredentialStore) UpdateAccessToken(_ context.Context, accessToken string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cred == nil {
		return errors.New("credential not found")
	}
	m.updates++
	m.cred.AccessToken = accessToken
	m.cred.ExpiresAt = expiresAt
	return nil
}

// mockProvider is a driven.OAuthProvider with pluggable behavior.
type mockProvider struct {
	mu        sync.Mutex
	exchange  func(code string) (driven.TokenResponse, error)
	refresh   func(refreshToken string) (driven.TokenResponse, error)
	refreshes int
}

func (m *mockProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?access_type=offline&prompt=consent&state=" + state
}

func (m *mockProvider) Exchange(_ context.Context, code string) (driven.TokenResponse, error) {
	return m.exchange(code)
}

func (m *mockProvider) Refresh(_ context.Context, refreshToken string) (driven.TokenResponse, error) {
	m.mu.Lock()
	m.refreshes++
	m.mu.Unlock()
	return m.refresh(refreshToken)
}

func (m *mockProvider) refreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes
}

// mockTransport records opened sessions.
type mockTransport struct {
	openErr   error
	verifyErr error
	sendErr   error
	auths     []model.SessionAuth
	sessions  []*mockSession
}

func (m *mockTransport) Open(_ context.Context, auth model.SessionAuth) (driven.MailSession, error) {
	m.auths = append(m.auths, auth)
	if m.openErr != nil {
		return nil, m.openErr
	}
	s := &mockSession{verifyErr: m.verifyErr, sendErr: m.sendErr}
	m.sessions = append(m.sessions, s)
	return s, nil
}

type mockSession struct {
	verifyErr error
	sendErr   error
	verified  bool
	closed    bool
	sent      []model.MailMessage
}

func (m *mockSession) Verify(_ context.Context) error {
	m.verified = true
	return m.verifyErr
}

func (m *mockSession) Send(_ context.Context, msg model.MailMessage) (model.DeliveryReceipt, error) {
	if m.sendErr != nil {
		return model.DeliveryReceipt{}, m.sendErr
	}
	m.sent = append(m.sent, msg)
	return model.DeliveryReceipt{MessageID: "<msg-1@example.com>", To: msg.To}, nil
}

func (m *mockSession) Close() error {
	m.closed = true
	return nil
}

// staticCredentials is a CredentialSource returning a fixed result.
type staticCredentials struct {
	cred model.OAuthCredential
	err  error
}

func (s staticCredentials) ValidCredential(_ context.Context) (model.OAuthCredential, error) {
	return s.cred, s.err
}

// memReferralStore is an in-memory driven.ReferralStore enforcing unique email.
type memReferralStore struct {
	byEmail     map[string]model.Referral
	createErr   error
	lookupErr   error
	nextID      int64
	createCalls int
}

func newMemReferralStore() *memReferralStore {
	return &memReferralStore{byEmail: make(map[string]model.Referral)}
}

func (m *memReferralStore) Create(_ context.Context, r model.Referral) (model.Referral, error) {
	m.createCalls++
	if m.createErr != nil {
		return model.Referral{}, m.createErr
	}
	if _, ok := m.byEmail[r.Email]; ok {
		return model.Referral{}, driven.ErrDuplicateEmail
	}
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt = time.Now().UTC()
	m.byEmail[r.Email] = r
	return r, nil
}

func (m *memReferralStore) GetByEmail(_ context.Context, email string) (*model.Referral, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	r, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// mockNotifier is a Notifier with a configurable error.
type mockNotifier struct {
	err   error
	calls []string
}

func (m *mockNotifier) Send(_ context.Context, to, referrerName string) (model.DeliveryReceipt, error) {
	m.calls = append(m.calls, to+"|"+referrerName)
	if m.err != nil {
		return model.DeliveryReceipt{}, m.err
	}
	return model.DeliveryReceipt{MessageID: "<msg-1@example.com>", To: to}, nil
}
