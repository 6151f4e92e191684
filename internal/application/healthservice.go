package application

import (
	"context"
	"time"

	"github.com/ericfisherdev/mailrelay/internal/domain/port/driven"
)

// Credential states reported by HealthService.
const (
	CredentialPresent = "present"
	CredentialMissing = "missing"
	CredentialExpired = "expired"
	CredentialUnknown = "unknown"
)

// HealthStatus is a point-in-time liveness report.
type HealthStatus struct {
	Status     string
	Time       time.Time
	Credential string
}

// HealthService reports liveness. It never fails: store errors degrade the
// credential state to CredentialUnknown instead of surfacing.
type HealthService struct {
	store driven.CredentialStore
	now   func() time.Time
}

// NewHealthService creates a HealthService. store may be nil, in which case
// the credential state is always CredentialUnknown.
func NewHealthService(store driven.CredentialStore) *HealthService {
	return &HealthService{
		store: store,
		now:   time.Now,
	}
}

// Check returns the current health status.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	now := s.now()
	return HealthStatus{
		Status:     "ok",
		Time:       now,
		Credential: s.credentialState(ctx, now),
	}
}

func (s *HealthService) credentialState(ctx context.Context, now time.Time) string {
	if s.store == nil {
		return CredentialUnknown
	}

	cred, err := s.store.Get(ctx)
	switch {
	case err != nil:
		return CredentialUnknown
	case cred == nil:
		return CredentialMissing
	case cred.IsExpired(now):
		return CredentialExpired
	default:
		return CredentialPresent
	}
}
