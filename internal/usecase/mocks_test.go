package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kairos-service/internal/domain"
)

// MockKairosSession is a mock of the per-session Kairos client
type MockKairosSession struct {
	mock.Mock

	mu     sync.Mutex
	tokens domain.Tokens
}

func (m *MockKairosSession) Tokens() domain.Tokens {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens
}

func (m *MockKairosSession) SetTokens(tokens domain.Tokens) {
	m.mu.Lock()
	m.tokens = tokens
	m.mu.Unlock()
}

func (m *MockKairosSession) CurrentUser(ctx context.Context) (*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockKairosSession) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockKairosSession) UpdateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockKairosSession) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockKairosSession) List(ctx context.Context, userID string) ([]domain.Journey, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Journey), args.Error(1)
}

func (m *MockKairosSession) Active(ctx context.Context, userID string) (*domain.Journey, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journey), args.Error(1)
}

func (m *MockKairosSession) Get(ctx context.Context, journeyID string) (*domain.Journey, error) {
	args := m.Called(ctx, journeyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journey), args.Error(1)
}

func (m *MockKairosSession) Create(ctx context.Context, draft domain.JourneyDraft) (*domain.Journey, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journey), args.Error(1)
}

func (m *MockKairosSession) Delete(ctx context.Context, journeyID string) error {
	args := m.Called(ctx, journeyID)
	return args.Error(0)
}

func (m *MockKairosSession) ToggleActive(ctx context.Context, journeyID string) (*domain.Journey, error) {
	args := m.Called(ctx, journeyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journey), args.Error(1)
}

func (m *MockKairosSession) SetCompleted(ctx context.Context, journeyID string, completed bool) (*domain.Journey, error) {
	args := m.Called(ctx, journeyID, completed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journey), args.Error(1)
}

func (m *MockKairosSession) ListMarkers(ctx context.Context, journeyID string) ([]domain.Marker, error) {
	args := m.Called(ctx, journeyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Marker), args.Error(1)
}

func (m *MockKairosSession) NearbyJourneyIDs(ctx context.Context, journeyID string) ([]string, error) {
	args := m.Called(ctx, journeyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockKairosSession) CreateMarker(ctx context.Context, journeyID string, draft domain.MarkerDraft) (*domain.Marker, error) {
	args := m.Called(ctx, journeyID, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Marker), args.Error(1)
}

func (m *MockKairosSession) UpdateMarker(ctx context.Context, marker domain.Marker) (*domain.Marker, error) {
	args := m.Called(ctx, marker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Marker), args.Error(1)
}

func (m *MockKairosSession) DeleteMarker(ctx context.Context, journeyID, markerID string) error {
	args := m.Called(ctx, journeyID, markerID)
	return args.Error(0)
}

// MockAuthRepository is a mock of AuthRepository
type MockAuthRepository struct {
	mock.Mock
}

func (m *MockAuthRepository) Login(ctx context.Context, creds domain.Credentials) (domain.Tokens, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(domain.Tokens), args.Error(1)
}

func (m *MockAuthRepository) Signup(ctx context.Context, data domain.SignupData) (*domain.User, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthRepository) Refresh(ctx context.Context, refreshToken string) (domain.Tokens, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(domain.Tokens), args.Error(1)
}

func (m *MockAuthRepository) RequestPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockAuthRepository) UpdatePassword(ctx context.Context, token, newPassword string) error {
	args := m.Called(ctx, token, newPassword)
	return args.Error(0)
}

func (m *MockAuthRepository) VerifyEmail(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// MockTokenStore is a mock of TokenStore
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Get(ctx context.Context, sessionID string) (domain.Tokens, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.Tokens), args.Error(1)
}

func (m *MockTokenStore) Save(ctx context.Context, sessionID string, tokens domain.Tokens, ttl time.Duration) error {
	args := m.Called(ctx, sessionID, tokens, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) GetProfile(ctx context.Context, userID string) (*domain.ProfileSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProfileSummary), args.Error(1)
}

func (m *MockCacheRepository) SetProfile(ctx context.Context, profile *domain.ProfileSummary, ttl time.Duration) error {
	args := m.Called(ctx, profile, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) DeleteProfile(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// staticUser - текущий пользователь для тестов контроллера
type staticUser struct {
	mu   sync.Mutex
	user *domain.User
}

func (s *staticUser) CurrentUser() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *staticUser) User(context.Context) (*domain.User, error) {
	return s.CurrentUser(), nil
}

func (s *staticUser) set(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.user = nil
		return
	}
	s.user = &domain.User{ID: id, Name: "user " + id}
}

func timePtr(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func pastMarker(id, journeyID, ownerID string, lng, lat float64, at string) domain.Marker {
	return domain.Marker{
		ID:          id,
		JourneyID:   journeyID,
		OwnerID:     ownerID,
		Name:        "marker " + id,
		Coordinates: domain.NewCoordinates(lng, lat),
		Kind:        domain.MarkerKindPast,
		Timestamp:   timePtr(at),
	}
}
