package application_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/venuescout/auth-service/internal/adapters/security"
	"github.com/venuescout/auth-service/internal/application"
	"github.com/venuescout/auth-service/internal/domain"
	"github.com/venuescout/auth-service/internal/ports"
)

// fixture wires the service against in-memory fakes for persistence and
// cache ports and the real security adapters, so token, hash, and cipher
// behavior in tests matches production.
type fixture struct {
	service     *application.Service
	identities  *fakeIdentityRepo
	magicLinks  *fakeMagicLinkRepo
	backupCodes *fakeBackupCodeRepo
	sessions    *fakeSessionRepo
	counters    *fakeRateCounterStore
	revocations *fakeRevocationStore
	oauthState  *fakeOAuthStateStore
	exchanger   *fakeExchanger
	mailer      *fakeMailer
	audit       *fakeAudit
	totp        *security.TOTPEngine
	cipher      ports.SecretCipher
}

func newFixture() *fixture {
	cipher, err := security.NewAESGCMCipher([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		panic(err)
	}
	signer, err := security.NewJWTSigner("unit-test-signing-secret-32-bytes!!")
	if err != nil {
		panic(err)
	}
	totpEngine := security.NewTOTPEngine("VenueScout", 1)

	f := &fixture{
		identities:  &fakeIdentityRepo{byID: map[uuid.UUID]*domain.Identity{}},
		magicLinks:  &fakeMagicLinkRepo{},
		backupCodes: &fakeBackupCodeRepo{},
		sessions:    &fakeSessionRepo{byJTI: map[uuid.UUID]*domain.Session{}},
		counters:    &fakeRateCounterStore{counters: map[string]*fakeCounter{}},
		revocations: &fakeRevocationStore{revoked: map[uuid.UUID]bool{}},
		oauthState:  &fakeOAuthStateStore{states: map[string]ports.OAuthState{}},
		exchanger:   &fakeExchanger{},
		mailer:      &fakeMailer{},
		audit:       &fakeAudit{},
		totp:        totpEngine,
		cipher:      cipher,
	}

	f.service = application.NewService(application.Dependencies{
		Config: application.Config{
			DefaultRole:     domain.RoleUser,
			Issuer:          "VenueScout",
			AppBaseURL:      "http://localhost:3000",
			SessionTTL:      7 * 24 * time.Hour,
			MagicLinkTTL:    15 * time.Minute,
			BackupCodeCount: 10,
			RateLimits: map[string]application.RateLimitPolicy{
				application.ClassMagicLinkRequest: {Limit: 3, Window: 15 * time.Minute},
				application.ClassMagicLinkVerify:  {Limit: 10, Window: 15 * time.Minute},
				application.ClassTOTPVerify:       {Limit: 5, Window: 5 * time.Minute},
				application.ClassTOTPEnroll:       {Limit: 5, Window: time.Hour},
				application.ClassOAuthExchange:    {Limit: 10, Window: 15 * time.Minute},
			},
		},
		Identities:       f.identities,
		MagicLinks:       f.magicLinks,
		BackupCodes:      f.backupCodes,
		Sessions:         f.sessions,
		RateLimitRecords: &fakeRateRecordRepo{},
		OAuthConnections: &fakeOAuthConnRepo{byKey: map[string]uuid.UUID{}},
		RateCounters:     f.counters,
		Revocations:      f.revocations,
		OAuthState:       f.oauthState,
		OAuthExchanger:   f.exchanger,
		Cipher:           cipher,
		Hasher:           security.NewBcryptHasher(4),
		TokenSigner:      signer,
		TOTP:             totpEngine,
		Tokens:           security.RandomTokenGenerator{},
		Mailer:           f.mailer,
		Audit:            f.audit,
	})
	return f
}

// lastMagicLinkToken extracts the raw token from the most recently mailed
// link.
func (f *fixture) lastMagicLinkToken() string {
	link := f.mailer.lastLink()
	idx := strings.LastIndex(link, "token=")
	if idx < 0 {
		return ""
	}
	return link[idx+len("token="):]
}

type fakeIdentityRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.Identity
}

func (r *fakeIdentityRepo) GetOrCreateByEmail(_ context.Context, email, defaultRole string, now time.Time) (domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.byID {
		if id.Email == email {
			return *id, nil
		}
	}
	identity := &domain.Identity{
		IdentityID: uuid.New(),
		Email:      email,
		Role:       defaultRole,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.byID[identity.IdentityID] = identity
	return *identity, nil
}

func (r *fakeIdentityRepo) GetByID(_ context.Context, identityID uuid.UUID) (domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byID[identityID]
	if !ok {
		return domain.Identity{}, domain.ErrNotFound
	}
	return *id, nil
}

func (r *fakeIdentityRepo) GetByEmail(_ context.Context, email string) (domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.byID {
		if id.Email == email {
			return *id, nil
		}
	}
	return domain.Identity{}, domain.ErrNotFound
}

func (r *fakeIdentityRepo) RecordLogin(_ context.Context, identityID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byID[identityID]
	if !ok {
		return domain.ErrNotFound
	}
	id.LastLoginAt = &at
	id.FirstLoginCompleted = true
	id.UpdatedAt = at
	return nil
}

func (r *fakeIdentityRepo) SetTOTPSecret(_ context.Context, identityID uuid.UUID, encryptedSecret string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byID[identityID]
	if !ok {
		return domain.ErrNotFound
	}
	id.TOTPSecret = &encryptedSecret
	id.TOTPEnabled = false
	id.UpdatedAt = at
	return nil
}

func (r *fakeIdentityRepo) EnableTOTP(_ context.Context, identityID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byID[identityID]
	if !ok || id.TOTPSecret == nil {
		return domain.ErrTOTPNotEnrolled
	}
	id.TOTPEnabled = true
	id.UpdatedAt = at
	return nil
}

type fakeMagicLinkRepo struct {
	mu     sync.Mutex
	tokens []*domain.MagicLinkToken
}

func (r *fakeMagicLinkRepo) Create(_ context.Context, params ports.MagicLinkCreateParams) (domain.MagicLinkToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token := &domain.MagicLinkToken{
		TokenID:    uuid.New(),
		TokenHash:  params.TokenHash,
		Email:      params.Email,
		IdentityID: params.IdentityID,
		CreatedAt:  params.CreatedAt,
		ExpiresAt:  params.ExpiresAt,
	}
	r.tokens = append(r.tokens, token)
	return *token, nil
}

func (r *fakeMagicLinkRepo) ListActive(_ context.Context, now time.Time) ([]domain.MagicLinkToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.MagicLinkToken
	for _, token := range r.tokens {
		if token.ConsumedAt == nil && token.ExpiresAt.After(now) {
			out = append(out, *token)
		}
	}
	return out, nil
}

func (r *fakeMagicLinkRepo) Consume(_ context.Context, tokenID uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.TokenID == tokenID {
			if token.ConsumedAt != nil {
				return false, nil
			}
			token.ConsumedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMagicLinkRepo) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.tokens[:0]
	var deleted int64
	for _, token := range r.tokens {
		if token.ExpiresAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, token)
	}
	r.tokens = kept
	return deleted, nil
}

// expireAll forces every outstanding link past its TTL.
func (r *fakeMagicLinkRepo) expireAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	past := time.Now().UTC().Add(-time.Minute)
	for _, token := range r.tokens {
		token.ExpiresAt = past
	}
}

type fakeBackupCodeRepo struct {
	mu    sync.Mutex
	codes []*domain.BackupCode
}

func (r *fakeBackupCodeRepo) Replace(_ context.Context, identityID uuid.UUID, codeHashes []string, createdAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.codes[:0]
	for _, code := range r.codes {
		if code.IdentityID != identityID {
			kept = append(kept, code)
		}
	}
	r.codes = kept
	for _, hash := range codeHashes {
		r.codes = append(r.codes, &domain.BackupCode{
			BackupCodeID: uuid.New(),
			IdentityID:   identityID,
			CodeHash:     hash,
			CreatedAt:    createdAt,
		})
	}
	return nil
}

func (r *fakeBackupCodeRepo) ListUnused(_ context.Context, identityID uuid.UUID) ([]domain.BackupCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.BackupCode
	for _, code := range r.codes {
		if code.IdentityID == identityID && code.UsedAt == nil {
			out = append(out, *code)
		}
	}
	return out, nil
}

func (r *fakeBackupCodeRepo) Consume(_ context.Context, backupCodeID uuid.UUID, usedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, code := range r.codes {
		if code.BackupCodeID == backupCodeID {
			if code.UsedAt != nil {
				return false, nil
			}
			code.UsedAt = &usedAt
			return true, nil
		}
	}
	return false, nil
}

type fakeSessionRepo struct {
	mu    sync.Mutex
	byJTI map[uuid.UUID]*domain.Session
}

func (r *fakeSessionRepo) Create(_ context.Context, params ports.SessionCreateParams) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session := &domain.Session{
		JTI:        params.JTI,
		IdentityID: params.IdentityID,
		IPAddress:  params.IPAddress,
		UserAgent:  params.UserAgent,
		CreatedAt:  params.CreatedAt,
		ExpiresAt:  params.ExpiresAt,
	}
	r.byJTI[session.JTI] = session
	return *session, nil
}

func (r *fakeSessionRepo) GetByJTI(_ context.Context, jti uuid.UUID) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.byJTI[jti]
	if !ok {
		return domain.Session{}, domain.ErrNotFound
	}
	return *session, nil
}

func (r *fakeSessionRepo) RevokeByJTI(_ context.Context, jti uuid.UUID, revokedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.byJTI[jti]
	if !ok {
		return domain.ErrNotFound
	}
	if session.RevokedAt == nil {
		session.RevokedAt = &revokedAt
	}
	return nil
}

func (r *fakeSessionRepo) RevokeAllByIdentity(_ context.Context, identityID uuid.UUID, revokedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, session := range r.byJTI {
		if session.IdentityID == identityID && session.RevokedAt == nil {
			session.RevokedAt = &revokedAt
			count++
		}
	}
	return count, nil
}

func (r *fakeSessionRepo) RevokeAllExcept(_ context.Context, identityID uuid.UUID, keepJTI uuid.UUID, revokedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, session := range r.byJTI {
		if session.IdentityID == identityID && session.JTI != keepJTI && session.RevokedAt == nil {
			session.RevokedAt = &revokedAt
			count++
		}
	}
	return count, nil
}

func (r *fakeSessionRepo) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for jti, session := range r.byJTI {
		if session.ExpiresAt.Before(cutoff) {
			delete(r.byJTI, jti)
			count++
		}
	}
	return count, nil
}

type fakeRateRecordRepo struct {
	mu      sync.Mutex
	records []domain.RateLimitRecord
}

func (r *fakeRateRecordRepo) Insert(_ context.Context, rec domain.RateLimitRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeRateRecordRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	var deleted int64
	for _, rec := range r.records {
		if rec.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return deleted, nil
}

type fakeOAuthConnRepo struct {
	mu    sync.Mutex
	byKey map[string]uuid.UUID
}

func (r *fakeOAuthConnRepo) FindIdentityByProviderSubject(_ context.Context, provider, subject string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byKey[provider+"/"+subject]
	if !ok {
		return uuid.Nil, domain.ErrNotFound
	}
	return id, nil
}

func (r *fakeOAuthConnRepo) Upsert(_ context.Context, identityID uuid.UUID, provider, subject, _ string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[provider+"/"+subject] = identityID
	return nil
}

type fakeCounter struct {
	count     int64
	expiresAt time.Time
}

type fakeRateCounterStore struct {
	mu       sync.Mutex
	counters map[string]*fakeCounter
}

func (s *fakeRateCounterStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	c, ok := s.counters[key]
	if !ok || now.After(c.expiresAt) {
		c = &fakeCounter{expiresAt: now.Add(window)}
		s.counters[key] = c
	}
	c.count++
	return c.count, time.Until(c.expiresAt), nil
}

func (s *fakeRateCounterStore) Count(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[key]
	if !ok || time.Now().After(c.expiresAt) {
		return 0, nil
	}
	return c.count, nil
}

func (s *fakeRateCounterStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
	return nil
}

type fakeRevocationStore struct {
	mu      sync.Mutex
	revoked map[uuid.UUID]bool
}

func (s *fakeRevocationStore) MarkRevoked(_ context.Context, jti uuid.UUID, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = true
	return nil
}

func (s *fakeRevocationStore) IsRevoked(_ context.Context, jti uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[jti], nil
}

type fakeOAuthStateStore struct {
	mu     sync.Mutex
	states map[string]ports.OAuthState
}

func (s *fakeOAuthStateStore) Put(_ context.Context, state string, value ports.OAuthState, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = value
	return nil
}

func (s *fakeOAuthStateStore) Get(_ context.Context, state string) (*ports.OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.states[state]
	if !ok {
		return nil, nil
	}
	return &value, nil
}

func (s *fakeOAuthStateStore) Delete(_ context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, state)
	return nil
}

type fakeExchanger struct {
	mu      sync.Mutex
	profile ports.OAuthProfile
	err     error
}

func (e *fakeExchanger) Exchange(_ context.Context, _ string) (ports.OAuthProfile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return ports.OAuthProfile{}, e.err
	}
	return e.profile, nil
}

type fakeMailer struct {
	mu    sync.Mutex
	links []string
}

func (m *fakeMailer) SendMagicLink(_ context.Context, _, link string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

func (m *fakeMailer) lastLink() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.links) == 0 {
		return ""
	}
	return m.links[len(m.links)-1]
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []ports.AuditEntry
}

func (a *fakeAudit) Record(entry ports.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *fakeAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, entry := range a.entries {
		out = append(out, entry.Action)
	}
	return out
}
