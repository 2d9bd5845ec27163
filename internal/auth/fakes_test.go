package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/shop-api/internal/user"
)

// fakeUserStore is a test-only in-memory UserStore with error injection.
// The service sends email from goroutines, so all access is mutex-guarded.
type fakeUserStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*user.User
	byEmail map[string]uuid.UUID

	createErr error
	getErr    error
	updateErr error
	deleteErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:   make(map[uuid.UUID]*user.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func copyUser(u *user.User) *user.User {
	c := *u
	return &c
}

// seed inserts a user directly, bypassing the registration flow.
func (f *fakeUserStore) seed(email, passwordHash string, verified bool) *user.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	u := &user.User{
		ID:            uuid.New(),
		Email:         email,
		PasswordHash:  passwordHash,
		EmailVerified: verified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	f.users[u.ID] = u
	f.byEmail[u.Email] = u.ID

	return copyUser(u)
}

func (f *fakeUserStore) Create(ctx context.Context, email, passwordHash string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, exists := f.byEmail[email]; exists {
		return nil, user.ErrDuplicateEmail
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.users[u.ID] = u
	f.byEmail[email] = u.ID

	return copyUser(u), nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	id, ok := f.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}

	return copyUser(f.users[id]), nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}

	return copyUser(u), nil
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.users[userID]
	if !ok {
		return user.ErrNotFound
	}

	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUserStore) UpdateEmail(ctx context.Context, userID uuid.UUID, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	if other, exists := f.byEmail[email]; exists && other != userID {
		return user.ErrDuplicateEmail
	}

	delete(f.byEmail, u.Email)
	u.Email = email
	f.byEmail[email] = userID
	u.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUserStore) MarkEmailAsVerified(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return user.ErrNotFound
	}

	u.EmailVerified = true
	u.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUserStore) Delete(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	u, ok := f.users[userID]
	if !ok {
		return user.ErrNotFound
	}

	delete(f.byEmail, u.Email)
	delete(f.users, userID)
	return nil
}

// fakeCodeStore is a test-only in-memory CodeStore. It mirrors the Redis
// repository's semantics: Consume deletes atomically so only one caller
// wins, and Get also returns records whose logical expiry has passed.
type fakeCodeStore struct {
	mu      sync.Mutex
	records map[string]*CodeRecord

	getCalls int

	storeErr error
	getErr   error
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{records: make(map[string]*CodeRecord)}
}

// seed stores a record directly, bypassing the issuing flow.
func (f *fakeCodeStore) seed(email, code string, expiresAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[email] = &CodeRecord{Code: code, ExpiresAt: expiresAt}
}

// has reports whether a record exists for the email.
func (f *fakeCodeStore) has(email string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[email]
	return ok
}

// code returns the live code for the email, if any.
func (f *fakeCodeStore) code(email string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[email]
	if !ok {
		return "", false
	}
	return rec.Code, true
}

func (f *fakeCodeStore) Store(ctx context.Context, email, code string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.storeErr != nil {
		return f.storeErr
	}
	f.records[email] = &CodeRecord{Code: code, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeCodeStore) Get(ctx context.Context, email string) (*CodeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[email]
	if !ok {
		return nil, ErrCodeNotFound
	}

	c := *rec
	return &c, nil
}

func (f *fakeCodeStore) Consume(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.records[email]; !ok {
		return ErrCodeNotFound
	}
	delete(f.records, email)
	return nil
}

func (f *fakeCodeStore) Delete(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, email)
	return nil
}

// fakeTokenStore is a test-only in-memory ConfirmationTokenStore.
// Storing a token for an email invalidates the previous one, and Consume
// is single-use, matching the Redis repository.
type fakeTokenStore struct {
	mu      sync.Mutex
	byToken map[string]*ConfirmationRecord
	byEmail map[string]string

	storeErr error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{
		byToken: make(map[string]*ConfirmationRecord),
		byEmail: make(map[string]string),
	}
}

// tokenFor returns the live token for the email, if any.
func (f *fakeTokenStore) tokenFor(email string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token, ok := f.byEmail[email]
	return token, ok
}

func (f *fakeTokenStore) Store(ctx context.Context, email, token string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.storeErr != nil {
		return f.storeErr
	}
	if old, ok := f.byEmail[email]; ok {
		delete(f.byToken, old)
	}

	f.byToken[token] = &ConfirmationRecord{Email: email, CreatedAt: time.Now()}
	f.byEmail[email] = token
	return nil
}

func (f *fakeTokenStore) Consume(ctx context.Context, token string) (*ConfirmationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.byToken[token]
	if !ok {
		return nil, ErrConfirmationTokenNotFound
	}

	delete(f.byToken, token)
	delete(f.byEmail, rec.Email)

	c := *rec
	return &c, nil
}

func (f *fakeTokenStore) DeleteByEmail(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if token, ok := f.byEmail[email]; ok {
		delete(f.byToken, token)
		delete(f.byEmail, email)
	}
	return nil
}

// sentSecret is one recorded outgoing email.
type sentSecret struct {
	email  string
	secret string
}

// fakeEmailService records outgoing mail. The service dispatches sends on
// goroutines, so reads must go through the mutex-guarded accessors.
type fakeEmailService struct {
	mu sync.Mutex

	resetCodes        []sentSecret
	verificationCodes []sentSecret
	confirmationLinks []sentSecret

	sendErr error
}

func (f *fakeEmailService) SendPasswordResetEmail(ctx context.Context, toEmail, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}
	f.resetCodes = append(f.resetCodes, sentSecret{email: toEmail, secret: code})
	return nil
}

func (f *fakeEmailService) SendVerificationEmail(ctx context.Context, toEmail, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}
	f.verificationCodes = append(f.verificationCodes, sentSecret{email: toEmail, secret: code})
	return nil
}

func (f *fakeEmailService) SendConfirmationEmail(ctx context.Context, toEmail, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}
	f.confirmationLinks = append(f.confirmationLinks, sentSecret{email: toEmail, secret: token})
	return nil
}

func (f *fakeEmailService) lastResetCode() (sentSecret, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.resetCodes) == 0 {
		return sentSecret{}, false
	}
	return f.resetCodes[len(f.resetCodes)-1], true
}

func (f *fakeEmailService) lastVerificationCode() (sentSecret, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.verificationCodes) == 0 {
		return sentSecret{}, false
	}
	return f.verificationCodes[len(f.verificationCodes)-1], true
}

func (f *fakeEmailService) lastConfirmationLink() (sentSecret, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.confirmationLinks) == 0 {
		return sentSecret{}, false
	}
	return f.confirmationLinks[len(f.confirmationLinks)-1], true
}

func (f *fakeEmailService) confirmationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.confirmationLinks)
}
