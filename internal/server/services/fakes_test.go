package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/dmitrijs2005/messagely/internal/dbx"
	"github.com/dmitrijs2005/messagely/internal/server/config"
	"github.com/dmitrijs2005/messagely/internal/server/models"
	messagesrepo "github.com/dmitrijs2005/messagely/internal/server/repositories/messages"
	usersrepo "github.com/dmitrijs2005/messagely/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:        "k",
		BcryptWorkFactor: 4,
	}
}

// fakeUsersRepo keeps users in memory.
type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User

	existsErr error
	createErr error
	getErr    error

	loginStamps int
	sent        []models.SentMessage
	received    []models.ReceivedMessage
}

func newFakeUsersRepo(users ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{users: map[string]*models.User{}}
	for _, u := range users {
		f.users[u.UserName] = u
	}
	return f
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.users[u.UserName]; ok {
		return nil, common.ErrorConflict
	}
	now := time.Now()
	c := *u
	c.JoinAt = now
	c.LastLoginAt = &now
	f.users[u.UserName] = &c
	return &c, nil
}

func (f *fakeUsersRepo) Exists(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.users[username]
	return ok, nil
}

func (f *fakeUsersRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsersRepo) UpdateLoginTimestamp(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return common.ErrorNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	f.loginStamps++
	return nil
}

func (f *fakeUsersRepo) UpdatePassword(_ context.Context, username, hashed string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Password = hashed
	c := *u
	return &c, nil
}

func (f *fakeUsersRepo) All(context.Context) ([]models.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.UserSummary, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u.Summary())
	}
	return out, nil
}

func (f *fakeUsersRepo) MessagesFrom(context.Context, string) ([]models.SentMessage, error) {
	return f.sent, nil
}

func (f *fakeUsersRepo) MessagesTo(context.Context, string) ([]models.ReceivedMessage, error) {
	return f.received, nil
}

// fakeMessagesRepo keeps messages in memory, resolving profiles from users.
type fakeMessagesRepo struct {
	mu       sync.Mutex
	users    *fakeUsersRepo
	messages map[int64]*models.Message
	nextID   int64

	createErr error
}

func newFakeMessagesRepo(users *fakeUsersRepo) *fakeMessagesRepo {
	return &fakeMessagesRepo{users: users, messages: map[int64]*models.Message{}}
}

func (f *fakeMessagesRepo) Create(_ context.Context, from, to, body string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	m := &models.Message{ID: f.nextID, FromUserName: from, ToUserName: to, Body: body, SentAt: time.Now()}
	f.messages[m.ID] = m
	c := *m
	return &c, nil
}

func (f *fakeMessagesRepo) Get(ctx context.Context, id int64) (*models.MessageDetail, error) {
	f.mu.Lock()
	m, ok := f.messages[id]
	f.mu.Unlock()
	if !ok {
		return nil, common.ErrorNotFound
	}
	from, err := f.users.GetByUsername(ctx, m.FromUserName)
	if err != nil {
		return nil, err
	}
	to, err := f.users.GetByUsername(ctx, m.ToUserName)
	if err != nil {
		return nil, err
	}
	return &models.MessageDetail{
		ID: m.ID, FromUser: from.Summary(), ToUser: to.Summary(),
		Body: m.Body, SentAt: m.SentAt, ReadAt: m.ReadAt,
	}, nil
}

func (f *fakeMessagesRepo) MarkRead(_ context.Context, id int64) (*models.ReadReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	now := time.Now()
	m.ReadAt = &now
	return &models.ReadReceipt{ID: id, ReadAt: now}, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	m *fakeMessagesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return m.u }
func (m *fakeRepoManager) Messages(dbx.DBTX) messagesrepo.Repository    { return m.m }

type sentSMS struct {
	to, body string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error

	// release, when set, holds Send until it is closed or ctx ends.
	release chan struct{}
	ctxErr  error
}

func (f *fakeSender) Send(ctx context.Context, to, body string) error {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			f.mu.Lock()
			f.ctxErr = ctx.Err()
			f.mu.Unlock()
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentSMS{to: to, body: body})
	return f.err
}

func (f *fakeSender) messages() []sentSMS {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentSMS(nil), f.sent...)
}

type fakeVerifier struct {
	started  []string
	startErr error

	code     string
	checkErr error
}

func (f *fakeVerifier) StartVerification(_ context.Context, phone string) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, phone)
	return nil
}

func (f *fakeVerifier) CheckVerification(_ context.Context, _ string, code string) (bool, error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return code == f.code, nil
}
