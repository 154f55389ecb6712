package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/mail"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/accounttokens"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
	_ "modernc.org/sqlite"
)

var errBoom = errors.New("boom")

// newTxDB returns a database that can open and commit transactions. The
// fakes below ignore the handle they are bound to.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// --- users ---

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User
	getErr error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]*models.User{}}
}

func (r *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, common.ErrConflict
		}
	}
	r.nextID++
	cp := *u
	cp.ID = r.nextID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	return r.mutate(id, func(u *models.User) { u.PasswordHash = hash })
}

func (r *memUsers) MarkEmailVerified(_ context.Context, id int64, at time.Time) error {
	return r.mutate(id, func(u *models.User) { u.EmailVerifiedAt = &at })
}

func (r *memUsers) UpdateProfile(ctx context.Context, id int64, fullName, bio string) (*models.User, error) {
	if err := r.mutate(id, func(u *models.User) { u.FullName = fullName; u.Bio = bio }); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *memUsers) SetProfilePic(_ context.Context, id int64, key string) error {
	return r.mutate(id, func(u *models.User) { u.ProfilePic = key })
}

func (r *memUsers) mutate(id int64, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(u)
	return nil
}

// --- account tokens ---

type memTokens struct {
	mu         sync.Mutex
	rows       []models.AccountToken
	replaceErr error
}

func (r *memTokens) Replace(_ context.Context, t *models.AccountToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replaceErr != nil {
		return r.replaceErr
	}
	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.UserID == t.UserID && row.Purpose == t.Purpose {
			continue
		}
		kept = append(kept, row)
	}
	r.rows = append(kept, *t)
	return nil
}

func (r *memTokens) Consume(_ context.Context, purpose models.TokenPurpose, hash string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, row := range r.rows {
		if row.Purpose == purpose && row.TokenHash == hash && now.Before(row.ExpiresAt) {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return row.UserID, nil
		}
	}
	return 0, common.ErrInvalidToken
}

func (r *memTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	kept := r.rows[:0]
	for _, row := range r.rows {
		if !now.Before(row.ExpiresAt) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	r.rows = kept
	return n, nil
}

func (r *memTokens) count(userID int64, purpose models.TokenPurpose) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, row := range r.rows {
		if row.UserID == userID && row.Purpose == purpose {
			n++
		}
	}
	return n
}

// --- tasks ---

type memTasks struct {
	mu          sync.Mutex
	nextID      int64
	byID        map[int64]*models.Task
	lockedReads int
}

func newMemTasks() *memTasks {
	return &memTasks{byID: map[int64]*models.Task{}}
}

func (r *memTasks) List(_ context.Context, userID int64, status string) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Task, 0)
	for _, t := range r.byID {
		if t.UserID == userID && (status == "" || t.Status == status) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTasks) Get(_ context.Context, userID, id int64) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTasks) GetForUpdate(ctx context.Context, userID, id int64) (*models.Task, error) {
	r.mu.Lock()
	r.lockedReads++
	r.mu.Unlock()
	return r.Get(ctx, userID, id)
}

func (r *memTasks) Create(_ context.Context, t *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *t
	cp.ID = r.nextID
	r.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memTasks) Update(_ context.Context, t *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[t.ID]
	if !ok || existing.UserID != t.UserID {
		return nil, common.ErrorNotFound
	}
	cp := *t
	r.byID[t.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memTasks) SetStatus(ctx context.Context, userID, id int64, status string) (*models.Task, error) {
	r.mu.Lock()
	t, ok := r.byID[id]
	if !ok || t.UserID != userID {
		r.mu.Unlock()
		return nil, common.ErrorNotFound
	}
	t.Status = status
	r.mu.Unlock()
	return r.Get(ctx, userID, id)
}

func (r *memTasks) Delete(_ context.Context, userID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	return nil
}

// --- repo manager ---

type fakeRepoManager struct {
	u  *memUsers
	at *memTokens
	t  *memTasks
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newMemUsers(), at: &memTokens{}, t: newMemTasks()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) AccountTokens(dbx.DBTX) accounttokens.Repository { return m.at }
func (m *fakeRepoManager) Tasks(dbx.DBTX) tasks.Repository                 { return m.t }

// --- collaborators ---

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Enqueue(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last() mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return mail.Message{}
	}
	return m.sent[len(m.sent)-1]
}

type memStore struct {
	objects map[string][]byte
	putErr  error
}

func (s *memStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = data
	return nil
}

func (s *memStore) URL(_ context.Context, key string) (string, error) {
	return "/static/uploads/" + key, nil
}
