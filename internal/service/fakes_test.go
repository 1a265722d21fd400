package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/internal/repository"
)

type fakeAccountRepo struct {
	mu          sync.Mutex
	accounts    map[string]*domain.Account
	preferences map[string]*domain.Preferences
	updateErr   error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		accounts:    make(map[string]*domain.Account),
		preferences: make(map[string]*domain.Preferences),
	}
}

func (r *fakeAccountRepo) CreateWithPreferences(ctx context.Context, account *domain.Account, prefs *domain.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Email == account.Email {
			return repository.ErrDuplicateEmail
		}
	}

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	account.CreatedAt = time.Now().UTC()
	account.UpdatedAt = account.CreatedAt
	prefs.AccountID = account.ID

	stored := *account
	r.accounts[account.ID] = &stored
	storedPrefs := *prefs
	r.preferences[account.ID] = &storedPrefs
	return nil
}

func (r *fakeAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAccountRepo) UpdatePassword(ctx context.Context, id string, hash domain.PasswordHash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.updateErr != nil {
		return r.updateErr
	}
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Password = hash
	return nil
}

func (r *fakeAccountRepo) GetPreferences(ctx context.Context, accountID string) (*domain.Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.preferences[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeAccountRepo) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.updateErr != nil {
		return r.updateErr
	}
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if update.Name != nil {
		a.Name = *update.Name
	}
	if update.AreaActivity != nil {
		a.AreaActivity = update.AreaActivity
	}
	if update.Avatar != nil {
		a.Avatar = update.Avatar
	}
	if update.CoverImage != nil {
		a.CoverImage = update.CoverImage
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeAccountRepo) SetEnabled(ctx context.Context, id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.updateErr != nil {
		return r.updateErr
	}
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Enabled = enabled
	return nil
}

func (r *fakeAccountRepo) UpsertPreferences(ctx context.Context, prefs *domain.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[prefs.AccountID]; !ok {
		return repository.ErrNotFound
	}
	stored := *prefs
	r.preferences[prefs.AccountID] = &stored
	return nil
}

// put stores an account directly, bypassing registration
func (r *fakeAccountRepo) put(a *domain.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	stored := *a
	r.accounts[a.ID] = &stored
}

func (r *fakeAccountRepo) get(id string) *domain.Account {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.accounts[id]
}

type fakeTokenRepo struct {
	mu        sync.Mutex
	tokens    map[string]*domain.RefreshToken
	deleteErr error
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func (r *fakeTokenRepo) Create(ctx context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tokens {
		if t.TokenHash == token.TokenHash {
			return repository.ErrDuplicateToken
		}
	}
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	token.CreatedAt = time.Now().UTC()
	stored := *token
	r.tokens[token.ID] = &stored
	return nil
}

func (r *fakeTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			copied := *t
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTokenRepo) CountByAccountID(ctx context.Context, accountID string) (int, error) {
	return len(r.forAccount(accountID)), nil
}

func (r *fakeTokenRepo) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.tokens[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tokens, id)
	return nil
}

func (r *fakeTokenRepo) DeleteByAccountID(ctx context.Context, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.tokens {
		if t.AccountID == accountID {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.tokens {
		if t.IsExpired(now) {
			delete(r.tokens, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeTokenRepo) forAccount(accountID string) []*domain.RefreshToken {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.RefreshToken
	for _, t := range r.tokens {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out
}

func (r *fakeTokenRepo) expire(tokenHash string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			t.ExpiresAt = time.Now().Add(-time.Minute)
		}
	}
}

type fakeChatRepo struct {
	mu       sync.Mutex
	accounts *fakeAccountRepo
	rooms    map[string]*domain.ChatRoom
	messages []*domain.ChatMessage
	creates  int
}

func newFakeChatRepo(accounts *fakeAccountRepo) *fakeChatRepo {
	return &fakeChatRepo{accounts: accounts, rooms: make(map[string]*domain.ChatRoom)}
}

func (r *fakeChatRepo) CreateRoom(ctx context.Context, room *domain.ChatRoom, memberIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room.DirectKey != nil {
		for _, existing := range r.rooms {
			if existing.DirectKey != nil && *existing.DirectKey == *room.DirectKey {
				return repository.ErrDuplicateRoom
			}
		}
	}

	members := make([]domain.ChatMember, 0, len(memberIDs))
	for _, id := range memberIDs {
		a := r.accounts.get(id)
		if a == nil {
			return repository.ErrNotFound
		}
		members = append(members, domain.ChatMember{AccountID: id, Name: a.Name, Avatar: a.Avatar})
	}

	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	room.CreatedAt = time.Now().UTC()
	room.UpdatedAt = room.CreatedAt
	room.Members = members

	stored := *room
	r.rooms[room.ID] = &stored
	r.creates++
	return nil
}

func (r *fakeChatRepo) FindDirectRoom(ctx context.Context, a, b string) (*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := []string{a, b}
	sort.Strings(want)
	for _, room := range r.rooms {
		if room.IsGroup || len(room.Members) != 2 {
			continue
		}
		got := []string{room.Members[0].AccountID, room.Members[1].AccountID}
		sort.Strings(got)
		if got[0] == want[0] && got[1] == want[1] {
			copied := *room
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeChatRepo) GetRoom(ctx context.Context, id string) (*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *room
	return &copied, nil
}

func (r *fakeChatRepo) ListRoomsByAccount(ctx context.Context, accountID string) ([]*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]*domain.ChatRoom, 0)
	for _, room := range r.rooms {
		if !room.Archived && room.HasMember(accountID) {
			copied := *room
			rooms = append(rooms, &copied)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt) })
	return rooms, nil
}

func (r *fakeChatRepo) IsMember(ctx context.Context, roomID, accountID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	return ok && room.HasMember(accountID), nil
}

func (r *fakeChatRepo) CreateMessage(ctx context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[msg.RoomID]
	if !ok {
		return errors.New("room vanished")
	}
	msg.ID = uuid.New().String()
	msg.CreatedAt = time.Now().UTC().Add(time.Duration(len(r.messages)) * time.Millisecond)
	if a := r.accounts.get(msg.SenderID); a != nil {
		msg.SenderName = a.Name
	}
	room.UpdatedAt = msg.CreatedAt

	stored := *msg
	r.messages = append(r.messages, &stored)
	return nil
}

func (r *fakeChatRepo) ListMessages(ctx context.Context, roomID string, limit, offset int) ([]*domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var inRoom []*domain.ChatMessage
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].RoomID == roomID {
			inRoom = append(inRoom, r.messages[i])
		}
	}

	if offset >= len(inRoom) {
		return []*domain.ChatMessage{}, nil
	}
	end := min(offset+limit, len(inRoom))
	page := inRoom[offset:end]

	out := make([]*domain.ChatMessage, 0, len(page))
	for i := len(page) - 1; i >= 0; i-- {
		copied := *page[i]
		out = append(out, &copied)
	}
	return out, nil
}

type sentReset struct {
	accountID string
	url       string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentReset
}

func (n *recordingNotifier) SendPasswordReset(ctx context.Context, account *domain.Account, resetURL string, expiresIn time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, sentReset{accountID: account.ID, url: resetURL})
	return nil
}

func (n *recordingNotifier) last() (sentReset, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.sent) == 0 {
		return sentReset{}, false
	}
	return n.sent[len(n.sent)-1], true
}
