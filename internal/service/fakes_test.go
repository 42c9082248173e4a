package service_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"snippet-sharing-server/internal/model"
)

// fakeTx : транзакции без БД, считает начатые, закоммиченные и откаченные
type fakeTx struct {
	mu        sync.Mutex
	begun     int
	commits   int
	rollbacks int
	beginErr  error
	commitErr error
}

func (f *fakeTx) Conn() sqlx.ExtContext {
	return nil
}

func (f *fakeTx) BeginTX(context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.beginErr != nil {
		return nil, nil, nil, f.beginErr
	}
	f.begun++

	done := false
	rollback := func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		if done {
			return nil
		}
		done = true
		f.rollbacks++
		return nil
	}
	commit := func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		done = true
		if f.commitErr != nil {
			f.rollbacks++
			return f.commitErr
		}
		f.commits++
		return nil
	}
	return nil, rollback, commit, nil
}

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[int64]*model.User)}
}

func (m *memUsers) add(user model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = &user
	copied := user
	return &copied
}

func (m *memUsers) CreateUser(_ context.Context, _ sqlx.ExtContext, user *model.User) (*model.User, error) {
	m.mu.Lock()
	for _, existing := range m.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			m.mu.Unlock()
			return nil, model.ErrUserAlreadyExists
		}
	}
	m.mu.Unlock()
	return m.add(*user), nil
}

func (m *memUsers) find(match func(*model.User) bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if match(user) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (m *memUsers) FindByID(_ context.Context, _ sqlx.ExtContext, id int64) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.ID == id })
}

func (m *memUsers) FindByLogin(_ context.Context, _ sqlx.ExtContext, login string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Email == login || u.Username == login })
}

func (m *memUsers) FindByEmail(_ context.Context, _ sqlx.ExtContext, email string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Email == email })
}

func (m *memUsers) Activate(_ context.Context, _ sqlx.ExtContext, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	user.IsActive = true
	return nil
}

func (m *memUsers) UpdatePassword(_ context.Context, _ sqlx.ExtContext, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	user.PasswordHash = hash
	return nil
}

type memTokens struct {
	mu     sync.Mutex
	kind   model.TokenKind
	nextID int64
	tokens map[string]model.ExpiringToken
}

func newMemTokens(kind model.TokenKind) *memTokens {
	return &memTokens{kind: kind, tokens: make(map[string]model.ExpiringToken)}
}

func (m *memTokens) Kind() model.TokenKind {
	return m.kind
}

func (m *memTokens) Create(_ context.Context, _ sqlx.ExtContext, userID int64, token string, expiresAt time.Time) (*model.ExpiringToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.kind != model.TokenKindRefresh {
		for key, existing := range m.tokens {
			if existing.UserID == userID {
				delete(m.tokens, key)
			}
		}
	}
	m.nextID++
	record := model.ExpiringToken{ID: m.nextID, Kind: m.kind, Token: token, UserID: userID, ExpiresAt: expiresAt, CreatedAt: time.Now()}
	m.tokens[token] = record
	return &record, nil
}

func (m *memTokens) GetByToken(_ context.Context, _ sqlx.ExtContext, token string) (*model.ExpiringToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.tokens[token]
	if !ok {
		return nil, model.ErrTokenNotFound
	}
	return &record, nil
}

func (m *memTokens) ListByUser(_ context.Context, _ sqlx.ExtContext, userID int64) ([]model.ExpiringToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ExpiringToken
	for _, record := range m.tokens {
		if record.UserID == userID {
			result = append(result, record)
		}
	}
	return result, nil
}

func (m *memTokens) Delete(_ context.Context, _ sqlx.ExtContext, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tokens[token]
	delete(m.tokens, token)
	return ok, nil
}

func (m *memTokens) DeleteByUser(_ context.Context, _ sqlx.ExtContext, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for key, record := range m.tokens {
		if record.UserID == userID {
			delete(m.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memTokens) DeleteExpired(_ context.Context, _ sqlx.ExtContext, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for key, record := range m.tokens {
		if record.ExpiresAt.Before(now) {
			delete(m.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memTokens) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

type memTags struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]model.Tag
}

func newMemTags() *memTags {
	return &memTags{byName: make(map[string]model.Tag)}
}

func (m *memTags) FindByNames(_ context.Context, _ sqlx.ExtContext, names []string) ([]model.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Tag
	for _, name := range names {
		if tag, ok := m.byName[name]; ok {
			result = append(result, tag)
		}
	}
	return result, nil
}

func (m *memTags) GetOrCreate(_ context.Context, _ sqlx.ExtContext, name string) (*model.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tag, ok := m.byName[name]; ok {
		return &tag, nil
	}
	m.nextID++
	tag := model.Tag{ID: m.nextID, Name: name, CreatedAt: time.Now()}
	m.byName[name] = tag
	return &tag, nil
}

func (m *memTags) DeleteUnused(context.Context, sqlx.ExtContext) (int64, error) {
	return 0, nil
}

func (m *memTags) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byName)
}

type memSnippets struct {
	mu             sync.Mutex
	nextID         int64
	rows           map[int64]model.SnippetMetadata
	favorites      map[favoriteKey]time.Time
	failReplaceTag error
}

type favoriteKey struct {
	userID    int64
	snippetID int64
}

func newMemSnippets() *memSnippets {
	return &memSnippets{
		rows:      make(map[int64]model.SnippetMetadata),
		favorites: make(map[favoriteKey]time.Time),
	}
}

func (m *memSnippets) Create(_ context.Context, _ sqlx.ExtContext, snippet *model.SnippetMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.OwnerID == snippet.OwnerID && row.Title == snippet.Title {
			return model.ErrSnippetAlreadyExists
		}
	}
	m.nextID++
	snippet.ID = m.nextID
	snippet.CreatedAt = time.Now()
	snippet.UpdatedAt = snippet.CreatedAt
	row := *snippet
	row.Tags = nil
	m.rows[snippet.ID] = row
	return nil
}

func (m *memSnippets) GetByUUID(_ context.Context, _ sqlx.ExtContext, uuid string) (*model.SnippetMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.UUID == uuid {
			copied := row
			copied.Tags = append([]model.Tag(nil), row.Tags...)
			return &copied, nil
		}
	}
	return nil, model.ErrSnippetNotFound
}

func (m *memSnippets) List(_ context.Context, _ sqlx.ExtContext, filter model.SnippetFilter, requester model.Requester) ([]model.SnippetMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.SnippetMetadata
	for _, row := range m.rows {
		if row.IsPrivate && !requester.CanAccess(row.OwnerID) {
			continue
		}
		if filter.Language != "" && row.Language != filter.Language {
			continue
		}
		if filter.OwnerID != 0 && row.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Tag != "" && !hasTag(row.Tags, filter.Tag) {
			continue
		}
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func hasTag(tags []model.Tag, name string) bool {
	for _, tag := range tags {
		if tag.Name == name {
			return true
		}
	}
	return false
}

func (m *memSnippets) Update(_ context.Context, _ sqlx.ExtContext, snippet *model.SnippetMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[snippet.ID]
	if !ok {
		return model.ErrSnippetNotFound
	}
	for id, other := range m.rows {
		if id != snippet.ID && other.OwnerID == snippet.OwnerID && other.Title == snippet.Title {
			return model.ErrSnippetAlreadyExists
		}
	}
	row.Title = snippet.Title
	row.Language = snippet.Language
	row.IsPrivate = snippet.IsPrivate
	row.UpdatedAt = time.Now()
	snippet.UpdatedAt = row.UpdatedAt
	m.rows[snippet.ID] = row
	return nil
}

func (m *memSnippets) ReplaceTags(_ context.Context, _ sqlx.ExtContext, snippetID int64, tags []model.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReplaceTag != nil {
		return m.failReplaceTag
	}
	row, ok := m.rows[snippetID]
	if !ok {
		return model.ErrSnippetNotFound
	}
	row.Tags = append([]model.Tag(nil), tags...)
	m.rows[snippetID] = row
	return nil
}

func (m *memSnippets) Delete(_ context.Context, _ sqlx.ExtContext, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return model.ErrSnippetNotFound
	}
	delete(m.rows, id)
	for key := range m.favorites {
		if key.snippetID == id {
			delete(m.favorites, key)
		}
	}
	return nil
}

func (m *memSnippets) AddFavorite(_ context.Context, _ sqlx.ExtContext, userID, snippetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := favoriteKey{userID: userID, snippetID: snippetID}
	if _, ok := m.favorites[key]; ok {
		return model.ErrFavoriteAlreadyExists
	}
	// строго возрастающее время добавления, чтобы порядок не зависел от разрешения часов
	m.favorites[key] = time.Now().Add(time.Duration(len(m.favorites)) * time.Millisecond)
	return nil
}

func (m *memSnippets) RemoveFavorite(_ context.Context, _ sqlx.ExtContext, userID, snippetID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := favoriteKey{userID: userID, snippetID: snippetID}
	_, ok := m.favorites[key]
	delete(m.favorites, key)
	return ok, nil
}

func (m *memSnippets) ListFavorites(_ context.Context, _ sqlx.ExtContext, filter model.FavoritesFilter, requester model.Requester) ([]model.SnippetMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.SnippetMetadata
	added := make(map[int64]time.Time)
	for key, at := range m.favorites {
		if key.userID != requester.UserID {
			continue
		}
		row, ok := m.rows[key.snippetID]
		if !ok || (row.IsPrivate && !requester.CanAccess(row.OwnerID)) {
			continue
		}
		if filter.Language != "" && row.Language != filter.Language {
			continue
		}
		if filter.Tag != "" && !hasTag(row.Tags, filter.Tag) {
			continue
		}
		added[row.ID] = at
		result = append(result, row)
	}
	switch filter.SortBy {
	case model.FavoritesSortTitle:
		sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	case model.FavoritesSortSnippetDate:
		sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	default:
		sort.Slice(result, func(i, j int) bool { return added[result[i].ID].After(added[result[j].ID]) })
	}
	return result, nil
}

func (m *memSnippets) SearchByTitle(_ context.Context, _ sqlx.ExtContext, title string, limit int, requester model.Requester) ([]model.SnippetSearchItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []model.SnippetMetadata
	for _, row := range m.rows {
		if row.IsPrivate && !requester.CanAccess(row.OwnerID) {
			continue
		}
		if !strings.Contains(strings.ToLower(row.Title), strings.ToLower(title)) {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Title < rows[j].Title })
	items := []model.SnippetSearchItem{}
	for _, row := range rows {
		if len(items) == limit {
			break
		}
		items = append(items, model.SnippetSearchItem{UUID: row.UUID, Title: row.Title, Language: row.Language})
	}
	return items, nil
}

func (m *memSnippets) favoriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.favorites)
}

func (m *memSnippets) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memDocs struct {
	mu          sync.Mutex
	nextID      int
	docs        map[string]model.SnippetDocument
	updateCalls int
	createErr   error
	updateErr   error
	deleteErr   error
}

func newMemDocs() *memDocs {
	return &memDocs{docs: make(map[string]model.SnippetDocument)}
}

func (m *memDocs) Create(_ context.Context, content, description string) (*model.SnippetDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	now := time.Now()
	doc := model.SnippetDocument{
		ID:          fmt.Sprintf("doc-%d", m.nextID),
		Content:     content,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.docs[doc.ID] = doc
	return &doc, nil
}

func (m *memDocs) GetByID(_ context.Context, id string) (*model.SnippetDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, model.ErrDocumentNotFound
	}
	return &doc, nil
}

func (m *memDocs) Update(_ context.Context, id string, content, description *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	doc, ok := m.docs[id]
	if !ok {
		return model.ErrDocumentNotFound
	}
	if content != nil {
		doc.Content = *content
	}
	if description != nil {
		doc.Description = *description
	}
	doc.UpdatedAt = time.Now()
	m.docs[id] = doc
	return nil
}

func (m *memDocs) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.docs, id)
	return nil
}

func (m *memDocs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

func (m *memDocs) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
}

// captureNotifier : запоминает последний отправленный токен
type captureNotifier struct {
	mu         sync.Mutex
	activation map[int64]string
	reset      map[int64]string
	err        error
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{activation: make(map[int64]string), reset: make(map[int64]string)}
}

func (n *captureNotifier) NotifyActivation(_ context.Context, user *model.User, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.activation[user.ID] = token
	return n.err
}

func (n *captureNotifier) NotifyPasswordReset(_ context.Context, user *model.User, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reset[user.ID] = token
	return n.err
}
