package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"mangareader/internal/repository"
	"mangareader/pkg/models"
)

// In-memory repository fakes. Each mirrors the contract of its Postgres or
// Redis counterpart closely enough for service tests.

type fakeMangaRepo struct {
	mu        sync.Mutex
	items     map[string]models.Manga
	listErr   error // returned by List and ListRecent when set
	viewCalls int
}

func newFakeMangaRepo(items ...models.Manga) *fakeMangaRepo {
	r := &fakeMangaRepo{items: map[string]models.Manga{}}
	for _, m := range items {
		r.items[m.ID] = m
	}
	return r
}

func (r *fakeMangaRepo) Create(_ context.Context, m *models.Manga) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[m.ID]; ok {
		return models.ErrConflict
	}
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	r.items[m.ID] = *m
	return nil
}

func (r *fakeMangaRepo) GetByID(_ context.Context, id string) (*models.Manga, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("get_manga_by_id: %w", models.ErrMangaNotFound)
	}
	return &m, nil
}

func (r *fakeMangaRepo) GetMany(_ context.Context, ids []string) ([]models.Manga, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Manga{}
	for _, id := range ids {
		if m, ok := r.items[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMangaRepo) Update(_ context.Context, m *models.Manga) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[m.ID]; !ok {
		return models.ErrMangaNotFound
	}
	r.items[m.ID] = *m
	return nil
}

func (r *fakeMangaRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return models.ErrMangaNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeMangaRepo) matching(filter models.MangaListRequest) []models.Manga {
	out := []models.Manga{}
	for _, m := range r.items {
		if filter.Status != "" && string(m.Status) != filter.Status {
			continue
		}
		if filter.Genre != "" && !hasGenreFold(m.Genres, filter.Genre) {
			continue
		}
		if q := strings.ToLower(filter.Query); q != "" &&
			!strings.Contains(strings.ToLower(m.Title), q) &&
			!strings.Contains(strings.ToLower(m.Author), q) {
			continue
		}
		out = append(out, m)
	}
	// map iteration order stands in for storage order
	return out
}

func hasGenreFold(genres []string, g string) bool {
	for _, x := range genres {
		if strings.EqualFold(x, g) {
			return true
		}
	}
	return false
}

func (r *fakeMangaRepo) List(_ context.Context, filter models.MangaListRequest) ([]models.Manga, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	all := r.matching(filter)
	sortManga(all, filter.Sort)
	return paginate(all, filter.Offset, filter.Limit), len(all), nil
}

func (r *fakeMangaRepo) ListUnordered(_ context.Context, filter models.MangaListRequest) ([]models.Manga, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matching(filter), nil
}

func (r *fakeMangaRepo) ListRecent(_ context.Context, limit int) ([]models.Manga, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	all := r.matching(models.MangaListRequest{})
	sortManga(all, models.SortNewest)
	return paginate(all, 0, limit), nil
}

func (r *fakeMangaRepo) ListByAnyGenre(_ context.Context, genres []string) ([]models.Manga, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[string]struct{}{}
	for _, g := range genres {
		want[g] = struct{}{}
	}
	out := []models.Manga{}
	for _, m := range r.items {
		for _, g := range m.Genres {
			if _, ok := want[g]; ok {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeMangaRepo) Categories(_ context.Context) ([]models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int{}
	for _, m := range r.items {
		for _, g := range m.Genres {
			counts[g]++
		}
	}
	out := []models.Category{}
	for name, n := range counts {
		out = append(out, models.Category{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeMangaRepo) IncrementViews(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return models.ErrMangaNotFound
	}
	m.Views++
	r.items[id] = m
	r.viewCalls++
	return nil
}

func (r *fakeMangaRepo) IncrementLikes(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.items[id]
	if !ok {
		return 0, models.ErrMangaNotFound
	}
	m.Likes++
	r.items[id] = m
	return m.Likes, nil
}

type fakeChapterRepo struct {
	mu      sync.Mutex
	items   map[string]models.Chapter
	listErr error
	views   map[string]int
}

func newFakeChapterRepo(items ...models.Chapter) *fakeChapterRepo {
	r := &fakeChapterRepo{items: map[string]models.Chapter{}, views: map[string]int{}}
	for _, c := range items {
		r.items[c.ID] = c
	}
	return r
}

func (r *fakeChapterRepo) Create(_ context.Context, c *models.Chapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.MangaID == c.MangaID && existing.Number == c.Number {
			return fmt.Errorf("create_chapter: %w", models.ErrConflict)
		}
	}
	r.items[c.ID] = *c
	return nil
}

func (r *fakeChapterRepo) GetByID(_ context.Context, id string) (*models.Chapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("get_chapter_by_id: %w", models.ErrChapterNotFound)
	}
	return &c, nil
}

func (r *fakeChapterRepo) unordered(mangaID string) []models.Chapter {
	out := []models.Chapter{}
	for _, c := range r.items {
		if c.MangaID == mangaID {
			out = append(out, c)
		}
	}
	return out
}

func (r *fakeChapterRepo) ListByManga(_ context.Context, mangaID string) ([]models.Chapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := r.unordered(mangaID)
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *fakeChapterRepo) ListByMangaUnordered(_ context.Context, mangaID string) ([]models.Chapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unordered(mangaID), nil
}

func (r *fakeChapterRepo) Update(_ context.Context, c *models.Chapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[c.ID]; !ok {
		return models.ErrChapterNotFound
	}
	r.items[c.ID] = *c
	return nil
}

func (r *fakeChapterRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return models.ErrChapterNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeChapterRepo) IncrementViews(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[id]++
	return nil
}

type fakeWalletRepo struct {
	mu        sync.Mutex
	balances  map[string]int
	purchases map[string]int // user|chapter -> price paid
	ledger    []models.CoinTransaction
	unlockErr error
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{balances: map[string]int{}, purchases: map[string]int{}}
}

func purchaseKey(userID, chapterID string) string { return userID + "|" + chapterID }

func (r *fakeWalletRepo) HasPurchase(_ context.Context, userID, chapterID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.purchases[purchaseKey(userID, chapterID)]
	return ok, nil
}

func (r *fakeWalletRepo) GetBalance(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.balances[userID]
	if !ok {
		return 0, models.ErrUserNotFound
	}
	return b, nil
}

func (r *fakeWalletRepo) Unlock(_ context.Context, userID, chapterID string, price int) (repository.UnlockOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unlockErr != nil {
		return repository.UnlockOutcome{}, r.unlockErr
	}
	if _, ok := r.purchases[purchaseKey(userID, chapterID)]; ok {
		return repository.UnlockOutcome{Purchased: false, Balance: r.balances[userID]}, nil
	}
	if r.balances[userID] < price {
		return repository.UnlockOutcome{}, fmt.Errorf("debit_coins: %w", models.ErrInsufficientFunds)
	}
	r.balances[userID] -= price
	r.purchases[purchaseKey(userID, chapterID)] = price
	ch := chapterID
	r.ledger = append(r.ledger, models.CoinTransaction{UserID: userID, Delta: -price, Reason: models.CoinReasonUnlock, ChapterID: &ch})
	return repository.UnlockOutcome{Purchased: true, Balance: r.balances[userID]}, nil
}

func (r *fakeWalletRepo) Grant(_ context.Context, userID string, amount int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.balances[userID]; !ok {
		return 0, models.ErrUserNotFound
	}
	r.balances[userID] += amount
	r.ledger = append(r.ledger, models.CoinTransaction{UserID: userID, Delta: amount, Reason: models.CoinReasonGrant})
	return r.balances[userID], nil
}

func (r *fakeWalletRepo) ListTransactions(_ context.Context, userID string, limit int) ([]models.CoinTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.CoinTransaction{}
	for i := len(r.ledger) - 1; i >= 0 && len(out) < limit; i-- {
		if r.ledger[i].UserID == userID {
			out = append(out, r.ledger[i])
		}
	}
	return out, nil
}

type historyRecord struct {
	mangaID   string
	chapterID string
	number    float64
}

type fakeLibraryRepo struct {
	mu        sync.Mutex
	favorites map[string]map[string]time.Time
	history   map[string][]historyRecord
}

func newFakeLibraryRepo() *fakeLibraryRepo {
	return &fakeLibraryRepo{favorites: map[string]map[string]time.Time{}, history: map[string][]historyRecord{}}
}

func (r *fakeLibraryRepo) AddFavorite(_ context.Context, userID, mangaID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.favorites[userID] == nil {
		r.favorites[userID] = map[string]time.Time{}
	}
	if _, ok := r.favorites[userID][mangaID]; !ok {
		r.favorites[userID][mangaID] = time.Now()
	}
	return nil
}

func (r *fakeLibraryRepo) RemoveFavorite(_ context.Context, userID, mangaID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.favorites[userID][mangaID]
	delete(r.favorites[userID], mangaID)
	return ok, nil
}

func (r *fakeLibraryRepo) IsFavorite(_ context.Context, userID, mangaID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.favorites[userID][mangaID]
	return ok, nil
}

func (r *fakeLibraryRepo) ListFavorites(_ context.Context, userID string, limit, offset int) ([]models.FavoriteItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.FavoriteItem{}
	for id, at := range r.favorites[userID] {
		out = append(out, models.FavoriteItem{Manga: models.Manga{ID: id}, AddedAt: at})
	}
	return paginate(out, offset, limit), nil
}

func (r *fakeLibraryRepo) RecordHistory(_ context.Context, userID, mangaID, chapterID string, number float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := []historyRecord{}
	for _, h := range r.history[userID] {
		if h.mangaID != mangaID {
			kept = append(kept, h)
		}
	}
	r.history[userID] = append(kept, historyRecord{mangaID: mangaID, chapterID: chapterID, number: number})
	return nil
}

func (r *fakeLibraryRepo) ListHistory(_ context.Context, userID string, limit, offset int) ([]models.HistoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.HistoryItem{}
	for i := len(r.history[userID]) - 1; i >= 0; i-- {
		h := r.history[userID][i]
		ch, n := h.chapterID, h.number
		out = append(out, models.HistoryItem{Manga: models.Manga{ID: h.mangaID}, LastChapterID: &ch, LastChapterNumber: &n})
	}
	return paginate(out, offset, limit), nil
}

func (r *fakeLibraryRepo) DeleteHistory(_ context.Context, userID, mangaID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := []historyRecord{}
	for _, h := range r.history[userID] {
		if h.mangaID != mangaID {
			kept = append(kept, h)
		}
	}
	removed := len(kept) != len(r.history[userID])
	r.history[userID] = kept
	return removed, nil
}

func (r *fakeLibraryRepo) ClearHistory(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.history[userID]))
	delete(r.history, userID)
	return n, nil
}

type fakePopularRepo struct {
	mu      sync.Mutex
	entries []models.PopularEntry
}

func (r *fakePopularRepo) Load(_ context.Context) ([]models.PopularEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.PopularEntry{}, r.entries...), nil
}

func (r *fakePopularRepo) Update(_ context.Context, fn func([]models.PopularEntry) ([]models.PopularEntry, error)) ([]models.PopularEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := fn(append([]models.PopularEntry{}, r.entries...))
	if err != nil {
		return nil, err
	}
	r.entries = next
	return next, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return models.ErrEmailExists
		}
	}
	if u.Role == "" {
		u.Role = models.UserRoleUser
	}
	u.CreatedAt = time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (r *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id string, role models.UserRole) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	u.Role = role
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) TouchLogin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

type fakeSessionRepo struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{revoked: map[string]time.Time{}}
}

func (r *fakeSessionRepo) Revoke(_ context.Context, tokenID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[tokenID] = until
	return nil
}

func (r *fakeSessionRepo) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[tokenID]
	return ok, nil
}

// compile-time checks against the repository contracts
var (
	_ repository.MangaRepository   = (*fakeMangaRepo)(nil)
	_ repository.ChapterRepository = (*fakeChapterRepo)(nil)
	_ repository.WalletRepository  = (*fakeWalletRepo)(nil)
	_ repository.LibraryRepository = (*fakeLibraryRepo)(nil)
	_ repository.PopularRepository = (*fakePopularRepo)(nil)
	_ repository.UserRepository    = (*fakeUserRepo)(nil)
	_ repository.SessionRepository = (*fakeSessionRepo)(nil)
)
