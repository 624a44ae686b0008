package service

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"wallet-settlement/internal/core/domain"
	"wallet-settlement/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for PostgreSQL. An open transaction
// holds txLock until it commits or rolls back, which serializes settlements
// the way row locks on the same wallets do. Wallet writes are staged on the
// transaction and only become visible on commit.
type memStore struct {
	txLock sync.Mutex

	mu            sync.Mutex
	users         map[int64]*domain.User
	merchants     map[int64]*domain.Merchant
	wallets       map[int64]decimal.Decimal
	payments      map[int64]*domain.Payment
	nextPaymentID int64
	begins        int
	commits       int
	rollbacks     int

	// failDelta, when set, is consulted before every wallet delta.
	failDelta func(userID int64, delta decimal.Decimal) error
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[int64]*domain.User),
		merchants: make(map[int64]*domain.Merchant),
		wallets:   make(map[int64]decimal.Decimal),
		payments:  make(map[int64]*domain.Payment),
	}
}

func (s *memStore) addUser(id int64, verified bool, balance string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &domain.User{ID: id, Username: fmt.Sprintf("user%d", id), Verified: verified}
	s.wallets[id] = decimal.RequireFromString(balance)
}

func (s *memStore) addMerchant(id int64, owner *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merchants[id] = &domain.Merchant{ID: id, Name: fmt.Sprintf("merchant%d", id), OwnerUserID: owner}
}

func (s *memStore) balance(userID int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallets[userID]
}

func (s *memStore) total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, b := range s.wallets {
		sum = sum.Add(b)
	}
	return sum
}

func (s *memStore) paymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

func (s *memStore) counters() (begins, commits, rollbacks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begins, s.commits, s.rollbacks
}

// --- Transaction ---

type memTx struct {
	pgx.Tx
	store    *memStore
	wallets  map[int64]decimal.Decimal
	payments []*domain.Payment
	closed   bool
}

func (s *memStore) Begin(ctx context.Context) (pgx.Tx, error) {
	s.txLock.Lock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begins++
	return &memTx{store: s, wallets: maps.Clone(s.wallets)}, nil
}

func (t *memTx) Commit(_ context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	defer t.store.txLock.Unlock()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.wallets = t.wallets
	for _, p := range t.payments {
		t.store.payments[p.ID] = p
	}
	t.store.commits++
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	defer t.store.txLock.Unlock()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.rollbacks++
	return nil
}

// --- Repositories ---

type memUserRepo struct{ store *memStore }

func (r memUserRepo) Create(_ context.Context, _ pgx.Tx, u *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u.ID = int64(len(r.store.users) + 1)
	r.store.users[u.ID] = u
	return nil
}

func (r memUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r memUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r memUserRepo) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.PhoneNumber == phone })
}

func (r memUserRepo) SetEmailVerified(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.users[id]; ok {
		u.EmailVerified = true
	}
	return nil
}

func (r memUserRepo) UpdateEmail(_ context.Context, id int64, email string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.ID != id && u.Email == email {
			return domain.ErrDuplicateEmail
		}
	}
	if u, ok := r.store.users[id]; ok {
		u.Email, u.EmailVerified = email, false
	}
	return nil
}

func (r memUserRepo) UpdatePasswordHash(_ context.Context, id int64, passwordHash string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

type memMerchantRepo struct{ store *memStore }

func (r memMerchantRepo) Create(_ context.Context, m *domain.Merchant) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m.ID = int64(len(r.store.merchants) + 1)
	r.store.merchants[m.ID] = m
	return nil
}

func (r memMerchantRepo) GetByID(_ context.Context, id int64) (*domain.Merchant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.merchants[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r memMerchantRepo) ListByOwner(_ context.Context, ownerUserID int64) ([]domain.Merchant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]domain.Merchant, 0)
	for _, m := range r.store.merchants {
		if m.OwnerUserID != nil && *m.OwnerUserID == ownerUserID {
			out = append(out, *m)
		}
	}
	return out, nil
}

type memWalletRepo struct{ store *memStore }

func (r memWalletRepo) Create(_ context.Context, tx pgx.Tx, w *domain.Wallet) error {
	tx.(*memTx).wallets[w.UserID] = w.Balance
	return nil
}

func (r memWalletRepo) GetByUserID(_ context.Context, userID int64) (*domain.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.wallets[userID]
	if !ok {
		return nil, nil
	}
	return &domain.Wallet{UserID: userID, Balance: b}, nil
}

func (r memWalletRepo) LockForUpdate(_ context.Context, tx pgx.Tx, userIDs []int64) ([]domain.Wallet, error) {
	mtx := tx.(*memTx)
	ids := append([]int64(nil), userIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []domain.Wallet
	for _, id := range ids {
		if b, ok := mtx.wallets[id]; ok {
			out = append(out, domain.Wallet{UserID: id, Balance: b})
		}
	}
	return out, nil
}

func (r memWalletRepo) ApplyDelta(_ context.Context, tx pgx.Tx, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	if r.store.failDelta != nil {
		if err := r.store.failDelta(userID, delta); err != nil {
			return decimal.Zero, err
		}
	}
	mtx := tx.(*memTx)
	b, ok := mtx.wallets[userID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: user %d", domain.ErrWalletNotFound, userID)
	}
	b = b.Add(delta)
	mtx.wallets[userID] = b
	return b, nil
}

type memPaymentRepo struct{ store *memStore }

func (r memPaymentRepo) Create(_ context.Context, tx pgx.Tx, p *domain.Payment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if p.IdempotencyKey != nil {
		for _, existing := range r.store.payments {
			if existing.PayerUserID == p.PayerUserID && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *p.IdempotencyKey {
				return fmt.Errorf("insert payment: %w", domain.ErrDuplicateIdempotencyKey)
			}
		}
	}
	r.store.nextPaymentID++
	now := time.Now().UTC()
	p.ID = r.store.nextPaymentID
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	tx.(*memTx).payments = append(tx.(*memTx).payments, &cp)
	return nil
}

func (r memPaymentRepo) GetByID(_ context.Context, id int64) (*domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r memPaymentRepo) GetByIdempotencyKey(_ context.Context, payerUserID int64, key string) (*domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.payments {
		if p.PayerUserID == payerUserID && p.IdempotencyKey != nil && *p.IdempotencyKey == key {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memPaymentRepo) list(match func(*domain.Payment) bool) []domain.Payment {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]domain.Payment, 0)
	for _, p := range r.store.payments {
		if match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r memPaymentRepo) ListByMerchant(_ context.Context, merchantID int64) ([]domain.Payment, error) {
	return r.list(func(p *domain.Payment) bool { return p.MerchantID == merchantID }), nil
}

func (r memPaymentRepo) ListByUser(_ context.Context, userID int64) ([]domain.Payment, error) {
	return r.list(func(p *domain.Payment) bool { return p.PayerUserID == userID }), nil
}

func (r memPaymentRepo) Update(_ context.Context, p *domain.Payment, expected domain.PaymentStatus) (*domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.payments[p.ID]
	if !ok || current.Status != expected {
		return nil, nil
	}
	current.Amount, current.Currency, current.ProductID, current.Status = p.Amount, p.Currency, p.ProductID, p.Status
	current.UpdatedAt = time.Now().UTC()
	cp := *current
	return &cp, nil
}

func (r memPaymentRepo) Cancel(_ context.Context, id int64) (*domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.payments[id]
	if !ok || (current.Status != domain.PaymentStatusCompleted && current.Status != domain.PaymentStatusPending) {
		return nil, nil
	}
	current.Status = domain.PaymentStatusCancelled
	current.UpdatedAt = time.Now().UTC()
	cp := *current
	return &cp, nil
}

func (r memPaymentRepo) Delete(_ context.Context, id int64) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.payments[id]
	if !ok || !current.IsDeletable() {
		return false, nil
	}
	delete(r.store.payments, id)
	return true, nil
}

var (
	_ ports.UserRepository     = memUserRepo{}
	_ ports.MerchantRepository = memMerchantRepo{}
	_ ports.WalletRepository   = memWalletRepo{}
	_ ports.PaymentRepository  = memPaymentRepo{}
	_ ports.DBTransactor       = (*memStore)(nil)
)
