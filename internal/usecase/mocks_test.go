// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"esengo-membership/internal/domain"
	"esengo-membership/internal/domain/model"
	"esengo-membership/internal/domain/ports/adapter"
	"esengo-membership/internal/domain/ports/repository"
)

// fakeTxManager runs the callback under a shared mutex with a non-nil marker
// handle, so repositories can tell "inside a tx" from "outside" and
// concurrent transactions serialize like the real advisory-locked path.
type fakeTxManager struct {
	mu sync.Mutex
}

type fakeTx struct{}

func (m *fakeTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, fakeTx{})
}

// memWalletRepo is a small in-memory implementation used by unit tests.
type memWalletRepo struct {
	mu        sync.RWMutex
	wallets   map[string]*model.Wallet // by wallet ID
	txns      map[string]*model.WalletTransaction
	txOrder   []string
	insertErr error // used by tests to simulate posting failures
}

func newMemWalletRepo() *memWalletRepo {
	return &memWalletRepo{
		wallets: make(map[string]*model.Wallet),
		txns:    make(map[string]*model.WalletTransaction),
	}
}

func (m *memWalletRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.wallets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *memWalletRepo) FindByMember(ctx context.Context, tx repository.Tx, memberID string) (*model.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.wallets {
		if w.MemberID != nil && *w.MemberID == memberID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memWalletRepo) Save(ctx context.Context, tx repository.Tx, w *model.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *w
	m.wallets[w.ID] = &cp
	return nil
}

func (m *memWalletRepo) EnsureSystem(ctx context.Context, tx repository.Tx, currency string) (*model.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.wallets {
		if w.MemberID == nil {
			cp := *w
			return &cp, nil
		}
	}
	w := &model.Wallet{ID: "system-wallet", Currency: currency, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.wallets[w.ID] = w
	cp := *w
	return &cp, nil
}

func (m *memWalletRepo) EnsureMember(ctx context.Context, tx repository.Tx, memberID, currency string) (*model.Wallet, error) {
	if w, err := m.FindByMember(ctx, tx, memberID); err == nil {
		return w, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := "wallet-" + memberID
	mid := memberID
	w := &model.Wallet{ID: id, MemberID: &mid, Currency: currency, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.wallets[id] = w
	cp := *w
	return &cp, nil
}

func (m *memWalletRepo) AcquireWalletLock(ctx context.Context, tx repository.Tx, walletID string) error {
	if tx == nil {
		return domain.ErrInvalidExecContext
	}
	return nil
}

func (m *memWalletRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.Wallet, error) {
	return m.FindByID(ctx, tx, id)
}

func (m *memWalletRepo) UpdateBalances(ctx context.Context, tx repository.Tx, w *model.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.wallets[w.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Balance = w.Balance
	cur.TotalCredited = w.TotalCredited
	cur.TotalDebited = w.TotalDebited
	cur.UpdatedAt = time.Now()
	return nil
}

func (m *memWalletRepo) InsertTransaction(ctx context.Context, tx repository.Tx, t *model.WalletTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	cp := *t
	m.txns[t.ID] = &cp
	m.txOrder = append(m.txOrder, t.ID)
	return nil
}

func (m *memWalletRepo) FlipTransactionStatus(ctx context.Context, tx repository.Tx, id string, to model.TransactionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txns[id]
	if !ok || t.Status != model.TransactionStatusPending {
		return false, nil
	}
	t.Status = to
	return true, nil
}

func (m *memWalletRepo) ListTransactions(ctx context.Context, tx repository.Tx, walletID string, limit int) ([]*model.WalletTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.WalletTransaction
	for i := len(m.txOrder) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		t := m.txns[m.txOrder[i]]
		if t.WalletID == walletID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memMembershipRepo struct {
	mu    sync.RWMutex
	store map[string]*model.PackMembership // by membership ID
}

func newMemMembershipRepo() *memMembershipRepo {
	return &memMembershipRepo{store: make(map[string]*model.PackMembership)}
}

func (m *memMembershipRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PackMembership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mem, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *mem
	return &cp, nil
}

func (m *memMembershipRepo) FindByMemberAndPack(ctx context.Context, tx repository.Tx, memberID, packID string) (*model.PackMembership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mem := range m.store {
		if mem.MemberID == memberID && mem.PackID == packID {
			cp := *mem
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memMembershipRepo) Save(ctx context.Context, tx repository.Tx, mem *model.PackMembership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *mem
	m.store[mem.ID] = &cp
	return nil
}

func (m *memMembershipRepo) ListMembersWithActivePack(ctx context.Context, tx repository.Tx) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, mem := range m.store {
		if mem.Status == model.MembershipStatusActive && mem.PaymentStatus == model.PaymentStatusCompleted && !seen[mem.MemberID] {
			seen[mem.MemberID] = true
			out = append(out, mem.MemberID)
		}
	}
	return out, nil
}

func (m *memMembershipRepo) ListActiveByMember(ctx context.Context, tx repository.Tx, memberID string) ([]*model.PackMembership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.PackMembership
	for _, mem := range m.store {
		if mem.MemberID == memberID && mem.Status == model.MembershipStatusActive && mem.PaymentStatus == model.PaymentStatusCompleted {
			cp := *mem
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memMembershipRepo) CountDirectReferrals(ctx context.Context, tx repository.Tx, memberID string, start, end time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	parents := map[string]bool{}
	for _, mem := range m.store {
		if mem.MemberID == memberID {
			parents[mem.ID] = true
		}
	}
	members := map[string]bool{}
	for _, mem := range m.store {
		if mem.SponsorID == nil || !parents[*mem.SponsorID] {
			continue
		}
		if mem.PaymentStatus != model.PaymentStatusCompleted {
			continue
		}
		if mem.PurchasedAt.Before(start) || mem.PurchasedAt.After(end) {
			continue
		}
		members[mem.MemberID] = true
	}
	return len(members), nil
}

func (m *memMembershipRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, mem := range m.store {
		if mem.Status == model.MembershipStatusActive && !mem.OperatorOwned &&
			mem.ExpiresAt != nil && !now.Before(*mem.ExpiresAt) {
			mem.Status = model.MembershipStatusExpired
			n++
		}
	}
	return n, nil
}

type memPackRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Pack
}

func newMemPackRepo() *memPackRepo {
	return &memPackRepo{store: make(map[string]*model.Pack)}
}

func (m *memPackRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Pack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPackRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Pack, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Pack
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPackRepo) Save(ctx context.Context, tx repository.Tx, p *model.Pack) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

type memCommissionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.CommissionRecord
	order []string
}

func newMemCommissionRepo() *memCommissionRepo {
	return &memCommissionRepo{store: make(map[string]*model.CommissionRecord)}
}

func (m *memCommissionRepo) Save(ctx context.Context, tx repository.Tx, c *model.CommissionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.store[c.ID]; !exists {
		m.order = append(m.order, c.ID)
	}
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *memCommissionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CommissionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCommissionRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, id string, from []model.CommissionStatus, to model.CommissionStatus, errText string, postedAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return false, nil
	}
	match := false
	for _, s := range from {
		if c.Status == s {
			match = true
			break
		}
	}
	if !match {
		return false, nil
	}
	c.Status = to
	c.ErrorText = errText
	c.PostedAt = postedAt
	c.UpdatedAt = time.Now()
	return true, nil
}

func (m *memCommissionRepo) ListByEarner(ctx context.Context, tx repository.Tx, memberID string, limit int) ([]*model.CommissionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.CommissionRecord
	for _, id := range m.order {
		c := m.store[id]
		if c.EarnerMemberID == memberID {
			cp := *c
			out = append(out, &cp)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// all returns every record in insertion order, for assertions.
func (m *memCommissionRepo) all() []*model.CommissionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.CommissionRecord, 0, len(m.order))
	for _, id := range m.order {
		cp := *m.store[id]
		out = append(out, &cp)
	}
	return out
}

type rateKey struct {
	packID string
	level  int
}

type memCommissionRateRepo struct {
	mu    sync.RWMutex
	store map[rateKey]*model.CommissionRate
}

func newMemCommissionRateRepo() *memCommissionRateRepo {
	return &memCommissionRateRepo{store: make(map[rateKey]*model.CommissionRate)}
}

func (m *memCommissionRateRepo) Get(ctx context.Context, tx repository.Tx, packID string, level int) (*model.CommissionRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.store[rateKey{packID, level}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memCommissionRateRepo) Upsert(ctx context.Context, tx repository.Tx, r *model.CommissionRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.store[rateKey{r.PackID, r.Level}] = &cp
	return nil
}

func (m *memCommissionRateRepo) ListByPack(ctx context.Context, tx repository.Tx, packID string) ([]*model.CommissionRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.CommissionRate
	for k, r := range m.store {
		if k.packID == packID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

type bonusKey struct {
	memberID string
	packID   string
}

type memBonusRepo struct {
	mu      sync.RWMutex
	points  map[bonusKey]*model.UserBonusPoints
	history []*model.BonusHistoryEntry
}

func newMemBonusRepo() *memBonusRepo {
	return &memBonusRepo{points: make(map[bonusKey]*model.UserBonusPoints)}
}

func (m *memBonusRepo) GetPoints(ctx context.Context, tx repository.Tx, memberID, packID string) (*model.UserBonusPoints, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.points[bonusKey{memberID, packID}]
	if !ok {
		return &model.UserBonusPoints{MemberID: memberID, PackID: packID}, nil
	}
	cp := *b
	return &cp, nil
}

func (m *memBonusRepo) SavePoints(ctx context.Context, tx repository.Tx, b *model.UserBonusPoints) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.points[bonusKey{b.MemberID, b.PackID}] = &cp
	return nil
}

func (m *memBonusRepo) AppendHistory(ctx context.Context, tx repository.Tx, e *model.BonusHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.history = append(m.history, &cp)
	return nil
}

func (m *memBonusRepo) ListHistory(ctx context.Context, tx repository.Tx, memberID, packID string, limit int) ([]*model.BonusHistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.BonusHistoryEntry
	for i := len(m.history) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		e := m.history[i]
		if e.MemberID == memberID && e.PackID == packID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

type bonusRateKey struct {
	packID string
	freq   model.BonusFrequency
}

type memBonusRateRepo struct {
	mu    sync.RWMutex
	store map[bonusRateKey]*model.BonusRate
}

func newMemBonusRateRepo() *memBonusRateRepo {
	return &memBonusRateRepo{store: make(map[bonusRateKey]*model.BonusRate)}
}

func (m *memBonusRateRepo) Get(ctx context.Context, tx repository.Tx, packID string, f model.BonusFrequency) (*model.BonusRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.store[bonusRateKey{packID, f}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memBonusRateRepo) Upsert(ctx context.Context, tx repository.Tx, r *model.BonusRate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.store[bonusRateKey{r.PackID, r.Frequency}] = &cp
	return nil
}

type memTokenRepo struct {
	mu    sync.RWMutex
	store map[string]*model.BonusToken // by token ID
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{store: make(map[string]*model.BonusToken)}
}

func (m *memTokenRepo) Save(ctx context.Context, tx repository.Tx, t *model.BonusToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *memTokenRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.BonusToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.store {
		if t.Code == code {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memTokenRepo) MarkUsed(ctx context.Context, tx repository.Tx, id string, redeemedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok || t.Status != model.TokenStatusIssued {
		return false, nil
	}
	t.Status = model.TokenStatusUsed
	at := redeemedAt
	t.RedeemedAt = &at
	return true, nil
}

func (m *memTokenRepo) ExpireDue(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.BonusToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.BonusToken
	for _, t := range m.store {
		if t.Status == model.TokenStatusIssued && !now.Before(t.ExpiresAt) {
			t.Status = model.TokenStatusExpired
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// byMember returns the member's tokens, for assertions.
func (m *memTokenRepo) byMember(memberID string) []*model.BonusToken {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.BonusToken
	for _, t := range m.store {
		if t.MemberID == memberID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

// fakeLocker hands out the lock to one holder per key at a time.
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return "", domain.ErrLockNotAcquired
	}
	l.held[key] = true
	return "token-" + key, nil
}

func (l *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// recordingNotifier captures emitted events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []adapter.NotificationEvent
}

func (n *recordingNotifier) Notify(ctx context.Context, memberID string, event adapter.NotificationEvent, detail map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

// fakeConverter converts through a fixed rate table keyed "FROM:TO".
type fakeConverter struct {
	rates map[string]float64
}

func (c *fakeConverter) Convert(ctx context.Context, amount int64, from, to string) (int64, error) {
	if from == to {
		return amount, nil
	}
	r, ok := c.rates[from+":"+to]
	if !ok {
		return 0, domain.ErrRateUnavailable
	}
	return int64(float64(amount) * r), nil
}
