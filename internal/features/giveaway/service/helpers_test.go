package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"gala-giveaway-backend/internal/features/giveaway/models"
	"gala-giveaway-backend/internal/features/giveaway/repository"
	profilemodels "gala-giveaway-backend/internal/features/profile/models"
	profilerepo "gala-giveaway-backend/internal/features/profile/repository"
)

// memGiveawayRepo is an in-memory GiveawayRepository for service tests.
type memGiveawayRepo struct {
	mu        sync.Mutex
	giveaways map[string]*models.Giveaway
	signups   map[string][]string
	claimed   map[string]int
	wins      map[string]*models.Win

	updateErr    error
	createWinErr error
	lockCalls    int
}

func newMemGiveawayRepo() *memGiveawayRepo {
	return &memGiveawayRepo{
		giveaways: make(map[string]*models.Giveaway),
		signups:   make(map[string][]string),
		claimed:   make(map[string]int),
		wins:      make(map[string]*models.Win),
	}
}

func cloneGiveaway(g *models.Giveaway) *models.Giveaway {
	c := *g
	if g.Winners != nil {
		c.Winners = append([]models.Winner(nil), g.Winners...)
	}
	if g.UsersSignedUp != nil {
		c.UsersSignedUp = append([]string(nil), g.UsersSignedUp...)
	}
	return &c
}

func cloneWin(w *models.Win) *models.Win {
	c := *w
	if w.PaymentSent != nil {
		ts := *w.PaymentSent
		c.PaymentSent = &ts
	}
	return &c
}

func (r *memGiveawayRepo) Create(_ context.Context, g *models.Giveaway) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.giveaways[g.ID] = cloneGiveaway(g)
	return nil
}

func (r *memGiveawayRepo) GetByID(_ context.Context, id string) (*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.giveaways[id]
	if !ok {
		return nil, repository.ErrGiveawayNotFound
	}
	out := cloneGiveaway(g)
	out.UsersSignedUp = append([]string(nil), r.signups[id]...)
	out.ClaimedCount = r.claimed[id]
	return out, nil
}

func (r *memGiveawayRepo) Update(_ context.Context, g *models.Giveaway) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.giveaways[g.ID]; !ok {
		return repository.ErrGiveawayNotFound
	}
	r.giveaways[g.ID] = cloneGiveaway(g)
	return nil
}

func (r *memGiveawayRepo) GetByCreatorAndStatus(_ context.Context, creatorID string, statuses []models.GiveawayStatus) ([]*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Giveaway
	for _, g := range r.giveaways {
		if g.CreatorID != creatorID {
			continue
		}
		if len(statuses) > 0 {
			matched := false
			for _, s := range statuses {
				if g.Status == s {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		c := cloneGiveaway(g)
		c.ClaimedCount = r.claimed[g.ID]
		out = append(out, c)
	}
	return out, nil
}

func (r *memGiveawayRepo) GetUndistributedEnded(_ context.Context, now time.Time) ([]*models.Giveaway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Giveaway
	for _, g := range r.giveaways {
		if g.Distributed || g.Status.IsTerminal() || now.Before(g.EndDateTime) {
			continue
		}
		c := cloneGiveaway(g)
		c.ClaimedCount = r.claimed[g.ID]
		out = append(out, c)
	}
	return out, nil
}

func (r *memGiveawayRepo) AddSignup(_ context.Context, giveawayID, address string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.signups[giveawayID] {
		if a == address {
			return false, nil
		}
	}
	r.signups[giveawayID] = append(r.signups[giveawayID], address)
	return true, nil
}

func (r *memGiveawayRepo) GetSignups(_ context.Context, giveawayID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.signups[giveawayID]...), nil
}

func (r *memGiveawayRepo) TakeClaimSlot(_ context.Context, giveawayID string, maxWinners int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimed[giveawayID] >= maxWinners {
		return 0, repository.ErrNoSlotsRemaining
	}
	r.claimed[giveawayID]++
	return r.claimed[giveawayID], nil
}

func (r *memGiveawayRepo) GetClaimedCount(_ context.Context, giveawayID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimed[giveawayID], nil
}

func (r *memGiveawayRepo) CreateWin(_ context.Context, win *models.Win) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createWinErr != nil {
		return r.createWinErr
	}
	r.wins[win.ID] = cloneWin(win)
	return nil
}

func (r *memGiveawayRepo) UpdateWin(_ context.Context, win *models.Win) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wins[win.ID]; !ok {
		return repository.ErrWinNotFound
	}
	r.wins[win.ID] = cloneWin(win)
	return nil
}

func (r *memGiveawayRepo) GetWin(_ context.Context, id string) (*models.Win, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wins[id]
	if !ok {
		return nil, repository.ErrWinNotFound
	}
	return cloneWin(w), nil
}

func (r *memGiveawayRepo) GetWinsByGiveaway(_ context.Context, giveawayID string) ([]*models.Win, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Win
	for _, w := range r.wins {
		if w.GiveawayID == giveawayID {
			out = append(out, cloneWin(w))
		}
	}
	return out, nil
}

func (r *memGiveawayRepo) GetWinsByAddress(_ context.Context, address string) ([]*models.Win, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Win
	for _, w := range r.wins {
		if w.Address == address {
			out = append(out, cloneWin(w))
		}
	}
	return out, nil
}

func (r *memGiveawayRepo) GetWinByGiveawayAndAddress(_ context.Context, giveawayID, address string) (*models.Win, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wins {
		if w.GiveawayID == giveawayID && w.Address == address {
			return cloneWin(w), nil
		}
	}
	return nil, repository.ErrWinNotFound
}

func (r *memGiveawayRepo) WithCreatorLock(_ context.Context, _ string, fn func() error) error {
	r.mu.Lock()
	r.lockCalls++
	r.mu.Unlock()
	return fn()
}

// memProfileRepo is an in-memory ProfileRepository for service tests.
type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*profilemodels.Profile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[string]*profilemodels.Profile)}
}

func (r *memProfileRepo) Create(_ context.Context, p *profilemodels.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.profiles {
		if existing.GalaChainAddress == p.GalaChainAddress {
			return profilerepo.ErrProfileExists
		}
	}
	c := *p
	r.profiles[p.ID] = &c
	return nil
}

func (r *memProfileRepo) GetByID(_ context.Context, id string) (*profilemodels.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, profilerepo.ErrProfileNotFound
	}
	c := *p
	return &c, nil
}

func (r *memProfileRepo) GetByAddress(_ context.Context, address string) (*profilemodels.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.GalaChainAddress == address {
			c := *p
			return &c, nil
		}
	}
	return nil, profilerepo.ErrProfileNotFound
}

type mintCall struct {
	token    models.TokenClassKey
	owner    string
	requests []models.MintRequest
}

// stubLedger is a scriptable TokenLedger for service tests.
type stubLedger struct {
	mu         sync.Mutex
	balances   map[string]decimal.Decimal
	allowances map[string]decimal.Decimal
	mintErr    error
	mints      []mintCall
	burnValid  bool
	burnErr    error
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		balances:   make(map[string]decimal.Decimal),
		allowances: make(map[string]decimal.Decimal),
	}
}

func ledgerKey(owner string, token models.TokenClassKey) string {
	return owner + "/" + token.String()
}

func (l *stubLedger) setBalance(owner string, token models.TokenClassKey, qty decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[ledgerKey(owner, token)] = qty
}

func (l *stubLedger) setAllowance(owner string, token models.TokenClassKey, qty decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowances[ledgerKey(owner, token)] = qty
}

func (l *stubLedger) FetchBalance(_ context.Context, owner string, token models.TokenClassKey) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[ledgerKey(owner, token)], nil
}

func (l *stubLedger) FetchAllowance(_ context.Context, owner string, token models.TokenClassKey) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[ledgerKey(owner, token)], nil
}

func (l *stubLedger) MintBatch(_ context.Context, token models.TokenClassKey, owner string, requests []models.MintRequest) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mintErr != nil {
		return l.mintErr
	}
	l.mints = append(l.mints, mintCall{token: token, owner: owner, requests: append([]models.MintRequest(nil), requests...)})
	return nil
}

func (l *stubLedger) VerifyBurn(_ context.Context, _ string, _ models.TokenClassKey, _ decimal.Decimal, _ string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.burnErr != nil {
		return false, l.burnErr
	}
	return l.burnValid, nil
}

func (l *stubLedger) mintedTotal() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := decimal.Zero
	for _, call := range l.mints {
		for _, req := range call.requests {
			total = total.Add(req.Quantity)
		}
	}
	return total
}
