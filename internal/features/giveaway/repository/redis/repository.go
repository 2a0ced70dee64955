package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gala-giveaway-backend/internal/features/giveaway/models"
	"gala-giveaway-backend/internal/features/giveaway/repository"
)

const (
	keyPrefixGiveaway      = "giveaway:"
	keyPrefixWin           = "win:"
	keyPrefixCreator       = "creator:"
	keyUndistributed       = "giveaways:undistributed"
	creatorLockTTL         = 30 * time.Second
	creatorLockRetryDelay  = 50 * time.Millisecond
	creatorLockMaxAttempts = 40
)

// takeClaimSlotScript checks the cap and increments in one atomic step.
// Returns -1 when all slots are taken.
var takeClaimSlotScript = redis.NewScript(`
local claimed = tonumber(redis.call('GET', KEYS[1]) or '0')
if claimed >= tonumber(ARGV[1]) then
  return -1
end
return redis.call('INCR', KEYS[1])
`)

type redisRepository struct {
	client *redis.Client
}

func NewRedisGiveawayRepository(client *redis.Client) repository.GiveawayRepository {
	return &redisRepository{client: client}
}

func makeGiveawayKey(id string) string {
	return keyPrefixGiveaway + id
}

func makeSignupsKey(id string) string {
	return makeGiveawayKey(id) + ":signups"
}

func makeClaimedKey(id string) string {
	return makeGiveawayKey(id) + ":claimed"
}

func makeWinKey(id string) string {
	return keyPrefixWin + id
}

func makeGiveawayWinsKey(id string) string {
	return makeGiveawayKey(id) + ":wins"
}

func makeGiveawayWinAddrsKey(id string) string {
	return makeGiveawayKey(id) + ":winaddrs"
}

func makeAddressWinsKey(address string) string {
	return "address:" + address + ":wins"
}

func makeCreatorGiveawaysKey(creatorID string) string {
	return keyPrefixCreator + creatorID + ":giveaways"
}

func makeCreatorLockKey(creatorID string) string {
	return keyPrefixCreator + creatorID + ":lock"
}

func (r *redisRepository) Create(ctx context.Context, giveaway *models.Giveaway) error {
	data, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, makeGiveawayKey(giveaway.ID), data, 0)
	pipe.SAdd(ctx, makeCreatorGiveawaysKey(giveaway.CreatorID), giveaway.ID)
	pipe.SAdd(ctx, keyUndistributed, giveaway.ID)
	pipe.SetNX(ctx, makeClaimedKey(giveaway.ID), 0, 0)

	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) GetByID(ctx context.Context, id string) (*models.Giveaway, error) {
	data, err := r.client.Get(ctx, makeGiveawayKey(id)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrGiveawayNotFound
	}
	if err != nil {
		return nil, err
	}

	var giveaway models.Giveaway
	if err := json.Unmarshal(data, &giveaway); err != nil {
		return nil, err
	}

	// The signup set and claimed counter are authoritative; the document
	// snapshot may trail concurrent signups and claims.
	if giveaway.Type == models.GiveawayTypeDistributed {
		signups, err := r.GetSignups(ctx, id)
		if err != nil {
			return nil, err
		}
		giveaway.UsersSignedUp = signups
	}
	claimed, err := r.GetClaimedCount(ctx, id)
	if err != nil {
		return nil, err
	}
	giveaway.ClaimedCount = claimed

	return &giveaway, nil
}

func (r *redisRepository) Update(ctx context.Context, giveaway *models.Giveaway) error {
	data, err := json.Marshal(giveaway)
	if err != nil {
		return fmt.Errorf("failed to marshal giveaway: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, makeGiveawayKey(giveaway.ID), data, 0)
	if giveaway.Distributed || giveaway.Status.IsTerminal() {
		pipe.SRem(ctx, keyUndistributed, giveaway.ID)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) GetByCreatorAndStatus(ctx context.Context, creatorID string, statuses []models.GiveawayStatus) ([]*models.Giveaway, error) {
	ids, err := r.client.SMembers(ctx, makeCreatorGiveawaysKey(creatorID)).Result()
	if err != nil {
		return nil, err
	}

	wanted := make(map[models.GiveawayStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	giveaways := make([]*models.Giveaway, 0, len(ids))
	for _, id := range ids {
		giveaway, err := r.GetByID(ctx, id)
		if err == repository.ErrGiveawayNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(statuses) > 0 && !wanted[giveaway.Status] {
			continue
		}
		giveaways = append(giveaways, giveaway)
	}
	return giveaways, nil
}

func (r *redisRepository) GetUndistributedEnded(ctx context.Context, now time.Time) ([]*models.Giveaway, error) {
	ids, err := r.client.SMembers(ctx, keyUndistributed).Result()
	if err != nil {
		return nil, err
	}

	ended := make([]*models.Giveaway, 0, len(ids))
	for _, id := range ids {
		giveaway, err := r.GetByID(ctx, id)
		if err == repository.ErrGiveawayNotFound {
			r.client.SRem(ctx, keyUndistributed, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if giveaway.Distributed || giveaway.Status.IsTerminal() {
			r.client.SRem(ctx, keyUndistributed, id)
			continue
		}
		if giveaway.HasEnded(now) {
			ended = append(ended, giveaway)
		}
	}
	return ended, nil
}

func (r *redisRepository) AddSignup(ctx context.Context, giveawayID, address string) (bool, error) {
	added, err := r.client.SAdd(ctx, makeSignupsKey(giveawayID), address).Result()
	if err != nil {
		return false, err
	}
	return added > 0, nil
}

func (r *redisRepository) GetSignups(ctx context.Context, giveawayID string) ([]string, error) {
	return r.client.SMembers(ctx, makeSignupsKey(giveawayID)).Result()
}

func (r *redisRepository) TakeClaimSlot(ctx context.Context, giveawayID string, maxWinners int) (int, error) {
	res, err := takeClaimSlotScript.Run(ctx, r.client, []string{makeClaimedKey(giveawayID)}, maxWinners).Int()
	if err != nil {
		return 0, err
	}
	if res < 0 {
		return 0, repository.ErrNoSlotsRemaining
	}
	return res, nil
}

func (r *redisRepository) GetClaimedCount(ctx context.Context, giveawayID string) (int, error) {
	count, err := r.client.Get(ctx, makeClaimedKey(giveawayID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

func (r *redisRepository) CreateWin(ctx context.Context, win *models.Win) error {
	data, err := json.Marshal(win)
	if err != nil {
		return fmt.Errorf("failed to marshal win: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, makeWinKey(win.ID), data, 0)
	pipe.SAdd(ctx, makeGiveawayWinsKey(win.GiveawayID), win.ID)
	pipe.SAdd(ctx, makeAddressWinsKey(win.Address), win.ID)
	pipe.HSet(ctx, makeGiveawayWinAddrsKey(win.GiveawayID), win.Address, win.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisRepository) UpdateWin(ctx context.Context, win *models.Win) error {
	data, err := json.Marshal(win)
	if err != nil {
		return fmt.Errorf("failed to marshal win: %w", err)
	}
	return r.client.Set(ctx, makeWinKey(win.ID), data, 0).Err()
}

func (r *redisRepository) GetWin(ctx context.Context, id string) (*models.Win, error) {
	data, err := r.client.Get(ctx, makeWinKey(id)).Bytes()
	if err == redis.Nil {
		return nil, repository.ErrWinNotFound
	}
	if err != nil {
		return nil, err
	}

	var win models.Win
	if err := json.Unmarshal(data, &win); err != nil {
		return nil, err
	}
	return &win, nil
}

func (r *redisRepository) GetWinsByGiveaway(ctx context.Context, giveawayID string) ([]*models.Win, error) {
	return r.getWinSet(ctx, makeGiveawayWinsKey(giveawayID))
}

func (r *redisRepository) GetWinsByAddress(ctx context.Context, address string) ([]*models.Win, error) {
	return r.getWinSet(ctx, makeAddressWinsKey(address))
}

func (r *redisRepository) getWinSet(ctx context.Context, key string) ([]*models.Win, error) {
	ids, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	wins := make([]*models.Win, 0, len(ids))
	for _, id := range ids {
		win, err := r.GetWin(ctx, id)
		if err == repository.ErrWinNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		wins = append(wins, win)
	}
	return wins, nil
}

func (r *redisRepository) GetWinByGiveawayAndAddress(ctx context.Context, giveawayID, address string) (*models.Win, error) {
	winID, err := r.client.HGet(ctx, makeGiveawayWinAddrsKey(giveawayID), address).Result()
	if err == redis.Nil {
		return nil, repository.ErrWinNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetWin(ctx, winID)
}

func (r *redisRepository) WithCreatorLock(ctx context.Context, creatorID string, fn func() error) error {
	lockKey := makeCreatorLockKey(creatorID)

	acquired := false
	for attempt := 0; attempt < creatorLockMaxAttempts; attempt++ {
		ok, err := r.client.SetNX(ctx, lockKey, "locked", creatorLockTTL).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire creator lock: %w", err)
		}
		if ok {
			acquired = true
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(creatorLockRetryDelay):
		}
	}
	if !acquired {
		return repository.ErrAlreadyLocked
	}
	defer r.client.Del(ctx, lockKey)

	return fn()
}
