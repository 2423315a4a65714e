package redisc

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceTTL = 120 * time.Second

// Presence tracks which identities hold a live broker connection.
type Presence struct {
	client *redis.Client
}

func NewPresence(client *redis.Client) *Presence {
	return &Presence{client: client}
}

func (p *Presence) Online(identityID string) error {
	ctx := context.Background()
	pipe := p.client.Pipeline()
	pipe.SAdd(ctx, "online_users", identityID)
	pipe.Set(ctx, "presence:"+identityID, "online", presenceTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (p *Presence) Offline(identityID string) error {
	ctx := context.Background()
	pipe := p.client.Pipeline()
	pipe.SRem(ctx, "online_users", identityID)
	pipe.Del(ctx, "presence:"+identityID)
	_, err := pipe.Exec(ctx)
	return err
}

func (p *Presence) OnlineUsers(ctx context.Context) ([]string, error) {
	return p.client.SMembers(ctx, "online_users").Result()
}

// Refresh extends the presence TTL for a still-connected identity.
func (p *Presence) Refresh(ctx context.Context, identityID string) error {
	return p.client.Expire(ctx, "presence:"+identityID, presenceTTL).Err()
}
