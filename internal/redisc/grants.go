package redisc

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/iotchat/iotchat/internal/policy"
)

// Grants stores which messaging policies each identity holds. A grant is a
// set member, so attaching twice is naturally idempotent.
type Grants struct {
	client *redis.Client
}

func NewGrants(client *redis.Client) *Grants {
	return &Grants{client: client}
}

func grantsKey(identityID string) string {
	return "policies:" + identityID
}

// Grant attaches p to the identity. The returned flag reports whether the
// grant already existed.
func (g *Grants) Grant(ctx context.Context, identityID string, p policy.Policy) (already bool, err error) {
	added, err := g.client.SAdd(ctx, grantsKey(identityID), string(p)).Result()
	if err != nil {
		return false, err
	}
	return added == 0, nil
}

// Has reports whether the identity holds p.
func (g *Grants) Has(ctx context.Context, identityID string, p policy.Policy) (bool, error) {
	return g.client.SIsMember(ctx, grantsKey(identityID), string(p)).Result()
}

// Revoke removes every grant held by the identity.
func (g *Grants) Revoke(ctx context.Context, identityID string) error {
	return g.client.Del(ctx, grantsKey(identityID)).Err()
}
