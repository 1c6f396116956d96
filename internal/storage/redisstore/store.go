// Package redisstore reads the account configuration the chat bot maintains
// in redis: one JSON record per account under account:<id>.
package redisstore

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"sg-autoentry/internal/poller"
)

const keyPrefix = "account:"

type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Accounts returns every configured account. Records that are malformed or
// lack a token (registration started but never finished) are skipped.
func (s *Store) Accounts(ctx context.Context) (map[string]poller.AccountConfig, error) {
	accounts := make(map[string]poller.AccountConfig)
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()

	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}

		var acc poller.AccountConfig
		if err := json.Unmarshal(raw, &acc); err != nil {
			log.Debug().Str("key", key).Msg("malformed account record, skipping")
			continue
		}
		if acc.Token == "" {
			log.Debug().Str("key", key).Msg("no configuration present, skipping")
			continue
		}

		accounts[strings.TrimPrefix(key, keyPrefix)] = acc
	}

	return accounts, iter.Err()
}
