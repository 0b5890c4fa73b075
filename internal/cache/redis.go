package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/pagemint/pagemint/internal/doctree"
)

const stateTTL = 10 * time.Minute

func stateKey(id string) string {
	return "document:state:" + id
}

// State is a cached reconstructed tree at a version. The cache is advisory:
// the service verifies the version against the step log head before trusting
// it, so stale entries cost a rebuild, never a wrong answer.
type State struct {
	Version int64         `json:"version"`
	Tree    *doctree.Node `json:"tree"`
}

type Redis struct {
	client *redis.Client
}

func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password set
		DB:       0,  // Use default DB
		Protocol: 2,  // Connection protocol
	})

	return &Redis{client: client}
}

// GetState returns the cached state of a document, or nil on a miss.
func (r *Redis) GetState(ctx context.Context, id string) (*State, error) {
	res := r.client.Get(ctx, stateKey(id))
	if res.Err() != nil {
		if errors.Is(res.Err(), redis.Nil) {
			return nil, nil
		}
		return nil, res.Err()
	}

	buf, err := res.Bytes()
	if err != nil {
		return nil, err
	}

	state := &State{}
	if err := json.Unmarshal(buf, state); err != nil {
		return nil, err
	}
	return state, nil
}

// SetState caches the state of a document.
func (r *Redis) SetState(ctx context.Context, id string, state *State) error {
	value, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, stateKey(id), value, stateTTL).Err()
}

// Delete drops the cached state of a document.
func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, stateKey(id)).Err()
}
