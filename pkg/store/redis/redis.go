// Package redis is a store.ConfigStore backed by Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/rmax-ai/mrpconf/pkg/model"
	"github.com/rmax-ai/mrpconf/pkg/store"
)

const (
	descriptionsKey = "mrpconf:scenarios"
	orderKey        = "mrpconf:scenarios:order"
	technicalKey    = "mrpconf:config:technical"
)

// ConfigStore keeps scenarios in a hash (id to description) plus a list for
// creation order, and each configuration set as a JSON array under its own key.
type ConfigStore struct {
	client *redis.Client
	logger *log.Logger
}

var _ store.ConfigStore = (*ConfigStore)(nil)

func NewConfigStore(client *redis.Client, logger *log.Logger) *ConfigStore {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ConfigStore{client: client, logger: logger}
}

func (s *ConfigStore) makeKey(scenarioID string) string {
	return fmt.Sprintf("mrpconf:config:operational:%s", scenarioID)
}

func (s *ConfigStore) ListScenarios(ctx context.Context) ([]model.Scenario, error) {
	ids, err := s.client.LRange(ctx, orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to LRANGE %s: %w", orderKey, err)
	}
	scenarios := make([]model.Scenario, 0, len(ids))
	if len(ids) == 0 {
		return scenarios, nil
	}

	descs, err := s.client.HMGet(ctx, descriptionsKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to HMGET %s: %w", descriptionsKey, err)
	}
	for i, d := range descs {
		desc, ok := d.(string)
		if !ok {
			s.logger.Warn("scenario listed without description", "scenario", ids[i])
			continue
		}
		scenarios = append(scenarios, model.Scenario{ScenarioID: ids[i], Description: desc})
	}
	return scenarios, nil
}

// createAttempts bounds the optimistic retries of CreateScenario when another
// writer touches the scenario hash between WATCH and EXEC.
const createAttempts = 5

// CreateScenario registers the id, its order entry and its initial set in one
// MULTI/EXEC guarded by WATCH on the scenario hash, so concurrent creators of
// the same id see ErrScenarioExists.
func (s *ConfigStore) CreateScenario(ctx context.Context, sc model.Scenario, initial []model.ConfigItem) error {
	data, err := encodeSet(initial)
	if err != nil {
		return err
	}

	register := func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, descriptionsKey, sc.ScenarioID).Result()
		if err != nil {
			return fmt.Errorf("failed to HEXISTS scenario %s: %w", sc.ScenarioID, err)
		}
		if exists {
			return fmt.Errorf("%w: %s", store.ErrScenarioExists, sc.ScenarioID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, descriptionsKey, sc.ScenarioID, sc.Description)
			pipe.RPush(ctx, orderKey, sc.ScenarioID)
			pipe.Set(ctx, s.makeKey(sc.ScenarioID), data, 0)
			return nil
		})
		if err != nil && !errors.Is(err, redis.TxFailedErr) {
			// EXEC applies the commands that did not fail; undo them so the
			// id is not claimed without being listed.
			s.unregister(ctx, sc.ScenarioID)
			return fmt.Errorf("failed to register scenario %s: %w", sc.ScenarioID, err)
		}
		return err
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		err = s.client.Watch(ctx, register, descriptionsKey)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.logger.Debug("scenario create raced, retrying", "scenario", sc.ScenarioID, "attempt", attempt+1)
	}
	return fmt.Errorf("failed to register scenario %s: %w", sc.ScenarioID, err)
}

// unregister removes every trace of a half-registered scenario. Errors are
// logged only; the caller already reports the failure.
func (s *ConfigStore) unregister(ctx context.Context, scenarioID string) {
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, descriptionsKey, scenarioID)
		pipe.LRem(ctx, orderKey, -1, scenarioID)
		pipe.Del(ctx, s.makeKey(scenarioID))
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to undo scenario registration", "scenario", scenarioID, "error", err)
	}
}

func (s *ConfigStore) GetTechnical(ctx context.Context) ([]model.ConfigItem, error) {
	return s.getSet(ctx, technicalKey)
}

func (s *ConfigStore) PutTechnical(ctx context.Context, items []model.ConfigItem) error {
	return s.putSet(ctx, technicalKey, items)
}

func (s *ConfigStore) GetOperational(ctx context.Context, scenarioID string) ([]model.ConfigItem, error) {
	if err := s.scenarioExists(ctx, scenarioID); err != nil {
		return nil, err
	}
	return s.getSet(ctx, s.makeKey(scenarioID))
}

func (s *ConfigStore) PutOperational(ctx context.Context, scenarioID string, items []model.ConfigItem) error {
	if err := s.scenarioExists(ctx, scenarioID); err != nil {
		return err
	}
	return s.putSet(ctx, s.makeKey(scenarioID), items)
}

// Close closes the client.
func (s *ConfigStore) Close() error {
	return s.client.Close()
}

func (s *ConfigStore) scenarioExists(ctx context.Context, scenarioID string) error {
	ok, err := s.client.HExists(ctx, descriptionsKey, scenarioID).Result()
	if err != nil {
		return fmt.Errorf("failed to HEXISTS scenario %s: %w", scenarioID, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrScenarioNotFound, scenarioID)
	}
	return nil
}

func (s *ConfigStore) getSet(ctx context.Context, key string) ([]model.ConfigItem, error) {
	data, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return []model.ConfigItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to GET key %s: %w", key, err)
	}

	items := []model.ConfigItem{}
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config set from key %s: %w", key, err)
	}
	if items == nil {
		items = []model.ConfigItem{}
	}
	return items, nil
}

func (s *ConfigStore) putSet(ctx context.Context, key string, items []model.ConfigItem) error {
	data, err := encodeSet(items)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to SET key %s: %w", key, err)
	}
	return nil
}

// encodeSet validates items and encodes them as a JSON array; nil encodes as [].
func encodeSet(items []model.ConfigItem) ([]byte, error) {
	if err := model.ValidateSet(items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.ConfigItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config set: %w", err)
	}
	return data, nil
}
