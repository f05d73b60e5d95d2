package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"crm_sync_backend/internal/crm/domain"

	"github.com/redis/go-redis/v9"
)

const anomalyKeyPrefix = "crm:anomalies:"

// AnomalyStore accumulates unknown intent and status values in Redis so the
// rule table can be reviewed across passes.
type AnomalyStore struct {
	client *redis.Client
}

// NewAnomalyStore creates a Redis-backed anomaly store.
func NewAnomalyStore(client *redis.Client) *AnomalyStore {
	return &AnomalyStore{client: client}
}

func anomalyKey(field domain.AnomalyField) string {
	return anomalyKeyPrefix + string(field)
}

// Record adds every anomaly of a pass to its field/value counter.
func (s *AnomalyStore) Record(ctx context.Context, anomalies []domain.Anomaly) error {
	if len(anomalies) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	for field, counts := range domain.CountAnomalies(anomalies) {
		for _, value := range domain.SortedValues(counts) {
			pipe.HIncrBy(ctx, anomalyKey(field), value, int64(counts[value]))
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record anomalies: %w", err)
	}
	return nil
}

// AnomalyCount is a stored counter.
type AnomalyCount struct {
	Value string
	Count int64
}

// Counts returns the counters per field, most frequent first.
func (s *AnomalyStore) Counts(ctx context.Context) (map[domain.AnomalyField][]AnomalyCount, error) {
	fields := []domain.AnomalyField{domain.AnomalyIntent, domain.AnomalyAppointmentStatus}
	out := make(map[domain.AnomalyField][]AnomalyCount, len(fields))

	for _, field := range fields {
		raw, err := s.client.HGetAll(ctx, anomalyKey(field)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read anomalies: %w", err)
		}

		counts := make([]AnomalyCount, 0, len(raw))
		for value, n := range raw {
			count, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				continue
			}
			counts = append(counts, AnomalyCount{Value: value, Count: count})
		}
		sort.Slice(counts, func(i, j int) bool {
			if counts[i].Count != counts[j].Count {
				return counts[i].Count > counts[j].Count
			}
			return counts[i].Value < counts[j].Value
		})
		out[field] = counts
	}

	return out, nil
}

// Reset drops every stored counter.
func (s *AnomalyStore) Reset(ctx context.Context) error {
	keys := []string{anomalyKey(domain.AnomalyIntent), anomalyKey(domain.AnomalyAppointmentStatus)}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset anomalies: %w", err)
	}
	return nil
}
