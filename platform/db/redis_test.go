package db

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

type redisConfig struct{ url string }

func (c redisConfig) GetRedisURL() string       { return c.url }
func (c redisConfig) GetRedisTLSInsecure() bool { return false }
func (c redisConfig) GetAsynqQueueName() string { return "" }
func (c redisConfig) GetAsynqConcurrency() int  { return 0 }
func (c redisConfig) GetAuditCronSpec() string  { return "" }

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(context.Background(), redisConfig{url: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if err := NewRedisAdapter(client).Ping(context.Background()); err != nil {
		t.Fatalf("expected healthy redis, got %v", err)
	}

	mr.Close()
	if err := NewRedisAdapter(client).Ping(context.Background()); err == nil {
		t.Fatal("expected ping to fail once redis is gone")
	}
}

func TestNewRedis_BadURL(t *testing.T) {
	if _, err := NewRedis(context.Background(), redisConfig{url: "not a url"}); err == nil {
		t.Fatal("expected parse error")
	}
}
