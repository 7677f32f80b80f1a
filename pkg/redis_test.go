package pkg

import (
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/SAP-F-2025/training-assessment-service/internal/config"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(&config.Config{RedisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	defer client.Close()
}

func TestNewRedisClientInvalidURL(t *testing.T) {
	if _, err := NewRedisClient(&config.Config{RedisURL: "://bad"}); err == nil {
		t.Fatal("expected error for invalid url")
	}
}
