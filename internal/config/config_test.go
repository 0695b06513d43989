package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntOr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, IntOr(7, 3))
	assert.Equal(t, 3, IntOr(0, 3))
	assert.Equal(t, 3, IntOr(-1, 3))
}

func TestApplyDefaults_FillsZeroValues(t *testing.T) {
	t.Parallel()

	var cfg Config
	applyDefaults(&cfg)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 60, cfg.JWT.TTL)
	assert.Equal(t, DefaultFreeTierMaxApplications, cfg.Entitlement.FreeTierMaxApplications)
	assert.Equal(t, DefaultGracePeriodDays, cfg.Entitlement.GracePeriodDays)
	assert.Equal(t, DefaultPlanCacheTTLSeconds, cfg.Entitlement.PlanCacheTTLSeconds)
	assert.Equal(t, DefaultDispatchQueueSize, cfg.Dispatch.QueueSize)
	assert.Equal(t, DefaultDispatchWorkers, cfg.Dispatch.Workers)
	assert.Equal(t, DefaultMaxEmailTries, cfg.Dispatch.MaxEmailTries)
}

func TestApplyDefaults_KeepsConfiguredValues(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.Server.Port = 8080
	cfg.Entitlement.FreeTierMaxApplications = 5
	applyDefaults(&cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Entitlement.FreeTierMaxApplications)
}
