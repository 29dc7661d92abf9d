package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDBConfigDSN(t *testing.T) {
	cfg := &DBConfig{Host: "db", Port: "5433", User: "app", Password: "pw", Name: "teams", SSLMode: "require"}

	assert.Equal(t, "host=db user=app password=pw dbname=teams port=5433 sslmode=require TimeZone=UTC", cfg.DSN())
}

func TestGetenvDefault(t *testing.T) {
	t.Setenv("TEAMBUILDER_TEST_KEY", "")
	assert.Equal(t, "fallback", getenvDefault("TEAMBUILDER_TEST_KEY", "fallback"))

	t.Setenv("TEAMBUILDER_TEST_KEY", "set")
	assert.Equal(t, "set", getenvDefault("TEAMBUILDER_TEST_KEY", "fallback"))
}
