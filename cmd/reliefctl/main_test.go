package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "relief.db"))
	t.Setenv("AUTH_SECRET_KEY", "test-secret")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("REVOCATION_BACKEND", "db")
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("ADMIN_PASSWORD", "")
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), nil, &out))
	assert.Contains(t, out.String(), "create-gov-user")

	err := run(context.Background(), []string{"drop-tables"}, &out)
	require.Error(t, err)
}

func TestRun_CreateAccountsAndSweep(t *testing.T) {
	setEnv(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, run(ctx, []string{"create-gov-user", "-u", "officer", "-p", "Secret123", "--email", "o@example.org"}, &out))
	assert.Contains(t, out.String(), `created gov user "officer"`)

	err := run(ctx, []string{"create-gov-user", "-u", "officer", "-p", "Secret123"}, &out)
	require.Error(t, err)

	out.Reset()
	t.Setenv("RELIEFCTL_PASSWORD", "FromEnv123")
	require.NoError(t, run(ctx, []string{"create-community", "--name", "Shelter", "--lat", "35.6", "--lon", "139.7", "--members", "20"}, &out))
	assert.Contains(t, out.String(), "community_id 1")

	out.Reset()
	require.NoError(t, run(ctx, []string{"sweep-revoked"}, &out))
	assert.Contains(t, out.String(), "removed 0")
}

func TestRun_MissingConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("AUTH_SECRET_KEY", "")

	var out bytes.Buffer
	err := run(context.Background(), []string{"sweep-revoked"}, &out)
	require.Error(t, err)
}
