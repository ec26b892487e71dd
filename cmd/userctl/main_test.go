package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliResult struct {
	User struct {
		ID         string `json:"_id"`
		Email      string `json:"email"`
		FullName   string `json:"fullName"`
		ProfilePic string `json:"profilePic"`
	} `json:"user"`
	Token string `json:"token"`
}

func execute(t *testing.T, args ...string) (cliResult, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return cliResult{}, err
	}

	var res cliResult
	if args[0] != "migrate" {
		require.NoError(t, json.Unmarshal(out.Bytes(), &res), out.String())
	}
	return res, nil
}

// TestUserctl_SQLiteFlow はSQLite上でマイグレーションからプロフィール更新までの一連の操作を検証します。
func TestUserctl_SQLiteFlow(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(t.TempDir(), "chat.db"))
	t.Setenv("JWT_SECRET", "test-secret")
	// Redisなしでも動作する
	t.Setenv("REDIS_HOST", "127.0.0.1")
	t.Setenv("REDIS_PORT", "1")

	_, err := execute(t, "migrate")
	require.NoError(t, err)

	created, err := execute(t, "signup", "--email", "a@b.com", "--name", "A B", "--password", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, created.User.ID)
	assert.Equal(t, "a@b.com", created.User.Email)
	assert.NotEmpty(t, created.Token)

	verified, err := execute(t, "verify", created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, verified.User.ID)

	updated, err := execute(t, "update-profile", created.User.ID, "--pic", "https://cdn.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", updated.User.ProfilePic)

	got, err := execute(t, "get", created.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", got.User.ProfilePic)

	_, err = execute(t, "login", "--email", "a@b.com", "--password", "wrong-pass")
	assert.Error(t, err)
}

func TestOpenRepository_UnknownStore(t *testing.T) {
	_, _, err := openRepository(context.Background(), "bogus")
	assert.ErrorContains(t, err, `unknown store "bogus"`)
}
