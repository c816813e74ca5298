package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"pal/internal/config"
	"pal/internal/domain"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.Equal(t, "127.0.0.1:8012", cfg.Server.Addr)
	require.Equal(t, "/api", cfg.Server.BasePath)
	require.Equal(t, "0xYourAddress", cfg.Wallet.Address)
	require.Nil(t, cfg.Members())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoadFromWorkspace(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`
roster:
  - id: u-1
    name: Ada
    role: Backend Dev
wallet:
  address: "0xabc"
server:
  addr: "127.0.0.1:9000"
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pal.yml"), data, 0o644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	// unset fields keep the defaults
	require.Equal(t, "/api", cfg.Server.BasePath)
	require.Equal(t, "0xabc", cfg.Wallet.Address)

	members := cfg.Members()
	require.Len(t, members, 1)
	require.Equal(t, domain.Member{ID: "u-1", Name: "Ada", Role: domain.RoleBackend}, members[0])
}

func TestValidateRejectsBadRole(t *testing.T) {
	_, err := config.FromYAML([]byte(`
roster:
  - id: u-1
    name: Ada
    role: Wizard
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "role")
}

func TestValidateRejectsDuplicateIDs(t *testing.T) {
	_, err := config.FromYAML([]byte(`
roster:
  - id: u-1
    name: Ada
    role: PM
  - id: u-1
    name: Grace
    role: Designer
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "twice")
}

func TestFromYAMLInvalid(t *testing.T) {
	_, err := config.FromYAML([]byte("roster: [whoops"))
	require.Error(t, err)
}
