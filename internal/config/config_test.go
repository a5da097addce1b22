package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "http", cfg.Contact.Relay)
	require.Equal(t, DefaultContactEndpoint, cfg.Contact.Endpoint)
	require.Equal(t, 3*time.Second, cfg.Contact.ConfirmFor)
	require.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
	require.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("SMTP_PASS", "secret")
	t.Setenv("PORTFOLIO_CONTACT_CONFIRM_FOR", "5s")
	t.Setenv("PORTFOLIO_LOG_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, "secret", cfg.SMTP.Password)
	require.Equal(t, 5*time.Second, cfg.Contact.ConfirmFor)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_PrefixedEnvWinsOverLegacy(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("PORTFOLIO_PORT", "9100")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "9100", cfg.Port)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7070"
contact:
  relay: smtp
smtp:
  to: owner@example.com
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "7070", cfg.Port)
	require.Equal(t, "smtp", cfg.Contact.Relay)
	require.Equal(t, "owner@example.com", cfg.SMTP.To)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	bad := *cfg
	bad.Contact.Relay = "pigeon"
	require.Error(t, bad.Validate())

	bad = *cfg
	bad.Contact.Endpoint = "/relative"
	require.Error(t, bad.Validate())

	bad = *cfg
	bad.Contact.Relay = "smtp"
	require.ErrorContains(t, bad.Validate(), "smtp.to")

	bad = *cfg
	bad.Contact.ConfirmFor = 0
	require.Error(t, bad.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load("nope.yaml")
	require.Error(t, err)
}

// chdir changes the working directory to dir for the duration of the test
// and restores it on cleanup (stand-in for testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
