package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/taskkeeper/internal/logging"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
	"github.com/dmitrijs2005/taskkeeper/internal/server/config"
	"github.com/dmitrijs2005/taskkeeper/internal/server/mail"
	"github.com/dmitrijs2005/taskkeeper/internal/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	return c
}

func TestNewApp_InvalidConfig(t *testing.T) {
	c := testConfig()
	c.SecretKey = ""

	_, err := NewApp(context.Background(), c)
	require.ErrorContains(t, err, "invalid config")
}

func TestNewApp_DatabaseUnreachable(t *testing.T) {
	c := testConfig()
	c.DatabaseDSN = "postgres://u:p@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"

	_, err := NewApp(context.Background(), c)
	require.ErrorContains(t, err, "db init error")
}

func TestNewMailSender(t *testing.T) {
	c := testConfig()

	c.MailProvider = config.MailProviderAPI
	assert.IsType(t, &mail.APISender{}, newMailSender(c, logging.Nop()))

	c.MailProvider = config.MailProviderSMTP
	assert.IsType(t, &mail.SMTPSender{}, newMailSender(c, logging.Nop()))

	c.MailProvider = config.MailProviderLog
	assert.IsType(t, &mail.LogSender{}, newMailSender(c, logging.Nop()))
}

func TestNewObjectStore_Local(t *testing.T) {
	c := testConfig()
	c.UploadDir = filepath.Join(t.TempDir(), "uploads")

	s, err := newObjectStore(context.Background(), c)
	require.NoError(t, err)
	require.IsType(t, &storage.LocalStore{}, s)

	u, err := s.URL(context.Background(), "users/1/a.png")
	require.NoError(t, err)
	assert.Equal(t, "/static/uploads/users/1/a.png", u)
}

func TestNewRevoker(t *testing.T) {
	app := &App{config: testConfig(), logger: logging.Nop()}

	r, err := app.newRevoker(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &auth.MemoryRevoker{}, r)
	assert.NotNil(t, app.memRevoker)

	mr := miniredis.RunT(t)
	app = &App{config: testConfig(), logger: logging.Nop()}
	app.config.RedisAddr = mr.Addr()

	r, err = app.newRevoker(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &auth.RedisRevoker{}, r)
	require.NotNil(t, app.redis)
	app.closeResources()
}

func TestNewRevoker_RedisUnreachable(t *testing.T) {
	app := &App{config: testConfig(), logger: logging.Nop()}
	app.config.RedisAddr = "127.0.0.1:1"

	_, err := app.newRevoker(context.Background())
	require.ErrorContains(t, err, "redis init error")
	assert.Nil(t, app.redis)
}
