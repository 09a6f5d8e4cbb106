package builder

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSecretStore struct {
	values map[string]string
	err    error
	asked  []string
}

func (f *fakeSecretStore) GetParameters(_ context.Context, names ...string) (map[string]string, error) {
	f.asked = names
	return f.values, f.err
}

func TestResolveSecrets(t *testing.T) {
	cfg := &config.Config{
		SecretsCfg: config.SecretsConfig{
			Source:             config.SecretsSourceSSM,
			BotTokenParam:      "/bot/token",
			WorkflowTokenParam: "/bot/workflow",
		},
	}
	cfg.TelegramCfg.WebhookSecret = "from-env"
	store := &fakeSecretStore{values: map[string]string{
		"/bot/token":    "123:abc",
		"/bot/workflow": "wf-token",
	}}

	require.NoError(t, resolveSecrets(context.Background(), cfg, store, zap.NewNop()))
	require.Equal(t, "123:abc", cfg.TelegramCfg.BotToken)
	require.Equal(t, "wf-token", cfg.WorkflowCfg.Token)
	require.Equal(t, "from-env", cfg.TelegramCfg.WebhookSecret)
}

func TestResolveSecrets_Errors(t *testing.T) {
	cfg := &config.Config{SecretsCfg: config.SecretsConfig{BotTokenParam: "/bot/token"}}

	err := resolveSecrets(context.Background(), cfg, &fakeSecretStore{err: errors.New("access denied")}, zap.NewNop())
	require.ErrorContains(t, err, "access denied")

	err = resolveSecrets(context.Background(), cfg, &fakeSecretStore{values: map[string]string{"/bot/token": ""}}, zap.NewNop())
	require.ErrorContains(t, err, "bot token")
}

type countingPurger struct {
	calls atomic.Int32
}

func (p *countingPurger) PurgeExpired(context.Context) (int64, error) {
	p.calls.Add(1)
	return 2, nil
}

func TestRunStateJanitor(t *testing.T) {
	purger := &countingPurger{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		runStateJanitor(ctx, purger, 5*time.Millisecond, zap.NewNop())
		close(done)
	}()

	require.Eventually(t, func() bool { return purger.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestRunStateJanitor_NoPurger(t *testing.T) {
	// returns immediately instead of blocking on ctx
	runStateJanitor(context.Background(), nil, time.Millisecond, zap.NewNop())
}

func TestAWSConfigLoader_LoadsOnce(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-central-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	l := &awsConfigLoader{}
	first, err := l.load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "eu-central-1", first.Region)

	t.Setenv("AWS_REGION", "us-east-1")
	second, err := l.load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "eu-central-1", second.Region)
}
