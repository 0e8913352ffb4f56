package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/txlog/cmd/txlog/commands"
	"go.trai.ch/txlog/internal/adapters/logger"
	"go.trai.ch/txlog/internal/adapters/metrics"
	"go.trai.ch/txlog/internal/adapters/store/memory"
	"go.trai.ch/txlog/internal/app"
	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/txlog/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type harness struct {
	cli        *commands.CLI
	repo       *mocks.MockTransactionRepository
	components *app.Components
	out        *bytes.Buffer
	bootPath   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	h := &harness{
		repo: mocks.NewMockTransactionRepository(ctrl),
		out:  &bytes.Buffer{},
	}
	log := logger.FromZap(zap.NewNop())
	h.components = app.NewComponents(app.New(h.repo, log), log, metrics.New(), memory.New())

	h.cli = commands.New(func(_ context.Context, path string) (*app.Components, error) {
		h.bootPath = path
		return h.components, nil
	})
	h.cli.SetOutput(h.out)
	t.Cleanup(func() { _ = h.cli.Close() })
	return h
}

func (h *harness) run(args ...string) error {
	h.cli.SetArgs(args)
	return h.cli.Execute(context.Background())
}

func failingBoot(t *testing.T) commands.Boot {
	return func(context.Context, string) (*app.Components, error) {
		t.Fatal("application should not be initialized")
		return nil, nil
	}
}

func TestVersion_DoesNotBoot(t *testing.T) {
	cli := commands.New(failingBoot(t))
	out := &bytes.Buffer{}
	cli.SetOutput(out)
	cli.SetArgs([]string{"version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, out.String(), "txlog version")
	assert.Nil(t, cli.Logger())
}

func TestRoot_Help(t *testing.T) {
	cli := commands.New(failingBoot(t))
	cli.SetOutput(&bytes.Buffer{})
	cli.SetArgs([]string{"--help"})

	require.NoError(t, cli.Execute(context.Background()))
}

func TestBoot_ConfigPath(t *testing.T) {
	h := newHarness(t)
	h.repo.EXPECT().FindAllUnmodifiedSince(gomock.Any(), gomock.Any()).Return(nil, nil)

	require.NoError(t, h.run("--config", "/etc/txlog/txlog.yaml", "recover"))
	assert.Equal(t, "/etc/txlog/txlog.yaml", h.bootPath)
	assert.NotNil(t, h.cli.Logger())
}

func TestBoot_Error(t *testing.T) {
	bootErr := errors.New("store unavailable")
	cli := commands.New(func(context.Context, string) (*app.Components, error) {
		return nil, bootErr
	})
	cli.SetOutput(&bytes.Buffer{})
	cli.SetArgs([]string{"recover"})

	require.ErrorIs(t, cli.Execute(context.Background()), bootErr)
	assert.Nil(t, cli.Logger())
	assert.NoError(t, cli.Close())
}

func TestBegin(t *testing.T) {
	h := newHarness(t)

	var created *domain.Transaction
	h.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, tx *domain.Transaction) error {
			created = tx
			return nil
		})

	err := h.run("begin", "-p", "confirmOrder:cancelOrder", "-a", "orderId=o-7")
	require.NoError(t, err)

	require.NotNil(t, created)
	require.Len(t, created.Participants, 1)
	assert.Equal(t, "confirmOrder", created.Participants[0].ConfirmMethod)
	assert.Equal(t, "cancelOrder", created.Participants[0].CancelMethod)
	assert.Equal(t, "o-7", created.Attachments["orderId"])
	assert.Contains(t, h.out.String(), created.Xid.String())
	assert.Contains(t, h.out.String(), "orderId=o-7")
}

func TestBegin_InvalidParticipant(t *testing.T) {
	cli := commands.New(failingBoot(t))
	cli.SetOutput(&bytes.Buffer{})
	cli.SetArgs([]string{"begin", "-p", "confirmOnly"})

	require.ErrorIs(t, cli.Execute(context.Background()), domain.ErrInvalidArgument)
}

func TestBegin_InvalidRoot(t *testing.T) {
	cli := commands.New(failingBoot(t))
	cli.SetOutput(&bytes.Buffer{})
	cli.SetArgs([]string{"begin", "--root", "not-an-xid"})

	require.ErrorIs(t, cli.Execute(context.Background()), domain.ErrInvalidXid)
}

func TestShow_Many(t *testing.T) {
	h := newHarness(t)
	first := domain.NewTransaction()
	second := domain.NewTransaction()

	h.repo.EXPECT().FindByXid(gomock.Any(), first.Xid).Return(first.Clone(), nil)
	h.repo.EXPECT().FindByXid(gomock.Any(), second.Xid).Return(second.Clone(), nil)

	require.NoError(t, h.run("show", first.Xid.String(), second.Xid.String()))

	out := h.out.String()
	assert.Contains(t, out, first.Xid.String())
	assert.Contains(t, out, second.Xid.String())
	assert.Less(t, bytes.Index(h.out.Bytes(), []byte(first.Xid.String())), bytes.Index(h.out.Bytes(), []byte(second.Xid.String())))
}

func TestShow_NotFound(t *testing.T) {
	h := newHarness(t)
	xid := domain.NewXid()
	h.repo.EXPECT().FindByXid(gomock.Any(), xid).Return(nil, nil)

	require.ErrorIs(t, h.run("show", xid.String()), domain.ErrTransactionNotFound)
}

func TestShow_InvalidXid(t *testing.T) {
	cli := commands.New(failingBoot(t))
	cli.SetOutput(&bytes.Buffer{})
	cli.SetArgs([]string{"show", "garbage"})

	require.ErrorIs(t, cli.Execute(context.Background()), domain.ErrInvalidXid)
}

func TestStatus_JSON(t *testing.T) {
	h := newHarness(t)
	stored := domain.NewTransaction()

	h.repo.EXPECT().FindByXid(gomock.Any(), stored.Xid).Return(stored.Clone(), nil)
	h.repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, tx *domain.Transaction) error {
			tx.UpdateVersion()
			return nil
		})

	require.NoError(t, h.run("status", stored.Xid.String(), "confirming", "--json"))

	var got domain.Transaction
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &got))
	assert.Equal(t, stored.Xid, got.Xid)
	assert.Equal(t, domain.StatusConfirming, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestStatus_Unknown(t *testing.T) {
	cli := commands.New(failingBoot(t))
	cli.SetOutput(&bytes.Buffer{})
	cli.SetArgs([]string{"status", domain.NewXid().String(), "COMMITTED"})

	require.ErrorIs(t, cli.Execute(context.Background()), domain.ErrInvalidArgument)
}

func TestRetry_Conflict(t *testing.T) {
	h := newHarness(t)
	stored := domain.NewTransaction()

	h.repo.EXPECT().FindByXid(gomock.Any(), stored.Xid).Return(stored.Clone(), nil)
	h.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(domain.ErrOptimisticLock)

	require.ErrorIs(t, h.run("retry", stored.Xid.String()), domain.ErrOptimisticLock)
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	stored := domain.NewTransaction()

	h.repo.EXPECT().FindByXid(gomock.Any(), stored.Xid).Return(stored.Clone(), nil)
	h.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(int64(1), nil)

	require.NoError(t, h.run("delete", stored.Xid.String()))
	assert.Equal(t, "deleted "+stored.Xid.String()+"\n", h.out.String())
}

func TestRecover_Metrics(t *testing.T) {
	h := newHarness(t)
	stale := domain.NewTransaction()
	stale.UpdateTime(time.Now().Add(-time.Hour))

	h.repo.EXPECT().FindAllUnmodifiedSince(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ts time.Time) ([]*domain.Transaction, error) {
			assert.WithinDuration(t, time.Now().Add(-10*time.Minute), ts, time.Minute)
			return []*domain.Transaction{stale}, nil
		})
	h.components.Metrics.CacheMiss()

	require.NoError(t, h.run("recover", "--older-than", "10m", "--metrics"))

	out := h.out.String()
	assert.Contains(t, out, stale.Xid.String())
	assert.Contains(t, out, "txlog_cache_misses_total 1")
}
