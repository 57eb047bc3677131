package repository

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"owatch_service/internal/reward/domain"
	"owatch_service/pkg/database"
	"owatch_service/pkg/logger"
	testtool "owatch_service/pkg/test_tool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// 需要 Docker，設定 OWATCH_INTEGRATION=1 才會執行
func TestClaimLedgerIntegration(t *testing.T) {
	if os.Getenv("OWATCH_INTEGRATION") != "1" {
		t.Skip("set OWATCH_INTEGRATION=1 to run container tests")
	}
	logger.SetNewNop()
	ctx := context.Background()

	container, host, port, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "owatch",
			"POSTGRES_PASSWORD": "owatch",
			"POSTGRES_DB":       "owatch",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	})
	require.NoError(t, err)
	defer container.Terminate(ctx)

	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	db, err := database.NewPGConnection(database.Connection{
		ConnectStr:    database.PostgresDSN(host, p, "owatch", "owatch", "owatch"),
		RetryCount:    5,
		RetryInterval: 1,
	})
	require.NoError(t, err)

	ledger := NewClaimLedger(db)
	require.NoError(t, ledger.AutoMigrate())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, vid := range []int{1, 2, 3} {
		require.NoError(t, ledger.Append(ctx, &domain.ClaimRecord{
			Address:      "0xABC",
			SessionID:    "s1",
			VideoID:      vid,
			Reward:       10,
			BalanceAfter: int64(10 * (i + 1)),
			ClaimedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, ledger.Append(ctx, &domain.ClaimRecord{
		Address: "0xDEF", SessionID: "s2", VideoID: 1, Reward: 10, BalanceAfter: 10, ClaimedAt: base,
	}))

	rows, err := ledger.ListByAddress(ctx, "0xABC", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].VideoID, "newest first")
	assert.Equal(t, int64(30), rows[0].BalanceAfter)

	rows, err = ledger.ListByAddress(ctx, "0xDEF", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
