package database

import (
	"context"
	"fmt"
	"os"
	"testing"

	"owatch_service/pkg/logger"
	testtool "owatch_service/pkg/test_tool"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// 需要 Docker，設定 OWATCH_INTEGRATION=1 才會執行
func TestRedisKVIntegration(t *testing.T) {
	if os.Getenv("OWATCH_INTEGRATION") != "1" {
		t.Skip("set OWATCH_INTEGRATION=1 to run container tests")
	}
	logger.SetNewNop()
	ctx := context.Background()

	container, host, port, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:latest",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	require.NoError(t, err)
	defer container.Terminate(ctx)

	client, err := NewRedisClient(RedisConnection{Addr: fmt.Sprintf("%s:%s", host, port)})
	require.NoError(t, err)

	kv := NewRedisKV(client)
	defer kv.Close()
	exerciseKV(t, kv)
}
