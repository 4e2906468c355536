package suite

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/rocketscienceinc/xiangqi-backend/internal/repository/storage"
)

const (
	expireDuration  = 120
	maxWaitDuration = 120 * time.Second
)

const (
	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "alpine"

	postgresPort     = "5432/tcp"
	postgresImage    = "postgres"
	postgresTag      = "16-alpine"
	postgresPassword = "secret"
	postgresDB       = "xiangqi"
)

// IntegrationEnv enables the docker backed helpers.
const IntegrationEnv = "INTEGRATION_TESTS"

type Suite struct {
	*testing.T
	Logger *zap.Logger

	Storage *redis.Client
	Redis   *miniredis.Miniredis

	Postgres *storage.Postgres
}

// New - returns a suite backed by an in-process Redis.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(func() {
		cancel()
	})

	server := miniredis.RunT(t)

	redisClient := redis.NewClient(&redis.Options{
		Addr: server.Addr(),
	})
	t.Cleanup(func() {
		_ = redisClient.Close()
	})

	return ctx, &Suite{
		T:       t,
		Logger:  zaptest.NewLogger(t),
		Storage: redisClient,
		Redis:   server,
	}
}

// NewIntegration - returns a suite backed by real Redis and Postgres containers.
// The test is skipped unless INTEGRATION_TESTS is set.
func NewIntegration(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	if os.Getenv(IntegrationEnv) == "" {
		t.Skipf("set %s to run docker backed tests", IntegrationEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(func() {
		cancel()
	})

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("could not connect to docker: %v", err)
	}

	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	pool.MaxWait = maxWaitDuration

	redisClient := runRedis(ctx, t, pool)
	postgres := runPostgres(ctx, t, pool)

	return ctx, &Suite{
		T:        t,
		Logger:   zaptest.NewLogger(t),
		Storage:  redisClient,
		Postgres: postgres,
	}
}

func runRedis(ctx context.Context, t *testing.T, pool *dockertest.Pool) *redis.Client {
	t.Helper()

	resource := runContainer(t, pool, &dockertest.RunOptions{
		Repository: redisImage,
		Tag:        redisTag,
		Env:        []string{},
	})

	redisHost := resource.GetHostPort(redisPort)

	var redisClient *redis.Client
	if err := pool.Retry(func() error {
		redisClient = redis.NewClient(&redis.Options{
			Addr: redisHost,
		})
		return redisClient.Ping(ctx).Err()
	}); err != nil {
		t.Fatalf("could not connect to redis: %v", err)
	}

	if err := redisClient.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("could not flush database: %v", err)
	}

	return redisClient
}

func runPostgres(ctx context.Context, t *testing.T, pool *dockertest.Pool) *storage.Postgres {
	t.Helper()

	resource := runContainer(t, pool, &dockertest.RunOptions{
		Repository: postgresImage,
		Tag:        postgresTag,
		Env: []string{
			"POSTGRES_PASSWORD=" + postgresPassword,
			"POSTGRES_DB=" + postgresDB,
		},
	})

	dsn := fmt.Sprintf("postgres://postgres:%s@%s/%s?sslmode=disable",
		postgresPassword, resource.GetHostPort(postgresPort), postgresDB)

	var postgres *storage.Postgres
	if err := pool.Retry(func() error {
		var err error
		postgres, err = storage.NewPostgres(ctx, dsn)
		return err
	}); err != nil {
		t.Fatalf("could not connect to postgres: %v", err)
	}
	t.Cleanup(postgres.Close)

	if err := postgres.Init(ctx); err != nil {
		t.Fatalf("could not init database: %v", err)
	}

	return postgres
}

func runContainer(t *testing.T, pool *dockertest.Pool, opts *dockertest.RunOptions) *dockertest.Resource {
	t.Helper()

	// pulls an image, creates a container based on it and runs it
	resource, err := pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("could not start resource: %v", err)
	}

	// never returns error
	_ = resource.Expire(expireDuration) // Tell docker to hard kill the container in 120 seconds

	t.Cleanup(func() {
		if err = pool.Purge(resource); err != nil {
			t.Fatalf("could not purge resource: %v", err)
		}
	})

	return resource
}
