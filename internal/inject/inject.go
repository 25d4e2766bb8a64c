package inject

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/samber/do"

	"github.com/bryanwahyu/renovator/internal/application"
	apprenovation "github.com/bryanwahyu/renovator/internal/application/renovation"
	"github.com/bryanwahyu/renovator/internal/config"
	"github.com/bryanwahyu/renovator/internal/domain/renovation"
	"github.com/bryanwahyu/renovator/internal/feed"
	"github.com/bryanwahyu/renovator/internal/infra/ai/fal"
	"github.com/bryanwahyu/renovator/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/renovator/internal/infra/db/mysql"
	"github.com/bryanwahyu/renovator/internal/infra/db/postgres"
	"github.com/bryanwahyu/renovator/internal/infra/httpserver"
	"github.com/bryanwahyu/renovator/internal/infra/storage"
	"github.com/bryanwahyu/renovator/internal/log"
	"github.com/bryanwahyu/renovator/internal/middleware"
	"github.com/bryanwahyu/renovator/internal/web"
)

// historyStore is a repository whose table can be created on startup
type historyStore interface {
	renovation.Repository
	EnsureSchema(ctx context.Context) error
}

// database closes the pool on injector shutdown
type database struct {
	*sql.DB
}

func (d *database) Shutdown() error {
	return d.Close()
}

// Setup registers every component; nothing is built until first invoked.
func Setup(ctx context.Context, cfg *config.Config) *do.Injector {
	logger := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		},
	})

	do.ProvideValue[*config.Config](injector, cfg)
	do.ProvideValue[application.Clock](injector, application.SystemClock{})
	do.ProvideValue[*http.Client](injector, &http.Client{Timeout: 60 * time.Second})
	do.ProvideNamedValue[string](injector, "base_url", cfg.BaseURL())

	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3.Region))
	})
	do.Provide[*s3.Client](injector, func(i *do.Injector) (*s3.Client, error) {
		return s3.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})

	do.Provide[*fal.Client](injector, func(i *do.Injector) (*fal.Client, error) {
		return fal.NewClient(fal.Options{
			Key:          cfg.Fal.Key,
			QueueURL:     cfg.Fal.QueueURL,
			StorageURL:   cfg.Fal.StorageURL,
			Model:        cfg.Fal.Model,
			PollInterval: cfg.Fal.PollInterval,
			Timeout:      cfg.Fal.Timeout,
			HTTPClient:   do.MustInvoke[*http.Client](i),
		}), nil
	})
	do.Provide[renovation.ImageStore](injector, func(i *do.Injector) (renovation.ImageStore, error) {
		return newImageStore(ctx, i, cfg)
	})
	do.Provide[renovation.Generator](injector, func(i *do.Injector) (renovation.Generator, error) {
		switch cfg.Generator.Provider {
		case config.ProviderOpenAI:
			c := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Size,
				do.MustInvoke[renovation.ImageStore](i))
			c.Clock = do.MustInvoke[application.Clock](i)
			return c, nil
		default:
			return do.MustInvoke[*fal.Client](i), nil
		}
	})

	do.Provide[*database](injector, func(i *do.Injector) (*database, error) {
		var (
			db  *sql.DB
			err error
		)
		switch cfg.Database.Driver {
		case config.DatabaseMySQL:
			db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		case config.DatabasePostgres:
			db, err = postgres.Connect(ctx, cfg.PostgresDSN())
		default:
			return nil, fmt.Errorf("database disabled")
		}
		if err != nil {
			return nil, fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
		}
		return &database{DB: db}, nil
	})
	do.Provide[historyStore](injector, func(i *do.Injector) (historyStore, error) {
		db, err := do.Invoke[*database](i)
		if err != nil {
			return nil, err
		}
		var repo historyStore
		if cfg.Database.Driver == config.DatabasePostgres {
			repo = postgres.NewRenovationRepository(db.DB)
		} else {
			repo = mysqlp.NewRenovationRepository(db.DB)
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, nil
	})

	do.Provide[*apprenovation.Service](injector, func(i *do.Injector) (*apprenovation.Service, error) {
		svc := &apprenovation.Service{
			Generator: do.MustInvoke[renovation.Generator](i),
			Images:    do.MustInvoke[renovation.ImageStore](i),
			Clock:     do.MustInvoke[application.Clock](i),
		}
		if cfg.Database.Driver != "" {
			repo, err := do.Invoke[historyStore](i)
			if err != nil {
				return nil, err
			}
			svc.History = repo
		}
		return svc, nil
	})

	do.Provide[*middleware.RateLimiter](injector, func(i *do.Injector) (*middleware.RateLimiter, error) {
		return middleware.NewRateLimiter(ctx, cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillRate), nil
	})
	do.Provide[*web.Templator](injector, func(i *do.Injector) (*web.Templator, error) {
		return web.NewTemplator(), nil
	})
	do.Provide[*feed.Generator](injector, func(i *do.Injector) (*feed.Generator, error) {
		svc := do.MustInvoke[*apprenovation.Service](i)
		return &feed.Generator{
			Title:   httpserver.Title,
			Link:    do.MustInvokeNamed[string](i, "base_url"),
			Records: svc.Latest,
			Limit:   20,
		}, nil
	})

	do.Provide[http.Handler](injector, func(i *do.Injector) (http.Handler, error) {
		return httpserver.NewRouter(
			do.MustInvoke[*apprenovation.Service](i),
			do.MustInvoke[*web.Templator](i),
			httpserver.Options{
				Logger:         logger,
				MaxBodyBytes:   cfg.Server.MaxBodyBytes,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Limiter:        do.MustInvoke[*middleware.RateLimiter](i),
				Checkers:       checkers(i, cfg),
				Feed:           do.MustInvoke[*feed.Generator](i),
				TrustProxy:     cfg.Server.TrustProxy,
				PublicHistory:  cfg.Server.PublicHistory,
			},
		), nil
	})

	return injector
}

func newImageStore(ctx context.Context, i *do.Injector, cfg *config.Config) (renovation.ImageStore, error) {
	switch cfg.Storage.Driver {
	case config.DriverMinio:
		store, err := storage.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
			cfg.Storage.PresignExpiry,
		)
		if err != nil {
			return nil, fmt.Errorf("minio init: %w", err)
		}
		return store, nil
	case config.DriverS3:
		return storage.NewS3Uploader(do.MustInvoke[*s3.Client](i), cfg.S3.Bucket, cfg.Storage.PresignExpiry), nil
	default:
		return fal.NewStorage(do.MustInvoke[*fal.Client](i)), nil
	}
}

// checkers collects readiness probes for whatever backends are enabled
func checkers(i *do.Injector, cfg *config.Config) map[string]middleware.HealthChecker {
	out := map[string]middleware.HealthChecker{}
	if cfg.Database.Driver != "" {
		if db, err := do.Invoke[*database](i); err == nil {
			out["database"] = &middleware.DatabaseHealthChecker{DB: db.DB}
		}
	}
	if store, ok := do.MustInvoke[renovation.ImageStore](i).(middleware.HealthChecker); ok {
		out["storage"] = store
	}
	return out
}
