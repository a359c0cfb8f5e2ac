package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/casbin/casbin/v3/persist"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/nats-io/nats.go"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/shandysiswandi/mlsgate/internal/filestore/outbound/catalog"
	filestoredb "github.com/shandysiswandi/mlsgate/internal/filestore/outbound/db"
	filestoresqlite "github.com/shandysiswandi/mlsgate/internal/filestore/outbound/sqlite"
	identitydb "github.com/shandysiswandi/mlsgate/internal/identity/outbound/db"
	"github.com/shandysiswandi/mlsgate/internal/identity/outbound/shadow"
	identitysqlite "github.com/shandysiswandi/mlsgate/internal/identity/outbound/sqlite"
	identityuc "github.com/shandysiswandi/mlsgate/internal/identity/usecase"
	"github.com/shandysiswandi/mlsgate/internal/migrations"
	"github.com/shandysiswandi/mlsgate/internal/pkg/clock"
	"github.com/shandysiswandi/mlsgate/internal/pkg/config"
	"github.com/shandysiswandi/mlsgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/mlsgate/internal/pkg/hash"
	"github.com/shandysiswandi/mlsgate/internal/pkg/instrument"
	"github.com/shandysiswandi/mlsgate/internal/pkg/lockout"
	"github.com/shandysiswandi/mlsgate/internal/pkg/messaging"
	"github.com/shandysiswandi/mlsgate/internal/pkg/mfa"
	"github.com/shandysiswandi/mlsgate/internal/pkg/otp"
	"github.com/shandysiswandi/mlsgate/internal/pkg/pgxcasbin"
	"github.com/shandysiswandi/mlsgate/internal/pkg/router"
	"github.com/shandysiswandi/mlsgate/internal/pkg/storage"
	"github.com/shandysiswandi/mlsgate/internal/pkg/uid"
	"github.com/shandysiswandi/mlsgate/internal/pkg/validator"
	"github.com/shandysiswandi/mlsgate/internal/shared/event"
	"github.com/spf13/afero"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverFile     = "file"

	LockoutMemory = "memory"
	LockoutRedis  = "redis"
)

// LoadConfig reads the YAML file named by CONFIG_PATH, defaulting to
// ./config/config.yaml.
func LoadConfig() (config.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		return nil, err
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}

	return cfg, nil
}

func (a *App) initInstrument() error {
	a.addCloser("Config", func(context.Context) error {
		return a.config.Close()
	})

	ins, err := instrument.New(a.ctx, &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         a.config.GetString("instrument.log_level"),
	})
	if err != nil {
		return err
	}

	a.ins = ins
	a.addCloser("Instrument", a.ins.Shutdown)

	return nil
}

func (a *App) initLibraries() error {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	maxHash := a.config.GetInt("hash.argon2id.max_concurrent")
	pepper := a.config.GetString("hash.argon2id.pepper")
	if a.config.GetUint32("hash.argon2id.memory_kib") > 0 {
		a.argon2id = hash.NewArgon2idWithParams(hash.Argon2Params{
			Memory:      a.config.GetUint32("hash.argon2id.memory_kib"),
			Iterations:  a.config.GetUint32("hash.argon2id.iterations"),
			Parallelism: uint8(min(a.config.GetUint("hash.argon2id.parallelism"), 255)), //nolint:gosec // clamped
			SaltLength:  a.config.GetUint32("hash.argon2id.salt_length"),
			KeyLength:   a.config.GetUint32("hash.argon2id.key_length"),
		}, pepper, maxHash)
	} else {
		a.argon2id = hash.NewArgon2id(pepper, maxHash)
	}

	v, err := validator.NewV10Validator()
	if err != nil {
		return fmt.Errorf("validator: %w", err)
	}
	a.validator = v

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		return err
	}
	a.snowflake = snow

	a.totp = otp.NewTOTP(
		a.config.GetString("mfa.totp.issuer"),
		a.config.GetUint("mfa.totp.period"),
		a.config.GetUint("mfa.totp.skew"),
		libOTP.DigitsSix,
	)

	if key := strings.TrimSpace(a.config.GetString("mfa.secret_key")); key != "" {
		enc, err := mfa.NewAESGCM(key)
		if err != nil {
			return err
		}
		a.secrets = enc
	}

	return nil
}

func (a *App) initDatabase() error {
	driver := strings.ToLower(strings.TrimSpace(a.config.GetString("database.driver")))
	switch driver {
	case DriverPostgres:
		return a.initPostgres()
	case DriverSQLite, "":
		return a.initSQLite()
	case DriverFile:
		return a.initFileStore()
	default:
		return fmt.Errorf("unknown database driver %q", driver)
	}
}

func (a *App) initPostgres() error {
	cfg, err := pgxpool.ParseConfig(a.config.GetString("database.postgres.url"))
	if err != nil {
		return fmt.Errorf("parse postgres url: %w", err)
	}

	if v := a.config.GetInt("database.postgres.pool.max_conns"); v > 0 {
		cfg.MaxConns = int32(min(v, 1<<16)) //nolint:gosec // clamped
	}
	if v := a.config.GetInt("database.postgres.pool.min_conns"); v > 0 {
		cfg.MinConns = int32(min(v, 1<<16)) //nolint:gosec // clamped
	}
	if v := a.config.GetSecond("database.postgres.pool.max_conn_lifetime_seconds"); v > 0 {
		cfg.MaxConnLifetime = v
	}
	if v := a.config.GetSecond("database.postgres.pool.max_conn_idle_seconds"); v > 0 {
		cfg.MaxConnIdleTime = v
	}

	pool, err := pgxpool.NewWithConfig(a.ctx, cfg)
	if err != nil {
		return fmt.Errorf("create postgres pool: %w", err)
	}
	a.pgConn = pool
	a.addCloser("Database", func(context.Context) error {
		pool.Close()
		return nil
	})

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	if err := migrations.Up(a.ctx, sqlDB, migrations.DialectPostgres); err != nil {
		return err
	}

	a.credentials = identitydb.NewDB(pool, a.ins)
	a.catalog = filestoredb.NewDB(pool, a.ins)

	return nil
}

func (a *App) initSQLite() error {
	db, err := sql.Open("sqlite", sqliteDSN(a.config.GetString("database.sqlite.path")))
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	a.sqlConn = db
	a.addCloser("Database", func(context.Context) error {
		return db.Close()
	})

	if err := db.PingContext(a.ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrations.Up(a.ctx, db, migrations.DialectSQLite); err != nil {
		return err
	}

	a.credentials = identitysqlite.NewSQLite(db, a.ins)
	a.catalog = filestoresqlite.NewSQLite(db, a.ins)

	return nil
}

// sqliteDSN enables WAL and a busy timeout so concurrent writers wait
// instead of failing with SQLITE_BUSY.
func sqliteDSN(path string) string {
	if path == "" {
		path = "./data/mlsgate.db"
	}

	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")

	return "file:" + path + "?" + q.Encode()
}

func (a *App) initFileStore() error {
	dir := a.config.GetString("database.file.dir")
	if dir == "" {
		dir = "./data"
	}

	fs := afero.NewOsFs()
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	creds, err := shadow.Open(fs, filepath.Join(dir, "shadow.jsonl"), a.ins)
	if err != nil {
		return err
	}
	cat, err := catalog.Open(fs, filepath.Join(dir, "files.jsonl"), a.ins)
	if err != nil {
		return err
	}

	a.credentials = creds
	a.catalog = cat

	return nil
}

func (a *App) initLockout() error {
	policy := lockout.Policy{
		MaxFailures: a.config.GetInt("lockout.max_failures"),
		Duration:    a.config.GetMinute("lockout.duration_minutes"),
	}

	driver := strings.ToLower(strings.TrimSpace(a.config.GetString("lockout.driver")))
	switch driver {
	case LockoutMemory, "":
		a.tracker = lockout.NewMemory(policy)
		return nil
	case LockoutRedis:
	default:
		return fmt.Errorf("unknown lockout driver %q", driver)
	}

	opt, err := redis.ParseURL(a.config.GetString("lockout.redis.url"))
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	a.cacheConn = rdb
	a.addCloser("Redis", func(context.Context) error {
		return rdb.Close()
	})

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	a.tracker = lockout.NewRedis(rdb, lockout.RedisOptions{
		Policy:    policy,
		Prefix:    a.config.GetString("lockout.redis.prefix"),
		Retention: a.config.GetMinute("lockout.redis.retention_minutes"),
		LeaseTTL:  a.config.GetSecond("lockout.redis.lease_ttl_seconds"),
		LeaseWait: a.config.GetSecond("lockout.redis.lease_wait_seconds"),
	})

	return nil
}

func (a *App) initStorage() error {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))

	var gcsClient *gcs.Client
	if driver == storage.DriverGCS {
		if raw := strings.TrimSpace(a.config.GetString("storage.gcs.credentials_json")); raw != "" {
			creds, err := google.CredentialsFromJSON(a.ctx, []byte(raw), gcs.ScopeReadWrite)
			if err != nil {
				return fmt.Errorf("parse gcs credentials json: %w", err)
			}

			client, err := gcs.NewClient(a.ctx, option.WithCredentials(creds))
			if err != nil {
				return fmt.Errorf("create gcs client: %w", err)
			}
			gcsClient = client
		}
	}

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		Local: storage.LocalOptions{
			Root: a.config.GetString("storage.local.root"),
		},
		S3: storage.S3Options{
			Bucket:       strings.TrimSpace(a.config.GetString("storage.s3.bucket")),
			Region:       strings.TrimSpace(a.config.GetString("storage.s3.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.s3.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.s3.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.s3.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.s3.session_token")),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			Bucket:          strings.TrimSpace(a.config.GetString("storage.gcs.bucket")),
			CredentialsFile: strings.TrimSpace(a.config.GetString("storage.gcs.credentials_file")),
			Endpoint:        strings.TrimSpace(a.config.GetString("storage.gcs.endpoint")),
			Client:          gcsClient,
		},
		MinIO: storage.MinIOOptions{
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.minio.endpoint")),
			Bucket:       strings.TrimSpace(a.config.GetString("storage.minio.bucket")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.minio.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.minio.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.minio.session_token")),
			Region:       strings.TrimSpace(a.config.GetString("storage.minio.region")),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
			CreateBucket: a.config.GetBool("storage.minio.create_bucket"),
		},
	})
	if err != nil {
		if gcsClient != nil {
			_ = gcsClient.Close()
		}
		return err
	}

	a.storage = stg
	a.addCloser("Storage", func(context.Context) error {
		return a.storage.Close()
	})

	return nil
}

func (a *App) initMessaging() error {
	driver := a.config.GetString("messaging.driver")

	natsOpts := []nats.Option{nats.Name(a.config.GetString("messaging.nats.name"))}
	if v := a.config.GetInt("messaging.nats.max_reconnects"); v != 0 {
		natsOpts = append(natsOpts, nats.MaxReconnects(v))
	}
	if v := a.config.GetSecond("messaging.nats.timeout_seconds"); v > 0 {
		natsOpts = append(natsOpts, nats.Timeout(v))
	}
	if v := a.config.GetSecond("messaging.nats.reconnect_wait_seconds"); v > 0 {
		natsOpts = append(natsOpts, nats.ReconnectWait(v))
	}

	var pubsubOpts []option.ClientOption
	if v := strings.TrimSpace(a.config.GetString("messaging.pubsub.credentials_file")); v != "" {
		pubsubOpts = append(pubsubOpts, option.WithCredentialsFile(v))
	}
	if v := strings.TrimSpace(a.config.GetString("messaging.pubsub.endpoint")); v != "" {
		pubsubOpts = append(pubsubOpts, option.WithEndpoint(v), option.WithoutAuthentication())
	}

	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		Logger: slog.Default(),
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
		},
		Kafka: messaging.KafkaConfig{
			Brokers:      a.config.GetArray("messaging.kafka.brokers"),
			BatchTimeout: time.Duration(a.config.GetInt64("messaging.kafka.batch_timeout_ms")) * time.Millisecond,
		},
		NATS: messaging.NATSConfig{
			URL:     a.config.GetString("messaging.nats.url"),
			Name:    a.config.GetString("messaging.nats.name"),
			Options: natsOpts,
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: pubsubOpts,
		},
	})
	if err != nil {
		return fmt.Errorf("driver %q: %w", driver, err)
	}

	a.messaging = client
	a.addCloser("Messaging", func(context.Context) error {
		return a.messaging.Close()
	})

	a.audit = event.NewAuditPublisher(a.messaging, a.snowflake, a.clock, a.ins,
		a.config.GetString("messaging.audit_destination"))

	return nil
}

func (a *App) initCasbin() error {
	var adapter persist.Adapter
	if a.pgConn != nil {
		adapter = pgxcasbin.NewAdapter(a.pgConn, a.config.GetString("authz.table"))
	}

	e, err := identityuc.NewEnforcer(adapter, a.config.GetArray("authz.admins"))
	if err != nil {
		return err
	}

	a.casbin = e

	return nil
}

func (a *App) initHTTPServer() error {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})

	a.router.Public(http.MethodGet, "/health")
	a.router.GET("/health", a.health)

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-MFA-Code", "X-Correlation-ID"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
	if a.httpServer.ReadHeaderTimeout == 0 {
		a.httpServer.ReadHeaderTimeout = 5 * time.Second
	}

	return nil
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (r healthResponse) Message() string { return "ok" }

func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	out := healthResponse{Status: "up", Database: "up"}

	var err error
	switch {
	case a.pgConn != nil:
		err = a.pgConn.Ping(ctx)
	case a.sqlConn != nil:
		err = a.sqlConn.PingContext(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.WarnContext(ctx, "health check database ping failed", "error", err)
		out.Database = "down"
	}

	return out, nil
}
