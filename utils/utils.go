package utils

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"time"

	helpers "github.com/Lineblocs/go-helpers"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	models "teknologiumum.com/pesto/models"
	"teknologiumum.com/pesto/repository"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var db *sql.DB

func Config(key string) string {
	if os.Getenv("USE_DOTENV") != "off" {
		_ = godotenv.Load(".env")
	}
	return os.Getenv(key)
}

// ConfigDefault returns the value of key, or fallback when it is unset.
func ConfigDefault(key string, fallback string) string {
	if v := Config(key); v != "" {
		return v
	}
	return fallback
}

func configDuration(key string, fallback time.Duration) time.Duration {
	raw := Config(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		// runs before helpers.InitLogrus in the binaries, so log through logrus directly
		logrus.WithField("component", "config").Warnf("variable %s is setup incorrectly. %s=%s setting value to %s", key, key, raw, fallback)
		return fallback
	}
	return d
}

func LoadSettings() *models.Settings {
	return &models.Settings{
		Port:            ConfigDefault("PORT", "3000"),
		RedisURL:        Config("REDIS_URL"),
		RequestTimeout:  configDuration("REQUEST_TIMEOUT", 10*time.Second),
		NotifyTimeout:   configDuration("NOTIFY_TIMEOUT", 15*time.Second),
		TrialDomain:     ConfigDefault("TRIAL_DOMAIN", "pesto.teknologiumum.com"),
		MailgunDomain:   Config("MAILGUN_DOMAIN"),
		MailgunAPIKey:   Config("MAILGUN_API_KEY"),
		MailgunAPIBase:  Config("MAILGUN_API_BASE"),
		MailFrom:        ConfigDefault("MAIL_FROM", "Pesto from Teknologi Umum <pesto@teknologiumum.com>"),
		QueueURL:        Config("QUEUE_URL"),
		NotifyQueue:     ConfigDefault("NOTIFICATION_QUEUE", "notification_tasks"),
		MySQLDSN:        Config("MYSQL_DSN"),
		OperatorEmail:   Config("OPERATOR_EMAIL"),
		DigestSchedule:  ConfigDefault("DIGEST_SCHEDULE", "0 9 * * *"),
		LogDestinations: Config("LOG_DESTINATIONS"),
	}
}

// CreateRedisClient parses the URL and verifies the connection
func CreateRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", opt.Addr, err)
	}
	return client, nil
}

// CreateRecordStore opens the configured store. Without a Redis URL the
// records live in process memory and are lost on restart.
func CreateRecordStore(ctx context.Context, settings *models.Settings) (repository.RecordStore, func() error, error) {
	if settings.RedisURL == "" {
		helpers.Log(logrus.WarnLevel, "REDIS_URL is not set, using in-memory record store")
		return repository.NewMemoryStore(), func() error { return nil }, nil
	}

	client, err := CreateRedisClient(ctx, settings.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewRedisStore(client), client.Close, nil
}

// GetDBConnection returns the audit database, or nil when MYSQL_DSN is unset.
func GetDBConnection(settings *models.Settings) (*sql.DB, error) {
	if db != nil {
		return db, nil
	}
	if settings.MySQLDSN == "" {
		return nil, nil
	}

	dsn, err := AuditDSN(settings.MySQLDSN)
	if err != nil {
		return nil, err
	}
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db = conn
	return db, nil
}

// AuditDSN forces parseTime so DATETIME columns scan into time.Time, and
// reads them as UTC.
func AuditDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid MYSQL_DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// CreateAMQPChannel dials the queue broker and declares the durable queue.
func CreateAMQPChannel(queueURL string, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(queueURL)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq connection failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel failed: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("could not declare queue %s: %w", queue, err)
	}
	return conn, ch, nil
}

// RandomAlphanumeric reads n characters from [a-zA-Z0-9] using source.
func RandomAlphanumeric(source io.Reader, n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(source, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphanumeric[idx.Int64()])
	}
	return sb.String(), nil
}

// MaskToken keeps the first six characters of a token for logs.
func MaskToken(token string) string {
	if len(token) <= 6 {
		return strings.Repeat("*", len(token))
	}
	return token[:6] + "..."
}
