package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sourcecrowd/crowdfund-go/utils"
)

// Config carries everything the handlers need: settings read from the
// environment at startup plus the shared Mongo client and mailer. No other
// package reads environment variables.
type Config struct {
	Port           string
	MongoURI       string
	DBName         string
	JWTSecret      string
	AllowedOrigins []string

	ZeptoAPIURL string
	ZeptoAPIKey string
	EmailFrom   string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	MongoClient *mongo.Client
	Mailer      *utils.Mailer
	Cloud       *utils.Cloud
}

// Load reads configuration from the environment (and a .env file if one is
// present) and validates the required settings before anything connects.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           envOrDefault("PORT", "9000"),
		MongoURI:       envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		DBName:         envOrDefault("DB_NAME", "sourcecrowd"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: splitOrigins(envOrDefault("ALLOWED_ORIGINS", "*")),

		ZeptoAPIURL: os.Getenv("ZEPTO_API_URL"),
		ZeptoAPIKey: os.Getenv("ZEPTO_API_KEY"),
		EmailFrom:   os.Getenv("EMAIL_FROM"),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
	}

	if cfg.MongoURI == "" || cfg.DBName == "" {
		return nil, errors.New("missing MONGO_URI or DB_NAME")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("missing JWT_SECRET")
	}

	if cfg.MailConfigured() {
		cfg.Mailer = utils.NewMailer(cfg.ZeptoAPIURL, cfg.ZeptoAPIKey, cfg.EmailFrom)
	}
	cfg.Cloud = utils.NewCloud(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)

	return cfg, nil
}

// MailConfigured reports whether outbound email can be sent. The funded
// notification is skipped (and logged) when it cannot.
func (c *Config) MailConfigured() bool {
	return c.ZeptoAPIURL != "" && c.ZeptoAPIKey != "" && c.EmailFrom != ""
}

// Connect establishes the Mongo client, verifies the server is reachable
// and creates the unique index on users.email.
func (c *Config) Connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.MongoURI))
	if err != nil {
		return fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("pinging mongo: %w", err)
	}
	c.MongoClient = client

	users := client.Database(c.DBName).Collection("users")
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating users.email index: %w", err)
	}

	return nil
}

// Disconnect closes the Mongo client.
func (c *Config) Disconnect(ctx context.Context) error {
	if c.MongoClient == nil {
		return nil
	}
	return c.MongoClient.Disconnect(ctx)
}

// Redacted returns a loggable summary of the configuration with secrets
// masked.
func (c *Config) Redacted() string {
	return fmt.Sprintf(
		"port=%s db=%s mongo=%s jwt_secret=%s mail=%v cloudinary=%v origins=%s",
		c.Port, c.DBName, redactURI(c.MongoURI), mask(c.JWTSecret),
		c.MailConfigured(), c.CloudinaryCloudName != "",
		strings.Join(c.AllowedOrigins, ","),
	)
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mask(s string) string {
	if s == "" {
		return "<unset>"
	}
	return "***"
}

// redactURI strips credentials from a connection string so it can appear
// in startup logs.
func redactURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	scheme := strings.Index(uri, "://")
	if at == -1 || scheme == -1 || at < scheme {
		return uri
	}
	return uri[:scheme+3] + "***@" + uri[at+1:]
}
