package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseDriver selects the storage backend.
type DatabaseDriver string

const (
	DriverSQLite   DatabaseDriver = "sqlite"
	DriverPostgres DatabaseDriver = "postgres"
)

type (
	Config struct {
		HTTP
		Global
		Database
		App
		Covers
		Render
		UI
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver DatabaseDriver
		// DSN is the postgres connection string; Path is the sqlite file.
		DSN  string
		Path string
	}
	App struct {
		SecretKey       string // session/CSRF secret, autogenerated when empty
		PageSize        int
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool
	}
	Covers struct {
		Dir            string
		MaxUploadBytes int64
		AllowedMIME    []string
	}
	Render struct {
		HardWraps   bool     // render single newlines as <br>
		AllowedTags []string // sanitizer tag allow-list
	}
	UI struct {
		TemplatesPath string
		StaticPath    string
	}
)

// DefaultAllowedMIME is the cover upload allow-list.
var DefaultAllowedMIME = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// DefaultAllowedTags is the sanitizer allow-list applied to rendered markdown.
var DefaultAllowedTags = []string{
	"p", "div", "pre", "blockquote",
	"ul", "ol", "li",
	"h1", "h2", "h3", "h4", "h5", "h6",
	"strong", "b", "em", "i", "code", "kbd", "samp",
	"hr", "br", "span", "a",
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	v.SetDefault("database_driver", "sqlite")
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_path", "./elib.db")

	v.SetDefault("secret_key", "")
	v.SetDefault("page_size", 10)
	v.SetDefault("session_lifetime", "24h")
	v.SetDefault("bcrypt_cost", 12)
	v.SetDefault("secure_cookies", true)

	v.SetDefault("covers_dir", "./static/covers")
	v.SetDefault("max_upload_bytes", 10<<20)
	v.SetDefault("allowed_cover_mime", strings.Join(DefaultAllowedMIME, ","))

	v.SetDefault("markdown_hard_wraps", true)
	v.SetDefault("sanitizer_allowed_tags", strings.Join(DefaultAllowedTags, ","))

	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver: DatabaseDriver(v.GetString("DATABASE_DRIVER")),
			DSN:    v.GetString("DATABASE_DSN"),
			Path:   v.GetString("DATABASE_PATH"),
		},
		App: App{
			SecretKey:       v.GetString("SECRET_KEY"),
			PageSize:        v.GetInt("PAGE_SIZE"),
			SessionLifetime: v.GetDuration("SESSION_LIFETIME"),
			BcryptCost:      v.GetInt("BCRYPT_COST"),
			SecureCookies:   v.GetBool("SECURE_COOKIES"),
		},
		Covers: Covers{
			Dir:            v.GetString("COVERS_DIR"),
			MaxUploadBytes: v.GetInt64("MAX_UPLOAD_BYTES"),
			AllowedMIME:    splitList(v.GetString("ALLOWED_COVER_MIME")),
		},
		Render: Render{
			HardWraps:   v.GetBool("MARKDOWN_HARD_WRAPS"),
			AllowedTags: splitList(v.GetString("SANITIZER_ALLOWED_TAGS")),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
