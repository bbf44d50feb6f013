package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf is the process-wide configuration, loaded once at startup via Load.
var Conf *Config

type Config struct {
	Debug    bool
	TestMode bool
	Env      string // DEV (default), TEST, QA, PROD
	AppName  string
	Build    string
	WorkDir  string

	SecretKey        string
	DefaultFromEmail mail.Address
	FrontendBaseURL  string

	SendgridApiKey string
	RollbarToken   string

	Server struct {
		Host            string
		Port            string
		ShutdownTimeout time.Duration
	}

	Upstream struct {
		// BaseURL of the university backend REST collaborator.
		BaseURL string
		Timeout time.Duration
	}

	Session struct {
		// CookieName is the canonical durable credential key.
		CookieName   string
		CookieMaxAge time.Duration
		CookieSecure bool
		CacheTTL     time.Duration
	}

	Toast struct {
		SuccessDuration time.Duration
		ErrorDuration   time.Duration
	}

	Redis struct {
		Address  string
		Password string
		DB       int
	}

	Database struct {
		Engine     string
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	Campusd struct {
		Address            string
		TokenExpiration    time.Duration
		PasswordResetDelta time.Duration
	}
}

func (c *Config) Address() string         { return c.Server.Host + ":" + c.Server.Port }
func (c *Config) DatabaseAddress() string { return c.Database.Host + ":" + c.Database.Port }

// Load reads configuration from the environment (with optional config/.env.<env>
// file) into Conf. It must be called before anything touches Conf.
func Load() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "CampusGate")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "x2m$f1u)7qgv&k+yrn83s!wp-05zhj9c4e6bd@tl")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:8000")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.shutdownTimeout", 20*time.Second)
	v.SetDefault("upstream.baseURL", "http://localhost:8800")
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("session.cookieName", "token")
	v.SetDefault("session.cookieMaxAge", 7*24*time.Hour)
	v.SetDefault("session.cookieSecure", false)
	v.SetDefault("session.cacheTTL", 5*time.Minute)
	v.SetDefault("toast.successDuration", 3*time.Second)
	v.SetDefault("toast.errorDuration", 5*time.Second)
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "campusgate")
	v.SetDefault("database.user", "campusgate")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("campusd.address", ":8800")
	v.SetDefault("campusd.tokenExpiration", 7*24*time.Hour)
	v.SetDefault("campusd.passwordResetDelta", 3*24*time.Hour)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetDefault("env", env)
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              v.GetString("env"),
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		WorkDir:          wd,
		SecretKey:        v.GetString("secretKey"),
		DefaultFromEmail: mail.Address{Address: v.GetString("defaultFromEmail")},
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
	}
	conf.Server.Host = v.GetString("server.host")
	conf.Server.Port = v.GetString("server.port")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")
	conf.Upstream.BaseURL = v.GetString("upstream.baseURL")
	conf.Upstream.Timeout = v.GetDuration("upstream.timeout")
	conf.Session.CookieName = v.GetString("session.cookieName")
	conf.Session.CookieMaxAge = v.GetDuration("session.cookieMaxAge")
	conf.Session.CookieSecure = v.GetBool("session.cookieSecure")
	conf.Session.CacheTTL = v.GetDuration("session.cacheTTL")
	conf.Toast.SuccessDuration = v.GetDuration("toast.successDuration")
	conf.Toast.ErrorDuration = v.GetDuration("toast.errorDuration")
	conf.Redis.Address = v.GetString("redis.address")
	conf.Redis.Password = v.GetString("redis.password")
	conf.Redis.DB = v.GetInt("redis.db")
	conf.Database.Engine = v.GetString("database.engine")
	conf.Database.Host = v.GetString("database.host")
	conf.Database.Port = v.GetString("database.port")
	conf.Database.Name = v.GetString("database.name")
	conf.Database.User = v.GetString("database.user")
	conf.Database.Password = v.GetString("database.password")
	conf.Database.DisableTLS = v.GetBool("database.disableTLS")
	conf.Campusd.Address = v.GetString("campusd.address")
	conf.Campusd.TokenExpiration = v.GetDuration("campusd.tokenExpiration")
	conf.Campusd.PasswordResetDelta = v.GetDuration("campusd.passwordResetDelta")

	Conf = conf
	return conf
}
