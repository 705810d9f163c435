package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
)

type (
	Config struct {
		AppName      string
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		Debug        bool
		TestMode     bool
		RollbarToken string
		Storage      string
		Server       ServerConfig
		Database     DatabaseConfig
		Mongo        MongoConfig
		Redis        RedisConfig
		Log          LogConfig
		Demo         DemoConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
		APIKey          string
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Name          string
		DisableTLS    bool
	}

	MongoConfig struct {
		URI      string
		Database string
	}

	RedisConfig struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
		LockTTL  time.Duration
	}

	LogConfig struct {
		Level  string
		Format string
	}

	DemoConfig struct {
		PersonsMin          int
		PersonsMax          int
		StaffMin            int
		StaffMax            int
		AttendanceMonths    int
		FeeMonths           int
		IDPrefix            string
		EmailDomain         string
		PlaceholderPassword string
		LeaseTTL            time.Duration
	}
)

func (dbc DatabaseConfig) Address() string {
	if dbc.Port == "" {
		return dbc.Host
	}
	return dbc.Host + ":" + dbc.Port
}

// NewConfig reads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed with the upper-cased env name: DEV_DATABASE_HOST, PROD_STORAGE...
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "MadarCRM")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("storage", StorageMemory)

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.apiKey", "")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "madarcrm")
	v.SetDefault("database.password", "madarcrm")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.name", "madarcrm")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "madarcrm")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lockTTL", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("demo.personsMin", 75)
	v.SetDefault("demo.personsMax", 100)
	v.SetDefault("demo.staffMin", 10)
	v.SetDefault("demo.staffMax", 15)
	v.SetDefault("demo.attendanceMonths", 3)
	v.SetDefault("demo.feeMonths", 6)
	v.SetDefault("demo.idPrefix", "NET")
	v.SetDefault("demo.emailDomain", "demo.madarcrm.local")
	v.SetDefault("demo.placeholderPassword", "Demo@12345")
	v.SetDefault("demo.leaseTTL", 10*time.Minute)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(ProjectRoot(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	host, _ := os.Hostname()

	return &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		RollbarToken: v.GetString("rollbarToken"),
		Storage:      strings.ToLower(v.GetString("storage")),
		Server: ServerConfig{
			Host:            host,
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
			APIKey:          v.GetString("server.apiKey"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Name:          v.GetString("database.name"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("mongo.uri"),
			Database: v.GetString("mongo.database"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			LockTTL:  v.GetDuration("redis.lockTTL"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Demo: DemoConfig{
			PersonsMin:          v.GetInt("demo.personsMin"),
			PersonsMax:          v.GetInt("demo.personsMax"),
			StaffMin:            v.GetInt("demo.staffMin"),
			StaffMax:            v.GetInt("demo.staffMax"),
			AttendanceMonths:    v.GetInt("demo.attendanceMonths"),
			FeeMonths:           v.GetInt("demo.feeMonths"),
			IDPrefix:            v.GetString("demo.idPrefix"),
			EmailDomain:         v.GetString("demo.emailDomain"),
			PlaceholderPassword: v.GetString("demo.placeholderPassword"),
			LeaseTTL:            v.GetDuration("demo.leaseTTL"),
		},
	}
}
