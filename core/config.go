package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host               string
		Port               string
		JWTExpirationDelta time.Duration
		ShutdownTimeout    time.Duration
	}

	DatabaseConfig struct {
		Engine     string
		Name       string
		User       string
		Password   string
		Host       string
		Port       string
		DisableTLS bool
	}

	// SourceConfig describes one snapshot tree in object storage.
	SourceConfig struct {
		Root          string
		CacheTTL      time.Duration
		HeaderSkip    int // attendance exports: data rows to drop before the inner header row
		DateShiftDays int // attendance exports: file date minus session date
	}

	StorageConfig struct {
		BasePath   string // mount point of the bucket
		Students   SourceConfig
		Grades     SourceConfig
		Attendance SourceConfig
	}

	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		Build    string

		AppName   string
		SecretKey string

		// GateDigest is the dashboard password digest: either a sha256 hex
		// string or a bcrypt hash (detected by its "$2" prefix).
		GateDigest string

		// AttendanceAssignment is the title of the pseudo-assignment that
		// carries attendance scores in grade exports.
		AttendanceAssignment string

		// RefDataPath points to the YAML file holding the course registry
		// and the cohort threshold tables.
		RefDataPath string

		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		Server   ServerConfig
		Storage  StorageConfig
		Database DatabaseConfig
	}
)

func (c ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

// NewConfig loads the app configuration from the environment;
// an optional config/.env.<env> file is loaded first when present.
func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Cohortboard")
	v.SetDefault("secretKey", "x7fp-agq)wnb$+31=kz&uchr9(m!v)#*c5(#yg2h^$oiwm8eqy")
	v.SetDefault("gateDigest", "")
	v.SetDefault("attendanceAssignment", "Roll Call Attendance")
	v.SetDefault("refDataPath", "config/refdata.yaml")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("serverHost", "")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("jwtExpirationDelta", 4*time.Hour)
	v.SetDefault("shutdownTimeout", 5*time.Second)
	v.SetDefault("storageBasePath", "data")
	v.SetDefault("studentSourceRoot", "canvas/students")
	v.SetDefault("gradeSourceRoot", "canvas/grades")
	v.SetDefault("attendanceSourceRoot", "zoom/participants")
	v.SetDefault("sourceCacheTTL", 600*time.Second)
	v.SetDefault("attendanceHeaderSkip", 3)
	v.SetDefault("attendanceDateShiftDays", 1)
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "cohortboard")
	v.SetDefault("dbUser", "postgres")
	v.SetDefault("dbPassword", "")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbDisableTLS", true)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	testMode := false
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}
	v.AutomaticEnv()

	ttl := v.GetDuration("sourceCacheTTL")
	conf := &Config{
		Env:                  env,
		Debug:                v.GetBool("debug"),
		TestMode:             testMode,
		Build:                v.GetString("build"),
		AppName:              v.GetString("appName"),
		SecretKey:            v.GetString("secretKey"),
		GateDigest:           v.GetString("gateDigest"),
		AttendanceAssignment: v.GetString("attendanceAssignment"),
		RefDataPath:          v.GetString("refDataPath"),
		DefaultFromEmail:     mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		SendgridApiKey:       v.GetString("sendgridApiKey"),
		RollbarToken:         v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:               v.GetString("serverHost"),
			Port:               v.GetString("serverPort"),
			JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
			ShutdownTimeout:    v.GetDuration("shutdownTimeout"),
		},
		Storage: StorageConfig{
			BasePath: v.GetString("storageBasePath"),
			Students: SourceConfig{
				Root:     v.GetString("studentSourceRoot"),
				CacheTTL: ttl,
			},
			Grades: SourceConfig{
				Root:     v.GetString("gradeSourceRoot"),
				CacheTTL: ttl,
			},
			Attendance: SourceConfig{
				Root:          v.GetString("attendanceSourceRoot"),
				CacheTTL:      ttl,
				HeaderSkip:    v.GetInt("attendanceHeaderSkip"),
				DateShiftDays: v.GetInt("attendanceDateShiftDays"),
			},
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("dbEngine"),
			Name:       v.GetString("dbName"),
			User:       v.GetString("dbUser"),
			Password:   v.GetString("dbPassword"),
			Host:       v.GetString("dbHost"),
			Port:       v.GetString("dbPort"),
			DisableTLS: v.GetBool("dbDisableTLS"),
		},
	}
	return conf, nil
}
