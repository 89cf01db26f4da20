package configuration

import (
	"fmt"
	"os"
	"strconv"

	"clipforge/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	Workflow    Workflow    `json:"workflow"`
	Progress    Progress    `json:"progress"`
	OAuth       OAuth       `json:"oauth"`
	YouTube     YouTube     `json:"youtube"`
}

type App struct {
	Port        int    `json:"port"`
	SecretKey   string `json:"secretKey"`
	TLSEnabled  bool   `json:"tlsEnabled"`
	TLSCertFile string `json:"tlsCertFile"`
	TLSKeyFile  string `json:"tlsKeyFile"`
}

type Database struct {
	Psql  Db `json:"psql"`
	MySql Db `json:"mysql"`
	Mongo Db `json:"mongo"`
	Mssql Db `json:"mssql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Password     string `json:"password"`
	DatabaseName string `json:"databaseName"`
	Username     string `json:"username"`
}

type Pubsub struct {
	ProjectID     string `json:"projectID"`
	ProgressTopic string `json:"progressTopic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	JobQueue  string `json:"jobQueue"`
}

// Workflow holds the external engine's intake webhook. Progress comes back
// through the callback endpoint; dispatch goes out through this URL or the
// Service Bus queue when configured.
type Workflow struct {
	WebhookURL string `json:"webhookURL"`
	// Public base URL where the engine uploads finished clips.
	ClipBaseURL string `json:"clipBaseURL"`
}

type Progress struct {
	StreamTimeoutMinutes int `json:"streamTimeoutMinutes"`
	SnapshotTTLMinutes   int `json:"snapshotTTLMinutes"`
}

// OAuth holds third-party platform OAuth client credentials
type OAuth struct {
	TikTok TikTokClient `json:"tiktok"`
}

type TikTokClient struct {
	ClientKey     string   `json:"clientKey"`
	ClientSecret  string   `json:"clientSecret"`
	RedirectURI   string   `json:"redirectURI"`
	Scopes        []string `json:"scopes"`
	TokenEndpoint string   `json:"tokenEndpoint"`
	AuthEndpoint  string   `json:"authEndpoint"`
	// Lead time before actual expiry at which a token is treated as expired.
	RefreshSafetyMarginMinutes int `json:"refreshSafetyMarginMinutes"`
	// Fallback lifetime when the upstream omits expires_in.
	DefaultTokenTTLHours int `json:"defaultTokenTTLHours"`
}

type YouTube struct {
	APIKey       string `json:"apiKey"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
}

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initProgress(&C)
	initTikTok(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}

	// Optional MSSQL config via environment variables (for Azure SQL in production)
	if v := os.Getenv("MSSQL_DB_NAME"); v != "" && C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = v
	}
	if v := os.Getenv("MSSQL_HOST"); v != "" && C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = v
	}
	if v := os.Getenv("MSSQL_USER"); v != "" && C.Database.Mssql.User == "" {
		C.Database.Mssql.User = v
	}
	if v := os.Getenv("MSSQL_PASSWORD"); v != "" && C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = v
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = os.Getenv("MSSQL_PORT")
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = "1433"
	}
}

func initApp(C *Config) {
	// Prefer SECRET_KEY from environment for JWT verification; overrides config file when provided
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10010
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10010
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch v {
		case "1", "true", "TRUE", "True":
			C.App.TLSEnabled = true
		case "0", "false", "FALSE", "False":
			C.App.TLSEnabled = false
		}
	}
	if C.App.TLSCertFile == "" {
		C.App.TLSCertFile = os.Getenv("TLS_CERT_FILE")
	}
	if C.App.TLSKeyFile == "" {
		C.App.TLSKeyFile = os.Getenv("TLS_KEY_FILE")
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initProgress(C *Config) {
	if C.Progress.StreamTimeoutMinutes <= 0 {
		C.Progress.StreamTimeoutMinutes = 10
	}
	if C.Progress.SnapshotTTLMinutes <= 0 {
		C.Progress.SnapshotTTLMinutes = 30
	}
	if C.Workflow.WebhookURL == "" {
		C.Workflow.WebhookURL = os.Getenv("WORKFLOW_WEBHOOK_URL")
	}
}

func initTikTok(C *Config) {
	tk := &C.OAuth.TikTok
	if v := os.Getenv("TIKTOK_CLIENT_KEY"); v != "" {
		tk.ClientKey = v
	}
	if v := os.Getenv("TIKTOK_CLIENT_SECRET"); v != "" {
		tk.ClientSecret = v
	}
	if v := os.Getenv("TIKTOK_REDIRECT_URI"); v != "" {
		tk.RedirectURI = v
	}
	if tk.TokenEndpoint == "" {
		tk.TokenEndpoint = "https://open.tiktokapis.com/v2/oauth/token/"
	}
	if tk.AuthEndpoint == "" {
		tk.AuthEndpoint = "https://www.tiktok.com/v2/auth/authorize/"
	}
	if len(tk.Scopes) == 0 {
		tk.Scopes = []string{"user.info.basic", "video.publish"}
	}
	if tk.RefreshSafetyMarginMinutes <= 0 {
		tk.RefreshSafetyMarginMinutes = 5
	}
	if tk.DefaultTokenTTLHours <= 0 {
		tk.DefaultTokenTTLHours = 24
	}
}
