package configuration

import (
	"fmt"
	"os"
	"strconv"

	"speakcraft-social/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	OAuth       OAuth       `json:"oauth"`
	Gateway     Gateway     `json:"gateway"`
	Publish     Publish     `json:"publish"`
}

type App struct {
	Port      int    `json:"port"`
	SecretKey string `json:"secretKey"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mssql Db `json:"mssql"`
	Mongo Db `json:"mongo"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

// OAuth holds third-party platform OAuth client credentials
type OAuth struct {
	YouTube  OAuthClient `json:"youtube"`
	Facebook OAuthClient `json:"facebook"`
}

type OAuthClient struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// Gateway describes the hosting gateway in front of the serverless-style
// endpoints. CallbackURL is the provider-registered OAuth callback; the
// credential is an anonymous pass-through key the gateway requires as a query
// parameter on every request that re-enters it.
type Gateway struct {
	CallbackURL     string `json:"callbackURL"`
	CredentialParam string `json:"credentialParam"`
	Credential      string `json:"credential"`
}

// Publish tunes the scheduled-publish worker.
type Publish struct {
	IntervalMinutes      int `json:"intervalMinutes"`
	RefreshMarginMinutes int `json:"refreshMarginMinutes"`
	CallTimeoutSeconds   int `json:"callTimeoutSeconds"`
	BatchSize            int `json:"batchSize"`
}

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initGateway(&C)
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
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}

	// MSSQL via environment variables (Azure SQL in production)
	if C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = os.Getenv("MSSQL_HOST")
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = os.Getenv("MSSQL_PORT")
	}
	if C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = os.Getenv("MSSQL_NAME")
	}
	if C.Database.Mssql.User == "" {
		C.Database.Mssql.User = os.Getenv("MSSQL_USER")
	}
	if C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = os.Getenv("MSSQL_PASSWORD")
	}

	if C.Database.Mongo.Host == "" {
		C.Database.Mongo.Host = os.Getenv("MONGO_HOST")
	}
	if C.Database.Mongo.Port == "" {
		C.Database.Mongo.Port = os.Getenv("MONGO_PORT")
	}
}

func initApp(C *Config) {
	if C.App.Port == 0 {
		if v := os.Getenv("PORT"); v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				C.App.Port = p
			}
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if C.App.SecretKey == "" {
		C.App.SecretKey = os.Getenv("SECRET_KEY")
	}

	if C.Publish.IntervalMinutes <= 0 {
		C.Publish.IntervalMinutes = 5
	}
	if C.Publish.RefreshMarginMinutes <= 0 {
		C.Publish.RefreshMarginMinutes = 5
	}
	if C.Publish.CallTimeoutSeconds <= 0 {
		C.Publish.CallTimeoutSeconds = 60
	}
	if C.Publish.BatchSize <= 0 {
		C.Publish.BatchSize = 50
	}
}

func initGateway(C *Config) {
	if C.Gateway.CallbackURL == "" {
		C.Gateway.CallbackURL = os.Getenv("GATEWAY_CALLBACK_URL")
	}
	if C.Gateway.CredentialParam == "" {
		C.Gateway.CredentialParam = getConfigValue("", "GATEWAY_CREDENTIAL_PARAM", "apikey")
	}
	if C.Gateway.Credential == "" {
		C.Gateway.Credential = os.Getenv("GATEWAY_CREDENTIAL")
	}
}
