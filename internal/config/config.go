package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string
	RedisURL            string
	StripeSecretKey     string
	StripeWebhookSecret string
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string

	// Lead economics. All overridable via env; the values below are
	// defaults, not requirements.
	LeadFeeCredits int64 // charged per billable accepted lead
	QCPercent      int   // percent of allocated leads given free for quality control
	BonusThreshold int   // billable charges before the next lead is free
	MatchTopN      int   // ranked candidates kept per job

	NotifyQueueKey string // Redis list external notification workers drain
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LEAD_FEE_CREDITS", 3)
	viper.SetDefault("QC_PERCENT", 10)
	viper.SetDefault("BONUS_THRESHOLD", 10)
	viper.SetDefault("MATCH_TOP_N", 3)
	viper.SetDefault("NOTIFY_QUEUE_KEY", "notify:outbound")

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL")
	if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}

	return &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		StripeSecretKey:     viper.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: viper.GetString("STRIPE_WEBHOOK_SECRET"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		LeadFeeCredits:      viper.GetInt64("LEAD_FEE_CREDITS"),
		QCPercent:           viper.GetInt("QC_PERCENT"),
		BonusThreshold:      viper.GetInt("BONUS_THRESHOLD"),
		MatchTopN:           viper.GetInt("MATCH_TOP_N"),
		NotifyQueueKey:      viper.GetString("NOTIFY_QUEUE_KEY"),
	}, nil
}
