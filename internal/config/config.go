package config

import "github.com/chidi150c/microbar/internal/model"

// Config holds the runtime knobs of spec.md §6's option table, threaded
// explicitly into constructors rather than read ad hoc from globals.
type Config struct {
	Symbol         string
	Timeframe      model.Timeframe
	InitialBalance float64
	Leverage       float64
	MakerFee       float64 // proportional, e.g. 0.001 = 10bps
	TakerFee       float64
	LogLevel       int

	// Ingestion knobs, not in the spec's headline table but required to
	// drive the Exchange Fetcher / store concretely.
	ExchangeBaseURL   string
	APILimit          int
	MaxRetries        int
	RetryDelaySeconds float64
	DBPath            string
	Port              int
}

// Load reads the process env (already hydrated by LoadDotEnv) and returns
// a Config with defaults for every option, mirroring the teacher's
// loadConfigFromEnv.
func Load() Config {
	return Config{
		Symbol:            getEnv("SYMBOL", "BTCUSDT"),
		Timeframe:         model.Timeframe(getEnv("TIMEFRAME", "1m")),
		InitialBalance:    getEnvFloat("INITIAL_BALANCE", 10_000),
		Leverage:          getEnvFloat("LEVERAGE", 1.0),
		MakerFee:          getEnvFloat("MAKER_FEE", 0.0002),
		TakerFee:          getEnvFloat("TAKER_FEE", 0.0004),
		LogLevel:          getEnvInt("LOG_LEVEL", 2),
		ExchangeBaseURL:   getEnv("EXCHANGE_BASE_URL", "https://api.binance.com"),
		APILimit:          getEnvInt("API_LIMIT", 1000),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		RetryDelaySeconds: getEnvFloat("RETRY_DELAY_SECONDS", 2.0),
		DBPath:            getEnv("DB_PATH", "microbar.db"),
		Port:              getEnvInt("PORT", 8080),
	}
}
