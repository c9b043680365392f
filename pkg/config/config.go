package config

import "os"

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	FirebaseDatabaseURL     string
	LedgerBackend           string
	MongoDBName             string
	RedisAddr               string
	MetricsPort             string
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		FirebaseDatabaseURL:     getEnv("FIREBASE_DATABASE_URL", ""),
		LedgerBackend:           getEnv("LEDGER_BACKEND", "firebase"),
		MongoDBName:             getEnv("MONGO_DB_NAME", "koinonia"),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
