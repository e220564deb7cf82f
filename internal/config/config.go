package config

import (
	"log"
	"os"
)

type Config struct {
	Port        string
	DBDSN       string
	LogFile     string
	GatewayMode string // "simulated" or "declined" (test rigs)
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "checkstand.db"
	} // sqlite file in project root
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./checkstand.log"
	}
	gw := os.Getenv("GATEWAY_MODE")
	if gw == "" {
		gw = "simulated"
	}

	cfg := Config{Port: port, DBDSN: dsn, LogFile: logFile, GatewayMode: gw}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s GATEWAY_MODE=%s", cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.GatewayMode)
	return cfg
}
