package config

import (
	"encoding/json"
	"flag"
	"io"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string `json:"port"`
	CatalogsDir string `json:"catalogsDir"`
	DBURL       string `json:"dbUrl"`
	AutoMigrate bool   `json:"autoMigrate"`
	LogLevel    string `json:"logLevel"`
}

func def() Config {
	return Config{
		Port:        "8080",
		CatalogsDir: "reference/catalogs",
		DBURL:       "",
		AutoMigrate: false,
		LogLevel:    "info",
	}
}

func loadJSON(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "1" || v == "true" || v == "yes" {
			return true
		}
		if v == "0" || v == "false" || v == "no" {
			return false
		}
	}
	return fallback
}

// LoadWithPath читает JSON по указанному пути, потом применяет ENV и флаги.
func LoadWithPath(jsonPath string) Config {
	return load(jsonPath, os.Args[1:])
}

// load — та же цепочка JSON → ENV → флаги, но с локальным FlagSet:
// перечитывание по -config не трогает глобальный flag.CommandLine и не
// падает на повторной регистрации флагов.
func load(jsonPath string, args []string) Config {
	cfg := def()

	// JSON (если файл существует)
	if st, err := os.Stat(jsonPath); err == nil && !st.IsDir() {
		if c2, err := loadJSON(jsonPath); err == nil {
			cfg = c2
		}
	}

	// ENV overrides
	cfg.Port = getenv("PRIKAZ_PORT", cfg.Port)
	cfg.CatalogsDir = getenv("PRIKAZ_CATALOGS_DIR", cfg.CatalogsDir)
	cfg.DBURL = getenv("PRIKAZ_DB_URL", cfg.DBURL)
	cfg.AutoMigrate = getenvBool("PRIKAZ_AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.LogLevel = getenv("PRIKAZ_LOG_LEVEL", cfg.LogLevel)

	// Flags overrides
	fs := flag.NewFlagSet("prikaz", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", jsonPath, "Path to config JSON")
	port := fs.String("port", cfg.Port, "HTTP port")
	catalogs := fs.String("catalogs", cfg.CatalogsDir, "Path to option catalogs directory")
	db := fs.String("db", cfg.DBURL, "Postgres URL (empty = in-memory)")
	auto := fs.String("auto-migrate", strconv.FormatBool(cfg.AutoMigrate), "Apply generated DDL on start (true/false)")
	level := fs.String("log-level", cfg.LogLevel, "Log level (debug/info/warn/error)")

	// незнакомые аргументы (например, флаги test-раннера) не фатальны
	if err := fs.Parse(args); err != nil {
		return cfg
	}

	// Если через флаг передали другой конфиг — перечитаем
	if *configPath != jsonPath {
		return load(*configPath, args)
	}

	cfg.Port = strings.TrimSpace(*port)
	cfg.CatalogsDir = strings.TrimSpace(*catalogs)
	cfg.DBURL = strings.TrimSpace(*db)
	cfg.AutoMigrate = strings.EqualFold(strings.TrimSpace(*auto), "true") ||
		strings.EqualFold(strings.TrimSpace(*auto), "1") ||
		strings.EqualFold(strings.TrimSpace(*auto), "yes")
	cfg.LogLevel = strings.TrimSpace(*level)

	return cfg
}
