package main

import (
	"database/sql"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"prikaz/internal/api"
	"prikaz/internal/config"
	"prikaz/internal/entities"
	"prikaz/internal/reference"
	"prikaz/internal/registry"
	"prikaz/internal/schema"
	"prikaz/internal/storage"
	"prikaz/internal/storage/pg"
)

func main() {
	// .env опционален: локальная разработка
	_ = godotenv.Load()

	cfg := config.LoadWithPath("config.json")
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})
	log := logrus.WithField("component", "server")

	// 1. Справочники опций
	catalogs, err := reference.LoadDir(cfg.CatalogsDir)
	if err != nil {
		log.WithError(err).Fatal("failed to load option catalogs")
	}
	log.WithField("catalogs", catalogs.Len()).Info("option catalogs loaded")

	// 2. Хранилище: пустой DB URL — in-memory
	var (
		client storage.Client
		db     *sql.DB
	)
	if cfg.DBURL == "" {
		client = storage.NewMemory()
		log.Info("using in-memory storage")
	} else {
		db, err = pg.Open(cfg.DBURL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to postgres")
		}
		client = pg.NewClient(db)
		log.Info("using postgres storage")
	}

	// 3. Реестр сущностей
	reg := registry.New()
	reg.UseCatalogs(catalogs)
	if err := entities.RegisterAll(reg, client); err != nil {
		log.WithError(err).Fatal("entity registration failed")
	}
	defs := make([]*schema.EntityDefinition, 0, len(reg.Names()))
	for _, name := range reg.Names() {
		if issues := reg.ValidateEntity(name); len(issues) > 0 {
			log.WithFields(logrus.Fields{"entity": name, "issues": issues}).Warn("schema issues")
		}
		defs = append(defs, reg.Get(name))
	}
	log.WithField("entities", reg.Stats().Total).Info("registry ready")

	// 4. Уникальность: декларации для memory, DDL-индексы для postgres
	if mem, ok := client.(*storage.Memory); ok {
		for _, def := range defs {
			mem.DeclareUnique(def.StorageKey(), def.TenantRules.UniqueConstraints...)
		}
	}
	if db != nil && cfg.AutoMigrate {
		ddl, err := pg.GenerateDDL(defs)
		if err != nil {
			log.WithError(err).Fatal("DDL generation failed")
		}
		if err := pg.ApplyDDL(db, ddl); err != nil {
			log.WithError(err).Fatal("DDL apply failed")
		}
		log.WithField("tables", len(ddl)).Info("schema migrated")
	}

	// 5. REST
	r := api.NewRouter(reg, client)
	log.WithField("port", cfg.Port).Info("starting server")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
