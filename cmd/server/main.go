package main

import (
	"flag"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"lineageviz/internal/db"
	_ "lineageviz/internal/db/loaders"
	"lineageviz/internal/ingest"
	"lineageviz/internal/lineage"
	"lineageviz/internal/logger"
	"lineageviz/internal/server"
	"lineageviz/internal/session"
	"lineageviz/pkg/config"
)

var defaultPort = 8080

func main() {
	// flags
	cfgPath := flag.String("config", filepath.Join(".", "configs", "example.yaml"), "path to config YAML")
	driverFlag := flag.String("driver", "", "db driver override (postgres,mysql,sqlite,sqlserver,godror)")
	dsnFlag := flag.String("dsn", "", "dsn override")
	tableFlag := flag.String("table", "", "lineage table to read from the database")
	fileFlag := flag.String("file", "", "lineage spreadsheet (.xlsx or .csv) to load at startup")
	port := flag.Int("port", 0, "http port (overrides config, default"+fmt.Sprintf(" %d)", defaultPort))
	timeout := flag.Int("timeout", 10, "db connect timeout seconds")
	webdir := flag.String("web", "", "web ui directory (overrides config, default ./web)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	flag.Parse()

	// attempt to load config file (optional)
	var appCfg config.AppConfig
	if *cfgPath != "" {
		logger.Info("config file %s", *cfgPath)
		if c, err := config.LoadFile(*cfgPath); err == nil {
			appCfg = c
		} else {
			logger.Error("error reading config file: %v", err)
		}
	}

	if lvl := cmpOr(*logLevel, appCfg.Log.Level); !logger.SetLevel(lvl) {
		logger.Warn("unknown log level %q, keeping info", lvl)
	}

	// allow CLI overrides
	if *driverFlag != "" && *dsnFlag != "" {
		appCfg.Database = config.DBConfig{Type: *driverFlag, DSN: *dsnFlag, Table: appCfg.Database.Table}
	}
	if *tableFlag != "" {
		appCfg.Database.Table = *tableFlag
	}
	appCfg.Lineage.File = cmpOr(*fileFlag, appCfg.Lineage.File)
	*port = cmpOr(*port, appCfg.Server.Port, defaultPort)
	*webdir = cmpOr(*webdir, appCfg.Server.WebDir, filepath.Join(".", "web"))

	store := session.NewStore()
	if rows, source, err := preload(appCfg, *timeout); err != nil {
		logger.Error("preload lineage: %v", err)
	} else if rows != nil {
		store.SetDefault(rows, source, appCfg.Lineage.InitialTable)
		logger.Info("preloaded %d lineage rows from %s", len(rows), source)
	}

	srvHandler := server.New(store, server.Options{
		Database:   appCfg.Database,
		TimeoutSec: *timeout,
		WebDir:     *webdir,
	}).Handler()

	// HTTP server
	addr := fmt.Sprintf(":%d", *port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      srvHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	logger.Info("listening on %s, serving %s", addr, *webdir)
	logger.Info("registered dialects: %v", db.RegisteredDialects())
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("%v", err)
	}

}

// preload reads the lineage new sessions start with: the configured file if
// any, else the configured database. Neither configured returns nil rows.
func preload(cfg config.AppConfig, timeout int) ([]lineage.RawRow, string, error) {
	if cfg.Lineage.File != "" {
		rows, err := ingest.ReadFile(cfg.Lineage.File)
		return rows, filepath.Base(cfg.Lineage.File), err
	}
	if cfg.Database.Type == "" {
		return nil, "", nil
	}
	driver, dsn, err := config.BuildDriverAndDSN(cfg.Database)
	if err != nil {
		return nil, "", fmt.Errorf("building DSN: %w", err)
	}
	table := cfg.Database.LineageTable()
	rows, err := db.ConnectAndLoad(driver, dsn, table, timeout)
	return rows, driver + ":" + table, err
}
