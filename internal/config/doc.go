// Package config provides configuration parsing for tableview.
//
// The configuration lives in tableview.json, tableview.toml or
// tableview.yaml; the format is chosen by file extension. Every section is
// optional and missing values fall back to the defaults from New.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "address": ":8080",
//	    "sessionTTL": "30m",
//	    "intentTimeout": "5s"
//	  },
//	  "table": {
//	    "id": "tablename",
//	    "defaultPageSize": 10,
//	    "historyMode": "push"
//	  },
//	  "snapshot": {
//	    "backend": "sql",
//	    "sql": {"driver": "pgx", "dsn": "postgres://localhost/app"}
//	  },
//	  "rows": {"source": "fixture"},
//	  "metrics": {"enabled": true, "path": "/metrics"},
//	  "log": {"level": "debug", "format": "json"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Server.Address)
package config
