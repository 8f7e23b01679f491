// Package config provides configuration parsing for urlsync servers.
//
// The configuration is stored in urlsync.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "catalog",
//	  "schema": "./schema.yaml",
//	  "server": {
//	    "host": "localhost",
//	    "port": 7070,
//	    "metricsPath": "/metrics"
//	  },
//	  "query": {
//	    "initial": "page=1",
//	    "separator": ",",
//	    "sort": false
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "metrics": {
//	    "namespace": "urlsync",
//	    "tracing": true
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
