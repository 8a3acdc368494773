// Package config provides configuration parsing for the deploy board.
//
// The configuration is stored in deployboard.json (or deployboard.yaml /
// deployboard.yml). This package handles loading, saving, validating and
// applying environment overrides.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "addr": ":8080",
//	    "base": "/",
//	    "renderTimeout": "5s"
//	  },
//	  "api": {
//	    "remote": true,
//	    "argonathUrl": "https://argonath.example.com/api/v1",
//	    "teletraanUrl": "https://teletraan.example.com/v1",
//	    "timeout": "10s"
//	  },
//	  "board": {
//	    "pollInterval": "10s",
//	    "buildsLimit": 25
//	  },
//	  "log": {"level": "info"}
//	}
//
// With "remote" false every call is served from the fixture document at
// api.fixture, a local path or an s3://bucket/key URL.
//
// # Environment
//
// ARGONATH_DOMAIN, TELETRAAN_DOMAIN, TELETRAAN_TOKEN and CALL_REMOTE_APIS
// override the matching api fields.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.ApplyEnv(os.Getenv)
package config
