// Package config loads gamewire.json (or gamewire.yaml).
//
// # Configuration File Structure
//
//	{
//	  "name": "realm-eu-1",
//	  "server": {
//	    "host": "0.0.0.0",
//	    "port": 7878,
//	    "websocketPath": "/ws",
//	    "metricsPath": "/metrics",
//	    "writeTimeout": "10s"
//	  },
//	  "codec": {
//	    "maxFrameSize": 1048576
//	  },
//	  "limits": {
//	    "BattlePetSpecies": 1500
//	  },
//	  "capture": {
//	    "backend": "s3",
//	    "compression": "zstd",
//	    "record": true,
//	    "dir": "captures",
//	    "s3": {
//	      "bucket": "wire-captures",
//	      "prefix": "realm-eu-1/",
//	      "region": "eu-west-1"
//	    }
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "json"
//	  }
//	}
//
// The same keys work in gamewire.yaml, which is read only when no
// gamewire.json exists.
//
// Missing fields take the defaults in this package. Limits has no
// defaults: a message bounded by a table that is not listed fails to
// decode.
package config
