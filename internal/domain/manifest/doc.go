// Package manifest loads declarative service records at start-up.
//
// A manifest is YAML, TOML or JSON (chosen by file extension) and lists
// static services plus configuration defaults for the ServiceConfiguration
// service:
//
//	services:
//	  - api: http://webinos.org/api/sensors
//	    displayName: Accelerometer
//	    description: 3-axis accelerometer
//	    metadata:
//	      rate: 50
//	configuration:
//	  theme: dark
//
// Nothing is persisted; the manifest is re-read on every start.
package manifest
