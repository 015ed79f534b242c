// Package config holds the run configuration for couponcheck.
//
// Every tunable has a default owned by this package. An optional YAML file
// (.couponcheck) and CLI flags may override them, in that order. The match
// threshold is not configurable.
package config
