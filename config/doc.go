// Package config handles application configuration loading and management.
//
// Configuration is stored in ~/.batchrunner/config.json and includes the
// default parallelism bound, the queue poll interval, and the duplicate
// script policy.
package config
