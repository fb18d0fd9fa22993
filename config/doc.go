// Package config loads and validates the YAML application configuration.
// Each configured feed pairs one static schedule with its optional
// realtime URLs; bus and metro networks are just separate feed entries.
package config
