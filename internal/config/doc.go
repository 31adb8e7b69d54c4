// Package config defines the TOML configuration document shared by the
// moviola CLI and daemon, along with loading, normalization, and
// validation helpers.
package config
