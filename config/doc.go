// Package config loads the kittiesd configuration.
//
// Sources are layered: built-in defaults, then an optional YAML file, then KITTIES_* environment
// variables. The result is validated before it is returned.
package config
