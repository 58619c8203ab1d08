// Package config reads the optional HCL configuration file shared by the
// eventcount and dasfiles tools. Every block and attribute is optional;
// anything left unset falls back to the built-in defaults or command-line
// flags. Expressions are evaluated with an `env` object holding the process
// environment, so values such as "${env.HOME}/metrics.prom" work.
package config
