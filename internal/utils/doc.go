// Package utils exposes reusable helpers consumed across the batch CLI.
//
// It houses the ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, environment variables, and zap logging, plus small
// writer and context helpers shared by the command layer.
package utils
