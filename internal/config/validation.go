package config

import (
	"errors"
	"fmt"
	"os"
)

// Validate checks the configuration for use by any command.
// All problems are reported together so a missing-credentials error names
// every missing variable at once.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	var errs []error

	if os.Getenv("OPENAI_API_KEY") == "" {
		errs = append(errs, fmt.Errorf("%w: set the OPENAI_API_KEY environment variable", ErrMissingAPIKey))
	}

	if c.ModelName == "" {
		errs = append(errs, fmt.Errorf("%w: model_name must not be empty", ErrInvalidModelName))
	}
	if c.EmbedderModel == "" {
		errs = append(errs, fmt.Errorf("%w: embedder_model must not be empty", ErrInvalidEmbedderModel))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("%w: %v is outside [0, 2]", ErrInvalidTemperature, c.Temperature))
	}
	if c.MaxTokens < 1 || c.MaxTokens > 128000 {
		errs = append(errs, fmt.Errorf("%w: %d is outside [1, 128000]", ErrInvalidMaxTokens, c.MaxTokens))
	}
	if c.GradeConcurrency < 1 || c.GradeConcurrency > 64 {
		errs = append(errs, fmt.Errorf("%w: %d is outside [1, 64]", ErrInvalidGradeConcurrency, c.GradeConcurrency))
	}

	if c.PostgresHost == "" {
		errs = append(errs, fmt.Errorf("%w: set DATABASE_URL or postgres_host", ErrInvalidPostgresHost))
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		errs = append(errs, fmt.Errorf("%w: %d is outside [1, 65535]", ErrInvalidPostgresPort, c.PostgresPort))
	}
	if c.PostgresDBName == "" {
		errs = append(errs, fmt.Errorf("%w: set DATABASE_URL or postgres_db_name", ErrInvalidPostgresDBName))
	}

	return errors.Join(errs...)
}
