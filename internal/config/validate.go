package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	base := strings.TrimSpace(c.Generation.BaseURL)
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("generation.base_url must be an absolute URL (got %q)", c.Generation.BaseURL)
	}

	if c.Generation.ReadTimeout <= 0 {
		return fmt.Errorf("generation.read_timeout must be > 0 (got %v)", c.Generation.ReadTimeout)
	}
	if c.Generation.GenerateTimeout < c.Generation.ReadTimeout {
		return fmt.Errorf("generation.generate_timeout must be >= read_timeout (got %v < %v)",
			c.Generation.GenerateTimeout, c.Generation.ReadTimeout)
	}

	if c.Review.PageIncrement <= 0 {
		return fmt.Errorf("review.page_increment must be > 0 (got %d)", c.Review.PageIncrement)
	}
	if c.Review.DefaultBatchSize <= 0 {
		return fmt.Errorf("review.default_batch_size must be > 0 (got %d)", c.Review.DefaultBatchSize)
	}

	return nil
}
