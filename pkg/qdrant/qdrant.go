package qdrant

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// defaultGRPCPort is used when the URL carries no explicit port.
const defaultGRPCPort = 6334

type Config struct {
	URL        string `split_words:"true"`
	APIKey     string `split_words:"true"`
	Collection string `split_words:"true" default:"vietnam_travel"`
}

// New dials Qdrant over gRPC. URLs without a scheme are treated as https.
func (c *Config) New() (*qdrant.Client, error) {
	if strings.TrimSpace(c.URL) == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}

	raw := c.URL
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant url: %w", err)
	}

	port := defaultGRPCPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid qdrant port: %w", err)
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   u.Hostname(),
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return client, nil
}
