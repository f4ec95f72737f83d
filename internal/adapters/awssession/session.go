// Package awssession builds the AWS session shared by every adapter of a
// batch. A session is created once per run and reused by all clients.
package awssession

import (
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/pkg/errors"
)

// Option applies a configuration option to the session config.
type Option func(*settings)

type settings struct {
	region      string
	profile     string
	endpoint    string
	timeout     time.Duration
	credentials *credentials.Credentials
}

// WithRegion overrides the default AWS region.
func WithRegion(region string) Option {
	return func(s *settings) { s.region = region }
}

// WithProfile selects a shared credentials profile.
func WithProfile(profile string) Option {
	return func(s *settings) { s.profile = profile }
}

// WithEndpoint overrides the service endpoint, e.g. for a local stand-in.
func WithEndpoint(endpoint string) Option {
	return func(s *settings) { s.endpoint = endpoint }
}

// WithHTTPTimeout bounds each HTTP round trip made by clients of the session.
func WithHTTPTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithStaticCredentials uses fixed credentials instead of the default chain.
func WithStaticCredentials(id, secret, token string) Option {
	return func(s *settings) { s.credentials = credentials.NewStaticCredentials(id, secret, token) }
}

// New creates a session. SDK-level retries are disabled: each call made
// through the session is a single attempt.
func New(opts ...Option) (*session.Session, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	config := aws.NewConfig().WithMaxRetries(0)
	if s.region != "" {
		config = config.WithRegion(s.region)
	}
	if s.endpoint != "" {
		config = config.WithEndpoint(s.endpoint).WithS3ForcePathStyle(true)
	}
	if s.timeout > 0 {
		config = config.WithHTTPClient(&http.Client{Timeout: s.timeout})
	}
	switch {
	case s.credentials != nil:
		config = config.WithCredentials(s.credentials)
	case s.profile != "":
		config = config.WithCredentials(credentials.NewSharedCredentials("", s.profile))
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, errors.Wrap(err, "creating AWS session")
	}
	return sess, nil
}
