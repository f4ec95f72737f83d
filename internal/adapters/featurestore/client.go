// Package featurestore delivers feature records to the SageMaker Feature
// Store runtime, one PutRecord call per record.
package featurestore

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sagemakerfeaturestoreruntime"
	"github.com/aws/aws-sdk-go/service/sagemakerfeaturestoreruntime/sagemakerfeaturestoreruntimeiface"
	"github.com/okian/fsingest/internal/domain/model"
	"github.com/okian/fsingest/pkg/logger"
	"github.com/okian/fsingest/pkg/metrics"
)

// Putter delivers one record and reports whether the store accepted it.
type Putter interface {
	Put(ctx context.Context, featureGroup string, rec model.FeatureRecord) model.Outcome
}

// Client implements Putter on the feature store runtime API. It is safe for
// concurrent use and meant to be shared by every worker of a batch.
type Client struct {
	api     sagemakerfeaturestoreruntimeiface.SageMakerFeatureStoreRuntimeAPI
	timeout time.Duration
	logger  logger.Logger
}

// New creates a Client on sess.
func New(sess *session.Session, opts ...Option) *Client {
	return NewWithAPI(sagemakerfeaturestoreruntime.New(sess, aws.NewConfig().WithMaxRetries(0)), opts...)
}

// NewWithAPI creates a Client on an existing runtime API.
func NewWithAPI(api sagemakerfeaturestoreruntimeiface.SageMakerFeatureStoreRuntimeAPI, opts ...Option) *Client {
	c := &Client{
		api:    api,
		logger: logger.Get().Named("featurestore"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Put sends rec to featureGroup in a single round trip. A response other than
// 200 becomes a status rejection; failing to get a response at all becomes a
// transport rejection. The record is sent in its own order and not modified.
func (c *Client) Put(ctx context.Context, featureGroup string, rec model.FeatureRecord) model.Outcome {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	req, _ := c.api.PutRecordRequest(&sagemakerfeaturestoreruntime.PutRecordInput{
		FeatureGroupName: aws.String(featureGroup),
		Record:           ToWire(rec),
	})
	req.SetContext(ctx)
	req.Retryer = client.NoOpRetryer{}

	err := req.Send()
	outcome := classify(req.HTTPResponse, err)
	metrics.RecordPut(outcome.Accepted, outcome.StatusCode, float64(time.Since(start).Milliseconds()))

	if !outcome.Accepted {
		c.logger.Debug(ctx, "put rejected",
			logger.String("feature_group", featureGroup),
			logger.Int("status", outcome.StatusCode),
			logger.String("reason", outcome.Reason),
		)
	}
	return outcome
}

func classify(resp *http.Response, err error) model.Outcome {
	if err != nil {
		if rf, ok := err.(awserr.RequestFailure); ok && rf.StatusCode() != 0 {
			return model.RejectStatus(rf.StatusCode(), rf.Code())
		}
		return model.RejectTransport(err)
	}
	if resp == nil {
		return model.RejectStatus(0, "no response")
	}
	if resp.StatusCode != http.StatusOK {
		return model.RejectStatus(resp.StatusCode, "")
	}
	return model.Accept()
}

// ToWire converts a record to the runtime API's FeatureValue list, keeping
// its order.
func ToWire(rec model.FeatureRecord) []*sagemakerfeaturestoreruntime.FeatureValue {
	out := make([]*sagemakerfeaturestoreruntime.FeatureValue, len(rec))
	for i, f := range rec {
		out[i] = &sagemakerfeaturestoreruntime.FeatureValue{
			FeatureName:   aws.String(f.Name),
			ValueAsString: aws.String(f.Value),
		}
	}
	return out
}
