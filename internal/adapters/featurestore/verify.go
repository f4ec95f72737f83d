package featurestore

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sagemaker"
	"github.com/aws/aws-sdk-go/service/sagemaker/sagemakeriface"
	"github.com/pkg/errors"
)

// VerifyGroup checks that the feature group exists and is in the Created
// state before any row is attempted.
func VerifyGroup(ctx context.Context, api sagemakeriface.SageMakerAPI, name string) error {
	if name == "" {
		return ErrEmptyFeatureGroup
	}
	out, err := api.DescribeFeatureGroupWithContext(ctx, &sagemaker.DescribeFeatureGroupInput{
		FeatureGroupName: aws.String(name),
	})
	if err != nil {
		return errors.Wrapf(ErrFeatureGroup, "describing %q: %v", name, err)
	}
	if status := aws.StringValue(out.FeatureGroupStatus); status != sagemaker.FeatureGroupStatusCreated {
		return errors.Wrapf(ErrFeatureGroup, "%q is %s", name, status)
	}
	return nil
}
