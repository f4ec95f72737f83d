package featurestore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sagemaker"
	"github.com/aws/aws-sdk-go/service/sagemaker/sagemakeriface"
	"github.com/okian/fsingest/internal/adapters/featurestore"
	. "github.com/smartystreets/goconvey/convey"
)

type mockSageMaker struct {
	sagemakeriface.SageMakerAPI
	status string
	err    error
	calls  int
}

func (m *mockSageMaker) DescribeFeatureGroupWithContext(_ aws.Context, in *sagemaker.DescribeFeatureGroupInput, _ ...request.Option) (*sagemaker.DescribeFeatureGroupOutput, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &sagemaker.DescribeFeatureGroupOutput{
		FeatureGroupName:   in.FeatureGroupName,
		FeatureGroupStatus: aws.String(m.status),
	}, nil
}

func TestVerifyGroup(t *testing.T) {
	ctx := context.Background()

	Convey("A created feature group passes", t, func() {
		m := &mockSageMaker{status: sagemaker.FeatureGroupStatusCreated}
		So(featurestore.VerifyGroup(ctx, m, "ratings"), ShouldBeNil)
		So(m.calls, ShouldEqual, 1)
	})

	Convey("A group still being created fails", t, func() {
		m := &mockSageMaker{status: sagemaker.FeatureGroupStatusCreating}
		err := featurestore.VerifyGroup(ctx, m, "ratings")
		So(errors.Is(err, featurestore.ErrFeatureGroup), ShouldBeTrue)
	})

	Convey("A describe failure fails", t, func() {
		m := &mockSageMaker{err: errors.New("not found")}
		err := featurestore.VerifyGroup(ctx, m, "ratings")
		So(errors.Is(err, featurestore.ErrFeatureGroup), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "not found")
	})

	Convey("An empty name fails without a call", t, func() {
		m := &mockSageMaker{}
		So(featurestore.VerifyGroup(ctx, m, ""), ShouldEqual, featurestore.ErrEmptyFeatureGroup)
		So(m.calls, ShouldEqual, 0)
	})
}
