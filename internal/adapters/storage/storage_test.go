package storage_test

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/okian/fsingest/internal/adapters/storage"
	. "github.com/smartystreets/goconvey/convey"
)

// mockS3 keeps objects in memory, keyed by bucket/key.
type mockS3 struct {
	s3iface.S3API
	objects map[string][]byte
}

func newMockS3() *mockS3 { return &mockS3{objects: map[string][]byte{}} }

func (m *mockS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	b, ok := m.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (m *mockS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[*in.Bucket+"/"+*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func TestLocal(t *testing.T) {
	ctx := context.Background()

	Convey("Given a local store", t, func() {
		store := storage.New(nil)
		path := filepath.Join(t.TempDir(), "data.csv")

		Convey("Written contents read back", func() {
			So(store.Write(ctx, path, []byte("a,b\n")), ShouldBeNil)
			got, err := store.Read(ctx, path)
			So(err, ShouldBeNil)
			So(string(got), ShouldEqual, "a,b\n")
		})

		Convey("A missing file is ErrNotFound", func() {
			_, err := store.Read(ctx, filepath.Join(t.TempDir(), "missing.csv"))
			So(err, ShouldEqual, storage.ErrNotFound)
		})

		Convey("S3 locations need a client", func() {
			_, err := store.Read(ctx, "s3://bucket/key.csv")
			So(err, ShouldEqual, storage.ErrNoS3Client)
		})
	})
}

func TestS3(t *testing.T) {
	ctx := context.Background()

	Convey("Given an S3 backed store", t, func() {
		m := newMockS3()
		store := storage.New(m)

		Convey("Written objects land under bucket and key", func() {
			So(store.Write(ctx, "s3://bucket/out/processed.csv", []byte("x")), ShouldBeNil)
			So(string(m.objects["bucket/out/processed.csv"]), ShouldEqual, "x")

			got, err := store.Read(ctx, "s3://bucket/out/processed.csv")
			So(err, ShouldBeNil)
			So(string(got), ShouldEqual, "x")
		})

		Convey("A missing key is ErrNotFound", func() {
			_, err := store.Read(ctx, "s3://bucket/nope.csv")
			So(err, ShouldEqual, storage.ErrNotFound)
		})

		Convey("A URL without a key is rejected", func() {
			_, err := store.Read(ctx, "s3://bucket")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSplitS3(t *testing.T) {
	Convey("SplitS3 separates bucket and key", t, func() {
		bucket, key, err := storage.SplitS3("s3://my-bucket/a/b/c.csv")
		So(err, ShouldBeNil)
		So(bucket, ShouldEqual, "my-bucket")
		So(key, ShouldEqual, "a/b/c.csv")
	})
}
