package sink

import (
	"context"
	"errors"
	"exchangestats/lib/scrapers/bitdegree"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var textComparer = cmp.Comparer(func(a, b bitdegree.Text) bool {
	return a == b
})

type fakeUploader struct {
	bucket string
	key    string
	body   []byte
	err    error
}

func (u *fakeUploader) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if u.err != nil {
		return nil, u.err
	}
	u.bucket = aws.ToString(params.Bucket)
	u.key = aws.ToString(params.Key)
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	u.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3Upload(t *testing.T) {
	ctx := context.Background()
	uploader := &fakeUploader{}
	key := ObjectKey("/exchangestats/", "abc", time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC))
	require.Equal(t, "exchangestats/date=2024-05-01/20240501123000_abc.jsonl", key)

	sink := NewS3(uploader, "bucket", key, EncodeUniform)
	require.NoError(t, sink.Emit(ctx, testRecord("btcturk", "BtcTurk")))
	require.NoError(t, sink.Emit(ctx, testRecord("binance", "Binance")))
	require.Nil(t, uploader.body)

	require.NoError(t, sink.Close(ctx))
	require.Equal(t, "bucket", uploader.bucket)
	require.Equal(t, key, uploader.key)

	records := decodeLines(t, string(uploader.body))
	require.Len(t, records, 2)
	require.Contains(t, records[0], "btcturk")
	require.Contains(t, records[1], "binance")
}

func TestS3UploadError(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("access denied")}
	sink := NewS3(uploader, "bucket", ObjectKey("", "abc", time.Now()), EncodeUniform)
	require.ErrorIs(t, sink.Close(context.Background()), uploader.err)
}
