package storage

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Region:       "us-east-1",
		User:         "minioadmin",
		Password:     "minioadmin",
		BaseEndpoint: "http://127.0.0.1:9000",
		Bucket:       "postbox",
	}
}

// stubClient replaces the AWS constructors for the duration of the test and
// records the options passed to them.
func stubClient(t *testing.T) (region *string, endpoint *string, pathStyle *bool) {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	origGet := presignGetObject
	origDel := deleteObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
		deleteObject = origDel
	})

	region, endpoint, pathStyle = new(string), new(string), new(bool)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		*region = lo.Region
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint != nil {
			*endpoint = *opts.BaseEndpoint
		}
		*pathStyle = opts.UsePathStyle
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}

	return region, endpoint, pathStyle
}

func TestNewKey(t *testing.T) {
	s := NewS3Store(testConfig())
	s.now = func() time.Time { return time.Date(2025, 7, 4, 10, 0, 0, 0, time.UTC) }

	key := s.NewKey("u1")
	assert.Regexp(t, regexp.MustCompile(`^posts/u1/2025/7/4/[0-9a-f-]{36}$`), key)
	assert.NotEqual(t, key, s.NewKey("u1"))
}

func TestPresignPut_Success(t *testing.T) {
	region, endpoint, pathStyle := stubClient(t)

	var gotBucket, gotKey string
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		gotBucket, gotKey = *in.Bucket, *in.Key
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		if po.Expires != PresignExpiry {
			t.Fatalf("expires: got %v", po.Expires)
		}
		return &v4.PresignedHTTPRequest{URL: "https://put.example/" + *in.Key}, nil
	}

	key, url, err := NewS3Store(testConfig()).PresignPut(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "posts/u1/"))

	assert.Equal(t, "us-east-1", *region)
	assert.Equal(t, "http://127.0.0.1:9000", *endpoint)
	assert.True(t, *pathStyle)
	assert.Equal(t, "postbox", gotBucket)
	assert.Equal(t, key, gotKey)
	assert.Equal(t, "https://put.example/"+key, url)
}

func TestPresignPut_Error(t *testing.T) {
	stubClient(t)
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("sign failed")
	}

	_, _, err := NewS3Store(testConfig()).PresignPut(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign failed")
}

func TestPresignPut_ConfigError(t *testing.T) {
	stubClient(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, _, err := NewS3Store(testConfig()).PresignPut(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error loading s3 config")
}

func TestPresignGet(t *testing.T) {
	stubClient(t)
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		if *in.Key == "bad" {
			return nil, errors.New("nope")
		}
		return &v4.PresignedHTTPRequest{URL: "https://get.example/" + *in.Key}, nil
	}

	s := NewS3Store(testConfig())

	url, err := s.PresignGet(context.Background(), "posts/1")
	require.NoError(t, err)
	assert.Equal(t, "https://get.example/posts/1", url)

	_, err = s.PresignGet(context.Background(), "bad")
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	stubClient(t)

	var deleted []string
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) error {
		if *in.Key == "broken" {
			return errors.New("access denied")
		}
		deleted = append(deleted, *in.Bucket+"/"+*in.Key)
		return nil
	}

	s := NewS3Store(testConfig())

	require.NoError(t, s.Remove(context.Background(), "posts/1"))
	require.NoError(t, s.Remove(context.Background(), ""))
	assert.Equal(t, []string{"postbox/posts/1"}, deleted)

	err := s.Remove(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestClient_NoEndpoint(t *testing.T) {
	_, endpoint, pathStyle := stubClient(t)

	cfg := testConfig()
	cfg.BaseEndpoint = ""

	_, err := NewS3Store(cfg).client(context.Background())
	require.NoError(t, err)
	assert.Empty(t, *endpoint)
	assert.False(t, *pathStyle)
}
