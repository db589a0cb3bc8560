package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/gophstash/internal/client/client"
	"github.com/google/uuid"
)

// S3Storage implements Storage over the S3-compatible endpoint at
// <backend>/storage/v1/s3. The secret key is the project's anon key and the
// user's access token travels as the session token of every call.
type S3Storage struct {
	client      *s3.Client
	backendURL  string
	bucket      string
	accessKeyID string
	anonKey     string
}

func NewS3Storage(ctx context.Context, opts Options) (*S3Storage, error) {
	if opts.S3AccessKeyID == "" {
		return nil, fmt.Errorf("storage: s3 access key id is required")
	}
	region := opts.S3Region
	if region == "" {
		region = "local"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.S3AccessKeyID, opts.AnonKey, "")),
		config.WithHTTPClient(awshttp.NewBuildableClient().WithTimeout(opts.Timeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := storageBase(opts.BackendURL) + "/s3"
	c := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return &S3Storage{
		client:      c,
		backendURL:  opts.BackendURL,
		bucket:      opts.Bucket,
		accessKeyID: opts.S3AccessKeyID,
		anonKey:     opts.AnonKey,
	}, nil
}

// asUser swaps in credentials carrying the caller's access token.
func (s *S3Storage) asUser(accessToken string) func(*s3.Options) {
	return func(o *s3.Options) {
		o.Credentials = credentials.NewStaticCredentialsProvider(s.accessKeyID, s.anonKey, accessToken)
	}
}

// List returns the direct children of prefix. S3 has no offset, so the first
// opts.Offset keys are fetched and dropped.
func (s *S3Storage) List(ctx context.Context, accessToken, prefix string, opts ListOptions) ([]Object, error) {
	opts = applyDefaults(opts)
	keyPrefix := strings.Trim(prefix, "/")
	if keyPrefix != "" {
		keyPrefix += "/"
	}

	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(keyPrefix),
		Delimiter: aws.String("/"),
		MaxKeys:   aws.Int32(int32(opts.Limit + opts.Offset)),
	}, s.asUser(accessToken))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, translateS3Error(err))
	}

	objects := make([]Object, 0, len(out.Contents))
	for _, c := range out.Contents {
		key := aws.ToString(c.Key)
		o := Object{
			ID:   uuid.NewSHA1(uuid.NameSpaceURL, []byte(s.bucket+"/"+key)).String(),
			Name: strings.TrimPrefix(key, keyPrefix),
			Size: aws.ToInt64(c.Size),
		}
		if c.LastModified != nil {
			o.CreatedAt = *c.LastModified
			o.UpdatedAt = *c.LastModified
		}
		objects = append(objects, o)
	}

	if strings.EqualFold(opts.SortBy.Order, OrderDesc) {
		slices.Reverse(objects)
	}
	if opts.Offset >= len(objects) {
		return []Object{}, nil
	}
	objects = objects[opts.Offset:]
	if len(objects) > opts.Limit {
		objects = objects[:opts.Limit]
	}
	return objects, nil
}

func (s *S3Storage) Upload(ctx context.Context, accessToken, path string, body io.Reader, contentType string, upsert bool) error {
	key := strings.Trim(path, "/")

	if !upsert {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}, s.asUser(accessToken))
		if err == nil {
			return fmt.Errorf("upload %s: %w", path, &client.APIError{Status: http.StatusConflict, Code: "Duplicate", Message: "The resource already exists"})
		}
		if !errors.Is(translateS3Error(err), client.ErrNotFound) {
			return fmt.Errorf("upload %s: %w", path, translateS3Error(err))
		}
	}

	// Signing over plain HTTP needs a seekable body.
	rs, ok := body.(io.ReadSeeker)
	if !ok {
		b, err := io.ReadAll(body)
		if err != nil {
			return fmt.Errorf("upload %s: %w", path, err)
		}
		rs = bytes.NewReader(b)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        rs,
		ContentType: aws.String(contentType),
	}, s.asUser(accessToken))
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, translateS3Error(err))
	}
	return nil
}

func (s *S3Storage) Remove(ctx context.Context, accessToken string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	ids := make([]types.ObjectIdentifier, 0, len(paths))
	for _, p := range paths {
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(strings.Trim(p, "/"))})
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	}, s.asUser(accessToken))
	if err != nil {
		return fmt.Errorf("remove %s: %w", strings.Join(paths, ", "), translateS3Error(err))
	}
	if len(out.Errors) > 0 {
		e := out.Errors[0]
		return fmt.Errorf("remove %s: %s", aws.ToString(e.Key), aws.ToString(e.Message))
	}
	return nil
}

func (s *S3Storage) PublicURL(path string) string {
	return PublicURL(s.backendURL, s.bucket, path)
}

// translateS3Error folds SDK response errors into *client.APIError so both
// drivers fail with the same sentinels.
func translateS3Error(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var re *awshttp.ResponseError
	if !errors.As(err, &re) {
		return fmt.Errorf("%w: %v", client.ErrUnavailable, err)
	}
	apiErr := &client.APIError{Status: re.HTTPStatusCode(), Message: re.Err.Error()}
	var coded interface{ ErrorCode() string }
	if errors.As(err, &coded) {
		apiErr.Code = coded.ErrorCode()
	}
	return apiErr
}
