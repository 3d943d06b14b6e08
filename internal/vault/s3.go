package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"punch-go/internal/config"
	"punch-go/internal/punch"
)

// versionMetaKey is the S3 user-metadata key holding a metadata item's version.
const versionMetaKey = "punch-version"

// S3Client is the subset of *s3.Client the vault uses.
type S3Client interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Vault stores exports and metadata as objects in a bucket:
//
//	<prefix>exports/<name>
//	<prefix>metadata/<deviceID>/<name>   (version in object metadata)
type S3Vault struct {
	name     string
	bucket   string
	prefix   string
	client   S3Client
	uploader *manager.Uploader
}

// NewS3Vault builds an S3Vault from config. Static credentials are used when
// configured, otherwise the default AWS credential chain.
func NewS3Vault(ctx context.Context, cfg config.VaultConfig) (*S3Vault, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 vault requires s3_bucket to be set")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3VaultWithClient(cfg.Name, cfg.S3Bucket, cfg.S3Prefix, client), nil
}

// NewS3VaultWithClient creates an S3Vault on an existing client.
func NewS3VaultWithClient(name, bucket, prefix string, client S3Client) *S3Vault {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Vault{
		name:     name,
		bucket:   bucket,
		prefix:   prefix,
		client:   client,
		uploader: manager.NewUploader(client),
	}
}

func (v *S3Vault) exportKey(name string) string {
	return v.prefix + path.Join("exports", name)
}

func (v *S3Vault) metadataKey(deviceID, name string) string {
	return v.prefix + path.Join("metadata", deviceID, name)
}

func (v *S3Vault) PutExport(name string, r io.Reader, size int64) error {
	if err := validateName("export", name); err != nil {
		return err
	}
	return v.put(v.exportKey(name), r, size, nil)
}

func (v *S3Vault) GetExport(name string, w io.Writer) error {
	if err := validateName("export", name); err != nil {
		return err
	}
	return v.get(v.exportKey(name), w, fmt.Sprintf("export %q", name))
}

func (v *S3Vault) ListExports() ([]string, error) {
	ctx := context.Background()
	prefix := v.exportKey("") + "/"

	var names []string
	p := s3.NewListObjectsV2Paginator(v.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(v.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing exports: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name != "" && !strings.Contains(name, "/") {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names, nil
}

func (v *S3Vault) PutMetadata(deviceID string, name string, r io.Reader, size int64, version int64) error {
	if err := validateName("metadata", name); err != nil {
		return err
	}
	if err := validateName("device", deviceID); err != nil {
		return err
	}
	meta := map[string]string{versionMetaKey: strconv.FormatInt(version, 10)}
	return v.put(v.metadataKey(deviceID, name), r, size, meta)
}

func (v *S3Vault) GetMetadata(deviceID string, name string, w io.Writer) error {
	return v.get(v.metadataKey(deviceID, name), w, fmt.Sprintf("metadata %q for device %s", name, deviceID))
}

// GetMetadataVersion returns 0 if the object does not exist.
func (v *S3Vault) GetMetadataVersion(deviceID string, name string) (int64, error) {
	out, err := v.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.metadataKey(deviceID, name)),
	})
	if isNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading metadata version: %w", err)
	}

	for k, val := range out.Metadata {
		if strings.EqualFold(k, versionMetaKey) {
			version, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("parsing version: %w", err)
			}
			return version, nil
		}
	}
	return 0, nil
}

// ValidateSetup checks that the bucket exists and is reachable.
func (v *S3Vault) ValidateSetup() error {
	_, err := v.client.HeadBucket(context.Background(), &s3.HeadBucketInput{Bucket: aws.String(v.bucket)})
	if err != nil {
		return fmt.Errorf("s3 bucket %s not accessible: %w", v.bucket, err)
	}
	return nil
}

func (v *S3Vault) put(key string, r io.Reader, size int64, meta map[string]string) error {
	_, err := v.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket:   aws.String(v.bucket),
		Key:      aws.String(key),
		Body:     &sizedReader{r: r, size: size},
		Metadata: meta,
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

func (v *S3Vault) get(key string, w io.Writer, what string) error {
	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(key),
	})
	if isNotFound(err) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("downloading %s: %w", key, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}

// sizedReader fails the read, and with it the upload, when r does not hold
// exactly size bytes.
type sizedReader struct {
	r       io.Reader
	size, n int64
}

func (s *sizedReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.n += int64(n)
	if s.n > s.size {
		return n, fmt.Errorf("size mismatch: expected %d bytes, got more", s.size)
	}
	if err == io.EOF && s.n != s.size {
		return n, fmt.Errorf("size mismatch: expected %d bytes, got %d", s.size, s.n)
	}
	return n, err
}

var _ punch.Vault = (*S3Vault)(nil)
