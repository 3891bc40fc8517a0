// Package storage implements the row and blob stores on DynamoDB and S3.
//
// Rows live in a single table: PK is "<tenant>#<entityType>", SK the
// entity's row key. Optimistic concurrency uses an opaque Version attribute
// rotated on every write and checked with a condition expression; failed
// conditions surface as the domain sentinels. The comma-joined encodings of
// order lists and contributor sets exist only inside this package.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/ignite/newsletter-builder/internal/config"
	"github.com/ignite/newsletter-builder/internal/domain"
)

// Entity type discriminators for the partition key.
const (
	kindArticle    = "ARTICLE"
	kindNewsletter = "NEWSLETTER"
	kindEvent      = "EVENT"
	kindUser       = "USER"
	kindRecipient  = "RECIPIENT"
)

// Store is the AWS-backed persistence layer. It satisfies the repository
// interfaces of the content, roster, publish and calendar services plus the
// image and site blob stores.
type Store struct {
	db           *dynamodb.Client
	s3Client     *s3.Client
	presign      *s3.PresignClient
	table        string
	photosBucket string
	publicBucket string
}

// New connects to DynamoDB and S3 using the configured region and profile.
func New(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if profile := cfg.GetAWSProfile(); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	s3Client := s3.NewFromConfig(awsCfg)
	return &Store{
		db:           dynamodb.NewFromConfig(awsCfg),
		s3Client:     s3Client,
		presign:      s3.NewPresignClient(s3Client),
		table:        cfg.TablePrefix + "-content",
		photosBucket: cfg.PhotosBucket,
		publicBucket: cfg.PublicBucket,
	}, nil
}

// partition builds the PK for a tenant's entities of one kind.
func partition(tenant, kind string) string {
	return tenant + "#" + kind
}

// newVersion mints an opaque version token.
func newVersion() string {
	return uuid.New().String()
}

func nowStamp() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func keyOf(pk, sk string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"PK": &ddbtypes.AttributeValueMemberS{Value: pk},
		"SK": &ddbtypes.AttributeValueMemberS{Value: sk},
	}
}

// versionCondition builds the condition for a conditional replace or
// delete. An empty expectedVersion only requires the row to exist.
func versionCondition(expectedVersion string) (string, map[string]ddbtypes.AttributeValue) {
	if expectedVersion == "" {
		return "attribute_exists(PK)", nil
	}
	return "Version = :expected", map[string]ddbtypes.AttributeValue{
		":expected": &ddbtypes.AttributeValueMemberS{Value: expectedVersion},
	}
}

const notExistsCondition = "attribute_not_exists(PK)"

func isConditionalCheckFailed(err error) bool {
	var ccf *ddbtypes.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// mapWriteError translates a conditional-write failure into the domain
// sentinel for the operation that was attempted.
func mapWriteError(err error, onConditionFail error) error {
	if err == nil {
		return nil
	}
	if isConditionalCheckFailed(err) {
		return onConditionFail
	}
	var canceled *ddbtypes.TransactionCanceledException
	if errors.As(err, &canceled) {
		for _, reason := range canceled.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return onConditionFail
			}
		}
	}
	return err
}

func ensureFound(err error, item map[string]ddbtypes.AttributeValue) error {
	if err != nil {
		return fmt.Errorf("reading row: %w", err)
	}
	if item == nil {
		return domain.ErrNotFound
	}
	return nil
}

// today returns the current UTC date in row-key form.
func today() string {
	return time.Now().UTC().Format("2006-01-02")
}
