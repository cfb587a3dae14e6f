package s3

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/listgo/blobstore"
)

// CommitStore implements blobstore.Store backed by S3 with DynamoDB for
// atomic snapshot commits. This enables safe concurrent writers: S3 alone
// has no compare-and-swap, so two servers snapshotting the same prefix
// could interleave. The commit store:
//   - writes each blob version to S3 under a versioned key
//   - uses a DynamoDB conditional write to atomically claim the version
//   - serves reads from the highest committed version
//
// Table schema:
//   - Partition key: blob_uri (string) - bucket/prefix/name
//   - Sort key: version (number) - monotonically increasing version
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name listgo-commits \
//	  --attribute-definitions AttributeName=blob_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=blob_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type CommitStore struct {
	s3Store   *Store
	ddbClient DDBClient
	tableName string
	baseURI   string
}

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// ErrConcurrentModification is returned when a concurrent write is detected.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// NewCommitStore creates a new S3+DynamoDB commit store on top of s3Store.
// baseURI should be "s3://bucket/prefix", used as the partition key prefix.
func NewCommitStore(s3Store *Store, ddbClient DDBClient, tableName, baseURI string) *CommitStore {
	return &CommitStore{
		s3Store:   s3Store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

func (s *CommitStore) blobURI(name string) string {
	return path.Join(s.baseURI, name)
}

func versionedName(name string, version int64) string {
	return fmt.Sprintf("%s.v%020d", name, version)
}

// latestVersion returns the highest committed version for name, or 0.
func (s *CommitStore) latestVersion(ctx context.Context, name string) (int64, error) {
	out, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("blob_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.blobURI(name)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, fmt.Errorf("query latest version: %w", err)
	}
	if len(out.Items) == 0 {
		return 0, nil
	}
	attr, ok := out.Items[0]["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("malformed commit row for %s", s.blobURI(name))
	}
	return strconv.ParseInt(attr.Value, 10, 64)
}

// Put writes a new version of the blob and atomically commits it.
// Returns ErrConcurrentModification if another writer claimed the version
// first; the caller may retry, which picks up the new latest version.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	latest, err := s.latestVersion(ctx, name)
	if err != nil {
		return err
	}
	next := latest + 1

	if err := s.s3Store.Put(ctx, versionedName(name, next), data); err != nil {
		return err
	}

	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"blob_uri": &types.AttributeValueMemberS{Value: s.blobURI(name)},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatInt(next, 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(blob_uri) AND attribute_not_exists(version)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Lost the race; the orphaned S3 object is harmless and will be
			// superseded by the winner's next commit.
			return ErrConcurrentModification
		}
		return fmt.Errorf("commit version %d: %w", next, err)
	}
	return nil
}

// Get reads the highest committed version of the blob.
func (s *CommitStore) Get(ctx context.Context, name string) ([]byte, error) {
	latest, err := s.latestVersion(ctx, name)
	if err != nil {
		return nil, err
	}
	if latest == 0 {
		return nil, blobstore.ErrNotFound
	}
	return s.s3Store.Get(ctx, versionedName(name, latest))
}

// Delete removes every committed version of the blob.
func (s *CommitStore) Delete(ctx context.Context, name string) error {
	for {
		latest, err := s.latestVersion(ctx, name)
		if err != nil {
			return err
		}
		if latest == 0 {
			return nil
		}
		if _, err := s.ddbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"blob_uri": &types.AttributeValueMemberS{Value: s.blobURI(name)},
				"version":  &types.AttributeValueMemberN{Value: strconv.FormatInt(latest, 10)},
			},
		}); err != nil {
			return err
		}
		if err := s.s3Store.Delete(ctx, versionedName(name, latest)); err != nil {
			return err
		}
	}
}

// List returns the names of committed blob versions starting with prefix.
// Names carry their .vNNN suffix; use Get to read the latest version of a
// logical name instead.
func (s *CommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.s3Store.List(ctx, prefix)
}
