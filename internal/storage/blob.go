package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ignite/newsletter-builder/internal/domain"
	"github.com/ignite/newsletter-builder/internal/service/publish"
)

// issueListName is the public issue index object at the tenant root.
const issueListName = "list.json"

// photoKey is the blob key of one article image in the photos bucket.
func photoKey(tenant string, key domain.ArticleKey, imageName string) string {
	return tenant + "/" + key.String() + "/" + imageName
}

// photoPrefix is the key prefix of all of one article's images.
func photoPrefix(tenant string, key domain.ArticleKey) string {
	return tenant + "/" + key.String() + "/"
}

// pageKey is the blob key of one rendered page in the public bucket.
func pageKey(tenant, date, name string) string {
	return tenant + "/" + date + "/" + name
}

// Exists reports whether an article image is present.
func (s *Store) Exists(ctx context.Context, tenant string, key domain.ArticleKey, imageName string) (bool, error) {
	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.photosBucket),
		Key:    aws.String(photoKey(tenant, key, imageName)),
	})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, fmt.Errorf("checking image %s: %w", imageName, err)
	}
	return true, nil
}

// Upload stores an article image.
func (s *Store) Upload(ctx context.Context, tenant string, key domain.ArticleKey, imageName, contentType string, body io.Reader) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.photosBucket),
		Key:         aws.String(photoKey(tenant, key, imageName)),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("uploading image %s: %w", imageName, err)
	}
	return nil
}

// Delete removes one article image if present.
func (s *Store) Delete(ctx context.Context, tenant string, key domain.ArticleKey, imageName string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.photosBucket),
		Key:    aws.String(photoKey(tenant, key, imageName)),
	})
	if err != nil {
		return fmt.Errorf("deleting image %s: %w", imageName, err)
	}
	return nil
}

// DeleteAll removes every image under an article's namespace.
func (s *Store) DeleteAll(ctx context.Context, tenant string, key domain.ArticleKey) error {
	keys, err := s.listPhotoKeys(ctx, tenant, key)
	if err != nil {
		return err
	}
	for _, k := range keys {
		_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.photosBucket),
			Key:    aws.String(k),
		})
		if err != nil {
			return fmt.Errorf("deleting image %s: %w", k, err)
		}
	}
	return nil
}

// Relocate moves an article's images to a new namespace, copy before delete,
// so an interruption leaves orphans under the old key rather than losing
// blobs.
func (s *Store) Relocate(ctx context.Context, tenant string, oldKey, newKey domain.ArticleKey) error {
	keys, err := s.listPhotoKeys(ctx, tenant, oldKey)
	if err != nil {
		return err
	}
	oldPrefix := photoPrefix(tenant, oldKey)
	newPrefix := photoPrefix(tenant, newKey)
	for _, k := range keys {
		dest := newPrefix + strings.TrimPrefix(k, oldPrefix)
		_, err := s.s3Client.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     aws.String(s.photosBucket),
			CopySource: aws.String(s.photosBucket + "/" + k),
			Key:        aws.String(dest),
		})
		if err != nil {
			return fmt.Errorf("copying image %s: %w", k, err)
		}
		_, err = s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.photosBucket),
			Key:    aws.String(k),
		})
		if err != nil {
			return fmt.Errorf("removing relocated image %s: %w", k, err)
		}
	}
	return nil
}

// PublishApproved copies the named images into the public bucket under
// positional render names, "<shortName>-<n><ext>", in section order.
func (s *Store) PublishApproved(ctx context.Context, tenant string, key domain.ArticleKey, imageOrder []string) error {
	for i, name := range imageOrder {
		dest := pageKey(tenant, key.Date, fmt.Sprintf("%s-%d%s", key.ShortName, i+1, path.Ext(name)))
		_, err := s.s3Client.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:     aws.String(s.publicBucket),
			CopySource: aws.String(s.photosBucket + "/" + photoKey(tenant, key, name)),
			Key:        aws.String(dest),
		})
		if err != nil {
			return fmt.Errorf("publishing image %s: %w", name, err)
		}
	}
	return nil
}

// SignedURL returns a presigned read URL for one article image.
func (s *Store) SignedURL(ctx context.Context, tenant string, key domain.ArticleKey, imageName string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.photosBucket),
		Key:    aws.String(photoKey(tenant, key, imageName)),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("signing URL for %s: %w", imageName, err)
	}
	return req.URL, nil
}

func (s *Store) listPhotoKeys(ctx context.Context, tenant string, key domain.ArticleKey) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.photosBucket),
		Prefix: aws.String(photoPrefix(tenant, key)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing images: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, *obj.Key)
		}
	}
	return keys, nil
}

// PutPage writes one rendered page of an issue to the public bucket.
func (s *Store) PutPage(ctx context.Context, tenant, date, name, contentType string, body []byte) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.publicBucket),
		Key:         aws.String(pageKey(tenant, date, name)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("writing page %s: %w", name, err)
	}
	return nil
}

// GetPage reads back a rendered page.
func (s *Store) GetPage(ctx context.Context, tenant, date, name string) ([]byte, error) {
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.publicBucket),
		Key:    aws.String(pageKey(tenant, date, name)),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading page %s: %w", name, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading page %s: %w", name, err)
	}
	return data, nil
}

// GetIssueList reads the tenant's public issue index. A tenant that has
// never published gets an empty list.
func (s *Store) GetIssueList(ctx context.Context, tenant string) ([]publish.IssueListEntry, error) {
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.publicBucket),
		Key:    aws.String(tenant + "/" + issueListName),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading issue index: %w", err)
	}
	defer out.Body.Close()
	var entries []publish.IssueListEntry
	if err := json.NewDecoder(out.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding issue index: %w", err)
	}
	return entries, nil
}

// PutIssueList replaces the tenant's public issue index.
func (s *Store) PutIssueList(ctx context.Context, tenant string, entries []publish.IssueListEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding issue index: %w", err)
	}
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.publicBucket),
		Key:         aws.String(tenant + "/" + issueListName),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("writing issue index: %w", err)
	}
	return nil
}
