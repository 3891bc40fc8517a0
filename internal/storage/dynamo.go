package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ignite/newsletter-builder/internal/domain"
	"github.com/ignite/newsletter-builder/internal/service/roster"
)

// articleItem is the stored form of a domain.Article. Content is a JSON
// blob; contributors are comma-joined. Both encodings stay inside this
// package.
type articleItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	Title        string `dynamodbav:"Title"`
	Content      string `dynamodbav:"Content,omitempty"`
	Contributors string `dynamodbav:"Contributors,omitempty"`
	Owner        string `dynamodbav:"Owner"`
	IsSubmitted  bool   `dynamodbav:"IsSubmitted"`
	IsApproved   bool   `dynamodbav:"IsApproved"`
	Version      string `dynamodbav:"Version"`
	UpdatedAt    string `dynamodbav:"UpdatedAt"`
}

func articleToItem(a *domain.Article) (*articleItem, error) {
	item := &articleItem{
		PK:           partition(a.Tenant, kindArticle),
		SK:           a.Key.String(),
		Title:        a.Title,
		Contributors: domain.JoinOrder(a.Contributors),
		Owner:        a.Owner,
		IsSubmitted:  a.IsSubmitted,
		IsApproved:   a.IsApproved,
		Version:      a.Version,
		UpdatedAt:    a.UpdatedAt.Format(time.RFC3339Nano),
	}
	if a.Content != nil {
		data, err := json.Marshal(a.Content)
		if err != nil {
			return nil, fmt.Errorf("encoding article content: %w", err)
		}
		item.Content = string(data)
	}
	return item, nil
}

func (item *articleItem) toDomain(tenant string) (*domain.Article, error) {
	key, err := domain.ParseArticleKey(item.SK)
	if err != nil {
		return nil, err
	}
	a := &domain.Article{
		Tenant:       tenant,
		Key:          key,
		Title:        item.Title,
		Contributors: domain.SplitOrder(item.Contributors),
		Owner:        item.Owner,
		IsSubmitted:  item.IsSubmitted,
		IsApproved:   item.IsApproved,
		Version:      item.Version,
	}
	if item.Content != "" {
		var content domain.ArticleContent
		if err := json.Unmarshal([]byte(item.Content), &content); err != nil {
			return nil, fmt.Errorf("decoding article content %s: %w", item.SK, err)
		}
		a.Content = &content
	}
	if item.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, item.UpdatedAt); err == nil {
			a.UpdatedAt = t
		}
	}
	return a, nil
}

type newsletterItem struct {
	PK            string `dynamodbav:"PK"`
	SK            string `dynamodbav:"SK"`
	Deadline      string `dynamodbav:"Deadline,omitempty"`
	ArticleOrder  string `dynamodbav:"ArticleOrder,omitempty"`
	CoverPhoto    string `dynamodbav:"CoverPhoto,omitempty"`
	Description   string `dynamodbav:"Description,omitempty"`
	LastPublished string `dynamodbav:"LastPublished,omitempty"`
	IsSent        bool   `dynamodbav:"IsSent"`
	Version       string `dynamodbav:"Version"`
	UpdatedAt     string `dynamodbav:"UpdatedAt"`
}

func newsletterToItem(n *domain.Newsletter) *newsletterItem {
	item := &newsletterItem{
		PK:           partition(n.Tenant, kindNewsletter),
		SK:           n.Date,
		Deadline:     n.Deadline,
		ArticleOrder: domain.JoinOrder(n.ArticleOrder),
		CoverPhoto:   n.CoverPhoto,
		Description:  n.Description,
		IsSent:       n.IsSent,
		Version:      n.Version,
		UpdatedAt:    n.UpdatedAt.Format(time.RFC3339Nano),
	}
	if n.LastPublished != nil {
		item.LastPublished = n.LastPublished.Format(time.RFC3339Nano)
	}
	return item
}

func (item *newsletterItem) toDomain(tenant string) *domain.Newsletter {
	n := &domain.Newsletter{
		Tenant:       tenant,
		Date:         item.SK,
		Deadline:     item.Deadline,
		ArticleOrder: domain.SplitOrder(item.ArticleOrder),
		CoverPhoto:   item.CoverPhoto,
		Description:  item.Description,
		IsSent:       item.IsSent,
		Version:      item.Version,
	}
	if item.LastPublished != "" {
		if t, err := time.Parse(time.RFC3339Nano, item.LastPublished); err == nil {
			n.LastPublished = &t
		}
	}
	if item.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, item.UpdatedAt); err == nil {
			n.UpdatedAt = t
		}
	}
	return n
}

type eventItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	Owner      string `dynamodbav:"Owner"`
	IsApproved bool   `dynamodbav:"IsApproved"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

type userItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	IsEditor    bool   `dynamodbav:"IsEditor"`
	FirstName   string `dynamodbav:"FirstName,omitempty"`
	DisplayName string `dynamodbav:"DisplayName,omitempty"`
	UpdatedAt   string `dynamodbav:"UpdatedAt"`
}

type recipientItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
}

// GetArticle implements content.Repository.
func (s *Store) GetArticle(ctx context.Context, tenant string, key domain.ArticleKey) (*domain.Article, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       keyOf(partition(tenant, kindArticle), key.String()),
	})
	if err := ensureFound(err, itemOrNil(out)); err != nil {
		return nil, err
	}
	var item articleItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshaling article: %w", err)
	}
	return item.toDomain(tenant)
}

// ListArticles returns one issue's articles, or all upcoming articles when
// date is empty.
func (s *Store) ListArticles(ctx context.Context, tenant, date string) ([]domain.Article, error) {
	in := &dynamodb.QueryInput{
		TableName: aws.String(s.table),
	}
	if date != "" {
		in.KeyConditionExpression = aws.String("PK = :pk AND begins_with(SK, :prefix)")
		in.ExpressionAttributeValues = map[string]ddbtypes.AttributeValue{
			":pk":     &ddbtypes.AttributeValueMemberS{Value: partition(tenant, kindArticle)},
			":prefix": &ddbtypes.AttributeValueMemberS{Value: date + "_"},
		}
	} else {
		in.KeyConditionExpression = aws.String("PK = :pk AND SK >= :from")
		in.ExpressionAttributeValues = map[string]ddbtypes.AttributeValue{
			":pk":   &ddbtypes.AttributeValueMemberS{Value: partition(tenant, kindArticle)},
			":from": &ddbtypes.AttributeValueMemberS{Value: today() + "_"},
		}
	}

	var articles []domain.Article
	paginator := dynamodb.NewQueryPaginator(s.db, in)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("querying articles: %w", err)
		}
		for _, raw := range page.Items {
			var item articleItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("unmarshaling article: %w", err)
			}
			a, err := item.toDomain(tenant)
			if err != nil {
				return nil, err
			}
			articles = append(articles, *a)
		}
	}
	return articles, nil
}

// CreateArticle inserts a new article row.
func (s *Store) CreateArticle(ctx context.Context, a *domain.Article) error {
	a.Version = newVersion()
	a.UpdatedAt = nowStamp()
	item, err := articleToItem(a)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshaling article: %w", err)
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String(notExistsCondition),
	})
	return mapWriteError(err, domain.ErrAlreadyExists)
}

// UpdateArticle replaces an article row, conditioned on expectedVersion.
func (s *Store) UpdateArticle(ctx context.Context, a *domain.Article, expectedVersion string) error {
	a.Version = newVersion()
	a.UpdatedAt = nowStamp()
	item, err := articleToItem(a)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshaling article: %w", err)
	}
	cond, values := versionCondition(expectedVersion)
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.table),
		Item:                      av,
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeValues: values,
	})
	return mapWriteError(err, domain.ErrVersionConflict)
}

// DeleteArticle removes an article row, conditionally when expectedVersion
// is set.
func (s *Store) DeleteArticle(ctx context.Context, tenant string, key domain.ArticleKey, expectedVersion string) error {
	cond, values := versionCondition(expectedVersion)
	_, err := s.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(s.table),
		Key:                       keyOf(partition(tenant, kindArticle), key.String()),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeValues: values,
	})
	if expectedVersion == "" {
		return mapWriteError(err, domain.ErrNotFound)
	}
	return mapWriteError(err, domain.ErrVersionConflict)
}

// GetNewsletter implements content.Repository.
func (s *Store) GetNewsletter(ctx context.Context, tenant, date string) (*domain.Newsletter, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       keyOf(partition(tenant, kindNewsletter), date),
	})
	if err := ensureFound(err, itemOrNil(out)); err != nil {
		return nil, err
	}
	var item newsletterItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshaling newsletter: %w", err)
	}
	return item.toDomain(tenant), nil
}

// ListNewsletters returns issues dated today or later.
func (s *Store) ListNewsletters(ctx context.Context, tenant string) ([]domain.Newsletter, error) {
	out, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk AND SK >= :from"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk":   &ddbtypes.AttributeValueMemberS{Value: partition(tenant, kindNewsletter)},
			":from": &ddbtypes.AttributeValueMemberS{Value: today()},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying newsletters: %w", err)
	}
	newsletters := make([]domain.Newsletter, 0, len(out.Items))
	for _, raw := range out.Items {
		var item newsletterItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshaling newsletter: %w", err)
		}
		newsletters = append(newsletters, *item.toDomain(tenant))
	}
	return newsletters, nil
}

// CreateNewsletter inserts a new issue row.
func (s *Store) CreateNewsletter(ctx context.Context, n *domain.Newsletter) error {
	n.Version = newVersion()
	n.UpdatedAt = nowStamp()
	av, err := attributevalue.MarshalMap(newsletterToItem(n))
	if err != nil {
		return fmt.Errorf("marshaling newsletter: %w", err)
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String(notExistsCondition),
	})
	return mapWriteError(err, domain.ErrAlreadyExists)
}

// UpdateNewsletter replaces an issue row, conditioned on expectedVersion.
func (s *Store) UpdateNewsletter(ctx context.Context, n *domain.Newsletter, expectedVersion string) error {
	n.Version = newVersion()
	n.UpdatedAt = nowStamp()
	av, err := attributevalue.MarshalMap(newsletterToItem(n))
	if err != nil {
		return fmt.Errorf("marshaling newsletter: %w", err)
	}
	cond, values := versionCondition(expectedVersion)
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.table),
		Item:                      av,
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeValues: values,
	})
	return mapWriteError(err, domain.ErrVersionConflict)
}

// DeleteNewsletter removes an issue row.
func (s *Store) DeleteNewsletter(ctx context.Context, tenant, date string) error {
	_, err := s.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.table),
		Key:                 keyOf(partition(tenant, kindNewsletter), date),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	return mapWriteError(err, domain.ErrNotFound)
}

// MoveArticle relocates an article between issues in two transactions: one
// on the article partition, then one on the newsletter partition. Each is
// all-or-nothing; a crash between them leaves the article moved and the
// order lists stale, which the next order validation flags.
func (s *Store) MoveArticle(ctx context.Context, tenant string, oldKey domain.ArticleKey, moved *domain.Article, source, dest *domain.Newsletter) error {
	oldVersion := moved.Version
	moved.Version = newVersion()
	moved.UpdatedAt = nowStamp()
	movedItem, err := articleToItem(moved)
	if err != nil {
		return err
	}
	movedAV, err := attributevalue.MarshalMap(movedItem)
	if err != nil {
		return fmt.Errorf("marshaling moved article: %w", err)
	}

	_, err = s.db.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []ddbtypes.TransactWriteItem{
			{Put: &ddbtypes.Put{
				TableName:           aws.String(s.table),
				Item:                movedAV,
				ConditionExpression: aws.String(notExistsCondition),
			}},
			{Delete: &ddbtypes.Delete{
				TableName:           aws.String(s.table),
				Key:                 keyOf(partition(tenant, kindArticle), oldKey.String()),
				ConditionExpression: aws.String("Version = :expected"),
				ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
					":expected": &ddbtypes.AttributeValueMemberS{Value: oldVersion},
				},
			}},
		},
	})
	if err != nil {
		return mapMoveArticleError(err)
	}

	sourceVersion, destVersion := source.Version, dest.Version
	source.Version = newVersion()
	source.UpdatedAt = nowStamp()
	dest.Version = newVersion()
	dest.UpdatedAt = nowStamp()
	sourceAV, err := attributevalue.MarshalMap(newsletterToItem(source))
	if err != nil {
		return fmt.Errorf("marshaling source newsletter: %w", err)
	}
	destAV, err := attributevalue.MarshalMap(newsletterToItem(dest))
	if err != nil {
		return fmt.Errorf("marshaling destination newsletter: %w", err)
	}

	_, err = s.db.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []ddbtypes.TransactWriteItem{
			{Put: &ddbtypes.Put{
				TableName:           aws.String(s.table),
				Item:                sourceAV,
				ConditionExpression: aws.String("Version = :expected"),
				ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
					":expected": &ddbtypes.AttributeValueMemberS{Value: sourceVersion},
				},
			}},
			{Put: &ddbtypes.Put{
				TableName:           aws.String(s.table),
				Item:                destAV,
				ConditionExpression: aws.String("Version = :expected"),
				ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
					":expected": &ddbtypes.AttributeValueMemberS{Value: destVersion},
				},
			}},
		},
	})
	return mapWriteError(err, domain.ErrVersionConflict)
}

// mapMoveArticleError distinguishes the two failure modes of the article
// phase: the insert losing to an existing row, or the delete losing to a
// concurrent edit.
func mapMoveArticleError(err error) error {
	var canceled *ddbtypes.TransactionCanceledException
	if errors.As(err, &canceled) {
		for i, reason := range canceled.CancellationReasons {
			if reason.Code == nil || *reason.Code != "ConditionalCheckFailed" {
				continue
			}
			if i == 0 {
				return domain.ErrAlreadyExists
			}
			return domain.ErrVersionConflict
		}
	}
	return err
}

// GetEvent implements calendar.Repository.
func (s *Store) GetEvent(ctx context.Context, tenant string, key domain.EventKey) (*domain.Event, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       keyOf(partition(tenant, kindEvent), key.String()),
	})
	if err := ensureFound(err, itemOrNil(out)); err != nil {
		return nil, err
	}
	var item eventItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshaling event: %w", err)
	}
	return eventToDomain(tenant, &item)
}

// ListEvents returns events starting in [from, to].
func (s *Store) ListEvents(ctx context.Context, tenant, from, to string) ([]domain.Event, error) {
	// SK sorts by start date first, so a key range covers the window.
	// "~" sorts after any date_end_title suffix.
	out, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk AND SK BETWEEN :from AND :to"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk":   &ddbtypes.AttributeValueMemberS{Value: partition(tenant, kindEvent)},
			":from": &ddbtypes.AttributeValueMemberS{Value: from},
			":to":   &ddbtypes.AttributeValueMemberS{Value: to + "~"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	events := make([]domain.Event, 0, len(out.Items))
	for _, raw := range out.Items {
		var item eventItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshaling event: %w", err)
		}
		e, err := eventToDomain(tenant, &item)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, nil
}

func eventToDomain(tenant string, item *eventItem) (*domain.Event, error) {
	key, err := domain.ParseEventKey(item.SK)
	if err != nil {
		return nil, err
	}
	e := &domain.Event{Tenant: tenant, Key: key, Owner: item.Owner, IsApproved: item.IsApproved}
	if item.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, item.UpdatedAt); err == nil {
			e.UpdatedAt = t
		}
	}
	return e, nil
}

// CreateEvent inserts a new event row.
func (s *Store) CreateEvent(ctx context.Context, e *domain.Event) error {
	e.UpdatedAt = nowStamp()
	av, err := attributevalue.MarshalMap(&eventItem{
		PK:         partition(e.Tenant, kindEvent),
		SK:         e.Key.String(),
		Owner:      e.Owner,
		IsApproved: e.IsApproved,
		UpdatedAt:  e.UpdatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String(notExistsCondition),
	})
	return mapWriteError(err, domain.ErrAlreadyExists)
}

// UpdateEvent replaces an event row unconditionally.
func (s *Store) UpdateEvent(ctx context.Context, e *domain.Event) error {
	e.UpdatedAt = nowStamp()
	av, err := attributevalue.MarshalMap(&eventItem{
		PK:         partition(e.Tenant, kindEvent),
		SK:         e.Key.String(),
		Owner:      e.Owner,
		IsApproved: e.IsApproved,
		UpdatedAt:  e.UpdatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	return err
}

// DeleteEvent removes an event row if present.
func (s *Store) DeleteEvent(ctx context.Context, tenant string, key domain.EventKey) error {
	_, err := s.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       keyOf(partition(tenant, kindEvent), key.String()),
	})
	return err
}

// GetUser implements content.Repository and roster.Repository.
func (s *Store) GetUser(ctx context.Context, tenant, username string) (*domain.User, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       keyOf(partition(tenant, kindUser), username),
	})
	if err := ensureFound(err, itemOrNil(out)); err != nil {
		return nil, err
	}
	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshaling user: %w", err)
	}
	return userToDomain(tenant, &item), nil
}

// ListUsers returns the tenant's user roster.
func (s *Store) ListUsers(ctx context.Context, tenant string) ([]domain.User, error) {
	var users []domain.User
	paginator := dynamodb.NewQueryPaginator(s.db, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk": &ddbtypes.AttributeValueMemberS{Value: partition(tenant, kindUser)},
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("querying users: %w", err)
		}
		for _, raw := range page.Items {
			var item userItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("unmarshaling user: %w", err)
			}
			users = append(users, *userToDomain(tenant, &item))
		}
	}
	return users, nil
}

func userToDomain(tenant string, item *userItem) *domain.User {
	u := &domain.User{
		Tenant:      tenant,
		Username:    item.SK,
		IsEditor:    item.IsEditor,
		FirstName:   item.FirstName,
		DisplayName: item.DisplayName,
	}
	if item.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, item.UpdatedAt); err == nil {
			u.UpdatedAt = t
		}
	}
	return u
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = nowStamp()
	av, err := attributevalue.MarshalMap(userToItem(u))
	if err != nil {
		return fmt.Errorf("marshaling user: %w", err)
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String(notExistsCondition),
	})
	return mapWriteError(err, domain.ErrAlreadyExists)
}

// DeleteUser removes a user row.
func (s *Store) DeleteUser(ctx context.Context, tenant, username string) error {
	_, err := s.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.table),
		Key:                 keyOf(partition(tenant, kindUser), username),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	return mapWriteError(err, domain.ErrNotFound)
}

func userToItem(u *domain.User) *userItem {
	return &userItem{
		PK:          partition(u.Tenant, kindUser),
		SK:          u.Username,
		IsEditor:    u.IsEditor,
		FirstName:   u.FirstName,
		DisplayName: u.DisplayName,
		UpdatedAt:   u.UpdatedAt.Format(time.RFC3339Nano),
	}
}

// ApplyUserBatch commits one roster reconciliation chunk atomically.
func (s *Store) ApplyUserBatch(ctx context.Context, tenant string, removals []string, additions []domain.User) error {
	items := make([]ddbtypes.TransactWriteItem, 0, len(removals)+len(additions))
	for _, name := range removals {
		items = append(items, ddbtypes.TransactWriteItem{Delete: &ddbtypes.Delete{
			TableName: aws.String(s.table),
			Key:       keyOf(partition(tenant, kindUser), name),
		}})
	}
	for i := range additions {
		u := additions[i]
		u.Tenant = tenant
		u.UpdatedAt = nowStamp()
		av, err := attributevalue.MarshalMap(userToItem(&u))
		if err != nil {
			return fmt.Errorf("marshaling user %s: %w", u.Username, err)
		}
		items = append(items, ddbtypes.TransactWriteItem{Put: &ddbtypes.Put{
			TableName: aws.String(s.table),
			Item:      av,
		}})
	}
	return s.transactBatch(ctx, items)
}

// ListRecipients returns the tenant's recipient set.
func (s *Store) ListRecipients(ctx context.Context, tenant string) ([]domain.Recipient, error) {
	var recipients []domain.Recipient
	paginator := dynamodb.NewQueryPaginator(s.db, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk": &ddbtypes.AttributeValueMemberS{Value: partition(tenant, kindRecipient)},
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("querying recipients: %w", err)
		}
		for _, raw := range page.Items {
			var item recipientItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("unmarshaling recipient: %w", err)
			}
			recipients = append(recipients, domain.Recipient{Tenant: tenant, Email: item.SK})
		}
	}
	return recipients, nil
}

// ApplyRecipientBatch commits one recipient reconciliation chunk atomically,
// removals ahead of additions.
func (s *Store) ApplyRecipientBatch(ctx context.Context, tenant string, b roster.Batch) error {
	items := make([]ddbtypes.TransactWriteItem, 0, len(b.Removals)+len(b.Additions))
	for _, email := range b.Removals {
		items = append(items, ddbtypes.TransactWriteItem{Delete: &ddbtypes.Delete{
			TableName: aws.String(s.table),
			Key:       keyOf(partition(tenant, kindRecipient), email),
		}})
	}
	for _, email := range b.Additions {
		av, err := attributevalue.MarshalMap(&recipientItem{
			PK: partition(tenant, kindRecipient),
			SK: email,
		})
		if err != nil {
			return fmt.Errorf("marshaling recipient: %w", err)
		}
		items = append(items, ddbtypes.TransactWriteItem{Put: &ddbtypes.Put{
			TableName: aws.String(s.table),
			Item:      av,
		}})
	}
	return s.transactBatch(ctx, items)
}

func (s *Store) transactBatch(ctx context.Context, items []ddbtypes.TransactWriteItem) error {
	if len(items) == 0 {
		return nil
	}
	if len(items) > roster.MaxBatchOps {
		return fmt.Errorf("batch of %d exceeds the %d-operation transaction limit", len(items), roster.MaxBatchOps)
	}
	_, err := s.db.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

func itemOrNil(out *dynamodb.GetItemOutput) map[string]ddbtypes.AttributeValue {
	if out == nil {
		return nil
	}
	return out.Item
}
