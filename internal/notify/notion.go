package notify

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/adjovi/momo-tracker/internal/domain"
	"github.com/adjovi/momo-tracker/internal/logger"
)

// NotionService defines the interface for interacting with Notion API.
// This interface enables mocking and testing of Notion operations.
type NotionService interface {
	// CreatePage creates a new page in a Notion database with the given properties.
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)

	// QueryDatabase queries a Notion database with the given filter.
	QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// NotionClient is the concrete implementation of NotionService using the official Notion SDK.
type NotionClient struct {
	client *notionapi.Client
}

// NewNotionClient creates a new NotionClient with the provided API token.
func NewNotionClient(token string) *NotionClient {
	return &NotionClient{
		client: notionapi.NewClient(notionapi.Token(token)),
	}
}

// CreatePage creates a new page in a Notion database with the given properties.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}

	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}

	return page, nil
}

// QueryDatabase queries a Notion database with the given filter.
func (n *NotionClient) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), filter)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase: %w", err)
	}

	return resp, nil
}

// NotionSink mirrors each recorded transaction as a page in a Notion
// database. The Transaction ID property keys idempotency: an id already
// present in the database is skipped, so re-ingesting a backup never
// duplicates pages.
type NotionSink struct {
	service    NotionService
	databaseID string
}

func NewNotionSink(service NotionService, databaseID string) *NotionSink {
	return &NotionSink{service: service, databaseID: databaseID}
}

func (s *NotionSink) Notify(ctx context.Context, tx domain.Transaction) error {
	log := logger.FromContext(ctx)

	exists, err := s.pageExists(ctx, tx.ID)
	if err != nil {
		return fmt.Errorf("failed to check Notion for transaction %s: %w", tx.ID, err)
	}
	if exists {
		log.Debug().Str("transaction_id", tx.ID).Msg("Notion page already exists, skipping")
		return nil
	}

	if _, err := s.service.CreatePage(ctx, s.databaseID, TransactionToNotionProperties(tx)); err != nil {
		return fmt.Errorf("failed to create Notion page for transaction %s: %w", tx.ID, err)
	}

	log.Info().Str("transaction_id", tx.ID).Msg("Created Notion page")
	return nil
}

func (s *NotionSink) pageExists(ctx context.Context, transactionID string) (bool, error) {
	resp, err := s.service.QueryDatabase(ctx, s.databaseID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Transaction ID",
			RichText: &notionapi.TextFilterCondition{
				Equals: transactionID,
			},
		},
		PageSize: 1,
	})
	if err != nil {
		return false, err
	}
	return len(resp.Results) > 0, nil
}

// TransactionToNotionProperties converts a ledger transaction to Notion
// properties for the transactions database.
func TransactionToNotionProperties(tx domain.Transaction) notionapi.Properties {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: fmt.Sprintf("%s - %s", tx.Type.Label(), tx.Counterparty),
					},
				},
			},
		},
		"Transaction ID": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.ID,
					},
				},
			},
		},
		"Type": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: string(tx.Type),
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: tx.Amount,
		},
		"Fee": notionapi.NumberProperty{
			Number: tx.Fee,
		},
		"Balance": notionapi.NumberProperty{
			Number: tx.Balance,
		},
		"Counterparty": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.Counterparty,
					},
				},
			},
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(tx.Date.UTC())
					return &d
				}(),
			},
		},
		"Direction": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: directionLabel(tx.Type),
			},
		},
	}

	if tx.CounterpartyPhone != "" {
		props["Phone"] = notionapi.PhoneNumberProperty{
			PhoneNumber: tx.CounterpartyPhone,
		}
	}
	if tx.Reference != "" {
		props["Reference"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.Reference,
					},
				},
			},
		}
	}

	return props
}

func directionLabel(t domain.TransactionType) string {
	if t.IsIncoming() {
		return "in"
	}
	return "out"
}
