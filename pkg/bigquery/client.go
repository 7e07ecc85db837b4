package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/angelmondragon/gigmarket-backend/pkg/config"
	"github.com/angelmondragon/gigmarket-backend/pkg/logger"
)

const metadataCheckTimeout = 10 * time.Second

// ledgerColumns must exist on the ledger events table. The analytics worker
// dedupes on event_id and partitions on occurred_at.
var ledgerColumns = []string{"event_id", "fact_type", "occurred_at", "user_id"}

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errDatasetRequired      = errors.New("bigquery dataset is required")
	errTableNameRequired    = errors.New("bigquery table name is required")
	errClientNotInitialized = errors.New("bigquery client not initialized")
)

// Deduped rows carry a stable insert ID so a redelivered ledger event does
// not land twice within BigQuery's streaming dedupe window.
type Deduped interface {
	InsertID() string
}

// Client streams ledger facts into the analytics dataset.
type Client struct {
	client      *bigquery.Client
	dataset     *bigquery.Dataset
	ledgerTable string
}

// NewClient dials BigQuery and verifies the dataset, the ledger events table
// and the columns the worker writes.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	datasetID := strings.TrimSpace(cfg.Dataset)
	if datasetID == "" {
		return nil, errDatasetRequired
	}
	table := strings.TrimSpace(cfg.LedgerEventsTable)
	if table == "" {
		return nil, errTableNameRequired
	}

	bqClient, err := bigquery.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}

	client := &Client{
		client:      bqClient,
		dataset:     bqClient.Dataset(datasetID),
		ledgerTable: table,
	}
	if err := client.Ping(ctx); err != nil {
		_ = bqClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"bq_dataset": datasetID,
			"bq_table":   table,
		}), "bigquery client initialized")
	}
	return client, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	}
	return nil
}

// Ping checks that the dataset and ledger table exist and that the table
// still carries the columns rows are written with.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, metadataCheckTimeout)
	defer cancel()

	if _, err := c.dataset.Metadata(ctx); err != nil {
		return describeLookup("dataset", c.dataset.DatasetID, err)
	}
	meta, err := c.dataset.Table(c.ledgerTable).Metadata(ctx)
	if err != nil {
		return describeLookup("table", c.ledgerTable, err)
	}
	if missing := missingColumns(meta.Schema, ledgerColumns); len(missing) > 0 {
		return fmt.Errorf("table %q is missing columns %s", c.ledgerTable, strings.Join(missing, ", "))
	}
	return nil
}

func describeLookup(kind, name string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%s %q does not exist", kind, name)
	}
	return fmt.Errorf("checking %s %q: %w", kind, name, err)
}

func missingColumns(schema bigquery.Schema, want []string) []string {
	have := make(map[string]bool, len(schema))
	for _, field := range schema {
		have[strings.ToLower(field.Name)] = true
	}
	var missing []string
	for _, name := range want {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// InsertRows streams rows into table. Rows implementing Deduped are sent with
// their insert ID.
func (c *Client) InsertRows(ctx context.Context, table string, rows []any) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return errTableNameRequired
	}
	if len(rows) == 0 {
		return nil
	}
	return c.dataset.Table(table).Inserter().Put(ctx, withInsertIDs(rows))
}

func withInsertIDs(rows []any) []any {
	out := make([]any, len(rows))
	for i, row := range rows {
		if d, ok := row.(Deduped); ok && d.InsertID() != "" {
			out[i] = &bigquery.StructSaver{Struct: row, InsertID: d.InsertID()}
			continue
		}
		out[i] = row
	}
	return out
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
