package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/harborview-tech/fieldops-api/internal/config"
	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// Default retry configuration for connection attempts
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	// Default health check timeout
	defaultHealthCheckTimeout = 5 * time.Second
)

const ticketColumns = `id, entry_type, client, client_key, note,
	rounded_minutes, elapsed_minutes, invoiced_total, calculated_value,
	hardware_description, hardware_sales_price, hardware_quantity,
	sent, invoice_number, created_at`

// Client provides access to the legacy ticket database over MS SQL Server.
// It manages connection pooling and implements TicketStore.
type Client struct {
	db           *sql.DB
	config       *config.LegacyConfig
	logger       *zap.Logger
	queryTimeout time.Duration
}

var _ TicketStore = (*Client)(nil)

// HealthStatus represents the health check result for the legacy connection
type HealthStatus struct {
	Status     string        `json:"status"`
	Latency    time.Duration `json:"latency_ms"`
	Error      string        `json:"error,omitempty"`
	MaxOpen    int           `json:"max_open_connections"`
	Open       int           `json:"open_connections"`
	InUse      int           `json:"in_use"`
	Idle       int           `json:"idle"`
	WaitCount  int64         `json:"wait_count"`
	WaitTimeMs int64         `json:"wait_time_ms"`
}

// NewClient creates a new legacy ticket database client.
// Returns nil if the legacy connection is not enabled or not configured.
// The client establishes a connection pool with retry logic for transient failures.
func NewClient(cfg *config.LegacyConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Legacy ticket database connection disabled")
		return nil, nil
	}

	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("Legacy database enabled but missing credentials, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	logger.Info("Initializing legacy ticket database connection",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
		zap.Int("conn_max_lifetime_seconds", cfg.ConnMaxLifetime),
		zap.Int("query_timeout_seconds", cfg.QueryTimeout),
	)

	connStr, err := buildConnectionString(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	var db *sql.DB
	backoff := defaultInitialBackoff

	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		logger.Info("Attempting legacy database connection",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", defaultMaxRetries),
		)

		db, err = sql.Open("sqlserver", connStr)
		if err != nil {
			logger.Warn("Failed to open legacy database connection",
				zap.Error(err),
				zap.Int("attempt", attempt),
			)
			if attempt < defaultMaxRetries {
				time.Sleep(backoff)
				backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
			}
			continue
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

		ctx, cancel := context.WithTimeout(context.Background(), defaultHealthCheckTimeout)
		err = db.PingContext(ctx)
		cancel()

		if err != nil {
			logger.Warn("Legacy database ping failed",
				zap.Error(err),
				zap.Int("attempt", attempt),
			)
			_ = db.Close()
			if attempt < defaultMaxRetries {
				time.Sleep(backoff)
				backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
			}
			continue
		}

		logger.Info("Legacy database connection established successfully",
			zap.Int("attempts_taken", attempt),
		)

		return &Client{
			db:           db,
			config:       cfg,
			logger:       logger,
			queryTimeout: cfg.QueryTimeoutDuration(),
		}, nil
	}

	return nil, fmt.Errorf("failed to connect to legacy database after %d attempts: %w", defaultMaxRetries, err)
}

// buildConnectionString constructs a SQL Server connection string from the config.
// URL format expected: host:port/database or host:port (uses default database)
func buildConnectionString(cfg *config.LegacyConfig) (string, error) {
	urlParts := strings.SplitN(cfg.URL, "/", 2)
	hostPort := urlParts[0]
	database := ""
	if len(urlParts) > 1 {
		database = urlParts[1]
	}

	hostParts := strings.SplitN(hostPort, ":", 2)
	host := hostParts[0]
	port := "1433" // Default SQL Server port
	if len(hostParts) > 1 {
		port = hostParts[1]
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", host, port),
		RawQuery: query.Encode(),
	}

	return u.String(), nil
}

// Close gracefully closes the legacy database connection.
// Should be called during application shutdown.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}

	c.logger.Info("Closing legacy database connection")

	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close legacy database connection", zap.Error(err))
		return fmt.Errorf("failed to close legacy database connection: %w", err)
	}

	return nil
}

// HealthCheck performs a health check on the legacy database connection.
// Returns detailed status including connection pool statistics.
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if c == nil || c.db == nil {
		return &HealthStatus{
			Status: "disabled",
		}
	}

	start := time.Now()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthCheckTimeout)
		defer cancel()
	}

	err := c.db.PingContext(ctx)
	latency := time.Since(start)

	stats := c.db.Stats()
	status := &HealthStatus{
		Latency:    latency,
		MaxOpen:    stats.MaxOpenConnections,
		Open:       stats.OpenConnections,
		InUse:      stats.InUse,
		Idle:       stats.Idle,
		WaitCount:  stats.WaitCount,
		WaitTimeMs: stats.WaitDuration.Milliseconds(),
	}

	if err != nil {
		c.logger.Warn("Legacy database health check failed",
			zap.Error(err),
			zap.Duration("latency", latency),
		)
		status.Status = "unhealthy"
		status.Error = err.Error()
	} else {
		status.Status = "healthy"
	}

	return status
}

// IsEnabled returns true if the client is initialized and ready for queries.
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

// ListUnsent returns all tickets not yet marked sent, oldest first
func (c *Client) ListUnsent(ctx context.Context) ([]Ticket, error) {
	if c == nil || c.db == nil {
		return nil, fmt.Errorf("legacy client not initialized")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	query := fmt.Sprintf(`SELECT %s FROM dbo.tickets
		WHERE sent = 0 AND COALESCE(entry_type, '') IN ('time', 'hardware')
		ORDER BY created_at ASC, id ASC`, ticketColumns)

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		c.logger.Error("Legacy ticket query failed", zap.Error(err))
		return nil, fmt.Errorf("failed to query unsent tickets: %w", err)
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}

	c.logger.Debug("Legacy unsent tickets loaded",
		zap.Int("count", len(tickets)),
		zap.Duration("duration", time.Since(start)),
	)

	return tickets, nil
}

// GetByID returns one ticket, or nil when it does not exist
func (c *Client) GetByID(ctx context.Context, id int64) (*Ticket, error) {
	if c == nil || c.db == nil {
		return nil, fmt.Errorf("legacy client not initialized")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	query := fmt.Sprintf(`SELECT %s FROM dbo.tickets WHERE id = @p1`, ticketColumns)

	rows, err := c.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket %d: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error reading ticket: %w", err)
		}
		return nil, nil
	}

	return scanTicket(rows)
}

// MarkSent flags a ticket as billed. The invoice number is only written
// when the ticket does not already carry one.
func (c *Client) MarkSent(ctx context.Context, id int64, invoiceNumber string) error {
	if c == nil || c.db == nil {
		return fmt.Errorf("legacy client not initialized")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	query := `UPDATE dbo.tickets
		SET sent = 1,
		    invoice_number = CASE WHEN invoice_number IS NULL OR invoice_number = '' THEN @p2 ELSE invoice_number END
		WHERE id = @p1`

	result, err := c.db.ExecContext(ctx, query, id, invoiceNumber)
	if err != nil {
		c.logger.Error("Failed to mark legacy ticket sent",
			zap.Int64("ticket_id", id),
			zap.Error(err),
		)
		return fmt.Errorf("failed to mark ticket %d sent: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("ticket %d not found", id)
	}

	c.logger.Info("Legacy ticket marked sent",
		zap.Int64("ticket_id", id),
		zap.String("invoice_number", invoiceNumber),
	)

	return nil
}

// scanTicket reads one ticket row. Money columns come back as strings to
// keep amounts in decimals end to end. Minutes prefer the rounded column,
// invoiced totals fall back to the calculated value; the old schema left
// whichever one the ticket editor did not fill as NULL.
func scanTicket(rows *sql.Rows) (*Ticket, error) {
	var (
		t               Ticket
		entryType       sql.NullString
		clientName      sql.NullString
		clientKey       sql.NullString
		note            sql.NullString
		roundedMinutes  sql.NullInt64
		elapsedMinutes  sql.NullInt64
		invoicedTotal   sql.NullString
		calculatedValue sql.NullString
		hardwareDesc    sql.NullString
		hardwarePrice   sql.NullString
		hardwareQty     sql.NullString
		invoiceNumber   sql.NullString
		createdAt       sql.NullTime
	)

	if err := rows.Scan(&t.ID, &entryType, &clientName, &clientKey, &note,
		&roundedMinutes, &elapsedMinutes, &invoicedTotal, &calculatedValue,
		&hardwareDesc, &hardwarePrice, &hardwareQty,
		&t.Sent, &invoiceNumber, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan ticket: %w", err)
	}

	t.EntryType = strings.ToLower(strings.TrimSpace(entryType.String))
	t.ClientName = clientName.String
	t.ClientKey = clientKey.String
	t.Note = note.String
	t.HardwareDescription = hardwareDesc.String
	t.InvoiceNumber = invoiceNumber.String
	if createdAt.Valid {
		t.CreatedAt = createdAt.Time
	}

	if roundedMinutes.Valid {
		t.Minutes = int(roundedMinutes.Int64)
	} else {
		t.Minutes = int(elapsedMinutes.Int64)
	}

	var err error
	if t.InvoicedTotal, err = parseAmount(invoicedTotal); err != nil {
		return nil, fmt.Errorf("ticket %d has invalid invoiced total: %w", t.ID, err)
	}
	if !invoicedTotal.Valid || invoicedTotal.String == "" {
		if t.InvoicedTotal, err = parseAmount(calculatedValue); err != nil {
			return nil, fmt.Errorf("ticket %d has invalid calculated value: %w", t.ID, err)
		}
	}
	if t.HardwareSalesPrice, err = parseAmount(hardwarePrice); err != nil {
		return nil, fmt.Errorf("ticket %d has invalid hardware price: %w", t.ID, err)
	}
	if t.HardwareQuantity, err = parseAmount(hardwareQty); err != nil {
		return nil, fmt.Errorf("ticket %d has invalid hardware quantity: %w", t.ID, err)
	}

	return &t, nil
}

func parseAmount(v sql.NullString) (decimal.Decimal, error) {
	if !v.Valid || v.String == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(v.String)
}
