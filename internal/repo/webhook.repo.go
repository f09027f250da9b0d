package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"order-console/internal/domain"
)

type WebhookRepo interface {
	// ListActiveByClientName returns the active webhooks of every customer carrying clientName.
	ListActiveByClientName(ctx context.Context, clientName string) ([]domain.WebhookSetting, error)
	List(ctx context.Context) ([]domain.WebhookSetting, error)
	FindById(ctx context.Context, id uuid.UUID) (*domain.WebhookSetting, error)
	Create(ctx context.Context, setting *domain.WebhookSetting) error
	Update(ctx context.Context, setting *domain.WebhookSetting) error
	Delete(ctx context.Context, id uuid.UUID) error
	// GetGlobalConfig returns nil when no global templates were saved yet.
	GetGlobalConfig(ctx context.Context) (*domain.MessageTemplates, error)
	SaveGlobalConfig(ctx context.Context, cfg domain.MessageTemplates) error
}

type webhookRepo struct {
	db *sql.DB
}

func NewWebhookRepo(db *sql.DB) WebhookRepo {
	return &webhookRepo{db: db}
}

const webhookSelect = `
	SELECT w.id, w.client_id, w.webhook_url, w.is_active, w.payload_config, w.created_at, w.updated_at,
	       p.id, p.email, p.role, p.client_name
	FROM webhook_settings w
	JOIN profiles p ON p.id = w.client_id`

func scanWebhook(row rowScanner) (*domain.WebhookSetting, error) {
	var (
		w          domain.WebhookSetting
		client     domain.Profile
		payload    []byte
		clientName sql.NullString
	)
	err := row.Scan(
		&w.ID, &w.ClientID, &w.WebhookURL, &w.IsActive, &payload, &w.CreatedAt, &w.UpdatedAt,
		&client.ID, &client.Email, &client.Role, &clientName,
	)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		var cfg domain.MessageTemplates
		if err := json.Unmarshal(payload, &cfg); err != nil {
			return nil, fmt.Errorf("decode payload_config of webhook %s: %w", w.ID, err)
		}
		w.PayloadConfig = &cfg
	}
	client.ClientName = clientName.String
	w.Client = &client
	return &w, nil
}

func (r *webhookRepo) ListActiveByClientName(ctx context.Context, clientName string) ([]domain.WebhookSetting, error) {
	return r.query(ctx,
		webhookSelect+" WHERE p.client_name = $1 AND p.role = $2 AND w.is_active ORDER BY w.created_at",
		clientName, domain.RoleCustomer,
	)
}

func (r *webhookRepo) List(ctx context.Context) ([]domain.WebhookSetting, error) {
	return r.query(ctx, webhookSelect+" WHERE p.role = $1 ORDER BY w.created_at DESC", domain.RoleCustomer)
}

func (r *webhookRepo) FindById(ctx context.Context, id uuid.UUID) (*domain.WebhookSetting, error) {
	w, err := scanWebhook(r.db.QueryRowContext(ctx, webhookSelect+" WHERE w.id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, fmt.Errorf("find webhook %s: %w", id, err)
	}
	return w, nil
}

func (r *webhookRepo) Create(ctx context.Context, w *domain.WebhookSetting) error {
	payload, err := encodeTemplates(w.PayloadConfig)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO webhook_settings (id, client_id, webhook_url, is_active, payload_config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.ClientID, w.WebhookURL, w.IsActive, payload, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook: %w", err)
	}
	return nil
}

func (r *webhookRepo) Update(ctx context.Context, w *domain.WebhookSetting) error {
	payload, err := encodeTemplates(w.PayloadConfig)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE webhook_settings
		SET webhook_url = $1, is_active = $2, payload_config = $3, updated_at = $4
		WHERE id = $5`,
		w.WebhookURL, w.IsActive, payload, w.UpdatedAt, w.ID,
	)
	if err != nil {
		return fmt.Errorf("update webhook %s: %w", w.ID, err)
	}
	return expectOne(res)
}

func (r *webhookRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM webhook_settings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete webhook %s: %w", id, err)
	}
	return expectOne(res)
}

func (r *webhookRepo) GetGlobalConfig(ctx context.Context) (*domain.MessageTemplates, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, "SELECT payload_config FROM global_webhook_config WHERE id = 1").Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read global webhook config: %w", err)
	}
	var cfg domain.MessageTemplates
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return nil, fmt.Errorf("decode global webhook config: %w", err)
	}
	return &cfg, nil
}

func (r *webhookRepo) SaveGlobalConfig(ctx context.Context, cfg domain.MessageTemplates) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode global webhook config: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO global_webhook_config (id, payload_config, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET payload_config = EXCLUDED.payload_config, updated_at = now()`,
		payload,
	)
	if err != nil {
		return fmt.Errorf("save global webhook config: %w", err)
	}
	return nil
}

func (r *webhookRepo) query(ctx context.Context, query string, args ...any) ([]domain.WebhookSetting, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	settings := []domain.WebhookSetting{}
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		settings = append(settings, *w)
	}
	return settings, rows.Err()
}

func encodeTemplates(cfg *domain.MessageTemplates) ([]byte, error) {
	if cfg == nil {
		return nil, nil
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode payload_config: %w", err)
	}
	return payload, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
