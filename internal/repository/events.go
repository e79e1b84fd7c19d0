package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/inventory-assistant/backend/internal/models"
)

type AssistantEventRepository struct {
	db *pgxpool.Pool
}

type AssistantEventFilter struct {
	HouseholdID *string
	Event       *string
	Outcome     *string
	Since       *time.Time
}

type DailyCount struct {
	Day   time.Time
	Count int
}

type AssistantUsage struct {
	Total        int
	Success      int
	Failure      int
	Denied       int
	Fallback     int
	EstimatedUSD float64
	ByDay        []DailyCount
}

// NewAssistantEventRepository создает репозиторий журнала ассистента.
func NewAssistantEventRepository(db *pgxpool.Pool) *AssistantEventRepository {
	return &AssistantEventRepository{db: db}
}

// Save сохраняет событие исхода вызова.
func (r *AssistantEventRepository) Save(ctx context.Context, event models.AssistantEvent) error {
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO assistant_events
		 (event, outcome, household_id, error_code, reason, estimated_usd, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.Event,
		event.Outcome,
		event.HouseholdID,
		event.ErrorCode,
		event.Reason,
		event.EstimatedUSD,
		createdAt,
	)
	return err
}

// List возвращает события с фильтрацией, новые первыми.
func (r *AssistantEventRepository) List(ctx context.Context, filter AssistantEventFilter, limit, offset int) ([]models.AssistantEvent, error) {
	where, args := buildEventWhere(filter)

	limitParam := len(args) + 1
	offsetParam := len(args) + 2
	query := fmt.Sprintf(
		"SELECT id, event, outcome, household_id, error_code, reason, estimated_usd::float8, created_at FROM assistant_events%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, limitParam, offsetParam,
	)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.AssistantEvent, 0)
	for rows.Next() {
		var event models.AssistantEvent
		if err := rows.Scan(
			&event.ID,
			&event.Event,
			&event.Outcome,
			&event.HouseholdID,
			&event.ErrorCode,
			&event.Reason,
			&event.EstimatedUSD,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// Count возвращает количество событий по фильтру.
func (r *AssistantEventRepository) Count(ctx context.Context, filter AssistantEventFilter) (int, error) {
	where, args := buildEventWhere(filter)

	var count int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM assistant_events"+where, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Usage возвращает агрегированную статистику за N дней.
func (r *AssistantEventRepository) Usage(ctx context.Context, days int) (AssistantUsage, error) {
	usage := AssistantUsage{}
	if days <= 0 {
		return usage, ErrInvalid
	}

	start := time.Now().UTC().AddDate(0, 0, -days+1).Truncate(24 * time.Hour)

	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE outcome = 'success'),
		        COUNT(*) FILTER (WHERE outcome = 'failure'),
		        COUNT(*) FILTER (WHERE event = 'ai_assistant.denied'),
		        COUNT(*) FILTER (WHERE event = 'ai_assistant.fallback'),
		        COALESCE(SUM(estimated_usd), 0)::float8
		 FROM assistant_events
		 WHERE created_at >= $1`,
		start,
	).Scan(&usage.Total, &usage.Success, &usage.Failure, &usage.Denied, &usage.Fallback, &usage.EstimatedUSD); err != nil {
		return usage, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT date_trunc('day', created_at)::date AS day,
		        COUNT(*)
		 FROM assistant_events
		 WHERE created_at >= $1
		 GROUP BY day
		 ORDER BY day DESC`,
		start,
	)
	if err != nil {
		return usage, err
	}
	defer rows.Close()

	usage.ByDay = make([]DailyCount, 0)
	for rows.Next() {
		var row DailyCount
		if err := rows.Scan(&row.Day, &row.Count); err != nil {
			return usage, err
		}
		usage.ByDay = append(usage.ByDay, row)
	}

	if err := rows.Err(); err != nil {
		return usage, err
	}

	return usage, nil
}

func buildEventWhere(filter AssistantEventFilter) (string, []interface{}) {
	clauses := make([]string, 0)
	args := make([]interface{}, 0)

	if filter.HouseholdID != nil {
		args = append(args, *filter.HouseholdID)
		clauses = append(clauses, fmt.Sprintf("household_id = $%d", len(args)))
	}

	if filter.Event != nil {
		args = append(args, *filter.Event)
		clauses = append(clauses, fmt.Sprintf("event = $%d", len(args)))
	}

	if filter.Outcome != nil {
		args = append(args, *filter.Outcome)
		clauses = append(clauses, fmt.Sprintf("outcome = $%d", len(args)))
	}

	if filter.Since != nil {
		args = append(args, *filter.Since)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}
