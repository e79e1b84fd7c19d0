package gateway

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"
)

type Environment string

const (
	EnvironmentProduction  Environment = "production"
	EnvironmentStaging     Environment = "staging"
	EnvironmentDevelopment Environment = "development"
)

// ResolveEnvironment нормализует имя окружения деплоя.
// Неизвестные значения трактуются как development.
func ResolveEnvironment(raw string) Environment {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return EnvironmentProduction
	case "staging", "stage", "preview":
		return EnvironmentStaging
	default:
		return EnvironmentDevelopment
	}
}

type BudgetLimits struct {
	MaxRequestUSD   float64
	MonthlyLimitUSD float64
}

type BudgetCheck struct {
	Allowed bool
}

// CostPolicy задает лимиты расходов для каждого окружения.
type CostPolicy struct {
	Limits map[Environment]BudgetLimits
}

// DefaultCostPolicy возвращает лимиты по умолчанию.
func DefaultCostPolicy() CostPolicy {
	return CostPolicy{
		Limits: map[Environment]BudgetLimits{
			EnvironmentProduction:  {MaxRequestUSD: 0.05, MonthlyLimitUSD: 25},
			EnvironmentStaging:     {MaxRequestUSD: 0.05, MonthlyLimitUSD: 5},
			EnvironmentDevelopment: {MaxRequestUSD: 0.05, MonthlyLimitUSD: 1},
		},
	}
}

// WithOverrides заменяет ненулевыми значениями лимиты указанного окружения.
func (p CostPolicy) WithOverrides(env Environment, maxRequestUSD, monthlyLimitUSD float64) CostPolicy {
	limits := make(map[Environment]BudgetLimits, len(p.Limits)+1)
	for key, value := range p.Limits {
		limits[key] = value
	}

	current := limits[env]
	if maxRequestUSD > 0 {
		current.MaxRequestUSD = maxRequestUSD
	}
	if monthlyLimitUSD > 0 {
		current.MonthlyLimitUSD = monthlyLimitUSD
	}
	limits[env] = current

	return CostPolicy{Limits: limits}
}

// Evaluate решает, допускается ли запрос. Чистая функция без ввода-вывода.
func (p CostPolicy) Evaluate(env Environment, estimatedRequestUSD, projectedMonthlyUSD float64) BudgetCheck {
	if !validAmount(estimatedRequestUSD) || !validAmount(projectedMonthlyUSD) {
		return BudgetCheck{Allowed: false}
	}

	limits, ok := p.Limits[env]
	if !ok {
		return BudgetCheck{Allowed: false}
	}

	if estimatedRequestUSD > limits.MaxRequestUSD {
		return BudgetCheck{Allowed: false}
	}

	return BudgetCheck{Allowed: projectedMonthlyUSD+estimatedRequestUSD <= limits.MonthlyLimitUSD}
}

// EvaluateBudget применяет политику по умолчанию.
func EvaluateBudget(env Environment, estimatedRequestUSD, projectedMonthlyUSD float64) BudgetCheck {
	return DefaultCostPolicy().Evaluate(env, estimatedRequestUSD, projectedMonthlyUSD)
}

func validAmount(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0) && value >= 0
}

// Spend описывает оценку стоимости запроса и прогноз расходов за месяц.
type Spend struct {
	EstimatedRequestUSD float64
	ProjectedMonthlyUSD float64
}

// SpendSource отдает актуальную оценку расходов на каждый вызов.
type SpendSource interface {
	Spend(ctx context.Context) Spend
}

// StaticSpend берет значения из конфигурации.
type StaticSpend struct {
	EstimatedRequestUSD float64
	ProjectedMonthlyUSD float64
}

func (s StaticSpend) Spend(context.Context) Spend {
	return Spend{EstimatedRequestUSD: s.EstimatedRequestUSD, ProjectedMonthlyUSD: s.ProjectedMonthlyUSD}
}

// MonthToDateReader читает фактические расходы из внешнего журнала.
type MonthToDateReader interface {
	MonthToDateUSD(ctx context.Context, since time.Time) (float64, error)
}

// LedgerSpend дополняет конфигурацию расходами из журнала: прогноз
// берется как максимум из настроенного значения и суммы с начала месяца.
type LedgerSpend struct {
	ledger MonthToDateReader
	static StaticSpend
	logger *slog.Logger
	now    func() time.Time
}

// NewLedgerSpend создает источник расходов на базе журнала.
func NewLedgerSpend(ledger MonthToDateReader, static StaticSpend, logger *slog.Logger) *LedgerSpend {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerSpend{ledger: ledger, static: static, logger: logger, now: time.Now}
}

func (s *LedgerSpend) Spend(ctx context.Context) Spend {
	spend := s.static.Spend(ctx)

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	monthToDate, err := s.ledger.MonthToDateUSD(ctx, monthStart)
	if err != nil {
		s.logger.Warn("ai ledger read failed, using configured projection", slog.String("error", err.Error()))
		return spend
	}

	if monthToDate > spend.ProjectedMonthlyUSD {
		spend.ProjectedMonthlyUSD = monthToDate
	}
	return spend
}
