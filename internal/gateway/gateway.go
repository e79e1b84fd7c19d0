package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"example.com/inventory-assistant/backend/internal/assistant"
)

const (
	messageDisabled       = "AI assistant is disabled"
	messageBudgetExceeded = "AI budget exceeded, try again later"
	messageUnavailable    = "AI assistant is temporarily unavailable"
	messageCancelled      = "request was cancelled"
)

// Policy задает параметры допуска явно, без чтения окружения процесса.
type Policy struct {
	Enabled     bool
	Environment string
	Costs       CostPolicy
}

// Gateway решает, как ответить на вопрос: отказать по политике,
// вызвать удаленную функцию или локальный движок.
type Gateway struct {
	policy   Policy
	spend    SpendSource
	prereqs  PrerequisiteResolver
	remote   Dispatcher
	fallback assistant.Answerer
	events   EventSink
	logger   *slog.Logger
	now      func() time.Time
}

// New собирает шлюз из его зависимостей.
func New(policy Policy, spend SpendSource, prereqs PrerequisiteResolver, remote Dispatcher, fallback assistant.Answerer, events EventSink, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if events == nil {
		events = NewLogSink(logger)
	}
	if policy.Costs.Limits == nil {
		policy.Costs = DefaultCostPolicy()
	}

	return &Gateway{
		policy:   policy,
		spend:    spend,
		prereqs:  prereqs,
		remote:   remote,
		fallback: fallback,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// Ask отвечает на вопрос и всегда возвращает ровно один корректный результат.
func (g *Gateway) Ask(ctx context.Context, householdID string, input assistant.Input) (result assistant.Result) {
	stage := EventDenied
	var estimatedUSD float64

	defer func() {
		if recovered := recover(); recovered != nil {
			g.logger.Error("ai assistant panic recovered", slog.String("household_id", householdID), slog.String("panic", fmt.Sprint(recovered)))
			result = assistant.Failed(assistant.CodeProviderUnavailable, messageUnavailable)
			g.record(ctx, resultEvent(stage, householdID, result, estimatedUSD))
		}
	}()

	if !g.policy.Enabled {
		return g.deny(ctx, householdID, assistant.CodeDisabled, messageDisabled)
	}

	spend := g.spend.Spend(ctx)
	env := ResolveEnvironment(g.policy.Environment)
	if check := g.policy.Costs.Evaluate(env, spend.EstimatedRequestUSD, spend.ProjectedMonthlyUSD); !check.Allowed {
		return g.deny(ctx, householdID, assistant.CodeBudgetExceeded, messageBudgetExceeded)
	}

	stage = EventFallback
	estimatedUSD = spend.EstimatedRequestUSD

	target, ok := g.prereqs.Resolve(ctx).Target()
	if !ok {
		return g.answerLocally(ctx, householdID, input, estimatedUSD)
	}

	outcome := g.dispatch(ctx, target, householdID, input.Question)
	if !outcome.OK {
		event := Event{
			Name:        EventRemote,
			Outcome:     OutcomeFailure,
			HouseholdID: householdID,
			Reason:      outcome.Reason,
		}
		// Отмененный запрос не переходит на локальный движок и не учитывает стоимость.
		if ctx.Err() != nil {
			event.ErrorCode = assistant.CodeProviderUnavailable
			g.record(ctx, event)
			return assistant.Failed(assistant.CodeProviderUnavailable, messageCancelled)
		}
		g.record(ctx, event)
		return g.answerLocally(ctx, householdID, input, estimatedUSD)
	}

	remoteResult := normalize(outcome.Result)
	g.record(ctx, resultEvent(EventRemote, householdID, remoteResult, estimatedUSD))
	return remoteResult
}

// dispatch превращает панику удаленного вызова в обычный отказ, после которого работает fallback.
func (g *Gateway) dispatch(ctx context.Context, target RemoteTarget, householdID, question string) (outcome RemoteOutcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			g.logger.Error("remote dispatch panic recovered", slog.String("household_id", householdID), slog.String("panic", fmt.Sprint(recovered)))
			outcome = failedOutcome("remote dispatch panic: %v", recovered)
		}
	}()
	return g.remote.Dispatch(ctx, target, householdID, question)
}

func (g *Gateway) deny(ctx context.Context, householdID string, code assistant.ErrorCode, message string) assistant.Result {
	result := assistant.Failed(code, message)
	g.record(ctx, resultEvent(EventDenied, householdID, result, 0))
	return result
}

// answerLocally вызывает локальный движок. Оценка стоимости пишется
// только в итоговое событие, чтобы один вызов учитывался один раз.
func (g *Gateway) answerLocally(ctx context.Context, householdID string, input assistant.Input, estimatedUSD float64) assistant.Result {
	result := normalize(g.fallback.Ask(ctx, householdID, input))
	g.record(ctx, resultEvent(EventFallback, householdID, result, estimatedUSD))
	return result
}

// record не дает сбою sink'а повлиять на результат вызова.
func (g *Gateway) record(ctx context.Context, event Event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			g.logger.Error("event sink panic recovered", slog.String("event", event.Name), slog.String("panic", fmt.Sprint(recovered)))
		}
	}()

	event.Timestamp = g.now().UTC()
	g.events.Record(ctx, event)
}

func resultEvent(name, householdID string, result assistant.Result, estimatedUSD float64) Event {
	event := Event{
		Name:         name,
		Outcome:      OutcomeSuccess,
		HouseholdID:  householdID,
		EstimatedUSD: estimatedUSD,
	}
	if failure, ok := result.Failure(); ok {
		event.Outcome = OutcomeFailure
		event.ErrorCode = failure.ErrorCode
	}
	return event
}

// normalize заменяет результат без варианта на provider_unavailable.
func normalize(result assistant.Result) assistant.Result {
	if !result.Valid() {
		return assistant.Failed(assistant.CodeProviderUnavailable, messageUnavailable)
	}
	return result
}
