// Package service wires rule sources to the validation engine. It keeps one
// evaluator per form for a configurable time so a form's rules are indexed
// once per load rather than once per request.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "field-validation/internal/common/errors"
	"field-validation/internal/common/logger"
	"field-validation/internal/common/metrics"
	"field-validation/internal/engine/catalog"
	"field-validation/internal/engine/evaluator"
	"field-validation/internal/engine/health"
	"field-validation/internal/engine/rule"
	"field-validation/internal/engine/store"
	"field-validation/internal/models"
	"field-validation/internal/rulesource"
)

type viewCacheEntry struct {
	form      *models.FormDefinition
	evaluator *evaluator.Evaluator
	loadedAt  time.Time
}

type Service struct {
	source  rulesource.Source
	catalog *catalog.Registry
	checker *health.Checker
	logger  logger.Logger
	viewTTL time.Duration

	cache map[string]*viewCacheEntry
	mu    sync.RWMutex
}

func New(source rulesource.Source, reg *catalog.Registry, viewTTL time.Duration, log logger.Logger) *Service {
	return &Service{
		source:  source,
		catalog: reg,
		checker: health.New(reg),
		logger:  log.WithFields(map[string]interface{}{"component": "validation-service"}),
		viewTTL: viewTTL,
		cache:   make(map[string]*viewCacheEntry),
	}
}

// ValidateField evaluates one field. When formID is empty the form owning
// the field is looked up. Unknown forms and fields are valid with no
// message.
func (s *Service) ValidateField(ctx context.Context, formID, fieldID string, value rule.Value, formCtx rule.FormContext) (evaluator.Result, error) {
	entry, err := s.entryForField(ctx, formID, fieldID)
	if err != nil {
		return evaluator.Result{}, err
	}
	if entry == nil {
		return evaluator.Result{IsValid: true, Placeholders: map[string]string{}}, nil
	}
	return entry.evaluator.Evaluate(fieldID, value, formCtx), nil
}

// ValidateDependents re-evaluates the fields whose rules depend on fieldID.
func (s *Service) ValidateDependents(ctx context.Context, formID, fieldID string, formCtx rule.FormContext) (map[string]evaluator.Result, error) {
	entry, err := s.entryForField(ctx, formID, fieldID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return map[string]evaluator.Result{}, nil
	}
	return entry.evaluator.EvaluateDependents(fieldID, formCtx), nil
}

// ConfigHealth runs the configuration health check for formID.
func (s *Service) ConfigHealth(ctx context.Context, formID string) ([]health.Issue, error) {
	entry, err := s.entry(ctx, formID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperrors.NewFormNotFoundError(formID)
	}

	issues := make([]health.Issue, 0)
	for issue := range s.checker.Check(entry.evaluator.View(), entry.form.FieldIDs()) {
		metrics.ConfigHealthIssues.WithLabelValues(string(issue.Severity), issue.Code).Inc()
		issues = append(issues, issue)
	}

	s.logger.Info("config health checked", map[string]interface{}{
		"formId":    formID,
		"issues":    len(issues),
		"hasErrors": health.HasErrors(issues),
	})
	return issues, nil
}

// ValidationTypes lists the registered validation types.
func (s *Service) ValidationTypes() []catalog.Definition {
	return s.catalog.Definitions()
}

// invalidator is implemented by sources that cache definitions themselves.
type invalidator interface {
	Invalidate(ctx context.Context, formID string) error
}

// Invalidate drops the cached view of formID and, when the source keeps its
// own cache, the cached definition too. The next request reloads the form.
func (s *Service) Invalidate(ctx context.Context, formID string) error {
	s.mu.Lock()
	delete(s.cache, formID)
	metrics.ViewsCached.Set(float64(len(s.cache)))
	s.mu.Unlock()

	if inv, ok := s.source.(invalidator); ok {
		if err := inv.Invalidate(ctx, formID); err != nil {
			s.logger.WithError(err).Warn("rule cache invalidation failed", map[string]interface{}{"formId": formID})
			return err
		}
	}
	s.logger.Info("form rules invalidated", map[string]interface{}{"formId": formID})
	return nil
}

// Ready reports whether the rule source is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.source.Ping(ctx)
}

func (s *Service) entryForField(ctx context.Context, formID, fieldID string) (*viewCacheEntry, error) {
	if formID == "" {
		id, err := s.source.FormForField(ctx, fieldID)
		if err != nil {
			if errors.Is(err, rulesource.ErrFieldNotFound) {
				return nil, nil
			}
			return nil, err
		}
		formID = id
	}
	return s.entry(ctx, formID)
}

// entry returns the cached view for formID, loading it on a miss. A nil entry
// with a nil error means the form does not exist.
func (s *Service) entry(ctx context.Context, formID string) (*viewCacheEntry, error) {
	s.mu.RLock()
	if e, ok := s.cache[formID]; ok && time.Since(e.loadedAt) < s.viewTTL {
		s.mu.RUnlock()
		return e, nil
	}
	s.mu.RUnlock()

	form, err := s.source.LoadForm(ctx, formID)
	if err != nil {
		if errors.Is(err, rulesource.ErrFormNotFound) {
			return nil, nil
		}
		s.logger.Error("failed to load form rules", map[string]interface{}{
			"formId": formID,
			"error":  err.Error(),
		})
		return nil, err
	}

	view := store.New(form.Rules)
	e := &viewCacheEntry{
		form:      form,
		evaluator: evaluator.New(view, s.catalog, evaluator.WithLogger(s.logger), evaluator.WithMetrics()),
		loadedAt:  time.Now(),
	}
	if cycles := view.Cycles(); len(cycles) > 0 {
		s.logger.Warn("form has dependency cycles", map[string]interface{}{
			"formId": formID,
			"cycles": len(cycles),
		})
	}

	s.mu.Lock()
	s.cache[formID] = e
	metrics.ViewsCached.Set(float64(len(s.cache)))
	s.mu.Unlock()

	s.logger.Debug("form rules loaded", map[string]interface{}{
		"formId": formID,
		"rules":  view.Len(),
	})
	return e, nil
}
