package engine

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taxbridge/internal/calculator"
	"github.com/smallbiznis/taxbridge/internal/checkout"
	synclogdomain "github.com/smallbiznis/taxbridge/internal/synclog/domain"
	taxjarapi "github.com/smallbiznis/taxbridge/internal/taxjar"
	taxruledomain "github.com/smallbiznis/taxbridge/internal/taxrule/domain"
	"github.com/smallbiznis/taxbridge/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Registry *calculator.Registry
	Rules    taxruledomain.Repository
	Logs     synclogdomain.Recorder
	Metrics  *telemetry.Metrics `optional:"true"`
}

// Engine replaces the platform's sales tax figures with amounts from the
// external calculators, one batched call per tax rule group.
type Engine struct {
	db       *gorm.DB
	log      *zap.Logger
	resolver *Resolver
	rules    taxruledomain.Repository
	logs     synclogdomain.Recorder
	metrics  *telemetry.Metrics
	tracer   trace.Tracer
}

func New(p Params) *Engine {
	return &Engine{
		db:       p.DB,
		log:      p.Log.Named("engine"),
		resolver: NewResolver(p.Registry),
		rules:    p.Rules,
		logs:     p.Logs,
		metrics:  p.Metrics,
		tracer:   otel.Tracer("taxbridge/engine"),
	}
}

// Process runs one checkout calculation pass over the cart. It mutates cart
// in place and reads pre-mutation baselines from original. Nothing raised
// here may abort the surrounding checkout: every failure degrades to "keep
// the platform's own tax figures" for the affected group.
func (e *Engine) Process(ctx context.Context, cart, original *checkout.Cart, channelID snowflake.ID, behavior checkout.Behavior) {
	ctx, span := e.tracer.Start(ctx, "engine.Process",
		trace.WithAttributes(attribute.String("channel_id", channelID.String())))
	defer span.End()

	if behavior.SkipExternalTax || cart == nil {
		return
	}

	groups := GroupLineItems(cart)
	if len(groups) == 0 {
		return
	}

	rules, providers, err := e.prefetch(ctx, groups)
	if err != nil {
		e.log.Warn("reference prefetch failed, keeping platform tax",
			zap.String("cart_token", cart.Token),
			zap.Error(err),
		)
		return
	}

	for _, taxRuleID := range sortedKeys(groups) {
		items := groups[taxRuleID]

		calc, ok := e.resolver.Resolve(taxRuleID, rules, providers)
		if !ok {
			e.metrics.IncResolutionMiss()
			e.log.Debug("no calculator resolved", zap.String("tax_rule_id", taxRuleID))
			continue
		}

		start := time.Now()
		resp, err := calc.Calculate(ctx, channelID.String(), items, original)
		elapsed := time.Since(start)

		if err != nil {
			e.metrics.ObserveCalculatorCall(calc.Name(), "error", elapsed)
			e.recordCall(ctx, channelID, taxRuleID, synclogdomain.StatusError, err)
			e.log.Warn("calculator call failed",
				zap.String("tax_rule_id", taxRuleID),
				zap.String("calculator", calc.Name()),
				zap.Error(err),
			)
			continue
		}

		e.metrics.ObserveCalculatorCall(calc.Name(), "success", elapsed)
		e.recordCall(ctx, channelID, taxRuleID, synclogdomain.StatusSuccess, nil)

		if resp.Rate != nil {
			BroadcastRate(cart, *resp.Rate)
		}
		e.metrics.AddReconciledItems(Reconcile(resp, cart, original))
	}
}

// prefetch loads all referenced tax rules, then all providers those rules
// point at. Two queries total, ids deduplicated, regardless of cart size.
func (e *Engine) prefetch(ctx context.Context, groups map[string][]calculator.RequestItem) (map[string]*taxruledomain.TaxRule, map[string]*taxruledomain.TaxProvider, error) {
	ruleIDs := make([]snowflake.ID, 0, len(groups))
	for taxRuleID := range groups {
		id, err := snowflake.ParseString(taxRuleID)
		if err != nil || id == 0 {
			// malformed reference: the group will miss resolution later
			continue
		}
		ruleIDs = append(ruleIDs, id)
	}

	ruleRecords, err := e.rules.FindRulesByIDs(ctx, e.db, dedupe(ruleIDs))
	if err != nil {
		return nil, nil, err
	}

	rules := make(map[string]*taxruledomain.TaxRule, len(ruleRecords))
	providerIDs := make([]snowflake.ID, 0, len(ruleRecords))
	for _, rule := range ruleRecords {
		if rule == nil {
			continue
		}
		rules[rule.ID.String()] = rule
		if rule.ProviderID != nil {
			providerIDs = append(providerIDs, *rule.ProviderID)
		}
	}

	providerRecords, err := e.rules.FindProvidersByIDs(ctx, e.db, dedupe(providerIDs))
	if err != nil {
		return nil, nil, err
	}

	providers := make(map[string]*taxruledomain.TaxProvider, len(providerRecords))
	for _, provider := range providerRecords {
		if provider == nil {
			continue
		}
		providers[provider.ID.String()] = provider
	}

	return rules, providers, nil
}

func (e *Engine) recordCall(ctx context.Context, channelID snowflake.ID, taxRuleID, status string, callErr error) {
	entry := synclogdomain.SyncLog{
		ChannelID:   channelID,
		Kind:        synclogdomain.KindTaxCalculation,
		ReferenceID: taxRuleID,
		Status:      status,
	}
	if callErr != nil {
		entry.Message = callErr.Error()
		var apiErr *taxjarapi.APIError
		if errors.As(callErr, &apiErr) {
			entry.ResponseCode = apiErr.StatusCode
		}
	}
	e.logs.Record(ctx, entry)
}

func sortedKeys(groups map[string][]calculator.RequestItem) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func dedupe(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
