package profilesync

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/taxbridge/internal/config"
	customerdomain "github.com/smallbiznis/taxbridge/internal/customer/domain"
	"github.com/smallbiznis/taxbridge/internal/events"
	synclogdomain "github.com/smallbiznis/taxbridge/internal/synclog/domain"
	taxjarapi "github.com/smallbiznis/taxbridge/internal/taxjar"
	"github.com/smallbiznis/taxbridge/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Exempt regions are state-scoped; the country is fixed by the upstream
// integration.
const exemptRegionCountry = "US"

const lockTTL = 30 * time.Second

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Customers customerdomain.Repository
	Client    *taxjarapi.Client
	Channels  *config.ChannelConfigHolder
	Locks     *Locker `optional:"true"`
	Logs      synclogdomain.Recorder
	Metrics   *telemetry.Metrics `optional:"true"`
}

// Syncer mirrors customer exemption profiles to the external tax service.
// One external id per customer, forever: once cached in custom fields it is
// reused for every later update and never regenerated.
type Syncer struct {
	db        *gorm.DB
	log       *zap.Logger
	customers customerdomain.Repository
	client    *taxjarapi.Client
	channels  *config.ChannelConfigHolder
	locks     *Locker
	logs      synclogdomain.Recorder
	metrics   *telemetry.Metrics
	tracer    trace.Tracer
}

func New(p Params) *Syncer {
	return &Syncer{
		db:        p.DB,
		log:       p.Log.Named("profilesync"),
		customers: p.Customers,
		client:    p.Client,
		channels:  p.Channels,
		locks:     p.Locks,
		logs:      p.Logs,
		metrics:   p.Metrics,
		tracer:    otel.Tracer("taxbridge/profilesync"),
	}
}

// OnCustomerWritten syncs every customer in the write event, best effort.
// One customer's failure never aborts the rest of the batch; there is no
// retry and no rollback.
func (s *Syncer) OnCustomerWritten(ctx context.Context, ev events.CustomerWrittenEvent) {
	ctx, span := s.tracer.Start(ctx, "profilesync.OnCustomerWritten")
	defer span.End()

	if ev.Source != customerdomain.SourceAdmin {
		return
	}

	settings := s.channels.Get(ev.ChannelID.String())
	if !settings.Enabled {
		return
	}

	customers, err := s.customers.FindByIDs(ctx, s.db, ev.CustomerIDs)
	if err != nil {
		s.log.Error("customer batch fetch failed", zap.Error(err))
		return
	}
	if len(customers) == 0 {
		s.log.Info("no customers found for write event",
			zap.Int("requested", len(ev.CustomerIDs)))
		return
	}

	for _, customer := range customers {
		if customer == nil {
			continue
		}
		s.syncOne(ctx, settings, ev.ChannelID, customer)
	}
}

func (s *Syncer) syncOne(ctx context.Context, settings config.ChannelSettings, channelID snowflake.ID, customer *customerdomain.Customer) {
	fields := customer.TaxFields()
	if fields.ExemptionType == "" {
		s.metrics.ObserveProfileSync("skip", synclogdomain.StatusSkipped)
		return
	}

	lockKey := "taxbridge:profile-sync:" + customer.ID.String()
	token, acquired, err := s.locks.TryLock(ctx, lockKey, lockTTL)
	if err != nil {
		// lock backend trouble must not block the sync itself
		s.log.Warn("profile sync lock unavailable",
			zap.String("customer_id", customer.ID.String()),
			zap.Error(err),
		)
	} else if !acquired {
		s.log.Debug("profile sync already in flight",
			zap.String("customer_id", customer.ID.String()))
		return
	} else {
		defer func() { _ = s.locks.Release(ctx, lockKey, token) }()
	}

	operation := "update"
	externalID := fields.TaxJarCustomerID
	isCreate := externalID == ""
	if isCreate {
		operation = "create"
		externalID = uuid.NewString()
	}

	profile := taxjarapi.CustomerProfile{
		CustomerID:    externalID,
		ExemptionType: fields.ExemptionType,
		ExemptRegions: buildExemptRegions(fields.ExemptRegions),
		Name:          customer.FullName(),
	}

	creds := credentials(settings)
	if isCreate {
		err = s.client.CreateCustomer(ctx, creds, profile)
	} else {
		err = s.client.UpdateCustomer(ctx, creds, externalID, profile)
	}
	if err != nil {
		s.fail(ctx, channelID, customer.ID, operation, err)
		return
	}

	if isCreate {
		merge := map[string]any{customerdomain.CustomFieldTaxJarCustomerID: externalID}
		if err := s.customers.MergeCustomFields(ctx, s.db, customer.ID, merge); err != nil {
			s.fail(ctx, channelID, customer.ID, operation, err)
			return
		}
	}

	s.metrics.ObserveProfileSync(operation, synclogdomain.StatusSuccess)
	s.logs.Record(ctx, synclogdomain.SyncLog{
		ChannelID:   channelID,
		Kind:        synclogdomain.KindProfileSync,
		ReferenceID: customer.ID.String(),
		Status:      synclogdomain.StatusSuccess,
		Message:     operation,
	})
}

func (s *Syncer) fail(ctx context.Context, channelID, customerID snowflake.ID, operation string, err error) {
	code := 0
	var apiErr *taxjarapi.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.StatusCode
	}

	s.metrics.ObserveProfileSync(operation, synclogdomain.StatusError)
	s.log.Error("profile sync failed",
		zap.String("customer_id", customerID.String()),
		zap.String("operation", operation),
		zap.Int("code", code),
		zap.Error(err),
	)
	s.logs.Record(ctx, synclogdomain.SyncLog{
		ChannelID:    channelID,
		Kind:         synclogdomain.KindProfileSync,
		ReferenceID:  customerID.String(),
		Status:       synclogdomain.StatusError,
		Message:      err.Error(),
		ResponseCode: code,
	})
}

func buildExemptRegions(codes []string) []taxjarapi.ExemptRegion {
	regions := make([]taxjarapi.ExemptRegion, 0, len(codes))
	for _, code := range codes {
		state := strings.ToUpper(strings.TrimSpace(code))
		if state == "" {
			continue
		}
		regions = append(regions, taxjarapi.ExemptRegion{
			Country: exemptRegionCountry,
			State:   state,
		})
	}
	return regions
}

func credentials(settings config.ChannelSettings) taxjarapi.Credentials {
	base := taxjarapi.LiveBaseURL
	if settings.Sandbox {
		base = taxjarapi.SandboxBaseURL
	}
	if settings.BaseURL != "" {
		base = settings.BaseURL
	}
	return taxjarapi.Credentials{BaseURL: base, Token: settings.ActiveToken()}
}
