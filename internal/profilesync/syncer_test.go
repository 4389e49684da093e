package profilesync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/taxbridge/internal/config"
	customerdomain "github.com/smallbiznis/taxbridge/internal/customer/domain"
	customerrepo "github.com/smallbiznis/taxbridge/internal/customer/repository"
	"github.com/smallbiznis/taxbridge/internal/events"
	synclogdomain "github.com/smallbiznis/taxbridge/internal/synclog/domain"
	taxjarapi "github.com/smallbiznis/taxbridge/internal/taxjar"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type apiCall struct {
	method  string
	path    string
	profile taxjarapi.CustomerProfile
}

type fakeTaxJar struct {
	srv   *httptest.Server
	calls []apiCall

	// failFor makes calls whose profile name matches answer with a 500.
	failFor string
}

func newFakeTaxJar(t *testing.T) *fakeTaxJar {
	t.Helper()
	fake := &fakeTaxJar{}
	fake.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var profile taxjarapi.CustomerProfile
		_ = json.NewDecoder(r.Body).Decode(&profile)
		fake.calls = append(fake.calls, apiCall{method: r.Method, path: r.URL.Path, profile: profile})
		if fake.failFor != "" && profile.Name == fake.failFor {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": "Internal Server Error", "detail": "boom"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(fake.srv.Close)
	return fake
}

type recorderStub struct {
	entries []synclogdomain.SyncLog
}

func (r *recorderStub) Record(ctx context.Context, entry synclogdomain.SyncLog) {
	r.entries = append(r.entries, entry)
}

func setupSyncer(t *testing.T, fake *fakeTaxJar) (*Syncer, *gorm.DB, *recorderStub) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if err := db.AutoMigrate(&customerdomain.Customer{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	channels := config.NewStaticChannelConfigHolder(config.ChannelsConfig{
		Channels: map[string]config.ChannelSettings{
			"1": {Enabled: true, APIToken: "tok", BaseURL: fake.srv.URL},
			"2": {Enabled: false},
		},
	})

	recorder := &recorderStub{}
	syncer := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Customers: customerrepo.Provide(),
		Client:    taxjarapi.NewClient(fake.srv.Client(), zap.NewNop()),
		Channels:  channels,
		Logs:      recorder,
	})
	return syncer, db, recorder
}

func seedCustomer(t *testing.T, db *gorm.DB, id snowflake.ID, firstName string, fields map[string]any) {
	t.Helper()
	customer := &customerdomain.Customer{
		ID:           id,
		ChannelID:    1,
		FirstName:    firstName,
		LastName:     "Smith",
		Email:        firstName + "@example.com",
		CustomFields: datatypes.JSONMap(fields),
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
}

func adminEvent(ids ...snowflake.ID) events.CustomerWrittenEvent {
	return events.CustomerWrittenEvent{
		ChannelID:   1,
		Source:      customerdomain.SourceAdmin,
		CustomerIDs: ids,
	}
}

func TestSyncCreatesThenUpdatesWithStableID(t *testing.T) {
	fake := newFakeTaxJar(t)
	syncer, db, _ := setupSyncer(t, fake)
	seedCustomer(t, db, 10, "jordan", map[string]any{
		customerdomain.CustomFieldExemptionType: "wholesale",
		customerdomain.CustomFieldExemptRegions: []any{"tx"},
	})

	syncer.OnCustomerWritten(context.Background(), adminEvent(10))

	if !assert.Len(t, fake.calls, 1) {
		return
	}
	assert.Equal(t, http.MethodPost, fake.calls[0].method)
	assert.Equal(t, "/customers/", fake.calls[0].path)
	externalID := fake.calls[0].profile.CustomerID
	assert.NotEmpty(t, externalID)

	// The generated id is cached on the customer record.
	var stored customerdomain.Customer
	if err := db.First(&stored, "id = ?", snowflake.ID(10)).Error; err != nil {
		t.Fatalf("reload customer: %v", err)
	}
	assert.Equal(t, externalID, stored.TaxFields().TaxJarCustomerID)

	// A second write reuses the cached id and updates instead of creating.
	syncer.OnCustomerWritten(context.Background(), adminEvent(10))

	if assert.Len(t, fake.calls, 2) {
		assert.Equal(t, http.MethodPut, fake.calls[1].method)
		assert.Equal(t, "/customers/"+externalID, fake.calls[1].path)
		assert.Equal(t, externalID, fake.calls[1].profile.CustomerID)
	}
}

func TestSyncBatchFailureIsolation(t *testing.T) {
	fake := newFakeTaxJar(t)
	fake.failFor = "bravo Smith"
	syncer, db, recorder := setupSyncer(t, fake)

	fields := map[string]any{customerdomain.CustomFieldExemptionType: "government"}
	seedCustomer(t, db, 10, "alpha", fields)
	seedCustomer(t, db, 11, "bravo", fields)
	seedCustomer(t, db, 12, "charlie", fields)

	syncer.OnCustomerWritten(context.Background(), adminEvent(10, 11, 12))

	assert.Len(t, fake.calls, 3)

	statusByRef := map[string]string{}
	for _, entry := range recorder.entries {
		statusByRef[entry.ReferenceID] = entry.Status
	}
	assert.Equal(t, synclogdomain.StatusSuccess, statusByRef["10"])
	assert.Equal(t, synclogdomain.StatusError, statusByRef["11"])
	assert.Equal(t, synclogdomain.StatusSuccess, statusByRef["12"])

	for _, entry := range recorder.entries {
		if entry.ReferenceID == "11" {
			assert.Equal(t, http.StatusInternalServerError, entry.ResponseCode)
		}
	}

	// The failed customer got no external id cached.
	var failed customerdomain.Customer
	if err := db.First(&failed, "id = ?", snowflake.ID(11)).Error; err != nil {
		t.Fatalf("reload customer: %v", err)
	}
	assert.Empty(t, failed.TaxFields().TaxJarCustomerID)
}

func TestSyncSkipsCustomersWithoutExemption(t *testing.T) {
	fake := newFakeTaxJar(t)
	syncer, db, recorder := setupSyncer(t, fake)
	seedCustomer(t, db, 10, "jordan", map[string]any{})

	syncer.OnCustomerWritten(context.Background(), adminEvent(10))

	assert.Empty(t, fake.calls)
	assert.Empty(t, recorder.entries)
}

func TestSyncIgnoresStorefrontWrites(t *testing.T) {
	fake := newFakeTaxJar(t)
	syncer, db, _ := setupSyncer(t, fake)
	seedCustomer(t, db, 10, "jordan", map[string]any{
		customerdomain.CustomFieldExemptionType: "wholesale",
	})

	ev := adminEvent(10)
	ev.Source = customerdomain.SourceStorefront
	syncer.OnCustomerWritten(context.Background(), ev)

	assert.Empty(t, fake.calls)
}

func TestSyncIgnoresDisabledChannel(t *testing.T) {
	fake := newFakeTaxJar(t)
	syncer, db, _ := setupSyncer(t, fake)
	seedCustomer(t, db, 10, "jordan", map[string]any{
		customerdomain.CustomFieldExemptionType: "wholesale",
	})

	ev := adminEvent(10)
	ev.ChannelID = 2
	syncer.OnCustomerWritten(context.Background(), ev)

	assert.Empty(t, fake.calls)
}

func TestSyncSendsFormattedExemptRegions(t *testing.T) {
	fake := newFakeTaxJar(t)
	syncer, db, _ := setupSyncer(t, fake)
	seedCustomer(t, db, 10, "jordan", map[string]any{
		customerdomain.CustomFieldExemptionType: "wholesale",
		customerdomain.CustomFieldExemptRegions: []any{" tx ", "", "ny"},
	})

	syncer.OnCustomerWritten(context.Background(), adminEvent(10))

	if assert.Len(t, fake.calls, 1) {
		profile := fake.calls[0].profile
		assert.Equal(t, "wholesale", profile.ExemptionType)
		assert.Equal(t, "jordan Smith", profile.Name)
		assert.Equal(t, []taxjarapi.ExemptRegion{
			{Country: "US", State: "TX"},
			{Country: "US", State: "NY"},
		}, profile.ExemptRegions)
	}
}

func TestBuildExemptRegions(t *testing.T) {
	regions := buildExemptRegions([]string{"ca", " ", "WA"})
	assert.Equal(t, []taxjarapi.ExemptRegion{
		{Country: "US", State: "CA"},
		{Country: "US", State: "WA"},
	}, regions)
}
