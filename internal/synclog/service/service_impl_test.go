package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/taxbridge/internal/synclog/domain"
	"github.com/smallbiznis/taxbridge/internal/synclog/repository"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (domain.Service, *gorm.DB) {
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
	if err := db.AutoMigrate(&domain.SyncLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, db
}

func recordAt(svc domain.Service, kind, status, ref string, at time.Time) {
	svc.Record(context.Background(), domain.SyncLog{
		ChannelID:   1,
		Kind:        kind,
		ReferenceID: ref,
		Status:      status,
		CreatedAt:   at,
	})
}

func TestRecordAssignsIDAndTimestamp(t *testing.T) {
	svc, db := setupService(t)

	svc.Record(context.Background(), domain.SyncLog{
		ChannelID:   1,
		Kind:        domain.KindProfileSync,
		ReferenceID: "10",
		Status:      domain.StatusSuccess,
	})

	var stored domain.SyncLog
	if err := db.First(&stored).Error; err != nil {
		t.Fatalf("load log: %v", err)
	}
	assert.NotZero(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestListPaginatesNewestFirst(t *testing.T) {
	svc, _ := setupService(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	recordAt(svc, domain.KindTaxCalculation, domain.StatusSuccess, "a", base)
	recordAt(svc, domain.KindTaxCalculation, domain.StatusSuccess, "b", base.Add(time.Second))
	recordAt(svc, domain.KindTaxCalculation, domain.StatusError, "c", base.Add(2*time.Second))

	first, err := svc.List(context.Background(), domain.ListRequest{PageSize: 2})
	assert.NoError(t, err)
	if assert.Len(t, first.Logs, 2) {
		assert.Equal(t, "c", first.Logs[0].ReferenceID)
		assert.Equal(t, "b", first.Logs[1].ReferenceID)
	}
	assert.True(t, first.HasMore)
	assert.NotEmpty(t, first.NextPageToken)

	second, err := svc.List(context.Background(), domain.ListRequest{
		PageSize:  2,
		PageToken: first.NextPageToken,
	})
	assert.NoError(t, err)
	if assert.Len(t, second.Logs, 1) {
		assert.Equal(t, "a", second.Logs[0].ReferenceID)
	}
	assert.False(t, second.HasMore)
}

func TestListFiltersByKindAndStatus(t *testing.T) {
	svc, _ := setupService(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	recordAt(svc, domain.KindTaxCalculation, domain.StatusSuccess, "a", base)
	recordAt(svc, domain.KindProfileSync, domain.StatusError, "b", base.Add(time.Second))
	recordAt(svc, domain.KindProfileSync, domain.StatusSuccess, "c", base.Add(2*time.Second))

	resp, err := svc.List(context.Background(), domain.ListRequest{
		Kind:   domain.KindProfileSync,
		Status: domain.StatusError,
	})
	assert.NoError(t, err)
	if assert.Len(t, resp.Logs, 1) {
		assert.Equal(t, "b", resp.Logs[0].ReferenceID)
	}
}

func TestExportCSV(t *testing.T) {
	svc, _ := setupService(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	recordAt(svc, domain.KindProfileSync, domain.StatusError, "b", base)

	data, err := svc.ExportCSV(context.Background(), domain.ListFilter{})
	assert.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if assert.Len(t, lines, 2) {
		assert.Equal(t, "id,channel_id,kind,reference_id,status,message,response_code,created_at", lines[0])
		assert.Contains(t, lines[1], "profile_sync")
		assert.Contains(t, lines[1], ",b,")
	}
}
