package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/campus-core/internal/models"
	"github.com/edustack/campus-core/pkg/logger"
)

type memoryRepository struct {
	mu      sync.Mutex
	records []*models.AuditRecord
	err     error
}

func (m *memoryRepository) Insert(ctx context.Context, record *models.AuditRecord) error {
	if m.err != nil {
		return m.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memoryRepository) List(ctx context.Context, tenantID string, filters Filters) ([]*models.AuditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AuditRecord
	for _, r := range m.records {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func newTestService(repo Repository, sampleRate int) *Service {
	return NewService(repo, Config{
		AllowSampleRate: sampleRate,
		WriteTimeout:    time.Second,
		RepeatWindow:    time.Minute,
		RepeatThreshold: 3,
	}, logger.New("error"))
}

var testPrincipal = models.Principal{ID: "u1", TenantID: "school-a", Role: models.RoleTeacher}

var testResource = models.ResourceDescriptor{TenantID: "school-b", Kind: models.ResourceGrade}

func TestRecordDenialWritesExactlyOne(t *testing.T) {
	repo := &memoryRepository{}
	svc := newTestService(repo, 0)

	record := svc.RecordDenial(context.Background(), "school-a", testPrincipal, testResource,
		models.ActionRead, models.ReasonCrossTenantAccess, models.AnomalyCrossTenant)

	require.NotNil(t, record)
	assert.Equal(t, 1, repo.count())
	assert.False(t, record.Allowed)
	assert.Equal(t, models.ReasonCrossTenantAccess, record.Reason)
	assert.Contains(t, record.AnomalyFlags, models.AnomalyCrossTenant)
	assert.NotEmpty(t, record.ID)
}

func TestRecordDenialSurvivesCancelledRequest(t *testing.T) {
	repo := &memoryRepository{}
	svc := newTestService(repo, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // client already disconnected

	svc.RecordDenial(ctx, "school-a", testPrincipal, testResource,
		models.ActionRead, models.ReasonSuspicious)

	assert.Equal(t, 1, repo.count(), "denial write must not be cancelled by client disconnect")
}

func TestRecordDenialWriteFailureStillReturnsRecord(t *testing.T) {
	repo := &memoryRepository{err: errors.New("store down")}
	svc := newTestService(repo, 0)

	record := svc.RecordDenial(context.Background(), "school-a", testPrincipal, testResource,
		models.ActionRead, models.ReasonCrossTenantAccess)

	assert.NotNil(t, record, "a failed audit write never converts a denial into an allow")
}

func TestRecordAllowSampling(t *testing.T) {
	repo := &memoryRepository{}
	svc := newTestService(repo, 10)

	inTenant := models.ResourceDescriptor{TenantID: "school-a", Kind: models.ResourceGrade}
	for i := 0; i < 100; i++ {
		svc.RecordAllow(context.Background(), "school-a", testPrincipal, inTenant, models.ActionRead)
	}

	assert.Equal(t, 10, repo.count(), "one in ten allows should be kept")
}

func TestRecordAllowDisabled(t *testing.T) {
	repo := &memoryRepository{}
	svc := newTestService(repo, 0)

	assert.Nil(t, svc.RecordAllow(context.Background(), "school-a", testPrincipal, testResource, models.ActionRead))
	assert.Equal(t, 0, repo.count())
}

func TestRepeatOffenderFlagged(t *testing.T) {
	repo := &memoryRepository{}
	svc := newTestService(repo, 0)

	var last *models.AuditRecord
	for i := 0; i < 3; i++ {
		last = svc.RecordDenial(context.Background(), "school-a", testPrincipal, testResource,
			models.ActionRead, models.ReasonCrossTenantAccess)
	}

	assert.Contains(t, last.AnomalyFlags, models.AnomalyRepeatOffender)

	first := repo.records[0]
	assert.NotContains(t, first.AnomalyFlags, models.AnomalyRepeatOffender)
}

func TestOffenderTrackerWindowExpiry(t *testing.T) {
	tracker := newOffenderTracker(time.Minute, 3)
	base := time.Now()

	assert.False(t, tracker.recordAndCheck("u1", base))
	assert.False(t, tracker.recordAndCheck("u1", base.Add(time.Second)))
	assert.True(t, tracker.recordAndCheck("u1", base.Add(2*time.Second)))

	// Old denials age out of the window.
	assert.False(t, tracker.recordAndCheck("u1", base.Add(5*time.Minute)))
}

func TestOffenderTrackerEvictsStalePrincipals(t *testing.T) {
	tracker := newOffenderTracker(time.Minute, 3)
	base := time.Now()

	for i := 0; i < 50; i++ {
		tracker.recordAndCheck(fmt.Sprintf("drive-by-%d", i), base)
	}
	assert.Len(t, tracker.denials, 50)

	// A single later denial sweeps every principal whose window has
	// fully elapsed; one-off offenders must not pin memory forever.
	tracker.recordAndCheck("u1", base.Add(2*time.Minute))
	assert.Len(t, tracker.denials, 1)
	assert.Contains(t, tracker.denials, "u1")
}
