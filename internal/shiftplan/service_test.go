package shiftplan

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"dienstwunsch-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testNow: 2025-02-15, Planungsmonat ist damit 2025-03.
var testNow = time.Date(2025, time.February, 15, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ShiftRequest{},
		&models.ShiftRequestSnapshot{},
		&models.ShiftNote{},
	))

	svc := NewService(db, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc, db
}

func createUser(t *testing.T, db *gorm.DB, name string, isAdmin bool) *models.User {
	t.Helper()
	user := &models.User{Name: name, PasswordHash: "x", IsAdmin: isAdmin}
	require.NoError(t, db.Create(user).Error)
	return user
}

func loadRequests(t *testing.T, db *gorm.DB, userID uint) map[string]models.ShiftRequest {
	t.Helper()
	var requests []models.ShiftRequest
	require.NoError(t, db.Where("user_id = ?", userID).Find(&requests).Error)
	byDate := make(map[string]models.ShiftRequest, len(requests))
	for _, r := range requests {
		byDate[r.Date.Format(dateLayout)] = r
	}
	return byDate
}

func loadSnapshots(t *testing.T, db *gorm.DB, userID uint) map[string]string {
	t.Helper()
	var snapshots []models.ShiftRequestSnapshot
	require.NoError(t, db.Where("user_id = ?", userID).Find(&snapshots).Error)
	byDate := make(map[string]string, len(snapshots))
	for _, s := range snapshots {
		byDate[s.Date.Format(dateLayout)] = s.ShiftType
	}
	return byDate
}

func TestSubmitBatchFirstSubmission(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	res, err := svc.SubmitBatch(user.ID, map[string]string{
		"2025-03-10": "T",
		"2025-03-11": "N10",
	})
	require.NoError(t, err)

	assert.True(t, res.IsFirstSubmission)
	assert.False(t, res.IsModification)
	assert.Equal(t, 2, res.SavedCount)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	require.NotNil(t, reloaded.FirstSubmissionAt)

	assert.Equal(t, map[string]string{"2025-03-10": "T", "2025-03-11": "N10"}, loadSnapshots(t, db, user.ID))

	requests := loadRequests(t, db, user.ID)
	require.Len(t, requests, 2)
	assert.Equal(t, "T", requests["2025-03-10"].ShiftType)
	assert.Equal(t, models.StatusPending, requests["2025-03-10"].Status)
	assert.False(t, requests["2025-03-10"].Confirmed)
}

func TestSubmitBatchFirstSubmissionFlagOnlyOnce(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	shifts := map[string]string{"2025-03-10": "T"}

	res1, err := svc.SubmitBatch(user.ID, shifts)
	require.NoError(t, err)
	require.True(t, res1.IsFirstSubmission)

	var afterFirst models.User
	require.NoError(t, db.First(&afterFirst, user.ID).Error)
	require.NotNil(t, afterFirst.FirstSubmissionAt)
	firstAt := *afterFirst.FirstSubmissionAt

	res2, err := svc.SubmitBatch(user.ID, shifts)
	require.NoError(t, err)
	assert.False(t, res2.IsFirstSubmission)
	assert.False(t, res2.IsModification)

	var afterSecond models.User
	require.NoError(t, db.First(&afterSecond, user.ID).Error)
	require.NotNil(t, afterSecond.FirstSubmissionAt)
	assert.Equal(t, firstAt.Unix(), afterSecond.FirstSubmissionAt.Unix())
}

func TestSubmitBatchModification(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	_, err := svc.SubmitBatch(user.ID, map[string]string{
		"2025-03-10": "T",
		"2025-03-11": "N10",
	})
	require.NoError(t, err)

	res, err := svc.SubmitBatch(user.ID, map[string]string{
		"2025-03-10": "T10",
		"2025-03-11": "N10",
	})
	require.NoError(t, err)

	assert.False(t, res.IsFirstSubmission)
	assert.True(t, res.IsModification)
	assert.Equal(t, 2, res.SavedCount)

	// Snapshot bleibt der Stand der Erstabgabe
	assert.Equal(t, map[string]string{"2025-03-10": "T", "2025-03-11": "N10"}, loadSnapshots(t, db, user.ID))

	requests := loadRequests(t, db, user.ID)
	require.Len(t, requests, 2)
	assert.Equal(t, "T10", requests["2025-03-10"].ShiftType)
	assert.Equal(t, "N10", requests["2025-03-11"].ShiftType)
}

func TestSubmitBatchDetectsRemovedDate(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	_, err := svc.SubmitBatch(user.ID, map[string]string{
		"2025-03-10": "T",
		"2025-03-11": "N10",
	})
	require.NoError(t, err)

	res, err := svc.SubmitBatch(user.ID, map[string]string{"2025-03-10": "T"})
	require.NoError(t, err)

	assert.True(t, res.IsModification)
	assert.Len(t, loadRequests(t, db, user.ID), 1)
}

func TestSubmitBatchPreservesConfirmed(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	_, err := svc.SubmitBatch(user.ID, map[string]string{
		"2025-03-10": "T",
		"2025-03-11": "N10",
	})
	require.NoError(t, err)

	// Admin bestätigt den 10.
	requests := loadRequests(t, db, user.ID)
	confirmed := requests["2025-03-10"]
	_, err = svc.ToggleConfirmed(confirmed.ID)
	require.NoError(t, err)

	// Abgabe ohne den bestätigten Tag und mit anderem Typ für den 11.
	res, err := svc.SubmitBatch(user.ID, map[string]string{"2025-03-11": "T10"})
	require.NoError(t, err)
	assert.True(t, res.IsModification)

	after := loadRequests(t, db, user.ID)
	require.Len(t, after, 2)
	assert.Equal(t, confirmed.ID, after["2025-03-10"].ID)
	assert.Equal(t, "T", after["2025-03-10"].ShiftType)
	assert.True(t, after["2025-03-10"].Confirmed)
	assert.Equal(t, "T10", after["2025-03-11"].ShiftType)
}

func TestSubmitBatchConfirmedDateNotOverwritten(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	_, err := svc.SubmitBatch(user.ID, map[string]string{"2025-03-10": "T"})
	require.NoError(t, err)

	requests := loadRequests(t, db, user.ID)
	_, err = svc.ToggleConfirmed(requests["2025-03-10"].ID)
	require.NoError(t, err)

	// Gleicher Tag mit anderem Typ: zählt als Änderung, wird aber nicht angewendet
	res, err := svc.SubmitBatch(user.ID, map[string]string{"2025-03-10": "N10"})
	require.NoError(t, err)
	assert.True(t, res.IsModification)
	assert.Equal(t, 0, res.SavedCount)

	after := loadRequests(t, db, user.ID)
	require.Len(t, after, 1)
	assert.Equal(t, "T", after["2025-03-10"].ShiftType)
	assert.True(t, after["2025-03-10"].Confirmed)
}

func TestSubmitBatchOmittedConfirmedIsNoModification(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	_, err := svc.SubmitBatch(user.ID, map[string]string{
		"2025-03-10": "T",
		"2025-03-11": "N10",
	})
	require.NoError(t, err)

	requests := loadRequests(t, db, user.ID)
	_, err = svc.ToggleConfirmed(requests["2025-03-10"].ID)
	require.NoError(t, err)

	// Bestätigter Tag fehlt, der Rest ist identisch: keine Änderung
	res, err := svc.SubmitBatch(user.ID, map[string]string{"2025-03-11": "N10"})
	require.NoError(t, err)
	assert.False(t, res.IsModification)
}

func TestSubmitBatchRejectsOutsideOperatingMonth(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	_, err := svc.SubmitBatch(user.ID, map[string]string{"2025-04-01": "T"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	// Nichts gespeichert, kein Snapshot, kein Erstabgabe-Flag
	assert.Empty(t, loadRequests(t, db, user.ID))
	assert.Empty(t, loadSnapshots(t, db, user.ID))
	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.Nil(t, reloaded.FirstSubmissionAt)
}

func TestSubmitBatchRollsBackOnStorageFailure(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	_, err := svc.SubmitBatch(user.ID, map[string]string{
		"2025-03-10": "T",
		"2025-03-11": "N10",
	})
	require.NoError(t, err)
	before := loadRequests(t, db, user.ID)

	// Einfügen schlägt fehl, nachdem die alten Einträge schon gelöscht sind
	failErr := errors.New("kaputt")
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test_fail_create", func(tx *gorm.DB) {
		if tx.Statement.Table == "shift_requests" {
			tx.AddError(failErr)
		}
	}))
	defer func() {
		require.NoError(t, db.Callback().Create().Remove("test_fail_create"))
	}()

	_, err = svc.SubmitBatch(user.ID, map[string]string{"2025-03-12": "T10"})
	require.Error(t, err)

	// Rollback: exakt der alte Bestand, nichts verloren, nichts halb angelegt
	after := loadRequests(t, db, user.ID)
	require.Len(t, after, len(before))
	for dateStr, r := range before {
		assert.Equal(t, r.ShiftType, after[dateStr].ShiftType)
	}
}

func TestHasModifications(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	_, err := svc.SubmitBatch(user.ID, map[string]string{
		"2025-03-05": "T",
		"2025-03-06": "N10",
	})
	require.NoError(t, err)

	mod, err := svc.HasModifications(user.ID)
	require.NoError(t, err)
	assert.False(t, mod)

	_, err = svc.SubmitBatch(user.ID, map[string]string{
		"2025-03-05": "T",
		"2025-03-07": "T10",
	})
	require.NoError(t, err)

	mod, err = svc.HasModifications(user.ID)
	require.NoError(t, err)
	assert.True(t, mod)
}

func TestHasModificationsWithoutFirstSubmission(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	mod, err := svc.HasModifications(user.ID)
	require.NoError(t, err)
	assert.False(t, mod)
}

func TestHasModificationsUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.HasModifications(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateSingle(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	req, err := svc.CreateSingle(user.ID, "2025-03-20", "T", "Bitte Frühschicht")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-20", req.Date.Format(dateLayout))
	assert.Equal(t, "T", req.ShiftType)
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Equal(t, "A", req.User.Name)
}

func TestCreateSingleDuplicateDate(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	_, err := svc.CreateSingle(user.ID, "2025-03-20", "T", "")
	require.NoError(t, err)

	_, err = svc.CreateSingle(user.ID, "2025-03-20", "N10", "")
	assert.ErrorIs(t, err, ErrDuplicateDate)
}

func TestCreateSinglePastDate(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	_, err := svc.CreateSingle(user.ID, "2025-02-14", "T", "")
	assert.ErrorIs(t, err, ErrPastDate)

	// Heute ist kein vergangener Tag
	_, err = svc.CreateSingle(user.ID, "2025-02-15", "T", "")
	assert.NoError(t, err)
}

func TestCreateSingleValidation(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	_, err := svc.CreateSingle(user.ID, "", "T", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateSingle(user.ID, "2025-03-20", "  ", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateSingle(user.ID, "20.03.2025", "T", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteSingle(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)
	other := createUser(t, db, "B", false)

	req, err := svc.CreateSingle(user.ID, "2025-03-20", "T", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteSingle(user.ID, 999), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteSingle(other.ID, req.ID), ErrForbidden)

	require.NoError(t, svc.DeleteSingle(user.ID, req.ID))
	assert.Empty(t, loadRequests(t, db, user.ID))
}

// Pinnt das gewachsene Verhalten fest: der Einzelpfad löscht auch
// bestätigte Einträge, nur die Sammelabgabe schützt sie.
func TestDeleteSingleIgnoresConfirmedFlag(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	req, err := svc.CreateSingle(user.ID, "2025-03-20", "T", "")
	require.NoError(t, err)
	_, err = svc.ToggleConfirmed(req.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSingle(user.ID, req.ID))
	assert.Empty(t, loadRequests(t, db, user.ID))
}

func TestToggleConfirmed(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	req, err := svc.CreateSingle(user.ID, "2025-03-20", "T", "")
	require.NoError(t, err)

	toggled, err := svc.ToggleConfirmed(req.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Confirmed)

	toggled, err = svc.ToggleConfirmed(req.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Confirmed)

	_, err = svc.ToggleConfirmed(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmAllForUser(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	_, err := svc.SubmitBatch(user.ID, map[string]string{
		"2025-03-10": "T",
		"2025-03-11": "N10",
		"2025-03-12": "T10",
	})
	require.NoError(t, err)

	count, err := svc.ConfirmAllForUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	for _, r := range loadRequests(t, db, user.ID) {
		assert.True(t, r.Confirmed)
	}

	// Zweiter Aufruf findet nichts Offenes mehr
	count, err = svc.ConfirmAllForUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, err = svc.ConfirmAllForUser(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAddNote(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)
	admin := createUser(t, db, "Chef", true)
	stranger := createUser(t, db, "B", false)

	req, err := svc.CreateSingle(user.ID, "2025-03-20", "T", "")
	require.NoError(t, err)

	note, err := svc.AddNote(req.ID, user.ID, false, "Nur vormittags")
	require.NoError(t, err)
	assert.Equal(t, "Nur vormittags", note.Content)
	assert.Equal(t, "A", note.User.Name)

	_, err = svc.AddNote(req.ID, admin.ID, true, "Geht klar")
	require.NoError(t, err)

	_, err = svc.AddNote(req.ID, stranger.ID, false, "Ich auch")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.AddNote(req.ID, user.ID, false, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddNote(999, user.ID, false, "Hallo")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForUser(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)
	other := createUser(t, db, "B", false)

	_, err := svc.SubmitBatch(user.ID, map[string]string{
		"2025-03-12": "T",
		"2025-03-10": "N10",
	})
	require.NoError(t, err)
	_, err = svc.SubmitBatch(other.ID, map[string]string{"2025-03-10": "T"})
	require.NoError(t, err)

	requests, err := svc.ListForUser(user.ID, 2025, 3)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, "2025-03-10", requests[0].Date.Format(dateLayout))
	assert.Equal(t, "2025-03-12", requests[1].Date.Format(dateLayout))
	assert.Equal(t, "A", requests[0].User.Name)

	// Anderer Monat: leer
	requests, err = svc.ListForUser(user.ID, 2025, 4)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestListAll(t *testing.T) {
	svc, db := newTestService(t)
	userA := createUser(t, db, "A", false)
	userB := createUser(t, db, "B", false)

	_, err := svc.SubmitBatch(userA.ID, map[string]string{"2025-03-10": "T"})
	require.NoError(t, err)
	_, err = svc.SubmitBatch(userB.ID, map[string]string{"2025-03-11": "N10"})
	require.NoError(t, err)

	// A ändert nach der Erstabgabe
	_, err = svc.SubmitBatch(userA.ID, map[string]string{"2025-03-10": "T10"})
	require.NoError(t, err)

	entries, err := svc.ListAll(2025, 3)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := make(map[string]ReviewEntry, len(entries))
	for _, e := range entries {
		byName[e.Request.User.Name] = e
	}

	assert.True(t, byName["A"].HasModifications)
	assert.False(t, byName["B"].HasModifications)
	require.NotNil(t, byName["A"].FirstSubmissionAt)
	require.NotNil(t, byName["B"].FirstSubmissionAt)
}

// Durchstich über den ganzen Kern, vom leeren Konto bis zur geänderten Abgabe.
func TestEndToEndScenario(t *testing.T) {
	svc, db := newTestService(t)
	user := createUser(t, db, "A", false)

	res, err := svc.SubmitBatch(user.ID, map[string]string{
		"2025-03-10": "T",
		"2025-03-11": "N10",
	})
	require.NoError(t, err)
	assert.True(t, res.IsFirstSubmission)
	assert.Equal(t, 2, res.SavedCount)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	require.NotNil(t, reloaded.FirstSubmissionAt)
	require.Len(t, loadSnapshots(t, db, user.ID), 2)
	require.Len(t, loadRequests(t, db, user.ID), 2)

	res, err = svc.SubmitBatch(user.ID, map[string]string{
		"2025-03-10": "T10",
		"2025-03-11": "N10",
	})
	require.NoError(t, err)
	assert.False(t, res.IsFirstSubmission)
	assert.True(t, res.IsModification)

	assert.Equal(t, map[string]string{"2025-03-10": "T", "2025-03-11": "N10"}, loadSnapshots(t, db, user.ID))

	requests := loadRequests(t, db, user.ID)
	require.Len(t, requests, 2)
	assert.Equal(t, "T10", requests["2025-03-10"].ShiftType)
	assert.Equal(t, "N10", requests["2025-03-11"].ShiftType)

	mod, err := svc.HasModifications(user.ID)
	require.NoError(t, err)
	assert.True(t, mod)
}
