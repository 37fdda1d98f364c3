package shiftplan

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dienstwunsch-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// Service bündelt Wunsch-Ledger, Snapshot-Archiv und Änderungsverfolgung
// auf einem injizierten Datenbank-Handle.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger, now: time.Now}
}

type BatchResult struct {
	IsFirstSubmission bool `json:"is_first_submission"`
	IsModification    bool `json:"is_modification"`
	SavedCount        int  `json:"saved_count"`
}

type batchItem struct {
	day       time.Time
	shiftType string
}

// normalizeBatch prüft Datumsformat, Schichtart und Monatsfenster.
// Ein veralteter Client soll laut scheitern statt still Daten zu verlieren.
func (s *Service) normalizeBatch(shifts map[string]string) (map[string]batchItem, error) {
	opYear, opMonth := OperatingMonth(s.now())

	items := make(map[string]batchItem, len(shifts))
	for dateStr, shiftType := range shifts {
		day, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("%w: ungültiges Datum %q", ErrValidation, dateStr)
		}
		shiftType = strings.TrimSpace(shiftType)
		if shiftType == "" {
			return nil, fmt.Errorf("%w: Schichtart für %s fehlt", ErrValidation, dateStr)
		}
		if day.Year() != opYear || int(day.Month()) != opMonth {
			return nil, fmt.Errorf("%w: %s liegt außerhalb des Planungsmonats %02d/%d", ErrValidation, dateStr, opMonth, opYear)
		}
		items[day.Format(dateLayout)] = batchItem{day: day, shiftType: shiftType}
	}
	return items, nil
}

// batchDiffers: weicht die Abgabe vom aktuellen Bestand ab? Verglichen wird
// nur (Datum, Schichtart). Ein bestätigter Eintrag, der in der Abgabe fehlt,
// zählt nicht als Änderung, er bleibt ohnehin unangetastet.
func batchDiffers(existing []models.ShiftRequest, incoming map[string]batchItem) bool {
	current := make(map[string]models.ShiftRequest, len(existing))
	for _, r := range existing {
		current[r.Date.Format(dateLayout)] = r
	}

	for dateStr, item := range incoming {
		cur, ok := current[dateStr]
		if !ok || cur.ShiftType != item.shiftType {
			return true
		}
	}
	for dateStr, r := range current {
		if _, ok := incoming[dateStr]; !ok && !r.Confirmed {
			return true
		}
	}
	return false
}

// SubmitBatch ersetzt alle unbestätigten Wünsche des Benutzers durch die
// Abgabe. Bei der allerersten Abgabe wird zusätzlich der Snapshot
// geschrieben und first_submission_at gesetzt. Löschen, Einfügen und
// Snapshot laufen in einer Transaktion: entweder alles oder nichts.
func (s *Service) SubmitBatch(userID uint, shifts map[string]string) (*BatchResult, error) {
	incoming, err := s.normalizeBatch(shifts)
	if err != nil {
		return nil, err
	}

	res := &BatchResult{}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		res.IsFirstSubmission = user.FirstSubmissionAt == nil

		var existing []models.ShiftRequest
		if err := tx.Where("user_id = ?", userID).Find(&existing).Error; err != nil {
			return err
		}

		if !res.IsFirstSubmission {
			res.IsModification = batchDiffers(existing, incoming)
		}

		// Unbestätigte Einträge komplett ersetzen
		if err := tx.Where("user_id = ? AND confirmed = ?", userID, false).
			Delete(&models.ShiftRequest{}).Error; err != nil {
			return err
		}

		confirmedDates := make(map[string]bool)
		for _, r := range existing {
			if r.Confirmed {
				confirmedDates[r.Date.Format(dateLayout)] = true
			}
		}

		for dateStr, item := range incoming {
			// Bestätigte Tage dürfen nicht überschrieben werden
			if confirmedDates[dateStr] {
				continue
			}
			req := models.ShiftRequest{
				UserID:    userID,
				Date:      item.day,
				ShiftType: item.shiftType,
				Status:    models.StatusPending,
			}
			if err := tx.Create(&req).Error; err != nil {
				return err
			}
			res.SavedCount++
		}

		if res.IsFirstSubmission {
			if err := tx.Model(&user).Update("first_submission_at", s.now()).Error; err != nil {
				return err
			}
			for _, item := range incoming {
				snap := models.ShiftRequestSnapshot{
					UserID:    userID,
					Date:      item.day,
					ShiftType: item.shiftType,
				}
				if err := tx.Create(&snap).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Sammelabgabe verarbeitet",
		zap.Uint("user_id", userID),
		zap.Bool("erstabgabe", res.IsFirstSubmission),
		zap.Bool("geaendert", res.IsModification),
		zap.Int("gespeichert", res.SavedCount))

	return res, nil
}

// HasModifications vergleicht den aktuellen Bestand mit dem Snapshot der
// Erstabgabe als Mengen von (Datum, Schichtart). Wird bei jedem Lesen neu
// berechnet, es gibt keinen gespeicherten Diff.
func (s *Service) HasModifications(userID uint) (bool, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	return s.hasModificationsForUser(&user)
}

func (s *Service) hasModificationsForUser(user *models.User) (bool, error) {
	// Ohne Erstabgabe gibt es nichts, wovon man abweichen könnte.
	if user.FirstSubmissionAt == nil {
		return false, nil
	}

	var snapshots []models.ShiftRequestSnapshot
	if err := s.db.Where("user_id = ?", user.ID).Find(&snapshots).Error; err != nil {
		return false, err
	}
	var requests []models.ShiftRequest
	if err := s.db.Where("user_id = ?", user.ID).Find(&requests).Error; err != nil {
		return false, err
	}

	original := make(map[string]string, len(snapshots))
	for _, snap := range snapshots {
		original[snap.Date.Format(dateLayout)] = snap.ShiftType
	}
	current := make(map[string]string, len(requests))
	for _, r := range requests {
		current[r.Date.Format(dateLayout)] = r.ShiftType
	}

	if len(original) != len(current) {
		return true, nil
	}
	for dateStr, shiftType := range original {
		if current[dateStr] != shiftType {
			return true, nil
		}
	}
	return false, nil
}

// ListForUser: Wünsche eines Benutzers im Monat, nach Datum aufsteigend,
// Notizen in Erstellreihenfolge angehängt.
func (s *Service) ListForUser(userID uint, year, month int) ([]models.ShiftRequest, error) {
	first, last := monthBounds(year, month)

	var requests []models.ShiftRequest
	err := s.db.
		Preload("User").
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Notes.User").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, first, last).
		Order("date ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

type ReviewEntry struct {
	Request           models.ShiftRequest
	HasModifications  bool
	FirstSubmissionAt *time.Time
}

// ListAll: Monatsübersicht über alle Benutzer für die Admin-Prüfung, pro
// Eintrag mit Divergenz-Flag und Erstabgabe-Zeitpunkt des Besitzers.
func (s *Service) ListAll(year, month int) ([]ReviewEntry, error) {
	first, last := monthBounds(year, month)

	var requests []models.ShiftRequest
	err := s.db.
		Preload("User").
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Notes.User").
		Where("date >= ? AND date <= ?", first, last).
		Order("date ASC, user_id ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}

	// Divergenz je Besitzer nur einmal berechnen
	modByUser := make(map[uint]bool)
	entries := make([]ReviewEntry, 0, len(requests))
	for _, r := range requests {
		mod, ok := modByUser[r.UserID]
		if !ok {
			owner := r.User
			mod, err = s.hasModificationsForUser(&owner)
			if err != nil {
				return nil, err
			}
			modByUser[r.UserID] = mod
		}
		entries = append(entries, ReviewEntry{
			Request:           r,
			HasModifications:  mod,
			FirstSubmissionAt: r.User.FirstSubmissionAt,
		})
	}
	return entries, nil
}

// CreateSingle legt einen einzelnen Wunsch an. Vergangene Tage und doppelte
// Tage pro Benutzer sind nicht erlaubt.
func (s *Service) CreateSingle(userID uint, dateStr, shiftType, remarks string) (*models.ShiftRequest, error) {
	shiftType = strings.TrimSpace(shiftType)
	if dateStr == "" {
		return nil, fmt.Errorf("%w: Datum ist erforderlich", ErrValidation)
	}
	if shiftType == "" {
		return nil, fmt.Errorf("%w: Schichtart ist erforderlich", ErrValidation)
	}

	day, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: ungültiges Datum %q", ErrValidation, dateStr)
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		return nil, ErrPastDate
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.ShiftRequest{}).
		Where("user_id = ? AND date = ?", userID, day).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateDate
	}

	req := models.ShiftRequest{
		UserID:    userID,
		Date:      day,
		ShiftType: shiftType,
		Remarks:   remarks,
		Status:    models.StatusPending,
	}
	if err := s.db.Create(&req).Error; err != nil {
		return nil, err
	}
	req.User = user

	return &req, nil
}

// DeleteSingle löscht einen eigenen Wunsch. Anders als die Sammelabgabe
// prüft der Einzelpfad das Confirmed-Flag bewusst nicht, das Verhalten ist
// seit jeher so und wird von Tests festgehalten.
func (s *Service) DeleteSingle(userID, requestID uint) error {
	var req models.ShiftRequest
	if err := s.db.First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if req.UserID != userID {
		return ErrForbidden
	}
	return s.db.Delete(&req).Error
}

// ToggleConfirmed kippt das Bestätigungs-Flag eines Eintrags (nur Admin).
func (s *Service) ToggleConfirmed(requestID uint) (*models.ShiftRequest, error) {
	var req models.ShiftRequest
	if err := s.db.Preload("User").First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.db.Model(&req).Update("confirmed", !req.Confirmed).Error; err != nil {
		return nil, err
	}
	req.Confirmed = !req.Confirmed

	return &req, nil
}

// ConfirmAllForUser bestätigt alle offenen Wünsche eines Benutzers und
// liefert die Anzahl der umgestellten Einträge.
func (s *Service) ConfirmAllForUser(userID uint) (int64, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	result := s.db.Model(&models.ShiftRequest{}).
		Where("user_id = ? AND confirmed = ?", userID, false).
		Update("confirmed", true)
	if result.Error != nil {
		return 0, result.Error
	}

	s.logger.Info("Alle Wünsche bestätigt",
		zap.Uint("user_id", userID),
		zap.Int64("anzahl", result.RowsAffected))

	return result.RowsAffected, nil
}

// AddNote hängt eine Notiz an einen Wunsch. Erlaubt für den Besitzer und
// für Administratoren; Notizen werden nie bearbeitet oder einzeln gelöscht.
func (s *Service) AddNote(requestID, authorID uint, isAdmin bool, content string) (*models.ShiftNote, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: Inhalt ist erforderlich", ErrValidation)
	}

	var req models.ShiftRequest
	if err := s.db.First(&req, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.UserID != authorID && !isAdmin {
		return nil, ErrForbidden
	}

	var author models.User
	if err := s.db.First(&author, authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	note := models.ShiftNote{
		ShiftRequestID: requestID,
		UserID:         authorID,
		Content:        content,
	}
	if err := s.db.Create(&note).Error; err != nil {
		return nil, err
	}
	note.User = author

	return &note, nil
}
