package admin

import (
	"errors"
	"strings"

	"dienstwunsch-backend/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("Benutzer nicht gefunden")
	ErrNameTaken    = errors.New("Name ist bereits vergeben")
	ErrValidation   = errors.New("Ungültige Eingabe")
	// Es muss immer mindestens ein Administrator übrig bleiben.
	ErrLastAdmin = errors.New("Der letzte Administrator kann nicht entfernt werden")
)

// Service: Benutzerverwaltung für Administratoren.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

func (s *Service) ListUsers() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("name ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Service) CreateUser(name, password string, isAdmin bool) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return nil, ErrValidation
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrNameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         name,
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
		// Vom Admin vergebene Passwörter müssen beim ersten Login geändert werden
		MustChangePassword: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	s.logger.Info("Benutzer angelegt", zap.String("name", user.Name), zap.Bool("is_admin", user.IsAdmin))
	return &user, nil
}

// DeleteUser entfernt einen Benutzer mitsamt Wünschen, Snapshots und
// Notizen in einer Transaktion.
func (s *Service) DeleteUser(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if user.IsAdmin {
			var admins int64
			if err := tx.Model(&models.User{}).Where("is_admin = ?", true).Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		// Notizen an eigenen Wünschen und selbst verfasste Notizen
		ownRequests := tx.Model(&models.ShiftRequest{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("shift_request_id IN (?) OR user_id = ?", ownRequests, id).
			Delete(&models.ShiftNote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.ShiftRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.ShiftRequestSnapshot{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&user).Error; err != nil {
			return err
		}

		s.logger.Info("Benutzer gelöscht", zap.Uint("user_id", id), zap.String("name", user.Name))
		return nil
	})
}

// SetAdmin setzt oder entzieht die Admin-Rolle. Der letzte Administrator
// kann nicht degradiert werden.
func (s *Service) SetAdmin(id uint, isAdmin bool) (*models.User, error) {
	var user models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if user.IsAdmin && !isAdmin {
			var admins int64
			if err := tx.Model(&models.User{}).Where("is_admin = ?", true).Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		if err := tx.Model(&user).Update("is_admin", isAdmin).Error; err != nil {
			return err
		}
		user.IsAdmin = isAdmin
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Admin-Rolle geändert", zap.Uint("user_id", id), zap.Bool("is_admin", isAdmin))
	return &user, nil
}

// ResetPassword vergibt ein neues Passwort und erzwingt die Änderung beim
// nächsten Login.
func (s *Service) ResetPassword(id uint, password string) error {
	if password == "" {
		return ErrValidation
	}

	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"password_hash":        string(hash),
		"must_change_password": true,
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return err
	}

	s.logger.Info("Passwort zurückgesetzt", zap.Uint("user_id", id))
	return nil
}
