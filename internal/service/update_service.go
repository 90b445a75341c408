package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ограничения длины: текст уходит в push-уведомление, а FCM принимает не больше 4 КБ
const (
	maxUpdateTypeLength    = 64
	maxUpdateSubjectLength = 100
	maxUpdateMessageLength = 1000
)

// LectureUpdateStore хранилище объявлений преподавателей
type LectureUpdateStore interface {
	Create(ctx context.Context, update *model.LectureUpdate) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.LectureUpdate, error)
}

// UpdateService публикует объявления и рассылает их потокам при создании
type UpdateService struct {
	updates  LectureUpdateStore
	notifier Notifier
	logger   *zap.Logger
}

func NewUpdateService(updates LectureUpdateStore, notifier Notifier, logger *zap.Logger) *UpdateService {
	return &UpdateService{
		updates:  updates,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateUpdate сохраняет объявление. Рассылка запускается триггером на вставку
// (см. app.UpdateListener), а не здесь.
func (s *UpdateService) CreateUpdate(
	ctx context.Context,
	author *model.User,
	class model.ClassDescriptor,
	updateType string,
	message string,
) (*model.LectureUpdate, error) {
	if !author.HasRole(model.RoleTeacher, model.RoleAdmin) {
		return nil, ErrForbidden
	}

	updateType = strings.TrimSpace(updateType)
	message = strings.TrimSpace(message)
	if updateType == "" || message == "" || class.AcademicYear == "" || class.Branch == "" || class.Division == "" {
		return nil, ErrInvalidInput
	}
	if utf8.RuneCountInString(updateType) > maxUpdateTypeLength ||
		utf8.RuneCountInString(class.Subject) > maxUpdateSubjectLength ||
		utf8.RuneCountInString(message) > maxUpdateMessageLength {
		return nil, ErrInvalidInput
	}

	update := &model.LectureUpdate{
		ID:         uuid.New(),
		ClassInfo:  class,
		UpdateType: updateType,
		Message:    message,
		CreatedBy:  author.UID,
	}

	if err := s.updates.Create(ctx, update); err != nil {
		return nil, fmt.Errorf("create lecture update: %w", err)
	}

	s.logger.Info("Lecture update created",
		zap.String("update_id", update.ID.String()),
		zap.String("cohort", class.Cohort()),
		zap.String("update_type", updateType),
	)

	return update, nil
}

// HandleUpdateCreated вызывается один раз на каждое новое объявление.
// Ошибки доставки логируются и не возвращаются: обработка события считается успешной.
func (s *UpdateService) HandleUpdateCreated(ctx context.Context, id uuid.UUID) error {
	update, err := s.updates.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get lecture update: %w", err)
	}
	if update == nil {
		s.logger.Warn("No data associated with the event", zap.String("update_id", id.String()))
		return nil
	}

	s.logger.Info("New lecture update created",
		zap.String("update_id", id.String()),
		zap.String("subject", update.ClassInfo.Subject),
	)

	msg := model.PushMessage{
		Title: fmt.Sprintf("Update for %s [%s]", update.ClassInfo.Subject, update.UpdateType),
		Body:  update.Message,
	}

	if _, err := s.notifier.Notify(ctx, update.ClassInfo, msg); err != nil {
		s.logger.Error("Failed to send update notification",
			zap.String("update_id", id.String()),
			zap.Error(err),
		)
	}

	return nil
}
