package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dtapp/campus_core/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryUpdates struct {
	updates map[uuid.UUID]*model.LectureUpdate
	err     error
}

func (m *memoryUpdates) Create(_ context.Context, update *model.LectureUpdate) error {
	if m.err != nil {
		return m.err
	}
	m.updates[update.ID] = update
	return nil
}

func (m *memoryUpdates) GetByID(_ context.Context, id uuid.UUID) (*model.LectureUpdate, error) {
	return m.updates[id], m.err
}

var dbmsClass = model.ClassDescriptor{AcademicYear: "2", Branch: "IT", Division: "A", Subject: "DBMS"}

func TestUpdateService_CreateUpdateDoesNotNotify(t *testing.T) {
	store := &memoryUpdates{updates: map[uuid.UUID]*model.LectureUpdate{}}
	notifier := &fakeNotifier{}
	s := NewUpdateService(store, notifier, zap.NewNop())

	teacher := &model.User{UID: "prof", Role: model.RoleTeacher}
	update, err := s.CreateUpdate(context.Background(), teacher, dbmsClass, "Cancelled", " No class today ")
	require.NoError(t, err)

	assert.Equal(t, "No class today", update.Message)
	assert.Equal(t, "prof", update.CreatedBy)
	assert.Contains(t, store.updates, update.ID)
	assert.Empty(t, notifier.calls)
}

func TestUpdateService_CreateUpdateValidation(t *testing.T) {
	store := &memoryUpdates{updates: map[uuid.UUID]*model.LectureUpdate{}}
	s := NewUpdateService(store, &fakeNotifier{}, zap.NewNop())
	teacher := &model.User{UID: "prof", Role: model.RoleTeacher}

	_, err := s.CreateUpdate(context.Background(), &model.User{UID: "stu", Role: model.RoleStudent}, dbmsClass, "Cancelled", "x")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.CreateUpdate(context.Background(), teacher, dbmsClass, "", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.CreateUpdate(context.Background(), teacher, model.ClassDescriptor{Branch: "IT", Division: "A"}, "Cancelled", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	long := strings.Repeat("я", maxUpdateMessageLength+1)
	_, err = s.CreateUpdate(context.Background(), teacher, dbmsClass, "Cancelled", long)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.CreateUpdate(context.Background(), teacher, dbmsClass, strings.Repeat("x", maxUpdateTypeLength+1), "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	longSubject := dbmsClass
	longSubject.Subject = strings.Repeat("s", maxUpdateSubjectLength+1)
	_, err = s.CreateUpdate(context.Background(), teacher, longSubject, "Cancelled", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Empty(t, store.updates)

	// Граница включительно, длина считается в символах
	_, err = s.CreateUpdate(context.Background(), teacher, dbmsClass, "Cancelled", strings.Repeat("я", maxUpdateMessageLength))
	require.NoError(t, err)
}

func TestUpdateService_HandleUpdateCreated(t *testing.T) {
	update := &model.LectureUpdate{ID: uuid.New(), ClassInfo: dbmsClass, UpdateType: "Venue Change", Message: "Moved to Lab 3"}
	store := &memoryUpdates{updates: map[uuid.UUID]*model.LectureUpdate{update.ID: update}}
	notifier := &fakeNotifier{}
	s := NewUpdateService(store, notifier, zap.NewNop())

	require.NoError(t, s.HandleUpdateCreated(context.Background(), update.ID))

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, dbmsClass, notifier.calls[0].class)
	assert.Equal(t, "Update for DBMS [Venue Change]", notifier.calls[0].msg.Title)
	assert.Equal(t, "Moved to Lab 3", notifier.calls[0].msg.Body)
}

func TestUpdateService_HandleUpdateCreatedEdgeCases(t *testing.T) {
	t.Run("missing record", func(t *testing.T) {
		notifier := &fakeNotifier{}
		s := NewUpdateService(&memoryUpdates{updates: map[uuid.UUID]*model.LectureUpdate{}}, notifier, zap.NewNop())

		require.NoError(t, s.HandleUpdateCreated(context.Background(), uuid.New()))
		assert.Empty(t, notifier.calls)
	})

	t.Run("delivery failure is swallowed", func(t *testing.T) {
		update := &model.LectureUpdate{ID: uuid.New(), ClassInfo: dbmsClass, UpdateType: "Cancelled", Message: "x"}
		notifier := &fakeNotifier{err: ErrDeliveryFailed}
		s := NewUpdateService(&memoryUpdates{updates: map[uuid.UUID]*model.LectureUpdate{update.ID: update}}, notifier, zap.NewNop())

		require.NoError(t, s.HandleUpdateCreated(context.Background(), update.ID))
		assert.Len(t, notifier.calls, 1)
	})

	t.Run("store failure", func(t *testing.T) {
		s := NewUpdateService(&memoryUpdates{err: errors.New("db down")}, &fakeNotifier{}, zap.NewNop())
		require.Error(t, s.HandleUpdateCreated(context.Background(), uuid.New()))
	})
}
