package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/healthconnect-api/internal/dto"
	"github.com/noah-isme/healthconnect-api/internal/models"
	"github.com/noah-isme/healthconnect-api/internal/repository"
	appErrors "github.com/noah-isme/healthconnect-api/pkg/errors"
	"github.com/noah-isme/healthconnect-api/pkg/validation"
)

const (
	msgPastDate          = "Appointment date cannot be in the past"
	msgWeekend           = "Appointments are not available on weekends. Please select a weekday."
	msgSlotTaken         = "Time slot is already booked"
	msgOnlyPendingAssign = "Only pending appointments can be assigned"
	msgInvalidNurse      = "Invalid nurse"
)

type appointmentStore interface {
	List(ctx context.Context, filter dto.AppointmentFilter) ([]dto.AppointmentDetail, error)
	FindByID(ctx context.Context, id int64) (*models.Appointment, error)
	FindDetail(ctx context.Context, id int64) (*dto.AppointmentDetail, error)
	SlotTaken(ctx context.Context, date models.Date, slot string, excludeID int64) (bool, error)
	TakenSlots(ctx context.Context, date models.Date) ([]string, error)
	Create(ctx context.Context, appt *models.Appointment) error
	Update(ctx context.Context, appt *models.Appointment) error
	Assign(ctx context.Context, id int64, nurseID string) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type userDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type statsInvalidator interface {
	Invalidate(ctx context.Context)
}

type appointmentEvents interface {
	RecordAppointmentEvent(event string)
}

// Lifecycle events counted per mutation.
const (
	eventBooked    = "booked"
	eventAssigned  = "assigned"
	eventUpdated   = "updated"
	eventCompleted = "completed"
	eventCancelled = "cancelled"
)

// AppointmentConfig carries the clinic calendar.
type AppointmentConfig struct {
	Location  *time.Location
	TimeSlots []string
}

// AppointmentService implements the appointment lifecycle.
type AppointmentService struct {
	store     appointmentStore
	users     userDirectory
	notifier  Notifier
	stats     statsInvalidator
	events    appointmentEvents
	validator *validator.Validate
	logger    *zap.Logger
	config    AppointmentConfig
	now       func() time.Time
}

// NewAppointmentService wires the lifecycle service. notifier and stats may be nil.
func NewAppointmentService(store appointmentStore, users userDirectory, notifier Notifier, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger, config AppointmentConfig) *AppointmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &AppointmentService{
		store:     store,
		users:     users,
		notifier:  notifier,
		stats:     stats,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

func (s *AppointmentService) today() models.Date {
	return models.DateOf(s.now().In(s.config.Location))
}

// Principal loads the caller from the directory. The stored role wins over
// whatever the token claims.
func (s *AppointmentService) Principal(ctx context.Context, userID string) (Principal, error) {
	return resolvePrincipal(ctx, s.users, userID)
}

func resolvePrincipal(ctx context.Context, users userDirectory, userID string) (Principal, error) {
	user, err := loadActiveUser(ctx, users, userID)
	if err != nil {
		return Principal{}, err
	}
	return NewPrincipal(user), nil
}

// loadActiveUser returns the stored account behind a token subject. Missing
// and inactive accounts are Unauthenticated.
func loadActiveUser(ctx context.Context, users userDirectory, userID string) (*models.User, error) {
	if userID == "" {
		return nil, appErrors.ErrUnauthenticated
	}
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "account is inactive")
	}
	return user, nil
}

// List returns the appointments visible to the caller, newest first.
func (s *AppointmentService) List(ctx context.Context, userID string) ([]dto.AppointmentDetail, error) {
	p, err := s.Principal(ctx, userID)
	if err != nil {
		return nil, err
	}
	filter, err := ListScope(p)
	if err != nil {
		return nil, err
	}
	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return items, nil
}

// Get returns one appointment if the caller may see it.
func (s *AppointmentService) Get(ctx context.Context, userID string, id int64) (*dto.AppointmentDetail, error) {
	p, err := s.Principal(ctx, userID)
	if err != nil {
		return nil, err
	}
	detail, err := s.store.FindDetail(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "failed to load appointment")
	}
	if err := Authorize(p, ActionRead, detail.Appointment()); err != nil {
		return nil, err
	}
	return detail, nil
}

// Create books a new pending appointment for the calling student.
func (s *AppointmentService) Create(ctx context.Context, userID string, req dto.CreateAppointmentRequest) (*dto.AppointmentDetail, error) {
	p, err := s.Principal(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}
	if err := s.checkBookable(ctx, req.AppointmentDate, req.TimeSlot, 0); err != nil {
		return nil, err
	}

	appt := &models.Appointment{
		StudentID:           p.ID,
		AppointmentDate:     req.AppointmentDate,
		TimeSlot:            req.TimeSlot,
		ConsultationType:    req.ConsultationType,
		Status:              models.StatusPending,
		SymptomsDescription: req.SymptomsDescription,
	}
	if req.Notes != "" {
		appt.Notes = models.StringPtr(req.Notes)
	}
	if err := s.store.Create(ctx, appt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, appErrors.Clone(appErrors.ErrConflict, msgSlotTaken)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment")
	}
	s.logger.Info("appointment booked", zap.Int64("appointment_id", appt.ID), zap.String("student_id", p.ID), zap.String("date", appt.AppointmentDate.String()), zap.String("time_slot", appt.TimeSlot))

	s.mutated(ctx, eventBooked)
	if s.notifier != nil {
		s.notifier.NotifyNewAppointment(ctx, *appt, dto.NewStudentSummary(p.User))
	}

	detail, err := s.store.FindDetail(ctx, appt.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load created appointment")
	}
	return detail, nil
}

func (s *AppointmentService) validateCreate(req dto.CreateAppointmentRequest) error {
	details := map[string]string{}
	if err := s.validator.Struct(req); err != nil {
		details = validation.Details(err)
		if details == nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid appointment payload")
		}
	}
	if req.AppointmentDate.IsZero() {
		details["appointmentDate"] = "is required"
	}
	if len(details) > 0 {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid appointment payload"), details)
	}
	return nil
}

// checkBookable applies the calendar rules and the slot pre-check.
func (s *AppointmentService) checkBookable(ctx context.Context, date models.Date, slot string, excludeID int64) error {
	if date.Before(s.today()) {
		return appErrors.Clone(appErrors.ErrInvalidArgument, msgPastDate)
	}
	if date.IsWeekend() {
		return appErrors.Clone(appErrors.ErrInvalidArgument, msgWeekend)
	}
	taken, err := s.store.SlotTaken(ctx, date, slot, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrConflict, msgSlotTaken)
	}
	return nil
}

// Assign attaches a nurse to a pending appointment.
func (s *AppointmentService) Assign(ctx context.Context, userID string, id int64, req dto.AssignAppointmentRequest) error {
	p, err := s.Principal(ctx, userID)
	if err != nil {
		return err
	}
	if err := Authorize(p, ActionAssign, nil); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid assignment payload"), validation.Details(err))
	}

	appt, err := s.store.FindByID(ctx, id)
	if err != nil {
		return notFoundOrInternal(err, "failed to load appointment")
	}
	if appt.Status != models.StatusPending {
		return appErrors.Clone(appErrors.ErrInvalidState, msgOnlyPendingAssign)
	}
	nurse, err := s.loadNurse(ctx, req.NurseID)
	if err != nil {
		return err
	}

	ok, err := s.store.Assign(ctx, id, nurse.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign appointment")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrInvalidState, msgOnlyPendingAssign)
	}
	appt.NurseID = &nurse.ID
	appt.Status = models.StatusAssigned
	s.logger.Info("appointment assigned", zap.Int64("appointment_id", id), zap.String("nurse_id", nurse.ID), zap.String("admin_id", p.ID))

	s.mutated(ctx, eventAssigned)
	if s.notifier != nil {
		if student := s.lookupUser(ctx, appt.StudentID); student != nil {
			s.notifier.NotifyAssigned(ctx, *appt, student.Email, dto.NewNurseSummary(nurse))
		}
	}
	return nil
}

func (s *AppointmentService) loadNurse(ctx context.Context, nurseID string) (*models.User, error) {
	nurse, err := s.users.FindByID(ctx, nurseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidArgument, msgInvalidNurse)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load nurse")
	}
	if nurse.Role != models.RoleNurse {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, msgInvalidNurse)
	}
	return nurse, nil
}

// Update applies a partial update. Only fields present in req are touched.
func (s *AppointmentService) Update(ctx context.Context, userID string, id int64, req dto.UpdateAppointmentRequest) error {
	p, err := s.Principal(ctx, userID)
	if err != nil {
		return err
	}
	appt, err := s.store.FindByID(ctx, id)
	if err != nil {
		return notFoundOrInternal(err, "failed to load appointment")
	}
	if err := Authorize(p, ActionUpdate, appt); err != nil {
		return err
	}

	previous := appt.Status
	rescheduled, nurse, err := s.applyUpdate(ctx, p, appt, req)
	if err != nil {
		return err
	}
	if rescheduled {
		if err := s.checkBookable(ctx, appt.AppointmentDate, appt.TimeSlot, appt.ID); err != nil {
			return err
		}
	}

	if err := s.store.Update(ctx, appt); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			return appErrors.Clone(appErrors.ErrConflict, msgSlotTaken)
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update appointment")
	}
	s.logger.Info("appointment updated", zap.Int64("appointment_id", appt.ID), zap.String("actor_id", p.ID), zap.String("status", string(appt.Status)))

	if previous != models.StatusCompleted && appt.Status == models.StatusCompleted {
		s.mutated(ctx, eventCompleted)
		s.notifyCompleted(ctx, appt, nurse)
		return nil
	}
	s.mutated(ctx, eventUpdated)
	return nil
}

// applyUpdate mutates appt in place. It reports whether the date or slot
// changed and returns the newly assigned nurse when nurseId was replaced.
func (s *AppointmentService) applyUpdate(ctx context.Context, p Principal, appt *models.Appointment, req dto.UpdateAppointmentRequest) (bool, *models.User, error) {
	if p.Role == models.RoleStudent && (req.Status.Set || req.Prescription.Set || req.NurseID.Set) {
		return false, nil, appErrors.Clone(appErrors.ErrForbidden, "students cannot change status, prescription or nurse")
	}
	if p.Role == models.RoleNurse && req.NurseID.Set {
		return false, nil, appErrors.Clone(appErrors.ErrForbidden, "nurses cannot reassign appointments")
	}

	rescheduled := false
	if req.AppointmentDate.Set {
		if !req.AppointmentDate.HasValue() || req.AppointmentDate.Value.IsZero() {
			return false, nil, appErrors.Clone(appErrors.ErrInvalidArgument, "appointmentDate cannot be cleared")
		}
		if !req.AppointmentDate.Value.Equal(appt.AppointmentDate) {
			appt.AppointmentDate = req.AppointmentDate.Value
			rescheduled = true
		}
	}
	if req.TimeSlot.Set {
		if !req.TimeSlot.HasValue() || !validation.TimeSlot(req.TimeSlot.Value) {
			return false, nil, appErrors.Clone(appErrors.ErrInvalidArgument, "timeSlot must use HH:MM")
		}
		if req.TimeSlot.Value != appt.TimeSlot {
			appt.TimeSlot = req.TimeSlot.Value
			rescheduled = true
		}
	}
	if req.ConsultationType.Set {
		v := req.ConsultationType.Value
		if !req.ConsultationType.HasValue() || (v != models.ConsultationInPerson && v != models.ConsultationTeleConsult) {
			return false, nil, appErrors.Clone(appErrors.ErrInvalidArgument, "consultationType must be InPerson or TeleConsult")
		}
		appt.ConsultationType = v
	}
	if req.SymptomsDescription.Set {
		if !req.SymptomsDescription.HasValue() || req.SymptomsDescription.Value == "" {
			return false, nil, appErrors.Clone(appErrors.ErrInvalidArgument, "symptomsDescription cannot be empty")
		}
		appt.SymptomsDescription = req.SymptomsDescription.Value
	}
	if req.Notes.Set {
		appt.Notes = optionalText(req.Notes)
	}
	if req.Prescription.Set {
		appt.Prescription = optionalText(req.Prescription)
	}

	var nurse *models.User
	if req.NurseID.Set {
		if !req.NurseID.HasValue() || req.NurseID.Value == "" {
			return false, nil, appErrors.Clone(appErrors.ErrInvalidArgument, "nurseId cannot be cleared")
		}
		if appt.Status == models.StatusPending {
			return false, nil, appErrors.Clone(appErrors.ErrInvalidState, "use the assign operation for pending appointments")
		}
		if !appt.IsAssignedTo(req.NurseID.Value) {
			loaded, err := s.loadNurse(ctx, req.NurseID.Value)
			if err != nil {
				return false, nil, err
			}
			appt.NurseID = &loaded.ID
			nurse = loaded
		}
	}

	if req.Status.Set {
		if err := applyStatus(appt, req.Status); err != nil {
			return false, nil, err
		}
	}
	return rescheduled, nurse, nil
}

// applyStatus accepts any non-empty status while keeping nurseId null
// exactly when the appointment is pending.
func applyStatus(appt *models.Appointment, status dto.Optional[string]) error {
	if !status.HasValue() || status.Value == "" {
		return appErrors.Clone(appErrors.ErrInvalidArgument, "status cannot be empty")
	}
	next := models.AppointmentStatus(status.Value)
	if next == appt.Status {
		return nil
	}
	switch {
	case appt.Status == models.StatusPending:
		return appErrors.Clone(appErrors.ErrInvalidState, "pending appointments must be assigned before their status can change")
	case next == models.StatusPending:
		return appErrors.Clone(appErrors.ErrInvalidState, "appointments cannot return to Pending")
	case appt.Status == models.StatusCompleted:
		return appErrors.Clone(appErrors.ErrInvalidState, "completed appointments cannot be reopened")
	}
	appt.Status = next
	return nil
}

func optionalText(o dto.Optional[string]) *string {
	if !o.HasValue() {
		return nil
	}
	return models.StringPtr(o.Value)
}

func (s *AppointmentService) notifyCompleted(ctx context.Context, appt *models.Appointment, nurse *models.User) {
	if s.notifier == nil {
		return
	}
	student := s.lookupUser(ctx, appt.StudentID)
	if student == nil {
		return
	}
	if nurse == nil && appt.NurseID != nil {
		nurse = s.lookupUser(ctx, *appt.NurseID)
	}
	nurseName := ""
	if nurse != nil {
		nurseName = nurse.FullName
	}
	s.notifier.NotifyCompleted(ctx, *appt, student.Email, nurseName, models.StringValue(appt.Prescription))
}

// Delete permanently removes an appointment.
func (s *AppointmentService) Delete(ctx context.Context, userID string, id int64) error {
	p, err := s.Principal(ctx, userID)
	if err != nil {
		return err
	}
	appt, err := s.store.FindByID(ctx, id)
	if err != nil {
		return notFoundOrInternal(err, "failed to load appointment")
	}
	if err := Authorize(p, ActionDelete, appt); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return notFoundOrInternal(err, "failed to delete appointment")
	}
	s.logger.Info("appointment deleted", zap.Int64("appointment_id", id), zap.String("actor_id", p.ID), zap.String("status", string(appt.Status)))
	s.mutated(ctx, eventCancelled)
	return nil
}

// Slots lists the clinic slots of a date and whether each is free. Past and
// weekend dates report every slot as unavailable.
func (s *AppointmentService) Slots(ctx context.Context, date models.Date) (*dto.DaySlots, error) {
	if date.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "date is required")
	}
	result := &dto.DaySlots{Date: date, Slots: make([]dto.SlotAvailability, 0, len(s.config.TimeSlots))}
	closed := date.Before(s.today()) || date.IsWeekend()

	taken := map[string]bool{}
	if !closed {
		slots, err := s.store.TakenSlots(ctx, date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slots")
		}
		for _, slot := range slots {
			taken[slot] = true
		}
	}
	for _, slot := range s.config.TimeSlots {
		result.Slots = append(result.Slots, dto.SlotAvailability{TimeSlot: slot, Available: !closed && !taken[slot]})
	}
	return result, nil
}

func (s *AppointmentService) lookupUser(ctx context.Context, id string) *models.User {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("notification recipient lookup failed", zap.String("user_id", id), zap.Error(err))
		return nil
	}
	return user
}

// UseMetrics counts lifecycle events on m.
func (s *AppointmentService) UseMetrics(m appointmentEvents) {
	s.events = m
}

func (s *AppointmentService) mutated(ctx context.Context, event string) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
	if s.events != nil {
		s.events.RecordAppointmentEvent(event)
	}
}

func notFoundOrInternal(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
