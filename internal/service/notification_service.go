package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/healthconnect-api/internal/dto"
	"github.com/noah-isme/healthconnect-api/internal/models"
	"github.com/noah-isme/healthconnect-api/pkg/jobs"
	"github.com/noah-isme/healthconnect-api/pkg/mailer"
)

// Notification kinds, also used as job types and metric labels.
const (
	NotificationNewAppointment = "new_appointment"
	NotificationAssigned       = "assigned"
	NotificationCompleted      = "completed"
)

// Outcome labels recorded per notification.
const (
	notificationQueued  = "queued"
	notificationSent    = "sent"
	notificationFailed  = "failed"
	notificationDropped = "dropped"
	notificationSkipped = "skipped"
)

const (
	defaultNurseName           = "Your Nurse"
	defaultNurseSpecialization = "General Nursing"
)

// Notifier receives lifecycle events. Implementations never report errors
// back to the caller.
type Notifier interface {
	NotifyNewAppointment(ctx context.Context, appt models.Appointment, student dto.StudentSummary)
	NotifyAssigned(ctx context.Context, appt models.Appointment, studentEmail string, nurse dto.NurseSummary)
	NotifyCompleted(ctx context.Context, appt models.Appointment, studentEmail, nurseName, prescription string)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationOptions configures message rendering.
type NotificationOptions struct {
	ClinicName string
	AdminEmail string
}

// NotificationService renders lifecycle emails and hands them to the job
// queue for delivery.
type NotificationService struct {
	sender  mailer.Sender
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
	opts    NotificationOptions
}

// NewNotificationService constructs the service. Without a queue every
// notification is skipped.
func NewNotificationService(sender mailer.Sender, metrics *MetricsService, logger *zap.Logger, opts NotificationOptions) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ClinicName == "" {
		opts.ClinicName = "Madiba HealthConnect"
	}
	return &NotificationService{sender: sender, metrics: metrics, logger: logger, opts: opts}
}

// UseQueue attaches the delivery queue.
func (s *NotificationService) UseQueue(q jobEnqueuer) {
	s.queue = q
}

type emailView struct {
	ClinicName          string
	Heading             string
	StudentName         string
	StudentNumber       string
	StudentPhone        string
	NurseName           string
	NurseSpecialization string
	Date                string
	TimeSlot            string
	ConsultationType    string
	Status              string
	Symptoms            string
	Prescription        string
}

func (s *NotificationService) view(appt models.Appointment, heading string) emailView {
	return emailView{
		ClinicName:       s.opts.ClinicName,
		Heading:          heading,
		Date:             appt.AppointmentDate.Format("Monday, January 02, 2006"),
		TimeSlot:         appt.TimeSlot,
		ConsultationType: consultationLabel(appt.ConsultationType),
		Status:           string(appt.Status),
		Symptoms:         appt.SymptomsDescription,
	}
}

// NotifyNewAppointment alerts the clinic administrator about a booking.
func (s *NotificationService) NotifyNewAppointment(ctx context.Context, appt models.Appointment, student dto.StudentSummary) {
	v := s.view(appt, "New Appointment Notification")
	v.StudentName = student.FullName
	v.StudentNumber = orNA(student.StudentNumber)
	v.StudentPhone = orNA(student.PhoneNumber)

	s.dispatch(ctx, NotificationNewAppointment, appt.ID, v, mailer.Message{
		To:       s.opts.AdminEmail,
		ToName:   "Clinic Administrator",
		Subject:  fmt.Sprintf("New Appointment Booked - %s", student.FullName),
		TextBody: fmt.Sprintf("%s booked a %s appointment on %s at %s. Please assign a nurse.", student.FullName, v.ConsultationType, v.Date, v.TimeSlot),
	})
}

// NotifyAssigned tells the student which nurse will see them.
func (s *NotificationService) NotifyAssigned(ctx context.Context, appt models.Appointment, studentEmail string, nurse dto.NurseSummary) {
	v := s.view(appt, "Appointment Assigned")
	v.NurseName = orDefault(nurse.FullName, defaultNurseName)
	v.NurseSpecialization = orDefault(nurse.Specialization, defaultNurseSpecialization)

	s.dispatch(ctx, NotificationAssigned, appt.ID, v, mailer.Message{
		To:       studentEmail,
		Subject:  fmt.Sprintf("Your Appointment Has Been Assigned - %s", s.opts.ClinicName),
		TextBody: fmt.Sprintf("Your appointment on %s at %s is with %s (%s).", v.Date, v.TimeSlot, v.NurseName, v.NurseSpecialization),
	})
}

// NotifyCompleted sends the consultation summary and prescription.
func (s *NotificationService) NotifyCompleted(ctx context.Context, appt models.Appointment, studentEmail, nurseName, prescription string) {
	v := s.view(appt, "Consultation Complete")
	v.NurseName = orDefault(nurseName, defaultNurseName)
	v.Prescription = prescription

	text := fmt.Sprintf("Your consultation with %s on %s has been completed.", v.NurseName, v.Date)
	if prescription != "" {
		text += "\n\nPrescription & Instructions:\n" + prescription
	}
	s.dispatch(ctx, NotificationCompleted, appt.ID, v, mailer.Message{
		To:       studentEmail,
		Subject:  fmt.Sprintf("Your Consultation is Complete - %s", s.opts.ClinicName),
		TextBody: text,
	})
}

func (s *NotificationService) dispatch(ctx context.Context, kind string, appointmentID int64, v emailView, msg mailer.Message) {
	log := s.logger.With(zap.String("notification", kind), zap.Int64("appointment_id", appointmentID))

	if s.queue == nil {
		s.record(kind, notificationSkipped)
		log.Debug("notifications disabled, skipping")
		return
	}
	if err := msg.Validate(); err != nil {
		s.record(kind, notificationDropped)
		log.Warn("notification has no deliverable recipient", zap.Error(err))
		return
	}

	var body bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&body, kind, v); err != nil {
		s.record(kind, notificationDropped)
		log.Error("render notification", zap.Error(err))
		return
	}
	msg.HTMLBody = body.String()

	if err := s.queue.Enqueue(jobs.Job{Type: kind, Payload: msg}); err != nil {
		s.record(kind, notificationDropped)
		log.Warn("enqueue notification", zap.Error(err))
		return
	}
	s.record(kind, notificationQueued)
}

// Deliver is the queue handler sending one rendered message.
func (s *NotificationService) Deliver(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		s.record(job.Type, notificationDropped)
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s notification: %w", job.Type, err)
	}
	s.record(job.Type, notificationSent)
	s.logger.Info("notification sent", zap.String("notification", job.Type), zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

// DeliveryFailed records a message that exhausted its retries.
func (s *NotificationService) DeliveryFailed(job jobs.Job, err error) {
	s.record(job.Type, notificationFailed)
	s.logger.Warn("notification delivery failed", zap.String("notification", job.Type), zap.String("job_id", job.ID), zap.Error(err))
}

func (s *NotificationService) record(kind, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordNotification(kind, outcome)
	}
}

func consultationLabel(kind string) string {
	switch kind {
	case models.ConsultationInPerson:
		return "In-Person"
	case models.ConsultationTeleConsult:
		return "Tele-Consult"
	default:
		return kind
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func orNA(value string) string {
	return orDefault(value, "N/A")
}
