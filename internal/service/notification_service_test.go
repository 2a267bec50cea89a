package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/healthconnect-api/internal/dto"
	"github.com/noah-isme/healthconnect-api/internal/models"
	"github.com/noah-isme/healthconnect-api/pkg/jobs"
	"github.com/noah-isme/healthconnect-api/pkg/mailer"
)

type stubQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *stubQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type stubSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *stubSender) Send(ctx context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func sampleAppointment(t *testing.T) models.Appointment {
	return models.Appointment{
		ID:                  12,
		StudentID:           "s1",
		AppointmentDate:     date(t, "2025-03-10"),
		TimeSlot:            "10:00",
		ConsultationType:    models.ConsultationTeleConsult,
		Status:              models.StatusPending,
		SymptomsDescription: "Sore <throat>",
	}
}

func newTestNotifier(sender mailer.Sender, queue *stubQueue) (*NotificationService, *MetricsService) {
	metrics := NewMetricsService()
	svc := NewNotificationService(sender, metrics, nil, NotificationOptions{AdminEmail: "admin@mandela.ac.za"})
	if queue != nil {
		svc.UseQueue(queue)
	}
	return svc, metrics
}

func TestNotifyNewAppointmentRendersAdminEmail(t *testing.T) {
	queue := &stubQueue{}
	svc, metrics := newTestNotifier(&stubSender{}, queue)

	svc.NotifyNewAppointment(context.Background(), sampleAppointment(t), dto.StudentSummary{FullName: "Thabo M", StudentNumber: "s221"})

	require.Len(t, queue.jobs, 1)
	job := queue.jobs[0]
	assert.Equal(t, NotificationNewAppointment, job.Type)
	msg, ok := job.Payload.(mailer.Message)
	require.True(t, ok)
	assert.Equal(t, "admin@mandela.ac.za", msg.To)
	assert.Equal(t, "New Appointment Booked - Thabo M", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Monday, March 10, 2025")
	assert.Contains(t, msg.HTMLBody, "Tele-Consult")
	assert.Contains(t, msg.HTMLBody, "N/A", "missing phone number")
	assert.Contains(t, msg.HTMLBody, "Sore &lt;throat&gt;")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.notifications.WithLabelValues(NotificationNewAppointment, notificationQueued)))
}

func TestNotifyAssignedDefaults(t *testing.T) {
	queue := &stubQueue{}
	svc, _ := newTestNotifier(&stubSender{}, queue)

	svc.NotifyAssigned(context.Background(), sampleAppointment(t), "student@mandela.ac.za", dto.NurseSummary{})

	require.Len(t, queue.jobs, 1)
	msg := queue.jobs[0].Payload.(mailer.Message)
	assert.Equal(t, "Your Appointment Has Been Assigned - Madiba HealthConnect", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Your Nurse")
	assert.Contains(t, msg.HTMLBody, "General Nursing")
}

func TestNotifyCompletedIncludesPrescription(t *testing.T) {
	queue := &stubQueue{}
	svc, _ := newTestNotifier(&stubSender{}, queue)

	svc.NotifyCompleted(context.Background(), sampleAppointment(t), "student@mandela.ac.za", "Nurse N", "Rest and fluids")

	require.Len(t, queue.jobs, 1)
	msg := queue.jobs[0].Payload.(mailer.Message)
	assert.Equal(t, "Your Consultation is Complete - Madiba HealthConnect", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Rest and fluids")
	assert.Contains(t, msg.TextBody, "Rest and fluids")
}

func TestNotifyNeverFails(t *testing.T) {
	queue := &stubQueue{err: jobs.ErrQueueFull}
	svc, metrics := newTestNotifier(&stubSender{}, queue)

	assert.NotPanics(t, func() {
		svc.NotifyCompleted(context.Background(), sampleAppointment(t), "student@mandela.ac.za", "Nurse N", "")
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.notifications.WithLabelValues(NotificationCompleted, notificationDropped)))

	svc.NotifyCompleted(context.Background(), sampleAppointment(t), "", "Nurse N", "")
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.notifications.WithLabelValues(NotificationCompleted, notificationDropped)))
}

func TestNotifyWithoutQueueSkips(t *testing.T) {
	sender := &stubSender{}
	svc, metrics := newTestNotifier(sender, nil)

	svc.NotifyAssigned(context.Background(), sampleAppointment(t), "student@mandela.ac.za", dto.NurseSummary{FullName: "Nurse N"})
	assert.Empty(t, sender.sent)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.notifications.WithLabelValues(NotificationAssigned, notificationSkipped)))
}

func TestDeliverAndFailure(t *testing.T) {
	sender := &stubSender{}
	svc, metrics := newTestNotifier(sender, &stubQueue{})
	msg := mailer.Message{To: "student@mandela.ac.za", Subject: "hi"}

	require.NoError(t, svc.Deliver(context.Background(), jobs.Job{ID: "j1", Type: NotificationAssigned, Payload: msg}))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.notifications.WithLabelValues(NotificationAssigned, notificationSent)))

	sender.err = errors.New("smtp down")
	err := svc.Deliver(context.Background(), jobs.Job{ID: "j2", Type: NotificationAssigned, Payload: msg})
	assert.Error(t, err)

	svc.DeliveryFailed(jobs.Job{ID: "j2", Type: NotificationAssigned}, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.notifications.WithLabelValues(NotificationAssigned, notificationFailed)))

	assert.NoError(t, svc.Deliver(context.Background(), jobs.Job{ID: "j3", Type: NotificationAssigned, Payload: "garbage"}))
}
