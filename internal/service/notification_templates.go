package service

import "html/template"

const emailLayout = `{{define "open"}}<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f9f9f9; border-radius: 8px;">
<h2 style="color: #3c7ab7; border-bottom: 2px solid #3c7ab7; padding-bottom: 10px;">{{.Heading}}</h2>
{{end}}
{{define "close"}}<p style="color: #666; font-size: 14px; margin-top: 30px; text-align: center;">
This is an automated notification from {{.ClinicName}}.<br>Please do not reply to this email.
</p>
</div>
</body>
</html>{{end}}
{{define "details"}}<table style="width: 100%; border-collapse: collapse;">
<tr><td style="padding: 8px 0; font-weight: bold; width: 40%;">Date:</td><td style="padding: 8px 0;">{{.Date}}</td></tr>
<tr><td style="padding: 8px 0; font-weight: bold;">Time:</td><td style="padding: 8px 0;">{{.TimeSlot}}</td></tr>
<tr><td style="padding: 8px 0; font-weight: bold;">Consultation Type:</td><td style="padding: 8px 0;">{{.ConsultationType}}</td></tr>
<tr><td style="padding: 8px 0; font-weight: bold;">Status:</td><td style="padding: 8px 0;">{{.Status}}</td></tr>
</table>{{end}}`

const newAppointmentTemplate = `{{define "new_appointment"}}{{template "open" .}}
<p style="font-size: 16px; margin-top: 20px;">A new appointment has been booked on {{.ClinicName}}.</p>
<div style="background-color: white; padding: 20px; border-radius: 5px; margin: 20px 0;">
<h3 style="color: #1a3a52; margin-top: 0;">Appointment Details:</h3>
<table style="width: 100%; border-collapse: collapse;">
<tr><td style="padding: 8px 0; font-weight: bold; width: 40%;">Student Name:</td><td style="padding: 8px 0;">{{.StudentName}}</td></tr>
<tr><td style="padding: 8px 0; font-weight: bold;">Student Number:</td><td style="padding: 8px 0;">{{.StudentNumber}}</td></tr>
<tr><td style="padding: 8px 0; font-weight: bold;">Phone Number:</td><td style="padding: 8px 0;">{{.StudentPhone}}</td></tr>
</table>
{{template "details" .}}
{{if .Symptoms}}<div style="margin-top: 15px; padding-top: 15px; border-top: 1px solid #eee;">
<p style="margin: 0; font-weight: bold;">Symptoms Description:</p>
<p style="margin: 5px 0 0 0; color: #666;">{{.Symptoms}}</p>
</div>{{end}}
</div>
<p style="margin-top: 20px; padding: 15px; background-color: #e3f2fd; border-left: 4px solid #3c7ab7; border-radius: 4px;">
<strong>Action Required:</strong> Please log in to the admin dashboard to assign a nurse to this appointment.
</p>
{{template "close" .}}{{end}}`

const assignedTemplate = `{{define "assigned"}}{{template "open" .}}
<p style="font-size: 16px; margin-top: 20px;">Good news! A nurse has been assigned to your appointment.</p>
<div style="background-color: white; padding: 20px; border-radius: 5px; margin: 20px 0;">
<h3 style="color: #1a3a52; margin-top: 0;">Appointment Details:</h3>
{{template "details" .}}
</div>
<div style="background-color: white; padding: 20px; border-radius: 5px; margin: 20px 0;">
<h3 style="color: #1a3a52; margin-top: 0;">Your Assigned Nurse:</h3>
<p style="margin: 5px 0; font-size: 18px;"><strong>{{.NurseName}}</strong></p>
<p style="margin: 5px 0; color: #666;">Specialization: {{.NurseSpecialization}}</p>
</div>
<p style="margin-top: 20px; padding: 15px; background-color: #e3f2fd; border-left: 4px solid #3c7ab7; border-radius: 4px;">
<strong>What's Next?</strong> Please arrive 5-10 minutes before your scheduled time. Bring your student ID and any relevant medical documents.
</p>
{{template "close" .}}{{end}}`

const completedTemplate = `{{define "completed"}}{{template "open" .}}
<p style="font-size: 16px; margin-top: 20px;">Your consultation with <strong>{{.NurseName}}</strong> has been completed.</p>
<div style="background-color: white; padding: 20px; border-radius: 5px; margin: 20px 0;">
<h3 style="color: #1a3a52; margin-top: 0;">Consultation Summary:</h3>
{{template "details" .}}
</div>
{{if .Prescription}}<div style="background-color: white; padding: 20px; border-radius: 5px; margin: 20px 0;">
<h3 style="color: #1a3a52; margin-top: 0;">Prescription &amp; Instructions:</h3>
<p style="margin: 5px 0; white-space: pre-wrap;">{{.Prescription}}</p>
</div>{{end}}
<p style="margin-top: 20px; padding: 15px; background-color: #e3f2fd; border-left: 4px solid #3c7ab7; border-radius: 4px;">
<strong>Important:</strong> Please follow all instructions provided by your nurse. If you have any concerns or your symptoms worsen, please book a follow-up appointment or seek immediate medical attention.
</p>
{{template "close" .}}{{end}}`

var emailTemplates = template.Must(template.New("email").Parse(emailLayout + newAppointmentTemplate + assignedTemplate + completedTemplate))
