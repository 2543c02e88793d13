package services

import (
	"fmt"
	"time"

	"business-directory-backend/db/models"
	"business-directory-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EmailLogger records outbound report emails.
type EmailLogger interface {
	LogEmailSent(entry *models.EmailLog) error
}

// EmailReportSender emails the job creator an XLSX report of rejected and
// duplicate rows once a job finishes. Every step is best-effort; a report
// failure never changes the job outcome.
type EmailReportSender struct {
	emailLogs EmailLogger
	logger    *zap.Logger
}

func NewEmailReportSender(emailLogs EmailLogger, logger *zap.Logger) *EmailReportSender {
	return &EmailReportSender{emailLogs: emailLogs, logger: logger}
}

func (s *EmailReportSender) SendImportReport(job *models.ImportJob, rowErrors []models.ImportRowError, duplicates []models.ImportRowDuplicate) {
	if job.CreatedBy == "" {
		return
	}

	filePath, err := utils.GenerateImportErrorReport(job, rowErrors, duplicates)
	if err != nil {
		s.logger.Warn("Failed to generate import error report",
			zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}

	downloadLink := utils.GenerateDownloadLink(filePath)
	subject := "Business Import Report - " + time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(
		"Import of %s finished with %d error(s) and %d duplicate(s). The attached report lists every affected row.",
		job.SourceFile, job.ErrorCount, job.DuplicateCount,
	)

	if err := utils.SendEmail(job.CreatedBy, message, subject, downloadLink); err != nil {
		s.logger.Warn("Failed to send import report email",
			zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}

	entry := &models.EmailLog{
		ID:             uuid.New(),
		Recipient:      job.CreatedBy,
		Subject:        subject,
		Message:        message,
		SentAt:         time.Now(),
		AttachmentPath: downloadLink,
	}
	if err := s.emailLogs.LogEmailSent(entry); err != nil {
		s.logger.Warn("Failed to log report email", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
}
