// Package arrival runs the best-effort work that follows a committed
// attendance row: photo upload, photo attach and guardian notification.
// Nothing here can fail or roll back the mark itself.
package arrival

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Thomas-Okram/TapTell/internal/media"
	"github.com/Thomas-Okram/TapTell/internal/metrics"
	"github.com/Thomas-Okram/TapTell/internal/model"
	"github.com/Thomas-Okram/TapTell/internal/notify"
	"github.com/Thomas-Okram/TapTell/internal/repository"
	"github.com/Thomas-Okram/TapTell/internal/telemetry"
)

// Mark is a freshly inserted attendance row plus what the device sent.
type Mark struct {
	Attendance      model.Attendance
	Student         model.Student
	School          model.School
	PhotoURL        string
	PhotoExternalID string
	PhotoBase64     string
}

type Outcome struct {
	PhotoURL *string
}

type Options struct {
	UploadTimeout time.Duration
	NotifyTimeout time.Duration
	Logger        *slog.Logger
	Now           func() time.Time
}

type Coordinator struct {
	rows          repository.Attendance
	photos        media.Store
	sender        notify.Sender
	uploadTimeout time.Duration
	notifyTimeout time.Duration
	logger        *slog.Logger
	now           func() time.Time
	wg            sync.WaitGroup
}

func New(rows repository.Attendance, photos media.Store, sender notify.Sender, opts Options) *Coordinator {
	if photos == nil {
		photos = media.Off{}
	}
	if sender == nil {
		sender = notify.Off{}
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = 15 * time.Second
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = telemetry.Logger("arrival")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		rows:          rows,
		photos:        photos,
		sender:        sender,
		uploadTimeout: opts.UploadTimeout,
		notifyTimeout: opts.NotifyTimeout,
		logger:        opts.Logger,
		now:           opts.Now,
	}
}

// AfterMark resolves and attaches the photo synchronously so the device can
// show it, then hands the notification to a background goroutine.
func (c *Coordinator) AfterMark(ctx context.Context, m Mark) Outcome {
	ctx = context.WithoutCancel(ctx)
	var out Outcome

	url, externalID := c.resolvePhoto(ctx, m)
	if url != "" {
		if c.attachPhoto(ctx, m.Attendance.ID, url, externalID) {
			out.PhotoURL = &url
		}
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.notify(ctx, m, url)
	}()
	return out
}

// Wait blocks until every dispatched notification has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) resolvePhoto(ctx context.Context, m Mark) (string, *string) {
	if m.PhotoURL != "" {
		var externalID *string
		if m.PhotoExternalID != "" {
			externalID = &m.PhotoExternalID
		}
		return m.PhotoURL, externalID
	}
	if m.PhotoBase64 == "" {
		return "", nil
	}
	if !c.photos.Enabled() {
		metrics.PhotoUploads.WithLabelValues(metrics.ResultSkipped).Inc()
		c.logger.Warn("photo storage not configured, skipping upload", "attendance_id", m.Attendance.ID)
		return "", nil
	}

	uploaded, err := c.upload(ctx, m)
	if err != nil {
		metrics.PhotoUploads.WithLabelValues(metrics.ResultFailed).Inc()
		c.logger.Error("photo upload failed", "attendance_id", m.Attendance.ID, "err", err)
		return "", nil
	}
	metrics.PhotoUploads.WithLabelValues(metrics.ResultOK).Inc()
	var externalID *string
	if uploaded.ExternalID != "" {
		externalID = &uploaded.ExternalID
	}
	return uploaded.URL, externalID
}

func (c *Coordinator) upload(ctx context.Context, m Mark) (uploaded media.Uploaded, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("photo upload panic: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()
	return c.photos.Upload(ctx, media.Photo{
		Data:   m.PhotoBase64,
		Folder: AttendanceFolder(m.Attendance.SchoolID, m.Attendance.Date),
	})
}

func (c *Coordinator) attachPhoto(ctx context.Context, id, url string, externalID *string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("photo attach panic", "attendance_id", id, "panic", r)
			ok = false
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()
	if err := c.rows.SetAttendancePhoto(ctx, id, url, externalID); err != nil {
		c.logger.Error("photo attach failed", "attendance_id", id, "err", err)
		return false
	}
	return true
}

func (c *Coordinator) notify(ctx context.Context, m Mark, photoURL string) {
	defer func() {
		if r := recover(); r != nil {
			metrics.Notifications.WithLabelValues(metrics.ResultFailed).Inc()
			c.logger.Error("notification panic", "attendance_id", m.Attendance.ID, "panic", r)
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, c.notifyTimeout)
	defer cancel()

	at := m.Attendance.MarkedAt
	if loc, err := model.LoadZone(m.School.Timezone); err == nil {
		at = at.In(loc)
	}
	result, err := c.sender.Send(ctx, notify.Arrival{
		To:          m.Student.GuardianWhatsapp,
		StudentName: m.Student.Name,
		SchoolName:  m.School.Name,
		At:          at,
		PhotoURL:    photoURL,
	})
	if err != nil {
		metrics.Notifications.WithLabelValues(metrics.ResultFailed).Inc()
		c.logger.Error("whatsapp send failed", "attendance_id", m.Attendance.ID, "provider", result.Provider, "err", err)
		return
	}
	if result.Skipped {
		metrics.Notifications.WithLabelValues(metrics.ResultSkipped).Inc()
		c.logger.Debug("whatsapp skipped", "attendance_id", m.Attendance.ID, "reason", result.Reason)
		return
	}
	if err := c.rows.MarkAttendanceNotified(ctx, m.Attendance.ID, c.now().UTC()); err != nil {
		c.logger.Error("failed to stamp notification", "attendance_id", m.Attendance.ID, "err", err)
		return
	}
	metrics.Notifications.WithLabelValues(metrics.ResultOK).Inc()
}

func AttendanceFolder(schoolID, date string) string {
	return UploadFolder(schoolID) + "/" + date
}

// UploadFolder is the default folder for direct device uploads.
func UploadFolder(schoolID string) string {
	return "taptell/" + schoolID + "/attendance"
}
