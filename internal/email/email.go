package email

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/qotd_errors"
	"gopkg.in/gomail.v2"
)

type EmailPurpose string
type EmailBodyType string

const (
	KeyEmailSMTPServer                        = "smtp.gmail.com"
	KeyEmailSMTPPort                          = 587
	KeyEmailFrom                              = "From"
	KeyEmailTo                                = "To"
	KeyEmailSubject                           = "Subject"
	KeyEmailBodyPlain           EmailBodyType = "text/plain"
	PurposeQotdCycleFailed      EmailPurpose  = "qotd cycle failed"
	defaultEmailChannelCapacity               = 100
	defaultEmailWorkers                       = 1
)

type EmailRequest struct {
	To       []string
	Subject  string
	Body     string
	BodyType EmailBodyType
	Purpose  EmailPurpose
}

// EmailService delivers mail through a small worker pool. Without a sender
// address or recipients it stays disabled and every request fails with
// ErrEmailServiceStopped.
type EmailService struct {
	SenderEmail string
	Password    string
	AlertEmails []string
	Workers     int
	// Sender overrides the SMTP dialer.
	Sender gomail.Sender

	mu      sync.RWMutex
	jobs    chan *gomail.Message
	stopped bool
	wg      sync.WaitGroup
	logger  *logrus.Entry
}

func (e *EmailService) Start() {
	e.logger = logrus.WithField("from", "email service")

	if e.SenderEmail == "" || len(e.AlertEmails) == 0 {
		e.logger.Warn("sender email or alert recipients not configured, alert mails are disabled")
		e.stopped = true
		return
	}
	if e.Workers <= 0 {
		e.Workers = defaultEmailWorkers
	}

	e.jobs = make(chan *gomail.Message, defaultEmailChannelCapacity)
	for i := 0; i < e.Workers; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}
	e.logger.Infof("started %d email workers", e.Workers)
}

// Stop drains queued mails and waits for the workers to exit.
func (e *EmailService) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.jobs)
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *EmailService) worker(id int) {
	defer e.wg.Done()
	logger := e.logger.WithField("worker", id)
	for msg := range e.jobs {
		if err := e.send(msg); err != nil {
			logger.Errorf("cannot send mail %q, %v", msg.GetHeader(KeyEmailSubject), err)
			continue
		}
		logger.Debugf("sent mail %q", msg.GetHeader(KeyEmailSubject))
	}
}

func (e *EmailService) send(msg *gomail.Message) error {
	if e.Sender != nil {
		return gomail.Send(e.Sender, msg)
	}
	dialer := gomail.NewDialer(KeyEmailSMTPServer, KeyEmailSMTPPort, e.SenderEmail, e.Password)
	return dialer.DialAndSend(msg)
}

// NewMail queues one mail. It fails when the service is stopped or ctx ends
// before a slot is free.
func (e *EmailService) NewMail(ctx context.Context, req EmailRequest) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.stopped {
		return qotd_errors.ErrEmailServiceStopped
	}

	if len(req.To) == 0 {
		return fmt.Errorf("%w, mail without recipients", qotd_errors.ErrInvalidRequest)
	}
	if req.BodyType == "" {
		req.BodyType = KeyEmailBodyPlain
	}

	msg := gomail.NewMessage()
	msg.SetHeader(KeyEmailFrom, e.SenderEmail)
	msg.SetHeader(KeyEmailTo, req.To...)
	msg.SetHeader(KeyEmailSubject, req.Subject)
	msg.SetBody(string(req.BodyType), req.Body)

	select {
	case <-ctx.Done():
		e.logger.Errorf("email job cancelled: %v", ctx.Err())
		return errors.Join(qotd_errors.ErrEmailServiceStopped, ctx.Err())
	case e.jobs <- msg:
		return nil
	}
}

// AlertManagers mails subject and body to the configured alert recipients.
func (e *EmailService) AlertManagers(ctx context.Context, subject string, body string) error {
	err := e.NewMail(ctx, EmailRequest{
		To:       e.AlertEmails,
		Subject:  subject,
		Body:     body,
		BodyType: KeyEmailBodyPlain,
		Purpose:  PurposeQotdCycleFailed,
	})
	if err != nil {
		return err
	}
	e.logger.Infof("queued mail to managers for %v purpose", PurposeQotdCycleFailed)
	return nil
}
