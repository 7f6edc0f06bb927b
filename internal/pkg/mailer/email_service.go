package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"ai-salesbot-be/pkg/leadstore"
)

type IEmailService interface {
	SendLeadAlert(lead *leadstore.Lead) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	salesInbox  string
}

func NewEmailService(host string, port int, username, password, senderEmail, salesInbox string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		salesInbox:  salesInbox,
	}
}

func (s *emailService) SendLeadAlert(lead *leadstore.Lead) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", s.salesInbox)
	m.SetHeader("Subject", fmt.Sprintf("New sales lead: %s", lead.Name))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>New lead captured by the chatbot</h2>
			<p><strong>Name:</strong> %s</p>
			<p><strong>Phone:</strong> %s</p>
			<p><strong>Email:</strong> %s</p>
			<p><strong>Original question:</strong> %s</p>
			<p><strong>Session:</strong> %s</p>
		</div>
	`, lead.Name, lead.Phone, lead.Email, lead.Question, lead.SessionID)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send lead alert for %s: %v\n", lead.SessionID, err)
		return err
	}

	fmt.Printf("[MAILER] Lead alert sent for session %s\n", lead.SessionID)
	return nil
}
