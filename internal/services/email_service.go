package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/carinotj19/ShelterSync/internal/models"
)

// EmailService defines the interface for sending emails
type EmailService interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// Send delivers a single email via SES.
func (s *AWSSESEmailService) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	if _, err := s.sesClient.SendEmail(ctx, input); err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("subject", subject),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent", slog.String("subject", subject))
	return nil
}

// emailMessage is a rendered notification ready for delivery.
type emailMessage struct {
	Subject  string
	HTMLBody string
	TextBody string
}

func summaryEmail(u *models.UserSummary) string {
	if u == nil {
		return ""
	}
	return u.Email
}

func summaryName(u *models.UserSummary) string {
	if u == nil {
		return "there"
	}
	return u.Name
}

func petName(p *models.PetSummary) string {
	if p == nil {
		return "your pet"
	}
	return p.Name
}

// newRequestEmail notifies a shelter that an adoption request arrived.
func newRequestEmail(req *models.AdoptionRequest) emailMessage {
	pet := petName(req.Pet)
	adopter := summaryName(req.Adopter)

	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h1>New Adoption Request</h1>
        <p>Hi %s,</p>
        <p><strong>%s</strong> has submitted an adoption request for <strong>%s</strong>.</p>
        <p>Priority: <strong>%s</strong></p>
        <blockquote style="border-left: 4px solid #0066cc; padding-left: 12px; color: #555;">%s</blockquote>
        <p>Log in to review and respond to this request.</p>
        <p style="color: #666; font-size: 12px;">This is an automated message. Please do not reply to this email.</p>
    </div>
</body>
</html>
`, summaryName(req.Shelter), adopter, pet, req.Priority, req.Message)

	text := fmt.Sprintf(`New Adoption Request

Hi %s,

%s has submitted an adoption request for %s.

Priority: %s

Message:
%s

Log in to review and respond to this request.

This is an automated message. Please do not reply to this email.
`, summaryName(req.Shelter), adopter, pet, req.Priority, req.Message)

	return emailMessage{
		Subject:  fmt.Sprintf("New adoption request for %s", pet),
		HTMLBody: html,
		TextBody: text,
	}
}

// approvalEmail congratulates an adopter on an approved request.
func approvalEmail(req *models.AdoptionRequest) emailMessage {
	pet := petName(req.Pet)
	response := ""
	if req.ShelterResponse != nil {
		response = *req.ShelterResponse
	}

	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h1>Your Adoption Request Was Approved! 🎉</h1>
        <p>Hi %s,</p>
        <p>Great news! Your request to adopt <strong>%s</strong> has been approved.</p>
        <p>%s</p>
        <p>The shelter will contact you with the next steps.</p>
        <p style="color: #666; font-size: 12px;">This is an automated message. Please do not reply to this email.</p>
    </div>
</body>
</html>
`, summaryName(req.Adopter), pet, response)

	text := fmt.Sprintf(`Your Adoption Request Was Approved!

Hi %s,

Great news! Your request to adopt %s has been approved.

%s

The shelter will contact you with the next steps.

This is an automated message. Please do not reply to this email.
`, summaryName(req.Adopter), pet, response)

	return emailMessage{
		Subject:  fmt.Sprintf("Adoption request approved for %s", pet),
		HTMLBody: html,
		TextBody: text,
	}
}

// rejectionEmail informs an adopter that a request was declined.
func rejectionEmail(req *models.AdoptionRequest) emailMessage {
	pet := petName(req.Pet)
	response := ""
	if req.ShelterResponse != nil {
		response = *req.ShelterResponse
	}

	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h1>Update on Your Adoption Request</h1>
        <p>Hi %s,</p>
        <p>Unfortunately, your request to adopt <strong>%s</strong> was not approved this time.</p>
        <p>%s</p>
        <p>Don't give up! There are many other pets looking for a home.</p>
        <p style="color: #666; font-size: 12px;">This is an automated message. Please do not reply to this email.</p>
    </div>
</body>
</html>
`, summaryName(req.Adopter), pet, response)

	text := fmt.Sprintf(`Update on Your Adoption Request

Hi %s,

Unfortunately, your request to adopt %s was not approved this time.

%s

Don't give up! There are many other pets looking for a home.

This is an automated message. Please do not reply to this email.
`, summaryName(req.Adopter), pet, response)

	return emailMessage{
		Subject:  fmt.Sprintf("Update on your adoption request for %s", pet),
		HTMLBody: html,
		TextBody: text,
	}
}

// verificationEmail carries the email-verification link sent at signup.
func verificationEmail(name, link string) emailMessage {
	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h1>Verify Your Email Address</h1>
        <p>Hi %s,</p>
        <p>Thank you for joining ShelterSync. Please verify your email address by clicking the link below:</p>
        <p><a href="%s" style="display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Verify Email Address</a></p>
        <p>Or copy and paste this link in your browser:<br><code>%s</code></p>
        <p>If you didn't sign up for this account, you can ignore this email.</p>
        <p style="color: #666; font-size: 12px;">This is an automated message. Please do not reply to this email.</p>
    </div>
</body>
</html>
`, name, link, link)

	text := fmt.Sprintf(`Verify Your Email Address

Hi %s,

Thank you for joining ShelterSync. Please verify your email address by visiting:

%s

If you didn't sign up for this account, you can ignore this email.

This is an automated message. Please do not reply to this email.
`, name, link)

	return emailMessage{
		Subject:  "Verify your email address",
		HTMLBody: html,
		TextBody: text,
	}
}

// passwordResetEmail carries the short-lived password reset link.
func passwordResetEmail(name, link string, expiry time.Duration) emailMessage {
	minutes := int(expiry.Minutes())

	html := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h1>Reset Your Password</h1>
        <p>Hi %s,</p>
        <p>We received a request to reset your password. Click the link below to choose a new one:</p>
        <p><a href="%s" style="display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Reset Password</a></p>
        <p>Or copy and paste this link in your browser:<br><code>%s</code></p>
        <p><strong>This link expires in %d minutes.</strong></p>
        <p>If you didn't request a password reset, you can ignore this email. Your password will not change.</p>
        <p style="color: #666; font-size: 12px;">This is an automated message. Please do not reply to this email.</p>
    </div>
</body>
</html>
`, name, link, link, minutes)

	text := fmt.Sprintf(`Reset Your Password

Hi %s,

We received a request to reset your password. Visit the link below to choose a new one:

%s

This link expires in %d minutes.

If you didn't request a password reset, you can ignore this email. Your password will not change.

This is an automated message. Please do not reply to this email.
`, name, link, minutes)

	return emailMessage{
		Subject:  "Reset your password",
		HTMLBody: html,
		TextBody: text,
	}
}
