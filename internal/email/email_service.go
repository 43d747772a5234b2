package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog"

	"github.com/notcelab/notce-backend/internal/config"
	"github.com/notcelab/notce-backend/internal/model"
)

// Service sends transactional email through Amazon SES. A disabled service
// is valid and silently skips all sends, so callers never need to branch.
type Service struct {
	client      *sesv2.Client
	fromEmail   string
	fromName    string
	frontendURL string
	enabled     bool
	log         zerolog.Logger
}

// New creates the email service. When EMAIL_ENABLED is off the service is
// returned in disabled mode without touching AWS configuration.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Service, error) {
	logger := log.With().Str("component", "email").Logger()

	if !cfg.EmailEnabled {
		logger.Info().Msg("Email service disabled")
		return &Service{enabled: false, log: logger}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	logger.Info().Str("from", cfg.EmailFrom).Str("region", cfg.AWSRegion).Msg("Email service enabled")
	return &Service{
		client:      sesv2.NewFromConfig(awsCfg),
		fromEmail:   cfg.EmailFrom,
		fromName:    cfg.EmailName,
		frontendURL: cfg.FrontendURL,
		enabled:     true,
		log:         logger,
	}, nil
}

// IsEnabled reports whether sends actually go out.
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// SendSessionReport emails a completed study session summary.
func (s *Service) SendSessionReport(ctx context.Context, to, name string, session *model.StudySession, score model.FinalScore) error {
	if !s.enabled {
		s.log.Debug().Str("to", to).Msg("Skipping session report (disabled)")
		return nil
	}

	modeLabel := "Practice Session"
	if session.Mode == model.StudyModeExam {
		modeLabel = "Exam Simulation"
	}

	subject := fmt.Sprintf("Your %s Results: %d%%", modeLabel, score.Percentage)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h1 style="color: #2c6e63;">%s Complete</h1>
		<p>Hi %s,</p>
		<p>You just finished a %d question %s in the <strong>%s</strong> domain.</p>
		<p style="font-size: 28px; margin: 24px 0;"><strong>%d / %d correct (%d%%)</strong></p>
		<p>Review your full breakdown and domain analytics on your dashboard:</p>
		<p><a href="%s/dashboard" style="color: #2c6e63;">Open dashboard</a></p>
		<p style="font-size: 12px; color: #666; margin-top: 32px;">This is an automated email. Please do not reply.</p>
	</div>
</body>
</html>`,
		modeLabel, name, session.TotalQuestions, modeLabel,
		session.Domain.FullName(), score.Correct, score.Total, score.Percentage,
		s.frontendURL)

	textBody := fmt.Sprintf(`Hi %s,

You just finished a %d question %s in the %s domain.

Score: %d / %d correct (%d%%)

Review your full breakdown: %s/dashboard

---
This is an automated email. Please do not reply.
`,
		name, session.TotalQuestions, modeLabel, session.Domain.FullName(),
		score.Correct, score.Total, score.Percentage, s.frontendURL)

	return s.send(ctx, to, subject, htmlBody, textBody)
}

func (s *Service) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	s.log.Info().Str("to", to).Str("subject", subject).Msg("Email sent")
	return nil
}
