// File: /services/ride_report_mailer.go
package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"
	"motocosmos-telemetry/config"
	"motocosmos-telemetry/models"
)

// RiderDirectory resolves the rider accounts reports are sent to.
type RiderDirectory interface {
	FindUser(ctx context.Context, id string) (*models.User, error)
}

// MessageSender delivers composed messages. *gomail.Dialer satisfies it.
type MessageSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// RideReportMailer emails riders a report when one of their rides is closed.
type RideReportMailer struct {
	config *config.Config
	sender   MessageSender
	riders   RiderDirectory
	vehicles VehicleLookup
}

func NewRideReportMailer(cfg *config.Config, riders RiderDirectory, vehicles VehicleLookup) *RideReportMailer {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	return NewRideReportMailerWithSender(cfg, dialer, riders, vehicles)
}

func NewRideReportMailerWithSender(cfg *config.Config, sender MessageSender, riders RiderDirectory, vehicles VehicleLookup) *RideReportMailer {
	return &RideReportMailer{config: cfg, sender: sender, riders: riders, vehicles: vehicles}
}

// RideClosed sends the ride report to the rider
func (m *RideReportMailer) RideClosed(ctx context.Context, ride *models.RideSession, analytics *models.RideAnalytics) error {
	rider, err := m.riders.FindUser(ctx, ride.RiderID)
	if err != nil {
		return fmt.Errorf("failed to find rider %s: %w", ride.RiderID, err)
	}
	if rider.Email == "" {
		slog.Warn("Rider has no email, skipping ride report", "rider_id", rider.ID, "ride_id", ride.ID)
		return nil
	}

	// the report still goes out without the bike name
	bike := ""
	if motorcycle, err := m.vehicles.FindMotorcycle(ctx, ride.MotorcycleID); err != nil {
		slog.Warn("Failed to find motorcycle for ride report", "error", err, "ride_id", ride.ID)
	} else {
		bike = motorcycle.DisplayName()
	}

	msg := m.composeReport(rider, bike, ride, analytics)
	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send ride report: %w", err)
	}

	slog.Info("Ride report sent", "ride_id", ride.ID, "rider_id", rider.ID)
	return nil
}

func (m *RideReportMailer) composeReport(rider *models.User, bike string, ride *models.RideSession, analytics *models.RideAnalytics) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", m.config.FromName, m.config.FromEmail))
	msg.SetHeader("To", rider.Email)
	msg.SetHeader("Subject", fmt.Sprintf("MotoCosmos - Your ride on %s", ride.StartTime.Format("2 Jan 2006")))

	var recs []string
	if analytics != nil {
		recs = analytics.Recommendations
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hello %s!\n\n", rider.Name)
	if bike != "" {
		fmt.Fprintf(&text, "Your ride on the %s ended with status: %s\n\n", bike, ride.Status)
	} else {
		fmt.Fprintf(&text, "Your ride ended with status: %s\n\n", ride.Status)
	}
	fmt.Fprintf(&text, "Distance: %.2f km\n", ride.TotalDistance)
	fmt.Fprintf(&text, "Max speed: %.1f km/h\n", ride.MaxSpeed)
	fmt.Fprintf(&text, "Average speed: %.1f km/h\n", ride.AvgSpeed)
	fmt.Fprintf(&text, "Max lean angle: %.1f°\n", ride.MaxLeanAngle)
	fmt.Fprintf(&text, "Safety score: %.0f/100\n", ride.SafetyScore)
	if analytics != nil {
		fmt.Fprintf(&text, "Smoothness score: %.0f/100\n", analytics.SmoothnessScore)
		fmt.Fprintf(&text, "Efficiency score: %.0f/100\n", analytics.EfficiencyScore)
	}
	if len(recs) > 0 {
		text.WriteString("\nTips for your next ride:\n")
		for _, r := range recs {
			fmt.Fprintf(&text, "- %s\n", r)
		}
	}
	text.WriteString("\nSafe rides and see you on the road!\nThe MotoCosmos Team\n")

	var body strings.Builder
	body.WriteString(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { text-align: center; background: #007bff; color: white; padding: 20px; border-radius: 10px 10px 0 0; }
        .content { background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px; }
        .stat { background: white; padding: 10px 20px; margin: 8px 0; border-radius: 6px; border-left: 4px solid #007bff; }
        .footer { text-align: center; margin-top: 20px; color: #666; font-size: 14px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>MotoCosmos Ride Report</h1></div>
        <div class="content">
`)
	fmt.Fprintf(&body, "            <h2>Hello %s!</h2>\n", html.EscapeString(rider.Name))
	if bike != "" {
		fmt.Fprintf(&body, "            <p>Your ride on the %s ended with status <strong>%s</strong>.</p>\n",
			html.EscapeString(bike), ride.Status)
	} else {
		fmt.Fprintf(&body, "            <p>Your ride ended with status <strong>%s</strong>.</p>\n", ride.Status)
	}
	fmt.Fprintf(&body, "            <div class=\"stat\">Distance: %.2f km</div>\n", ride.TotalDistance)
	fmt.Fprintf(&body, "            <div class=\"stat\">Max speed: %.1f km/h</div>\n", ride.MaxSpeed)
	fmt.Fprintf(&body, "            <div class=\"stat\">Safety score: %.0f/100</div>\n", ride.SafetyScore)
	if len(recs) > 0 {
		body.WriteString("            <h3>Tips for your next ride</h3>\n            <ul>\n")
		for _, r := range recs {
			fmt.Fprintf(&body, "                <li>%s</li>\n", html.EscapeString(r))
		}
		body.WriteString("            </ul>\n")
	}
	body.WriteString(`        </div>
        <div class="footer">
            <p>This is an automated email, please do not reply.</p>
        </div>
    </div>
</body>
</html>`)

	msg.SetBody("text/plain", text.String())
	msg.AddAlternative("text/html", body.String())
	return msg
}
