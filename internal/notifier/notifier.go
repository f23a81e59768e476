package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/assistancekmy/sos-service/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Notifier delivers an alert about a freshly created demande to the admin set.
// Delivery is best-effort: callers log failures and never roll back the create.
type Notifier interface {
	NotifyNewDemande(ctx context.Context, demande *models.Demande, admins []models.User) error
}

// sosAlert is the message body published for each admin.
type sosAlert struct {
	DemandeID string `json:"demande_id"`
	AdminID   string `json:"admin_id"`
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	Telephone string `json:"telephone"`
	Adresse   string `json:"adresse"`
	Type      string `json:"type"`
}

// AMQPNotifier publishes one alert per admin to a RabbitMQ exchange.
type AMQPNotifier struct {
	channel  *amqp.Channel
	exchange string
}

// NewAMQPNotifier opens a channel on conn and declares the alert exchange.
func NewAMQPNotifier(conn *amqp.Connection, exchange string) (*AMQPNotifier, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %v", err)
	}
	if err := channel.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %v", err)
	}
	return &AMQPNotifier{channel: channel, exchange: exchange}, nil
}

// NotifyNewDemande publishes a new_sos alert addressed to every admin.
// Publishing continues past individual failures; the first error is returned.
func (n *AMQPNotifier) NotifyNewDemande(ctx context.Context, demande *models.Demande, admins []models.User) error {
	var firstErr error
	for _, admin := range admins {
		body, err := json.Marshal(sosAlert{
			DemandeID: demande.ID,
			AdminID:   admin.ID,
			Nom:       demande.Nom,
			Prenom:    demande.Prenom,
			Telephone: demande.Telephone,
			Adresse:   demande.Adresse,
			Type:      "new_sos",
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		err = n.channel.PublishWithContext(ctx, n.exchange, "admin."+admin.ID, false, false, amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    demande.ID,
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LogNotifier is the fallback used when no broker is configured; it only logs.
type LogNotifier struct {
	Logger *log.Logger
}

// NotifyNewDemande logs the alert instead of delivering it.
func (n *LogNotifier) NotifyNewDemande(_ context.Context, demande *models.Demande, admins []models.User) error {
	n.Logger.Printf("new SOS demande %s from %s %s at %s (notifying %d admins)",
		demande.ID, demande.Prenom, demande.Nom, demande.Adresse, len(admins))
	return nil
}
