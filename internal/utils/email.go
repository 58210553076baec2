package utils

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"

	"velora_back_end/internal/models"
)

// Mailer envoie les notifications commandes par SMTP.
type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

var statusLabels = map[string]string{
	models.OrderStatusPending:    "en attente",
	models.OrderStatusConfirmed:  "confirmée",
	models.OrderStatusProcessing: "en préparation",
	models.OrderStatusShipped:    "expédiée",
	models.OrderStatusDelivered:  "livrée",
	models.OrderStatusCancelled:  "annulée",
}

// SendOrderStatusEmail notifie le client d'un changement de statut.
// Appelé en goroutine depuis le handler admin : un échec d'envoi ne doit
// jamais faire échouer la mise à jour de la commande.
func (m *Mailer) SendOrderStatusEmail(order models.Order, to string) error {
	if m.Host == "" {
		log.Debug("📭 SMTP non configuré, notification ignorée")
		return nil
	}

	label, ok := statusLabels[order.Status]
	if !ok {
		label = order.Status
	}

	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(fmt.Sprintf("Votre commande %s est %s", order.OrderNumber, label))
	msg.SetBodyString(mail.TypeTextHTML, orderStatusHTML(order, label))

	client, err := mail.NewClient(m.Host,
		mail.WithPort(m.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.Username),
		mail.WithPassword(m.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Info("📤 Envoi de l'e-mail à ", to)
	return client.DialAndSend(msg)
}

func orderStatusHTML(order models.Order, label string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Mise à jour de commande</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Mise à jour de votre commande</h2>
		<p>Bonjour,</p>
		<p>Votre commande <strong>%s</strong> est désormais <strong>%s</strong>.</p>
		<p>Montant total : <strong>%.2f€</strong></p>
		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe Velora</strong>
		</p>
	</div>
</body>
</html>`, order.OrderNumber, label, order.TotalAmount)
}
