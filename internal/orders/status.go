package orders

import "velora_back_end/internal/models"

// validStatuses est l'énumération fermée des statuts de commande.
var validStatuses = map[string]bool{
	models.OrderStatusPending:    true,
	models.OrderStatusConfirmed:  true,
	models.OrderStatusProcessing: true,
	models.OrderStatusShipped:    true,
	models.OrderStatusDelivered:  true,
	models.OrderStatusCancelled:  true,
}

// terminalStatuses : aucune transition ne peut en sortir.
var terminalStatuses = map[string]bool{
	models.OrderStatusDelivered: true,
	models.OrderStatusCancelled: true,
}

// IsValidStatus vérifie qu'un statut appartient à l'énumération.
func IsValidStatus(status string) bool {
	return validStatuses[status]
}

// IsTerminalStatus indique si un statut ne peut plus évoluer.
func IsTerminalStatus(status string) bool {
	return terminalStatuses[status]
}

// CanTransition valide une transition du workflow : tout statut valide est
// atteignable depuis un état non terminal, rien ne sort d'un état terminal.
func CanTransition(from, to string) bool {
	if !IsValidStatus(to) {
		return false
	}
	if IsTerminalStatus(from) {
		return false
	}
	return true
}
