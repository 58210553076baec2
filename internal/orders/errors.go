package orders

import (
	"errors"
	"fmt"
)

// Erreurs métier du cycle de vie des commandes. Les handlers HTTP les
// traduisent en codes 4xx ; tout le reste remonte en 500.
var (
	ErrEmptyCart        = errors.New("aucun article à commander")
	ErrMissingFields    = errors.New("champs obligatoires manquants")
	ErrOrderNotFound    = errors.New("commande introuvable")
	ErrForbidden        = errors.New("accès non autorisé à cette commande")
	ErrInvalidStatus    = errors.New("statut de commande invalide")
	ErrNoFieldsToUpdate = errors.New("aucun champ à mettre à jour")
)

// ProductNotFoundError identifie le produit fautif lors du checkout.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("produit introuvable: %s", e.ProductID)
}

// InsufficientStockError signale un stock insuffisant pour un article.
// La transaction entière est annulée, aucun effet partiel ne subsiste.
type InsufficientStockError struct {
	ProductID string
	Title     string
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuffisant pour le produit %s (%s), demandé: %d",
		e.Title, e.ProductID, e.Requested)
}
