package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	log "github.com/sirupsen/logrus"
)

// Storage stocke les justificatifs de paiement dans MinIO. La commande ne
// porte que la clé objet, jamais d'URL publique.
type Storage struct {
	client *minio.Client
	bucket string
}

func NewStorage(client *minio.Client, bucket string) *Storage {
	return &Storage{client: client, bucket: bucket}
}

// UploadPaymentProof dépose le fichier et renvoie sa clé objet.
func (s *Storage) UploadPaymentProof(ctx context.Context, orderID string, file *multipart.FileHeader) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := fmt.Sprintf("proofs/%s/%s", orderID, uuid.NewString())
	_, err = s.client.PutObject(ctx, s.bucket, key, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", err
	}

	log.Infof("📎 Justificatif déposé pour la commande %s (%s)", orderID, key)
	return key, nil
}

// ProofURL génère une URL signée temporaire pour consulter un justificatif
// depuis le back-office.
func (s *Storage) ProofURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
