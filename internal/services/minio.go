package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var MinioClient *minio.Client

const invoiceBucket = "invoices"

func ConnectMinio() {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false, // ⚠️ à passer à true si tu as HTTPS
	})
	if err != nil {
		log.Println("⚠️ MinIO non configuré :", err)
		return
	}
	MinioClient = client
	log.Println("✅ Connecté à MinIO :", endpoint)

	exists, err := client.BucketExists(context.Background(), invoiceBucket)
	if err == nil && !exists {
		if err := client.MakeBucket(context.Background(), invoiceBucket, minio.MakeBucketOptions{}); err != nil {
			log.Println("⚠️ Création du bucket factures impossible :", err)
		}
	}
}

// UploadInvoicePDF archive le PDF de facture d'une commande.
// Clé: <orderID>.pdf
func UploadInvoicePDF(orderID string, pdf []byte) error {
	if MinioClient == nil {
		return fmt.Errorf("MinIO non initialisé")
	}

	key := orderID + ".pdf"
	_, err := MinioClient.PutObject(context.Background(), invoiceBucket, key,
		bytes.NewReader(pdf), int64(len(pdf)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return err
	}

	log.Printf("✅ Facture archivée: %s/%s", invoiceBucket, key)
	return nil
}

// PresignedInvoiceURL renvoie une URL de téléchargement temporaire (1h)
func PresignedInvoiceURL(orderID string) (string, error) {
	if MinioClient == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition",
		fmt.Sprintf(`attachment; filename="facture_%s.pdf"`, orderID))

	u, err := MinioClient.PresignedGetObject(context.Background(), invoiceBucket,
		orderID+".pdf", time.Hour, reqParams)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
