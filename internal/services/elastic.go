package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"mandi_back_end/internal/database"
	"mandi_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

//
// --- INDEXATION DES COMMANDES DANS ELASTICSEARCH ---
//

// ElasticOrderIndexer pousse chaque commande persistée dans l'index "orders"
// pour la recherche côté vendeur. Best-effort : une panne Elastic ne doit
// jamais faire échouer un checkout.
type ElasticOrderIndexer struct{}

func NewElasticOrderIndexer() *ElasticOrderIndexer {
	return &ElasticOrderIndexer{}
}

// Document aplati : on indexe les champs utiles à la recherche, pas le
// détail du shipping
type orderDocument struct {
	ID            string  `json:"id"`
	CustomerID    string  `json:"customer_id"`
	ShopID        string  `json:"shop_id"`
	ShopName      string  `json:"shop_name"`
	ProductNames  string  `json:"product_names"`
	City          string  `json:"city"`
	TotalAmount   float64 `json:"total_amount"`
	PaymentMethod string  `json:"payment_method"`
	PaymentStatus string  `json:"payment_status"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
}

func (i *ElasticOrderIndexer) IndexOrder(o models.Order) {
	if database.Elastic == nil {
		log.Println("⚠️ Elastic non initialisé, commande non indexée:", o.ID)
		return
	}

	names := ""
	for _, item := range o.Items {
		if names != "" {
			names += " "
		}
		names += item.Name
	}

	doc := orderDocument{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		ShopID:        o.ShopID,
		ShopName:      o.ShopName,
		ProductNames:  names,
		City:          o.Shipping.City,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	data, _ := json.Marshal(doc)
	req := esapi.IndexRequest{
		Index:      "orders",
		DocumentID: o.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}

	res, err := req.Do(context.Background(), database.Elastic)
	if err != nil {
		log.Println("❌ Erreur envoi Elastic:", err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("⚠️ Elastic a renvoyé une erreur pour %s: %s", o.ID, res.String())
	} else {
		log.Printf("✅ Commande indexée dans Elasticsearch: %s", o.ID)
	}
}

//
// --- RECHERCHE CÔTÉ VENDEUR ---
//

// SearchOrders cherche dans les commandes d'une boutique par nom de produit,
// ville ou identifiant de commande
func SearchOrders(shopID, query string) ([]map[string]interface{}, error) {
	if database.Elastic == nil {
		return nil, errors.New("client Elasticsearch non initialisé")
	}

	var buf bytes.Buffer
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"shop_id": shopID}},
				},
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"product_names", "city", "id"},
					},
				},
			},
		},
	}

	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %v", err)
	}

	req := esapi.SearchRequest{
		Index: []string{"orders"},
		Body:  &buf,
	}
	res, err := req.Do(context.Background(), database.Elastic)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %v", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		json.NewDecoder(res.Body).Decode(&e)
		log.Printf("❌ Elasticsearch erreur: %+v", e)
		return nil, errors.New("index non trouvé ou vide")
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %v", err)
	}

	hitsData, ok := r["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("réponse Elastic invalide (pas de hits)")
	}

	hitsArray, ok := hitsData["hits"].([]interface{})
	if !ok {
		return []map[string]interface{}{}, nil
	}

	results := make([]map[string]interface{}, 0, len(hitsArray))
	for _, hit := range hitsArray {
		hitMap, _ := hit.(map[string]interface{})
		if source, ok := hitMap["_source"].(map[string]interface{}); ok {
			results = append(results, source)
		}
	}

	return results, nil
}
