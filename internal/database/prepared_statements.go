package database

import (
	"log"
	"sync"

	"github.com/gocql/gocql"
)

// CQL des requêtes chaudes du moteur de commande. Les sessions sont mises en
// cache au démarrage ; chaque appel construit un Query frais (un *gocql.Query
// partagé entre goroutines n'est pas sûr).
const (
	cqlGetProduct = "SELECT product_id, name, price, shop_id FROM products WHERE product_id = ?"
	cqlGetShop    = "SELECT shop_id, name, latitude, longitude, owner_email FROM shops WHERE shop_id = ?"
	cqlGetCourier = "SELECT courier_id, name, email FROM couriers WHERE courier_id = ?"

	cqlGetCustomer = "SELECT customer_id, name, email, phone FROM customers WHERE customer_id = ?"

	cqlInsertOrder = `INSERT INTO orders (order_id, customer_id, shop_id, shop_name, items, items_total,
		delivery_charge, platform_fee, total_amount, distance_km, payment_method, payment_status,
		gateway_order_id, gateway_payment_id, shipping, customer_lat, customer_lon, courier_id,
		status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	cqlGetOrder = `SELECT order_id, customer_id, shop_id, shop_name, items, items_total,
		delivery_charge, platform_fee, total_amount, distance_km, payment_method, payment_status,
		gateway_order_id, gateway_payment_id, shipping, customer_lat, customer_lon, courier_id,
		status, created_at, updated_at FROM orders WHERE order_id = ?`
	cqlOrdersByCustomer = "SELECT order_id FROM orders_by_customer WHERE customer_id = ? LIMIT ?"
	cqlOrdersByGateway  = "SELECT order_id FROM orders_by_gateway WHERE gateway_order_id = ?"

	cqlInsertOrderByCustomer = "INSERT INTO orders_by_customer (customer_id, created_at, order_id) VALUES (?, ?, ?)"
	cqlInsertOrderByGateway  = "INSERT INTO orders_by_gateway (gateway_order_id, order_id) VALUES (?, ?)"

	cqlMarkOrderPaid = "UPDATE orders SET payment_status = ?, gateway_payment_id = ?, updated_at = ? WHERE order_id = ?"

	// LWT : l'insertion non appliquée est le signal de rejeu idempotent
	cqlClaimSettlement   = "INSERT INTO settlements (gateway_order_id, gateway_payment_id, settled_at) VALUES (?, ?, ?) IF NOT EXISTS"
	cqlReleaseSettlement = "DELETE FROM settlements WHERE gateway_order_id = ?"

	cqlInsertIntent       = "INSERT INTO checkout_intents (intent_id, customer_id, gateway_order_id, order_ids, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	cqlUpdateIntentStatus = "UPDATE checkout_intents SET status = ?, order_ids = ?, updated_at = ? WHERE intent_id = ?"
	cqlOpenIntents        = "SELECT intent_id, customer_id, gateway_order_id, order_ids, status, created_at, updated_at FROM checkout_intents WHERE status = 'open' ALLOW FILTERING"
)

var (
	ordersSession  *gocql.Session
	catalogSession *gocql.Session
	usersSession   *gocql.Session

	preparedOnce sync.Once
)

// InitPreparedStatements met en cache les sessions des keyspaces chauds
func InitPreparedStatements() {
	preparedOnce.Do(func() {
		var err error
		if ordersSession, err = GetOrdersSession(); err != nil {
			log.Printf("⚠️ Session orders indisponible: %v", err)
		}
		if catalogSession, err = GetCatalogSession(); err != nil {
			log.Printf("⚠️ Session catalogue indisponible: %v", err)
		}
		if usersSession, err = GetUsersSession(); err != nil {
			log.Printf("⚠️ Session users indisponible: %v", err)
		}
		log.Println("✅ Sessions pré-chargées pour les requêtes du moteur de commande")
	})
}

func QueryGetProduct(productID string) *gocql.Query {
	return catalogSession.Query(cqlGetProduct, productID)
}

func QueryGetShop(shopID string) *gocql.Query {
	return catalogSession.Query(cqlGetShop, shopID)
}

func QueryGetCourier(courierID string) *gocql.Query {
	return catalogSession.Query(cqlGetCourier, courierID)
}

func QueryGetCustomer(customerID string) *gocql.Query {
	return usersSession.Query(cqlGetCustomer, customerID)
}

func QueryInsertOrder(args ...interface{}) *gocql.Query {
	return ordersSession.Query(cqlInsertOrder, args...)
}

func QueryGetOrder(orderID string) *gocql.Query {
	return ordersSession.Query(cqlGetOrder, orderID)
}

func QueryOrdersByCustomer(customerID string, limit int) *gocql.Query {
	return ordersSession.Query(cqlOrdersByCustomer, customerID, limit)
}

func QueryOrdersByGateway(gatewayOrderID string) *gocql.Query {
	return ordersSession.Query(cqlOrdersByGateway, gatewayOrderID)
}

func QueryInsertOrderByCustomer(args ...interface{}) *gocql.Query {
	return ordersSession.Query(cqlInsertOrderByCustomer, args...)
}

func QueryInsertOrderByGateway(args ...interface{}) *gocql.Query {
	return ordersSession.Query(cqlInsertOrderByGateway, args...)
}

func QueryMarkOrderPaid(args ...interface{}) *gocql.Query {
	return ordersSession.Query(cqlMarkOrderPaid, args...)
}

func QueryClaimSettlement(args ...interface{}) *gocql.Query {
	return ordersSession.Query(cqlClaimSettlement, args...)
}

func QueryReleaseSettlement(gatewayOrderID string) *gocql.Query {
	return ordersSession.Query(cqlReleaseSettlement, gatewayOrderID)
}

func QueryInsertIntent(args ...interface{}) *gocql.Query {
	return ordersSession.Query(cqlInsertIntent, args...)
}

func QueryUpdateIntentStatus(args ...interface{}) *gocql.Query {
	return ordersSession.Query(cqlUpdateIntentStatus, args...)
}

func QueryOpenIntents() *gocql.Query {
	return ordersSession.Query(cqlOpenIntents)
}
