package main

import (
	"context"
	"log"
	"os"
	"time"

	"mandi_back_end/internal/cache"
	"mandi_back_end/internal/config"
	"mandi_back_end/internal/database"
	"mandi_back_end/internal/gateway"
	"mandi_back_end/internal/handlers"
	"mandi_back_end/internal/pricing"
	"mandi_back_end/internal/repository"
	"mandi_back_end/internal/routes"
	"mandi_back_end/internal/service"
	"mandi_back_end/internal/services"
	"mandi_back_end/internal/utils"
	"mandi_back_end/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.Load()

	gatewayCfg := config.LoadGateway()
	feeCfg := config.LoadFees()

	database.ConnectDatabases()
	defer database.CloseScylla()

	// ✅ Initialiser les prepared statements pour améliorer les performances
	database.InitPreparedStatements()

	warmupRedisCache()
	services.ConnectMinio()

	// Stores
	catalog := repository.NewScyllaCatalog()
	customers := repository.NewScyllaCustomers()
	orders := repository.NewScyllaOrders()
	intents := repository.NewScyllaIntents()
	preAuths := cache.NewDefaultPreAuth()

	// Services
	aggregator := pricing.NewAggregator(catalog, feeCfg)
	mailer := utils.NewMailer(catalog)
	indexer := services.NewElasticOrderIndexer()
	razorpay := gateway.NewRazorpayClient(gatewayCfg)

	placement := service.NewPlacement(customers, orders, intents, aggregator, mailer, indexer)
	settlement := service.NewSettlement(gatewayCfg, razorpay, orders, customers, preAuths,
		aggregator, placement, mailer, indexer)

	// Worker de réconciliation des intentions restées ouvertes
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper := worker.NewReconciliationWorker(intents, orders, razorpay,
		5*time.Minute, 30*time.Minute)
	go sweeper.Start(ctx)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{os.Getenv("FRONTEND_URL")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Razorpay-Signature"},
		AllowCredentials: true,
	}))

	routes.RegisterRoutes(r,
		handlers.NewOrderHandler(placement, orders),
		handlers.NewPaymentHandler(settlement),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur Mandi lancé sur le port", port)
	r.Run(":" + port)
}

// warmupRedisCache pré-chauffe le cache Redis pour éviter la latence du premier appel
func warmupRedisCache() {
	ctx := context.Background()
	if err := database.Redis.Ping(ctx).Err(); err == nil {
		log.Println("✅ Cache Redis pré-chauffé")
	}
}
