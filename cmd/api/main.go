package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"bengkelink/internal/adapter/api"
	"bengkelink/internal/adapter/api/handler"
	apimiddleware "bengkelink/internal/adapter/api/middleware"
	"bengkelink/internal/adapter/api/router"
	"bengkelink/internal/adapter/repository"
	"bengkelink/internal/infrastructure/firebase"
	"bengkelink/internal/infrastructure/websocket"
	"bengkelink/internal/usecase"
	"bengkelink/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []option.ClientOption
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	fbAuth, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}
	authClient := firebase.NewAuthClient(fbAuth)

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	bookingRepo := repository.NewFirestoreBookingRepository(firestoreClient)
	orderRepo := repository.NewFirestoreOrderRepository(firestoreClient)
	offerRepo := repository.NewFirestoreDeliveryOfferRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatMessageRepository(firestoreClient)
	notificationRepo := repository.NewFirestoreNotificationRepository(firestoreClient)
	walletRepo := repository.NewFirestoreWalletRepository(firestoreClient)

	authorizer := usecase.NewRepoRoomAuthorizer(orderRepo)
	wsManager := websocket.NewManager(authorizer)
	wsManager.Start(ctx)

	notificationUseCase := usecase.NewNotificationUseCase(notificationRepo, wsManager)
	dispatchUseCase := usecase.NewDispatchUseCase(offerRepo, orderRepo, userRepo, notificationUseCase,
		wsManager, cfg.OfferTTL, cfg.OfferFanout, usecase.NextNearestEscalation{})
	walletUseCase := usecase.NewWalletUseCase(walletRepo, notificationUseCase, wsManager)
	orderUseCase := usecase.NewOrderUseCase(orderRepo, userRepo, dispatchUseCase, walletUseCase,
		notificationUseCase, wsManager, cfg.DeliveryBaseRate, cfg.DeliveryPerKmRate)
	bookingUseCase := usecase.NewBookingUseCase(bookingRepo, notificationUseCase, wsManager, cfg.ProposalGracePeriod)
	chatUseCase := usecase.NewChatUseCase(chatRepo, orderRepo, userRepo, notificationUseCase)

	wsManager.BindChatService(chatUseCase)
	dispatchUseCase.StartExpirySweep(ctx, cfg.OfferSweepPeriod)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient, userRepo)

	router.Setup(e, router.Handlers{
		Booking:       handler.NewBookingHandler(bookingUseCase),
		Order:         handler.NewOrderHandler(orderUseCase, chatUseCase),
		DeliveryOffer: handler.NewDeliveryOfferHandler(dispatchUseCase),
		Notification:  handler.NewNotificationHandler(notificationUseCase),
		Wallet:        handler.NewWalletHandler(walletUseCase),
		WebSocket:     handler.NewWebSocketHandler(wsManager),
		Health:        handler.NewHealthHandler(cfg.PollInterval),
	}, authMiddleware)

	go func() {
		log.Printf("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	// Signal arrival cancels ctx, which also stops the websocket manager
	// and the offer expiry sweep.
	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}
