package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"stationgate/internal/auth"
	"stationgate/internal/engine"
	"stationgate/internal/httpserver"
	"stationgate/internal/logger"
	"stationgate/internal/models"
	"stationgate/internal/realtime"
	"stationgate/internal/store"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()
	lg := logger.New()
	defer lg.Sync()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		lg.Fatalw("DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(&models.PC{}, &models.Session{}, &models.DetectedIP{}, &models.DeviceToken{}, &models.StaffUser{}); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}
	seedDefaultAdmin(db, lg)

	hub := realtime.NewHub()
	notifier := connectNotifier(hub, lg)
	st := store.NewGormStore(db, notifier)
	core := engine.NewCore(st, lg)

	router := httpserver.NewRouter(db, st, core, hub, lg)
	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}
	lg.Infow("listening", "port", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}

// connectNotifier wires change events through Redis when REDIS_ADDR is set
// and reachable; otherwise the in-process hub serves alone.
func connectNotifier(hub *realtime.Hub, lg *zap.SugaredLogger) store.Notifier {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return hub
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		lg.Warnw("redis unavailable, falling back to in-process events", "error", err)
		return hub
	}
	bridge := realtime.NewBridge(rdb, hub, lg)
	go bridge.Run(context.Background())
	lg.Infow("redis event bridge connected", "addr", addr)
	return bridge
}

func seedDefaultAdmin(db *gorm.DB, lg *zap.SugaredLogger) {
	email := strings.ToLower(os.Getenv("ADMIN_EMAIL"))
	if email == "" {
		email = "admin@stationgate.local"
	}
	var count int64
	db.Model(&models.StaffUser{}).Where("LOWER(email)=?", email).Count(&count)
	if count > 0 {
		return
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "change-me"
	}
	hash, _ := auth.HashPassword(password)
	u := models.StaffUser{Email: email, PasswordHash: hash, Role: "Administrator", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := db.Create(&u).Error; err != nil {
		lg.Warnw("seed admin failed", "error", err)
		return
	}
	lg.Infow("seeded default admin", "email", email)
}
