package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"time"

	"tg-bunker-bot/internal/bot"
	"tg-bunker-bot/internal/config"
	"tg-bunker-bot/internal/game"
	"tg-bunker-bot/internal/sheets"
	"tg-bunker-bot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	ctx := context.Background()

	db, err := storage.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	store := storage.NewStore(db)

	redisClient, err := storage.InitRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	dialogs := storage.NewDialogStore(redisClient)

	pool := game.NewPool()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	service := game.NewService(store, pool, rng)

	// Первичная загрузка пулов: неудача не мешает запуску, пулы можно
	// догрузить командой /reload
	if cfg.SheetsURL != "" {
		if values, err := sheets.Load(ctx, cfg.SheetsURL); err != nil {
			log.Printf("Не удалось загрузить Google Sheets: %v", err)
		} else if err := service.ReplacePool(ctx, values); err != nil {
			log.Printf("Не удалось сохранить пул: %v", err)
		} else {
			log.Println("Google Sheets data loaded")
		}
	} else {
		log.Println("SHEETS_URL не задана, пулы персонажей пусты до /reload")
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	log.Printf("Bot authorized on account %s", api.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.WebhookURL + cfg.WebhookPath)
	if err != nil {
		log.Fatalf("Ошибка конфигурации вебхука: %v", err)
	}
	if _, err := api.Request(wh); err != nil {
		log.Fatalf("Ошибка установки вебхука: %v", err)
	}

	updates := api.ListenForWebhook(cfg.WebhookPath)
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	go func() {
		if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
			log.Fatalf("Ошибка HTTP-сервера: %v", err)
		}
	}()

	botHandler := bot.New(api, service, dialogs, cfg.SheetsURL, cfg.AdminID)

	// Обновления обрабатываются по одному: игровые мутации
	// сериализуются самим чат-интерфейсом
	for update := range updates {
		botHandler.HandleUpdate(ctx, update)
	}
}
