// Command seed fills the database with an admin, a few members and one
// event in every status.
package main

import (
	"context"
	"time"

	"github.com/gdg-garage/community-events/internal/config"
	"github.com/gdg-garage/community-events/internal/database"
	"github.com/gdg-garage/community-events/internal/identity"
	"github.com/gdg-garage/community-events/internal/logger"
	"github.com/gdg-garage/community-events/internal/models"
	"github.com/gdg-garage/community-events/internal/registration"
	"github.com/gdg-garage/community-events/internal/revalidate"
	"github.com/gdg-garage/community-events/internal/store"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Development: true, ServiceName: "seed"})
	defer log.Sync()

	db := database.Connect(cfg, log)
	st := store.New(db, database.TxOptions(cfg))
	ctx := context.Background()

	adminEmail := "admin@example.com"
	if len(cfg.AdminEmails) > 0 {
		adminEmail = cfg.AdminEmails[0]
	}
	admin := models.User{GoogleID: ptr("seed-admin"), Name: "Seed Admin", Email: adminEmail, Role: models.RoleAdmin}
	if err := db.Where(models.User{GoogleID: admin.GoogleID}).FirstOrCreate(&admin).Error; err != nil {
		log.Fatal("create admin", zap.Error(err))
	}

	members := make([]models.User, 3)
	for i, name := range []string{"Ada", "Linus", "Grace"} {
		members[i] = models.User{GoogleID: ptr("seed-" + name), Name: name, Email: name + "@example.com", Role: models.RoleUser}
		if err := db.Where(models.User{GoogleID: members[i].GoogleID}).FirstOrCreate(&members[i]).Error; err != nil {
			log.Fatal("create member", zap.Error(err))
		}
	}

	now := time.Now().UTC().Truncate(time.Hour)
	seeds := []struct {
		title    string
		status   models.EventStatus
		start    time.Time
		capacity int
	}{
		{"Go concurrency workshop", models.EventPublished, now.Add(7 * 24 * time.Hour), 30},
		{"Lightning talks night", models.EventPublished, now.Add(14 * 24 * time.Hour), 2},
		{"Cloud study group", models.EventDraft, now.Add(21 * 24 * time.Hour), 20},
		{"New year retrospective", models.EventEnded, now.Add(-30 * 24 * time.Hour), 50},
		{"Outdoor hack day", models.EventCancelled, now.Add(10 * 24 * time.Hour), 40},
	}

	registrations := registration.NewService(st, revalidate.Nop{}, log)
	for _, s := range seeds {
		event := &models.Event{
			Title:       s.title,
			Description: "Seeded event for local development: " + s.title,
			StartTime:   s.start,
			EndTime:     s.start.Add(3 * time.Hour),
			Location:    "Community space, 2F",
			Capacity:    s.capacity,
			Status:      s.status,
			OrganizerID: admin.ID,
		}
		if err := st.CreateEvent(ctx, event); err != nil {
			log.Fatal("create event", zap.String("title", s.title), zap.Error(err))
		}
		log.Info("event created", zap.String("id", event.ID), zap.String("title", s.title), zap.String("status", string(s.status)))

		if s.status != models.EventPublished {
			continue
		}
		for _, m := range members {
			err := registrations.Register(ctx, identity.User(m.ID, m.Role), event.ID)
			if err != nil {
				log.Info("registration skipped", zap.String("event", s.title), zap.String("member", m.Name), zap.Error(err))
			}
		}
	}
	log.Info("seed complete")
}

func ptr(s string) *string { return &s }
