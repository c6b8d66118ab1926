// Command seed resets the database to a small demo gym: one admin, three
// coaches with weekly windows, a handful of members and a week of sessions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	_ "time/tzdata"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gymplanner/internal/config"
	"gymplanner/internal/database"
	"gymplanner/internal/domain"
	"gymplanner/internal/domain/auth"
	"gymplanner/internal/domain/coach"
	"gymplanner/internal/domain/reservation"
	"gymplanner/internal/domain/session"
	"gymplanner/internal/events"
	"gymplanner/internal/pkg/jwt"
	"gymplanner/internal/pkg/lock"
	"gymplanner/internal/pkg/logger"
	"gymplanner/internal/pkg/timeslot"
	"gymplanner/internal/repository"
)

type coachSeed struct {
	first, last string
	specialties []domain.Specialty
	classes     []classSeed
}

type classSeed struct {
	activity   domain.Activity
	room       string
	start, end string
}

var coachSeeds = []coachSeed{
	{"Leila", "Ben Salah", []domain.Specialty{domain.SpecialtyYoga, domain.SpecialtyPilates}, []classSeed{
		{domain.ActivityYoga, "Studio A", "08:00", "09:00"},
		{domain.ActivityPilates, "Studio A", "18:00", "19:00"},
	}},
	{"Karim", "Haddad", []domain.Specialty{domain.SpecialtyMusculation, domain.SpecialtyCrossFit}, []classSeed{
		{domain.ActivityCrossFit, "Box", "07:00", "08:00"},
		{domain.ActivityMusculation, "Plateau", "12:00", "13:30"},
	}},
	{"Sonia", "Mansour", []domain.Specialty{domain.SpecialtyZumba, domain.SpecialtyBoxe}, []classSeed{
		{domain.ActivityZumba, "Studio B", "08:30", "09:30"},
		{domain.ActivityBoxe, "Ring", "19:00", "20:00"},
	}},
}

var memberNames = [][2]string{
	{"Amine", "Ayari"}, {"Nour", "Chebbi"}, {"Yassine", "Gharbi"}, {"Ines", "Jaziri"}, {"Rania", "Trabelsi"},
}

func main() {
	configPath := flag.String("config", "", "path to a config file (optional)")
	days := flag.Int("days", 7, "number of days of sessions to create, starting tomorrow")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(cfg.DB, log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db, log); err != nil {
		log.Fatal("database migration failed", zap.Error(err))
	}
	if err := wipe(db); err != nil {
		log.Fatal("cleanup failed", zap.Error(err))
	}

	ctx := context.Background()
	loc := cfg.Location()
	locker := lock.NewKeyedMutex()
	users := repository.NewUserRepository(db)
	sessionRepo := session.NewRepository(db)
	reservationRepo, err := reservation.NewRepository(db)
	if err != nil {
		log.Fatal("reservation repository", zap.Error(err))
	}

	authSvc := auth.NewService(users, jwt.New(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL), log)
	coachSvc := coach.NewService(coach.NewRepository(db), users, locker, log)
	reservationSvc := reservation.NewService(reservationRepo, sessionRepo, coachSvc, users, locker, events.Nop{}, log,
		reservation.WithLocation(loc), reservation.WithCancelNotice(cfg.Gym.CancelNotice))
	sessionSvc := session.NewService(sessionRepo, coachSvc, locker, events.Nop{}, log,
		session.WithLocation(loc), session.WithDefaultCapacity(cfg.Gym.DefaultCapacity),
		session.WithEnrollmentGuard(reservationSvc))

	if _, err := authSvc.CreateAccount(ctx, account("admin@gym.local", "admin12345", "Gym", "Admin", domain.RoleAdmin)); err != nil {
		log.Fatal("create admin", zap.Error(err))
	}
	log.Info("admin created", zap.String("email", "admin@gym.local"), zap.String("password", "admin12345"))

	coaches := make([]*domain.Coach, 0, len(coachSeeds))
	for _, cs := range coachSeeds {
		email := fmt.Sprintf("%s@gym.local", lower(cs.first))
		u, err := authSvc.CreateAccount(ctx, account(email, "coach12345", cs.first, cs.last, domain.RoleCoach))
		if err != nil {
			log.Fatal("create coach account", zap.String("email", email), zap.Error(err))
		}
		c, err := coachSvc.Create(ctx, &coach.CreateCoachRequest{
			Name:        cs.first + " " + cs.last,
			UserID:      &u.ID,
			Specialties: cs.specialties,
		})
		if err != nil {
			log.Fatal("create coach", zap.String("email", email), zap.Error(err))
		}
		// Monday to Saturday, 07:00 to 21:00.
		windows := make([]coach.WindowRequest, 0, 6)
		for wd := 1; wd <= 6; wd++ {
			windows = append(windows, coach.WindowRequest{Weekday: wd, Start: "07:00", End: "21:00"})
		}
		if _, err := coachSvc.ReplaceAvailability(ctx, c.ID, windows); err != nil {
			log.Fatal("set availability", zap.String("coach", c.Name), zap.Error(err))
		}
		coaches = append(coaches, c)
		log.Info("coach created", zap.String("email", email), zap.String("password", "coach12345"))
	}

	members := make([]*domain.User, 0, len(memberNames))
	for _, n := range memberNames {
		email := fmt.Sprintf("%s.%s@gym.local", lower(n[0]), lower(n[1]))
		u, err := authSvc.RegisterMember(ctx, auth.RegisterRequest{
			Email: email, Password: "member12345", FirstName: n[0], LastName: n[1],
		})
		if err != nil {
			log.Fatal("create member", zap.String("email", email), zap.Error(err))
		}
		members = append(members, u)
	}
	log.Info("members created", zap.Int("count", len(members)), zap.String("password", "member12345"))

	today := timeslot.Today(time.Now(), loc)
	var created []*domain.Session
	for d := 1; d <= *days; d++ {
		date := today.AddDays(d)
		if date.Weekday() == 0 {
			continue
		}
		for i, cs := range coachSeeds {
			for _, cl := range cs.classes {
				s, err := sessionSvc.Create(ctx, session.Candidate{
					Activity: cl.activity,
					CoachID:  coaches[i].ID,
					Room:     cl.room,
					Date:     date,
					Start:    timeslot.MustClock(cl.start),
					End:      timeslot.MustClock(cl.end),
				})
				if err != nil {
					log.Fatal("create session", zap.String("date", date.String()), zap.Error(err))
				}
				created = append(created, s)
			}
		}
	}
	log.Info("sessions created", zap.Int("count", len(created)))

	// Rejected bookings (overlaps between morning classes) are expected and
	// skipped.
	booked := 0
	for i, m := range members {
		for j := i % 3; j < len(created); j += 3 {
			if _, err := reservationSvc.Book(ctx, m.ID, created[j].ID); err == nil {
				booked++
			}
		}
	}
	log.Info("reservations created", zap.Int("count", booked))
	log.Info("seed complete")
}

func account(email, password, first, last string, role domain.UserRole) auth.CreateAccountRequest {
	return auth.CreateAccountRequest{
		RegisterRequest: auth.RegisterRequest{Email: email, Password: password, FirstName: first, LastName: last},
		Role:            role,
	}
}

// wipe deletes children before parents.
func wipe(db *gorm.DB) error {
	models := database.Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(models[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func lower(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}
