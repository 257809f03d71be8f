package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/healthhive/server/internal/config"
	"github.com/healthhive/server/internal/domain/places"
	"github.com/healthhive/server/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// SeedOwnerID owns every seeded place.
const SeedOwnerID = "01J0000000SEED0WNER0000000"

func newSeedCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample wellness places",
		Long: `Insert a fixed set of sample places owned by the seed user.

Places that already exist (same name and city) are skipped, so the command
can be run repeatedly. The memory driver is refused because its data would
be discarded when the command exits. Issue a token for the seed user with:
  server token --user ` + SeedOwnerID,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if cfg.Database.Driver == storage.DriverMemory {
				return fmt.Errorf("seeding needs a persistent store: DATABASE_DRIVER=%s keeps data only for the life of this process", storage.DriverMemory)
			}
			logger := config.NewLogger(cfg.Logging)

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			store, err := openStore(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			inserted, skipped, err := seedPlaces(logger.WithContext(ctx), places.NewRepository(store.Places()))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d places (%d already present)\n", inserted, skipped)
			return nil
		},
	}
}

func seedPlaces(ctx context.Context, repo *places.Repository) (inserted, skipped int, err error) {
	for _, fields := range seedData {
		_, err := repo.Create(ctx, SeedOwnerID, fields)
		switch {
		case err == nil:
			inserted++
		case places.IsDuplicate(err):
			skipped++
		default:
			return inserted, skipped, fmt.Errorf("seed %q: %w", fields.Name, err)
		}
	}
	zerolog.Ctx(ctx).Info().Int("inserted", inserted).Int("skipped", skipped).Msg("seed complete")
	return inserted, skipped, nil
}

func seedPlace(name, kind, address, city, zip, description string, services, tags []string) places.Fields {
	return places.Fields{
		Name:        name,
		Type:        kind,
		Services:    services,
		Location:    places.Location{Address: address, City: city, State: "NJ", Zip: zip},
		Description: description,
		Tags:        tags,
	}
}

var seedData = []places.Fields{
	seedPlace("Serenity Yoga Studio", "Yoga Studio", "123 Main St", "Hoboken", "07030",
		"A calming yoga studio offering daily classes for all levels.",
		[]string{"Hatha Yoga", "Vinyasa Yoga", "Meditation"}, []string{"yoga", "mindfulness", "meditation"}),
	seedPlace("Vitality Spa", "Spa", "456 Elm St", "Jersey City", "07302",
		"Luxurious spa with a range of relaxation treatments.",
		[]string{"Massage", "Facial", "Sauna"}, []string{"spa", "relaxation", "wellness"}),
	seedPlace("FitZone Gym", "Gym", "789 Oak Ave", "Newark", "07102",
		"Modern gym with state-of-the-art equipment and trainers.",
		[]string{"Weight Training", "Cardio", "Personal Training"}, []string{"fitness", "gym", "strength"}),
	seedPlace("Mindful Meditation Center", "Meditation Center", "101 Pine Rd", "Montclair", "07042",
		"A serene space for meditation and mindfulness practice.",
		[]string{"Guided Meditation", "Mindfulness Workshops"}, []string{"meditation", "mindfulness", "wellness"}),
	seedPlace("Green Leaf Wellness", "Holistic Center", "234 Birch Ln", "Hoboken", "07030",
		"Holistic healing with personalized wellness plans.",
		[]string{"Acupuncture", "Herbal Therapy", "Reiki"}, []string{"holistic", "acupuncture", "reiki"}),
	seedPlace("Pure Bliss Yoga", "Yoga Studio", "567 Cedar St", "Jersey City", "07302",
		"Yoga studio focusing on balance and restoration.",
		[]string{"Ashtanga Yoga", "Yin Yoga", "Restorative Yoga"}, []string{"yoga", "wellness", "balance"}),
	seedPlace("Harmony Spa", "Spa", "890 Maple Dr", "Newark", "07102",
		"A tranquil spa for ultimate relaxation.",
		[]string{"Hot Stone Massage", "Aromatherapy", "Body Scrub"}, []string{"spa", "massage", "aromatherapy"}),
	seedPlace("Peak Pulse Gym", "Gym", "321 Spruce Way", "Montclair", "07042",
		"High-energy gym with diverse fitness classes.",
		[]string{"CrossFit", "Yoga Classes", "Spin Classes"}, []string{"fitness", "crossfit", "yoga"}),
	seedPlace("Calm Waters Meditation", "Meditation Center", "654 Willow St", "Hoboken", "07030",
		"Peaceful meditation center for inner calm.",
		[]string{"Zen Meditation", "Breathwork", "Retreats"}, []string{"meditation", "breathwork", "wellness"}),
	seedPlace("Balance Holistic Clinic", "Holistic Center", "987 Laurel Ave", "Jersey City", "07302",
		"Comprehensive holistic care for mind and body.",
		[]string{"Chiropractic", "Naturopathy", "Massage"}, []string{"holistic", "chiropractic", "wellness"}),
	seedPlace("Zen Yoga Haven", "Yoga Studio", "147 Magnolia Rd", "Newark", "07102",
		"Inclusive yoga studio for all ages and abilities.",
		[]string{"Kundalini Yoga", "Prenatal Yoga", "Meditation"}, []string{"yoga", "meditation", "inclusivity"}),
	seedPlace("Tranquil Touch Spa", "Spa", "258 Chestnut St", "Montclair", "07042",
		"Spa offering personalized relaxation therapies.",
		[]string{"Swedish Massage", "Reflexology", "Hydrotherapy"}, []string{"spa", "massage", "reflexology"}),
	seedPlace("PowerFit Gym", "Gym", "369 Sycamore Ln", "Hoboken", "07030",
		"Dynamic gym for high-intensity workouts.",
		[]string{"Strength Training", "Boxing", "HIIT"}, []string{"fitness", "boxing", "hiit"}),
	seedPlace("Inner Peace Meditation", "Meditation Center", "741 Ash St", "Jersey City", "07302",
		"Community-focused meditation center.",
		[]string{"Mindfulness Meditation", "Group Sessions"}, []string{"meditation", "mindfulness", "community"}),
	seedPlace("Wellness Grove", "Holistic Center", "852 Poplar Dr", "Newark", "07102",
		"Holistic center promoting natural healing.",
		[]string{"Ayurveda", "Energy Healing", "Nutrition Counseling"}, []string{"holistic", "ayurveda", "healing"}),
	seedPlace("Radiant Yoga Studio", "Yoga Studio", "963 Hawthorn St", "Montclair", "07042",
		"Bright studio with heated and power yoga classes.",
		[]string{"Hot Yoga", "Power Yoga", "Yoga Nidra"}, []string{"yoga", "wellness", "heat"}),
	seedPlace("Oasis Spa", "Spa", "159 Juniper Ave", "Hoboken", "07030",
		"Day spa with massages and skin care.",
		[]string{"Deep Tissue Massage", "Facials", "Steam Room"}, []string{"spa", "relaxation", "skincare"}),
	seedPlace("Iron Core Gym", "Gym", "753 Redwood Rd", "Jersey City", "07302",
		"Strength-focused gym with coaching.",
		[]string{"Powerlifting", "Olympic Lifting", "Conditioning"}, []string{"fitness", "strength", "gym"}),
	seedPlace("Sacred Space Meditation", "Meditation Center", "486 Cypress Ln", "Newark", "07102",
		"Quiet center for silent and guided practice.",
		[]string{"Silent Meditation", "Sound Baths"}, []string{"meditation", "sound", "wellness"}),
	seedPlace("Healing Path Holistic", "Holistic Center", "624 Sequoia Dr", "Montclair", "07042",
		"Integrative therapies for whole-person wellness.",
		[]string{"Massage Therapy", "Acupuncture", "Herbal Medicine"}, []string{"holistic", "healing", "acupuncture"}),
}
