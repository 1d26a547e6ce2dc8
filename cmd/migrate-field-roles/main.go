package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"event-checkin-backend/config"
	"event-checkin-backend/database"
	"event-checkin-backend/services"

	"github.com/spf13/pflag"
)

func main() {
	var dryRun bool

	flagSet := pflag.NewFlagSet("migrate-field-roles", pflag.ContinueOnError)
	flagSet.BoolVar(&dryRun, "dry-run", false, "affiche les groupes à migrer sans rien écrire")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		log.Fatalf("❌ %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Erreur lors du chargement de la configuration: %v", err)
	}

	if err := database.Connect(cfg.MongoURI, cfg.MongoDB); err != nil {
		log.Fatalf("❌ Erreur de connexion à MongoDB: %v", err)
	}
	defer database.Close()

	updated, err := migrate(context.Background(), database.NewEventRepository(database.DB), dryRun)
	if err != nil {
		log.Fatalf("❌ Migration interrompue: %v", err)
	}

	if dryRun {
		fmt.Printf("\n✅ %d groupe(s) à migrer (aucune écriture)\n", updated)
		return
	}
	fmt.Printf("\n✅ %d groupe(s) migré(s)\n", updated)
}

// migrate attribue un rôle aux champs qui n'en ont pas ; retourne le nombre de groupes modifiés
func migrate(ctx context.Context, events *database.EventRepository, dryRun bool) (int, error) {
	all, err := events.FindAll(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, event := range all {
		for _, group := range event.Groups {
			fields, changed := services.AssignMissingRoles(group.Fields)
			if !changed {
				continue
			}

			log.Printf("📝 %s / %s", event.Slug, group.Name)
			for _, f := range fields {
				log.Printf("   %-30s -> %s", f.Label, f.Role)
			}
			updated++

			if dryRun {
				continue
			}
			group.Fields = fields
			if err := events.ReplaceGroup(ctx, event.ID, group); err != nil {
				return updated - 1, fmt.Errorf("groupe %s de %s: %w", group.Name, event.Slug, err)
			}
		}
	}

	return updated, nil
}
