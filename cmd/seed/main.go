// Command seed loads the starter catalogue of departments, categories and
// canned solutions, and optionally an administrator account. Entries that
// already exist are skipped, so the command can be rerun.
package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/observability"
	"github.com/deskflow/helpdesk/internal/persistence"
	"github.com/deskflow/helpdesk/internal/repository"
	"github.com/deskflow/helpdesk/internal/service"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

type seedSolution struct {
	title    string
	content  string
	keywords []string
	fallback bool
}

type seedCategory struct {
	name       string
	department string
	keywords   []string
	solutions  []seedSolution
}

var departments = []service.DepartmentInput{
	{Name: "Informatique", Description: "Postes de travail, réseau et logiciels"},
	{Name: "Services généraux", Description: "Bâtiment, électricité et équipements"},
}

var catalogue = []seedCategory{
	{
		name:       "Electricité",
		department: "Services généraux",
		keywords:   []string{"disjoncteur", "fusible", "courant", "panne", "sauter"},
		solutions: []seedSolution{
			{
				title:    "Disjoncteur saute",
				content:  "1. Identifier l'appareil en cause\n2. Réduire la charge électrique\n3. Réarmer le disjoncteur",
				keywords: []string{"disjoncteur", "sauter", "électricité"},
			},
			{
				title:    "Intervention électricien",
				content:  "Un électricien des services généraux va prendre en charge votre demande.",
				fallback: true,
			},
		},
	},
	{
		name:       "Informatique",
		department: "Informatique",
		keywords:   []string{"ordinateur", "logiciel", "internet", "wifi", "imprimante"},
		solutions: []seedSolution{
			{
				title:    "Problème WiFi",
				content:  "1. Redémarrer la box\n2. Vérifier les câbles\n3. Réinitialiser les paramètres réseau",
				keywords: []string{"wifi", "internet", "connexion"},
			},
			{
				title:    "Imprimante bloquée",
				content:  "1. Annuler les impressions en attente\n2. Éteindre puis rallumer l'imprimante\n3. Vérifier le bac à papier",
				keywords: []string{"imprimante", "impression", "papier"},
			},
		},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Postgres.DSN == "" {
		logger.Fatal("POSTGRES_DSN is required")
	}
	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	pool := pg.PoolHandle()
	catalog := service.NewCatalogService(service.CatalogDependencies{
		DepartmentRepo: repository.NewDepartmentRepository(pool),
		CategoryRepo:   repository.NewCategoryRepository(pool),
		SolutionRepo:   repository.NewSolutionRepository(pool),
		TxManager:      repository.NewTxManager(pool),
		Logger:         logger,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:       repository.NewUserRepository(pool),
		DepartmentRepo: repository.NewDepartmentRepository(pool),
	})

	if err := seedCatalogue(ctx, catalog, logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	if err := seedAdmin(ctx, authService, logger); err != nil {
		logger.Fatal("seed admin failed", zap.Error(err))
	}
	logger.Info("seed complete")
}

func seedCatalogue(ctx context.Context, catalog *service.CatalogService, logger *zap.Logger) error {
	existing, err := catalog.ListDepartments(ctx)
	if err != nil {
		return err
	}
	deptIDs := make(map[string]string, len(existing))
	for _, d := range existing {
		deptIDs[d.Name] = d.ID
	}
	for _, input := range departments {
		if _, ok := deptIDs[input.Name]; ok {
			continue
		}
		dept, err := catalog.CreateDepartment(ctx, input)
		if err != nil {
			return err
		}
		deptIDs[dept.Name] = dept.ID
		logger.Info("department created", zap.String("name", dept.Name))
	}

	for _, sc := range catalogue {
		var deptID *string
		if id, ok := deptIDs[sc.department]; ok {
			deptID = &id
		}
		cat, err := catalog.CreateCategory(ctx, service.CategoryInput{
			Name:            sc.name,
			DepartmentID:    deptID,
			Keywords:        sc.keywords,
			DefaultResponse: "Aucune solution spécifique trouvée pour " + sc.name + ".",
		})
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			logger.Info("category already present", zap.String("name", sc.name))
			continue
		}
		if err != nil {
			return err
		}
		for i, sol := range sc.solutions {
			_, err := catalog.CreateSolution(ctx, service.SolutionInput{
				Title:            sol.title,
				Content:          sol.content,
				Keywords:         sol.keywords,
				CategoryID:       cat.ID,
				IsFallback:       sol.fallback,
				FallbackPriority: len(sc.solutions) - i,
			})
			if err != nil {
				return err
			}
		}
		logger.Info("category created", zap.String("name", cat.Name), zap.Int("solutions", len(sc.solutions)))
	}
	return nil
}

// seedAdmin creates SEED_ADMIN_EMAIL when both it and SEED_ADMIN_PASSWORD are set.
func seedAdmin(ctx context.Context, authService *service.AuthService, logger *zap.Logger) error {
	email, password := os.Getenv("SEED_ADMIN_EMAIL"), os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}
	_, err := authService.CreateUser(ctx, domain.Actor{Role: domain.RoleAdmin}, service.AccountInput{
		Name:     "Administrateur",
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
	})
	if apperrors.HasCode(err, apperrors.CodeConflict) {
		logger.Info("admin already present", zap.String("email", email))
		return nil
	}
	if err == nil {
		logger.Info("admin created", zap.String("email", email))
	}
	return err
}
