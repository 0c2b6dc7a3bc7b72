package main

import (
	"context"
	"log"
	"net/http"

	"lexgate/account"
	"lexgate/bizerror"
	"lexgate/decisionlog"
	"lexgate/es"
	"lexgate/evaluation"
	"lexgate/grant"
	"lexgate/infra/tracing"
	"lexgate/override"
	"lexgate/persistence"
	"lexgate/policy"
	"lexgate/roledefault"
	"lexgate/session"
	"lexgate/sessions"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("service start")

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		log.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			log.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB(context.Background()).AutoMigrate(
		&account.User{}, &policy.Policy{}, &grant.ResourceAccess{},
		&override.UserOverride{}, &roledefault.RoleDefault{},
		&decisionlog.PermissionDecision{},
	).Error
	if err != nil {
		log.Fatalf("database migration failed %v\n", err)
	}

	if err := account.DefaultSecurityConfiguration(); err != nil {
		log.Fatalf("security configuration failed %v\n", err)
	}
	if err := roledefault.Bootstrap(); err != nil {
		log.Fatalf("role defaults bootstrap failed %v\n", err)
	}

	closer, err := tracing.Bootstrap()
	if err != nil {
		log.Fatalf("tracing bootstrap failed %v\n", err)
	}
	defer closer.Close()

	es.Bootstrap()
	decisionlog.BootstrapExport()
	decisionlog.DecisionHandlers = append(decisionlog.DecisionHandlers, decisionlog.IndexDecisionHandle)

	stopDrainer := decisionlog.StartDrainer()
	defer stopDrainer()

	engine := gin.Default()
	engine.Use(tracing.TracingIngress(), bizerror.ErrorHandling())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "lexgate")
	})

	sessions.RegisterSessionsHandler(engine)

	account.RegisterUsersRestAPI(engine, session.SimpleAuthFilter())
	evaluation.RegisterEvaluationsRestAPI(engine, session.SimpleAuthFilter())
	policy.RegisterPoliciesRestAPI(engine, session.SimpleAuthFilter())
	grant.RegisterResourceAccessRestAPI(engine, session.SimpleAuthFilter())
	override.RegisterUserOverridesRestAPI(engine, session.SimpleAuthFilter())
	decisionlog.RegisterDecisionLogRestAPI(engine, session.SimpleAuthFilter())

	err = engine.Run(":80")
	if err != nil {
		panic(err)
	}
}
