// El agente es el lado offline-first: almacén local durable, outbox de
// movimientos pendientes, motor de sincronización y monitor de calidad de
// conexión. Corre como proceso de fondo y sincroniza cuando la conexión se
// recupera.
package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tripoloni/epi-manager-api/internal/application/netmon"
	"github.com/tripoloni/epi-manager-api/internal/application/session"
	appsync "github.com/tripoloni/epi-manager-api/internal/application/sync"
	"github.com/tripoloni/epi-manager-api/internal/domain"
	"github.com/tripoloni/epi-manager-api/internal/infrastructure/localdb"
	"github.com/tripoloni/epi-manager-api/internal/infrastructure/remote"
	"github.com/tripoloni/epi-manager-api/pkg/config"
	"github.com/tripoloni/epi-manager-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("api_url", cfg.Agent.APIURL).
		Msg("iniciando agente de sincronización")

	store, err := localdb.Open(cfg.Agent.DataDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén local")
	}

	gateway := remote.New(cfg.Agent.APIURL, cfg.Agent.RequestTimeout, log)
	engine := appsync.NewEngine(store, gateway, log)
	monitor := netmon.New(gateway, cfg.Agent.ProbeInterval, cfg.Agent.ProbeWindow, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := restoreSession(ctx, cfg, store, gateway, log)
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo establecer la sesión")
	}
	log.Info().
		Str("user", sess.User.Email).
		Str("obra", sess.Construction).
		Msg("sesión activa")

	go monitor.Run(ctx)

	// Ciclo inicial al arrancar; los siguientes los dispara el monitor al
	// recuperarse la conexión.
	runSync(ctx, engine, sess, log)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("señal de apagado recibida, cerrando agente...")
			return
		case t := <-monitor.Transitions():
			if !netmon.ShouldTriggerSync(t) {
				continue
			}
			log.Info().Str("from", string(t.From)).Str("to", string(t.To)).Msg("conexión recuperada, sincronizando")
			runSync(ctx, engine, sess, log)
		}
	}
}

// runSync ejecuta un ciclo y registra el resultado. Un ciclo ya en curso no es
// error del agente: el disparo se descarta.
func runSync(ctx context.Context, engine *appsync.Engine, sess *session.Session, log *logger.Logger) {
	rep, err := engine.Sync(ctx, sess)
	if err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			log.Debug().Msg("ciclo de sincronización ya en curso, disparo descartado")
			return
		}
		log.Error().Err(err).Msg("ciclo de sincronización")
		return
	}
	if rep.PushErr != nil || rep.PullErr != nil {
		log.Warn().AnErr("push_err", rep.PushErr).AnErr("pull_err", rep.PullErr).Msg("ciclo con fallos transitorios")
	}
}

// restoreSession carga la sesión guardada; si no hay, inicia sesión con el
// email y la obra configurados y la persiste.
func restoreSession(ctx context.Context, cfg *config.Config, store session.Store, gateway *remote.Client, log *logger.Logger) (*session.Session, error) {
	sess, err := store.Load(ctx)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if cfg.Agent.UserEmail == "" || cfg.Agent.Obra == "" {
		return nil, fmt.Errorf("sin sesión guardada: configure AGENT_USER_EMAIL y AGENT_OBRA")
	}

	constructions, err := gateway.GetConstructions(ctx)
	if err != nil {
		return nil, err
	}
	sheetID := ""
	for _, c := range constructions {
		if strings.EqualFold(c.Name, cfg.Agent.Obra) {
			sheetID = c.SheetID
			break
		}
	}
	if sheetID == "" {
		return nil, fmt.Errorf("obra %q no encontrada en el registro", cfg.Agent.Obra)
	}

	user, err := gateway.ValidateUser(ctx, sheetID, cfg.Agent.UserEmail)
	if err != nil {
		return nil, err
	}

	sess = &session.Session{User: *user, Construction: cfg.Agent.Obra, SheetID: sheetID}
	if err := store.Save(ctx, sess); err != nil {
		return nil, err
	}
	log.Info().Str("obra", cfg.Agent.Obra).Msg("sesión iniciada y persistida")
	return sess, nil
}
